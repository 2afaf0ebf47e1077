package predict

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Strategy is the ripple-combination rule chosen once at training time.
type Strategy string

const (
	// StrategyDelta serves deltas from the narrow model trained on the
	// 17 injury features against deviation-from-season-average targets.
	StrategyDelta Strategy = "delta"
	// StrategyFullModelDifference serves deltas as the difference
	// between the full 54-feature model's predictions with real injury
	// features and with the injury block zeroed. The zeroed input is a
	// known approximation: that distribution is thin in training data.
	StrategyFullModelDifference Strategy = "full_model_difference"
)

// Sensitivity captures one stat's measured ripple responsiveness on the
// held-out absence games.
type Sensitivity struct {
	MeanRipple  float64 `json:"mean_ripple"`
	MaxRipple   float64 `json:"max_ripple"`
	PctAboveOne float64 `json:"pct_above_1"`
}

// StrategyMetadata is recorded beside the artifacts when a strategy is
// selected and is never re-derived at serving time. The version marker
// changes whenever the selection is recomputed, so a silently different
// decision between deployments is detectable.
type StrategyMetadata struct {
	Strategy           Strategy               `json:"strategy"`
	Threshold          float64                `json:"threshold"`
	MedianSensitivity  float64                `json:"median_sensitivity"`
	PerStatSensitivity map[string]Sensitivity `json:"per_stat_sensitivity,omitempty"`
	RippleFeatures     []string               `json:"ripple_features"`
	BaselineFeatures   []string               `json:"baseline_features"`
	Version            string                 `json:"version"`
	TrainedAt          time.Time              `json:"trained_at"`
}

const metadataFile = "ripple_metadata.json"

// SaveMetadata writes the strategy metadata next to the model artifacts.
func SaveMetadata(dir string, md StrategyMetadata) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create models dir: %w", err)
	}
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode strategy metadata: %w", err)
	}
	path := filepath.Join(dir, metadataFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadMetadata reads the recorded strategy decision.
func LoadMetadata(dir string) (StrategyMetadata, error) {
	path := filepath.Join(dir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyMetadata{}, fmt.Errorf("failed to read strategy metadata: %w", err)
	}
	var md StrategyMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return StrategyMetadata{}, fmt.Errorf("failed to decode strategy metadata: %w", err)
	}
	switch md.Strategy {
	case StrategyDelta, StrategyFullModelDifference:
	default:
		return StrategyMetadata{}, fmt.Errorf("unknown ripple strategy %q", md.Strategy)
	}
	return md, nil
}
