package regress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ModelKind distinguishes the two artifact families on disk.
type ModelKind string

const (
	KindBaseline ModelKind = "baseline"
	KindRipple   ModelKind = "ripple"
)

// ArtifactPath returns the on-disk location of one serialized regressor.
// Each (kind, stat) pair is an independent file: loading one model never
// requires touching the others.
func ArtifactPath(dir string, kind ModelKind, stat string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.json", kind, stat))
}

// SaveModel writes one regressor artifact.
func SaveModel(path string, model *GradientBooster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}
	data, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model %s: %w", path, err)
	}
	return nil
}

// LoadModel reads one regressor artifact.
func LoadModel(path string) (*GradientBooster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	var model GradientBooster
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	return &model, nil
}
