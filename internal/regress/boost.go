package regress

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// BoostConfig holds the boosting hyperparameters. Defaults mirror the
// production training setup.
type BoostConfig struct {
	Rounds             int     `json:"rounds"`
	MaxDepth           int     `json:"max_depth"`
	LearnRate          float64 `json:"learn_rate"`
	MinLeaf            int     `json:"min_leaf"`
	MaxThresholds      int     `json:"max_thresholds"`
	EarlyStopRounds    int     `json:"early_stop_rounds"`
	ValidationFraction float64 `json:"validation_fraction"`
}

// DefaultBoostConfig returns the standard training configuration.
func DefaultBoostConfig() BoostConfig {
	return BoostConfig{
		Rounds:             500,
		MaxDepth:           6,
		LearnRate:          0.05,
		MinLeaf:            20,
		MaxThresholds:      64,
		EarlyStopRounds:    20,
		ValidationFraction: 0.1,
	}
}

// GradientBooster is a gradient-boosted regression tree ensemble with
// squared-error loss. Unknown inputs follow each split's learned default
// direction, so missing features degrade gracefully instead of failing.
type GradientBooster struct {
	Init        float64     `json:"init"`
	LearnRate   float64     `json:"learn_rate"`
	NumFeatures int         `json:"num_features"`
	Trees       []*treeNode `json:"trees"`
}

// TrainBooster fits an ensemble on X (rows of NumFeatures columns,
// NaN allowed) against y. The tail ValidationFraction of rows — the
// most recent, since callers pass time-ordered data — drives early
// stopping.
func TrainBooster(X [][]float64, y []float64, cfg BoostConfig, log *logrus.Entry) (*GradientBooster, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("feature/target length mismatch: %d vs %d", len(X), len(y))
	}

	nVal := 0
	if cfg.ValidationFraction > 0 && cfg.EarlyStopRounds > 0 {
		nVal = int(float64(len(X)) * cfg.ValidationFraction)
	}
	nTrain := len(X) - nVal
	if nTrain < 2*cfg.MinLeaf {
		nTrain = len(X)
		nVal = 0
	}

	trainIdx := make([]int, nTrain)
	for i := range trainIdx {
		trainIdx[i] = i
	}

	model := &GradientBooster{
		LearnRate:   cfg.LearnRate,
		NumFeatures: len(X[0]),
	}

	sum := 0.0
	for _, i := range trainIdx {
		sum += y[i]
	}
	model.Init = sum / float64(nTrain)

	pred := make([]float64, len(X))
	for i := range pred {
		pred[i] = model.Init
	}
	residual := make([]float64, len(X))

	tcfg := treeConfig{
		maxDepth:      cfg.MaxDepth,
		minLeaf:       cfg.MinLeaf,
		maxThresholds: cfg.MaxThresholds,
	}

	bestValMSE := math.Inf(1)
	bestRound := 0
	stale := 0

	for round := 0; round < cfg.Rounds; round++ {
		for _, i := range trainIdx {
			residual[i] = y[i] - pred[i]
		}
		tree := buildTree(X, residual, trainIdx, 0, tcfg)
		model.Trees = append(model.Trees, tree)

		for i := range X {
			pred[i] += cfg.LearnRate * tree.predict(X[i])
		}

		if nVal > 0 {
			valMSE := 0.0
			for i := nTrain; i < len(X); i++ {
				d := y[i] - pred[i]
				valMSE += d * d
			}
			valMSE /= float64(nVal)
			if valMSE < bestValMSE-1e-9 {
				bestValMSE = valMSE
				bestRound = round
				stale = 0
			} else {
				stale++
				if stale >= cfg.EarlyStopRounds {
					model.Trees = model.Trees[:bestRound+1]
					if log != nil {
						log.WithFields(logrus.Fields{
							"rounds":  bestRound + 1,
							"val_mse": bestValMSE,
						}).Debug("Early stopping triggered")
					}
					return model, nil
				}
			}
		}
	}

	if log != nil {
		log.WithField("rounds", len(model.Trees)).Debug("Boosting complete")
	}
	return model, nil
}

// Predict returns the ensemble prediction for one feature row.
func (g *GradientBooster) Predict(x []float64) float64 {
	out := g.Init
	for _, t := range g.Trees {
		out += g.LearnRate * t.predict(x)
	}
	return out
}

// PredictBatch predicts every row of X.
func (g *GradientBooster) PredictBatch(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = g.Predict(x)
	}
	return out
}
