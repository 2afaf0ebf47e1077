package train

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/predict"
	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/internal/stats"
	"github.com/hoopsight/ripple/pkg/config"
	"github.com/hoopsight/ripple/pkg/logger"
)

// Result summarizes one training run: held-out metrics per stat and
// model family, the measured ripple sensitivities, and the recorded
// strategy decision.
type Result struct {
	Examples  int
	TrainRows int
	TestRows  int

	BaselineMetrics map[string]regress.Metrics
	RidgeMetrics    map[string]regress.Metrics
	FullMetrics     map[string]regress.Metrics
	DeltaMetrics    map[string]regress.Metrics

	Sensitivity       map[string]predict.Sensitivity
	MedianSensitivity float64
	Metadata          predict.StrategyMetadata
}

func boostConfig(cfg *config.Config) regress.BoostConfig {
	bcfg := regress.DefaultBoostConfig()
	if cfg.BoostRounds > 0 {
		bcfg.Rounds = cfg.BoostRounds
	}
	if cfg.BoostMaxDepth > 0 {
		bcfg.MaxDepth = cfg.BoostMaxDepth
	}
	if cfg.BoostLearnRate > 0 {
		bcfg.LearnRate = cfg.BoostLearnRate
	}
	if cfg.BoostMinLeaf > 0 {
		bcfg.MinLeaf = cfg.BoostMinLeaf
	}
	return bcfg
}

func matrix(examples []Example, vec func(*Example) []float64) [][]float64 {
	X := make([][]float64, len(examples))
	for i := range examples {
		X[i] = vec(&examples[i])
	}
	return X
}

func targets(examples []Example, stat string) []float64 {
	y := make([]float64, len(examples))
	for i := range examples {
		y[i] = examples[i].Actuals[stat]
	}
	return y
}

// deltaRows selects the rows usable for delta training: the target is
// the game's deviation from the player's running season average, so the
// first game of a season (no average yet) drops out.
func deltaRows(examples []Example, stat string) ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := range examples {
		avg := seasonAverage(&examples[i].Row.Baseline, stat)
		if math.IsNaN(avg) {
			continue
		}
		X = append(X, examples[i].Row.Injury.Vector())
		y = append(y, examples[i].Actuals[stat]-avg)
	}
	return X, y
}

// Run executes the full training pipeline: dataset build, per-stat
// baseline/full/delta fitting with a ridge comparison, sensitivity
// measurement on held-out absence games, strategy selection, and
// artifact persistence.
func Run(ctx context.Context, cfg *config.Config, log *gamelog.Log) (*Result, error) {
	stageLog := logger.WithStage("train")

	splitDate, err := time.Parse("2006-01-02", cfg.SplitDate)
	if err != nil {
		return nil, fmt.Errorf("invalid split date %q: %w", cfg.SplitDate, err)
	}

	examples, _, err := BuildDataset(ctx, log, cfg.MinGamesForRole, cfg.FeatureWorkers)
	if err != nil {
		return nil, err
	}
	trainSet, testSet := Split(examples, splitDate)
	if len(trainSet) == 0 {
		return nil, fmt.Errorf("no training rows before split date %s", cfg.SplitDate)
	}
	stageLog.WithFields(map[string]interface{}{
		"train_rows": len(trainSet),
		"test_rows":  len(testSet),
		"split_date": cfg.SplitDate,
	}).Info("Dataset split")

	bcfg := boostConfig(cfg)

	baseTrain := matrix(trainSet, func(ex *Example) []float64 { return ex.Row.Baseline.Vector() })
	baseTest := matrix(testSet, func(ex *Example) []float64 { return ex.Row.Baseline.Vector() })
	fullTrain := matrix(trainSet, func(ex *Example) []float64 { return ex.Row.RippleVector() })
	fullTest := matrix(testSet, func(ex *Example) []float64 { return ex.Row.RippleVector() })

	// Held-out absence games drive the sensitivity measurement.
	var absTest []Example
	for _, ex := range testSet {
		if ex.Absences {
			absTest = append(absTest, ex)
		}
	}

	res := &Result{
		Examples:        len(examples),
		TrainRows:       len(trainSet),
		TestRows:        len(testSet),
		BaselineMetrics: make(map[string]regress.Metrics),
		RidgeMetrics:    make(map[string]regress.Metrics),
		FullMetrics:     make(map[string]regress.Metrics),
		DeltaMetrics:    make(map[string]regress.Metrics),
		Sensitivity:     make(map[string]predict.Sensitivity),
	}

	baselineModels := make(map[string]*regress.GradientBooster, len(predict.StatNames))
	fullModels := make(map[string]*regress.GradientBooster, len(predict.StatNames))
	deltaModels := make(map[string]*regress.GradientBooster, len(predict.StatNames))

	var sensitivityMeans []float64

	for _, stat := range predict.StatNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		yTrain := targets(trainSet, stat)
		yTest := targets(testSet, stat)

		baseline, err := regress.TrainBooster(baseTrain, yTrain, bcfg, logger.WithModelContext(stat, string(regress.KindBaseline)))
		if err != nil {
			return nil, fmt.Errorf("baseline model for %s: %w", stat, err)
		}
		baselineModels[stat] = baseline
		if len(testSet) > 0 {
			res.BaselineMetrics[stat] = regress.Evaluate(yTest, baseline.PredictBatch(baseTest))
		}

		// Linear comparison on the same features. If the trees cannot
		// beat this, the extra complexity is not paying for itself.
		ridge := regress.NewRidge(1.0)
		if err := ridge.Fit(baseTrain, yTrain); err != nil {
			stageLog.WithField("stat", stat).WithError(err).Warn("Ridge comparison failed, skipping")
		} else if len(testSet) > 0 {
			res.RidgeMetrics[stat] = regress.Evaluate(yTest, ridge.PredictBatch(baseTest))
		}

		full, err := regress.TrainBooster(fullTrain, yTrain, bcfg, logger.WithModelContext(stat, string(regress.KindRipple)))
		if err != nil {
			return nil, fmt.Errorf("full ripple model for %s: %w", stat, err)
		}
		fullModels[stat] = full
		if len(testSet) > 0 {
			res.FullMetrics[stat] = regress.Evaluate(yTest, full.PredictBatch(fullTest))
		}

		deltaX, deltaY := deltaRows(trainSet, stat)
		if len(deltaX) == 0 {
			return nil, fmt.Errorf("no delta training rows for %s", stat)
		}
		delta, err := regress.TrainBooster(deltaX, deltaY, bcfg, logger.WithModelContext(stat, "delta"))
		if err != nil {
			return nil, fmt.Errorf("delta model for %s: %w", stat, err)
		}
		deltaModels[stat] = delta
		if testDX, testDY := deltaRows(testSet, stat); len(testDX) > 0 {
			res.DeltaMetrics[stat] = regress.Evaluate(testDY, delta.PredictBatch(testDX))
		}

		sens := measureSensitivity(full, absTest)
		res.Sensitivity[stat] = sens
		if !math.IsNaN(sens.MeanRipple) {
			sensitivityMeans = append(sensitivityMeans, sens.MeanRipple)
		}
	}

	res.MedianSensitivity = stats.Median(sensitivityMeans)

	strategy := predict.StrategyDelta
	switch {
	case len(sensitivityMeans) == 0:
		stageLog.Warn("No held-out absence games, defaulting to delta strategy")
	case res.MedianSensitivity >= cfg.SensitivityThreshold:
		strategy = predict.StrategyFullModelDifference
	}
	stageLog.WithFields(map[string]interface{}{
		"strategy":           string(strategy),
		"median_sensitivity": res.MedianSensitivity,
		"threshold":          cfg.SensitivityThreshold,
	}).Info("Ripple strategy selected")

	// The served ripple artifact is whichever candidate the strategy
	// picked. Baseline artifacts are strategy-independent.
	for _, stat := range predict.StatNames {
		if err := regress.SaveModel(regress.ArtifactPath(cfg.ModelsDir, regress.KindBaseline, stat), baselineModels[stat]); err != nil {
			return nil, err
		}
		ripple := deltaModels[stat]
		if strategy == predict.StrategyFullModelDifference {
			ripple = fullModels[stat]
		}
		if err := regress.SaveModel(regress.ArtifactPath(cfg.ModelsDir, regress.KindRipple, stat), ripple); err != nil {
			return nil, err
		}
	}

	rippleFeatures := features.InjuryNames()
	if strategy == predict.StrategyFullModelDifference {
		rippleFeatures = features.RippleNames()
	}
	res.Metadata = predict.StrategyMetadata{
		Strategy:           strategy,
		Threshold:          cfg.SensitivityThreshold,
		MedianSensitivity:  res.MedianSensitivity,
		PerStatSensitivity: res.Sensitivity,
		RippleFeatures:     rippleFeatures,
		BaselineFeatures:   features.BaselineNames(),
		Version:            uuid.NewString(),
		TrainedAt:          time.Now().UTC(),
	}
	if err := predict.SaveMetadata(cfg.ModelsDir, res.Metadata); err != nil {
		return nil, err
	}

	if err := writeReport(cfg.ModelsDir, res); err != nil {
		return nil, err
	}

	stageLog.WithField("version", res.Metadata.Version).Info("Training complete, artifacts saved")
	return res, nil
}

// measureSensitivity quantifies how hard the full model reacts to its
// injury block on real held-out absence games: the absolute difference
// between predicting with the true injury features and with them zeroed.
func measureSensitivity(full *regress.GradientBooster, absTest []Example) predict.Sensitivity {
	if len(absTest) == 0 {
		return predict.Sensitivity{
			MeanRipple:  math.NaN(),
			MaxRipple:   math.NaN(),
			PctAboveOne: math.NaN(),
		}
	}

	var sum, max float64
	above := 0
	for i := range absTest {
		with := full.Predict(absTest[i].Row.RippleVector())
		healthy := absTest[i].Row
		healthy.Injury = features.Injury{}
		without := full.Predict(healthy.RippleVector())

		r := math.Abs(with - without)
		sum += r
		if r > max {
			max = r
		}
		if r > 1.0 {
			above++
		}
	}
	n := float64(len(absTest))
	return predict.Sensitivity{
		MeanRipple:  sum / n,
		MaxRipple:   max,
		PctAboveOne: float64(above) / n,
	}
}
