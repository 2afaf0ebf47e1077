package train

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/predict"
	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/pkg/config"
)

// seasonLog generates a 30-game season for a four-man roster, with
// player 1 sitting out every fifth game.
func seasonLog(t *testing.T) *gamelog.Log {
	t.Helper()
	var records []gamelog.Record
	var absences []gamelog.Absence
	for g := 1; g <= 30; g++ {
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, g)
		out := g%5 == 0
		for id := 1; id <= 4; id++ {
			if id == 1 && out {
				continue
			}
			mins := float64(38 - 4*id)
			if out {
				mins += 4 // minutes redistribute when the star sits
			}
			records = append(records, gamelog.Record{
				PlayerID:   id,
				PlayerName: fmt.Sprintf("Player %d", id),
				TeamID:     10,
				TeamAbbr:   "BOS",
				GameID:     fmt.Sprintf("g%02d", g),
				GameDate:   date,
				Season:     "2023-24",
				Opponent:   "NYK",
				Home:       g%2 == 0,
				Points:     mins*0.7 + float64(g%3),
				Assists:    mins * 0.15,
				Rebounds:   mins * 0.2,
				Minutes:    mins,
			})
		}
		if out {
			absences = append(absences, gamelog.Absence{
				PlayerID: 1, TeamID: 10, GameID: fmt.Sprintf("g%02d", g), GameDate: date,
			})
		}
	}
	log, err := gamelog.NewLog(records, nil, absences)
	require.NoError(t, err)
	return log
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:                  "test",
		ModelsDir:            t.TempDir(),
		SplitDate:            "2024-01-25",
		SensitivityThreshold: 0.3,
		MinGamesForRole:      1,
		FeatureWorkers:       2,
		BoostRounds:          10,
		BoostMaxDepth:        3,
		BoostLearnRate:       0.3,
		BoostMinLeaf:         5,
	}
}

func TestRunTrainsAndPersistsArtifacts(t *testing.T) {
	cfg := testConfig(t)
	res, err := Run(context.Background(), cfg, seasonLog(t))
	require.NoError(t, err)

	assert.Equal(t, res.Examples, res.TrainRows+res.TestRows)
	assert.Greater(t, res.TestRows, 0)

	for _, stat := range predict.StatNames {
		assert.Contains(t, res.BaselineMetrics, stat)
		assert.Contains(t, res.FullMetrics, stat)
		assert.Contains(t, res.Sensitivity, stat)

		for _, kind := range []regress.ModelKind{regress.KindBaseline, regress.KindRipple} {
			_, err := os.Stat(regress.ArtifactPath(cfg.ModelsDir, kind, stat))
			assert.NoError(t, err, "artifact %s/%s", kind, stat)
		}
	}

	md, err := predict.LoadMetadata(cfg.ModelsDir)
	require.NoError(t, err)
	assert.Equal(t, res.Metadata.Strategy, md.Strategy)
	assert.NotEmpty(t, md.Version)
	assert.Equal(t, 0.3, md.Threshold)
	assert.Len(t, md.BaselineFeatures, 37)

	report, err := os.ReadFile(cfg.ModelsDir + "/evaluation_report.txt")
	require.NoError(t, err)
	assert.Contains(t, string(report), "Selected strategy")
}

func TestRunServedArtifactsMatchStrategy(t *testing.T) {
	cfg := testConfig(t)
	res, err := Run(context.Background(), cfg, seasonLog(t))
	require.NoError(t, err)

	model, err := regress.LoadModel(regress.ArtifactPath(cfg.ModelsDir, regress.KindRipple, "pts"))
	require.NoError(t, err)

	// The saved ripple artifact's width reveals which candidate won.
	if res.Metadata.Strategy == predict.StrategyFullModelDifference {
		assert.Equal(t, 54, model.NumFeatures)
		assert.Len(t, res.Metadata.RippleFeatures, 54)
	} else {
		assert.Equal(t, 17, model.NumFeatures)
		assert.Len(t, res.Metadata.RippleFeatures, 17)
	}
}

func TestRunFailsWithoutTrainingRows(t *testing.T) {
	cfg := testConfig(t)
	cfg.SplitDate = "2020-01-01"
	_, err := Run(context.Background(), cfg, seasonLog(t))
	assert.Error(t, err)
}

func TestMeasureSensitivityRespondsToInjuryBlock(t *testing.T) {
	// A model whose output is driven by n_starters_out alone.
	var X [][]float64
	var y []float64
	var absExamples []Example
	for i := 0; i < 60; i++ {
		row := features.Row{Baseline: features.NewBaseline()}
		if i%2 == 0 {
			row.Injury.NStartersOut = 2
			y = append(y, 10)
		} else {
			y = append(y, 0)
		}
		X = append(X, row.RippleVector())
		if i%2 == 0 && len(absExamples) < 10 {
			absExamples = append(absExamples, Example{Row: row, Absences: true})
		}
	}
	bcfg := regress.DefaultBoostConfig()
	bcfg.Rounds = 30
	bcfg.LearnRate = 0.3
	bcfg.MinLeaf = 5
	bcfg.ValidationFraction = 0
	model, err := regress.TrainBooster(X, y, bcfg, nil)
	require.NoError(t, err)

	sens := measureSensitivity(model, absExamples)
	assert.Greater(t, sens.MeanRipple, 5.0)
	assert.Greater(t, sens.PctAboveOne, 0.9)
}

func TestMeasureSensitivityNoAbsenceGames(t *testing.T) {
	model := &regress.GradientBooster{Init: 1, NumFeatures: 54}
	sens := measureSensitivity(model, nil)
	assert.True(t, math.IsNaN(sens.MeanRipple))
}

func TestConstantModelHasZeroSensitivity(t *testing.T) {
	model := &regress.GradientBooster{Init: 8, NumFeatures: 54}
	row := features.Row{Baseline: features.NewBaseline(), Injury: features.Injury{NStartersOut: 3}}
	sens := measureSensitivity(model, []Example{{Row: row, Absences: true}})
	assert.Equal(t, 0.0, sens.MeanRipple)
	assert.Equal(t, 0.0, sens.PctAboveOne)
}
