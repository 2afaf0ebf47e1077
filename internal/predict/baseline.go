package predict

import (
	"context"
	"math"
	"time"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/gamelog"
	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/pkg/logger"
)

// GameSpec describes the requested game at serving time.
type GameSpec struct {
	Opponent string
	Home     bool
	Date     time.Time
}

// BaselinePredictor projects a player's stat line for a game as if the
// roster were fully healthy. It owns serving-time feature assembly so
// the same builder path used in training produces the vectors here.
type BaselinePredictor struct {
	registry *Registry
	log      *gamelog.Log
}

// NewBaselinePredictor wires the predictor to its model registry and
// game history.
func NewBaselinePredictor(registry *Registry, log *gamelog.Log) *BaselinePredictor {
	return &BaselinePredictor{registry: registry, log: log}
}

// Features assembles the 37-column baseline block for a player and game.
// History is resolved from the player's own series; position, age, and
// experience come from the roster row of the player's current team, with
// unknowns staying NaN rather than guessed.
func (p *BaselinePredictor) Features(playerID int, spec GameSpec) (features.Baseline, error) {
	series, err := features.NewSeries(p.log.Player(playerID))
	if err != nil {
		return features.Baseline{}, err
	}

	gctx := features.GameContext{
		Date:       spec.Date,
		Season:     series.LatestSeason(),
		Opponent:   spec.Opponent,
		Home:       spec.Home,
		Age:        math.NaN(),
		Experience: math.NaN(),
	}

	recs := series.Records()
	if len(recs) > 0 {
		latest := recs[len(recs)-1]
		if entry, ok := p.log.RosterEntryFor(playerID, latest.TeamID, latest.Season); ok {
			gctx.Position = entry.Position
			gctx.Age = entry.Age
			gctx.Experience = entry.Experience
		}
	}

	return series.Baseline(gctx), nil
}

// predictStats runs one feature vector through every available model of
// a kind, collecting stats whose artifact failed to load instead of
// failing the whole request.
func (p *BaselinePredictor) predictStats(kind regress.ModelKind, vec []float64) (map[string]float64, []string) {
	values := make(map[string]float64, len(StatNames))
	var missing []string
	for _, stat := range StatNames {
		model, err := p.registry.Model(kind, stat)
		if err != nil {
			missing = append(missing, stat)
			continue
		}
		values[stat] = model.Predict(vec)
	}
	return values, missing
}

// Predict projects the eight stats for a player in the given game
// context. A player with no prior history still gets an answer; the
// all-unknown vector routes through the learned default directions and
// the result is flagged LowConfidence.
func (p *BaselinePredictor) Predict(ctx context.Context, playerID int, spec GameSpec) (StatPrediction, error) {
	if err := ctx.Err(); err != nil {
		return StatPrediction{}, err
	}

	base, err := p.Features(playerID, spec)
	if err != nil {
		return StatPrediction{}, err
	}
	return p.fromFeatures(playerID, spec, &base), nil
}

func (p *BaselinePredictor) fromFeatures(playerID int, spec GameSpec, base *features.Baseline) StatPrediction {
	values, missing := p.predictStats(regress.KindBaseline, base.Vector())

	pred := StatPrediction{
		Values:       values,
		MissingStats: missing,
	}
	if base.Unknown() {
		pred.LowConfidence = true
		logger.WithStage("baseline").WithField("player_id", playerID).
			Warn("No prior history for player, prediction is low confidence")
	}
	if spec.Opponent != "" &&
		math.IsNaN(base.VsOppAvgPts) && math.IsNaN(base.VsOppAvgReb) && math.IsNaN(base.VsOppAvgAst) {
		pred.MatchupDataUnavailable = true
	}
	return pred
}
