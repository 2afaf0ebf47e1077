package predict

import (
	"context"

	"github.com/hoopsight/ripple/internal/features"
	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/internal/roster"
)

// RipplePredictor turns an absence-aware feature row into per-stat
// deltas. The combination rule is the strategy recorded at training
// time; it is never re-decided here, so two deployments of the same
// artifacts always agree.
type RipplePredictor struct {
	registry *Registry
	strategy Strategy
}

// NewRipplePredictor binds the predictor to a registry and the trained
// strategy decision.
func NewRipplePredictor(registry *Registry, strategy Strategy) *RipplePredictor {
	return &RipplePredictor{registry: registry, strategy: strategy}
}

// Strategy returns the combination rule in effect.
func (p *RipplePredictor) Strategy() Strategy { return p.strategy }

// Deltas predicts the per-stat change caused by the absence
// configuration baked into row's injury block.
//
// An empty configuration is answered with exact zeros and no model
// inference at all: a healthy roster produces a healthy prediction bit
// for bit, not a model output that happens to be near zero.
func (p *RipplePredictor) Deltas(ctx context.Context, row features.Row, cfg roster.AbsenceConfig) (map[string]float64, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	deltas := make(map[string]float64, len(StatNames))
	if cfg.Empty() {
		for _, stat := range StatNames {
			deltas[stat] = 0
		}
		return deltas, nil, nil
	}

	var missing []string
	for _, stat := range StatNames {
		model, err := p.registry.Model(regress.KindRipple, stat)
		if err != nil {
			missing = append(missing, stat)
			continue
		}
		deltas[stat] = p.delta(model, row)
	}
	return deltas, missing, nil
}

func (p *RipplePredictor) delta(model *regress.GradientBooster, row features.Row) float64 {
	switch p.strategy {
	case StrategyFullModelDifference:
		with := model.Predict(row.RippleVector())
		healthy := row
		healthy.Injury = features.Injury{}
		without := model.Predict(healthy.RippleVector())
		return with - without
	default:
		// Delta strategy: the model was trained directly on the injury
		// block against deviation-from-average targets.
		return model.Predict(row.Injury.Vector())
	}
}
