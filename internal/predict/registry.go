package predict

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hoopsight/ripple/internal/regress"
	"github.com/hoopsight/ripple/pkg/logger"
)

// ErrModelUnavailable marks a stat whose artifact could not be loaded.
// Fatal to that stat, not to the process: multi-stat callers omit the
// stat and report it.
var ErrModelUnavailable = errors.New("model artifact unavailable")

// ModelUnavailableError identifies which slot failed and why.
type ModelUnavailableError struct {
	Kind regress.ModelKind
	Stat string
	Err  error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s/%s unavailable: %v", e.Kind, e.Stat, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return ErrModelUnavailable }

type slotKey struct {
	kind regress.ModelKind
	stat string
}

type modelSlot struct {
	once  sync.Once
	model *regress.GradientBooster
	err   error
}

// Registry owns the 16 lazily loaded model slots (8 baseline + 8 ripple).
// It is injected into the predictors rather than living as process-wide
// state. Each slot loads at most once per process lifetime; concurrent
// first access is guarded per slot, and slots load independently.
type Registry struct {
	dir   string
	slots map[slotKey]*modelSlot
}

// NewRegistry creates a registry over the artifact directory. Nothing is
// read until a model is first requested.
func NewRegistry(dir string) *Registry {
	r := &Registry{
		dir:   dir,
		slots: make(map[slotKey]*modelSlot, 2*len(StatNames)),
	}
	for _, kind := range []regress.ModelKind{regress.KindBaseline, regress.KindRipple} {
		for _, stat := range StatNames {
			r.slots[slotKey{kind, stat}] = &modelSlot{}
		}
	}
	return r
}

// Model returns the regressor for a (kind, stat) slot, loading it on
// first use. A failed load is sticky for the slot and reported as a
// ModelUnavailableError.
func (r *Registry) Model(kind regress.ModelKind, stat string) (*regress.GradientBooster, error) {
	s, ok := r.slots[slotKey{kind, stat}]
	if !ok {
		return nil, &ModelUnavailableError{Kind: kind, Stat: stat, Err: fmt.Errorf("unknown stat")}
	}
	s.once.Do(func() {
		path := regress.ArtifactPath(r.dir, kind, stat)
		model, err := regress.LoadModel(path)
		if err != nil {
			s.err = err
			logger.WithModelContext(stat, string(kind)).WithError(err).Error("Failed to load model artifact")
			return
		}
		s.model = model
		logger.WithModelContext(stat, string(kind)).Debug("Model artifact loaded")
	})
	if s.err != nil {
		return nil, &ModelUnavailableError{Kind: kind, Stat: stat, Err: s.err}
	}
	return s.model, nil
}
