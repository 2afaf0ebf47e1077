package predict

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsight/ripple/internal/regress"
)

// saveConstantModel writes an artifact whose prediction is always init,
// whatever the input row looks like.
func saveConstantModel(t *testing.T, dir string, kind regress.ModelKind, stat string, init float64, numFeatures int) {
	t.Helper()
	model := &regress.GradientBooster{Init: init, LearnRate: 0.1, NumFeatures: numFeatures}
	require.NoError(t, regress.SaveModel(regress.ArtifactPath(dir, kind, stat), model))
}

func TestRegistryLoadsArtifact(t *testing.T) {
	dir := t.TempDir()
	saveConstantModel(t, dir, regress.KindBaseline, "pts", 21.5, 37)

	r := NewRegistry(dir)
	model, err := r.Model(regress.KindBaseline, "pts")
	require.NoError(t, err)
	assert.Equal(t, 21.5, model.Predict(make([]float64, 37)))

	again, err := r.Model(regress.KindBaseline, "pts")
	require.NoError(t, err)
	assert.Same(t, model, again)
}

func TestRegistryMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	saveConstantModel(t, dir, regress.KindBaseline, "pts", 21.5, 37)

	r := NewRegistry(dir)
	_, err := r.Model(regress.KindRipple, "pts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	var unavail *ModelUnavailableError
	require.True(t, errors.As(err, &unavail))
	assert.Equal(t, regress.KindRipple, unavail.Kind)
	assert.Equal(t, "pts", unavail.Stat)

	// The failure is sticky for its slot and isolated from the others.
	_, err = r.Model(regress.KindRipple, "pts")
	assert.Error(t, err)
	_, err = r.Model(regress.KindBaseline, "pts")
	assert.NoError(t, err)
}

func TestRegistryUnknownStat(t *testing.T) {
	r := NewRegistry(t.TempDir())
	_, err := r.Model(regress.KindBaseline, "dunks")
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestRegistryConcurrentFirstAccessLoadsOnce(t *testing.T) {
	dir := t.TempDir()
	saveConstantModel(t, dir, regress.KindBaseline, "ast", 5.5, 37)

	r := NewRegistry(dir)
	const n = 32
	models := make([]*regress.GradientBooster, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model, err := r.Model(regress.KindBaseline, "ast")
			assert.NoError(t, err)
			models[i] = model
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, models[0], models[i])
	}
}
