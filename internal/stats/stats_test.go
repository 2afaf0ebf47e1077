package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanEmptyIsUnknown(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(Mean([]float64{})))
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
	assert.Equal(t, 5.0, Mean([]float64{5}))
}

func TestMeanSkipNaN(t *testing.T) {
	assert.InDelta(t, 2.0, MeanSkipNaN([]float64{1, math.NaN(), 3}), 1e-9)
	assert.True(t, math.IsNaN(MeanSkipNaN([]float64{math.NaN()})))
}

func TestMedian(t *testing.T) {
	assert.True(t, math.IsNaN(Median(nil)))
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 1e-9)
}

func TestMedianEvenLengthAveragesMiddle(t *testing.T) {
	assert.InDelta(t, 1.5, Median([]float64{2, 1}), 1e-9)
	// Eight per-stat sensitivities straddling the 0.3 strategy threshold.
	sens := []float64{0.10, 0.15, 0.20, 0.25, 0.35, 0.40, 0.45, 0.50}
	assert.InDelta(t, 0.30, Median(sens), 1e-9)
}

func TestSlopeNeedsTwoPoints(t *testing.T) {
	assert.True(t, math.IsNaN(Slope(nil)))
	assert.True(t, math.IsNaN(Slope([]float64{30})))
}

func TestSlopeLinearSeries(t *testing.T) {
	// Minutes climbing by exactly 2 per game.
	assert.InDelta(t, 2.0, Slope([]float64{20, 22, 24, 26}), 1e-9)
	assert.InDelta(t, -1.5, Slope([]float64{30, 28.5, 27}), 1e-9)
}

func TestVariance(t *testing.T) {
	assert.Equal(t, 0.0, Variance([]float64{7}))
	assert.InDelta(t, 1.0, Variance([]float64{1, 2, 3}), 1e-9)
}
