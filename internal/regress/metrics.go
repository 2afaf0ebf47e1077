package regress

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes regression quality on a held-out set.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes MAE, RMSE, and R-squared of predictions against
// actuals. Pairs with a NaN actual are skipped.
func Evaluate(actual, predicted []float64) Metrics {
	var a, p []float64
	for i := range actual {
		if math.IsNaN(actual[i]) {
			continue
		}
		a = append(a, actual[i])
		p = append(p, predicted[i])
	}
	if len(a) == 0 {
		return Metrics{MAE: math.NaN(), RMSE: math.NaN(), R2: math.NaN()}
	}

	sumAbs := 0.0
	sumSq := 0.0
	for i := range a {
		d := a[i] - p[i]
		sumAbs += math.Abs(d)
		sumSq += d * d
	}
	n := float64(len(a))

	meanA := stat.Mean(a, nil)
	ssTot := 0.0
	for _, v := range a {
		ssTot += (v - meanA) * (v - meanA)
	}
	r2 := math.NaN()
	if ssTot > 0 {
		r2 = 1 - sumSq/ssTot
	}

	return Metrics{
		MAE:  sumAbs / n,
		RMSE: math.Sqrt(sumSq / n),
		R2:   r2,
	}
}
