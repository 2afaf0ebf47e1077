package regress

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Ridge is the linear comparison model: median imputation, column
// standardization, then L2-regularized least squares. Used only during
// training evaluation to judge whether the tree ensemble earns its
// complexity; never served.
type Ridge struct {
	Alpha     float64
	medians   []float64
	means     []float64
	stddevs   []float64
	weights   []float64
	intercept float64
}

// NewRidge returns an untrained ridge model with the given penalty.
func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

func columnMedian(X [][]float64, col int) float64 {
	var vals []float64
	for _, row := range X {
		if !math.IsNaN(row[col]) {
			vals = append(vals, row[col])
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// transform imputes and standardizes one row using the fitted statistics.
func (r *Ridge) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		if math.IsNaN(v) {
			v = r.medians[j]
		}
		if r.stddevs[j] > 0 {
			out[j] = (v - r.means[j]) / r.stddevs[j]
		} else {
			out[j] = 0
		}
	}
	return out
}

// Fit solves (Z'Z + alpha*I) w = Z'y on the imputed, standardized data.
func (r *Ridge) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("invalid training data: %d rows, %d targets", len(X), len(y))
	}
	nCols := len(X[0])

	r.medians = make([]float64, nCols)
	for j := 0; j < nCols; j++ {
		r.medians[j] = columnMedian(X, j)
	}

	imputed := make([][]float64, len(X))
	for i, row := range X {
		imp := make([]float64, nCols)
		for j, v := range row {
			if math.IsNaN(v) {
				v = r.medians[j]
			}
			imp[j] = v
		}
		imputed[i] = imp
	}

	r.means = make([]float64, nCols)
	r.stddevs = make([]float64, nCols)
	for j := 0; j < nCols; j++ {
		sum := 0.0
		for i := range imputed {
			sum += imputed[i][j]
		}
		r.means[j] = sum / float64(len(imputed))
		ss := 0.0
		for i := range imputed {
			d := imputed[i][j] - r.means[j]
			ss += d * d
		}
		r.stddevs[j] = math.Sqrt(ss / float64(len(imputed)))
	}

	z := mat.NewDense(len(imputed), nCols, nil)
	for i, row := range imputed {
		for j, v := range row {
			if r.stddevs[j] > 0 {
				z.Set(i, j, (v-r.means[j])/r.stddevs[j])
			}
		}
	}

	ymean := 0.0
	for _, v := range y {
		ymean += v
	}
	ymean /= float64(len(y))
	r.intercept = ymean

	yc := mat.NewVecDense(len(y), nil)
	for i, v := range y {
		yc.SetVec(i, v-ymean)
	}

	var ztz mat.Dense
	ztz.Mul(z.T(), z)
	for j := 0; j < nCols; j++ {
		ztz.Set(j, j, ztz.At(j, j)+r.Alpha)
	}

	var zty mat.VecDense
	zty.MulVec(z.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&ztz, &zty); err != nil {
		return fmt.Errorf("ridge solve failed: %w", err)
	}

	r.weights = make([]float64, nCols)
	for j := 0; j < nCols; j++ {
		r.weights[j] = w.AtVec(j)
	}
	return nil
}

// Predict returns the fitted linear prediction for one row.
func (r *Ridge) Predict(row []float64) float64 {
	z := r.transform(row)
	out := r.intercept
	for j, v := range z {
		out += r.weights[j] * v
	}
	return out
}

// PredictBatch predicts every row of X.
func (r *Ridge) PredictBatch(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = r.Predict(row)
	}
	return out
}
