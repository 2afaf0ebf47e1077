// Package regress implements the regressors behind the prediction
// pipeline: gradient-boosted regression trees that tolerate the unknown
// (NaN) feature state natively, plus a ridge pipeline used as the
// training-time comparison model.
package regress

import (
	"math"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry the predicted
// value; internal nodes route rows by feature threshold, with a learned
// default direction for unknown values.
type treeNode struct {
	Leaf        bool      `json:"leaf"`
	Value       float64   `json:"value,omitempty"`
	Feature     int       `json:"feature,omitempty"`
	Threshold   float64   `json:"threshold,omitempty"`
	DefaultLeft bool      `json:"default_left,omitempty"`
	Left        *treeNode `json:"left,omitempty"`
	Right       *treeNode `json:"right,omitempty"`
}

func (n *treeNode) predict(x []float64) float64 {
	node := n
	for !node.Leaf {
		v := x[node.Feature]
		goLeft := node.DefaultLeft
		if !math.IsNaN(v) {
			goLeft = v <= node.Threshold
		}
		if goLeft {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeConfig struct {
	maxDepth      int
	minLeaf       int
	maxThresholds int
}

// split describes the best found partition of a node's rows.
type split struct {
	feature     int
	threshold   float64
	defaultLeft bool
	gain        float64
	left, right []int
}

func mean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sse(y []float64, idx []int) float64 {
	m := mean(y, idx)
	total := 0.0
	for _, i := range idx {
		d := y[i] - m
		total += d * d
	}
	return total
}

// candidateThresholds returns up to cap midpoints between distinct
// sorted defined values, quantile-spaced for large nodes.
func candidateThresholds(vals []float64, capN int) []float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	uniq := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}
	n := len(uniq) - 1
	if n <= capN {
		out := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, (uniq[i]+uniq[i+1])/2)
		}
		return out
	}
	out := make([]float64, 0, capN)
	for i := 1; i <= capN; i++ {
		j := i * n / (capN + 1)
		out = append(out, (uniq[j]+uniq[j+1])/2)
	}
	return out
}

// bestSplit scans every feature for the SSE-reducing partition. Unknown
// values are tried on both sides and kept where they help most.
func bestSplit(X [][]float64, y []float64, idx []int, cfg treeConfig) *split {
	if len(idx) < 2*cfg.minLeaf {
		return nil
	}
	parentSSE := sse(y, idx)
	nFeatures := len(X[0])

	var best *split
	for f := 0; f < nFeatures; f++ {
		var defined []int
		var missing []int
		vals := make([]float64, 0, len(idx))
		for _, i := range idx {
			v := X[i][f]
			if math.IsNaN(v) {
				missing = append(missing, i)
			} else {
				defined = append(defined, i)
				vals = append(vals, v)
			}
		}
		if len(defined) < 2 {
			continue
		}

		for _, thr := range candidateThresholds(vals, cfg.maxThresholds) {
			var left, right []int
			for _, i := range defined {
				if X[i][f] <= thr {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			// Try the unknowns on each side, keep the better routing.
			for _, defaultLeft := range []bool{true, false} {
				l, r := left, right
				if len(missing) > 0 {
					if defaultLeft {
						l = append(append([]int{}, left...), missing...)
					} else {
						r = append(append([]int{}, right...), missing...)
					}
				} else if !defaultLeft {
					continue
				}
				if len(l) < cfg.minLeaf || len(r) < cfg.minLeaf {
					continue
				}
				gain := parentSSE - sse(y, l) - sse(y, r)
				if gain <= 1e-12 {
					continue
				}
				if best == nil || gain > best.gain {
					best = &split{
						feature:     f,
						threshold:   thr,
						defaultLeft: defaultLeft,
						gain:        gain,
						left:        l,
						right:       r,
					}
				}
			}
		}
	}
	return best
}

func buildTree(X [][]float64, y []float64, idx []int, depth int, cfg treeConfig) *treeNode {
	if depth >= cfg.maxDepth || len(idx) < 2*cfg.minLeaf {
		return &treeNode{Leaf: true, Value: mean(y, idx)}
	}
	sp := bestSplit(X, y, idx, cfg)
	if sp == nil {
		return &treeNode{Leaf: true, Value: mean(y, idx)}
	}
	return &treeNode{
		Feature:     sp.feature,
		Threshold:   sp.threshold,
		DefaultLeft: sp.defaultLeft,
		Left:        buildTree(X, y, sp.left, depth+1, cfg),
		Right:       buildTree(X, y, sp.right, depth+1, cfg),
	}
}
