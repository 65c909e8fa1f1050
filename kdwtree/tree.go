// Package kdwtree implements the k-dimensional wavelet tree: a static,
// in-memory orthogonal range index over real-valued points, answering
// count/report/sample queries against an axis-aligned (hyper)rectangle.
//
// Two constructors build the same query surface over different global
// point orderings: New builds a Z-order KDW-tree (the default — the
// global order is the Morton order of the rank-aligned points, letting
// one descent split every dimension simultaneously); NewExternalized
// builds the same index over an explicit median-cut k-d tree instead,
// trading a larger construction cost for shallower per-query descents
// on skewed data.
package kdwtree

import (
	"fmt"
	"math"
	"math/rand"
)

// Tree is the query surface shared by every KDW-tree implementation.
type Tree interface {
	// Count returns the number of points in the closed rectangle
	// [min, max]. Returns 0 (not an error) if the rectangle is empty
	// or disjoint from the point set's bounding box.
	Count(min, max []float64) (int, error)
	// Report returns the original-data indexes of every point in the
	// closed rectangle [min, max], in no particular order.
	Report(min, max []float64) ([]int, error)
	// Sample draws up to sampleCount distinct indexes, uniformly at
	// random without replacement, from Report's result. If the match
	// count is at most sampleCount, every matching index is returned.
	Sample(min, max []float64, sampleCount int, rnd *rand.Rand) ([]int, error)
}

// InvalidInputError reports a malformed construction argument or query
// rectangle: wrong dimensionality, a nil slice, or a non-finite value.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return "kdwtree: invalid input: " + e.Msg }

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

// New builds a Z-order KDW-tree over points. points must have at
// least one row; every row must have the same length k, with
// 2 <= k <= 31, and every coordinate must be finite. opts are passed
// through to NewZOrder.
func New(points [][]float64, opts ...Option) (Tree, error) {
	return NewZOrder(points, opts...)
}

func validateConstruction(points [][]float64) (int, error) {
	if points == nil {
		return 0, invalidInput("points is nil")
	}
	if len(points) == 0 {
		return 0, invalidInput("points is empty")
	}
	if points[0] == nil {
		return 0, invalidInput("points contains a nil row")
	}
	numDim := len(points[0])
	if numDim < 2 || numDim > 31 {
		return 0, invalidInput("number of dimensions must be between 2 and 31, got %d", numDim)
	}
	for i, row := range points {
		if row == nil {
			return 0, invalidInput("points contains a nil row at index %d", i)
		}
		if len(row) != numDim {
			return 0, invalidInput("row %d has %d dimensions, want %d", i, len(row), numDim)
		}
		for d, v := range row {
			if !isFinite(v) {
				return 0, invalidInput("row %d coordinate %d is not finite", i, d)
			}
		}
	}
	return numDim, nil
}

// validateRectangle reports whether the query should proceed
// (dimensions and finiteness are fine) and whether it is definitely
// empty (some min_d > max_d, short-circuiting to an empty result).
func validateRectangle(min, max []float64, numDim int) (empty bool, err error) {
	if min == nil || max == nil {
		return false, invalidInput("min or max is nil")
	}
	if len(min) != numDim || len(max) != numDim {
		return false, invalidInput("min/max length must equal the tree's dimension count %d", numDim)
	}
	for d := 0; d < numDim; d++ {
		if !isFinite(min[d]) || !isFinite(max[d]) {
			return false, invalidInput("min/max coordinate %d is not finite", d)
		}
	}
	for d := 0; d < numDim; d++ {
		if min[d] > max[d] {
			return true, nil
		}
	}
	return false, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nextUp(v float64) float64 {
	return math.Nextafter(v, math.Inf(1))
}
