package kdwtree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func bruteForceMatches(points [][]float64, min, max []float64) []int {
	var out []int
POINT:
	for i, row := range points {
		for d, v := range row {
			if v < min[d] || v > max[d] {
				continue POINT
			}
		}
		out = append(out, i)
	}
	return out
}

func randomPoints(n, dim int, rnd *rand.Rand) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		row := make([]float64, dim)
		for d := range row {
			row[d] = rnd.Float64()*200 - 100
		}
		points[i] = row
	}
	return points
}

func sortedCopy(s []int) []int {
	out := append([]int(nil), s...)
	sort.Ints(out)
	return out
}

// newBothTrees builds both a Z-order and an Externalized tree over the
// same points, returning them alongside a readable label for Convey
// output.
func newBothTrees(t *testing.T, points [][]float64) map[string]Tree {
	zt, err := NewZOrder(points)
	So(err, ShouldBeNil)
	et, err := NewExternalized(points)
	So(err, ShouldBeNil)
	return map[string]Tree{"zorder": zt, "externalized": et}
}

func TestNewAliasesNewZOrder(t *testing.T) {
	Convey("New is the Z-order constructor by default", t, func() {
		points := [][]float64{{0, 0}, {1, 1}, {2, 2}}
		tree, err := New(points)
		So(err, ShouldBeNil)
		_, ok := tree.(*ZOrderTree)
		So(ok, ShouldBeTrue)
	})
}

func TestConstructionValidation(t *testing.T) {
	Convey("construction rejects malformed input", t, func() {
		Convey("nil points", func() {
			_, err := New(nil)
			So(err, ShouldNotBeNil)
		})
		Convey("empty points", func() {
			_, err := New([][]float64{})
			So(err, ShouldNotBeNil)
		})
		Convey("a row with the wrong dimension", func() {
			_, err := New([][]float64{{1, 2}, {1, 2, 3}})
			So(err, ShouldNotBeNil)
		})
		Convey("a single-dimension point set", func() {
			_, err := New([][]float64{{1}, {2}})
			So(err, ShouldNotBeNil)
		})
		Convey("a non-finite coordinate", func() {
			_, err := New([][]float64{{1, 2}, {1, math.NaN()}})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestCountReportAgreeWithBruteForceAcrossBothOrderings(t *testing.T) {
	rnd := rand.New(rand.NewSource(51))
	numPoints, numDim := 600, 3
	points := randomPoints(numPoints, numDim, rnd)

	Convey("Count and Report agree with a brute-force scan, for both tree orderings", t, func() {
		trees := newBothTrees(t, points)

		rectangles := []struct{ min, max []float64 }{
			{[]float64{-100, -100, -100}, []float64{100, 100, 100}},
			{[]float64{-10, -10, -10}, []float64{10, 10, 10}},
			{[]float64{0, -100, -100}, []float64{0, 100, 100}},
			{[]float64{50, 50, 50}, []float64{-50, -50, -50}}, // empty: min > max
			{[]float64{-5, -200, -5}, []float64{5, -150, 5}},  // likely empty by bounding box
		}

		for _, tree := range trees {
			for _, r := range rectangles {
				want := sortedCopy(bruteForceMatches(points, r.min, r.max))

				count, err := tree.Count(r.min, r.max)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, len(want))

				report, err := tree.Report(r.min, r.max)
				So(err, ShouldBeNil)
				So(sortedCopy(report), ShouldResemble, want)
			}
		}
	})
}

// TestCountReportAgreeWithBruteForceOnMediumSelectivityQueries exercises
// the Z-order descent's deep path: with enough points, a rectangle that
// is neither fully contained nor fully disjoint in any dimension keeps
// the joint multi-dimensional recursion (countRecursive/intervalsRecursive)
// splitting and round-robining across every dimension for several
// rotations before any width drops below stopWidth, rather than bottoming
// out into the root-scan or 1-D fallback after just one pass over the
// dimensions.
func TestCountReportAgreeWithBruteForceOnMediumSelectivityQueries(t *testing.T) {
	rnd := rand.New(rand.NewSource(61))
	numPoints, numDim := 8192, 3
	points := randomPoints(numPoints, numDim, rnd)

	Convey("medium-selectivity rectangles over a large k=3 point set agree with a brute-force scan", t, func() {
		trees := newBothTrees(t, points)
		for trial := 0; trial < 20; trial++ {
			min := make([]float64, numDim)
			max := make([]float64, numDim)
			for d := 0; d < numDim; d++ {
				lo := rnd.Float64()*140 - 100
				hi := lo + 40 + rnd.Float64()*40 // medium-width band per dimension
				min[d], max[d] = lo, hi
			}

			want := sortedCopy(bruteForceMatches(points, min, max))

			for _, tree := range trees {
				count, err := tree.Count(min, max)
				So(err, ShouldBeNil)
				So(count, ShouldEqual, len(want))

				report, err := tree.Report(min, max)
				So(err, ShouldBeNil)
				So(sortedCopy(report), ShouldResemble, want)
			}
		}
	})
}

func TestReportOnFullBoundingBoxReturnsEveryPoint(t *testing.T) {
	rnd := rand.New(rand.NewSource(52))
	points := randomPoints(200, 4, rnd)

	Convey("a rectangle covering the full bounding box reports every point exactly once", t, func() {
		min := make([]float64, 4)
		max := make([]float64, 4)
		for d := 0; d < 4; d++ {
			min[d], max[d] = 1e18, -1e18
			for _, row := range points {
				if row[d] < min[d] {
					min[d] = row[d]
				}
				if row[d] > max[d] {
					max[d] = row[d]
				}
			}
		}

		trees := newBothTrees(t, points)
		for _, tree := range trees {
			report, err := tree.Report(min, max)
			So(err, ShouldBeNil)
			want := make([]int, len(points))
			for i := range want {
				want[i] = i
			}
			So(sortedCopy(report), ShouldResemble, want)
		}
	})
}

func TestSampleReturnsDistinctSubsetOfReport(t *testing.T) {
	rnd := rand.New(rand.NewSource(53))
	points := randomPoints(1000, 3, rnd)
	min := []float64{-100, -100, -100}
	max := []float64{100, 100, 100}

	Convey("Sample draws a distinct subset of what Report would return", t, func() {
		trees := newBothTrees(t, points)
		for _, tree := range trees {
			full, err := tree.Report(min, max)
			So(err, ShouldBeNil)
			fullSet := make(map[int]struct{}, len(full))
			for _, v := range full {
				fullSet[v] = struct{}{}
			}

			sample, err := tree.Sample(min, max, 37, rnd)
			So(err, ShouldBeNil)
			So(len(sample), ShouldEqual, 37)

			seen := make(map[int]struct{}, len(sample))
			for _, v := range sample {
				_, inFull := fullSet[v]
				So(inFull, ShouldBeTrue)
				_, dup := seen[v]
				So(dup, ShouldBeFalse)
				seen[v] = struct{}{}
			}
		}
	})

	Convey("Sample with sampleCount >= match count returns every match", t, func() {
		trees := newBothTrees(t, points)
		for _, tree := range trees {
			full, err := tree.Report(min, max)
			So(err, ShouldBeNil)
			sample, err := tree.Sample(min, max, len(full)+50, rnd)
			So(err, ShouldBeNil)
			So(sortedCopy(sample), ShouldResemble, sortedCopy(full))
		}
	})

	Convey("Sample rejects a non-positive sampleCount or a nil rng", t, func() {
		tree, _ := NewZOrder(points)
		_, err := tree.Sample(min, max, 0, rnd)
		So(err, ShouldNotBeNil)
		_, err = tree.Sample(min, max, 5, nil)
		So(err, ShouldNotBeNil)
	})
}

func TestDuplicateCoordinatesAndDegenerateDimensions(t *testing.T) {
	Convey("points sharing coordinates on some dimensions are handled correctly", t, func() {
		points := [][]float64{
			{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1},
			{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1},
		}
		trees := newBothTrees(t, points)
		for _, tree := range trees {
			count, err := tree.Count([]float64{0, 0, 0}, []float64{0, 1, 1})
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 4)

			count, err = tree.Count([]float64{-1, -1, -1}, []float64{2, 2, 2})
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 8)
		}
	})
}

func TestQueryValidation(t *testing.T) {
	points := [][]float64{{0, 0}, {1, 1}}
	tree, err := NewZOrder(points)

	Convey("a query rectangle with the wrong dimension is rejected", t, func() {
		So(err, ShouldBeNil)
		_, err := tree.Count([]float64{0, 0, 0}, []float64{1, 1, 1})
		So(err, ShouldNotBeNil)
	})

	Convey("a non-finite query bound is rejected", t, func() {
		_, err := tree.Count([]float64{0, 0}, []float64{1, math.Inf(1)})
		So(err, ShouldNotBeNil)
	})
}
