package permute

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func assertDistinctInRange(t *testing.T, result []int, n, k int) {
	So(len(result), ShouldEqual, k)
	seen := make(map[int]struct{}, k)
	for _, v := range result {
		So(v, ShouldBeGreaterThanOrEqualTo, 0)
		So(v, ShouldBeLessThan, n)
		_, dup := seen[v]
		So(dup, ShouldBeFalse)
		seen[v] = struct{}{}
	}
}

func TestPartialPermutationViaShuffleTail(t *testing.T) {
	rnd := rand.New(rand.NewSource(41))
	Convey("small n takes the shuffle-tail path and returns k distinct values", t, func() {
		n, k := 50, 12
		result := PartialPermutation(n, k, rnd)
		assertDistinctInRange(t, result, n, k)
	})

	Convey("k close to n also forces the shuffle-tail path", t, func() {
		n, k := 200000, 150000
		result := PartialPermutation(n, k, rnd)
		assertDistinctInRange(t, result, n, k)
	})
}

func TestPartialPermutationViaRejectionSampling(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	Convey("large n with small k takes the rejection-sampling path", t, func() {
		n, k := 500000, 100
		result := PartialPermutation(n, k, rnd)
		assertDistinctInRange(t, result, n, k)
	})
}

func TestPartialPermutationEdgeCases(t *testing.T) {
	rnd := rand.New(rand.NewSource(43))
	Convey("k == 0 returns an empty selection", t, func() {
		result := PartialPermutation(10, 0, rnd)
		So(len(result), ShouldEqual, 0)
	})

	Convey("k == n returns every index exactly once", t, func() {
		n := 30
		result := PartialPermutation(n, n, rnd)
		assertDistinctInRange(t, result, n, n)
	})
}

func TestPartialPermutationRejectsInvalidInput(t *testing.T) {
	rnd := rand.New(rand.NewSource(44))
	Convey("k > n panics", t, func() {
		So(func() { PartialPermutation(5, 6, rnd) }, ShouldPanic)
	})
	Convey("negative n panics", t, func() {
		So(func() { PartialPermutation(-1, 0, rnd) }, ShouldPanic)
	})
}
