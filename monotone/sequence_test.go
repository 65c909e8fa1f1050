package monotone

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func sortedDistinctInt64(n int, maxVal int64, rnd *rand.Rand) []int64 {
	seen := make(map[int64]struct{}, n)
	values := make([]int64, 0, n)
	for len(values) < n {
		v := rnd.Int63n(maxVal)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j-1] > values[j]; j-- {
			values[j-1], values[j] = values[j], values[j-1]
		}
	}
	return values
}

func TestSequenceRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	Convey("A monotone sequence of distinct values", t, func() {
		values := sortedDistinctInt64(500, 1<<30, rnd)
		seq := Build(values)

		Convey("access reproduces every stored value", func() {
			for i, v := range values {
				So(seq.Access(i), ShouldEqual, v)
			}
		})

		Convey("find(v) == index for present v", func() {
			for i, v := range values {
				So(seq.Find(v), ShouldEqual, i)
			}
		})

		Convey("find(v) < 0 for absent v, encoding the insertion point", func() {
			absent := values[10] - 1
			found := false
			for _, v := range values {
				if v == absent {
					found = true
				}
			}
			So(found, ShouldBeFalse)
			idx := seq.Find(absent)
			So(idx, ShouldBeLessThan, 0)
		})

		Convey("ranklt(v) counts stored elements strictly less than v", func() {
			for i := 0; i < len(values); i += 23 {
				v := values[i]
				So(seq.Ranklt(v), ShouldEqual, i)
				So(seq.Ranklt(v+1), ShouldBeGreaterThanOrEqualTo, i)
			}
		})

		Convey("contains agrees with find", func() {
			So(seq.Contains(values[0]), ShouldBeTrue)
			So(seq.Contains(values[0]-1), ShouldBeFalse)
		})
	})
}

func TestSequenceWithDuplicates(t *testing.T) {
	Convey("A non-strict monotone sequence with repeated values", t, func() {
		values := []int64{1, 1, 1, 4, 4, 7, 9, 9, 9, 9}
		seq := Build(values)

		Convey("Strict is false", func() {
			So(seq.Strict(), ShouldBeFalse)
		})

		Convey("ranklt counts all strictly-smaller elements", func() {
			So(seq.Ranklt(1), ShouldEqual, 0)
			So(seq.Ranklt(4), ShouldEqual, 3)
			So(seq.Ranklt(9), ShouldEqual, 6)
			So(seq.Ranklt(10), ShouldEqual, 10)
		})

		Convey("find locates the last occurrence of a repeated value", func() {
			So(seq.Access(seq.Find(9)), ShouldEqual, int64(9))
			So(seq.Find(9), ShouldEqual, 9)
		})
	})
}

func TestSparseAndBiasedVariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	Convey("Monotone-backed bit-vector variants", t, func() {
		n := 800
		bits := make([]int, n)
		for i := range bits {
			if rnd.Float64() < 0.05 {
				bits[i] = 1
			}
		}
		ones, zeros := 0, 0
		for _, b := range bits {
			if b == 1 {
				ones++
			} else {
				zeros++
			}
		}

		build := func(bv interface {
			Append(int)
			Build()
		}) {
			for _, b := range bits {
				bv.Append(b)
			}
			bv.Build()
		}

		Convey("Sparse1 matches the dense rank/select laws", func() {
			bv := NewSparse1(n)
			build(bv)
			So(bv.Rank1(n), ShouldEqual, ones)
			So(bv.Rank0(n), ShouldEqual, zeros)
			for i := 0; i < ones; i++ {
				pos := bv.Select1(i)
				So(bv.Access(pos), ShouldEqual, 1)
				So(bv.Rank1(pos), ShouldEqual, i)
			}
		})

		Convey("Sparse0 matches the dense rank/select laws", func() {
			bv := NewSparse0(n)
			build(bv)
			So(bv.Rank1(n), ShouldEqual, ones)
			So(bv.Rank0(n), ShouldEqual, zeros)
			for i := 0; i < zeros; i++ {
				pos := bv.Select0(i)
				So(bv.Access(pos), ShouldEqual, 0)
				So(bv.Rank0(pos), ShouldEqual, i)
			}
		})

		Convey("Biased matches the dense rank/select laws", func() {
			bv := NewBiased(n)
			build(bv)
			So(bv.Rank1(n), ShouldEqual, ones)
			So(bv.Rank0(n), ShouldEqual, zeros)
			for i := 0; i < n; i += 7 {
				So(bv.Access(i), ShouldEqual, bits[i])
			}
		})
	})
}
