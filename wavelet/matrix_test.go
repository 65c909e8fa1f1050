package wavelet

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/nec-oss/kdwtree/interval"
	"github.com/nec-oss/kdwtree/sbv"

	. "github.com/smartystreets/goconvey/convey"
)

func randomSequence(n, vmax int, rnd *rand.Rand) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = rnd.Intn(vmax + 1)
	}
	return data
}

func TestMatrixAccessAndRank(t *testing.T) {
	rnd := rand.New(rand.NewSource(21))
	original := randomSequence(600, 200, rnd)
	data := append([]int(nil), original...)
	m := Build(data, -1)

	Convey("Access reproduces the original sequence", t, func() {
		for i, v := range original {
			So(m.Access(i), ShouldEqual, v)
		}
	})

	Convey("Rank, Ranklt and Rankgt partition [s, e) for every threshold", t, func() {
		s, e := 37, 521
		for c := 0; c <= 200; c += 11 {
			rank := m.Rank(c, s, e)
			lt := m.Ranklt(c, s, e)
			gt := m.Rankgt(c, s, e)
			So(lt+rank+gt, ShouldEqual, e-s)

			wantRank, wantLt := 0, 0
			for _, v := range original[s:e] {
				if v == c {
					wantRank++
				}
				if v < c {
					wantLt++
				}
			}
			So(rank, ShouldEqual, wantRank)
			So(lt, ShouldEqual, wantLt)
		}
	})

	Convey("Rankle and Rankge are complements of Rankgt and Ranklt", t, func() {
		s, e := 0, m.Len()
		c := 83
		So(m.Rankle(c, s, e), ShouldEqual, e-s-m.Rankgt(c, s, e))
		So(m.Rankge(c, s, e), ShouldEqual, e-s-m.Ranklt(c, s, e))
	})
}

func TestMatrixSelect(t *testing.T) {
	rnd := rand.New(rand.NewSource(22))
	original := randomSequence(400, 50, rnd)
	data := append([]int(nil), original...)
	m := Build(data, -1)

	Convey("Select(c, i) lands on the (i+1)-th occurrence of c and Rank agrees", t, func() {
		for c := 0; c <= 50; c += 7 {
			count := m.Rank(c, 0, m.Len())
			for i := 0; i < count; i++ {
				p := m.Select(c, i, 0, m.Len(), true)
				So(p, ShouldBeGreaterThanOrEqualTo, 0)
				So(original[p], ShouldEqual, c)
				So(m.Rank(c, 0, p), ShouldEqual, i)
			}
			So(m.Select(c, count, 0, m.Len(), true), ShouldEqual, -1)
		}
	})
}

func bruteForceRangePositions(data []int, s, e, min, max int) []int {
	var out []int
	for i := s; i < e; i++ {
		if data[i] >= min && data[i] <= max {
			out = append(out, i)
		}
	}
	return out
}

func collectRootPositions(iv *interval.Intervals, m *Matrix) []int {
	var out []int
	cur := iv.Cursor()
	scratchA, scratchB := sbv.NewIntBuffer(32), sbv.NewIntBuffer(32)
	for cur.Next() {
		if cur.Root {
			for p := cur.S; p < cur.E; p++ {
				out = append(out, p)
			}
			continue
		}
		lifted := interval.NewIntervals(8)
		m.InnerInterval2RootIntervals(cur.Level, cur.S, cur.E, lifted, scratchA, scratchB)
		lcur := lifted.Cursor()
		for lcur.Next() {
			for p := lcur.S; p < lcur.E; p++ {
				out = append(out, p)
			}
		}
	}
	sort.Ints(out)
	return out
}

func TestMatrixRangeIntervalsMatchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(23))
	original := randomSequence(500, 300, rnd)
	data := append([]int(nil), original...)
	m := Build(data, -1)

	Convey("RangeIntervals (lifted to root order) matches a brute-force scan", t, func() {
		cases := []struct{ s, e, min, max int }{
			{0, 500, 0, 300},
			{10, 480, 50, 90},
			{0, 500, 300, 300},
			{100, 101, 0, 300},
			{200, 460, 150, 149},
		}
		for _, c := range cases {
			want := bruteForceRangePositions(original, c.s, c.e, c.min, c.max)
			out := interval.NewIntervals(16)
			m.RangeIntervals(c.s, c.e, c.min, c.max, 0, out)
			got := collectRootPositions(out, m)
			So(got, ShouldResemble, want)
		}
	})
}

func TestMatrixRangeIntervalsFromMatchesRangeIntervals(t *testing.T) {
	rnd := rand.New(rand.NewSource(24))
	original := randomSequence(300, 63, rnd)
	data := append([]int(nil), original...)
	m := Build(data, 6)

	Convey("RangeIntervalsFrom rooted at the matrix top level equals RangeIntervals", t, func() {
		s, e, min, max := 5, 280, 10, 40
		want := interval.NewIntervals(16)
		m.RangeIntervals(s, e, min, max, 0, want)
		wantPositions := collectRootPositions(want, m)

		got := interval.NewIntervals(16)
		m.RangeIntervalsFrom(m.Depth()-1, s, e, 0, min, max, 0, got)
		gotPositions := collectRootPositions(got, m)

		So(gotPositions, ShouldResemble, wantPositions)
	})
}

func TestMatrixRankltFromMatchesRanklt(t *testing.T) {
	rnd := rand.New(rand.NewSource(25))
	original := randomSequence(300, 63, rnd)
	data := append([]int(nil), original...)
	m := Build(data, 6)

	Convey("RankltFrom rooted at the matrix top level equals Ranklt", t, func() {
		s, e := 12, 290
		for c := 0; c <= 63; c += 5 {
			So(m.RankltFrom(m.Depth()-1, s, e, c), ShouldEqual, m.Ranklt(c, s, e))
		}
	})
}
