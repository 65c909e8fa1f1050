// Package rankspace implements the per-dimension rank-space
// dictionary: a bidirectional mapping between real (float64)
// coordinate values and a dense 0-based rank, used to turn arbitrary
// real-valued points into the small integer alphabet the wavelet
// matrices are built over.
package rankspace

import (
	"fmt"
	"math"
	"sort"

	"github.com/nec-oss/kdwtree/monotone"
)

// EncodeDL maps a float64 to an int64 that preserves numeric order:
// for any a, b, a < b implies EncodeDL(a) < EncodeDL(b). NaN is not a
// valid input.
func EncodeDL(d float64) int64 {
	l := int64(math.Float64bits(d))
	if l < 0 {
		return l ^ 0x7fffffffffffffff
	}
	return l
}

// DecodeLD is the inverse of EncodeDL.
func DecodeLD(l int64) float64 {
	if l < 0 {
		l ^= 0x7fffffffffffffff
	}
	return math.Float64frombits(uint64(l))
}

// Index maps real values to dense ranks and back, over a fixed,
// known-in-advance set of values.
type Index interface {
	Real2DenseRank(real float64) int
	DenseRank2Double(denserank int) float64
	DenseRankMax() int
}

// Builder accumulates real values, then picks between a plain sorted
// array and an Elias-Fano-backed dictionary depending on which is
// smaller by estimateMonotoneBits. The Elias-Fano form stores
// non-negative integers only, so a value set containing a negative
// real (whose encoding is negative) always uses the plain sorted array.
type Builder struct {
	values []int64
}

func NewBuilder(capacity int) *Builder {
	return &Builder{values: make([]int64, 0, capacity)}
}

func (b *Builder) Append(value float64) {
	b.values = append(b.values, EncodeDL(value))
}

func (b *Builder) Build() Index {
	if len(b.values) < 1 {
		panic(fmt.Errorf("rankspace: usage error: empty"))
	}
	sorted := append([]int64(nil), b.values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	cardinality := 1
	prev := sorted[0]
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != prev {
			cardinality++
			prev = sorted[i]
		}
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	totalBitsSimple := int64(96) * int64(cardinality)
	totalBits := estimateMonotoneBits(cardinality, first, last)

	if first < 0 || totalBitsSimple <= totalBits {
		return newSimpleIndex(sorted, cardinality)
	}
	return newMonotoneIndex(sorted, cardinality)
}

// estimateMonotoneBits mirrors monotone.Build's own bL computation
// without materialising the sequence, so the builder can compare
// sizes before committing to a representation.
func estimateMonotoneBits(cardinality int, first, last int64) int64 {
	n := last - first
	m := cardinality
	bM := bitsLen32(uint32(m - 1))
	bN := 1
	if n != 0 {
		bN = bitsLen64(uint64(n))
	}
	bL := 0
	if bN >= bM {
		bL = bN - bM
	}
	lastDisplacementHigh := n >> uint(bL)
	return int64(m)*int64(bL) + int64(m) + lastDisplacementHigh
}

func bitsLen32(v uint32) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

func bitsLen64(v uint64) int {
	n := 0
	for v != 0 {
		n++
		v >>= 1
	}
	return n
}

type simpleIndex struct {
	reals []int64
}

func newSimpleIndex(sorted []int64, cardinality int) *simpleIndex {
	reals := make([]int64, 0, cardinality)
	reals = append(reals, sorted[0])
	prev := sorted[0]
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != prev {
			reals = append(reals, sorted[i])
			prev = sorted[i]
		}
	}
	return &simpleIndex{reals: reals}
}

func (s *simpleIndex) Real2DenseRank(real float64) int {
	v := EncodeDL(real)
	i := sort.Search(len(s.reals), func(i int) bool { return s.reals[i] >= v })
	return i
}

func (s *simpleIndex) DenseRank2Double(denserank int) float64 { return DecodeLD(s.reals[denserank]) }
func (s *simpleIndex) DenseRankMax() int                      { return len(s.reals) - 1 }

type monotoneIndex struct {
	seq         *monotone.Sequence
	cardinality int
}

func newMonotoneIndex(sorted []int64, cardinality int) *monotoneIndex {
	distinct := make([]int64, 0, cardinality)
	distinct = append(distinct, sorted[0])
	prev := sorted[0]
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != prev {
			distinct = append(distinct, sorted[i])
			prev = sorted[i]
		}
	}
	return &monotoneIndex{seq: monotone.Build(distinct), cardinality: cardinality}
}

func (m *monotoneIndex) Real2DenseRank(real float64) int {
	return m.seq.Ranklt(EncodeDL(real))
}

func (m *monotoneIndex) DenseRank2Double(denserank int) float64 {
	return DecodeLD(m.seq.Access(denserank))
}

func (m *monotoneIndex) DenseRankMax() int { return m.cardinality - 1 }
