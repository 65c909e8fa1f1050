package sbv

import "fmt"

// BitVector is the common capability set exposed by every succinct
// bit-vector variant (Dense, the trivial All-0/All-1, and the
// monotone-backed sparse/biased variants in package monotone). It is
// built append-then-freeze: Append is only valid before Build, and
// every other method is only valid after.
type BitVector interface {
	// Len returns the number of bits.
	Len() int
	// Append adds a 0/1 bit at the current append position. Panics if
	// called after Build or past the declared length.
	Append(bit int)
	// Build finalises the auxiliary rank/select structures. Panics if
	// fewer bits than Len were appended.
	Build()

	// Access returns the bit at position i.
	Access(i int) int
	// Rank returns the number of occurrences of bit b in [0, i).
	Rank(b, i int) int
	Rank0(i int) int
	Rank1(i int) int
	// RankTotal returns the total number of occurrences of bit b.
	RankTotal(b int) int

	// Select returns the position of the (i+1)-th occurrence of bit b.
	Select(b, i int) int
	Select0(i int) int
	Select1(i int) int

	// Next returns the position of the first occurrence of bit b
	// strictly after i.
	Next(b, i int) int
	// Prev1 returns the position of the last occurrence of a one-bit
	// strictly before i.
	Prev1(i int) int

	// SelectRanges rewrites the half-open rank-intervals encoded as
	// alternating (start, end) pairs in se[begin:end] (bias is subtracted
	// from every entry before it is read as a rank of bit b) into the
	// half-open position-intervals covering those occurrences of bit b,
	// one (start, end) pair per maximal run of adjacent positions,
	// appending results to out.
	SelectRanges(b int, se *IntBuffer, begin, end, bias int, out *IntBuffer)

	// UsedBits returns the approximate size of the structure in bits,
	// for the variant-selection estimator.
	UsedBits() int64
}

// IntBuffer is the minimal growable int slice used for selectRanges
// batches; it mirrors the buffer used across the wavelet matrix and
// interval machinery so bit-vector variants never allocate a
// throwaway []int per call.
type IntBuffer struct {
	elems []int
}

func NewIntBuffer(capacity int) *IntBuffer {
	return &IntBuffer{elems: make([]int, 0, capacity)}
}

func (b *IntBuffer) Add(v int)      { b.elems = append(b.elems, v) }
func (b *IntBuffer) Len() int       { return len(b.elems) }
func (b *IntBuffer) Get(i int) int  { return b.elems[i] }
func (b *IntBuffer) Clear()         { b.elems = b.elems[:0] }
func (b *IntBuffer) Slice() []int   { return b.elems }

func usageError(format string, args ...any) {
	panic(fmt.Errorf("sbv: usage error: "+format, args...))
}

// SelectRangesVia implements BitVector.SelectRanges purely in terms of
// v's own Select/Next/RankTotal, for variants defined outside this
// package (the monotone-backed Sparse0/Sparse1/Biased) that have no
// access to selectRangesGeneric's unexported name.
func SelectRangesVia(v BitVector, b int, se *IntBuffer, begin, end, bias int, out *IntBuffer) {
	selectRangesGeneric(v, b, se, begin, end, bias, out)
}

// selectRangesGeneric implements BitVector.SelectRanges purely in terms
// of Select/Next/RankTotal, for variants (RRR16, the trivial All-0/
// All-1) that do not keep Dense's internal word layout to special-case
// against. It is the same amortised walk as Dense.selectRanges0/1, just
// driven through the interface instead of concrete fields.
func selectRangesGeneric(v BitVector, b int, se *IntBuffer, begin, end, bias int, out *IntBuffer) {
	other := 1 - b
	rankOther := -1
	nextRankB := -1
	for j := begin; j < end; j++ {
		jlsb := j & 1
		value := se.Get(j) - bias - jlsb
		switch {
		case value < nextRankB:
			out.Add(rankOther + value + jlsb)
		case jlsb == 0:
			indexB := v.Select(b, value)
			out.Add(indexB)
			rankOther = indexB - value
			if rankOther < v.RankTotal(other) {
				indexOther := v.Next(other, indexB)
				nextRankB = value + indexOther - indexB
			} else {
				nextRankB = v.RankTotal(b)
			}
		default:
			indexOther := rankOther + nextRankB
			out.Add(indexOther)
			for {
				indexB := v.Next(b, indexOther)
				out.Add(indexB)
				rankOther = indexB - nextRankB
				if rankOther < v.RankTotal(other) {
					indexOther = v.Next(other, indexB)
					nextRankB += indexOther - indexB
				} else {
					nextRankB = v.RankTotal(b)
				}
				if value < nextRankB {
					out.Add(rankOther + value + 1)
					break
				}
				out.Add(indexOther)
			}
		}
	}
}
