// Package monotone implements an Elias-Fano style compressed
// representation of a non-decreasing sequence of non-negative
// integers, split into a unary-coded high-bits stream (a succinct
// bit-vector) and a fixed-width low-bits array. It also hosts the
// bit-vector variants that are themselves monotone-encoded position
// lists (Sparse0, Sparse1, Biased), so that package sbv never needs to
// import this package back.
package monotone

import (
	"fmt"
	"math/bits"

	"github.com/nec-oss/kdwtree/bitarray"
	"github.com/nec-oss/kdwtree/sbv"
)

// Sequence stores a non-decreasing []int64 compactly: values in
// [firstValue, lastValue] take roughly bits(lastValue-firstValue) -
// bits(length) bits of low part per element plus O(length) unary high
// bits, rather than 64 bits each.
type Sequence struct {
	strict     bool
	length     int
	firstValue int64
	lastValue  int64
	lowbitsize int
	lowBits    *bitarray.FixedBits
	highBits   *sbv.Dense
	highRank0  int
}

// Build constructs a Sequence from a sorted (non-decreasing),
// non-negative slice of values.
func Build(values []int64) *Sequence {
	if len(values) == 0 {
		usageError("Build: empty")
	}
	if values[0] < 0 || values[len(values)-1] < 0 {
		usageError("Build: negative value")
	}
	if values[0] > values[len(values)-1] {
		usageError("Build: not monotone")
	}

	s := &Sequence{strict: true}
	s.length = len(values)
	s.firstValue = values[0]
	s.lastValue = values[s.length-1]
	lastDisplacement := s.lastValue - s.firstValue

	m := s.length
	n := lastDisplacement
	bM := bits.Len(uint(m - 1))
	bN := 1
	if n != 0 {
		bN = bits.Len(uint(n))
	}
	bL := 0
	if bN >= bM {
		bL = bN - bM
	}
	s.lowbitsize = bL
	lowbitmask := int64(1)<<uint(bL) - 1
	lastDisplacementHigh := int(lastDisplacement >> uint(bL))

	if bL > 0 {
		s.lowBits = bitarray.NewFixedBits(m, bL)
	}
	s.highBits = sbv.NewDense(m + lastDisplacementHigh)
	s.highRank0 = lastDisplacementHigh

	prevValue := int64(-1)
	first := true
	prevHigh := 0
	for i := 0; i < m; i++ {
		value := values[i]
		if value < 0 {
			usageError("Build: negative value")
		}
		if !first && prevValue > value {
			usageError("Build: not monotone")
		}
		if !first && prevValue == value {
			s.strict = false
		}
		first = false
		displacement := value - s.firstValue
		if bL > 0 {
			s.lowBits.Set(i, uint64(displacement&lowbitmask))
		}
		high := int(displacement >> uint(bL))
		for j := 0; j < high-prevHigh; j++ {
			s.highBits.Append(0)
		}
		s.highBits.Append(1)
		prevValue = value
		prevHigh = high
	}
	s.highBits.Build()
	return s
}

func (s *Sequence) Len() int          { return s.length }
func (s *Sequence) FirstValue() int64 { return s.firstValue }
func (s *Sequence) LastValue() int64  { return s.lastValue }
func (s *Sequence) Strict() bool      { return s.strict }

func (s *Sequence) UsedBits() int64 {
	return s.highBits.UsedBits() + int64(s.length)*int64(s.lowbitsize)
}

func (s *Sequence) Access(i int) int64 {
	high := s.highBits.Select1(i) - i
	if s.lowbitsize == 0 {
		return s.firstValue + int64(high)
	}
	low := s.lowBits.Get(i)
	return s.firstValue + (int64(high)<<uint(s.lowbitsize) | int64(low))
}

// Contains reports whether v is present in the sequence.
func (s *Sequence) Contains(v int64) bool {
	c := v - s.firstValue
	if c < 0 {
		return false
	}
	if c == 0 {
		return true
	}
	cH := int(c >> uint(s.lowbitsize))
	if s.highRank0 < cH {
		return false
	}
	pos0H := -1
	if cH != 0 {
		pos0H = s.highBits.Select0(cH - 1)
	}
	if s.highBits.Access(pos0H+1) == 0 {
		return false
	}
	if s.lowbitsize == 0 {
		return true
	}
	cL := uint64(c) & (uint64(1)<<uint(s.lowbitsize) - 1)
	sL := pos0H - (cH - 1)
	eL := s.length
	if s.highRank0 != cH {
		eL = s.highBits.Select0(cH) - cH
	}
	return s.lowBits.BinarySearch(cL, sL, eL) >= 0
}

// Ranklt returns the number of stored elements strictly less than v.
func (s *Sequence) Ranklt(v int64) int {
	c := v - s.firstValue
	if c <= 0 {
		return 0
	}
	cH := int(c >> uint(s.lowbitsize))
	if s.highRank0 < cH {
		return s.length
	}
	pos0H := -1
	if cH != 0 {
		pos0H = s.highBits.Select0(cH - 1)
	}
	if s.highBits.Access(pos0H+1) == 0 {
		return pos0H - (cH - 1)
	}
	if s.lowbitsize == 0 {
		return pos0H - (cH - 1)
	}
	cL := uint64(c) & (uint64(1)<<uint(s.lowbitsize) - 1)
	sL := pos0H - (cH - 1)
	eL := s.length
	if s.highRank0 != cH {
		eL = s.highBits.Select0(cH) - cH
	}
	if s.strict {
		return s.lowBits.BinarySearchGE(cL, sL, eL)
	}
	return s.lowBits.BinarySearchGEFirst(cL, sL, eL)
}

// Find searches for v, returning the index of (the last occurrence
// of, for a non-strict sequence) v if present, or -(insertion point)-1
// otherwise — the insertion point being the index of the first element
// greater than v, or Len() if all elements are smaller.
func (s *Sequence) Find(v int64) int {
	c := v - s.firstValue
	if c < 0 {
		return ^0
	}
	if c == 0 && s.strict {
		return 0
	}
	cH := int(c >> uint(s.lowbitsize))
	if s.highRank0 < cH {
		return ^s.length
	}
	pos0H := -1
	if cH != 0 {
		pos0H = s.highBits.Select0(cH - 1)
	}
	if s.highBits.Access(pos0H+1) == 0 {
		return ^(pos0H - (cH - 1))
	}
	if s.lowbitsize == 0 {
		if s.strict {
			return pos0H - (cH - 1)
		}
		if s.highRank0 == cH {
			return s.length - 1
		}
		return s.highBits.Select0(cH) - cH - 1
	}
	cL := uint64(c) & (uint64(1)<<uint(s.lowbitsize) - 1)
	sL := pos0H - (cH - 1)
	eL := s.length
	if s.highRank0 != cH {
		eL = s.highBits.Select0(cH) - cH
	}
	var found int
	if s.strict {
		found = s.lowBits.BinarySearch(cL, sL, eL)
	} else {
		found = s.lowBits.BinarySearchLast(cL, sL, eL)
	}
	if found >= 0 {
		return found
	}
	return ^s.lowBits.BinarySearchGE(cL, sL, eL)
}

// AccessCache amortises a run of Access calls at increasing or
// decreasing, mostly-adjacent indices (the wavelet matrix's descent
// pattern) by walking Next/Prev1 on the high-bits instead of a fresh
// Select1 each time.
type AccessCache struct {
	value      int64
	prevIndex  int
	prevSelect int
}

func NewAccessCache() *AccessCache { return &AccessCache{prevSelect: -1} }

func (s *Sequence) AccessWithCache(i int, c *AccessCache) int64 {
	var select1 int
	switch {
	case c.prevSelect < 0:
		select1 = s.highBits.Select1(i)
	default:
		switch i - c.prevIndex {
		case 0:
			return c.value
		case 1:
			select1 = s.highBits.Next(1, c.prevSelect)
		case 2:
			select1 = s.highBits.Next(1, c.prevSelect)
			select1 = s.highBits.Next(1, select1)
		case -1:
			select1 = s.highBits.Prev1(c.prevSelect)
		default:
			select1 = s.highBits.Select1(i)
		}
	}
	c.prevSelect = select1
	c.prevIndex = i
	high := select1 - i
	if s.lowbitsize == 0 {
		c.value = s.firstValue + int64(high)
		return c.value
	}
	low := s.lowBits.Get(i)
	c.value = s.firstValue + (int64(high)<<uint(s.lowbitsize) | int64(low))
	return c.value
}

// SequentialContext supports a strictly sequential walk (Next/Prev)
// over the sequence at O(1) amortised cost per step.
type SequentialContext struct {
	lastIndex  int
	lastSelect int
}

func (s *Sequence) SequentialStart(i int, ctx *SequentialContext) int64 {
	ctx.lastSelect = s.highBits.Select1(i)
	ctx.lastIndex = i
	high := ctx.lastSelect - i
	if s.lowbitsize == 0 {
		return s.firstValue + int64(high)
	}
	low := s.lowBits.Get(i)
	return s.firstValue + (int64(high)<<uint(s.lowbitsize) | int64(low))
}

func (s *Sequence) SequentialNext(ctx *SequentialContext) int64 {
	ctx.lastSelect = s.highBits.Next(1, ctx.lastSelect)
	ctx.lastIndex++
	i := ctx.lastIndex
	high := ctx.lastSelect - i
	if s.lowbitsize == 0 {
		return s.firstValue + int64(high)
	}
	low := s.lowBits.Get(i)
	return s.firstValue + (int64(high)<<uint(s.lowbitsize) | int64(low))
}

func (s *Sequence) SequentialPrev(ctx *SequentialContext) int64 {
	ctx.lastSelect = s.highBits.Prev1(ctx.lastSelect)
	ctx.lastIndex--
	i := ctx.lastIndex
	high := ctx.lastSelect - i
	if s.lowbitsize == 0 {
		return s.firstValue + int64(high)
	}
	low := s.lowBits.Get(i)
	return s.firstValue + (int64(high)<<uint(s.lowbitsize) | int64(low))
}

func usageError(format string, args ...any) {
	panic(fmt.Errorf("monotone: usage error: "+format, args...))
}
