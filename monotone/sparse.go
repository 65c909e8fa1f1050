package monotone

import "github.com/nec-oss/kdwtree/sbv"

// Sparse1 stores a bit-vector whose one-bits are rare by
// monotone-encoding their positions; Sparse0 does the same for a
// vector whose zero-bits are rare. Both implement sbv.BitVector.

type Sparse1 struct {
	length  int
	ones    []int64
	seq     *Sequence
	oneNum  int
	appendN int
}

func NewSparse1(length int) *Sparse1 {
	if length <= 0 {
		usageError("NewSparse1: length=%d", length)
	}
	return &Sparse1{length: length}
}

func (s *Sparse1) Len() int { return s.length }

func (s *Sparse1) Append(bit int) {
	if s.appendN >= s.length {
		usageError("Sparse1.Append: over length")
	}
	if bit != 0 {
		s.ones = append(s.ones, int64(s.appendN))
		s.oneNum++
	}
	s.appendN++
}

func (s *Sparse1) Build() {
	if s.appendN != s.length {
		usageError("Sparse1.Build: append call incomplete")
	}
	if s.oneNum > 0 {
		s.seq = Build(s.ones)
	}
	s.ones = nil
}

func (s *Sparse1) UsedBits() int64 {
	if s.seq == nil {
		return 64
	}
	return s.seq.UsedBits()
}

func (s *Sparse1) Access(i int) int {
	if i < 0 || i >= s.length {
		usageError("Sparse1.Access: i=%d", i)
	}
	if s.seq == nil {
		return 0
	}
	if s.seq.Contains(int64(i)) {
		return 1
	}
	return 0
}

func (s *Sparse1) Rank(b, i int) int {
	if b == 0 {
		return s.Rank0(i)
	}
	return s.Rank1(i)
}

func (s *Sparse1) Rank1(i int) int {
	if i < 0 || i > s.length {
		usageError("Sparse1.Rank1: i=%d", i)
	}
	if s.seq == nil {
		return 0
	}
	return s.seq.Ranklt(int64(i))
}

func (s *Sparse1) Rank0(i int) int { return i - s.Rank1(i) }

func (s *Sparse1) RankTotal(b int) int {
	if b == 1 {
		return s.oneNum
	}
	return s.length - s.oneNum
}

func (s *Sparse1) Select(b, i int) int {
	if b == 0 {
		return s.Select0(i)
	}
	return s.Select1(i)
}

func (s *Sparse1) Select1(i int) int {
	if i < 0 || i >= s.oneNum {
		usageError("Sparse1.Select1: i=%d", i)
	}
	return int(s.seq.Access(i))
}

func (s *Sparse1) Select0(i int) int {
	if i < 0 || i >= s.length-s.oneNum {
		usageError("Sparse1.Select0: i=%d", i)
	}
	return complementSelect(s.seq, s.length, s.oneNum, i)
}

func (s *Sparse1) Next(b, i int) int { return s.Select(b, s.Rank(b, i+1)) }
func (s *Sparse1) Prev1(i int) int   { return s.Select1(s.Rank1(i) - 1) }

func (s *Sparse1) SelectRanges(b int, se *sbv.IntBuffer, begin, end, bias int, out *sbv.IntBuffer) {
	sbv.SelectRangesVia(s, b, se, begin, end, bias, out)
}

type Sparse0 struct {
	length  int
	zeros   []int64
	seq     *Sequence
	zeroNum int
	appendN int
}

func NewSparse0(length int) *Sparse0 {
	if length <= 0 {
		usageError("NewSparse0: length=%d", length)
	}
	return &Sparse0{length: length}
}

func (s *Sparse0) Len() int { return s.length }

func (s *Sparse0) Append(bit int) {
	if s.appendN >= s.length {
		usageError("Sparse0.Append: over length")
	}
	if bit == 0 {
		s.zeros = append(s.zeros, int64(s.appendN))
		s.zeroNum++
	}
	s.appendN++
}

func (s *Sparse0) Build() {
	if s.appendN != s.length {
		usageError("Sparse0.Build: append call incomplete")
	}
	if s.zeroNum > 0 {
		s.seq = Build(s.zeros)
	}
	s.zeros = nil
}

func (s *Sparse0) UsedBits() int64 {
	if s.seq == nil {
		return 64
	}
	return s.seq.UsedBits()
}

func (s *Sparse0) Access(i int) int {
	if i < 0 || i >= s.length {
		usageError("Sparse0.Access: i=%d", i)
	}
	if s.seq == nil {
		return 1
	}
	if s.seq.Contains(int64(i)) {
		return 0
	}
	return 1
}

func (s *Sparse0) Rank(b, i int) int {
	if b == 0 {
		return s.Rank0(i)
	}
	return s.Rank1(i)
}

func (s *Sparse0) Rank0(i int) int {
	if i < 0 || i > s.length {
		usageError("Sparse0.Rank0: i=%d", i)
	}
	if s.seq == nil {
		return 0
	}
	return s.seq.Ranklt(int64(i))
}

func (s *Sparse0) Rank1(i int) int { return i - s.Rank0(i) }

func (s *Sparse0) RankTotal(b int) int {
	if b == 0 {
		return s.zeroNum
	}
	return s.length - s.zeroNum
}

func (s *Sparse0) Select(b, i int) int {
	if b == 0 {
		return s.Select0(i)
	}
	return s.Select1(i)
}

func (s *Sparse0) Select0(i int) int {
	if i < 0 || i >= s.zeroNum {
		usageError("Sparse0.Select0: i=%d", i)
	}
	return int(s.seq.Access(i))
}

func (s *Sparse0) Select1(i int) int {
	if i < 0 || i >= s.length-s.zeroNum {
		usageError("Sparse0.Select1: i=%d", i)
	}
	return complementSelect(s.seq, s.length, s.zeroNum, i)
}

func (s *Sparse0) Next(b, i int) int { return s.Select(b, s.Rank(b, i+1)) }
func (s *Sparse0) Prev1(i int) int   { return s.Select1(s.Rank1(i) - 1) }

func (s *Sparse0) SelectRanges(b int, se *sbv.IntBuffer, begin, end, bias int, out *sbv.IntBuffer) {
	sbv.SelectRangesVia(s, b, se, begin, end, bias, out)
}

// complementSelect returns the position of the (i+1)-th index in
// [0, totalLength) that is absent from seq, given seq holds sparseCount
// strictly increasing positions. It binary searches the non-decreasing
// function f(p) = p - (count of seq elements < p).
func complementSelect(seq *Sequence, totalLength, sparseCount, i int) int {
	lo, hi := i, i+sparseCount
	if hi > totalLength-1 {
		hi = totalLength - 1
	}
	rankAt := func(p int) int {
		if seq == nil {
			return 0
		}
		return seq.Ranklt(int64(p))
	}
	for lo < hi {
		mid := (lo + hi) / 2
		if (mid+1)-rankAt(mid+1) >= i+1 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
