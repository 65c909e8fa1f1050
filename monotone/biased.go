package monotone

import "github.com/nec-oss/kdwtree/sbv"

// Biased stores a bit-vector that is mostly long runs of a single
// value by monotone-encoding the positions where the bit changes,
// plus the running rank1 at each such transition — so access, rank
// and select cost is governed by the number of transitions rather
// than the bit length.
type Biased struct {
	length    int
	firstBit  int
	transPos  []int64
	transRank []int64
	positions *Sequence // transition positions
	ranksAt   *Sequence // rank1 at each transition position

	rank1all, rank0all int
	prevBit, appendN   int
	haveFirst          bool
}

func NewBiased(length int) *Biased {
	if length <= 0 {
		usageError("NewBiased: length=%d", length)
	}
	return &Biased{length: length}
}

func (b *Biased) Len() int { return b.length }

func (b *Biased) Append(bit int) {
	if b.appendN >= b.length {
		usageError("Biased.Append: over length")
	}
	if !b.haveFirst {
		b.firstBit = bit
		b.prevBit = bit
		b.haveFirst = true
	} else if bit != b.prevBit {
		b.transPos = append(b.transPos, int64(b.appendN))
		b.transRank = append(b.transRank, int64(b.rank1all))
		b.prevBit = bit
	}
	if bit != 0 {
		b.rank1all++
	} else {
		b.rank0all++
	}
	b.appendN++
}

func (b *Biased) Build() {
	if b.appendN != b.length {
		usageError("Biased.Build: append call incomplete")
	}
	if len(b.transPos) > 0 {
		b.positions = Build(b.transPos)
		b.ranksAt = Build(b.transRank)
	}
	b.transPos, b.transRank = nil, nil
}

func (b *Biased) UsedBits() int64 {
	if b.positions == nil {
		return 64
	}
	return b.positions.UsedBits() + b.ranksAt.UsedBits()
}

func (b *Biased) numRuns() int {
	if b.positions == nil {
		return 1
	}
	return b.positions.Len() + 1
}

func (b *Biased) runStartPos(run int) int {
	if run == 0 {
		return 0
	}
	return int(b.positions.Access(run - 1))
}

func (b *Biased) runStartRank(run int) int {
	if run == 0 {
		return 0
	}
	return int(b.ranksAt.Access(run - 1))
}

func (b *Biased) runBit(run int) int {
	if run%2 == 0 {
		return b.firstBit
	}
	return 1 - b.firstBit
}

func (b *Biased) runLength(run int) int {
	end := b.length
	if run+1 < b.numRuns() {
		end = b.runStartPos(run + 1)
	}
	return end - b.runStartPos(run)
}

func (b *Biased) findRun(i int) int {
	if b.positions == nil {
		return 0
	}
	return b.positions.Ranklt(int64(i + 1))
}

func (b *Biased) Access(i int) int {
	if i < 0 || i >= b.length {
		usageError("Biased.Access: i=%d", i)
	}
	return b.runBit(b.findRun(i))
}

func (b *Biased) Rank(bit, i int) int {
	if bit == 0 {
		return b.Rank0(i)
	}
	return b.Rank1(i)
}

func (b *Biased) Rank1(i int) int {
	if i < 0 || i > b.length {
		usageError("Biased.Rank1: i=%d", i)
	}
	if i == 0 {
		return 0
	}
	run := b.findRun(i - 1)
	startPos := b.runStartPos(run)
	startRank := b.runStartRank(run)
	extra := i - startPos
	if b.runBit(run) == 1 {
		return startRank + extra
	}
	return startRank
}

func (b *Biased) Rank0(i int) int { return i - b.Rank1(i) }

func (b *Biased) RankTotal(bit int) int {
	if bit == 0 {
		return b.rank0all
	}
	return b.rank1all
}

func (b *Biased) Select(bit, i int) int {
	if bit == 0 {
		return b.Select0(i)
	}
	return b.Select1(i)
}

func (b *Biased) selectBit(bit, i int) int {
	for run := 0; run < b.numRuns(); run++ {
		startRank := b.runStartRank(run)
		rbit := b.runBit(run)
		length := b.runLength(run)
		count := 0
		if rbit == bit {
			count = length
		}
		var startCount int
		if bit == 1 {
			startCount = startRank
		} else {
			startCount = b.runStartPos(run) - startRank
		}
		if i < startCount+count {
			return b.runStartPos(run) + (i - startCount)
		}
	}
	usageError("Biased.Select: i=%d not found", i)
	return 0
}

func (b *Biased) Select0(i int) int {
	if i < 0 || i >= b.rank0all {
		usageError("Biased.Select0: i=%d", i)
	}
	return b.selectBit(0, i)
}

func (b *Biased) Select1(i int) int {
	if i < 0 || i >= b.rank1all {
		usageError("Biased.Select1: i=%d", i)
	}
	return b.selectBit(1, i)
}

func (b *Biased) Next(bit, i int) int { return b.Select(bit, b.Rank(bit, i+1)) }
func (b *Biased) Prev1(i int) int     { return b.Select1(b.Rank1(i) - 1) }

func (b *Biased) SelectRanges(bit int, se *sbv.IntBuffer, begin, end, bias int, out *sbv.IntBuffer) {
	sbv.SelectRangesVia(b, bit, se, begin, end, bias, out)
}
