package sbv

// RRR16 is a size-optimised bit-vector variant: bits are grouped into
// 16-bit blocks, each block stored as a (class, offset) pair — class
// is the block's popcount, offset is its lexicographic rank among all
// 16-bit words of that popcount (see tables.go) — so a block needs
// only rrr16OffsetWidth[class] bits instead of 16. A two-level rank
// index (medium block = 16 RRR-blocks = 256 bits, large block = 128
// medium blocks = 32768 bits) mirrors Dense's; select falls back to a
// binary search over medium blocks followed by a short decode loop.
type RRR16 struct {
	class   []uint8
	codeLen []uint64 // packed variable-width offset codes

	rank1mb []uint16
	rank1lb []int
	ptrmb   []int // bit offset into codeLen at the start of each medium block

	bitLength int
	rank0all  int
	rank1all  int

	partial      uint16
	partialCount int
	appendPos    int
	totalBits    int // bits written into codeLen so far
	built        bool
}

const (
	rrrBlockBits  = 16
	rrrBlocksPerMB = mbBits / rrrBlockBits
	rrrMBsPerLB    = lbBits / mbBits
)

func NewRRR16(length int) *RRR16 {
	if length <= 0 {
		usageError("NewRRR16: length=%d", length)
	}
	numBlocks := (length + rrrBlockBits - 1) / rrrBlockBits
	return &RRR16{
		bitLength: length,
		class:     make([]uint8, 0, numBlocks),
	}
}

func (r *RRR16) Len() int { return r.bitLength }

func (r *RRR16) Append(bit int) {
	if r.appendPos >= r.bitLength {
		usageError("RRR16.Append: over length")
	}
	if bit != 0 {
		r.partial |= 0x8000 >> uint(r.partialCount)
		r.rank1all++
	} else {
		r.rank0all++
	}
	r.partialCount++
	r.appendPos++
	if r.partialCount == rrrBlockBits {
		r.flushBlock()
	}
}

func (r *RRR16) flushBlock() {
	cls := int(r1_16[r.partial])
	width := rrr16OffsetWidth[cls]
	code := uint64(rrr16Val2Ofs[r.partial])
	r.appendCode(code, width)
	r.class = append(r.class, uint8(cls))
	r.partial = 0
	r.partialCount = 0
}

func (r *RRR16) appendCode(code uint64, width int) {
	needWords := (r.totalBits + width + 63) / 64
	for len(r.codeLen) < needWords {
		r.codeLen = append(r.codeLen, 0)
	}
	pos := r.totalBits
	for b := width - 1; b >= 0; b-- {
		if code&(1<<uint(b)) != 0 {
			word := pos >> 6
			off := uint(pos & 63)
			r.codeLen[word] |= 0x8000000000000000 >> off
		}
		pos++
	}
	r.totalBits += width
}

func (r *RRR16) readCode(bitPos, width int) uint64 {
	var v uint64
	for i := 0; i < width; i++ {
		p := bitPos + i
		word := r.codeLen[p>>6]
		off := uint(p & 63)
		bit := (word << off) >> 63
		v = (v << 1) | bit
	}
	return v
}

func (r *RRR16) Build() {
	if r.rank0all+r.rank1all != r.bitLength {
		usageError("RRR16.Build: append call incomplete")
	}
	if r.partialCount > 0 {
		r.flushBlock()
	}
	numBlocks := len(r.class)
	numMB := (numBlocks + rrrBlocksPerMB - 1) / rrrBlocksPerMB
	if numMB == 0 {
		numMB = 1
	}
	r.rank1mb = make([]uint16, numMB)
	r.rank1lb = make([]int, (numMB+rrrMBsPerLB-1)/rrrMBsPerLB+1)
	r.ptrmb = make([]int, numMB)

	rank := 0
	bitOfs := 0
	for blk := 0; blk < numBlocks; blk++ {
		if blk%rrrBlocksPerMB == 0 {
			mb := blk / rrrBlocksPerMB
			lb := mb / rrrMBsPerLB
			if blk%(rrrBlocksPerMB*rrrMBsPerLB) == 0 {
				r.rank1lb[lb] = rank
			}
			r.rank1mb[mb] = uint16(rank - r.rank1lb[lb])
			r.ptrmb[mb] = bitOfs
		}
		cls := int(r.class[blk])
		rank += cls
		bitOfs += rrr16OffsetWidth[cls]
	}
	r.built = true
}

func (r *RRR16) UsedBits() int64 {
	bits := int64(len(r.codeLen)) * 64
	bits += int64(len(r.class)) * 8
	bits += int64(len(r.rank1mb)) * 16
	bits += int64(len(r.rank1lb)) * 64
	bits += int64(len(r.ptrmb)) * 64
	return bits
}

// blockValue decodes the 16-bit value of RRR block blk, given the bit
// offset of its code (bitOfs) which the caller has already computed.
func (r *RRR16) blockValue(blk, bitOfs int) (value uint16, width int) {
	cls := int(r.class[blk])
	width = rrr16OffsetWidth[cls]
	offset := r.readCode(bitOfs, width)
	return rrr16Ofs2Val[cls][offset], width
}

// locate returns the decoded 16-bit value of the block containing
// position i and that block's starting position.
func (r *RRR16) locate(i int) (value uint16, blockStart int) {
	blk := i / rrrBlockBits
	mb := blk / rrrBlocksPerMB
	bitOfs := r.ptrmb[mb]
	for b := mb * rrrBlocksPerMB; b < blk; b++ {
		bitOfs += rrr16OffsetWidth[int(r.class[b])]
	}
	v, _ := r.blockValue(blk, bitOfs)
	return v, blk * rrrBlockBits
}

func (r *RRR16) Access(i int) int {
	if i < 0 || i >= r.bitLength {
		usageError("RRR16.Access: i=%d", i)
	}
	v, start := r.locate(i)
	off := uint(i - start)
	return int((v << off) >> 15)
}

func (r *RRR16) rankAtBlock(blk int) int {
	mb := blk / rrrBlocksPerMB
	lb := mb / rrrMBsPerLB
	rank := r.rank1lb[lb] + int(r.rank1mb[mb])
	mbStart := mb * rrrBlocksPerMB
	for b := mbStart; b < blk; b++ {
		rank += int(r.class[b])
	}
	return rank
}

func (r *RRR16) Rank(b, i int) int {
	if b == 0 {
		return r.Rank0(i)
	}
	return r.Rank1(i)
}

func (r *RRR16) Rank0(i int) int { return i - r.Rank1(i) }

func (r *RRR16) Rank1(i int) int {
	if i < 0 || i > r.bitLength {
		usageError("RRR16.Rank1: i=%d", i)
	}
	if i == r.bitLength {
		return r.rank1all
	}
	blk := i / rrrBlockBits
	rank := r.rankAtBlock(blk)
	if rem := i - blk*rrrBlockBits; rem > 0 {
		v, _ := r.locate(blk * rrrBlockBits)
		rank += int(r1_16[v>>uint(16-rem)])
	}
	return rank
}

func (r *RRR16) RankTotal(b int) int {
	if b == 0 {
		return r.rank0all
	}
	return r.rank1all
}

func (r *RRR16) findBlock(targetRank int, bit int) int {
	lo, hi := 0, len(r.rank1mb)-1
	var mbWant int
	for lo <= hi {
		mid := (lo + hi) / 2
		lb := mid / rrrMBsPerLB
		r1 := r.rank1lb[lb] + int(r.rank1mb[mid])
		r0 := mid*rrrBlocksPerMB*rrrBlockBits - r1
		rank := r1
		if bit == 0 {
			rank = r0
		}
		if rank <= targetRank {
			mbWant = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return mbWant
}

func (r *RRR16) Select(b, i int) int {
	if b == 0 {
		return r.Select0(i)
	}
	return r.Select1(i)
}

func (r *RRR16) Select0(i int) int { return r.selectBit(0, i) }
func (r *RRR16) Select1(i int) int { return r.selectBit(1, i) }

func (r *RRR16) selectBit(bit, i int) int {
	total := r.rank1all
	if bit == 0 {
		total = r.rank0all
	}
	if i < 0 || i >= total {
		usageError("RRR16.Select: i=%d", i)
	}
	mb := r.findBlock(i, bit)
	blk := mb * rrrBlocksPerMB
	rank := r.rankAtBlock(blk)
	remaining := i - rank
	if bit == 0 {
		remaining = i - (blk*rrrBlockBits - rank)
	}
	for {
		v, start := r.locate(blk * rrrBlockBits)
		cls := int(r1_16[v])
		count := cls
		if bit == 0 {
			count = rrrBlockBits - cls
		}
		if remaining < count {
			word := v
			if bit == 0 {
				word = ^v
			}
			return start + selectInWord64(uint64(word)<<48, remaining)
		}
		remaining -= count
		blk++
	}
}

func (r *RRR16) Next(b, i int) int {
	if b == 0 {
		return r.next0(i)
	}
	return r.next1(i)
}

func (r *RRR16) next1(i int) int { return r.Select1(r.Rank1(i + 1)) }
func (r *RRR16) next0(i int) int { return r.Select0(r.Rank0(i + 1)) }
func (r *RRR16) Prev1(i int) int { return r.Select1(r.Rank1(i) - 1) }

func (r *RRR16) SelectRanges(b int, se *IntBuffer, begin, end, bias int, out *IntBuffer) {
	selectRangesGeneric(r, b, se, begin, end, bias, out)
}
