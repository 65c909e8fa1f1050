// Package sbv implements succinct bit-vectors with O(1) rank and
// O(log n / log log n) select, the building block under every wavelet
// matrix level and every Elias-Fano style monotone sequence in this
// module.
package sbv

// r1_16[v] is the number of one-bits in the 16-bit value v.
var r1_16 [65536]uint8

// s1_16[v*16+i] is the bit position (0-15, MSB first) of the (i+1)-th
// one-bit in the 16-bit value v, or -1 if v has fewer than i+1 one-bits.
var s1_16 [65536 * 16]int8

// rrr16OffsetWidth[c] is the number of bits needed to enumerate the
// offset of a 16-bit word with exactly c one-bits among C(16,c) words.
var rrr16OffsetWidth = [17]int{
	1,
	4, 7, 10, 11,
	13, 13, 14, 14,
	14, 13, 13, 11,
	10, 7, 4, 1,
}

var rrr16Val2Ofs [65536]uint16
var rrr16Ofs2Val [17][]uint16

var nCm16 = [17][]int{
	{0, 0},
	{0, 1, 0},
	{0, 2, 1, 0},
	{0, 3, 3, 1, 0},
	{0, 4, 6, 4, 1, 0},
	{0, 5, 10, 10, 5, 1, 0},
	{0, 6, 15, 20, 15, 6, 1, 0},
	{0, 7, 21, 35, 35, 21, 7, 1, 0},
	{0, 8, 28, 56, 70, 56, 28, 8, 1, 0},
	{0, 9, 36, 84, 126, 126, 84, 36, 9, 1, 0},
	{0, 10, 45, 120, 210, 252, 210, 120, 45, 10, 1, 0},
	{0, 11, 55, 165, 330, 462, 462, 330, 165, 55, 11, 1, 0},
	{0, 12, 66, 220, 495, 792, 924, 792, 495, 220, 66, 12, 1, 0},
	{0, 13, 78, 286, 715, 1287, 1716, 1716, 1287, 715, 286, 78, 13, 1, 0},
	{0, 14, 91, 364, 1001, 2002, 3003, 3432, 3003, 2002, 1001, 364, 91, 14, 1, 0},
	{0, 15, 105, 455, 1365, 3003, 5005, 6435, 6435, 5005, 3003, 1365, 455, 105, 15, 1, 0},
	{0, 16, 120, 560, 1820, 4368, 8008, 11440, 12870, 11440, 8008, 4368, 1820, 560, 120, 16, 1, 0},
}

func init() {
	rrr16Ofs2Val[0] = make([]uint16, 1)
	sizes := []int{1, 16, 120, 560, 1820, 4368, 8008, 11440, 12870, 11440, 8008, 4368, 1820, 560, 120, 16, 1}
	for c, sz := range sizes {
		rrr16Ofs2Val[c] = make([]uint16, sz)
	}

	for v := 0; v < 65536; v++ {
		count1 := 0
		for j := 0; j < 16; j++ {
			if v&(1<<j) != 0 {
				count1++
			}
		}
		r1_16[v] = uint8(count1)
	}
	for v := 0; v < 65536; v++ {
		count1 := 0
		for j := 0; j < 16; j++ {
			s1_16[(v<<4)+j] = -1
			if v&(0x8000>>uint(j)) != 0 {
				s1_16[(v<<4)+count1] = int8(j)
				count1++
			}
		}
	}
	for v := 0; v < 65536; v++ {
		cls := int(r1_16[v])
		ofs := rrrEncodeOffset(cls, v)
		rrr16Val2Ofs[v] = uint16(ofs)
		rrr16Ofs2Val[cls][ofs] = uint16(v)
	}
}

// rrrEncodeOffset returns the lexicographic offset of v among all
// 16-bit words with exactly c one-bits.
func rrrEncodeOffset(c, v int) int {
	offset := 0
	m := 1
	for n := 0; m <= c; n++ {
		if v&(1<<uint(n)) != 0 {
			offset += nCm16[n][m]
			m++
		}
	}
	return offset
}

// popcount64 returns the number of one-bits in v.
func popcount64(v uint64) int {
	return int(r1_16[v>>48]) + int(r1_16[(v>>32)&0xffff]) + int(r1_16[(v>>16)&0xffff]) + int(r1_16[v&0xffff])
}

// selectInWord64 returns the position (0-63, MSB first) of the
// (i+1)-th one-bit in v. i must be < popcount64(v).
func selectInWord64(v uint64, i int) int {
	v16 := int(v >> 48)
	r16 := int(r1_16[v16])
	if i < r16 {
		return int(s1_16[(v16<<4)+i])
	}
	i -= r16

	v16 = int((v >> 32) & 0xffff)
	r16 = int(r1_16[v16])
	if i < r16 {
		return int(s1_16[(v16<<4)+i]) + 16
	}
	i -= r16

	v16 = int((v >> 16) & 0xffff)
	r16 = int(r1_16[v16])
	if i < r16 {
		return int(s1_16[(v16<<4)+i]) + 32
	}
	i -= r16

	v16 = int(v & 0xffff)
	return int(s1_16[(v16<<4)+i]) + 48
}
