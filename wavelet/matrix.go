// Package wavelet implements the wavelet matrix: a level-stacked set
// of succinct bit-vectors over a fixed array of small non-negative
// integers, supporting access, ranked counting against an arbitrary
// threshold, select and the range-search primitives the KDW-tree
// descent needs (RangeIntervals and lifting an inner interval of one
// level back up to the matrix's root order).
package wavelet

import (
	"fmt"

	"github.com/nec-oss/kdwtree/bvbuild"
	"github.com/nec-oss/kdwtree/interval"
	"github.com/nec-oss/kdwtree/sbv"
)

// Matrix is built once, append-then-freeze, over a caller-supplied
// slice of values in [0, 2^depth). Depth may be given explicitly (used
// when several matrices sharing one dimension need a common depth) or
// left at -1 to infer the minimal depth spanning the data's max value.
type Matrix struct {
	levels []sbv.BitVector // levels[lv] holds bit lv; depth-1 = most significant bit
	zeros  []int           // zeros[lv] = count of 0-bits at level lv
	vmin   int
	vmax   int
	length int
	depth  int
}

// Build constructs a Matrix from data, consuming and reordering data
// in place (mirroring the teacher's in-place partition). depth may be
// -1 to auto-size from the maximum value in data.
func Build(data []int, depth int) *Matrix {
	if len(data) == 0 {
		usageError("Build: empty data")
	}
	if depth > 31 {
		usageError("Build: depth too large: %d", depth)
	}
	m := &Matrix{length: len(data)}

	vmin, vmax := int(^uint(0)>>1), 0
	for _, v := range data {
		if v < 0 {
			usageError("Build: negative value")
		}
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	m.vmin, m.vmax = vmin, vmax

	if depth < 0 {
		if vmax == 0 {
			depth = 1
		} else {
			depth = bitsLen(vmax)
		}
	}
	m.depth = depth
	m.levels = make([]sbv.BitVector, depth)
	m.zeros = make([]int, depth)

	buf1 := make([]int, len(data))
	bits := make([]int, len(data))

	for lv := depth - 1; lv >= 0; lv-- {
		len0, len1 := 0, 0
		for i, v := range data {
			bits[i] = (v >> uint(lv)) & 1
		}
		bv := bvbuild.Best(bits)
		for i, v := range data {
			if bits[i] == 0 {
				data[len0] = v
				len0++
			} else {
				buf1[len1] = v
				len1++
			}
		}
		m.levels[lv] = bv
		m.zeros[lv] = len0
		copy(data[len0:len0+len1], buf1[:len1])
	}
	return m
}

func bitsLen(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

func (m *Matrix) Len() int   { return m.length }
func (m *Matrix) Depth() int { return m.depth }
func (m *Matrix) Min() int   { return m.vmin }
func (m *Matrix) Max() int   { return m.vmax }

// Rank1AtLevel and ZerosAtLevel expose one level's bit-vector directly,
// for callers (the Z-order KDW-tree's joint multi-dimensional descent)
// that advance one dimension one level at a time instead of walking a
// matrix top to bottom in a single call.
func (m *Matrix) Rank1AtLevel(lv, i int) int { return m.levels[lv].Rank1(i) }
func (m *Matrix) ZerosAtLevel(lv int) int    { return m.zeros[lv] }

func (m *Matrix) UsedBits() int64 {
	var used int64
	for _, lv := range m.levels {
		used += lv.UsedBits()
	}
	return used
}

func (m *Matrix) Access(i int) int {
	if i < 0 || i >= m.length {
		usageError("Access: i=%d", i)
	}
	c, p := 0, i
	for lv := m.depth - 1; lv >= 0; lv-- {
		bv := m.levels[lv]
		bit := bv.Access(p)
		c |= bit << uint(lv)
		p = bv.Rank(bit, p)
		if bit != 0 {
			p += m.zeros[lv]
		}
	}
	return c
}

// Rank returns the number of occurrences of c in [s, e).
func (m *Matrix) Rank(c, s, e int) int {
	if s < 0 || e > m.length || s > e {
		usageError("Rank: s=%d e=%d", s, e)
	}
	if s == e || m.length == 0 || c < m.vmin || c > m.vmax {
		return 0
	}
	start, end := s, e
	for lv := m.depth - 1; lv >= 0; lv-- {
		bv := m.levels[lv]
		bit := (c >> uint(lv)) & 1
		start = bv.Rank(bit, start)
		end = bv.Rank(bit, end)
		if start == end {
			return 0
		}
		if bit != 0 {
			start += m.zeros[lv]
			end += m.zeros[lv]
		}
	}
	return end - start
}

// Ranklt returns the number of values strictly less than c in [s, e).
func (m *Matrix) Ranklt(c, s, e int) int {
	if s < 0 || e > m.length || s > e {
		usageError("Ranklt: s=%d e=%d", s, e)
	}
	if s == e || m.length == 0 {
		return 0
	}
	if c <= m.vmin {
		return 0
	}
	if c > m.vmax {
		return e - s
	}

	result := 0
	lv := m.depth - 1
	cc := uint(c) << uint(31-lv)
	for ; lv >= 0; lv-- {
		bv := m.levels[lv]
		s1 := bv.Rank1(s)
		e1 := bv.Rank1(e)
		if cc&0x80000000 != 0 {
			if s1 < e1 {
				result += (e - e1) - (s - s1)
				s = s1 + m.zeros[lv]
				e = e1 + m.zeros[lv]
			} else {
				result += e - s
				break
			}
		} else {
			s -= s1
			e -= e1
			if s >= e {
				break
			}
		}
		cc <<= 1
	}
	return result
}

// Rankgt returns the number of values strictly greater than c in [s, e).
func (m *Matrix) Rankgt(c, s, e int) int {
	if s < 0 || e > m.length || s > e {
		usageError("Rankgt: s=%d e=%d", s, e)
	}
	if s == e || m.length == 0 {
		return 0
	}
	if c >= m.vmax {
		return 0
	}
	if c < m.vmin {
		return e - s
	}

	result := 0
	lv := m.depth - 1
	cc := uint(c) << uint(31-lv)
	for ; lv >= 0; lv-- {
		bv := m.levels[lv]
		s1 := bv.Rank1(s)
		e1 := bv.Rank1(e)
		if cc&0x80000000 != 0 {
			if s1 >= e1 {
				break
			}
			s = s1 + m.zeros[lv]
			e = e1 + m.zeros[lv]
		} else {
			result += e1 - s1
			s -= s1
			e -= e1
			if s >= e {
				break
			}
		}
		cc <<= 1
	}
	return result
}

func (m *Matrix) Rankle(c, s, e int) int { return e - s - m.Rankgt(c, s, e) }
func (m *Matrix) Rankge(c, s, e int) int { return e - s - m.Ranklt(c, s, e) }

// RankltFrom counts values strictly less than c within the sub-tree
// rooted at level lv, position range [s, e) — the same descent as
// Ranklt but starting below the top of the matrix, for callers (the
// Z-order KDW-tree's joint multi-dimensional descent) that have
// already fixed this dimension's higher bits jointly with other
// dimensions before isolating it.
func (m *Matrix) RankltFrom(lv, s, e, c int) int {
	result := 0
	cc := uint(c) << uint(31-lv)
	for ; lv >= 0; lv-- {
		bv := m.levels[lv]
		s1 := bv.Rank1(s)
		e1 := bv.Rank1(e)
		if cc&0x80000000 != 0 {
			if s1 < e1 {
				result += (e - e1) - (s - s1)
				s = s1 + m.zeros[lv]
				e = e1 + m.zeros[lv]
			} else {
				result += e - s
				break
			}
		} else {
			s -= s1
			e -= e1
			if s >= e {
				break
			}
		}
		cc <<= 1
	}
	return result
}

// RangeIntervalsFrom is RangeIntervals' sibling for a sub-tree rooted
// at level lv with accumulated value prefix path, for the same
// joint-descent callers as RankltFrom. Unlike RangeIntervals it never
// collapses the result to a single root interval spanning [s, e); the
// caller already knows it is searching strictly inside one dimension.
func (m *Matrix) RangeIntervalsFrom(lv, s, e, path, min, max, treeID int, out *interval.Intervals) {
	if s >= e {
		return
	}
	bv := m.levels[lv]
	s1 := bv.Rank1(s)
	e1 := bv.Rank1(e)
	s0 := s - s1
	e0 := e - e1
	levelBit := 1 << uint(lv)

	if s0 < e0 {
		pmin := path
		pmax := pmin | (levelBit - 1)
		switch {
		case pmin > max || pmax < min:
		case pmin >= min && pmax <= max:
			out.AddInner(s0, e0, treeID, lv-1)
		default:
			m.RangeIntervalsFrom(lv-1, s0, e0, pmin, min, max, treeID, out)
		}
	}
	if s1 < e1 {
		nz := m.zeros[lv]
		pmin := path | levelBit
		pmax := pmin | (levelBit - 1)
		switch {
		case pmin > max || pmax < min:
		case pmin >= min && pmax <= max:
			out.AddInner(s1+nz, e1+nz, treeID, lv-1)
		default:
			m.RangeIntervalsFrom(lv-1, s1+nz, e1+nz, pmin, min, max, treeID, out)
		}
	}
}

// Select returns the position of the (i+1)-th occurrence of c in
// [s, e) (forward) or, with fwd false, counting backward from e, or
// -1 if no such occurrence exists.
func (m *Matrix) Select(c, i, s, e int, fwd bool) int {
	if s < 0 || e > m.length || s > e {
		usageError("Select: s=%d e=%d", s, e)
	}
	if s == e || m.length == 0 || i < 0 || i >= e-s || c < m.vmin || c > m.vmax {
		return -1
	}

	for lv := m.depth - 1; lv >= 0; lv-- {
		bv := m.levels[lv]
		bit := (c >> uint(lv)) & 1
		s = bv.Rank(bit, s)
		e = bv.Rank(bit, e)
		if s >= e {
			return -1
		}
		if bit != 0 {
			s += m.zeros[lv]
			e += m.zeros[lv]
		}
	}

	var p int
	if fwd {
		p = s + i
		if p >= e {
			return -1
		}
	} else {
		p = e - 1 - i
		if p < s {
			return -1
		}
	}

	for lv := 0; lv < m.depth; lv++ {
		bv := m.levels[lv]
		bit := (c >> uint(lv)) & 1
		if bit != 0 {
			p -= m.zeros[lv]
		}
		p = bv.Select(bit, p)
	}
	return p
}

// InnerInterval2RootIntervals lifts the inner-interval [is, ie) of
// internal level ilv back up to root order, amortising the lift
// across a batch of adjacent intervals by carrying the childIntervals/
// parentIntervals scratch buffers forward level by level via
// BitVector.SelectRanges.
func (m *Matrix) InnerInterval2RootIntervals(ilv, is, ie int, rootIntervals *interval.Intervals, scratchA, scratchB *sbv.IntBuffer) {
	if ie-is == 1 {
		p := is
		for lv := ilv + 1; lv < m.depth; lv++ {
			bv := m.levels[lv]
			cz := m.zeros[lv]
			if p < cz {
				p = bv.Select0(p)
			} else {
				p = bv.Select1(p - cz)
			}
		}
		rootIntervals.AddRoot1(p)
		return
	}

	child, parent := scratchA, scratchB
	child.Clear()
	parent.Clear()
	child.Add(is)
	child.Add(ie)

	for lv := ilv + 1; lv < m.depth; lv++ {
		bv := m.levels[lv]
		cz := m.zeros[lv]
		if child.Get(0) < cz {
			bv.SelectRanges(0, child, 0, child.Len(), 0, parent)
		} else {
			bv.SelectRanges(1, child, 0, child.Len(), cz, parent)
		}
		child, parent = parent, child
		parent.Clear()
	}

	for j := 0; j < child.Len(); j += 2 {
		rootIntervals.AddRoot(child.Get(j), child.Get(j+1))
	}
}

// stackFrame is one entry of RangeIntervals' explicit descent stack:
// the value-path fixed so far, the level about to be tested, and the
// [s, e) position interval at that level.
type stackFrame struct {
	path, lv, s, e int
}

// RangeIntervals finds every maximal interval of [s, e) whose values
// lie within [min, max], emitting root-intervals directly and
// inner-intervals (tagged with treeID and the level at which the
// match occurred) for the caller to lift later via
// InnerInterval2RootIntervals.
func (m *Matrix) RangeIntervals(s, e, min, max, treeID int, out *interval.Intervals) {
	if s >= m.length || e <= 0 || s >= e {
		return
	}
	if s < 0 {
		s = 0
	}
	if e > m.length {
		e = m.length
	}
	if min > m.vmax || max < m.vmin || min > max {
		return
	}
	if min < m.vmin {
		min = m.vmin
	}
	if max > m.vmax {
		max = m.vmax
	}

	if e-s == 1 {
		newmin, p := 0, s
		for lv := m.depth - 1; lv >= 0; lv-- {
			bv := m.levels[lv]
			bit := bv.Access(p)
			newmin |= bit << uint(lv)
			newmax := newmin | (1<<uint(lv) - 1)
			if newmin > max || newmax < min {
				return
			}
			if newmin >= min && newmax <= max {
				out.AddRoot(s, e)
				return
			}
			p = bv.Rank(bit, p)
			if bit != 0 {
				p += m.zeros[lv]
			}
		}
		return
	}

	stack := []stackFrame{{0, m.depth - 1, s, e}}
	type result struct{ s, e, id, lv int }
	var results []result
	passCount := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		bitVal := 1 << uint(f.lv)
		bv := m.levels[f.lv]
		s1 := bv.Rank1(f.s)
		e1 := bv.Rank1(f.e)
		w1 := e1 - s1
		s0 := f.s - s1
		e0 := f.e - e1
		w0 := e0 - s0

		if w0 > 0 {
			newmin := f.path
			newmax := newmin | (bitVal - 1)
			switch {
			case newmin > max || newmax < min:
			case newmin >= min && newmax <= max:
				results = append(results, result{s0, e0, treeID, f.lv - 1})
				passCount += w0
			default:
				stack = append(stack, stackFrame{newmin, f.lv - 1, s0, e0})
			}
		}

		if w1 > 0 {
			nZero := m.zeros[f.lv]
			newmin := f.path | bitVal
			newmax := newmin | (bitVal - 1)
			switch {
			case newmin > max || newmax < min:
			case newmin >= min && newmax <= max:
				results = append(results, result{nZero + s1, nZero + e1, treeID, f.lv - 1})
				passCount += w1
			default:
				stack = append(stack, stackFrame{newmin, f.lv - 1, nZero + s1, nZero + e1})
			}
		}
	}

	if passCount == e-s {
		out.AddRoot(s, e)
		return
	}
	for _, r := range results {
		out.AddInner(r.s, r.e, r.id, r.lv)
	}
}

func usageError(format string, args ...any) {
	panic(fmt.Errorf("wavelet: usage error: "+format, args...))
}
