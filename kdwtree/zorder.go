package kdwtree

import (
	"math/bits"
	"math/rand"

	"github.com/nec-oss/kdwtree/interval"
	"github.com/nec-oss/kdwtree/rankspace"
	"github.com/nec-oss/kdwtree/wavelet"
	"github.com/nec-oss/kdwtree/zorder"
	"go.uber.org/zap"
)

// stopWidth is the position-range width below which the descent gives
// up on the wavelet matrices and falls back to a linear scan.
const stopWidth = 256

// ZOrderTree is the KDW-tree whose global point order is the Morton
// (Z-order) order of the rank-aligned points: every per-dimension
// wavelet matrix shares one length-B prefix structure, so a single
// descent can narrow all k dimensions' query ranges at once, choosing
// which dimension's next bit to consume round-robin.
type ZOrderTree struct {
	base
	numData   int
	rankIndex []rankspace.Index
	rankShift []int
	points    [][]int // rank-aligned values, reordered into z-order
}

// NewZOrder builds a ZOrderTree over points. See New for the
// validation contract.
func NewZOrder(points [][]float64, opts ...Option) (*ZOrderTree, error) {
	numDim, err := validateConstruction(points)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)
	numData := len(points)

	rankIndex := make([]rankspace.Index, numDim)
	for d := 0; d < numDim; d++ {
		builder := rankspace.NewBuilder(numData)
		for _, row := range points {
			builder.Append(row[d])
		}
		rankIndex[d] = builder.Build()
	}

	maxRank := 0
	for d := 0; d < numDim; d++ {
		if rankIndex[d].DenseRankMax() > maxRank {
			maxRank = rankIndex[d].DenseRankMax()
		}
	}
	maxRankBits := bitsLen(maxRank)
	if maxRankBits == 0 {
		maxRankBits = 1
	}

	rankShift := make([]int, numDim)
	for d := 0; d < numDim; d++ {
		rankBits := bitsLen(rankIndex[d].DenseRankMax())
		if rankBits == 0 {
			rankBits = 1
		}
		rankShift[d] = maxRankBits - rankBits
	}

	zoPoints := make([][]int64, numDim)
	for d := 0; d < numDim; d++ {
		zoPoints[d] = make([]int64, numData)
		for i, row := range points {
			zoPoints[d][i] = int64(rankIndex[d].Real2DenseRank(row[d])) << uint(rankShift[d])
		}
	}

	pointers := make([]int, numData)
	for i := range pointers {
		pointers[i] = i
	}
	zorder.SortIndirect(zoPoints, pointers)

	wm := make([]*wavelet.Matrix, numDim)
	sortedPoints := make([][]int, numDim)
	for d := 0; d < numDim; d++ {
		seq := make([]int, numData)
		for i, p := range pointers {
			seq[i] = int(zoPoints[d][p])
		}
		wm[d] = wavelet.Build(seq, maxRankBits)
		sortedPoints[d] = seq
		cfg.logger.Debug("built z-order wavelet matrix",
			zap.Int("dimension", d), zap.Int("depth", maxRankBits), zap.Int64("usedBits", wm[d].UsedBits()))
	}

	return &ZOrderTree{
		base:      base{numDim: numDim, wm: wm, pointers: pointers, logger: cfg.logger},
		numData:   numData,
		rankIndex: rankIndex,
		rankShift: rankShift,
		points:    sortedPoints,
	}, nil
}

func bitsLen(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

func (t *ZOrderTree) queryBounds(min, max []float64) ([]int, []int) {
	qmin := make([]int, t.numDim)
	qmax := make([]int, t.numDim)
	for d := 0; d < t.numDim; d++ {
		shift := uint(t.rankShift[d])
		qmin[d] = t.rankIndex[d].Real2DenseRank(min[d]) << shift
		qmax[d] = ((t.rankIndex[d].Real2DenseRank(nextUp(max[d])) - 1) << shift) | ((1 << shift) - 1)
	}
	return qmin, qmax
}

// zWMState is one dimension's descent position: the level and start
// position inside that dimension's wavelet matrix, plus the value
// prefix (path) fixed by the bits consumed so far.
type zWMState struct {
	level, start, path int
}

// zSearchState is one virtual node of the joint multi-dimensional
// descent: the root-order position range [rootStart, rootStart+width),
// which dimensions are already known to lie fully inside the query
// (contained), the next dimension due for a split (dim), and every
// dimension's current wavelet-matrix position (wm).
type zSearchState struct {
	contained int
	dim       int
	rootStart int
	width     int
	wm        []zWMState
}

func (t *ZOrderTree) rootState(qmin, qmax []int) (*zSearchState, bool) {
	st := &zSearchState{
		dim:       t.numDim - 1,
		rootStart: 0,
		width:     t.numData,
		wm:        make([]zWMState, t.numDim),
	}
	for d := 0; d < t.numDim; d++ {
		vmin := t.wm[d].Min()
		vmax := t.wm[d].Max()
		if vmin > qmax[d] || vmax < qmin[d] {
			return nil, false
		}
		if qmin[d] <= vmin && vmax <= qmax[d] {
			st.contained |= 1 << uint(d)
		}
		st.wm[d] = zWMState{level: t.wm[d].Depth() - 1}
	}
	return st, true
}

func (t *ZOrderTree) childState(parent *zSearchState, dim, contained, rootStart, width, level, start, path int) *zSearchState {
	child := &zSearchState{
		contained: contained,
		dim:       dim - 1,
		rootStart: rootStart,
		width:     width,
		wm:        make([]zWMState, t.numDim),
	}
	copy(child.wm, parent.wm)
	child.wm[dim] = zWMState{level: level, start: start, path: path}
	return child
}

// splitChildren computes, for the dimension about to be split, the
// zero-child and one-child position ranges and whether each is
// entirely out of range, entirely in range (and so newly contained),
// or only partially overlapping (requiring recursion). f is called
// once per non-empty child with (rootStart, width, level, start, path)
// and an updated contained mask, unless the child is pruned.
func (t *ZOrderTree) splitChildren(st *zSearchState, qmin, qmax []int, f func(contained, rootStart, width, level, start, path int)) {
	dim := st.dim
	if dim < 0 {
		dim = t.numDim - 1
	}
	dimBit := 1 << uint(dim)
	dimContained := st.contained & dimBit
	qmn, qmx := qmin[dim], qmax[dim]

	wmNode := st.wm[dim]
	level := wmNode.level
	start := wmNode.start
	end := start + st.width
	path := wmNode.path
	levelBit := 1 << uint(level)

	s1 := t.wm[dim].Rank1AtLevel(level, start)
	e1 := t.wm[dim].Rank1AtLevel(level, end)
	s0, e0 := start-s1, end-e1
	width0, width1 := e0-s0, e1-s1

	if s0 < e0 {
		pmin := path
		pmax := pmin | (levelBit - 1)
		childContained := st.contained
		ok := true
		if dimContained == 0 {
			if pmin > qmx || pmax < qmn {
				ok = false
			} else if pmin >= qmn && pmax <= qmx {
				childContained |= dimBit
			}
		}
		if ok {
			f(childContained, st.rootStart, width0, level-1, s0, pmin)
		}
	}
	if s1 < e1 {
		pmin := path | levelBit
		pmax := pmin | (levelBit - 1)
		childContained := st.contained
		ok := true
		if dimContained == 0 {
			if pmin > qmx || pmax < qmn {
				ok = false
			} else if pmin >= qmn && pmax <= qmx {
				childContained |= dimBit
			}
		}
		if ok {
			nz := t.wm[dim].ZerosAtLevel(level)
			f(childContained, st.rootStart+width0, width1, level-1, s1+nz, pmin)
		}
	}
}

func (t *ZOrderTree) countRecursive(st *zSearchState, qmin, qmax []int) int {
	notContained := t.numDim - bits.OnesCount32(uint32(st.contained))
	if notContained == 0 {
		return st.width
	}
	if st.width < stopWidth {
		return t.countRootScan(st, qmin, qmax)
	}
	if notContained == 1 {
		return t.count1D(st, qmin, qmax)
	}

	dim := st.dim
	if dim < 0 {
		dim = t.numDim - 1
	}
	total := 0
	t.splitChildren(st, qmin, qmax, func(contained, rootStart, width, level, start, path int) {
		child := t.childState(st, dim, contained, rootStart, width, level, start, path)
		total += t.countRecursive(child, qmin, qmax)
	})
	return total
}

func (t *ZOrderTree) countRootScan(st *zSearchState, qmin, qmax []int) int {
	rootStart := st.rootStart
	rootEnd := rootStart + st.width
	notContained := t.numDim - bits.OnesCount32(uint32(st.contained))

	if notContained == 1 {
		d := t.lastNotContained(st.contained)
		arr := t.points[d]
		mn, mx := qmin[d], qmax[d]
		count := 0
		for j := rootStart; j < rootEnd; j++ {
			if v := arr[j]; v >= mn && v <= mx {
				count++
			}
		}
		return count
	}

	dims := make([]int, 0, notContained)
	for d := 0; d < t.numDim; d++ {
		if st.contained&(1<<uint(d)) == 0 {
			dims = append(dims, d)
		}
	}
	count := 0
POINT:
	for j := rootStart; j < rootEnd; j++ {
		for _, d := range dims {
			v := t.points[d][j]
			if v < qmin[d] || v > qmax[d] {
				continue POINT
			}
		}
		count++
	}
	return count
}

func (t *ZOrderTree) count1D(st *zSearchState, qmin, qmax []int) int {
	d := t.lastNotContained(st.contained)
	wmNode := st.wm[d]
	lv := wmNode.level
	start := wmNode.start
	end := start + st.width
	qmn, qmx := qmin[d], qmax[d]
	pmin := wmNode.path
	pmax := pmin | ((1 << uint(lv+1)) - 1)

	switch {
	case pmax <= qmx:
		return (end - start) - t.wm[d].RankltFrom(lv, start, end, qmn)
	case qmn <= pmin:
		return t.wm[d].RankltFrom(lv, start, end, qmx+1)
	default:
		return t.wm[d].RankltFrom(lv, start, end, qmx+1) - t.wm[d].RankltFrom(lv, start, end, qmn)
	}
}

func (t *ZOrderTree) intervalsRecursive(st *zSearchState, qmin, qmax []int, out *interval.Intervals) {
	notContained := t.numDim - bits.OnesCount32(uint32(st.contained))
	if notContained == 0 {
		out.AddRoot(st.rootStart, st.rootStart+st.width)
		return
	}
	if st.width < stopWidth {
		t.intervalsRootScan(st, qmin, qmax, out)
		return
	}
	if notContained == 1 {
		d := t.lastNotContained(st.contained)
		wmNode := st.wm[d]
		t.wm[d].RangeIntervalsFrom(wmNode.level, wmNode.start, wmNode.start+st.width, wmNode.path, qmin[d], qmax[d], d, out)
		return
	}

	dim := st.dim
	if dim < 0 {
		dim = t.numDim - 1
	}
	t.splitChildren(st, qmin, qmax, func(contained, rootStart, width, level, start, path int) {
		child := t.childState(st, dim, contained, rootStart, width, level, start, path)
		t.intervalsRecursive(child, qmin, qmax, out)
	})
}

func (t *ZOrderTree) intervalsRootScan(st *zSearchState, qmin, qmax []int, out *interval.Intervals) {
	rootStart := st.rootStart
	rootEnd := rootStart + st.width
	notContained := t.numDim - bits.OnesCount32(uint32(st.contained))
	intervalStart := -1

	if notContained == 1 {
		d := t.lastNotContained(st.contained)
		arr := t.points[d]
		mn, mx := qmin[d], qmax[d]
		for j := rootStart; j < rootEnd; j++ {
			v := arr[j]
			if v >= mn && v <= mx {
				if intervalStart < 0 {
					intervalStart = j
				}
			} else if intervalStart >= 0 {
				out.AddRoot(intervalStart, j)
				intervalStart = -1
			}
		}
	} else {
		dims := make([]int, 0, notContained)
		for d := 0; d < t.numDim; d++ {
			if st.contained&(1<<uint(d)) == 0 {
				dims = append(dims, d)
			}
		}
	POINT:
		for j := rootStart; j < rootEnd; j++ {
			for _, d := range dims {
				v := t.points[d][j]
				if v < qmin[d] || v > qmax[d] {
					if intervalStart >= 0 {
						out.AddRoot(intervalStart, j)
						intervalStart = -1
					}
					continue POINT
				}
			}
			if intervalStart < 0 {
				intervalStart = j
			}
		}
	}
	if intervalStart >= 0 {
		out.AddRoot(intervalStart, rootEnd)
	}
}

func (t *ZOrderTree) Count(min, max []float64) (int, error) {
	empty, err := validateRectangle(min, max, t.numDim)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}
	qmin, qmax := t.queryBounds(min, max)
	root, ok := t.rootState(qmin, qmax)
	if !ok {
		return 0, nil
	}
	return t.countRecursive(root, qmin, qmax), nil
}

func (t *ZOrderTree) queryIntervals(min, max []float64) (*interval.Intervals, bool, error) {
	empty, err := validateRectangle(min, max, t.numDim)
	if err != nil {
		return nil, false, err
	}
	out := interval.NewIntervals(reportBufferCapacity)
	if empty {
		return out, false, nil
	}
	qmin, qmax := t.queryBounds(min, max)
	root, ok := t.rootState(qmin, qmax)
	if !ok {
		return out, false, nil
	}
	t.intervalsRecursive(root, qmin, qmax, out)
	return out, out.TotalLength() > 0, nil
}

func (t *ZOrderTree) Report(min, max []float64) ([]int, error) {
	iv, ok, err := t.queryIntervals(min, max)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []int{}, nil
	}
	return t.materialize(iv), nil
}

func (t *ZOrderTree) Sample(min, max []float64, sampleCount int, rnd *rand.Rand) ([]int, error) {
	if sampleCount <= 0 {
		return nil, invalidInput("sampleCount must be positive, got %d", sampleCount)
	}
	if rnd == nil {
		return nil, invalidInput("rnd is nil")
	}
	iv, ok, err := t.queryIntervals(min, max)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []int{}, nil
	}
	return t.sampleFromIntervals(iv, sampleCount, rnd), nil
}
