package kdwtree

import (
	"math"
	"math/bits"
	"math/rand"

	"github.com/nec-oss/kdwtree/interval"
	"github.com/nec-oss/kdwtree/rankspace"
	"github.com/nec-oss/kdwtree/wavelet"
	"go.uber.org/zap"
)

// leafSize is the k-d tree slice size at or below which splitting
// stops and a leaf is built.
const leafSize = 256

// ExternalizedTree is the KDW-tree whose global point order is the
// left-to-right leaf order of an explicit median-cut k-d tree over
// rank-space points, instead of Z-order. Per-dimension wavelet
// matrices are still built over that order, so the deepest part of a
// query (resolving the one dimension the k-d tree couldn't fully
// prune) still runs through a wavelet matrix, same as ZOrderTree.
type ExternalizedTree struct {
	base
	rankIndex          []rankspace.Index
	rootMins, rootMaxs []int
	root               *kdNode
}

// NewExternalized builds an ExternalizedTree over points. See New for
// the validation contract.
func NewExternalized(points [][]float64, opts ...Option) (*ExternalizedTree, error) {
	numDim, err := validateConstruction(points)
	if err != nil {
		return nil, err
	}
	cfg := newConfig(opts)
	numData := len(points)

	rankIndex := make([]rankspace.Index, numDim)
	ranked := make([][]int, numDim)
	for d := 0; d < numDim; d++ {
		builder := rankspace.NewBuilder(numData)
		for _, row := range points {
			builder.Append(row[d])
		}
		rankIndex[d] = builder.Build()
		ranked[d] = make([]int, numData)
		for i, row := range points {
			ranked[d][i] = rankIndex[d].Real2DenseRank(row[d])
		}
	}

	rootMins := make([]int, numDim)
	rootMaxs := make([]int, numDim)
	for d := 0; d < numDim; d++ {
		mn, mx := math.MaxInt32, math.MinInt32
		for _, v := range ranked[d] {
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		rootMins[d] = mn
		rootMaxs[d] = mx
	}

	pointers := make([]int, numData)
	for i := range pointers {
		pointers[i] = i
	}

	nodeOffset := 0
	work := make([]int, numData)
	root := buildKdTree(ranked, 0, make([]bool, numDim), pointers, 0, numData, numDim, &nodeOffset, work)

	wm := make([]*wavelet.Matrix, numDim)
	for d := 0; d < numDim; d++ {
		seq := make([]int, numData)
		for i, p := range pointers {
			seq[i] = ranked[d][p]
		}
		wm[d] = wavelet.Build(seq, -1)
		cfg.logger.Debug("built externalized wavelet matrix",
			zap.Int("dimension", d), zap.Int("depth", wm[d].Depth()), zap.Int64("usedBits", wm[d].UsedBits()))
	}

	return &ExternalizedTree{
		base:      base{numDim: numDim, wm: wm, pointers: pointers, logger: cfg.logger},
		rankIndex: rankIndex,
		rootMins:  rootMins,
		rootMaxs:  rootMaxs,
		root:      root,
	}, nil
}

func (t *ExternalizedTree) rankSpaceBounds(min, max []float64) ([]int, []int, bool) {
	qmin := make([]int, t.numDim)
	qmax := make([]int, t.numDim)
	for d := 0; d < t.numDim; d++ {
		qmin[d] = t.rankIndex[d].Real2DenseRank(min[d])
		qmax[d] = t.rankIndex[d].Real2DenseRank(nextUp(max[d])) - 1
		if qmin[d] > qmax[d] {
			return qmin, qmax, false
		}
	}
	return qmin, qmax, true
}

func (t *ExternalizedTree) rangeCount(vmin, vmax, qmin, qmax []int, node *kdNode, contained int) int {
	dim := node.divDim
	nodeMin, nodeMax := node.minValue, node.maxValue
	qmn, qmx := qmin[dim], qmax[dim]
	if nodeMax < qmn || qmx < nodeMin {
		return 0
	}
	vmin[dim], vmax[dim] = nodeMin, nodeMax

	dimBit := 1 << uint(dim)
	dimContained := false
	if qmn <= nodeMin && nodeMax <= qmx {
		contained |= dimBit
		dimContained = true
	}

	numContained := bits.OnesCount32(uint32(contained))
	if numContained == t.numDim {
		return node.treeSize
	}

	if numContained == t.numDim-1 {
		last1d := t.lastNotContained(contained)
		vmin1d, vmax1d := vmin[last1d], vmax[last1d]
		qmin1d, qmax1d := qmin[last1d], qmax[last1d]
		if qmin1d <= vmin1d && vmax1d <= qmax1d {
			return node.treeSize
		}
		if node.isLeaf {
			return leafCount1D(node, last1d, t.numDim, qmin1d, qmax1d)
		}
		wm := t.wm[last1d]
		s, e := node.offset, node.offset+node.treeSize
		switch {
		case vmax1d <= qmax1d:
			return node.treeSize - wm.Ranklt(qmin1d, s, e)
		case qmin1d <= vmin1d:
			return wm.Rankle(qmax1d, s, e)
		default:
			return wm.Rankle(qmax1d, s, e) - wm.Ranklt(qmin1d, s, e)
		}
	}
	if node.isLeaf {
		return leafCount(node, qmin, qmax, t.numDim)
	}

	if dimContained {
		lmax := append([]int(nil), vmax...)
		rmin := append([]int(nil), vmin...)
		lmax[dim] = node.maxValueLeft
		rmin[dim] = node.minValueRight
		count := t.rangeCount(append([]int(nil), vmin...), lmax, qmin, qmax, node.left, contained)
		count += t.rangeCount(rmin, append([]int(nil), vmax...), qmin, qmax, node.right, contained)
		return count
	}

	count := 0
	if lmax := node.maxValueLeft; qmn <= lmax {
		newmax := append([]int(nil), vmax...)
		newmax[dim] = lmax
		childContained := contained
		if qmn <= nodeMin && lmax <= qmx {
			childContained |= dimBit
		}
		count += t.rangeCount(append([]int(nil), vmin...), newmax, qmin, qmax, node.left, childContained)
	}
	if rmin := node.minValueRight; rmin <= qmx {
		newmin := append([]int(nil), vmin...)
		newmin[dim] = rmin
		childContained := contained
		if qmn <= rmin && nodeMax <= qmx {
			childContained |= dimBit
		}
		count += t.rangeCount(newmin, append([]int(nil), vmax...), qmin, qmax, node.right, childContained)
	}
	return count
}

func (t *ExternalizedTree) rangeIntervalsStage1(vmin, vmax, qmin, qmax []int, node *kdNode, contained int, out *interval.Intervals) {
	dim := node.divDim
	nodeMin, nodeMax := node.minValue, node.maxValue
	qmn, qmx := qmin[dim], qmax[dim]
	if nodeMax < qmn || qmx < nodeMin {
		return
	}
	vmin[dim], vmax[dim] = nodeMin, nodeMax

	dimBit := 1 << uint(dim)
	dimContained := false
	if qmn <= nodeMin && nodeMax <= qmx {
		contained |= dimBit
		dimContained = true
	}

	numContained := bits.OnesCount32(uint32(contained))
	if numContained == t.numDim {
		out.AddRoot(node.offset, node.offset+node.treeSize)
		return
	}

	if numContained == t.numDim-1 {
		last1d := t.lastNotContained(contained)
		if node.isLeaf {
			leafIntervals1D(node, last1d, t.numDim, qmin[last1d], qmax[last1d], out)
			return
		}
		// defer to a full top-level search of this dimension's wavelet
		// matrix over [offset, offset+treeSize) in the second stage.
		out.AddInner(node.offset, node.offset+node.treeSize, last1d, 0)
		return
	}
	if node.isLeaf {
		leafIntervals(node, qmin, qmax, t.numDim, out)
		return
	}

	if dimContained {
		lmax := append([]int(nil), vmax...)
		rmin := append([]int(nil), vmin...)
		lmax[dim] = node.maxValueLeft
		rmin[dim] = node.minValueRight
		t.rangeIntervalsStage1(append([]int(nil), vmin...), lmax, qmin, qmax, node.left, contained, out)
		t.rangeIntervalsStage1(rmin, append([]int(nil), vmax...), qmin, qmax, node.right, contained, out)
		return
	}

	if lmax := node.maxValueLeft; qmn <= lmax {
		newmax := append([]int(nil), vmax...)
		newmax[dim] = lmax
		childContained := contained
		if qmn <= nodeMin && lmax <= qmx {
			childContained |= dimBit
		}
		t.rangeIntervalsStage1(append([]int(nil), vmin...), newmax, qmin, qmax, node.left, childContained, out)
	}
	if rmin := node.minValueRight; rmin <= qmx {
		newmin := append([]int(nil), vmin...)
		newmin[dim] = rmin
		childContained := contained
		if qmn <= rmin && nodeMax <= qmx {
			childContained |= dimBit
		}
		t.rangeIntervalsStage1(newmin, append([]int(nil), vmax...), qmin, qmax, node.right, childContained, out)
	}
}

func leafCount1D(node *kdNode, axis, numDim, qmin, qmax int) int {
	count := 0
	for i := axis; i < len(node.leaf); i += numDim {
		if v := node.leaf[i]; v >= qmin && v <= qmax {
			count++
		}
	}
	return count
}

func leafCount(node *kdNode, qmin, qmax []int, numDim int) int {
	length := len(node.leaf)
	count, d := 0, 0
	for i := 0; i < length; {
		v := node.leaf[i]
		if v < qmin[d] || v > qmax[d] {
			i += numDim - d
			d = 0
			continue
		}
		i++
		d++
		if d == numDim {
			count++
			d = 0
		}
	}
	return count
}

func leafIntervals1D(node *kdNode, axis, numDim, qmin, qmax int, out *interval.Intervals) {
	intervalStart := -1
	ptr := node.offset
	length := len(node.leaf)
	for i := axis; i < length; ptr, i = ptr+1, i+numDim {
		v := node.leaf[i]
		if v < qmin || v > qmax {
			if intervalStart >= 0 {
				out.AddRoot(intervalStart, ptr)
				intervalStart = -1
			}
			continue
		}
		if intervalStart < 0 {
			intervalStart = ptr
		}
	}
	if intervalStart >= 0 {
		out.AddRoot(intervalStart, ptr)
	}
}

func leafIntervals(node *kdNode, qmin, qmax []int, numDim int, out *interval.Intervals) {
	intervalStart := -1
	ptr := node.offset
	length := len(node.leaf)
POINT:
	for i := 0; i < length; ptr, i = ptr+1, i+numDim {
		for d := 0; d < numDim; d++ {
			v := node.leaf[d+i]
			if v < qmin[d] || v > qmax[d] {
				if intervalStart >= 0 {
					out.AddRoot(intervalStart, ptr)
					intervalStart = -1
				}
				continue POINT
			}
		}
		if intervalStart < 0 {
			intervalStart = ptr
		}
	}
	if intervalStart >= 0 {
		out.AddRoot(intervalStart, ptr)
	}
}

func (t *ExternalizedTree) Count(min, max []float64) (int, error) {
	empty, err := validateRectangle(min, max, t.numDim)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, nil
	}
	qmin, qmax, ok := t.rankSpaceBounds(min, max)
	if !ok {
		return 0, nil
	}
	vmin := append([]int(nil), t.rootMins...)
	vmax := append([]int(nil), t.rootMaxs...)
	return t.rangeCount(vmin, vmax, qmin, qmax, t.root, 0), nil
}

func (t *ExternalizedTree) queryIntervals(min, max []float64) (*interval.Intervals, bool, error) {
	empty, err := validateRectangle(min, max, t.numDim)
	if err != nil {
		return nil, false, err
	}
	stage2 := interval.NewIntervals(reportBufferCapacity)
	if empty {
		return stage2, false, nil
	}
	qmin, qmax, ok := t.rankSpaceBounds(min, max)
	if !ok {
		return stage2, false, nil
	}

	stage1 := interval.NewIntervals(reportBufferCapacity)
	vmin := append([]int(nil), t.rootMins...)
	vmax := append([]int(nil), t.rootMaxs...)
	t.rangeIntervalsStage1(vmin, vmax, qmin, qmax, t.root, 0, stage1)

	cur := stage1.Cursor()
	for cur.Next() {
		if cur.Root {
			stage2.AddRoot(cur.S, cur.E)
		} else {
			t.wm[cur.TreeID].RangeIntervals(cur.S, cur.E, qmin[cur.TreeID], qmax[cur.TreeID], cur.TreeID, stage2)
		}
	}
	return stage2, stage2.TotalLength() > 0, nil
}

func (t *ExternalizedTree) Report(min, max []float64) ([]int, error) {
	iv, ok, err := t.queryIntervals(min, max)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []int{}, nil
	}
	return t.materialize(iv), nil
}

func (t *ExternalizedTree) Sample(min, max []float64, sampleCount int, rnd *rand.Rand) ([]int, error) {
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
