package kdwtree

import "math"

// kdNode is one node of the externalized median-cut k-d tree built
// over rank-space points. Internal nodes hold the per-dimension
// bounds needed to prune and to detect full containment without
// touching the wavelet matrices; leaves hold a flat, point-interleaved
// copy of every dimension's rank-space coordinate for the points in
// their slice of the leaf order.
type kdNode struct {
	left, right *kdNode
	treeSize    int
	divDim      int

	minValue      int
	maxValueLeft  int
	minValueRight int
	maxValue      int

	isLeaf bool
	offset int
	leaf   []int // interleaved (x0,y0,...,x1,y1,...) for leaves only
}

// buildKdTree recursively splits ranked (one []int per dimension,
// where ranked[d][p] is the rank-space coordinate of original point p)
// over the points pointers[start:end] at the median of a round-robin dimension, reordering pointers
// into leaf order as it goes. A dimension whose current slice holds a
// single value is skipped (marked in ignoreDim) since it cannot be
// split; once every dimension is unsplittable, or the slice is at most
// leafSize points, a leaf is produced.
func buildKdTree(ranked [][]int, dim int, ignoreDim []bool, pointers []int, start, end, numDim int, nodeOffset *int, work []int) *kdNode {
	treeSize := end - start
	if treeSize <= leafSize {
		return buildKdLeaf(ranked, dim, pointers, start, end, numDim, nodeOffset)
	}

	for retry := 0; retry < numDim; retry++ {
		if ignoreDim[dim] {
			dim = nextDim(dim, numDim)
			continue
		}

		dimPoints := ranked[dim]
		for i := 0; i < treeSize; i++ {
			work[i] = dimPoints[pointers[start+i]]
		}
		median := selectMedian(work[:treeSize])

		minV, maxV := math.MaxInt32, math.MinInt32
		maxLeft, nextMedian := math.MinInt32, math.MaxInt32
		predecessorCount, successorCount := 0, 0
		for i := 0; i < treeSize; i++ {
			v := work[i]
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
			switch {
			case v < median:
				if v > maxLeft {
					maxLeft = v
				}
				predecessorCount++
			case v > median:
				if v < nextMedian {
					nextMedian = v
				}
				successorCount++
			}
		}

		switch {
		case predecessorCount > 0 && predecessorCount >= successorCount:
			// median already splits a non-trivial left slice; keep it.
		case predecessorCount > 0 || successorCount > 0:
			// shift the cut upward so at least one point moves right.
			maxLeft = median
			median = nextMedian
		default:
			// every point in this slice has the same value in dim.
			ignoreDim[dim] = true
			dim = nextDim(dim, numDim)
			continue
		}

		leftEnd := start
		rightPtr := 0
		for i := start; i < end; i++ {
			pt := pointers[i]
			if dimPoints[pt] < median {
				pointers[leftEnd] = pt
				leftEnd++
			} else {
				work[rightPtr] = pt
				rightPtr++
			}
		}
		copy(pointers[leftEnd:leftEnd+rightPtr], work[:rightPtr])

		node := &kdNode{
			divDim:        dim,
			offset:        *nodeOffset,
			treeSize:      treeSize,
			minValue:      minV,
			maxValueLeft:  maxLeft,
			minValueRight: median,
			maxValue:      maxV,
		}

		childDim := nextDim(dim, numDim)
		leftIgnore := append([]bool(nil), ignoreDim...)
		rightIgnore := append([]bool(nil), ignoreDim...)
		node.left = buildKdTree(ranked, childDim, leftIgnore, pointers, start, leftEnd, numDim, nodeOffset, work)
		node.right = buildKdTree(ranked, childDim, rightIgnore, pointers, leftEnd, end, numDim, nodeOffset, work)
		return node
	}

	return buildKdLeaf(ranked, dim, pointers, start, end, numDim, nodeOffset)
}

func nextDim(dim, numDim int) int {
	dim++
	if dim >= numDim {
		dim = 0
	}
	return dim
}

func buildKdLeaf(ranked [][]int, dim int, pointers []int, start, end, numDim int, nodeOffset *int) *kdNode {
	treeSize := end - start
	flat := make([]int, numDim*treeSize)
	minV, maxV := math.MaxInt32, math.MinInt32
	for d := 0; d < numDim; d++ {
		col := ranked[d]
		if d == dim {
			for i := 0; i < treeSize; i++ {
				v := col[pointers[start+i]]
				flat[d+numDim*i] = v
				if v < minV {
					minV = v
				}
				if v > maxV {
					maxV = v
				}
			}
		} else {
			for i := 0; i < treeSize; i++ {
				flat[d+numDim*i] = col[pointers[start+i]]
			}
		}
	}
	node := &kdNode{
		divDim:   dim,
		offset:   *nodeOffset,
		treeSize: treeSize,
		isLeaf:   true,
		minValue: minV,
		maxValue: maxV,
		leaf:     flat,
	}
	*nodeOffset += treeSize
	return node
}

// selectMedian partitions array in place around its middle element's
// final sorted value (Hoare quickselect) and returns that value. For
// an even length it picks the upper of the two middle elements, same
// as array[length/2] after a full sort.
func selectMedian(array []int) int {
	length := len(array)
	mid := length >> 1
	start, end := 0, length-1
	for start < end {
		r, w := start, end
		pivot := array[(r+w)>>1]
		for r < w {
			if array[r] >= pivot {
				array[r], array[w] = array[w], array[r]
				w--
			} else {
				r++
			}
		}
		if array[r] > pivot {
			r--
		}
		if mid <= r {
			end = r
		} else {
			start = r + 1
		}
	}
	return array[mid]
}
