package kdwtree

import (
	"math/rand"
	"sort"

	"github.com/nec-oss/kdwtree/interval"
	"github.com/nec-oss/kdwtree/permute"
	"github.com/nec-oss/kdwtree/sbv"
	"github.com/nec-oss/kdwtree/wavelet"
	"go.uber.org/zap"
)

// reportBufferCapacity is the initial capacity of the interval and
// scratch buffers allocated per query.
const reportBufferCapacity = 8192

// base holds the query-time state shared by ZOrderTree and
// ExternalizedTree: the per-dimension wavelet matrices (the only
// structures that know how to lift an inner interval back to root
// order) and the permutation back to original-data indexes.
type base struct {
	numDim   int
	wm       []*wavelet.Matrix
	pointers []int
	logger   *zap.Logger
}

// lastNotContained returns the single dimension whose bit is unset in
// contained (valid only when exactly one bit is unset).
func (b *base) lastNotContained(contained int) int {
	for d := 0; d < b.numDim; d++ {
		if contained&(1<<uint(d)) == 0 {
			return d
		}
	}
	return -1
}

// liftToRoot converts every inner interval in in to a root interval,
// batching the lift level-by-level within each dimension's wavelet
// matrix. Root-only inputs are returned unchanged.
func (b *base) liftToRoot(in *interval.Intervals) *interval.Intervals {
	if in.RootOnly() {
		return in
	}
	out := interval.NewIntervals(reportBufferCapacity)
	work1 := sbv.NewIntBuffer(reportBufferCapacity)
	work2 := sbv.NewIntBuffer(reportBufferCapacity)
	cur := in.Cursor()
	for cur.Next() {
		if cur.Root {
			out.AddRoot(cur.S, cur.E)
		} else {
			b.wm[cur.TreeID].InnerInterval2RootIntervals(cur.Level, cur.S, cur.E, out, work1, work2)
		}
	}
	return out
}

// materialize expands every (now root-level) interval of in into
// original-data indexes via pointers.
func (b *base) materialize(in *interval.Intervals) []int {
	root := b.liftToRoot(in)
	result := make([]int, 0, root.TotalLength())
	cur := root.Cursor()
	for cur.Next() {
		for i := cur.S; i < cur.E; i++ {
			result = append(result, b.pointers[i])
		}
	}
	return result
}

// sampleFromIntervals draws sampleCount distinct elements uniformly
// from the positions spanned by in (whose total length is the match
// count F): if F <= sampleCount every match is returned; otherwise a
// random partial permutation of [0, F) picks which 1-length slices of
// the interval list survive, which are then lifted and dereferenced.
func (b *base) sampleFromIntervals(in *interval.Intervals, sampleCount int, rnd *rand.Rand) []int {
	total := in.TotalLength()
	if total == 0 {
		return []int{}
	}
	if total <= sampleCount {
		return b.materialize(in)
	}

	chosen := permute.PartialPermutation(total, sampleCount, rnd)
	sort.Ints(chosen)

	picked := interval.NewIntervals(sampleCount * 2)
	cur := in.Cursor()
	processed := 0
	sptr := 0
	for sptr < len(chosen) && cur.Next() {
		w := cur.E - cur.S
		for sptr < len(chosen) && chosen[sptr] >= processed && chosen[sptr] < processed+w {
			ss := cur.S + chosen[sptr] - processed
			if cur.Root {
				picked.AddRoot(ss, ss+1)
			} else {
				picked.AddInner(ss, ss+1, cur.TreeID, cur.Level)
			}
			sptr++
		}
		processed += w
	}
	return b.materialize(picked)
}
