// Package bvbuild picks the smallest succinct bit-vector
// representation for a known, fully materialised bit sequence. It is
// the only package that imports both sbv and monotone, so neither of
// those needs to know about the other's variants.
package bvbuild

import (
	"fmt"

	"github.com/nec-oss/kdwtree/monotone"
	"github.com/nec-oss/kdwtree/sbv"
)

// Best builds every applicable bit-vector variant over bits, measures
// each one's UsedBits, and returns the smallest. All0/All1 are used
// directly whenever bits is uniform; otherwise Dense, Sparse-0,
// Sparse-1, RRR-16 and Biased are all built and compared.
func Best(bits []int) sbv.BitVector {
	n := len(bits)
	if n == 0 {
		panic(fmt.Errorf("bvbuild: usage error: empty bit sequence"))
	}
	ones := 0
	for _, b := range bits {
		if b != 0 {
			ones++
		}
	}
	if ones == 0 {
		return fill(sbv.NewAll0(n), bits)
	}
	if ones == n {
		return fill(sbv.NewAll1(n), bits)
	}

	factories := []func() sbv.BitVector{
		func() sbv.BitVector { return sbv.NewDense(n) },
		func() sbv.BitVector { return monotone.NewSparse0(n) },
		func() sbv.BitVector { return monotone.NewSparse1(n) },
		func() sbv.BitVector { return monotone.NewBiased(n) },
		func() sbv.BitVector { return sbv.NewRRR16(n) },
	}

	var best sbv.BitVector
	var bestUsed int64 = -1
	for _, f := range factories {
		bv := fill(f(), bits)
		if used := bv.UsedBits(); bestUsed < 0 || used < bestUsed {
			best, bestUsed = bv, used
		}
	}
	return best
}

func fill(bv sbv.BitVector, bits []int) sbv.BitVector {
	for _, b := range bits {
		bv.Append(b)
	}
	bv.Build()
	return bv
}
