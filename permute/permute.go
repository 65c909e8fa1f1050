// Package permute draws a random partial permutation, used by Sample
// to pick S distinct indices out of the F points matched by a range
// query without materialising or shuffling the full match set.
package permute

import (
	"fmt"
	"math/rand"
)

// PartialPermutation returns k distinct values drawn uniformly at
// random, without replacement, from {0, 1, ..., n-1}. For small n or
// large k relative to n it shuffles the tail of a full sequence;
// otherwise it rejection-samples, which is cheaper when k is a small
// fraction of a large n.
func PartialPermutation(n, k int, rnd *rand.Rand) []int {
	if n < 0 || k < 0 {
		usageError("PartialPermutation: n=%d k=%d", n, k)
	}
	if k > n {
		usageError("PartialPermutation: k > n")
	}

	if n <= 100000 || k > n>>4 {
		sequence := make([]int, n)
		for i := range sequence {
			sequence[i] = i
		}
		shuffleTailK(sequence, k, rnd)
		return append([]int(nil), sequence[n-k:]...)
	}

	collision := make(map[int]struct{}, k)
	result := make([]int, k)
	for i := 0; i < k; i++ {
		var r int
		for {
			r = rnd.Intn(n)
			if _, seen := collision[r]; !seen {
				break
			}
		}
		collision[r] = struct{}{}
		result[i] = r
	}
	return result
}

func shuffleTailK(sequence []int, k int, rnd *rand.Rand) {
	stop := len(sequence) - k
	for j := len(sequence); j > stop; j-- {
		rndIndex := rnd.Intn(j)
		sequence[j-1], sequence[rndIndex] = sequence[rndIndex], sequence[j-1]
	}
}

func usageError(format string, args ...any) {
	panic(fmt.Errorf("permute: usage error: "+format, args...))
}
