// Package zorder establishes the shared Z-order (Morton order) over a
// set of k-dimensional, rank-aligned integer points: the global point
// ordering every per-dimension wavelet matrix of a ZOrderTree is built
// over.
package zorder

import "fmt"

// SortIndirect sorts pointers (initially pointers[i] == i) into Z-order
// over points, without reordering points itself. points[d][p] is
// coordinate d of point p; every points[d] must have the same length
// as pointers.
func SortIndirect(points [][]int64, pointers []int) {
	if len(points) < 1 {
		usageError("SortIndirect: points dimension must be at least 1")
	}
	length := len(pointers)
	for d := range points {
		if len(points[d]) != length {
			usageError("SortIndirect: dimension %d length mismatch", d)
		}
	}
	qsort(points, pointers, 0, len(pointers)-1)
}

func qsort(points [][]int64, pointers []int, left, right int) {
	if right <= left {
		return
	}
	i := partition(points, pointers, left, right)
	qsort(points, pointers, left, i-1)
	qsort(points, pointers, i+1, right)
}

func partition(points [][]int64, pointers []int, left, right int) int {
	i, j := left-1, right
	for {
		for {
			i++
			if !less(points, pointers[i], pointers[right]) {
				break
			}
		}
		for {
			j--
			if !less(points, pointers[right], pointers[j]) {
				break
			}
			if j == left {
				break
			}
		}
		if i >= j {
			break
		}
		pointers[i], pointers[j] = pointers[j], pointers[i]
	}
	pointers[i], pointers[right] = pointers[right], pointers[i]
	return i
}

// less orders two point indices by Z-order: find the dimension whose
// XOR of coordinates has the most significant decisive bit, then
// compare along that dimension.
func less(points [][]int64, a, b int) bool {
	j := 0
	var x int64
	dim := len(points)
	for k := dim - 1; k >= 0; k-- {
		y := points[k][a] ^ points[k][b]
		if lessMSB(x, y) {
			j = k
			x = y
		}
	}
	return points[j][a] < points[j][b]
}

func lessMSB(x, y int64) bool {
	return x < y && x < (x^y)
}

func usageError(format string, args ...any) {
	panic(fmt.Errorf("zorder: usage error: "+format, args...))
}
