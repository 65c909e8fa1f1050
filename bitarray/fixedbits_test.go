package bitarray

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFixedBitsGetSet(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	Convey("A packed fixed-width array", t, func() {
		n, width := 300, 11
		fb := NewFixedBits(n, width)
		values := make([]uint64, n)
		mask := uint64(1)<<uint(width) - 1
		for i := range values {
			values[i] = uint64(rnd.Int63()) & mask
			fb.Set(i, values[i])
		}

		Convey("Get reproduces every value written by Set", func() {
			for i, v := range values {
				So(fb.Get(i), ShouldEqual, v)
			}
		})

		Convey("a width of 0 stores only the value 0", func() {
			zero := NewFixedBits(10, 0)
			for i := 0; i < 10; i++ {
				So(zero.Get(i), ShouldEqual, uint64(0))
			}
		})
	})
}

func TestFixedBitsBinarySearches(t *testing.T) {
	Convey("A strictly increasing array", t, func() {
		sorted := []uint64{1, 3, 5, 7, 9, 11, 13}
		fb := NewFixedBits(len(sorted), 8)
		for i, v := range sorted {
			fb.Set(i, v)
		}

		Convey("BinarySearch finds present values and misses absent ones", func() {
			So(fb.BinarySearch(7, 0, len(sorted)), ShouldEqual, 3)
			So(fb.BinarySearch(8, 0, len(sorted)), ShouldEqual, -1)
		})

		Convey("BinarySearchGE finds the insertion point", func() {
			So(fb.BinarySearchGE(6, 0, len(sorted)), ShouldEqual, 3)
			So(fb.BinarySearchGE(1, 0, len(sorted)), ShouldEqual, 0)
			So(fb.BinarySearchGE(14, 0, len(sorted)), ShouldEqual, len(sorted))
		})
	})

	Convey("A non-strictly monotone array with duplicates", t, func() {
		dup := []uint64{2, 2, 2, 5, 5, 8}
		fb := NewFixedBits(len(dup), 8)
		for i, v := range dup {
			fb.Set(i, v)
		}

		Convey("BinarySearchLast finds the last occurrence", func() {
			So(fb.BinarySearchLast(2, 0, len(dup)), ShouldEqual, 2)
			So(fb.BinarySearchLast(5, 0, len(dup)), ShouldEqual, 4)
			So(fb.BinarySearchLast(3, 0, len(dup)), ShouldEqual, -1)
		})

		Convey("BinarySearchGEFirst finds the first occurrence of the minimal value >= v", func() {
			So(fb.BinarySearchGEFirst(3, 0, len(dup)), ShouldEqual, 3)
			So(fb.BinarySearchGEFirst(2, 0, len(dup)), ShouldEqual, 0)
		})
	})
}
