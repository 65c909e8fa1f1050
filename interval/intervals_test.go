package interval

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIntervalsCursor(t *testing.T) {
	Convey("An Intervals buffer holding a mix of root and inner intervals", t, func() {
		iv := NewIntervals(16)
		iv.AddRoot1(5)
		iv.AddRoot(10, 20)
		iv.AddInner(3, 8, 2, 4)

		Convey("Count and TotalLength match what was added", func() {
			So(iv.Count(), ShouldEqual, 3)
			So(iv.TotalLength(), ShouldEqual, 1+10+5)
		})

		Convey("RootOnly is false once an inner interval is added", func() {
			So(iv.RootOnly(), ShouldBeFalse)
		})

		Convey("the cursor replays every interval in insertion order", func() {
			cur := iv.Cursor()

			So(cur.Next(), ShouldBeTrue)
			So(cur.Root, ShouldBeTrue)
			So(cur.S, ShouldEqual, 5)
			So(cur.E, ShouldEqual, 6)

			So(cur.Next(), ShouldBeTrue)
			So(cur.Root, ShouldBeTrue)
			So(cur.S, ShouldEqual, 10)
			So(cur.E, ShouldEqual, 20)

			So(cur.Next(), ShouldBeTrue)
			So(cur.Root, ShouldBeFalse)
			So(cur.S, ShouldEqual, 3)
			So(cur.E, ShouldEqual, 8)
			So(cur.TreeID, ShouldEqual, 2)
			So(cur.Level, ShouldEqual, 4)

			So(cur.Next(), ShouldBeFalse)
		})
	})
}

func TestIntervalsRootOnlyFlag(t *testing.T) {
	Convey("An Intervals buffer holding only root intervals", t, func() {
		iv := NewIntervals(4)
		iv.AddRoot(0, 4)
		iv.AddRoot1(9)
		So(iv.RootOnly(), ShouldBeTrue)
	})
}

func TestIntervalsClear(t *testing.T) {
	Convey("Clear resets an Intervals buffer to empty", t, func() {
		iv := NewIntervals(4)
		iv.AddRoot(0, 4)
		iv.AddInner(1, 2, 0, 0)
		iv.Clear()
		So(iv.Count(), ShouldEqual, 0)
		So(iv.TotalLength(), ShouldEqual, 0)
		So(iv.RootOnly(), ShouldBeTrue)
		So(iv.Cursor().Next(), ShouldBeFalse)
	})
}
