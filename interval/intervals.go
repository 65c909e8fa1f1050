// Package interval stores half-open position intervals of mixed
// granularity, produced by a wavelet matrix's range search: most are
// root-level (already expressed in the tree's global order) but some
// are left as "inner" intervals (expressed in one dimension's wavelet
// matrix at an internal level) to be lifted to root-level lazily, in
// a batch, later on. Three interval shapes share one backing array via
// a sign-bit tag, avoiding a struct-per-interval allocation:
//
//	1-length root-interval: stored as a single non-negative int (s).
//	root-interval:          stored as (~s, e), s encoded negative.
//	inner-interval:         stored as (~s, ~e, treeId, level), both negative.
package interval

// Buffer is a growable []int, the work area used both as the Intervals
// backing store and as scratch stacks during a search.
type Buffer struct {
	elems []int
}

func NewBuffer(capacity int) *Buffer {
	return &Buffer{elems: make([]int, 0, capacity)}
}

func (b *Buffer) Len() int      { return len(b.elems) }
func (b *Buffer) Clear()        { b.elems = b.elems[:0] }
func (b *Buffer) Get(i int) int { return b.elems[i] }
func (b *Buffer) Set(i, v int) { b.elems[i] = v }
func (b *Buffer) Add(vs ...int) {
	b.elems = append(b.elems, vs...)
}
func (b *Buffer) Push(v int) { b.elems = append(b.elems, v) }
func (b *Buffer) Pop() int {
	v := b.elems[len(b.elems)-1]
	b.elems = b.elems[:len(b.elems)-1]
	return v
}
func (b *Buffer) ToSlice() []int { return append([]int(nil), b.elems...) }

// Intervals accumulates search results of all three shapes.
type Intervals struct {
	buf         Buffer
	count       int
	totalLength int
	rootOnly    bool
}

func NewIntervals(capacity int) *Intervals {
	return &Intervals{buf: Buffer{elems: make([]int, 0, capacity)}, rootOnly: true}
}

func (iv *Intervals) Count() int       { return iv.count }
func (iv *Intervals) TotalLength() int { return iv.totalLength }
func (iv *Intervals) RootOnly() bool   { return iv.rootOnly }

func (iv *Intervals) Clear() {
	iv.buf.Clear()
	iv.count = 0
	iv.totalLength = 0
	iv.rootOnly = true
}

// AddRoot1 appends a 1-length root-interval [s, s+1).
func (iv *Intervals) AddRoot1(s int) {
	iv.buf.Push(s)
	iv.count++
	iv.totalLength++
}

// AddRoot appends a root-interval [s, e).
func (iv *Intervals) AddRoot(s, e int) {
	if e-s == 1 {
		iv.AddRoot1(s)
		return
	}
	iv.buf.Add(^s, e)
	iv.count++
	iv.totalLength += e - s
}

// AddInner appends an inner-interval [s, e) belonging to the wavelet
// matrix identified by treeID, at internal level lv.
func (iv *Intervals) AddInner(s, e, treeID, lv int) {
	iv.buf.Add(^s, ^e, treeID, lv)
	iv.count++
	iv.totalLength += e - s
	iv.rootOnly = false
}

// Cursor iterates over the stored intervals in insertion order.
type Cursor struct {
	iv     *Intervals
	ptr    int
	S, E   int
	TreeID int
	Level  int
	Root   bool
}

func (iv *Intervals) Cursor() *Cursor { return &Cursor{iv: iv} }

func (c *Cursor) Reset() { c.ptr = 0 }

func (c *Cursor) Next() bool {
	buf := &c.iv.buf
	if c.ptr >= buf.Len() {
		return false
	}
	a0 := buf.Get(c.ptr)
	c.ptr++
	if a0 >= 0 {
		c.S, c.E = a0, a0+1
		c.TreeID, c.Level, c.Root = -1, -1, true
		return true
	}
	a1 := buf.Get(c.ptr)
	c.ptr++
	if a1 >= 0 {
		c.S, c.E = ^a0, a1
		c.TreeID, c.Level, c.Root = -1, -1, true
		return true
	}
	c.S, c.E = ^a0, ^a1
	c.TreeID = buf.Get(c.ptr)
	c.ptr++
	c.Level = buf.Get(c.ptr)
	c.ptr++
	c.Root = false
	return true
}
