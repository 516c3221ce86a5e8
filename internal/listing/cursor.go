package listing

import "github.com/sefaaycicek/fakestore/internal/domain"

// DefaultPageSize is the number of products requested per page.
const DefaultPageSize = 20

// Cursor tracks offset pagination for one query context.
// It is not safe for concurrent use; the Controller guards it.
type Cursor struct {
	skip       int
	pageSize   int
	total      int
	totalKnown bool
	consumed   int
}

// NewCursor returns a cursor at offset 0. A non-positive pageSize falls back
// to DefaultPageSize.
func NewCursor(pageSize int) *Cursor {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Cursor{pageSize: pageSize}
}

func (c *Cursor) Skip() int     { return c.skip }
func (c *Cursor) PageSize() int { return c.pageSize }

// Total returns the server total of the last recorded page.
func (c *Cursor) Total() (int, bool) {
	return c.total, c.totalKnown
}

// Advance moves to the next page. Callers must not advance again before the
// page at the current offset has been recorded.
func (c *Cursor) Advance() {
	c.skip += c.pageSize
}

// Rewind undoes an Advance whose page never arrived.
func (c *Cursor) Rewind() {
	c.skip -= c.pageSize
	if c.skip < 0 {
		c.skip = 0
	}
}

// Record stores the total and the offset just past the page received at the
// current position.
func (c *Cursor) Record(page *domain.PageResult) {
	c.total = page.Total
	c.totalKnown = true
	c.consumed = c.skip + len(page.Products)
}

// IsExhausted reports whether no further page exists. It is false until a
// total is known. The three conditions are evaluated independently so that a
// server total that changes between pages stays observable.
func (c *Cursor) IsExhausted() bool {
	if !c.totalKnown {
		return false
	}
	return c.skip >= c.total || c.total <= c.pageSize || c.consumed >= c.total
}

// Reset returns the cursor to offset 0 with no known total.
func (c *Cursor) Reset() {
	c.skip = 0
	c.total = 0
	c.totalKnown = false
	c.consumed = 0
}
