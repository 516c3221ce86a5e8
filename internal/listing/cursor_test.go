package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

func pageOf(n, total int) *domain.PageResult {
	return &domain.PageResult{Products: make([]domain.Product, n), Total: total}
}

func TestCursor_Defaults(t *testing.T) {
	c := NewCursor(0)
	assert.Equal(t, DefaultPageSize, c.PageSize())
	assert.Equal(t, 0, c.Skip())

	_, known := c.Total()
	assert.False(t, known)
	assert.False(t, c.IsExhausted(), "unknown total is never exhausted")
}

func TestCursor_ExhaustedAfterSmallFirstPage(t *testing.T) {
	c := NewCursor(20)
	c.Record(pageOf(15, 15))
	assert.True(t, c.IsExhausted())
}

func TestCursor_FortyFiveProducts(t *testing.T) {
	c := NewCursor(20)

	c.Record(pageOf(20, 45))
	assert.False(t, c.IsExhausted())

	c.Advance()
	assert.Equal(t, 20, c.Skip())
	c.Record(pageOf(20, 45))
	assert.False(t, c.IsExhausted())

	c.Advance()
	assert.Equal(t, 40, c.Skip())
	c.Record(pageOf(5, 45))
	assert.True(t, c.IsExhausted(), "all 45 products consumed")
}

func TestCursor_ExactMultipleOfPageSize(t *testing.T) {
	c := NewCursor(20)
	c.Record(pageOf(20, 40))
	assert.False(t, c.IsExhausted())

	c.Advance()
	c.Record(pageOf(20, 40))
	assert.True(t, c.IsExhausted())
}

// The server total is taken at face value on every page. These pin how the
// independent exhaustion rules react when it changes mid-session.
func TestCursor_TotalDrift(t *testing.T) {
	t.Run("total shrinks below offset", func(t *testing.T) {
		c := NewCursor(20)
		c.Record(pageOf(20, 45))
		c.Advance()
		c.Record(pageOf(0, 18))
		assert.True(t, c.IsExhausted())
	})

	t.Run("total at most one page ends pagination even when short", func(t *testing.T) {
		c := NewCursor(20)
		c.Record(pageOf(5, 15))
		// consumed 5 < total 15 and skip 0 < 15, but total <= pageSize wins.
		assert.True(t, c.IsExhausted())
	})

	t.Run("total grows keeps paginating", func(t *testing.T) {
		c := NewCursor(20)
		c.Record(pageOf(20, 40))
		c.Advance()
		c.Record(pageOf(20, 60))
		assert.False(t, c.IsExhausted())
	})
}

func TestCursor_RewindAndReset(t *testing.T) {
	c := NewCursor(20)
	c.Record(pageOf(20, 100))
	c.Advance()
	c.Advance()
	c.Rewind()
	assert.Equal(t, 20, c.Skip())

	c.Rewind()
	c.Rewind()
	assert.Equal(t, 0, c.Skip())

	c.Reset()
	_, known := c.Total()
	assert.False(t, known)
	assert.False(t, c.IsExhausted())
}
