package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSpec_IsEmpty(t *testing.T) {
	assert.True(t, FilterSpec{}.IsEmpty())
	assert.True(t, FilterSpec{Categories: []string{}}.IsEmpty())
	assert.False(t, FilterSpec{MinPrice: decPtr("1")}.IsEmpty())
	assert.False(t, FilterSpec{MaxPrice: decPtr("1")}.IsEmpty())
	assert.False(t, FilterSpec{Categories: []string{"laptops"}}.IsEmpty())
}

func TestFilterSpec_Matches(t *testing.T) {
	phone := Product{Price: dec("100"), Category: "smartphones"}
	discounted := Product{Price: dec("200"), DiscountPercentage: decPtr("50"), Category: "laptops"}

	tests := []struct {
		name   string
		filter FilterSpec
		p      Product
		want   bool
	}{
		{"empty filter", FilterSpec{}, phone, true},
		{"min inclusive", FilterSpec{MinPrice: decPtr("100")}, phone, true},
		{"below min", FilterSpec{MinPrice: decPtr("100.01")}, phone, false},
		{"max inclusive", FilterSpec{MaxPrice: decPtr("100")}, phone, true},
		{"above max", FilterSpec{MaxPrice: decPtr("99.99")}, phone, false},
		{"uses effective price", FilterSpec{MaxPrice: decPtr("100")}, discounted, true},
		{"category match", FilterSpec{Categories: []string{"laptops", "smartphones"}}, phone, true},
		{"category miss", FilterSpec{Categories: []string{"laptops"}}, phone, false},
		{"min greater than max matches nothing", FilterSpec{MinPrice: decPtr("150"), MaxPrice: decPtr("50")}, phone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.p))
		})
	}
}

func TestFilterSpec_Clone(t *testing.T) {
	orig := FilterSpec{MinPrice: decPtr("1"), MaxPrice: decPtr("2"), Categories: []string{"a"}}
	c := orig.Clone()

	c.Categories[0] = "b"
	*c.MinPrice = dec("5")

	assert.Equal(t, "a", orig.Categories[0])
	assert.Equal(t, "1", orig.MinPrice.String())
}
