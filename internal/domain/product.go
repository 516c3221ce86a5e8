package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Product is a catalog product as presented to shoppers.
type Product struct {
	ID                 int              `json:"id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Category           string           `json:"category"`
	Brand              string           `json:"brand"`
	Thumbnail          string           `json:"thumbnail"`
	Images             []string         `json:"images"`
	Stock              int              `json:"stock"`
	Rating             float64          `json:"rating"`
	Price              decimal.Decimal  `json:"price"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`

	// Session annotations, supplied by the favorites and basket stores.
	IsFavorite     bool `json:"is_favorite"`
	BasketQuantity int  `json:"basket_quantity"`
}

// EffectivePrice is the base price reduced by the discount percentage. It is
// not rounded; filters and sorts compare the exact value.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPercentage == nil {
		return p.Price
	}
	factor := decimal.NewFromInt(1).Sub(p.DiscountPercentage.Div(hundred))
	return p.Price.Mul(factor)
}

// Annotation carries the per-owner flags layered on top of catalog data.
type Annotation struct {
	IsFavorite     bool
	BasketQuantity int
}

// Annotate returns a copy of p with a applied.
func (p Product) Annotate(a Annotation) Product {
	p.IsFavorite = a.IsFavorite
	p.BasketQuantity = a.BasketQuantity
	return p
}

// ProductIDs returns the IDs of products in order.
func ProductIDs(products []Product) []int {
	ids := make([]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	return ids
}

// PageResult is one page of products returned by the catalog.
// Total is the server's count of all matching products.
type PageResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// End is the offset just past the last product of the page.
func (p *PageResult) End() int {
	return p.Skip + len(p.Products)
}
