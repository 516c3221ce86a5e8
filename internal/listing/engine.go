package listing

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

// Apply filters products and orders the survivors. It never modifies its
// input. Descending orders are the exact reverse of the stable ascending
// order, so equal keys appear in reverse fetch order. Titles compare by
// UTF-8 byte order; prices compare by exact effective price.
func Apply(products []domain.Product, filter domain.FilterSpec, sort domain.SortSpec) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	if filter.IsEmpty() {
		out = append(out, products...)
	} else {
		for _, p := range products {
			if filter.Matches(p) {
				out = append(out, p)
			}
		}
	}

	switch sort {
	case domain.SortTitleAsc, domain.SortTitleDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int {
			return strings.Compare(a.Title, b.Title)
		})
	case domain.SortPriceAsc, domain.SortPriceDesc:
		sortByPrice(out)
	default:
		return out
	}

	if sort.Descending() {
		slices.Reverse(out)
	}
	return out
}

// sortByPrice stable-sorts by effective price, computing each price once.
func sortByPrice(products []domain.Product) {
	type keyed struct {
		price decimal.Decimal
		p     domain.Product
	}
	ks := make([]keyed, len(products))
	for i, p := range products {
		ks[i] = keyed{price: p.EffectivePrice(), p: p}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return a.price.Cmp(b.price)
	})
	for i, k := range ks {
		products[i] = k.p
	}
}
