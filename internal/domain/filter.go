package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// FilterSpec restricts the displayed products. A nil bound or an empty
// category list places no restriction. MinPrice <= MaxPrice is not enforced.
type FilterSpec struct {
	MinPrice   *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	Categories []string         `json:"categories,omitempty"`
}

// IsEmpty reports whether no criterion is active.
func (f FilterSpec) IsEmpty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && len(f.Categories) == 0
}

// Matches reports whether p satisfies every active criterion. Price bounds
// are inclusive and compare against the effective price.
func (f FilterSpec) Matches(p Product) bool {
	price := p.EffectivePrice()
	if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
		return false
	}
	return true
}

// Clone returns a deep copy so callers can hand out snapshots safely.
func (f FilterSpec) Clone() FilterSpec {
	out := FilterSpec{Categories: slices.Clone(f.Categories)}
	if f.MinPrice != nil {
		v := *f.MinPrice
		out.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := *f.MaxPrice
		out.MaxPrice = &v
	}
	return out
}
