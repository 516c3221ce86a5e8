package domain

import (
	"fmt"
)

// SortSpec selects the display order. The zero value is SortRecommended.
type SortSpec int

const (
	SortRecommended SortSpec = iota // fetch order
	SortTitleAsc
	SortTitleDesc
	SortPriceAsc
	SortPriceDesc
)

var sortNames = [...]string{
	SortRecommended: "recommended",
	SortTitleAsc:    "title_asc",
	SortTitleDesc:   "title_desc",
	SortPriceAsc:    "price_asc",
	SortPriceDesc:   "price_desc",
}

var sortLabels = [...]string{
	SortRecommended: "Recommended",
	SortTitleAsc:    "A to Z",
	SortTitleDesc:   "Z to A",
	SortPriceAsc:    "Increasing by price",
	SortPriceDesc:   "Decreasing by price",
}

// AllSorts lists every sort in display order.
func AllSorts() []SortSpec {
	return []SortSpec{SortRecommended, SortTitleAsc, SortTitleDesc, SortPriceAsc, SortPriceDesc}
}

// Valid reports whether s is a known sort.
func (s SortSpec) Valid() bool {
	return s >= SortRecommended && s <= SortPriceDesc
}

// String returns the wire name.
func (s SortSpec) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SortSpec(%d)", int(s))
	}
	return sortNames[s]
}

// Label returns the human-readable name shown in sort pickers.
func (s SortSpec) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return sortLabels[s]
}

// Descending reports whether s is the reverse of another sort.
func (s SortSpec) Descending() bool {
	return s == SortTitleDesc || s == SortPriceDesc
}

// ParseSort parses a wire name. The empty string means SortRecommended.
func ParseSort(name string) (SortSpec, error) {
	if name == "" {
		return SortRecommended, nil
	}
	for i, n := range sortNames {
		if n == name {
			return SortSpec(i), nil
		}
	}
	return SortRecommended, fmt.Errorf("unknown sort %q", name)
}

func (s SortSpec) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid sort %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *SortSpec) UnmarshalText(text []byte) error {
	v, err := ParseSort(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SortOption is one entry of the sort picker.
type SortOption struct {
	Sort     SortSpec `json:"sort"`
	Label    string   `json:"label"`
	Selected bool     `json:"selected"`
}

// SortOptions returns every sort in display order with active selected.
func SortOptions(active SortSpec) []SortOption {
	sorts := AllSorts()
	opts := make([]SortOption, len(sorts))
	for i, s := range sorts {
		opts[i] = SortOption{Sort: s, Label: s.Label(), Selected: s == active}
	}
	return opts
}
