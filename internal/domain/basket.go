package domain

import "github.com/shopspring/decimal"

// BasketLine is one product in an owner's basket.
type BasketLine struct {
	ProductID int
	Quantity  int
}

// BasketItem is a basket line joined with its catalog product.
type BasketItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is the effective unit price, rounded to cents, times quantity.
func (i BasketItem) LineTotal() decimal.Decimal {
	return i.Product.EffectivePrice().Round(2).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// BasketSummary totals a basket.
type BasketSummary struct {
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Summarize counts units and sums line totals.
func Summarize(items []BasketItem) BasketSummary {
	total := decimal.Zero
	count := 0
	for _, it := range items {
		count += it.Quantity
		total = total.Add(it.LineTotal())
	}
	return BasketSummary{ItemCount: count, TotalPrice: total.Round(2)}
}
