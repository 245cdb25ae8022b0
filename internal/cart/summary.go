package cart

import (
	"github.com/shopspring/decimal"

	"Storefront/internal/storage"
)

type Summary struct {
	Items     []storage.CartItemWithProduct `json:"items"`
	ItemCount int                           `json:"itemCount"`
	Total     decimal.Decimal               `json:"total"`
}

// Summarize totals the cart as sum(price * quantity).
func Summarize(items []storage.CartItemWithProduct) Summary {
	s := Summary{Items: items, Total: decimal.Zero}
	for _, it := range items {
		s.ItemCount += it.Quantity
		s.Total = s.Total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if s.Items == nil {
		s.Items = []storage.CartItemWithProduct{}
	}
	return s
}
