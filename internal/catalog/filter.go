package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"Storefront/internal/storage"
)

// AllCategories disables category matching.
const AllCategories = "All Categories"

type SortMode string

const (
	Featured       SortMode = "Featured"
	PriceLowToHigh SortMode = "Price: Low to High"
	PriceHighToLow SortMode = "Price: High to Low"
	Newest         SortMode = "Newest"
	BestRated      SortMode = "Best Rated"
)

var ErrInvalidPriceBound = errors.New("invalid price bound")

var sortAliases = map[string]SortMode{
	"featured":           Featured,
	"price: low to high": PriceLowToHigh,
	"price_asc":          PriceLowToHigh,
	"price: high to low": PriceHighToLow,
	"price_desc":         PriceHighToLow,
	"newest":             Newest,
	"best rated":         BestRated,
	"rating":             BestRated,
}

// ParseSortMode accepts the display labels and their short keys. Anything
// else means Featured.
func ParseSortMode(s string) SortMode {
	if m, ok := sortAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return Featured
}

// Filter selects and orders a product list. Empty MinPrice/MaxPrice mean the
// bound is open.
type Filter struct {
	Category string
	MinPrice string
	MaxPrice string
	SortBy   SortMode
}

// Apply returns the products matching f in the order f asks for. The input
// slice is never modified.
func Apply(products []storage.Product, f Filter) ([]storage.Product, error) {
	minPrice, hasMin, err := parseBound("minPrice", f.MinPrice)
	if err != nil {
		return nil, err
	}
	maxPrice, hasMax, err := parseBound("maxPrice", f.MaxPrice)
	if err != nil {
		return nil, err
	}

	filterCategory := f.Category != "" && f.Category != AllCategories

	out := make([]storage.Product, 0, len(products))
	for _, p := range products {
		if filterCategory && p.Category != f.Category {
			continue
		}
		if hasMin && p.Price.LessThan(minPrice) {
			continue
		}
		if hasMax && p.Price.GreaterThan(maxPrice) {
			continue
		}
		out = append(out, p)
	}

	switch f.SortBy {
	case PriceLowToHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case PriceHighToLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case Newest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	case BestRated:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating.GreaterThan(out[j].Rating) })
	}

	return out, nil
}

func parseBound(field, raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("%w: %s=%q", ErrInvalidPriceBound, field, raw)
	}
	return d, true, nil
}

// Categories lists the distinct categories in first-seen order.
func Categories(products []storage.Product) []string {
	seen := make(map[string]struct{}, 8)
	out := make([]string, 0, 8)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
