package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Storefront/internal/storage"
)

func seeded(t *testing.T) []storage.Product {
	t.Helper()
	products, err := storage.NewMemStore().AllProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 12)
	return products
}

func ids(products []storage.Product) []int64 {
	out := make([]int64, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestApply_FeaturedKeepsCatalogOrder(t *testing.T) {
	products := seeded(t)

	got, err := Apply(products, Filter{Category: AllCategories, SortBy: Featured})
	require.NoError(t, err)
	assert.Equal(t, ids(products), ids(got))
}

func TestApply_PriceRange(t *testing.T) {
	products := seeded(t)

	got, err := Apply(products, Filter{Category: AllCategories, MinPrice: "30", MaxPrice: "60"})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5, 7, 9, 11, 12}, ids(got))

	sorted, err := Apply(products, Filter{MinPrice: "30", MaxPrice: "60", SortBy: PriceLowToHigh})
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(got), ids(sorted))
	for i := 1; i < len(sorted); i++ {
		assert.False(t, sorted[i].Price.LessThan(sorted[i-1].Price), "not non-decreasing at %d", i)
	}
	assert.Equal(t, []int64{12, 3, 7, 5, 9, 11}, ids(sorted))
}

func TestApply_BoundsAreInclusive(t *testing.T) {
	products := seeded(t)

	got, err := Apply(products, Filter{MinPrice: "24.99", MaxPrice: "24.99"})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(got))
}

func TestApply_Category(t *testing.T) {
	products := seeded(t)

	got, err := Apply(products, Filter{Category: "Electronics"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 7, 11}, ids(got))

	got, err = Apply(products, Filter{Category: "electronics"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApply_Sorts(t *testing.T) {
	products := seeded(t)

	t.Run("BestRated", func(t *testing.T) {
		got, err := Apply(products, Filter{SortBy: BestRated})
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Running Shoes", got[0].Name)
		// ties keep catalog order: 1 and 9 both rate 4.5
		assert.Equal(t, []int64{10, 3, 8, 4, 11, 1, 9, 5, 12, 6, 2, 7}, ids(got))
	})

	t.Run("PriceHighToLow", func(t *testing.T) {
		got, err := Apply(products, Filter{SortBy: PriceHighToLow})
		require.NoError(t, err)
		assert.Equal(t, int64(10), got[0].ID)
		assert.Equal(t, int64(4), got[len(got)-1].ID)
	})

	t.Run("Newest", func(t *testing.T) {
		got, err := Apply(products, Filter{SortBy: Newest})
		require.NoError(t, err)
		assert.Equal(t, []int64{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, ids(got))
	})
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	products := seeded(t)
	before := ids(products)

	_, err := Apply(products, Filter{SortBy: Newest})
	require.NoError(t, err)
	assert.Equal(t, before, ids(products))
}

func TestApply_InvalidBound(t *testing.T) {
	_, err := Apply(seeded(t), Filter{MinPrice: "cheap"})
	require.ErrorIs(t, err, ErrInvalidPriceBound)
	assert.Contains(t, err.Error(), "minPrice")
}

func TestParseSortMode(t *testing.T) {
	cases := map[string]SortMode{
		"Price: Low to High": PriceLowToHigh,
		"price_desc":         PriceHighToLow,
		"Newest":             Newest,
		" best rated ":       BestRated,
		"rating":             BestRated,
		"":                   Featured,
		"random":             Featured,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseSortMode(in), "input %q", in)
	}
}

func TestCategories(t *testing.T) {
	assert.Equal(t,
		[]string{"Electronics", "Clothing", "Home & Garden", "Books", "Sports"},
		Categories(seeded(t)),
	)
}
