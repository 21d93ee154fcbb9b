package catalog

import (
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
)

func sampleProducts() []domain.Product {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Product{
		{ID: "1", Name: "RTX 4090", Description: "NVIDIA flagship", Price: 300, Category: "GPU", Rating: 4.8, CreatedAt: base},
		{ID: "2", Name: "Ryzen 9", Description: "AMD desktop CPU", Price: 100, Category: "CPU", Rating: 4.9, CreatedAt: base.Add(48 * time.Hour)},
		{ID: "3", Name: "RX 7900", Description: "AMD graphics", Price: 200, Category: "GPU", Rating: 4.5, CreatedAt: base.Add(24 * time.Hour)},
	}
}

func ids(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{name: "latest by default", query: Query{}, want: []string{"2", "3", "1"}},
		{name: "price low", query: Query{Sort: SortPriceLow}, want: []string{"2", "3", "1"}},
		{name: "price high", query: Query{Sort: SortPriceHigh}, want: []string{"1", "3", "2"}},
		{name: "rating", query: Query{Sort: SortRating}, want: []string{"2", "1", "3"}},
		{name: "category", query: Query{Category: "GPU", Sort: SortPriceLow}, want: []string{"3", "1"}},
		{name: "category all", query: Query{Category: CategoryAll, Sort: SortPriceLow}, want: []string{"2", "3", "1"}},
		{name: "search name case insensitive", query: Query{Search: "rtx"}, want: []string{"1"}},
		{name: "search description", query: Query{Search: "AMD", Sort: SortPriceLow}, want: []string{"2", "3"}},
		{name: "no match", query: Query{Search: "keyboard"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleProducts(), tt.query)))
		})
	}
}

func TestFilter_DoesNotReorderInput(t *testing.T) {
	in := sampleProducts()
	Filter(in, Query{Sort: SortPriceHigh})
	assert.Equal(t, []string{"1", "2", "3"}, ids(in))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"all", "GPU", "CPU"}, Categories(sampleProducts()))
	assert.Equal(t, []string{"all"}, Categories(nil))
}
