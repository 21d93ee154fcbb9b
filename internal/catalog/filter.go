package catalog

import (
	"sort"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type SortOrder string

const (
	SortLatest    SortOrder = "latest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
)

const CategoryAll = "all"

type Query struct {
	Search   string
	Category string
	Sort     SortOrder
}

// Filter matches Search against name and description case-insensitively,
// keeps Category (empty or "all" keeps everything) and sorts by Sort.
// Unknown sort orders fall back to latest.
func Filter(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}

	var less func(a, b domain.Product) bool
	switch q.Sort {
	case SortPriceLow:
		less = func(a, b domain.Product) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b domain.Product) bool { return a.Price > b.Price }
	case SortRating:
		less = func(a, b domain.Product) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })

	return out
}

// Categories returns "all" followed by each distinct category in first-seen order.
func Categories(products []domain.Product) []string {
	seen := map[string]bool{}
	out := []string{CategoryAll}
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}
