package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ProductSource is the catalog as seen by the handlers.
type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

type ProductHandler struct {
	products ProductSource
	timeout  time.Duration
}

func NewProductHandler(products ProductSource, timeout time.Duration) *ProductHandler {
	return &ProductHandler{products: products, timeout: timeout}
}

type ProductResponseDTO struct {
	domain.Product
	FinalPrice int64 `json:"finalPrice"`
}

func toProductDTO(p domain.Product) ProductResponseDTO {
	return ProductResponseDTO{Product: p, FinalPrice: p.FinalPrice()}
}

// GET /api/v1/products?search=&category=&sort=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.Products(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog unavailable")
		return
	}

	q := r.URL.Query()
	filtered := catalog.Filter(products, catalog.Query{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Sort:     catalog.SortOrder(q.Get("sort")),
	})

	dtos := make([]ProductResponseDTO, 0, len(filtered))
	for _, p := range filtered {
		dtos = append(dtos, toProductDTO(p))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.Product(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductDTO(p))
}

// GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.Products(ctx)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "catalog unavailable")
		return
	}
	respondJSON(w, http.StatusOK, catalog.Categories(products))
}

// GET /api/v1/shipping-options
func ListShippingOptions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, domain.ShippingOptions())
}
