package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type CartHandler struct {
	cart     *service.CartService
	products ProductSource
	validate *validator.Validate
	timeout  time.Duration
}

func NewCartHandler(cart *service.CartService, products ProductSource, validate *validator.Validate, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:     cart,
		products: products,
		validate: validate,
		timeout:  timeout,
	}
}

const maxLineQuantity = 99

type AddItemRequestDTO struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1,max=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"min=0,max=99"`
}

type CartResponseDTO struct {
	Items         []domain.CartItem `json:"items"`
	SelectedItems []string          `json:"selectedItems"`
	Total         int64             `json:"total"`
	SelectedTotal int64             `json:"selectedTotal"`
	ItemCount     int               `json:"itemCount"`
}

func (h *CartHandler) cartResponse() CartResponseDTO {
	snap := h.cart.Snapshot()
	return CartResponseDTO{
		Items:         snap.Items,
		SelectedItems: snap.SelectedItems,
		Total:         domain.SumItems(snap.Items),
		SelectedTotal: h.cart.SelectedTotal(),
		ItemCount:     h.cart.ItemCount(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	product, err := h.products.Product(ctx, req.ProductID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.cart.AddQuantity(ctx, product, req.Quantity, maxLineQuantity); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, h.cartResponse())
}

// PUT /api/v1/cart/items/{product_id}; quantity 0 removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateQuantityRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.cart.SetQuantity(ctx, chi.URLParam(r, "product_id"), req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse())
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context) error {
		return h.cart.RemoveItem(ctx, chi.URLParam(r, "product_id"))
	})
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.cart.Clear)
}

// POST /api/v1/cart/selection/{product_id}
func (h *CartHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(ctx context.Context) error {
		return h.cart.ToggleSelection(ctx, chi.URLParam(r, "product_id"))
	})
}

// POST /api/v1/cart/selection
func (h *CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.cart.SelectAll)
}

// DELETE /api/v1/cart/selection
func (h *CartHandler) DeselectAll(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.cart.DeselectAll)
}

// DELETE /api/v1/cart/selected
func (h *CartHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.cart.RemoveSelected)
}

func (h *CartHandler) apply(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.cartResponse())
}
