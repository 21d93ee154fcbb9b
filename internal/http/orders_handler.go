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

type OrdersHandler struct {
	orders   *service.OrderService
	tracker  OrderTracker
	validate *validator.Validate
	timeout  time.Duration
}

func NewOrdersHandler(orders *service.OrderService, tracker OrderTracker, validate *validator.Validate, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:   orders,
		tracker:  tracker,
		validate: validate,
		timeout:  timeout,
	}
}

type UpdateStatusRequestDTO struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// GET /api/v1/orders; admins see every order.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, _ := getUserFromContext(r.Context())
	if user.Role == domain.RoleAdmin {
		respondJSON(w, http.StatusOK, h.orders.Orders())
		return
	}
	respondJSON(w, http.StatusOK, h.orders.OrdersByUser(user.ID))
}

// GET /api/v1/orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	user, _ := getUserFromContext(r.Context())
	if user.Role != domain.RoleAdmin && order.UserID != user.ID {
		handleServiceError(w, service.ErrOrderNotFound)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// PUT /api/v1/orders/{id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	status, err := domain.ParseOrderStatus(string(req.Status))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "id"), status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

// DELETE /api/v1/orders/{id}/tracking
func (h *OrdersHandler) StopTracking(w http.ResponseWriter, r *http.Request) {
	if !h.tracker.Stop(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "not_found", "order is not being tracked")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
