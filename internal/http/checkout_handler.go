package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/tracker"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// OrderTracker advances paid orders in the background.
type OrderTracker interface {
	Start(ctx context.Context, orderID string) *tracker.Handle
	Stop(orderID string) bool
}

type CheckoutHandler struct {
	checkout *service.CheckoutService
	tracker  OrderTracker
	validate *validator.Validate
	logger   *zap.Logger
	// baseCtx outlives the request; progressions run under it.
	baseCtx    context.Context
	timeout    time.Duration
	payTimeout time.Duration
}

func NewCheckoutHandler(
	baseCtx context.Context,
	checkout *service.CheckoutService,
	tracker OrderTracker,
	validate *validator.Validate,
	logger *zap.Logger,
	timeout, payTimeout time.Duration,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:   checkout,
		tracker:    tracker,
		validate:   validate,
		logger:     logger,
		baseCtx:    baseCtx,
		timeout:    timeout,
		payTimeout: payTimeout,
	}
}

type CheckoutRequestDTO struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	ShippingMethod  domain.ShippingMethod  `json:"shippingMethod" validate:"required,oneof=regular express same-day"`
}

type PayRequestDTO struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required,oneof=qris bank-transfer e-wallet credit-card"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	pending, err := h.checkout.Prepare(ctx, service.CheckoutRequest{
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pending)
}

// POST /api/v1/checkout/pay blocks for the payment delay. A client that
// disconnects cancels the charge.
func (h *CheckoutHandler) Pay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.payTimeout)
	defer cancel()

	var req PayRequestDTO
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	res, err := h.checkout.Pay(ctx, req.PaymentMethod)
	if err != nil {
		if ctx.Err() != nil {
			respondError(w, http.StatusGatewayTimeout, "timeout", "payment was cancelled")
			return
		}
		handleServiceError(w, err)
		return
	}

	h.tracker.Start(h.baseCtx, res.Order.ID)
	h.logger.Info("order tracking started",
		zap.String("order_id", res.Order.ID),
		zap.String("request_id", getRequestID(r.Context())))

	respondJSON(w, http.StatusCreated, res)
}

// GET /api/v1/checkout/address
func (h *CheckoutHandler) ShippingAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addr, ok, err := h.checkout.ShippingAddress(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "no saved shipping address")
		return
	}
	respondJSON(w, http.StatusOK, addr)
}
