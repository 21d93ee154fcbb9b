package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PaymentGateway charges a pending checkout.
type PaymentGateway interface {
	Charge(ctx context.Context, checkoutID string, method domain.PaymentMethod, amount int64) (payment.Charge, error)
}

// UserSource reports the signed-in user, if any.
type UserSource interface {
	CurrentUser() (domain.User, bool)
}

type CheckoutRequest struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	ShippingMethod  domain.ShippingMethod  `json:"shippingMethod"`
}

// PendingCheckout is the draft waiting for payment.
type PendingCheckout struct {
	Draft domain.OrderDraft `json:"draft"`
	Total int64             `json:"total"`
}

type PaymentResult struct {
	Order         domain.Order `json:"order"`
	TransactionID string       `json:"transactionId"`
}

type CheckoutService struct {
	mu        sync.Mutex
	store     storage.Store
	cart      *CartService
	orders    *OrderService
	users     UserSource
	gateway   PaymentGateway
	validate  *validator.Validate
	logger    *zap.Logger
	threshold int64
}

type CheckoutOption func(*CheckoutService)

func WithCheckoutFreeShippingThreshold(threshold int64) CheckoutOption {
	return func(s *CheckoutService) { s.threshold = threshold }
}

func NewCheckoutService(
	store storage.Store,
	cart *CartService,
	orders *OrderService,
	users UserSource,
	gateway PaymentGateway,
	logger *zap.Logger,
	opts ...CheckoutOption,
) *CheckoutService {
	s := &CheckoutService{
		store:     store,
		cart:      cart,
		orders:    orders,
		users:     users,
		gateway:   gateway,
		validate:  validator.New(),
		logger:    logger,
		threshold: domain.DefaultFreeShippingThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare snapshots the checkout items, quotes shipping and stores the draft
// under storage.KeyPendingOrder. The address is cached for the next visit.
func (s *CheckoutService) Prepare(ctx context.Context, req CheckoutRequest) (PendingCheckout, error) {
	items := s.cart.CheckoutItems()
	if len(items) == 0 {
		return PendingCheckout{}, ErrEmptyCart
	}

	if err := s.validate.StructCtx(ctx, req.ShippingAddress); err != nil {
		return PendingCheckout{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	subtotal := domain.SumItems(items)
	shipping, err := domain.QuoteShipping(req.ShippingMethod, subtotal, s.threshold)
	if err != nil {
		return PendingCheckout{}, fmt.Errorf("%w: %q", ErrInvalidShippingMethod, req.ShippingMethod)
	}

	draft := domain.OrderDraft{
		ID:              NewOrderID(),
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		ShippingMethod:  req.ShippingMethod,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
	}
	if u, ok := s.users.CurrentUser(); ok {
		draft.UserID = u.ID
	}
	pending := PendingCheckout{Draft: draft, Total: subtotal + shipping}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, storage.KeyShippingAddress, req.ShippingAddress); err != nil {
		s.logger.Warn("cache shipping address failed", zap.Error(err))
	}
	if err := s.store.Save(ctx, storage.KeyPendingOrder, pending); err != nil {
		s.logger.Error("persist pending checkout failed", zap.Error(err))
		return PendingCheckout{}, fmt.Errorf("persist pending checkout: %w", err)
	}

	s.logger.Info("checkout prepared",
		zap.String("checkout_id", draft.ID),
		zap.Int("items", len(items)),
		zap.Int64("total", pending.Total))
	return pending, nil
}

// Pending returns the draft waiting for payment.
func (s *CheckoutService) Pending(ctx context.Context) (PendingCheckout, error) {
	var pending PendingCheckout
	err := s.store.Load(ctx, storage.KeyPendingOrder, &pending)
	if errors.Is(err, storage.ErrNotFound) {
		return PendingCheckout{}, ErrNoPendingCheckout
	}
	if err != nil {
		return PendingCheckout{}, fmt.Errorf("load pending checkout: %w", err)
	}
	return pending, nil
}

// Pay charges the pending draft. On approval the order is created, the cart
// cleared and the draft removed. A cancelled ctx or a declined charge leaves
// everything as it was.
func (s *CheckoutService) Pay(ctx context.Context, method domain.PaymentMethod) (PaymentResult, error) {
	if !method.Valid() {
		return PaymentResult{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.Pending(ctx)
	if err != nil {
		return PaymentResult{}, err
	}

	charge, err := s.gateway.Charge(ctx, pending.Draft.ID, method, pending.Total)
	if err != nil {
		s.logger.Info("payment aborted", zap.String("checkout_id", pending.Draft.ID), zap.Error(err))
		return PaymentResult{}, fmt.Errorf("charge checkout %s: %w", pending.Draft.ID, err)
	}
	if !charge.Approved {
		s.logger.Info("payment declined",
			zap.String("checkout_id", pending.Draft.ID),
			zap.String("reason", string(charge.Refusal)))
		return PaymentResult{}, fmt.Errorf("%w: %s", ErrPaymentDeclined, charge.Refusal)
	}

	draft := pending.Draft
	draft.PaymentMethod = method
	if draft.UserID == "" {
		if u, ok := s.users.CurrentUser(); ok {
			draft.UserID = u.ID
		}
	}

	order, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		return PaymentResult{}, err
	}

	if err := s.cart.Clear(ctx); err != nil {
		s.logger.Error("clear cart after payment failed", zap.String("order_id", order.ID), zap.Error(err))
	}
	if err := s.store.Delete(ctx, storage.KeyPendingOrder); err != nil {
		s.logger.Warn("delete pending checkout failed", zap.String("order_id", order.ID), zap.Error(err))
	}

	s.logger.Info("payment completed",
		zap.String("order_id", order.ID),
		zap.String("transaction_id", charge.TransactionID),
		zap.String("method", string(method)))
	return PaymentResult{Order: order, TransactionID: charge.TransactionID}, nil
}

// ShippingAddress returns the last address used at checkout.
func (s *CheckoutService) ShippingAddress(ctx context.Context) (domain.ShippingAddress, bool, error) {
	var addr domain.ShippingAddress
	err := s.store.Load(ctx, storage.KeyShippingAddress, &addr)
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ShippingAddress{}, false, nil
	}
	if err != nil {
		return domain.ShippingAddress{}, false, fmt.Errorf("load shipping address: %w", err)
	}
	return addr, true, nil
}
