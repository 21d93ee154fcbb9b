package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher receives order events after they are persisted.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

type orderState struct {
	Orders []domain.Order `json:"orders"`
}

type OrderService struct {
	mu        sync.RWMutex
	store     storage.Store
	publisher EventPublisher
	logger    *zap.Logger

	now       func() time.Time
	newID     func() string
	threshold int64

	orders []domain.Order
}

type OrderOption func(*OrderService)

func WithPublisher(p EventPublisher) OrderOption {
	return func(s *OrderService) { s.publisher = p }
}

func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func WithIDGenerator(gen func() string) OrderOption {
	return func(s *OrderService) { s.newID = gen }
}

// WithFreeShippingThreshold sets the subtotal from which shipping is waived.
// Zero disables free shipping.
func WithFreeShippingThreshold(threshold int64) OrderOption {
	return func(s *OrderService) { s.threshold = threshold }
}

func NewOrderService(store storage.Store, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		store:     store,
		logger:    logger,
		now:       time.Now,
		newID:     NewOrderID,
		threshold: domain.DefaultFreeShippingThreshold,
		orders:    []domain.Order{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewOrderID returns ids of the form WOWO-1A2B3C4D.
func NewOrderID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "WOWO-" + strings.ToUpper(raw[:8])
}

func (s *OrderService) Load(ctx context.Context) error {
	var persisted orderState
	err := s.store.Load(ctx, storage.KeyOrders, &persisted)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	if persisted.Orders == nil {
		persisted.Orders = []domain.Order{}
	}
	s.mu.Lock()
	s.orders = persisted.Orders
	s.mu.Unlock()
	return nil
}

// CreateOrder finalizes draft: id, timestamps, initial status and totals.
// Line items are copied, so later cart changes never reach the order.
func (s *OrderService) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	if len(draft.Items) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}

	order, err := s.insert(ctx, draft)
	if err != nil {
		return domain.Order{}, err
	}

	s.publish(ctx, domain.OrderEvent{
		Type:       domain.OrderEventCreated,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.Total,
		OccurredAt: order.CreatedAt,
	})

	return order, nil
}

func (s *OrderService) insert(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := draft.ID
	if id == "" {
		id = s.newID()
	}
	if s.indexOf(id) >= 0 {
		return domain.Order{}, ErrDuplicateOrder
	}

	items := make([]domain.CartItem, len(draft.Items))
	copy(items, draft.Items)

	subtotal := draft.Subtotal
	if subtotal == 0 {
		subtotal = domain.SumItems(items)
	}
	shipping := domain.ApplyFreeShipping(subtotal, draft.ShippingCost, s.threshold)

	now := s.now()
	order := domain.Order{
		ID:              id,
		UserID:          draft.UserID,
		Items:           items,
		ShippingAddress: draft.ShippingAddress,
		ShippingMethod:  draft.ShippingMethod,
		PaymentMethod:   draft.PaymentMethod,
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		Total:           subtotal + shipping,
		Status:          domain.OrderStatusAwaitingPayment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	next := s.cloneOrders()
	next = append(next, order)
	if err := s.persist(ctx, next, order); err != nil {
		return domain.Order{}, err
	}
	s.orders = next
	return order.Clone(), nil
}

// UpdateStatus moves an order forward. Setting the current status again is a
// no-op; moving backwards or out of Completed returns ErrIllegalTransition.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, status)
	}

	updated, prev, err := s.transition(ctx, orderID, status)
	if err != nil {
		return domain.Order{}, err
	}
	if prev == updated.Status {
		return updated, nil
	}

	s.publish(ctx, domain.OrderEvent{
		Type:       domain.OrderEventStatusChanged,
		OrderID:    updated.ID,
		UserID:     updated.UserID,
		Status:     updated.Status,
		PrevStatus: prev,
		Total:      updated.Total,
		OccurredAt: updated.UpdatedAt,
	})

	return updated, nil
}

// transition commits the status change and returns the order with the status
// it had before.
func (s *OrderService) transition(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, domain.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(orderID)
	if i < 0 {
		return domain.Order{}, "", ErrOrderNotFound
	}

	current := s.orders[i]
	if current.Status == status {
		return current.Clone(), current.Status, nil
	}
	if !current.Status.CanTransitionTo(status) {
		return domain.Order{}, "", fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, status)
	}

	next := s.cloneOrders()
	next[i].Status = status
	next[i].UpdatedAt = s.now()
	if err := s.persist(ctx, next, next[i]); err != nil {
		return domain.Order{}, "", err
	}
	s.orders = next
	return next[i].Clone(), current.Status, nil
}

// GetOrder reads the per-order key first and falls back to the collection.
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	var order domain.Order
	err := s.store.Load(ctx, storage.OrderKey(orderID), &order)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("order lookup by key failed", zap.String("order_id", orderID), zap.Error(err))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(orderID); i >= 0 {
		return s.orders[i].Clone(), nil
	}
	return domain.Order{}, ErrOrderNotFound
}

// Orders returns every order in creation order.
func (s *OrderService) Orders() []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneOrders()
}

func (s *OrderService) OrdersByUser(userID string) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Order{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o.Clone())
		}
	}
	return out
}

// persist writes the per-order key and then the collection. If the collection
// write fails the per-order key is rolled back on a best-effort basis.
func (s *OrderService) persist(ctx context.Context, orders []domain.Order, changed domain.Order) error {
	key := storage.OrderKey(changed.ID)

	var previous *domain.Order
	if i := s.indexOf(changed.ID); i >= 0 {
		prev := s.orders[i]
		previous = &prev
	}

	if err := s.store.Save(ctx, key, changed); err != nil {
		s.logger.Error("persist order failed", zap.String("order_id", changed.ID), zap.Error(err))
		return fmt.Errorf("persist order %s: %w", changed.ID, err)
	}

	if err := s.store.Save(ctx, storage.KeyOrders, orderState{Orders: orders}); err != nil {
		s.logger.Error("persist orders failed", zap.Error(err))

		var rollbackErr error
		if previous != nil {
			rollbackErr = s.store.Save(ctx, key, *previous)
		} else {
			rollbackErr = s.store.Delete(ctx, key)
		}
		if rollbackErr != nil {
			s.logger.Error("rollback order key failed", zap.String("order_id", changed.ID), zap.Error(rollbackErr))
		}
		return fmt.Errorf("persist orders: %w", err)
	}
	return nil
}

// publish runs outside s.mu so a slow broker never blocks readers.
func (s *OrderService) publish(ctx context.Context, event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish order event failed",
			zap.String("order_id", event.OrderID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

func (s *OrderService) indexOf(id string) int {
	for i, o := range s.orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *OrderService) cloneOrders() []domain.Order {
	out := make([]domain.Order, len(s.orders))
	for i, o := range s.orders {
		out[i] = o.Clone()
	}
	return out
}
