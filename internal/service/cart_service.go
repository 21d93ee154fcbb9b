package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

// CartService owns the cart line items and the selection set.
// Every mutation is persisted under storage.KeyCart before it becomes visible.
type CartService struct {
	mu     sync.RWMutex
	store  storage.Store
	logger *zap.Logger
	cart   domain.Cart
}

func NewCartService(store storage.Store, logger *zap.Logger) *CartService {
	return &CartService{
		store:  store,
		logger: logger,
		cart:   domain.Cart{Items: []domain.CartItem{}, SelectedItems: []string{}},
	}
}

// Load replaces the in-memory cart with the persisted one. A missing key
// leaves an empty cart.
func (s *CartService) Load(ctx context.Context) error {
	var persisted domain.Cart
	err := s.store.Load(ctx, storage.KeyCart, &persisted)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	if persisted.Items == nil {
		persisted.Items = []domain.CartItem{}
	}
	if persisted.SelectedItems == nil {
		persisted.SelectedItems = []string{}
	}

	s.mu.Lock()
	s.cart = persisted
	s.mu.Unlock()
	return nil
}

// mutate applies fn to a copy, persists it, then commits.
// On a failed save the cart keeps its previous state.
func (s *CartService) mutate(ctx context.Context, fn func(c *domain.Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	fn(&next)

	if err := s.store.Save(ctx, storage.KeyCart, next); err != nil {
		s.logger.Error("persist cart failed", zap.Error(err))
		return fmt.Errorf("persist cart: %w", err)
	}
	s.cart = next
	return nil
}

// AddItem bumps the quantity of an existing line or appends a new selected
// line with quantity 1.
func (s *CartService) AddItem(ctx context.Context, product domain.Product) error {
	return s.AddQuantity(ctx, product, 1, 0)
}

// AddQuantity adds qty units of product in a single mutation. A positive limit
// caps the resulting line quantity. qty < 1 counts as 1.
func (s *CartService) AddQuantity(ctx context.Context, product domain.Product, qty, limit int) error {
	if qty < 1 {
		qty = 1
	}
	return s.mutate(ctx, func(c *domain.Cart) {
		i := c.IndexOf(product.ID)
		if i >= 0 {
			c.Items[i].Quantity += qty
		} else {
			item := product.ToCartItem()
			item.Quantity = qty
			c.Items = append(c.Items, item)
			i = len(c.Items) - 1
			if !c.IsSelected(product.ID) {
				c.SelectedItems = append(c.SelectedItems, product.ID)
			}
		}
		if limit > 0 && c.Items[i].Quantity > limit {
			c.Items[i].Quantity = limit
		}
	})
}

// RemoveItem drops the line and its selection. Absent ids are a no-op.
func (s *CartService) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		removeLine(c, productID)
	})
}

// SetQuantity overwrites the quantity; qty < 1 removes the line.
// Unknown ids are a no-op.
func (s *CartService) SetQuantity(ctx context.Context, productID string, qty int) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		if qty < 1 {
			removeLine(c, productID)
			return
		}
		if i := c.IndexOf(productID); i >= 0 {
			c.Items[i].Quantity = qty
		}
	})
}

func (s *CartService) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		c.Items = []domain.CartItem{}
		c.SelectedItems = []string{}
	})
}

// ToggleSelection flips the selection of a line in the cart.
func (s *CartService) ToggleSelection(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		if c.IndexOf(productID) < 0 {
			return
		}
		if c.IsSelected(productID) {
			c.SelectedItems = without(c.SelectedItems, productID)
			return
		}
		c.SelectedItems = append(c.SelectedItems, productID)
	})
}

func (s *CartService) SelectAll(ctx context.Context) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		ids := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			ids = append(ids, item.ProductID)
		}
		c.SelectedItems = ids
	})
}

func (s *CartService) DeselectAll(ctx context.Context) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		c.SelectedItems = []string{}
	})
}

// RemoveSelected drops every selected line and empties the selection.
func (s *CartService) RemoveSelected(ctx context.Context) error {
	return s.mutate(ctx, func(c *domain.Cart) {
		kept := make([]domain.CartItem, 0, len(c.Items))
		for _, item := range c.Items {
			if !c.IsSelected(item.ProductID) {
				kept = append(kept, item)
			}
		}
		c.Items = kept
		c.SelectedItems = []string{}
	})
}

// Snapshot returns a copy of the whole cart.
func (s *CartService) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

func (s *CartService) Items() []domain.CartItem {
	return s.Snapshot().Items
}

// Total is Σ(unitPrice × quantity) over all lines.
func (s *CartService) Total() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.SumItems(s.cart.Items)
}

// ItemCount is the sum of quantities.
func (s *CartService) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, item := range s.cart.Items {
		n += item.Quantity
	}
	return n
}

func (s *CartService) SelectedItems() []domain.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	selected := make([]domain.CartItem, 0, len(s.cart.SelectedItems))
	for _, item := range s.cart.Items {
		if s.cart.IsSelected(item.ProductID) {
			selected = append(selected, item)
		}
	}
	return selected
}

func (s *CartService) SelectedTotal() int64 {
	return domain.SumItems(s.SelectedItems())
}

// CheckoutItems returns the selected lines, or every line when nothing is selected.
func (s *CartService) CheckoutItems() []domain.CartItem {
	if selected := s.SelectedItems(); len(selected) > 0 {
		return selected
	}
	return s.Items()
}

func removeLine(c *domain.Cart, productID string) {
	if i := c.IndexOf(productID); i >= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}
	c.SelectedItems = without(c.SelectedItems, productID)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
