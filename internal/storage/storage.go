// Package storage holds the persistence port used by the state containers
// and its backends. Values are stored JSON-encoded under string keys.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Store is the persistence port. Save overwrites the whole value under key.
type Store interface {
	Save(ctx context.Context, key string, value any) error
	Load(ctx context.Context, key string, dest any) error
	Delete(ctx context.Context, key string) error
}

// Fixed keys of the storefront namespace.
const (
	KeyCart            = "cart-storage"
	KeyOrders          = "order-storage"
	KeyAuth            = "wowotech-auth"
	KeyShippingAddress = "wowotech-shipping-address"
	KeyPendingOrder    = "wowotech-pending-order"
	KeyEventOutbox     = "order-event-outbox"
)

// OrderKey is the per-order key used for direct lookup by id.
func OrderKey(id string) string {
	return fmt.Sprintf("order-%s", id)
}
