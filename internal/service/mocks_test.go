package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/payment"
	"github.com/fjod/go_cart/storefront/internal/storage"
)

var errStoreDown = errors.New("store down")

// failingStore wraps a MemoryStore and fails saves for the keys in failKeys,
// or for every key when failAll is set.
type failingStore struct {
	*storage.MemoryStore

	mu        sync.Mutex
	failAll   bool
	failKeys  map[string]bool
	saveCalls int
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryStore: storage.NewMemoryStore(), failKeys: map[string]bool{}}
}

func (f *failingStore) Save(ctx context.Context, key string, value any) error {
	f.mu.Lock()
	f.saveCalls++
	fail := f.failAll || f.failKeys[key]
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.MemoryStore.Save(ctx, key, value)
}

func (f *failingStore) setFailAll(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = v
}

func (f *failingStore) failKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failKeys[key] = true
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, event domain.OrderEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) published() []domain.OrderEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.OrderEvent, len(m.events))
	copy(out, m.events)
	return out
}

// blockingPublisher holds every Publish until release is closed.
type blockingPublisher struct {
	entered chan domain.OrderEvent
	release chan struct{}
}

func newBlockingPublisher() *blockingPublisher {
	return &blockingPublisher{
		entered: make(chan domain.OrderEvent, 8),
		release: make(chan struct{}),
	}
}

func (b *blockingPublisher) Publish(ctx context.Context, event domain.OrderEvent) error {
	b.entered <- event
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type mockGateway struct {
	charge payment.Charge
	err    error
	calls  int
	amount int64
}

func (m *mockGateway) Charge(_ context.Context, checkoutID string, method domain.PaymentMethod, amount int64) (payment.Charge, error) {
	m.calls++
	m.amount = amount
	if m.err != nil {
		return payment.Charge{}, m.err
	}
	c := m.charge
	c.CheckoutID = checkoutID
	c.Method = method
	c.Amount = amount
	return c, nil
}

func approvingGateway() *mockGateway {
	return &mockGateway{charge: payment.Charge{TransactionID: "TXN-1", Approved: true}}
}

type mockUsers struct {
	user *domain.User
}

func (m mockUsers) CurrentUser() (domain.User, bool) {
	if m.user == nil {
		return domain.User{}, false
	}
	return *m.user, true
}

func product(id string, price int64) domain.Product {
	return domain.Product{ID: id, Name: "Product " + id, Price: price, Image: id + ".png"}
}
