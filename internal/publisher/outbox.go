package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"go.uber.org/zap"
)

// EventPublisher delivers a single order event.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.OrderEvent) error
}

type outboxState struct {
	Events []domain.OrderEvent `json:"events"`
}

// Outbox publishes through next and parks events that fail under
// storage.KeyEventOutbox. Run redelivers them in order.
type Outbox struct {
	mu     sync.Mutex
	next   EventPublisher
	store  storage.Store
	logger *zap.Logger
	tick   time.Duration
}

func NewOutbox(next EventPublisher, store storage.Store, logger *zap.Logger, tick time.Duration) *Outbox {
	return &Outbox{next: next, store: store, logger: logger, tick: tick}
}

// Publish never loses an event: if delivery fails it is queued and nil is
// returned. Events queue behind earlier undelivered ones to keep ordering.
func (o *Outbox) Publish(ctx context.Context, event domain.OrderEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending, err := o.load(ctx)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		err := o.next.Publish(ctx, event)
		if err == nil {
			return nil
		}
		o.logger.Warn("order event parked in outbox",
			zap.String("order_id", event.OrderID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}

	return o.save(ctx, append(pending, event))
}

func (o *Outbox) Run(ctx context.Context) {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			o.Flush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Flush redelivers parked events until one fails and returns how many went out.
func (o *Outbox) Flush(ctx context.Context) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	pending, err := o.load(ctx)
	if err != nil {
		o.logger.Error("failed to read outbox", zap.Error(err))
		return 0
	}
	if len(pending) == 0 {
		return 0
	}

	sent := 0
	for _, event := range pending {
		if err := o.next.Publish(ctx, event); err != nil {
			o.logger.Warn("failed to redeliver order event",
				zap.String("order_id", event.OrderID),
				zap.Error(err))
			break
		}
		sent++
	}
	if sent == 0 {
		return 0
	}

	if err := o.save(ctx, pending[sent:]); err != nil {
		o.logger.Error("failed to mark outbox events as delivered", zap.Int("sent", sent), zap.Error(err))
	}
	o.logger.Info("outbox flushed", zap.Int("sent", sent), zap.Int("left", len(pending)-sent))
	return sent
}

// Pending returns the number of parked events.
func (o *Outbox) Pending(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pending, err := o.load(ctx)
	return len(pending), err
}

func (o *Outbox) load(ctx context.Context) ([]domain.OrderEvent, error) {
	var state outboxState
	err := o.store.Load(ctx, storage.KeyEventOutbox, &state)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}
	return state.Events, nil
}

func (o *Outbox) save(ctx context.Context, events []domain.OrderEvent) error {
	if len(events) == 0 {
		if err := o.store.Delete(ctx, storage.KeyEventOutbox); err != nil {
			return fmt.Errorf("clear outbox: %w", err)
		}
		return nil
	}
	if err := o.store.Save(ctx, storage.KeyEventOutbox, outboxState{Events: events}); err != nil {
		return fmt.Errorf("save outbox: %w", err)
	}
	return nil
}
