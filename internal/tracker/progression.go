// Package tracker drives a paid order through the remaining lifecycle stages
// on a timer, the way a fulfilment backend would report progress.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/service"
	"go.uber.org/zap"
)

// StatusUpdater is the subset of the order container the tracker needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
}

var progressionSteps = []domain.OrderStatus{
	domain.OrderStatusPaymentVerified,
	domain.OrderStatusProcessing,
	domain.OrderStatusShipped,
	domain.OrderStatusCompleted,
}

type Progression struct {
	updater StatusUpdater
	step    time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	running map[string]*Handle
}

func NewProgression(updater StatusUpdater, step time.Duration, logger *zap.Logger) *Progression {
	return &Progression{
		updater: updater,
		step:    step,
		logger:  logger,
		running: make(map[string]*Handle),
	}
}

// Handle controls one running progression.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Stop cancels every pending step. Safe to call more than once.
func (h *Handle) Stop() {
	h.cancel()
}

// Wait blocks until the progression finished or was stopped and returns the
// error that ended it, nil when the order reached Completed.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start begins advancing orderID one stage per step. Starting an order that
// already has a running progression returns the existing handle.
func (p *Progression) Start(ctx context.Context, orderID string) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	if h, ok := p.running[orderID]; ok {
		return h
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	p.running[orderID] = h

	go func() {
		defer close(h.done)
		defer cancel()
		h.err = p.run(ctx, orderID)

		p.mu.Lock()
		delete(p.running, orderID)
		p.mu.Unlock()
	}()

	return h
}

// Stop cancels the progression of orderID and reports whether one was running.
func (p *Progression) Stop(orderID string) bool {
	p.mu.Lock()
	h, ok := p.running[orderID]
	p.mu.Unlock()
	if !ok {
		return false
	}
	h.Stop()
	<-h.done
	return true
}

// StopAll cancels every running progression and waits for them to exit.
func (p *Progression) StopAll() {
	p.mu.Lock()
	handles := make([]*Handle, 0, len(p.running))
	for _, h := range p.running {
		handles = append(handles, h)
	}
	p.mu.Unlock()

	for _, h := range handles {
		h.Stop()
		<-h.done
	}
}

func (p *Progression) run(ctx context.Context, orderID string) error {
	ticker := time.NewTicker(p.step)
	defer ticker.Stop()

	for _, status := range progressionSteps {
		select {
		case <-ctx.Done():
			p.logger.Info("order progression stopped", zap.String("order_id", orderID))
			return ctx.Err()
		case <-ticker.C:
		}

		order, err := p.updater.UpdateStatus(ctx, orderID, status)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// an admin already moved the order past this stage
			if errors.Is(err, service.ErrIllegalTransition) {
				continue
			}
			p.logger.Error("order progression failed",
				zap.String("order_id", orderID),
				zap.String("status", string(status)),
				zap.Error(err))
			return err
		}
		p.logger.Info("order progressed", zap.String("order_id", orderID), zap.String("status", string(order.Status)))
	}
	return nil
}
