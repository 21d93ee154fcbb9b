// Package payment simulates a payment gateway: a charge completes after a
// fixed delay with an outcome chosen by a Decider.
package payment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type Refusal string

const (
	RefusalNone          Refusal = ""
	RefusalUnknown       Refusal = "unknown reason"
	RefusalNoFunds       Refusal = "insufficient funds"
	RefusalCardExpired   Refusal = "card expired"
	RefusalFraudSuspect  Refusal = "suspected fraud"
	RefusalLimitExceeded Refusal = "limit exceeded"
	RefusalIssuerDown    Refusal = "issuer unavailable"
)

var knownRefusals = []Refusal{
	RefusalNoFunds,
	RefusalCardExpired,
	RefusalFraudSuspect,
	RefusalLimitExceeded,
	RefusalIssuerDown,
}

type Charge struct {
	CheckoutID    string
	TransactionID string
	Method        domain.PaymentMethod
	Amount        int64
	Approved      bool
	Refusal       Refusal
}

// Decider picks the outcome of a charge.
type Decider interface {
	Decide() (bool, Refusal)
}

// AlwaysApprove approves every charge, as the demo storefront does.
type AlwaysApprove struct{}

func (AlwaysApprove) Decide() (bool, Refusal) {
	return true, RefusalNone
}

// RandomDecider approves about 95% of charges.
type RandomDecider struct{}

func (RandomDecider) Decide() (bool, Refusal) {
	return decide(rand.Intn(101))
}

func decide(roll int) (bool, Refusal) {
	if roll < 95 {
		return true, RefusalNone
	}
	reason := roll - 95
	if reason == 0 || reason > len(knownRefusals) {
		return false, RefusalUnknown
	}
	return false, knownRefusals[reason-1]
}

type Simulator struct {
	delay   time.Duration
	decider Decider
}

func NewSimulator(delay time.Duration, decider Decider) *Simulator {
	if decider == nil {
		decider = AlwaysApprove{}
	}
	return &Simulator{delay: delay, decider: decider}
}

// Charge waits for the processing delay and then decides. Cancelling ctx
// before the delay elapses aborts the charge with ctx.Err().
func (s *Simulator) Charge(ctx context.Context, checkoutID string, method domain.PaymentMethod, amount int64) (Charge, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Charge{}, ctx.Err()
	case <-timer.C:
	}

	approved, refusal := s.decider.Decide()
	return Charge{
		CheckoutID:    checkoutID,
		TransactionID: fmt.Sprintf("TXN-%d", time.Now().UnixNano()),
		Method:        method,
		Amount:        amount,
		Approved:      approved,
		Refusal:       refusal,
	}, nil
}
