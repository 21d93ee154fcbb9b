package payment

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedDecider struct {
	approved bool
	refusal  Refusal
}

func (f fixedDecider) Decide() (bool, Refusal) {
	return f.approved, f.refusal
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		roll     int
		approved bool
		refusal  Refusal
	}{
		{name: "low roll approves", roll: 10, approved: true, refusal: RefusalNone},
		{name: "edge approves", roll: 94, approved: true, refusal: RefusalNone},
		{name: "95 unknown", roll: 95, approved: false, refusal: RefusalUnknown},
		{name: "96 no funds", roll: 96, approved: false, refusal: RefusalNoFunds},
		{name: "100 issuer down", roll: 100, approved: false, refusal: RefusalIssuerDown},
		{name: "out of range unknown", roll: 101, approved: false, refusal: RefusalUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approved, refusal := decide(tt.roll)
			assert.Equal(t, tt.approved, approved)
			assert.Equal(t, tt.refusal, refusal)
		})
	}
}

func TestSimulator_Charge(t *testing.T) {
	tests := []struct {
		name    string
		decider Decider
	}{
		{name: "approved", decider: AlwaysApprove{}},
		{name: "declined", decider: fixedDecider{approved: false, refusal: RefusalNoFunds}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(time.Millisecond, tt.decider)
			charge, err := sim.Charge(context.Background(), "checkout-1", domain.PaymentMethodQRIS, 1000)
			require.NoError(t, err)

			approved, refusal := tt.decider.Decide()
			assert.Equal(t, approved, charge.Approved)
			assert.Equal(t, refusal, charge.Refusal)
			assert.Equal(t, "checkout-1", charge.CheckoutID)
			assert.Equal(t, int64(1000), charge.Amount)
			assert.Contains(t, charge.TransactionID, "TXN-")
		})
	}
}

func TestSimulator_NilDeciderApproves(t *testing.T) {
	sim := NewSimulator(0, nil)
	charge, err := sim.Charge(context.Background(), "c", domain.PaymentMethodCreditCard, 1)
	require.NoError(t, err)
	assert.True(t, charge.Approved)
}

func TestSimulator_CancelledBeforeDelay(t *testing.T) {
	sim := NewSimulator(time.Hour, AlwaysApprove{})
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := sim.Charge(ctx, "c", domain.PaymentMethodEWallet, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
