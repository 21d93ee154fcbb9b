package domain

import "fmt"

type OrderStatus string

const (
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaymentVerified OrderStatus = "PAYMENT_VERIFIED"
	OrderStatusProcessing      OrderStatus = "PROCESSING"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusCompleted       OrderStatus = "COMPLETED"
)

// orderLifecycle lists statuses in the only direction an order may move.
var orderLifecycle = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusPaymentVerified,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusCompleted,
}

// OrderLifecycle returns the forward sequence of statuses.
func OrderLifecycle() []OrderStatus {
	out := make([]OrderStatus, len(orderLifecycle))
	copy(out, orderLifecycle)
	return out
}

func (s OrderStatus) rank() int {
	for i, st := range orderLifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.rank() >= 0
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted
}

// CanTransitionTo reports whether next lies strictly ahead of s.
// Forward jumps are allowed; a completed order never changes.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() || !next.Valid() {
		return false
	}
	return next.rank() > s.rank()
}

// Next returns the status that immediately follows s.
func (s OrderStatus) Next() (OrderStatus, bool) {
	r := s.rank()
	if r < 0 || r+1 >= len(orderLifecycle) {
		return "", false
	}
	return orderLifecycle[r+1], true
}

func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}
