package domain

import "time"

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "order.created"
	OrderEventStatusChanged OrderEventType = "order.status_changed"
)

// OrderEvent is emitted after an order change has been persisted.
type OrderEvent struct {
	Type       OrderEventType `json:"type"`
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id,omitempty"`
	Status     OrderStatus    `json:"status"`
	PrevStatus OrderStatus    `json:"prev_status,omitempty"`
	Total      int64          `json:"total"`
	OccurredAt time.Time      `json:"occurred_at"`
}
