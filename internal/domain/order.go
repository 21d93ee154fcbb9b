package domain

import (
	"time"
)

type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Notes      string `json:"notes,omitempty"`
}

type PaymentMethod string

const (
	PaymentMethodQRIS         PaymentMethod = "qris"
	PaymentMethodBankTransfer PaymentMethod = "bank-transfer"
	PaymentMethodEWallet      PaymentMethod = "e-wallet"
	PaymentMethodCreditCard   PaymentMethod = "credit-card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodQRIS, PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodCreditCard:
		return true
	}
	return false
}

// OrderDraft is what checkout hands to the order container.
type OrderDraft struct {
	ID              string          `json:"id,omitempty"`
	UserID          string          `json:"userId,omitempty"`
	Items           []CartItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	ShippingMethod  ShippingMethod  `json:"shippingMethod"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod,omitempty"`
	Subtotal        int64           `json:"subtotal"`
	ShippingCost    int64           `json:"shippingCost"`
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId,omitempty"`
	Items           []CartItem      `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	ShippingMethod  ShippingMethod  `json:"shippingMethod"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod,omitempty"`
	Subtotal        int64           `json:"subtotal"`
	ShippingCost    int64           `json:"shippingCost"`
	Total           int64           `json:"total"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Clone copies the line items so the returned order shares nothing with o.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]CartItem, len(o.Items))
	copy(out.Items, o.Items)
	return out
}
