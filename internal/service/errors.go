package service

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrEmptyOrder            = errors.New("order has no line items")
	ErrOrderNotFound         = errors.New("order not found")
	ErrDuplicateOrder        = errors.New("order with this id already exists")
	ErrIllegalTransition     = errors.New("illegal transition of order status")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrDuplicateEmail        = errors.New("email is already registered")
	ErrUnknownRole           = errors.New("unknown role")
	ErrNoPendingCheckout     = errors.New("no pending checkout")
	ErrInvalidShippingMethod = errors.New("invalid shipping method")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrPaymentDeclined       = errors.New("payment declined")
	ErrInvalidAddress        = errors.New("invalid shipping address")
	ErrNotAuthenticated      = errors.New("not authenticated")
)
