package domain

import "fmt"

type ShippingMethod string

const (
	ShippingRegular ShippingMethod = "regular"
	ShippingExpress ShippingMethod = "express"
	ShippingSameDay ShippingMethod = "same-day"
)

// DefaultFreeShippingThreshold is the subtotal at or above which shipping is free.
const DefaultFreeShippingThreshold int64 = 1_000_000

type ShippingOption struct {
	Method      ShippingMethod `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
}

var shippingOptions = []ShippingOption{
	{Method: ShippingRegular, Name: "Regular Shipping", Description: "3-5 business days", Price: 25_000},
	{Method: ShippingExpress, Name: "Express Shipping", Description: "1-2 business days", Price: 50_000},
	{Method: ShippingSameDay, Name: "Same Day Delivery", Description: "Same day (within city)", Price: 75_000},
}

func ShippingOptions() []ShippingOption {
	out := make([]ShippingOption, len(shippingOptions))
	copy(out, shippingOptions)
	return out
}

func (m ShippingMethod) Option() (ShippingOption, error) {
	for _, opt := range shippingOptions {
		if opt.Method == m {
			return opt, nil
		}
	}
	return ShippingOption{}, fmt.Errorf("unknown shipping method %q", m)
}

// ApplyFreeShipping zeroes cost when subtotal reaches threshold.
// A threshold of zero or less disables the rule.
func ApplyFreeShipping(subtotal, cost, threshold int64) int64 {
	if threshold > 0 && subtotal >= threshold {
		return 0
	}
	return cost
}

// QuoteShipping returns the shipping cost for method after the free-shipping rule.
func QuoteShipping(method ShippingMethod, subtotal, threshold int64) (int64, error) {
	opt, err := method.Option()
	if err != nil {
		return 0, err
	}
	return ApplyFreeShipping(subtotal, opt.Price, threshold), nil
}
