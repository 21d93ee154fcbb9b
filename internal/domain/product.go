package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Price              int64     `json:"price"`
	Category           string    `json:"category"`
	Stock              int       `json:"stock"`
	Rating             float64   `json:"rating"`
	DiscountPercentage float64   `json:"discountPercentage"`
	Image              string    `json:"image"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// FinalPrice is Price reduced by DiscountPercentage, rounded to whole units.
func (p Product) FinalPrice() int64 {
	if p.DiscountPercentage <= 0 {
		return p.Price
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p.DiscountPercentage).Div(hundred))
	return decimal.NewFromInt(p.Price).Mul(factor).Round(0).IntPart()
}

// ToCartItem snapshots the product as a cart line with quantity 1.
// The cart charges list price; discounts are display-only.
func (p Product) ToCartItem() CartItem {
	return CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
		Image:     p.Image,
	}
}
