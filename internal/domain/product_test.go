package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinalPrice(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		discount float64
		want     int64
	}{
		{name: "no discount", price: 25_999_000, discount: 0, want: 25_999_000},
		{name: "15 percent", price: 25_999_000, discount: 15, want: 22_099_150},
		{name: "10 percent", price: 12_499_000, discount: 10, want: 11_249_100},
		{name: "rounds half up", price: 5, discount: 50, want: 3},
		{name: "fractional discount", price: 1000, discount: 12.5, want: 875},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Product{Price: tt.price, DiscountPercentage: tt.discount}
			assert.Equal(t, tt.want, p.FinalPrice())
		})
	}
}

func TestSumItems(t *testing.T) {
	assert.Equal(t, int64(0), SumItems(nil))
	assert.Equal(t, int64(3500), SumItems([]CartItem{
		{UnitPrice: 1000, Quantity: 3},
		{UnitPrice: 250, Quantity: 2},
	}))
}
