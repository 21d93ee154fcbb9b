package domain

// CartItem is a line item: a product snapshot paired with a quantity.
// Prices are integer currency units.
type CartItem struct {
	ProductID string `json:"productId" bson:"product_id"`
	Name      string `json:"name" bson:"name"`
	UnitPrice int64  `json:"unitPrice" bson:"unit_price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	Image     string `json:"image,omitempty" bson:"image,omitempty"`
}

// LineTotal is UnitPrice × Quantity.
func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Cart is the persisted shape of the cart container.
type Cart struct {
	Items         []CartItem `json:"items"`
	SelectedItems []string   `json:"selectedItems"`
}

// Clone returns a deep copy so callers never alias container state.
func (c Cart) Clone() Cart {
	out := Cart{
		Items:         make([]CartItem, len(c.Items)),
		SelectedItems: make([]string, len(c.SelectedItems)),
	}
	copy(out.Items, c.Items)
	copy(out.SelectedItems, c.SelectedItems)
	return out
}

func (c Cart) IndexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) IsSelected(productID string) bool {
	for _, id := range c.SelectedItems {
		if id == productID {
			return true
		}
	}
	return false
}

// SumItems returns Σ(unitPrice × quantity).
func SumItems(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}
