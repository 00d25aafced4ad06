package cart

import "github.com/example/storefront/internal/catalog"

// Item is one cart line: a denormalized product snapshot captured at
// add-time plus a quantity. Quantity is always >= 1; a line dropped to
// zero is removed, never stored.
type Item struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// Cart is one owner's cart document: product id -> line. The record is
// created empty on first use and persists as an empty mapping after a
// clear, so live subscriptions keep resolving.
type Cart struct {
	Items map[string]Item `json:"items"`
}

func newEmptyCart() *Cart {
	return &Cart{Items: make(map[string]Item)}
}

// TotalPrice sums price x quantity over the snapshot prices, not live
// catalog prices.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// TotalQuantity sums the item quantities.
func (c *Cart) TotalQuantity() int {
	var total int
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
