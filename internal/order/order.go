package order

import (
	"github.com/example/storefront/internal/cart"
)

// ShippingInfo is the validated checkout form, stored verbatim on the
// order. Field tags match the document shape carts and orders share.
type ShippingInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	PaymentMethod string `json:"paymentMethod"`
}

// Order is one placed order: a snapshot of the cart at placement time plus
// the shipping form and the frozen total. Immutable once appended; there is
// no update or delete.
type Order struct {
	ID           string               `json:"id,omitempty"`
	UserID       string               `json:"userId"`
	DatePlaced   int64                `json:"datePlaced"` // epoch milliseconds
	ShippingInfo ShippingInfo         `json:"shippingInfo"`
	Items        map[string]cart.Item `json:"items"`
	Total        float64              `json:"total"`
}
