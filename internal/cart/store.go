package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/docstore"
)

var (
	ErrUnauthenticated = errors.New("operation requires a signed-in owner")
	ErrProductNotFound = errors.New("product not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("product not in cart")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// ProductResolver is the slice of the catalog the cart needs: resolving a
// product id to its current record (nil when absent).
type ProductResolver interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// Store holds one cart document per owner at shopping-carts/{ownerID}.
//
// Every mutation is an unprotected read-modify-write of the whole document:
// there is no compare-and-swap, so two concurrent mutations for the same
// owner race and the later write wins. Kept that way on purpose; see
// DESIGN.md.
type Store struct {
	docs     docstore.Store
	products ProductResolver
	subs     *registry
}

func NewStore(docs docstore.Store, products ProductResolver) *Store {
	return &Store{
		docs:     docs,
		products: products,
		subs:     newRegistry(docs),
	}
}

func cartPath(ownerID string) string {
	return "shopping-carts/" + ownerID
}

// GetCart reads the owner's cart once, defaulting to an empty cart when the
// record is absent.
func (s *Store) GetCart(ctx context.Context, ownerID string) (*Cart, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.readCart(ctx, ownerID)
}

func (s *Store) readCart(ctx context.Context, ownerID string) (*Cart, error) {
	snap, err := s.docs.Get(ctx, cartPath(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to read cart for %s: %w", ownerID, err)
	}
	if !snap.Exists() {
		return newEmptyCart(), nil
	}
	cart := newEmptyCart()
	if err := snap.Decode(cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart for %s: %w", ownerID, err)
	}
	if cart.Items == nil {
		cart.Items = make(map[string]Item)
	}
	return cart, nil
}

// AddItem captures a snapshot of the product and merges it into the cart:
// an existing line has its quantity incremented, a new line is inserted.
func (s *Store) AddItem(ctx context.Context, ownerID, productID string, quantity int) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}

	cart, err := s.readCart(ctx, ownerID)
	if err != nil {
		return err
	}

	if existing, ok := cart.Items[productID]; ok {
		existing.Quantity += quantity
		cart.Items[productID] = existing
	} else {
		cart.Items[productID] = Item{Product: *product, Quantity: quantity}
	}

	return s.docs.Set(ctx, cartPath(ownerID), cart)
}

// SetQuantity overwrites a line's quantity. A quantity of zero or less
// removes the line entirely.
func (s *Store) SetQuantity(ctx context.Context, ownerID, productID string, quantity int) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	snap, err := s.docs.Get(ctx, cartPath(ownerID))
	if err != nil {
		return fmt.Errorf("failed to read cart for %s: %w", ownerID, err)
	}
	if !snap.Exists() {
		return ErrCartNotFound
	}
	cart := newEmptyCart()
	if err := snap.Decode(cart); err != nil {
		return err
	}
	if _, ok := cart.Items[productID]; !ok {
		return ErrItemNotFound
	}

	if quantity <= 0 {
		delete(cart.Items, productID)
	} else {
		item := cart.Items[productID]
		item.Quantity = quantity
		cart.Items[productID] = item
	}

	return s.docs.Set(ctx, cartPath(ownerID), cart)
}

// RemoveItem deletes a line from the cart.
func (s *Store) RemoveItem(ctx context.Context, ownerID, productID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	snap, err := s.docs.Get(ctx, cartPath(ownerID))
	if err != nil {
		return fmt.Errorf("failed to read cart for %s: %w", ownerID, err)
	}
	if !snap.Exists() {
		return ErrCartNotFound
	}
	cart := newEmptyCart()
	if err := snap.Decode(cart); err != nil {
		return err
	}
	if _, ok := cart.Items[productID]; !ok {
		return ErrItemNotFound
	}

	delete(cart.Items, productID)
	return s.docs.Set(ctx, cartPath(ownerID), cart)
}

// Clear unconditionally overwrites the cart with an empty item mapping.
// The record is written, not deleted, so live subscriptions keep resolving.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	return s.docs.Set(ctx, cartPath(ownerID), newEmptyCart())
}

// Subscribe attaches to the owner's live cart stream. All subscribers for
// one owner share a single underlying document watch; the watch is released
// when the last subscriber detaches. An absent record is delivered as an
// empty cart; nil is delivered only on a watch-level failure.
func (s *Store) Subscribe(ctx context.Context, ownerID string) (<-chan *Cart, func(), error) {
	if ownerID == "" {
		return nil, nil, ErrUnauthenticated
	}
	return s.subs.subscribe(ctx, ownerID)
}

// Close releases every live watch. Subscriber channels are closed.
func (s *Store) Close() {
	s.subs.close()
}

func decodeCartSnapshot(snap docstore.Snapshot) *Cart {
	if !snap.Exists() {
		return newEmptyCart()
	}
	cart := newEmptyCart()
	if err := snap.Decode(cart); err != nil {
		log.Printf("[Cart] Undecodable cart document %s: %v", snap.Path, err)
		return nil
	}
	if cart.Items == nil {
		cart.Items = make(map[string]Item)
	}
	return cart
}
