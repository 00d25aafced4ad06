package order

import (
	"context"
	"log"
	"sort"

	"github.com/example/storefront/internal/docstore"
)

const ordersPath = "orders"

// Store is the append-only order log under orders/{id}.
type Store struct {
	docs docstore.Store
}

func NewStore(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Append writes the order as a new log entry and returns its store-assigned
// id. Identifiers never collide because the store assigns them.
func (s *Store) Append(ctx context.Context, o *Order) (string, error) {
	o.ID = ""
	id, err := s.docs.Push(ctx, ordersPath, o)
	if err != nil {
		return "", err
	}
	o.ID = id
	return id, nil
}

// ListByOwner reads the whole log, keeps the owner's orders and sorts them
// by placement date descending. Linear scan over the full log; a known
// ceiling at large order volumes.
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]Order, error) {
	children, err := s.docs.List(ctx, ordersPath)
	if err != nil {
		log.Printf("[Order] Error listing orders: %v", err)
		return []Order{}, nil
	}

	orders := make([]Order, 0)
	for id, snap := range children {
		var o Order
		if err := snap.Decode(&o); err != nil {
			log.Printf("[Order] Skipping undecodable order %s: %v", id, err)
			continue
		}
		if o.UserID != ownerID {
			continue
		}
		o.ID = id
		orders = append(orders, o)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].DatePlaced > orders[j].DatePlaced
	})
	return orders, nil
}
