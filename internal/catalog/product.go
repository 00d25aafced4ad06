package catalog

import (
	"context"
	"errors"
	"log"

	"github.com/example/storefront/internal/docstore"
)

const productsPath = "products"

var (
	ErrEmptyTitle    = errors.New("product title is required")
	ErrNegativePrice = errors.New("product price must not be negative")
)

// Product is a catalog record. The same shape is embedded as a denormalized
// snapshot in cart items and orders; price edits after the snapshot was
// taken are deliberately not reflected there.
type Product struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Price      float64 `json:"price"`
	CategoryID string  `json:"category"`
	ImageURL   string  `json:"imageUrl"`
}

// Service provides product CRUD over the document store. No versioning;
// last writer wins.
type Service struct {
	docs docstore.Store
}

func NewService(docs docstore.Store) *Service {
	return &Service{docs: docs}
}

func validateProduct(p Product) error {
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.Price < 0 {
		return ErrNegativePrice
	}
	return nil
}

// Create stores a new product and returns its store-assigned id.
func (s *Service) Create(ctx context.Context, p Product) (string, error) {
	if err := validateProduct(p); err != nil {
		return "", err
	}
	p.ID = "" // the key is authoritative, not the embedded field
	return s.docs.Push(ctx, productsPath, p)
}

// Get returns the product with the given id. Both a missing record and a
// failed fetch resolve to nil; callers treat them identically.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	snap, err := s.docs.Get(ctx, productsPath+"/"+id)
	if err != nil {
		log.Printf("[Catalog] Error fetching product %s: %v", id, err)
		return nil, nil
	}
	if !snap.Exists() {
		return nil, nil
	}
	var p Product
	if err := snap.Decode(&p); err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// List returns all products. A failed fetch resolves to an empty list.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	children, err := s.docs.List(ctx, productsPath)
	if err != nil {
		log.Printf("[Catalog] Error listing products: %v", err)
		return []Product{}, nil
	}
	products := make([]Product, 0, len(children))
	for id, snap := range children {
		var p Product
		if err := snap.Decode(&p); err != nil {
			log.Printf("[Catalog] Skipping undecodable product %s: %v", id, err)
			continue
		}
		p.ID = id
		products = append(products, p)
	}
	return products, nil
}

// Update overwrites the product at id.
func (s *Service) Update(ctx context.Context, id string, p Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	p.ID = ""
	return s.docs.Set(ctx, productsPath+"/"+id, p)
}

// Delete removes the product at id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, productsPath+"/"+id)
}
