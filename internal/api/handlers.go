package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/checkout"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
)

type Handlers struct {
	catalog  *catalog.Service
	carts    *cart.Store
	orders   *order.Store
	payments payment.Provider
	notifier checkout.Notifier
}

func NewHandlers(catalogSvc *catalog.Service, carts *cart.Store, orders *order.Store, payments payment.Provider, notifier checkout.Notifier) *Handlers {
	return &Handlers{
		catalog:  catalogSvc,
		carts:    carts,
		orders:   orders,
		payments: payments,
		notifier: notifier,
	}
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	p.ID = id
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, _ := h.catalog.List(r.Context())

	// Optional admin list-view parameters: ?q= &sort= &dir= &page= &per_page=
	q := r.URL.Query()
	if term := q.Get("q"); term != "" {
		products = catalog.FilterByTitle(products, term)
	}
	if column := q.Get("sort"); column != "" {
		dir := catalog.Ascending
		if q.Get("dir") == string(catalog.Descending) {
			dir = catalog.Descending
		}
		products = catalog.SortProducts(products, catalog.SortColumn(column), dir, func(id string) string {
			return h.catalog.CategoryName(r.Context(), id)
		})
	}
	if pageStr := q.Get("page"); pageStr != "" {
		page, _ := strconv.Atoi(pageStr)
		perPage, _ := strconv.Atoi(q.Get("per_page"))
		if perPage < 1 {
			perPage = 5
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"products": catalog.Paginate(products, page, perPage),
			"page":     page,
			"pages":    catalog.PageCount(len(products), perPage),
			"total":    len(products),
		})
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if product == nil {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.catalog.Update(r.Context(), id, p); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// Category Handlers

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, _ := h.catalog.Categories(r.Context())
	respondJSON(w, http.StatusOK, categories)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.GetCart(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.carts.AddItem(r.Context(), getUserID(r), req.ProductID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.carts.SetQuantity(r.Context(), getUserID(r), productID, req.Quantity); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	if err := h.carts.RemoveItem(r.Context(), getUserID(r), productID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), getUserID(r)); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// WatchCart streams the owner's cart over SSE: one `data:` event per cart
// change, starting with the current state. The subscription is detached
// when the client disconnects.
func (h *Handlers) WatchCart(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSONError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, detach, err := h.carts.Subscribe(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	defer detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(c)
			if err != nil {
				log.Printf("[API] Failed to encode cart update: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByOwner(r.Context(), getUserID(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// Checkout Handler

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShippingInfo order.ShippingInfo `json:"shippingInfo"`
		Card         payment.Card       `json:"card"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// One orchestrator per attempt; Done and Error are terminal.
	orc := checkout.New(h.carts, h.orders, h.payments, h.notifier)
	result, err := orc.Submit(r.Context(), getUserID(r), req.ShippingInfo, req.Card)
	if err != nil {
		var verrs checkout.ValidationErrors
		if errors.As(err, &verrs) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verrs,
			})
			return
		}
		var perr *payment.ProviderError
		if errors.As(err, &perr) {
			respondJSONError(w, perr.Message, http.StatusPaymentRequired)
			return
		}
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondDomainError maps domain errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrUnauthenticated):
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrEmptyTitle),
		errors.Is(err, catalog.ErrNegativePrice):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// getUserID extracts the owner id resolved by the auth middleware.
func getUserID(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
