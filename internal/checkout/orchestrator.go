package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
)

// State of one checkout attempt. The machine is linear with no path back:
// a failed attempt is discarded and a fresh Orchestrator starts over.
type State string

const (
	StateIdle              State = "idle"
	StateFormValid         State = "form_valid"
	StatePaymentTokenizing State = "payment_tokenizing"
	StateOrderPersisting   State = "order_persisting"
	StateCartClearing      State = "cart_clearing"
	StateDone              State = "done"
	StateError             State = "error"
)

// CartService is the slice of the cart store checkout needs.
type CartService interface {
	GetCart(ctx context.Context, ownerID string) (*cart.Cart, error)
	Clear(ctx context.Context, ownerID string) error
}

// OrderAppender appends one order to the log.
type OrderAppender interface {
	Append(ctx context.Context, o *order.Order) (string, error)
}

// Notifier is told about a placed order. Best-effort; failures are logged,
// never surfaced.
type Notifier interface {
	OrderPlaced(ctx context.Context, o *order.Order)
}

// Result reports the outcome of a completed attempt. Partial is set when
// the order persisted but the cart could not be cleared afterwards; the
// order stands either way.
type Result struct {
	OrderID     string  `json:"orderId"`
	Total       float64 `json:"total"`
	CartCleared bool    `json:"cartCleared"`
	Message     string  `json:"message"`
}

// Orchestrator runs one checkout attempt: read the cart snapshot, tokenize
// payment, append the order, clear the cart. One instance per attempt; Done
// and Error are terminal.
type Orchestrator struct {
	carts    CartService
	orders   OrderAppender
	payments payment.Provider
	notifier Notifier
	now      func() time.Time

	state State
}

func New(carts CartService, orders OrderAppender, payments payment.Provider, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		carts:    carts,
		orders:   orders,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
		state:    StateIdle,
	}
}

// State reports where the attempt currently stands.
func (o *Orchestrator) State() State {
	return o.state
}

// Submit drives the attempt end to end. A ValidationErrors return means the
// form never passed the entry guard; a *payment.ProviderError carries the
// provider's message verbatim. A non-nil Result with CartCleared == false
// means the order was placed but cleanup failed.
func (o *Orchestrator) Submit(ctx context.Context, ownerID string, info order.ShippingInfo, card payment.Card) (*Result, error) {
	if o.state != StateIdle {
		return nil, fmt.Errorf("checkout attempt already %s", o.state)
	}
	if ownerID == "" {
		return nil, cart.ErrUnauthenticated
	}

	// Entry guard: nothing advances past FormValid with a malformed field.
	if err := ValidateShippingInfo(info); err != nil {
		return nil, err
	}
	o.state = StateFormValid

	snapshot, err := o.carts.GetCart(ctx, ownerID)
	if err != nil {
		o.state = StateError
		return nil, err
	}
	if len(snapshot.Items) == 0 {
		o.state = StateError
		return nil, ValidationErrors{{Field: "cart", Message: "cart is empty"}}
	}

	o.state = StatePaymentTokenizing
	method, err := o.payments.CreatePaymentMethod(ctx, card, payment.BillingDetails{
		Name:  info.Name,
		Email: info.Email,
	})
	if err != nil {
		o.state = StateError
		return nil, err
	}
	log.Printf("[Checkout] Payment method %s created for %s", method.ID, ownerID)

	// Total is frozen from the cart snapshot, not recomputed from live
	// catalog prices.
	o.state = StateOrderPersisting
	placed := &order.Order{
		UserID:       ownerID,
		DatePlaced:   o.now().UnixMilli(),
		ShippingInfo: info,
		Items:        snapshot.Items,
		Total:        snapshot.TotalPrice(),
	}
	orderID, err := o.orders.Append(ctx, placed)
	if err != nil {
		o.state = StateError
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	o.state = StateCartClearing
	if err := o.carts.Clear(ctx, ownerID); err != nil {
		// The order already stands; report partial success, not failure.
		log.Printf("[Checkout] Order %s placed but cart clear failed for %s: %v", orderID, ownerID, err)
		o.state = StateDone
		o.notify(ctx, placed)
		return &Result{
			OrderID:     orderID,
			Total:       placed.Total,
			CartCleared: false,
			Message:     "Order placed but the cart could not be cleared. Please contact support.",
		}, nil
	}

	o.state = StateDone
	o.notify(ctx, placed)
	return &Result{
		OrderID:     orderID,
		Total:       placed.Total,
		CartCleared: true,
		Message:     "Order placed successfully.",
	}, nil
}

func (o *Orchestrator) notify(ctx context.Context, placed *order.Order) {
	if o.notifier != nil {
		o.notifier.OrderPlaced(ctx, placed)
	}
}
