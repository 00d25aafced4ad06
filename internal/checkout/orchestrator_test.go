package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/docstore"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

// fakeProvider tokenizes everything unless told to fail.
type fakeProvider struct {
	err   error
	calls int
}

func (fp *fakeProvider) CreatePaymentMethod(context.Context, payment.Card, payment.BillingDetails) (*payment.Method, error) {
	fp.calls++
	if fp.err != nil {
		return nil, fp.err
	}
	return &payment.Method{ID: "pm_test_123"}, nil
}

// failingClearCarts wraps a real cart store and fails Clear.
type failingClearCarts struct {
	*cart.Store
}

func (f failingClearCarts) Clear(context.Context, string) error {
	return errors.New("store unreachable")
}

type recordingNotifier struct {
	placed []*order.Order
}

func (rn *recordingNotifier) OrderPlaced(_ context.Context, o *order.Order) {
	rn.placed = append(rn.placed, o)
}

type fixture struct {
	carts    *cart.Store
	orders   *order.Store
	provider *fakeProvider
	notifier *recordingNotifier
	products *catalog.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := docstore.NewMemoryStore()
	products := catalog.NewService(docs)
	carts := cart.NewStore(docs, products)
	t.Cleanup(carts.Close)
	return &fixture{
		carts:    carts,
		orders:   order.NewStore(docs),
		provider: &fakeProvider{},
		notifier: &recordingNotifier{},
		products: products,
	}
}

// fillCart loads the standard scenario: p1 qty 2 @ $10, p2 qty 1 @ $5.
func (f *fixture) fillCart(t *testing.T) (p1, p2 string) {
	t.Helper()
	ctx := context.Background()
	p1, err := f.products.Create(ctx, catalog.Product{Title: "Lamp", Price: 10})
	require.NoError(t, err)
	p2, err = f.products.Create(ctx, catalog.Product{Title: "Mug", Price: 5})
	require.NoError(t, err)
	require.NoError(t, f.carts.AddItem(ctx, owner, p1, 2))
	require.NoError(t, f.carts.AddItem(ctx, owner, p2, 1))
	return p1, p2
}

func TestOrchestrator_Submit_Success(t *testing.T) {
	f := newFixture(t)
	p1, p2 := f.fillCart(t)
	orc := New(f.carts, f.orders, f.provider, f.notifier)
	ctx := context.Background()

	before := time.Now().UnixMilli()
	result, err := orc.Submit(ctx, owner, validInfo(), payment.Card{Number: "4242424242424242"})
	require.NoError(t, err)

	assert.Equal(t, StateDone, orc.State())
	assert.True(t, result.CartCleared)
	assert.Equal(t, 25.0, result.Total)
	assert.NotEmpty(t, result.OrderID)

	// The order holds the cart snapshot with the frozen total
	orders, err := f.orders.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	placed := orders[0]
	assert.Equal(t, result.OrderID, placed.ID)
	assert.Equal(t, owner, placed.UserID)
	assert.GreaterOrEqual(t, placed.DatePlaced, before)
	assert.Equal(t, 25.0, placed.Total)
	assert.Equal(t, 2, placed.Items[p1].Quantity)
	assert.Equal(t, 1, placed.Items[p2].Quantity)
	assert.Equal(t, validInfo(), placed.ShippingInfo)

	// Cart cleared to an empty mapping, not removed
	c, err := f.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	require.Len(t, f.notifier.placed, 1)
	assert.Equal(t, result.OrderID, f.notifier.placed[0].ID)
}

func TestOrchestrator_Submit_TotalFrozenAtSnapshot(t *testing.T) {
	f := newFixture(t)
	p1, _ := f.fillCart(t)
	ctx := context.Background()

	// Live price changes between add-to-cart and checkout are ignored
	require.NoError(t, f.products.Update(ctx, p1, catalog.Product{Title: "Lamp", Price: 1000}))

	orc := New(f.carts, f.orders, f.provider, f.notifier)
	result, err := orc.Submit(ctx, owner, validInfo(), payment.Card{})
	require.NoError(t, err)
	assert.Equal(t, 25.0, result.Total)
}

func TestOrchestrator_Submit_InvalidFormBlocksBeforePayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	orc := New(f.carts, f.orders, f.provider, f.notifier)

	info := validInfo()
	info.Email = "not-an-email"

	_, err := orc.Submit(context.Background(), owner, info, payment.Card{})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Zero(t, f.provider.calls)

	orders, _ := f.orders.ListByOwner(context.Background(), owner)
	assert.Empty(t, orders)
}

func TestOrchestrator_Submit_EmptyCart(t *testing.T) {
	f := newFixture(t)
	orc := New(f.carts, f.orders, f.provider, f.notifier)

	_, err := orc.Submit(context.Background(), owner, validInfo(), payment.Card{})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, StateError, orc.State())
	assert.Zero(t, f.provider.calls)
}

func TestOrchestrator_Submit_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	orc := New(f.carts, f.orders, f.provider, f.notifier)

	_, err := orc.Submit(context.Background(), "", validInfo(), payment.Card{})
	assert.ErrorIs(t, err, cart.ErrUnauthenticated)
}

func TestOrchestrator_Submit_ProviderErrorSurfacedVerbatim(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.provider.err = &payment.ProviderError{Message: "Your card was declined."}
	orc := New(f.carts, f.orders, f.provider, f.notifier)
	ctx := context.Background()

	_, err := orc.Submit(ctx, owner, validInfo(), payment.Card{})
	require.Error(t, err)

	var perr *payment.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Your card was declined.", perr.Message)
	assert.Equal(t, StateError, orc.State())
	assert.Equal(t, 1, f.provider.calls) // no automatic retry

	// Nothing persisted, cart untouched
	orders, _ := f.orders.ListByOwner(ctx, owner)
	assert.Empty(t, orders)
	c, _ := f.carts.GetCart(ctx, owner)
	assert.Len(t, c.Items, 2)
	assert.Empty(t, f.notifier.placed)
}

func TestOrchestrator_Submit_PartialFailureOnCartClear(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	orc := New(failingClearCarts{f.carts}, f.orders, f.provider, f.notifier)
	ctx := context.Background()

	result, err := orc.Submit(ctx, owner, validInfo(), payment.Card{})
	require.NoError(t, err)

	// Distinct partial-failure outcome: order stands, cart did not clear
	assert.Equal(t, StateDone, orc.State())
	assert.False(t, result.CartCleared)
	assert.NotEmpty(t, result.OrderID)
	assert.Contains(t, result.Message, "could not be cleared")

	orders, err := f.orders.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	c, err := f.carts.GetCart(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2) // pre-clear contents intact

	require.Len(t, f.notifier.placed, 1)
}

func TestOrchestrator_Submit_SecondAttemptRejected(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	orc := New(f.carts, f.orders, f.provider, f.notifier)
	ctx := context.Background()

	_, err := orc.Submit(ctx, owner, validInfo(), payment.Card{})
	require.NoError(t, err)

	// Done is terminal; a fresh checkout needs a fresh orchestrator
	_, err = orc.Submit(ctx, owner, validInfo(), payment.Card{})
	assert.Error(t, err)
}
