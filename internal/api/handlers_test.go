package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/docstore"
	"github.com/example/storefront/internal/order"
	"github.com/example/storefront/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePaymentProvider struct {
	err   error
	calls int
}

func (f *fakePaymentProvider) CreatePaymentMethod(ctx context.Context, card payment.Card, billing payment.BillingDetails) (*payment.Method, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Method{ID: fmt.Sprintf("pm_test_%d", f.calls)}, nil
}

type testServer struct {
	server   *httptest.Server
	catalog  *catalog.Service
	provider *fakePaymentProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	docs := docstore.NewMemoryStore()
	catalogSvc := catalog.NewService(docs)
	carts := cart.NewStore(docs, catalogSvc)
	t.Cleanup(carts.Close)
	orders := order.NewStore(docs)
	provider := &fakePaymentProvider{}

	jwtService := auth.NewJWTService("test-secret-key-for-handler-tests", 15*time.Minute, 7*24*time.Hour)
	users := auth.NewUserStore(docs)

	router := NewRouter(RouterConfig{
		Handlers:     NewHandlers(catalogSvc, carts, orders, provider, nil),
		AuthHandlers: NewAuthHandlers(users, jwtService),
		JWTService:   jwtService,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, catalog: catalogSvc, provider: provider}
}

func (ts *testServer) seedProduct(t *testing.T, title string, price float64) string {
	t.Helper()
	id, err := ts.catalog.Create(context.Background(), catalog.Product{
		Title:      title,
		Price:      price,
		CategoryID: "nature",
	})
	require.NoError(t, err)
	return id
}

// register creates an account through the API and returns the access token
// cookie for subsequent authenticated requests.
func (ts *testServer) register(t *testing.T, email string) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(RegisterRequest{Email: email, Password: "password123", Name: "Test User"})
	resp, err := http.Post(ts.server.URL+"/auth/register", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			return c
		}
	}
	t.Fatal("no access_token cookie issued")
	return nil
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestAPI_ProductsPublicList(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "Forest Print", 15)
	ts.seedProduct(t, "City Skyline", 25)

	resp := ts.do(t, http.MethodGet, "/products", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	products := decodeBody[[]catalog.Product](t, resp)
	assert.Len(t, products, 2)
}

func TestAPI_ProductsListView(t *testing.T) {
	ts := newTestServer(t)
	ts.seedProduct(t, "Forest Print", 15)
	ts.seedProduct(t, "City Skyline", 25)
	ts.seedProduct(t, "Forest Poster", 35)

	resp := ts.do(t, http.MethodGet, "/products?q=forest&sort=price&dir=desc&page=1&per_page=2", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	page := decodeBody[struct {
		Products []catalog.Product `json:"products"`
		Page     int               `json:"page"`
		Pages    int               `json:"pages"`
		Total    int               `json:"total"`
	}](t, resp)

	require.Len(t, page.Products, 2)
	assert.Equal(t, "Forest Poster", page.Products[0].Title)
	assert.Equal(t, "Forest Print", page.Products[1].Title)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestAPI_ProductMutationsRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	body := catalog.Product{Title: "New Product", Price: 10, CategoryID: "nature"}

	// Anonymous
	resp := ts.do(t, http.MethodPost, "/products", body, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Signed in, but not an admin
	cookie := ts.register(t, "customer@example.com")
	resp = ts.do(t, http.MethodPost, "/products", body, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_CartFlow(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedProduct(t, "Forest Print", 15)
	cookie := ts.register(t, "shopper@example.com")

	// Cart requires auth
	resp := ts.do(t, http.MethodGet, "/cart", nil, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Add twice: quantities accumulate on the same line
	addReq := map[string]any{"productId": productID, "quantity": 2}
	resp = ts.do(t, http.MethodPost, "/cart/items", addReq, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/cart/items", map[string]any{"productId": productID}, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/cart", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeBody[cart.Cart](t, resp)
	require.Contains(t, c.Items, productID)
	assert.Equal(t, 3, c.Items[productID].Quantity)
	assert.Equal(t, 15.0, c.Items[productID].Product.Price)

	// Unknown product is a 404
	resp = ts.do(t, http.MethodPost, "/cart/items", map[string]any{"productId": "missing"}, cookie)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Set quantity, then remove
	resp = ts.do(t, http.MethodPut, "/cart/items/"+productID, map[string]any{"quantity": 1}, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/cart/items/"+productID, nil, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/cart", nil, cookie)
	c = decodeBody[cart.Cart](t, resp)
	assert.Empty(t, c.Items)
}

func validCheckoutRequest(card bool) map[string]any {
	req := map[string]any{
		"shippingInfo": order.ShippingInfo{
			Name:          "Jamie Doe",
			Email:         "jamie@example.com",
			Phone:         "+1 555 123 4567",
			Address:       "1 Infinite Loop",
			City:          "Cupertino",
			PostalCode:    "95014",
			PaymentMethod: "card",
		},
	}
	if card {
		req["card"] = payment.Card{Number: "4242424242424242", ExpMonth: "12", ExpYear: "2030", CVC: "123"}
	}
	return req
}

func TestAPI_CheckoutFlow(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedProduct(t, "Forest Print", 15)
	cookie := ts.register(t, "buyer@example.com")

	resp := ts.do(t, http.MethodPost, "/cart/items", map[string]any{"productId": productID, "quantity": 2}, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/checkout", validCheckoutRequest(true), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[struct {
		OrderID     string  `json:"orderId"`
		Total       float64 `json:"total"`
		CartCleared bool    `json:"cartCleared"`
	}](t, resp)
	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, 30.0, result.Total)
	assert.True(t, result.CartCleared)

	// Cart is empty afterwards
	resp = ts.do(t, http.MethodGet, "/cart", nil, cookie)
	c := decodeBody[cart.Cart](t, resp)
	assert.Empty(t, c.Items)

	// The order shows up in the owner's history
	resp = ts.do(t, http.MethodGet, "/orders", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decodeBody[[]order.Order](t, resp)
	require.Len(t, orders, 1)
	assert.Equal(t, result.OrderID, orders[0].ID)
	assert.Equal(t, 30.0, orders[0].Total)
}

func TestAPI_CheckoutValidationFailure(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedProduct(t, "Forest Print", 15)
	cookie := ts.register(t, "buyer@example.com")

	resp := ts.do(t, http.MethodPost, "/cart/items", map[string]any{"productId": productID}, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := validCheckoutRequest(true)
	req["shippingInfo"] = order.ShippingInfo{Email: "not-an-email"}
	resp = ts.do(t, http.MethodPost, "/checkout", req, cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "validation failed", body["error"])
	assert.NotEmpty(t, body["fields"])

	// Validation failed before tokenization
	assert.Zero(t, ts.provider.calls)
}

func TestAPI_CheckoutProviderDecline(t *testing.T) {
	ts := newTestServer(t)
	productID := ts.seedProduct(t, "Forest Print", 15)
	cookie := ts.register(t, "buyer@example.com")
	ts.provider.err = &payment.ProviderError{Message: "Your card was declined."}

	resp := ts.do(t, http.MethodPost, "/cart/items", map[string]any{"productId": productID}, cookie)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/checkout", validCheckoutRequest(true), cookie)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "Your card was declined.", body["error"])

	// No order placed, cart intact
	resp = ts.do(t, http.MethodGet, "/orders", nil, cookie)
	orders := decodeBody[[]order.Order](t, resp)
	assert.Empty(t, orders)

	resp = ts.do(t, http.MethodGet, "/cart", nil, cookie)
	c := decodeBody[cart.Cart](t, resp)
	assert.Len(t, c.Items, 1)
}

func TestAPI_AuthLifecycle(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.register(t, "me@example.com")

	resp := ts.do(t, http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[UserResponse](t, resp)
	assert.Equal(t, "me@example.com", me.Email)

	// Login with the right and wrong password
	body, _ := json.Marshal(LoginRequest{Email: "me@example.com", Password: "password123"})
	loginResp, err := http.Post(ts.server.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	loginResp.Body.Close()
	assert.Equal(t, http.StatusOK, loginResp.StatusCode)

	body, _ = json.Marshal(LoginRequest{Email: "me@example.com", Password: "wrong-password"})
	loginResp, err = http.Post(ts.server.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	loginResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, loginResp.StatusCode)
}

func TestAPI_Categories(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/categories", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	categories := decodeBody[[]catalog.Category](t, resp)
	require.Len(t, categories, 7)
	assert.Equal(t, "Backgrounds", categories[0].Name)
}
