package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPProvider tokenizes cards against a Stripe-style REST endpoint:
// form-encoded POST, bearer-key auth, JSON body back with either the
// method id or an error object carrying a display message.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type providerResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HTTPProvider) CreatePaymentMethod(ctx context.Context, card Card, billing BillingDetails) (*Method, error) {
	form := url.Values{}
	form.Set("type", "card")
	form.Set("card[number]", card.Number)
	form.Set("card[exp_month]", card.ExpMonth)
	form.Set("card[exp_year]", card.ExpYear)
	form.Set("card[cvc]", card.CVC)
	form.Set("billing_details[name]", billing.Name)
	form.Set("billing_details[email]", billing.Email)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/v1/payment_methods", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}

	if body.Error != nil {
		return nil, &ProviderError{Message: body.Error.Message}
	}
	if resp.StatusCode >= 400 || body.ID == "" {
		return nil, &ProviderError{Message: fmt.Sprintf("payment failed (status %d)", resp.StatusCode)}
	}
	return &Method{ID: body.ID}, nil
}
