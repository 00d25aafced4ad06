package payment

import "context"

// Card is the raw card input collected by the payment form.
type Card struct {
	Number   string `json:"number"`
	ExpMonth string `json:"exp_month"`
	ExpYear  string `json:"exp_year"`
	CVC      string `json:"cvc"`
}

// BillingDetails accompany the card when tokenizing.
type BillingDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Method is a tokenized payment method returned by the provider. Only the
// token ever reaches this system; card data stays with the provider.
type Method struct {
	ID string `json:"id"`
}

// ProviderError carries the provider's human-readable message, surfaced to
// the user verbatim.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Provider turns card input into a payment-method token, or reports a
// structured error. No retry or idempotency handling happens on this side.
type Provider interface {
	CreatePaymentMethod(ctx context.Context, card Card, billing BillingDetails) (*Method, error)
}
