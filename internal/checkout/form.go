package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/example/storefront/internal/order"
)

// Format rules mirror the checkout form: they gate the state machine at the
// FormValid step, so nothing past validation ever sees a malformed field.
var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
	postalPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// FieldError is one validation failure, keyed by form field for inline
// display.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ValidateShippingInfo checks every field and reports all failures at once.
func ValidateShippingInfo(info order.ShippingInfo) error {
	var errs ValidationErrors

	if len(strings.TrimSpace(info.Name)) < 2 {
		errs = append(errs, FieldError{"name", "name must be at least 2 characters"})
	}
	if !emailPattern.MatchString(info.Email) {
		errs = append(errs, FieldError{"email", "invalid email address"})
	}
	if !phonePattern.MatchString(info.Phone) {
		errs = append(errs, FieldError{"phone", "invalid phone number"})
	}
	if len(strings.TrimSpace(info.Address)) < 5 {
		errs = append(errs, FieldError{"address", "address must be at least 5 characters"})
	}
	if strings.TrimSpace(info.City) == "" {
		errs = append(errs, FieldError{"city", "city is required"})
	}
	if !postalPattern.MatchString(info.PostalCode) {
		errs = append(errs, FieldError{"postalCode", "invalid postal code"})
	}
	if strings.TrimSpace(info.PaymentMethod) == "" {
		errs = append(errs, FieldError{"paymentMethod", "payment method is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
