package identity

import "context"

// Identity is the authenticated user an operation acts on behalf of.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Provider resolves the current identity. A nil identity with a nil error
// means nobody is signed in.
type Provider interface {
	CurrentUser(ctx context.Context) (*Identity, error)
}

type contextKey struct{}

// WithIdentity returns a context carrying id. Used by the auth middleware
// after token validation.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached to ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// ContextProvider resolves identity from the request context populated by
// the auth middleware.
type ContextProvider struct{}

func (ContextProvider) CurrentUser(ctx context.Context) (*Identity, error) {
	return FromContext(ctx), nil
}
