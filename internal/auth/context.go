package auth

import "context"

type contextKey string

const identityKey contextKey = "auth_identity"

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	UserID   string
	Role     string
	Email    string
	FullName string
}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the identity from a context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
