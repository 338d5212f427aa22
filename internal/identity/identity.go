// Package identity resolves caller identity and endpoint keys for
// rate limiting and audit correlation.
package identity

import (
	"context"
	"strconv"
)

// Identity is the authenticated caller attached to a request context by the
// authentication layer. The middleware pipeline only consumes it.
type Identity struct {
	// UserID is the numeric user identifier.
	UserID int64

	// Permissions are the permission strings granted to the caller.
	Permissions []string
}

// HasPermission reports whether the identity carries the given permission.
func (i *Identity) HasPermission(permission string) bool {
	if i == nil {
		return false
	}
	for _, p := range i.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Key returns the stable client key for the identity ("user:<id>").
func (i *Identity) Key() string {
	return "user:" + strconv.FormatInt(i.UserID, 10)
}

type ctxKey string

const identityKey ctxKey = "identity"

// ContextWithIdentity attaches an authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the authenticated identity from context.
// Returns nil for anonymous requests.
func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey).(*Identity); ok {
		return id
	}
	return nil
}
