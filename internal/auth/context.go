// Package auth resolves request identities from login tokens.
package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "identity"

// Identity is what a request claims about its caller. Either field may be
// empty; an Identity with neither is anonymous.
type Identity struct {
	Email string
	Token string
}

// Anonymous reports whether the identity carries nothing resolvable.
func (i Identity) Anonymous() bool {
	return !IsEmail(i.Email) && i.Token == ""
}

// ContextWithIdentity adds an Identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns the zero (anonymous) Identity if not present.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey).(Identity)
	return id
}
