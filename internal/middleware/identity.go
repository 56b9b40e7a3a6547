package middleware

import (
	"net/http"

	"github.com/launchdeck/launchdeck/internal/auth"
)

// Identity decodes the Authorization header into an auth.Identity on the
// request context. It never rejects a request; handlers that need a user
// decide what an anonymous identity means.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := auth.IdentityFromHeader(r.Header.Get("Authorization"))
		ctx := auth.ContextWithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
