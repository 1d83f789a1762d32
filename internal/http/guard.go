package http

import (
	"context"
	"net/http"

	"github.com/Flarenzy/drinks-api/internal/auth"
)

// Authorizer decides whether an Authorization header grants a permission.
// *auth.Gate implements it.
type Authorizer interface {
	Authorize(ctx context.Context, permission, authorization string) auth.Decision
}

// requirePermission binds permission to next when the route is registered.
// next only runs with the verified claims in its request context.
func (a *API) requirePermission(permission string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := a.Gate.Authorize(r.Context(), permission, r.Header.Get("Authorization"))
		if !d.Allowed() {
			a.respondDenied(w, r, d.Err)
			return
		}

		next(w, r.WithContext(auth.WithClaims(r.Context(), d.Claims)))
	}
}
