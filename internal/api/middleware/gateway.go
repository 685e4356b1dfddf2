package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/credgate/internal/api/response"
	"github.com/edvin/credgate/internal/gateway"
)

type contextKey string

// AuthzContextKey carries the resolved authorization context for handlers
// downstream of the gateway middleware.
const AuthzContextKey contextKey = "authz_context"

// GetAuthz returns the authorization context established by the gateway
// middleware, or nil when the request never passed through it.
func GetAuthz(ctx context.Context) *gateway.AuthzContext {
	authz, _ := ctx.Value(AuthzContextKey).(*gateway.AuthzContext)
	return authz
}

// bearerToken extracts the credential from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// requestedTenant determines the tenant the request is addressed to: the
// {tenantID} path segment when present, else the X-Tenant-ID header. An
// empty result is a deny downstream, never a wildcard.
func requestedTenant(r *http.Request) string {
	if id := chi.URLParam(r, "tenantID"); id != "" {
		return id
	}
	return r.Header.Get("X-Tenant-ID")
}

// Gateway returns the middleware guarding tenant-scoped routes: every
// request is validated, resolved, and checked against the tenant named by
// the route before any handler runs.
func Gateway(dispatcher *gateway.Dispatcher) func(http.Handler) http.Handler {
	return guard(dispatcher, false)
}

// AdminGateway returns the middleware guarding the platform-admin plane.
// Admin routes skip tenant isolation but require ADMIN tier and get their
// own audit event.
func AdminGateway(dispatcher *gateway.Dispatcher) func(http.Handler) http.Handler {
	return guard(dispatcher, true)
}

func guard(dispatcher *gateway.Dispatcher, admin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dec := dispatcher.Authorize(r.Context(), gateway.Request{
				Token:    bearerToken(r),
				TenantID: requestedTenant(r),
				Method:   r.Method,
				Path:     r.URL.Path,
				Admin:    admin,
			})

			if !dec.Allow {
				// Transparent replacement: the successor credential rides
				// out on headers while the request itself still fails.
				if dec.NewToken != "" {
					w.Header().Set("X-New-Token", dec.NewToken)
					w.Header().Set("X-Token-Expires", dec.NewTokenExpiry.UTC().Format(time.RFC3339))
				}
				response.WriteDenied(w, dec.Status)
				return
			}

			ctx := context.WithValue(r.Context(), AuthzContextKey, dec.Authz)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope returns a middleware that rejects requests whose
// authorization context lacks the given resource:action scope.
func RequireScope(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := GetAuthz(r.Context())
			if authz == nil || !authz.HasScope(resource, action) {
				response.WriteDenied(w, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
