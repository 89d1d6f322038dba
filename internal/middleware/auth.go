package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/shaneHighPeek/beesold-mission-control/internal/audit"
	"github.com/shaneHighPeek/beesold-mission-control/internal/config"
	"github.com/shaneHighPeek/beesold-mission-control/internal/httputil"
	"github.com/shaneHighPeek/beesold-mission-control/internal/service"
	"github.com/shaneHighPeek/beesold-mission-control/internal/token"
)

type contextKey string

const ScopeContextKey contextKey = "portal_scope"

// GetScope returns the resolved portal scope, or nil outside the portal
// auth middleware.
func GetScope(ctx context.Context) *service.Scope {
	if scope, ok := ctx.Value(ScopeContextKey).(*service.Scope); ok {
		return scope
	}
	return nil
}

// PortalAuthMiddleware resolves the signed portal cookie against the
// route's tenant slug and injects the scope into the request context.
type PortalAuthMiddleware struct {
	auth *service.AuthService
}

func NewPortalAuthMiddleware(auth *service.AuthService) *PortalAuthMiddleware {
	return &PortalAuthMiddleware{auth: auth}
}

func (m *PortalAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantSlug := chi.URLParam(r, "tenantSlug")

		var cookieValue string
		if cookie, err := r.Cookie(config.PortalSessionCookie); err == nil {
			cookieValue = cookie.Value
		}

		scope, err := m.auth.ResolveScope(r.Context(), cookieValue, tenantSlug)
		if err != nil {
			log.Warn().Err(err).Str("tenant_slug", tenantSlug).Msg("portal auth rejected")
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAuthFailure,
				Details: map[string]interface{}{"tenant_slug": tenantSlug},
			})
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ScopeContextKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperatorAuthMiddleware guards the operator API with a static bearer
// token compared in constant time.
type OperatorAuthMiddleware struct {
	apiToken string
}

func NewOperatorAuthMiddleware(apiToken string) *OperatorAuthMiddleware {
	return &OperatorAuthMiddleware{apiToken: apiToken}
}

func (m *OperatorAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := extractBearer(r)
		if m.apiToken == "" || presented == "" || !token.ConstantTimeEqual(presented, m.apiToken) {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventOperatorAuthFail})
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return after
	}
	return ""
}
