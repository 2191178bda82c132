package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"go.uber.org/zap"
)

// TenantMiddleware establishes the verified tenant of every request.
// A request without an authenticated tenant, or whose X-Tenant-ID header names a
// different tenant than its credentials, is rejected before any data access.
type TenantMiddleware struct {
	logger *zap.Logger
}

// NewTenantMiddleware creates a new tenant middleware
func NewTenantMiddleware(logger *zap.Logger) *TenantMiddleware {
	return &TenantMiddleware{logger: logger}
}

// Resolve sets the tenant on the request context
func (m *TenantMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userCtx, ok := auth.FromContext(r.Context())
		if !ok || userCtx.TenantID == uuid.Nil {
			m.logger.Warn("request without tenant context",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			http.Error(w, "Forbidden: tenant context required", http.StatusForbidden)
			return
		}

		if header := r.Header.Get(auth.TenantHeader); header != "" {
			requested, err := uuid.Parse(header)
			if err != nil {
				http.Error(w, "Invalid "+auth.TenantHeader+" header", http.StatusBadRequest)
				return
			}
			if requested != userCtx.TenantID {
				m.logger.Warn("tenant mismatch between header and credentials",
					zap.String("user_id", userCtx.UserID.String()),
					zap.String("token_tenant", userCtx.TenantID.String()),
					zap.String("requested_tenant", requested.String()),
				)
				http.Error(w, "Forbidden: tenant isolation violation", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(auth.WithTenant(r.Context(), userCtx.TenantID)))
	})
}
