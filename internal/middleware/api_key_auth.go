package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/teamsec/banksync/internal/domain"
)

type contextKey string

// TenantKey is the context key for the authenticated tenant
const TenantKey contextKey = "tenant"

// TenantResolver resolves an API key hash to an active tenant
type TenantResolver interface {
	GetByTokenHash(ctx context.Context, hash string) (*domain.Tenant, error)
}

// APIKeyAuthMiddleware authenticates tenants by the X-API-Key header. Keys
// are never stored or compared in plain text; only SHA-256 hashes are looked
// up.
type APIKeyAuthMiddleware struct {
	resolver TenantResolver
}

// NewAPIKeyAuthMiddleware creates a new APIKeyAuthMiddleware
func NewAPIKeyAuthMiddleware(resolver TenantResolver) *APIKeyAuthMiddleware {
	return &APIKeyAuthMiddleware{resolver: resolver}
}

// Authenticate returns an Echo middleware that validates API keys
func (m *APIKeyAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("X-API-Key")
			if key == "" {
				return unauthorizedError(c, "Missing API key")
			}
			if strings.ContainsAny(key, "\r\n") {
				return unauthorizedError(c, "Invalid API key")
			}

			sum := sha256.Sum256([]byte(key))
			tenant, err := m.resolver.GetByTokenHash(c.Request().Context(), hex.EncodeToString(sum[:]))
			if err != nil {
				if errors.Is(err, domain.ErrTenantNotFound) {
					log.Debug().Msg("API key matched no active tenant")
					return unauthorizedError(c, "Invalid API key")
				}
				log.Error().Err(err).Msg("API key validation failed")
				return unauthorizedError(c, "API key validation failed")
			}

			ctx := context.WithValue(c.Request().Context(), TenantKey, tenant)
			c.SetRequest(c.Request().WithContext(ctx))

			log.Debug().
				Str("tenant_id", tenant.TenantID).
				Msg("Tenant authentication successful")

			return next(c)
		}
	}
}

// GetTenant extracts the authenticated tenant from the context
func GetTenant(c echo.Context) *domain.Tenant {
	if tenant, ok := c.Request().Context().Value(TenantKey).(*domain.Tenant); ok {
		return tenant
	}
	return nil
}
