package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/teamsec/banksync/internal/domain"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 3)
	defer rl.Stop()

	tenantID := uuid.New()
	for i := 0; i < 3; i++ {
		if !rl.Allow(tenantID) {
			t.Fatalf("Request %d within burst should be allowed", i+1)
		}
	}
	if rl.Allow(tenantID) {
		t.Error("Request beyond burst should be denied")
	}

	// Another tenant has its own bucket
	if !rl.Allow(uuid.New()) {
		t.Error("Fresh tenant should be allowed")
	}
}

func rateLimitRequest(rl *RateLimiter, tenant *domain.Tenant) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenant != nil {
		ctx := context.WithValue(c.Request().Context(), TenantKey, tenant)
		c.SetRequest(c.Request().WithContext(ctx))
	}

	handler := RateLimitMiddleware(rl)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 2)
	defer rl.Stop()

	tenant := &domain.Tenant{ID: uuid.New(), TenantID: "BANK001"}

	rec := rateLimitRequest(rl, tenant)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q", rec.Header().Get("X-RateLimit-Limit"))
	}

	rateLimitRequest(rl, tenant)
	rec = rateLimitRequest(rl, tenant)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on 429")
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitMiddlewareSkipsUnauthenticated(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 1)
	defer rl.Stop()

	// Without a tenant the limiter never engages
	for i := 0; i < 5; i++ {
		rec := rateLimitRequest(rl, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("Request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}
