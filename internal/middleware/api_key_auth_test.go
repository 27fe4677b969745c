package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/testutil"
)

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newAuthFixture(key string, active bool) (*APIKeyAuthMiddleware, *domain.Tenant) {
	repo := testutil.NewMockTenantRepository()
	hash := hashKey(key)
	tenant := &domain.Tenant{
		ID:           uuid.New(),
		TenantID:     "BANK001",
		Name:         "Bank One",
		Slug:         "bank-one",
		APITokenHash: &hash,
		IsActive:     active,
	}
	repo.AddTenant(tenant)
	return NewAPIKeyAuthMiddleware(repo), tenant
}

func runAuth(t *testing.T, mw *APIKeyAuthMiddleware, key string) (*httptest.ResponseRecorder, *domain.Tenant) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *domain.Tenant
	handler := mw.Authenticate()(func(c echo.Context) error {
		got = GetTenant(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, got
}

func TestAuthenticate_ValidKey(t *testing.T) {
	mw, tenant := newAuthFixture("valid-key", true)

	rec, got := runAuth(t, mw, "valid-key")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if got == nil || got.ID != tenant.ID {
		t.Errorf("Expected tenant in context, got %v", got)
	}
}

func TestAuthenticate_MissingKey(t *testing.T) {
	mw, _ := newAuthFixture("valid-key", true)

	rec, _ := runAuth(t, mw, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_WrongKey(t *testing.T) {
	mw, _ := newAuthFixture("valid-key", true)

	rec, got := runAuth(t, mw, "other-key")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	if got != nil {
		t.Error("Tenant must not be set on rejected requests")
	}
}

func TestAuthenticate_NewlineInKey(t *testing.T) {
	mw, _ := newAuthFixture("valid-key", true)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	// Header values cannot normally carry newlines; set directly to simulate
	// a smuggled value.
	req.Header["X-Api-Key"] = []string{"valid\nkey"}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw.Authenticate()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestAuthenticate_InactiveTenant(t *testing.T) {
	mw, _ := newAuthFixture("valid-key", false)

	rec, _ := runAuth(t, mw, "valid-key")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
}

func TestGetTenant_Empty(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if got := GetTenant(c); got != nil {
		t.Errorf("GetTenant on bare context = %v, want nil", got)
	}
}
