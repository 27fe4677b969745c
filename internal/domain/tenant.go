package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is an upstream bank whose loan data we sync.
// TenantID is the stable business key (uppercased, e.g. "BANK001") used for
// warehouse partitioning; Slug is the human identifier used in URLs.
type Tenant struct {
	ID           uuid.UUID
	TenantID     string
	Name         string
	Slug         string
	APIURL       string
	APIToken     *string
	APITokenHash *string
	IsActive     bool
	CreatedAt    time.Time
}

// TenantRepository provides access to tenant metadata
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) (*Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	// GetByTokenHash resolves an active tenant by the SHA-256 hex of its API key.
	GetByTokenHash(ctx context.Context, hash string) (*Tenant, error)
	ListActive(ctx context.Context) ([]*Tenant, error)
}
