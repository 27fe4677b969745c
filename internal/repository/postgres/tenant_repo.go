package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamsec/banksync/internal/domain"
)

// TenantRepository implements domain.TenantRepository using PostgreSQL
type TenantRepository struct {
	pool *pgxpool.Pool
}

// NewTenantRepository creates a new TenantRepository
func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

const tenantColumns = "id, tenant_id, name, slug, api_url, api_token, api_token_hash, is_active, created_at"

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	query := `
	INSERT INTO tenants (tenant_id, name, slug, api_url, api_token, api_token_hash, is_active)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		tenant.TenantID, tenant.Name, tenant.Slug, tenant.APIURL,
		tenant.APIToken, tenant.APITokenHash, tenant.IsActive,
	).Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tenant %s: %w", tenant.TenantID, err)
	}
	return tenant, nil
}

// GetByID retrieves a tenant by its primary key
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id)
	return scanTenant(row)
}

// GetByTokenHash resolves an active tenant by the SHA-256 hex of its API key
func (r *TenantRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE api_token_hash = $1 AND is_active", hash)
	return scanTenant(row)
}

// ListActive retrieves all active tenants
func (r *TenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE is_active ORDER BY tenant_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Slug, &t.APIURL,
		&t.APIToken, &t.APITokenHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}
