package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamsec/banksync/internal/domain"
)

// SyncJobRepository implements domain.SyncJobRepository using PostgreSQL
type SyncJobRepository struct {
	pool *pgxpool.Pool
}

// NewSyncJobRepository creates a new SyncJobRepository
func NewSyncJobRepository(pool *pgxpool.Pool) *SyncJobRepository {
	return &SyncJobRepository{pool: pool}
}

const jobColumns = `id, tenant_id, loan_category, status, remote_version_credit,
	remote_version_payment, started_at, completed_at, error_message, result_summary, created_at`

// Create inserts a PENDING job. A partial unique index over
// (tenant_id, loan_category) for PENDING/IN_PROGRESS rows makes this the
// dedup guard: the insert either claims the pair or fails with
// ErrJobAlreadyRunning. No read-then-write race is possible.
func (r *SyncJobRepository) Create(ctx context.Context, job *domain.SyncJob) (*domain.SyncJob, error) {
	query := `
	INSERT INTO sync_jobs (tenant_id, loan_category, status, remote_version_credit, remote_version_payment)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at`

	if job.Status == "" {
		job.Status = domain.StatusPending
	}
	err := r.pool.QueryRow(ctx, query,
		job.TenantID, job.LoanCategory, job.Status,
		job.RemoteVersionCredit, job.RemoteVersionPayment,
	).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrJobAlreadyRunning
		}
		return nil, fmt.Errorf("create sync job: %w", err)
	}
	return job, nil
}

// GetByID retrieves a job by ID
func (r *SyncJobRepository) GetByID(ctx context.Context, id int64) (*domain.SyncJob, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+jobColumns+" FROM sync_jobs WHERE id = $1", id)
	return scanJob(row)
}

// GetLastSuccess returns the most recent SUCCESS job for a (tenant, category)
// pair, ordered by completion time.
func (r *SyncJobRepository) GetLastSuccess(ctx context.Context, tenantID uuid.UUID, category domain.LoanCategory) (*domain.SyncJob, error) {
	query := "SELECT " + jobColumns + ` FROM sync_jobs
	WHERE tenant_id = $1 AND loan_category = $2 AND status = $3
	ORDER BY completed_at DESC
	LIMIT 1`

	row := r.pool.QueryRow(ctx, query, tenantID, category, domain.StatusSuccess)
	return scanJob(row)
}

// MarkInProgress transitions PENDING -> IN_PROGRESS and stamps started_at
func (r *SyncJobRepository) MarkInProgress(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE sync_jobs SET status = $1, started_at = now() WHERE id = $2 AND status = $3",
		domain.StatusInProgress, id, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("mark job %d in progress: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// MarkCompleted transitions a job to a terminal status and stamps completed_at
func (r *SyncJobRepository) MarkCompleted(ctx context.Context, id int64, status domain.SyncJobStatus, errorMessage, resultSummary *string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE sync_jobs SET status = $1, completed_at = now(), error_message = $2, result_summary = $3 WHERE id = $4",
		status, errorMessage, resultSummary, id)
	if err != nil {
		return fmt.Errorf("mark job %d completed: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// ListByTenant returns a tenant's jobs, newest started first
func (r *SyncJobRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.SyncJob, error) {
	query := "SELECT " + jobColumns + ` FROM sync_jobs
	WHERE tenant_id = $1
	ORDER BY started_at DESC NULLS LAST
	LIMIT $2`

	rows, err := r.pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.SyncJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*domain.SyncJob, error) {
	job := &domain.SyncJob{}
	err := row.Scan(&job.ID, &job.TenantID, &job.LoanCategory, &job.Status,
		&job.RemoteVersionCredit, &job.RemoteVersionPayment,
		&job.StartedAt, &job.CompletedAt, &job.ErrorMessage, &job.ResultSummary, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}
