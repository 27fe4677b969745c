package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/teamsec/banksync/internal/domain"
)

// SyncReportRepository implements domain.SyncReportRepository using PostgreSQL
type SyncReportRepository struct {
	pool *pgxpool.Pool
}

// NewSyncReportRepository creates a new SyncReportRepository
func NewSyncReportRepository(pool *pgxpool.Pool) *SyncReportRepository {
	return &SyncReportRepository{pool: pool}
}

// Create persists a report. ProfilingStats and ValidationErrors are stored
// as JSONB; an empty stats document is stored as {}.
func (r *SyncReportRepository) Create(ctx context.Context, report *domain.SyncReport) (*domain.SyncReport, error) {
	stats := report.ProfilingStats
	if len(stats) == 0 {
		stats = json.RawMessage("{}")
	}
	validationErrors, err := json.Marshal(report.ValidationErrors)
	if err != nil {
		return nil, fmt.Errorf("marshal validation errors: %w", err)
	}

	query := `
	INSERT INTO sync_reports (job_id, total_rows_processed, profiling_stats, validation_errors)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at`

	err = r.pool.QueryRow(ctx, query,
		report.JobID, report.TotalRowsProcessed, stats, validationErrors,
	).Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create sync report for job %d: %w", report.JobID, err)
	}
	return report, nil
}

// GetByJobID retrieves the report attached to one job
func (r *SyncReportRepository) GetByJobID(ctx context.Context, jobID int64) (*domain.SyncReport, error) {
	query := `
	SELECT id, job_id, total_rows_processed, profiling_stats, validation_errors, created_at
	FROM sync_reports
	WHERE job_id = $1`

	report := &domain.SyncReport{}
	var validationErrors []byte
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&report.ID, &report.JobID, &report.TotalRowsProcessed,
		&report.ProfilingStats, &validationErrors, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrReportNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(validationErrors, &report.ValidationErrors); err != nil {
		return nil, fmt.Errorf("unmarshal validation errors for job %d: %w", jobID, err)
	}
	return report, nil
}

// ListRecent returns the latest reports for a (tenant, category) pair joined
// with their jobs, newest completed first.
func (r *SyncReportRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, category domain.LoanCategory, limit int) ([]*domain.ReportWithJob, error) {
	query := `
	SELECT r.id, r.job_id, r.total_rows_processed, r.profiling_stats, r.validation_errors, r.created_at,
		t.tenant_id, j.loan_category, j.status, j.completed_at
	FROM sync_reports r
	JOIN sync_jobs j ON j.id = r.job_id
	JOIN tenants t ON t.id = j.tenant_id
	WHERE j.tenant_id = $1 AND j.loan_category = $2
	ORDER BY j.completed_at DESC NULLS LAST
	LIMIT $3`

	rows, err := r.pool.Query(ctx, query, tenantID, category, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.ReportWithJob
	for rows.Next() {
		rw := &domain.ReportWithJob{}
		var validationErrors []byte
		err := rows.Scan(
			&rw.Report.ID, &rw.Report.JobID, &rw.Report.TotalRowsProcessed,
			&rw.Report.ProfilingStats, &validationErrors, &rw.Report.CreatedAt,
			&rw.TenantID, &rw.LoanCategory, &rw.Status, &rw.CompletedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(validationErrors, &rw.Report.ValidationErrors); err != nil {
			return nil, fmt.Errorf("unmarshal validation errors for job %d: %w", rw.Report.JobID, err)
		}
		reports = append(reports, rw)
	}
	return reports, rows.Err()
}
