package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncReport holds the detailed outcome of one SyncJob: row totals,
// per-field profiling stats and any validation findings. Kept separate from
// SyncJob so the job table stays light.
type SyncReport struct {
	ID                 int64
	JobID              int64
	TotalRowsProcessed int64
	ProfilingStats     json.RawMessage
	ValidationErrors   []string
	CreatedAt          time.Time
}

// ReportWithJob joins a report with its job's context for the read API
type ReportWithJob struct {
	Report       SyncReport
	TenantID     string
	LoanCategory LoanCategory
	Status       SyncJobStatus
	CompletedAt  *time.Time
}

// SyncReportRepository provides access to sync reports
type SyncReportRepository interface {
	Create(ctx context.Context, report *SyncReport) (*SyncReport, error)
	GetByJobID(ctx context.Context, jobID int64) (*SyncReport, error)
	// ListRecent returns the latest reports for a (tenant, category) pair,
	// newest completed first.
	ListRecent(ctx context.Context, tenantID uuid.UUID, category LoanCategory, limit int) ([]*ReportWithJob, error)
}
