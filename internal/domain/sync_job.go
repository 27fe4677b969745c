package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncJobStatus is the job state machine: PENDING -> IN_PROGRESS -> terminal.
// WARNING is a reserved terminal variant; the pipeline currently records
// quality warnings in the report and completes with SUCCESS.
type SyncJobStatus string

const (
	StatusPending    SyncJobStatus = "PENDING"
	StatusInProgress SyncJobStatus = "IN_PROGRESS"
	StatusSuccess    SyncJobStatus = "SUCCESS"
	StatusFailed     SyncJobStatus = "FAILED"
	StatusWarning    SyncJobStatus = "WARNING"
)

// IsTerminal reports whether no further transition is allowed
func (s SyncJobStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusWarning
}

// SyncJob is one extract-transform-load run for a (tenant, category) pair.
// RemoteVersionCredit/Payment record the upstream versions this job targets;
// the next tick compares fresh probes against the last SUCCESS job's versions.
type SyncJob struct {
	ID                   int64
	TenantID             uuid.UUID
	LoanCategory         LoanCategory
	Status               SyncJobStatus
	RemoteVersionCredit  *int64
	RemoteVersionPayment *int64
	StartedAt            *time.Time
	CompletedAt          *time.Time
	ErrorMessage         *string
	ResultSummary        *string
	CreatedAt            time.Time
}

// SyncJobRepository provides access to sync job records
type SyncJobRepository interface {
	// Create inserts a PENDING job. The store enforces at most one
	// PENDING/IN_PROGRESS job per (tenant, category); a second concurrent
	// create returns ErrJobAlreadyRunning.
	Create(ctx context.Context, job *SyncJob) (*SyncJob, error)
	GetByID(ctx context.Context, id int64) (*SyncJob, error)
	// GetLastSuccess returns the most recent SUCCESS job for the pair,
	// ordered by completed_at, or ErrJobNotFound when none exists.
	GetLastSuccess(ctx context.Context, tenantID uuid.UUID, category LoanCategory) (*SyncJob, error)
	// MarkInProgress transitions PENDING -> IN_PROGRESS and sets started_at.
	MarkInProgress(ctx context.Context, id int64) error
	// MarkCompleted transitions to a terminal status and sets completed_at.
	// errorMessage is set on failure, resultSummary on success.
	MarkCompleted(ctx context.Context, id int64, status SyncJobStatus, errorMessage, resultSummary *string) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*SyncJob, error)
}
