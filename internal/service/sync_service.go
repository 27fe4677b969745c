package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/teamsec/banksync/internal/domain"
)

// VersionProber checks upstream data versions without downloading anything
type VersionProber interface {
	RemoteVersion(ctx context.Context, tenant *domain.Tenant, fileType string) *int64
}

// Dispatcher hands a created job to the background worker pool
type Dispatcher interface {
	Dispatch(jobID int64) error
}

// SyncService decides when a (tenant, category) pair needs a sync and creates
// the job record. The actual pipeline runs in the worker pool.
type SyncService struct {
	tenantRepo domain.TenantRepository
	jobRepo    domain.SyncJobRepository
	prober     VersionProber
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	tenantRepo domain.TenantRepository,
	jobRepo domain.SyncJobRepository,
	prober VersionProber,
	dispatcher Dispatcher,
	logger zerolog.Logger,
) *SyncService {
	return &SyncService{
		tenantRepo: tenantRepo,
		jobRepo:    jobRepo,
		prober:     prober,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "sync_service").Logger(),
	}
}

// TriggerSync probes the upstream versions for both file types and, when new
// data exists (or force is set), creates a PENDING job and dispatches it.
// Returns ErrUpstreamUnavailable when either probe fails, ErrNoNewData when
// versions match the last successful sync, and ErrJobAlreadyRunning when a
// job for the pair is already live.
func (s *SyncService) TriggerSync(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory, force bool) (*domain.SyncJob, error) {
	creditVersion := s.prober.RemoteVersion(ctx, tenant, category.CreditFileType())
	paymentVersion := s.prober.RemoteVersion(ctx, tenant, category.PaymentFileType())
	if creditVersion == nil || paymentVersion == nil {
		return nil, domain.ErrUpstreamUnavailable
	}

	if !force {
		last, err := s.jobRepo.GetLastSuccess(ctx, tenant.ID, category)
		if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
			return nil, err
		}
		if last != nil &&
			!versionChanged(*creditVersion, last.RemoteVersionCredit) &&
			!versionChanged(*paymentVersion, last.RemoteVersionPayment) {
			return nil, domain.ErrNoNewData
		}
	}

	job, err := s.jobRepo.Create(ctx, &domain.SyncJob{
		TenantID:             tenant.ID,
		LoanCategory:         category,
		Status:               domain.StatusPending,
		RemoteVersionCredit:  creditVersion,
		RemoteVersionPayment: paymentVersion,
	})
	if err != nil {
		return nil, err
	}

	if err := s.dispatcher.Dispatch(job.ID); err != nil {
		msg := "System Error: " + err.Error()
		if markErr := s.jobRepo.MarkCompleted(ctx, job.ID, domain.StatusFailed, &msg, nil); markErr != nil {
			s.logger.Error().Err(markErr).Int64("job_id", job.ID).Msg("Failed to mark undispatched job")
		}
		return nil, err
	}

	s.logger.Info().
		Int64("job_id", job.ID).
		Str("tenant_id", tenant.TenantID).
		Str("loan_category", string(category)).
		Bool("force", force).
		Msg("Sync job created")
	return job, nil
}

// CheckForUpdates runs one scheduler tick: every active tenant crossed with
// every loan category. Skips are routine and logged at debug level.
func (s *SyncService) CheckForUpdates(ctx context.Context) {
	tenants, err := s.tenantRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list tenants for update check")
		return
	}

	for _, tenant := range tenants {
		for _, category := range domain.AllCategories {
			job, err := s.TriggerSync(ctx, tenant, category, false)
			switch {
			case err == nil:
				s.logger.Info().
					Int64("job_id", job.ID).
					Str("tenant_id", tenant.TenantID).
					Str("loan_category", string(category)).
					Msg("Scheduled sync for new upstream data")
			case errors.Is(err, domain.ErrNoNewData), errors.Is(err, domain.ErrJobAlreadyRunning):
				s.logger.Debug().
					Str("tenant_id", tenant.TenantID).
					Str("loan_category", string(category)).
					Str("reason", err.Error()).
					Msg("Skipping pair")
			case errors.Is(err, domain.ErrUpstreamUnavailable):
				s.logger.Warn().
					Str("tenant_id", tenant.TenantID).
					Str("loan_category", string(category)).
					Msg("Upstream unreachable, skipping pair")
			default:
				s.logger.Error().Err(err).
					Str("tenant_id", tenant.TenantID).
					Str("loan_category", string(category)).
					Msg("Failed to trigger sync")
			}
		}
	}
}

// ListJobs returns a tenant's recent sync jobs, newest first
func (s *SyncService) ListJobs(ctx context.Context, tenant *domain.Tenant, limit int) ([]*domain.SyncJob, error) {
	return s.jobRepo.ListByTenant(ctx, tenant.ID, limit)
}

// versionChanged reports whether a fresh probe differs from the version the
// last successful sync recorded. A last sync that never saw a version counts
// as changed.
func versionChanged(fresh int64, last *int64) bool {
	return last == nil || *last != fresh
}
