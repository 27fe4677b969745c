package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/teamsec/banksync/internal/domain"
)

// StagingLoader streams one upstream file into a staging table
type StagingLoader interface {
	StreamToStaging(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory, fileType, staging, base string) (int64, error)
}

// PipelineService executes one sync job: stage, validate, profile, swap.
// It owns all job bookkeeping so callers only see the final status.
type PipelineService struct {
	jobRepo    domain.SyncJobRepository
	reportRepo domain.SyncReportRepository
	tenantRepo domain.TenantRepository
	warehouse  domain.Warehouse
	loader     StagingLoader
	logger     zerolog.Logger
}

// NewPipelineService creates a new PipelineService
func NewPipelineService(
	jobRepo domain.SyncJobRepository,
	reportRepo domain.SyncReportRepository,
	tenantRepo domain.TenantRepository,
	warehouse domain.Warehouse,
	loader StagingLoader,
	logger zerolog.Logger,
) *PipelineService {
	return &PipelineService{
		jobRepo:    jobRepo,
		reportRepo: reportRepo,
		tenantRepo: tenantRepo,
		warehouse:  warehouse,
		loader:     loader,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
}

type pipelineResult struct {
	creditRows  int64
	paymentRows int64
	warnings    []string
	stats       json.RawMessage
}

// ProcessSync runs a dispatched job to a terminal status. Validation failures
// end the job as FAILED with a report carrying the findings; any other error
// ends it as FAILED with a System Error message. Warnings are recorded in the
// report without blocking the swap.
func (s *PipelineService) ProcessSync(ctx context.Context, jobID int64) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %d: %w", jobID, err)
	}
	tenant, err := s.tenantRepo.GetByID(ctx, job.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant for job %d: %w", jobID, err)
	}
	if err := s.jobRepo.MarkInProgress(ctx, jobID); err != nil {
		return fmt.Errorf("claim job %d: %w", jobID, err)
	}

	logger := s.logger.With().
		Int64("job_id", jobID).
		Str("tenant_id", tenant.TenantID).
		Str("loan_category", string(job.LoanCategory)).
		Logger()
	logger.Info().Msg("Sync job started")

	result, err := s.execute(ctx, job, tenant)
	if err != nil {
		if vf, ok := domain.AsValidationFailure(err); ok {
			msg := err.Error()
			if markErr := s.jobRepo.MarkCompleted(ctx, jobID, domain.StatusFailed, &msg, nil); markErr != nil {
				logger.Error().Err(markErr).Msg("Failed to mark job failed")
			}
			report := &domain.SyncReport{
				JobID:              jobID,
				TotalRowsProcessed: result.creditRows + result.paymentRows,
				ValidationErrors:   vf.Errors,
			}
			if _, repErr := s.reportRepo.Create(ctx, report); repErr != nil {
				logger.Error().Err(repErr).Msg("Failed to store validation report")
			}
			logger.Warn().Strs("findings", vf.Errors).Msg("Sync aborted on validation")
			return err
		}

		msg := "System Error: " + err.Error()
		if markErr := s.jobRepo.MarkCompleted(ctx, jobID, domain.StatusFailed, &msg, nil); markErr != nil {
			logger.Error().Err(markErr).Msg("Failed to mark job failed")
		}
		logger.Error().Err(err).Msg("Sync job failed")
		return err
	}

	report := &domain.SyncReport{
		JobID:              jobID,
		TotalRowsProcessed: result.creditRows + result.paymentRows,
		ProfilingStats:     result.stats,
		ValidationErrors:   result.warnings,
	}
	if _, err := s.reportRepo.Create(ctx, report); err != nil {
		logger.Error().Err(err).Msg("Failed to store sync report")
	}
	summary := fmt.Sprintf("Synced %d credit rows and %d payment rows", result.creditRows, result.paymentRows)
	if err := s.jobRepo.MarkCompleted(ctx, jobID, domain.StatusSuccess, nil, &summary); err != nil {
		logger.Error().Err(err).Msg("Failed to mark job succeeded")
		return err
	}

	logger.Info().
		Int64("credit_rows", result.creditRows).
		Int64("payment_rows", result.paymentRows).
		Int("warnings", len(result.warnings)).
		Msg("Sync job completed")
	return nil
}

// execute runs the data plane of one job. Staging tables are dropped on every
// exit path; after a successful swap the drops are no-ops.
func (s *PipelineService) execute(ctx context.Context, job *domain.SyncJob, tenant *domain.Tenant) (*pipelineResult, error) {
	result := &pipelineResult{}

	stgCredits, err := s.warehouse.PrepareStaging(ctx, domain.CreditsTable, tenant.TenantID, job.LoanCategory)
	if err != nil {
		return result, err
	}
	stgPayments, err := s.warehouse.PrepareStaging(ctx, domain.PaymentsTable, tenant.TenantID, job.LoanCategory)
	if err != nil {
		s.dropStaging(ctx, stgCredits)
		return result, err
	}
	defer s.dropStaging(ctx, stgCredits)
	defer s.dropStaging(ctx, stgPayments)

	last, err := s.jobRepo.GetLastSuccess(ctx, job.TenantID, job.LoanCategory)
	if err != nil && !errors.Is(err, domain.ErrJobNotFound) {
		return result, err
	}

	var lastCredit, lastPayment *int64
	if last != nil {
		lastCredit = last.RemoteVersionCredit
		lastPayment = last.RemoteVersionPayment
	}
	result.creditRows, err = s.stage(ctx, job, tenant, stgCredits, domain.CreditsTable,
		job.LoanCategory.CreditFileType(), job.RemoteVersionCredit, lastCredit)
	if err != nil {
		return result, err
	}
	result.paymentRows, err = s.stage(ctx, job, tenant, stgPayments, domain.PaymentsTable,
		job.LoanCategory.PaymentFileType(), job.RemoteVersionPayment, lastPayment)
	if err != nil {
		return result, err
	}

	warnings, err := s.validate(ctx, stgCredits, stgPayments)
	if err != nil {
		return result, err
	}
	result.warnings = warnings

	stats, err := s.profile(ctx, stgCredits, stgPayments)
	if err != nil {
		return result, err
	}
	result.stats = stats

	// Credits swap first so payment rows never reference loans that are not
	// yet visible.
	if err := s.warehouse.SwapPartition(ctx, domain.CreditsTable, stgCredits, tenant.TenantID, job.LoanCategory); err != nil {
		return result, err
	}
	if err := s.warehouse.SwapPartition(ctx, domain.PaymentsTable, stgPayments, tenant.TenantID, job.LoanCategory); err != nil {
		return result, err
	}
	return result, nil
}

// stage fills one staging table, either by downloading the upstream file or,
// when this job's version matches the last successful sync, by copying the
// live partition and skipping the download.
func (s *PipelineService) stage(ctx context.Context, job *domain.SyncJob, tenant *domain.Tenant, staging, base, fileType string, jobVersion, lastVersion *int64) (int64, error) {
	if jobVersion != nil && lastVersion != nil && *jobVersion == *lastVersion {
		if err := s.warehouse.CopyPartition(ctx, staging, base, tenant.TenantID, job.LoanCategory); err != nil {
			return 0, err
		}
		rows, err := s.warehouse.CountRows(ctx, staging)
		if err != nil {
			return 0, err
		}
		s.logger.Info().
			Int64("job_id", job.ID).
			Str("file_type", fileType).
			Uint64("rows", rows).
			Msg("Upstream version unchanged, reused live partition")
		return int64(rows), nil
	}
	return s.loader.StreamToStaging(ctx, tenant, job.LoanCategory, fileType, staging, base)
}

// validate runs the data quality checks over staging. Ghost loans are fatal;
// orphans and negative balances are reported as warnings.
func (s *PipelineService) validate(ctx context.Context, stgCredits, stgPayments string) ([]string, error) {
	ghosts, err := s.warehouse.CountGhostLoans(ctx, stgCredits)
	if err != nil {
		return nil, err
	}
	if ghosts > 0 {
		return nil, &domain.ValidationFailure{Errors: []string{
			fmt.Sprintf("CRITICAL: %d rows missing Loan Account Number. Sync Aborted.", ghosts),
		}}
	}

	var warnings []string
	orphans, err := s.warehouse.CountOrphanPayments(ctx, stgPayments, stgCredits)
	if err != nil {
		return nil, err
	}
	if orphans > 0 {
		warnings = append(warnings, fmt.Sprintf("WARNING: %d payments are orphans (no matching loan).", orphans))
	}

	negatives, err := s.warehouse.CountNegativeBalances(ctx, stgCredits)
	if err != nil {
		return nil, err
	}
	if negatives > 0 {
		warnings = append(warnings, fmt.Sprintf("WARNING: %d loans have negative balances.", negatives))
	}
	return warnings, nil
}

func (s *PipelineService) dropStaging(ctx context.Context, staging string) {
	if err := s.warehouse.DropTable(ctx, staging); err != nil {
		s.logger.Error().Err(err).Str("staging", staging).Msg("Failed to drop staging table")
	}
}
