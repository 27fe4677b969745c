package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/testutil"
)

// stubLoader simulates the upstream download per file type, filling the
// staging table with the configured number of rows
type stubLoader struct {
	wh    *testutil.MockWarehouse
	rows  map[string]int64
	errs  map[string]error
	calls []string
}

func (l *stubLoader) StreamToStaging(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory, fileType, staging, base string) (int64, error) {
	l.calls = append(l.calls, fileType)
	if err := l.errs[fileType]; err != nil {
		return 0, err
	}
	n := l.rows[fileType]
	if l.wh != nil {
		if err := l.wh.InsertBatch(ctx, staging, nil, make([][]any, n)); err != nil {
			return 0, err
		}
	}
	return n, nil
}

type pipelineFixture struct {
	jobRepo    *testutil.MockSyncJobRepository
	reportRepo *testutil.MockSyncReportRepository
	tenantRepo *testutil.MockTenantRepository
	warehouse  *testutil.MockWarehouse
	loader     *stubLoader
	svc        *PipelineService
	tenant     *domain.Tenant
	job        *domain.SyncJob
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	tenantRepo := testutil.NewMockTenantRepository()
	tenant := newTestTenant()
	tenantRepo.AddTenant(tenant)

	jobRepo := testutil.NewMockSyncJobRepository()
	job := &domain.SyncJob{
		TenantID:             tenant.ID,
		LoanCategory:         domain.CategoryCommercial,
		Status:               domain.StatusPending,
		RemoteVersionCredit:  i64(2),
		RemoteVersionPayment: i64(2),
	}
	jobRepo.AddJob(job)

	wh := testutil.NewMockWarehouse()
	loader := &stubLoader{wh: wh, rows: map[string]int64{
		"commercial_credit":  120,
		"commercial_payment": 480,
	}}

	return &pipelineFixture{
		jobRepo:    jobRepo,
		reportRepo: testutil.NewMockSyncReportRepository(),
		tenantRepo: tenantRepo,
		warehouse:  wh,
		loader:     loader,
		svc:        NewPipelineService(jobRepo, testutil.NewMockSyncReportRepository(), tenantRepo, wh, loader, zerolog.Nop()),
		tenant:     tenant,
		job:        job,
	}
}

func TestProcessSyncSuccess(t *testing.T) {
	f := newPipelineFixture(t)
	reportRepo := testutil.NewMockSyncReportRepository()
	f.svc = NewPipelineService(f.jobRepo, reportRepo, f.tenantRepo, f.warehouse, f.loader, zerolog.Nop())

	err := f.svc.ProcessSync(context.Background(), f.job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, f.job.Status)
	assert.NotNil(t, f.job.StartedAt)
	assert.NotNil(t, f.job.CompletedAt)
	assert.Nil(t, f.job.ErrorMessage)
	require.NotNil(t, f.job.ResultSummary)
	assert.Contains(t, *f.job.ResultSummary, "credit rows")
	assert.Equal(t, []string{"commercial_credit", "commercial_payment"}, f.loader.calls)

	// Credits partition swaps before payments
	require.Equal(t, []string{domain.CreditsTable, domain.PaymentsTable}, f.warehouse.Swapped)

	report, err := reportRepo.GetByJobID(context.Background(), f.job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), report.TotalRowsProcessed)
	assert.Empty(t, report.ValidationErrors)

	var stats map[string]map[string]any
	require.NoError(t, json.Unmarshal(report.ProfilingStats, &stats))
	require.Contains(t, stats, "credits")
	require.Contains(t, stats, "payments")
	assert.Contains(t, stats["credits"], "_meta")
	assert.Contains(t, stats["credits"], "nominal_interest_rate")
	assert.Contains(t, stats["payments"], "installment_status")
}

func TestProcessSyncGhostLoansAbort(t *testing.T) {
	f := newPipelineFixture(t)
	reportRepo := testutil.NewMockSyncReportRepository()
	f.svc = NewPipelineService(f.jobRepo, reportRepo, f.tenantRepo, f.warehouse, f.loader, zerolog.Nop())
	f.warehouse.GhostCount = 17

	err := f.svc.ProcessSync(context.Background(), f.job.ID)
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)

	assert.Equal(t, domain.StatusFailed, f.job.Status)
	require.NotNil(t, f.job.ErrorMessage)
	assert.Equal(t, "Data Validation Failed", *f.job.ErrorMessage)
	assert.Empty(t, f.warehouse.Swapped, "no swap after a failed validation")

	report, err := reportRepo.GetByJobID(context.Background(), f.job.ID)
	require.NoError(t, err)
	require.Len(t, report.ValidationErrors, 1)
	assert.Equal(t, "CRITICAL: 17 rows missing Loan Account Number. Sync Aborted.", report.ValidationErrors[0])

	// Both staging tables cleaned up
	assert.Len(t, f.warehouse.Dropped, 2)
}

func TestProcessSyncWarningsDoNotBlock(t *testing.T) {
	f := newPipelineFixture(t)
	reportRepo := testutil.NewMockSyncReportRepository()
	f.svc = NewPipelineService(f.jobRepo, reportRepo, f.tenantRepo, f.warehouse, f.loader, zerolog.Nop())
	f.warehouse.OrphanCount = 4
	f.warehouse.NegativeCount = 2

	err := f.svc.ProcessSync(context.Background(), f.job.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, f.job.Status)
	assert.Len(t, f.warehouse.Swapped, 2)

	report, err := reportRepo.GetByJobID(context.Background(), f.job.ID)
	require.NoError(t, err)
	require.Len(t, report.ValidationErrors, 2)
	assert.Equal(t, "WARNING: 4 payments are orphans (no matching loan).", report.ValidationErrors[0])
	assert.Equal(t, "WARNING: 2 loans have negative balances.", report.ValidationErrors[1])
}

func TestProcessSyncReusesUnchangedPartition(t *testing.T) {
	f := newPipelineFixture(t)

	// Last success carries the same credit version but an older payment one
	now := time.Now().Add(-time.Hour)
	f.jobRepo.AddJob(&domain.SyncJob{
		TenantID:             f.tenant.ID,
		LoanCategory:         domain.CategoryCommercial,
		Status:               domain.StatusSuccess,
		RemoteVersionCredit:  i64(2),
		RemoteVersionPayment: i64(1),
		CompletedAt:          &now,
	})
	f.warehouse.PartitionRows[domain.CreditsTable] = 75

	err := f.svc.ProcessSync(context.Background(), f.job.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"commercial_payment"}, f.loader.calls, "credit download skipped")
	assert.Len(t, f.warehouse.Copied, 1)
}

func TestProcessSyncLoaderFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.loader.errs = map[string]error{
		"commercial_payment": errors.New("connection reset"),
	}

	err := f.svc.ProcessSync(context.Background(), f.job.ID)
	require.Error(t, err)

	assert.Equal(t, domain.StatusFailed, f.job.Status)
	require.NotNil(t, f.job.ErrorMessage)
	assert.Equal(t, "System Error: connection reset", *f.job.ErrorMessage)
	assert.Empty(t, f.warehouse.Swapped)
	assert.Len(t, f.warehouse.Dropped, 2)
}

func TestProcessSyncUnknownJob(t *testing.T) {
	f := newPipelineFixture(t)
	err := f.svc.ProcessSync(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
