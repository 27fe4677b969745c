package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/testutil"
)

// stubProber returns fixed versions per file type
type stubProber struct {
	versions map[string]*int64
}

func (p *stubProber) RemoteVersion(ctx context.Context, tenant *domain.Tenant, fileType string) *int64 {
	return p.versions[fileType]
}

// stubDispatcher records dispatched job IDs
type stubDispatcher struct {
	jobIDs []int64
	err    error
}

func (d *stubDispatcher) Dispatch(jobID int64) error {
	if d.err != nil {
		return d.err
	}
	d.jobIDs = append(d.jobIDs, jobID)
	return nil
}

func i64(v int64) *int64 { return &v }

func newTestTenant() *domain.Tenant {
	return &domain.Tenant{
		ID:       uuid.New(),
		TenantID: "BANK001",
		Name:     "Bank One",
		Slug:     "bank-one",
		APIURL:   "http://bank.example/export",
		IsActive: true,
	}
}

func TestTriggerSyncCreatesAndDispatches(t *testing.T) {
	tenantRepo := testutil.NewMockTenantRepository()
	jobRepo := testutil.NewMockSyncJobRepository()
	prober := &stubProber{versions: map[string]*int64{
		"commercial_credit":  i64(7),
		"commercial_payment": i64(3),
	}}
	dispatcher := &stubDispatcher{}
	svc := NewSyncService(tenantRepo, jobRepo, prober, dispatcher, zerolog.Nop())

	tenant := newTestTenant()
	job, err := svc.TriggerSync(context.Background(), tenant, domain.CategoryCommercial, false)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, tenant.ID, job.TenantID)
	require.NotNil(t, job.RemoteVersionCredit)
	assert.Equal(t, int64(7), *job.RemoteVersionCredit)
	require.NotNil(t, job.RemoteVersionPayment)
	assert.Equal(t, int64(3), *job.RemoteVersionPayment)
	assert.Equal(t, []int64{job.ID}, dispatcher.jobIDs)
}

func TestTriggerSyncUpstreamDown(t *testing.T) {
	svc := NewSyncService(testutil.NewMockTenantRepository(), testutil.NewMockSyncJobRepository(),
		&stubProber{versions: map[string]*int64{}}, &stubDispatcher{}, zerolog.Nop())

	_, err := svc.TriggerSync(context.Background(), newTestTenant(), domain.CategoryRetail, false)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestTriggerSyncNoNewData(t *testing.T) {
	jobRepo := testutil.NewMockSyncJobRepository()
	tenant := newTestTenant()
	now := time.Now()
	jobRepo.AddJob(&domain.SyncJob{
		TenantID:             tenant.ID,
		LoanCategory:         domain.CategoryCommercial,
		Status:               domain.StatusSuccess,
		RemoteVersionCredit:  i64(7),
		RemoteVersionPayment: i64(3),
		CompletedAt:          &now,
	})
	prober := &stubProber{versions: map[string]*int64{
		"commercial_credit":  i64(7),
		"commercial_payment": i64(3),
	}}
	dispatcher := &stubDispatcher{}
	svc := NewSyncService(testutil.NewMockTenantRepository(), jobRepo, prober, dispatcher, zerolog.Nop())

	_, err := svc.TriggerSync(context.Background(), tenant, domain.CategoryCommercial, false)
	assert.ErrorIs(t, err, domain.ErrNoNewData)
	assert.Empty(t, dispatcher.jobIDs)

	// Force overrides the version check
	job, err := svc.TriggerSync(context.Background(), tenant, domain.CategoryCommercial, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{job.ID}, dispatcher.jobIDs)
}

func TestTriggerSyncNewVersionOnOneFile(t *testing.T) {
	jobRepo := testutil.NewMockSyncJobRepository()
	tenant := newTestTenant()
	now := time.Now()
	jobRepo.AddJob(&domain.SyncJob{
		TenantID:             tenant.ID,
		LoanCategory:         domain.CategoryCommercial,
		Status:               domain.StatusSuccess,
		RemoteVersionCredit:  i64(7),
		RemoteVersionPayment: i64(3),
		CompletedAt:          &now,
	})
	// Only the payment version bumped
	prober := &stubProber{versions: map[string]*int64{
		"commercial_credit":  i64(7),
		"commercial_payment": i64(4),
	}}
	svc := NewSyncService(testutil.NewMockTenantRepository(), jobRepo, prober, &stubDispatcher{}, zerolog.Nop())

	job, err := svc.TriggerSync(context.Background(), tenant, domain.CategoryCommercial, false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *job.RemoteVersionCredit)
	assert.Equal(t, int64(4), *job.RemoteVersionPayment)
}

func TestTriggerSyncOneProbeAbsentSkips(t *testing.T) {
	// An absent probe skips the pair even under force
	prober := &stubProber{versions: map[string]*int64{
		"commercial_payment": i64(4),
	}}
	dispatcher := &stubDispatcher{}
	svc := NewSyncService(testutil.NewMockTenantRepository(), testutil.NewMockSyncJobRepository(),
		prober, dispatcher, zerolog.Nop())

	_, err := svc.TriggerSync(context.Background(), newTestTenant(), domain.CategoryCommercial, true)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Empty(t, dispatcher.jobIDs)
}

func TestTriggerSyncAlreadyRunning(t *testing.T) {
	jobRepo := testutil.NewMockSyncJobRepository()
	tenant := newTestTenant()
	jobRepo.AddJob(&domain.SyncJob{
		TenantID:     tenant.ID,
		LoanCategory: domain.CategoryRetail,
		Status:       domain.StatusInProgress,
	})
	prober := &stubProber{versions: map[string]*int64{
		"retail_credit":  i64(1),
		"retail_payment": i64(1),
	}}
	svc := NewSyncService(testutil.NewMockTenantRepository(), jobRepo, prober, &stubDispatcher{}, zerolog.Nop())

	_, err := svc.TriggerSync(context.Background(), tenant, domain.CategoryRetail, true)
	assert.ErrorIs(t, err, domain.ErrJobAlreadyRunning)
}

func TestTriggerSyncDispatchFailure(t *testing.T) {
	jobRepo := testutil.NewMockSyncJobRepository()
	prober := &stubProber{versions: map[string]*int64{
		"retail_credit":  i64(1),
		"retail_payment": i64(1),
	}}
	dispatcher := &stubDispatcher{err: ErrQueueFull}
	svc := NewSyncService(testutil.NewMockTenantRepository(), jobRepo, prober, dispatcher, zerolog.Nop())

	_, err := svc.TriggerSync(context.Background(), newTestTenant(), domain.CategoryRetail, false)
	assert.ErrorIs(t, err, ErrQueueFull)

	// The orphaned job must not stay PENDING forever
	require.Len(t, jobRepo.Jobs, 1)
	for _, job := range jobRepo.Jobs {
		assert.Equal(t, domain.StatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
		assert.Contains(t, *job.ErrorMessage, "System Error")
	}
}

func TestCheckForUpdates(t *testing.T) {
	tenantRepo := testutil.NewMockTenantRepository()
	tenant := newTestTenant()
	tenantRepo.AddTenant(tenant)
	inactive := newTestTenant()
	inactive.TenantID = "BANK002"
	inactive.IsActive = false
	tenantRepo.AddTenant(inactive)

	jobRepo := testutil.NewMockSyncJobRepository()
	prober := &stubProber{versions: map[string]*int64{
		"commercial_credit":  i64(1),
		"commercial_payment": i64(1),
		"retail_credit":      i64(1),
		"retail_payment":     i64(1),
	}}
	dispatcher := &stubDispatcher{}
	svc := NewSyncService(tenantRepo, jobRepo, prober, dispatcher, zerolog.Nop())

	svc.CheckForUpdates(context.Background())

	// One job per category for the single active tenant
	assert.Len(t, dispatcher.jobIDs, len(domain.AllCategories))
	for _, job := range jobRepo.Jobs {
		assert.Equal(t, tenant.ID, job.TenantID)
	}
}

func TestVersionChanged(t *testing.T) {
	assert.True(t, versionChanged(5, nil), "first observed version is a change")
	assert.True(t, versionChanged(6, i64(5)))
	assert.False(t, versionChanged(5, i64(5)))
}

func TestListJobs(t *testing.T) {
	jobRepo := testutil.NewMockSyncJobRepository()
	tenant := newTestTenant()
	jobRepo.AddJob(&domain.SyncJob{TenantID: tenant.ID, LoanCategory: domain.CategoryRetail, Status: domain.StatusSuccess})
	jobRepo.AddJob(&domain.SyncJob{TenantID: uuid.New(), LoanCategory: domain.CategoryRetail, Status: domain.StatusSuccess})

	svc := NewSyncService(testutil.NewMockTenantRepository(), jobRepo, &stubProber{}, &stubDispatcher{}, zerolog.Nop())
	jobs, err := svc.ListJobs(context.Background(), tenant, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}
