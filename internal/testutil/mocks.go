package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teamsec/banksync/internal/domain"
)

// MockTenantRepository is a mock implementation of domain.TenantRepository
type MockTenantRepository struct {
	Tenants      map[uuid.UUID]*domain.Tenant
	ByTokenHash  map[string]*domain.Tenant
	ListActiveFn func(ctx context.Context) ([]*domain.Tenant, error)
}

// NewMockTenantRepository creates a new MockTenantRepository
func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{
		Tenants:     make(map[uuid.UUID]*domain.Tenant),
		ByTokenHash: make(map[string]*domain.Tenant),
	}
}

// Create creates a new tenant
func (m *MockTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	tenant.ID = uuid.New()
	tenant.CreatedAt = time.Now()
	m.AddTenant(tenant)
	return tenant, nil
}

// GetByID retrieves a tenant by ID
func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	if tenant, ok := m.Tenants[id]; ok {
		return tenant, nil
	}
	return nil, domain.ErrTenantNotFound
}

// GetByTokenHash retrieves an active tenant by API key hash
func (m *MockTenantRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	if tenant, ok := m.ByTokenHash[hash]; ok && tenant.IsActive {
		return tenant, nil
	}
	return nil, domain.ErrTenantNotFound
}

// ListActive retrieves all active tenants
func (m *MockTenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	if m.ListActiveFn != nil {
		return m.ListActiveFn(ctx)
	}
	var tenants []*domain.Tenant
	for _, tenant := range m.Tenants {
		if tenant.IsActive {
			tenants = append(tenants, tenant)
		}
	}
	return tenants, nil
}

// AddTenant adds a tenant to the mock repository (helper for tests)
func (m *MockTenantRepository) AddTenant(tenant *domain.Tenant) {
	m.Tenants[tenant.ID] = tenant
	if tenant.APITokenHash != nil {
		m.ByTokenHash[*tenant.APITokenHash] = tenant
	}
}

// MockSyncJobRepository is a mock implementation of domain.SyncJobRepository
type MockSyncJobRepository struct {
	Jobs     map[int64]*domain.SyncJob
	NextID   int64
	CreateFn func(ctx context.Context, job *domain.SyncJob) (*domain.SyncJob, error)
}

// NewMockSyncJobRepository creates a new MockSyncJobRepository
func NewMockSyncJobRepository() *MockSyncJobRepository {
	return &MockSyncJobRepository{
		Jobs:   make(map[int64]*domain.SyncJob),
		NextID: 1,
	}
}

// Create inserts a PENDING job, enforcing one live job per (tenant, category)
func (m *MockSyncJobRepository) Create(ctx context.Context, job *domain.SyncJob) (*domain.SyncJob, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, job)
	}
	for _, existing := range m.Jobs {
		if existing.TenantID == job.TenantID && existing.LoanCategory == job.LoanCategory && !existing.Status.IsTerminal() {
			return nil, domain.ErrJobAlreadyRunning
		}
	}
	job.ID = m.NextID
	m.NextID++
	job.CreatedAt = time.Now()
	m.Jobs[job.ID] = job
	return job, nil
}

// GetByID retrieves a job by ID
func (m *MockSyncJobRepository) GetByID(ctx context.Context, id int64) (*domain.SyncJob, error) {
	if job, ok := m.Jobs[id]; ok {
		return job, nil
	}
	return nil, domain.ErrJobNotFound
}

// GetLastSuccess returns the most recent SUCCESS job for the pair
func (m *MockSyncJobRepository) GetLastSuccess(ctx context.Context, tenantID uuid.UUID, category domain.LoanCategory) (*domain.SyncJob, error) {
	var last *domain.SyncJob
	for _, job := range m.Jobs {
		if job.TenantID != tenantID || job.LoanCategory != category || job.Status != domain.StatusSuccess {
			continue
		}
		if last == nil || (job.CompletedAt != nil && last.CompletedAt != nil && job.CompletedAt.After(*last.CompletedAt)) {
			last = job
		}
	}
	if last == nil {
		return nil, domain.ErrJobNotFound
	}
	return last, nil
}

// MarkInProgress transitions PENDING -> IN_PROGRESS
func (m *MockSyncJobRepository) MarkInProgress(ctx context.Context, id int64) error {
	job, ok := m.Jobs[id]
	if !ok || job.Status != domain.StatusPending {
		return domain.ErrJobNotFound
	}
	now := time.Now()
	job.Status = domain.StatusInProgress
	job.StartedAt = &now
	return nil
}

// MarkCompleted transitions to a terminal status
func (m *MockSyncJobRepository) MarkCompleted(ctx context.Context, id int64, status domain.SyncJobStatus, errorMessage, resultSummary *string) error {
	job, ok := m.Jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	now := time.Now()
	job.Status = status
	job.CompletedAt = &now
	job.ErrorMessage = errorMessage
	job.ResultSummary = resultSummary
	return nil
}

// ListByTenant returns a tenant's jobs
func (m *MockSyncJobRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.SyncJob, error) {
	var jobs []*domain.SyncJob
	for _, job := range m.Jobs {
		if job.TenantID == tenantID {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// AddJob adds a job to the mock repository (helper for tests)
func (m *MockSyncJobRepository) AddJob(job *domain.SyncJob) {
	if job.ID == 0 {
		job.ID = m.NextID
		m.NextID++
	} else if job.ID >= m.NextID {
		m.NextID = job.ID + 1
	}
	m.Jobs[job.ID] = job
}

// MockSyncReportRepository is a mock implementation of domain.SyncReportRepository
type MockSyncReportRepository struct {
	Reports map[int64]*domain.SyncReport
	NextID  int64
}

// NewMockSyncReportRepository creates a new MockSyncReportRepository
func NewMockSyncReportRepository() *MockSyncReportRepository {
	return &MockSyncReportRepository{
		Reports: make(map[int64]*domain.SyncReport),
		NextID:  1,
	}
}

// Create persists a report
func (m *MockSyncReportRepository) Create(ctx context.Context, report *domain.SyncReport) (*domain.SyncReport, error) {
	report.ID = m.NextID
	m.NextID++
	report.CreatedAt = time.Now()
	m.Reports[report.JobID] = report
	return report, nil
}

// GetByJobID retrieves the report attached to one job
func (m *MockSyncReportRepository) GetByJobID(ctx context.Context, jobID int64) (*domain.SyncReport, error) {
	if report, ok := m.Reports[jobID]; ok {
		return report, nil
	}
	return nil, domain.ErrReportNotFound
}

// ListRecent returns reports joined with job context
func (m *MockSyncReportRepository) ListRecent(ctx context.Context, tenantID uuid.UUID, category domain.LoanCategory, limit int) ([]*domain.ReportWithJob, error) {
	var reports []*domain.ReportWithJob
	for _, report := range m.Reports {
		if len(reports) >= limit {
			break
		}
		reports = append(reports, &domain.ReportWithJob{
			Report:       *report,
			TenantID:     tenantID.String(),
			LoanCategory: category,
		})
	}
	return reports, nil
}

// MockWarehouse is a mock implementation of domain.Warehouse. Tables tracks
// which tables currently exist; Rows holds inserted batches per table.
type MockWarehouse struct {
	Tables           map[string]bool
	Rows             map[string][][]any
	PartitionRows    map[string]int64
	GhostCount       uint64
	OrphanCount      uint64
	NegativeCount    uint64
	LoanSummaries    []*domain.LoanSummary
	Swapped          []string
	Dropped          []string
	Copied           []string
	PrepareStagingFn func(ctx context.Context, base, tenantID string, category domain.LoanCategory) (string, error)
	SwapPartitionFn  func(ctx context.Context, base, staging, tenantID string, category domain.LoanCategory) error
	GhostFn          func(ctx context.Context, stgCredits string) (uint64, error)
}

// NewMockWarehouse creates a new MockWarehouse
func NewMockWarehouse() *MockWarehouse {
	return &MockWarehouse{
		Tables:        make(map[string]bool),
		Rows:          make(map[string][][]any),
		PartitionRows: make(map[string]int64),
	}
}

// InitTables marks the base tables as existing
func (m *MockWarehouse) InitTables(ctx context.Context) error {
	m.Tables[domain.CreditsTable] = true
	m.Tables[domain.PaymentsTable] = true
	return nil
}

// PrepareStaging creates a fresh staging table
func (m *MockWarehouse) PrepareStaging(ctx context.Context, base, tenantID string, category domain.LoanCategory) (string, error) {
	if m.PrepareStagingFn != nil {
		return m.PrepareStagingFn(ctx, base, tenantID, category)
	}
	staging := fmt.Sprintf("stg_%s_%s_%s", tenantID, category, base)
	m.Tables[staging] = true
	m.Rows[staging] = nil
	return staging, nil
}

// InsertBatch records an inserted batch
func (m *MockWarehouse) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	m.Rows[table] = append(m.Rows[table], rows...)
	return nil
}

// CopyPartition simulates reusing the live partition
func (m *MockWarehouse) CopyPartition(ctx context.Context, staging, base, tenantID string, category domain.LoanCategory) error {
	m.Copied = append(m.Copied, staging)
	for i := int64(0); i < m.PartitionRows[base]; i++ {
		m.Rows[staging] = append(m.Rows[staging], []any{})
	}
	return nil
}

// SwapPartition records the swap and drops staging
func (m *MockWarehouse) SwapPartition(ctx context.Context, base, staging, tenantID string, category domain.LoanCategory) error {
	if m.SwapPartitionFn != nil {
		return m.SwapPartitionFn(ctx, base, staging, tenantID, category)
	}
	m.Swapped = append(m.Swapped, base)
	delete(m.Tables, staging)
	return nil
}

// DropTable drops a table if it exists
func (m *MockWarehouse) DropTable(ctx context.Context, table string) error {
	m.Dropped = append(m.Dropped, table)
	delete(m.Tables, table)
	return nil
}

// CountRows returns the row count of a table
func (m *MockWarehouse) CountRows(ctx context.Context, table string) (uint64, error) {
	return uint64(len(m.Rows[table])), nil
}

// CountGhostLoans returns the configured ghost count
func (m *MockWarehouse) CountGhostLoans(ctx context.Context, stgCredits string) (uint64, error) {
	if m.GhostFn != nil {
		return m.GhostFn(ctx, stgCredits)
	}
	return m.GhostCount, nil
}

// CountOrphanPayments returns the configured orphan count
func (m *MockWarehouse) CountOrphanPayments(ctx context.Context, stgPayments, stgCredits string) (uint64, error) {
	return m.OrphanCount, nil
}

// CountNegativeBalances returns the configured negative balance count
func (m *MockWarehouse) CountNegativeBalances(ctx context.Context, stgCredits string) (uint64, error) {
	return m.NegativeCount, nil
}

// ProfileNumeric returns an empty numeric profile
func (m *MockWarehouse) ProfileNumeric(ctx context.Context, table, field string) (*domain.NumericProfile, error) {
	return &domain.NumericProfile{}, nil
}

// ProfileCategorical returns an empty categorical profile
func (m *MockWarehouse) ProfileCategorical(ctx context.Context, table, field string) (*domain.CategoricalProfile, error) {
	return &domain.CategoricalProfile{}, nil
}

// ProfileDate returns an empty date profile
func (m *MockWarehouse) ProfileDate(ctx context.Context, table, field string) (*domain.DateProfile, error) {
	return &domain.DateProfile{}, nil
}

// ProfileString returns an empty string profile
func (m *MockWarehouse) ProfileString(ctx context.Context, table, field string) (*domain.StringProfile, error) {
	return &domain.StringProfile{}, nil
}

// ListLoanSummaries returns the configured summaries
func (m *MockWarehouse) ListLoanSummaries(ctx context.Context, tenantID string, category domain.LoanCategory, limit int) ([]*domain.LoanSummary, error) {
	if len(m.LoanSummaries) > limit {
		return m.LoanSummaries[:limit], nil
	}
	return m.LoanSummaries, nil
}
