package service

import (
	"context"

	"github.com/teamsec/banksync/internal/domain"
)

const (
	// DefaultReportLimit caps how many recent reports the read API returns
	DefaultReportLimit = 5
	// DefaultLoanLimit caps how many loan summaries the read API returns
	DefaultLoanLimit = 100
)

// ReportService serves the tenant-facing read API: recent sync reports from
// the job store and loan summaries from the warehouse.
type ReportService struct {
	reportRepo domain.SyncReportRepository
	warehouse  domain.Warehouse
}

// NewReportService creates a new ReportService
func NewReportService(reportRepo domain.SyncReportRepository, warehouse domain.Warehouse) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		warehouse:  warehouse,
	}
}

// GetRecentReports returns the latest sync reports for a tenant and category
func (s *ReportService) GetRecentReports(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory) ([]*domain.ReportWithJob, error) {
	return s.reportRepo.ListRecent(ctx, tenant.ID, category, DefaultReportLimit)
}

// GetLoanSummaries returns loans from the live warehouse partition
func (s *ReportService) GetLoanSummaries(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory) ([]*domain.LoanSummary, error) {
	return s.warehouse.ListLoanSummaries(ctx, tenant.TenantID, category, DefaultLoanLimit)
}
