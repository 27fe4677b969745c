package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/middleware"
	"github.com/teamsec/banksync/internal/service"
)

// ReportHandler serves the tenant-facing read API: sync reports and the loan
// summary view over the live warehouse partition
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ReportResponse represents one sync report joined with its job
type ReportResponse struct {
	JobID              int64           `json:"job_id"`
	LoanCategory       string          `json:"loan_category"`
	Status             string          `json:"status"`
	CompletedAt        *string         `json:"completed_at"`
	TotalRowsProcessed int64           `json:"total_rows_processed"`
	ProfilingStats     json.RawMessage `json:"profiling_stats"`
	ValidationErrors   []string        `json:"validation_errors"`
}

// ListReports handles GET /api/reports
func (h *ReportHandler) ListReports(c echo.Context) error {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}
	category, err := domain.ParseLoanCategory(c.QueryParam("loan_category"))
	if err != nil {
		return NewValidationError(c, "Invalid loan category", []ValidationError{
			{Field: "loan_category", Message: "must be COMMERCIAL or RETAIL"},
		})
	}

	reports, err := h.reportService.GetRecentReports(c.Request().Context(), tenant, category)
	if err != nil {
		return NewInternalError(c, "Failed to list sync reports")
	}

	resp := make([]ReportResponse, 0, len(reports))
	for _, r := range reports {
		validationErrors := r.Report.ValidationErrors
		if validationErrors == nil {
			validationErrors = []string{}
		}
		resp = append(resp, ReportResponse{
			JobID:              r.Report.JobID,
			LoanCategory:       string(r.LoanCategory),
			Status:             string(r.Status),
			CompletedAt:        formatTime(r.CompletedAt),
			TotalRowsProcessed: r.Report.TotalRowsProcessed,
			ProfilingStats:     r.Report.ProfilingStats,
			ValidationErrors:   validationErrors,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"reports": resp})
}

// LoanResponse represents one loan in the summary view
type LoanResponse struct {
	LoanAccountNumber           string   `json:"loan_account_number"`
	OriginalLoanAmount          *float64 `json:"original_loan_amount"`
	OutstandingPrincipalBalance *float64 `json:"outstanding_principal_balance"`
	LoanStatusCode              *string  `json:"loan_status_code"`
	DaysPastDue                 *int32   `json:"days_past_due"`
}

// ListLoans handles GET /api/data
func (h *ReportHandler) ListLoans(c echo.Context) error {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}
	category, err := domain.ParseLoanCategory(c.QueryParam("loan_category"))
	if err != nil {
		return NewValidationError(c, "Invalid loan category", []ValidationError{
			{Field: "loan_category", Message: "must be COMMERCIAL or RETAIL"},
		})
	}

	loans, err := h.reportService.GetLoanSummaries(c.Request().Context(), tenant, category)
	if err != nil {
		return NewInternalError(c, "Failed to query loans")
	}

	resp := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		resp = append(resp, LoanResponse{
			LoanAccountNumber:           loan.LoanAccountNumber,
			OriginalLoanAmount:          loan.OriginalLoanAmount,
			OutstandingPrincipalBalance: loan.OutstandingPrincipalBalance,
			LoanStatusCode:              loan.LoanStatusCode,
			DaysPastDue:                 loan.DaysPastDue,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": resp})
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
