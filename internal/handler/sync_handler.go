package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/middleware"
	"github.com/teamsec/banksync/internal/service"
)

// conflictMessage is the operator-facing body for every 409 on the trigger
// endpoint. Callers cannot distinguish a dead upstream from a running job on
// purpose; the job list has the details.
const conflictMessage = "Could not start job. Check if External Bank API is up or job is already running."

// SyncHandler handles sync trigger and job status requests
type SyncHandler struct {
	syncService *service.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *service.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// TriggerSyncRequest represents the sync trigger request body. Force defaults
// to true when omitted; an operator hitting the endpoint wants a sync, not a
// version check.
type TriggerSyncRequest struct {
	LoanCategory string `json:"loan_category"`
	Force        *bool  `json:"force"`
}

// TriggerSync handles POST /api/sync
func (h *SyncHandler) TriggerSync(c echo.Context) error {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req TriggerSyncRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	category, err := domain.ParseLoanCategory(req.LoanCategory)
	if err != nil {
		return NewValidationError(c, "Invalid loan category", []ValidationError{
			{Field: "loan_category", Message: "must be COMMERCIAL or RETAIL"},
		})
	}

	force := true
	if req.Force != nil {
		force = *req.Force
	}

	job, err := h.syncService.TriggerSync(c.Request().Context(), tenant, category, force)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUpstreamUnavailable),
			errors.Is(err, domain.ErrNoNewData),
			errors.Is(err, domain.ErrJobAlreadyRunning):
			return c.JSON(http.StatusConflict, map[string]any{
				"error": conflictMessage,
			})
		default:
			return NewInternalError(c, "Failed to start sync job")
		}
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "Sync job started.",
		"job_id":  job.ID,
	})
}

// JobResponse represents a sync job in list responses
type JobResponse struct {
	ID                   int64   `json:"id"`
	LoanCategory         string  `json:"loan_category"`
	Status               string  `json:"status"`
	RemoteVersionCredit  *int64  `json:"remote_version_credit"`
	RemoteVersionPayment *int64  `json:"remote_version_payment"`
	StartedAt            *string `json:"started_at"`
	CompletedAt          *string `json:"completed_at"`
	ErrorMessage         *string `json:"error_message"`
	ResultSummary        *string `json:"result_summary"`
}

// ListJobs handles GET /api/jobs
func (h *SyncHandler) ListJobs(c echo.Context) error {
	tenant := middleware.GetTenant(c)
	if tenant == nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	jobs, err := h.syncService.ListJobs(c.Request().Context(), tenant, 20)
	if err != nil {
		return NewInternalError(c, "Failed to list sync jobs")
	}

	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, JobResponse{
			ID:                   job.ID,
			LoanCategory:         string(job.LoanCategory),
			Status:               string(job.Status),
			RemoteVersionCredit:  job.RemoteVersionCredit,
			RemoteVersionPayment: job.RemoteVersionPayment,
			StartedAt:            formatTime(job.StartedAt),
			CompletedAt:          formatTime(job.CompletedAt),
			ErrorMessage:         job.ErrorMessage,
			ResultSummary:        job.ResultSummary,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": resp})
}
