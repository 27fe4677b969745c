package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/teamsec/banksync/internal/middleware"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, authMiddleware *middleware.APIKeyAuthMiddleware, rateLimiter *middleware.RateLimiter, syncHandler *SyncHandler, reportHandler *ReportHandler) {
	// Tenant API (protected, rate limited)
	api := e.Group("/api")
	api.Use(authMiddleware.Authenticate())
	api.Use(middleware.RateLimitMiddleware(rateLimiter))

	api.POST("/sync", syncHandler.TriggerSync)
	api.GET("/jobs", syncHandler.ListJobs)
	api.GET("/data", reportHandler.ListLoans)
	api.GET("/reports", reportHandler.ListReports)
}
