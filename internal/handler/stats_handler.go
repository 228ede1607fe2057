package handler

import (
	"github.com/gin-gonic/gin"

	"facturas/internal/service"
)

// StatsHandler handles stats endpoints.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Dashboard handles GET /api/v1/stats
// @Summary Dashboard figures
// @Description File counts, amount totals, top categories and invoices due within 30 days
// @Tags stats
// @Produce json
// @Success 200 {object} Response{data=domain.DashboardStats} "Aggregate statistics"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /stats [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	stats, err := h.statsService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stats)
}

// Monthly handles GET /api/v1/stats/monthly
// @Summary Expense evolution
// @Description Monthly totals by issue date with the change against the previous month
// @Tags stats
// @Produce json
// @Param range query string false "6m, year or all" default(6m)
// @Success 200 {object} Response{data=[]domain.MonthlyExpense} "Monthly buckets"
// @Failure 400 {object} ErrorResponseBody "Invalid range"
// @Security BearerAuth
// @Router /stats/monthly [get]
func (h *StatsHandler) Monthly(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	months, err := h.statsService.Monthly(c.Request.Context(), userID, c.Query("range"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, months)
}
