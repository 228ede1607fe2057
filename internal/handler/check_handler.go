package handler

import (
	"github.com/gin-gonic/gin"

	"facturas/internal/service"
)

// CheckHandler exposes invoice consistency checks.
type CheckHandler struct {
	checkService service.CheckService
}

// NewCheckHandler creates a new CheckHandler.
func NewCheckHandler(checkService service.CheckService) *CheckHandler {
	return &CheckHandler{checkService: checkService}
}

// Report handles GET /api/v1/invoices/:id/checks
// @Summary Check extracted data
// @Description Arithmetic, date and duplicate checks on the invoice data. Nothing is modified.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=validator.Report} "Check report"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /invoices/{id}/checks [get]
func (h *CheckHandler) Report(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c)
	if !ok {
		return
	}

	report, err := h.checkService.Check(c.Request.Context(), userID, invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, report)
}
