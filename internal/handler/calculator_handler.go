package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"facturas/internal/service"
)

// CalculatorHandler handles the manual invoice calculator.
type CalculatorHandler struct {
	calculatorService service.CalculatorService
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(calculatorService service.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{calculatorService: calculatorService}
}

// Preview handles POST /api/v1/calculator/preview
// @Summary Compute invoice totals
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body service.CalculatorInput true "Line items"
// @Success 200 {object} Response{data=service.CalculatorTotals} "Totals"
// @Failure 400 {object} ErrorResponseBody "Invalid input"
// @Security BearerAuth
// @Router /calculator/preview [post]
func (h *CalculatorHandler) Preview(c *gin.Context) {
	var input service.CalculatorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	totals, err := h.calculatorService.Compute(input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, totals)
}

// Save handles POST /api/v1/calculator/invoices
// @Summary Save a manual invoice
// @Description Store the computed invoice as processed, with a generated PDF
// @Tags calculator
// @Accept json
// @Produce json
// @Param request body service.CalculatorInput true "Provider and line items"
// @Success 201 {object} Response{data=domain.Invoice} "Stored invoice"
// @Failure 400 {object} ErrorResponseBody "Invalid input"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /calculator/invoices [post]
func (h *CalculatorHandler) Save(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	var input service.CalculatorInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	inv, err := h.calculatorService.Save(c.Request.Context(), userID, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, inv)
}
