package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"facturas/internal/service"
)

// ProcessHandler exposes stateless extraction and the extraction cooldown.
type ProcessHandler struct {
	invoiceService service.InvoiceService
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(invoiceService service.InvoiceService) *ProcessHandler {
	return &ProcessHandler{invoiceService: invoiceService}
}

// ProcessText handles POST /api/v1/process-invoice
// @Summary Extract invoice fields from text
// @Description Send OCR text to the language model and return the normalized invoice. Nothing is stored.
// @Tags process
// @Accept json
// @Produce json
// @Param request body ProcessTextRequest true "Invoice text"
// @Success 200 {object} Response{data=domain.InvoiceData} "Normalized invoice"
// @Failure 400 {object} ErrorResponseBody "Missing text"
// @Failure 429 {object} ErrorResponseBody "Extraction quota exhausted"
// @Failure 502 {object} ErrorResponseBody "Unusable model answer"
// @Security BearerAuth
// @Router /process-invoice [post]
func (h *ProcessHandler) ProcessText(c *gin.Context) {
	var input ProcessTextRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	result, err := h.invoiceService.ExtractText(c.Request.Context(), input.Text)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result.Data)
}

// Cooldown handles GET /api/v1/process/cooldown
// @Summary Extraction cooldown
// @Description Report whether extraction is paused by provider rate limits and until when
// @Tags process
// @Produce json
// @Success 200 {object} Response{data=CooldownResponse} "Cooldown state"
// @Security BearerAuth
// @Router /process/cooldown [get]
func (h *ProcessHandler) Cooldown(c *gin.Context) {
	until := h.invoiceService.CooldownUntil()
	resp := CooldownResponse{}
	if remaining := time.Until(until); !until.IsZero() && remaining > 0 {
		u := until.UTC()
		resp.Active = true
		resp.RetryUntil = &u
		resp.RemainingSecs = int(remaining.Round(time.Second).Seconds())
	}
	RespondOK(c, resp)
}
