package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"facturas/internal/domain"
	"facturas/internal/export"
	"facturas/internal/port"
	"facturas/internal/service"
)

const maxDataBodyBytes = 1 << 20

// InvoiceHandler handles invoice upload, listing and processing endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	exportService  service.ExportService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService, exportService service.ExportService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, exportService: exportService}
}

// Upload handles POST /api/v1/invoices/upload
// @Summary Upload an invoice
// @Description Upload a PDF, JPG or PNG invoice. The queue worker processes it in the background.
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice file (PDF, JPG, or PNG)"
// @Success 201 {object} Response{data=domain.Invoice} "Invoice uploaded"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /invoices/upload [post]
func (h *InvoiceHandler) Upload(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	inv, err := h.invoiceService.Upload(c.Request.Context(), service.UploadInvoiceInput{
		UserID: userID,
		File:   file,
		Header: header,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, inv)
}

// Sync handles POST /api/v1/invoices/sync
// @Summary Import stored files
// @Description Create pending invoices for stored files that have no invoice yet
// @Tags invoices
// @Produce json
// @Success 200 {object} Response{data=service.SyncResult} "Imported invoices"
// @Security BearerAuth
// @Router /invoices/sync [post]
func (h *InvoiceHandler) Sync(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	result, err := h.invoiceService.Sync(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List the user's invoices, newest first, with optional filters
// @Tags invoices
// @Produce json
// @Param search query string false "Matches provider, invoice number or file name"
// @Param status query string false "pending, uploaded, processing, processed or error"
// @Param date_from query string false "Issue date lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Issue date upper bound (YYYY-MM-DD)"
// @Param amount_min query number false "Minimum total"
// @Param amount_max query number false "Maximum total"
// @Param category query string false "Category"
// @Param provider query string false "Provider"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} Response{data=[]domain.Invoice,meta=PagMeta} "Invoices"
// @Failure 400 {object} ErrorResponseBody "Invalid filter"
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	filter, err := parseInvoiceFilter(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), userID, filter, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Export handles GET /api/v1/invoices/export
// @Summary Export invoices
// @Description Download the filtered invoices as CSV or XLSX
// @Tags invoices
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file "Spreadsheet"
// @Failure 400 {object} ErrorResponseBody "Invalid filter or format"
// @Security BearerAuth
// @Router /invoices/export [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	format := service.NormalizeExportFormat(c.Query("format"))
	if format == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}
	filter, err := parseInvoiceFilter(c)
	if err != nil {
		HandleError(c, err)
		return
	}

	// Buffer so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.exportService.Export(c.Request.Context(), userID, filter, format, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename("facturas", format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, service.ExportContentTypes[format], buf.Bytes())
}

// Get handles GET /api/v1/invoices/:id
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=service.InvoiceDetail} "Invoice with download URL"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c)
	if !ok {
		return
	}

	detail, err := h.invoiceService.Get(c.Request.Context(), userID, invoiceID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, detail)
}

// UpdateData handles PUT /api/v1/invoices/:id/data
// @Summary Correct extracted data
// @Description Replace the invoice data. The body is normalized like a model answer.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body domain.InvoiceData true "Invoice data"
// @Success 200 {object} Response{data=domain.Invoice} "Updated invoice"
// @Failure 400 {object} ErrorResponseBody "Invalid invoice data"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /invoices/{id}/data [put]
func (h *InvoiceHandler) UpdateData(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDataBodyBytes))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "request body must be a JSON object")
		return
	}

	inv, err := h.invoiceService.UpdateData(c.Request.Context(), userID, invoiceID, raw)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Process handles POST /api/v1/invoices/:id/process
// @Summary Process an invoice now
// @Description Run OCR and extraction. A non-empty text skips OCR.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body ProcessRequest false "Corrected text"
// @Success 200 {object} Response{data=domain.Invoice} "Processed invoice"
// @Failure 409 {object} ErrorResponseBody "Already processing"
// @Failure 422 {object} ErrorResponseBody "No text could be read"
// @Failure 429 {object} ErrorResponseBody "Extraction quota exhausted"
// @Failure 502 {object} ErrorResponseBody "Unusable model answer"
// @Security BearerAuth
// @Router /invoices/{id}/process [post]
func (h *InvoiceHandler) Process(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c)
	if !ok {
		return
	}

	var body ProcessRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil && err != io.EOF {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
	}

	inv, err := h.invoiceService.Process(c.Request.Context(), userID, invoiceID, body.Text)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
// @Summary Delete an invoice
// @Description Delete the invoice and its stored file
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} Response{data=MessageResponse} "Deleted"
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), userID, invoiceID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "invoice deleted"})
}

// parseInvoiceFilter reads the listing filters from the query string.
func parseInvoiceFilter(c *gin.Context) (port.InvoiceFilter, error) {
	f := port.InvoiceFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: strings.TrimSpace(c.Query("category")),
		Provider: strings.TrimSpace(c.Query("provider")),
	}

	if s := strings.TrimSpace(c.Query("status")); s != "" && s != "all" {
		f.Status = domain.InvoiceStatus(s)
		if !f.Status.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidFilter, s)
		}
	}

	for _, d := range []struct {
		key string
		dst *string
	}{{"date_from", &f.DateFrom}, {"date_to", &f.DateTo}} {
		v := strings.TrimSpace(c.Query(d.key))
		if v == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return f, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrInvalidFilter, d.key)
		}
		*d.dst = v
	}

	for _, a := range []struct {
		key string
		dst **float64
	}{{"amount_min", &f.AmountMin}, {"amount_max", &f.AmountMax}} {
		v := strings.TrimSpace(c.Query(a.key))
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidFilter, a.key)
		}
		*a.dst = &n
	}
	return f, nil
}
