package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"facturas/internal/domain"
	"facturas/internal/middleware"
	"facturas/internal/parser"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code           string     `json:"code"`
	Message        string     `json:"message"`
	RetryAfterSecs int        `json:"retry_after_secs,omitempty"`
	RetryUntil     *time.Time `json:"retry_until,omitempty"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	if rlErr, ok := parser.AsRateLimit(err); ok {
		return http.StatusTooManyRequests, "RATE_LIMITED", "extraction quota exhausted for " + rlErr.Provider + ", try again later"
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid credentials"
	case errors.Is(err, domain.ErrUserInactive):
		return http.StatusForbidden, "USER_INACTIVE", "user is inactive"
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "DUPLICATE_EMAIL", "email already registered"
	case errors.Is(err, domain.ErrWeakPassword):
		return http.StatusBadRequest, "WEAK_PASSWORD", domain.ErrWeakPassword.Error()
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, jpg, png"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrUploadFailed):
		return http.StatusInternalServerError, "UPLOAD_FAILED", "file upload to storage failed"
	case errors.Is(err, domain.ErrInvoiceBusy):
		return http.StatusConflict, "INVOICE_BUSY", domain.ErrInvoiceBusy.Error()
	case errors.Is(err, domain.ErrEmptyText):
		return http.StatusBadRequest, "EMPTY_TEXT", domain.ErrEmptyText.Error()
	case errors.Is(err, domain.ErrRecognitionFailed):
		return http.StatusUnprocessableEntity, "RECOGNITION_FAILED", domain.ErrRecognitionFailed.Error()
	case errors.Is(err, domain.ErrExtractionFormat):
		return http.StatusBadGateway, "EXTRACTION_FORMAT", domain.ErrExtractionFormat.Error()
	case errors.Is(err, domain.ErrExtractorNotConfigured):
		return http.StatusServiceUnavailable, "EXTRACTOR_NOT_CONFIGURED", domain.ErrExtractorNotConfigured.Error()
	case errors.Is(err, domain.ErrInvalidInvoiceData):
		return http.StatusBadRequest, "INVALID_INVOICE_DATA", err.Error()
	case errors.Is(err, domain.ErrProviderRequired):
		return http.StatusBadRequest, "PROVIDER_REQUIRED", domain.ErrProviderRequired.Error()
	case errors.Is(err, domain.ErrNoItems):
		return http.StatusBadRequest, "NO_ITEMS", domain.ErrNoItems.Error()
	case errors.Is(err, domain.ErrInvalidTaxRate):
		return http.StatusBadRequest, "INVALID_TAX_RATE", domain.ErrInvalidTaxRate.Error()
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest, "INVALID_CURRENCY", domain.ErrInvalidCurrency.Error()
	case errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest, "INVALID_RANGE", domain.ErrInvalidRange.Error()
	case errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest, "INVALID_FILTER", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
// Rate-limit errors also carry a Retry-After header and the retry deadline.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get(middleware.ContextKeyRequestID)
		log.Error().Err(err).Interface("request_id", requestID).Str("path", c.Request.URL.Path).
			Msg("handler: internal error")
	}

	apiErr := &APIError{Code: code, Message: msg}
	if rlErr, ok := parser.AsRateLimit(err); ok {
		secs := int(math.Ceil(rlErr.RetryAfter.Seconds()))
		until := rlErr.RetryUntil(time.Now()).UTC()
		apiErr.RetryAfterSecs = secs
		apiErr.RetryUntil = &until
		c.Header("Retry-After", strconv.Itoa(secs))
	}
	c.JSON(status, APIResponse{Success: false, Error: apiErr})
}

// extractUserID reads the authenticated user. Returns false if the auth
// context is missing (error response already written).
func extractUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context")
		return uuid.Nil, false
	}
	return userID, true
}

// parseID reads the :id path parameter.
func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return uuid.Nil, false
	}
	return id, true
}
