package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user is inactive")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrUploadFailed        = errors.New("file upload to storage failed")
	ErrInvoiceBusy         = errors.New("invoice is already being processed")
	ErrEmptyText           = errors.New("invoice text is required")

	// ErrRecognitionFailed means no text could be read from the uploaded file.
	ErrRecognitionFailed = errors.New("could not read text from the file, try a clearer image")
	// ErrExtractionFormat means the model answer did not contain a usable JSON object.
	ErrExtractionFormat       = errors.New("the model did not return valid invoice JSON")
	ErrExtractorNotConfigured = errors.New("no extraction provider configured")

	ErrInvalidInvoiceData = errors.New("invalid invoice data")
	ErrProviderRequired   = errors.New("provider is required")
	ErrNoItems            = errors.New("at least one item is required")
	ErrInvalidTaxRate     = errors.New("tax rate must be between 0 and 1")
	ErrInvalidCurrency    = errors.New("currency must be MXN, USD or EUR")
	ErrInvalidRange       = errors.New("range must be 6m, year or all")
	ErrInvalidFilter      = errors.New("invalid filter")
)
