package port

import (
	"context"
	"time"

	"facturas/internal/domain"
)

// GenerateInput is a single prompt for a text generation model.
type GenerateInput struct {
	Prompt    string
	MaxTokens int
	// JSON asks providers that support it for a JSON-only answer.
	JSON bool
}

// GenerateOutput is the free-form answer of a model.
type GenerateOutput struct {
	Text      string
	ModelUsed string
}

// TextGenerator abstracts a hosted language model.
type TextGenerator interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error)
}

// OCRResult is the plain text read from a file.
type OCRResult struct {
	Text   string
	Pages  int
	Engine string
}

// TextExtractor reads plain text out of a PDF or image.
type TextExtractor interface {
	Extract(ctx context.Context, content []byte, contentType string) (*OCRResult, error)
}

// ExtractResult is the outcome of turning invoice text into structured data.
type ExtractResult struct {
	Data      domain.InvoiceData
	RawJSON   string
	ModelUsed string
}

// InvoiceExtractor turns OCR text into a normalized invoice.
type InvoiceExtractor interface {
	Extract(ctx context.Context, text string) (*ExtractResult, error)
	Classify(ctx context.Context, text, provider string) string
	// CooldownUntil is the time every provider is rate limited until, or
	// the zero time when at least one is available.
	CooldownUntil() time.Time
}
