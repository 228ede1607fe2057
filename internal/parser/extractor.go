package parser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"facturas/internal/domain"
	"facturas/internal/normalize"
	"facturas/internal/port"
)

const (
	extractMaxTokens  = 8192
	classifyMaxTokens = 32
)

// Extractor turns OCR text into a normalized invoice using a TextGenerator.
// While a provider quota is exhausted every call fails fast with a
// RateLimitError carrying the remaining wait.
type Extractor struct {
	gen port.TextGenerator

	mu            sync.Mutex
	cooldownUntil time.Time
	now           func() time.Time
}

// NewExtractor creates an Extractor. A nil generator makes every Extract
// call fail with domain.ErrExtractorNotConfigured.
func NewExtractor(gen port.TextGenerator) *Extractor {
	return &Extractor{gen: gen, now: time.Now}
}

// Extract runs prompt -> model -> JSON -> normalize.
func (e *Extractor) Extract(ctx context.Context, text string) (*port.ExtractResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	if e.gen == nil {
		return nil, domain.ErrExtractorNotConfigured
	}
	if err := e.checkCooldown(); err != nil {
		return nil, err
	}

	out, err := e.gen.Generate(ctx, port.GenerateInput{
		Prompt:    BuildInvoicePrompt(text),
		MaxTokens: extractMaxTokens,
		JSON:      true,
	})
	if err != nil {
		e.recordRateLimit(err)
		return nil, fmt.Errorf("parser.Extract: %w", err)
	}

	obj, raw, err := DecodeObject(out.Text)
	if err != nil {
		log.Warn().Err(err).Str("model", out.ModelUsed).Str("response", truncate(out.Text, 500)).
			Msg("parser.Extract: unusable model response")
		return nil, err
	}

	data := normalize.Invoice(obj)
	if !normalize.HasBasicFields(data) {
		log.Warn().Str("model", out.ModelUsed).
			Msg("parser.Extract: no provider, date or total found; the document may be unclear")
	}

	return &port.ExtractResult{
		Data:      data,
		RawJSON:   raw,
		ModelUsed: out.ModelUsed,
	}, nil
}

// Classify asks the model for an expense category. Any failure, or an
// answer outside the known categories, yields domain.CategoryOther.
func (e *Extractor) Classify(ctx context.Context, text, provider string) string {
	if e.gen == nil || e.checkCooldown() != nil {
		return domain.CategoryOther
	}
	out, err := e.gen.Generate(ctx, port.GenerateInput{
		Prompt:    BuildCategoryPrompt(text, provider),
		MaxTokens: classifyMaxTokens,
	})
	if err != nil {
		e.recordRateLimit(err)
		log.Warn().Err(err).Msg("parser.Classify: falling back to default category")
		return domain.CategoryOther
	}
	return MatchCategory(out.Text)
}

// MatchCategory maps a free-form model answer onto a known category.
// Case and accents are ignored.
func MatchCategory(answer string) string {
	answer = fold(strings.Trim(strings.TrimSpace(answer), ".-*\"' "))
	for _, c := range domain.ExpenseCategories {
		if answer == fold(c) {
			return c
		}
	}
	for _, c := range domain.ExpenseCategories {
		if strings.Contains(answer, fold(c)) {
			return c
		}
	}
	return domain.CategoryOther
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// CooldownUntil returns the end of the current rate-limit window, or the
// zero time when extraction may proceed.
func (e *Extractor) CooldownUntil() time.Time {
	e.mu.Lock()
	until := e.cooldownUntil
	e.mu.Unlock()

	if fg, ok := e.gen.(*FallbackGenerator); ok {
		if t := fg.CooldownUntil(); t.After(until) {
			until = t
		}
	}
	if !until.After(e.now()) {
		return time.Time{}
	}
	return until
}

func (e *Extractor) checkCooldown() error {
	until := e.CooldownUntil()
	if until.IsZero() {
		return nil
	}
	secs := int(until.Sub(e.now()).Seconds())
	if secs < 1 {
		secs = 1
	}
	return NewRateLimitError("all", fmt.Errorf("extraction paused until %s", until.Format(time.RFC3339)), secs)
}

func (e *Extractor) recordRateLimit(err error) {
	rlErr, ok := AsRateLimit(err)
	if !ok {
		return
	}
	until := rlErr.RetryUntil(e.now())
	e.mu.Lock()
	if until.After(e.cooldownUntil) {
		e.cooldownUntil = until
	}
	e.mu.Unlock()
	log.Warn().Str("provider", rlErr.Provider).Time("retry_until", until).
		Msg("parser.Extract: rate limited, pausing extraction")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
