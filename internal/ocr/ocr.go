// Package ocr reads plain text out of invoice PDFs and images.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/port"
)

const (
	EngineTextLayer = "pdf-text"
	EngineTesseract = "tesseract"
)

// Extractor implements port.TextExtractor. PDFs are read from their text
// layer first; scanned PDFs and images go through tesseract.
type Extractor struct {
	cfg    config.OCRConfig
	runner Runner
}

// NewExtractor creates an Extractor. A nil runner uses ExecRunner.
func NewExtractor(cfg config.OCRConfig, runner Runner) *Extractor {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.TesseractPath == "" {
		cfg.TesseractPath = "tesseract"
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// Extract returns the cleaned text of content. Failures and empty results
// wrap domain.ErrRecognitionFailed.
func (e *Extractor) Extract(ctx context.Context, content []byte, contentType string) (*port.OCRResult, error) {
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrRecognitionFailed)
	}

	if e.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	var (
		res *port.OCRResult
		err error
	)
	if contentType == "application/pdf" {
		res, err = e.extractPDF(ctx, content)
	} else {
		res, err = e.extractImage(ctx, content, contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionFailed, err)
	}

	res.Text = Clean(res.Text)
	if res.Text == "" {
		return nil, fmt.Errorf("%w: no text found", domain.ErrRecognitionFailed)
	}
	return res, nil
}

func (e *Extractor) extractPDF(ctx context.Context, content []byte) (*port.OCRResult, error) {
	text, pages, err := pdfTextLayer(content, e.cfg.MaxPDFPages)
	if err != nil {
		log.Warn().Err(err).Msg("ocr.Extract: pdf text layer unreadable, trying raster OCR")
	}
	if strings.TrimSpace(text) != "" {
		return &port.OCRResult{Text: text, Pages: pages, Engine: EngineTextLayer}, nil
	}

	text, pages, err = e.pdfRasterOCR(ctx, content)
	if err != nil {
		return nil, err
	}
	return &port.OCRResult{Text: text, Pages: pages, Engine: EngineTesseract}, nil
}

func (e *Extractor) extractImage(ctx context.Context, content []byte, contentType string) (*port.OCRResult, error) {
	ext := ".png"
	if contentType == "image/jpeg" {
		ext = ".jpg"
	}
	tmp, err := os.CreateTemp("", "facturas-img-*"+ext)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	text, err := e.tesseract(ctx, tmp.Name())
	if err != nil {
		return nil, err
	}
	return &port.OCRResult{Text: text, Pages: 1, Engine: EngineTesseract}, nil
}

// tesseract runs `tesseract <file> stdout -l <lang>`.
func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	args := []string{path, "stdout", "-l", e.cfg.Language}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", filepath.Clean(e.cfg.TessdataDir))
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.TesseractPath, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 500))
	}
	return string(out), nil
}
