package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

// pdfTextLayer reads the embedded text of every page, joined with "\n".
// Scanned PDFs have no text layer and yield "".
func pdfTextLayer(content []byte, maxPages int) (text string, pages int, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed files.
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("reading pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", 0, fmt.Errorf("opening pdf: %w", err)
	}

	pages = r.NumPage()
	limit := pages
	if maxPages > 0 && limit > maxPages {
		limit = maxPages
	}

	texts := make([]string, 0, limit)
	for i := 1; i <= limit; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		t, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Err(err).Int("page", i).Msg("ocr.pdfTextLayer: skipping unreadable page")
			continue
		}
		texts = append(texts, t)
	}
	return strings.Join(texts, "\n"), pages, nil
}

// pdfRasterOCR renders pages with pdftoppm and runs tesseract on each.
func (e *Extractor) pdfRasterOCR(ctx context.Context, content []byte) (string, int, error) {
	tmpDir, err := os.MkdirTemp("", "facturas-pdf-*")
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return "", 0, err
	}

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPDFPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPDFPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.PdftoppmPath, args...); err != nil {
		return "", 0, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 500))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("pdftoppm produced no images")
	}

	texts := make([]string, 0, len(matches))
	for _, img := range matches {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			log.Warn().Err(err).Str("page", filepath.Base(img)).Msg("ocr.pdfRasterOCR: page failed")
			continue
		}
		texts = append(texts, txt)
	}
	return strings.Join(texts, "\n"), len(matches), nil
}
