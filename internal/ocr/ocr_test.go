package ocr_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/ocr"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	stdout map[string]string
	err    map[string]error
	// pages makes pdftoppm write this many page images.
	pages int
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if err := f.err[name]; err != nil {
		return nil, []byte("boom"), err
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			if err := os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	return []byte(f.stdout[name]), nil, nil
}

func newExtractor(r ocr.Runner) *ocr.Extractor {
	return ocr.NewExtractor(config.OCRConfig{Language: "spa"}, r)
}

func textPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		pdf.Cell(0, 10, l)
		pdf.Ln(10)
	}
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func blankPDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestExtract_Image(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"tesseract": "FACTURA\t\t 001\r\n\n\n\nTotal  $100\n-----\n"}}

	res, err := newExtractor(r).Extract(context.Background(), []byte("jpegdata"), "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "FACTURA 001\n\nTotal $100", res.Text)
	assert.Equal(t, ocr.EngineTesseract, res.Engine)
	assert.Equal(t, 1, res.Pages)

	require.Len(t, r.calls, 1)
	args := r.calls[0].args
	assert.True(t, strings.HasSuffix(args[0], ".jpg"))
	assert.Equal(t, []string{"stdout", "-l", "spa"}, args[1:])
	_, statErr := os.Stat(args[0])
	assert.True(t, os.IsNotExist(statErr), "temp image removed")
}

func TestExtract_ImageTessdataDir(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"tesseract": "hola"}}
	e := ocr.NewExtractor(config.OCRConfig{Language: "spa+eng", TessdataDir: "/opt/tessdata/"}, r)

	_, err := e.Extract(context.Background(), []byte("png"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "-l", "spa+eng", "--tessdata-dir", "/opt/tessdata"}, r.calls[0].args[1:])
}

func TestExtract_EmptyRecognitionFails(t *testing.T) {
	r := &fakeRunner{stdout: map[string]string{"tesseract": "  \n\f \n"}}

	_, err := newExtractor(r).Extract(context.Background(), []byte("png"), "image/png")

	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
}

func TestExtract_EngineFailure(t *testing.T) {
	r := &fakeRunner{err: map[string]error{"tesseract": errors.New("exit status 1")}}

	_, err := newExtractor(r).Extract(context.Background(), []byte("png"), "image/png")

	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := newExtractor(&fakeRunner{}).Extract(context.Background(), []byte("x"), "text/plain")

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestExtract_EmptyContent(t *testing.T) {
	_, err := newExtractor(&fakeRunner{}).Extract(context.Background(), nil, "image/png")

	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
}

func TestExtract_PDFTextLayer(t *testing.T) {
	r := &fakeRunner{}

	res, err := newExtractor(r).Extract(context.Background(), textPDF(t, "Factura A-12", "Total 1160"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, ocr.EngineTextLayer, res.Engine)
	assert.Contains(t, res.Text, "Factura A-12")
	assert.Contains(t, res.Text, "Total 1160")
	assert.Empty(t, r.calls, "no external commands for text PDFs")
}

func TestExtract_ScannedPDFFallsBackToRaster(t *testing.T) {
	r := &fakeRunner{pages: 2, stdout: map[string]string{"tesseract": "pagina"}}

	res, err := newExtractor(r).Extract(context.Background(), blankPDF(t), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, ocr.EngineTesseract, res.Engine)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "pagina\npagina", res.Text)
	require.Len(t, r.calls, 3)
	assert.Equal(t, "pdftoppm", r.calls[0].name)
	assert.Equal(t, []string{"-r", "300", "-png"}, r.calls[0].args[:3])
}

func TestExtract_UnreadablePDFFallsBackToRaster(t *testing.T) {
	r := &fakeRunner{pages: 1, stdout: map[string]string{"tesseract": "escaneado"}}

	res, err := newExtractor(r).Extract(context.Background(), []byte("%PDF-garbage"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, "escaneado", res.Text)
}

func TestExtract_RasterFailure(t *testing.T) {
	r := &fakeRunner{err: map[string]error{"pdftoppm": errors.New("not installed")}}

	_, err := newExtractor(r).Extract(context.Background(), blankPDF(t), "application/pdf")

	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
}

func TestClean(t *testing.T) {
	assert.Equal(t, "", ocr.Clean(""))
	assert.Equal(t, "a b\nc", ocr.Clean("  a \t  b  \r\nc\n"))
	assert.Equal(t, "a\n\nb", ocr.Clean("a\n\n\n\n\nb"))
	assert.Equal(t, "a\n\nb", ocr.Clean("a\n______\nb"))
	assert.Equal(t, "uno\ndos", ocr.Clean("uno\fdos"))
}
