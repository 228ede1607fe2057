package service_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/parser"
	"facturas/internal/port"
	"facturas/internal/service"
	"facturas/mocks"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Region:        "us-east-1",
		Bucket:        "test-bucket",
		MaxFileSizeMB: 10,
		PresignExpiry: 3600,
	}
}

type invoiceFixture struct {
	repo      *mocks.MockInvoiceRepo
	storage   *mocks.MockObjectStorage
	ocr       *mocks.MockTextExtractor
	extractor *mocks.MockInvoiceExtractor
	svc       service.InvoiceService
}

func newInvoiceFixture(classify bool) *invoiceFixture {
	f := &invoiceFixture{
		repo:      new(mocks.MockInvoiceRepo),
		storage:   new(mocks.MockObjectStorage),
		ocr:       new(mocks.MockTextExtractor),
		extractor: new(mocks.MockInvoiceExtractor),
	}
	cfg := testS3Config()
	f.svc = service.NewInvoiceService(f.repo, f.storage, f.ocr, f.extractor, &cfg, classify)
	return f
}

// createMultipartFile creates a fake multipart file header and content for testing.
func createMultipartFile(filename string, content []byte, contentType string) (multipart.File, *multipart.FileHeader) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, _ := writer.CreatePart(h)
	_, _ = part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content) + 1024))
	file, _ := form.File["file"][0].Open()
	return file, form.File["file"][0]
}

func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

func pngContent() []byte {
	header := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	return append(header, bytes.Repeat([]byte{0x00}, 100)...)
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestInvoiceService_Upload_PDF(t *testing.T) {
	f := newInvoiceFixture(true)
	userID := uuid.New()

	file, header := createMultipartFile("recibo luz.pdf", pdfContent(), "application/pdf")
	defer file.Close()

	f.repo.On("Create", mock.Anything, mock.MatchedBy(func(inv *domain.Invoice) bool {
		return inv.Status == domain.InvoiceStatusPending &&
			inv.Name == "recibo luz.pdf" &&
			strings.HasPrefix(inv.FilePath, userID.String()+"/") &&
			strings.HasSuffix(inv.FilePath, "_recibo luz.pdf")
	})).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "test-bucket" && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{Location: "s3://test-bucket/x"}, nil)
	f.repo.On("UpdateStatus", mock.Anything, userID, mock.AnythingOfType("uuid.UUID"), domain.InvoiceStatusUploaded).Return(nil)

	inv, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: userID, File: file, Header: header})

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusUploaded, inv.Status)
	assert.Equal(t, "application/pdf", inv.ContentType)
	f.repo.AssertExpectations(t)
	f.storage.AssertExpectations(t)
}

func TestInvoiceService_Upload_PNG(t *testing.T) {
	f := newInvoiceFixture(true)
	userID := uuid.New()

	file, header := createMultipartFile("ticket.PNG", pngContent(), "image/png")
	defer file.Close()

	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).Return(&port.UploadOutput{}, nil)
	f.repo.On("UpdateStatus", mock.Anything, userID, mock.AnythingOfType("uuid.UUID"), domain.InvoiceStatusUploaded).Return(nil)

	inv, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: userID, File: file, Header: header})

	require.NoError(t, err)
	assert.Equal(t, "image/png", inv.ContentType)
}

func TestInvoiceService_Upload_UnsupportedExtension(t *testing.T) {
	f := newInvoiceFixture(true)

	file, header := createMultipartFile("notas.docx", []byte("PK"), "application/octet-stream")
	defer file.Close()

	_, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: uuid.New(), File: file, Header: header})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestInvoiceService_Upload_ContentMismatch(t *testing.T) {
	f := newInvoiceFixture(true)

	file, header := createMultipartFile("factura.pdf", []byte("just some plain text pretending to be a pdf"), "application/pdf")
	defer file.Close()

	_, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: uuid.New(), File: file, Header: header})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestInvoiceService_Upload_FileTooLarge(t *testing.T) {
	f := newInvoiceFixture(true)

	file, header := createMultipartFile("factura.pdf", pdfContent(), "application/pdf")
	defer file.Close()
	header.Size = 11 * 1024 * 1024

	_, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: uuid.New(), File: file, Header: header})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestInvoiceService_Upload_StorageFailure(t *testing.T) {
	f := newInvoiceFixture(true)
	userID := uuid.New()

	file, header := createMultipartFile("factura.pdf", pdfContent(), "application/pdf")
	defer file.Close()

	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)
	f.storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).Return(nil, errors.New("s3 down"))
	f.repo.On("MarkError", mock.Anything, userID, mock.AnythingOfType("uuid.UUID"), domain.ErrUploadFailed.Error()).Return(nil)

	_, err := f.svc.Upload(context.Background(), service.UploadInvoiceInput{UserID: userID, File: file, Header: header})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Get_WithDownloadURL(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()

	f.repo.On("GetByID", mock.Anything, userID, invID).Return(&domain.Invoice{ID: invID, FilePath: "u/1_a.pdf"}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, "test-bucket", "u/1_a.pdf", int64(3600)).Return("https://signed", nil)

	detail, err := f.svc.Get(context.Background(), userID, invID)

	require.NoError(t, err)
	assert.Equal(t, "https://signed", detail.DownloadURL)
}

func TestInvoiceService_Get_PresignFailureIsNotFatal(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()

	f.repo.On("GetByID", mock.Anything, userID, invID).Return(&domain.Invoice{ID: invID, FilePath: "u/1_a.pdf"}, nil)
	f.storage.On("GetPresignedURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("boom"))

	detail, err := f.svc.Get(context.Background(), userID, invID)

	require.NoError(t, err)
	assert.Empty(t, detail.DownloadURL)
}

func TestInvoiceService_Get_NotFound(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(nil, domain.ErrNotFound)

	_, err := f.svc.Get(context.Background(), userID, invID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInvoiceService_UpdateData_NormalizesInput(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()

	f.repo.On("UpdateData", mock.Anything, userID, invID, mock.MatchedBy(func(d domain.InvoiceData) bool {
		return d.Provider != nil && *d.Provider == "ACME Corp" &&
			d.TotalAmount != nil && *d.TotalAmount == 1000 &&
			d.Currency != nil && *d.Currency == domain.CurrencyMXN
	})).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(&domain.Invoice{ID: invID}, nil)

	inv, err := f.svc.UpdateData(context.Background(), userID, invID,
		[]byte(`{"proveedor": " ACME   Corp ", "monto": "$1,000.00", "moneda": "pesos"}`))

	require.NoError(t, err)
	assert.Equal(t, invID, inv.ID)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_UpdateData_InvalidShape(t *testing.T) {
	f := newInvoiceFixture(true)

	_, err := f.svc.UpdateData(context.Background(), uuid.New(), uuid.New(), []byte(`{"items": "none"}`))

	assert.ErrorIs(t, err, domain.ErrInvalidInvoiceData)
	f.repo.AssertNotCalled(t, "UpdateData", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Delete_StorageFailureStillDeletesRow(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()

	f.repo.On("GetByID", mock.Anything, userID, invID).Return(&domain.Invoice{ID: invID, FilePath: "k"}, nil)
	f.storage.On("Delete", mock.Anything, "test-bucket", "k").Return(errors.New("gone"))
	f.repo.On("Delete", mock.Anything, userID, invID).Return(nil)

	err := f.svc.Delete(context.Background(), userID, invID)

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_Delete_ManualInvoiceWithoutFile(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()

	f.repo.On("GetByID", mock.Anything, userID, invID).Return(&domain.Invoice{ID: invID}, nil)
	f.repo.On("Delete", mock.Anything, userID, invID).Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), userID, invID))
	f.storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Sync_ImportsUnknownObjects(t *testing.T) {
	f := newInvoiceFixture(true)
	userID := uuid.New()
	prefix := userID.String() + "/"

	f.storage.On("List", mock.Anything, "test-bucket", prefix).Return([]port.ObjectInfo{
		{Key: prefix + "1700000000000_known.pdf", Size: 10},
		{Key: prefix + "1700000000001_nueva.jpeg", Size: 20},
		{Key: prefix + "notas.txt", Size: 5},
		{Key: prefix + "scan_final.png", Size: 30},
	}, nil)
	f.repo.On("ListFilePaths", mock.Anything, userID).Return([]string{prefix + "1700000000000_known.pdf"}, nil)
	f.repo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(invs []domain.Invoice) bool {
		return len(invs) == 2
	})).Return(nil)

	res, err := f.svc.Sync(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, "nueva.jpeg", res.Invoices[0].Name)
	assert.Equal(t, "image/jpeg", res.Invoices[0].ContentType)
	assert.Equal(t, domain.InvoiceStatusPending, res.Invoices[0].Status)
	assert.Equal(t, "scan_final.png", res.Invoices[1].Name)
}

func TestInvoiceService_Sync_NothingNew(t *testing.T) {
	f := newInvoiceFixture(true)
	userID := uuid.New()

	f.storage.On("List", mock.Anything, "test-bucket", userID.String()+"/").Return([]port.ObjectInfo{}, nil)
	f.repo.On("ListFilePaths", mock.Anything, userID).Return([]string{}, nil)

	res, err := f.svc.Sync(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Empty(t, res.Invoices)
	f.repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_FullPipelineWithClassification(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	content := pdfContent()

	inv := &domain.Invoice{
		ID: invID, UserID: userID, FilePath: "k", ContentType: "application/pdf",
		Status: domain.InvoiceStatusProcessing, ProcessAttempts: 1,
	}
	done := &domain.Invoice{ID: invID, UserID: userID, Status: domain.InvoiceStatusProcessed}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil).Once()
	f.storage.On("Download", mock.Anything, "test-bucket", "k").Return(content, nil)
	f.ocr.On("Extract", mock.Anything, content, "application/pdf").
		Return(&port.OCRResult{Text: "TELMEX total 499", Pages: 1, Engine: "pdf-text"}, nil)
	f.extractor.On("Extract", mock.Anything, "TELMEX total 499").Return(&port.ExtractResult{
		Data: domain.InvoiceData{Provider: strPtr("Telmex"), TotalAmount: floatPtr(499), Items: domain.InvoiceItems{}},
	}, nil)
	f.extractor.On("Classify", mock.Anything, "TELMEX total 499", "Telmex").Return(domain.CategoryServices)
	f.repo.On("SaveExtraction", mock.Anything, userID, invID, "TELMEX total 499", mock.MatchedBy(func(d domain.InvoiceData) bool {
		return d.Category != nil && *d.Category == domain.CategoryServices
	})).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(done, nil).Once()

	got, err := f.svc.Process(context.Background(), userID, invID, "")

	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusProcessed, got.Status)
	f.repo.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
}

func TestInvoiceService_Process_ProvidedTextSkipsOCR(t *testing.T) {
	f := newInvoiceFixture(false)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID, FilePath: "k", ContentType: "image/png"}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto corregido").Return(&port.ExtractResult{
		Data: domain.InvoiceData{Items: domain.InvoiceItems{}},
	}, nil)
	f.repo.On("SaveExtraction", mock.Anything, userID, invID, "texto corregido", mock.MatchedBy(func(d domain.InvoiceData) bool {
		return d.Category == nil
	})).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "texto corregido")

	require.NoError(t, err)
	f.storage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	f.ocr.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything, mock.Anything)
	f.extractor.AssertNotCalled(t, "Classify", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_Busy(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(domain.ErrInvoiceBusy)

	_, err := f.svc.Process(context.Background(), userID, invID, "")

	assert.ErrorIs(t, err, domain.ErrInvoiceBusy)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_RecognitionFailureMarksError(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID, FilePath: "k", ContentType: "image/jpeg"}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.storage.On("Download", mock.Anything, "test-bucket", "k").Return([]byte{0xff, 0xd8}, nil)
	f.ocr.On("Extract", mock.Anything, mock.Anything, "image/jpeg").
		Return(nil, errors.Join(domain.ErrRecognitionFailed, errors.New("tesseract: exit 1")))
	f.repo.On("MarkError", mock.Anything, userID, invID, domain.ErrRecognitionFailed.Error()).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "")

	assert.ErrorIs(t, err, domain.ErrRecognitionFailed)
	f.repo.AssertExpectations(t)
	f.extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_RateLimitRequeues(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID, ProcessAttempts: 2}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto").
		Return(nil, parser.NewRateLimitError("gemini", errors.New("quota"), 30))
	f.repo.On("Requeue", mock.Anything, userID, invID, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "gemini")
	})).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "texto")

	rlErr, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, rlErr.RetryAfter)
	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "MarkError", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_Process_RateLimitAfterMaxAttemptsFails(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID, ProcessAttempts: 5}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto").
		Return(nil, parser.NewRateLimitError("gemini", errors.New("quota"), 30))
	f.repo.On("MarkError", mock.Anything, userID, invID, mock.AnythingOfType("string")).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "texto")

	assert.Error(t, err)
	f.repo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_Process_ExtractionFormatError(t *testing.T) {
	f := newInvoiceFixture(true)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID, ProcessAttempts: 1}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto").Return(nil, parser.ErrNoJSON)
	f.repo.On("MarkError", mock.Anything, userID, invID, parser.ErrNoJSON.Error()).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "texto")

	assert.ErrorIs(t, err, domain.ErrExtractionFormat)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_Process_SaveFailureMarksError(t *testing.T) {
	f := newInvoiceFixture(false)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID}

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto").Return(&port.ExtractResult{
		Data: domain.InvoiceData{Items: domain.InvoiceItems{}},
	}, nil)
	f.repo.On("SaveExtraction", mock.Anything, userID, invID, "texto", mock.Anything).Return(errors.New("db down"))
	f.repo.On("MarkError", mock.Anything, userID, invID, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, "db down")
	})).Return(nil)

	_, err := f.svc.Process(context.Background(), userID, invID, "texto")

	assert.ErrorContains(t, err, "db down")
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_Process_CancelledRequestStillRecordsError(t *testing.T) {
	f := newInvoiceFixture(false)
	userID, invID := uuid.New(), uuid.New()
	inv := &domain.Invoice{ID: invID, UserID: userID}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.repo.On("MarkProcessing", mock.Anything, userID, invID).Return(nil)
	f.repo.On("GetByID", mock.Anything, userID, invID).Return(inv, nil)
	f.extractor.On("Extract", mock.Anything, "texto").
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)
	var statusCtxErr error = errors.New("not called")
	f.repo.On("MarkError", mock.Anything, userID, invID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			statusCtxErr = args.Get(0).(context.Context).Err()
		}).Return(nil)

	_, err := f.svc.Process(ctx, userID, invID, "texto")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, statusCtxErr)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_ProcessClaimed_ExpiredJobStillRecordsError(t *testing.T) {
	f := newInvoiceFixture(true)
	inv := &domain.Invoice{ID: uuid.New(), UserID: uuid.New(), FilePath: "k", ContentType: "application/pdf"}
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	f.storage.On("Download", mock.Anything, "test-bucket", "k").Return(nil, context.DeadlineExceeded)
	var statusCtxErr error = errors.New("not called")
	f.repo.On("MarkError", mock.Anything, inv.UserID, inv.ID, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			statusCtxErr = args.Get(0).(context.Context).Err()
		}).Return(nil)

	f.svc.ProcessClaimed(ctx, inv)

	assert.NoError(t, statusCtxErr)
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_ProcessClaimed_SwallowsErrors(t *testing.T) {
	f := newInvoiceFixture(true)
	inv := &domain.Invoice{ID: uuid.New(), UserID: uuid.New(), FilePath: "k", ContentType: "application/pdf"}

	f.storage.On("Download", mock.Anything, "test-bucket", "k").Return(nil, errors.New("no such key"))
	f.repo.On("MarkError", mock.Anything, inv.UserID, inv.ID, mock.AnythingOfType("string")).Return(nil)

	assert.NotPanics(t, func() { f.svc.ProcessClaimed(context.Background(), inv) })
	f.repo.AssertExpectations(t)
}

func TestInvoiceService_ExtractTextAndCooldownDelegate(t *testing.T) {
	f := newInvoiceFixture(true)
	until := time.Now().Add(time.Minute)

	f.extractor.On("Extract", mock.Anything, "hola").Return(&port.ExtractResult{ModelUsed: "m"}, nil)
	f.extractor.On("CooldownUntil").Return(until)

	res, err := f.svc.ExtractText(context.Background(), "hola")
	require.NoError(t, err)
	assert.Equal(t, "m", res.ModelUsed)
	assert.Equal(t, until, f.svc.CooldownUntil())
}

func TestObjectKey(t *testing.T) {
	userID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	at := time.UnixMilli(1700000000123)

	assert.Equal(t, "11111111-1111-1111-1111-111111111111/1700000000123_factura.pdf",
		service.ObjectKey(userID, at, "factura.pdf"))
}
