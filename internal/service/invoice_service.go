package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/normalize"
	"facturas/internal/parser"
	"facturas/internal/port"
)

const (
	defaultMaxProcessAttempts = 5
	statusWriteTimeout        = 10 * time.Second
)

// UploadInvoiceInput is the DTO for invoice upload requests.
type UploadInvoiceInput struct {
	UserID uuid.UUID
	File   multipart.File
	Header *multipart.FileHeader
}

// InvoiceDetail is an invoice plus a short-lived download link.
type InvoiceDetail struct {
	*domain.Invoice
	DownloadURL string `json:"download_url,omitempty"`
}

// SyncResult reports the rows created by a storage sync.
type SyncResult struct {
	Added    int              `json:"added"`
	Invoices []domain.Invoice `json:"invoices"`
}

// InvoiceService defines the invoice management and processing contract.
type InvoiceService interface {
	Upload(ctx context.Context, input UploadInvoiceInput) (*domain.Invoice, error)
	Get(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceDetail, error)
	List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, raw []byte) (*domain.Invoice, error)
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error
	Sync(ctx context.Context, userID uuid.UUID) (*SyncResult, error)
	// Process runs OCR and extraction on a stored invoice. A non-empty text
	// skips OCR.
	Process(ctx context.Context, userID, invoiceID uuid.UUID, text string) (*domain.Invoice, error)
	// ProcessClaimed finishes an invoice the queue worker already moved to
	// processing.
	ProcessClaimed(ctx context.Context, inv *domain.Invoice)
	ExtractText(ctx context.Context, text string) (*port.ExtractResult, error)
	CooldownUntil() time.Time
}

type invoiceService struct {
	invoiceRepo port.InvoiceRepository
	storage     port.ObjectStorage
	ocr         port.TextExtractor
	extractor   port.InvoiceExtractor
	cfg         *config.S3Config
	classify    bool
}

// NewInvoiceService creates a new InvoiceService implementation.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	storage port.ObjectStorage,
	ocr port.TextExtractor,
	extractor port.InvoiceExtractor,
	cfg *config.S3Config,
	classify bool,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		storage:     storage,
		ocr:         ocr,
		extractor:   extractor,
		cfg:         cfg,
		classify:    classify,
	}
}

// ObjectKey builds the storage key for a user's file.
func ObjectKey(userID uuid.UUID, at time.Time, name string) string {
	return fmt.Sprintf("%s/%d_%s", userID, at.UnixMilli(), name)
}

func (s *invoiceService) Upload(ctx context.Context, input UploadInvoiceInput) (*domain.Invoice, error) {
	name := filepath.Base(strings.ReplaceAll(input.Header.Filename, `\`, "/"))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	contentType := http.DetectContentType(buf[:n])
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	inv := &domain.Invoice{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Name:        name,
		FilePath:    ObjectKey(input.UserID, time.Now(), name),
		ContentType: contentType,
		FileSize:    input.Header.Size,
		Status:      domain.InvoiceStatusPending,
	}

	log.Info().Str("user_id", input.UserID.String()).Str("name", name).
		Str("content_type", contentType).Int64("size", input.Header.Size).
		Msg("invoiceService.Upload: uploading")

	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         inv.FilePath,
		Body:        input.File,
		ContentType: contentType,
		Size:        input.Header.Size,
	})
	if err != nil {
		log.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("invoiceService.Upload: storage upload failed")
		_ = s.invoiceRepo.MarkError(ctx, inv.UserID, inv.ID, domain.ErrUploadFailed.Error())
		return nil, domain.ErrUploadFailed
	}

	if err := s.invoiceRepo.UpdateStatus(ctx, inv.UserID, inv.ID, domain.InvoiceStatusUploaded); err != nil {
		return nil, fmt.Errorf("updating invoice status: %w", err)
	}
	inv.Status = domain.InvoiceStatusUploaded
	return inv, nil
}

func (s *invoiceService) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceDetail, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	detail := &InvoiceDetail{Invoice: inv}
	if inv.FilePath != "" {
		url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, inv.FilePath, s.cfg.PresignExpiry)
		if err != nil {
			log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Msg("invoiceService.Get: presign failed")
		} else {
			detail.DownloadURL = url
		}
	}
	return detail, nil
}

func (s *invoiceService) List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	return s.invoiceRepo.List(ctx, userID, filter, offset, limit)
}

func (s *invoiceService) UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, raw []byte) (*domain.Invoice, error) {
	data, err := normalize.FromJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.UpdateData(ctx, userID, invoiceID, data); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, userID, invoiceID)
}

func (s *invoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return err
	}
	if inv.FilePath != "" {
		if err := s.storage.Delete(ctx, s.cfg.Bucket, inv.FilePath); err != nil {
			log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Str("key", inv.FilePath).
				Msg("invoiceService.Delete: storage removal failed, deleting row anyway")
		}
	}
	return s.invoiceRepo.Delete(ctx, userID, invoiceID)
}

func (s *invoiceService) Sync(ctx context.Context, userID uuid.UUID) (*SyncResult, error) {
	objects, err := s.storage.List(ctx, s.cfg.Bucket, userID.String()+"/")
	if err != nil {
		return nil, fmt.Errorf("listing storage: %w", err)
	}
	known, err := s.invoiceRepo.ListFilePaths(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(known))
	for _, p := range known {
		seen[p] = struct{}{}
	}

	result := &SyncResult{Invoices: []domain.Invoice{}}
	for _, obj := range objects {
		if _, ok := seen[obj.Key]; ok {
			continue
		}
		base := path.Base(obj.Key)
		ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
		ft, ok := domain.AllowedExtensions[ext]
		if !ok {
			continue
		}
		result.Invoices = append(result.Invoices, domain.Invoice{
			ID:          uuid.New(),
			UserID:      userID,
			Name:        displayName(base),
			FilePath:    obj.Key,
			ContentType: domain.AllowedFileTypes[ft],
			FileSize:    obj.Size,
			Status:      domain.InvoiceStatusPending,
		})
	}
	if len(result.Invoices) == 0 {
		return result, nil
	}
	if err := s.invoiceRepo.CreateBatch(ctx, result.Invoices); err != nil {
		return nil, err
	}
	result.Added = len(result.Invoices)
	log.Info().Str("user_id", userID.String()).Int("added", result.Added).Msg("invoiceService.Sync: storage objects imported")
	return result, nil
}

// displayName strips the "<millis>_" prefix added by ObjectKey.
func displayName(base string) string {
	prefix, rest, ok := strings.Cut(base, "_")
	if !ok || rest == "" {
		return base
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return base
		}
	}
	return rest
}

func (s *invoiceService) Process(ctx context.Context, userID, invoiceID uuid.UUID, text string) (*domain.Invoice, error) {
	if err := s.invoiceRepo.MarkProcessing(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	inv, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, inv, text); err != nil {
		return nil, err
	}
	return s.invoiceRepo.GetByID(ctx, userID, invoiceID)
}

func (s *invoiceService) ProcessClaimed(ctx context.Context, inv *domain.Invoice) {
	if err := s.run(ctx, inv, ""); err != nil {
		log.Warn().Err(err).Str("invoice_id", inv.ID.String()).Int("attempt", inv.ProcessAttempts).
			Msg("invoiceService.ProcessClaimed: processing failed")
	}
}

// run is the processing pipeline: download, OCR, extraction, classification
// and persistence. The invoice must already be in processing status.
func (s *invoiceService) run(ctx context.Context, inv *domain.Invoice, text string) error {
	if strings.TrimSpace(text) == "" {
		var err error
		text, err = s.recognize(ctx, inv)
		if err != nil {
			s.fail(ctx, inv, err)
			return err
		}
	}

	result, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.handleExtractError(ctx, inv, err)
		return err
	}

	data := result.Data
	if data.Category == nil && s.classify {
		provider := ""
		if data.Provider != nil {
			provider = *data.Provider
		}
		category := s.extractor.Classify(ctx, text, provider)
		data.Category = &category
	}

	if err := s.invoiceRepo.SaveExtraction(ctx, inv.UserID, inv.ID, text, data); err != nil {
		err = fmt.Errorf("saving extraction: %w", err)
		s.fail(ctx, inv, err)
		return err
	}
	log.Info().Str("invoice_id", inv.ID.String()).Str("model", result.ModelUsed).
		Msg("invoiceService.run: invoice processed")
	return nil
}

func (s *invoiceService) recognize(ctx context.Context, inv *domain.Invoice) (string, error) {
	if inv.FilePath == "" {
		return "", domain.ErrEmptyText
	}
	content, err := s.storage.Download(ctx, s.cfg.Bucket, inv.FilePath)
	if err != nil {
		return "", fmt.Errorf("downloading file: %w", err)
	}
	res, err := s.ocr.Extract(ctx, content, inv.ContentType)
	if err != nil {
		return "", err
	}
	log.Debug().Str("invoice_id", inv.ID.String()).Str("engine", res.Engine).Int("pages", res.Pages).
		Msg("invoiceService.recognize: text extracted")
	return res.Text, nil
}

// handleExtractError requeues rate-limited invoices while attempts remain;
// anything else is a terminal error.
func (s *invoiceService) handleExtractError(ctx context.Context, inv *domain.Invoice, err error) {
	if rlErr, ok := parser.AsRateLimit(err); ok && inv.ProcessAttempts < defaultMaxProcessAttempts {
		msg := fmt.Sprintf("rate limited by %s, queued for retry", rlErr.Provider)
		wctx, cancel := statusContext(ctx)
		defer cancel()
		if qErr := s.invoiceRepo.Requeue(wctx, inv.UserID, inv.ID, msg); qErr != nil {
			log.Error().Err(qErr).Str("invoice_id", inv.ID.String()).Msg("invoiceService.handleExtractError: requeue failed")
		} else {
			log.Info().Str("invoice_id", inv.ID.String()).Dur("retry_after", rlErr.RetryAfter).
				Msg("invoiceService.handleExtractError: queued for retry")
		}
		return
	}
	s.fail(ctx, inv, err)
}

func (s *invoiceService) fail(ctx context.Context, inv *domain.Invoice, cause error) {
	msg := cause.Error()
	if errors.Is(cause, domain.ErrRecognitionFailed) {
		msg = domain.ErrRecognitionFailed.Error()
	}
	log.Warn().Str("invoice_id", inv.ID.String()).Str("error", msg).Msg("invoiceService.fail: marking invoice as error")

	wctx, cancel := statusContext(ctx)
	defer cancel()
	if err := s.invoiceRepo.MarkError(wctx, inv.UserID, inv.ID, msg); err != nil {
		log.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("invoiceService.fail: updating status failed")
	}
}

// statusContext outlives a cancelled request or job timeout so the final
// status write still reaches the database.
func statusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
}

func (s *invoiceService) ExtractText(ctx context.Context, text string) (*port.ExtractResult, error) {
	return s.extractor.Extract(ctx, text)
}

func (s *invoiceService) CooldownUntil() time.Time {
	return s.extractor.CooldownUntil()
}
