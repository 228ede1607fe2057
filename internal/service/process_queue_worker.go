package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"facturas/internal/port"
)

// ProcessQueueConfig holds settings for the process queue worker.
type ProcessQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	BatchSize    int
	JobTimeout   time.Duration
}

// ProcessQueueWorker polls for uploaded invoices and runs them through the
// processing pipeline.
type ProcessQueueWorker struct {
	invoiceRepo port.InvoiceRepository
	invoiceSvc  InvoiceService
	cfg         ProcessQueueConfig
	wg          sync.WaitGroup
	now         func() time.Time
}

// NewProcessQueueWorker creates a new ProcessQueueWorker.
func NewProcessQueueWorker(invoiceRepo port.InvoiceRepository, invoiceSvc InvoiceService, cfg ProcessQueueConfig) *ProcessQueueWorker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &ProcessQueueWorker{
		invoiceRepo: invoiceRepo,
		invoiceSvc:  invoiceSvc,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight jobs have finished.
func (w *ProcessQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Info().Dur("poll", w.cfg.PollInterval).Int("concurrency", w.cfg.Concurrency).
		Msg("processQueueWorker: started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("processQueueWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Info().Msg("processQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			if until := w.invoiceSvc.CooldownUntil(); until.After(w.now()) {
				log.Debug().Time("until", until).Msg("processQueueWorker: extraction cooling down, skipping poll")
				continue
			}

			available := w.cfg.Concurrency - len(sem)
			if w.cfg.BatchSize > 0 && available > w.cfg.BatchSize {
				available = w.cfg.BatchSize
			}
			if available <= 0 {
				continue
			}

			invoices, err := w.invoiceRepo.ClaimUploaded(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Error().Err(err).Msg("processQueueWorker: ClaimUploaded failed")
				continue
			}

			for i := range invoices {
				inv := invoices[i]

				sem <- struct{}{}
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()

					// Independent of the poll context so in-flight jobs finish during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), w.cfg.JobTimeout)
					defer cancel()

					log.Info().Str("invoice_id", inv.ID.String()).Int("attempt", inv.ProcessAttempts).
						Msg("processQueueWorker: dispatching invoice")
					w.invoiceSvc.ProcessClaimed(jobCtx, &inv)
				}()
			}
		}
	}
}
