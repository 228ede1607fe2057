// @title Facturas API
// @version 1.0
// @description Invoice upload, OCR and field extraction backend.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	_ "facturas/docs"
	"facturas/internal/config"
	"facturas/internal/handler"
	"facturas/internal/logger"
	"facturas/internal/middleware"
	"facturas/internal/ocr"
	"facturas/internal/parser"
	_ "facturas/internal/parser/claude"
	_ "facturas/internal/parser/gemini"
	_ "facturas/internal/parser/openai"
	"facturas/internal/repository/postgres"
	"facturas/internal/router"
	"facturas/internal/service"
	s3storage "facturas/internal/storage/s3"
	"facturas/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg.Log)

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	statsRepo := postgres.NewStatsRepo(db)
	duplicateFinder := postgres.NewDuplicateFinderRepo(db)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	// OCR and extraction
	textExtractor := ocr.NewExtractor(cfg.OCR, ocr.ExecRunner{})
	gen, err := parser.NewFromConfig(&cfg.Parser)
	if err != nil {
		return fmt.Errorf("failed to initialize parser: %w", err)
	}
	if gen == nil {
		log.Warn().Msg("no parser provider has an API key; extraction is disabled")
	}
	invoiceExtractor := parser.NewExtractor(gen)

	// Initialize services
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, s3Client, textExtractor, invoiceExtractor, &cfg.S3, cfg.Parser.Classify)
	exportSvc := service.NewExportService(invoiceRepo, cfg.Reminder.Locale)
	calculatorSvc := service.NewCalculatorService(invoiceRepo, s3Client, &cfg.S3, cfg.Reminder.Locale)
	statsSvc := service.NewStatsService(statsRepo, invoiceRepo)
	checkSvc := service.NewCheckService(invoiceRepo, validator.NewDefaultEngine(duplicateFinder))

	// Setup router
	r := router.Setup(authSvc, router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Invoice:    handler.NewInvoiceHandler(invoiceSvc, exportSvc),
		Process:    handler.NewProcessHandler(invoiceSvc),
		Calculator: handler.NewCalculatorHandler(calculatorSvc),
		Stats:      handler.NewStatsHandler(statsSvc),
		Checks:     handler.NewCheckHandler(checkSvc),
		Health:     handler.NewHealthHandler(db, invoiceSvc),
	}, router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Extraction:     middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		Swagger:        cfg.Server.Environment != "production",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerDone := make(chan struct{})
	if cfg.Queue.Enabled {
		worker := service.NewProcessQueueWorker(invoiceRepo, invoiceSvc, service.ProcessQueueConfig{
			PollInterval: time.Duration(cfg.Queue.PollIntervalSecs) * time.Second,
			Concurrency:  cfg.Queue.Concurrency,
			BatchSize:    cfg.Queue.BatchSize,
			JobTimeout:   time.Duration(cfg.Queue.JobTimeoutSecs) * time.Second,
		})
		go func() {
			defer close(workerDone)
			worker.Start(ctx)
		}()
	} else {
		close(workerDone)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	stop()
	<-workerDone
	return nil
}
