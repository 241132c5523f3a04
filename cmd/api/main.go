package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/yadoya/receipt-ledger/internal/api/handlers"
	"github.com/yadoya/receipt-ledger/internal/api/middleware"
	"github.com/yadoya/receipt-ledger/internal/config"
	"github.com/yadoya/receipt-ledger/internal/gcsuploader"
	infraBQ "github.com/yadoya/receipt-ledger/internal/infra/bigquery"
	"github.com/yadoya/receipt-ledger/internal/jobs"
	"github.com/yadoya/receipt-ledger/internal/jobs/inmemory"
	"github.com/yadoya/receipt-ledger/internal/logger"
	"github.com/yadoya/receipt-ledger/internal/pipeline"
	"github.com/yadoya/receipt-ledger/internal/sheets"
)

func main() {
	log := logger.New()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Row sink: the spreadsheet every normalized row is appended to.
	appender, err := sheets.NewAppender(ctx, cfg.SpreadsheetID, cfg.SheetRange)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheet appender")
	}

	model := pipeline.NewGeminiModel(cfg.GeminiAPIKey, cfg.ModelName)

	opts := []pipeline.ScannerOption{
		pipeline.WithMaxEncodedBytes(cfg.MaxEncodedImageBytes),
		pipeline.WithTimeout(cfg.UpstreamTimeout),
	}
	if cfg.AuditEnabled() {
		audit, err := infraBQ.NewAuditRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.ModelName, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create audit repository")
		}
		defer audit.Close()
		opts = append(opts, pipeline.WithAuditTrail(audit))
	} else {
		log.Warn().Msg("No BigQuery project configured - extraction run auditing is disabled")
	}

	scanner, err := pipeline.NewScanner(model, appender, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scanner")
	}

	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - async receipt intake is disabled")
	}

	// Job infrastructure for the async intake path.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		scanJob, ok := job.(*jobs.ScanReceiptJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", scanJob.JobID).
			Str("gcs_uri", scanJob.GCSURI).
			Msg("Processing scan job")

		raw, err := gcsuploader.FetchFromGCS(ctx, scanJob.GCSURI)
		if err != nil {
			return fmt.Errorf("fetching image: %w", err)
		}

		ctx = logger.WithContext(ctx, log)
		if _, err := scanner.Scan(ctx, base64.StdEncoding.EncodeToString(raw)); err != nil {
			log.Error().Err(err).Str("job_id", scanJob.JobID).Msg("Scan failed")
			return err
		}

		log.Info().Str("job_id", scanJob.JobID).Msg("Scan completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	receiptsHandler := handlers.NewReceiptsHandler(scanner, jobQueue, cfg.GCSBucket, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.ScanReceipt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/receipts/async", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.EnqueueScan(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // inline scans wait on the model call
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
