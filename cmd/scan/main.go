package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yadoya/receipt-ledger/internal/config"
	"github.com/yadoya/receipt-ledger/internal/gcsuploader"
	infraBQ "github.com/yadoya/receipt-ledger/internal/infra/bigquery"
	"github.com/yadoya/receipt-ledger/internal/logger"
	"github.com/yadoya/receipt-ledger/internal/pipeline"
	"github.com/yadoya/receipt-ledger/internal/sheets"
)

// One-shot scanner: reads a receipt image from a local file or a gs:// URI,
// runs the extraction pipeline and prints the parsed result.
func main() {
	log := logger.New()

	image := flag.String("image", "", "Path to a receipt JPEG, or a gs:// URI")
	flag.Parse()

	if *image == "" {
		log.Fatal().Msg("Error: --image is required")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var raw []byte
	var err error
	if strings.HasPrefix(*image, "gs://") {
		raw, err = gcsuploader.FetchFromGCS(ctx, *image)
	} else {
		raw, err = os.ReadFile(*image)
	}
	if err != nil {
		log.Fatal().Err(err).Str("image", *image).Msg("Failed to read image")
	}

	appender, err := sheets.NewAppender(ctx, cfg.SpreadsheetID, cfg.SheetRange)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheet appender")
	}

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
	}

	scanner, err := pipeline.NewScanner(pipeline.NewGeminiModel(cfg.GeminiAPIKey, cfg.ModelName), appender, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scanner")
	}

	log.Info().Str("image", *image).Msg("Starting receipt scan")

	extraction, err := scanner.Scan(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		log.Fatal().Err(err).Msg("Scan failed")
	}

	out, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render result")
	}
	fmt.Println(string(out))
	fmt.Printf("Appended %d rows.\n", len(extraction.Items))
}
