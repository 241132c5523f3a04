package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/yadoya/receipt-ledger/internal/pipeline"
)

// Config holds everything the pipeline and its collaborators need. It is
// loaded once at startup and injected explicitly; nothing in the pipeline
// reads ambient process state.
type Config struct {
	// GeminiAPIKey authenticates against the model provider. Required.
	GeminiAPIKey string
	// SpreadsheetID identifies the sheet rows are appended to. Required.
	SpreadsheetID string

	// SheetRange is the A1-notation append target within the spreadsheet.
	SheetRange string
	// ModelName selects the Gemini model.
	ModelName string
	// MaxEncodedImageBytes caps the base64 payload size.
	MaxEncodedImageBytes int
	// UpstreamTimeout bounds the single model call.
	UpstreamTimeout time.Duration

	// GCSBucket, when set, enables async intake: uploaded images are parked
	// in the bucket and scanned by the worker.
	GCSBucket string

	// BigQueryProject/BigQueryDataset, when both set, enable the extraction
	// run audit trail.
	BigQueryProject string
	BigQueryDataset string

	// Port is the HTTP listen port of cmd/api.
	Port string
}

// Load reads configuration from the environment, honoring a .env file when
// one exists. It does not validate; call Validate before using the config.
func Load() *Config {
	// Missing .env is fine, real environments set variables directly.
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		SpreadsheetID:        os.Getenv("SHEET_ID"),
		SheetRange:           getEnv("SHEET_RANGE", "A:H"),
		ModelName:            getEnv("GEMINI_MODEL", pipeline.DefaultModelName),
		MaxEncodedImageBytes: getEnvInt("MAX_ENCODED_IMAGE_BYTES", pipeline.DefaultMaxEncodedImageBytes),
		UpstreamTimeout:      getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
		BigQueryProject:      os.Getenv("BQ_PROJECT"),
		BigQueryDataset:      getEnv("BQ_DATASET", "receipts"),
		Port:                 getEnv("PORT", "8080"),
	}
}

// Validate checks the two required values. It runs before any network call,
// so a misconfigured process fails fast with no side effects.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", pipeline.ErrConfiguration)
	}
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: SHEET_ID is not set", pipeline.ErrConfiguration)
	}
	return nil
}

// AuditEnabled reports whether the BigQuery audit trail is configured.
func (c *Config) AuditEnabled() bool {
	return c.BigQueryProject != "" && c.BigQueryDataset != ""
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
