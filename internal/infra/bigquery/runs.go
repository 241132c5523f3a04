package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// ExtractionRunRow is one row of the extraction_runs table: the lifecycle of
// a single receipt scan invocation.
type ExtractionRunRow struct {
	RunID string `bigquery:"run_id"`

	StartedTS  time.Time              `bigquery:"started_ts"`
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"`

	ExtractorType    string `bigquery:"extractor_type"`    // e.g. GEMINI_VISION
	ExtractorVersion string `bigquery:"extractor_version"` // e.g. v1

	Status       string `bigquery:"status"` // RUNNING / SUCCESS / FAILED
	ErrorMessage string `bigquery:"error_message"`
}

// ModelOutputRow stores the raw model reply of one run, before any repair or
// normalization, so odd responses can be replayed later.
type ModelOutputRow struct {
	OutputID string `bigquery:"output_id"`
	RunID    string `bigquery:"run_id"`

	ModelName string              `bigquery:"model_name"`
	RawText   bigquery.NullString `bigquery:"raw_text"`

	CreatedTS bigquery.NullTimestamp `bigquery:"created_ts"`
}
