package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	extractionRunsTable = "extraction_runs"
	modelOutputsTable   = "model_outputs"

	extractorType    = "GEMINI_VISION"
	extractorVersion = "v1"

	maxErrorMessageLen = 2000
)

// AuditRepository records extraction runs and raw model output in BigQuery.
// It holds a shared client so one invocation does not open a connection per
// operation.
type AuditRepository struct {
	client    *bigquery.Client
	dataset   string
	modelName string
	log       zerolog.Logger
}

// NewAuditRepository creates a repository against the given project/dataset.
// modelName is stored alongside each raw model output.
func NewAuditRepository(ctx context.Context, projectID, datasetID, modelName string, log zerolog.Logger) (*AuditRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewAuditRepository: bigquery client: %w", err)
	}
	return &AuditRepository{client: client, dataset: datasetID, modelName: modelName, log: log}, nil
}

// Close closes the underlying BigQuery client.
func (r *AuditRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// StartExtractionRun inserts a run with status=RUNNING and returns its id.
func (r *AuditRepository) StartExtractionRun(ctx context.Context) (string, error) {
	runID := uuid.NewString()

	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (run_id, started_ts, extractor_type, extractor_version, status)
		VALUES (@run_id, @started_ts, @extractor_type, @extractor_version, @status)
	`, r.dataset, extractionRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "run_id", Value: runID},
		{Name: "started_ts", Value: time.Now()},
		{Name: "extractor_type", Value: extractorType},
		{Name: "extractor_version", Value: extractorVersion},
		{Name: "status", Value: "RUNNING"},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return "", fmt.Errorf("StartExtractionRun: %w", err)
	}
	return runID, nil
}

// RecordModelOutput stores the raw model reply for a run.
func (r *AuditRepository) RecordModelOutput(ctx context.Context, runID, rawText string) error {
	q := r.client.Query(fmt.Sprintf(`
		INSERT %s.%s (output_id, run_id, model_name, raw_text, created_ts)
		VALUES (@output_id, @run_id, @model_name, @raw_text, @created_ts)
	`, r.dataset, modelOutputsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "output_id", Value: uuid.NewString()},
		{Name: "run_id", Value: runID},
		{Name: "model_name", Value: r.modelName},
		{Name: "raw_text", Value: rawText},
		{Name: "created_ts", Value: time.Now()},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return fmt.Errorf("RecordModelOutput: %w", err)
	}
	return nil
}

// MarkExtractionRunFailed sets status=FAILED with the truncated error text.
// It logs and swallows its own failures: the audit trail must never decide
// the fate of an invocation.
func (r *AuditRepository) MarkExtractionRunFailed(ctx context.Context, runID string, runErr error) {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		if len(errMsg) > maxErrorMessageLen {
			errMsg = errMsg[:maxErrorMessageLen]
		}
	}

	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts, error_message = @error_message
		WHERE run_id = @run_id
	`, r.dataset, extractionRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "FAILED"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		r.log.Warn().Err(err).Str("run_id", runID).Msg("Failed to mark extraction run failed")
	}
}

// MarkExtractionRunSucceeded sets status=SUCCESS.
func (r *AuditRepository) MarkExtractionRunSucceeded(ctx context.Context, runID string) error {
	q := r.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status, finished_ts = @finished_ts, error_message = ""
		WHERE run_id = @run_id
	`, r.dataset, extractionRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: "SUCCESS"},
		{Name: "finished_ts", Value: time.Now()},
		{Name: "run_id", Value: runID},
	}

	if err := r.runAndWait(ctx, q); err != nil {
		return fmt.Errorf("MarkExtractionRunSucceeded: %w", err)
	}
	return nil
}

func (r *AuditRepository) runAndWait(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}
