package pipeline

import "context"

// RowAppender is the storage boundary: an append-only sink of ordered rows.
// Each call appends exactly one row; the sink is expected to serialize
// concurrent appends safely. There is no transactional grouping, so appends
// that already happened stay even if a later one fails.
type RowAppender interface {
	AppendRow(ctx context.Context, values []interface{}) error
}

// AuditTrail records extraction runs and raw model output for later
// inspection. It is optional bookkeeping: the pipeline logs audit failures
// and keeps going, so the sheet result never depends on it.
type AuditTrail interface {
	// StartExtractionRun inserts a run with status RUNNING and returns its id.
	StartExtractionRun(ctx context.Context) (string, error)

	// RecordModelOutput stores the model's raw reply for a run.
	RecordModelOutput(ctx context.Context, runID, rawText string) error

	// MarkExtractionRunFailed sets status FAILED with a truncated error message.
	MarkExtractionRunFailed(ctx context.Context, runID string, runErr error)

	// MarkExtractionRunSucceeded sets status SUCCESS.
	MarkExtractionRunSucceeded(ctx context.Context, runID string) error
}
