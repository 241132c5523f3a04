package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeScanReceipt represents a receipt scan job.
	JobTypeScanReceipt JobType = "scan_receipt"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// ScanReceiptJob is a job to scan one receipt image parked in GCS. The retry
// here re-runs the whole invocation; the pipeline itself never retries
// mid-flight.
type ScanReceiptJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// GCSURI points at the uploaded receipt image.
	GCSURI string `json:"gcs_uri"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// GetID implements the Job interface.
func (j *ScanReceiptJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ScanReceiptJob) GetType() JobType {
	return JobTypeScanReceipt
}

// GetStatus implements the Job interface.
func (j *ScanReceiptJob) GetStatus() JobStatus {
	return j.Status
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows different queue implementations (in-memory now,
// Cloud Tasks or Pub/Sub later).
type Publisher interface {
	// PublishScanReceipt publishes a receipt scan job.
	PublishScanReceipt(ctx context.Context, job *ScanReceiptJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; the handler is called for each job.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job Job) error

// JobStore stores and retrieves job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ScanReceiptJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ScanReceiptJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ScanReceiptJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
