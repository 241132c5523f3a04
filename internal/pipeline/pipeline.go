package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Pipeline executes a sequence of steps in order. Steps run strictly
// sequentially; the model call is the only one that blocks.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a pipeline from the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps against the shared state. The first failing step
// aborts the invocation; every pipeline error is terminal (no retries here).
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d: %w", i+1, err)
		}
	}
	return nil
}

// Scanner drives one receipt extraction end to end: payload guard, model
// call, parse, normalize, row emission. Dependencies are injected so the
// whole flow runs against mocks in tests.
type Scanner struct {
	model           VisionModel
	rows            RowAppender
	audit           AuditTrail
	maxEncodedBytes int
	timeout         time.Duration
	now             func() time.Time
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithAuditTrail enables extraction-run bookkeeping.
func WithAuditTrail(audit AuditTrail) ScannerOption {
	return func(s *Scanner) { s.audit = audit }
}

// WithMaxEncodedBytes overrides the encoded-image size ceiling.
func WithMaxEncodedBytes(n int) ScannerOption {
	return func(s *Scanner) { s.maxEncodedBytes = n }
}

// WithTimeout bounds the model call.
func WithTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) { s.timeout = d }
}

// WithTimeSource overrides the capture-time clock, for tests.
func WithTimeSource(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a Scanner. Model and row sink are required.
func NewScanner(model VisionModel, rows RowAppender, opts ...ScannerOption) (*Scanner, error) {
	if model == nil || rows == nil {
		return nil, fmt.Errorf("%w: vision model and row appender are required", ErrConfiguration)
	}
	s := &Scanner{
		model:           model,
		rows:            rows,
		maxEncodedBytes: DefaultMaxEncodedImageBytes,
		timeout:         60 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Scan processes one base64-encoded JPEG receipt image. It issues exactly one
// model call and appends exactly one row per extracted item. On success it
// returns the parsed extraction; on any failure before parsing completes,
// zero rows have been written.
func (s *Scanner) Scan(ctx context.Context, encodedImage string) (*ReceiptExtraction, error) {
	state := &State{
		EncodedImage: encodedImage,
		// The capture time is taken once, before the model call, and shared
		// by every row of this invocation.
		Timestamp: s.now(),
	}

	p := NewPipeline(
		&GuardPayloadStep{MaxEncodedBytes: s.maxEncodedBytes},
		&StartRunStep{Audit: s.audit},
		&CallModelStep{Model: s.model, Audit: s.audit, Timeout: s.timeout},
		&ParseResponseStep{Audit: s.audit},
		&AppendRowsStep{Rows: s.rows, Audit: s.audit},
		&MarkSuccessStep{Audit: s.audit},
	)

	if err := p.Execute(ctx, state); err != nil {
		return nil, err
	}
	return state.Extraction, nil
}
