package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/yadoya/receipt-ledger/internal/logger"
)

// Step is a single stage of the receipt scan pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through all steps of one invocation.
type State struct {
	EncodedImage string // base64 JPEG as received from the caller
	ImageBytes   []byte
	RunID        string // audit run id, empty when auditing is off or failed
	RawText      string // raw model reply
	Extraction   *ReceiptExtraction
	Rows         []NormalizedRow
	Timestamp    time.Time // capture time, shared by every row
}

// GuardPayloadStep rejects oversized images and decodes the base64 payload.
// It runs before anything with side effects, so an oversized image never
// reaches the network.
type GuardPayloadStep struct {
	MaxEncodedBytes int
}

func (s *GuardPayloadStep) Execute(ctx context.Context, state *State) error {
	limit := s.MaxEncodedBytes
	if limit <= 0 {
		limit = DefaultMaxEncodedImageBytes
	}
	if len(state.EncodedImage) > limit {
		return &PayloadTooLargeError{Size: len(state.EncodedImage), Limit: limit}
	}

	raw, err := base64.StdEncoding.DecodeString(state.EncodedImage)
	if err != nil {
		return fmt.Errorf("decoding image payload: %w", err)
	}
	state.ImageBytes = raw
	return nil
}

// StartRunStep opens an audit run. Audit trouble is logged, never fatal.
type StartRunStep struct {
	Audit AuditTrail
}

func (s *StartRunStep) Execute(ctx context.Context, state *State) error {
	if s.Audit == nil {
		return nil
	}
	runID, err := s.Audit.StartExtractionRun(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to start extraction run")
		return nil
	}
	state.RunID = runID
	return nil
}

// CallModelStep issues the single model call of the invocation, bounded by
// Timeout, and records the raw reply in the audit trail.
type CallModelStep struct {
	Model   VisionModel
	Audit   AuditTrail
	Timeout time.Duration
}

func (s *CallModelStep) Execute(ctx context.Context, state *State) error {
	callCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	text, err := s.Model.GenerateFromImage(callCtx, buildExtractionPrompt(), state.ImageBytes)
	if err != nil {
		markFailed(ctx, s.Audit, state.RunID, err)
		return err
	}
	state.RawText = text

	if s.Audit != nil && state.RunID != "" {
		if err := s.Audit.RecordModelOutput(ctx, state.RunID, text); err != nil {
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Str("run_id", state.RunID).Msg("Failed to record model output")
		}
	}
	return nil
}

// ParseResponseStep extracts the ReceiptExtraction from the raw reply.
type ParseResponseStep struct {
	Audit AuditTrail
}

func (s *ParseResponseStep) Execute(ctx context.Context, state *State) error {
	extraction, err := ParseExtraction(state.RawText)
	if err != nil {
		markFailed(ctx, s.Audit, state.RunID, err)
		return err
	}
	state.Extraction = extraction
	return nil
}

// AppendRowsStep normalizes every item and appends one row per item, in item
// order. Normalization never fails; an append failure is terminal but earlier
// appends stay (the sink is append-only, nothing is rolled back).
type AppendRowsStep struct {
	Rows  RowAppender
	Audit AuditTrail
}

func (s *AppendRowsStep) Execute(ctx context.Context, state *State) error {
	purchaseDate := ""
	if state.Extraction.PurchaseDate != nil {
		purchaseDate = *state.Extraction.PurchaseDate
	}

	state.Rows = make([]NormalizedRow, 0, len(state.Extraction.Items))
	for i, item := range state.Extraction.Items {
		row := NormalizeItem(item, state.Timestamp, purchaseDate)
		if err := s.Rows.AppendRow(ctx, row.Values()); err != nil {
			err = fmt.Errorf("appending row %d: %w", i, err)
			markFailed(ctx, s.Audit, state.RunID, err)
			return err
		}
		state.Rows = append(state.Rows, row)
	}
	return nil
}

// MarkSuccessStep closes the audit run.
type MarkSuccessStep struct {
	Audit AuditTrail
}

func (s *MarkSuccessStep) Execute(ctx context.Context, state *State) error {
	if s.Audit == nil || state.RunID == "" {
		return nil
	}
	if err := s.Audit.MarkExtractionRunSucceeded(ctx, state.RunID); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("run_id", state.RunID).Msg("Failed to mark extraction run succeeded")
	}
	return nil
}

func markFailed(ctx context.Context, audit AuditTrail, runID string, err error) {
	if audit == nil || runID == "" {
		return
	}
	audit.MarkExtractionRunFailed(ctx, runID, err)
}
