package pipeline

import (
	"errors"
	"fmt"
)

// Every error below is terminal for the invocation: there is no retry and no
// partial-success path. If parsing fails, zero rows are written; once parsing
// succeeds, normalization never fails, so the invocation appends a row for
// every item.
var (
	// ErrConfiguration means a required credential or destination identifier
	// is missing. Raised before any side effect.
	ErrConfiguration = errors.New("pipeline: missing required configuration")

	// ErrEmptyResponse means the model returned no candidate output.
	ErrEmptyResponse = errors.New("pipeline: model returned no candidates")

	// ErrUpstreamTimeout means the model call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("pipeline: model call timed out")
)

// PayloadTooLargeError rejects an encoded image above the configured ceiling
// before any network call is made. The ceiling is a cost guard, not a
// correctness constraint.
type PayloadTooLargeError struct {
	Size  int
	Limit int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("pipeline: encoded image is %d bytes, limit %d", e.Size, e.Limit)
}

// UpstreamError carries the status code and body of a non-success model
// reply for diagnostics.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("pipeline: model API error (%d): %s", e.Status, e.Body)
}

// MalformedResponseError means no valid JSON object could be extracted from
// the model's text, neither from a fenced block nor from the text itself.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("pipeline: malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SchemaViolationError means the parsed object does not match the agreed
// shape, in particular when the items field is missing or not an array.
type SchemaViolationError struct {
	Detail string
}

func (e *SchemaViolationError) Error() string {
	return "pipeline: schema violation: " + e.Detail
}
