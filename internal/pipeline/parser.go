package pipeline

import (
	"bytes"
	"encoding/json"
	"regexp"
)

// The model is told to answer with raw JSON only, but it sometimes wraps the
// object in a Markdown fence anyway. These are the only two observed shapes;
// the parser deliberately attempts nothing beyond them (no brace balancing,
// no trimming of trailing prose).
var fencedJSONRe = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// extractCandidate returns the JSON candidate text: the interior of the first
// fenced block if one exists, otherwise the raw text itself.
func extractCandidate(raw string) string {
	if m := fencedJSONRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// ParseExtraction turns the model's raw reply into a ReceiptExtraction.
// Invalid JSON yields a MalformedResponseError; a missing or non-array items
// field yields a SchemaViolationError.
func ParseExtraction(raw string) (*ReceiptExtraction, error) {
	candidate := []byte(extractCandidate(raw))

	var outer struct {
		PurchaseDate *string         `json:"購入日付"`
		Items        json.RawMessage `json:"明細"`
	}
	if err := json.Unmarshal(candidate, &outer); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}

	items := bytes.TrimSpace(outer.Items)
	if len(items) == 0 || items[0] != '[' {
		return nil, &SchemaViolationError{Detail: "明細 is missing or not an array"}
	}

	extraction := &ReceiptExtraction{PurchaseDate: outer.PurchaseDate}
	if err := json.Unmarshal(items, &extraction.Items); err != nil {
		return nil, &SchemaViolationError{Detail: "明細 elements do not match the line item schema: " + err.Error()}
	}

	return extraction, nil
}
