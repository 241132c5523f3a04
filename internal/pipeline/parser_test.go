package pipeline

import (
	"errors"
	"testing"
)

func TestParseExtraction(t *testing.T) {
	const payload = `{"購入日付":"2024-05-01","明細":[{"商品名":"パン","金額":200}]}`

	tests := []struct {
		name string
		raw  string
	}{
		{"bare JSON", payload},
		{"fenced with json tag", "```json\n" + payload + "\n```"},
		{"fenced with upper case tag", "```JSON\n" + payload + "\n```"},
		{"fenced without tag", "```\n" + payload + "\n```"},
		{"fence with surrounding prose", "Here you go:\n```json\n" + payload + "\n```\nLet me know!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.raw)
			if err != nil {
				t.Fatalf("ParseExtraction() error = %v", err)
			}
			if got.PurchaseDate == nil || *got.PurchaseDate != "2024-05-01" {
				t.Errorf("PurchaseDate = %v, want 2024-05-01", got.PurchaseDate)
			}
			if len(got.Items) != 1 {
				t.Fatalf("len(Items) = %d, want 1", len(got.Items))
			}
			if got.Items[0].Name == nil || *got.Items[0].Name != "パン" {
				t.Errorf("Items[0].Name = %v, want パン", got.Items[0].Name)
			}
		})
	}
}

func TestParseExtractionMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not JSON at all", "I could not read the receipt, sorry."},
		{"truncated JSON", `{"購入日付":"2024-`},
		{"fenced garbage", "```json\nnot json\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction(tt.raw)
			var malformed *MalformedResponseError
			if !errors.As(err, &malformed) {
				t.Errorf("ParseExtraction() error = %v, want MalformedResponseError", err)
			}
		})
	}
}

func TestParseExtractionSchemaViolation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"items is a string", `{"購入日付":"2024-05-01","明細":"なし"}`},
		{"items is an object", `{"明細":{"商品名":"パン"}}`},
		{"items missing", `{"購入日付":"2024-05-01"}`},
		{"items null", `{"明細":null}`},
		{"item element wrong type", `{"明細":[{"金額":"三百"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExtraction(tt.raw)
			var violation *SchemaViolationError
			if !errors.As(err, &violation) {
				t.Errorf("ParseExtraction() error = %v, want SchemaViolationError", err)
			}
		})
	}
}

func TestParseExtractionEmptyItems(t *testing.T) {
	got, err := ParseExtraction(`{"明細":[]}`)
	if err != nil {
		t.Fatalf("ParseExtraction() error = %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0", len(got.Items))
	}
	if got.PurchaseDate != nil {
		t.Errorf("PurchaseDate = %v, want nil", got.PurchaseDate)
	}
}
