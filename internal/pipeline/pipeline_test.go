package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"
)

// mockVisionModel returns a canned reply and records whether it was called.
type mockVisionModel struct {
	reply string
	err   error
	calls int
}

func (m *mockVisionModel) GenerateFromImage(ctx context.Context, prompt string, jpegBytes []byte) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// mockRowAppender collects appended rows in order.
type mockRowAppender struct {
	rows [][]interface{}
	err  error
}

func (m *mockRowAppender) AppendRow(ctx context.Context, values []interface{}) error {
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, values)
	return nil
}

func encodedImage() string {
	return base64.StdEncoding.EncodeToString([]byte("fake jpeg bytes"))
}

func newTestScanner(t *testing.T, model VisionModel, rows RowAppender, opts ...ScannerOption) *Scanner {
	t.Helper()
	opts = append(opts, WithTimeSource(func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	}))
	s, err := NewScanner(model, rows, opts...)
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}
	return s
}

func TestScanAppendsOneRowPerItem(t *testing.T) {
	model := &mockVisionModel{
		reply: `{"購入日付":"2024-05-01","明細":[
			{"商品名":"パン","金額":200,"支払金額":200,"想定勘定科目":"仕入高","用途":"宿"},
			{"商品名":"洗剤","金額":400,"割引":-50,"想定勘定科目":"消耗品費","用途":"共通"},
			{"商品名":"謎の品","金額":100}
		]}`,
	}
	sink := &mockRowAppender{}
	scanner := newTestScanner(t, model, sink)

	extraction, err := scanner.Scan(context.Background(), encodedImage())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if model.calls != 1 {
		t.Errorf("model calls = %d, want exactly 1", model.calls)
	}
	if len(sink.rows) != len(extraction.Items) {
		t.Fatalf("appended %d rows for %d items", len(sink.rows), len(extraction.Items))
	}

	// Row order follows item order.
	if sink.rows[0][1] != "パン" || sink.rows[1][1] != "洗剤" || sink.rows[2][1] != "謎の品" {
		t.Errorf("rows out of order: %v", sink.rows)
	}

	// Timestamp and purchase date are shared across all rows.
	for i, row := range sink.rows {
		if row[0] != "2024-05-01T12:30:00Z" {
			t.Errorf("row %d timestamp = %v, want shared capture time", i, row[0])
		}
		if row[5] != "2024-05-01" {
			t.Errorf("row %d purchase date = %v, want 2024-05-01", i, row[5])
		}
	}

	// The second row's discount shows as a magnitude.
	if sink.rows[1][3] != 50.0 {
		t.Errorf("row 1 discount magnitude = %v, want 50", sink.rows[1][3])
	}
}

// The scenario from the field: a coffee line with an empty suggested account
// is repaired by the keyword classifier, the valid use tag survives verbatim.
func TestScanRepairsCategories(t *testing.T) {
	model := &mockVisionModel{
		reply: `{"購入日付":"2024-05-01","明細":[{"商品名":"コーヒー","金額":300,"割引":0,"支払金額":300,"想定勘定科目":"","用途":"宿"}]}`,
	}
	sink := &mockRowAppender{}
	scanner := newTestScanner(t, model, sink)

	if _, err := scanner.Scan(context.Background(), encodedImage()); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(sink.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(sink.rows))
	}

	row := sink.rows[0]
	if row[6] != "仕入高" {
		t.Errorf("account cell = %v, want 仕入高", row[6])
	}
	if row[7] != "宿" {
		t.Errorf("use cell = %v, want 宿", row[7])
	}
	if row[3] != 0.0 {
		t.Errorf("discount magnitude cell = %v, want 0", row[3])
	}
	if row[4] != 300.0 {
		t.Errorf("paid cell = %v, want 300", row[4])
	}
}

func TestScanRejectsOversizedPayloadBeforeModelCall(t *testing.T) {
	model := &mockVisionModel{reply: `{"明細":[]}`}
	sink := &mockRowAppender{}
	scanner := newTestScanner(t, model, sink, WithMaxEncodedBytes(16))

	_, err := scanner.Scan(context.Background(), strings.Repeat("A", 17))

	var tooLarge *PayloadTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("Scan() error = %v, want PayloadTooLargeError", err)
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, the guard must fire before any network call", model.calls)
	}
	if len(sink.rows) != 0 {
		t.Errorf("appended %d rows, want 0", len(sink.rows))
	}
}

func TestScanSchemaViolationWritesNoRows(t *testing.T) {
	model := &mockVisionModel{reply: `{"購入日付":"2024-05-01","明細":"三点"}`}
	sink := &mockRowAppender{}
	scanner := newTestScanner(t, model, sink)

	_, err := scanner.Scan(context.Background(), encodedImage())

	var violation *SchemaViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("Scan() error = %v, want SchemaViolationError", err)
	}
	if len(sink.rows) != 0 {
		t.Errorf("appended %d rows, want 0", len(sink.rows))
	}
}

func TestScanPropagatesModelErrors(t *testing.T) {
	tests := []struct {
		name     string
		modelErr error
		check    func(error) bool
	}{
		{
			name:     "empty response",
			modelErr: ErrEmptyResponse,
			check:    func(err error) bool { return errors.Is(err, ErrEmptyResponse) },
		},
		{
			name:     "upstream error keeps status and body",
			modelErr: &UpstreamError{Status: 429, Body: "quota exceeded"},
			check: func(err error) bool {
				var ue *UpstreamError
				return errors.As(err, &ue) && ue.Status == 429 && ue.Body == "quota exceeded"
			},
		},
		{
			name:     "timeout",
			modelErr: ErrUpstreamTimeout,
			check:    func(err error) bool { return errors.Is(err, ErrUpstreamTimeout) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockVisionModel{err: tt.modelErr}
			sink := &mockRowAppender{}
			scanner := newTestScanner(t, model, sink)

			_, err := scanner.Scan(context.Background(), encodedImage())
			if !tt.check(err) {
				t.Errorf("Scan() error = %v, does not match %s", err, tt.name)
			}
			if len(sink.rows) != 0 {
				t.Errorf("appended %d rows, want 0", len(sink.rows))
			}
		})
	}
}

func TestScanMalformedBase64(t *testing.T) {
	model := &mockVisionModel{reply: `{"明細":[]}`}
	scanner := newTestScanner(t, model, &mockRowAppender{})

	if _, err := scanner.Scan(context.Background(), "not*base64!"); err == nil {
		t.Fatal("Scan() error = nil, want decode failure")
	}
	if model.calls != 0 {
		t.Errorf("model calls = %d, want 0", model.calls)
	}
}

func TestScanAppendFailureIsTerminalButKeepsPriorRows(t *testing.T) {
	model := &mockVisionModel{
		reply: `{"明細":[{"商品名":"パン"},{"商品名":"牛乳"}]}`,
	}
	sink := &failAfterAppender{failAt: 1}
	scanner := newTestScanner(t, model, sink)

	_, err := scanner.Scan(context.Background(), encodedImage())
	if err == nil {
		t.Fatal("Scan() error = nil, want append failure")
	}
	// The first append already happened and stays: appends are independent,
	// there is no rollback.
	if len(sink.rows) != 1 {
		t.Errorf("appended %d rows before the failure, want 1", len(sink.rows))
	}
}

type failAfterAppender struct {
	rows   [][]interface{}
	failAt int
}

func (f *failAfterAppender) AppendRow(ctx context.Context, values []interface{}) error {
	if len(f.rows) >= f.failAt {
		return errors.New("sheet unavailable")
	}
	f.rows = append(f.rows, values)
	return nil
}

func TestNewScannerRequiresDependencies(t *testing.T) {
	if _, err := NewScanner(nil, &mockRowAppender{}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewScanner(nil model) error = %v, want ErrConfiguration", err)
	}
	if _, err := NewScanner(&mockVisionModel{}, nil); !errors.Is(err, ErrConfiguration) {
		t.Errorf("NewScanner(nil appender) error = %v, want ErrConfiguration", err)
	}
}
