package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Appender appends rows to one spreadsheet. It satisfies the pipeline's
// RowAppender contract; the Sheets API serializes concurrent appends on its
// side, so two simultaneous invocations cannot interleave within a row.
type Appender struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	appendRange   string
}

// NewAppender creates an Appender for the given spreadsheet. Credentials come
// from Application Default Credentials unless overridden via opts.
func NewAppender(ctx context.Context, spreadsheetID, appendRange string, opts ...option.ClientOption) (*Appender, error) {
	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewAppender: creating sheets service: %w", err)
	}
	if appendRange == "" {
		appendRange = "A:H"
	}
	return &Appender{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		appendRange:   appendRange,
	}, nil
}

// AppendRow appends exactly one row of cells to the sheet.
func (a *Appender) AppendRow(ctx context.Context, values []interface{}) error {
	body := &sheetsapi.ValueRange{
		Values: [][]interface{}{values},
	}

	_, err := a.svc.Spreadsheets.Values.
		Append(a.spreadsheetID, a.appendRange, body).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendRow: appending to spreadsheet %s: %w", a.spreadsheetID, err)
	}
	return nil
}
