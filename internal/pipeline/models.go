package pipeline

import (
	"time"

	"github.com/yadoya/receipt-ledger/internal/taxonomy"
)

// LineItem is one purchased entry exactly as the model reported it. Every
// field is optional: the model omits what it cannot read, and the suggested
// account/use are free text until validated.
type LineItem struct {
	Name             *string  `json:"商品名"`
	GrossAmount      *float64 `json:"金額"`
	Discount         *float64 `json:"割引"` // convention: non-positive
	PaidAmount       *float64 `json:"支払金額"`
	SuggestedAccount *string  `json:"想定勘定科目"`
	SuggestedUse     *string  `json:"用途"`
}

// ReceiptExtraction is the top-level object parsed from the model response.
// It is built once per invocation and not mutated afterwards.
type ReceiptExtraction struct {
	PurchaseDate *string    `json:"購入日付"`
	Items        []LineItem `json:"明細"`
}

// NormalizedRow is one guaranteed-valid output row derived from a LineItem.
// Account and Use are always members of their fixed sets, DiscountMagnitude
// is never negative, and Timestamp/PurchaseDate are shared by every row of
// one invocation.
type NormalizedRow struct {
	Timestamp         time.Time
	Name              string
	GrossAmount       *float64
	DiscountMagnitude float64
	PaidAmount        *float64
	PurchaseDate      string
	Account           taxonomy.Account
	Use               taxonomy.Use
}

// Values renders the row as the 8 ordered cells the sheet expects:
// [timestamp, name, gross, discount magnitude, paid, purchase date, account, use].
// Absent numerics and the absent purchase date become empty strings so the
// columns stay uniformly text/number-or-blank.
func (r *NormalizedRow) Values() []interface{} {
	return []interface{}{
		r.Timestamp.Format(time.RFC3339),
		r.Name,
		numberOrBlank(r.GrossAmount),
		r.DiscountMagnitude,
		numberOrBlank(r.PaidAmount),
		r.PurchaseDate,
		string(r.Account),
		string(r.Use),
	}
}

func numberOrBlank(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
