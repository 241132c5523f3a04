package pipeline

import (
	"math"
	"strings"
	"time"

	"github.com/yadoya/receipt-ledger/internal/taxonomy"
)

// NormalizeItem converts one raw LineItem into a guaranteed-valid row.
// It never fails: invalid categorical data degrades to a safe default so one
// bad item can never block the rest of the receipt from being recorded.
// sharedTS and sharedPurchaseDate are captured once per invocation and are
// identical across all rows of one extraction.
func NormalizeItem(item LineItem, sharedTS time.Time, sharedPurchaseDate string) NormalizedRow {
	name := ""
	if item.Name != nil {
		name = *item.Name
	}

	// Discount arrives non-positive; the sheet shows the magnitude.
	discount := 0.0
	if item.Discount != nil {
		discount = *item.Discount
	}
	discountMagnitude := 0.0
	if discount != 0 {
		discountMagnitude = math.Abs(discount)
	}

	// Paid amount: trust the model's value, else derive it from the gross
	// price and the (signed) discount, else leave it absent.
	paid := item.PaidAmount
	if paid == nil && item.GrossAmount != nil {
		derived := *item.GrossAmount + discount
		paid = &derived
	}

	account := resolveAccount(item.SuggestedAccount, name)
	use := resolveUse(item.SuggestedUse)

	return NormalizedRow{
		Timestamp:         sharedTS,
		Name:              name,
		GrossAmount:       item.GrossAmount,
		DiscountMagnitude: discountMagnitude,
		PaidAmount:        paid,
		PurchaseDate:      sharedPurchaseDate,
		Account:           account,
		Use:               use,
	}
}

// resolveAccount keeps the model's suggestion when it is a member of the
// account set and falls back to the keyword classifier otherwise.
func resolveAccount(suggested *string, name string) taxonomy.Account {
	if suggested != nil {
		if a, ok := taxonomy.ParseAccount(strings.TrimSpace(*suggested)); ok {
			return a
		}
	}
	return taxonomy.GuessAccount(name)
}

// resolveUse keeps the model's suggestion when valid and defaults to 未分類.
func resolveUse(suggested *string) taxonomy.Use {
	if suggested != nil {
		if u, ok := taxonomy.ParseUse(strings.TrimSpace(*suggested)); ok {
			return u
		}
	}
	return taxonomy.UseUnclassified
}
