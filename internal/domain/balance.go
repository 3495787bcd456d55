package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DailyBalancePoint is one end-of-day snapshot in a balance series.
// Income and Expense are present only when the series was built with the
// per-day breakdown; Expense keeps its natural (negative) sign.
type DailyBalancePoint struct {
	Date    string           `json:"date"` // YYYY-MM-DD, local calendar day
	Balance decimal.Decimal  `json:"balance"`
	Income  *decimal.Decimal `json:"income,omitempty"`
	Expense *decimal.Decimal `json:"expense,omitempty"`
}

// BalanceSummary is the result of folding an account's transactions over its
// starting balance.
//
// CurrentBalance includes only transactions dated today or earlier;
// ForecastBalance includes every transaction regardless of date. DailySeries
// holds one point per calendar day that has at least one transaction, in
// ascending date order, with no entries synthesized for empty days.
type BalanceSummary struct {
	CurrentBalance  decimal.Decimal     `json:"currentBalance"`
	ForecastBalance decimal.Decimal     `json:"forecastBalance"`
	DailySeries     []DailyBalancePoint `json:"dailySeries"`
}

// ParseAmount coerces a numeric-looking string to a decimal. Empty or
// unparseable input yields zero rather than an error; stricter validation is
// the caller's concern.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
