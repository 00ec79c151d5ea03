package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the side of a trade. The sign of a trade lives here, never in Quantity.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Valid reports whether a is BUY or SELL.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// CanonicalTrade is one normalized trade row, independent of the export it came from.
type CanonicalTrade struct {
	Date     time.Time       // UTC
	Ticker   string          // upper-cased
	Action   Action
	Quantity decimal.Decimal // > 0
	Price    decimal.Decimal // > 0, native transaction currency
	Currency string          // ISO 4217; empty = portfolio base currency
	Fees     decimal.Decimal // >= 0, meaningful only when HasFees
	HasFees  bool
	Venue    string
	Notes    string
	Source   string // adapter id
	RowHash  string
	Line     int // 1-based line in the source file
}

// NormalizeTicker upper-cases and trims a provider symbol.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Gross returns Quantity * Price.
func (t CanonicalTrade) Gross() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
