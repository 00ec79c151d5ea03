package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind classifies a non-trade row.
type EventKind string

const (
	EventDividend    EventKind = "DIVIDEND"
	EventInterest    EventKind = "INTEREST"
	EventDeposit     EventKind = "DEPOSIT"
	EventWithdrawal  EventKind = "WITHDRAWAL"
	EventTransferIn  EventKind = "TRANSFER_IN"
	EventTransferOut EventKind = "TRANSFER_OUT"
	EventSplit       EventKind = "SPLIT"
	EventFee         EventKind = "FEE"
	EventTax         EventKind = "TAX"
	EventOther       EventKind = "OTHER"
)

// Event is a row that moves cash or positions without being a BUY or SELL.
type Event struct {
	Date        time.Time
	Kind        EventKind
	Ticker      string
	Amount      decimal.Decimal // signed as reported by the provider
	Currency    string
	Source      string
	Line        int
	Description string
}
