package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// RevolutParser parses Revolut trading account statements. Amounts carry their
// currency code as a prefix, "USD 150.25".
type RevolutParser struct{}

const revolutID = "revolut"

var revolutDateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "02/01/2006 15:04:05", "2006-01-02 15:04:05"}

var revolutPrefixes = []prefixVerdict{
	{"BUY", buy()},
	{"SELL", sell()},
	{"DIVIDEND TAX", event(model.EventTax)},
	{"DIVIDEND", event(model.EventDividend)},
	{"CASH TOP-UP", event(model.EventDeposit)},
	{"CASH WITHDRAWAL", event(model.EventWithdrawal)},
	{"CUSTODY FEE", event(model.EventFee)},
	{"STOCK SPLIT", event(model.EventSplit)},
	{"TRANSFER FROM", event(model.EventTransferIn)},
	{"TRANSFER TO", event(model.EventTransferOut)},
	{"SPINOFF", event(model.EventOther)},
	{"MERGER", event(model.EventOther)},
}

// ID returns the adapter id.
func (p *RevolutParser) ID() string { return revolutID }

// Detect matches the per-share price and FX rate columns.
func (p *RevolutParser) Detect(sample string) bool {
	return sampleContains(sample, "Price per share", "FX Rate")
}

// Parse reads statement rows.
func (p *RevolutParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Date", "Ticker", "Type"))
	if err != nil {
		return nil, fmt.Errorf("reading revolut CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *RevolutParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Date"), revolutDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("Type")
	v, ok := classify(revolutPrefixes, kind)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown type %q", kind))
	case v.trade():
		b.addCells(us, tradeCells{
			source:   revolutID,
			line:     rw.line,
			date:     date,
			action:   v.action,
			ticker:   rw.get("Ticker"),
			qty:      rw.get("Quantity"),
			price:    rw.get("Price per share"),
			currency: rw.get("Currency"),
			notes:    kind,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Ticker"),
			Currency:    rw.get("Currency"),
			Source:      revolutID,
			Line:        rw.line,
			Description: kind,
		}, rw.get("Total Amount"))
	}
}
