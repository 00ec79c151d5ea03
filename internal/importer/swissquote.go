package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// SwissquoteParser parses Swissquote transaction exports, which are semicolon
// separated and localized to the account's language.
type SwissquoteParser struct{}

const swissquoteID = "swissquote"

var swissquoteDateLayouts = []string{"02-01-2006 15:04:05", "02.01.2006 15:04:05", "02-01-2006", "02.01.2006"}

var swissquoteVocab = map[string]verdict{
	"buy":                buy(),
	"sell":               sell(),
	"dividend":           event(model.EventDividend),
	"capital gain":       event(model.EventDividend),
	"interest":           event(model.EventInterest),
	"credit":             event(model.EventDeposit),
	"debit":              event(model.EventWithdrawal),
	"payment":            event(model.EventDeposit),
	"withdrawal":         event(model.EventWithdrawal),
	"custody fees":       event(model.EventFee),
	"fees":               event(model.EventFee),
	"withholding tax":    event(model.EventTax),
	"forex credit":       event(model.EventOther),
	"forex debit":        event(model.EventOther),
	"split":              event(model.EventSplit),
	"reverse split":      event(model.EventSplit),
	"security in":        event(model.EventTransferIn),
	"security out":       event(model.EventTransferOut),
	"fx credit":          event(model.EventOther),
	"fx debit":           event(model.EventOther),
}

// ID returns the adapter id.
func (p *SwissquoteParser) ID() string { return swissquoteID }

// Detect matches the order number and unit price columns.
func (p *SwissquoteParser) Detect(sample string) bool {
	return sampleContains(sample, "Order #", "Unit price")
}

// Parse reads transactions using the caller's number conventions.
func (p *SwissquoteParser) Parse(r io.Reader, loc locale.Locale) (*Batch, error) {
	t, err := readTable(r, ';', headerWith("Date", "Order #", "Transaction"))
	if err != nil {
		return nil, fmt.Errorf("reading swissquote CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, loc, rw)
	}
	return b, nil
}

func (p *SwissquoteParser) parseRow(b *Batch, loc locale.Locale, rw row) {
	date, err := parseWhen(loc, rw.get("Date"), swissquoteDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("Transaction")
	v, ok := lookup(swissquoteVocab, kind)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown transaction %q", kind))
	case v.trade():
		b.addCells(loc, tradeCells{
			source:   swissquoteID,
			line:     rw.line,
			date:     date,
			action:   v.action,
			ticker:   rw.get("Symbol"),
			qty:      rw.get("Quantity"),
			price:    rw.get("Unit price"),
			currency: rw.get("Currency"),
			fees:     []string{rw.get("Costs")},
			notes:    rw.get("Name"),
		})
	default:
		b.addVerdictEvent(loc, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Symbol"),
			Currency:    rw.get("Currency"),
			Source:      swissquoteID,
			Line:        rw.line,
			Description: kind,
		}, rw.get("Net Amount"))
	}
}
