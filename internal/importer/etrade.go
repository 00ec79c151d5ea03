package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// ETradeParser parses E*TRADE transaction downloads.
type ETradeParser struct{}

const etradeID = "etrade"

var etradeDateLayouts = []string{"01/02/06", "01/02/2006"}

var etradeVocab = map[string]verdict{
	"bought":          buy(),
	"sold":            sell(),
	"sold short":      sell(),
	"bought to cover": buy(),
	"bought to open":  buy(),
	"sold to close":   sell(),
	"sold to open":    sell(),
	"bought to close": buy(),
	"reinvestment":    buy(),
	"dividend":        event(model.EventDividend),
	"qualified div":   event(model.EventDividend),
	"interest":        event(model.EventInterest),
	"interest income": event(model.EventInterest),
	"transfer":        cash(),
	"online transfer": cash(),
	"deposit":         event(model.EventDeposit),
	"withdrawal":      event(model.EventWithdrawal),
	"fee":             event(model.EventFee),
	"service fee":     event(model.EventFee),
	"adr fee":         event(model.EventFee),
	"foreign tax":     event(model.EventTax),
	"stock split":     event(model.EventSplit),
	"misc trade":      event(model.EventOther),
	"option expired":  event(model.EventOther),
}

// ID returns the adapter id.
func (p *ETradeParser) ID() string { return etradeID }

// Detect matches E*TRADE's run-together column names.
func (p *ETradeParser) Detect(sample string) bool {
	return sampleContains(sample, "TransactionDate", "TransactionType", "SecurityType")
}

// Parse reads transactions below the account preamble.
func (p *ETradeParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("TransactionDate", "TransactionType", "Symbol"))
	if err != nil {
		return nil, fmt.Errorf("reading etrade CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *ETradeParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("TransactionDate"), etradeDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("TransactionType")
	v, ok := lookup(etradeVocab, kind)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown transaction type %q", kind))
	case v.trade():
		b.addCells(us, tradeCells{
			source: etradeID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("Symbol"),
			qty:    rw.get("Quantity"),
			price:  rw.get("Price"),
			fees:   []string{rw.get("Commission")},
			notes:  rw.get("Description"),
			signed: true,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Symbol"),
			Currency:    "USD",
			Source:      etradeID,
			Line:        rw.line,
			Description: rw.get("Description"),
		}, rw.get("Amount"))
	}
}
