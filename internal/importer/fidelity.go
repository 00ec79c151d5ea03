package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// FidelityParser parses Fidelity account history downloads.
type FidelityParser struct{}

const (
	fidelityID         = "fidelity"
	fidelityDateFormat = "01/02/2006"
)

// fidelityPrefixes classifies Fidelity's free-text action column by its opening words.
// Order matters: "REINVESTMENT" must be tried before the generic dividend prefix.
var fidelityPrefixes = []prefixVerdict{
	{"YOU BOUGHT", buy()},
	{"YOU SOLD", sell()},
	{"REINVESTMENT", buy()},
	{"DIVIDEND RECEIVED", event(model.EventDividend)},
	{"LONG-TERM CAP GAIN", event(model.EventDividend)},
	{"SHORT-TERM CAP GAIN", event(model.EventDividend)},
	{"INTEREST EARNED", event(model.EventInterest)},
	{"FOREIGN TAX PAID", event(model.EventTax)},
	{"FEE CHARGED", event(model.EventFee)},
	{"ELECTRONIC FUNDS TRANSFER", cash()},
	{"CONTRIBUTION", event(model.EventDeposit)},
	{"TRANSFERRED FROM", event(model.EventTransferIn)},
	{"TRANSFERRED TO", event(model.EventTransferOut)},
	{"TRANSFER OF ASSETS", cash()},
	{"DISTRIBUTION", event(model.EventOther)},
}

// ID returns the adapter id.
func (p *FidelityParser) ID() string { return fidelityID }

// Detect matches Fidelity's "Run Date" and "Price ($)" columns.
func (p *FidelityParser) Detect(sample string) bool {
	return sampleContains(sample, "Run Date", "Action", "Price ($)")
}

// Parse reads history rows. The disclaimer lines Fidelity appends are single-cell
// records and are not counted as data.
func (p *FidelityParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Run Date", "Action", "Symbol"))
	if err != nil {
		return nil, fmt.Errorf("reading fidelity CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		if rw.filled() <= 1 {
			continue
		}
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *FidelityParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Run Date"), fidelityDateFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action := rw.get("Action")
	v, ok := classify(fidelityPrefixes, action)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown action %q", action))
	case v.trade():
		b.addCells(us, tradeCells{
			source: fidelityID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("Symbol"),
			qty:    rw.get("Quantity"),
			price:  rw.get("Price ($)"),
			fees:   []string{rw.get("Commission ($)"), rw.get("Fees ($)")},
			notes:  rw.get("Security Description"),
			signed: true,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Symbol"),
			Source:      fidelityID,
			Line:        rw.line,
			Description: action,
		}, rw.get("Amount ($)"))
	}
}
