package importer

import (
	"fmt"
	"io"
	"time"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// CoinbaseParser parses Coinbase transaction reports, both the legacy layout with
// a tax-report preamble and the newer one with an ID column.
type CoinbaseParser struct{}

const (
	coinbaseID          = "coinbase"
	coinbaseBoilerplate = "You can use this transaction report to inform"
)

var coinbaseDateLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05 MST", "2006-01-02 15:04:05"}

var coinbaseVocab = map[string]verdict{
	"buy":                 buy(),
	"sell":                sell(),
	"advanced trade buy":  buy(),
	"advanced trade sell": sell(),
	"advance trade buy":   buy(),
	"advance trade sell":  sell(),
	"send":                event(model.EventTransferOut),
	"receive":             event(model.EventTransferIn),
	"deposit":             event(model.EventDeposit),
	"withdrawal":          event(model.EventWithdrawal),
	"exchange deposit":    event(model.EventTransferOut),
	"exchange withdrawal": event(model.EventTransferIn),
	"pro deposit":         event(model.EventTransferOut),
	"pro withdrawal":      event(model.EventTransferIn),
	"rewards income":      event(model.EventInterest),
	"staking income":      event(model.EventInterest),
	"learning reward":     event(model.EventOther),
	"coinbase earn":       event(model.EventOther),
	"inflation reward":    event(model.EventInterest),
	"convert":             event(model.EventOther),
}

// ID returns the adapter id.
func (p *CoinbaseParser) ID() string { return coinbaseID }

// Detect matches the report boilerplate or the Quantity Transacted column.
func (p *CoinbaseParser) Detect(sample string) bool {
	return sampleContains(sample, coinbaseBoilerplate) || sampleContains(sample, "Quantity Transacted")
}

// Parse reads report rows below the preamble.
func (p *CoinbaseParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Timestamp", "Transaction Type", "Asset", "Quantity Transacted"))
	if err != nil {
		return nil, fmt.Errorf("reading coinbase CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *CoinbaseParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Timestamp"), coinbaseDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("Transaction Type")
	v, ok := lookup(coinbaseVocab, kind)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown transaction type %q", kind))
	case v.trade():
		b.addCells(us, tradeCells{
			source:   coinbaseID,
			line:     rw.line,
			date:     date,
			action:   v.action,
			ticker:   rw.get("Asset"),
			qty:      rw.get("Quantity Transacted"),
			price:    rw.get("Spot Price at Transaction", "Price at Transaction"),
			currency: rw.get("Spot Price Currency", "Price Currency"),
			fees:     []string{rw.get("Fees and/or Spread", "Fees")},
			notes:    rw.get("Notes"),
			signed:   true,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Asset"),
			Currency:    rw.get("Asset"),
			Source:      coinbaseID,
			Line:        rw.line,
			Description: rw.get("Notes"),
		}, rw.get("Quantity Transacted"))
	}
}
