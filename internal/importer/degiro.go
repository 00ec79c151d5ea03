package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// DegiroParser parses DEGIRO transaction overviews. DEGIRO localizes numbers to the
// account holder's language, so the caller's locale is honored. Quantities are
// signed: sells are negative.
type DegiroParser struct{}

const (
	degiroID         = "degiro"
	degiroDateFormat = "02-01-2006"
	degiroTimeFormat = "15:04"
)

var degiroHeader = []string{
	"Date", "Time", "Product", "ISIN", "Reference exchange", "Venue", "Quantity",
	"Price", "", "Local value", "", "Value", "", "Exchange rate",
	"Transaction and/or third party fees", "", "Total", "", "Order ID",
}

// ID returns the adapter id.
func (p *DegiroParser) ID() string { return degiroID }

// Detect matches the transactions header.
func (p *DegiroParser) Detect(sample string) bool {
	return sampleContains(sample, "Reference exchange", "Order ID")
}

// Parse reads transactions. Fees charged in a currency other than the trade's are
// kept in the notes rather than mixed into Fees.
func (p *DegiroParser) Parse(r io.Reader, loc locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Date", "Product", "ISIN", "Quantity", "Price"))
	if err != nil {
		return nil, fmt.Errorf("reading degiro CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, loc, rw)
	}
	return b, nil
}

func (p *DegiroParser) parseRow(b *Batch, loc locale.Locale, rw row) {
	stamp := strings.TrimSpace(rw.get("Date") + " " + rw.get("Time"))
	date, err := parseWhen(loc, stamp, degiroDateFormat+" "+degiroTimeFormat, degiroDateFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	qty, err := parseNum(loc, "quantity", rw.get("Quantity"))
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action, _ := sideFromSign(qty)

	currency := rw.after("Price")
	feeCell := rw.get("Transaction and/or third party fees", "Transaction costs")
	feeCurrency := rw.after("Transaction and/or third party fees")
	notes := rw.get("Product")
	var fees []string
	if feeCurrency == "" || strings.EqualFold(feeCurrency, currency) {
		fees = []string{feeCell}
	} else if feeCell != "" {
		notes = fmt.Sprintf("%s (fees %s %s)", notes, feeCell, feeCurrency)
	}

	b.addCells(loc, tradeCells{
		source:    degiroID,
		line:      rw.line,
		date:      date,
		action:    action,
		ticker:    rw.get("ISIN"),
		qty:       rw.get("Quantity"),
		price:     rw.get("Price"),
		currency:  currency,
		fees:      fees,
		venue:     rw.get("Venue"),
		notes:     notes,
		signed:    true,
		debitFees: true,
	})
}

// Render writes trades in DEGIRO's transaction layout using loc's number format.
func (p *DegiroParser) Render(w io.Writer, trades []model.CanonicalTrade, loc locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		qty := t.Quantity
		if t.Action == model.ActionSell {
			qty = qty.Neg()
		}
		fees, feeCurrency := "", ""
		if t.HasFees {
			fees, feeCurrency = loc.FormatDecimal(t.Fees.Neg()), t.Currency
		}
		rows = append(rows, []string{
			t.Date.Format(degiroDateFormat),
			t.Date.Format(degiroTimeFormat),
			t.Notes,
			t.Ticker,
			"",
			t.Venue,
			loc.FormatDecimal(qty),
			loc.FormatDecimal(t.Price),
			t.Currency,
			loc.FormatDecimal(qty.Mul(t.Price).Neg()),
			t.Currency,
			"", "", "",
			fees,
			feeCurrency,
			"", "", "",
		})
	}
	return writeCSV(w, ',', degiroHeader, rows)
}
