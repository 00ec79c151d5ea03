package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// BinanceParser parses Binance spot trade history. Executed, Amount and Fee cells
// carry their asset as a suffix, "0.05BTC".
type BinanceParser struct{}

const (
	binanceID         = "binance"
	binanceTimeFormat = "2006-01-02 15:04:05"
)

var binanceHeader = []string{"Date(UTC)", "Pair", "Side", "Price", "Executed", "Amount", "Fee"}

var binanceVocab = map[string]verdict{
	"buy":  buy(),
	"sell": sell(),
}

// ID returns the adapter id.
func (p *BinanceParser) ID() string { return binanceID }

// Detect matches the UTC date and Executed columns.
func (p *BinanceParser) Detect(sample string) bool {
	return sampleContains(sample, "Date(UTC)", "Executed", "Pair")
}

// Parse reads trade rows. A fee paid in an asset other than the quote currency,
// typically BNB or the base asset, is noted rather than added to Fees.
func (p *BinanceParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Date(UTC)", "Pair", "Side", "Executed"))
	if err != nil {
		return nil, fmt.Errorf("reading binance CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *BinanceParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Date(UTC)"), binanceTimeFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	side := rw.get("Side")
	v, ok := lookup(binanceVocab, side)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unknown side %q", side))
		return
	}
	pair := rw.get("Pair")
	base, quote, ok := splitPair(pair)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unrecognized pair %q", pair))
		return
	}

	qty, _ := splitAmount(rw.get("Executed"))
	fee, feeAsset := splitAmount(rw.get("Fee"))
	var fees []string
	var notes string
	if feeAsset == "" || feeAsset == quote {
		fees = []string{fee}
	} else if fee != "" {
		notes = fmt.Sprintf("fee %s %s", fee, feeAsset)
	}
	b.addCells(us, tradeCells{
		source:   binanceID,
		line:     rw.line,
		date:     date,
		action:   v.action,
		ticker:   base,
		qty:      qty,
		price:    rw.get("Price"),
		currency: quote,
		fees:     fees,
		notes:    notes,
	})
}

// Render writes trades in Binance's trade history layout.
func (p *BinanceParser) Render(w io.Writer, trades []model.CanonicalTrade, _ locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		fee := ""
		if t.HasFees {
			fee = t.Fees.String() + t.Currency
		}
		rows = append(rows, []string{
			t.Date.Format(binanceTimeFormat),
			t.Ticker + t.Currency,
			strings.ToUpper(string(t.Action)),
			t.Price.String(),
			t.Quantity.String() + t.Ticker,
			t.Gross().String() + t.Currency,
			fee,
		})
	}
	return writeCSV(w, ',', binanceHeader, rows)
}
