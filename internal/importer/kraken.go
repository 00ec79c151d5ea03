package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// KrakenParser parses Kraken trade history exports. Each row is one fill; the fee
// is charged in the quote currency.
type KrakenParser struct{}

const (
	krakenID         = "kraken"
	krakenTimeFormat = "2006-01-02 15:04:05.0000"
)

var krakenHeader = []string{"txid", "ordertxid", "pair", "time", "type", "ordertype", "price", "cost", "fee", "vol", "margin", "misc", "ledgers"}

var krakenDateLayouts = []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z"}

var krakenVocab = map[string]verdict{
	"buy":  buy(),
	"sell": sell(),
}

// ID returns the adapter id.
func (p *KrakenParser) ID() string { return krakenID }

// Detect matches the order id and pair columns.
func (p *KrakenParser) Detect(sample string) bool {
	return sampleContains(sample, "ordertxid", "pair")
}

// Parse reads trade fills.
func (p *KrakenParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("ordertxid", "pair", "type", "vol"))
	if err != nil {
		return nil, fmt.Errorf("reading kraken CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *KrakenParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("time"), krakenDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	side := rw.get("type")
	v, ok := lookup(krakenVocab, side)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unknown type %q", side))
		return
	}
	pair := rw.get("pair")
	base, quote, ok := splitPair(pair)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unrecognized pair %q", pair))
		return
	}
	b.addCells(us, tradeCells{
		source:   krakenID,
		line:     rw.line,
		date:     date,
		action:   v.action,
		ticker:   krakenAsset(base),
		qty:      rw.get("vol"),
		price:    rw.get("price"),
		currency: krakenAsset(quote),
		fees:     []string{rw.get("fee")},
		notes:    rw.get("ordertype"),
	})
}

// Render writes trades in Kraken's trade history layout with slash pairs.
func (p *KrakenParser) Render(w io.Writer, trades []model.CanonicalTrade, _ locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			"", "",
			krakenCode(t.Ticker) + "/" + krakenCode(t.Currency),
			t.Date.Format(krakenTimeFormat),
			strings.ToLower(string(t.Action)),
			t.Notes,
			t.Price.String(),
			t.Gross().String(),
			optFees(t, decimal.Decimal.String),
			t.Quantity.String(),
			"0", "", "",
		})
	}
	return writeCSV(w, ',', krakenHeader, rows)
}

// krakenCode reverses krakenAsset.
func krakenCode(asset string) string {
	for code, renamed := range krakenAssets {
		if renamed == asset {
			return code
		}
	}
	return asset
}
