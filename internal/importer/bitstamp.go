package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// BitstampParser parses Bitstamp transaction exports. Amount, Rate and Fee cells
// are written as "0.05000000 BTC".
type BitstampParser struct{}

const bitstampID = "bitstamp"

var bitstampDateLayouts = []string{"Jan. 02, 2006, 03:04 PM", "Jan 02, 2006, 03:04 PM", "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"}

var bitstampTypes = map[string]verdict{
	"deposit":              event(model.EventDeposit),
	"withdrawal":           event(model.EventWithdrawal),
	"sub account transfer": event(model.EventOther),
	"staking reward":       event(model.EventInterest),
	"staking purchase":     event(model.EventOther),
	"staking sale":         event(model.EventOther),
}

var bitstampSides = map[string]verdict{
	"buy":  buy(),
	"sell": sell(),
}

// ID returns the adapter id.
func (p *BitstampParser) ID() string { return bitstampID }

// Detect matches the Sub Type, Datetime and Rate columns.
func (p *BitstampParser) Detect(sample string) bool {
	return sampleContains(sample, "Sub Type", "Datetime", "Rate")
}

// Parse reads transactions. Market and limit rows are trades; their side is in
// Sub Type.
func (p *BitstampParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Type", "Datetime", "Amount", "Sub Type"))
	if err != nil {
		return nil, fmt.Errorf("reading bitstamp CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *BitstampParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Datetime"), bitstampDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("Type")
	amount, asset := splitAmount(rw.get("Amount"))

	switch normHeader(kind) {
	case "market", "limit", "instant":
		side := rw.get("Sub Type")
		v, ok := lookup(bitstampSides, side)
		if !ok {
			b.addInvalid(rw.line, fmt.Errorf("unknown sub type %q", side))
			return
		}
		rate, quote := splitAmount(rw.get("Rate"))
		fee, feeAsset := splitAmount(rw.get("Fee"))
		var fees []string
		var notes string
		if feeAsset == "" || feeAsset == quote {
			fees = []string{fee}
		} else if fee != "" {
			notes = fmt.Sprintf("fee %s %s", fee, feeAsset)
		}
		b.addCells(us, tradeCells{
			source:   bitstampID,
			line:     rw.line,
			date:     date,
			action:   v.action,
			ticker:   asset,
			qty:      amount,
			price:    rate,
			currency: quote,
			fees:     fees,
			venue:    rw.get("Account"),
			notes:    notes,
		})
	default:
		v, ok := lookup(bitstampTypes, kind)
		if !ok {
			b.addInvalid(rw.line, fmt.Errorf("unknown type %q", kind))
			return
		}
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      asset,
			Currency:    asset,
			Source:      bitstampID,
			Line:        rw.line,
			Description: strings.TrimSpace(kind + " " + rw.get("Account")),
		}, amount)
	}
}
