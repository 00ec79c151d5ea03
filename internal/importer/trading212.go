package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// Trading212Parser parses Trading 212 history exports.
type Trading212Parser struct{}

const (
	trading212ID         = "trading212"
	trading212TimeFormat = "2006-01-02 15:04:05"
)

var trading212DateLayouts = []string{trading212TimeFormat, "2006-01-02 15:04:05.000", "2006-01-02T15:04:05.000Z", "2006-01-02"}

var trading212Header = []string{
	"Action", "Time", "ISIN", "Ticker", "Name", "No. of shares", "Price / share",
	"Currency (Price / share)", "Exchange rate", "Result", "Total", "Currency (Total)",
	"Withholding tax", "Currency (Withholding tax)", "Currency conversion fee",
	"Currency (Currency conversion fee)", "Notes", "ID",
}

var trading212Prefixes = []prefixVerdict{
	{"MARKET BUY", buy()},
	{"LIMIT BUY", buy()},
	{"STOP BUY", buy()},
	{"STOP LIMIT BUY", buy()},
	{"MARKET SELL", sell()},
	{"LIMIT SELL", sell()},
	{"STOP SELL", sell()},
	{"STOP LIMIT SELL", sell()},
	{"DIVIDEND", event(model.EventDividend)},
	{"INTEREST ON CASH", event(model.EventInterest)},
	{"LENDING INTEREST", event(model.EventInterest)},
	{"DEPOSIT", event(model.EventDeposit)},
	{"WITHDRAWAL", event(model.EventWithdrawal)},
	{"CURRENCY CONVERSION", event(model.EventOther)},
	{"STOCK SPLIT", event(model.EventSplit)},
	{"RESULT ADJUSTMENT", event(model.EventOther)},
}

// trading212Fees are the per-trade charges, all stated in the total's currency.
var trading212Fees = []string{
	"Currency conversion fee", "Stamp duty reserve tax", "Stamp duty", "French transaction tax", "Transaction fee",
}

// ID returns the adapter id.
func (p *Trading212Parser) ID() string { return trading212ID }

// Detect matches the share count and per-share price columns.
func (p *Trading212Parser) Detect(sample string) bool {
	return sampleContains(sample, "No. of shares", "Price / share")
}

// Parse reads history rows.
func (p *Trading212Parser) Parse(r io.Reader, loc locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Action", "Time", "Ticker"))
	if err != nil {
		return nil, fmt.Errorf("reading trading212 CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, loc, rw)
	}
	return b, nil
}

func (p *Trading212Parser) parseRow(b *Batch, loc locale.Locale, rw row) {
	date, err := parseWhen(loc, rw.get("Time"), trading212DateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action := rw.get("Action")
	v, ok := classify(trading212Prefixes, action)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unknown action %q", action))
		return
	}
	if !v.trade() {
		b.addVerdictEvent(loc, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Ticker"),
			Currency:    rw.get("Currency (Total)"),
			Source:      trading212ID,
			Line:        rw.line,
			Description: action,
		}, rw.get("Total"))
		return
	}

	currency := rw.get("Currency (Price / share)")
	totalCurrency := rw.get("Currency (Total)")
	notes := rw.get("Name")
	var fees []string
	for _, col := range trading212Fees {
		cell := rw.get(col)
		if cell == "" {
			continue
		}
		if totalCurrency == "" || strings.EqualFold(totalCurrency, currency) {
			fees = append(fees, cell)
		} else {
			notes = fmt.Sprintf("%s (%s %s %s)", notes, strings.ToLower(col), cell, totalCurrency)
		}
	}
	b.addCells(loc, tradeCells{
		source:   trading212ID,
		line:     rw.line,
		date:     date,
		action:   v.action,
		ticker:   rw.get("Ticker"),
		qty:      rw.get("No. of shares"),
		price:    rw.get("Price / share"),
		currency: currency,
		fees:     fees,
		notes:    notes,
	})
}

// Render writes trades as Trading 212 market orders.
func (p *Trading212Parser) Render(w io.Writer, trades []model.CanonicalTrade, loc locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		action := "Market buy"
		if t.Action == model.ActionSell {
			action = "Market sell"
		}
		fee, feeCurrency := "", ""
		if t.HasFees {
			fee, feeCurrency = loc.FormatDecimal(t.Fees), t.Currency
		}
		rows = append(rows, []string{
			action,
			t.Date.Format(trading212TimeFormat),
			"",
			t.Ticker,
			t.Notes,
			loc.FormatDecimal(t.Quantity),
			loc.FormatDecimal(t.Price),
			t.Currency,
			"1",
			"",
			loc.FormatDecimal(netAmount(t).Abs()),
			t.Currency,
			"", "",
			fee,
			feeCurrency,
			"", "",
		})
	}
	return writeCSV(w, ',', trading212Header, rows)
}
