package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

func parseNum(loc locale.Locale, field, s string) (decimal.Decimal, error) {
	d, err := loc.ParseDecimal(s)
	if errors.Is(err, locale.ErrEmptyValue) {
		return decimal.Zero, fmt.Errorf("%s is missing", field)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}

func parseOptNum(loc locale.Locale, field, s string) (decimal.Decimal, bool, error) {
	d, ok, err := loc.ParseOptionalDecimal(s)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, ok, nil
}

func parseWhen(loc locale.Locale, s string, layouts ...string) (time.Time, error) {
	t, err := loc.ParseDate(s, layouts...)
	if errors.Is(err, locale.ErrEmptyValue) {
		return time.Time{}, errors.New("date is missing")
	}
	return t, err
}

// sideFromSign maps a signed provider quantity onto an action and a positive quantity.
func sideFromSign(q decimal.Decimal) (model.Action, decimal.Decimal) {
	if q.IsNegative() {
		return model.ActionSell, q.Abs()
	}
	return model.ActionBuy, q
}

// sumFees adds every non-blank fee cell. With debitFees set the cells come from a
// provider that books fees as debits, and their absolute value is taken.
func sumFees(loc locale.Locale, debitFees bool, cells ...string) (decimal.Decimal, bool, error) {
	total, found := decimal.Zero, false
	for _, c := range cells {
		d, ok, err := parseOptNum(loc, "fees", c)
		if err != nil {
			return decimal.Zero, false, err
		}
		if ok {
			if debitFees {
				d = d.Abs()
			}
			total = total.Add(d)
			found = true
		}
	}
	return total, found, nil
}

// splitAmount separates "0.05 BTC", "USD 150.25" or "0.5BTC" into number and unit.
func splitAmount(s string) (number, unit string) {
	s = strings.TrimSpace(s)
	if f := strings.Fields(s); len(f) == 2 {
		if isAlpha(f[0]) {
			return f[1], strings.ToUpper(f[0])
		}
		if isAlpha(f[1]) {
			return f[0], strings.ToUpper(f[1])
		}
	}
	i := len(s)
	for i > 0 && isLetter(s[i-1]) {
		i--
	}
	return strings.TrimSpace(s[:i]), strings.ToUpper(s[i:])
}

func isLetter(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z'
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}

func newEvent(source string, line int, date time.Time, kind model.EventKind, ticker string, amount decimal.Decimal, currency, desc string) model.Event {
	return model.Event{
		Date:        date,
		Kind:        kind,
		Ticker:      model.NormalizeTicker(ticker),
		Amount:      amount,
		Currency:    strings.ToUpper(strings.TrimSpace(currency)),
		Source:      source,
		Line:        line,
		Description: desc,
	}
}

// cashEvent classifies a cash movement by sign.
func cashEvent(amount decimal.Decimal) model.EventKind {
	if amount.IsNegative() {
		return model.EventWithdrawal
	}
	return model.EventDeposit
}

var us = locale.US

func newBatch(t *table) *Batch {
	return &Batch{Invalid: append([]RowError(nil), t.bad...), Seen: len(t.bad)}
}

// writeCSV writes a header and rows, the way every Renderer emits its layout.
func writeCSV(w io.Writer, delim rune, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range rows {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// optFees renders a fee cell, blank when the trade carried none.
func optFees(t model.CanonicalTrade, format func(decimal.Decimal) string) string {
	if !t.HasFees {
		return ""
	}
	return format(t.Fees)
}

// tradeCells is a trade row after the provider's vocabulary has been resolved but
// before any number has been parsed.
type tradeCells struct {
	source   string
	line     int
	date     time.Time
	action   model.Action
	ticker   string
	qty      string
	price    string
	currency string
	fees     []string
	venue    string
	notes    string
	// signed marks providers whose quantity sign repeats the action.
	signed bool
	// debitFees marks providers that write fees as negative amounts.
	debitFees bool
}

func (c tradeCells) build(loc locale.Locale) (model.CanonicalTrade, error) {
	qty, err := parseNum(loc, "quantity", c.qty)
	if err != nil {
		return model.CanonicalTrade{}, err
	}
	if c.signed {
		qty = qty.Abs()
	}
	price, err := parseNum(loc, "price", c.price)
	if err != nil {
		return model.CanonicalTrade{}, err
	}
	fees, hasFees, err := sumFees(loc, c.debitFees, c.fees...)
	if err != nil {
		return model.CanonicalTrade{}, err
	}
	return model.CanonicalTrade{
		Date:     c.date,
		Ticker:   model.NormalizeTicker(c.ticker),
		Action:   c.action,
		Quantity: qty,
		Price:    price,
		Currency: strings.ToUpper(strings.TrimSpace(c.currency)),
		Fees:     fees,
		HasFees:  hasFees,
		Venue:    c.venue,
		Notes:    c.notes,
		Source:   c.source,
		Line:     c.line,
	}, nil
}

// addCells builds a trade and records it, or records why it could not be built.
func (b *Batch) addCells(loc locale.Locale, c tradeCells) {
	t, err := c.build(loc)
	if err != nil {
		b.addInvalid(c.line, err)
		return
	}
	b.addTrade(t)
}

// addVerdictEvent parses an event amount and records the event a verdict names.
func (b *Batch) addVerdictEvent(loc locale.Locale, v verdict, e model.Event, amount string) {
	amt, _, err := parseOptNum(loc, "amount", amount)
	if err != nil {
		b.addInvalid(e.Line, err)
		return
	}
	e.Amount = amt
	e.Kind = v.kind(amt)
	e.Ticker = model.NormalizeTicker(e.Ticker)
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	b.addEvent(e)
}
