package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// SchwabParser parses Charles Schwab brokerage history exports.
type SchwabParser struct{}

const (
	schwabID         = "schwab"
	schwabDateFormat = "01/02/2006"
)

var schwabHeader = []string{"Date", "Action", "Symbol", "Description", "Quantity", "Price", "Fees & Comm", "Amount"}

var schwabVocab = map[string]verdict{
	"buy":                    buy(),
	"buy to open":            buy(),
	"buy to close":           buy(),
	"reinvest shares":        buy(),
	"sell":                   sell(),
	"sell short":             sell(),
	"sell to open":           sell(),
	"sell to close":          sell(),
	"qualified dividend":     event(model.EventDividend),
	"non-qualified div":      event(model.EventDividend),
	"cash dividend":          event(model.EventDividend),
	"special dividend":       event(model.EventDividend),
	"reinvest dividend":      event(model.EventDividend),
	"pr yr div reinvest":     event(model.EventDividend),
	"long term cap gain":     event(model.EventDividend),
	"short term cap gain":    event(model.EventDividend),
	"bank interest":          event(model.EventInterest),
	"credit interest":        event(model.EventInterest),
	"margin interest":        event(model.EventInterest),
	"moneylink transfer":     cash(),
	"moneylink deposit":      event(model.EventDeposit),
	"wire funds":             cash(),
	"wire funds received":    event(model.EventDeposit),
	"funds received":         event(model.EventDeposit),
	"journal":                cash(),
	"journaled shares":       event(model.EventTransferIn),
	"security transfer":      event(model.EventTransferIn),
	"stock split":            event(model.EventSplit),
	"stock plan activity":    event(model.EventTransferIn),
	"adr mgmt fee":           event(model.EventFee),
	"service fee":            event(model.EventFee),
	"foreign tax paid":       event(model.EventTax),
	"nra tax adj":            event(model.EventTax),
	"nra withholding":        event(model.EventTax),
	"expired":                event(model.EventOther),
	"assigned":               event(model.EventOther),
	"cash in lieu":           event(model.EventOther),
	"internal transfer":      cash(),
	"misc cash entry":        cash(),
	"cancel sell":            skip(),
	"cancel buy":             skip(),
}

// ID returns the adapter id.
func (p *SchwabParser) ID() string { return schwabID }

// Detect matches Schwab's header, whose "Fees & Comm" column is unique to it.
func (p *SchwabParser) Detect(sample string) bool {
	return sampleContains(sample, "Fees & Comm", "Action", "Symbol")
}

// Parse reads the transaction rows and skips the trailing totals line.
func (p *SchwabParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Date", "Action", "Symbol", "Fees & Comm"))
	if err != nil {
		return nil, fmt.Errorf("reading schwab CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		if strings.HasPrefix(rw.get("Date"), "Transactions Total") {
			continue
		}
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *SchwabParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, schwabDate(rw.get("Date")), schwabDateFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action := rw.get("Action")
	v, ok := lookup(schwabVocab, action)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown action %q", action))
	case v.skip:
		b.ignore()
	case v.trade():
		b.addCells(us, tradeCells{
			source: schwabID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("Symbol"),
			qty:    rw.get("Quantity"),
			price:  rw.get("Price"),
			fees:   []string{rw.get("Fees & Comm")},
			notes:  rw.get("Description"),
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Symbol"),
			Source:      schwabID,
			Line:        rw.line,
			Description: rw.get("Description"),
		}, rw.get("Amount"))
	}
}

// schwabDate keeps the settlement date of "01/08/2024 as of 01/05/2024".
func schwabDate(s string) string {
	if i := strings.Index(s, " as of "); i >= 0 {
		return s[:i]
	}
	return s
}

// Render writes trades in Schwab's history layout.
func (p *SchwabParser) Render(w io.Writer, trades []model.CanonicalTrade, _ locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		action := "Buy"
		if t.Action == model.ActionSell {
			action = "Sell"
		}
		rows = append(rows, []string{
			t.Date.Format(schwabDateFormat),
			action,
			t.Ticker,
			t.Notes,
			t.Quantity.String(),
			dollars(t.Price),
			optFees(t, dollars),
			dollars(netAmount(t)),
		})
	}
	return writeCSV(w, ',', schwabHeader, rows)
}

func dollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().String()
	}
	return "$" + d.String()
}

// netAmount is the cash effect of a trade: negative for purchases.
func netAmount(t model.CanonicalTrade) decimal.Decimal {
	if t.Action == model.ActionBuy {
		return t.Gross().Add(t.Fees).Neg()
	}
	return t.Gross().Sub(t.Fees)
}
