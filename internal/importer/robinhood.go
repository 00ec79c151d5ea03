package importer

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// RobinhoodParser parses Robinhood account activity reports.
type RobinhoodParser struct{}

const (
	robinhoodID         = "robinhood"
	robinhoodDateFormat = "1/2/2006"
)

var robinhoodHeader = []string{
	"Activity Date", "Process Date", "Settle Date", "Instrument", "Description",
	"Trans Code", "Quantity", "Price", "Amount",
}

// robinhoodVocab maps Robinhood's transaction codes.
var robinhoodVocab = map[string]verdict{
	"buy":    buy(),
	"sell":   sell(),
	"bto":    buy(),
	"btc":    buy(),
	"sto":    sell(),
	"stc":    sell(),
	"cdiv":   event(model.EventDividend),
	"mdiv":   event(model.EventDividend),
	"int":    event(model.EventInterest),
	"slip":   event(model.EventInterest),
	"ach":    cash(),
	"rtp":    cash(),
	"dcf":    cash(),
	"xent":   cash(),
	"spl":    event(model.EventSplit),
	"spr":    event(model.EventSplit),
	"gold":   event(model.EventFee),
	"afee":   event(model.EventFee),
	"dfee":   event(model.EventFee),
	"dtax":   event(model.EventTax),
	"acati":  event(model.EventTransferIn),
	"acato":  event(model.EventTransferOut),
	"itrf":   event(model.EventOther),
	"rec":    event(model.EventOther),
	"sxch":   event(model.EventOther),
	"soff":   event(model.EventOther),
	"cil":    event(model.EventOther),
	"oexp":   event(model.EventOther),
	"oasgn":  event(model.EventOther),
	"misc":   event(model.EventOther),
	"gdbp":   event(model.EventOther),
	"futswp": event(model.EventOther),
}

// ID returns the adapter id.
func (p *RobinhoodParser) ID() string { return robinhoodID }

// Detect matches Robinhood's "Trans Code" column.
func (p *RobinhoodParser) Detect(sample string) bool {
	return sampleContains(sample, "Activity Date", "Trans Code")
}

// Parse reads activity rows. The disclaimer row at the end carries a single cell
// and is not data.
func (p *RobinhoodParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Activity Date", "Trans Code"))
	if err != nil {
		return nil, fmt.Errorf("reading robinhood CSV: %w", err)
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

func (p *RobinhoodParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Activity Date"), robinhoodDateFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	code := rw.get("Trans Code")
	v, ok := lookup(robinhoodVocab, code)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown trans code %q", code))
	case v.trade():
		b.addCells(us, tradeCells{
			source: robinhoodID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("Instrument"),
			qty:    rw.get("Quantity"),
			price:  rw.get("Price"),
			notes:  rw.get("Description"),
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Instrument"),
			Currency:    "USD",
			Source:      robinhoodID,
			Line:        rw.line,
			Description: rw.get("Description"),
		}, rw.get("Amount"))
	}
}

// Render writes trades in Robinhood's activity layout. The layout has no fee
// column.
func (p *RobinhoodParser) Render(w io.Writer, trades []model.CanonicalTrade, _ locale.Locale) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		code := "Buy"
		if t.Action == model.ActionSell {
			code = "Sell"
		}
		date := t.Date.Format(robinhoodDateFormat)
		rows = append(rows, []string{
			date, date, date,
			t.Ticker,
			t.Notes,
			code,
			t.Quantity.String(),
			"$" + t.Price.String(),
			accounting(netAmount(t)),
		})
	}
	return writeCSV(w, ',', robinhoodHeader, rows)
}

// accounting writes negatives in parentheses, "($1502.50)".
func accounting(d decimal.Decimal) string {
	if d.IsNegative() {
		return "($" + d.Abs().StringFixed(2) + ")"
	}
	return "$" + d.StringFixed(2)
}
