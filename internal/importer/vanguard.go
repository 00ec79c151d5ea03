package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// VanguardParser parses the transaction section of a Vanguard brokerage download.
// The download starts with a holdings table, which is skipped up to the
// transactions header.
type VanguardParser struct{}

const vanguardID = "vanguard"

var vanguardDateLayouts = []string{"01/02/2006", "1/2/2006", "2006-01-02"}

var vanguardVocab = map[string]verdict{
	"buy":                     buy(),
	"sell":                    sell(),
	"reinvestment":            buy(),
	"exchange in":             buy(),
	"exchange out":            sell(),
	"dividend":                event(model.EventDividend),
	"capital gain (lt)":       event(model.EventDividend),
	"capital gain (st)":       event(model.EventDividend),
	"interest":                event(model.EventInterest),
	"sweep in":                event(model.EventOther),
	"sweep out":               event(model.EventOther),
	"funds received":          event(model.EventDeposit),
	"withdrawal":              event(model.EventWithdrawal),
	"transfer (incoming)":     event(model.EventTransferIn),
	"transfer (outgoing)":     event(model.EventTransferOut),
	"stock split":             event(model.EventSplit),
	"fee":                     event(model.EventFee),
	"corp action (exchange)":  event(model.EventOther),
}

// ID returns the adapter id.
func (p *VanguardParser) ID() string { return vanguardID }

// Detect matches the transactions header.
func (p *VanguardParser) Detect(sample string) bool {
	return sampleContains(sample, "Trade Date", "Transaction Type", "Share Price")
}

// Parse reads the transactions table.
func (p *VanguardParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Trade Date", "Transaction Type", "Share Price"))
	if err != nil {
		return nil, fmt.Errorf("reading vanguard CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *VanguardParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Trade Date"), vanguardDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	kind := rw.get("Transaction Type")
	v, ok := lookup(vanguardVocab, kind)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown transaction type %q", kind))
	case v.trade():
		b.addCells(us, tradeCells{
			source: vanguardID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("Symbol"),
			qty:    rw.get("Shares"),
			price:  rw.get("Share Price"),
			fees:   []string{rw.get("Commission Fees", "Commissions and Fees")},
			notes:  rw.get("Investment Name"),
			signed: true,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("Symbol"),
			Source:      vanguardID,
			Line:        rw.line,
			Description: rw.get("Transaction Description"),
		}, rw.get("Net Amount"))
	}
}
