package importer

import (
	"fmt"
	"io"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// QuestradeParser parses Questrade activity exports. The Activity Type column
// groups rows; the Action column only matters for trades.
type QuestradeParser struct{}

const questradeID = "questrade"

var questradeDateLayouts = []string{"2006-01-02 3:04:05 PM", "2006-01-02 15:04:05", "2006-01-02"}

var questradeActivities = map[string]verdict{
	"dividends":         event(model.EventDividend),
	"interest":          event(model.EventInterest),
	"deposits":          event(model.EventDeposit),
	"withdrawals":       event(model.EventWithdrawal),
	"fees and rebates":  event(model.EventFee),
	"transfers":         cash(),
	"corporate actions": event(model.EventOther),
	"fx conversion":     event(model.EventOther),
	"other":             event(model.EventOther),
}

var questradeActions = map[string]verdict{
	"buy":  buy(),
	"sell": sell(),
	"bto":  buy(),
	"btc":  buy(),
	"sto":  sell(),
	"stc":  sell(),
}

// ID returns the adapter id.
func (p *QuestradeParser) ID() string { return questradeID }

// Detect matches Questrade's Activity Type and Gross Amount columns.
func (p *QuestradeParser) Detect(sample string) bool {
	return sampleContains(sample, "Activity Type", "Gross Amount")
}

// Parse reads activity rows.
func (p *QuestradeParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Transaction Date", "Action", "Activity Type"))
	if err != nil {
		return nil, fmt.Errorf("reading questrade CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *QuestradeParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("Transaction Date"), questradeDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	activity := rw.get("Activity Type")
	if normHeader(activity) == "trades" {
		action := rw.get("Action")
		v, ok := lookup(questradeActions, action)
		if !ok {
			b.addInvalid(rw.line, fmt.Errorf("unknown trade action %q", action))
			return
		}
		b.addCells(us, tradeCells{
			source:    questradeID,
			line:      rw.line,
			date:      date,
			action:    v.action,
			ticker:    rw.get("Symbol"),
			qty:       rw.get("Quantity"),
			price:     rw.get("Price"),
			currency:  rw.get("Currency"),
			fees:      []string{rw.get("Commission")},
			notes:     rw.get("Description"),
			signed:    true,
			debitFees: true,
		})
		return
	}
	v, ok := lookup(questradeActivities, activity)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unknown activity type %q", activity))
		return
	}
	b.addVerdictEvent(us, v, model.Event{
		Date:        date,
		Ticker:      rw.get("Symbol"),
		Currency:    rw.get("Currency"),
		Source:      questradeID,
		Line:        rw.line,
		Description: rw.get("Description"),
	}, rw.get("Net Amount"))
}
