package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// IBKRParser parses Interactive Brokers activity statements. A statement is one CSV
// holding several sections, each introduced by its own "<Section>,Header,..." row.
type IBKRParser struct{}

const (
	ibkrID = "ibkr"

	ibkrSectionTrades      = "trades"
	ibkrSectionDividends   = "dividends"
	ibkrSectionWithholding = "withholding tax"
	ibkrSectionCash        = "deposits & withdrawals"
	ibkrSectionFees        = "fees"
	ibkrSectionInterest    = "interest"
)

var ibkrDateLayouts = []string{"2006-01-02, 15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// ibkrSectionKinds maps cash sections onto the event they report.
var ibkrSectionKinds = map[string]verdict{
	ibkrSectionDividends:   event(model.EventDividend),
	ibkrSectionWithholding: event(model.EventTax),
	ibkrSectionCash:        cash(),
	ibkrSectionFees:        event(model.EventFee),
	ibkrSectionInterest:    event(model.EventInterest),
}

// ID returns the adapter id.
func (p *IBKRParser) ID() string { return ibkrID }

// Detect matches the trades section header or the statement preamble.
func (p *IBKRParser) Detect(sample string) bool {
	return sampleContains(sample, "Trades,Header,DataDiscriminator") ||
		sampleContains(sample, "Statement,Header,Field Name,Field Value")
}

// Parse reads trades and cash sections; every other section is statement metadata.
func (p *IBKRParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	b := &Batch{}
	headers := make(map[string]map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			b.addInvalid(perr.Line, perr.Err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading ibkr CSV: %w", err)
		}
		if len(rec) < 3 {
			continue
		}
		line, _ := cr.FieldPos(0)
		section := normHeader(rec[0])

		switch strings.TrimSpace(rec[1]) {
		case "Header":
			cols := make(map[string]int, len(rec)-2)
			for i, c := range rec[2:] {
				cols[normHeader(c)] = i
			}
			headers[section] = cols
		case "Data":
			cols, ok := headers[section]
			if !ok {
				continue
			}
			rw := row{line: line, values: rec[2:], cols: cols}
			if section == ibkrSectionTrades {
				p.parseTrade(b, rw)
			} else if v, ok := ibkrSectionKinds[section]; ok {
				p.parseCash(b, v, rw)
			}
		}
	}
	if len(headers) == 0 {
		return nil, ErrHeaderNotFound
	}
	return b, nil
}

func (p *IBKRParser) parseTrade(b *Batch, rw row) {
	if d := rw.get("DataDiscriminator"); d != "" && d != "Order" && d != "Trade" {
		return
	}
	if strings.EqualFold(rw.get("Asset Category"), "Forex") {
		b.ignore()
		return
	}
	date, err := parseWhen(us, rw.get("Date/Time"), ibkrDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	qty, err := parseNum(us, "quantity", rw.get("Quantity"))
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action, _ := sideFromSign(qty)
	b.addCells(us, tradeCells{
		source:    ibkrID,
		line:      rw.line,
		date:      date,
		action:    action,
		ticker:    rw.get("Symbol"),
		qty:       rw.get("Quantity"),
		price:     rw.get("T. Price", "Price"),
		currency:  rw.get("Currency"),
		fees:      []string{rw.get("Comm/Fee", "Comm in USD")},
		venue:     rw.get("Exchange"),
		notes:     rw.get("Code"),
		signed:    true,
		debitFees: true,
	})
}

func (p *IBKRParser) parseCash(b *Batch, v verdict, rw row) {
	// Section totals are reported as Data rows with "Total" in the currency column.
	if strings.HasPrefix(rw.get("Currency"), "Total") {
		return
	}
	date, err := parseWhen(us, rw.get("Date", "Settle Date"), ibkrDateLayouts...)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	desc := rw.get("Description")
	b.addVerdictEvent(us, v, model.Event{
		Date:        date,
		Ticker:      ibkrSymbol(desc),
		Currency:    rw.get("Currency"),
		Source:      ibkrID,
		Line:        rw.line,
		Description: desc,
	}, rw.get("Amount"))
}

// ibkrSymbol extracts "AAPL" from "AAPL(US0378331005) Cash Dividend ...".
func ibkrSymbol(desc string) string {
	if i := strings.Index(desc, "("); i > 0 {
		return strings.TrimSpace(desc[:i])
	}
	return ""
}
