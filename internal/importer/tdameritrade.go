package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// TDAmeritradeParser parses TD Ameritrade transaction history. The side of a trade
// is only spelled out in the DESCRIPTION column.
type TDAmeritradeParser struct{}

const (
	tdameritradeID         = "tdameritrade"
	tdameritradeDateFormat = "01/02/2006"
	tdameritradeEOF        = "***END OF FILE***"
)

var tdameritradePrefixes = []prefixVerdict{
	{"BOUGHT", buy()},
	{"SOLD", sell()},
	{"ORDINARY DIVIDEND", event(model.EventDividend)},
	{"QUALIFIED DIVIDEND", event(model.EventDividend)},
	{"LONG TERM GAIN DISTRIBUTION", event(model.EventDividend)},
	{"SHORT TERM CAPITAL GAINS", event(model.EventDividend)},
	{"FREE BALANCE INTEREST", event(model.EventInterest)},
	{"OFF-CYCLE INTEREST", event(model.EventInterest)},
	{"MARGIN INTEREST", event(model.EventInterest)},
	{"CLIENT REQUESTED ELECTRONIC FUNDING RECEIPT", event(model.EventDeposit)},
	{"CLIENT REQUESTED ELECTRONIC FUNDING DISBURSEMENT", event(model.EventWithdrawal)},
	{"WIRE INCOMING", event(model.EventDeposit)},
	{"WIRE OUTGOING", event(model.EventWithdrawal)},
	{"TRANSFER OF SECURITY OR OPTION IN", event(model.EventTransferIn)},
	{"TRANSFER OF SECURITY OR OPTION OUT", event(model.EventTransferOut)},
	{"W-8 WITHHOLDING", event(model.EventTax)},
	{"FOREIGN TAX WITHHELD", event(model.EventTax)},
	{"STOCK SPLIT", event(model.EventSplit)},
	{"FOREIGN SECURITIES FEE", event(model.EventFee)},
	{"ADR FEE", event(model.EventFee)},
	{"INTERNAL TRANSFER", cash()},
	{"MONEY MARKET", event(model.EventOther)},
	{"REMOVAL OF OPTION", event(model.EventOther)},
}

// ID returns the adapter id.
func (p *TDAmeritradeParser) ID() string { return tdameritradeID }

// Detect matches the upper-case header with its REG FEE column.
func (p *TDAmeritradeParser) Detect(sample string) bool {
	return sampleContains(sample, "TRANSACTION ID", "REG FEE")
}

// Parse reads rows up to the end-of-file marker.
func (p *TDAmeritradeParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("DATE", "TRANSACTION ID", "DESCRIPTION"))
	if err != nil {
		return nil, fmt.Errorf("reading tdameritrade CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		if strings.HasPrefix(rw.at(0), tdameritradeEOF) {
			break
		}
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *TDAmeritradeParser) parseRow(b *Batch, rw row) {
	date, err := parseWhen(us, rw.get("DATE"), tdameritradeDateFormat)
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	desc := rw.get("DESCRIPTION")
	v, ok := classify(tdameritradePrefixes, desc)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unrecognized description %q", desc))
	case v.trade():
		b.addCells(us, tradeCells{
			source: tdameritradeID,
			line:   rw.line,
			date:   date,
			action: v.action,
			ticker: rw.get("SYMBOL"),
			qty:    rw.get("QUANTITY"),
			price:  rw.get("PRICE"),
			fees: []string{
				rw.get("COMMISSION"),
				rw.get("REG FEE"),
				rw.get("SHORT-TERM RDM FEE"),
				rw.get("FUND REDEMPTION FEE"),
				rw.get("DEFERRED SALES CHARGE"),
			},
			notes: desc,
		})
	default:
		b.addVerdictEvent(us, v, model.Event{
			Date:        date,
			Ticker:      rw.get("SYMBOL"),
			Currency:    "USD",
			Source:      tdameritradeID,
			Line:        rw.line,
			Description: desc,
		}, rw.get("AMOUNT"))
	}
}
