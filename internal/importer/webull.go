package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/tradeimport/internal/locale"
)

// WebullParser parses Webull order history. Only filled orders are trades;
// cancelled and pending orders are counted as ignored.
type WebullParser struct{}

const (
	webullID           = "webull"
	webullFilledStatus = "filled"
)

var webullDateLayouts = []string{"01/02/2006 15:04:05", "01/02/2006 15:04", "2006-01-02 15:04:05"}

// Webull stamps fills in US Eastern time with a zone abbreviation.
var webullZones = map[string]*time.Location{
	"EST": time.FixedZone("EST", -5*60*60),
	"EDT": time.FixedZone("EDT", -4*60*60),
}

var webullVocab = map[string]verdict{
	"buy":   buy(),
	"sell":  sell(),
	"short": sell(),
	"cover": buy(),
}

// ID returns the adapter id.
func (p *WebullParser) ID() string { return webullID }

// Detect matches the order history header.
func (p *WebullParser) Detect(sample string) bool {
	return sampleContains(sample, "Filled Time", "Avg Price", "Side")
}

// Parse reads order rows.
func (p *WebullParser) Parse(r io.Reader, _ locale.Locale) (*Batch, error) {
	t, err := readTable(r, ',', headerWith("Symbol", "Side", "Status", "Filled Time"))
	if err != nil {
		return nil, fmt.Errorf("reading webull CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		p.parseRow(b, rw)
	}
	return b, nil
}

func (p *WebullParser) parseRow(b *Batch, rw row) {
	if !strings.EqualFold(rw.get("Status"), webullFilledStatus) {
		b.ignore()
		return
	}
	date, err := webullTime(rw.get("Filled Time"))
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	side := rw.get("Side")
	v, ok := lookup(webullVocab, side)
	if !ok {
		b.addInvalid(rw.line, fmt.Errorf("unknown side %q", side))
		return
	}
	b.addCells(us, tradeCells{
		source: webullID,
		line:   rw.line,
		date:   date,
		action: v.action,
		ticker: rw.get("Symbol"),
		qty:    rw.get("Filled", "Filled Qty", "Total Qty"),
		price:  rw.get("Avg Price"),
		fees:   []string{rw.get("Fee", "Fees")},
		notes:  rw.get("Name"),
	})
}

// webullTime parses "01/05/2024 09:31:02 EST" in its stated zone and returns UTC.
func webullTime(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, errors.New("date is missing")
	}
	loc := time.UTC
	if z, ok := webullZones[strings.ToUpper(fields[len(fields)-1])]; ok {
		loc = z
		fields = fields[:len(fields)-1]
	}
	raw := strings.Join(fields, " ")
	for _, layout := range webullDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: unrecognized format", s)
}
