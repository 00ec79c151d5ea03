package importer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// MappedID is the source id of trades read through an explicit column mapping.
const MappedID = "mapped"

// sniffBytes bounds the delimiter sniff to the first lines of a file.
const sniffBytes = 2048

// MappedAdapter reads any delimited file whose columns a user has assigned to the
// canonical fields. It is never registered for detection.
type MappedAdapter struct {
	mapping model.UniversalMapping
}

// MissingColumnsError reports mapped headers that the file does not contain.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("mapped columns not found in file: %s", strings.Join(e.Columns, ", "))
}

// NewMappedAdapter returns an adapter bound to mapping. The mapping is copied.
func NewMappedAdapter(mapping model.UniversalMapping) *MappedAdapter {
	return &MappedAdapter{mapping: mapping.Clone()}
}

// ID returns MappedID.
func (m *MappedAdapter) ID() string { return MappedID }

// Detect always reports false: a mapping is chosen by a person, not sniffed.
func (m *MappedAdapter) Detect(string) bool { return false }

// Mapping returns a copy of the bound mapping.
func (m *MappedAdapter) Mapping() model.UniversalMapping { return m.mapping.Clone() }

// Parse reads the file with a sniffed delimiter. Quantities are taken as written:
// a negative quantity is left for validation to reject rather than flipped into a
// sell.
func (m *MappedAdapter) Parse(r io.Reader, loc locale.Locale) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading mapped file: %w", err)
	}
	head := data
	if len(head) > sniffBytes {
		head = head[:sniffBytes]
	}
	delim := sniffDelimiter(string(head))

	cols := m.columns()
	t, err := readTable(bytes.NewReader(data), delim, headerWith(cols...))
	if err != nil {
		header, _, _ := Headers(string(head), 1)
		if missing := missingColumns(header, cols); header != nil && len(missing) > 0 {
			return nil, &MissingColumnsError{Columns: missing}
		}
		return nil, fmt.Errorf("reading mapped CSV: %w", err)
	}
	b := newBatch(t)
	for _, rw := range t.rows {
		m.parseRow(b, loc, rw)
	}
	return b, nil
}

func (m *MappedAdapter) parseRow(b *Batch, loc locale.Locale, rw row) {
	date, err := parseWhen(loc, m.cell(rw, model.FieldDate))
	if err != nil {
		b.addInvalid(rw.line, err)
		return
	}
	action := m.cell(rw, model.FieldAction)
	v, ok := lookup(genericVocab, action)
	switch {
	case !ok:
		b.addInvalid(rw.line, fmt.Errorf("unknown action %q", action))
	case !v.trade():
		b.ignore()
	default:
		var fees []string
		if _, mapped := m.mapping[model.FieldFees]; mapped {
			fees = []string{m.cell(rw, model.FieldFees)}
		}
		b.addCells(loc, tradeCells{
			source:   MappedID,
			line:     rw.line,
			date:     date,
			action:   v.action,
			ticker:   m.cell(rw, model.FieldTicker),
			qty:      m.cell(rw, model.FieldQuantity),
			price:    m.cell(rw, model.FieldPrice),
			currency: m.cell(rw, model.FieldCurrency),
			fees:     fees,
		})
	}
}

func (m *MappedAdapter) cell(rw row, f model.Field) string {
	header, ok := m.mapping[f]
	if !ok || strings.TrimSpace(header) == "" {
		return ""
	}
	return rw.get(header)
}

// columns lists the mapped headers in canonical field order.
func (m *MappedAdapter) columns() []string {
	var cols []string
	for _, f := range model.AllFields() {
		if h := strings.TrimSpace(m.mapping[f]); h != "" {
			cols = append(cols, h)
		}
	}
	return cols
}

func missingColumns(header, cols []string) []string {
	var missing []string
	for _, c := range cols {
		if !hasColumns(header, c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Render writes trades under the mapped headers, one column per mapped field.
func (m *MappedAdapter) Render(w io.Writer, trades []model.CanonicalTrade, loc locale.Locale) error {
	var fields []model.Field
	var header []string
	for _, f := range model.AllFields() {
		if h := strings.TrimSpace(m.mapping[f]); h != "" {
			fields = append(fields, f)
			header = append(header, h)
		}
	}
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rec := make([]string, len(fields))
		for i, f := range fields {
			switch f {
			case model.FieldDate:
				rec[i] = t.Date.Format(time.RFC3339)
			case model.FieldTicker:
				rec[i] = t.Ticker
			case model.FieldAction:
				rec[i] = string(t.Action)
			case model.FieldQuantity:
				rec[i] = loc.FormatDecimal(t.Quantity)
			case model.FieldPrice:
				rec[i] = loc.FormatDecimal(t.Price)
			case model.FieldCurrency:
				rec[i] = t.Currency
			case model.FieldFees:
				rec[i] = optFees(t, loc.FormatDecimal)
			}
		}
		rows = append(rows, rec)
	}
	return writeCSV(w, ',', header, rows)
}
