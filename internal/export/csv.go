package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// Header is the CSV header for exported trades.
const Header = "date,ticker,action,quantity,price,currency,fees,venue,notes,source,row_hash,line"

// EventHeader is the CSV header for exported events.
const EventHeader = "date,kind,ticker,amount,currency,description,source,line"

const (
	numFields   = 12
	colDate     = 0
	colTicker   = 1
	colAction   = 2
	colQuantity = 3
	colPrice    = 4
	colCurrency = 5
	colFees     = 6
	colVenue    = 7
	colNotes    = 8
	colSource   = 9
	colRowHash  = 10
	colLine     = 11
)

// ReadTrades reads trades written by WriteTrades.
func ReadTrades(r io.Reader) ([]model.CanonicalTrade, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading trades CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var trades []model.CanonicalTrade
	for i, rec := range records[1:] {
		t, err := UnmarshalTrade(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// WriteTrades writes trades (including header).
func WriteTrades(w io.Writer, trades []model.CanonicalTrade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, t := range trades {
		if err := cw.Write(MarshalTrade(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// WriteEvents writes events (including header).
func WriteEvents(w io.Writer, events []model.Event) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(EventHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, e := range events {
		row := []string{
			e.Date.UTC().Format(time.RFC3339),
			string(e.Kind),
			e.Ticker,
			e.Amount.String(),
			e.Currency,
			e.Description,
			e.Source,
			strconv.Itoa(e.Line),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalTrade converts a trade to a CSV row.
func MarshalTrade(t model.CanonicalTrade) []string {
	row := make([]string, numFields)
	row[colDate] = t.Date.UTC().Format(time.RFC3339)
	row[colTicker] = t.Ticker
	row[colAction] = string(t.Action)
	row[colQuantity] = t.Quantity.String()
	row[colPrice] = t.Price.String()
	row[colCurrency] = t.Currency
	if t.HasFees {
		row[colFees] = t.Fees.String()
	}
	row[colVenue] = t.Venue
	row[colNotes] = t.Notes
	row[colSource] = t.Source
	row[colRowHash] = t.RowHash
	if t.Line > 0 {
		row[colLine] = strconv.Itoa(t.Line)
	}
	return row
}

// UnmarshalTrade converts a CSV row to a trade.
func UnmarshalTrade(record []string) (model.CanonicalTrade, error) {
	if len(record) != numFields {
		return model.CanonicalTrade{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(time.RFC3339, record[colDate])
	if err != nil {
		return model.CanonicalTrade{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	qty, err := decimal.NewFromString(record[colQuantity])
	if err != nil {
		return model.CanonicalTrade{}, fmt.Errorf("parsing quantity %q: %w", record[colQuantity], err)
	}

	price, err := decimal.NewFromString(record[colPrice])
	if err != nil {
		return model.CanonicalTrade{}, fmt.Errorf("parsing price %q: %w", record[colPrice], err)
	}

	var fees decimal.Decimal
	hasFees := record[colFees] != ""
	if hasFees {
		fees, err = decimal.NewFromString(record[colFees])
		if err != nil {
			return model.CanonicalTrade{}, fmt.Errorf("parsing fees %q: %w", record[colFees], err)
		}
	}

	var line int
	if record[colLine] != "" {
		line, err = strconv.Atoi(record[colLine])
		if err != nil {
			return model.CanonicalTrade{}, fmt.Errorf("parsing line %q: %w", record[colLine], err)
		}
	}

	return model.CanonicalTrade{
		Date:     date.UTC(),
		Ticker:   record[colTicker],
		Action:   model.Action(record[colAction]),
		Quantity: qty,
		Price:    price,
		Currency: record[colCurrency],
		Fees:     fees,
		HasFees:  hasFees,
		Venue:    record[colVenue],
		Notes:    record[colNotes],
		Source:   record[colSource],
		RowHash:  record[colRowHash],
		Line:     line,
	}, nil
}
