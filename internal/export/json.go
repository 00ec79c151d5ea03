package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// Document is the JSON shape of a ParseResult.
type Document struct {
	SchemaVersion string      `json:"schema_version"`
	ImportID      string      `json:"import_id"`
	AdapterID     string      `json:"adapter_id"`
	Trades        []tradeJSON `json:"trades"`
	Events        []eventJSON `json:"events"`
	Warnings      []string    `json:"warnings"`
	Meta          metaJSON    `json:"meta"`
}

type tradeJSON struct {
	Date     time.Time        `json:"date"`
	Ticker   string           `json:"ticker"`
	Action   model.Action     `json:"action"`
	Quantity decimal.Decimal  `json:"quantity"`
	Price    decimal.Decimal  `json:"price"`
	Currency string           `json:"currency,omitempty"`
	Fees     *decimal.Decimal `json:"fees,omitempty"`
	Venue    string           `json:"venue,omitempty"`
	Notes    string           `json:"notes,omitempty"`
	Source   string           `json:"source"`
	RowHash  string           `json:"row_hash"`
	Line     int              `json:"line,omitempty"`
}

type eventJSON struct {
	Date        time.Time       `json:"date"`
	Kind        model.EventKind `json:"kind"`
	Ticker      string          `json:"ticker,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty"`
	Description string          `json:"description,omitempty"`
	Source      string          `json:"source"`
	Line        int             `json:"line,omitempty"`
}

type metaJSON struct {
	RowsSeen      int    `json:"rows_seen"`
	RowsValid     int    `json:"rows_valid"`
	RowsInvalid   int    `json:"rows_invalid"`
	RowsDuplicate int    `json:"rows_duplicate"`
	RowsNonTrade  int    `json:"rows_non_trade"`
	DurationMs    int64  `json:"duration_ms"`
	SchemaVersion string `json:"schema_version"`
}

// NewDocument converts a result to its JSON shape. Slices are never nil.
func NewDocument(res *model.ParseResult) Document {
	doc := Document{
		SchemaVersion: res.Meta.SchemaVersion,
		ImportID:      res.ImportID.String(),
		AdapterID:     res.AdapterID,
		Trades:        make([]tradeJSON, 0, len(res.Trades)),
		Events:        make([]eventJSON, 0, len(res.Events)),
		Warnings:      append([]string{}, res.Warnings...),
		Meta: metaJSON{
			RowsSeen:      res.Meta.RowsSeen,
			RowsValid:     res.Meta.Valid(),
			RowsInvalid:   res.Meta.RowsInvalid,
			RowsDuplicate: res.Meta.RowsDuplicate,
			RowsNonTrade:  res.Meta.RowsNonTrade,
			DurationMs:    res.Meta.DurationMs,
			SchemaVersion: res.Meta.SchemaVersion,
		},
	}
	for _, t := range res.Trades {
		tj := tradeJSON{
			Date:     t.Date.UTC(),
			Ticker:   t.Ticker,
			Action:   t.Action,
			Quantity: t.Quantity,
			Price:    t.Price,
			Currency: t.Currency,
			Venue:    t.Venue,
			Notes:    t.Notes,
			Source:   t.Source,
			RowHash:  t.RowHash,
			Line:     t.Line,
		}
		if t.HasFees {
			fees := t.Fees
			tj.Fees = &fees
		}
		doc.Trades = append(doc.Trades, tj)
	}
	for _, e := range res.Events {
		doc.Events = append(doc.Events, eventJSON{
			Date:        e.Date.UTC(),
			Kind:        e.Kind,
			Ticker:      e.Ticker,
			Amount:      e.Amount,
			Currency:    e.Currency,
			Description: e.Description,
			Source:      e.Source,
			Line:        e.Line,
		})
	}
	return doc
}

// WriteJSON writes res as an indented JSON document.
func WriteJSON(w io.Writer, res *model.ParseResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}
