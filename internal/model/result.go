package model

import "github.com/google/uuid"

// SchemaVersion identifies the shape of ParseResult.
const SchemaVersion = "1"

// UnknownAdapter is returned by detection when no single adapter claims a sample.
const UnknownAdapter = "unknown"

// Meta carries the counters of one parse call.
type Meta struct {
	RowsSeen      int
	RowsInvalid   int
	RowsDuplicate int
	RowsNonTrade  int
	DurationMs    int64
	SchemaVersion string
}

// Valid returns the number of trades that survived validation and dedup.
// Every seen row lands in exactly one of the four buckets.
func (m Meta) Valid() int {
	return m.RowsSeen - m.RowsInvalid - m.RowsDuplicate - m.RowsNonTrade
}

// ParseResult is the outcome of converting one file. It is built once and not mutated.
type ParseResult struct {
	ImportID  uuid.UUID
	AdapterID string
	Trades    []CanonicalTrade
	Events    []Event
	Warnings  []string
	Meta      Meta
}

// RequiresMappingResult is returned instead of a ParseResult when detection is
// inconclusive. It lives only until the user confirms a mapping.
type RequiresMappingResult struct {
	RequestID       uuid.UUID
	Headers         []string
	SampleRows      [][]string
	ProposedMapping UniversalMapping
	Candidates      []string // adapters that matched; empty when none did
	Delimiter       rune
}
