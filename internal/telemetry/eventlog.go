package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the import event log.
type Entry struct {
	Timestamp time.Time
	Event     string
	ImportID  string
	File      string
	AdapterID string
	Rows      int
	Details   string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,event,import_id,file,adapter_id,rows,details"

const (
	numFields    = 7
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colEvent     = 1
	colImportID  = 2
	colFile      = 3
	colAdapterID = 4
	colRows      = 5
	colDetails   = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colEvent] = e.Event
	row[colImportID] = e.ImportID
	row[colFile] = e.File
	row[colAdapterID] = e.AdapterID
	row[colRows] = strconv.Itoa(e.Rows)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	rows, err := strconv.Atoi(record[colRows])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rows %q: %w", record[colRows], err)
	}

	return Entry{
		Timestamp: ts,
		Event:     record[colEvent],
		ImportID:  record[colImportID],
		File:      record[colFile],
		AdapterID: record[colAdapterID],
		Rows:      rows,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <root>/logs/import-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
