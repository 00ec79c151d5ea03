package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrHeaderNotFound is returned when no line in a file looks like the expected header.
var ErrHeaderNotFound = errors.New("header row not found")

// table is a delimited file reduced to a header and the data rows after it.
type table struct {
	header []string
	cols   map[string]int
	rows   []row
	bad    []RowError
}

// row is one data record keyed by its table's header. It never leaves this package.
type row struct {
	line   int
	values []string
	cols   map[string]int
}

// normHeader folds a header cell for lookups: trimmed, lower-case, single-spaced.
func normHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// get returns the trimmed value of the first named column present in the header.
func (r row) get(names ...string) string {
	for _, name := range names {
		if i, ok := r.cols[normHeader(name)]; ok && i < len(r.values) {
			return strings.TrimSpace(r.values[i])
		}
	}
	return ""
}

// after returns the cell right of a named column. Some exports leave the header
// of a unit column blank and rely on its position.
func (r row) after(name string) string {
	i, ok := r.cols[normHeader(name)]
	if !ok {
		return ""
	}
	return r.at(i + 1)
}

// at returns the trimmed value at a column index, or "".
func (r row) at(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[i])
}

// blank reports whether every cell is empty.
func (r row) blank() bool {
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// filled counts non-empty cells.
func (r row) filled() int {
	n := 0
	for _, v := range r.values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// index returns the position of a header, or -1.
func (t *table) index(name string) int {
	if i, ok := t.cols[normHeader(name)]; ok {
		return i
	}
	return -1
}

// hasColumns reports whether a record contains every named header.
func hasColumns(record []string, names ...string) bool {
	seen := make(map[string]bool, len(record))
	for _, c := range record {
		seen[normHeader(c)] = true
	}
	for _, n := range names {
		if !seen[normHeader(n)] {
			return false
		}
	}
	return true
}

// headerWith is a header predicate requiring the named columns.
func headerWith(names ...string) func([]string) bool {
	return func(record []string) bool { return hasColumns(record, names...) }
}

// readTable parses delimited text. Records before the first one accepted by isHeader
// are treated as provider boilerplate and skipped; blank records after it are dropped.
// Malformed records are reported in bad rather than aborting the read.
func readTable(r io.Reader, delim rune, isHeader func([]string) bool) (*table, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	t := &table{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			if t.header != nil {
				t.bad = append(t.bad, RowError{Line: perr.Line, Reason: perr.Err.Error()})
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		if t.header == nil {
			if isHeader(rec) {
				t.header = rec
				t.cols = make(map[string]int, len(rec))
				for i, c := range rec {
					key := normHeader(c)
					if _, dup := t.cols[key]; !dup && key != "" {
						t.cols[key] = i
					}
				}
			}
			continue
		}

		rw := row{line: line, values: rec, cols: t.cols}
		if rw.blank() {
			continue
		}
		t.rows = append(t.rows, rw)
	}
	if t.header == nil {
		return nil, ErrHeaderNotFound
	}
	return t, nil
}

// sniffDelimiter picks the separator that splits one of the first lines into the
// most fields, ignoring separators inside quotes. Comma wins ties.
func sniffDelimiter(sample string) rune {
	const maxLines = 10
	best, bestCount, seen := ',', 0, 0
	for _, line := range strings.Split(sample, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, d := range []rune{',', ';', '\t', '|'} {
			if n := countUnquoted(line, d); n > bestCount {
				best, bestCount = d, n
			}
		}
		seen++
		if seen == maxLines {
			break
		}
	}
	return best
}

func countUnquoted(line string, d rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// sampleContains reports whether some line of sample contains every token,
// case-insensitively. Detect predicates are built on it.
func sampleContains(sample string, tokens ...string) bool {
	for _, line := range strings.Split(sample, "\n") {
		lower := strings.ToLower(line)
		all := true
		for _, tok := range tokens {
			if !strings.Contains(lower, strings.ToLower(tok)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// Headers returns the header row and up to n following rows of delimited text,
// with the delimiter it detected. It backs the column-mapping fallback.
func Headers(sample string, n int) ([]string, [][]string, rune) {
	delim := sniffDelimiter(sample)
	cr := csv.NewReader(strings.NewReader(sample))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header []string
	var rows [][]string
	for len(rows) < n {
		rec, err := cr.Read()
		if err != nil {
			break
		}
		if header == nil {
			if (row{values: rec}).filled() < 2 {
				continue
			}
			header = trimAll(rec)
			continue
		}
		rows = append(rows, trimAll(rec))
	}
	return header, rows, delim
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
	}
	return out
}
