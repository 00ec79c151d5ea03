package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cleared-dev/tradeimport/internal/export"
	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// maxShownWarnings bounds the warnings echoed in a summary.
const maxShownWarnings = 10

// outputOptions selects what a parse writes and where.
type outputOptions struct {
	format string // csv, json or events
	to     string // adapter id whose native layout to write
	output string // file path; empty means stdout
}

func (o outputOptions) write(stdout io.Writer, reg *importer.Registry, loc string, res *model.ParseResult) error {
	w := stdout
	if o.output != "" {
		f, err := os.Create(o.output)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if o.to != "" {
		return renderNative(w, reg, o.to, loc, res.Trades)
	}
	switch o.format {
	case "", "csv":
		return export.WriteTrades(w, res.Trades)
	case "json":
		return export.WriteJSON(w, res)
	case "events":
		return export.WriteEvents(w, res.Events)
	default:
		return fmt.Errorf("unknown format %q (want csv, json or events)", o.format)
	}
}

func renderNative(w io.Writer, reg *importer.Registry, id, loc string, trades []model.CanonicalTrade) error {
	r, ok := reg.Get(id).(importer.Renderer)
	if !ok {
		return fmt.Errorf("adapter %q cannot write its native layout", id)
	}
	l, err := locale.Parse(loc)
	if err != nil {
		l = locale.US
	}
	return r.Render(w, trades, l)
}

func printSummary(w io.Writer, name string, size int64, res *model.ParseResult) {
	m := res.Meta
	fmt.Fprintf(w, "%s (%s) via %s: %s rows, %s trades, %s events, %s invalid, %s duplicate\n",
		name, humanize.Bytes(uint64(size)), res.AdapterID,
		humanize.Comma(int64(m.RowsSeen)), humanize.Comma(int64(m.Valid())),
		humanize.Comma(int64(len(res.Events))), humanize.Comma(int64(m.RowsInvalid)),
		humanize.Comma(int64(m.RowsDuplicate)))
	for i, warn := range res.Warnings {
		if i == maxShownWarnings {
			fmt.Fprintf(w, "  ... %d more warnings\n", len(res.Warnings)-i)
			break
		}
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}

func printMapping(w io.Writer, m model.UniversalMapping) {
	for _, f := range model.AllFields() {
		h, ok := m[f]
		if !ok {
			h = "-"
		}
		req := ""
		if isRequired(f) {
			req = " (required)"
		}
		fmt.Fprintf(w, "  %-9s %s%s\n", f, h, req)
	}
}

func printMappingRequest(w io.Writer, req *model.RequiresMappingResult) {
	if len(req.Candidates) > 0 {
		fmt.Fprintf(w, "Ambiguous format: matched %s\n", strings.Join(req.Candidates, ", "))
	} else {
		fmt.Fprintln(w, "Format not recognized.")
	}
	fmt.Fprintf(w, "Headers: %s\n", strings.Join(req.Headers, " | "))
	fmt.Fprintln(w, "Proposed mapping:")
	printMapping(w, req.ProposedMapping)

	var sets []string
	for _, f := range model.AllFields() {
		if h, ok := req.ProposedMapping[f]; ok {
			sets = append(sets, fmt.Sprintf("--set %q", string(f)+"="+h))
		}
	}
	fmt.Fprintf(w, "Confirm with: tradeimport map <file> %s\n", strings.Join(sets, " "))
}

func isRequired(f model.Field) bool {
	for _, r := range model.RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}
