package telemetry

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// Detection reports how the registry scored a file's sample.
type Detection struct {
	ImportID   string
	File       string
	AdapterID  string
	Candidates []string
	Confidence float64
}

// Completion reports a finished parse.
type Completion struct {
	ImportID  string
	File      string
	AdapterID string
	Meta      model.Meta
	Warnings  []string
}

// Hook receives diagnostics from the pipeline. Implementations must be safe for
// concurrent use and must not fail the parse.
type Hook interface {
	DetectionScored(d Detection)
	ParseCompleted(c Completion)
}

// NopHook discards everything.
type NopHook struct{}

func (NopHook) DetectionScored(Detection)  {}
func (NopHook) ParseCompleted(Completion) {}

// SlogHook writes diagnostics to a structured logger.
type SlogHook struct {
	Logger *slog.Logger
}

func (h SlogHook) DetectionScored(d Detection) {
	h.Logger.Debug("detection scored",
		"import_id", d.ImportID,
		"file", d.File,
		"adapter", d.AdapterID,
		"candidates", strings.Join(d.Candidates, ","),
		"confidence", d.Confidence,
	)
}

func (h SlogHook) ParseCompleted(c Completion) {
	h.Logger.Info("parse completed",
		"import_id", c.ImportID,
		"file", c.File,
		"adapter", c.AdapterID,
		"rows_seen", c.Meta.RowsSeen,
		"rows_valid", c.Meta.Valid(),
		"rows_invalid", c.Meta.RowsInvalid,
		"rows_duplicate", c.Meta.RowsDuplicate,
		"rows_non_trade", c.Meta.RowsNonTrade,
		"duration_ms", c.Meta.DurationMs,
		"warnings", len(c.Warnings),
	)
	for _, w := range c.Warnings {
		h.Logger.Debug("row warning", "import_id", c.ImportID, "warning", w)
	}
}

// EventLogHook appends one row per event to <Root>/logs/import-log.csv. Write
// failures go to Logger.
type EventLogHook struct {
	Root   string
	Logger *slog.Logger
	Now    func() time.Time

	mu sync.Mutex
}

func (h *EventLogHook) DetectionScored(d Detection) {
	details := "candidates: none"
	if len(d.Candidates) > 0 {
		details = "candidates: " + strings.Join(d.Candidates, " ")
	}
	h.append(Entry{
		Event:     "detect",
		ImportID:  d.ImportID,
		File:      d.File,
		AdapterID: d.AdapterID,
		Details:   details,
	})
}

func (h *EventLogHook) ParseCompleted(c Completion) {
	h.append(Entry{
		Event:     "parse",
		ImportID:  c.ImportID,
		File:      c.File,
		AdapterID: c.AdapterID,
		Rows:      c.Meta.RowsSeen,
		Details: fmt.Sprintf("valid=%d invalid=%d duplicate=%d non_trade=%d warnings=%d",
			c.Meta.Valid(), c.Meta.RowsInvalid, c.Meta.RowsDuplicate, c.Meta.RowsNonTrade, len(c.Warnings)),
	})
}

func (h *EventLogHook) append(e Entry) {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	e.Timestamp = now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := Append(h.Root, []Entry{e}); err != nil && h.Logger != nil {
		h.Logger.Warn("import log write failed", "err", err)
	}
}

type multiHook []Hook

// Multi fans events out to every hook in order. Nil hooks are skipped.
func Multi(hooks ...Hook) Hook {
	var m multiHook
	for _, h := range hooks {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

func (m multiHook) DetectionScored(d Detection) {
	for _, h := range m {
		h.DetectionScored(d)
	}
}

func (m multiHook) ParseCompleted(c Completion) {
	for _, h := range m {
		h.ParseCompleted(c)
	}
}
