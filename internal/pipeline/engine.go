package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/tradeimport/internal/config"
	"github.com/cleared-dev/tradeimport/internal/importer"
	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/mapping"
	"github.com/cleared-dev/tradeimport/internal/model"
	"github.com/cleared-dev/tradeimport/internal/schema"
	"github.com/cleared-dev/tradeimport/internal/source"
	"github.com/cleared-dev/tradeimport/internal/telemetry"
)

// sampleRows is how many data rows a RequiresMappingResult previews.
const sampleRows = 5

// Engine turns files into ParseResults. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	registry *importer.Registry
	cfg      config.Config
	hook     telemetry.Hook
	logger   *slog.Logger
}

// NewEngine creates an Engine. Adapters listed in cfg.Adapters.Disabled are left
// out of reg. A nil cfg, hook or logger falls back to defaults that do nothing.
func NewEngine(reg *importer.Registry, cfg *config.Config, hook telemetry.Hook, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if hook == nil {
		hook = telemetry.NopHook{}
	}
	if logger == nil {
		logger = telemetry.Discard()
	}
	if !cfg.Telemetry.Notice {
		telemetry.DisableNotice()
	}
	return &Engine{
		registry: reg.Without(cfg.Adapters.Disabled...),
		cfg:      *cfg,
		hook:     hook,
		logger:   logger,
	}
}

// Registry returns the adapters this engine detects with.
func (e *Engine) Registry() *importer.Registry { return e.registry }

// SampleBytes is how much leading text detection looks at.
func (e *Engine) SampleBytes() int { return e.cfg.SampleBytes }

// Outcome is the result of Import: exactly one of Result and Mapping is set.
type Outcome struct {
	Result  *model.ParseResult
	Mapping *model.RequiresMappingResult
}

// DetectFormat returns the id of the single adapter that claims sample, or
// model.UnknownAdapter.
func (e *Engine) DetectFormat(sample string) string {
	return e.registry.Detect(sample).ID
}

// Parse converts file. With an empty adapterID the format is detected; an
// inconclusive detection fails with *UnknownFormatError. loc is a locale tag,
// "auto", or empty for the configured default.
func (e *Engine) Parse(file source.File, loc, adapterID string) (*model.ParseResult, error) {
	out, err := e.run(file, loc, adapterID)
	if err != nil {
		return nil, err
	}
	if out.Mapping != nil {
		return nil, &UnknownFormatError{Request: out.Mapping}
	}
	return out.Result, nil
}

// Import is Parse with detection always on, returning an inconclusive detection
// as data rather than as an error.
func (e *Engine) Import(file source.File, loc string) (Outcome, error) {
	return e.run(file, loc, "")
}

// ParseWithMapping converts file through an explicit column mapping. An
// incomplete mapping is rejected before the file is read.
func (e *Engine) ParseWithMapping(file source.File, m model.UniversalMapping, loc string) (*model.ParseResult, error) {
	if err := mapping.Check(m); err != nil {
		return nil, err
	}
	start := time.Now()
	text, err := source.Decode(file)
	if err != nil {
		return nil, err
	}
	l, err := e.locale(loc, text.Sample(e.cfg.SampleBytes))
	if err != nil {
		return nil, err
	}
	return e.convert(uuid.New(), file.Name(), importer.NewMappedAdapter(m), text, l, start)
}

func (e *Engine) run(file source.File, loc, adapterID string) (Outcome, error) {
	start := time.Now()
	text, err := source.Decode(file)
	if err != nil {
		return Outcome{}, err
	}
	sample := text.Sample(e.cfg.SampleBytes)
	importID := uuid.New()

	var adapter importer.Adapter
	if adapterID != "" {
		if adapter = e.registry.Get(adapterID); adapter == nil {
			return Outcome{}, &UnknownAdapterError{ID: adapterID}
		}
	} else {
		det := e.registry.Detect(sample)
		e.hook.DetectionScored(telemetry.Detection{
			ImportID:   importID.String(),
			File:       file.Name(),
			AdapterID:  det.ID,
			Candidates: det.Candidates,
			Confidence: det.Confidence,
		})
		if !det.Known() {
			return Outcome{Mapping: requiresMapping(sample, len(sample) < len(text.Content), det)}, nil
		}
		adapter = e.registry.Get(det.ID)
	}

	l, err := e.locale(loc, sample)
	if err != nil {
		return Outcome{}, err
	}
	res, err := e.convert(importID, file.Name(), adapter, text, l, start)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Result: res}, nil
}

func (e *Engine) locale(tag, sample string) (locale.Locale, error) {
	if strings.TrimSpace(tag) == "" {
		tag = e.cfg.Locale
	}
	l, err := locale.Resolve(tag, sample)
	if err != nil {
		return locale.Locale{}, &LocaleError{Tag: tag, Err: err}
	}
	return l, nil
}

// convert runs the adapter and then validates, hashes and dedups what it found.
func (e *Engine) convert(importID uuid.UUID, name string, a importer.Adapter, text source.Text, l locale.Locale, start time.Time) (*model.ParseResult, error) {
	telemetry.Notice(e.logger)

	batch, err := a.Parse(strings.NewReader(text.Content), l)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as %s: %w", name, a.ID(), err)
	}

	w := &warnings{max: e.cfg.MaxWarnings}
	meta := model.Meta{
		RowsSeen:      batch.Seen,
		RowsInvalid:   len(batch.Invalid),
		RowsNonTrade:  len(batch.Events) + batch.Ignored,
		SchemaVersion: model.SchemaVersion,
	}
	for _, re := range batch.Invalid {
		w.addf("line %d: %s", re.Line, re.Reason)
	}

	res := &model.ParseResult{ImportID: importID, AdapterID: a.ID()}
	first := make(map[string]int, len(batch.Trades))
	for _, t := range batch.Trades {
		t.Date = t.Date.UTC()
		if errs := schema.Validate(t); len(errs) > 0 {
			meta.RowsInvalid++
			w.addf("line %d: %s", t.Line, schema.Join(errs))
			continue
		}
		t.Currency = normalizeCurrency(w, t.Line, t.Currency)
		t.RowHash = schema.RowHash(t)
		if line, dup := first[t.RowHash]; dup {
			meta.RowsDuplicate++
			w.addf("line %d: duplicate of line %d", t.Line, line)
			continue
		}
		first[t.RowHash] = t.Line
		res.Trades = append(res.Trades, t)
	}
	for _, ev := range batch.Events {
		ev.Date = ev.Date.UTC()
		ev.Currency = normalizeCurrency(w, ev.Line, ev.Currency)
		res.Events = append(res.Events, ev)
	}

	meta.DurationMs = time.Since(start).Milliseconds()
	res.Meta = meta
	res.Warnings = w.result()

	e.hook.ParseCompleted(telemetry.Completion{
		ImportID:  importID.String(),
		File:      name,
		AdapterID: a.ID(),
		Meta:      meta,
		Warnings:  res.Warnings,
	})
	return res, nil
}

func normalizeCurrency(w *warnings, line int, code string) string {
	c, ok := schema.NormalizeCurrency(code)
	if !ok {
		w.addf("line %d: unknown currency %q dropped", line, code)
	}
	return c
}

func requiresMapping(sample string, truncated bool, det importer.Detection) *model.RequiresMappingResult {
	// A truncated sample may end mid-row.
	if i := strings.LastIndexByte(sample, '\n'); truncated && i >= 0 {
		sample = sample[:i+1]
	}
	header, rows, delim := importer.Headers(sample, sampleRows)
	return &model.RequiresMappingResult{
		RequestID:       uuid.New(),
		Headers:         header,
		SampleRows:      rows,
		ProposedMapping: mapping.Propose(header),
		Candidates:      det.Candidates,
		Delimiter:       delim,
	}
}
