package importer

import (
	"io"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

// Adapter converts one provider's export into canonical trades and events.
type Adapter interface {
	// ID is the stable, lower-case provider identifier.
	ID() string
	// Detect reports whether a leading sample of a file looks like this provider's export.
	Detect(sample string) bool
	// Parse reads the full file. Row-level problems are recorded in the Batch;
	// an error means the file as a whole cannot be read by this adapter.
	Parse(r io.Reader, loc locale.Locale) (*Batch, error)
}

// Renderer writes trades back in an adapter's native layout.
type Renderer interface {
	Render(w io.Writer, trades []model.CanonicalTrade, loc locale.Locale) error
}

// RowError is a row that could not be turned into a trade or event.
type RowError struct {
	Line   int
	Reason string
}

// Batch collects what an adapter extracted from a file. Every data row counted in
// Seen ends up in exactly one of Trades, Events, Ignored or Invalid.
type Batch struct {
	Trades  []model.CanonicalTrade
	Events  []model.Event
	Invalid []RowError
	Ignored int
	Seen    int
}

func (b *Batch) addTrade(t model.CanonicalTrade) {
	b.Seen++
	b.Trades = append(b.Trades, t)
}

func (b *Batch) addEvent(e model.Event) {
	b.Seen++
	b.Events = append(b.Events, e)
}

func (b *Batch) addInvalid(line int, err error) {
	b.Seen++
	b.Invalid = append(b.Invalid, RowError{Line: line, Reason: err.Error()})
}

func (b *Batch) ignore() {
	b.Seen++
	b.Ignored++
}

// Detection is the outcome of evaluating every adapter against a sample.
type Detection struct {
	ID         string   // adapter id, or model.UnknownAdapter
	Candidates []string // every adapter whose Detect returned true, in registration order
	Confidence float64  // 1 for a unique match, 0 otherwise
}

// Known reports whether exactly one adapter matched.
func (d Detection) Known() bool {
	return d.ID != model.UnknownAdapter
}

// Registry holds adapters in registration order.
type Registry struct {
	adapters []Adapter
	byID     map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Adapter)}
}

// Register adds an adapter. Panics on duplicate id.
func (r *Registry) Register(a Adapter) {
	key := strings.ToLower(a.ID())
	if _, ok := r.byID[key]; ok {
		panic("duplicate adapter id: " + key)
	}
	r.byID[key] = a
	r.adapters = append(r.adapters, a)
}

// Get returns the adapter for id, or nil.
func (r *Registry) Get(id string) Adapter {
	return r.byID[strings.ToLower(strings.TrimSpace(id))]
}

// IDs returns adapter ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		ids[i] = a.ID()
	}
	return ids
}

// Without returns a copy of r minus the named adapters.
func (r *Registry) Without(ids ...string) *Registry {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[strings.ToLower(strings.TrimSpace(id))] = true
	}
	out := NewRegistry()
	for _, a := range r.adapters {
		if !skip[strings.ToLower(a.ID())] {
			out.Register(a)
		}
	}
	return out
}

// Detect evaluates every adapter against sample. A single match is selected; zero
// or several matches yield model.UnknownAdapter so that an ambiguous file is never
// parsed by a guessed adapter.
func (r *Registry) Detect(sample string) Detection {
	var candidates []string
	for _, a := range r.adapters {
		if a.Detect(sample) {
			candidates = append(candidates, a.ID())
		}
	}
	if len(candidates) == 1 {
		return Detection{ID: candidates[0], Candidates: candidates, Confidence: 1}
	}
	return Detection{ID: model.UnknownAdapter, Candidates: candidates}
}

// DefaultRegistry returns a registry with all built-in provider adapters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&IBKRParser{})
	r.Register(&SchwabParser{})
	r.Register(&FidelityParser{})
	r.Register(&VanguardParser{})
	r.Register(&RobinhoodParser{})
	r.Register(&ETradeParser{})
	r.Register(&TDAmeritradeParser{})
	r.Register(&QuestradeParser{})
	r.Register(&WebullParser{})
	r.Register(&DegiroParser{})
	r.Register(&Trading212Parser{})
	r.Register(&RevolutParser{})
	r.Register(&SwissquoteParser{})
	r.Register(&CoinbaseParser{})
	r.Register(&KrakenParser{})
	r.Register(&BinanceParser{})
	r.Register(&BitstampParser{})
	return r
}
