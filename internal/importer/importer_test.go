package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("../../testdata", name))
	require.NoError(t, err)
	return string(data)
}

func parseFixture(t *testing.T, a Adapter, name string, loc locale.Locale) *Batch {
	t.Helper()
	b, err := a.Parse(strings.NewReader(readFixture(t, name)), loc)
	require.NoError(t, err)
	return b
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&SchwabParser{})
	a := r.Get("schwab")
	require.NotNil(t, a)
	assert.Equal(t, "schwab", a.ID())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&SchwabParser{})
	assert.NotNil(t, r.Get("Schwab"))
	assert.NotNil(t, r.Get(" SCHWAB "))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&KrakenParser{})
	assert.Panics(t, func() { r.Register(&KrakenParser{}) })
}

func TestRegistry_Without(t *testing.T) {
	r := DefaultRegistry().Without("Kraken", "binance")
	assert.Nil(t, r.Get("kraken"))
	assert.Nil(t, r.Get("binance"))
	assert.NotNil(t, r.Get("bitstamp"))
	assert.Len(t, r.IDs(), len(DefaultRegistry().IDs())-2)
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{
		"ibkr", "schwab", "fidelity", "vanguard", "robinhood", "etrade", "tdameritrade",
		"questrade", "webull", "degiro", "trading212", "revolut", "swissquote",
		"coinbase", "kraken", "binance", "bitstamp",
	}, DefaultRegistry().IDs())
}

func TestDetect_EachFixtureMatchesExactlyItsAdapter(t *testing.T) {
	r := DefaultRegistry()
	for _, id := range r.IDs() {
		t.Run(id, func(t *testing.T) {
			sample := readFixture(t, id+".csv")
			if len(sample) > 2048 {
				sample = sample[:2048]
			}
			d := r.Detect(sample)
			assert.Equal(t, id, d.ID)
			assert.Equal(t, []string{id}, d.Candidates)
			assert.Equal(t, 1.0, d.Confidence)
			assert.True(t, d.Known())
		})
	}
}

func TestDetect_NoMatchIsUnknown(t *testing.T) {
	d := DefaultRegistry().Detect(readFixture(t, "generic.csv"))
	assert.Equal(t, model.UnknownAdapter, d.ID)
	assert.Empty(t, d.Candidates)
	assert.Zero(t, d.Confidence)
	assert.False(t, d.Known())
}

func TestDetect_TwoMatchesIsUnknown(t *testing.T) {
	sample := "Activity Date,Trans Code,Activity Type,Gross Amount\n1/5/2024,Buy,Trades,-100\n"
	d := DefaultRegistry().Detect(sample)
	assert.Equal(t, model.UnknownAdapter, d.ID)
	assert.Equal(t, []string{"robinhood", "questrade"}, d.Candidates)
	assert.Zero(t, d.Confidence)
}

func TestDetect_Deterministic(t *testing.T) {
	r := DefaultRegistry()
	sample := readFixture(t, "kraken.csv")
	first := r.Detect(sample)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Detect(sample))
	}
}

func TestBatch_Counters(t *testing.T) {
	b := &Batch{}
	b.addTrade(model.CanonicalTrade{})
	b.addEvent(model.Event{})
	b.addInvalid(4, assert.AnError)
	b.ignore()
	assert.Equal(t, 4, b.Seen)
	assert.Equal(t, 1, b.Ignored)
	require.Len(t, b.Invalid, 1)
	assert.Equal(t, RowError{Line: 4, Reason: assert.AnError.Error()}, b.Invalid[0])
}
