package mapping

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tradeimport/internal/model"
)

func TestPropose_FuzzyHeaders(t *testing.T) {
	m := Propose([]string{"Trade Date", "Ticker Symbol", "Qty.", "Unit Price", "B/S"})
	assert.Equal(t, "Trade Date", m[model.FieldDate])
	assert.Equal(t, "Ticker Symbol", m[model.FieldTicker])
	assert.Equal(t, "Qty.", m[model.FieldQuantity])
	assert.Equal(t, "Unit Price", m[model.FieldPrice])
	if h, ok := m[model.FieldAction]; ok {
		assert.Equal(t, "B/S", h)
	}
	assert.NotContains(t, m, model.FieldCurrency)
	assert.NotContains(t, m, model.FieldFees)
}

func TestPropose(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    model.UniversalMapping
	}{
		{
			name:    "exact names",
			headers: []string{"date", "ticker", "action", "quantity", "price", "currency", "fees"},
			want: model.UniversalMapping{
				model.FieldDate: "date", model.FieldTicker: "ticker", model.FieldAction: "action",
				model.FieldQuantity: "quantity", model.FieldPrice: "price",
				model.FieldCurrency: "currency", model.FieldFees: "fees",
			},
		},
		{
			name:    "exact beats substring",
			headers: []string{"Settlement Date", "Symbol", "Side", "Shares", "Price per Unit", "Price", "Date"},
			want: model.UniversalMapping{
				model.FieldDate: "Date", model.FieldTicker: "Symbol", model.FieldAction: "Side",
				model.FieldQuantity: "Shares", model.FieldPrice: "Price",
			},
		},
		{
			name:    "case and spacing",
			headers: []string{"  EXECUTION   TIME ", "INSTRUMENT", "BUY/SELL", "UNITS", "RATE", "CCY", "COMMISSION"},
			want: model.UniversalMapping{
				model.FieldDate: "EXECUTION   TIME", model.FieldTicker: "INSTRUMENT", model.FieldAction: "BUY/SELL",
				model.FieldQuantity: "UNITS", model.FieldPrice: "RATE",
				model.FieldCurrency: "CCY", model.FieldFees: "COMMISSION",
			},
		},
		{
			name:    "nothing plausible",
			headers: []string{"foo", "bar", ""},
			want:    model.UniversalMapping{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Propose(tt.headers))
		})
	}
}

func TestPropose_TightestMatchWins(t *testing.T) {
	m := Propose([]string{"Price Currency", "Unit Price"})
	assert.Equal(t, "Unit Price", m[model.FieldPrice])
	assert.Equal(t, "Price Currency", m[model.FieldCurrency])
}

func TestPropose_HeaderUsedOnce(t *testing.T) {
	m := Propose([]string{"Date", "Price"})
	assert.Equal(t, "Date", m[model.FieldDate])
	assert.Equal(t, "Price", m[model.FieldPrice])
	assert.Len(t, m, 2)
}

func TestPropose_Pure(t *testing.T) {
	headers := []string{"Trade Date", "Ticker Symbol", "Qty.", "Unit Price", "B/S"}
	assert.Equal(t, Propose(headers), Propose(headers))
	assert.Equal(t, []string{"Trade Date", "Ticker Symbol", "Qty.", "Unit Price", "B/S"}, headers)
}

func TestCheck(t *testing.T) {
	err := Check(model.UniversalMapping{model.FieldDate: "d", model.FieldTicker: "t"})
	var incomplete *IncompleteMappingError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []model.Field{model.FieldAction, model.FieldQuantity, model.FieldPrice}, incomplete.Missing)
	assert.Equal(t, "mapping incomplete: missing action, quantity, price", err.Error())

	assert.NoError(t, Check(model.UniversalMapping{
		model.FieldDate: "d", model.FieldTicker: "t", model.FieldAction: "a",
		model.FieldQuantity: "q", model.FieldPrice: "p",
	}))
}

func TestSession_KnownAdapterStaysAutoDetecting(t *testing.T) {
	s := NewSession()
	fallback, err := s.Resolve("schwab", []string{"Date"})
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, AutoDetecting, s.State())
	assert.False(t, s.Ready())

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrWrongState)
	assert.ErrorIs(t, s.Set(model.FieldDate, "Date"), ErrWrongState)
}

func TestSession_Flow(t *testing.T) {
	headers := []string{"Trade Date", "Ticker Symbol", "Qty.", "Unit Price", "B/S", "Cost"}
	s := NewSession()
	fallback, err := s.Resolve(model.UnknownAdapter, headers)
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Equal(t, AwaitingConfirmation, s.State())
	assert.Equal(t, headers, s.Headers())
	assert.Equal(t, "Trade Date", s.Mapping()[model.FieldDate])

	// Clear price: resubmission must be blocked.
	require.NoError(t, s.Set(model.FieldPrice, ""))
	assert.False(t, s.Ready())
	_, err = s.Confirm()
	var incomplete *IncompleteMappingError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []model.Field{model.FieldPrice}, incomplete.Missing)

	// Fields are set independently and matched case-insensitively.
	require.NoError(t, s.Set(model.FieldPrice, "unit price"))
	require.NoError(t, s.Set(model.FieldAction, "B/S"))
	require.NoError(t, s.Set(model.FieldFees, "Cost"))
	assert.True(t, s.Ready())

	m, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "Unit Price", m[model.FieldPrice])
	assert.Equal(t, "Cost", m[model.FieldFees])

	// The confirmed mapping is a copy.
	m[model.FieldDate] = "changed"
	assert.Equal(t, "Trade Date", s.Mapping()[model.FieldDate])
}

func TestSession_RejectsUnknownHeaderAndField(t *testing.T) {
	s := NewSession()
	_, err := s.Resolve(model.UnknownAdapter, []string{"A", "B"})
	require.NoError(t, err)

	err = s.Set(model.FieldDate, "Z")
	var unknown *UnknownHeaderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, model.FieldDate, unknown.Field)

	assert.ErrorIs(t, s.Set(model.Field("venue"), "A"), ErrUnknownField)
}

func TestSession_ResolveTwice(t *testing.T) {
	s := NewSession()
	_, err := s.Resolve(model.UnknownAdapter, nil)
	require.NoError(t, err)
	_, err = s.Resolve(model.UnknownAdapter, nil)
	assert.ErrorIs(t, err, ErrWrongState)
}

func TestSession_ApplyIsAllOrNothing(t *testing.T) {
	s := NewSession()
	_, err := s.Resolve(model.UnknownAdapter, []string{"Symbol", "Qty", "Price", "Date", "Side", "Note"})
	require.NoError(t, err)
	before := s.Mapping()

	err = s.Apply(model.UniversalMapping{
		model.FieldTicker: "Note",
		model.FieldPrice:  "Cost",
	})
	var unknown *UnknownHeaderError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, model.FieldPrice, unknown.Field)
	assert.Equal(t, before, s.Mapping())

	assert.ErrorIs(t, s.Apply(model.UniversalMapping{"venue": "Note"}), ErrUnknownField)
	assert.Equal(t, before, s.Mapping())

	require.NoError(t, s.Apply(model.UniversalMapping{
		model.FieldTicker:   "note",
		model.FieldCurrency: "",
	}))
	assert.Equal(t, "Note", s.Mapping()[model.FieldTicker])
	assert.Equal(t, "Qty", s.Mapping()[model.FieldQuantity])
}

func TestSession_ApplyNeedsConfirmationState(t *testing.T) {
	s := NewSession()
	assert.ErrorIs(t, s.Apply(model.UniversalMapping{}), ErrWrongState)
}
