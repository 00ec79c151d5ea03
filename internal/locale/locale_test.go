package locale

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestParse(t *testing.T) {
	tests := []struct {
		tag     string
		decimal rune
		group   rune
		order   DateOrder
	}{
		{"", '.', ',', MDY},
		{"en-US", '.', ',', MDY},
		{"en_GB", '.', ',', DMY},
		{"de-DE", ',', '.', DMY},
		{"de-CH", '.', '\'', DMY},
		{"fr-FR", ',', ' ', DMY},
		{"nl", ',', '.', DMY},
		{"ja-JP", '.', ',', YMD},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			l, err := Parse(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.decimal, l.Decimal)
			assert.Equal(t, tt.group, l.Group)
			assert.Equal(t, tt.order, l.DateOrder)
		})
	}
}

func TestParseRejectsAutoAndGarbage(t *testing.T) {
	_, err := Parse(Auto)
	assert.Error(t, err)

	_, err = Parse("not a locale!")
	assert.Error(t, err)
}

func TestParseDecimal(t *testing.T) {
	us := MustParse("en-US")
	de := MustParse("de-DE")
	ch := MustParse("de-CH")
	fr := MustParse("fr-FR")

	tests := []struct {
		name string
		loc  Locale
		in   string
		want string
	}{
		{"plain", us, "150.25", "150.25"},
		{"grouped", us, "1,234.56", "1234.56"},
		{"dollar", us, "$1,234.56", "1234.56"},
		{"iso prefix", us, "USD 150.25", "150.25"},
		{"asset suffix", us, "0.5BTC", "0.5"},
		{"parentheses", us, "($12.00)", "-12"},
		{"trailing minus", us, "12.50-", "-12.5"},
		{"scientific", us, "1.5E-4", "0.00015"},
		{"german", de, "1.234,56", "1234.56"},
		{"german euro", de, "-12,5 €", "-12.5"},
		{"swiss", ch, "1'234.50", "1234.5"},
		{"french nbsp", fr, "1 234,50", "1234.5"},
		{"unicode minus", us, "−5", "-5"},
		{"minus before symbol", us, "-$1,503.50", "-1503.5"},
		{"minus after symbol", us, "$-12", "-12"},
		{"leading decimal", us, ".5", "0.5"},
		{"plus", us, "+4.95", "4.95"},
		{"iso suffix", de, "1.380,50 EUR", "1380.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.loc.ParseDecimal(tt.in)
			require.NoError(t, err)
			assert.True(t, dec(tt.want).Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseDecimalErrors(t *testing.T) {
	us := MustParse("en-US")
	de := MustParse("de-DE")

	_, err := us.ParseDecimal("")
	assert.ErrorIs(t, err, ErrEmptyValue)

	_, err = us.ParseDecimal("abc")
	assert.Error(t, err)

	_, err = us.ParseDecimal("1.2.3")
	assert.Error(t, err)

	// A US-style value read as German is rejected, not silently rescaled.
	_, err = de.ParseDecimal("1,234.56")
	assert.Error(t, err)

	for _, in := range []string{
		"7x",
		"10 shares",
		"1O5",
		"12-5",
		"2024-01-05",
		"--5",
		"-5-",
		"(-5)",
		"5 % ",
		"USD 5 EUR 6",
	} {
		_, err := us.ParseDecimal(in)
		assert.Error(t, err, "ParseDecimal(%q)", in)
	}
}

func TestParseOptionalDecimal(t *testing.T) {
	d, ok, err := US.ParseOptionalDecimal(" ")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, d.IsZero())

	d, ok, err = US.ParseOptionalDecimal("4.95")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4.95", d.String())
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "150.25", US.FormatDecimal(dec("150.25")))
	assert.Equal(t, "150,25", MustParse("de-DE").FormatDecimal(dec("150.25")))
}

func TestParseDate(t *testing.T) {
	us := MustParse("en-US")
	gb := MustParse("en-GB")

	tests := []struct {
		name string
		loc  Locale
		in   string
		want time.Time
	}{
		{"iso", us, "2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", us, "2024-01-05T09:30:00-05:00", time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)},
		{"us numeric", us, "01/05/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"gb numeric", gb, "01/05/2024", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"dotted with time", gb, "05.01.2024 14:30:00", time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)},
		{"month name", us, "Jan 5, 2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"extra spaces", us, "  2024-01-05  ", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.loc.ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDateExplicitLayout(t *testing.T) {
	got, err := US.ParseDate("20240105;093000", "20060102;150405")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 9, 30, 0, 0, time.UTC), got)

	_, err = US.ParseDate("2024-01-05", "20060102;150405")
	assert.Error(t, err)
}

func TestParseDateRejectsImpossibleDates(t *testing.T) {
	_, err := US.ParseDate("2024-02-30")
	assert.Error(t, err)

	_, err = US.ParseDate("13/45/2024")
	assert.Error(t, err)

	_, err = US.ParseDate("")
	assert.ErrorIs(t, err, ErrEmptyValue)
}

func TestSniff(t *testing.T) {
	eu := Sniff("Datum;Produkt;Kurs\n15-01-2024;APPLE INC;150,25\n16-01-2024;APPLE INC;1.234,50\n")
	assert.Equal(t, ',', eu.Decimal)
	assert.Equal(t, DMY, eu.DateOrder)
	assert.Equal(t, Auto, eu.Tag)

	us := Sniff("Date,Symbol,Price\n01/15/2024,AAPL,150.25\n")
	assert.Equal(t, '.', us.Decimal)
	assert.Equal(t, MDY, us.DateOrder)

	none := Sniff("a,b,c")
	assert.Equal(t, US.Decimal, none.Decimal)
}

func TestResolve(t *testing.T) {
	l, err := Resolve("auto", "x;1,50\n")
	require.NoError(t, err)
	assert.Equal(t, ',', l.Decimal)

	// Caller-asserted locale wins over what the sample suggests.
	l, err = Resolve("en-US", "x;1,50\n")
	require.NoError(t, err)
	assert.Equal(t, '.', l.Decimal)
}
