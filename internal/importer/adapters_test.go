package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tradeimport/internal/locale"
	"github.com/cleared-dev/tradeimport/internal/model"
)

type wantTrade struct {
	ticker   string
	action   model.Action
	qty      string
	price    string
	currency string
	fees     string // "" means HasFees is false
}

type wantBatch struct {
	adapter Adapter
	loc     locale.Locale
	trades  []wantTrade
	events  []model.EventKind
	invalid int
	ignored int
}

func TestAdapters_ParseFixtures(t *testing.T) {
	tests := map[string]wantBatch{
		"ibkr": {
			adapter: &IBKRParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "USD", "1"},
				{"MSFT", model.ActionSell, "5", "380.1", "USD", "1.05"},
			},
			events:  []model.EventKind{model.EventDividend, model.EventTax, model.EventDeposit},
			ignored: 1,
		},
		"schwab": {
			adapter: &SchwabParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", "1"},
				{"MSFT", model.ActionSell, "5", "380.10", "", "0.05"},
			},
			events:  []model.EventKind{model.EventDividend, model.EventWithdrawal},
			invalid: 1,
		},
		"fidelity": {
			adapter: &FidelityParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", ""},
				{"MSFT", model.ActionSell, "5", "380.10", "", "0.67"},
			},
			events: []model.EventKind{model.EventDividend},
		},
		"vanguard": {
			adapter: &VanguardParser{},
			trades: []wantTrade{
				{"VTI", model.ActionBuy, "10", "235.50", "", "0"},
				{"VOO", model.ActionSell, "2", "430", "", "0"},
			},
			events: []model.EventKind{model.EventDividend},
		},
		"robinhood": {
			adapter: &RobinhoodParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", ""},
				{"MSFT", model.ActionSell, "5", "380.10", "", ""},
			},
			events:  []model.EventKind{model.EventDividend, model.EventDeposit},
			invalid: 1,
		},
		"etrade": {
			adapter: &ETradeParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", "0.99"},
				{"MSFT", model.ActionSell, "5", "380.10", "", "0.99"},
			},
			events: []model.EventKind{model.EventDividend},
		},
		"tdameritrade": {
			adapter: &TDAmeritradeParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", "0"},
				{"MSFT", model.ActionSell, "5", "380.10", "", "0.05"},
			},
			events: []model.EventKind{model.EventDividend, model.EventDeposit},
		},
		"questrade": {
			adapter: &QuestradeParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "USD", "4.95"},
				{"SHOP.TO", model.ActionSell, "5", "100", "CAD", "4.95"},
			},
			events: []model.EventKind{model.EventDividend, model.EventDeposit},
		},
		"webull": {
			adapter: &WebullParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "", ""},
				{"MSFT", model.ActionSell, "5", "380.10", "", ""},
			},
			ignored: 1,
		},
		"degiro": {
			adapter: &DegiroParser{},
			loc:     locale.MustParse("nl-NL"),
			trades: []wantTrade{
				{"US0378331005", model.ActionBuy, "10", "150.25", "USD", ""},
				{"NL0010273215", model.ActionSell, "2", "640", "EUR", "2"},
			},
		},
		"trading212": {
			adapter: &Trading212Parser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "2.5", "150.25", "USD", ""},
				{"ASML", model.ActionSell, "1", "640", "EUR", ""},
			},
			events: []model.EventKind{model.EventDeposit, model.EventDividend},
		},
		"revolut": {
			adapter: &RevolutParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "2", "150.25", "USD", ""},
				{"MSFT", model.ActionSell, "1", "380.10", "USD", ""},
			},
			events: []model.EventKind{model.EventDeposit, model.EventDividend},
		},
		"swissquote": {
			adapter: &SwissquoteParser{},
			trades: []wantTrade{
				{"AAPL", model.ActionBuy, "10", "150.25", "USD", "9.85"},
				{"NESN", model.ActionSell, "5", "95.50", "CHF", "5"},
			},
			events: []model.EventKind{model.EventDeposit},
		},
		"coinbase": {
			adapter: &CoinbaseParser{},
			trades: []wantTrade{
				{"BTC", model.ActionBuy, "0.05", "42000", "USD", "10"},
				{"ETH", model.ActionSell, "0.5", "2300", "USD", "10"},
			},
			events: []model.EventKind{model.EventTransferOut, model.EventInterest},
		},
		"kraken": {
			adapter: &KrakenParser{},
			trades: []wantTrade{
				{"BTC", model.ActionBuy, "0.05", "42000", "USD", "5.46"},
				{"ETH", model.ActionSell, "0.5", "2100.5", "EUR", "2.73"},
			},
			invalid: 1,
		},
		"binance": {
			adapter: &BinanceParser{},
			trades: []wantTrade{
				{"BTC", model.ActionBuy, "0.05", "42000", "USDT", "2.1"},
				{"ETH", model.ActionSell, "0.5", "0.055", "BTC", ""},
			},
		},
		"bitstamp": {
			adapter: &BitstampParser{},
			trades: []wantTrade{
				{"BTC", model.ActionBuy, "0.05", "42000", "USD", "5.25"},
				{"ETH", model.ActionSell, "0.5", "2300", "USD", "2.88"},
			},
			events: []model.EventKind{model.EventDeposit, model.EventWithdrawal},
		},
	}

	for id, tt := range tests {
		t.Run(id, func(t *testing.T) {
			loc := tt.loc
			if loc.Tag == "" {
				loc = locale.US
			}
			b := parseFixture(t, tt.adapter, id+".csv", loc)

			require.Len(t, b.Trades, len(tt.trades), "invalid rows: %v", b.Invalid)
			for i, want := range tt.trades {
				got := b.Trades[i]
				assert.Equal(t, want.ticker, got.Ticker)
				assert.Equal(t, want.action, got.Action)
				assertDecimal(t, want.qty, got.Quantity)
				assertDecimal(t, want.price, got.Price)
				assert.Equal(t, want.currency, got.Currency)
				if want.fees == "" {
					assert.False(t, got.HasFees, "trade %d fees %s", i, got.Fees)
				} else {
					assert.True(t, got.HasFees)
					assertDecimal(t, want.fees, got.Fees)
				}
				assert.Equal(t, id, got.Source)
				assert.Positive(t, got.Line)
			}

			kinds := make([]model.EventKind, len(b.Events))
			for i, e := range b.Events {
				kinds[i] = e.Kind
			}
			if len(tt.events) == 0 {
				assert.Empty(t, kinds)
			} else {
				assert.Equal(t, tt.events, kinds)
			}
			assert.Len(t, b.Invalid, tt.invalid)
			assert.Equal(t, tt.ignored, b.Ignored)
			assert.Equal(t, len(b.Trades)+len(b.Events)+len(b.Invalid)+b.Ignored, b.Seen)
		})
	}
}

func TestIBKRParser_Details(t *testing.T) {
	b := parseFixture(t, &IBKRParser{}, "ibkr.csv", locale.US)
	require.Len(t, b.Trades, 2)

	aapl := b.Trades[0]
	assert.Equal(t, time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), aapl.Date)
	assert.Equal(t, "O", aapl.Notes)
	assert.Equal(t, 7, aapl.Line)

	require.Len(t, b.Events, 3)
	div := b.Events[0]
	assert.Equal(t, "AAPL", div.Ticker)
	assert.Equal(t, "USD", div.Currency)
	assertDecimal(t, "2.4", div.Amount)
	assertDecimal(t, "-0.36", b.Events[1].Amount)
	assert.Equal(t, "", b.Events[2].Ticker)
}

func TestIBKRParser_NoSections(t *testing.T) {
	_, err := (&IBKRParser{}).Parse(strings.NewReader("a,b\n1,2\n"), locale.US)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestSchwabParser_Details(t *testing.T) {
	b := parseFixture(t, &SchwabParser{}, "schwab.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), b.Trades[1].Date)
	assert.Equal(t, "APPLE INC", b.Trades[0].Notes)

	require.Len(t, b.Events, 2)
	assertDecimal(t, "-500", b.Events[1].Amount)

	require.Len(t, b.Invalid, 1)
	assert.Equal(t, 6, b.Invalid[0].Line)
	assert.Contains(t, b.Invalid[0].Reason, "unknown action")
}

func TestSchwabParser_MissingHeader(t *testing.T) {
	_, err := (&SchwabParser{}).Parse(strings.NewReader("foo,bar\n1,2\n"), locale.US)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
	assert.Contains(t, err.Error(), "reading schwab CSV")
}

func TestSchwabParser_BadDate(t *testing.T) {
	in := `"Date","Action","Symbol","Description","Quantity","Price","Fees & Comm","Amount"
"NOTADATE","Buy","AAPL","","1","$1.00","",""
`
	b, err := (&SchwabParser{}).Parse(strings.NewReader(in), locale.US)
	require.NoError(t, err)
	assert.Empty(t, b.Trades)
	require.Len(t, b.Invalid, 1)
	assert.Contains(t, b.Invalid[0].Reason, "parsing date")
	assert.Equal(t, 1, b.Seen)
}

func TestFidelityParser_SkipsDisclaimer(t *testing.T) {
	b := parseFixture(t, &FidelityParser{}, "fidelity.csv", locale.US)
	assert.Equal(t, 3, b.Seen)
	assert.Equal(t, 5, b.Trades[0].Line)
}

func TestRobinhoodParser_MultilineDescription(t *testing.T) {
	b := parseFixture(t, &RobinhoodParser{}, "robinhood.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, 2, b.Trades[0].Line)
	assert.Equal(t, 4, b.Trades[1].Line)
	assert.Contains(t, b.Trades[0].Notes, "CUSIP")
	require.Len(t, b.Invalid, 1)
	assert.Contains(t, b.Invalid[0].Reason, "quantity is missing")
}

func TestTDAmeritradeParser_StopsAtEndMarker(t *testing.T) {
	in := readFixture(t, "tdameritrade.csv") + "01/30/2024,1,Bought 1 X @ 1,1,X,1,0,-1,,,,\n"
	b, err := (&TDAmeritradeParser{}).Parse(strings.NewReader(in), locale.US)
	require.NoError(t, err)
	assert.Len(t, b.Trades, 2)
}

func TestWebullParser_EasternTime(t *testing.T) {
	b := parseFixture(t, &WebullParser{}, "webull.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 31, 2, 0, time.UTC), b.Trades[0].Date)
	assert.Equal(t, time.Date(2024, 7, 10, 14, 0, 5, 0, time.UTC), b.Trades[1].Date)
}

func TestDegiroParser_ForeignCurrencyFeeGoesToNotes(t *testing.T) {
	b := parseFixture(t, &DegiroParser{}, "degiro.csv", locale.MustParse("nl-NL"))
	require.Len(t, b.Trades, 2)
	assert.Equal(t, "APPLE INC (fees -0,50 EUR)", b.Trades[0].Notes)
	assert.Equal(t, "XNAS", b.Trades[0].Venue)
	assert.Equal(t, time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC), b.Trades[0].Date)
}

func TestTrading212Parser_ConversionFeeInAccountCurrency(t *testing.T) {
	b := parseFixture(t, &Trading212Parser{}, "trading212.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, "Apple (currency conversion fee 0.52 EUR)", b.Trades[0].Notes)
	require.Len(t, b.Events, 2)
	assertDecimal(t, "1000", b.Events[0].Amount)
	assert.Equal(t, "EUR", b.Events[0].Currency)
}

func TestCoinbaseParser_EventsCarryAsset(t *testing.T) {
	b := parseFixture(t, &CoinbaseParser{}, "coinbase.csv", locale.US)
	require.Len(t, b.Events, 2)
	assert.Equal(t, "BTC", b.Events[0].Currency)
	assertDecimal(t, "0.01", b.Events[0].Amount)
}

func TestKrakenParser_Details(t *testing.T) {
	b := parseFixture(t, &KrakenParser{}, "kraken.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 30, 0, 123400000, time.UTC), b.Trades[0].Date)
	require.Len(t, b.Invalid, 1)
	assert.Equal(t, 4, b.Invalid[0].Line)
	assert.Contains(t, b.Invalid[0].Reason, `"hold"`)
}

func TestBinanceParser_FeeInOtherAsset(t *testing.T) {
	b := parseFixture(t, &BinanceParser{}, "binance.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, "fee 0.0004 BNB", b.Trades[1].Notes)
}

func TestBitstampParser_Details(t *testing.T) {
	b := parseFixture(t, &BitstampParser{}, "bitstamp.csv", locale.US)
	require.Len(t, b.Trades, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC), b.Trades[0].Date)
	assert.Equal(t, "Main Account", b.Trades[0].Venue)
	require.Len(t, b.Events, 2)
	assert.Equal(t, "BTC", b.Events[1].Currency)
}

func TestSplitPair(t *testing.T) {
	tests := []struct {
		pair, base, quote string
		ok                bool
	}{
		{"BTCUSDT", "BTC", "USDT", true},
		{"ETHBTC", "ETH", "BTC", true},
		{"XXBTZUSD", "XBT", "USD", true},
		{"XETHXXBT", "ETH", "XBT", true},
		{"BTC/EUR", "BTC", "EUR", true},
		{"sol-usd", "SOL", "USD", true},
		{"ADAUSD", "ADA", "USD", true},
		{"USD", "", "", false},
		{"FOOBAR", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pair, func(t *testing.T) {
			base, quote, ok := splitPair(tt.pair)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.quote, quote)
		})
	}
}

func TestSplitAmount(t *testing.T) {
	tests := []struct{ in, num, unit string }{
		{"0.05 BTC", "0.05", "BTC"},
		{"USD 150.25", "150.25", "USD"},
		{"0.5BTC", "0.5", "BTC"},
		{"2.1usdt", "2.1", "USDT"},
		{"42", "42", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		num, unit := splitAmount(tt.in)
		assert.Equal(t, tt.num, num, tt.in)
		assert.Equal(t, tt.unit, unit, tt.in)
	}
}

func TestSumFees(t *testing.T) {
	fees, ok, err := sumFees(locale.US, true, "-1.05", "", "-0.45")
	require.NoError(t, err)
	assert.True(t, ok)
	assertDecimal(t, "1.5", fees)

	fees, ok, err = sumFees(locale.US, false, "-2", "0.5")
	require.NoError(t, err)
	assert.True(t, ok)
	assertDecimal(t, "-1.5", fees)

	_, ok, err = sumFees(locale.US, false, "", " ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = sumFees(locale.US, false, "2 fees")
	assert.Error(t, err)
}
