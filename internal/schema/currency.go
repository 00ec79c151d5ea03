package schema

import (
	"strings"

	"github.com/Rhymond/go-money"
)

var symbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"₣": "CHF",
	"₹": "INR",
}

// Crypto assets quoted as a transaction currency by exchanges; ISO 4217 does not
// list them.
var cryptoQuotes = map[string]bool{
	"BTC":  true,
	"ETH":  true,
	"USDT": true,
	"USDC": true,
	"BUSD": true,
	"BNB":  true,
	"DAI":  true,
}

// NormalizeCurrency upper-cases a currency code or symbol and reports whether it
// is a known ISO 4217 code or a crypto quote asset. Blank input yields ("", true).
func NormalizeCurrency(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return "", true
	}
	if c, ok := symbols[code]; ok {
		return c, true
	}
	if cryptoQuotes[code] {
		return code, true
	}
	if money.GetCurrency(code) == nil {
		return "", false
	}
	return code, true
}
