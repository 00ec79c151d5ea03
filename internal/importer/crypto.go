package importer

import "strings"

// quoteAssets are tried as suffixes when splitting a run-together pair such as
// BTCUSDT. Longer codes come first so USDT is not read as USD.
var quoteAssets = []string{
	"USDT", "USDC", "BUSD", "FDUSD", "TUSD", "DAI",
	"USD", "EUR", "GBP", "CAD", "JPY", "CHF", "AUD", "TRY", "BRL",
	"BTC", "XBT", "ETH", "BNB",
}

// krakenAssets renames Kraken's legacy asset codes.
var krakenAssets = map[string]string{
	"XBT": "BTC",
	"XDG": "DOGE",
}

// splitPair separates a trading pair into base and quote asset. It accepts
// "BTC/USD", "BTC-USD", "BTCUSDT" and Kraken's legacy "XXBTZUSD".
func splitPair(pair string) (base, quote string, ok bool) {
	pair = strings.ToUpper(strings.TrimSpace(pair))
	if i := strings.IndexAny(pair, "/-"); i > 0 && i < len(pair)-1 {
		return pair[:i], pair[i+1:], true
	}
	if len(pair) == 8 && pair[0] == 'X' && (pair[4] == 'Z' || pair[4] == 'X') {
		return pair[1:4], pair[5:], true
	}
	for _, q := range quoteAssets {
		if len(pair) > len(q) && strings.HasSuffix(pair, q) {
			return pair[:len(pair)-len(q)], q, true
		}
	}
	return "", "", false
}

func krakenAsset(code string) string {
	if renamed, ok := krakenAssets[code]; ok {
		return renamed
	}
	return code
}
