package mapping

import (
	"strings"
	"unicode"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// synonyms lists, per field, the header spellings that suggest it. Earlier entries
// are stronger hints.
var synonyms = map[model.Field][]string{
	model.FieldDate:     {"date", "time", "timestamp", "datetime", "when"},
	model.FieldTicker:   {"ticker", "symbol", "instrument", "asset", "pair", "security", "isin"},
	model.FieldAction:   {"action", "side", "type", "buy/sell", "buy-sell", "b/s", "direction"},
	model.FieldQuantity: {"quantity", "qty", "shares", "units", "amount of shares", "no. of shares", "volume", "vol"},
	model.FieldPrice:    {"price", "rate", "unit cost"},
	model.FieldCurrency: {"currency", "ccy"},
	model.FieldFees:     {"fee", "fees", "commission", "comm", "costs"},
}

const (
	exactScore     = 1000
	substringScore = 100
)

// Propose guesses a mapping from observed headers by case-insensitive substring
// matching against each field's synonyms. Required fields pick first, an exact
// match beats a substring match, and no header is used twice. Between two equal
// matches the header with less text around the synonym wins. Fields without a
// plausible header are left out.
func Propose(headers []string) model.UniversalMapping {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normalize(h)
	}

	proposal := make(model.UniversalMapping)
	claimed := make([]bool, len(headers))
	for _, f := range model.AllFields() {
		best, bestScore, bestExtra := -1, 0, 0
		for i, h := range norm {
			if claimed[i] || h == "" {
				continue
			}
			s, extra := score(h, synonyms[f])
			if s > bestScore || s == bestScore && s > 0 && extra < bestExtra {
				best, bestScore, bestExtra = i, s, extra
			}
		}
		if best >= 0 {
			proposal[f] = strings.TrimSpace(headers[best])
			claimed[best] = true
		}
	}
	return proposal
}

// score rates header against a field's synonyms and reports how many characters
// of the header the best synonym leaves unmatched.
func score(header string, syns []string) (int, int) {
	bare := strings.TrimFunc(header, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSpace(r) })
	best, extra := 0, 0
	for i, syn := range syns {
		s := 0
		switch {
		case header == syn || bare == syn:
			s = exactScore - i
		case strings.Contains(header, syn):
			s = substringScore - i
		}
		if s > best {
			best, extra = s, len(header)-len(syn)
		}
	}
	return best, extra
}

func normalize(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}
