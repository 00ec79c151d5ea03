package importer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// verdict is what an action cell means: a trade side, a non-trade event, or a row
// to skip. A cash verdict is a deposit or withdrawal depending on the amount's sign.
type verdict struct {
	action model.Action
	event  model.EventKind
	cash   bool
	skip   bool
}

func (v verdict) trade() bool { return v.action != "" }

// kind resolves the event kind of a non-trade verdict.
func (v verdict) kind(amount decimal.Decimal) model.EventKind {
	if v.cash {
		return cashEvent(amount)
	}
	return v.event
}

func buy() verdict                     { return verdict{action: model.ActionBuy} }
func sell() verdict                    { return verdict{action: model.ActionSell} }
func event(k model.EventKind) verdict { return verdict{event: k} }
func cash() verdict                    { return verdict{cash: true} }
func skip() verdict                    { return verdict{skip: true} }

// genericVocab covers the spellings seen across brokers for explicitly mapped files.
var genericVocab = map[string]verdict{
	"buy":            buy(),
	"b":              buy(),
	"bot":            buy(),
	"bought":         buy(),
	"purchase":       buy(),
	"purchased":      buy(),
	"long":           buy(),
	"buy to open":    buy(),
	"buy to close":   buy(),
	"buy to cover":   buy(),
	"bto":            buy(),
	"btc":            buy(),
	"market buy":     buy(),
	"limit buy":      buy(),
	"reinvest":       buy(),
	"reinvestment":   buy(),
	"sell":           sell(),
	"s":              sell(),
	"sld":            sell(),
	"sold":           sell(),
	"short":          sell(),
	"sell short":     sell(),
	"sell to open":   sell(),
	"sell to close":  sell(),
	"sto":            sell(),
	"stc":            sell(),
	"market sell":    sell(),
	"limit sell":     sell(),
	"dividend":       event(model.EventDividend),
	"div":            event(model.EventDividend),
	"interest":       event(model.EventInterest),
	"deposit":        event(model.EventDeposit),
	"credit":         event(model.EventDeposit),
	"withdrawal":     event(model.EventWithdrawal),
	"debit":          event(model.EventWithdrawal),
	"fee":            event(model.EventFee),
	"commission":     event(model.EventFee),
	"tax":            event(model.EventTax),
	"withholding":    event(model.EventTax),
	"split":          event(model.EventSplit),
	"stock split":    event(model.EventSplit),
	"transfer in":    event(model.EventTransferIn),
	"receive":        event(model.EventTransferIn),
	"transfer out":   event(model.EventTransferOut),
	"send":           event(model.EventTransferOut),
	"journal":        event(model.EventOther),
	"cancelled":      skip(),
	"canceled":       skip(),
}

// lookup normalizes an action cell and finds it in vocab.
func lookup(vocab map[string]verdict, s string) (verdict, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), " "))
	v, ok := vocab[key]
	return v, ok
}

// prefixVerdict classifies free-text action columns by their opening words.
type prefixVerdict struct {
	prefix string
	v      verdict
}

// classify returns the verdict of the first matching prefix, case-insensitively.
func classify(prefixes []prefixVerdict, s string) (verdict, bool) {
	upper := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	for _, p := range prefixes {
		if strings.HasPrefix(upper, p.prefix) {
			return p.v, true
		}
	}
	return verdict{}, false
}
