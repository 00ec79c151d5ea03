package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// RowHash returns a stable content hash of the fields that identify a trade:
// date, ticker, action, quantity, price and source. Decimals are written without
// trailing zeros so "10" and "10.00" hash alike.
func RowHash(t model.CanonicalTrade) string {
	parts := []string{
		t.Date.UTC().Format(time.RFC3339Nano),
		model.NormalizeTicker(t.Ticker),
		string(t.Action),
		t.Quantity.String(),
		t.Price.String(),
		t.Source,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
