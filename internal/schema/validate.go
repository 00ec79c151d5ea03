package schema

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// Rule names an invariant a trade can violate.
type Rule string

const (
	RuleQuantity Rule = "quantity"
	RulePrice    Rule = "price"
	RuleFees     Rule = "fees"
	RuleDate     Rule = "date"
	RuleTicker   Rule = "ticker"
	RuleAction   Rule = "action"
	RuleSource   Rule = "source"
)

// ValidationError describes a single invariant violation on one row.
type ValidationError struct {
	Rule        Rule
	Line        int
	Description string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Rule, e.Description)
	}
	return fmt.Sprintf("%s: %s", e.Rule, e.Description)
}

// Validate checks every invariant on t and returns all violations, in rule order.
func Validate(t model.CanonicalTrade) []ValidationError {
	var errs []ValidationError
	fail := func(rule Rule, format string, args ...any) {
		errs = append(errs, ValidationError{Rule: rule, Line: t.Line, Description: fmt.Sprintf(format, args...)})
	}

	if !t.Quantity.IsPositive() {
		fail(RuleQuantity, "quantity %s must be greater than zero", t.Quantity)
	}
	if !t.Price.IsPositive() {
		fail(RulePrice, "price %s must be greater than zero", t.Price)
	}
	if t.HasFees && t.Fees.IsNegative() {
		fail(RuleFees, "fees %s must not be negative", t.Fees)
	}
	if t.Date.IsZero() {
		fail(RuleDate, "date is missing")
	} else if y := t.Date.Year(); y < 1900 || y > 2200 {
		fail(RuleDate, "date %s is out of range", t.Date.Format("2006-01-02"))
	}
	if strings.TrimSpace(t.Ticker) == "" {
		fail(RuleTicker, "ticker is empty")
	}
	if !t.Action.Valid() {
		fail(RuleAction, "action %q is not BUY or SELL", t.Action)
	}
	if t.Source == "" {
		fail(RuleSource, "source adapter is not set")
	}
	return errs
}

// Join renders violations as one "; "-separated reason.
func Join(errs []ValidationError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = fmt.Sprintf("%s: %s", e.Rule, e.Description)
	}
	return strings.Join(msgs, "; ")
}
