package locale

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ErrEmptyValue is returned when a numeric or date cell is blank.
var ErrEmptyValue = errors.New("empty value")

var scientific = regexp.MustCompile(`^[+-]?\d+(\.\d+)?[eE][+-]?\d+$`)

// ParseDecimal reads a number written in l's convention. A currency symbol, ISO code
// or asset unit ("0.5BTC") may lead or trail the digits, as may one minus sign;
// parentheses also mark a negative value. Anything else between the digits other
// than l's separators is an error.
func (l Locale) ParseDecimal(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "-" || raw == "--" {
		return decimal.Zero, ErrEmptyValue
	}
	if scientific.MatchString(raw) {
		return decimal.NewFromString(raw)
	}

	neg := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		neg = true
		raw = raw[1 : len(raw)-1]
	}

	first := strings.IndexFunc(raw, isDigit)
	if first < 0 {
		return decimal.Zero, fmt.Errorf("no digits in %q", s)
	}
	last := strings.LastIndexFunc(raw, isDigit) + 1
	if r, size := utf8.DecodeLastRuneInString(raw[:first]); r == l.Decimal {
		first -= size
	}

	signs := 0
	for _, affix := range []string{raw[:first], raw[last:]} {
		minus, ok := unitAffix(affix)
		if !ok {
			return decimal.Zero, fmt.Errorf("unexpected text around number in %q", s)
		}
		if minus {
			signs++
		}
	}
	if signs > 1 || signs == 1 && neg {
		return decimal.Zero, fmt.Errorf("more than one sign in %q", s)
	}
	neg = neg || signs == 1

	var b strings.Builder
	sawDecimal := false
	for _, r := range raw[first:last] {
		switch {
		case isDigit(r):
			b.WriteRune(r)
		case r == l.Decimal:
			if sawDecimal {
				return decimal.Zero, fmt.Errorf("more than one decimal separator in %q for locale %s", s, l.Tag)
			}
			sawDecimal = true
			b.WriteByte('.')
		case r == l.Group && (r == '.' || r == ','):
			if sawDecimal {
				return decimal.Zero, fmt.Errorf("group separator after decimal in %q for locale %s", s, l.Tag)
			}
		case r == l.Group, r == ' ', r == '\u00a0', r == '\u202f', r == '\'':
			// group separators carry no value
		case r == '.' || r == ',':
			// the other punctuation mark is tolerated only where grouping uses spaces or quotes
			if l.Group != ' ' && l.Group != '\'' {
				return decimal.Zero, fmt.Errorf("unexpected separator %q in %q for locale %s", r, s, l.Tag)
			}
		default:
			return decimal.Zero, fmt.Errorf("unexpected %q in number %q", r, s)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing number %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isBlank(r rune) bool { return unicode.IsSpace(r) || r == '\u202f' }

// unitAffix checks the text before or after the digits: at most one sign and a unit
// made of currency symbols or upper-case letters ("$", "€", "USD", "BTC", "US$").
// A unit of letters alone needs at least two of them.
func unitAffix(s string) (minus, ok bool) {
	s = strings.TrimFunc(s, isBlank)
	for _, sign := range []string{"-", "\u2212", "+"} {
		if rest, found := strings.CutPrefix(s, sign); found {
			minus, s = sign != "+", strings.TrimLeftFunc(rest, isBlank)
			break
		}
		if rest, found := strings.CutSuffix(s, sign); found {
			minus, s = sign != "+", strings.TrimRightFunc(rest, isBlank)
			break
		}
	}
	if s == "" {
		return minus, true
	}
	letters, symbols := 0, 0
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			letters++
		case unicode.Is(unicode.Sc, r):
			symbols++
		default:
			return false, false
		}
	}
	if symbols == 0 && letters < 2 || letters > 10 {
		return false, false
	}
	return minus, true
}

// ParseOptionalDecimal is ParseDecimal that maps a blank cell to (zero, false, nil).
func (l Locale) ParseOptionalDecimal(s string) (decimal.Decimal, bool, error) {
	d, err := l.ParseDecimal(s)
	if errors.Is(err, ErrEmptyValue) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return d, true, nil
}

// FormatDecimal writes d in l's convention without grouping.
func (l Locale) FormatDecimal(d decimal.Decimal) string {
	s := d.String()
	if l.Decimal != '.' {
		s = strings.Replace(s, ".", string(l.Decimal), 1)
	}
	return s
}

// amountToken matches number-like tokens inside a sample.
var amountToken = regexp.MustCompile(`-?\d[\d.,]*\d|\d`)

// sniffDecimal votes on the decimal separator from the numbers in a sample.
// It returns false when the votes tie or nothing is conclusive.
func sniffDecimal(sample string) (rune, bool) {
	comma, dot := 0, 0
	for _, tok := range amountToken.FindAllString(sample, -1) {
		tok = strings.TrimPrefix(tok, "-")
		lastComma := strings.LastIndex(tok, ",")
		lastDot := strings.LastIndex(tok, ".")
		switch {
		case lastComma >= 0 && lastDot >= 0:
			if lastComma > lastDot {
				comma++
			} else {
				dot++
			}
		case lastComma >= 0:
			if hasDecimalSuffix(tok, lastComma) && strings.Count(tok, ",") == 1 {
				comma++
			}
		case lastDot >= 0:
			if hasDecimalSuffix(tok, lastDot) && strings.Count(tok, ".") == 1 {
				dot++
			}
		}
	}
	if comma == dot {
		return 0, false
	}
	if comma > dot {
		return ',', true
	}
	return '.', true
}

// hasDecimalSuffix reports whether the separator at idx is followed by 1, 2 or 4+
// digits. Exactly three digits reads as a thousands group and is not evidence.
func hasDecimalSuffix(tok string, idx int) bool {
	n := len(tok) - idx - 1
	return n > 0 && n != 3
}
