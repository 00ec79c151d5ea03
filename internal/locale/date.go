package locale

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
}

var namedLayouts = []string{
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 January 2006",
	"Jan 2, 2006 3:04 PM",
	"Jan. 02, 2006, 03:04 PM",
	"02 Jan 2006 15:04:05",
}

var orderLayouts = map[DateOrder][]string{
	MDY: {"01/02/2006", "1/2/2006", "01/02/06", "1/2/06", "01-02-2006", "01.02.2006"},
	DMY: {"02/01/2006", "2/1/2006", "02.01.2006", "2.1.2006", "02-01-2006", "02/01/06", "02.01.06", "02-01-06"},
	YMD: {"2006/01/02", "2006.01.02", "2006/1/2"},
}

var timeSuffixes = []string{"", " 15:04:05", " 15:04", " 3:04:05 PM", " 3:04 PM", ", 15:04:05", ", 15:04"}

// ParseDate reads a date or date-time and returns it in UTC. When layouts are given
// only they are tried; otherwise ISO forms, then l's numeric order, then month names.
func (l Locale) ParseDate(s string, layouts ...string) (time.Time, error) {
	raw := strings.Join(strings.Fields(s), " ")
	if raw == "" {
		return time.Time{}, ErrEmptyValue
	}

	candidates := layouts
	if len(candidates) == 0 {
		candidates = l.dateLayouts()
	}
	for _, layout := range candidates {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing date %q: no layout matched for locale %s", s, l.Tag)
}

func (l Locale) dateLayouts() []string {
	out := append([]string{}, isoLayouts...)
	for _, layout := range orderLayouts[l.DateOrder] {
		for _, suffix := range timeSuffixes {
			out = append(out, layout+suffix)
		}
	}
	return append(out, namedLayouts...)
}

// FormatDate writes t in l's numeric order with a four-digit year.
func (l Locale) FormatDate(t time.Time) string {
	switch l.DateOrder {
	case DMY:
		return t.Format("02/01/2006")
	case YMD:
		return t.Format("2006-01-02")
	default:
		return t.Format("01/02/2006")
	}
}

var numericDate = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})\b`)

// sniffDateOrder looks for a numeric date whose first or second field exceeds 12.
func sniffDateOrder(sample string) (DateOrder, bool) {
	for _, m := range numericDate.FindAllStringSubmatch(sample, -1) {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		switch {
		case first > 12 && second <= 12:
			return DMY, true
		case second > 12 && first <= 12:
			return MDY, true
		}
	}
	return MDY, false
}

// Sniff guesses conventions from the numbers and dates in a sample, falling back
// to US for anything inconclusive.
func Sniff(sample string) Locale {
	l := US
	l.Tag = Auto
	if sep, ok := sniffDecimal(sample); ok && sep == ',' {
		l.Decimal = ','
		l.Group = '.'
		l.DateOrder = DMY
	}
	if order, ok := sniffDateOrder(sample); ok {
		l.DateOrder = order
	}
	return l
}
