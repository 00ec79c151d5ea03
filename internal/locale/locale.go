// Package locale parses the numbers and dates found in broker exports.
//
// A Locale is resolved once per parse call. The caller-asserted locale always wins;
// Sniff is only consulted when the caller passes Auto.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

const (
	// Default is used when the caller does not assert a locale.
	Default = "en-US"
	// Auto asks for the locale to be sniffed from the file sample.
	Auto = "auto"
)

// DateOrder is the field order of an all-numeric date such as 03/04/2024.
type DateOrder int

const (
	MDY DateOrder = iota
	DMY
	YMD
)

func (o DateOrder) String() string {
	switch o {
	case DMY:
		return "DMY"
	case YMD:
		return "YMD"
	default:
		return "MDY"
	}
}

// Locale holds the conventions used to read numbers and dates.
type Locale struct {
	Tag       string
	Decimal   rune
	Group     rune
	DateOrder DateOrder
}

// US is the default convention: 1,234.56 and 01/02/2006.
var US = Locale{Tag: Default, Decimal: '.', Group: ',', DateOrder: MDY}

// Regions whose conventions differ from their language's.
var regionOverrides = map[string]Locale{
	"US": {Decimal: '.', Group: ',', DateOrder: MDY},
	"PH": {Decimal: '.', Group: ',', DateOrder: MDY},
	"GB": {Decimal: '.', Group: ',', DateOrder: DMY},
	"IE": {Decimal: '.', Group: ',', DateOrder: DMY},
	"AU": {Decimal: '.', Group: ',', DateOrder: DMY},
	"NZ": {Decimal: '.', Group: ',', DateOrder: DMY},
	"IN": {Decimal: '.', Group: ',', DateOrder: DMY},
	"SG": {Decimal: '.', Group: ',', DateOrder: DMY},
	"HK": {Decimal: '.', Group: ',', DateOrder: DMY},
	"CA": {Decimal: '.', Group: ',', DateOrder: YMD},
	"CH": {Decimal: '.', Group: '\'', DateOrder: DMY},
	"LI": {Decimal: '.', Group: '\'', DateOrder: DMY},
	"MX": {Decimal: '.', Group: ',', DateOrder: DMY},
	"JP": {Decimal: '.', Group: ',', DateOrder: YMD},
	"CN": {Decimal: '.', Group: ',', DateOrder: YMD},
	"KR": {Decimal: '.', Group: ',', DateOrder: YMD},
	"TW": {Decimal: '.', Group: ',', DateOrder: YMD},
}

var baseDefaults = map[string]Locale{
	"en": {Decimal: '.', Group: ',', DateOrder: DMY},
	"de": {Decimal: ',', Group: '.', DateOrder: DMY},
	"nl": {Decimal: ',', Group: '.', DateOrder: DMY},
	"es": {Decimal: ',', Group: '.', DateOrder: DMY},
	"it": {Decimal: ',', Group: '.', DateOrder: DMY},
	"pt": {Decimal: ',', Group: '.', DateOrder: DMY},
	"da": {Decimal: ',', Group: '.', DateOrder: DMY},
	"tr": {Decimal: ',', Group: '.', DateOrder: DMY},
	"id": {Decimal: ',', Group: '.', DateOrder: DMY},
	"fr": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"sv": {Decimal: ',', Group: ' ', DateOrder: YMD},
	"fi": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"nb": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"pl": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"cs": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"ru": {Decimal: ',', Group: ' ', DateOrder: DMY},
	"ja": {Decimal: '.', Group: ',', DateOrder: YMD},
	"zh": {Decimal: '.', Group: ',', DateOrder: YMD},
	"ko": {Decimal: '.', Group: ',', DateOrder: YMD},
}

// Parse resolves a BCP 47 tag such as "de-DE" or "en_GB". An empty tag yields US.
// Auto is rejected here; use Resolve when sniffing is allowed.
func Parse(tag string) (Locale, error) {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return US, nil
	}
	if strings.EqualFold(tag, Auto) {
		return Locale{}, fmt.Errorf("locale %q must be resolved against a sample", tag)
	}

	t, err := language.Parse(tag)
	if err != nil {
		return Locale{}, fmt.Errorf("parsing locale %q: %w", tag, err)
	}

	region, conf := t.Region()
	if conf == language.Exact {
		if l, ok := regionOverrides[region.String()]; ok {
			l.Tag = t.String()
			return l, nil
		}
	}

	base, _ := t.Base()
	if l, ok := baseDefaults[base.String()]; ok {
		l.Tag = t.String()
		return l, nil
	}
	return Locale{}, fmt.Errorf("unsupported locale %q", tag)
}

// MustParse is Parse for tags known at compile time.
func MustParse(tag string) Locale {
	l, err := Parse(tag)
	if err != nil {
		panic(err)
	}
	return l
}

// Resolve parses tag, sniffing the sample when tag is Auto.
func Resolve(tag, sample string) (Locale, error) {
	if strings.EqualFold(strings.TrimSpace(tag), Auto) {
		return Sniff(sample), nil
	}
	return Parse(tag)
}

// String returns the tag.
func (l Locale) String() string {
	return l.Tag
}
