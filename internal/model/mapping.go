package model

import "strings"

// Field is a canonical column a source header can be mapped to.
type Field string

const (
	FieldDate     Field = "date"
	FieldTicker   Field = "ticker"
	FieldAction   Field = "action"
	FieldQuantity Field = "quantity"
	FieldPrice    Field = "price"
	FieldCurrency Field = "currency"
	FieldFees     Field = "fees"
)

// RequiredFields must all be mapped before a mapped import may run.
var RequiredFields = []Field{FieldDate, FieldTicker, FieldAction, FieldQuantity, FieldPrice}

// OptionalFields may be left unmapped.
var OptionalFields = []Field{FieldCurrency, FieldFees}

// AllFields lists required fields first, then optional ones.
func AllFields() []Field {
	return append(append([]Field{}, RequiredFields...), OptionalFields...)
}

// ParseField resolves a field name case-insensitively.
func ParseField(s string) (Field, bool) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFields() {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// UniversalMapping associates canonical fields with source column headers.
// A partial mapping (as proposed by detection) simply omits fields.
type UniversalMapping map[Field]string

// Missing returns the required fields that are unmapped or mapped to a blank header.
func (m UniversalMapping) Missing() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if strings.TrimSpace(m[f]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Complete reports whether every required field is mapped.
func (m UniversalMapping) Complete() bool {
	return len(m.Missing()) == 0
}

// Clone returns an independent copy.
func (m UniversalMapping) Clone() UniversalMapping {
	out := make(UniversalMapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
