package intelligence

import (
	"strings"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// FieldType tags a field for input rendering.
type FieldType string

const (
	FieldText       FieldType = "text"
	FieldNumber     FieldType = "number"
	FieldDate       FieldType = "date"
	FieldCurrency   FieldType = "currency"
	FieldPercentage FieldType = "percentage"
	FieldDropdown   FieldType = "dropdown"
)

// drawnFeeCarveOut is the one field whose display label exactly opts out of
// percentage coercion; it carries formula text, not a number. Keyed on the
// display string on purpose — do not generalize without confirming intent.
const drawnFeeCarveOut = "Drawn Fee (%)"

// TypeFor resolves a field's type from upstream field metadata when
// available. The substring heuristics below survive only as a fallback for
// fields the metadata does not cover.
func TypeFor(meta map[string]upstream.FieldMeta, key string) FieldType {
	if m, ok := meta[key]; ok {
		switch strings.ToLower(m.DataType) {
		case "date":
			return FieldDate
		case "currency":
			return FieldCurrency
		case "percentage":
			if key == drawnFeeCarveOut {
				return FieldText
			}
			return FieldPercentage
		case "number", "numeric", "integer", "float":
			return FieldNumber
		case "dropdown", "select":
			return FieldDropdown
		case "text", "string":
			return FieldText
		}
	}

	// Fallback: stringly-typed signals from the field key.
	if key == drawnFeeCarveOut {
		return FieldText
	}
	if IsDateField(key) {
		return FieldDate
	}
	if IsCurrencyField(key) {
		return FieldCurrency
	}
	if strings.Contains(key, "%") {
		return FieldPercentage
	}
	return FieldText
}

// MetaIndex indexes field metadata by field key for TypeFor lookups.
func MetaIndex(fields []upstream.FieldMeta) map[string]upstream.FieldMeta {
	index := make(map[string]upstream.FieldMeta, len(fields))
	for _, f := range fields {
		index[f.FieldKey] = f
	}
	return index
}
