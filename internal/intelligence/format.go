package intelligence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder renders for any missing or undefined value.
const Placeholder = "-"

// NoHistoricalRefi is the Refinancing Summary default for a missing
// historical entry. The asymmetry with Placeholder is deliberate and must be
// preserved: unifying the two literals would change visible behaviour.
const NoHistoricalRefi = "No historical refi"

// currencyHints mark a field as currency-like when its key contains any of
// them. The same list drives on-screen rendering and export; there is exactly
// one implementation.
var currencyHints = []string{
	"$", "amount", "commitment", "balance", "proceeds",
	"price", "basis", "insurance", "notional",
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

var currencyPrinter = message.NewPrinter(language.English)

// IsDateField reports whether a field key names a date-like field.
func IsDateField(key string) bool {
	return strings.Contains(strings.ToLower(key), "date")
}

// IsCurrencyField reports whether a field key names a currency-like field.
func IsCurrencyField(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range currencyHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// FormatValue renders one cell value for display. Missing values become the
// placeholder, date-like fields normalize to YYYY-MM-DD, currency-like
// fields gain thousands separators with at most two decimals, everything
// else passes through. The exporter calls this same function so screen and
// spreadsheet output can never drift apart.
func FormatValue(v any, fieldKey string) string {
	if v == nil {
		return Placeholder
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return Placeholder
		}
		if s == Placeholder || s == NoHistoricalRefi {
			return s
		}
	}

	if IsDateField(fieldKey) {
		if s, ok := v.(string); ok {
			if normalized, ok := normalizeDate(s); ok {
				return normalized
			}
		}
	}

	if IsCurrencyField(fieldKey) {
		if f, ok := toFloat(v); ok {
			return currencyPrinter.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2)))
		}
	}

	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func normalizeDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
