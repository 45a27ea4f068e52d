package intelligence

import (
	"sort"
	"strconv"
	"strings"
)

// Helpers over upstream payloads decoded with encoding/json: maps, slices and
// scalars arrive as map[string]any, []any, float64 and string. All helpers
// tolerate nil and wrong shapes by returning zero values, which is what lets
// the structure resolver degrade to an empty descriptor instead of failing.

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// housekeepingFields are storage bookkeeping keys that must never surface in
// a dynamically-discovered column or datapoint set.
var housekeepingFields = map[string]bool{
	"id":         true,
	"project_id": true,
	"created_at": true,
	"updated_at": true,
}

// sortedKeys returns the map keys in a stable order. JSON objects decode into
// unordered Go maps, so alphabetical order is the deterministic stand-in for
// document order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// recordFieldKeys lists a record's field keys in stable order with
// housekeeping fields excluded.
func recordFieldKeys(record map[string]any) []string {
	keys := make([]string, 0, len(record))
	for key := range record {
		if housekeepingFields[key] {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// humanize turns a snake_case field key into a display label. Keys that
// already read as labels (they contain spaces or symbols) pass through.
func humanize(key string) string {
	if strings.ContainsAny(key, " ($%") {
		return key
	}
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		switch strings.ToLower(part) {
		case "id":
			parts[i] = "ID"
		case "dscr", "lc", "te":
			parts[i] = strings.ToUpper(part)
		default:
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

// datapointsFromRecord derives a datapoint list from one record's keys.
func datapointsFromRecord(record map[string]any) []Datapoint {
	keys := recordFieldKeys(record)
	points := make([]Datapoint, 0, len(keys))
	for _, key := range keys {
		points = append(points, Datapoint{Key: key, Label: humanize(key)})
	}
	return points
}

// datapointsFromRecords walks an array of records in order and collects the
// union of their parameter names, preserving first-seen order.
func datapointsFromRecords(records []any, paramField string) []Datapoint {
	seen := make(map[string]bool)
	var points []Datapoint
	for _, entry := range records {
		record := asMap(entry)
		if record == nil {
			continue
		}
		name, _ := record[paramField].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		points = append(points, Datapoint{Key: name, Label: name})
	}
	return points
}
