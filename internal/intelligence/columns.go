package intelligence

import (
	"sort"
	"strconv"
	"strings"
)

// Prefixes for index-addressed dynamic columns.
const (
	partyColPrefix = "party_"
	refiColPrefix  = "refi_"
)

// CellValue resolves the raw value a column addresses on a row. This is the
// single lookup used by the JSON renderer, the exporter and the PDF snapshot,
// so the three surfaces always agree on what a cell contains.
func CellValue(row Row, col Column) any {
	switch {
	case col.Key == ColProject:
		return row.ProjectName
	case col.Key == ColSubGroup:
		return row.SubGroup
	case col.Key == ColDatapoint:
		return row.Datapoint
	case col.Key == ColValue:
		return row.Value
	case col.Key == ColInstance:
		return row.Instance + 1
	case strings.HasPrefix(col.Key, partyColPrefix):
		idx := colIndex(col.Key, partyColPrefix)
		if idx < 0 || idx >= len(row.Parties) {
			return nil
		}
		return row.Parties[idx]
	case strings.HasPrefix(col.Key, refiColPrefix):
		idx := colIndex(col.Key, refiColPrefix)
		if idx < 0 || idx >= len(row.RefiValues) || row.RefiValues[idx] == nil {
			// Refinancing Summary's missing-entry default differs from
			// every other module's placeholder on purpose.
			return NoHistoricalRefi
		}
		return row.RefiValues[idx]
	default:
		if row.Cells == nil {
			return nil
		}
		return row.Cells[col.Key]
	}
}

// DisplayKey resolves the field key that classifies a cell for formatting.
// Value cells of rows pinned to one datapoint (loan-type, tax-equity and
// refinancing sub-columns) format by the datapoint's key, not the column
// key: the column there names a loan type or a year, while the datapoint
// carries the currency/date signal.
func DisplayKey(row Row, col Column) string {
	if col.Role == RoleValue && row.DatapointKey != "" {
		return row.DatapointKey
	}
	return col.Key
}

// FormatCell renders one cell for display or export.
func FormatCell(row Row, col Column) string {
	return FormatValue(CellValue(row, col), DisplayKey(row, col))
}

func colIndex(key, prefix string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
	if err != nil {
		return -1
	}
	return n - 1
}

// cellKeyUnion scans rows and unions their dynamic cell keys in stable
// order, excluding housekeeping fields from the discovered set.
func cellKeyUnion(rows []Row) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, row := range rows {
		for key := range row.Cells {
			if housekeepingFields[key] || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// maxParties returns the widest party list across rows.
func maxParties(rows []Row) int {
	max := 0
	for _, row := range rows {
		if len(row.Parties) > max {
			max = len(row.Parties)
		}
	}
	return max
}

// maxRefiInstances returns the widest historical-value list across rows.
func maxRefiInstances(rows []Row) int {
	max := 0
	for _, row := range rows {
		if len(row.RefiValues) > max {
			max = len(row.RefiValues)
		}
	}
	return max
}

func projectColumn() Column {
	return Column{Key: ColProject, Title: "Project", Role: RoleLabel}
}
