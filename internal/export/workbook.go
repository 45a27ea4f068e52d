// Package export renders generated tables to spreadsheet and CSV form. Cell
// values go through the same formatter as the on-screen renderer, so an
// exported file never disagrees with what the user was looking at.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

const (
	labelColWidth = 28
	valueColWidth = 18
)

// Filename builds the dated workbook filename for a page.
func Filename(page string, now time.Time) string {
	return fmt.Sprintf("oneview-%s-%s.xlsx", page, now.Format("2006-01-02"))
}

// BuildWorkbook renders one sheet per table. Tables with grouped columns get
// a two-row header: merged group cells above the column titles.
func BuildWorkbook(tables []intelligence.Table) (*excelize.File, error) {
	f := excelize.NewFile()

	used := make(map[string]bool)
	for i, table := range tables {
		name := sheetName(table.Label, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, err
			}
		}
		if err := writeSheet(f, name, table); err != nil {
			return nil, err
		}
	}
	if len(tables) == 0 {
		if err := f.SetSheetName("Sheet1", "Empty"); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, table intelligence.Table) error {
	headerRows := 1
	if hasGroups(table.Columns) {
		headerRows = 2
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for idx, col := range table.Columns {
		cellCol, err := excelize.ColumnNumberToName(idx + 1)
		if err != nil {
			return err
		}

		width := float64(valueColWidth)
		if col.Role == intelligence.RoleLabel {
			width = labelColWidth
		}
		if err := f.SetColWidth(sheet, cellCol, cellCol, width); err != nil {
			return err
		}

		titleRow := headerRows
		if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", cellCol, titleRow), col.Title); err != nil {
			return err
		}
		if headerRows == 2 && col.Group == "" {
			// Ungrouped columns span both header rows.
			if err := f.MergeCell(sheet, cellCol+"1", cellCol+"2"); err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cellCol+"1", col.Title); err != nil {
				return err
			}
		}
	}

	if headerRows == 2 {
		if err := writeGroupHeaders(f, sheet, table.Columns); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(max(len(table.Columns), 1))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", fmt.Sprintf("%s%d", lastCol, headerRows), headerStyle); err != nil {
		return err
	}

	for rowIdx, row := range table.Rows {
		for colIdx, col := range table.Columns {
			cellCol, err := excelize.ColumnNumberToName(colIdx + 1)
			if err != nil {
				return err
			}
			cell := fmt.Sprintf("%s%d", cellCol, headerRows+rowIdx+1)
			if err := f.SetCellValue(sheet, cell, intelligence.FormatCell(row, col)); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeGroupHeaders merges contiguous same-group columns into one cell on the
// first header row.
func writeGroupHeaders(f *excelize.File, sheet string, columns []intelligence.Column) error {
	start := -1
	for idx := 0; idx <= len(columns); idx++ {
		var group string
		if idx < len(columns) {
			group = columns[idx].Group
		}
		if start >= 0 && (idx == len(columns) || group != columns[start].Group) {
			from, err := excelize.ColumnNumberToName(start + 1)
			if err != nil {
				return err
			}
			to, err := excelize.ColumnNumberToName(idx)
			if err != nil {
				return err
			}
			if from != to {
				if err := f.MergeCell(sheet, from+"1", to+"1"); err != nil {
					return err
				}
			}
			if err := f.SetCellValue(sheet, from+"1", columns[start].Group); err != nil {
				return err
			}
			start = -1
		}
		if start < 0 && idx < len(columns) && group != "" {
			start = idx
		}
	}
	return nil
}

func hasGroups(columns []intelligence.Column) bool {
	for _, col := range columns {
		if col.Group != "" {
			return true
		}
	}
	return false
}

// sheetName sanitizes a table label into a unique, valid sheet name: at most
// 31 characters and none of the characters Excel forbids.
func sheetName(label string, used map[string]bool) string {
	name := label
	for _, forbidden := range []string{":", "\\", "/", "?", "*", "[", "]"} {
		name = strings.ReplaceAll(name, forbidden, " ")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Sheet"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	base := name
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" %d", n)
		if len(base)+len(suffix) > 31 {
			name = base[:31-len(suffix)] + suffix
		} else {
			name = base + suffix
		}
	}
	used[name] = true
	return name
}
