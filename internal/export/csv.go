package export

import (
	"encoding/csv"
	"io"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

// WriteTableCSV serialises one table to CSV: a single header row of column
// titles, then one record per row through the shared cell formatter.
func WriteTableCSV(w io.Writer, table intelligence.Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		header = append(header, col.Title)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		record := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			record = append(record, intelligence.FormatCell(row, col))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
