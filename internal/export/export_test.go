package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oneview-energy/oneview/internal/intelligence"
)

func sampleTable() intelligence.Table {
	return intelligence.Table{
		Module: intelligence.ModuleLender,
		Label:  "Lender Commitments",
		Columns: []intelligence.Column{
			{Key: "project", Title: "Project", Role: intelligence.RoleLabel},
			{Key: "sub_group", Title: "Loan Type", Role: intelligence.RoleLabel},
			{Key: "Commitment ($)", Title: "Commitment ($)", Group: "Amounts", Role: intelligence.RoleValue},
			{Key: "Outstanding Amount ($)", Title: "Outstanding Amount ($)", Group: "Amounts", Role: intelligence.RoleValue},
		},
		Rows: []intelligence.Row{
			{
				ProjectID:   1,
				ProjectName: "Desert Sun",
				Module:      intelligence.ModuleLender,
				SubGroup:    "Term Loan",
				Cells: map[string]any{
					"Commitment ($)":         1234567.5,
					"Outstanding Amount ($)": nil,
				},
			},
		},
	}
}

func TestBuildWorkbookRendersFormattedCells(t *testing.T) {
	f, err := BuildWorkbook([]intelligence.Table{sampleTable()})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	require.Equal(t, []string{"Lender Commitments"}, f.GetSheetList())

	// Grouped columns push the titles to the second header row.
	title, err := f.GetCellValue("Lender Commitments", "C2")
	require.NoError(t, err)
	require.Equal(t, "Commitment ($)", title)

	group, err := f.GetCellValue("Lender Commitments", "C1")
	require.NoError(t, err)
	require.Equal(t, "Amounts", group)

	// The data cell carries the same formatted string the screen shows.
	value, err := f.GetCellValue("Lender Commitments", "C3")
	require.NoError(t, err)
	require.Equal(t, "1,234,567.5", value)

	missing, err := f.GetCellValue("Lender Commitments", "D3")
	require.NoError(t, err)
	require.Equal(t, "-", missing)
}

func TestBuildWorkbookUngroupedSingleHeaderRow(t *testing.T) {
	table := sampleTable()
	for i := range table.Columns {
		table.Columns[i].Group = ""
	}
	f, err := BuildWorkbook([]intelligence.Table{table})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	title, err := f.GetCellValue("Lender Commitments", "A1")
	require.NoError(t, err)
	require.Equal(t, "Project", title)

	value, err := f.GetCellValue("Lender Commitments", "A2")
	require.NoError(t, err)
	require.Equal(t, "Desert Sun", value)
}

func TestSheetNameSanitization(t *testing.T) {
	used := make(map[string]bool)
	require.Equal(t, "Debt Service", sheetName("Debt/Service", used))
	require.Equal(t, "Debt Service 2", sheetName("Debt?Service", used))

	long := sheetName(strings.Repeat("x", 40), used)
	require.Len(t, long, 31)
}

func TestFilenameIsDated(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "oneview-finance-2026-08-29.xlsx", Filename("finance", now))
}

func TestWriteTableCSVMatchesScreenFormatting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTableCSV(&buf, sampleTable()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, `Project,Loan Type,Commitment ($),Outstanding Amount ($)`, lines[0])
	require.Equal(t, `Desert Sun,Term Loan,"1,234,567.5",-`, lines[1])
}
