package intelligence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		name  string
		value any
		field string
		want  string
	}{
		{name: "nil becomes placeholder", value: nil, field: "anything", want: "-"},
		{name: "empty string becomes placeholder", value: "", field: "anything", want: "-"},
		{name: "placeholder passes through", value: "-", field: "Commitment ($)", want: "-"},
		{name: "refi default passes through", value: "No historical refi", field: "Loan Amount ($)", want: "No historical refi"},
		{name: "currency gains separators", value: 1234567.5, field: "Commitment ($)", want: "1,234,567.5"},
		{name: "currency caps at two decimals", value: 1234.5678, field: "Outstanding Amount ($)", want: "1,234.57"},
		{name: "currency from numeric string", value: "2500000", field: "Sale Proceeds", want: "2,500,000"},
		{name: "currency hint is case-insensitive", value: 1000.0, field: "Notional Value", want: "1,000"},
		{name: "non-numeric currency passes through", value: "TBD", field: "Commitment ($)", want: "TBD"},
		{name: "iso timestamp normalizes", value: "2024-03-15T00:00:00.000Z", field: "Maturity Date", want: "2024-03-15"},
		{name: "plain date normalizes", value: "2024-03-15", field: "maturity_date", want: "2024-03-15"},
		{name: "us date normalizes", value: "03/15/2024", field: "Period Start Date", want: "2024-03-15"},
		{name: "unparseable date passes through", value: "Q3 2024", field: "Target Date", want: "Q3 2024"},
		{name: "date wins over currency", value: "2024-03-15", field: "Commitment Start Date", want: "2024-03-15"},
		{name: "plain float", value: 1.85, field: "dscr_ratio", want: "1.85"},
		{name: "plain string", value: "Term Loan", field: "loan_type", want: "Term Loan"},
		{name: "bool", value: true, field: "is_active", want: "true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatValue(tc.value, tc.field))
		})
	}
}

func TestFormatCellClassifiesDynamicColumnsByDatapoint(t *testing.T) {
	// Loan-type sub-columns carry no currency signal in their key; the
	// row's datapoint does, and must drive the formatting.
	row := Row{
		Module:       ModuleFinancingTerms,
		SubGroup:     "Construction Loan",
		Datapoint:    "Commitment ($)",
		DatapointKey: "Commitment ($)",
		Cells:        map[string]any{"Term Loan": 1234567.5},
	}
	col := Column{Key: "Term Loan", Title: "Term Loan", Group: "Loan Types", Role: RoleValue}
	require.Equal(t, "1,234,567.5", FormatCell(row, col))

	// Label columns keep their own key even when the row has a datapoint.
	require.Equal(t, "Commitment ($)",
		FormatCell(row, Column{Key: ColDatapoint, Title: "Datapoint", Role: RoleLabel}))

	// Refinancing history columns inherit the parameter's date rule.
	refiRow := Row{
		Module:       ModuleRefinancing,
		Datapoint:    "Refi Close Date",
		DatapointKey: "Refi Close Date",
		RefiValues:   []any{"2024-03-15T00:00:00.000Z"},
	}
	refiCol := Column{Key: "refi_1", Title: "Refinancing 1", Group: "History", Role: RoleValue}
	require.Equal(t, "2024-03-15", FormatCell(refiRow, refiCol))

	// A missing history entry still renders the refinancing default.
	refiCol2 := Column{Key: "refi_2", Title: "Refinancing 2", Group: "History", Role: RoleValue}
	require.Equal(t, NoHistoricalRefi, FormatCell(refiRow, refiCol2))
}

func TestFieldClassifiers(t *testing.T) {
	require.True(t, IsDateField("Maturity Date"))
	require.True(t, IsDateField("period_start_date"))
	require.False(t, IsDateField("Lender"))

	require.True(t, IsCurrencyField("Commitment ($)"))
	require.True(t, IsCurrencyField("ending_balance"))
	require.True(t, IsCurrencyField("Insurance Coverage"))
	require.False(t, IsCurrencyField("Interest Rate (%)"))
}
