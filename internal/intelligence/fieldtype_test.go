package intelligence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oneview-energy/oneview/internal/upstream"
)

func TestTypeForPrefersMetadata(t *testing.T) {
	meta := MetaIndex([]upstream.FieldMeta{
		{FieldKey: "Commitment ($)", DataType: "currency"},
		{FieldKey: "Lender", DataType: "dropdown"},
		{FieldKey: "Interest Rate (%)", DataType: "percentage"},
		{FieldKey: "Hedge Ratio", DataType: "percentage"},
		{FieldKey: "Closing Date", DataType: "date"},
		{FieldKey: "Tranche Count", DataType: "integer"},
	})

	require.Equal(t, FieldCurrency, TypeFor(meta, "Commitment ($)"))
	require.Equal(t, FieldDropdown, TypeFor(meta, "Lender"))
	require.Equal(t, FieldPercentage, TypeFor(meta, "Interest Rate (%)"))
	// Metadata would call it a percentage, but the field key "Hedge Ratio"
	// has no % hint; metadata still wins.
	require.Equal(t, FieldPercentage, TypeFor(meta, "Hedge Ratio"))
	require.Equal(t, FieldDate, TypeFor(meta, "Closing Date"))
	require.Equal(t, FieldNumber, TypeFor(meta, "Tranche Count"))
}

func TestTypeForFallback(t *testing.T) {
	meta := map[string]upstream.FieldMeta{}

	require.Equal(t, FieldDate, TypeFor(meta, "Maturity Date"))
	require.Equal(t, FieldCurrency, TypeFor(meta, "Outstanding Amount ($)"))
	require.Equal(t, FieldPercentage, TypeFor(meta, "Interest Rate (%)"))
	require.Equal(t, FieldText, TypeFor(meta, "Lender"))
}

func TestTypeForDrawnFeeCarveOut(t *testing.T) {
	// "Drawn Fee (%)" holds formula text, never a number, regardless of
	// what the metadata or the % in the label suggest.
	withMeta := MetaIndex([]upstream.FieldMeta{
		{FieldKey: "Drawn Fee (%)", DataType: "percentage"},
	})
	require.Equal(t, FieldText, TypeFor(withMeta, "Drawn Fee (%)"))
	require.Equal(t, FieldText, TypeFor(map[string]upstream.FieldMeta{}, "Drawn Fee (%)"))
}
