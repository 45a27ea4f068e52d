package intelligence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackerRevertClearsEntry(t *testing.T) {
	tracker := NewTracker()

	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleOverview, Field: ColValue, Value: "B", Original: "A"})
	require.Equal(t, 1, tracker.Len())

	// Typing through intermediate values keeps the first original.
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleOverview, Field: ColValue, Value: "C", Original: "B"})
	require.Equal(t, 1, tracker.Len())
	require.Equal(t, "A", tracker.All()[0].Original)

	// Reverting to the first original drops the entry entirely.
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleOverview, Field: ColValue, Value: "A", Original: "C"})
	require.Equal(t, 0, tracker.Len())
}

func TestTrackerHandlesNonComparableValues(t *testing.T) {
	tracker := NewTracker()

	// Decoded JSON arrays and objects are not ==-comparable; Set must
	// treat a deep-equal revert as a revert instead of panicking.
	require.NotPanics(t, func() {
		tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleDSCR, Field: "tiers",
			Value: []any{1.0}, Original: []any{1.0}})
	})
	require.Equal(t, 0, tracker.Len())

	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleDSCR, Field: "tiers",
		Value: []any{2.0}, Original: []any{1.0}})
	require.Equal(t, 1, tracker.Len())

	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleDSCR, Field: "meta",
		Value: map[string]any{"a": 1.0}, Original: map[string]any{"a": 1.0}})
	require.Equal(t, 1, tracker.Len())
}

func TestTrackerOrderIsDeterministic(t *testing.T) {
	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 2, RowIndex: 1, Module: ModuleDSCR, Field: "b", Value: 1, Original: 0})
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleDSCR, Field: "a", Value: 1, Original: 0})
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleCorporateDebt, Field: "z", Value: 1, Original: 0})

	all := tracker.All()
	require.Len(t, all, 3)
	require.Equal(t, ModuleCorporateDebt, all[0].Module)
	require.Equal(t, int64(1), all[1].ProjectID)
	require.Equal(t, int64(2), all[2].ProjectID)
}

func TestTrackerModuleScopedRemove(t *testing.T) {
	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleDSCR, Field: "a", Value: 1, Original: 0})
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleCorporateDebt, Field: "a", Value: 1, Original: 0})

	tracker.Remove(ModuleDSCR)
	require.Equal(t, 1, tracker.Len())
	require.Empty(t, tracker.Module(ModuleDSCR))
	require.Len(t, tracker.Module(ModuleCorporateDebt), 1)
}

func TestTrackerRoundTripsThroughList(t *testing.T) {
	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 2, Module: ModuleEquipment, Field: "vendor", Value: "NewCo", Original: "OldCo"})

	rebuilt := FromList(tracker.ToList())
	require.Equal(t, tracker.All(), rebuilt.All())
}
