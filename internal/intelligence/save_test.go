package intelligence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oneview-energy/oneview/internal/upstream"
)

type fakeSaver struct {
	mu          sync.Mutex
	tableCalls  []tableCall
	subCalls    []submoduleCall
	failSubs    map[string]error
	failTables  map[string]error
}

type tableCall struct {
	table     string
	projectID int64
	record    map[string]any
}

type submoduleCall struct {
	submodule string
	projectID int64
	save      upstream.SubmoduleSave
}

func (f *fakeSaver) UpdateProjectData(ctx context.Context, table string, projectID int64, record map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTables[table]; err != nil {
		return err
	}
	f.tableCalls = append(f.tableCalls, tableCall{table: table, projectID: projectID, record: record})
	return nil
}

func (f *fakeSaver) UpdateFinanceSubmodule(ctx context.Context, submodule string, projectID int64, save upstream.SubmoduleSave) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSubs[submodule]; err != nil {
		return err
	}
	f.subCalls = append(f.subCalls, submoduleCall{submodule: submodule, projectID: projectID, save: save})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func energySaveFixture(t *testing.T, reg *Registry) (*State, upstream.Snapshot) {
	t.Helper()
	structure := Structure{AllDatapoints: []Datapoint{{Key: "capacity_mw", Label: "Capacity MW"}}}
	s := financeState(t, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleEnergy},
		Action{Type: ActionSetStructure, Module: ModuleEnergy, Structure: &structure},
		Action{Type: ActionToggleDatapoint, Module: ModuleEnergy, Datapoint: Datapoint{Key: "capacity_mw", Label: "Capacity MW"}},
	)
	snap := upstream.Snapshot{
		{ProjectID: 1, Module: ModuleEnergy}: {Data: map[string]any{"id": 77.0, "capacity_mw": 150.0}},
	}
	return s, snap
}

func TestSavePersistsEditedFieldsAndClearsTracker(t *testing.T) {
	reg := NewRegistry()
	state, snap := energySaveFixture(t, reg)

	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleEnergy, Field: ColValue, Value: 175.0, Original: 150.0})

	saver := &fakeSaver{}
	orch := NewOrchestrator(reg, saver, testLogger(), nil)
	result := orch.Save(context.Background(), state, testProjects, snap, tracker)

	require.True(t, result.Ok())
	require.Len(t, result.Saved, 1)
	require.Empty(t, result.Skipped)
	require.Equal(t, 0, tracker.Len())

	require.Len(t, saver.tableCalls, 1)
	call := saver.tableCalls[0]
	require.Equal(t, "project_energy", call.table)
	require.Equal(t, int64(1), call.projectID)
	require.Equal(t, map[string]any{"id": int64(77), "capacity_mw": 175.0}, call.record)
}

func TestSaveKeepsEditsOfFailedModule(t *testing.T) {
	reg := NewRegistry()
	state, snap := energySaveFixture(t, reg)

	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleEnergy, Field: ColValue, Value: 175.0, Original: 150.0})

	saver := &fakeSaver{failTables: map[string]error{"project_energy": errors.New("upstream rejected")}}
	orch := NewOrchestrator(reg, saver, testLogger(), nil)
	result := orch.Save(context.Background(), state, testProjects, snap, tracker)

	require.False(t, result.Ok())
	require.Len(t, result.Failed, 1)
	require.Equal(t, ModuleEnergy, result.Failed[0].Module)
	require.Equal(t, 1, tracker.Len(), "failed edits stay pending for retry")
}

func TestSaveReportsUnmappableEditsAsSkipped(t *testing.T) {
	reg := NewRegistry()
	state, snap := energySaveFixture(t, reg)
	// A record id of zero makes the edit unmappable.
	snap[upstream.SlotKey{ProjectID: 1, Module: ModuleEnergy}] = upstream.Payload{
		Data: map[string]any{"capacity_mw": 150.0},
	}

	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleEnergy, Field: ColValue, Value: 175.0, Original: 150.0})

	saver := &fakeSaver{}
	orch := NewOrchestrator(reg, saver, testLogger(), nil)
	result := orch.Save(context.Background(), state, testProjects, snap, tracker)

	require.True(t, result.Ok())
	require.Empty(t, result.Saved)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, 0, tracker.Len(), "dead edits are dropped, not retried forever")
	require.Empty(t, saver.tableCalls)
}

func TestSaveDispatchesSubmoduleGroups(t *testing.T) {
	reg := NewRegistry()
	structure := Structure{
		SubGroups: []SubGroup{{Key: "Term Loan", Label: "Term Loan"}},
		DatapointsBySubGroup: map[string][]Datapoint{
			"Term Loan": lenderColumns,
		},
	}
	state := financeState(t, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleLender},
		Action{Type: ActionSetStructure, Module: ModuleLender, Structure: &structure},
		Action{Type: ActionToggleSubGroup, Module: ModuleLender, SubGroup: SubGroup{Key: "Term Loan", Label: "Term Loan"}},
	)
	snap := upstream.Snapshot{
		{ProjectID: 1, Module: ModuleLender}: {
			Data: map[string]any{
				"Term Loan": map[string]any{
					"BankA": map[string]any{"Commitment ($)": 1000000.0, "Maturity Date": "2030-06-30"},
				},
			},
			Metadata: map[string]any{
				"Term Loan": map[string]any{"BankA": 42.0},
			},
		},
	}

	tracker := NewTracker()
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleLender, Field: "Commitment ($)", Value: 1250000.0, Original: 1000000.0})
	tracker.Set(Edit{ProjectID: 1, RowIndex: 0, Module: ModuleLender, Field: "Maturity Date", Value: "2031-06-30", Original: "2030-06-30"})

	saver := &fakeSaver{}
	orch := NewOrchestrator(reg, saver, testLogger(), nil)
	result := orch.Save(context.Background(), state, testProjects, snap, tracker)

	require.True(t, result.Ok())
	// Both field edits collapse into one group for the one backing record.
	require.Len(t, result.Saved, 1)
	require.Len(t, saver.subCalls, 1)
	call := saver.subCalls[0]
	require.Equal(t, ModuleLender, call.submodule)
	require.Len(t, call.save.Updates, 1)
	require.Equal(t, int64(42), call.save.Updates[0]["id"])
	require.Equal(t, 1250000.0, call.save.Updates[0]["Commitment ($)"])
	require.Equal(t, "2031-06-30", call.save.Updates[0]["Maturity Date"])
}
