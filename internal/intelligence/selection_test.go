package intelligence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, s *State, reg *Registry, actions ...Action) {
	t.Helper()
	for _, action := range actions {
		require.NoError(t, s.Apply(action, reg))
	}
}

func TestToggleProjectIsIdempotentPair(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	apply(t, s, reg, Action{Type: ActionToggleProject, ProjectID: 1})
	require.Equal(t, []int64{1}, s.Projects)

	apply(t, s, reg, Action{Type: ActionToggleProject, ProjectID: 1})
	require.Empty(t, s.Projects)
}

func TestLastProjectOffResetsFinancePage(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleOverview},
		Action{Type: ActionToggleDatapoint, Module: ModuleOverview, Datapoint: Datapoint{Key: "project_name", Label: "Project Name"}},
	)
	require.Len(t, s.Datapoints[ModuleOverview], 1)

	apply(t, s, reg, Action{Type: ActionToggleProject, ProjectID: 1})
	require.Empty(t, s.Projects)
	require.Empty(t, s.Modules)
	require.Empty(t, s.Datapoints)
}

func TestFinanceModuleSelectionIsExclusive(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleOverview},
		Action{Type: ActionToggleDatapoint, Module: ModuleOverview, Datapoint: Datapoint{Key: "status", Label: "Status"}},
		Action{Type: ActionToggleModule, Module: ModuleDSCR},
	)

	require.Equal(t, []string{ModuleDSCR}, s.Modules)
	// Switching modules purged the previous module's datapoints.
	require.Empty(t, s.Datapoints[ModuleOverview])
}

func TestTechnicalModuleSelectionIsAdditive(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageTechnical)

	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 7},
		Action{Type: ActionToggleModule, Module: ModuleTechOverview},
		Action{Type: ActionToggleModule, Module: ModuleEquipment},
	)
	require.Equal(t, []string{ModuleTechOverview, ModuleEquipment}, s.Modules)
}

func TestModuleNotOnPageRejected(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageTechnical)

	err := s.Apply(Action{Type: ActionToggleModule, Module: ModuleSwaps}, reg)
	require.Error(t, err)
}

func TestSwapsVitalSelectionIsSingle(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	structure := Structure{
		SubGroups: swapsVitals,
		DatapointsBySubGroup: map[string][]Datapoint{
			VitalAmortSchedule: amortFields,
			VitalDebtVsSwaps:   {{Key: "Total Debt", Label: "Total Debt"}},
		},
	}
	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleSwaps},
		Action{Type: ActionSetStructure, Module: ModuleSwaps, Structure: &structure},
		Action{Type: ActionToggleSubGroup, Module: ModuleSwaps, SubGroup: SubGroup{Key: VitalAmortSchedule, Label: "Amort Schedule"}},
	)

	// Selecting a vital auto-selects its datapoints.
	require.Len(t, s.SubGroups[ModuleSwaps], 1)
	require.Len(t, s.Datapoints[ScopeKey(ModuleSwaps, VitalAmortSchedule)], len(amortFields))

	// Selecting another vital replaces the first and purges its scope.
	apply(t, s, reg, Action{Type: ActionToggleSubGroup, Module: ModuleSwaps, SubGroup: SubGroup{Key: VitalDebtVsSwaps, Label: "Debt vs Swaps"}})
	require.Equal(t, VitalDebtVsSwaps, s.SubGroups[ModuleSwaps][0].Key)
	require.Empty(t, s.Datapoints[ScopeKey(ModuleSwaps, VitalAmortSchedule)])
	require.Len(t, s.Datapoints[ScopeKey(ModuleSwaps, VitalDebtVsSwaps)], 1)
}

func TestSetModeAllSelectsEverySubGroupDatapoint(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	structure := Structure{
		SubGroups: []SubGroup{{Key: "Construction", Label: "Construction"}, {Key: "Term", Label: "Term"}},
		DatapointsBySubGroup: map[string][]Datapoint{
			"Construction": {{Key: "Loan Amount", Label: "Loan Amount"}},
			"Term":         {{Key: "Loan Amount", Label: "Loan Amount"}, {Key: "Tenor", Label: "Tenor"}},
		},
	}
	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleFinancingTerms},
		Action{Type: ActionSetStructure, Module: ModuleFinancingTerms, Structure: &structure},
		Action{Type: ActionToggleSubGroup, Module: ModuleFinancingTerms, SubGroup: SubGroup{Key: "Construction", Label: "Construction"}},
		Action{Type: ActionToggleSubGroup, Module: ModuleFinancingTerms, SubGroup: SubGroup{Key: "Term", Label: "Term"}},
		Action{Type: ActionSetMode, Module: ModuleFinancingTerms, Mode: ModeAll},
	)

	require.Len(t, s.Datapoints[ScopeKey(ModuleFinancingTerms, "Construction")], 1)
	require.Len(t, s.Datapoints[ScopeKey(ModuleFinancingTerms, "Term")], 2)

	// Switching back to custom requires explicit re-selection.
	apply(t, s, reg, Action{Type: ActionSetMode, Module: ModuleFinancingTerms, Mode: ModeCustom})
	require.Empty(t, s.Datapoints)
}

func TestVersionIncrementsPerAction(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleOverview},
	)
	require.Equal(t, int64(2), s.Version)

	require.Error(t, s.Apply(Action{Type: ActionSetMode, Module: ModuleDSCR, Mode: ModeAll}, reg))
	require.Equal(t, int64(2), s.Version, "rejected actions must not bump the version")
}

func TestResetClearsEverything(t *testing.T) {
	reg := NewRegistry()
	s := NewState(PageFinance)

	apply(t, s, reg,
		Action{Type: ActionToggleProject, ProjectID: 1},
		Action{Type: ActionToggleModule, Module: ModuleOverview},
		Action{Type: ActionReset},
	)
	require.Empty(t, s.Projects)
	require.Empty(t, s.Modules)
	require.Empty(t, s.SubGroups)
	require.Empty(t, s.Datapoints)
	require.Empty(t, s.Structures)
}
