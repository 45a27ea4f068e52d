package intelligence

import (
	"github.com/oneview-energy/oneview/internal/upstream"
)

// Module names. The key doubles as the upstream submodule (finance) or
// module (technical) path segment.
const (
	ModuleOverview         = "overview"
	ModuleFinancingTerms   = "financing-terms"
	ModuleLender           = "lender-commitments"
	ModuleSwaps            = "swaps"
	ModuleLetterOfCredit   = "letter-of-credit"
	ModuleDSCR             = "dscr"
	ModuleCorporateDebt    = "corporate-debt"
	ModuleTaxEquity        = "tax-equity"
	ModuleParties          = "associated-parties"
	ModuleRefinancing      = "refinancing-summary"
	ModuleNonDesri         = "non-desri-ownership"
	ModuleSwapsSummary     = "swaps-summary"
	ModuleAmortSchedule    = "amort-schedule"
	ModuleEnergy           = "energy"
	ModuleTechOverview     = "technical-overview"
	ModuleEquipment        = "equipment"
	ModuleMilestones       = "milestones"
	ModuleEnergyProduction = "energy-production"
)

// Page names.
const (
	PageFinance   = "finance"
	PageTechnical = "technical"
)

// Selection is the per-module slice of the state handed to descriptors.
type Selection struct {
	Module     string
	SubGroups  []SubGroup
	Mode       Mode
	Datapoints map[string][]Datapoint
}

// ModuleDatapoints returns the datapoints selected directly under the module
// (the scope used by modules without sub-groups).
func (s Selection) ModuleDatapoints() []Datapoint {
	return s.Datapoints[s.Module]
}

// SubGroupDatapoints returns the datapoints selected under one sub-group.
func (s Selection) SubGroupDatapoints(subKey string) []Datapoint {
	return s.Datapoints[ScopeKey(s.Module, subKey)]
}

// SkippedEdit records a tracked change that could not be mapped to a save
// payload, typically because its backing record identity was unresolvable.
type SkippedEdit struct {
	Edit   Edit   `json:"edit"`
	Reason string `json:"reason"`
}

// SaveGroup is one atomic unit of persistence: all changed fields of one
// (project, module, record), shaped for whichever upstream save entry point
// the module uses.
type SaveGroup struct {
	ProjectID int64
	Module    string
	GroupKey  string

	// Table-backed modules update through UpdateProjectData.
	Table  string
	Record map[string]any

	// Finance submodules update through UpdateFinanceSubmodule.
	Submodule string
	Save      upstream.SubmoduleSave
}

// Descriptor is the per-module strategy: structure resolution, row
// extraction, column derivation and save payload construction. The
// module-specific branching of the pipeline lives behind this interface
// instead of being repeated at every call site.
type Descriptor interface {
	Name() string
	Label() string

	// FetchKind selects the upstream endpoint serving this module.
	FetchKind() upstream.FetchKind

	// HasSubGroups reports whether the module partitions into sub-groups.
	HasSubGroups() bool

	// AutoDatapoints reports whether selecting a sub-group implicitly
	// selects every datapoint under it, with no separate selection step.
	AutoDatapoints() bool

	// SingleSubGroup reports whether at most one sub-group may be active
	// (the Swaps vitals).
	SingleSubGroup() bool

	// ResolveStructure derives the module shape from one sample payload.
	// Unexpected shapes yield an empty structure, never an error.
	ResolveStructure(sample upstream.Payload) Structure

	// ExtractRows turns one project's raw payload into table rows under
	// the given selection. Deterministic and side-effect free.
	ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row

	// DeriveColumns computes the uniform column set for the given rows.
	DeriveColumns(rows []Row, sel Selection) []Column

	// BuildSaveGroups maps tracked edits onto save payloads using the
	// regenerated rows for identity resolution. Edits whose identity
	// cannot be resolved are reported as skipped, not sent malformed.
	BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit)
}

// Registry holds the module descriptors of both pages, in page order.
type Registry struct {
	order   []string
	modules map[string]Descriptor
}

// NewRegistry constructs the registry with every known module registered.
func NewRegistry() *Registry {
	r := &Registry{modules: make(map[string]Descriptor)}
	for _, desc := range []Descriptor{
		newFlatModule(ModuleOverview, "Overview", "project_overview", upstream.FetchSubmodule),
		newFinancingTermsModule(),
		newLenderModule(),
		newSwapsModule(),
		newLetterOfCreditModule(),
		newRecordModule(ModuleDSCR, "DSCR", "", upstream.FetchSubmodule),
		newRecordModule(ModuleCorporateDebt, "Corporate Debt", "", upstream.FetchSubmodule),
		newTaxEquityModule(),
		newPartiesModule(),
		newRefinancingModule(),
		newRecordModule(ModuleNonDesri, "Non-DESRI Ownership", "", upstream.FetchSubmodule),
		newJoinModule(ModuleSwapsSummary, "Swaps Summary", upstream.FetchSubmodule),
		newJoinModule(ModuleAmortSchedule, "Amort Schedule", upstream.FetchSubmodule),
		newFlatModule(ModuleEnergy, "Energy", "project_energy", upstream.FetchSubmodule),
		newFlatModule(ModuleTechOverview, "Technical Overview", "technical_overview", upstream.FetchModule),
		newRecordModule(ModuleEquipment, "Equipment", "project_equipment", upstream.FetchModule),
		newRecordModule(ModuleMilestones, "Milestones", "project_milestones", upstream.FetchModule),
		newJoinModule(ModuleEnergyProduction, "Energy Production", upstream.FetchModule),
	} {
		r.order = append(r.order, desc.Name())
		r.modules[desc.Name()] = desc
	}
	return r
}

// Get returns the descriptor for a module name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	desc, ok := r.modules[name]
	return desc, ok
}

// Names returns every registered module name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Page describes one intelligence page: its module roster and whether module
// selection is exclusive (Finance) or additive (Technical).
type Page struct {
	Name             string
	Modules          []string
	ExclusiveModules bool
}

// Pages returns the static page definitions.
func Pages() map[string]Page {
	return map[string]Page{
		PageFinance: {
			Name:             PageFinance,
			ExclusiveModules: true,
			Modules: []string{
				ModuleOverview,
				ModuleFinancingTerms,
				ModuleLender,
				ModuleSwaps,
				ModuleLetterOfCredit,
				ModuleDSCR,
				ModuleCorporateDebt,
				ModuleTaxEquity,
				ModuleParties,
				ModuleRefinancing,
				ModuleNonDesri,
				ModuleSwapsSummary,
				ModuleAmortSchedule,
				ModuleEnergy,
			},
		},
		PageTechnical: {
			Name:             PageTechnical,
			ExclusiveModules: false,
			Modules: []string{
				ModuleTechOverview,
				ModuleEquipment,
				ModuleMilestones,
				ModuleEnergyProduction,
			},
		},
	}
}
