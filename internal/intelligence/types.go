// Package intelligence implements the OneView datapoint-selection and
// table-generation pipeline: selection state and its reducer, per-module
// structure resolution, row generation, column derivation, cell formatting,
// edit tracking and save orchestration. Everything in this package is a pure
// transformation over selection state plus raw upstream payloads; the only
// mutable state a caller persists is the selection itself and pending edits.
package intelligence

// SubGroup is a named partition within a module: a financing-terms section,
// a loan type, a swap vital, a counterparty type.
type SubGroup struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Datapoint identifies one selectable field within a module or sub-group.
type Datapoint struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Structure is the normalized shape descriptor of a module: its sub-groups
// and the datapoints available under each. Modules without sub-groups carry
// everything in AllDatapoints.
type Structure struct {
	SubGroups            []SubGroup             `json:"sub_groups"`
	DatapointsBySubGroup map[string][]Datapoint `json:"datapoints_by_sub_group,omitempty"`
	AllDatapoints        []Datapoint            `json:"all_datapoints"`
}

// EmptyStructure is what the resolver returns when the sample fetch failed or
// the payload has an unexpected shape: nothing selectable yet, not an error.
func EmptyStructure() Structure {
	return Structure{
		SubGroups:     []SubGroup{},
		AllDatapoints: []Datapoint{},
	}
}

// PartyRef carries the backing identifiers for one party value of an
// Associated Parties row, parallel to Row.Parties.
type PartyRef struct {
	ID                 int64 `json:"id"`
	CounterpartyTypeID int64 `json:"counterparty_type_id"`
	ParameterID        int64 `json:"parameter_id"`
	PartyInstance      int   `json:"party_instance"`
}

// Row is the central denormalized unit of the pipeline: one render-ready
// record carrying project identity, module, and module-specific fields. Rows
// are recomputed from (selection state, raw data) on every render and before
// every save; they are never stored.
type Row struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
	Module      string `json:"module"`

	// SubGroup holds the section / vital / loan type / counterparty type
	// this row belongs to, for modules that have sub-groups.
	SubGroup string `json:"sub_group,omitempty"`

	// Datapoint names the field for one-row-per-datapoint modules;
	// DatapointKey is its stable key, used for save addressing.
	Datapoint    string `json:"datapoint,omitempty"`
	DatapointKey string `json:"-"`

	// Value carries the single value of simple modules.
	Value any `json:"value,omitempty"`

	// Cells maps dynamic sub-column keys (loan types, TE types, swap
	// parameters, record fields) to values.
	Cells map[string]any `json:"cells,omitempty"`

	// CellIDs maps sub-column keys to backing record ids. Used only for
	// persistence, never rendered.
	CellIDs map[string]int64 `json:"-"`

	// RecordID is the backing record id for one-row-per-record modules.
	RecordID int64 `json:"-"`

	// ParameterID backs Debt vs Swaps rows.
	ParameterID int64 `json:"-"`

	// Instance is the 0-based instance index for Letter of Credit rows.
	Instance int `json:"instance,omitempty"`

	// Parties is the ordered party value list of Associated Parties rows;
	// PartyMeta is its parallel identity list.
	Parties   []any      `json:"parties,omitempty"`
	PartyMeta []PartyRef `json:"-"`

	// RefiValues is the ordered historical value list of Refinancing
	// Summary rows.
	RefiValues []any `json:"refi_values,omitempty"`
}

// ColumnRole distinguishes label columns from value columns so the exporter
// can pick widths per role.
type ColumnRole int

const (
	RoleLabel ColumnRole = iota
	RoleValue
)

// Column describes one table column. Contiguous columns sharing a Group are
// rendered under a merged group header in spreadsheet exports.
type Column struct {
	Key   string     `json:"key"`
	Title string     `json:"title"`
	Group string     `json:"group,omitempty"`
	Role  ColumnRole `json:"-"`
}

// Table is the uniform row/column model of one module, ready for on-screen
// rendering and export alike.
type Table struct {
	Module  string   `json:"module"`
	Label   string   `json:"label"`
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Reserved column keys shared by most modules.
const (
	ColProject   = "project"
	ColSubGroup  = "sub_group"
	ColDatapoint = "datapoint"
	ColValue     = "value"
	ColInstance  = "instance"
)
