package intelligence

import (
	"fmt"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// Swaps vital keys. The vitals are fixed: structure resolution never
// discovers them from data.
const (
	VitalSwapsSummary  = "swaps_summary"
	VitalAmortSchedule = "amort_schedule"
	VitalDebtVsSwaps   = "debt_vs_swaps"
)

var swapsVitals = []SubGroup{
	{Key: VitalSwapsSummary, Label: "Swaps Summary"},
	{Key: VitalAmortSchedule, Label: "Amort Schedule"},
	{Key: VitalDebtVsSwaps, Label: "Debt vs Swaps"},
}

// amortFields are the five named fields of an amortization schedule entry.
var amortFields = []Datapoint{
	{Key: "period_start_date", Label: "Period Start Date"},
	{Key: "period_end_date", Label: "Period End Date"},
	{Key: "principal_payment", Label: "Principal Payment"},
	{Key: "interest_payment", Label: "Interest Payment"},
	{Key: "ending_balance", Label: "Ending Balance"},
}

// swapsModule renders three structurally different row shapes depending on
// the active vital: schedule entries with five named fields, one row per
// parameter with a single value, or open parameter→value maps whose columns
// are discovered from data.
//
// Raw shape: data = { vitalKey: [ records ] };
// metadata = { debt_vs_swaps: { parameter: parameterID } }.
type swapsModule struct {
	moduleBase
}

func newSwapsModule() *swapsModule {
	return &swapsModule{moduleBase: moduleBase{
		name:  ModuleSwaps,
		label: "Swaps",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *swapsModule) HasSubGroups() bool   { return true }
func (m *swapsModule) AutoDatapoints() bool { return true }
func (m *swapsModule) SingleSubGroup() bool { return true }

func (m *swapsModule) ResolveStructure(sample upstream.Payload) Structure {
	// Always exactly three vitals, regardless of sample data.
	s := EmptyStructure()
	s.SubGroups = append([]SubGroup(nil), swapsVitals...)
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	s.DatapointsBySubGroup[VitalAmortSchedule] = append([]Datapoint(nil), amortFields...)

	data := asMap(sample.Data)
	if records := asSlice(data[VitalDebtVsSwaps]); records != nil {
		s.DatapointsBySubGroup[VitalDebtVsSwaps] = datapointsFromRecords(records, "parameter")
	}
	if records := asSlice(data[VitalSwapsSummary]); len(records) > 0 {
		if first := asMap(records[0]); first != nil {
			s.DatapointsBySubGroup[VitalSwapsSummary] = datapointsFromRecord(first)
		}
	}
	for _, vital := range s.SubGroups {
		s.AllDatapoints = append(s.AllDatapoints, s.DatapointsBySubGroup[vital.Key]...)
	}
	return s
}

// activeVital returns the single selected vital, if any.
func activeVital(sel Selection) (SubGroup, bool) {
	if len(sel.SubGroups) == 0 {
		return SubGroup{}, false
	}
	return sel.SubGroups[0], true
}

func (m *swapsModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	vital, ok := activeVital(sel)
	if !ok {
		return nil
	}
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	records := asSlice(data[vital.Key])

	switch vital.Key {
	case VitalAmortSchedule:
		return m.amortRows(project, vital, records)
	case VitalDebtVsSwaps:
		return m.debtVsSwapsRows(project, vital, records, asMap(payload.Metadata))
	default:
		return m.openRows(project, vital, records)
	}
}

func (m *swapsModule) amortRows(project upstream.Project, vital SubGroup, records []any) []Row {
	var rows []Row
	for _, entry := range records {
		record := asMap(entry)
		if record == nil {
			continue
		}
		cells := make(map[string]any, len(amortFields))
		for _, field := range amortFields {
			cells[field.Key] = record[field.Key]
		}
		rows = append(rows, Row{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Module:      m.name,
			SubGroup:    vital.Label,
			RecordID:    asInt64(record["id"]),
			Cells:       cells,
		})
	}
	return rows
}

func (m *swapsModule) debtVsSwapsRows(project upstream.Project, vital SubGroup, records []any, meta map[string]any) []Row {
	parameterIDs := asMap(meta[VitalDebtVsSwaps])
	var rows []Row
	for _, entry := range records {
		record := asMap(entry)
		if record == nil {
			continue
		}
		name, _ := record["parameter"].(string)
		if name == "" {
			continue
		}
		rows = append(rows, Row{
			ProjectID:    project.ID,
			ProjectName:  project.Name,
			Module:       m.name,
			SubGroup:     vital.Label,
			Datapoint:    name,
			DatapointKey: name,
			Value:        record["value"],
			ParameterID:  asInt64(parameterIDs[name]),
		})
	}
	return rows
}

func (m *swapsModule) openRows(project upstream.Project, vital SubGroup, records []any) []Row {
	var rows []Row
	for _, entry := range records {
		record := asMap(entry)
		if record == nil {
			continue
		}
		cells := make(map[string]any)
		for _, key := range recordFieldKeys(record) {
			cells[key] = record[key]
		}
		rows = append(rows, Row{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Module:      m.name,
			SubGroup:    vital.Label,
			RecordID:    asInt64(record["id"]),
			Cells:       cells,
		})
	}
	return rows
}

func (m *swapsModule) DeriveColumns(rows []Row, sel Selection) []Column {
	vital, ok := activeVital(sel)
	if !ok {
		return []Column{projectColumn()}
	}
	switch vital.Key {
	case VitalAmortSchedule:
		columns := []Column{projectColumn()}
		for _, field := range amortFields {
			columns = append(columns, Column{Key: field.Key, Title: field.Label, Role: RoleValue})
		}
		return columns
	case VitalDebtVsSwaps:
		return []Column{
			projectColumn(),
			{Key: ColDatapoint, Title: "Parameter", Role: RoleLabel},
			{Key: ColValue, Title: "Value", Role: RoleValue},
		}
	default:
		columns := []Column{projectColumn()}
		for _, key := range cellKeyUnion(rows) {
			columns = append(columns, Column{Key: key, Title: humanize(key), Role: RoleValue})
		}
		return columns
	}
}

func (m *swapsModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[string]*SaveGroup)
	var order []string
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		var key string
		var update map[string]any
		switch {
		case row.ParameterID != 0:
			key = fmt.Sprintf("%s/%d/param-%d", m.name, row.ProjectID, row.ParameterID)
			update = map[string]any{"parameter_id": row.ParameterID, "value": edit.Value}
		case row.RecordID != 0:
			key = fmt.Sprintf("%s/%d/%d", m.name, row.ProjectID, row.RecordID)
			update = map[string]any{"id": row.RecordID, edit.Field: edit.Value}
		default:
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "missing record identity"})
			continue
		}
		group, ok := groups[key]
		if !ok {
			group = &SaveGroup{
				ProjectID: row.ProjectID,
				Module:    m.name,
				GroupKey:  key,
				Submodule: m.name,
			}
			groups[key] = group
			order = append(order, key)
		}
		group.Save.Updates = append(group.Save.Updates, update)
	}
	out := make([]SaveGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, skipped
}
