package intelligence

import (
	"fmt"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// taxEquityModule renders one row per parameter, with a TE-type→value map
// across the selected tax-equity types, in the manner of Financing Terms but
// keyed on parameter rather than record lists.
//
// Raw shape: data = { teType: [ {parameter, value} ] };
// metadata = { teType: { parameter: recordID } }.
type taxEquityModule struct {
	moduleBase
}

func newTaxEquityModule() *taxEquityModule {
	return &taxEquityModule{moduleBase: moduleBase{
		name:  ModuleTaxEquity,
		label: "Tax Equity",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *taxEquityModule) HasSubGroups() bool { return true }

func (m *taxEquityModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	seen := make(map[string]bool)
	for _, teType := range sortedKeys(data) {
		records := asSlice(data[teType])
		if records == nil {
			continue
		}
		s.SubGroups = append(s.SubGroups, SubGroup{Key: teType, Label: teType})
		points := datapointsFromRecords(records, "parameter")
		s.DatapointsBySubGroup[teType] = points
		for _, dp := range points {
			if !seen[dp.Key] {
				seen[dp.Key] = true
				s.AllDatapoints = append(s.AllDatapoints, dp)
			}
		}
	}
	return s
}

func (m *taxEquityModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	meta := asMap(payload.Metadata)

	// Row per parameter in the union of the selected scopes, first-seen
	// order across TE types.
	var parameters []Datapoint
	seen := make(map[string]bool)
	for _, teType := range sel.SubGroups {
		for _, dp := range sel.SubGroupDatapoints(teType.Key) {
			if !seen[dp.Key] {
				seen[dp.Key] = true
				parameters = append(parameters, dp)
			}
		}
	}

	var rows []Row
	for _, dp := range parameters {
		row := Row{
			ProjectID:    project.ID,
			ProjectName:  project.Name,
			Module:       m.name,
			Datapoint:    dp.Label,
			DatapointKey: dp.Key,
			Cells:        make(map[string]any),
			CellIDs:      make(map[string]int64),
		}
		for _, teType := range sel.SubGroups {
			for _, entry := range asSlice(data[teType.Key]) {
				record := asMap(entry)
				if record == nil {
					continue
				}
				if name, _ := record["parameter"].(string); name != dp.Key {
					continue
				}
				row.Cells[teType.Key] = record["value"]
				row.CellIDs[teType.Key] = asInt64(asMap(meta[teType.Key])[dp.Key])
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *taxEquityModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColDatapoint, Title: "Parameter", Role: RoleLabel},
	}
	for _, teType := range cellKeyUnion(rows) {
		columns = append(columns, Column{Key: teType, Title: teType, Group: "Tax Equity Types", Role: RoleValue})
	}
	return columns
}

func (m *taxEquityModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[int64]*SaveGroup)
	var order []int64
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		recordID := row.CellIDs[edit.Field]
		if recordID == 0 {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "no backing record for tax equity type " + edit.Field})
			continue
		}
		group, ok := groups[recordID]
		if !ok {
			group = &SaveGroup{
				ProjectID: row.ProjectID,
				Module:    m.name,
				GroupKey:  fmt.Sprintf("%s/%d/%d", m.name, row.ProjectID, recordID),
				Submodule: m.name,
			}
			groups[recordID] = group
			order = append(order, recordID)
		}
		group.Save.Updates = append(group.Save.Updates, map[string]any{
			"id":    recordID,
			"value": edit.Value,
		})
	}
	out := make([]SaveGroup, 0, len(order))
	for _, recordID := range order {
		out = append(out, *groups[recordID])
	}
	return out, skipped
}
