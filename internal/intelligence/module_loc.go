package intelligence

import (
	"fmt"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// letterOfCreditModule renders one row per (LC type × instance). Records are
// sparse: each field of an instance may or may not have a backing record, so
// saves split into updates (field has a record id) and creates (field does
// not, carrying lc_type and lc_instance for the upstream to key on).
//
// Raw shape: data = { lcType: [ { field: value } ] };
// metadata = { lcType: [ { field: recordID } ] }, parallel by index.
type letterOfCreditModule struct {
	moduleBase
}

func newLetterOfCreditModule() *letterOfCreditModule {
	return &letterOfCreditModule{moduleBase: moduleBase{
		name:  ModuleLetterOfCredit,
		label: "Letter of Credit",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *letterOfCreditModule) HasSubGroups() bool   { return true }
func (m *letterOfCreditModule) AutoDatapoints() bool { return true }

func (m *letterOfCreditModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	seen := make(map[string]bool)
	for _, lcType := range sortedKeys(data) {
		instances := asSlice(data[lcType])
		if instances == nil {
			continue
		}
		s.SubGroups = append(s.SubGroups, SubGroup{Key: lcType, Label: lcType})
		var points []Datapoint
		for _, entry := range instances {
			instance := asMap(entry)
			if instance == nil {
				continue
			}
			for _, dp := range datapointsFromRecord(instance) {
				points = appendDatapointOnce(points, dp)
			}
		}
		s.DatapointsBySubGroup[lcType] = points
		for _, dp := range points {
			if !seen[dp.Key] {
				seen[dp.Key] = true
				s.AllDatapoints = append(s.AllDatapoints, dp)
			}
		}
	}
	return s
}

func appendDatapointOnce(points []Datapoint, dp Datapoint) []Datapoint {
	for _, have := range points {
		if have.Key == dp.Key {
			return points
		}
	}
	return append(points, dp)
}

func (m *letterOfCreditModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	meta := asMap(payload.Metadata)
	var rows []Row
	for _, lcType := range sel.SubGroups {
		instances := asSlice(data[lcType.Key])
		metaInstances := asSlice(meta[lcType.Key])
		for idx, entry := range instances {
			instance := asMap(entry)
			if instance == nil {
				continue
			}
			cells := make(map[string]any)
			for _, key := range recordFieldKeys(instance) {
				cells[key] = instance[key]
			}
			cellIDs := make(map[string]int64)
			if idx < len(metaInstances) {
				for key, id := range asMap(metaInstances[idx]) {
					cellIDs[key] = asInt64(id)
				}
			}
			rows = append(rows, Row{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				Module:      m.name,
				SubGroup:    lcType.Label,
				Instance:    idx,
				Cells:       cells,
				CellIDs:     cellIDs,
			})
		}
	}
	return rows
}

func (m *letterOfCreditModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColSubGroup, Title: "LC Type", Role: RoleLabel},
		{Key: ColInstance, Title: "Instance", Role: RoleLabel},
	}
	for _, key := range cellKeyUnion(rows) {
		columns = append(columns, Column{Key: key, Title: humanize(key), Role: RoleValue})
	}
	return columns
}

func (m *letterOfCreditModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[string]*SaveGroup)
	var order []string
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		key := fmt.Sprintf("%s/%d/%s/%d", m.name, row.ProjectID, row.SubGroup, row.Instance)
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
		// A field with a backing record updates it; a field without one
		// creates it, keyed by LC type and instance.
		if recordID := row.CellIDs[edit.Field]; recordID != 0 {
			group.Save.Updates = append(group.Save.Updates, map[string]any{
				"id":    recordID,
				"value": edit.Value,
			})
		} else {
			group.Save.Creates = append(group.Save.Creates, map[string]any{
				"lc_type":     row.SubGroup,
				"lc_instance": row.Instance,
				"field":       edit.Field,
				"value":       edit.Value,
			})
		}
	}
	out := make([]SaveGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, skipped
}
