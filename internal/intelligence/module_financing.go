package intelligence

import (
	"fmt"
	"strings"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// financingFieldSep joins datapoint key and loan type into the composite
// field key used for Financing Terms edits. The save builder strips the
// datapoint prefix back off to find the loan-type cell.
const financingFieldSep = "::"

// FinancingField builds the composite edit field key for one loan-type cell.
func FinancingField(datapointKey, loanType string) string {
	return datapointKey + financingFieldSep + loanType
}

// financingTermsModule renders one row per (section × datapoint), with a
// loan-type→value map per row and a parallel loan-type→record-id map used
// only for saves.
//
// Raw shape: data = { section: [ {id, parameter, loan_type, value} ] }.
type financingTermsModule struct {
	moduleBase
}

func newFinancingTermsModule() *financingTermsModule {
	return &financingTermsModule{moduleBase: moduleBase{
		name:  ModuleFinancingTerms,
		label: "Financing Terms",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *financingTermsModule) HasSubGroups() bool { return true }

func (m *financingTermsModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	for _, section := range sortedKeys(data) {
		records := asSlice(data[section])
		if records == nil {
			continue
		}
		s.SubGroups = append(s.SubGroups, SubGroup{Key: section, Label: section})
		points := datapointsFromRecords(records, "parameter")
		s.DatapointsBySubGroup[section] = points
		s.AllDatapoints = append(s.AllDatapoints, points...)
	}
	return s
}

func (m *financingTermsModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	var rows []Row
	for _, section := range sel.SubGroups {
		records := asSlice(data[section.Key])
		for _, dp := range sel.SubGroupDatapoints(section.Key) {
			row := Row{
				ProjectID:    project.ID,
				ProjectName:  project.Name,
				Module:       m.name,
				SubGroup:     section.Label,
				Datapoint:    dp.Label,
				DatapointKey: dp.Key,
				Cells:        make(map[string]any),
				CellIDs:      make(map[string]int64),
			}
			for _, entry := range records {
				record := asMap(entry)
				if record == nil {
					continue
				}
				if name, _ := record["parameter"].(string); name != dp.Key {
					continue
				}
				loanType, _ := record["loan_type"].(string)
				if loanType == "" {
					continue
				}
				row.Cells[loanType] = record["value"]
				row.CellIDs[loanType] = asInt64(record["id"])
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (m *financingTermsModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColSubGroup, Title: "Section", Role: RoleLabel},
		{Key: ColDatapoint, Title: "Datapoint", Role: RoleLabel},
	}
	for _, loanType := range cellKeyUnion(rows) {
		columns = append(columns, Column{Key: loanType, Title: loanType, Group: "Loan Types", Role: RoleValue})
	}
	return columns
}

func (m *financingTermsModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[int64]*SaveGroup)
	var order []int64
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		// The composite field key is "<datapoint>::<loan type>"; the
		// datapoint prefix belongs to the row, the loan type addresses
		// the cell.
		loanType := edit.Field
		if prefix := row.DatapointKey + financingFieldSep; strings.HasPrefix(edit.Field, prefix) {
			loanType = strings.TrimPrefix(edit.Field, prefix)
		}
		recordID := row.CellIDs[loanType]
		if recordID == 0 {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "no backing record for loan type " + loanType})
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
