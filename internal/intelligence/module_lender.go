package intelligence

import (
	"fmt"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// lenderColumns is the fixed per-loan-type column list: Lender Commitments
// never discovers columns from data.
var lenderColumns = []Datapoint{
	{Key: "Lender", Label: "Lender"},
	{Key: "Commitment ($)", Label: "Commitment ($)"},
	{Key: "Outstanding Amount ($)", Label: "Outstanding Amount ($)"},
	{Key: "Maturity Date", Label: "Maturity Date"},
	{Key: "Interest Rate (%)", Label: "Interest Rate (%)"},
}

// lenderModule renders one row per (loan type × lender) pair found in the
// data, regardless of datapoint selection.
//
// Raw shape: data = { loanType: { lender: { field: value } } };
// metadata = { loanType: { lender: recordID } }.
type lenderModule struct {
	moduleBase
}

func newLenderModule() *lenderModule {
	return &lenderModule{moduleBase: moduleBase{
		name:  ModuleLender,
		label: "Lender Commitments",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *lenderModule) HasSubGroups() bool   { return true }
func (m *lenderModule) AutoDatapoints() bool { return true }

func (m *lenderModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	for _, loanType := range sortedKeys(data) {
		s.SubGroups = append(s.SubGroups, SubGroup{Key: loanType, Label: loanType})
		s.DatapointsBySubGroup[loanType] = append([]Datapoint(nil), lenderColumns...)
	}
	s.AllDatapoints = append([]Datapoint(nil), lenderColumns...)
	return s
}

func (m *lenderModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	meta := asMap(payload.Metadata)
	var rows []Row
	for _, loanType := range sel.SubGroups {
		lenders := asMap(data[loanType.Key])
		metaLenders := asMap(meta[loanType.Key])
		for _, lender := range sortedKeys(lenders) {
			fields := asMap(lenders[lender])
			if fields == nil {
				continue
			}
			cells := map[string]any{"Lender": lender}
			for key, value := range fields {
				cells[key] = value
			}
			rows = append(rows, Row{
				ProjectID:   project.ID,
				ProjectName: project.Name,
				Module:      m.name,
				SubGroup:    loanType.Label,
				Cells:       cells,
				RecordID:    asInt64(metaLenders[lender]),
			})
		}
	}
	return rows
}

func (m *lenderModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColSubGroup, Title: "Loan Type", Role: RoleLabel},
	}
	for _, dp := range lenderColumns {
		role := RoleValue
		if dp.Key == "Lender" {
			role = RoleLabel
		}
		columns = append(columns, Column{Key: dp.Key, Title: dp.Label, Role: role})
	}
	return columns
}

func (m *lenderModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[int64]*SaveGroup)
	var order []int64
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		if row.RecordID == 0 {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "missing record id"})
			continue
		}
		group, ok := groups[row.RecordID]
		if !ok {
			group = &SaveGroup{
				ProjectID: row.ProjectID,
				Module:    m.name,
				GroupKey:  fmt.Sprintf("%s/%d/%d", m.name, row.ProjectID, row.RecordID),
				Submodule: m.name,
				Save: upstream.SubmoduleSave{
					Updates: []map[string]any{{"id": row.RecordID}},
				},
			}
			groups[row.RecordID] = group
			order = append(order, row.RecordID)
		}
		group.Save.Updates[0][edit.Field] = edit.Value
	}
	out := make([]SaveGroup, 0, len(order))
	for _, recordID := range order {
		out = append(out, *groups[recordID])
	}
	return out, skipped
}
