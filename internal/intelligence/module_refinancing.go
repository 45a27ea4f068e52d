package intelligence

import (
	"fmt"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// refinancingModule renders one read-only row per parameter, with the full
// historical value list spread across refi_N columns. Projects that never
// refinanced render the placeholder literal in every historical column.
//
// Raw shape: data = { parameter: [ values ] }, oldest first.
type refinancingModule struct {
	moduleBase
}

func newRefinancingModule() *refinancingModule {
	return &refinancingModule{moduleBase: moduleBase{
		name:  ModuleRefinancing,
		label: "Refinancing Summary",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *refinancingModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	for _, parameter := range sortedKeys(data) {
		s.AllDatapoints = append(s.AllDatapoints, Datapoint{Key: parameter, Label: parameter})
	}
	return s
}

func (m *refinancingModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	var rows []Row
	for _, dp := range sel.ModuleDatapoints() {
		var values []any
		if data != nil {
			values = asSlice(data[dp.Key])
		}
		rows = append(rows, Row{
			ProjectID:    project.ID,
			ProjectName:  project.Name,
			Module:       m.name,
			Datapoint:    dp.Label,
			DatapointKey: dp.Key,
			RefiValues:   values,
		})
	}
	return rows
}

func (m *refinancingModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColDatapoint, Title: "Parameter", Role: RoleLabel},
	}
	for i := 0; i < maxRefiInstances(rows); i++ {
		columns = append(columns, Column{
			Key:   fmt.Sprintf("%s%d", refiColPrefix, i+1),
			Title: fmt.Sprintf("Refinancing %d", i+1),
			Group: "History",
			Role:  RoleValue,
		})
	}
	return columns
}
