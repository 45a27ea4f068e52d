package intelligence

import (
	"fmt"
	"strings"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// moduleBase carries the identity and default traits shared by all module
// descriptors. Specific modules embed it and override what differs.
type moduleBase struct {
	name  string
	label string
	kind  upstream.FetchKind
}

func (m moduleBase) Name() string                 { return m.name }
func (m moduleBase) Label() string                { return m.label }
func (m moduleBase) FetchKind() upstream.FetchKind { return m.kind }
func (m moduleBase) HasSubGroups() bool           { return false }
func (m moduleBase) AutoDatapoints() bool         { return false }
func (m moduleBase) SingleSubGroup() bool         { return false }

// BuildSaveGroups defaults to read-only: every edit is skipped.
func (m moduleBase) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	skipped := make([]SkippedEdit, 0, len(edits))
	for _, edit := range edits {
		skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "module is read-only"})
	}
	return nil, skipped
}

// rowAt resolves an edit's row by table index, checking project identity.
func rowAt(rows []Row, edit Edit) (Row, bool) {
	if edit.RowIndex < 0 || edit.RowIndex >= len(rows) {
		return Row{}, false
	}
	row := rows[edit.RowIndex]
	if row.ProjectID != edit.ProjectID {
		return Row{}, false
	}
	return row, true
}

// flatModule serves modules whose raw shape is a flat key→value object
// (Overview, Energy, Technical Overview): one row per selected datapoint
// with a direct key lookup.
type flatModule struct {
	moduleBase
	table string
}

func newFlatModule(name, label, table string, kind upstream.FetchKind) *flatModule {
	return &flatModule{moduleBase: moduleBase{name: name, label: label, kind: kind}, table: table}
}

// Table names the upstream table backing this module's records.
func (m *flatModule) Table() string { return m.table }

func (m *flatModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.AllDatapoints = datapointsFromRecord(data)
	return s
}

func (m *flatModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	recordID := asInt64(data["id"])
	var rows []Row
	for _, dp := range sel.ModuleDatapoints() {
		rows = append(rows, Row{
			ProjectID:    project.ID,
			ProjectName:  project.Name,
			Module:       m.name,
			Datapoint:    dp.Label,
			DatapointKey: dp.Key,
			Value:        data[dp.Key],
			RecordID:     recordID,
		})
	}
	return rows
}

func (m *flatModule) DeriveColumns(rows []Row, sel Selection) []Column {
	return []Column{
		projectColumn(),
		{Key: ColDatapoint, Title: "Datapoint", Role: RoleLabel},
		{Key: ColValue, Title: "Value", Role: RoleValue},
	}
}

func (m *flatModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[int64]*SaveGroup)
	var order []int64
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok || row.DatapointKey == "" {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		if row.RecordID == 0 {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "missing record id"})
			continue
		}
		group, ok := groups[row.ProjectID]
		if !ok {
			group = &SaveGroup{
				ProjectID: row.ProjectID,
				Module:    m.name,
				GroupKey:  fmt.Sprintf("%s/%d/%d", m.name, row.ProjectID, row.RecordID),
				Table:     m.table,
				Record:    map[string]any{"id": row.RecordID},
			}
			groups[row.ProjectID] = group
			order = append(order, row.ProjectID)
		}
		group.Record[row.DatapointKey] = edit.Value
	}
	out := make([]SaveGroup, 0, len(order))
	for _, projectID := range order {
		out = append(out, *groups[projectID])
	}
	return out, skipped
}

// joinModule serves read-only multi-record preview modules (Swaps Summary,
// Amort Schedule, Energy Production): one row per selected datapoint whose
// value joins the field across all records.
type joinModule struct {
	moduleBase
}

func newJoinModule(name, label string, kind upstream.FetchKind) *joinModule {
	return &joinModule{moduleBase: moduleBase{name: name, label: label, kind: kind}}
}

func (m *joinModule) ResolveStructure(sample upstream.Payload) Structure {
	records := asSlice(sample.Data)
	if len(records) == 0 {
		return EmptyStructure()
	}
	first := asMap(records[0])
	if first == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.AllDatapoints = datapointsFromRecord(first)
	return s
}

func (m *joinModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	records := asSlice(payload.Data)
	var rows []Row
	for _, dp := range sel.ModuleDatapoints() {
		pieces := make([]string, 0, len(records))
		for _, entry := range records {
			record := asMap(entry)
			if record == nil {
				continue
			}
			pieces = append(pieces, FormatValue(record[dp.Key], dp.Key))
		}
		value := any(strings.Join(pieces, ", "))
		if len(pieces) == 0 {
			value = nil
		}
		rows = append(rows, Row{
			ProjectID:    project.ID,
			ProjectName:  project.Name,
			Module:       m.name,
			Datapoint:    dp.Label,
			DatapointKey: dp.Key,
			Value:        value,
		})
	}
	return rows
}

func (m *joinModule) DeriveColumns(rows []Row, sel Selection) []Column {
	return []Column{
		projectColumn(),
		{Key: ColDatapoint, Title: "Datapoint", Role: RoleLabel},
		{Key: ColValue, Title: "Value", Role: RoleValue},
	}
}

// recordModule serves modules that render one row per backing record with
// the record id carried directly (DSCR, Corporate Debt, Non-DESRI Ownership,
// Equipment, Milestones).
type recordModule struct {
	moduleBase
	table string
}

// Table names the upstream table backing this module's records. Empty for
// submodule-backed modules, which save through the submodule endpoint.
func (m *recordModule) Table() string { return m.table }

func newRecordModule(name, label, table string, kind upstream.FetchKind) *recordModule {
	return &recordModule{moduleBase: moduleBase{name: name, label: label, kind: kind}, table: table}
}

func (m *recordModule) ResolveStructure(sample upstream.Payload) Structure {
	records := asSlice(sample.Data)
	if len(records) == 0 {
		return EmptyStructure()
	}
	first := asMap(records[0])
	if first == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.AllDatapoints = datapointsFromRecord(first)
	return s
}

func (m *recordModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	records := asSlice(payload.Data)
	var rows []Row
	for _, entry := range records {
		record := asMap(entry)
		if record == nil {
			continue
		}
		cells := make(map[string]any, len(record))
		for _, key := range recordFieldKeys(record) {
			cells[key] = record[key]
		}
		rows = append(rows, Row{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			Module:      m.name,
			RecordID:    asInt64(record["id"]),
			Cells:       cells,
		})
	}
	return rows
}

func (m *recordModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{projectColumn()}
	points := sel.ModuleDatapoints()
	if len(points) > 0 {
		for _, dp := range points {
			columns = append(columns, Column{Key: dp.Key, Title: dp.Label, Role: RoleValue})
		}
		return columns
	}
	for _, key := range cellKeyUnion(rows) {
		columns = append(columns, Column{Key: key, Title: humanize(key), Role: RoleValue})
	}
	return columns
}

func (m *recordModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	type groupKey struct {
		projectID int64
		recordID  int64
	}
	groups := make(map[groupKey]*SaveGroup)
	var order []groupKey
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
		key := groupKey{projectID: row.ProjectID, recordID: row.RecordID}
		group, ok := groups[key]
		if !ok {
			group = &SaveGroup{
				ProjectID: row.ProjectID,
				Module:    m.name,
				GroupKey:  fmt.Sprintf("%s/%d/%d", m.name, row.ProjectID, row.RecordID),
			}
			if m.kind == upstream.FetchSubmodule {
				group.Submodule = m.name
				group.Save = upstream.SubmoduleSave{
					Updates: []map[string]any{{"id": row.RecordID}},
				}
			} else {
				group.Table = m.table
				group.Record = map[string]any{"id": row.RecordID}
			}
			groups[key] = group
			order = append(order, key)
		}
		if group.Record != nil {
			group.Record[edit.Field] = edit.Value
		} else {
			group.Save.Updates[0][edit.Field] = edit.Value
		}
	}
	out := make([]SaveGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, skipped
}
