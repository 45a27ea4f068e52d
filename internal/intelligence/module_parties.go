package intelligence

import (
	"fmt"
	"strings"

	"github.com/oneview-energy/oneview/internal/upstream"
)

// partiesModule renders one row per (counterparty type × parameter) with the
// full ordered party list laid out across party_N columns. PartyMeta carries
// the backing identity of each slot; an edited slot with an id updates its
// record, a slot without one creates a record by borrowing the counterparty
// and parameter ids from a sibling slot on the same row.
//
// Raw shape: data = { cpType: { parameter: [ values ] } };
// metadata = { cpType: { parameter: [ {id, counterparty_type_id,
// parameter_id, party_instance} ] } }, parallel by index.
type partiesModule struct {
	moduleBase
}

func newPartiesModule() *partiesModule {
	return &partiesModule{moduleBase: moduleBase{
		name:  ModuleParties,
		label: "Associated Parties",
		kind:  upstream.FetchSubmodule,
	}}
}

func (m *partiesModule) HasSubGroups() bool   { return true }
func (m *partiesModule) AutoDatapoints() bool { return true }

func (m *partiesModule) ResolveStructure(sample upstream.Payload) Structure {
	data := asMap(sample.Data)
	if data == nil {
		return EmptyStructure()
	}
	s := EmptyStructure()
	s.DatapointsBySubGroup = make(map[string][]Datapoint)
	seen := make(map[string]bool)
	for _, cpType := range sortedKeys(data) {
		parameters := asMap(data[cpType])
		if parameters == nil {
			continue
		}
		s.SubGroups = append(s.SubGroups, SubGroup{Key: cpType, Label: cpType})
		var points []Datapoint
		for _, parameter := range sortedKeys(parameters) {
			points = append(points, Datapoint{Key: parameter, Label: parameter})
			if !seen[parameter] {
				seen[parameter] = true
				s.AllDatapoints = append(s.AllDatapoints, Datapoint{Key: parameter, Label: parameter})
			}
		}
		s.DatapointsBySubGroup[cpType] = points
	}
	return s
}

func (m *partiesModule) ExtractRows(project upstream.Project, payload upstream.Payload, sel Selection) []Row {
	data := asMap(payload.Data)
	if data == nil {
		return nil
	}
	meta := asMap(payload.Metadata)
	var rows []Row
	for _, cpType := range sel.SubGroups {
		parameters := asMap(data[cpType.Key])
		metaParams := asMap(meta[cpType.Key])
		for _, parameter := range sortedKeys(parameters) {
			values := asSlice(parameters[parameter])
			refs := partyRefs(asSlice(metaParams[parameter]))
			rows = append(rows, Row{
				ProjectID:    project.ID,
				ProjectName:  project.Name,
				Module:       m.name,
				SubGroup:     cpType.Label,
				Datapoint:    parameter,
				DatapointKey: parameter,
				Parties:      values,
				PartyMeta:    refs,
			})
		}
	}
	return rows
}

func partyRefs(entries []any) []PartyRef {
	refs := make([]PartyRef, 0, len(entries))
	for _, entry := range entries {
		record := asMap(entry)
		refs = append(refs, PartyRef{
			ID:                 asInt64(record["id"]),
			CounterpartyTypeID: asInt64(record["counterparty_type_id"]),
			ParameterID:        asInt64(record["parameter_id"]),
			PartyInstance:      int(asInt64(record["party_instance"])),
		})
	}
	return refs
}

func (m *partiesModule) DeriveColumns(rows []Row, sel Selection) []Column {
	columns := []Column{
		projectColumn(),
		{Key: ColSubGroup, Title: "Counterparty Type", Role: RoleLabel},
		{Key: ColDatapoint, Title: "Parameter", Role: RoleLabel},
	}
	for i := 0; i < maxParties(rows); i++ {
		columns = append(columns, Column{
			Key:   fmt.Sprintf("%s%d", partyColPrefix, i+1),
			Title: fmt.Sprintf("Party %d", i+1),
			Group: "Parties",
			Role:  RoleValue,
		})
	}
	return columns
}

func (m *partiesModule) BuildSaveGroups(rows []Row, edits []Edit) ([]SaveGroup, []SkippedEdit) {
	var skipped []SkippedEdit
	groups := make(map[string]*SaveGroup)
	var order []string
	for _, edit := range edits {
		row, ok := rowAt(rows, edit)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "row not resolvable"})
			continue
		}
		slot, ok := partySlot(edit.Field)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "not a party column"})
			continue
		}
		key := fmt.Sprintf("%s/%d/%s/%s", m.name, row.ProjectID, row.SubGroup, row.DatapointKey)
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
		var ref PartyRef
		if slot < len(row.PartyMeta) {
			ref = row.PartyMeta[slot]
		}
		if ref.ID != 0 {
			group.Save.Updates = append(group.Save.Updates, map[string]any{
				"id":    ref.ID,
				"value": edit.Value,
			})
			continue
		}
		// New slot: borrow the type and parameter ids from any sibling slot
		// of the same row that has them.
		sibling, ok := siblingIdentity(row.PartyMeta)
		if !ok {
			skipped = append(skipped, SkippedEdit{Edit: edit, Reason: "no sibling party to derive identity from"})
			continue
		}
		group.Save.Creates = append(group.Save.Creates, map[string]any{
			"counterparty_type_id": sibling.CounterpartyTypeID,
			"parameter_id":         sibling.ParameterID,
			"party_instance":       slot,
			"value":                edit.Value,
		})
	}
	out := make([]SaveGroup, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, skipped
}

// partySlot parses a 1-based "party_N" column key into its 0-based slot
// index.
func partySlot(field string) (int, bool) {
	idx := colIndex(field, partyColPrefix)
	if !strings.HasPrefix(field, partyColPrefix) || idx < 0 {
		return 0, false
	}
	return idx, true
}

func siblingIdentity(refs []PartyRef) (PartyRef, bool) {
	for _, ref := range refs {
		if ref.CounterpartyTypeID != 0 && ref.ParameterID != 0 {
			return ref, true
		}
	}
	return PartyRef{}, false
}
