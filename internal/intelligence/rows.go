package intelligence

import (
	"github.com/oneview-energy/oneview/internal/upstream"
)

// GenerateRows regenerates the full flat row set from selection state and the
// fetched snapshot: project-major, then module in page order. Rows are always
// recomputed, never patched in place.
func GenerateRows(reg *Registry, state *State, projects []upstream.Project, snap upstream.Snapshot) []Row {
	modules := pageOrdered(state)
	var rows []Row
	for _, projectID := range state.Projects {
		project, ok := projectByID(projects, projectID)
		if !ok {
			continue
		}
		for _, name := range modules {
			desc, ok := reg.Get(name)
			if !ok {
				continue
			}
			payload, ok := snap.Get(projectID, name)
			if !ok {
				continue
			}
			rows = append(rows, desc.ExtractRows(project, payload, state.SelectionFor(name))...)
		}
	}
	return rows
}

// BuildTables groups the regenerated rows into one table per selected module,
// in page order, with columns derived from the rows of all projects together
// so every project renders against the same column set.
func BuildTables(reg *Registry, state *State, projects []upstream.Project, snap upstream.Snapshot) []Table {
	rows := GenerateRows(reg, state, projects, snap)

	byModule := make(map[string][]Row)
	for _, row := range rows {
		byModule[row.Module] = append(byModule[row.Module], row)
	}

	var tables []Table
	for _, name := range pageOrdered(state) {
		desc, ok := reg.Get(name)
		if !ok {
			continue
		}
		moduleRows := byModule[name]
		tables = append(tables, Table{
			Module:  name,
			Label:   desc.Label(),
			Columns: desc.DeriveColumns(moduleRows, state.SelectionFor(name)),
			Rows:    moduleRows,
		})
	}
	return tables
}

// ModuleRows returns the rows of one module in table order, the ordering
// edits are addressed against.
func ModuleRows(reg *Registry, state *State, projects []upstream.Project, snap upstream.Snapshot, module string) []Row {
	var rows []Row
	for _, row := range GenerateRows(reg, state, projects, snap) {
		if row.Module == module {
			rows = append(rows, row)
		}
	}
	return rows
}

// pageOrdered returns the selected modules in the page's canonical order, so
// row and table order never depends on selection click order.
func pageOrdered(state *State) []string {
	page, ok := Pages()[state.Page]
	if !ok {
		return append([]string(nil), state.Modules...)
	}
	var out []string
	for _, name := range page.Modules {
		if state.HasModule(name) {
			out = append(out, name)
		}
	}
	return out
}

func projectByID(projects []upstream.Project, id int64) (upstream.Project, bool) {
	for _, p := range projects {
		if p.ID == id {
			return p, true
		}
	}
	return upstream.Project{}, false
}
