package intelligence

import (
	"reflect"
	"sort"
)

// Edit is one tracked cell change, addressed by the row's index within its
// module table plus the project id as a consistency check. Field is the
// column key the change landed on.
type Edit struct {
	ProjectID int64  `json:"project_id"`
	RowIndex  int    `json:"row_index"`
	Module    string `json:"module"`
	Field     string `json:"field"`
	Value     any    `json:"value"`
	Original  any    `json:"original"`
}

type editKey struct {
	projectID int64
	rowIndex  int
	module    string
	field     string
}

// Tracker accumulates pending edits between renders and saves. Setting a cell
// back to its original value drops the entry, so the tracker only ever holds
// real deviations.
type Tracker struct {
	edits map[editKey]Edit
}

// NewTracker returns an empty edit tracker.
func NewTracker() *Tracker {
	return &Tracker{edits: make(map[editKey]Edit)}
}

// Set records a cell change. The first Set for a cell captures the original
// value; later Sets keep it, so reverting to the original clears the entry
// no matter how many intermediate values were typed.
func (t *Tracker) Set(edit Edit) {
	key := editKey{
		projectID: edit.ProjectID,
		rowIndex:  edit.RowIndex,
		module:    edit.Module,
		field:     edit.Field,
	}
	if existing, ok := t.edits[key]; ok {
		edit.Original = existing.Original
	}
	// Decoded JSON values may be slices or maps, which == would panic on.
	if reflect.DeepEqual(edit.Value, edit.Original) {
		delete(t.edits, key)
		return
	}
	t.edits[key] = edit
}

// Len reports the number of pending edits.
func (t *Tracker) Len() int {
	return len(t.edits)
}

// All returns the pending edits in deterministic order: module, project,
// row, field.
func (t *Tracker) All() []Edit {
	out := make([]Edit, 0, len(t.edits))
	for _, edit := range t.edits {
		out = append(out, edit)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		if a.RowIndex != b.RowIndex {
			return a.RowIndex < b.RowIndex
		}
		return a.Field < b.Field
	})
	return out
}

// Module returns the pending edits of one module, in the same order as All.
func (t *Tracker) Module(module string) []Edit {
	var out []Edit
	for _, edit := range t.All() {
		if edit.Module == module {
			out = append(out, edit)
		}
	}
	return out
}

// Clear drops every pending edit.
func (t *Tracker) Clear() {
	t.edits = make(map[editKey]Edit)
}

// Remove drops the edits of one module, after a successful save.
func (t *Tracker) Remove(module string) {
	for key := range t.edits {
		if key.module == module {
			delete(t.edits, key)
		}
	}
}

// ToList serializes the tracker for session storage.
func (t *Tracker) ToList() []Edit {
	return t.All()
}

// FromList rebuilds a tracker from its session-stored form.
func FromList(edits []Edit) *Tracker {
	t := NewTracker()
	for _, edit := range edits {
		key := editKey{
			projectID: edit.ProjectID,
			rowIndex:  edit.RowIndex,
			module:    edit.Module,
			field:     edit.Field,
		}
		t.edits[key] = edit
	}
	return t
}
