package intelligence

import (
	"fmt"
	"strings"
)

// Mode controls datapoint selection for one module: "all" implicitly selects
// every datapoint of every selected sub-group, "custom" requires explicit
// picks.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeCustom Mode = "custom"
)

// scopeSep joins module and sub-group key into a datapoint scope key.
const scopeSep = "___"

// ScopeKey builds the datapoint scope key for a module sub-group. Modules
// without sub-groups scope datapoints by module name alone.
func ScopeKey(module, subKey string) string {
	if subKey == "" {
		return module
	}
	return module + scopeSep + subKey
}

// State is the whole selection state of one intelligence page. It is only
// ever mutated through Apply, so every cascading reset lives in one place.
type State struct {
	Page       string                 `json:"page"`
	Projects   []int64                `json:"projects"`
	Modules    []string               `json:"modules"`
	SubGroups  map[string][]SubGroup  `json:"sub_groups"`
	Mode       map[string]Mode        `json:"mode"`
	Datapoints map[string][]Datapoint `json:"datapoints"`

	// Structures caches resolved module shapes; the mode=all cascade reads
	// datapoint lists from here.
	Structures map[string]Structure `json:"structures"`

	// Version increments on every applied action. Fetch results tagged
	// with an older version are discarded instead of merged.
	Version int64 `json:"version"`
}

// NewState returns an empty selection state for a page.
func NewState(page string) *State {
	return &State{
		Page:       page,
		SubGroups:  make(map[string][]SubGroup),
		Mode:       make(map[string]Mode),
		Datapoints: make(map[string][]Datapoint),
		Structures: make(map[string]Structure),
	}
}

// ensureMaps repairs nil maps after JSON round-trips.
func (s *State) ensureMaps() {
	if s.SubGroups == nil {
		s.SubGroups = make(map[string][]SubGroup)
	}
	if s.Mode == nil {
		s.Mode = make(map[string]Mode)
	}
	if s.Datapoints == nil {
		s.Datapoints = make(map[string][]Datapoint)
	}
	if s.Structures == nil {
		s.Structures = make(map[string]Structure)
	}
}

// HasProject reports whether a project is selected.
func (s *State) HasProject(id int64) bool {
	for _, p := range s.Projects {
		if p == id {
			return true
		}
	}
	return false
}

// HasModule reports whether a module is selected.
func (s *State) HasModule(name string) bool {
	for _, m := range s.Modules {
		if m == name {
			return true
		}
	}
	return false
}

// SelectionFor builds the per-module selection view handed to descriptors.
func (s *State) SelectionFor(module string) Selection {
	sel := Selection{
		Module:     module,
		SubGroups:  append([]SubGroup(nil), s.SubGroups[module]...),
		Mode:       s.Mode[module],
		Datapoints: make(map[string][]Datapoint),
	}
	if sel.Mode == "" {
		sel.Mode = ModeCustom
	}
	for scope, points := range s.Datapoints {
		if scope == module || strings.HasPrefix(scope, module+scopeSep) {
			sel.Datapoints[scope] = append([]Datapoint(nil), points...)
		}
	}
	return sel
}

// ActionType enumerates the reducer actions.
type ActionType string

const (
	ActionReset           ActionType = "reset"
	ActionToggleProject   ActionType = "toggle_project"
	ActionToggleModule    ActionType = "toggle_module"
	ActionSetStructure    ActionType = "set_structure"
	ActionToggleSubGroup  ActionType = "toggle_sub_group"
	ActionToggleDatapoint ActionType = "toggle_datapoint"
	ActionSetMode         ActionType = "set_mode"
)

// Action is one selection mutation.
type Action struct {
	Type      ActionType `json:"type"`
	ProjectID int64      `json:"project_id,omitempty"`
	Module    string     `json:"module,omitempty"`
	SubGroup  SubGroup   `json:"sub_group,omitempty"`
	Datapoint Datapoint  `json:"datapoint,omitempty"`
	SubKey    string     `json:"sub_key,omitempty"`
	Mode      Mode       `json:"mode,omitempty"`
	Structure *Structure `json:"structure,omitempty"`
}

// Apply runs one action through the reducer. All cascading resets are
// enforced here and nowhere else.
func (s *State) Apply(action Action, reg *Registry) error {
	s.ensureMaps()

	page, ok := Pages()[s.Page]
	if !ok {
		return fmt.Errorf("selection: unknown page %q", s.Page)
	}

	switch action.Type {
	case ActionReset:
		s.reset()

	case ActionToggleProject:
		s.toggleProject(action.ProjectID, page)

	case ActionToggleModule:
		if !pageHasModule(page, action.Module) {
			return fmt.Errorf("selection: module %q not on page %q", action.Module, s.Page)
		}
		s.toggleModule(action.Module, page)

	case ActionSetStructure:
		if action.Structure == nil {
			return fmt.Errorf("selection: set_structure requires a structure")
		}
		s.Structures[action.Module] = *action.Structure

	case ActionToggleSubGroup:
		desc, ok := reg.Get(action.Module)
		if !ok {
			return fmt.Errorf("selection: unknown module %q", action.Module)
		}
		if !s.HasModule(action.Module) {
			return fmt.Errorf("selection: module %q not selected", action.Module)
		}
		s.toggleSubGroup(desc, action.SubGroup)

	case ActionToggleDatapoint:
		if !s.HasModule(action.Module) {
			return fmt.Errorf("selection: module %q not selected", action.Module)
		}
		scope := ScopeKey(action.Module, action.SubKey)
		s.Datapoints[scope] = toggleDatapoint(s.Datapoints[scope], action.Datapoint)
		if len(s.Datapoints[scope]) == 0 {
			delete(s.Datapoints, scope)
		}

	case ActionSetMode:
		if action.Mode != ModeAll && action.Mode != ModeCustom {
			return fmt.Errorf("selection: invalid mode %q", action.Mode)
		}
		if !s.HasModule(action.Module) {
			return fmt.Errorf("selection: module %q not selected", action.Module)
		}
		s.setMode(action.Module, action.Mode, reg)

	default:
		return fmt.Errorf("selection: unknown action %q", action.Type)
	}

	s.Version++
	return nil
}

func (s *State) reset() {
	s.Projects = nil
	s.Modules = nil
	s.SubGroups = make(map[string][]SubGroup)
	s.Mode = make(map[string]Mode)
	s.Datapoints = make(map[string][]Datapoint)
	s.Structures = make(map[string]Structure)
}

func (s *State) toggleProject(id int64, page Page) {
	if s.HasProject(id) {
		out := s.Projects[:0]
		for _, p := range s.Projects {
			if p != id {
				out = append(out, p)
			}
		}
		s.Projects = out
		// Removing the last project on the exclusive page drops every
		// downstream selection as well.
		if len(s.Projects) == 0 && page.ExclusiveModules {
			s.reset()
		}
		return
	}
	s.Projects = append(s.Projects, id)
}

func (s *State) toggleModule(name string, page Page) {
	if s.HasModule(name) {
		out := s.Modules[:0]
		for _, m := range s.Modules {
			if m != name {
				out = append(out, m)
			}
		}
		s.Modules = out
		s.clearModule(name)
		return
	}
	if page.ExclusiveModules {
		for _, m := range s.Modules {
			s.clearModule(m)
		}
		s.Modules = []string{name}
		return
	}
	s.Modules = append(s.Modules, name)
}

// clearModule drops every selection scoped under one module.
func (s *State) clearModule(name string) {
	delete(s.SubGroups, name)
	delete(s.Mode, name)
	delete(s.Structures, name)
	for scope := range s.Datapoints {
		if scope == name || strings.HasPrefix(scope, name+scopeSep) {
			delete(s.Datapoints, scope)
		}
	}
}

func (s *State) toggleSubGroup(desc Descriptor, sub SubGroup) {
	module := desc.Name()
	current := s.SubGroups[module]

	for i, existing := range current {
		if existing.Key == sub.Key {
			// Deselect: remove the sub-group and purge its datapoints.
			s.SubGroups[module] = append(append([]SubGroup{}, current[:i]...), current[i+1:]...)
			if len(s.SubGroups[module]) == 0 {
				delete(s.SubGroups, module)
			}
			delete(s.Datapoints, ScopeKey(module, sub.Key))
			return
		}
	}

	if desc.SingleSubGroup() {
		// Selecting a new vital replaces the previous one and purges its
		// datapoints.
		for _, existing := range current {
			delete(s.Datapoints, ScopeKey(module, existing.Key))
		}
		s.SubGroups[module] = []SubGroup{sub}
	} else {
		s.SubGroups[module] = append(current, sub)
	}

	if desc.AutoDatapoints() {
		structure := s.Structures[module]
		points := structure.DatapointsBySubGroup[sub.Key]
		if len(points) > 0 {
			s.Datapoints[ScopeKey(module, sub.Key)] = append([]Datapoint(nil), points...)
		}
	}
}

func (s *State) setMode(module string, mode Mode, reg *Registry) {
	s.Mode[module] = mode
	structure := s.Structures[module]

	if mode == ModeCustom {
		// Custom requires explicit re-selection: drop every datapoint
		// scope of the module.
		for scope := range s.Datapoints {
			if scope == module || strings.HasPrefix(scope, module+scopeSep) {
				delete(s.Datapoints, scope)
			}
		}
		return
	}

	desc, ok := reg.Get(module)
	if ok && desc.HasSubGroups() {
		for _, sub := range s.SubGroups[module] {
			points := structure.DatapointsBySubGroup[sub.Key]
			if len(points) > 0 {
				s.Datapoints[ScopeKey(module, sub.Key)] = append([]Datapoint(nil), points...)
			}
		}
		return
	}
	if len(structure.AllDatapoints) > 0 {
		s.Datapoints[module] = append([]Datapoint(nil), structure.AllDatapoints...)
	}
}

func toggleDatapoint(points []Datapoint, dp Datapoint) []Datapoint {
	for i, existing := range points {
		if existing.Key == dp.Key {
			return append(append([]Datapoint{}, points[:i]...), points[i+1:]...)
		}
	}
	return append(points, dp)
}

func pageHasModule(page Page, module string) bool {
	for _, m := range page.Modules {
		if m == module {
			return true
		}
	}
	return false
}
