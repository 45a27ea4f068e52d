// Package upstream talks to the project-data API that owns storage and
// authentication. OneView consumes it as a black box: every call returns
// module-shaped JSON that the intelligence layer reshapes into table rows.
package upstream

// Project identifies one renewable-energy project in the portfolio.
type Project struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Location   string  `json:"location"`
	Technology string  `json:"technology"`
	Status     string  `json:"status"`
	CapacityMW float64 `json:"capacity"`
}

// Payload is the raw per-(project, module) response. Data carries the
// module-shaped JSON; Metadata is the optional sidecar with backing-record
// identifiers that are absent from the display-shaped data.
type Payload struct {
	Data     any `json:"data"`
	Metadata any `json:"metadata,omitempty"`
}

// Empty reports whether the payload carries no data at all.
func (p Payload) Empty() bool {
	return p.Data == nil
}

// FieldMeta describes one field of a module as declared by the upstream
// metadata endpoints. DataType drives input rendering (text, number, date,
// currency, percentage, dropdown).
type FieldMeta struct {
	FieldKey     string `json:"field_key"`
	DisplayLabel string `json:"display_label"`
	DataType     string `json:"data_type"`
	TableName    string `json:"table_name"`
}

// DropdownOption is one selectable value for a dropdown-typed field.
type DropdownOption struct {
	ID          int64  `json:"id"`
	OptionValue string `json:"option_value"`
}

// SubmoduleSave is the write payload for UpdateFinanceSubmodule. Updates
// address existing backing records by id; Creates insert sparse records that
// had no backing row yet.
type SubmoduleSave struct {
	Updates    []map[string]any `json:"updates"`
	Creates    []map[string]any `json:"creates,omitempty"`
	DeletedIDs []int64          `json:"deleted_ids,omitempty"`
}
