package table

import "github.com/simp-lee/datatable/internal/query"

// StateRequest is the body of POST /api/v1/<name>/state. Search is the
// current URL search; Patch is merged on top of it unless Reset is set.
type StateRequest struct {
	Search string         `json:"search" binding:"max=4096"`
	Patch  map[string]any `json:"patch"`
	Reset  bool           `json:"reset"`
}

// StateResponse carries the search to navigate to and its decoded state.
type StateResponse struct {
	Search string      `json:"search"`
	State  query.State `json:"state"`
}

// FieldInfo describes one filterable field.
type FieldInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Rule     string   `json:"rule"`
	Sortable bool     `json:"sortable"`
	Options  []string `json:"options,omitempty"`
}

// SchemaResponse describes a dataset.
type SchemaResponse struct {
	Name        string      `json:"name"`
	Total       int         `json:"total"`
	MaxPageSize int         `json:"maxPageSize,omitempty"`
	HasDate     bool        `json:"hasDate"`
	Fields      []FieldInfo `json:"fields"`
}
