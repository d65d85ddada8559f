package domain

import (
	"context"
	"time"

	"github.com/simp-lee/datatable/internal/query"
)

// BaseRecord is embedded by every table record. IDs are unique within a
// dataset and never change.
type BaseRecord struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Source serves query results over one dataset.
type Source[T any] interface {
	Fetch(ctx context.Context, st query.State) (query.Page[T], error)
	Facets(ctx context.Context, st query.State) (map[string][]query.FacetCount, error)
}

// Task is a generated work item.
type Task struct {
	BaseRecord
	Code           string   `json:"code"`
	Title          string   `json:"title"`
	Status         []string `json:"status"`
	Label          []string `json:"label"`
	Priority       []string `json:"priority"`
	EstimatedHours float64  `json:"estimatedHours"`
}

// Task tag values.
var (
	TaskStatuses   = []string{"todo", "in-progress", "done", "canceled", "archived"}
	TaskLabels     = []string{"bug", "feature", "enhancement", "documentation"}
	TaskPriorities = []string{"low", "medium", "high"}
)
