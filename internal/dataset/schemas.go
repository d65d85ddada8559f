package dataset

import (
	"time"

	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/query"
)

// Dataset names, used in routes and on the command line.
const (
	Tasks = "tasks"
	Users = "users"
)

// Names lists the datasets in display order.
var Names = []string{Tasks, Users}

// TaskSchema describes the filterable task fields.
var TaskSchema = query.MustSchema(query.SchemaConfig[domain.Task]{
	ID: func(t domain.Task) int { return t.ID },
	Fields: []query.Field[domain.Task]{
		query.TextField("code", func(t domain.Task) string { return t.Code }),
		query.TextField("title", func(t domain.Task) string { return t.Title }),
		query.TagsField("status", func(t domain.Task) []string { return t.Status }, domain.TaskStatuses...),
		query.TagsField("label", func(t domain.Task) []string { return t.Label }, domain.TaskLabels...),
		query.TagsField("priority", func(t domain.Task) []string { return t.Priority }, domain.TaskPriorities...),
		query.NumberField("estimatedHours", func(t domain.Task) float64 { return t.EstimatedHours }),
		query.DateField("createdAt", func(t domain.Task) time.Time { return t.CreatedAt }),
	},
})

// UserSchema describes the filterable user fields. name matches the full name.
var UserSchema = query.MustSchema(query.SchemaConfig[domain.User]{
	ID: func(u domain.User) int { return u.ID },
	Fields: []query.Field[domain.User]{
		query.TextField("username", func(u domain.User) string { return u.Username }),
		query.TextField("name", domain.User.FullName),
		query.TextField("email", func(u domain.User) string { return u.Email }),
		query.TextField("phone", func(u domain.User) string { return u.Phone }),
		query.TagsField("status", func(u domain.User) []string { return u.Status }, domain.UserStatuses...),
		query.TagsField("role", func(u domain.User) []string { return u.Role }, domain.UserRoles...),
		query.NumberField("age", func(u domain.User) float64 { return float64(u.Age) }),
		query.DateField("createdAt", func(u domain.User) time.Time { return u.CreatedAt }),
	},
})
