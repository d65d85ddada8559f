// Package mockdata generates deterministic task and user records.
package mockdata

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/simp-lee/datatable/internal/domain"
)

// DefaultReference is the instant generated records are dated back from.
var DefaultReference = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options controls generation. The same options always produce the same
// records.
type Options struct {
	Seed      uint64
	Reference time.Time
	// Span is how far before Reference creation dates may fall.
	Span time.Duration
}

func (o Options) withDefaults() Options {
	if o.Reference.IsZero() {
		o.Reference = DefaultReference
	}
	if o.Span <= 0 {
		o.Span = 2 * 365 * 24 * time.Hour
	}
	return o
}

type generator struct {
	rng  *rand.Rand
	opts Options
}

func newGenerator(opts Options, stream uint64) *generator {
	opts = opts.withDefaults()
	return &generator{
		rng:  rand.New(rand.NewPCG(opts.Seed, stream)),
		opts: opts,
	}
}

func (g *generator) pick(xs []string) string {
	return xs[g.rng.IntN(len(xs))]
}

func (g *generator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *generator) createdAt() time.Time {
	back := time.Duration(g.rng.Int64N(int64(g.opts.Span)))
	return g.opts.Reference.Add(-back).Truncate(time.Millisecond).UTC()
}

var (
	taskVerbs = []string{
		"Fix", "Implement", "Refactor", "Document", "Test", "Review", "Optimize",
		"Migrate", "Remove", "Add", "Investigate", "Update",
	}
	taskAdjectives = []string{
		"flaky", "slow", "legacy", "broken", "missing", "duplicate", "async",
		"cached", "paginated", "nested", "",
	}
	taskNouns = []string{
		"login form", "search index", "billing job", "export endpoint", "user table",
		"session store", "audit log", "date picker", "rate limiter", "config loader",
		"webhook handler", "dashboard", "sidebar", "release notes", "API client",
	}
)

// Tasks returns n tasks with ids 1..n.
func Tasks(n int, opts Options) []domain.Task {
	g := newGenerator(opts, 1)
	active := domain.TaskStatuses[:4]

	out := make([]domain.Task, n)
	for i := range out {
		id := i + 1

		status := []string{g.pick(active)}
		if g.chance(0.15) {
			status = append(status, "archived")
		}

		title := g.pick(taskVerbs)
		if adj := g.pick(taskAdjectives); adj != "" {
			title += " " + adj
		}
		title += " " + g.pick(taskNouns)

		out[i] = domain.Task{
			BaseRecord:     domain.BaseRecord{ID: id, CreatedAt: g.createdAt()},
			Code:           fmt.Sprintf("TASK-%04d", id),
			Title:          title,
			Status:         status,
			Label:          []string{g.pick(domain.TaskLabels)},
			Priority:       []string{g.pick(domain.TaskPriorities)},
			EstimatedHours: float64(g.rng.IntN(16)+1) / 2,
		}
	}
	return out
}

var (
	firstNames = []string{
		"Ann", "Bob", "Carla", "Dmitri", "Elena", "Farid", "Grace", "Hiro", "Ines",
		"Jonas", "Kira", "Liam", "Maya", "Nora", "Omar", "Priya", "Quinn", "Rosa",
		"Sven", "Tariq", "Uma", "Vera", "Wen", "Yusuf", "Zoe",
	}
	lastNames = []string{
		"Anders", "Baker", "Chen", "Diaz", "Eriksen", "Fischer", "Garcia", "Hughes",
		"Ito", "Jensen", "Kowalski", "Lopez", "Moreau", "Nakamura", "Okafor",
		"Petrov", "Rossi", "Singh", "Tanaka", "Weber",
	}
	emailDomains = []string{"example.com", "example.org", "mail.test"}
)

// Users returns n users with ids 1..n.
func Users(n int, opts Options) []domain.User {
	g := newGenerator(opts, 2)

	out := make([]domain.User, n)
	for i := range out {
		id := i + 1
		first := g.pick(firstNames)
		last := g.pick(lastNames)

		out[i] = domain.User{
			BaseRecord: domain.BaseRecord{ID: id, CreatedAt: g.createdAt()},
			Username:   fmt.Sprintf("%s%d", strings.ToLower(first), id),
			FirstName:  first,
			LastName:   last,
			Email:      fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), id, g.pick(emailDomains)),
			Phone:      fmt.Sprintf("+1 555-%03d-%04d", g.rng.IntN(1000), g.rng.IntN(10000)),
			Status:     []string{g.pick(domain.UserStatuses)},
			Role:       []string{g.pick(domain.UserRoles)},
			Age:        18 + g.rng.IntN(53),
		}
	}
	return out
}
