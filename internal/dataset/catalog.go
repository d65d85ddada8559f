package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/datatable/internal/config"
	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/mockdata"
)

// Catalog holds every generated dataset.
type Catalog struct {
	Tasks *Source[domain.Task]
	Users *Source[domain.User]
}

// OptionsFromConfig returns the Source options configured by cfg: the page
// size cap and, when enabled, the page cache.
func OptionsFromConfig(cfg *config.Config) []Option {
	opts := []Option{WithMaxPageSize(cfg.Query.MaxPageSize)}
	if cfg.Server.Cache.Enabled {
		opts = append(opts, WithCache(cfg.Server.Cache.MaxSize, cfg.Server.Cache.TTLDuration()))
	}
	return opts
}

// Load generates the datasets described by data concurrently.
func Load(ctx context.Context, data config.DataConfig, opts ...Option) (*Catalog, error) {
	gen := mockdata.Options{
		Seed:      data.Seed,
		Reference: data.Reference(),
		Span:      data.SpanDuration(),
	}

	var cat Catalog
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		records := mockdata.Tasks(data.Tasks, gen)
		if err := ctx.Err(); err != nil {
			return err
		}
		cat.Tasks = NewSource(Tasks, TaskSchema, records, opts...)
		slog.DebugContext(ctx, "dataset generated", "dataset", Tasks, "records", len(records), "took", time.Since(start))
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		records := mockdata.Users(data.Users, gen)
		if err := ctx.Err(); err != nil {
			return err
		}
		cat.Users = NewSource(Users, UserSchema, records, opts...)
		slog.DebugContext(ctx, "dataset generated", "dataset", Users, "records", len(records), "took", time.Since(start))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate datasets: %w", err)
	}
	return &cat, nil
}

// Sizes returns the record count of every dataset by name.
func (c *Catalog) Sizes() map[string]int {
	return map[string]int{
		Tasks: c.Tasks.Len(),
		Users: c.Users.Len(),
	}
}
