package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simp-lee/datatable/internal/config"
	"github.com/simp-lee/datatable/internal/query"
)

func TestLoad(t *testing.T) {
	data := config.DataConfig{Seed: 7, Tasks: 40, Users: 15, ReferenceDate: "2024-06-01", Span: "720h"}

	cat, err := Load(context.Background(), data, WithMaxPageSize(20))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{Tasks: 40, Users: 15}, cat.Sizes())
	assert.Equal(t, 20, cat.Tasks.MaxPageSize())
	assert.Equal(t, Users, cat.Users.Name())

	again, err := Load(context.Background(), data)
	require.NoError(t, err)
	first, err := cat.Tasks.Fetch(context.Background(), query.State{query.KeyPageSize: query.Int(20)})
	require.NoError(t, err)
	second, err := again.Tasks.Fetch(context.Background(), query.State{query.KeyPageSize: query.Int(20)})
	require.NoError(t, err)
	assert.Equal(t, first, second, "the same seed generates the same records")

	for _, task := range first.Items {
		assert.False(t, task.CreatedAt.After(data.Reference()))
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, config.DataConfig{Tasks: 1, Users: 1, Span: "1h"})
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{Query: config.QueryConfig{MaxPageSize: 30}}
	src := NewSource(Tasks, TaskSchema, thousandTasks(), OptionsFromConfig(cfg)...)
	assert.Equal(t, 30, src.MaxPageSize())

	_, err := src.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, src.CacheLen())

	cfg.Server.Cache = config.CacheConfig{Enabled: true, TTL: "1m", MaxSize: 4}
	cached := NewSource(Tasks, TaskSchema, thousandTasks(), OptionsFromConfig(cfg)...)
	_, err = cached.Fetch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.CacheLen())
}
