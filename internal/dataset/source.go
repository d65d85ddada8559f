// Package dataset serves query results over generated record collections.
package dataset

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/simp-lee/datatable/internal/domain"
	"github.com/simp-lee/datatable/internal/query"
	"github.com/simp-lee/datatable/internal/urlstate"
)

// Source evaluates queries over a read-only record collection. Results may
// be served from a bounded page cache keyed by the canonical search string.
// A Source is safe for concurrent use.
type Source[T any] struct {
	name        string
	schema      *query.Schema[T]
	codec       *urlstate.Codec
	records     []T
	maxPageSize int
	cache       *expirable.LRU[string, query.Page[T]]
}

var (
	_ domain.Source[domain.Task] = (*Source[domain.Task])(nil)
	_ domain.Source[domain.User] = (*Source[domain.User])(nil)
)

// Option configures a Source.
type Option func(*options)

type options struct {
	cacheSize   int
	cacheTTL    time.Duration
	maxPageSize int
}

// WithCache enables the page cache with at most size entries, each kept for
// ttl.
func WithCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithMaxPageSize caps the page size of every query.
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxPageSize = n }
}

// NewSource returns a Source over records. The slice is owned by the Source
// and must not be modified afterwards.
func NewSource[T any](name string, schema *query.Schema[T], records []T, opts ...Option) *Source[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Source[T]{
		name:        name,
		schema:      schema,
		codec:       urlstate.NewCodec(schema.Params()),
		records:     records,
		maxPageSize: o.maxPageSize,
	}
	if o.cacheSize > 0 {
		s.cache = expirable.NewLRU[string, query.Page[T]](o.cacheSize, nil, o.cacheTTL)
	}
	return s
}

// Name returns the dataset name.
func (s *Source[T]) Name() string { return s.name }

// Schema returns the dataset schema.
func (s *Source[T]) Schema() *query.Schema[T] { return s.schema }

// Codec returns the URL codec for the dataset's search keys.
func (s *Source[T]) Codec() *urlstate.Codec { return s.codec }

// Len returns the number of records.
func (s *Source[T]) Len() int { return len(s.records) }

// MaxPageSize returns the page size cap, or 0 when uncapped.
func (s *Source[T]) MaxPageSize() int { return s.maxPageSize }

// Canonical returns st as it reads back from a URL: unknown keys and
// malformed values are dropped, values take the kind of their key and page
// size is capped.
func (s *Source[T]) Canonical(st query.State) query.State {
	out := s.codec.Decode(s.codec.Encode(s.codec.Normalize(st)))
	if s.maxPageSize > 0 && out.PageSize() > s.maxPageSize {
		out[query.KeyPageSize] = query.Int(s.maxPageSize)
	}
	return out
}

// Key returns the cache key of st.
func (s *Source[T]) Key(st query.State) string {
	return s.codec.Encode(urlstate.Strip(s.Canonical(st))).Encode()
}

// Fetch returns one page of records matching st.
func (s *Source[T]) Fetch(ctx context.Context, st query.State) (query.Page[T], error) {
	if err := ctx.Err(); err != nil {
		return query.Page[T]{}, contextError(err)
	}
	st = s.Canonical(st)

	if s.cache == nil {
		return query.Evaluate(s.records, s.schema, st), nil
	}

	key := s.Key(st)
	if page, ok := s.cache.Get(key); ok {
		slog.DebugContext(ctx, "page cache hit", "dataset", s.name, "key", key)
		return clonePage(page), nil
	}

	page := query.Evaluate(s.records, s.schema, st)
	s.cache.Add(key, page)
	return clonePage(page), nil
}

// Facets returns value counts for every tags field under st, plus the
// selected and unselected counts under the selection key.
func (s *Source[T]) Facets(ctx context.Context, st query.State) (map[string][]query.FacetCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	st = s.Canonical(st)
	facets := query.FacetsAll(s.records, s.schema, st)
	facets[query.KeySelection] = query.SelectionFacet(s.records, s.schema, st)
	return facets, nil
}

// Find returns the record with the given id.
func (s *Source[T]) Find(ctx context.Context, id int) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, contextError(err)
	}
	i := slices.IndexFunc(s.records, func(rec T) bool { return s.schema.ID(rec) == id })
	if i < 0 {
		return zero, domain.NewAppError(domain.CodeNotFound, "record not found", nil)
	}
	return s.records[i], nil
}

// CacheLen returns the number of cached pages.
func (s *Source[T]) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// contextError maps a done context to an AppError. Deadlines become timeouts.
func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAppError(domain.CodeTimeout, "request timeout", err)
	}
	return domain.NewAppError(domain.CodeInternal, "query canceled", err)
}

func clonePage[T any](p query.Page[T]) query.Page[T] {
	p.Items = slices.Clone(p.Items)
	return p
}
