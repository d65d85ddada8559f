package urlstate

import (
	"maps"
	"net/url"

	"github.com/simp-lee/datatable/internal/query"
)

// Router exposes the search parameters of the current route and replaces
// them on navigation.
type Router interface {
	Search() url.Values
	Navigate(search url.Values)
}

// Synchronizer reads a State from a Router and writes patched states back.
// Every change to filters, sort order or pagination goes through Merge.
type Synchronizer struct {
	router Router
	codec  *Codec
}

// NewSynchronizer returns a Synchronizer over router.
func NewSynchronizer(router Router, codec *Codec) *Synchronizer {
	return &Synchronizer{router: router, codec: codec}
}

// Read decodes the router's current search parameters.
func (s *Synchronizer) Read() query.State {
	return s.codec.Decode(s.router.Search())
}

// Next computes the state Merge would navigate to without navigating.
func (s *Synchronizer) Next(patch query.State) query.State {
	next := s.Read()
	maps.Copy(next, s.codec.Normalize(patch))
	return Strip(next)
}

// Merge overlays patch on the current state, strips empty and default
// values, and navigates to the result. The result replaces the whole search,
// so a key survives only if it is in the current state or the patch.
func (s *Synchronizer) Merge(patch query.State) query.State {
	next := s.Next(patch)
	s.router.Navigate(s.codec.Encode(next))
	return next
}

// Reset navigates to the bare route.
func (s *Synchronizer) Reset() {
	s.router.Navigate(url.Values{})
}

// Strip returns a copy of st without unset values, empty text, NaN numbers,
// empty lists and default pagination values.
func Strip(st query.State) query.State {
	out := make(query.State, len(st))
	for key, v := range st {
		if v.Empty() || v.IsNaN() {
			continue
		}
		switch key {
		case query.KeyPageIndex:
			if v.Number() == query.DefaultPageIndex {
				continue
			}
		case query.KeyPageSize:
			if v.Number() == query.DefaultPageSize {
				continue
			}
		}
		out[key] = v
	}
	return out
}
