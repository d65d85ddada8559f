package query

import (
	"maps"
	"math"
	"slices"
	"strings"
)

// Reserved state keys. Every other key in a State is a field filter.
const (
	KeyPageIndex   = "pageIndex"
	KeyPageSize    = "pageSize"
	KeySortBy      = "sortBy"
	KeyFrom        = "from"
	KeyTo          = "to"
	KeySelection   = "selection"
	KeySelectedIDs = "selectedIds"
)

// Pagination defaults.
const (
	DefaultPageIndex = 0
	DefaultPageSize  = 10
)

// Selection tags accepted in the selection key.
const (
	Selected    = "SELECTED"
	NotSelected = "NOT_SELECTED"
)

var reservedKeys = []string{
	KeyPageIndex, KeyPageSize, KeySortBy, KeyFrom, KeyTo, KeySelection, KeySelectedIDs,
}

// IsReserved reports whether key is a pagination, sort, date or selection key.
func IsReserved(key string) bool {
	return slices.Contains(reservedKeys, key)
}

// State is the combined filter, sort, pagination and selection state of a
// table view. It is the value serialized into the URL query string.
type State map[string]Value

// Clone returns a shallow copy of s. Values are immutable, so the copy is
// independent of s.
func (s State) Clone() State {
	if s == nil {
		return State{}
	}
	return maps.Clone(s)
}

// Equal reports whether s and o hold the same keys with equal values.
func (s State) Equal(o State) bool {
	return maps.EqualFunc(s, o, Value.Equal)
}

// Keys returns the keys of s in sorted order.
func (s State) Keys() []string {
	return slices.Sorted(maps.Keys(s))
}

// Filters returns the non-reserved entries of s.
func (s State) Filters() State {
	out := make(State, len(s))
	for k, v := range s {
		if !IsReserved(k) {
			out[k] = v
		}
	}
	return out
}

// PageIndex returns the requested page index, clamped to be non-negative.
func (s State) PageIndex() int {
	return s.intOr(KeyPageIndex, DefaultPageIndex, 0)
}

// PageSize returns the requested page size, clamped to at least one.
func (s State) PageSize() int {
	return s.intOr(KeyPageSize, DefaultPageSize, 1)
}

func (s State) intOr(key string, def, min int) int {
	v, ok := s[key]
	if !ok || v.Empty() {
		return def
	}
	f := v.Number()
	if math.IsNaN(f) {
		return def
	}
	if f < float64(min) {
		return min
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// Sort returns the parsed sortBy entry, if present and well formed.
func (s State) Sort() (Sort, bool) {
	v, ok := s[KeySortBy]
	if !ok || v.Kind() != KindText {
		return Sort{}, false
	}
	return ParseSort(v.Text())
}

// Selection returns the selection tags and the explicitly selected ids.
func (s State) Selection() (tags []string, ids []int) {
	return s[KeySelection].Tags(), s[KeySelectedIDs].IDs()
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort is a single-field sort specification.
type Sort struct {
	Field     string
	Direction Direction
}

// ParseSort parses "<field>.<asc|desc>". The field may itself contain dots;
// the direction is taken from the last one.
func ParseSort(s string) (Sort, bool) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return Sort{}, false
	}
	dir := Direction(s[i+1:])
	if dir != Asc && dir != Desc {
		return Sort{}, false
	}
	return Sort{Field: s[:i], Direction: dir}, true
}

// String returns the "<field>.<direction>" encoding.
func (s Sort) String() string {
	return s.Field + "." + string(s.Direction)
}

// CycleSort returns the sortBy value that follows the order in st when field
// is toggled: ascending, then descending, then unsorted.
func CycleSort(st State, field string) Value {
	cur, ok := st.Sort()
	switch {
	case !ok || cur.Field != field:
		return Text(Sort{Field: field, Direction: Asc}.String())
	case cur.Direction == Asc:
		return Text(Sort{Field: field, Direction: Desc}.String())
	default:
		return Unset()
	}
}
