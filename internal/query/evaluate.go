package query

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DateLayout is the day-granularity layout used for from/to bounds.
const DateLayout = "2006-01-02"

// Page is one page of an evaluated query.
type Page[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
	PageIndex  int `json:"pageIndex"`
	PageSize   int `json:"pageSize"`
	PageCount  int `json:"pageCount"`
}

// Evaluate filters, sorts and paginates records according to st. It never
// modifies records and always returns a freshly allocated page.
//
// The steps run in a fixed order: selection filter, stable sort, date range,
// field filters, pagination. TotalCount is the number of matches before the
// page window is applied.
func Evaluate[T any](records []T, schema *Schema[T], st State) Page[T] {
	p := schema.compile(st, "")

	rows := make([]T, 0, len(records))
	for _, rec := range records {
		if p.selection == nil || p.selection(rec) {
			rows = append(rows, rec)
		}
	}

	if p.order != nil {
		slices.SortStableFunc(rows, p.order)
	}

	matched := rows[:0]
	for _, rec := range rows {
		if p.match(rec) {
			matched = append(matched, rec)
		}
	}

	return paginate(matched, st.PageIndex(), st.PageSize())
}

func paginate[T any](rows []T, index, size int) Page[T] {
	total := len(rows)
	start := total
	if index <= total/size {
		start = min(index*size, total)
	}
	end := min(start+size, total)

	items := make([]T, end-start)
	copy(items, rows[start:end])

	return Page[T]{
		Items:      items,
		TotalCount: total,
		PageIndex:  index,
		PageSize:   size,
		PageCount:  (total + size - 1) / size,
	}
}

type predicate[T any] func(T) bool

// queryPlan is a State compiled against a Schema. Predicates are resolved once per
// evaluation rather than re-inspected per record.
type queryPlan[T any] struct {
	selection predicate[T]
	order     func(a, b T) int
	date      predicate[T]
	fields    []predicate[T]
}

func (p *queryPlan[T]) match(rec T) bool {
	if p.date != nil && !p.date(rec) {
		return false
	}
	for _, f := range p.fields {
		if !f(rec) {
			return false
		}
	}
	return true
}

// compile compiles st. The filter on field skip, if any, is left out; facets use
// this to count values of a field independently of its own filter.
func (s *Schema[T]) compile(st State, skip string) *queryPlan[T] {
	p := &queryPlan[T]{
		selection: s.selectionPredicate(st),
		order:     s.comparator(st),
		date:      s.datePredicate(st),
	}

	fold := cases.Fold()
	for _, key := range st.Keys() {
		if IsReserved(key) || key == skip {
			continue
		}
		if pred := s.fieldPredicate(key, st[key], fold); pred != nil {
			p.fields = append(p.fields, pred)
		}
	}
	return p
}

func (s *Schema[T]) selectionPredicate(st State) predicate[T] {
	tags, ids := st.Selection()
	if len(tags) == 0 {
		return nil
	}
	wantSelected := slices.Contains(tags, Selected)
	wantUnselected := slices.Contains(tags, NotSelected)
	selected := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	return func(rec T) bool {
		_, in := selected[s.id(rec)]
		return (wantSelected && in) || (wantUnselected && !in)
	}
}

func (s *Schema[T]) comparator(st State) func(a, b T) int {
	srt, ok := st.Sort()
	if !ok {
		return nil
	}
	f, ok := s.fields[srt.Field]
	if !ok || !f.Sortable() {
		return nil
	}

	var c func(a, b T) int
	switch f.Rule {
	case TextContains:
		c = func(a, b T) int { return strings.Compare(f.text(a), f.text(b)) }
	case NumberEquals:
		c = func(a, b T) int { return cmp.Compare(f.number(a), f.number(b)) }
	case DateRange:
		c = func(a, b T) int { return f.date(a).Compare(f.date(b)) }
	}
	if srt.Direction == Desc {
		return func(a, b T) int { return -c(a, b) }
	}
	return c
}

func (s *Schema[T]) datePredicate(st State) predicate[T] {
	if s.date == nil {
		return nil
	}
	from, hasFrom := parseBound(st[KeyFrom])
	to, hasTo := parseBound(st[KeyTo])
	if !hasFrom && !hasTo {
		return nil
	}
	// The upper bound covers the whole day.
	to = to.Add(24*time.Hour - time.Millisecond)

	get := s.date.date
	return func(rec T) bool {
		d := startOfDay(get(rec))
		if hasFrom && d.Before(from) {
			return false
		}
		if hasTo && d.After(to) {
			return false
		}
		return true
	}
}

// parseBound reads a from/to value as a day in UTC. Text may be a date, an
// RFC 3339 timestamp or Unix milliseconds; numbers are Unix milliseconds.
func parseBound(v Value) (time.Time, bool) {
	if v.Kind() == KindText {
		raw := strings.TrimSpace(v.Text())
		for _, layout := range []string{DateLayout, time.RFC3339Nano} {
			if t, err := time.Parse(layout, raw); err == nil {
				return startOfDay(t), true
			}
		}
	}
	if v.Kind() != KindText && v.Kind() != KindNumber {
		return time.Time{}, false
	}
	ms := v.Number()
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	return startOfDay(time.UnixMilli(int64(ms))), true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fieldPredicate returns nil when the filter imposes no constraint.
func (s *Schema[T]) fieldPredicate(key string, v Value, fold cases.Caser) predicate[T] {
	if v.Empty() {
		return nil
	}
	f, ok := s.fields[key]
	if !ok {
		return nil
	}

	switch f.Rule {
	case TagsMatchAny:
		if v.Kind() != KindTags {
			return func(T) bool { return false }
		}
		want := make(map[string]struct{}, len(v.tags))
		for _, t := range v.tags {
			want[t] = struct{}{}
		}
		return func(rec T) bool {
			for _, t := range f.tags(rec) {
				if _, hit := want[t]; hit {
					return true
				}
			}
			return false
		}

	case TextContains:
		needle := fold.String(v.Text())
		return func(rec T) bool {
			return strings.Contains(fold.String(f.text(rec)), needle)
		}

	case NumberEquals:
		want := v.Number()
		return func(rec T) bool {
			return f.number(rec) == want
		}

	default:
		return nil
	}
}
