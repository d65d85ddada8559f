package query

import (
	"slices"
	"strings"
)

// FacetCount is the number of records carrying one value of a field.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facets counts the values of field over the records that pass every part of
// st except the field's own filter, so the counts describe what selecting
// another value would yield. A record with several tags counts once toward
// each distinct tag. Declared options come first in declaration order, even
// with a zero count; other values follow sorted.
func Facets[T any](records []T, schema *Schema[T], st State, field string) []FacetCount {
	f, ok := schema.fields[field]
	if !ok || f.Rule == DateRange {
		return nil
	}

	p := schema.compile(st, field)
	counts := make(map[string]int)
	seen := make(map[string]struct{})

	for _, rec := range records {
		if p.selection != nil && !p.selection(rec) {
			continue
		}
		if !p.match(rec) {
			continue
		}
		switch f.Rule {
		case TagsMatchAny:
			clear(seen)
			for _, t := range f.tags(rec) {
				if _, dup := seen[t]; dup {
					continue
				}
				seen[t] = struct{}{}
				counts[t]++
			}
		default:
			counts[schema.Display(rec, field)]++
		}
	}

	out := make([]FacetCount, 0, len(counts)+len(f.Options))
	for _, opt := range f.Options {
		out = append(out, FacetCount{Value: opt, Count: counts[opt]})
		delete(counts, opt)
	}
	rest := make([]FacetCount, 0, len(counts))
	for v, n := range counts {
		rest = append(rest, FacetCount{Value: v, Count: n})
	}
	slices.SortFunc(rest, func(a, b FacetCount) int { return strings.Compare(a.Value, b.Value) })

	return append(out, rest...)
}

// FacetsAll returns facets for every tags field of the schema.
func FacetsAll[T any](records []T, schema *Schema[T], st State) map[string][]FacetCount {
	out := make(map[string][]FacetCount)
	for _, f := range schema.Fields() {
		if f.Rule == TagsMatchAny {
			out[f.Name] = Facets(records, schema, st, f.Name)
		}
	}
	return out
}

// SelectionFacet counts the records that pass every part of st except the
// selection filter, split into the explicitly selected ones and the rest.
func SelectionFacet[T any](records []T, schema *Schema[T], st State) []FacetCount {
	p := schema.compile(st, "")
	_, ids := st.Selection()

	var in, out int
	for _, rec := range records {
		if !p.match(rec) {
			continue
		}
		if slices.Contains(ids, schema.id(rec)) {
			in++
		} else {
			out++
		}
	}
	return []FacetCount{{Value: Selected, Count: in}, {Value: NotSelected, Count: out}}
}
