package query

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// FilterRule is the filter behavior attached to a schema field.
type FilterRule uint8

const (
	// TextContains matches a case-insensitive substring.
	TextContains FilterRule = iota + 1
	// NumberEquals matches exact numeric equality.
	NumberEquals
	// TagsMatchAny matches when the record's tags intersect the filter list.
	TagsMatchAny
	// DateRange is driven by the from/to keys rather than the field's own key.
	DateRange
	// SelectionState is driven by the selection/selectedIds keys.
	SelectionState
)

// String returns the rule name.
func (r FilterRule) String() string {
	switch r {
	case TextContains:
		return "text"
	case NumberEquals:
		return "number"
	case TagsMatchAny:
		return "tags"
	case DateRange:
		return "date"
	case SelectionState:
		return "selection"
	default:
		return "unknown"
	}
}

// Field describes one filterable attribute of a record type.
type Field[T any] struct {
	Name    string
	Rule    FilterRule
	Options []string // known tag values, shown as facets

	text   func(T) string
	number func(T) float64
	tags   func(T) []string
	date   func(T) time.Time
}

// TextField declares a text attribute.
func TextField[T any](name string, get func(T) string) Field[T] {
	return Field[T]{Name: name, Rule: TextContains, text: get}
}

// NumberField declares a numeric attribute.
func NumberField[T any](name string, get func(T) float64) Field[T] {
	return Field[T]{Name: name, Rule: NumberEquals, number: get}
}

// TagsField declares a multi-valued categorical attribute.
func TagsField[T any](name string, get func(T) []string, options ...string) Field[T] {
	return Field[T]{Name: name, Rule: TagsMatchAny, tags: get, Options: options}
}

// DateField declares the date attribute targeted by the from/to keys.
func DateField[T any](name string, get func(T) time.Time) Field[T] {
	return Field[T]{Name: name, Rule: DateRange, date: get}
}

// Sortable reports whether records can be ordered by this field.
func (f *Field[T]) Sortable() bool {
	return f.Rule == TextContains || f.Rule == NumberEquals || f.Rule == DateRange
}

// Kind returns the state value kind a URL parameter for this field decodes into.
func (f *Field[T]) Kind() Kind {
	switch f.Rule {
	case NumberEquals:
		return KindNumber
	case TagsMatchAny:
		return KindTags
	default:
		return KindText
	}
}

// SchemaConfig lists the attributes of a dataset.
type SchemaConfig[T any] struct {
	ID     func(T) int
	Fields []Field[T]
}

// Schema is the static field table of a dataset, built once at startup.
type Schema[T any] struct {
	id     func(T) int
	date   *Field[T]
	fields map[string]*Field[T]
	order  []string
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSchema validates cfg and builds a Schema. Every field must have a valid,
// unique, non-reserved name and an accessor matching its rule; at most one
// date field is allowed.
func NewSchema[T any](cfg SchemaConfig[T]) (*Schema[T], error) {
	if cfg.ID == nil {
		return nil, errors.New("schema: id accessor is required")
	}

	s := &Schema[T]{
		id:     cfg.ID,
		fields: make(map[string]*Field[T], len(cfg.Fields)),
		order:  make([]string, 0, len(cfg.Fields)),
	}

	for i := range cfg.Fields {
		f := cfg.Fields[i]
		if !fieldNamePattern.MatchString(f.Name) {
			return nil, fmt.Errorf("schema: invalid field name %q", f.Name)
		}
		if IsReserved(f.Name) {
			return nil, fmt.Errorf("schema: field name %q is reserved", f.Name)
		}
		if _, dup := s.fields[f.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate field %q", f.Name)
		}
		if err := checkAccessor(&f); err != nil {
			return nil, err
		}
		if f.Rule == DateRange {
			if s.date != nil {
				return nil, fmt.Errorf("schema: second date field %q (already have %q)", f.Name, s.date.Name)
			}
			s.date = &f
		}
		s.fields[f.Name] = &f
		s.order = append(s.order, f.Name)
	}

	return s, nil
}

// MustSchema is like NewSchema but panics on error. It is intended for
// package-level dataset declarations.
func MustSchema[T any](cfg SchemaConfig[T]) *Schema[T] {
	s, err := NewSchema(cfg)
	if err != nil {
		panic(err)
	}
	return s
}

func checkAccessor[T any](f *Field[T]) error {
	var ok bool
	switch f.Rule {
	case TextContains:
		ok = f.text != nil
	case NumberEquals:
		ok = f.number != nil
	case TagsMatchAny:
		ok = f.tags != nil
	case DateRange:
		ok = f.date != nil
	default:
		return fmt.Errorf("schema: field %q has unsupported rule %s", f.Name, f.Rule)
	}
	if !ok {
		return fmt.Errorf("schema: field %q is missing its %s accessor", f.Name, f.Rule)
	}
	return nil
}

// Lookup returns the field with the given name.
func (s *Schema[T]) Lookup(name string) (*Field[T], bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the fields in declaration order.
func (s *Schema[T]) Fields() []*Field[T] {
	out := make([]*Field[T], len(s.order))
	for i, name := range s.order {
		out[i] = s.fields[name]
	}
	return out
}

// ID returns the stable identifier of rec.
func (s *Schema[T]) ID(rec T) int { return s.id(rec) }

// HasDate reports whether the dataset has a date field for from/to filtering.
func (s *Schema[T]) HasDate() bool { return s.date != nil }

// Params returns the value kind of every search key the schema recognizes,
// including the reserved keys.
func (s *Schema[T]) Params() Params {
	p := Params{
		KeyPageIndex:   KindNumber,
		KeyPageSize:    KindNumber,
		KeySortBy:      KindText,
		KeySelection:   KindTags,
		KeySelectedIDs: KindIDs,
	}
	if s.date != nil {
		p[KeyFrom] = KindText
		p[KeyTo] = KindText
	}
	for name, f := range s.fields {
		if f.Rule == DateRange {
			continue
		}
		p[name] = f.Kind()
	}
	return p
}

// Params maps each recognized search key to the value kind it decodes into.
type Params map[string]Kind

// Display returns the textual cell value of field name for rec.
func (s *Schema[T]) Display(rec T, name string) string {
	f, ok := s.fields[name]
	if !ok {
		return ""
	}
	switch f.Rule {
	case TextContains:
		return f.text(rec)
	case NumberEquals:
		return formatNumber(f.number(rec))
	case TagsMatchAny:
		return Tags(f.tags(rec)...).Text()
	case DateRange:
		return f.date(rec).UTC().Format(DateLayout)
	default:
		return ""
	}
}
