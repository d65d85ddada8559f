package query

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindUnset Kind = iota
	KindText
	KindNumber
	KindTags
	KindIDs
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindTags:
		return "tags"
	case KindIDs:
		return "ids"
	default:
		return "unset"
	}
}

// Value is a single query-state entry: text, a number, a list of tags or a
// list of record ids. The zero Value is unset.
type Value struct {
	kind Kind
	text string
	num  float64
	tags []string
	ids  []int
}

// Unset returns a Value that removes its key when merged.
func Unset() Value { return Value{} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric Value. NaN is allowed and never matches a filter.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns a numeric Value holding n.
func Int(n int) Value { return Number(float64(n)) }

// Tags returns a list Value. The slice is copied.
func Tags(tags ...string) Value {
	return Value{kind: KindTags, tags: slices.Clone(tags)}
}

// IDs returns an id-list Value. The slice is copied.
func IDs(ids ...int) Value {
	return Value{kind: KindIDs, ids: slices.Clone(ids)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Text returns the textual form of v. Numbers use the shortest decimal
// representation; lists are joined with commas.
func (v Value) Text() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return formatNumber(v.num)
	case KindTags:
		return strings.Join(v.tags, ",")
	case KindIDs:
		parts := make([]string, len(v.ids))
		for i, id := range v.ids {
			parts[i] = strconv.Itoa(id)
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}

// Number coerces v to a float64. Text is parsed after trimming spaces; every
// other kind, and unparsable text, yields NaN.
func (v Value) Number() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Tags returns a copy of the list held by a tags Value, or nil.
func (v Value) Tags() []string {
	if v.kind != KindTags {
		return nil
	}
	return slices.Clone(v.tags)
}

// IDs returns a copy of the list held by an id-list Value, or nil.
func (v Value) IDs() []int {
	if v.kind != KindIDs {
		return nil
	}
	return slices.Clone(v.ids)
}

// Empty reports whether v imposes no constraint: unset, empty text or an
// empty list.
func (v Value) Empty() bool {
	switch v.kind {
	case KindUnset:
		return true
	case KindText:
		return v.text == ""
	case KindTags:
		return len(v.tags) == 0
	case KindIDs:
		return len(v.ids) == 0
	default:
		return false
	}
}

// IsNaN reports whether v is a numeric NaN.
func (v Value) IsNaN() bool {
	return v.kind == KindNumber && math.IsNaN(v.num)
}

// Equal reports whether v and o hold the same variant and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindTags:
		return slices.Equal(v.tags, o.tags)
	case KindIDs:
		return slices.Equal(v.ids, o.ids)
	default:
		return true
	}
}

// String implements fmt.Stringer.
func (v Value) String() string {
	switch v.kind {
	case KindTags, KindIDs:
		return "[" + v.Text() + "]"
	case KindUnset:
		return "<unset>"
	default:
		return v.Text()
	}
}

// MarshalJSON encodes v as a JSON string, number or array. Unset and NaN
// values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindTags:
		if v.tags == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.tags)
	case KindIDs:
		if v.ids == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.ids)
	default:
		return []byte("null"), nil
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
