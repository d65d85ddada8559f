// Package urlstate keeps a query.State in sync with a URL query string.
package urlstate

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/simp-lee/datatable/internal/query"
)

// Codec converts between url.Values and query.State using the value kinds
// declared by a schema.
type Codec struct {
	params query.Params
}

// NewCodec returns a Codec for the given parameter kinds.
func NewCodec(params query.Params) *Codec {
	return &Codec{params: params}
}

// Params returns the recognized keys and their kinds.
func (c *Codec) Params() query.Params { return c.params }

// Decode parses values into a State. Parsing is permissive: unknown keys,
// empty values and malformed values are left out of the result.
func (c *Codec) Decode(values url.Values) query.State {
	st := make(query.State)
	for key, raw := range values {
		kind, ok := c.params[key]
		if !ok {
			continue
		}
		v := decodeValue(kind, raw)
		if v.Empty() || v.IsNaN() {
			continue
		}
		st[key] = v
	}
	return st
}

// DecodePatch parses values like Decode but keeps explicitly empty and
// malformed entries, so that merging the result clears those keys.
func (c *Codec) DecodePatch(values url.Values) query.State {
	st := make(query.State)
	for key, raw := range values {
		kind, ok := c.params[key]
		if !ok {
			continue
		}
		st[key] = decodeValue(kind, raw)
	}
	return st
}

// Encode writes st as canonical url.Values. Lists repeat their key; numbers
// use the shortest decimal form. Empty and NaN values are omitted. A single
// tag holding a comma is followed by an empty value so that it is not read
// back as a comma-separated list.
func (c *Codec) Encode(st query.State) url.Values {
	out := make(url.Values, len(st))
	for key, v := range st {
		if v.Empty() || v.IsNaN() {
			continue
		}
		switch v.Kind() {
		case query.KindTags:
			tags := v.Tags()
			if len(tags) == 1 && strings.Contains(tags[0], ",") {
				tags = append(tags, "")
			}
			out[key] = tags
		case query.KindIDs:
			ids := v.IDs()
			vals := make([]string, len(ids))
			for i, id := range ids {
				vals[i] = strconv.Itoa(id)
			}
			out[key] = vals
		default:
			out.Set(key, v.Text())
		}
	}
	return out
}

// Normalize coerces each value of st to the kind its key decodes into, so
// that a merged value reads back unchanged. Numeric text becomes a Number
// (NaN when malformed); a single text value for a list key becomes a one
// element list. Keys the codec does not know keep their value.
func (c *Codec) Normalize(st query.State) query.State {
	out := make(query.State, len(st))
	for key, v := range st {
		kind, ok := c.params[key]
		if !ok || v.Kind() == query.KindUnset || v.Kind() == kind {
			out[key] = v
			continue
		}
		out[key] = coerce(kind, v)
	}
	return out
}

// DecodeJSON converts a decoded JSON object into a patch. null unsets a key,
// strings are text, numbers are numbers and arrays are lists. Other JSON
// types are rejected. Keys the codec does not know are dropped.
func (c *Codec) DecodeJSON(obj map[string]any) (query.State, error) {
	st := make(query.State, len(obj))
	for key, raw := range obj {
		kind, ok := c.params[key]
		if !ok {
			continue
		}
		v, err := jsonValue(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		st[key] = v
	}
	return c.Normalize(st), nil
}

func decodeValue(kind query.Kind, raw []string) query.Value {
	switch kind {
	case query.KindTags:
		return query.Tags(splitList(raw)...)
	case query.KindIDs:
		ids := make([]int, 0, len(raw))
		for _, r := range raw {
			for _, p := range splitList([]string{r}) {
				if id, err := strconv.Atoi(p); err == nil {
					ids = append(ids, id)
				}
			}
		}
		return query.IDs(ids...)
	case query.KindNumber:
		s := strings.TrimSpace(first(raw))
		if s == "" {
			return query.Text("")
		}
		return query.Number(parseNumber(s))
	default:
		return query.Text(first(raw))
	}
}

func coerce(kind query.Kind, v query.Value) query.Value {
	switch kind {
	case query.KindNumber:
		if v.Kind() == query.KindText && strings.TrimSpace(v.Text()) == "" {
			return query.Text("")
		}
		return query.Number(v.Number())
	case query.KindTags:
		return query.Tags(splitList([]string{v.Text()})...)
	case query.KindIDs:
		return decodeValue(query.KindIDs, []string{v.Text()})
	case query.KindText:
		return query.Text(v.Text())
	default:
		return v
	}
}

func jsonValue(kind query.Kind, raw any) (query.Value, error) {
	switch x := raw.(type) {
	case nil:
		return query.Unset(), nil
	case string:
		return query.Text(x), nil
	case float64:
		return query.Number(x), nil
	case []any:
		if kind == query.KindIDs {
			ids := make([]int, 0, len(x))
			for _, e := range x {
				n, ok := e.(float64)
				if !ok || n != math.Trunc(n) {
					return query.Value{}, fmt.Errorf("expected integer ids, got %v", e)
				}
				ids = append(ids, int(n))
			}
			return query.IDs(ids...), nil
		}
		tags := make([]string, 0, len(x))
		for _, e := range x {
			switch t := e.(type) {
			case string:
				tags = append(tags, t)
			case float64:
				tags = append(tags, strconv.FormatFloat(t, 'f', -1, 64))
			default:
				return query.Value{}, fmt.Errorf("unsupported list element %v", e)
			}
		}
		return query.Tags(tags...), nil
	default:
		return query.Value{}, fmt.Errorf("unsupported value %v", raw)
	}
}

// splitList flattens a list parameter, dropping blanks. A lone value is read
// as a comma-separated list; repeated values are taken as they are.
func splitList(raw []string) []string {
	if len(raw) == 1 {
		raw = strings.Split(raw[0], ",")
	}
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func first(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return raw[0]
}
