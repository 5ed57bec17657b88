package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// compareValues orders two stored values. ok is false when they are not of a
// comparable kind (string with string, number with number, bool with bool).
func compareValues(a, b any) (int, bool) {
	if as, aok := a.(string); aok {
		bs, bok := b.(string)
		if !bok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		if !bok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if ab, aok := a.(bool); aok {
		bb, bok := b.(bool)
		if !bok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func matches(rec Record, f Filter) bool {
	v, present := rec[f.Field]
	if !present {
		return false
	}
	c, ok := compareValues(v, f.Value)
	if !ok {
		return f.Op == OpEq && fmt.Sprint(v) == fmt.Sprint(f.Value)
	}
	switch f.Op {
	case OpEq:
		return c == 0
	case OpGte:
		return c >= 0
	case OpLte:
		return c <= 0
	}
	return false
}

func matchesAll(rec Record, filters []Filter) bool {
	for _, f := range filters {
		if !matches(rec, f) {
			return false
		}
	}
	return true
}

// deepCopy detaches nested maps and slices so callers cannot mutate stored state.
func deepCopy(v any) any {
	switch t := v.(type) {
	case Record:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = deepCopy(vv)
		}
		return out
	}
	return v
}

// normalize converts rec to plain JSON types (float64 numbers, []any, map[string]any),
// matching what a JSON column hands back.
func normalize(rec Record) (Record, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = Record{}
	}
	return out, nil
}
