package reconcile

import (
	"encoding/json"
	"reflect"
)

// optionsEqual compares local option payloads with what the registry echoes
// back. An attribute present on one side only is equal to the zero value
// of its type on the other, because registries fill in defaults such as
// required=false. Numbers compare by value.
func optionsEqual(local, remote []map[string]any, ordered bool) bool {
	if len(local) != len(remote) {
		return false
	}
	if !ordered {
		if l, ok := byName(local); ok {
			if r, ok := byName(remote); ok {
				if len(l) != len(r) {
					return false
				}
				for name, lo := range l {
					ro, found := r[name]
					if !found || !mapEqual(lo, ro) {
						return false
					}
				}
				return true
			}
		}
		// Unnamed or duplicated options cannot be keyed; fall back to order.
	}
	for i := range local {
		if !mapEqual(local[i], remote[i]) {
			return false
		}
	}
	return true
}

func byName(opts []map[string]any) (map[string]map[string]any, bool) {
	out := make(map[string]map[string]any, len(opts))
	for _, o := range opts {
		name, ok := o["name"].(string)
		if !ok {
			return nil, false
		}
		if _, dup := out[name]; dup {
			return nil, false
		}
		out[name] = o
	}
	return out, true
}

func mapEqual(a, b map[string]any) bool {
	for k, va := range a {
		if !valueEqual(va, b[k]) {
			return false
		}
	}
	for k, vb := range b {
		if _, seen := a[k]; !seen && !valueEqual(nil, vb) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil {
		a = zeroLike(b)
	}
	if b == nil {
		b = zeroLike(a)
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && mapEqual(av, bv)
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// normalize maps numbers to float64 and any slice or string-keyed map to
// []any and map[string]any.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any, map[string]any:
		return t
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	}
	return v
}

func zeroLike(v any) any {
	switch v.(type) {
	case bool:
		return false
	case float64:
		return float64(0)
	case string:
		return ""
	case []any:
		return []any{}
	case map[string]any:
		return map[string]any{}
	}
	return nil
}
