package interpolation

import "fmt"

// Materialize walks a decoded document (maps, slices and scalars) and returns
// a copy where every string has its ${NAME} placeholders resolved through
// lookup. The first unresolved name aborts the walk; nothing partial is
// returned. Values that are neither strings nor containers are copied as is.
// The input document is never modified.
func Materialize(raw any, lookup Lookup) (any, error) {
	if lookup == nil {
		lookup = OSLookup
	}
	return materialize(raw, lookup)
}

// MaterializeMap is Materialize for the common top-level mapping case.
func MaterializeMap(raw map[string]any, lookup Lookup) (map[string]any, error) {
	out, err := Materialize(raw, lookup)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		// only reachable for a nil input map
		return map[string]any{}, nil
	}
	return m, nil
}

func materialize(value any, lookup Lookup) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return nil, nil
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := materialize(item, lookup)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		if v == nil {
			return nil, nil
		}
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := materialize(item, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			resolved, err := Expand(item, lookup)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			resolved, err := Expand(item, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return Expand(v, lookup)
	default:
		return v, nil
	}
}

// Residual returns the path of the first string still carrying a
// placeholder, or "" when the document is fully materialized.
func Residual(value any) string {
	return residual(value, "$")
}

func residual(value any, path string) string {
	switch v := value.(type) {
	case map[string]any:
		for key, item := range v {
			if p := residual(item, path+"."+key); p != "" {
				return p
			}
		}
	case []any:
		for i, item := range v {
			if p := residual(item, fmt.Sprintf("%s[%d]", path, i)); p != "" {
				return p
			}
		}
	case string:
		if HasPlaceholders(v) {
			return path
		}
	}
	return ""
}
