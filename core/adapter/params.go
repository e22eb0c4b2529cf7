package adapter

import (
	"sort"

	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
)

// ParamSet is the configuration vocabulary used to construct detectors and
// their backends. Values survive a JSON round trip through the persistence
// container, so the typed getters coerce the numeric widenings that
// round trip introduces (an int stored as float64 comes back as an int).
type ParamSet map[string]any

// Clone returns a shallow copy of the set. A nil receiver yields an empty,
// writable set.
func (p ParamSet) Clone() ParamSet {
	out := make(ParamSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge overlays overrides onto a copy of the set and returns it. Later
// layers win: a key present in overrides replaces the existing value.
func (p ParamSet) Merge(overrides ParamSet) ParamSet {
	out := p.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Rename returns a copy of the set with keys translated through mapping.
// Keys without a mapping entry pass through unchanged.
func (p ParamSet) Rename(mapping map[string]string) ParamSet {
	out := make(ParamSet, len(p))
	for k, v := range p {
		if renamed, ok := mapping[k]; ok {
			out[renamed] = v
		} else {
			out[k] = v
		}
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p ParamSet) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Int returns the integer value stored under key, or fallback when the key
// is absent. Whole-number floats are accepted.
func (p ParamSet) Int(key string, fallback int) (int, error) {
	v, ok := p[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	case float32:
		if float64(n) == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, anogoErrors.NewValidationError(key, "must be an integer", v)
}

// Float returns the float value stored under key, or fallback when the key
// is absent. Integer values are widened.
func (p ParamSet) Float(key string, fallback float64) (float64, error) {
	v, ok := p[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, anogoErrors.NewValidationError(key, "must be a number", v)
}

// Bool returns the boolean value stored under key, or fallback when absent.
func (p ParamSet) Bool(key string, fallback bool) (bool, error) {
	v, ok := p[key]
	if !ok {
		return fallback, nil
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, anogoErrors.NewValidationError(key, "must be a boolean", v)
}

// String returns the string value stored under key, or fallback when absent.
func (p ParamSet) String(key string, fallback string) (string, error) {
	v, ok := p[key]
	if !ok {
		return fallback, nil
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", anogoErrors.NewValidationError(key, "must be a string", v)
}

// Sub returns the nested parameter set stored under key. Plain
// map[string]any values (as produced by JSON decoding) are accepted.
func (p ParamSet) Sub(key string) (ParamSet, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch m := v.(type) {
	case ParamSet:
		return m.Clone(), nil
	case map[string]any:
		return ParamSet(m).Clone(), nil
	}
	return nil, anogoErrors.NewValidationError(key, "must be a parameter map", v)
}
