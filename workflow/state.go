package workflow

import (
	"sort"
)

// Reducer merges an incoming value written by a node into the existing value
// for a state key. Reducers for accumulator keys must be commutative and
// associative so that the completion order of concurrent nodes cannot change
// the final merged contents.
type Reducer func(existing, incoming any) any

// AppendReducer concatenates list values. A non-list incoming value is
// appended as a single element.
func AppendReducer(existing, incoming any) any {
	out := append([]any{}, toList(existing)...)
	return append(out, toList(incoming)...)
}

// MergeMapReducer merges map values key-by-key, incoming entries winning.
func MergeMapReducer(existing, incoming any) any {
	out := map[string]any{}
	if m, ok := existing.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	if m, ok := incoming.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func toList(v any) []any {
	switch s := v.(type) {
	case nil:
		return nil
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	case []map[string]any:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out
	default:
		return []any{v}
	}
}

// State is a read-only snapshot of workflow state handed to a node function.
// Nodes communicate changes by returning an update map, never by mutating
// the snapshot.
type State struct {
	values map[string]any
}

// NewState creates a state snapshot over a copy of the given values.
func NewState(values map[string]any) *State {
	return &State{values: copyMap(values)}
}

// Get returns the value for a key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string value for a key, or "" if absent or not a string.
func (s *State) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// GetBool returns the bool value for a key, or false if absent.
func (s *State) GetBool(key string) bool {
	v, _ := s.values[key].(bool)
	return v
}

// GetMap returns the map value for a key, or nil.
func (s *State) GetMap(key string) map[string]any {
	v, _ := s.values[key].(map[string]any)
	return v
}

// GetList returns the list value for a key, or nil.
func (s *State) GetList(key string) []any {
	return toList(s.values[key])
}

// Keys returns all state keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a shallow copy of the underlying values.
func (s *State) Values() map[string]any {
	return copyMap(s.values)
}

// copyMap creates a shallow copy of a map
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
