package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendReducer(t *testing.T) {
	out := AppendReducer(nil, []any{"a"})
	require.Equal(t, []any{"a"}, out)

	out = AppendReducer(out, []any{"b", "c"})
	require.Equal(t, []any{"a", "b", "c"}, out)

	// Single values append as one element
	out = AppendReducer(out, "d")
	require.Equal(t, []any{"a", "b", "c", "d"}, out)
}

func TestAppendReducerCommutative(t *testing.T) {
	a := []any{"x"}
	b := []any{"y"}
	left := AppendReducer(AppendReducer(nil, a), b)
	right := AppendReducer(AppendReducer(nil, b), a)
	require.ElementsMatch(t, left, right)
}

func TestMergeMapReducer(t *testing.T) {
	out := MergeMapReducer(nil, map[string]any{"a": 1})
	require.Equal(t, map[string]any{"a": 1}, out)

	out = MergeMapReducer(out, map[string]any{"b": 2})
	require.Equal(t, map[string]any{"a": 1, "b": 2}, out)

	// Incoming wins on key collision
	out = MergeMapReducer(out, map[string]any{"a": 3})
	require.Equal(t, map[string]any{"a": 3, "b": 2}, out)
}

func TestStateAccessors(t *testing.T) {
	s := NewState(map[string]any{
		"name":    "Aiko",
		"enabled": true,
		"data":    map[string]any{"k": "v"},
		"list":    []any{1, 2},
	})

	require.Equal(t, "Aiko", s.GetString("name"))
	require.Equal(t, "", s.GetString("missing"))
	require.True(t, s.GetBool("enabled"))
	require.False(t, s.GetBool("missing"))
	require.Equal(t, map[string]any{"k": "v"}, s.GetMap("data"))
	require.Equal(t, []any{1, 2}, s.GetList("list"))
	require.Equal(t, []string{"data", "enabled", "list", "name"}, s.Keys())

	// Values returns a copy; mutating it does not affect the snapshot
	values := s.Values()
	values["name"] = "changed"
	require.Equal(t, "Aiko", s.GetString("name"))
}
