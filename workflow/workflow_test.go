package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func noopNode(ctx context.Context, state *State) (map[string]any, error) {
	return nil, nil
}

func TestWorkflowNodeNames(t *testing.T) {
	wf, err := New(Options{
		Name: "test-workflow",
		Nodes: []*Node{
			{Name: "node1", Func: noopNode},
			{Name: "node2", Func: noopNode, DependsOn: []string{"node1"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"node1", "node2"}, wf.NodeNames())

	node, ok := wf.GetNode("node2")
	require.True(t, ok)
	require.Equal(t, []string{"node1"}, node.DependsOn)
}

func TestInvalidWorkflows(t *testing.T) {
	t.Run("empty workflow", func(t *testing.T) {
		_, err := New(Options{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "workflow name required")
	})

	t.Run("no nodes", func(t *testing.T) {
		_, err := New(Options{Name: "test-workflow"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "nodes required")
	})

	t.Run("missing function", func(t *testing.T) {
		_, err := New(Options{
			Name:  "test-workflow",
			Nodes: []*Node{{Name: "a"}},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "function required")
	})

	t.Run("duplicate node name", func(t *testing.T) {
		_, err := New(Options{
			Name: "test-workflow",
			Nodes: []*Node{
				{Name: "a", Func: noopNode},
				{Name: "a", Func: noopNode},
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate node name")
	})

	t.Run("unregistered dependency", func(t *testing.T) {
		_, err := New(Options{
			Name: "test-workflow",
			Nodes: []*Node{
				{Name: "a", Func: noopNode, DependsOn: []string{"missing"}},
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "unregistered node")
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := New(Options{
			Name: "test-workflow",
			Nodes: []*Node{
				{Name: "a", Func: noopNode, DependsOn: []string{"a"}},
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "depends on itself")
	})

	t.Run("dependency cycle", func(t *testing.T) {
		_, err := New(Options{
			Name: "test-workflow",
			Nodes: []*Node{
				{Name: "a", Func: noopNode, DependsOn: []string{"c"}},
				{Name: "b", Func: noopNode, DependsOn: []string{"a"}},
				{Name: "c", Func: noopNode, DependsOn: []string{"b"}},
			},
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "dependency cycle")
	})
}
