package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// NodeFunc is the unit of work for a node. It receives a read-only snapshot
// of workflow state and returns an update map to be merged into the state.
type NodeFunc func(ctx context.Context, state *State) (map[string]any, error)

// FallbackFunc produces a degraded update when a node has exhausted its
// retries. Returning a non-nil map lets the run continue; the node is marked
// completed (degraded) instead of failing the execution.
type FallbackFunc func(ctx context.Context, state *State, err error) map[string]any

// RetryPolicy configures bounded retries for a node's function.
type RetryPolicy struct {
	MaxRetries int           `json:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay,omitempty"`
	MaxDelay   time.Duration `json:"max_delay,omitempty"`
}

// Node is a named unit of work with declared dependencies. A node becomes
// eligible to run once every node in DependsOn has completed; nodes with no
// unmet dependency run concurrently.
type Node struct {
	Name      string
	DependsOn []string
	Func      NodeFunc
	Retry     *RetryPolicy
	Fallback  FallbackFunc
}

// Options are used to configure a workflow.
type Options struct {
	Name        string
	Description string
	Nodes       []*Node
	Reducers    map[string]Reducer
	State       map[string]any
}

// Workflow defines a repeatable process as a dependency graph of nodes.
type Workflow struct {
	name         string
	description  string
	nodes        []*Node
	nodesByName  map[string]*Node
	reducers     map[string]Reducer
	initialState map[string]any
}

// New returns a new Workflow configured with the given options. It fails
// with a configuration error if a node name is duplicated, a dependency
// references an unregistered node, or the dependency graph contains a cycle.
func New(opts Options) (*Workflow, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("workflow name required")
	}
	if len(opts.Nodes) == 0 {
		return nil, fmt.Errorf("nodes required")
	}

	nodesByName := make(map[string]*Node, len(opts.Nodes))
	for _, node := range opts.Nodes {
		if node.Name == "" {
			return nil, fmt.Errorf("node name required")
		}
		if node.Func == nil {
			return nil, fmt.Errorf("node %q: function required", node.Name)
		}
		if _, exists := nodesByName[node.Name]; exists {
			return nil, fmt.Errorf("duplicate node name: %q", node.Name)
		}
		nodesByName[node.Name] = node
	}
	for _, node := range opts.Nodes {
		for _, dep := range node.DependsOn {
			if _, ok := nodesByName[dep]; !ok {
				return nil, fmt.Errorf("node %q depends on unregistered node %q", node.Name, dep)
			}
			if dep == node.Name {
				return nil, fmt.Errorf("node %q depends on itself", node.Name)
			}
		}
	}
	if err := detectCycle(opts.Nodes); err != nil {
		return nil, err
	}

	reducers := make(map[string]Reducer, len(opts.Reducers))
	for k, v := range opts.Reducers {
		reducers[k] = v
	}

	return &Workflow{
		name:         opts.Name,
		description:  opts.Description,
		nodes:        opts.Nodes,
		nodesByName:  nodesByName,
		reducers:     reducers,
		initialState: copyMap(opts.State),
	}, nil
}

// Name returns the workflow name
func (w *Workflow) Name() string {
	return w.name
}

// Description returns the workflow description
func (w *Workflow) Description() string {
	return w.description
}

// Nodes returns the workflow nodes
func (w *Workflow) Nodes() []*Node {
	return w.nodes
}

// GetNode returns a node by name
func (w *Workflow) GetNode(name string) (*Node, bool) {
	node, ok := w.nodesByName[name]
	return node, ok
}

// NodeNames returns the names of all nodes in the workflow, sorted.
func (w *Workflow) NodeNames() []string {
	names := make([]string, 0, len(w.nodesByName))
	for name := range w.nodesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitialState returns the workflow initial state
func (w *Workflow) InitialState() map[string]any {
	return copyMap(w.initialState)
}

// detectCycle runs Kahn's algorithm over the dependency edges. Any node left
// with a nonzero indegree after processing is part of a cycle.
func detectCycle(nodes []*Node) error {
	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		indegree[node.Name] = len(node.DependsOn)
		for _, dep := range node.DependsOn {
			dependents[dep] = append(dependents[dep], node.Name)
		}
	}

	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	processed := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		processed++
		for _, dep := range dependents[name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	if processed != len(nodes) {
		var cyclic []string
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return fmt.Errorf("dependency cycle involving nodes: %v", cyclic)
	}
	return nil
}
