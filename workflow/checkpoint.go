package workflow

import "time"

// NodeStatus represents the current state of a node within an execution.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusSuspended NodeStatus = "suspended"
	NodeStatusFailed    NodeStatus = "failed"
)

// NodeState tracks one node's progress. This struct is designed to be fully
// JSON serializable.
type NodeState struct {
	Name         string     `json:"name"`
	Status       NodeStatus `json:"status"`
	Attempts     int        `json:"attempts,omitempty"`
	Degraded     bool       `json:"degraded,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartTime    time.Time  `json:"start_time,omitzero"`
	EndTime      time.Time  `json:"end_time,omitzero"`
}

// Copy returns a copy of the node state.
func (n *NodeState) Copy() *NodeState {
	c := *n
	return &c
}

// Checkpoint contains a complete snapshot of execution state. One is written
// after every node completion and at suspension or termination, so a run can
// always be resumed from its latest checkpoint.
type Checkpoint struct {
	ID           string                `json:"id"`
	ExecutionID  string                `json:"execution_id"`
	WorkflowName string                `json:"workflow_name"`
	Status       string                `json:"status"`
	State        map[string]any        `json:"state"`
	NodeStates   map[string]*NodeState `json:"node_states"`
	Interrupts   []PendingInterrupt    `json:"interrupts,omitempty"`
	ResumeValues map[string][]string   `json:"resume_values,omitempty"`
	Error        string                `json:"error,omitempty"`
	StartTime    time.Time             `json:"start_time,omitzero"`
	EndTime      time.Time             `json:"end_time,omitzero"`
	CheckpointAt time.Time             `json:"checkpoint_at"`
}

func copyNodeStates(m map[string]*NodeState) map[string]*NodeState {
	out := make(map[string]*NodeState, len(m))
	for k, v := range m {
		out[k] = v.Copy()
	}
	return out
}
