package workflow

import (
	"context"
	"time"
)

// ExecutionCallbacks defines the callback interface for workflow execution events
type ExecutionCallbacks interface {
	BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent)
	AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent)

	BeforeNodeExecution(ctx context.Context, event *NodeExecutionEvent)
	AfterNodeExecution(ctx context.Context, event *NodeExecutionEvent)
}

// WorkflowExecutionEvent provides context for workflow-level execution events
type WorkflowExecutionEvent struct {
	ExecutionID  string
	WorkflowName string
	Status       ExecutionStatus
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Error        error
}

// NodeExecutionEvent provides context for node-level execution events
type NodeExecutionEvent struct {
	ExecutionID  string
	WorkflowName string
	NodeName     string
	Status       NodeStatus
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	Attempts     int
	Error        error
}

// BaseExecutionCallbacks provides a default implementation that does nothing.
// Embed this in your own callbacks to only implement the events you care about.
type BaseExecutionCallbacks struct{}

func (n *BaseExecutionCallbacks) BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
}

func (n *BaseExecutionCallbacks) AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
}

func (n *BaseExecutionCallbacks) BeforeNodeExecution(ctx context.Context, event *NodeExecutionEvent) {
}

func (n *BaseExecutionCallbacks) AfterNodeExecution(ctx context.Context, event *NodeExecutionEvent) {
}

// CallbackChain allows chaining multiple callback implementations
type CallbackChain struct {
	callbacks []ExecutionCallbacks
}

// NewCallbackChain creates a new callback chain
func NewCallbackChain(callbacks ...ExecutionCallbacks) *CallbackChain {
	return &CallbackChain{callbacks: callbacks}
}

// Add adds a callback to the chain
func (c *CallbackChain) Add(callback ExecutionCallbacks) {
	c.callbacks = append(c.callbacks, callback)
}

func (c *CallbackChain) BeforeWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeWorkflowExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterWorkflowExecution(ctx context.Context, event *WorkflowExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterWorkflowExecution(ctx, event)
	}
}

func (c *CallbackChain) BeforeNodeExecution(ctx context.Context, event *NodeExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.BeforeNodeExecution(ctx, event)
	}
}

func (c *CallbackChain) AfterNodeExecution(ctx context.Context, event *NodeExecutionEvent) {
	for _, callback := range c.callbacks {
		callback.AfterNodeExecution(ctx, event)
	}
}
