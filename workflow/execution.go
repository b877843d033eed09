package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/leonzzz435/garmin-ai-coach/workflow/retry"
	"go.jetify.com/typeid"
)

// NewExecutionID returns a new unique identifier for an execution.
func NewExecutionID() string {
	id, err := typeid.WithPrefix("exec")
	if err != nil {
		panic(err)
	}
	return id.String()
}

// ExecutionStatus represents the execution status
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusSuspended ExecutionStatus = "suspended"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// ExecutionOptions configures a new execution
type ExecutionOptions struct {
	Workflow     *Workflow
	State        map[string]any
	Checkpointer Checkpointer
	Logger       *slog.Logger
	Callbacks    ExecutionCallbacks
	ExecutionID  string
	DefaultRetry *RetryPolicy
}

// Execution runs one workflow instance: it schedules nodes as their
// dependencies complete, merges node updates into the shared state under the
// workflow's reducers, and checkpoints after every node so the run can be
// suspended and resumed.
type Execution struct {
	workflow     *Workflow
	executionID  string
	status       ExecutionStatus
	values       map[string]any
	nodeStates   map[string]*NodeState
	resumeValues map[string][]string
	interrupts   []PendingInterrupt
	startTime    time.Time
	endTime      time.Time
	errMessage   string

	checkpointer Checkpointer
	callbacks    ExecutionCallbacks
	logger       *slog.Logger
	defaultRetry *RetryPolicy

	checkpointCounter int
	mutex             sync.Mutex
	started           bool
}

// nodeResult is delivered by a node goroutine when the node finishes,
// suspends, or fails.
type nodeResult struct {
	name      string
	update    map[string]any
	err       error
	interrupt *PendingInterrupt
	degraded  error
	attempts  int
	startTime time.Time
	endTime   time.Time
}

// NewExecution creates a new execution for the given workflow.
func NewExecution(opts ExecutionOptions) (*Execution, error) {
	if opts.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Checkpointer == nil {
		opts.Checkpointer = NewNullCheckpointer()
	}
	if opts.Callbacks == nil {
		opts.Callbacks = &BaseExecutionCallbacks{}
	}
	if opts.ExecutionID == "" {
		opts.ExecutionID = NewExecutionID()
	}

	values := opts.Workflow.InitialState()
	for k, v := range opts.State {
		values[k] = v
	}

	nodeStates := make(map[string]*NodeState, len(opts.Workflow.Nodes()))
	for _, node := range opts.Workflow.Nodes() {
		nodeStates[node.Name] = &NodeState{Name: node.Name, Status: NodeStatusPending}
	}

	return &Execution{
		workflow:     opts.Workflow,
		executionID:  opts.ExecutionID,
		status:       ExecutionStatusPending,
		values:       values,
		nodeStates:   nodeStates,
		resumeValues: map[string][]string{},
		checkpointer: opts.Checkpointer,
		callbacks:    opts.Callbacks,
		logger:       opts.Logger.With("execution_id", opts.ExecutionID),
		defaultRetry: opts.DefaultRetry,
	}, nil
}

// ID returns the execution ID
func (e *Execution) ID() string {
	return e.executionID
}

// Status returns the current execution status
func (e *Execution) Status() ExecutionStatus {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.status
}

// State returns a snapshot of the current execution state.
func (e *Execution) State() *State {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return NewState(e.values)
}

// NodeStates returns a copy of the per-node states.
func (e *Execution) NodeStates() map[string]*NodeState {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return copyNodeStates(e.nodeStates)
}

func (e *Execution) start() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.started {
		return fmt.Errorf("execution already started")
	}
	e.started = true
	return nil
}

// Run executes the workflow to completion. It returns the final state, or an
// *InterruptError when one or more nodes suspended awaiting human input, or
// a terminal error when a node without a fallback failed.
func (e *Execution) Run(ctx context.Context) (*State, error) {
	if err := e.start(); err != nil {
		return nil, err
	}
	return e.run(ctx)
}

// Resume continues a previous execution from its latest checkpoint. Answers
// are keyed by node name, ordered by the sequence in which the node asked
// its questions; they are reinjected into the suspended nodes' pending
// Interrupt calls. Nodes that already completed are not re-run.
func (e *Execution) Resume(ctx context.Context, priorExecutionID string, answers map[string][]string) (*State, error) {
	if err := e.start(); err != nil {
		return nil, err
	}

	checkpoint, err := e.checkpointer.LoadCheckpoint(ctx, priorExecutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if checkpoint == nil {
		return nil, fmt.Errorf("no checkpoint found for execution %q", priorExecutionID)
	}

	e.mutex.Lock()
	e.values = copyMap(checkpoint.State)
	e.startTime = checkpoint.StartTime
	e.errMessage = ""
	e.interrupts = nil
	e.resumeValues = map[string][]string{}
	for node, vals := range checkpoint.ResumeValues {
		e.resumeValues[node] = append([]string{}, vals...)
	}
	for name, state := range checkpoint.NodeStates {
		if existing, ok := e.nodeStates[name]; ok {
			*existing = *state
			// Suspended and failed nodes are re-run from their start.
			if existing.Status == NodeStatusSuspended || existing.Status == NodeStatusFailed ||
				existing.Status == NodeStatusRunning {
				existing.Status = NodeStatusPending
				existing.ErrorMessage = ""
			}
		}
	}
	for node, vals := range answers {
		e.resumeValues[node] = append(e.resumeValues[node], vals...)
	}
	alreadyCompleted := ExecutionStatus(checkpoint.Status) == ExecutionStatusCompleted
	e.mutex.Unlock()

	if alreadyCompleted {
		e.logger.Info("execution already completed from checkpoint")
		e.mutex.Lock()
		e.status = ExecutionStatusCompleted
		state := NewState(e.values)
		e.mutex.Unlock()
		return state, nil
	}
	return e.run(ctx)
}

// run executes the scheduling loop, blocking until the workflow completes,
// suspends, or fails.
func (e *Execution) run(ctx context.Context) (*State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mutex.Lock()
	e.status = ExecutionStatusRunning
	if e.startTime.IsZero() {
		e.startTime = time.Now()
	}
	e.mutex.Unlock()

	e.callbacks.BeforeWorkflowExecution(ctx, &WorkflowExecutionEvent{
		ExecutionID:  e.executionID,
		WorkflowName: e.workflow.Name(),
		Status:       ExecutionStatusRunning,
		StartTime:    e.startTime,
	})

	results := make(chan nodeResult)
	inFlight := 0
	suspended := false
	var execErr error

	for {
		if execErr == nil && !suspended {
			for _, node := range e.readyNodes() {
				e.launchNode(ctx, node, results)
				inFlight++
			}
		}
		if inFlight == 0 {
			break
		}
		select {
		case <-ctx.Done():
			// Drain in-flight nodes so their goroutines do not leak; their
			// results are discarded.
			for inFlight > 0 {
				<-results
				inFlight--
			}
			if execErr == nil {
				execErr = ctx.Err()
			}
		case res := <-results:
			inFlight--
			e.processResult(ctx, res, &suspended, &execErr, cancel)
		}
	}

	return e.finish(ctx, suspended, execErr)
}

// readyNodes returns pending nodes whose dependencies have all completed.
func (e *Execution) readyNodes() []*Node {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var ready []*Node
	for _, node := range e.workflow.Nodes() {
		if e.nodeStates[node.Name].Status != NodeStatusPending {
			continue
		}
		satisfied := true
		for _, dep := range node.DependsOn {
			if e.nodeStates[dep].Status != NodeStatusCompleted {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, node)
		}
	}
	return ready
}

func (e *Execution) launchNode(ctx context.Context, node *Node, results chan<- nodeResult) {
	e.mutex.Lock()
	state := e.nodeStates[node.Name]
	state.Status = NodeStatusRunning
	state.StartTime = time.Now()
	snapshot := NewState(e.values)
	answers := append([]string{}, e.resumeValues[node.Name]...)
	e.mutex.Unlock()

	e.callbacks.BeforeNodeExecution(ctx, &NodeExecutionEvent{
		ExecutionID:  e.executionID,
		WorkflowName: e.workflow.Name(),
		NodeName:     node.Name,
		Status:       NodeStatusRunning,
		StartTime:    state.StartTime,
	})

	e.logger.Debug("node started", "node", node.Name)
	go e.runNode(ctx, node, snapshot, answers, results)
}

// runNode executes one node, applying the node's retry policy. Interrupts
// and fallback handling are resolved here so the scheduling loop only sees
// terminal outcomes.
func (e *Execution) runNode(ctx context.Context, node *Node, snapshot *State, answers []string, results chan<- nodeResult) {
	res := nodeResult{name: node.Name, startTime: time.Now()}

	var update map[string]any
	op := func() error {
		res.attempts++
		// Each attempt replays the node function from its start, so the
		// recorded answers must replay from their start too.
		nctx := withResumeCursor(ctx, &resumeCursor{node: node.Name, answers: answers})
		u, err := node.Func(nctx, snapshot)
		if err == nil {
			update = u
		}
		return err
	}

	policy := node.Retry
	if policy == nil {
		policy = e.defaultRetry
	}
	var err error
	if policy != nil && policy.MaxRetries > 0 {
		opts := []retry.Option{retry.WithMaxRetries(policy.MaxRetries)}
		if policy.BaseDelay > 0 {
			opts = append(opts, retry.WithBaseWait(policy.BaseDelay))
		}
		if policy.MaxDelay > 0 {
			opts = append(opts, retry.WithMaxWait(policy.MaxDelay))
		}
		err = retry.Do(ctx, op, opts...)
	} else {
		err = op()
	}

	res.endTime = time.Now()

	var sig *interruptSignal
	switch {
	case errors.As(err, &sig):
		payload := sig.payload
		payload.Node = node.Name
		res.interrupt = &payload
	case err != nil && node.Fallback != nil:
		res.update = node.Fallback(ctx, snapshot, err)
		res.degraded = err
	default:
		res.update = update
		res.err = err
	}
	results <- res
}

func (e *Execution) processResult(ctx context.Context, res nodeResult, suspended *bool, execErr *error, cancel context.CancelFunc) {
	e.mutex.Lock()
	state := e.nodeStates[res.name]
	state.Attempts = res.attempts
	state.EndTime = res.endTime

	event := &NodeExecutionEvent{
		ExecutionID:  e.executionID,
		WorkflowName: e.workflow.Name(),
		NodeName:     res.name,
		StartTime:    state.StartTime,
		EndTime:      res.endTime,
		Duration:     res.endTime.Sub(state.StartTime),
		Attempts:     res.attempts,
	}

	switch {
	case res.interrupt != nil:
		state.Status = NodeStatusSuspended
		e.interrupts = append(e.interrupts, *res.interrupt)
		*suspended = true
		event.Status = NodeStatusSuspended
		e.mutex.Unlock()
		e.logger.Info("node suspended awaiting human input",
			"node", res.name, "question", res.interrupt.Question)

	case res.err != nil:
		classified := ClassifyError(res.err)
		state.Status = NodeStatusFailed
		state.ErrorMessage = res.err.Error()
		*execErr = fmt.Errorf("node %q failed: %w", res.name, res.err)
		event.Status = NodeStatusFailed
		event.Error = res.err
		e.mutex.Unlock()
		e.logger.Error("node failed",
			"node", res.name, "type", classified.Type, "error", res.err, "attempts", res.attempts)
		cancel()

	default:
		e.applyUpdateLocked(res.update)
		state.Status = NodeStatusCompleted
		if res.degraded != nil {
			state.Degraded = true
			state.ErrorMessage = res.degraded.Error()
		}
		event.Status = NodeStatusCompleted
		e.mutex.Unlock()
		if res.degraded != nil {
			e.logger.Warn("node completed with degraded fallback",
				"node", res.name, "error", res.degraded)
		} else {
			e.logger.Debug("node completed", "node", res.name, "attempts", res.attempts)
		}
	}

	e.callbacks.AfterNodeExecution(ctx, event)
	if err := e.saveCheckpoint(ctx); err != nil {
		e.logger.Error("failed to save checkpoint", "error", err)
	}
}

// applyUpdateLocked merges a node's update into the state map. Keys with a
// registered reducer merge; other keys overwrite (nodes own disjoint keys).
func (e *Execution) applyUpdateLocked(update map[string]any) {
	for key, incoming := range update {
		if reducer, ok := e.workflow.reducers[key]; ok {
			e.values[key] = reducer(e.values[key], incoming)
		} else {
			e.values[key] = incoming
		}
	}
}

func (e *Execution) finish(ctx context.Context, suspended bool, execErr error) (*State, error) {
	e.mutex.Lock()
	e.endTime = time.Now()
	var finalStatus ExecutionStatus
	switch {
	case execErr != nil:
		finalStatus = ExecutionStatusFailed
		e.errMessage = execErr.Error()
	case suspended:
		finalStatus = ExecutionStatusSuspended
		e.endTime = time.Time{}
	default:
		finalStatus = ExecutionStatusCompleted
	}
	e.status = finalStatus
	finalState := NewState(e.values)
	interrupts := append([]PendingInterrupt{}, e.interrupts...)
	e.mutex.Unlock()

	e.callbacks.AfterWorkflowExecution(ctx, &WorkflowExecutionEvent{
		ExecutionID:  e.executionID,
		WorkflowName: e.workflow.Name(),
		Status:       finalStatus,
		StartTime:    e.startTime,
		EndTime:      e.endTime,
		Duration:     e.endTime.Sub(e.startTime),
		Error:        execErr,
	})

	if err := e.saveCheckpoint(ctx); err != nil {
		e.logger.Error("failed to save final checkpoint", "error", err)
	}

	switch finalStatus {
	case ExecutionStatusFailed:
		e.logger.Error("execution failed", "error", execErr)
		return nil, execErr
	case ExecutionStatusSuspended:
		e.logger.Info("execution suspended", "pending_interrupts", len(interrupts))
		return nil, &InterruptError{ExecutionID: e.executionID, Interrupts: interrupts}
	default:
		e.logger.Info("execution completed")
		return finalState, nil
	}
}

// saveCheckpoint saves the current execution state
func (e *Execution) saveCheckpoint(ctx context.Context) error {
	e.mutex.Lock()
	e.checkpointCounter++
	checkpoint := &Checkpoint{
		// Zero-padded so lexicographic ordering matches checkpoint order
		// in stores that compare IDs as text.
		ID:           fmt.Sprintf("%06d", e.checkpointCounter),
		ExecutionID:  e.executionID,
		WorkflowName: e.workflow.Name(),
		Status:       string(e.status),
		State:        copyMap(e.values),
		NodeStates:   copyNodeStates(e.nodeStates),
		Interrupts:   append([]PendingInterrupt{}, e.interrupts...),
		ResumeValues: e.copyResumeValuesLocked(),
		Error:        e.errMessage,
		StartTime:    e.startTime,
		EndTime:      e.endTime,
		CheckpointAt: time.Now(),
	}
	e.mutex.Unlock()
	return e.checkpointer.SaveCheckpoint(ctx, checkpoint)
}

func (e *Execution) copyResumeValuesLocked() map[string][]string {
	out := make(map[string][]string, len(e.resumeValues))
	for k, v := range e.resumeValues {
		out[k] = append([]string{}, v...)
	}
	return out
}
