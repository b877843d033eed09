package workflow

import (
	"context"
	"fmt"
	"strings"
)

// PendingInterrupt describes a question raised by a node that is waiting for
// human input.
type PendingInterrupt struct {
	Node     string `json:"node"`
	Agent    string `json:"agent,omitempty"`
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

// InterruptError is returned by Run and Resume when one or more nodes have
// suspended awaiting human input. The execution state is checkpointed; call
// Resume with answers keyed by node name to continue.
type InterruptError struct {
	ExecutionID string
	Interrupts  []PendingInterrupt
}

func (e *InterruptError) Error() string {
	var nodes []string
	for _, i := range e.Interrupts {
		nodes = append(nodes, i.Node)
	}
	return fmt.Sprintf("execution %s suspended awaiting human input (nodes: %s)",
		e.ExecutionID, strings.Join(nodes, ", "))
}

// interruptSignal is the internal error a node function propagates when it
// suspends. It is non-recoverable so retry wrappers pass it straight through.
type interruptSignal struct {
	payload PendingInterrupt
}

func (s *interruptSignal) Error() string {
	return "awaiting human input: " + s.payload.Question
}

func (s *interruptSignal) IsRecoverable() bool {
	return false
}

// resumeCursor carries recorded answers for a node that is replaying after a
// resume. Answers are consumed in the order the node raises interrupts.
type resumeCursor struct {
	node    string
	answers []string
	index   int
}

type interruptContextKey struct{}

func withResumeCursor(ctx context.Context, cursor *resumeCursor) context.Context {
	return context.WithValue(ctx, interruptContextKey{}, cursor)
}

// Interrupt suspends the calling node until a human answer is provided. On
// the initial call it returns an error that the node function must propagate
// unchanged. When the node replays after Resume, Interrupt returns the
// recorded answer instead. The answer is the human's literal text with no
// structure imposed on it.
func Interrupt(ctx context.Context, payload PendingInterrupt) (string, error) {
	cursor, ok := ctx.Value(interruptContextKey{}).(*resumeCursor)
	if ok {
		if payload.Node == "" {
			payload.Node = cursor.node
		}
		if cursor.index < len(cursor.answers) {
			answer := cursor.answers[cursor.index]
			cursor.index++
			return answer, nil
		}
	}
	return "", &interruptSignal{payload: payload}
}
