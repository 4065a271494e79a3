package fabric

import "context"

// Command is a one-shot request/reply envelope sent into a
// single-threaded actor's inbox channel. The actor reads Payload,
// computes a Response, and sends exactly once on Reply. Grounded on the
// teacher's internal/workers.Pool job/result channel pair
// (internal/workers/pool.go), collapsed into a single generic type
// since every actor inbox here is a simple command-then-reply, not a
// worker pool.
type Command[P any, R any] struct {
	Payload P
	Reply   chan R
}

// NewCommand builds a command with a buffered, single-slot reply
// channel so the sender never blocks waiting for the actor to receive.
func NewCommand[P any, R any](payload P) *Command[P, R] {
	return &Command[P, R]{
		Payload: payload,
		Reply:   make(chan R, 1),
	}
}

// Send enqueues the command and blocks for its reply, honoring ctx
// cancellation on both the send and the receive.
func Send[P any, R any](ctx context.Context, inbox chan<- *Command[P, R], payload P) (R, error) {
	var zero R
	cmd := NewCommand[P, R](payload)
	select {
	case inbox <- cmd:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case resp := <-cmd.Reply:
		return resp, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
