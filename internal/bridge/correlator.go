package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// RemoteError is a failure reported by the other side of the bridge.
// Only the message survives the crossing.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

// outcome is the terminal state of one pending operation.
type outcome struct {
	result json.RawMessage
	err    error
}

// Pending is the handle for one dispatched request. Await blocks until
// the matching response arrives or the context is done.
type Pending struct {
	id uint64
	ch <-chan outcome
}

// ID returns the request id assigned at dispatch.
func (p *Pending) ID() uint64 {
	return p.id
}

// Await blocks for the operation's result.
func (p *Pending) Await(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("bridge: awaiting response %d: %w", p.id, ctx.Err())
	case out := <-p.ch:
		return out.result, out.err
	}
}

// Correlator pairs each outbound request with its eventual inbound
// result. Ids are monotonically increasing and never reused; at most one
// pending operation exists per id. Per-id state machine:
// Dispatched -> {Resolved | Rejected}, re-delivery after resolution is a
// no-op.
type Correlator struct {
	send   func(ctx context.Context, req Request) error
	logger *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan outcome
}

// NewCorrelator creates a correlator around the transport's send
// primitive.
func NewCorrelator(send func(ctx context.Context, req Request) error, logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Correlator{
		send:    send,
		logger:  logger,
		pending: make(map[uint64]chan outcome),
	}
}

// Dispatch assigns the next request id, registers the pending operation,
// and sends the envelope. Registration happens before the send so a
// response racing the send cannot be dropped. A failed send unregisters
// the operation and returns the transport error.
func (c *Correlator) Dispatch(ctx context.Context, method string, payload any) (*Pending, error) {
	var raw json.RawMessage

	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("bridge: marshaling %s payload: %w", method, err)
		}

		raw = encoded
	}

	ch := make(chan outcome, 1)

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.send(ctx, Request{ID: id, Method: method, Payload: raw}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()

		return nil, fmt.Errorf("bridge: sending %s request: %w", method, err)
	}

	c.logger.Debug("request dispatched",
		slog.Uint64("id", id),
		slog.String("method", method),
	)

	return &Pending{id: id, ch: ch}, nil
}

// Resolve completes the pending operation for id with a result. An
// unknown or already-completed id is silently dropped.
func (c *Correlator) Resolve(id uint64, result json.RawMessage) {
	c.complete(id, outcome{result: result})
}

// Reject completes the pending operation for id with a failure. An
// unknown or already-completed id is silently dropped.
func (c *Correlator) Reject(id uint64, message string) {
	c.complete(id, outcome{err: &RemoteError{Message: message}})
}

// RejectAll fails every outstanding operation, e.g. when the transport
// dies underneath them.
func (c *Correlator) RejectAll(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, ch := range c.pending {
		delete(c.pending, id)
		ch <- outcome{err: &RemoteError{Message: message}}
	}
}

func (c *Correlator) complete(id uint64, out outcome) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		// Stale duplicate or unknown id, not an error condition.
		c.logger.Debug("dropping unmatched response", slog.Uint64("id", id))

		return
	}

	ch <- out
}
