package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectingSender records sent requests.
type collectingSender struct {
	sent []Request
	err  error
}

func (s *collectingSender) send(_ context.Context, req Request) error {
	if s.err != nil {
		return s.err
	}

	s.sent = append(s.sent, req)

	return nil
}

func TestCorrelator_MonotonicIDs(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	first, err := corr.Dispatch(context.Background(), MethodGetFile, "f1")
	require.NoError(t, err)

	second, err := corr.Dispatch(context.Background(), MethodGetFile, "f2")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first.ID())
	assert.Equal(t, uint64(2), second.ID())
	assert.Len(t, sender.sent, 2)
	assert.Equal(t, MethodGetFile, sender.sent[0].Method)
}

func TestCorrelator_ResolveDeliversResult(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	pending, err := corr.Dispatch(context.Background(), MethodSaveFile, map[string]string{"body": "x"})
	require.NoError(t, err)

	corr.Resolve(pending.ID(), json.RawMessage(`{"id":"file-1"}`))

	result, err := pending.Await(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"file-1"}`, string(result))
}

func TestCorrelator_RejectDeliversError(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	pending, err := corr.Dispatch(context.Background(), MethodSaveFile, nil)
	require.NoError(t, err)

	corr.Reject(pending.ID(), "quota exceeded")

	_, err = pending.Await(context.Background())
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "quota exceeded", remote.Message)
}

func TestCorrelator_DoubleResolutionIsNoOp(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	pending, err := corr.Dispatch(context.Background(), MethodGetFile, "f1")
	require.NoError(t, err)

	corr.Resolve(pending.ID(), json.RawMessage(`"first"`))

	// Neither a duplicate resolve nor a late reject may panic or change
	// the outcome.
	assert.NotPanics(t, func() {
		corr.Resolve(pending.ID(), json.RawMessage(`"second"`))
		corr.Reject(pending.ID(), "too late")
	})

	result, err := pending.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `"first"`, string(result))
}

func TestCorrelator_UnknownIDDropped(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	assert.NotPanics(t, func() {
		corr.Resolve(999, json.RawMessage(`{}`))
		corr.Reject(999, "whatever")
	})
}

func TestCorrelator_SendFailureUnregisters(t *testing.T) {
	sender := &collectingSender{err: errors.New("pipe broken")}
	corr := NewCorrelator(sender.send, slog.Default())

	_, err := corr.Dispatch(context.Background(), MethodGetFile, "f1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipe broken")

	// The failed dispatch left nothing pending: a late response for its
	// id is a silent drop.
	assert.NotPanics(t, func() {
		corr.Resolve(1, json.RawMessage(`{}`))
	})
}

func TestCorrelator_AwaitContextCancel(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	pending, err := corr.Dispatch(context.Background(), MethodGetFile, "f1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = pending.Await(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCorrelator_RejectAll(t *testing.T) {
	sender := &collectingSender{}
	corr := NewCorrelator(sender.send, slog.Default())

	first, err := corr.Dispatch(context.Background(), MethodGetFile, "f1")
	require.NoError(t, err)

	second, err := corr.Dispatch(context.Background(), MethodGetFile, "f2")
	require.NoError(t, err)

	corr.RejectAll("connection closed")

	for _, pending := range []*Pending{first, second} {
		_, err := pending.Await(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection closed")
	}
}
