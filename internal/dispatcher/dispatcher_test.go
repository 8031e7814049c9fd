package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/protocol"
)

func testLogger() *zap.SugaredLogger { return zap.NewNop().Sugar() }

func TestDispatchUnrecognizedCommand(t *testing.T) {
	d := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	resp := d.Dispatch(ctx, Request{Command: "no-such-command"})
	require.Equal(t, ResultFailure, resp.Result)
	require.Equal(t, "unrecognized", resp.Data.(map[string]string)["error"])
}

func TestDispatchRoutesToConsoleHandler(t *testing.T) {
	d := New(testLogger())
	d.RegisterConsole("ping", func(ctx context.Context, args Arguments) (any, error) {
		return map[string]string{"pong": "yes"}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	resp := d.Dispatch(ctx, Request{Command: "ping"})
	require.Equal(t, ResultSuccess, resp.Result)
	require.NotEmpty(t, resp.RequestID)
}

func TestDispatchRendersHandlerErrorWithoutErrorKind(t *testing.T) {
	d := New(testLogger())
	d.RegisterConsole("boom", func(ctx context.Context, args Arguments) (any, error) {
		return nil, protocol.NewError(protocol.ArgumentInvalid, "bad widget")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	resp := d.Dispatch(ctx, Request{Command: "boom"})
	require.Equal(t, ResultFailure, resp.Result)
	msg := resp.Data.(map[string]string)["error"]
	require.Equal(t, "bad widget", msg)
	require.NotContains(t, msg, "ArgumentInvalid")
}

func TestArgumentsGet(t *testing.T) {
	args := Arguments{{"state": "on"}}
	v, ok := args.Get("state")
	require.True(t, ok)
	require.Equal(t, "on", v)

	_, ok = args.Get("missing")
	require.False(t, ok)
}

func TestDataAndConsoleHandlersRunConcurrently(t *testing.T) {
	d := New(testLogger())
	consoleStarted := make(chan struct{})
	consoleRelease := make(chan struct{})
	d.RegisterConsole("slow", func(ctx context.Context, args Arguments) (any, error) {
		close(consoleStarted)
		<-consoleRelease
		return nil, nil
	})
	d.RegisterData("fast", func(ctx context.Context, args Arguments) (any, error) {
		return "ok", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	go d.Dispatch(ctx, Request{Command: "slow"})
	<-consoleStarted

	done := make(chan Response, 1)
	go func() { done <- d.Dispatch(ctx, Request{Command: "fast"}) }()

	select {
	case resp := <-done:
		require.Equal(t, ResultSuccess, resp.Result)
	case <-time.After(time.Second):
		t.Fatal("data handler blocked behind slow console handler")
	}
	close(consoleRelease)
}
