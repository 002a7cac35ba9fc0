package controller

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/game-bridge/internal/bridge"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// startPair wires a real bridge to a client over loopback TCP.
func startPair(t *testing.T, opts bridge.Options) (*Client, *bridge.Bridge) {
	t.Helper()

	client, err := Listen(Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	opts.Address = client.Addr().String()
	b := bridge.New(opts)
	t.Cleanup(b.Destroy)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, client.WaitBridge(ctx))
	return client, b
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCallPing(t *testing.T) {
	client, _ := startPair(t, bridge.Options{})

	data, err := client.Call(callCtx(t), protocol.CmdPing, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"pong"`, string(data))
}

func TestCallNoBridge(t *testing.T) {
	client, err := Listen(Config{Address: "127.0.0.1:0"})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Call(callCtx(t), protocol.CmdPing, nil)
	assert.ErrorIs(t, err, ErrNoBridge)
}

func TestCallFailureBecomesCommandError(t *testing.T) {
	client, _ := startPair(t, bridge.Options{})

	_, err := client.Call(callCtx(t), protocol.CmdGetProperty, map[string]string{"name": "missing"})
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, protocol.CmdGetProperty, cmdErr.Command)
	assert.Contains(t, cmdErr.Message, "missing")
}

func TestConcurrentCallsCorrelate(t *testing.T) {
	release := make(chan struct{})
	client, b := startPair(t, bridge.Options{})
	b.RegisterCommand("slow", func(string) (any, error) {
		<-release
		return "late", nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var slowData json.RawMessage
	var slowErr error
	go func() {
		defer wg.Done()
		slowData, slowErr = client.Call(callCtx(t), protocol.CmdExecuteCommand,
			map[string]string{"name": "slow"})
	}()

	// Pings issued after the slow call still complete immediately, each
	// with its own correlated result.
	for i := 0; i < 5; i++ {
		data, err := client.Call(callCtx(t), protocol.CmdPing, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `"pong"`, string(data))
	}

	close(release)
	wg.Wait()
	require.NoError(t, slowErr)
	assert.JSONEq(t, `"late"`, string(slowData))
}

func TestCallHonorsContextDeadline(t *testing.T) {
	client, b := startPair(t, bridge.Options{})
	b.RegisterCommand("stuck", func(string) (any, error) {
		select {} // never returns; no cancellation exists for handlers
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := client.Call(ctx, protocol.CmdExecuteCommand, map[string]string{"name": "stuck"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEventsDelivered(t *testing.T) {
	client, b := startPair(t, bridge.Options{ExplicitTaps: true})
	b.RegisterElement("play", func() *protocol.Position {
		return &protocol.Position{X: 3, Y: 4}
	})

	b.NotifyElementTapped("play")

	select {
	case ev := <-client.Events():
		assert.Equal(t, protocol.EventElementTapped, ev.Event)
		var data protocol.TappedEventData
		require.NoError(t, json.Unmarshal(ev.Data, &data))
		assert.Equal(t, "play", data.Element)
		assert.Equal(t, protocol.MatchExplicit, data.MatchType)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}
