package bridge

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/game-bridge/internal/protocol"
)

// newTestDispatcher returns a dispatcher whose responses are appended to
// the returned collector.
func newTestDispatcher(reg *Registry) (*Dispatcher, *responseCollector) {
	collector := &responseCollector{ch: make(chan protocol.Response, 64)}
	d := &Dispatcher{
		registry: reg,
		logger:   slog.Default(),
		send:     collector.add,
		tap:      func(string) error { return errors.New("no injector in test") },
	}
	return d, collector
}

type responseCollector struct {
	mu   sync.Mutex
	all  []protocol.Response
	ch   chan protocol.Response
}

func (c *responseCollector) add(r protocol.Response) {
	c.mu.Lock()
	c.all = append(c.all, r)
	c.mu.Unlock()
	c.ch <- r
}

func (c *responseCollector) next(t *testing.T) protocol.Response {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for response")
		return protocol.Response{}
	}
}

func mustParse(t *testing.T, line string) protocol.Request {
	t.Helper()
	req, err := protocol.ParseRequest([]byte(line))
	if err != nil {
		t.Fatalf("parse %q: %v", line, err)
	}
	return req
}

func TestHandle_Ping(t *testing.T) {
	d, _ := newTestDispatcher(NewRegistry())
	resp := d.handle(mustParse(t, `{"type":"command","id":"a1","command":"ping"}`))

	if !resp.Success || resp.Data != "pong" {
		t.Errorf("expected pong, got %+v", resp)
	}
	if resp.ID != "a1" || resp.Command != "ping" {
		t.Errorf("correlation fields not echoed: %+v", resp)
	}
}

func TestHandle_GetProperty(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterProperty("score", func() any { return 1200 })
	reg.RegisterProperty("broken", func() any { panic("getter exploded") })
	d, _ := newTestDispatcher(reg)

	t.Run("registered", func(t *testing.T) {
		resp := d.handle(mustParse(t,
			`{"type":"command","id":"1","command":"getCustomProperty","parameters":{"name":"score"}}`))
		if !resp.Success {
			t.Fatalf("expected success, got %+v", resp)
		}
		want := map[string]string{"value": "1200"}
		if !reflect.DeepEqual(resp.Data, want) {
			t.Errorf("expected stringified value, got %+v", resp.Data)
		}
	})

	t.Run("unregistered", func(t *testing.T) {
		resp := d.handle(mustParse(t,
			`{"type":"command","id":"2","command":"getCustomProperty","parameters":{"name":"missing"}}`))
		if resp.Success {
			t.Fatal("expected failure for unregistered property")
		}
		if resp.Error == "" || resp.Data != nil {
			t.Errorf("failure must carry error only: %+v", resp)
		}
	})

	t.Run("getter panics", func(t *testing.T) {
		resp := d.handle(mustParse(t,
			`{"type":"command","id":"3","command":"getCustomProperty","parameters":{"name":"broken"}}`))
		if resp.Success {
			t.Fatal("expected failure when getter panics")
		}
	})
}

func TestHandle_ExecuteAction(t *testing.T) {
	var gotArgs []string
	reg := NewRegistry()
	reg.RegisterAction("move", func(args []string) error {
		gotArgs = args
		return nil
	})
	reg.RegisterAction("fail", func([]string) error { return errors.New("cannot comply") })
	d, _ := newTestDispatcher(reg)

	resp := d.handle(mustParse(t,
		`{"type":"command","id":"1","command":"executeCustomAction","parameters":{"name":"move","args":["3","4"]}}`))
	if !resp.Success || resp.Data != nil {
		t.Errorf("action success carries no data: %+v", resp)
	}
	if !reflect.DeepEqual(gotArgs, []string{"3", "4"}) {
		t.Errorf("args not delivered in order: %v", gotArgs)
	}

	resp = d.handle(mustParse(t,
		`{"type":"command","id":"2","command":"executeCustomAction","parameters":{"name":"fail"}}`))
	if resp.Success || resp.Error != "cannot comply" {
		t.Errorf("expected handler error surfaced, got %+v", resp)
	}

	resp = d.handle(mustParse(t,
		`{"type":"command","id":"3","command":"executeCustomAction","parameters":{"name":"ghost"}}`))
	if resp.Success {
		t.Error("expected failure for unregistered action")
	}
}

func TestHandle_ExecuteCommandReturnsResultVerbatim(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("inventory", func(param string) (any, error) {
		return map[string]any{"slot": param, "items": []string{"sword", "shield"}}, nil
	})
	d, _ := newTestDispatcher(reg)

	resp := d.handle(mustParse(t,
		`{"type":"command","id":"1","command":"executeCustomCommand","parameters":{"name":"inventory","param":"main"}}`))
	if !resp.Success {
		t.Fatalf("expected success, got %+v", resp)
	}
	want := map[string]any{"slot": "main", "items": []string{"sword", "shield"}}
	if !reflect.DeepEqual(resp.Data, want) {
		t.Errorf("handler result not returned verbatim:\n got %+v\nwant %+v", resp.Data, want)
	}
}

func TestHandle_ListCommandsAndUnknown(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("b", func(string) (any, error) { return nil, nil })
	reg.RegisterCommand("a", func(string) (any, error) { return nil, nil })
	d, _ := newTestDispatcher(reg)

	resp := d.handle(mustParse(t, `{"type":"command","id":"1","command":"listCustomCommands"}`))
	if !reflect.DeepEqual(resp.Data, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %+v", resp.Data)
	}

	resp = d.handle(mustParse(t, `{"type":"command","id":"2","command":"warpDrive"}`))
	if resp.Success || resp.Error != "Unknown command" {
		t.Errorf("expected Unknown command failure, got %+v", resp)
	}
	if resp.Command != "warpDrive" {
		t.Errorf("unknown command name must still be echoed: %+v", resp)
	}
}

func TestDispatch_ConcurrentRequestsKeepTheirIDs(t *testing.T) {
	reg := NewRegistry()
	slow := make(chan struct{})
	reg.RegisterCommand("slow", func(string) (any, error) {
		<-slow
		return "slow-result", nil
	})
	d, collector := newTestDispatcher(reg)

	// A slow command dispatched first must not block or steal the
	// correlation of later pings.
	d.Dispatch(mustParse(t,
		`{"type":"command","id":"slow-1","command":"executeCustomCommand","parameters":{"name":"slow"}}`))
	for i := 0; i < 5; i++ {
		d.Dispatch(mustParse(t, fmt.Sprintf(`{"type":"command","id":"ping-%d","command":"ping"}`, i)))
	}

	seen := map[string]protocol.Response{}
	for i := 0; i < 5; i++ {
		r := collector.next(t)
		seen[r.ID] = r
	}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("ping-%d", i)
		r, ok := seen[id]
		if !ok {
			t.Fatalf("no response for %s", id)
		}
		if r.Command != "ping" || r.Data != "pong" {
			t.Errorf("response %s mismatched: %+v", id, r)
		}
	}

	close(slow)
	r := collector.next(t)
	if r.ID != "slow-1" || r.Data != "slow-result" {
		t.Errorf("slow command response wrong: %+v", r)
	}
}
