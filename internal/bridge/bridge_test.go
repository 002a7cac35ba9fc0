package bridge

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/game-bridge/internal/clock"
	"github.com/mj1618/game-bridge/internal/platform"
	"github.com/mj1618/game-bridge/internal/protocol"
	"github.com/mj1618/game-bridge/internal/transport"
)

// testController plays the remote controller over an in-memory pipe. It
// pumps inbound frames into Frames so tests can assert on them.
type testController struct {
	t      *testing.T
	server net.Conn
	Frames chan map[string]any
	dials  chan struct{}
}

func newTestController(t *testing.T) *testController {
	return &testController{
		t:      t,
		Frames: make(chan map[string]any, 64),
		dials:  make(chan struct{}, 8),
	}
}

func (c *testController) dialer(address string) (net.Conn, error) {
	client, server := net.Pipe()
	c.server = server
	c.dials <- struct{}{}
	go c.pump(server)
	return client, nil
}

func (c *testController) pump(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var frame map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &frame); err != nil {
			continue
		}
		c.Frames <- frame
	}
}

func (c *testController) waitDial() {
	c.t.Helper()
	select {
	case <-c.dials:
	case <-time.After(2 * time.Second):
		c.t.Fatal("bridge did not dial")
	}
}

func (c *testController) sendRaw(raw string) {
	c.t.Helper()
	_, err := c.server.Write([]byte(raw))
	require.NoError(c.t, err)
}

func (c *testController) send(id, command string, params any) {
	c.t.Helper()
	frame := map[string]any{"type": "command", "id": id, "command": command}
	if params != nil {
		frame["parameters"] = params
	}
	data, err := json.Marshal(frame)
	require.NoError(c.t, err)
	c.sendRaw(string(data) + "\n")
}

func (c *testController) next() map[string]any {
	c.t.Helper()
	select {
	case f := <-c.Frames:
		return f
	case <-time.After(2 * time.Second):
		c.t.Fatal("timed out waiting for frame")
		return nil
	}
}

// fakeInjector records synthetic tap requests.
type fakeInjector struct {
	mu   sync.Mutex
	taps []protocol.Position
}

func (f *fakeInjector) TapAt(x, y float64, target platform.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taps = append(f.taps, protocol.Position{X: x, Y: y})
	return nil
}

func (f *fakeInjector) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.taps)
}

func newTestBridge(t *testing.T, ctrl *testController, opts Options) *Bridge {
	t.Helper()
	opts.Dialer = ctrl.dialer
	if opts.Clock == nil {
		opts.Clock = clock.Fake(time.Unix(0, 0))
	}
	b := New(opts)
	t.Cleanup(b.Destroy)
	ctrl.waitDial()
	return b
}

func TestBridgeAnswersPing(t *testing.T) {
	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{})
	require.Eventually(t, b.Connected, 2*time.Second, 10*time.Millisecond)

	ctrl.send("c-1", "ping", nil)

	resp := ctrl.next()
	assert.Equal(t, "response", resp["type"])
	assert.Equal(t, "c-1", resp["id"])
	assert.Equal(t, "ping", resp["command"])
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "pong", resp["data"])
}

func TestBridgeSkipsMalformedLineOnly(t *testing.T) {
	ctrl := newTestController(t)
	newTestBridge(t, ctrl, Options{})

	// One frame, three lines: good, garbage, good. Only the garbage line
	// is dropped.
	ctrl.sendRaw(`{"type":"command","id":"a","command":"ping"}` + "\n" +
		`{this is not json` + "\n" +
		`{"type":"command","id":"b","command":"ping"}` + "\n")

	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		resp := ctrl.next()
		ids[resp["id"].(string)] = true
	}
	assert.True(t, ids["a"] && ids["b"], "both well-formed lines must be processed: %v", ids)
}

func TestBridgeListsRegistrations(t *testing.T) {
	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{})

	b.RegisterProperty("score", func() any { return 7 })
	b.RegisterAction("reset", func([]string) error { return nil })
	b.RegisterCommand("dump", func(string) (any, error) { return "ok", nil })
	b.RegisterElement("play", func() *protocol.Position { return nil })

	ctrl.send("1", "listCustomProperties", nil)
	assert.Equal(t, []any{"score"}, ctrl.next()["data"])

	ctrl.send("2", "getUIElements", nil)
	resp := ctrl.next()
	elements := resp["data"].([]any)
	require.Len(t, elements, 1)
	el := elements[0].(map[string]any)
	assert.Equal(t, "play", el["name"])
	// Hidden element reports the origin.
	pos := el["position"].(map[string]any)
	assert.Equal(t, float64(0), pos["x"])
	assert.Equal(t, float64(0), pos["y"])
}

func TestBridgeTapElement(t *testing.T) {
	injector := &fakeInjector{}
	hit := &fakeHitTester{}
	hit.set(60, 80, &fakeNode{name: "btn"})

	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{
		Provider: platform.Provider{HitTester: hit, Injector: injector},
	})

	visible := true
	b.RegisterElement("play", func() *protocol.Position {
		if !visible {
			return nil
		}
		return &protocol.Position{X: 60, Y: 80}
	})

	ctrl.send("1", "tapElement", map[string]any{"path": "play"})
	resp := ctrl.next()
	require.Equal(t, true, resp["success"], "tap of visible element: %v", resp)
	assert.Equal(t, 1, injector.count())

	// Hidden element: failure, and no injection attempted.
	visible = false
	ctrl.send("2", "tapElement", map[string]any{"path": "play"})
	resp = ctrl.next()
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, 1, injector.count(), "no synthetic interaction for a hidden element")

	// Unregistered element: failure.
	ctrl.send("3", "tapElement", map[string]any{"path": "ghost"})
	resp = ctrl.next()
	assert.Equal(t, false, resp["success"])
}

func TestBridgePointerTapEmitsEvent(t *testing.T) {
	canvas := &fakeNode{name: "canvas", opaque: true}
	hit := &fakeHitTester{}
	hit.set(100, 110, canvas)
	pointer := &fakePointer{}

	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{
		Provider: platform.Provider{HitTester: hit, Pointer: pointer},
	})
	require.Eventually(t, b.Connected, 2*time.Second, 10*time.Millisecond)

	b.RegisterElement("play", func() *protocol.Position {
		return &protocol.Position{X: 100, Y: 100}
	})
	require.True(t, pointer.Subscribed(), "first element registration arms monitoring")

	pointer.Fire(100, 110)

	ev := ctrl.next()
	assert.Equal(t, "event", ev["type"])
	assert.Equal(t, "elementTapped", ev["event"])
	data := ev["data"].(map[string]any)
	assert.Equal(t, "play", data["element"])
	assert.Equal(t, "canvas", data["matchType"])
	assert.Equal(t, float64(10), data["dist"])
}

func TestBridgeExplicitTapMode(t *testing.T) {
	pointer := &fakePointer{}
	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{
		ExplicitTaps: true,
		Provider:     platform.Provider{Pointer: pointer},
	})
	require.Eventually(t, b.Connected, 2*time.Second, 10*time.Millisecond)

	b.RegisterElement("play", func() *protocol.Position {
		return &protocol.Position{X: 1, Y: 2}
	})
	assert.False(t, pointer.Subscribed(), "explicit mode must not install the pointer listener")

	b.NotifyElementTapped("play")
	ev := ctrl.next()
	assert.Equal(t, "elementTapped", ev["event"])
	data := ev["data"].(map[string]any)
	assert.Equal(t, "play", data["element"])
	assert.Equal(t, "explicit", data["matchType"])

	// Unknown names are dropped, not sent.
	b.NotifyElementTapped("ghost")
	select {
	case extra := <-ctrl.Frames:
		t.Fatalf("unexpected frame for unknown element: %v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBridgeDestroyIsTerminal(t *testing.T) {
	fc := clock.Fake(time.Unix(0, 0))
	ctrl := newTestController(t)
	b := newTestBridge(t, ctrl, Options{Clock: fc})
	require.Eventually(t, b.Connected, 2*time.Second, 10*time.Millisecond)

	b.Destroy()
	b.Destroy() // idempotent

	// The reconnect interval elapsing must not produce a new dial.
	fc.Advance(time.Minute)
	select {
	case <-ctrl.dials:
		t.Fatal("destroyed bridge attempted to reconnect")
	case <-time.After(50 * time.Millisecond):
	}

	require.Equal(t, transport.StateDestroyed, transportState(b))
}

func transportState(b *Bridge) transport.State {
	return b.conn.State()
}
