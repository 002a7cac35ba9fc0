// Package transport owns the persistent socket to the controller: dialing,
// newline-delimited framing, and an auto-reconnect loop with a fixed delay.
// It has no knowledge of command semantics; decoded lines are handed to the
// consumer verbatim.
package transport

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/mj1618/game-bridge/internal/clock"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultAddress        = "127.0.0.1:8765"
	DefaultReconnectDelay = 2 * time.Second
)

// maxLineSize bounds a single inbound frame line.
const maxLineSize = 1 << 20

// State is the connection lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Dialer opens a socket to the controller. Injectable so tests can supply
// in-memory pipes instead of real sockets.
type Dialer func(address string) (net.Conn, error)

// Config configures a Conn. Zero values fall back to defaults.
type Config struct {
	// Address is the controller's listen address.
	Address string

	// ReconnectDelay is the fixed interval between a connection loss and
	// the next dial attempt. Constant backoff, no attempt limit.
	ReconnectDelay time.Duration

	// Dialer opens the socket. Defaults to a TCP dial.
	Dialer Dialer

	// Clock schedules the reconnect timer. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives structured log output. If nil, slog.Default() is
	// used. Per-frame noise is logged at Debug; lifecycle at Info.
	Logger *slog.Logger

	// OnConnect is called after the socket opens.
	OnConnect func()

	// OnDisconnect is called after an established connection closes.
	OnDisconnect func()

	// OnLine is called once per non-empty inbound line. The slice is only
	// valid for the duration of the call.
	OnLine func(line []byte)
}

// Conn is a resilient connection to the controller. Lost connections are
// redialed after a fixed delay until Destroy is called; messages sent while
// disconnected are silently dropped (at-most-once, no queueing).
type Conn struct {
	address string
	delay   time.Duration
	dialer  Dialer
	clock   clock.Clock
	logger  *slog.Logger

	onConnect    func()
	onDisconnect func()
	onLine       func([]byte)

	mu         sync.Mutex
	state      State
	sock       net.Conn
	retryTimer clock.Timer
}

// New creates a Conn. It does not dial; call Connect.
func New(cfg Config) *Conn {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = func(address string) (net.Conn, error) {
			return net.DialTimeout("tcp", address, 10*time.Second)
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Conn{
		address:      cfg.Address,
		delay:        cfg.ReconnectDelay,
		dialer:       cfg.Dialer,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		onConnect:    cfg.OnConnect,
		onDisconnect: cfg.OnDisconnect,
		onLine:       cfg.OnLine,
	}
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether a socket is currently open.
func (c *Conn) Connected() bool {
	return c.State() == StateConnected
}

// Connect starts a dial attempt. It is a no-op unless the connection is
// currently disconnected: connecting, connected, and destroyed states all
// ignore the call.
func (c *Conn) Connect() {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
}

// dial attempts one connection. A failed dial counts as a connection loss
// and schedules the next attempt.
func (c *Conn) dial() {
	sock, err := c.dialer(c.address)

	c.mu.Lock()
	if c.state == StateDestroyed {
		c.mu.Unlock()
		if sock != nil {
			sock.Close()
		}
		return
	}

	if err != nil {
		c.state = StateDisconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		c.logger.Debug("dial failed", "address", c.address, "error", err)
		return
	}

	c.sock = sock
	c.state = StateConnected
	c.mu.Unlock()

	c.logger.Info("connected to controller", "address", c.address)
	if c.onConnect != nil {
		c.onConnect()
	}

	go c.readLoop(sock)
}

// readLoop delivers inbound lines until the socket closes, then drives the
// disconnect path. Transport-level read errors are not reported separately;
// the loop ending is the close signal, so an error can never schedule a
// second, duplicate reconnect.
func (c *Conn) readLoop(sock net.Conn) {
	scanner := bufio.NewScanner(sock)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if c.onLine != nil {
			c.onLine(line)
		}
	}

	if err := scanner.Err(); err != nil {
		c.logger.Debug("read error", "error", err)
	}

	c.handleClose(sock)
}

// handleClose transitions to disconnected and schedules exactly one
// reconnect attempt, unless destroyed or the socket is stale (already
// replaced by a newer connection).
func (c *Conn) handleClose(sock net.Conn) {
	c.mu.Lock()
	if c.sock != sock {
		c.mu.Unlock()
		sock.Close()
		return
	}
	c.sock.Close()
	c.sock = nil

	if c.state == StateDestroyed {
		c.mu.Unlock()
		return
	}

	c.state = StateDisconnected
	c.scheduleReconnectLocked()
	c.mu.Unlock()

	c.logger.Info("disconnected from controller", "address", c.address,
		"retry_in", c.delay)
	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

// scheduleReconnectLocked arms the reconnect timer. Caller holds mu. A
// pending timer is never doubled up.
func (c *Conn) scheduleReconnectLocked() {
	if c.retryTimer != nil {
		return
	}
	c.retryTimer = c.clock.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.retryTimer = nil
		if c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		c.dial()
	})
}

// Send serializes v as one JSON line and writes it to the socket. When not
// connected the message is silently dropped: no queueing, no retry. Write
// errors are suppressed; the read loop observes the broken socket and
// drives reconnection.
func (c *Conn) Send(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("dropping unserializable message", "error", err)
		return
	}
	data = append(data, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.sock == nil {
		c.logger.Debug("dropping message while disconnected")
		return
	}
	if _, err := c.sock.Write(data); err != nil {
		c.logger.Debug("write failed", "error", err)
	}
}

// Destroy terminally closes the connection: the pending reconnect timer is
// cancelled, the socket closed, and no further dial attempts occur.
// Idempotent and safe to call at any point.
func (c *Conn) Destroy() {
	c.mu.Lock()
	if c.state == StateDestroyed {
		c.mu.Unlock()
		return
	}
	c.state = StateDestroyed
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	sock := c.sock
	c.sock = nil
	c.mu.Unlock()

	if sock != nil {
		sock.Close()
	}
	c.logger.Info("transport destroyed", "address", c.address)
}
