// Package controller implements the test-automation controller side of the
// bridge protocol: it listens for the embedded bridge's connection, issues
// commands with generated correlation ids, and surfaces unsolicited events.
package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/mj1618/game-bridge/internal/protocol"
)

// ErrNoBridge is returned by Call when no bridge is currently connected.
var ErrNoBridge = errors.New("no bridge connected")

// CommandError is a failure response from the bridge, as opposed to a
// transport problem.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Command, e.Message)
}

// Event is an unsolicited notification from the bridge with its payload
// left raw for the consumer to decode.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// inboundFrame is the superset of response and event frame fields.
type inboundFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Event   string          `json:"event"`
}

// Config configures a Client.
type Config struct {
	// Address to listen on. Defaults to 127.0.0.1:8765. Use port 0 for an
	// ephemeral port (tests).
	Address string

	// Logger receives structured log output. If nil, slog.Default().
	Logger *slog.Logger

	// EventBuffer is the capacity of the events channel. Events beyond a
	// full buffer are dropped with a warning. Defaults to 64.
	EventBuffer int
}

// Client is the controller endpoint. Exactly one bridge connection is
// served at a time; a newly accepted connection replaces the previous one
// (the bridge reconnects after a drop, so the newest connection is the live
// one).
type Client struct {
	listener net.Listener
	logger   *slog.Logger

	mu      sync.Mutex
	conn    net.Conn
	pending map[string]chan inboundFrame
	closed  bool

	events chan Event

	bridgeReady chan struct{}
	readyOnce   sync.Once
}

// Listen starts a Client listening for the bridge.
func Listen(cfg Config) (*Client, error) {
	if cfg.Address == "" {
		cfg.Address = "127.0.0.1:8765"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}

	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	c := &Client{
		listener:    listener,
		logger:      cfg.Logger,
		pending:     make(map[string]chan inboundFrame),
		events:      make(chan Event, cfg.EventBuffer),
		bridgeReady: make(chan struct{}),
	}
	go c.acceptLoop()
	return c, nil
}

// Addr returns the listener's address, useful when listening on port 0.
func (c *Client) Addr() net.Addr { return c.listener.Addr() }

// Events returns the channel of unsolicited bridge events.
func (c *Client) Events() <-chan Event { return c.events }

// WaitBridge blocks until a bridge has connected at least once, or the
// context is done.
func (c *Client) WaitBridge(ctx context.Context) error {
	select {
	case <-c.bridgeReady:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for bridge: %w", ctx.Err())
	}
}

// Connected reports whether a bridge connection is currently live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Call sends one command and waits for its correlated response. The
// correlation id is generated here; concurrent calls are safe and may
// complete in any order. A failure response is returned as *CommandError;
// the raw success data otherwise.
func (c *Client) Call(ctx context.Context, command string, params any) (json.RawMessage, error) {
	id := uuid.NewString()

	frame := protocol.Command{Type: protocol.TypeCommand, ID: id, Command: command}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal parameters: %w", err)
		}
		frame.Parameters = data
	}

	reply := make(chan inboundFrame, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, ErrNoBridge
	}
	c.pending[id] = reply
	conn := c.conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := writeLine(conn, frame); err != nil {
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case resp := <-reply:
		if !resp.Success {
			return nil, &CommandError{Command: command, Message: resp.Error}
		}
		return resp.Data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("awaiting %s response: %w", command, ctx.Err())
	}
}

// Close shuts the listener and any live connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return c.listener.Close()
}

func (c *Client) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Error("accept failed", "error", err)
			}
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		// One bridge at a time: a reconnecting bridge's fresh socket
		// replaces the stale one.
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info("bridge connected", "remote", conn.RemoteAddr())
		c.readyOnce.Do(func() { close(c.bridgeReady) })
		go c.readLoop(conn)
	}
}

func (c *Client) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frame inboundFrame
		if err := json.Unmarshal(line, &frame); err != nil {
			c.logger.Warn("dropping malformed frame from bridge", "error", err)
			continue
		}

		switch frame.Type {
		case protocol.TypeResponse:
			c.mu.Lock()
			reply, ok := c.pending[frame.ID]
			c.mu.Unlock()
			if !ok {
				c.logger.Warn("response with unknown correlation id", "id", frame.ID)
				continue
			}
			reply <- frame

		case protocol.TypeEvent:
			select {
			case c.events <- Event{Event: frame.Event, Data: frame.Data}:
			default:
				c.logger.Warn("event buffer full, dropping event", "event", frame.Event)
			}

		default:
			c.logger.Warn("unexpected frame type from bridge", "type", frame.Type)
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.Close()
	c.logger.Info("bridge disconnected", "remote", conn.RemoteAddr())
}

func writeLine(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}
