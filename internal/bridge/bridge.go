// Package bridge embeds a test-automation endpoint inside an interactive
// application. It maintains a resilient socket to an external controller,
// dispatches the controller's commands against registered handlers, and
// reports which named element a user's tap targeted.
package bridge

import (
	"log/slog"
	"time"

	"github.com/mj1618/game-bridge/internal/clock"
	"github.com/mj1618/game-bridge/internal/platform"
	"github.com/mj1618/game-bridge/internal/protocol"
	"github.com/mj1618/game-bridge/internal/transport"
)

// Options configures a Bridge. The zero value is usable: it dials the
// default controller address with default timing and infers taps
// geometrically.
type Options struct {
	// Address is the controller's listen address. Defaults to
	// transport.DefaultAddress.
	Address string

	// ReconnectDelay is the fixed interval between reconnect attempts.
	// Defaults to transport.DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// ManualConnect disables the automatic dial at construction; the
	// integrator calls Connect explicitly.
	ManualConnect bool

	// TapThreshold is the maximum tap-to-element distance, in pixels, for
	// the opaque-surface hit-test strategy. Defaults to
	// DefaultTapThreshold.
	TapThreshold float64

	// ExplicitTaps disables geometric tap inference entirely: the host
	// application reports taps itself via NotifyElementTapped, and no
	// pointer listener is installed.
	ExplicitTaps bool

	// Provider supplies the host's rendering-side collaborators. Any
	// field left nil disables the corresponding feature.
	Provider platform.Provider

	// Clock, Dialer, and Logger are injectable for tests. Nil fields use
	// the real clock, a TCP dialer, and slog.Default().
	Clock  clock.Clock
	Dialer transport.Dialer
	Logger *slog.Logger
}

// Bridge is one automation endpoint. Construct with New; the integrating
// application owns its lifetime and must call Destroy on teardown. One
// bridge per process: the protocol assumes a single connection and carries
// no instance addressing.
type Bridge struct {
	registry   *Registry
	conn       *transport.Conn
	dispatcher *Dispatcher
	router     *tapRouter
	provider   platform.Provider
	explicit   bool
	logger     *slog.Logger
}

// New creates a Bridge and, unless opts.ManualConnect is set, starts
// dialing the controller immediately.
func New(opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TapThreshold <= 0 {
		opts.TapThreshold = DefaultTapThreshold
	}

	b := &Bridge{
		registry: NewRegistry(),
		provider: opts.Provider,
		explicit: opts.ExplicitTaps,
		logger:   opts.Logger,
	}

	b.conn = transport.New(transport.Config{
		Address:        opts.Address,
		ReconnectDelay: opts.ReconnectDelay,
		Dialer:         opts.Dialer,
		Clock:          opts.Clock,
		Logger:         opts.Logger,
		OnLine:         b.handleLine,
	})

	b.dispatcher = &Dispatcher{
		registry: b.registry,
		logger:   opts.Logger,
		send:     func(resp protocol.Response) { b.conn.Send(resp) },
		tap:      b.tapElement,
	}

	pointer := opts.Provider.Pointer
	if opts.ExplicitTaps {
		// Explicit mode: the host reports taps itself; never install the
		// pointer listener.
		pointer = nil
	}
	b.router = &tapRouter{
		registry:  b.registry,
		hit:       opts.Provider.HitTester,
		pointer:   pointer,
		threshold: opts.TapThreshold,
		logger:    opts.Logger,
		emit:      func(ev protocol.Event) { b.conn.Send(ev) },
	}

	if !opts.ManualConnect {
		b.conn.Connect()
	}
	return b
}

// Connect starts dialing the controller. No-op while connecting, connected,
// or after Destroy.
func (b *Bridge) Connect() { b.conn.Connect() }

// Connected reports whether the controller socket is currently open.
func (b *Bridge) Connected() bool { return b.conn.Connected() }

// Destroy tears the bridge down: the pointer listener is removed, any
// pending reconnect is cancelled, and the socket closes for good.
// Idempotent; all subsequent sends are no-ops.
func (b *Bridge) Destroy() {
	b.router.teardown()
	b.conn.Destroy()
}

// RegisterProperty exposes a named read-only value to the controller.
// Registering an existing name replaces it.
func (b *Bridge) RegisterProperty(name string, fn PropertyFunc) {
	b.registry.RegisterProperty(name, fn)
}

// RegisterAction exposes a named fire-and-forget callback taking ordered
// string arguments. Registering an existing name replaces it.
func (b *Bridge) RegisterAction(name string, fn ActionFunc) {
	b.registry.RegisterAction(name, fn)
}

// RegisterCommand exposes a named callback that returns structured data.
// Registering an existing name replaces it.
func (b *Bridge) RegisterCommand(name string, fn CommandFunc) {
	b.registry.RegisterCommand(name, fn)
}

// RegisterElement exposes a named interactive region via its position
// getter. The first registration arms tap monitoring (unless the bridge is
// in explicit-tap mode). Registering an existing name replaces the getter.
func (b *Bridge) RegisterElement(name string, fn PositionFunc) {
	b.registry.RegisterElement(name, fn)
	b.router.arm()
}

// NotifyElementTapped reports a tap on a named element directly from the
// host application's own interaction handlers, bypassing geometric
// inference. Intended for integrators running with ExplicitTaps; unknown
// names are dropped with a warning.
func (b *Bridge) NotifyElementTapped(name string) {
	if _, ok := b.registry.Element(name); !ok {
		b.logger.Warn("tap reported for unregistered element", "element", name)
		return
	}
	b.conn.Send(protocol.NewEvent(protocol.EventElementTapped, protocol.TappedEventData{
		Element:   name,
		MatchType: protocol.MatchExplicit,
	}))
}

// handleLine decodes one inbound frame line and dispatches it. A line that
// fails to parse is logged and dropped; later lines in the same frame are
// unaffected because the transport delivers lines individually.
func (b *Bridge) handleLine(line []byte) {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		b.logger.Warn("dropping malformed frame", "error", err)
		return
	}
	b.dispatcher.Dispatch(req)
}
