package bridge

import (
	"fmt"
	"log/slog"

	"github.com/mj1618/game-bridge/internal/protocol"
)

// Dispatcher executes decoded controller requests against the registry and
// produces exactly one correlated response per request. Each request runs
// in its own goroutine: concurrent dispatches interleave freely and no
// outstanding-request limit is enforced, so responses may complete out of
// arrival order.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger

	// send emits one response frame.
	send func(protocol.Response)

	// tap injects a synthetic tap at a registered element's position.
	tap func(path string) error
}

// Dispatch runs req asynchronously. The response is emitted when the
// handler completes; a handler panic is converted to a failure response, so
// a request can never crash the process or go unanswered.
func (d *Dispatcher) Dispatch(req protocol.Request) {
	go func() {
		d.send(d.handle(req))
	}()
}

// handle maps one request to its response.
func (d *Dispatcher) handle(req protocol.Request) protocol.Response {
	id, command := req.RequestID(), req.CommandName()

	switch r := req.(type) {
	case protocol.PingRequest:
		return protocol.OK(id, command, "pong")

	case protocol.ListPropertiesRequest:
		return protocol.OK(id, command, d.registry.PropertyNames())

	case protocol.ListActionsRequest:
		return protocol.OK(id, command, d.registry.ActionNames())

	case protocol.ListCommandsRequest:
		return protocol.OK(id, command, d.registry.CommandNames())

	case protocol.ListElementsRequest:
		return protocol.OK(id, command, d.registry.ElementInfos())

	case protocol.GetPropertyRequest:
		getter, ok := d.registry.Property(r.Name)
		if !ok {
			return protocol.Fail(id, command, fmt.Sprintf("property %q is not registered", r.Name))
		}
		value, err := guarded(func() (any, error) { return getter(), nil })
		if err != nil {
			return protocol.Fail(id, command, err.Error())
		}
		return protocol.OK(id, command, map[string]string{"value": fmt.Sprint(value)})

	case protocol.ExecuteActionRequest:
		handler, ok := d.registry.Action(r.Name)
		if !ok {
			return protocol.Fail(id, command, fmt.Sprintf("action %q is not registered", r.Name))
		}
		_, err := guarded(func() (any, error) { return nil, handler(r.Args) })
		if err != nil {
			return protocol.Fail(id, command, err.Error())
		}
		return protocol.OK(id, command, nil)

	case protocol.ExecuteCommandRequest:
		handler, ok := d.registry.Command(r.Name)
		if !ok {
			return protocol.Fail(id, command, fmt.Sprintf("command %q is not registered", r.Name))
		}
		result, err := guarded(func() (any, error) { return handler(r.Param) })
		if err != nil {
			return protocol.Fail(id, command, err.Error())
		}
		return protocol.OK(id, command, result)

	case protocol.TapElementRequest:
		_, err := guarded(func() (any, error) { return nil, d.tap(r.Path) })
		if err != nil {
			return protocol.Fail(id, command, err.Error())
		}
		return protocol.OK(id, command, nil)

	default:
		d.logger.Warn("unknown command", "command", command, "id", id)
		return protocol.Fail(id, command, "Unknown command")
	}
}

// guarded runs fn, converting a panic into an error so handler failures
// become failure responses instead of crashing the dispatch goroutine.
func guarded(fn func() (any, error)) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panicked: %v", recovered)
		}
	}()
	return fn()
}
