// Package protocol defines the wire format spoken between a bridge embedded
// in the host application and the external controller: newline-delimited JSON
// frames over a persistent socket.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Frame type discriminators.
const (
	TypeCommand  = "command"
	TypeResponse = "response"
	TypeEvent    = "event"
)

// Command names accepted by the bridge.
const (
	CmdPing           = "ping"
	CmdListProperties = "listCustomProperties"
	CmdListActions    = "listCustomActions"
	CmdListCommands   = "listCustomCommands"
	CmdGetProperty    = "getCustomProperty"
	CmdExecuteAction  = "executeCustomAction"
	CmdExecuteCommand = "executeCustomCommand"
	CmdListElements   = "getUIElements"
	CmdTapElement     = "tapElement"
)

// Event names emitted by the bridge.
const (
	EventElementTapped = "elementTapped"
)

// Position is a point in viewport pixel coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ElementInfo pairs a registered element name with its current position.
// Elements whose position getter returns nil report {0, 0}.
type ElementInfo struct {
	Name     string   `json:"name"`
	Position Position `json:"position"`
}

// Command is the inbound frame shape: a controller request to the bridge.
// ID is an opaque correlation token chosen by the controller; the bridge
// echoes it verbatim and never generates its own.
type Command struct {
	Type       string          `json:"type"`
	ID         string          `json:"id"`
	Command    string          `json:"command"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// Response is the outbound frame answering exactly one Command. Data is
// present only on success, Error only on failure, never both.
type Response struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Event is an unsolicited outbound frame. It carries no correlation id and
// is unordered relative to responses.
type Event struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// OK builds a success response echoing the request's id and command.
func OK(id, command string, data any) Response {
	return Response{Type: TypeResponse, ID: id, Command: command, Success: true, Data: data}
}

// Fail builds a failure response echoing the request's id and command.
func Fail(id, command, errMsg string) Response {
	return Response{Type: TypeResponse, ID: id, Command: command, Success: false, Error: errMsg}
}

// NewEvent builds an event frame.
func NewEvent(name string, data any) Event {
	return Event{Type: TypeEvent, Event: name, Data: data}
}

// Request is the closed set of decoded controller requests. Dispatch is a
// type switch over these variants rather than a string lookup; Unknown is
// the forward-compatibility arm for wire input naming a command this build
// does not know.
type Request interface {
	// RequestID returns the correlation token to echo in the response.
	RequestID() string
	// CommandName returns the wire command name to echo in the response.
	CommandName() string
}

// base carries the fields every request echoes back.
type base struct {
	id      string
	command string
}

func (b base) RequestID() string   { return b.id }
func (b base) CommandName() string { return b.command }

// PingRequest answers with the literal "pong".
type PingRequest struct{ base }

// ListPropertiesRequest lists registered property names.
type ListPropertiesRequest struct{ base }

// ListActionsRequest lists registered action names.
type ListActionsRequest struct{ base }

// ListCommandsRequest lists registered command names.
type ListCommandsRequest struct{ base }

// ListElementsRequest lists registered elements with current positions.
type ListElementsRequest struct{ base }

// GetPropertyRequest reads one registered property.
type GetPropertyRequest struct {
	base
	Name string
}

// ExecuteActionRequest invokes a registered action with ordered string args.
type ExecuteActionRequest struct {
	base
	Name string
	Args []string
}

// ExecuteCommandRequest invokes a registered command with a single string
// parameter and returns its result verbatim.
type ExecuteCommandRequest struct {
	base
	Name  string
	Param string
}

// TapElementRequest injects a synthetic tap at a registered element's
// current position.
type TapElementRequest struct {
	base
	Path string
}

// UnknownRequest is produced for any command name outside the known set.
type UnknownRequest struct{ base }

// namedParams is the parameter bag shape shared by the name-addressed
// commands.
type namedParams struct {
	Name  string   `json:"name"`
	Args  []string `json:"args,omitempty"`
	Param string   `json:"param,omitempty"`
	Path  string   `json:"path,omitempty"`
}

// ParseRequest decodes one raw frame line into a typed Request. It returns
// an error only when the line is not a well-formed command frame; a
// well-formed frame naming an unrecognized command parses into
// UnknownRequest so the dispatcher can answer it with a failure response.
func ParseRequest(line []byte) (Request, error) {
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if cmd.Type != TypeCommand {
		return nil, fmt.Errorf("unexpected frame type %q", cmd.Type)
	}

	b := base{id: cmd.ID, command: cmd.Command}

	var params namedParams
	if len(cmd.Parameters) > 0 {
		if err := json.Unmarshal(cmd.Parameters, &params); err != nil {
			return nil, fmt.Errorf("malformed parameters for %q: %w", cmd.Command, err)
		}
	}

	switch cmd.Command {
	case CmdPing:
		return PingRequest{b}, nil
	case CmdListProperties:
		return ListPropertiesRequest{b}, nil
	case CmdListActions:
		return ListActionsRequest{b}, nil
	case CmdListCommands:
		return ListCommandsRequest{b}, nil
	case CmdListElements:
		return ListElementsRequest{b}, nil
	case CmdGetProperty:
		return GetPropertyRequest{base: b, Name: params.Name}, nil
	case CmdExecuteAction:
		return ExecuteActionRequest{base: b, Name: params.Name, Args: params.Args}, nil
	case CmdExecuteCommand:
		return ExecuteCommandRequest{base: b, Name: params.Name, Param: params.Param}, nil
	case CmdTapElement:
		return TapElementRequest{base: b, Path: params.Path}, nil
	default:
		return UnknownRequest{b}, nil
	}
}

// TappedEventData is the payload of an elementTapped event. Dist is set only
// for canvas-strategy matches; coordinates are rounded to whole pixels.
type TappedEventData struct {
	Element   string  `json:"element"`
	MatchType string  `json:"matchType"`
	TapX      int     `json:"tapX"`
	TapY      int     `json:"tapY"`
	ElementX  int     `json:"elementX"`
	ElementY  int     `json:"elementY"`
	Dist      float64 `json:"dist,omitempty"`
}

// Match types reported in elementTapped events.
const (
	MatchDOM      = "dom"
	MatchCanvas   = "canvas"
	MatchExplicit = "explicit"
)
