// Package script provides JavaScript scripting over a connected bridge,
// letting test flows drive the application from a single file instead of
// repeated CLI invocations.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"

	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/protocol"
)

// Engine wraps a goja runtime with a `bridge` object bound to the
// controller client. Scripts run synchronously; every bridge call blocks
// until its response arrives or the per-call timeout elapses.
type Engine struct {
	runtime *goja.Runtime
	client  *controller.Client
	timeout time.Duration
}

// New creates an engine bound to client. timeout bounds each bridge call.
func New(client *controller.Client, timeout time.Duration) *Engine {
	e := &Engine{
		runtime: goja.New(),
		client:  client,
		timeout: timeout,
	}
	e.setupBuiltins()
	return e
}

// Run evaluates src and returns its completion value.
func (e *Engine) Run(src string) (goja.Value, error) {
	value, err := e.runtime.RunString(src)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}
	return value, nil
}

// RunFile evaluates the script at path.
func (e *Engine) RunFile(path string) (goja.Value, error) {
	src, err := os.ReadFile(path) //#nosec G304 -- user-provided script file
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return e.Run(string(src))
}

func (e *Engine) setupBuiltins() {
	e.setupConsole()

	e.runtime.Set("sleep", func(ms int64) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	})

	bridge := e.runtime.NewObject()
	bridge.Set("ping", e.wrapCall(protocol.CmdPing, nil))
	bridge.Set("properties", e.wrapCall(protocol.CmdListProperties, nil))
	bridge.Set("actions", e.wrapCall(protocol.CmdListActions, nil))
	bridge.Set("commands", e.wrapCall(protocol.CmdListCommands, nil))
	bridge.Set("elements", e.wrapCall(protocol.CmdListElements, nil))

	bridge.Set("getProperty", func(name string) goja.Value {
		data := e.call(protocol.CmdGetProperty, map[string]string{"name": name})
		var result struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(data, &result); err != nil {
			e.throw(err)
		}
		return e.runtime.ToValue(result.Value)
	})

	bridge.Set("runAction", func(name string, args ...string) goja.Value {
		e.call(protocol.CmdExecuteAction, map[string]any{"name": name, "args": args})
		return goja.Undefined()
	})

	bridge.Set("runCommand", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("runCommand requires a command name"))
		}
		name := call.Arguments[0].String()
		param := ""
		if len(call.Arguments) > 1 {
			param = call.Arguments[1].String()
		}
		data := e.call(protocol.CmdExecuteCommand, map[string]string{"name": name, "param": param})
		return e.decode(data)
	})

	bridge.Set("tap", func(name string) goja.Value {
		e.call(protocol.CmdTapElement, map[string]string{"path": name})
		return goja.Undefined()
	})

	e.runtime.Set("bridge", bridge)
}

// setupConsole adds console.log, console.warn, console.error.
func (e *Engine) setupConsole() {
	makeConsoleFunc := func(prefix string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			if prefix != "" {
				fmt.Println(append([]interface{}{prefix}, args...)...)
			} else {
				fmt.Println(args...)
			}
			return goja.Undefined()
		}
	}

	console := e.runtime.NewObject()
	console.Set("log", makeConsoleFunc(""))
	console.Set("warn", makeConsoleFunc("WARN:"))
	console.Set("error", makeConsoleFunc("ERROR:"))
	e.runtime.Set("console", console)
}

// wrapCall returns a parameterless bridge function decoding the response
// data into a script value.
func (e *Engine) wrapCall(command string, params any) func() goja.Value {
	return func() goja.Value {
		return e.decode(e.call(command, params))
	}
}

// call issues one command, converting failures into script exceptions so
// scripts can try/catch them.
func (e *Engine) call(command string, params any) json.RawMessage {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	data, err := e.client.Call(ctx, command, params)
	if err != nil {
		e.throw(err)
	}
	return data
}

// decode turns raw response data into a script value; absent data maps to
// undefined.
func (e *Engine) decode(data json.RawMessage) goja.Value {
	if len(data) == 0 {
		return goja.Undefined()
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		e.throw(err)
	}
	return e.runtime.ToValue(v)
}

// throw raises err as a script exception.
func (e *Engine) throw(err error) {
	panic(e.runtime.NewGoError(err))
}
