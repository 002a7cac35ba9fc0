package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/game-bridge/internal/clock"
	"github.com/mj1618/game-bridge/internal/config"
	"github.com/mj1618/game-bridge/internal/controller"
	"github.com/mj1618/game-bridge/internal/protocol"
	"github.com/mj1618/game-bridge/internal/version"
)

// mcpServer wraps the MCP server with the bridge client and element cache.
type mcpServer struct {
	client  *controller.Client
	cache   *mcpElementCache
	timeout time.Duration
	mcp     *mcpserver.MCPServer
}

// MCPConfig holds MCP server configuration.
type MCPConfig struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// newMCPServer starts the bridge listener and configures an MCP server
// with all bridge tools.
func newMCPServer(cfg *config.Config, mcpCfg MCPConfig) (*mcpServer, error) {
	client, err := controller.Listen(controller.Config{Address: cfg.Listen})
	if err != nil {
		return nil, err
	}

	s := &mcpServer{
		client:  client,
		cache:   newMCPElementCache(mcpCfg.CacheTTL, clock.Real()),
		timeout: cfg.CallTimeout(),
	}

	s.mcp = mcpserver.NewMCPServer(
		"game-bridge",
		version.Version,
	)

	s.registerTools()
	return s, nil
}

// serve starts the MCP server with the configured transport.
func (s *mcpServer) serve(cfg MCPConfig) error {
	switch cfg.Transport {
	case "stdio":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *mcpServer) close() {
	s.client.Close()
}

func (s *mcpServer) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Check that the application's bridge is connected and responding"),
		),
		s.handlePing,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_properties",
			mcp.WithDescription("List the names of the custom properties the application exposes"),
		),
		s.handleListProperties,
	)

	s.mcp.AddTool(
		mcp.NewTool("get_property",
			mcp.WithDescription("Read the current value of a custom property"),
			mcp.WithString("name", mcp.Description("Property name"), mcp.Required()),
		),
		s.handleGetProperty,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_actions",
			mcp.WithDescription("List the names of the custom actions the application exposes"),
		),
		s.handleListActions,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_action",
			mcp.WithDescription("Run a custom action with ordered string arguments"),
			mcp.WithString("name", mcp.Description("Action name"), mcp.Required()),
			mcp.WithArray("args", mcp.Description("Ordered string arguments")),
		),
		s.handleRunAction,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_commands",
			mcp.WithDescription("List the names of the custom commands the application exposes"),
		),
		s.handleListCommands,
	)

	s.mcp.AddTool(
		mcp.NewTool("run_command",
			mcp.WithDescription("Run a custom command and return its result"),
			mcp.WithString("name", mcp.Description("Command name"), mcp.Required()),
			mcp.WithString("param", mcp.Description("Optional string parameter")),
		),
		s.handleRunCommand,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_elements",
			mcp.WithDescription("List the application's registered UI elements with their current positions. Hidden elements report (0, 0)."),
		),
		s.handleListElements,
	)

	s.mcp.AddTool(
		mcp.NewTool("tap_element",
			mcp.WithDescription("Inject a synthetic tap on a registered element by its path"),
			mcp.WithString("path", mcp.Description("Element path (e.g. 'menu.start')"), mcp.Required()),
		),
		s.handleTapElement,
	)
}

// call issues one bridge command with the configured timeout.
func (s *mcpServer) call(ctx context.Context, command string, params any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Call(ctx, command, params)
}

// yamlResult serializes v to YAML for an MCP text response.
func yamlResult(v any) (*mcp.CallToolResult, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (s *mcpServer) handlePing(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := s.call(ctx, protocol.CmdPing, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("pong"), nil
}

// handleNameList serves the three list_* tools, which differ only in the
// bridge command they issue.
func (s *mcpServer) handleNameList(ctx context.Context, command string) (*mcp.CallToolResult, error) {
	data, err := s.call(ctx, command, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var names []string
	if err := decodeInto(data, &names); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return yamlResult(names)
}

func (s *mcpServer) handleListProperties(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleNameList(ctx, protocol.CmdListProperties)
}

func (s *mcpServer) handleListActions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleNameList(ctx, protocol.CmdListActions)
}

func (s *mcpServer) handleListCommands(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleNameList(ctx, protocol.CmdListCommands)
}

func (s *mcpServer) handleGetProperty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	data, err := s.call(ctx, protocol.CmdGetProperty, map[string]string{"name": name})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var result struct {
		Value string `json:"value" yaml:"value"`
	}
	if err := decodeInto(data, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return yamlResult(map[string]string{"name": name, "value": result.Value})
}

func (s *mcpServer) handleRunAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	args := stringSliceParam(params, "args")

	if _, err := s.call(ctx, protocol.CmdExecuteAction, map[string]any{"name": name, "args": args}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return yamlResult(map[string]any{"ok": true, "action": name})
}

func (s *mcpServer) handleRunCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	name := stringParam(params, "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	param := stringParam(params, "param", "")

	data, err := s.call(ctx, protocol.CmdExecuteCommand, map[string]string{"name": name, "param": param})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var result any
	if err := decodeInto(data, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return yamlResult(map[string]any{"command": name, "result": result})
}

func (s *mcpServer) handleListElements(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	elements, err := s.cache.readElements(func() ([]protocol.ElementInfo, error) {
		data, err := s.call(ctx, protocol.CmdListElements, nil)
		if err != nil {
			return nil, err
		}
		var elements []protocol.ElementInfo
		if err := decodeInto(data, &elements); err != nil {
			return nil, err
		}
		return elements, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return yamlResult(elements)
}

func (s *mcpServer) handleTapElement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	path := stringParam(params, "path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}

	if _, err := s.call(ctx, protocol.CmdTapElement, map[string]string{"path": path}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.invalidate()
	return yamlResult(map[string]any{"ok": true, "path": path})
}

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func stringSliceParam(params map[string]interface{}, key string) []string {
	v, ok := params[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
