package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conclave-ai/conclave/logging"
)

// defaultCallTimeout bounds a single remote tool execution.
const defaultCallTimeout = 30 * time.Second

// ServerConfig describes one MCP tool server an agent can source tools from.
type ServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // "stdio" or "http"
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"`
	Timeout   time.Duration     `yaml:"timeout"` // per tool call, defaults to 30s
}

// mcpClient abstracts the MCP client interface for testability.
type mcpClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Catalog holds the tools discovered on one MCP server plus the live
// connection they execute over. Close releases the connection; tools from a
// closed catalog fail with a remote ToolError.
type Catalog struct {
	serverName string
	client     mcpClient
	tools      []Tool
	logger     logging.Logger
}

// FetchCatalog connects to the configured server, initializes the MCP
// session, lists the exposed functions and wraps each one as a Tool. The
// fetch itself is network-bound; callers typically run it inside an agent
// factory with a bounded context.
func FetchCatalog(ctx context.Context, cfg ServerConfig, logger logging.Logger) (*Catalog, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	client, err := connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("mcp server %q: %w", cfg.Name, err)
	}

	c := &Catalog{serverName: cfg.Name, client: client, logger: logger}
	if err := c.discover(ctx, cfg); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp server %q: discover tools: %w", cfg.Name, err)
	}
	return c, nil
}

// newCatalogWithClient builds a Catalog around a pre-built client (for testing).
func newCatalogWithClient(ctx context.Context, cfg ServerConfig, client mcpClient, logger logging.Logger) (*Catalog, error) {
	c := &Catalog{serverName: cfg.Name, client: client, logger: logger}
	if err := c.discover(ctx, cfg); err != nil {
		return nil, err
	}
	return c, nil
}

func connect(ctx context.Context, cfg ServerConfig) (mcpClient, error) {
	var c mcpClient
	var err error

	switch cfg.Transport {
	case "", "stdio":
		c, err = mcpclient.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
		if err != nil {
			return nil, fmt.Errorf("create stdio client: %w", err)
		}
	case "http":
		t, tErr := transport.NewStreamableHTTP(cfg.URL)
		if tErr != nil {
			return nil, fmt.Errorf("create http transport: %w", tErr)
		}
		httpClient := mcpclient.NewClient(t)
		if err = httpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("start http client: %w", err)
		}
		c = httpClient
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "conclave",
		Version: "0.1.0",
	}

	if _, err = c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize: %w", err)
	}

	return c, nil
}

func (c *Catalog) discover(ctx context.Context, cfg ServerConfig) error {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	for _, t := range result.Tools {
		c.tools = append(c.tools, &MCPTool{
			serverName: c.serverName,
			client:     c.client,
			def:        t,
			timeout:    timeout,
			logger:     c.logger,
		})
		c.logger.Debug("mcp tool discovered", "server", c.serverName, "tool", t.Name)
	}

	c.logger.Info("mcp tools discovered", "server", c.serverName, "count", len(result.Tools))
	return nil
}

// Tools returns the discovered tools in server order.
func (c *Catalog) Tools() []Tool { return c.tools }

// Close shuts down the underlying server connection.
func (c *Catalog) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Warn("mcp server close error", "server", c.serverName, "error", err)
		return err
	}
	return nil
}

// MCPTool wraps a single remotely hosted function as a Tool. It is the local
// proxy: name and parameter schema come from the server's declaration, Call
// round-trips over the MCP connection.
type MCPTool struct {
	serverName string
	client     mcpClient
	def        mcp.Tool
	timeout    time.Duration
	logger     logging.Logger
}

// Name returns the tool name as declared by the server.
func (t *MCPTool) Name() string { return t.def.Name }

// Description returns the server supplied description, or a generated one.
func (t *MCPTool) Description() string {
	if t.def.Description != "" {
		return t.def.Description
	}
	return fmt.Sprintf("Tool %q from server %q", t.def.Name, t.serverName)
}

// Parameters converts the server's input schema into the generic JSON schema map.
func (t *MCPTool) Parameters() map[string]interface{} {
	params := map[string]interface{}{"type": "object"}
	data, err := json.Marshal(t.def.InputSchema)
	if err != nil {
		return params
	}
	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return params
	}
	return schema
}

// Call invokes the remote function with a bounded timeout. Server-side error
// envelopes are surfaced as *ToolError with Remote set so callers can tell
// them apart from local invocation errors.
func (t *MCPTool) Call(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = t.def.Name
	callReq.Params.Arguments = args

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.logger.Debug("mcp tool call", "server", t.serverName, "tool", t.def.Name)

	result, err := t.client.CallTool(callCtx, callReq)
	if err != nil {
		code := CodeRemote
		if errors.Is(err, context.DeadlineExceeded) {
			code = CodeTimeout
		}
		return nil, &ToolError{
			Tool:    t.def.Name,
			Message: err.Error(),
			Code:    code,
			Remote:  true,
		}
	}

	content := extractContent(result)
	if result.IsError {
		return nil, &ToolError{
			Tool:    t.def.Name,
			Message: content,
			Code:    CodeRemote,
			Remote:  true,
		}
	}

	return content, nil
}

// extractContent converts MCP CallToolResult content to a string.
func extractContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			// For non-text content, marshal to JSON.
			if data, err := json.Marshal(v); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// envSlice converts a map of env vars to KEY=VALUE slices.
func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result
}
