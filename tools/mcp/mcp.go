// Package mcp exposes tools served by a Model Context Protocol server
// as tools.Tools, so an agent can call remote capabilities the same way
// it calls local functions. A Client holds one server connection over
// streamable HTTP or a stdio subprocess; Tools lists what the server
// advertises and every returned tool forwards its calls over that
// connection.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Jflick58/langchain/chatmodels"
	"github.com/Jflick58/langchain/tools"
)

const (
	// clientName identifies this library to MCP servers during the
	// protocol handshake.
	clientName = "langchain"

	// clientVersion is reported alongside clientName.
	clientVersion = "1.0.0"
)

// conn is the slice of the mcp-go client the adapter uses. It exists so
// tests can stand in for a live server.
type conn interface {
	Start(ctx context.Context) error
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Client is an initialized connection to an MCP server. Closing it
// invalidates every tool obtained from it.
type Client struct {
	conn conn
}

type options struct {
	headers map[string]string
}

// Option configures how a connection is established.
type Option func(*options)

// WithHeaders sets HTTP headers sent on every request, typically for
// authentication. It has no effect on stdio connections.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// NewHTTP connects to an MCP server over streamable HTTP and performs
// the protocol handshake.
//
//	mcpClient, err := mcp.NewHTTP(ctx, "https://tools.example.com/mcp",
//		mcp.WithHeaders(map[string]string{"Authorization": "Bearer " + token}))
//	if err != nil {
//		return err
//	}
//	defer mcpClient.Close()
//
//	serverTools, err := mcpClient.Tools(ctx)
func NewHTTP(ctx context.Context, url string, opts ...Option) (*Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	httpTransport, err := transport.NewStreamableHTTP(
		url,
		transport.WithHTTPHeaders(o.headers),
	)
	if err != nil {
		return nil, fmt.Errorf("mcp: create http transport: %w", err)
	}

	return connect(ctx, client.NewClient(httpTransport))
}

// NewStdio starts command with the given extra environment entries
// (KEY=VALUE) and arguments, and speaks MCP over its stdin/stdout.
func NewStdio(ctx context.Context, command string, env []string, args ...string) (*Client, error) {
	if command == "" {
		return nil, fmt.Errorf("mcp: command is required")
	}

	stdioTransport := transport.NewStdio(command, env, args...)

	return connect(ctx, client.NewClient(stdioTransport))
}

func connect(ctx context.Context, c conn) (*Client, error) {
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcp: start transport: %w", err)
	}

	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: clientVersion,
			},
		},
	}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}

	return &Client{conn: c}, nil
}

// Close shuts down the connection to the server.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Tools lists the tools the server advertises. Each one satisfies
// tools.Tool and tools.Definer, so the list can be handed straight to an
// agent executor.
func (c *Client) Tools(ctx context.Context) ([]tools.Tool, error) {
	listReq := mcp.ListToolsRequest{
		PaginatedRequest: mcp.PaginatedRequest{
			Request: mcp.Request{
				Method: string(mcp.MethodToolsList),
			},
		},
	}

	resp, err := c.conn.ListTools(ctx, listReq)
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}

	out := make([]tools.Tool, 0, len(resp.Tools))
	for i := range resp.Tools {
		out = append(out, &Tool{
			conn:       c.conn,
			name:       resp.Tools[i].Name,
			definition: convertTool(&resp.Tools[i]),
		})
	}
	return out, nil
}

// Tool is a single server-side tool. Call sends the model-produced JSON
// arguments to the server and returns the textual result.
type Tool struct {
	conn       conn
	name       string
	definition chatmodels.ToolDefinition
}

// Name returns the identifier the server registered the tool under.
func (t *Tool) Name() string { return t.name }

// Description returns the server-provided tool description.
func (t *Tool) Description() string { return t.definition.Description }

// Definition returns the tool schema in provider wire form.
func (t *Tool) Definition() chatmodels.ToolDefinition { return t.definition }

// Call invokes the tool on the server. The input must be a JSON object
// of arguments; an empty input calls the tool without arguments. A
// server-reported tool error is returned as a Go error carrying the
// response text.
func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	args := map[string]any{}
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("mcp: parse arguments for %q: %w", t.name, err)
		}
	}

	callReq := mcp.CallToolRequest{
		Request: mcp.Request{
			Method: string(mcp.MethodToolsCall),
		},
		Params: mcp.CallToolParams{
			Name:      t.name,
			Arguments: args,
		},
	}

	resp, err := t.conn.CallTool(ctx, callReq)
	if err != nil {
		return "", fmt.Errorf("mcp: call %q: %w", t.name, err)
	}

	content := extractText(resp, t.name)
	if resp != nil && resp.IsError {
		return "", fmt.Errorf("mcp: tool %q failed: %s", t.name, content)
	}
	return content, nil
}

// convertTool maps an MCP tool schema to the provider tool definition
// format. Properties is always present; some providers reject tool
// definitions without it.
func convertTool(mcpTool *mcp.Tool) chatmodels.ToolDefinition {
	params := map[string]any{
		"type": "object",
	}

	if len(mcpTool.InputSchema.Properties) > 0 {
		params["properties"] = mcpTool.InputSchema.Properties
	} else {
		params["properties"] = map[string]any{}
	}

	if len(mcpTool.InputSchema.Required) > 0 {
		params["required"] = mcpTool.InputSchema.Required
	}

	return chatmodels.ToolDefinition{
		Name:        mcpTool.Name,
		Description: mcpTool.Description,
		Parameters:  params,
	}
}

// extractText flattens a tool response into text. Non-text content is
// summarized by type; an empty response becomes a success marker so the
// model always sees a result.
func extractText(resp *mcp.CallToolResult, toolName string) string {
	if resp == nil {
		return fmt.Sprintf("Tool '%s' executed successfully", toolName)
	}

	var result strings.Builder

	for _, content := range resp.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			result.WriteString(c.Text)
		case mcp.ImageContent:
			result.WriteString(fmt.Sprintf("[Image: %s]", c.MIMEType))
		case mcp.AudioContent:
			result.WriteString(fmt.Sprintf("[Audio: %s]", c.MIMEType))
		case mcp.EmbeddedResource:
			result.WriteString(fmt.Sprintf("[Resource: %s]", c.Type))
		default:
			if data, err := json.Marshal(content); err == nil {
				result.Write(data)
			}
		}
	}

	if result.Len() > 0 {
		return strings.TrimSpace(result.String())
	}

	return fmt.Sprintf("Tool '%s' executed successfully", toolName)
}

var (
	_ tools.Tool    = (*Tool)(nil)
	_ tools.Definer = (*Tool)(nil)
)
