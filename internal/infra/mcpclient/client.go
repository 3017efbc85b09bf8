// Package mcpclient owns the connection to one configured MCP server: the
// connect/disconnect state machine, tool discovery, and tool invocation.
package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/telemetry"
)

// TransportDialer produces the wire transport for a server entry. Tests
// inject in-memory transports through this hook.
type TransportDialer func(ctx context.Context, entry domain.ServerEntry) (mcp.Transport, error)

type Client struct {
	entry  domain.ServerEntry
	logger *zap.Logger
	dialer TransportDialer

	mu      sync.Mutex
	state   domain.ConnectionState
	session *mcp.ClientSession
}

type Options struct {
	Logger *zap.Logger
	Dialer TransportDialer
}

func New(entry domain.ServerEntry, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = dialTransport
	}
	return &Client{
		entry:  entry,
		logger: logger.Named("mcp_client"),
		dialer: dialer,
		state:  domain.StateDisconnected,
	}
}

func (c *Client) ServerName() string {
	return c.entry.Name
}

func (c *Client) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect launches the configured transport and performs the protocol
// handshake. It reports failure through the result, never by panicking, so
// callers branch on Success.
func (c *Client) Connect(ctx context.Context) domain.ConnectResult {
	started := time.Now()
	c.setState(domain.StateConnecting)
	c.logger.Info("connect attempt",
		telemetry.EventField(telemetry.EventConnectAttempt),
		telemetry.ServerField(c.entry.Name),
	)

	timeout := time.Duration(c.entry.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = domain.DefaultConnectTimeoutSeconds * time.Second
	}
	// The transport is dialed with the caller's context so a launched
	// subprocess outlives the handshake deadline; only the handshake itself
	// is bounded by the timeout.
	transport, err := c.dialer(ctx, c.entry)
	if err != nil {
		return c.failConnect(started, fmt.Errorf("dial transport: %w", err))
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "cmdbridge", Version: "0.1.0"}, nil)
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return c.failConnect(started, fmt.Errorf("handshake: %w", err))
	}

	c.mu.Lock()
	c.session = session
	c.state = domain.StateConnected
	c.mu.Unlock()

	c.logger.Info("connected",
		telemetry.EventField(telemetry.EventConnectSuccess),
		telemetry.ServerField(c.entry.Name),
		telemetry.DurationField(time.Since(started)),
	)
	return domain.ConnectResult{
		Success:    true,
		State:      domain.StateConnected,
		ServerName: c.entry.Name,
	}
}

func (c *Client) failConnect(started time.Time, err error) domain.ConnectResult {
	c.setState(domain.StateError)
	c.logger.Warn("connect failed",
		telemetry.EventField(telemetry.EventConnectFailure),
		telemetry.ServerField(c.entry.Name),
		telemetry.DurationField(time.Since(started)),
		zap.Error(err),
	)
	return domain.ConnectResult{
		Success:    false,
		State:      domain.StateError,
		ServerName: c.entry.Name,
		Err:        err,
	}
}

// Disconnect closes the session and always returns the client to
// StateDisconnected, whatever state it was in.
func (c *Client) Disconnect() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.state = domain.StateDisconnected
	c.mu.Unlock()

	if session != nil {
		_ = session.Close()
	}
}

// ListTools returns the server's tool catalogue. Only valid when connected.
func (c *Client) ListTools(ctx context.Context) ([]domain.ToolInfo, error) {
	session, err := c.connectedSession()
	if err != nil {
		return nil, err
	}
	res, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list tools on %s: %w", c.entry.Name, err)
	}
	tools := make([]domain.ToolInfo, 0, len(res.Tools))
	for _, tool := range res.Tools {
		tools = append(tools, toolInfoFromMCP(tool))
	}
	return tools, nil
}

// CallTool invokes one tool by name with named arguments.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (domain.ToolCallResult, error) {
	session, err := c.connectedSession()
	if err != nil {
		return domain.ToolCallResult{}, err
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return domain.ToolCallResult{}, fmt.Errorf("call %s on %s: %w", name, c.entry.Name, err)
	}
	return domain.ToolCallResult{
		Content: contentFromMCP(res.Content),
		IsError: res.IsError,
	}, nil
}

func (c *Client) connectedSession() (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != domain.StateConnected || c.session == nil {
		return nil, domain.ErrNotConnected
	}
	return c.session, nil
}

func (c *Client) setState(state domain.ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// dialTransport picks the transport from the entry shape: a URL addresses a
// streamable HTTP endpoint, a command launches a stdio subprocess.
func dialTransport(ctx context.Context, entry domain.ServerEntry) (mcp.Transport, error) {
	if entry.IsHTTP() {
		return &mcp.StreamableClientTransport{Endpoint: entry.URL}, nil
	}
	if entry.Command == "" {
		return nil, errors.New("server entry has neither command nor url")
	}
	cmd := exec.CommandContext(ctx, entry.Command, entry.Args...)
	cmd.Env = append(os.Environ(), formatEnv(entry.Env)...)
	return &mcp.CommandTransport{Command: cmd}, nil
}

func formatEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}
