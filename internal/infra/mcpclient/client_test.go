package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"cmdbridge/internal/domain"
)

func newEchoServer(t *testing.T) *mcp.Server {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "0.1.0"}, &mcp.ServerOptions{HasTools: true})
	server.AddTool(&mcp.Tool{
		Name:        "echo",
		Description: "echo the text argument",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":   map[string]any{"type": "string", "description": "text to echo"},
				"repeat": map[string]any{"type": "integer", "description": "repeat count"},
			},
			"required": []any{"text"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]any
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		text, _ := args["text"].(string)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("echo: %s", text)}},
		}, nil
	})
	return server
}

func inMemoryDialer(t *testing.T, server *mcp.Server) TransportDialer {
	t.Helper()
	return func(ctx context.Context, _ domain.ServerEntry) (mcp.Transport, error) {
		ct, st := mcp.NewInMemoryTransports()
		if _, err := server.Connect(ctx, st, nil); err != nil {
			return nil, err
		}
		return ct, nil
	}
}

func newTestClient(t *testing.T, server *mcp.Server) *Client {
	t.Helper()
	return New(domain.ServerEntry{Name: "svc", Command: "unused", TimeoutSeconds: 5}, Options{
		Dialer: inMemoryDialer(t, server),
	})
}

func TestClient_ConnectListCall(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newEchoServer(t))
	defer client.Disconnect()

	require.Equal(t, domain.StateDisconnected, client.State())

	result := client.Connect(ctx)
	require.True(t, result.Success)
	require.Equal(t, domain.StateConnected, result.State)
	require.Equal(t, "svc", result.ServerName)
	require.Equal(t, domain.StateConnected, client.State())

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "echo", tools[0].Name)
	require.Equal(t, []string{"text"}, tools[0].RequiredParams())
	require.Len(t, tools[0].Params, 2)
	require.Equal(t, "string", tools[0].Params[0].Type)

	res, err := client.CallTool(ctx, "echo", map[string]any{"text": "hi"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	require.Equal(t, "echo: hi", res.Content[0].Text)
}

func TestClient_ConnectFailure(t *testing.T) {
	client := New(domain.ServerEntry{Name: "bad", Command: "unused", TimeoutSeconds: 1}, Options{
		Dialer: func(context.Context, domain.ServerEntry) (mcp.Transport, error) {
			return nil, errors.New("spawn failed")
		},
	})

	result := client.Connect(context.Background())
	require.False(t, result.Success)
	require.Equal(t, domain.StateError, result.State)
	require.Error(t, result.Err)

	client.Disconnect()
	require.Equal(t, domain.StateDisconnected, client.State())
}

func TestClient_ListToolsRequiresConnection(t *testing.T) {
	client := newTestClient(t, newEchoServer(t))
	_, err := client.ListTools(context.Background())
	require.ErrorIs(t, err, domain.ErrNotConnected)
}

func TestClient_DisconnectIsIdempotent(t *testing.T) {
	client := newTestClient(t, newEchoServer(t))
	client.Disconnect()
	client.Disconnect()
	require.Equal(t, domain.StateDisconnected, client.State())
}

func TestManager_ConnectAllAndListAll(t *testing.T) {
	ctx := context.Background()
	manager := NewManager(nil)

	good := newTestClient(t, newEchoServer(t))
	bad := New(domain.ServerEntry{Name: "broken", Command: "unused", TimeoutSeconds: 1}, Options{
		Dialer: func(context.Context, domain.ServerEntry) (mcp.Transport, error) {
			return nil, errors.New("no transport")
		},
	})
	manager.Register(good)
	manager.Register(bad)
	defer manager.DisconnectAll()

	results := manager.ConnectAll(ctx)
	require.Len(t, results, 2)

	byName := map[string]domain.ConnectResult{}
	for _, r := range results {
		byName[r.ServerName] = r
	}
	require.True(t, byName["svc"].Success)
	require.False(t, byName["broken"].Success)

	tools := manager.ListAllTools(ctx)
	require.Len(t, tools["svc"], 1)
	_, listed := tools["broken"]
	require.False(t, listed)
}
