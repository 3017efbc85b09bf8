package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/runner"
	"cmdbridge/internal/infra/skills"
	"cmdbridge/internal/infra/wrapper"
)

type fakeClient struct {
	connectErr   error
	tools        []domain.ToolInfo
	callResult   domain.ToolCallResult
	callErr      error
	calledTool   string
	calledArgs   map[string]any
	disconnected bool
	listBounded  bool
	callBounded  bool
}

func (f *fakeClient) Connect(context.Context) domain.ConnectResult {
	if f.connectErr != nil {
		return domain.ConnectResult{State: domain.StateError, Err: f.connectErr}
	}
	return domain.ConnectResult{Success: true, State: domain.StateConnected}
}

func (f *fakeClient) ListTools(ctx context.Context) ([]domain.ToolInfo, error) {
	_, f.listBounded = ctx.Deadline()
	return f.tools, nil
}

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]any) (domain.ToolCallResult, error) {
	_, f.callBounded = ctx.Deadline()
	f.calledTool = name
	f.calledArgs = args
	return f.callResult, f.callErr
}

func (f *fakeClient) Disconnect() { f.disconnected = true }

type fakeSession struct {
	lastCommand string
	result      domain.CommandResult
}

func (f *fakeSession) Execute(_ context.Context, command string) (domain.CommandResult, error) {
	f.lastCommand = command
	return f.result, nil
}

func newTestRouter(t *testing.T, client *fakeClient) (*Router, *fakeSession) {
	t.Helper()
	session := &fakeSession{result: domain.CommandResult{Stdout: "native\n"}}
	installer, err := wrapper.OpenInstaller(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = installer.Close() })

	root := t.TempDir()
	store := skills.NewStore(root, nil)

	r := New(Options{
		Servers: map[string]domain.ServerEntry{
			"svc": {Name: "svc", Command: "fake"},
		},
		Clients:   func(domain.ServerEntry) ProtocolClient { return client },
		Skills:    store,
		Runner:    runner.New(runner.Options{}),
		Searcher:  installer,
		Formatter: wrapper.FormatListing,
		Session:   session,
		WorkDir:   t.TempDir(),
	})
	return r, session
}

func route(t *testing.T, r *Router, input string) domain.CommandResult {
	t.Helper()
	result, err := r.Route(context.Background(), input)
	require.NoError(t, err)
	return result
}

func TestRoute_MCPCallMapsPositionalArgs(t *testing.T) {
	client := &fakeClient{
		tools: []domain.ToolInfo{{
			Name: "echo",
			Params: []domain.ToolParam{
				{Name: "message", Type: "string", Required: true},
				{Name: "count", Type: "integer"},
			},
		}},
		callResult: domain.ToolCallResult{Content: []domain.ContentItem{{Type: "text", Text: "hi"}}},
	}
	r, _ := newTestRouter(t, client)

	result := route(t, r, `mcp:svc:echo "hello world" --count 3`)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "hi\n", result.Stdout)
	require.Equal(t, "echo", client.calledTool)
	require.Equal(t, map[string]any{"message": "hello world", "count": 3}, client.calledArgs)
	require.True(t, client.disconnected)

	// Both post-connect operations run under the shared deadline.
	require.True(t, client.listBounded)
	require.True(t, client.callBounded)
}

func TestRoute_MCPToolNotFoundDisconnects(t *testing.T) {
	client := &fakeClient{tools: []domain.ToolInfo{{Name: "other"}}}
	r, _ := newTestRouter(t, client)

	result := route(t, r, "mcp:svc:x")
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.Stderr, "Tool 'x' not found on server 'svc'")
	require.True(t, client.disconnected)
}

func TestRoute_MCPServerNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})

	result := route(t, r, "mcp:nosuch:tool")
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.Stderr, "Server 'nosuch' not found")
}

func TestRoute_MCPConnectFailureDisconnects(t *testing.T) {
	client := &fakeClient{connectErr: os.ErrDeadlineExceeded}
	r, _ := newTestRouter(t, client)

	result := route(t, r, "mcp:svc:echo")
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.Stderr, "Failed to connect to server 'svc'")
	require.True(t, client.disconnected)
}

func TestRoute_SkillExecutesScript(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})
	store := r.skills.(*skills.Store)

	dir := filepath.Join(store.Root(), "demo", domain.ScriptsDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	script := `#!/bin/bash
# hello - Greet someone
#
# Parameters:
#     name (str): Who to greet
echo "hello $1"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.sh"), []byte(script), 0o755))
	require.NoError(t, store.LoadAll())

	result := route(t, r, `skill:demo:hello "world"`)
	require.Equal(t, 0, result.ExitCode)
	require.Equal(t, "hello world\n", result.Stdout)

	missing := route(t, r, "skill:demo:missing")
	require.Equal(t, 1, missing.ExitCode)
	require.Contains(t, missing.Stderr, "Tool 'missing' not found in skill 'demo'")
}

func TestRoute_CommandSearch(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})
	installer := r.searcher.(*wrapper.Installer)

	w, err := wrapper.GenerateMCP("svc", domain.ToolInfo{Name: "echo"})
	require.NoError(t, err)
	_, err = installer.Install(w)
	require.NoError(t, err)

	result := route(t, r, "command:search")
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "mcp:svc:echo")

	filtered := route(t, r, "command:search nomatch")
	require.Equal(t, "No installed tools found.\n", filtered.Stdout)
}

func TestRoute_BuiltinReadWriteEdit(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})

	result := route(t, r, `write notes.txt "line one"`)
	require.Equal(t, 0, result.ExitCode)

	read := route(t, r, "read notes.txt")
	require.Equal(t, "line one\n", read.Stdout)

	edited := route(t, r, `edit notes.txt "one" "two"`)
	require.Equal(t, 0, edited.ExitCode)
	require.Equal(t, "line two\n", route(t, r, "read notes.txt").Stdout)

	missing := route(t, r, `edit notes.txt "absent" "x"`)
	require.Equal(t, 1, missing.ExitCode)
}

func TestRoute_BuiltinGlobAndSearch(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})
	require.NoError(t, os.WriteFile(filepath.Join(r.workDir, "a.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(r.workDir, "b.txt"), []byte("hello\n"), 0o644))

	globbed := route(t, r, "glob *.go")
	require.Equal(t, 0, globbed.ExitCode)
	require.Contains(t, globbed.Stdout, "a.go")
	require.NotContains(t, globbed.Stdout, "b.txt")

	searched := route(t, r, "search hello --type txt")
	require.Equal(t, 0, searched.ExitCode)
	require.Contains(t, searched.Stdout, "b.txt:1:hello")

	insensitive := route(t, r, "search HELLO -i")
	require.Contains(t, insensitive.Stdout, "b.txt:1:hello")
}

func TestRoute_BuiltinTodoWrite(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})

	result := route(t, r, `TodoWrite '{"todos":[{"content":"ship it","activeForm":"shipping","status":"in_progress"}]}'`)
	require.Equal(t, 0, result.ExitCode)
	require.Contains(t, result.Stdout, "[~] ship it")

	bad := route(t, r, `TodoWrite '{"todos":[{"content":"x","status":"bogus"}]}'`)
	require.Equal(t, 1, bad.ExitCode)
}

func TestRoute_HelpShortCircuit(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})

	brief := route(t, r, "read -h")
	require.Equal(t, 0, brief.ExitCode)
	require.Contains(t, brief.Stdout, "Usage: read <path>")

	full := route(t, r, "read --help")
	require.Contains(t, full.Stdout, "PARAMETERS:")

	overview := route(t, r, "help")
	require.Contains(t, overview.Stdout, "mcp:<server>:<tool>")
}

func TestRoute_NativeFallThrough(t *testing.T) {
	r, session := newTestRouter(t, &fakeClient{})

	result := route(t, r, "ls -la /tmp")
	require.Equal(t, "native\n", result.Stdout)
	require.Equal(t, "ls -la /tmp", session.lastCommand)
}

func TestRoute_UnclosedQuoteFails(t *testing.T) {
	r, _ := newTestRouter(t, &fakeClient{})

	result := route(t, r, `echo "abc`)
	require.Equal(t, 1, result.ExitCode)
	require.Contains(t, result.Stderr, "unclosed quote")
}

func TestMapToolArgs(t *testing.T) {
	tool := domain.ToolInfo{
		Name: "demo",
		Params: []domain.ToolParam{
			{Name: "path", Type: "string", Required: true},
			{Name: "count", Type: "integer", Required: true},
			{Name: "ratio", Type: "number"},
			{Name: "force", Type: "boolean"},
		},
	}

	mapped, err := mapToolArgs(tool, []string{"file.txt", "7", "--ratio=0.5", "--force", "1"})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"path":  "file.txt",
		"count": 7,
		"ratio": 0.5,
		"force": true,
	}, mapped)

	_, err = mapToolArgs(tool, []string{"file.txt", "notanint"})
	require.Error(t, err)

	_, err = mapToolArgs(tool, []string{"a", "1", "extra"})
	require.Error(t, err)
}
