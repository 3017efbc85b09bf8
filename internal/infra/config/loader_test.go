package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_CommandAndURLEntries(t *testing.T) {
	path := writeConfig(t, `
servers:
  - name: files
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
    timeoutSeconds: 10
  - name: remote
    url: http://localhost:8080/mcp
`)
	servers, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	require.Empty(t, servers.Errors)
	require.Len(t, servers.Entries, 2)

	files := servers.Entries["files"]
	require.Equal(t, "npx", files.Command)
	require.Equal(t, 10, files.TimeoutSeconds)
	require.False(t, files.IsHTTP())

	remote := servers.Entries["remote"]
	require.True(t, remote.IsHTTP())
	require.Equal(t, 30, remote.TimeoutSeconds)
}

func TestLoad_MalformedEntriesAreSkipped(t *testing.T) {
	path := writeConfig(t, `
servers:
  - name: good
    command: echo
  - name: ""
    command: echo
  - name: both
    command: echo
    url: http://localhost:1234/mcp
  - name: badurl
    url: "not a url"
`)
	servers, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	require.Len(t, servers.Entries, 1)
	require.Contains(t, servers.Entries, "good")
	require.Len(t, servers.Errors, 3)
}

func TestLoad_DuplicateName(t *testing.T) {
	path := writeConfig(t, `
servers:
  - name: dup
    command: echo
  - name: dup
    command: cat
`)
	servers, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	require.Len(t, servers.Entries, 1)
	require.Len(t, servers.Errors, 1)
	require.Contains(t, servers.Errors[0], "duplicate name")
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	servers, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Empty(t, servers.Entries)
	require.Empty(t, servers.Errors)
}

func TestLoad_EmptyFileIsEmpty(t *testing.T) {
	path := writeConfig(t, "")
	servers, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	require.Empty(t, servers.Entries)
}

func TestServers_Names(t *testing.T) {
	path := writeConfig(t, `
servers:
  - name: zeta
    command: echo
  - name: alpha
    command: echo
`)
	servers, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "zeta"}, servers.Names())
}
