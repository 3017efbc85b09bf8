package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	a, err := New(Config{
		ConfigPath: filepath.Join(dir, "servers.yaml"),
		SkillsRoot: filepath.Join(dir, "skills"),
		BinDir:     filepath.Join(dir, "bin"),
		WorkDir:    dir,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_SyncInstallsSkillWrappers(t *testing.T) {
	a := newTestApp(t)

	scripts := filepath.Join(a.Skills.Root(), "demo", "scripts")
	require.NoError(t, os.MkdirAll(scripts, 0o755))
	script := `#!/usr/bin/env python3
"""
hello - Greet someone
"""
print("hi")
`
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "hello.py"), []byte(script), 0o755))

	require.NoError(t, a.Sync(context.Background()))

	records, err := a.Installer.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "skill:demo:hello", records[0].CommandName)
}

func TestApp_RouterRoutesBuiltins(t *testing.T) {
	a := newTestApp(t)

	result, err := a.Router.Route(context.Background(), `write note.txt "hi"`)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)

	read, err := a.Router.Route(context.Background(), "read note.txt")
	require.NoError(t, err)
	require.Equal(t, "hi\n", read.Stdout)
}

func TestApp_MissingConfigIsEmpty(t *testing.T) {
	a := newTestApp(t)
	require.Empty(t, a.Servers.Names())
	require.Empty(t, a.Manager.Names())
}
