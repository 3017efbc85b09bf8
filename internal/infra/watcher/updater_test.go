package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/skills"
	"cmdbridge/internal/infra/wrapper"
)

const helloScript = `#!/usr/bin/env python3
"""
hello - Greet someone

Parameters:
    name (str): Who to greet
"""
print("hello")
`

func newTestUpdater(t *testing.T) (*AutoUpdater, string, *wrapper.Installer) {
	t.Helper()
	root := t.TempDir()
	installer, err := wrapper.OpenInstaller(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = installer.Close() })
	store := skills.NewStore(root, nil)
	return NewAutoUpdater(store, installer, nil), root, installer
}

func writeScript(t *testing.T, root, skill, file, content string) string {
	t.Helper()
	dir := filepath.Join(root, skill, domain.ScriptsDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func TestAutoUpdater_AddThenChange(t *testing.T) {
	updater, root, installer := newTestUpdater(t)
	path := writeScript(t, root, "demo", "hello.py", helloScript)

	added := updater.Handle(domain.WatchEvent{
		Type: domain.WatchAdd, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateInstalled, added.Type)
	require.Equal(t, "skill:demo:hello", added.CommandName)
	require.NotEmpty(t, added.ID)

	before, err := installer.Get("skill:demo:hello")
	require.NoError(t, err)
	beforeScript, err := os.ReadFile(before.Path)
	require.NoError(t, err)

	// Edit the script body; the regenerated wrapper must differ from the
	// previous one, not just be rewritten byte-identical.
	edited := helloScript + `print("again")` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o755))

	changed := updater.Handle(domain.WatchEvent{
		Type: domain.WatchChange, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateUpdated, changed.Type)

	after, err := installer.Get("skill:demo:hello")
	require.NoError(t, err)
	require.NotEqual(t, before.Digest, after.Digest)
	afterScript, err := os.ReadFile(after.Path)
	require.NoError(t, err)
	require.NotEqual(t, string(beforeScript), string(afterScript))

	records, err := installer.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestAutoUpdater_GeneratorFailureKeepsExistingWrapper(t *testing.T) {
	updater, root, installer := newTestUpdater(t)
	path := writeScript(t, root, "demo", "hello.py", helloScript)

	added := updater.Handle(domain.WatchEvent{
		Type: domain.WatchAdd, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateInstalled, added.Type)

	require.NoError(t, os.Remove(path))
	out := updater.Handle(domain.WatchEvent{
		Type: domain.WatchChange, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateError, out.Type)
	require.NotEmpty(t, out.Err)

	_, err := installer.Get("skill:demo:hello")
	require.NoError(t, err)
}

func TestAutoUpdater_Unlink(t *testing.T) {
	updater, root, installer := newTestUpdater(t)
	path := writeScript(t, root, "demo", "hello.py", helloScript)

	updater.Handle(domain.WatchEvent{
		Type: domain.WatchAdd, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.NoError(t, os.Remove(path))

	out := updater.Handle(domain.WatchEvent{
		Type: domain.WatchUnlink, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateRemoved, out.Type)
	require.Equal(t, "skill:demo:hello", out.CommandName)

	_, err := installer.Get("skill:demo:hello")
	require.Error(t, err)

	again := updater.Handle(domain.WatchEvent{
		Type: domain.WatchUnlink, Skill: "demo", Script: "hello.py", Path: path,
	})
	require.Equal(t, domain.UpdateError, again.Type)
}

func TestAutoUpdater_SyncAll(t *testing.T) {
	updater, root, installer := newTestUpdater(t)
	writeScript(t, root, "demo", "hello.py", helloScript)
	writeScript(t, root, "other", "task.py", `"""task - Do a task"""`)

	// A stale wrapper whose script no longer exists should be reconciled away.
	stale := domain.GeneratedWrapper{
		CommandName: "skill:demo:gone",
		Type:        domain.WrapperTypeSkill,
		SourceName:  "demo",
		ToolName:    "gone",
		Script:      "#!/bin/sh\nexit 0\n",
	}
	_, err := installer.Install(stale)
	require.NoError(t, err)

	results, err := updater.SyncAll()
	require.NoError(t, err)
	require.Len(t, results, 3)

	records, err := installer.List()
	require.NoError(t, err)
	var names []string
	for _, record := range records {
		names = append(names, record.CommandName)
	}
	require.Equal(t, []string{"skill:demo:hello", "skill:other:task"}, names)
}

func TestAutoUpdater_Subscribe(t *testing.T) {
	updater, root, _ := newTestUpdater(t)
	path := writeScript(t, root, "demo", "hello.py", helloScript)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := updater.Subscribe(ctx)

	updater.Handle(domain.WatchEvent{
		Type: domain.WatchAdd, Skill: "demo", Script: "hello.py", Path: path,
	})

	select {
	case event := <-ch:
		require.Equal(t, domain.UpdateInstalled, event.Type)
	case <-time.After(time.Second):
		t.Fatal("no update event received")
	}
}
