package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cmdbridge/internal/domain"
)

const helloScript = `#!/usr/bin/env python3
"""
hello - Greet someone

Parameters:
    name (str): Who to greet
"""
print("hello")
`

func writeScript(t *testing.T, root, skill, file, content string) string {
	t.Helper()
	dir := filepath.Join(root, skill, "scripts")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func TestStore_LoadAll(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "demo", "hello.py", helloScript)
	writeScript(t, root, "demo", "raw.sh", "#!/bin/bash\necho hi\n")
	writeScript(t, root, "other", "task.py", `"""task - Do a task"""`)

	store := NewStore(root, nil)
	require.NoError(t, store.LoadAll())

	require.Equal(t, []string{"demo", "other"}, store.Skills())
	require.Len(t, store.Scripts("demo"), 2)
}

func TestStore_FindTool(t *testing.T) {
	root := t.TempDir()
	writeScript(t, root, "demo", "hello.py", helloScript)

	store := NewStore(root, nil)
	require.NoError(t, store.LoadAll())

	meta, err := store.FindTool("demo", "hello")
	require.NoError(t, err)
	require.Equal(t, "hello", meta.Name)
	require.Equal(t, ".py", meta.Extension)
	require.Len(t, meta.Params, 1)

	_, err = store.FindTool("demo", "missing")
	var notFound *domain.SkillToolNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.EqualError(t, err, "Tool 'missing' not found in skill 'demo'")

	_, err = store.FindTool("nosuch", "hello")
	var noSkill *domain.SkillNotFoundError
	require.ErrorAs(t, err, &noSkill)
}

func TestStore_Refresh(t *testing.T) {
	root := t.TempDir()
	path := writeScript(t, root, "demo", "hello.py", helloScript)

	store := NewStore(root, nil)
	require.NoError(t, store.LoadAll())
	require.Len(t, store.Scripts("demo"), 1)

	require.NoError(t, os.Remove(path))
	store.Refresh("demo")
	require.Empty(t, store.Skills())
}

func TestStore_MissingRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent"), nil)
	require.NoError(t, store.LoadAll())
	require.Empty(t, store.Skills())
}
