package envutil

import (
	"os"
	"strings"
)

const pathEnv = "PATH"

// EnsureDirOnPATH returns env with dir prepended to PATH, deduplicating
// entries. Skill scripts and shell commands launched by the bridge see the
// wrapper bin directory without the user editing their profile.
func EnsureDirOnPATH(env []string, dir string) []string {
	if strings.TrimSpace(dir) == "" {
		return env
	}
	current := envVarValue(env, pathEnv)
	merged := mergePATH(dir, current)
	if merged == "" || merged == current {
		return env
	}
	return setEnvValue(env, pathEnv, merged)
}

func envVarValue(env []string, key string) string {
	if key == "" {
		return ""
	}
	prefix := key + "="
	var value string
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			value = strings.TrimPrefix(entry, prefix)
		}
	}
	return value
}

func setEnvValue(env []string, key, value string) []string {
	if key == "" {
		return env
	}
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			continue
		}
		out = append(out, entry)
	}
	return append(out, prefix+value)
}

func mergePATH(primary, fallback string) string {
	separator := string(os.PathListSeparator)
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)

	appendPath := func(path string) {
		for _, entry := range strings.Split(path, separator) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if _, exists := seen[entry]; exists {
				continue
			}
			seen[entry] = struct{}{}
			out = append(out, entry)
		}
	}

	appendPath(primary)
	appendPath(fallback)

	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, separator)
}
