package router

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/envutil"
)

func intFlag(flags map[string]string, name string, fallback int) (int, error) {
	raw, ok := flags[name]
	if !ok {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("--%s must be a non-negative integer", name)
	}
	return value, nil
}

func (r *Router) builtinRead(args []string) domain.CommandResult {
	positionals, flags := splitFlags(args)
	if len(positionals) != 1 {
		return failure(usageFor("read"))
	}
	offset, err := intFlag(flags, "offset", 1)
	if err != nil {
		return failure(err.Error())
	}
	limit, err := intFlag(flags, "limit", domain.DefaultReadLimitLines)
	if err != nil {
		return failure(err.Error())
	}
	if offset < 1 {
		offset = 1
	}

	data, err := os.ReadFile(r.resolvePath(positionals[0]))
	if err != nil {
		return failure(fmt.Sprintf("read %s: %v", positionals[0], err))
	}
	lines := strings.Split(string(data), "\n")
	if offset > len(lines) {
		return failure(fmt.Sprintf("offset %d is past the end of %s (%d lines)", offset, positionals[0], len(lines)))
	}
	end := offset - 1 + limit
	if end > len(lines) {
		end = len(lines)
	}
	out := strings.Join(lines[offset-1:end], "\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return domain.CommandResult{Stdout: out}
}

func (r *Router) builtinWrite(args []string) domain.CommandResult {
	positionals, _ := splitFlags(args)
	if len(positionals) != 2 {
		return failure(usageFor("write"))
	}
	path := r.resolvePath(positionals[0])
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return failure(fmt.Sprintf("write %s: %v", positionals[0], err))
	}
	if err := os.WriteFile(path, []byte(positionals[1]), 0o644); err != nil {
		return failure(fmt.Sprintf("write %s: %v", positionals[0], err))
	}
	return domain.CommandResult{Stdout: fmt.Sprintf("Wrote %d bytes to %s\n", len(positionals[1]), positionals[0])}
}

func (r *Router) builtinEdit(args []string) domain.CommandResult {
	positionals, flags := splitFlags(args)
	if len(positionals) != 3 {
		return failure(usageFor("edit"))
	}
	path := r.resolvePath(positionals[0])
	oldText, newText := positionals[1], positionals[2]

	data, err := os.ReadFile(path)
	if err != nil {
		return failure(fmt.Sprintf("edit %s: %v", positionals[0], err))
	}
	content := string(data)
	count := strings.Count(content, oldText)
	if count == 0 {
		return failure(fmt.Sprintf("edit %s: %q not found", positionals[0], oldText))
	}
	replaced := 1
	if _, all := flags["all"]; all {
		content = strings.ReplaceAll(content, oldText, newText)
		replaced = count
	} else {
		content = strings.Replace(content, oldText, newText, 1)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return failure(fmt.Sprintf("edit %s: %v", positionals[0], err))
	}
	return domain.CommandResult{Stdout: fmt.Sprintf("Replaced %d occurrence(s) in %s\n", replaced, positionals[0])}
}

func (r *Router) builtinGlob(args []string) domain.CommandResult {
	positionals, flags := splitFlags(args)
	if len(positionals) != 1 {
		return failure(usageFor("glob"))
	}
	dir := r.workDir
	if p, ok := flags["path"]; ok {
		dir = r.resolvePath(p)
	}
	max, err := intFlag(flags, "max", envutil.GlobMaxResults())
	if err != nil {
		return failure(err.Error())
	}

	matches, err := filepath.Glob(filepath.Join(dir, positionals[0]))
	if err != nil {
		return failure(fmt.Sprintf("glob %s: %v", positionals[0], err))
	}
	sort.Strings(matches)
	if len(matches) > max {
		matches = matches[:max]
	}
	if len(matches) == 0 {
		return domain.CommandResult{Stdout: "No matches.\n"}
	}
	return domain.CommandResult{Stdout: strings.Join(matches, "\n") + "\n"}
}

func (r *Router) builtinSearch(args []string) domain.CommandResult {
	insensitive := false
	filtered := args[:0:0]
	for _, arg := range args {
		if arg == "-i" {
			insensitive = true
			continue
		}
		filtered = append(filtered, arg)
	}
	positionals, flags := splitFlags(filtered)
	if len(positionals) != 1 {
		return failure(usageFor("search"))
	}

	dir := r.workDir
	if p, ok := flags["path"]; ok {
		dir = r.resolvePath(p)
	}
	max, err := intFlag(flags, "max", envutil.SearchMaxResults())
	if err != nil {
		return failure(err.Error())
	}
	contextLines, err := intFlag(flags, "context", 0)
	if err != nil {
		return failure(err.Error())
	}

	pattern := positionals[0]
	if insensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return failure(fmt.Sprintf("invalid pattern: %v", err))
	}

	var ext string
	if t, ok := flags["type"]; ok {
		ext = "." + strings.TrimPrefix(t, ".")
	}

	var b strings.Builder
	found := 0
	walkErr := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
		if err != nil || found >= max {
			return filepath.SkipAll
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if ext != "" && filepath.Ext(entry.Name()) != ext {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || !isText(data) {
			return nil
		}
		lines := strings.Split(string(data), "\n")
		for i, line := range lines {
			if found >= max {
				return filepath.SkipAll
			}
			if !re.MatchString(line) {
				continue
			}
			found++
			start := i - contextLines
			if start < 0 {
				start = 0
			}
			end := i + contextLines
			if end >= len(lines) {
				end = len(lines) - 1
			}
			for j := start; j <= end; j++ {
				fmt.Fprintf(&b, "%s:%d:%s\n", path, j+1, lines[j])
			}
		}
		return nil
	})
	if walkErr != nil {
		return failure(fmt.Sprintf("search: %v", walkErr))
	}
	if found == 0 {
		return domain.CommandResult{Stdout: "No matches.\n"}
	}
	return domain.CommandResult{Stdout: b.String()}
}

func (r *Router) builtinBash(ctx context.Context, raw string) domain.CommandResult {
	command := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "bash"))
	if command == "" {
		return failure(usageFor("bash"))
	}
	if r.session == nil {
		return failure("no bash session available")
	}
	result, err := r.session.Execute(ctx, command)
	if err != nil {
		return failure(fmt.Sprintf("bash: %v", err))
	}
	return result
}

type todoItem struct {
	Content    string `json:"content"`
	ActiveForm string `json:"activeForm"`
	Status     string `json:"status"`
}

type todoPayload struct {
	Todos []todoItem `json:"todos"`
}

var todoStatuses = map[string]string{
	"pending":     "[ ]",
	"in_progress": "[~]",
	"completed":   "[x]",
}

func (r *Router) builtinTodoWrite(args []string) domain.CommandResult {
	positionals, _ := splitFlags(args)
	if len(positionals) != 1 {
		return failure(usageFor("TodoWrite"))
	}
	var payload todoPayload
	if err := json.Unmarshal([]byte(positionals[0]), &payload); err != nil {
		return failure(fmt.Sprintf("TodoWrite: invalid JSON: %v", err))
	}
	if len(payload.Todos) == 0 {
		return failure("TodoWrite: todos list is empty")
	}
	var b strings.Builder
	for i, todo := range payload.Todos {
		marker, ok := todoStatuses[todo.Status]
		if !ok {
			return failure(fmt.Sprintf("TodoWrite: todo %d has invalid status %q", i+1, todo.Status))
		}
		if todo.Content == "" {
			return failure(fmt.Sprintf("TodoWrite: todo %d has no content", i+1))
		}
		fmt.Fprintf(&b, "%s %s\n", marker, todo.Content)
	}
	return domain.CommandResult{Stdout: b.String()}
}

func (r *Router) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.workDir, path)
}

// isText rejects files with NUL bytes in the first block; good enough to
// skip binaries during search.
func isText(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	for _, b := range probe {
		if b == 0 {
			return false
		}
	}
	return true
}

func failure(message string) domain.CommandResult {
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	return domain.CommandResult{Stderr: message, ExitCode: 1}
}
