// Package router classifies agent-issued command strings and dispatches them
// to the matching handler: colon-namespaced tool calls, local built-ins, or
// the external shell session.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/cmdparse"
	"cmdbridge/internal/infra/envutil"
	"cmdbridge/internal/infra/telemetry"
)

// ProtocolClient is the per-invocation tool server connection. A fresh one
// is made for every mcp: command and disconnected when the command ends.
type ProtocolClient interface {
	Connect(ctx context.Context) domain.ConnectResult
	ListTools(ctx context.Context) ([]domain.ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (domain.ToolCallResult, error)
	Disconnect()
}

// ClientFactory builds a ProtocolClient for one configured server.
type ClientFactory func(entry domain.ServerEntry) ProtocolClient

// BashSession is the external persistent shell collaborator. Native commands
// fall through to it verbatim.
type BashSession interface {
	Execute(ctx context.Context, command string) (domain.CommandResult, error)
}

// SkillResolver resolves skill tools to their scripts.
type SkillResolver interface {
	FindTool(skill, tool string) (domain.ScriptMetadata, error)
}

// ScriptRunner executes one resolved script.
type ScriptRunner interface {
	RunScript(ctx context.Context, meta domain.ScriptMetadata, args []string) (domain.CommandResult, error)
}

// WrapperSearcher serves command:search.
type WrapperSearcher interface {
	Search(pattern, typ string) ([]domain.InstalledTool, error)
}

// Formatter renders search listings.
type Formatter func(records []domain.InstalledTool) string

type Router struct {
	servers   map[string]domain.ServerEntry
	clients   ClientFactory
	skills    SkillResolver
	runner    ScriptRunner
	searcher  WrapperSearcher
	formatter Formatter
	session   BashSession
	metrics   domain.Metrics
	logger    *zap.Logger
	workDir   string
}

type Options struct {
	Servers   map[string]domain.ServerEntry
	Clients   ClientFactory
	Skills    SkillResolver
	Runner    ScriptRunner
	Searcher  WrapperSearcher
	Formatter Formatter
	Session   BashSession
	Metrics   domain.Metrics
	Logger    *zap.Logger
	WorkDir   string
}

func New(opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	formatter := opts.Formatter
	if formatter == nil {
		formatter = func([]domain.InstalledTool) string { return "" }
	}
	return &Router{
		servers:   opts.Servers,
		clients:   opts.Clients,
		skills:    opts.Skills,
		runner:    opts.Runner,
		searcher:  opts.Searcher,
		formatter: formatter,
		session:   opts.Session,
		metrics:   metrics,
		logger:    logger.Named("router"),
		workDir:   workDir,
	}
}

// Route classifies and executes one command string. Handled failures come
// back as exit code 1; the error return is reserved for conditions the
// router cannot express as a result.
func (r *Router) Route(ctx context.Context, input string) (domain.CommandResult, error) {
	started := time.Now()
	namespace, result := r.dispatch(ctx, input)

	var observed error
	if result.ExitCode != 0 {
		observed = fmt.Errorf("exit %d", result.ExitCode)
	}
	r.metrics.ObserveCommand(namespace, time.Since(started), observed)
	if result.ExitCode != 0 {
		r.logger.Debug("command failed",
			telemetry.EventField(telemetry.EventRouteError),
			zap.String("namespace", namespace),
			zap.Int("exitCode", result.ExitCode),
		)
	}
	return result, nil
}

func (r *Router) dispatch(ctx context.Context, input string) (string, domain.CommandResult) {
	tokens, err := cmdparse.Tokenize(input)
	if err != nil {
		return "parse", failure(err.Error())
	}
	if len(tokens) == 0 {
		return "parse", failure("empty command")
	}

	head, args := tokens[0], tokens[1:]

	if head == "help" {
		return "help", domain.CommandResult{Stdout: overviewHelp()}
	}
	if head == "command:search" {
		if h := helpResult("command:search", args); h != nil {
			return "command", *h
		}
		return "command", r.commandSearch(args)
	}

	parts, err := cmdparse.ParseColon(input, domain.DefaultColonMinParts)
	if err != nil {
		return "parse", failure(err.Error())
	}
	if parts != nil {
		switch parts.Namespace {
		case "mcp":
			if h := helpResult(head, parts.Args); h != nil {
				return "mcp", *h
			}
			return "mcp", r.routeMCP(ctx, parts)
		case "skill":
			if h := helpResult(head, parts.Args); h != nil {
				return "skill", *h
			}
			return "skill", r.routeSkill(ctx, parts)
		}
	}

	switch head {
	case "read":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinRead(args) })
	case "write":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinWrite(args) })
	case "edit":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinEdit(args) })
	case "glob":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinGlob(args) })
	case "search":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinSearch(args) })
	case "bash":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinBash(ctx, input) })
	case "TodoWrite":
		return "builtin", r.runBuiltin(head, args, func() domain.CommandResult { return r.builtinTodoWrite(args) })
	}

	return "native", r.routeNative(ctx, input)
}

// runBuiltin applies the -h/--help short-circuit shared by every built-in.
func (r *Router) runBuiltin(command string, args []string, handler func() domain.CommandResult) domain.CommandResult {
	if h := helpResult(command, args); h != nil {
		return *h
	}
	return handler()
}

// routeMCP is the fresh connect, list, match, call, disconnect sequence.
// Disconnect runs in a defer so the connection never outlives the command,
// whatever the outcome.
func (r *Router) routeMCP(ctx context.Context, parts *domain.ColonCommandParts) domain.CommandResult {
	entry, ok := r.servers[parts.Name]
	if !ok {
		return failure((&domain.ServerNotFoundError{Server: parts.Name}).Error())
	}
	client := r.clients(entry)
	defer client.Disconnect()

	started := time.Now()
	connect := client.Connect(ctx)
	if !connect.Success {
		r.metrics.ObserveToolCall(parts.Name, parts.ToolName, time.Since(started), connect.Err)
		return failure(fmt.Sprintf("Failed to connect to server '%s': %v", parts.Name, connect.Err))
	}

	// Everything after the connect shares one deadline so a stalled server
	// cannot hang the command on the listing either.
	opCtx, cancel := context.WithTimeout(ctx, time.Duration(envutil.ConnectTimeoutSeconds())*time.Second)
	defer cancel()

	tools, err := client.ListTools(opCtx)
	if err != nil {
		r.metrics.ObserveToolCall(parts.Name, parts.ToolName, time.Since(started), err)
		return failure(fmt.Sprintf("Failed to list tools on server '%s': %v", parts.Name, err))
	}
	var tool *domain.ToolInfo
	for i := range tools {
		if tools[i].Name == parts.ToolName {
			tool = &tools[i]
			break
		}
	}
	if tool == nil {
		notFound := &domain.ToolNotFoundError{Tool: parts.ToolName, Server: parts.Name}
		r.metrics.ObserveToolCall(parts.Name, parts.ToolName, time.Since(started), notFound)
		return failure(notFound.Error())
	}

	mapped, err := mapToolArgs(*tool, parts.Args)
	if err != nil {
		r.metrics.ObserveToolCall(parts.Name, parts.ToolName, time.Since(started), err)
		return failure(err.Error())
	}

	result, err := client.CallTool(opCtx, parts.ToolName, mapped)
	r.metrics.ObserveToolCall(parts.Name, parts.ToolName, time.Since(started), err)
	if err != nil {
		return failure(fmt.Sprintf("Tool call failed: %v", err))
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return domain.CommandResult{Stderr: text, ExitCode: 1}
	}
	return domain.CommandResult{Stdout: text}
}

func (r *Router) routeSkill(ctx context.Context, parts *domain.ColonCommandParts) domain.CommandResult {
	meta, err := r.skills.FindTool(parts.Name, parts.ToolName)
	if err != nil {
		return failure(err.Error())
	}
	result, err := r.runner.RunScript(ctx, meta, parts.Args)
	if err != nil {
		return failure(err.Error())
	}
	return result
}

func (r *Router) commandSearch(args []string) domain.CommandResult {
	positionals, flags := splitFlags(args)
	pattern := ""
	if len(positionals) > 0 {
		pattern = positionals[0]
	}
	typ := flags["type"]

	records, err := r.searcher.Search(pattern, typ)
	if err != nil {
		return failure(err.Error())
	}
	return domain.CommandResult{Stdout: r.formatter(records)}
}

func (r *Router) routeNative(ctx context.Context, input string) domain.CommandResult {
	if r.session == nil {
		return failure("no bash session available")
	}
	result, err := r.session.Execute(ctx, input)
	if err != nil {
		return failure(fmt.Sprintf("shell: %v", err))
	}
	return result
}

// flattenContent joins tool call content items; structured items were
// already flattened to their JSON form by the protocol layer.
func flattenContent(items []domain.ContentItem) string {
	if len(items) == 0 {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Text != "" {
			parts = append(parts, item.Text)
			continue
		}
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		parts = append(parts, string(raw))
	}
	out := strings.Join(parts, "\n")
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
