// Package wrapper materializes discovered MCP tools and skill scripts as
// uniform invocable commands and owns their on-disk registry.
package wrapper

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cmdbridge/internal/domain"
	"cmdbridge/internal/infra/hashutil"
	"cmdbridge/internal/infra/runner"
)

// CommandName builds the registry key for a wrapper.
func CommandName(typ domain.WrapperType, source, tool string) string {
	return fmt.Sprintf("%s:%s:%s", typ, source, tool)
}

// GenerateMCP turns one discovered server tool into an installable wrapper.
// The wrapper script is a shim that re-invokes the tool through the bridge
// (connect, call, print, disconnect).
func GenerateMCP(server string, tool domain.ToolInfo) (domain.GeneratedWrapper, error) {
	if server == "" || tool.Name == "" {
		return domain.GeneratedWrapper{}, errors.New("server and tool name are required")
	}
	name := CommandName(domain.WrapperTypeMCP, server, tool.Name)
	help := helpText(name, tool.Description, tool.Params, exampleLines(name, tool.Params))
	execLine := fmt.Sprintf(`exec cmdbridge route "%s $*"`, name)

	return domain.GeneratedWrapper{
		CommandName: name,
		Type:        domain.WrapperTypeMCP,
		SourceName:  server,
		ToolName:    tool.Name,
		Script:      shimScript(name, "", help, execLine),
		Help:        help,
	}, nil
}

// GenerateSkill turns one skill script into an installable wrapper that
// executes the script directly through its resolved interpreter. The script
// file must exist; its content digest is embedded in the shim so that edits
// to the script body always change the wrapper.
func GenerateSkill(skill string, meta domain.ScriptMetadata) (domain.GeneratedWrapper, error) {
	if skill == "" {
		return domain.GeneratedWrapper{}, errors.New("skill name is required")
	}
	if meta.Name == "" || meta.Path == "" {
		return domain.GeneratedWrapper{}, fmt.Errorf("script metadata for skill %s is incomplete", skill)
	}
	src, err := os.ReadFile(meta.Path)
	if err != nil {
		return domain.GeneratedWrapper{}, fmt.Errorf("read script %s: %w", meta.Path, err)
	}

	name := CommandName(domain.WrapperTypeSkill, skill, meta.Name)
	interpreter := runner.InterpreterForExtension(meta.Extension)
	execLine := fmt.Sprintf(`exec %s %q "$@"`, interpreter, meta.Path)

	params := meta.ToolInfo().Params
	examples := meta.Examples
	if len(examples) == 0 {
		examples = exampleLines(name, params)
	}
	help := helpText(name, meta.Description, params, examples)

	return domain.GeneratedWrapper{
		CommandName: name,
		Type:        domain.WrapperTypeSkill,
		SourceName:  skill,
		ToolName:    meta.Name,
		Script:      shimScript(name, hashutil.ScriptDigest(string(src)), help, execLine),
		Help:        help,
	}, nil
}

const helpDelimiter = "CMDBRIDGE_HELP"

// shimScript renders the wrapper shell file: header comments, a -h/--help
// case serving the embedded help text, then the exec line. A non-empty
// sourceDigest is recorded as a header comment so the wrapper content tracks
// the underlying script.
func shimScript(name, sourceDigest, help, execLine string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	fmt.Fprintf(&b, "# %s\n", name)
	if sourceDigest != "" {
		fmt.Fprintf(&b, "# source sha256: %s\n", sourceDigest)
	}
	b.WriteString("# Generated by cmdbridge. Do not edit; regenerated when the source changes.\n")
	fmt.Fprintf(&b, "if [ \"$1\" = \"-h\" ] || [ \"$1\" = \"--help\" ]; then\n")
	fmt.Fprintf(&b, "cat <<'%s'\n", helpDelimiter)
	b.WriteString(strings.TrimRight(help, "\n"))
	fmt.Fprintf(&b, "\n%s\n", helpDelimiter)
	b.WriteString("exit 0\nfi\n")
	b.WriteString(execLine + "\n")
	return b.String()
}

// helpText renders the full --help output in the same shape the skill
// scripts themselves use: usage, parameters, examples.
func helpText(commandName, description string, params []domain.ToolParam, examples []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", commandName)
	if description != "" {
		fmt.Fprintf(&b, " - %s", description)
	}
	b.WriteString("\n\nUSAGE:\n")
	fmt.Fprintf(&b, "    %s%s\n", commandName, usageSuffix(params))

	if len(params) > 0 {
		b.WriteString("\nPARAMETERS:\n")
		for _, p := range params {
			line := fmt.Sprintf("    %s", p.Name)
			if p.Type != "" {
				line += fmt.Sprintf(" (%s)", p.Type)
			}
			if !p.Required {
				if p.Default != "" {
					line += fmt.Sprintf(" [optional, default: %s]", p.Default)
				} else {
					line += " [optional]"
				}
			}
			if p.Description != "" {
				line += fmt.Sprintf("  %s", p.Description)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(examples) > 0 {
		b.WriteString("\nEXAMPLES:\n")
		for _, example := range examples {
			fmt.Fprintf(&b, "    %s\n", example)
		}
	}
	return b.String()
}

func usageSuffix(params []domain.ToolParam) string {
	var b strings.Builder
	for _, p := range params {
		if p.Required {
			fmt.Fprintf(&b, " <%s>", p.Name)
		} else {
			fmt.Fprintf(&b, " [--%s VALUE]", p.Name)
		}
	}
	return b.String()
}

func exampleLines(commandName string, params []domain.ToolParam) []string {
	var args []string
	for _, p := range params {
		if p.Required {
			args = append(args, fmt.Sprintf("<%s>", p.Name))
		}
	}
	line := commandName
	if len(args) > 0 {
		line += " " + strings.Join(args, " ")
	}
	return []string{line}
}
