package router

import (
	"fmt"
	"sort"
	"strings"

	"cmdbridge/internal/domain"
)

type commandHelp struct {
	usage string
	long  string
}

var helpByCommand = map[string]commandHelp{
	"read": {
		usage: "read <path> [--offset N] [--limit N]",
		long: `Read a file and print its contents.

PARAMETERS:
    path            File to read
    --offset N      First line to print, 1-based [optional, default: 1]
    --limit N       Maximum number of lines [optional, default: 2000]`,
	},
	"write": {
		usage: "write <path> <content>",
		long: `Write content to a file, creating parent directories as needed.

PARAMETERS:
    path            Destination file
    content         Full file content (quote to preserve whitespace)`,
	},
	"edit": {
		usage: "edit <path> <old> <new> [--all]",
		long: `Replace text in a file.

PARAMETERS:
    path            File to edit
    old             Text to find (must exist in the file)
    new             Replacement text
    --all           Replace every occurrence instead of the first`,
	},
	"glob": {
		usage: "glob <pattern> [--path DIR] [--max N]",
		long: `List files matching a glob pattern.

PARAMETERS:
    pattern         Glob pattern, e.g. '*.go'
    --path DIR      Directory to match under [optional, default: .]
    --max N         Result cap [optional]`,
	},
	"search": {
		usage: "search <pattern> [--path DIR] [--type T] [--context N] [--max N] [-i]",
		long: `Search file contents with a regular expression.

PARAMETERS:
    pattern         Regular expression
    --path DIR      Directory to search [optional, default: .]
    --type T        Only files with this extension, e.g. go [optional]
    --context N     Lines of context around each match [optional, default: 0]
    --max N         Match cap [optional]
    -i              Case-insensitive matching`,
	},
	"bash": {
		usage: "bash <command>",
		long: `Run a command in the persistent shell session.

PARAMETERS:
    command         Command line, passed to the session verbatim`,
	},
	"TodoWrite": {
		usage: `TodoWrite '{"todos":[{"content":"...","activeForm":"...","status":"pending"}]}'`,
		long: `Replace the task list.

PARAMETERS:
    json            Object with a todos array; each todo needs content,
                    activeForm, and a status of pending, in_progress, or
                    completed`,
	},
	"command:search": {
		usage: "command:search [pattern]",
		long: `List installed tool wrappers, optionally filtered by a name
pattern (glob or substring).`,
	},
}

// helpResult returns a non-nil result when args request help: -h yields the
// brief usage line, --help the full text.
func helpResult(command string, args []string) *domain.CommandResult {
	brief, full := false, false
	for _, arg := range args {
		switch arg {
		case "-h":
			brief = true
		case "--help":
			full = true
		}
	}
	if !brief && !full {
		return nil
	}

	h, ok := helpByCommand[command]
	if !ok {
		h = commandHelp{usage: command + " [args...]"}
	}
	if full && h.long != "" {
		return &domain.CommandResult{Stdout: fmt.Sprintf("USAGE:\n    %s\n\n%s\n", h.usage, h.long)}
	}
	return &domain.CommandResult{Stdout: "Usage: " + h.usage + "\n"}
}

func usageFor(command string) string {
	if h, ok := helpByCommand[command]; ok {
		return "Usage: " + h.usage
	}
	return "Usage: " + command
}

// overviewHelp lists every built-in, for a bare "help" invocation.
func overviewHelp() string {
	names := make([]string, 0, len(helpByCommand))
	for name := range helpByCommand {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "    %s\n", helpByCommand[name].usage)
	}
	b.WriteString("    mcp:<server>:<tool> [args...]\n")
	b.WriteString("    skill:<skill>:<tool> [args...]\n")
	b.WriteString("Anything else runs in the shell session.\n")
	return b.String()
}
