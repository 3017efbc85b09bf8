package docstring

import (
	"strings"

	"cmdbridge/internal/domain"
)

// pythonStrategy reads the module-level triple-quoted docstring.
type pythonStrategy struct{}

func (pythonStrategy) extractBlock(src string) []string {
	for _, delim := range []string{`"""`, "'''"} {
		if block, ok := tripleQuoteBlock(src, delim); ok {
			return block
		}
	}
	return nil
}

func tripleQuoteBlock(src, delim string) ([]string, bool) {
	start := strings.Index(src, delim)
	if start < 0 {
		return nil, false
	}
	// The docstring must lead the file: only a shebang, encoding comment, or
	// blank lines may precede it.
	for _, line := range strings.Split(src[:start], "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return nil, false
		}
	}
	rest := src[start+len(delim):]
	end := strings.Index(rest, delim)
	if end < 0 {
		return nil, false
	}
	return strings.Split(rest[:end], "\n"), true
}

func (pythonStrategy) detectSection(line string) (section, string, bool) {
	return detectHeaderSection(line)
}

func (pythonStrategy) matchParam(line string) (domain.ScriptParam, bool) {
	return matchNamedParam(line)
}
