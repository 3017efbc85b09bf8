package docstring

import (
	"strings"

	"cmdbridge/internal/domain"
)

// shellStrategy reads the leading `#` comment block after the shebang.
type shellStrategy struct{}

func (shellStrategy) extractBlock(src string) []string {
	var block []string
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if i == 0 && strings.HasPrefix(trimmed, "#!") {
			continue
		}
		if trimmed == "" {
			if len(block) == 0 {
				continue
			}
			break
		}
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		block = append(block, strings.TrimPrefix(strings.TrimPrefix(trimmed, "#"), " "))
	}
	return block
}

func (shellStrategy) detectSection(line string) (section, string, bool) {
	return detectHeaderSection(line)
}

func (shellStrategy) matchParam(line string) (domain.ScriptParam, bool) {
	return matchNamedParam(line)
}
