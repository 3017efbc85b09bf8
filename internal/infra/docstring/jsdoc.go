package docstring

import (
	"regexp"
	"strings"

	"cmdbridge/internal/domain"
)

// jsdocStrategy reads the first /** ... */ block. Sections come from JSDoc
// tags rather than header lines: @param, @returns, @example.
type jsdocStrategy struct{}

var (
	jsdocOpenRe = regexp.MustCompile(`/\*\*`)

	// @param {type} name description. A [name] form or a type suffix of
	// ? / = marks the parameter optional; [name=value] carries a default.
	jsdocParamRe   = regexp.MustCompile(`^@param\s+\{([^}]*)\}\s+(\[?[\w.-]+(?:=[^\]]*)?\]?)\s*(.*)$`)
	jsdocReturnsRe = regexp.MustCompile(`^@returns?\s*(?:\{[^}]*\})?\s*(.*)$`)
	jsdocExampleRe = regexp.MustCompile(`^@example\s*(.*)$`)
)

func (jsdocStrategy) extractBlock(src string) []string {
	loc := jsdocOpenRe.FindStringIndex(src)
	if loc == nil {
		return nil
	}
	rest := src[loc[1]:]
	end := strings.Index(rest, "*/")
	if end < 0 {
		return nil
	}

	var block []string
	for _, line := range strings.Split(rest[:end], "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		block = append(block, strings.TrimSpace(line))
	}
	return block
}

func (jsdocStrategy) detectSection(line string) (section, string, bool) {
	if jsdocParamRe.MatchString(line) {
		// The tag line itself is a parameter; stay in (or enter) the params
		// section and let matchParam consume it.
		return sectionParams, line, true
	}
	if m := jsdocReturnsRe.FindStringSubmatch(line); m != nil {
		return sectionReturns, strings.TrimSpace(m[1]), true
	}
	if m := jsdocExampleRe.FindStringSubmatch(line); m != nil {
		return sectionExamples, strings.TrimSpace(m[1]), true
	}
	return 0, "", false
}

func (jsdocStrategy) matchParam(line string) (domain.ScriptParam, bool) {
	m := jsdocParamRe.FindStringSubmatch(line)
	if m == nil {
		return domain.ScriptParam{}, false
	}

	param := domain.ScriptParam{
		Required:    true,
		Description: strings.TrimSpace(m[3]),
	}

	typeSpec := strings.TrimSpace(m[1])
	if strings.HasSuffix(typeSpec, "?") || strings.HasSuffix(typeSpec, "=") {
		typeSpec = strings.TrimRight(typeSpec, "?=")
		param.Required = false
	}
	param.Type = typeSpec

	name := strings.TrimSpace(m[2])
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		name = strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")
		param.Required = false
		if eq := strings.Index(name, "="); eq >= 0 {
			param.Default = strings.Trim(name[eq+1:], `"'`)
			name = name[:eq]
		}
	}
	param.Name = name
	return param, true
}
