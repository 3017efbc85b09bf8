package docstring

import (
	"regexp"
	"strings"

	"cmdbridge/internal/domain"
)

var (
	paramsHeaderRe      = regexp.MustCompile(`(?i)^(parameters?|args?|arguments?)\s*:\s*(.*)$`)
	returnsHeaderRe     = regexp.MustCompile(`(?i)^returns?\s*:\s*(.*)$`)
	examplesHeaderRe    = regexp.MustCompile(`(?i)^(examples?|usage)\s*:\s*(.*)$`)
	descriptionHeaderRe = regexp.MustCompile(`(?i)^description\s*:\s*(.*)$`)

	// name (type): description, as used by the Python and Shell conventions.
	// The name may be flag-style (--name), marking the parameter optional.
	namedParamRe = regexp.MustCompile(`^(--?[\w-]+|[\w-]+)\s*\(([^)]*)\)\s*:\s*(.*)$`)
)

// detectHeaderSection matches the shared section headers of the Python and
// Shell docstring conventions.
func detectHeaderSection(line string) (section, string, bool) {
	if m := paramsHeaderRe.FindStringSubmatch(line); m != nil {
		return sectionParams, strings.TrimSpace(m[2]), true
	}
	if m := returnsHeaderRe.FindStringSubmatch(line); m != nil {
		return sectionReturns, strings.TrimSpace(m[1]), true
	}
	if m := examplesHeaderRe.FindStringSubmatch(line); m != nil {
		return sectionExamples, strings.TrimSpace(m[2]), true
	}
	if m := descriptionHeaderRe.FindStringSubmatch(line); m != nil {
		return sectionDescription, strings.TrimSpace(m[1]), true
	}
	return 0, "", false
}

// matchNamedParam recognizes `name (type): description` lines and derives
// required/default from the type spec and the flag prefix.
func matchNamedParam(line string) (domain.ScriptParam, bool) {
	m := namedParamRe.FindStringSubmatch(line)
	if m == nil {
		return domain.ScriptParam{}, false
	}

	name := m[1]
	required := true
	if strings.HasPrefix(name, "-") {
		name = strings.TrimLeft(name, "-")
		required = false
	}

	param := domain.ScriptParam{
		Name:        name,
		Required:    required,
		Description: strings.TrimSpace(m[3]),
	}
	applyTypeSpec(&param, m[2])
	return param, true
}

// applyTypeSpec parses a raw type string such as `str`, `str, optional`, or
// `str, default: "x"` into the parameter's type, default, and required flag.
func applyTypeSpec(param *domain.ScriptParam, raw string) {
	parts := strings.Split(raw, ",")
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 0 {
			if strings.HasSuffix(part, "?") {
				part = strings.TrimSuffix(part, "?")
				param.Required = false
			}
			param.Type = part
			continue
		}
		lower := strings.ToLower(part)
		switch {
		case strings.HasPrefix(lower, "default:"):
			value := strings.TrimSpace(part[len("default:"):])
			param.Default = strings.Trim(value, `"'`)
			param.Required = false
		case lower == "optional":
			param.Required = false
		}
	}
}
