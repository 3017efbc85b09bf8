package router

import (
	"fmt"
	"strconv"
	"strings"

	"cmdbridge/internal/domain"
)

// splitFlags separates `--name=value` / `--name value` flags from positional
// arguments. A `--flag` followed by another flag or nothing is treated as a
// bare boolean.
func splitFlags(args []string) (positionals []string, flags map[string]string) {
	flags = make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			positionals = append(positionals, arg)
			continue
		}
		name := strings.TrimPrefix(arg, "--")
		if eq := strings.Index(name, "="); eq >= 0 {
			flags[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "--") {
			flags[name] = args[i+1]
			i++
			continue
		}
		flags[name] = "true"
	}
	return positionals, flags
}

// mapToolArgs zips positional arguments onto the tool's required parameters
// in schema order, then merges flags in as named overrides. Values are
// coerced by each parameter's declared type; unknown flag names pass through
// as strings.
func mapToolArgs(tool domain.ToolInfo, args []string) (map[string]any, error) {
	positionals, flags := splitFlags(args)

	types := make(map[string]string, len(tool.Params))
	for _, p := range tool.Params {
		types[p.Name] = p.Type
	}

	mapped := make(map[string]any)
	required := tool.RequiredParams()
	for i, name := range required {
		if i >= len(positionals) {
			break
		}
		value, err := coerce(types[name], positionals[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", name, err)
		}
		mapped[name] = value
	}
	if len(positionals) > len(required) {
		return nil, fmt.Errorf("too many arguments: expected at most %d positional, got %d", len(required), len(positionals))
	}

	for name, raw := range flags {
		value, err := coerce(types[name], raw)
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", name, err)
		}
		mapped[name] = value
	}
	return mapped, nil
}

func coerce(typ, raw string) (any, error) {
	switch typ {
	case "number":
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return value, nil
	case "integer":
		value, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return value, nil
	case "boolean":
		return raw == "true" || raw == "1", nil
	default:
		return raw, nil
	}
}
