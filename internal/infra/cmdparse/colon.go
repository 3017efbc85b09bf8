package cmdparse

import (
	"strings"

	"cmdbridge/internal/domain"
)

// ParseColon interprets the first token of a tokenized command as a
// colon-namespaced invocation (namespace:name:tool). It returns nil when the
// shape does not match so the router can fall through to other classifiers;
// only the tokenizer itself can fail.
func ParseColon(input string, minParts int) (*domain.ColonCommandParts, error) {
	if minParts <= 0 {
		minParts = domain.DefaultColonMinParts
	}

	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	segments := strings.Split(tokens[0], ":")
	if len(segments) < minParts {
		return nil, nil
	}

	namespace := segments[0]
	name := segments[1]
	// Tool names may themselves contain colons; everything after the second
	// separator belongs to the tool segment.
	toolName := strings.Join(segments[2:], ":")
	if namespace == "" || name == "" || toolName == "" {
		return nil, nil
	}

	return &domain.ColonCommandParts{
		Namespace: namespace,
		Name:      name,
		ToolName:  toolName,
		Args:      tokens[1:],
	}, nil
}
