// Package cmdparse implements the shell-like argument grammar shared by the
// command router and the colon-namespaced handlers.
package cmdparse

import (
	"strings"

	"cmdbridge/internal/domain"
)

// Tokenize splits a command string into arguments. Single and double quotes
// group text; inside quotes the escapes \\, \<matching quote>, \n, \t and \r
// are honored. Unquoted spaces and tabs separate tokens; empty tokens are
// dropped. Input ending inside a quote is an error.
func Tokenize(input string) ([]string, error) {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		hasText bool
	)

	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if quote != 0 {
			if ch == '\\' && i+1 < len(runes) {
				next := runes[i+1]
				switch next {
				case '\\', quote:
					current.WriteRune(next)
					i++
					continue
				case 'n':
					current.WriteRune('\n')
					i++
					continue
				case 't':
					current.WriteRune('\t')
					i++
					continue
				case 'r':
					current.WriteRune('\r')
					i++
					continue
				}
			}
			if ch == quote {
				quote = 0
				continue
			}
			current.WriteRune(ch)
			continue
		}

		switch ch {
		case '\'', '"':
			quote = ch
			hasText = true
		case ' ', '\t':
			if hasText {
				tokens = appendToken(tokens, current.String())
				current.Reset()
				hasText = false
			}
		default:
			current.WriteRune(ch)
			hasText = true
		}
	}

	if quote != 0 {
		return nil, domain.ErrUnclosedQuote
	}
	if hasText {
		tokens = appendToken(tokens, current.String())
	}
	return tokens, nil
}

func appendToken(tokens []string, token string) []string {
	if token == "" {
		return tokens
	}
	return append(tokens, token)
}
