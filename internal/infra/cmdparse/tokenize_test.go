package cmdparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"cmdbridge/internal/domain"
)

func TestTokenize_Plain(t *testing.T) {
	tokens, err := Tokenize("read /tmp/file.txt --limit 10")
	require.NoError(t, err)
	require.Equal(t, []string{"read", "/tmp/file.txt", "--limit", "10"}, tokens)
}

func TestTokenize_Quotes(t *testing.T) {
	tokens, err := Tokenize(`write "a b" "x\"y"`)
	require.NoError(t, err)
	require.Equal(t, []string{"write", "a b", `x"y`}, tokens)
}

func TestTokenize_SingleQuotes(t *testing.T) {
	tokens, err := Tokenize(`bash 'echo "hi there"'`)
	require.NoError(t, err)
	require.Equal(t, []string{"bash", `echo "hi there"`}, tokens)
}

func TestTokenize_EscapeSequences(t *testing.T) {
	tokens, err := Tokenize(`write /tmp/f "line1\nline2\ttabbed"`)
	require.NoError(t, err)
	require.Equal(t, []string{"write", "/tmp/f", "line1\nline2\ttabbed"}, tokens)
}

func TestTokenize_BackslashEscape(t *testing.T) {
	tokens, err := Tokenize(`echo "a\\b"`)
	require.NoError(t, err)
	require.Equal(t, []string{"echo", `a\b`}, tokens)
}

func TestTokenize_UnclosedQuote(t *testing.T) {
	_, err := Tokenize(`echo "abc`)
	require.ErrorIs(t, err, domain.ErrUnclosedQuote)
}

func TestTokenize_CollapsesWhitespace(t *testing.T) {
	tokens, err := Tokenize("a   b\t\tc")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, tokens)
}

func TestTokenize_Empty(t *testing.T) {
	tokens, err := Tokenize("   ")
	require.NoError(t, err)
	require.Empty(t, tokens)
}

func TestTokenize_RoundTrip(t *testing.T) {
	args := []string{"skill:demo:hello", "world", "--format=json", "x1"}
	tokens, err := Tokenize(strings.Join(args, " "))
	require.NoError(t, err)
	require.Equal(t, args, tokens)
}

func TestParseColon_Basic(t *testing.T) {
	parts, err := ParseColon("mcp:server:tool arg1", 0)
	require.NoError(t, err)
	require.NotNil(t, parts)
	require.Equal(t, "mcp", parts.Namespace)
	require.Equal(t, "server", parts.Name)
	require.Equal(t, "tool", parts.ToolName)
	require.Equal(t, []string{"arg1"}, parts.Args)
}

func TestParseColon_TooFewSegments(t *testing.T) {
	parts, err := ParseColon("onlyonecolon:x", 0)
	require.NoError(t, err)
	require.Nil(t, parts)
}

func TestParseColon_EmptySegment(t *testing.T) {
	parts, err := ParseColon("mcp::tool", 0)
	require.NoError(t, err)
	require.Nil(t, parts)
}

func TestParseColon_QuotedArgs(t *testing.T) {
	parts, err := ParseColon(`skill:demo:hello "hello world"`, 0)
	require.NoError(t, err)
	require.NotNil(t, parts)
	require.Equal(t, []string{"hello world"}, parts.Args)
}

func TestParseColon_ToolNameWithColon(t *testing.T) {
	parts, err := ParseColon("mcp:server:ns:tool", 0)
	require.NoError(t, err)
	require.NotNil(t, parts)
	require.Equal(t, "ns:tool", parts.ToolName)
}

func TestParseColon_UnclosedQuote(t *testing.T) {
	_, err := ParseColon(`mcp:server:tool "abc`, 0)
	require.ErrorIs(t, err, domain.ErrUnclosedQuote)
}
