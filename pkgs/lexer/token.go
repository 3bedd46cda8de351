package lexer

import (
	"fmt"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// TokenType separates the tokens the host lexes itself from the external
// tokens produced by the scanner.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Host-owned structure
	NEWLINE     // line terminator no external token claimed
	BLANK_LINE  // whitespace-only line including its terminator
	FRONTMATTER // one line of frontmatter content, terminator excluded

	// Scanner tokens; Token.Kind holds the kind
	EXTERNAL
)

// Pre-computed token name lookup for fast debugging
var tokenNames = [...]string{
	EOF:         "EOF",
	ILLEGAL:     "ILLEGAL",
	NEWLINE:     "NEWLINE",
	BLANK_LINE:  "BLANK_LINE",
	FRONTMATTER: "FRONTMATTER",
	EXTERNAL:    "EXTERNAL",
}

// String returns the string representation of the token type
func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Kind     scanner.TokenKind // set when Type == EXTERNAL
	Text     []byte
	Position Position

	// reach is the furthest input offset examined while lexing the token
	reach int
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based rune column
	Offset int // 0-based byte offset
}

// Name returns the grammar-facing name: the external kind for scanner tokens,
// the token type otherwise.
func (t Token) Name() string {
	if t.Type == EXTERNAL {
		return t.Kind.String()
	}
	return t.Type.String()
}

// String returns the token text as a string (for testing and debugging)
func (t Token) String() string {
	return string(t.Text)
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + len(t.Text)
}

// ZeroWidth reports whether the token covers no input.
func (t Token) ZeroWidth() bool {
	switch t.Type {
	case EOF:
		return true
	case EXTERNAL:
		return t.Kind.ZeroWidth()
	}
	return false
}

// Debug returns a detailed representation of the token
func (t Token) Debug() string {
	return fmt.Sprintf("%s %q at %d:%d", t.Name(), t.Text, t.Position.Line, t.Position.Column)
}
