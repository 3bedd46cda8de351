// Package scanner recognizes the context-sensitive tokens of Markdoc documents
// that a context-free grammar cannot express: list markers, thematic breaks,
// frontmatter and code fence boundaries, emphasis delimiters, HTML blocks,
// indentation changes and line breaks.
//
// A Scanner is driven by a host parser. For every token lookup the host passes
// a Cursor positioned at the lookup point and the set of kinds it would accept;
// Scan returns the first kind that matches in a fixed priority order. The state
// that survives between calls is captured by Serialize so an incremental parser
// can resume scanning at any token boundary.
package scanner

import (
	"log/slog"
	"unicode/utf8"

	"github.com/aledsdavies/markdoc/pkgs/invariant"
)

// Variant selects the document dialect.
type Variant int

const (
	VariantMarkdoc  Variant = iota // Markdoc (default)
	VariantAsciiDoc                // AsciiDoc-style block syntax
)

func (v Variant) String() string {
	switch v {
	case VariantMarkdoc:
		return "markdoc"
	case VariantAsciiDoc:
		return "asciidoc"
	}
	return "unknown"
}

// DefaultTabWidth is the tab stop distance used for indentation.
const DefaultTabWidth = 4

// Option configures a Scanner.
type Option func(*Config)

// Config holds scanner configuration.
type Config struct {
	variant        Variant
	tabWidth       int
	strictEmphasis bool
	strictHTML     bool
	logger         *slog.Logger
}

// WithVariant selects the dialect.
func WithVariant(v Variant) Option {
	return func(c *Config) {
		c.variant = v
	}
}

// WithTabWidth sets the tab stop distance. Values below 1 are ignored.
func WithTabWidth(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.tabWidth = n
		}
	}
}

// WithStrictEmphasis only opens emphasis when a matching closing run follows
// later on the same line.
func WithStrictEmphasis() Option {
	return func(c *Config) {
		c.strictEmphasis = true
	}
}

// WithStrictHTML requires HTML blocks to have a matching close tag instead of
// ending at the next blank line.
func WithStrictHTML() Option {
	return func(c *Config) {
		c.strictHTML = true
	}
}

// WithLogger replaces the default stderr logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// Scanner holds the persistent scan state of one parse session. It is not safe
// for concurrent use.
type Scanner struct {
	state  State
	config Config
}

// New creates a scanner in its initial state.
func New(opts ...Option) *Scanner {
	config := Config{
		variant:  VariantMarkdoc,
		tabWidth: DefaultTabWidth,
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.logger == nil {
		config.logger = newDefaultLogger()
	}

	return &Scanner{
		state:  NewState(),
		config: config,
	}
}

// Variant returns the configured dialect.
func (s *Scanner) Variant() Variant {
	return s.config.variant
}

// TabWidth returns the configured tab stop distance.
func (s *Scanner) TabWidth() int {
	return s.config.tabWidth
}

// State returns a copy of the current scan state.
func (s *Scanner) State() State {
	return s.state.Clone()
}

// InFencedCode reports whether a code fence is open.
func (s *Scanner) InFencedCode() bool {
	return s.state.InFencedCode
}

// InFrontmatter reports whether a frontmatter block is open.
func (s *Scanner) InFrontmatter() bool {
	return s.state.InFrontmatter
}

// InList reports whether the last block construct was a list item.
func (s *Scanner) InList() bool {
	return s.state.InList
}

// Reset returns the scanner to its initial state.
func (s *Scanner) Reset() {
	s.state = NewState()
}

// Serialize encodes the scan state. The result is at most MaxSerializedSize
// bytes.
func (s *Scanner) Serialize() []byte {
	buf, err := s.state.MarshalBinary()
	invariant.ExpectNoError(err, "serialize scan state")
	return buf
}

// Deserialize restores a state written by Serialize. An empty or malformed
// buffer resets the scanner to its initial state.
func (s *Scanner) Deserialize(data []byte) {
	if err := s.state.UnmarshalBinary(data); err != nil {
		s.config.logger.Debug("resetting scanner state", "error", err, "bytes", len(data))
		s.state = NewState()
	}
}

// recognizer is one entry of the dispatch table. fn is only called when the
// caller accepts at least one of kinds. It returns the recognized kind, which
// must be a member of valid.
type recognizer struct {
	name  string
	kinds ValidSet
	fn    func(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool)
}

// recognizers lists every token family in priority order.
//
// Frontmatter comes before thematic breaks, which come before list markers, so
// that an ambiguous dash line resolves in that order. Fence recognizers run
// before every other block recognizer because fenced content is opaque. Line
// breaks run before inline recognizers so a newline never becomes text.
var recognizers = []recognizer{
	{"frontmatter", NewValidSet(FRONTMATTER_DELIM, THEMATIC_BREAK), scanFrontmatter},
	{"fence_close", NewValidSet(CODE_FENCE_CLOSE), scanFenceClose},
	{"fence_content", NewValidSet(CODE_CONTENT), scanFenceContent},
	{"fence_open", NewValidSet(CODE_FENCE_OPEN), scanFenceOpen},
	{"indent", NewValidSet(INDENT, DEDENT), scanIndent},
	{"thematic_break", NewValidSet(THEMATIC_BREAK), scanThematicBreak},
	{"list_marker", listMarkerKinds, scanListMarker},
	{"block_quote", NewValidSet(BLOCK_QUOTE_MARKER), scanBlockQuote},
	{"block_title", NewValidSet(BLOCK_TITLE), scanBlockTitle},
	{"list_continuation", NewValidSet(LIST_CONTINUATION), scanListContinuation},
	{"hard_line_break", NewValidSet(HARD_LINE_BREAK), scanHardLineBreak},
	{"soft_line_break", NewValidSet(SOFT_LINE_BREAK, PARAGRAPH_CONTINUATION), scanSoftLineBreak},
	{"html_comment", NewValidSet(HTML_COMMENT), scanHTMLComment},
	{"html_block", NewValidSet(HTML_BLOCK), scanHTMLBlock},
	{"comment_block", NewValidSet(COMMENT_BLOCK), scanCommentBlock},
	{"tag_delimiter", tagDelimiterKinds, scanTagDelimiter},
	{"emphasis", emphasisKinds, scanEmphasis},
	{"text", NewValidSet(TEXT), scanText},
}

// Scan tries the recognizers acceptable under valid in priority order and
// commits the first match. On success the cursor is left at the end of the
// returned token. On failure the cursor and the scan state are unchanged.
func (s *Scanner) Scan(c *Cursor, valid ValidSet) (Result, bool) {
	if valid == 0 {
		return Result{}, false
	}

	for _, r := range recognizers {
		if valid&r.kinds == 0 {
			continue
		}

		saved := s.state
		var kind TokenKind
		matched := c.attempt(func(c *Cursor) bool {
			var ok bool
			kind, ok = r.fn(s, c, valid)
			return ok
		})
		if !matched {
			s.state = saved
			continue
		}

		invariant.Postcondition(valid.Has(kind), "%s recognizer returned unacceptable kind %s", r.name, kind)
		res := c.Result(kind)
		invariant.Postcondition(res.Len() > 0 || kind.ZeroWidth(), "%s recognizer returned empty %s", r.name, kind)

		c.settle()
		s.commit(res, c.Source())
		return res, true
	}

	return Result{}, false
}

// ZeroWidth reports whether tokens of kind k never cover input.
func (k TokenKind) ZeroWidth() bool {
	return k == INDENT || k == DEDENT
}

// commit applies the bookkeeping shared by every successful token.
func (s *Scanner) commit(res Result, src []byte) {
	s.state.AtDocumentStart = false

	text := src[res.Start:res.End]
	for len(text) > 0 {
		r, size := utf8.DecodeLastRune(text)
		if !isNewline(r) {
			s.state.LastSignificant = r
			return
		}
		text = text[:len(text)-size]
	}
}
