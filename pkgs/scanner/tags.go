package scanner

var tagDelimiterKinds = NewValidSet(
	EXPRESSION_OPEN,
	EXPRESSION_CLOSE,
	TAG_OPEN,
	TAG_CLOSE,
	TAG_SELF_CLOSE,
)

// tagDelimiters are tried in order; "/%}" must precede "%}".
var tagDelimiters = []struct {
	text string
	kind TokenKind
}{
	{"{{", EXPRESSION_OPEN},
	{"}}", EXPRESSION_CLOSE},
	{"{%", TAG_OPEN},
	{"/%}", TAG_SELF_CLOSE},
	{"%}", TAG_CLOSE},
}

// scanTagDelimiter recognizes the fixed delimiters of Markdoc tags and
// expressions.
func scanTagDelimiter(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}
	for _, d := range tagDelimiters {
		if valid.Has(d.kind) && c.hasPrefix(d.text) {
			c.literal(d.text)
			return d.kind, true
		}
	}
	return 0, false
}

// scanCommentBlock recognizes "{% comment %}" through "{% /comment %}" as one
// token. An unterminated comment is not a comment block.
func scanCommentBlock(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || !commentTag(c, "comment") {
		return 0, false
	}
	for !c.AtEOF() {
		if c.hasPrefix("{%") {
			probe := *c
			if commentTag(&probe, "/comment") {
				*c = probe
				return COMMENT_BLOCK, true
			}
		}
		c.advance()
	}
	return 0, false
}

// commentTag consumes "{%", optional spaces, name, optional spaces and "%}".
func commentTag(c *Cursor, name string) bool {
	if !c.literal("{%") {
		return false
	}
	c.spaces()
	if !c.literal(name) {
		return false
	}
	c.spaces()
	return c.literal("%}")
}
