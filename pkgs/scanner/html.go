package scanner

// MaxHTMLTagName caps the length of an HTML block's tag name.
const MaxHTMLTagName = 64

// scanHTMLComment recognizes "<!--" through the next "-->". An unterminated
// comment is not a comment.
func scanHTMLComment(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || !c.literal("<!--") {
		return 0, false
	}
	for !c.AtEOF() {
		if c.hasPrefix("-->") {
			c.literal("-->")
			return HTML_COMMENT, true
		}
		c.advance()
	}
	return 0, false
}

// scanHTMLBlock recognizes an HTML element: an opening tag with optional
// quoted attributes, then either "/>" or everything up to the matching close
// tag. Without a close tag the block ends at the next blank line or the end of
// input, unless strict HTML is configured.
func scanHTMLBlock(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || !c.advanceIf('<') {
		return 0, false
	}
	name, ok := htmlTagName(c)
	if !ok {
		return 0, false
	}

	selfClosing, ok := htmlTagRest(c)
	if !ok || (!selfClosing && !s.htmlBlockBody(c, name)) {
		return 0, false
	}
	s.state.InList = false
	return HTML_BLOCK, true
}

// htmlBlockBody consumes the element content through the close tag for name.
func (s *Scanner) htmlBlockBody(c *Cursor, name string) bool {
	for !c.AtEOF() {
		if c.hasPrefix("</") {
			probe := *c
			if htmlCloseTag(&probe, name) {
				*c = probe
				return true
			}
		}
		if isNewline(c.Peek()) {
			c.newline()
			if c.restIsBlank() && !s.config.strictHTML {
				return true
			}
			continue
		}
		c.advance()
	}
	return !s.config.strictHTML
}

func isHTMLNameStart(r rune) bool {
	return isASCIILetter(r)
}

func isHTMLNameChar(r rune) bool {
	return isASCIILetter(r) || isDigit(r) || r == '-' || r == ':'
}

// htmlTagName consumes a tag name of at most MaxHTMLTagName characters.
func htmlTagName(c *Cursor) (string, bool) {
	if !isHTMLNameStart(c.Peek()) {
		return "", false
	}
	start := c.Offset()
	for n := 0; isHTMLNameChar(c.Peek()); n++ {
		if n == MaxHTMLTagName {
			return "", false
		}
		c.advance()
	}
	return string(c.Source()[start:c.Offset()]), true
}

// htmlTagRest consumes attributes through the closing '>' or "/>". Quoted
// values may contain '>'.
func htmlTagRest(c *Cursor) (selfClosing, ok bool) {
	for !c.AtEOF() {
		switch r := c.Peek(); r {
		case '"', '\'':
			c.advance()
			for !c.AtEOF() && c.Peek() != r {
				c.advance()
			}
			c.advanceIf(r)
			continue
		case '/':
			if c.literal("/>") {
				return true, true
			}
			continue
		case '>':
			c.advance()
			return false, true
		}
		c.advance()
	}
	return false, false
}

// htmlCloseTag consumes "</name" followed by optional whitespace and '>'.
func htmlCloseTag(c *Cursor, name string) bool {
	if !c.literal("</") {
		return false
	}
	got, ok := htmlTagName(c)
	if !ok || got != name {
		return false
	}
	for isSpaceTab(c.Peek()) || isNewline(c.Peek()) {
		c.advance()
	}
	return c.advanceIf('>')
}
