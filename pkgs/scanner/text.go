package scanner

// scanText consumes plain inline text: at least one rune, then up to the next
// character that may start another token or the end of the line.
//
// Text that opens a line where a list marker was acceptable, indented less
// than the open item, starts a paragraph outside the list.
func scanText(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || c.atLineEnd() {
		return 0, false
	}
	if s.state.InList && c.Column() == 0 && valid&listMarkerKinds != 0 {
		line := *c
		if line.indent(s.config.tabWidth) < max(1, s.state.ListIndent) {
			s.state.InList = false
		}
	}
	c.advance()
	for !c.atLineEnd() && !atTextBoundary(*c) {
		c.advance()
	}
	return TEXT, true
}

func atTextBoundary(c Cursor) bool {
	switch c.Peek() {
	case '*', '_', '<', '{', '}':
		return true
	case '%':
		return c.hasPrefix("%}")
	case '/':
		return c.hasPrefix("/%}")
	case '\\':
		c.advance()
		return isNewline(c.Peek())
	case ' ':
		return c.run(' ', 0) >= 2 && isNewline(c.Peek())
	}
	return false
}
