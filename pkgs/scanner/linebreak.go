package scanner

// scanHardLineBreak recognizes two or more spaces, or a backslash, before a
// line terminator inside a paragraph. The token runs through the terminator.
func scanHardLineBreak(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}

	switch c.Peek() {
	case '\\':
		c.advance()
	case ' ':
		if c.run(' ', 0) < 2 {
			return 0, false
		}
	default:
		return 0, false
	}
	if !c.newline() || !s.continuesParagraph(*c) {
		return 0, false
	}
	return HARD_LINE_BREAK, true
}

// scanSoftLineBreak recognizes a line terminator inside a paragraph. It fails
// when the next line is blank, missing, or begins a new block, leaving the
// caller to close the paragraph.
//
// SOFT_LINE_BREAK covers the terminator only. PARAGRAPH_CONTINUATION, used
// when the caller does not accept a soft break, also covers the next line's
// leading spaces and tabs.
func scanSoftLineBreak(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}
	if !c.newline() || !s.continuesParagraph(*c) {
		return 0, false
	}
	if valid.Has(SOFT_LINE_BREAK) {
		return SOFT_LINE_BREAK, true
	}
	c.spaces()
	return PARAGRAPH_CONTINUATION, true
}

// continuesParagraph reports whether the line at c can continue an open
// paragraph. c must be at the start of the line.
func (s *Scanner) continuesParagraph(c Cursor) bool {
	if c.restIsBlank() {
		return false
	}
	return !s.startsBlock(c)
}
