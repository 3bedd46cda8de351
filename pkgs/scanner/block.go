package scanner

// scanFrontmatter recognizes the "---" lines around a frontmatter block.
//
// The opening line is only legal as the first line of the document and only
// when a closing line exists further down. Without one, the line is a thematic
// break if the caller accepts it, so frontmatter never stays open.
func scanFrontmatter(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if c.Column() != 0 || !valid.Has(FRONTMATTER_DELIM) || s.state.InFencedCode {
		return 0, false
	}

	if s.state.InFrontmatter {
		if !frontmatterDelimiter(c) {
			return 0, false
		}
		c.MarkEnd()
		s.state.InFrontmatter = false
		s.config.logger.Debug("frontmatter closed", "offset", c.Offset())
		return FRONTMATTER_DELIM, true
	}

	if !s.state.AtDocumentStart || c.Offset() != 0 || !frontmatterDelimiter(c) {
		return 0, false
	}
	c.MarkEnd()

	if hasFrontmatterClose(*c) {
		s.state.InFrontmatter = true
		s.state.InList = false
		s.config.logger.Debug("frontmatter opened")
		return FRONTMATTER_DELIM, true
	}

	if valid.Has(THEMATIC_BREAK) {
		c.newline()
		c.MarkEnd()
		s.state.InList = false
		return THEMATIC_BREAK, true
	}
	return 0, false
}

// frontmatterDelimiter consumes exactly three dashes and trailing spaces up to
// the end of the line.
func frontmatterDelimiter(c *Cursor) bool {
	if c.run('-', 4) != 3 {
		return false
	}
	c.spaces()
	return c.atLineEnd()
}

// hasFrontmatterClose scans the lines after the opening delimiter for a closing
// one. c must be at the end of the opening line.
func hasFrontmatterClose(c Cursor) bool {
	if !c.newline() {
		return false
	}
	for !c.AtEOF() {
		line := c
		if frontmatterDelimiter(&line) {
			return true
		}
		c.nextLine()
	}
	return false
}

// scanThematicBreak recognizes a thematic break line including its terminator.
func scanThematicBreak(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if c.Column() != 0 || s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}
	if _, ok := s.thematicRun(c); !ok {
		return 0, false
	}
	c.newline()
	s.state.InList = false
	return THEMATIC_BREAK, true
}

// scanBlockQuote recognizes '>' at column 0 and one optional following space.
func scanBlockQuote(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || !isBlockQuoteLine(*c) {
		return 0, false
	}
	c.advance()
	c.advanceIf(' ')
	s.state.InList = false
	return BLOCK_QUOTE_MARKER, true
}

// scanBlockTitle recognizes an AsciiDoc ".Title" line up to, not including,
// its terminator.
func scanBlockTitle(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || !s.isBlockTitleLine(*c) {
		return 0, false
	}
	c.toLineEnd()
	return BLOCK_TITLE, true
}
