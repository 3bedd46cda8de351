package scanner

// scanFenceOpen recognizes an opening code fence: at least three backticks or
// tildes at column 0, an optional info string and the line terminator. The
// fence character and run length are remembered for the close.
func scanFenceOpen(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter || c.Column() != 0 {
		return 0, false
	}
	marker := c.Peek()
	if marker != '`' && marker != '~' {
		return 0, false
	}

	n := c.run(marker, 0)
	if n < 3 {
		return 0, false
	}

	// A backtick fence's info string may not contain backticks, otherwise the
	// line is inline code.
	for !c.atLineEnd() {
		if marker == '`' && c.Peek() == '`' {
			return 0, false
		}
		c.advance()
	}
	c.newline()

	s.state.openFence(marker, n)
	s.state.InList = false
	s.config.logger.Debug("fence opened", "char", string(marker), "length", s.state.FenceLength)
	return CODE_FENCE_OPEN, true
}

// scanFenceClose recognizes a closing fence line including its terminator.
func scanFenceClose(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if !s.state.InFencedCode || !s.fenceCloseLine(c) {
		return 0, false
	}
	c.newline()
	s.config.logger.Debug("fence closed", "char", string(s.state.FenceChar), "length", s.state.FenceLength)
	s.state.closeFence()
	return CODE_FENCE_CLOSE, true
}

// fenceCloseLine consumes a run of the open fence's character at column 0 that
// is at least as long as the opening run, and trailing spaces up to the end of
// the line.
func (s *Scanner) fenceCloseLine(c *Cursor) bool {
	if c.Column() != 0 || c.Peek() != s.state.FenceChar {
		return false
	}
	if c.run(s.state.FenceChar, 0) < s.state.FenceLength {
		return false
	}
	c.spaces()
	return c.atLineEnd()
}

// scanFenceContent consumes whole lines of fenced code, terminators included,
// stopping before a line that closes the fence. Lines that start with the
// fence character but do not close it are content.
func scanFenceContent(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if !s.state.InFencedCode {
		return 0, false
	}

	start := c.Offset()
	for !c.AtEOF() {
		if c.Column() == 0 {
			probe := *c
			if s.fenceCloseLine(&probe) {
				break
			}
		}
		c.nextLine()
	}
	return CODE_CONTENT, c.Offset() > start
}
