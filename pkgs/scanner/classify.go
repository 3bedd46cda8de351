package scanner

// Line classifiers look ahead from the start of a line and report whether it
// opens a block. They take the cursor by value and never consume input.

// maxOrderedDigits bounds the number of an ordered list marker.
const maxOrderedDigits = 9

// startsBlock reports whether the line at c begins a block that ends an open
// paragraph.
func (s *Scanner) startsBlock(c Cursor) bool {
	return s.isHeadingLine(c) ||
		isBlockQuoteLine(c) ||
		isFenceLine(c) ||
		s.isThematicLine(c) ||
		isListMarkerLine(c) ||
		isTagLine(c) ||
		s.isBlockTitleLine(c)
}

// isHeadingLine matches 1 to 6 heading markers at column 0 followed by a space
// or tab. AsciiDoc headings use '='.
func (s *Scanner) isHeadingLine(c Cursor) bool {
	if c.Column() != 0 {
		return false
	}
	marker := '#'
	if s.config.variant == VariantAsciiDoc {
		marker = '='
	}
	n := c.run(marker, 7)
	return n >= 1 && n <= 6 && isSpaceTab(c.Peek())
}

func isBlockQuoteLine(c Cursor) bool {
	return c.Column() == 0 && c.Peek() == '>'
}

// isFenceLine matches at least three backticks or tildes at column 0.
func isFenceLine(c Cursor) bool {
	if c.Column() != 0 {
		return false
	}
	marker := c.Peek()
	if marker != '`' && marker != '~' {
		return false
	}
	return c.run(marker, 3) == 3
}

// isThematicLine matches a whole thematic break line: up to 3 columns of
// indentation, then at least three of one marker interleaved with spaces and
// tabs, then the end of the line.
func (s *Scanner) isThematicLine(c Cursor) bool {
	if c.Column() != 0 {
		return false
	}
	_, ok := s.thematicRun(&c)
	return ok
}

// thematicRun consumes a thematic break body, without its terminator, and
// returns the marker.
func (s *Scanner) thematicRun(c *Cursor) (rune, bool) {
	if c.indent(s.config.tabWidth) >= 4 {
		return 0, false
	}
	marker := c.Peek()
	if !s.isThematicMarker(marker) {
		return 0, false
	}
	count := 0
	for {
		switch r := c.Peek(); {
		case r == marker:
			count++
		case isSpaceTab(r):
		default:
			return marker, count >= 3 && c.atLineEnd()
		}
		c.advance()
	}
}

func (s *Scanner) isThematicMarker(r rune) bool {
	switch r {
	case '*', '-', '_':
		return true
	case '\'':
		return s.config.variant == VariantAsciiDoc
	}
	return false
}

// isListMarkerLine matches optional indentation, then a bullet or an ordered
// number of 1 to 9 digits, then a space or tab.
func isListMarkerLine(c Cursor) bool {
	c.spaces()
	switch r := c.Peek(); {
	case r == '*' || r == '+' || r == '-':
		c.advance()
		return isSpaceTab(c.Peek())
	case isDigit(r):
		digits := 0
		for isDigit(c.Peek()) {
			if digits == maxOrderedDigits {
				return false
			}
			c.advance()
			digits++
		}
		if !c.advanceIf('.') && !c.advanceIf(')') {
			return false
		}
		return isSpaceTab(c.Peek())
	}
	return false
}

// isTagLine matches a tag standing alone on its line: "{%" at column 0, a
// matching "%}" on the same line, then only trailing whitespace.
func isTagLine(c Cursor) bool {
	if c.Column() != 0 || !c.literal("{%") {
		return false
	}
	for !c.atLineEnd() {
		if c.hasPrefix("%}") {
			c.literal("%}")
			return c.restIsBlank()
		}
		c.advance()
	}
	return false
}

// isBlockTitleLine matches an AsciiDoc block title: '.' at column 0 followed
// by a non-space character other than another '.'.
func (s *Scanner) isBlockTitleLine(c Cursor) bool {
	if s.config.variant != VariantAsciiDoc || c.Column() != 0 || !c.advanceIf('.') {
		return false
	}
	r := c.Peek()
	return !isLineEnd(r) && !isSpaceTab(r) && r != '.'
}
