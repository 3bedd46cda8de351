package scanner

var listMarkerKinds = NewValidSet(
	UNORDERED_LIST_MARKER,
	ORDERED_LIST_MARKER,
	INDENTED_UNORDERED_LIST_MARKER,
	INDENTED_ORDERED_LIST_MARKER,
	UNORDERED_LIST_MARKER_NO_INTERRUPT,
	ORDERED_LIST_MARKER_NO_INTERRUPT,
)

// scanListMarker recognizes a bullet ('*', '-', '+') or ordered ("1." or "1)")
// list marker. The token covers the indentation, the marker and the spaces
// after it.
//
// Thematic breaks take priority through the dispatch order, so a line such as
// "* * *" only reaches this recognizer when the caller does not accept one.
func scanListMarker(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}

	indent := c.indent(s.config.tabWidth)
	markerCol := c.Column()

	var (
		ordered  bool
		number   int
		indented bool
	)
	switch marker := c.Peek(); {
	case marker == '*' || marker == '-' || marker == '+':
		// '+' starts a continuation in AsciiDoc, never a bullet.
		if marker == '+' && s.config.variant == VariantAsciiDoc {
			return 0, false
		}
		n := c.run(marker, 0)
		// "--" is never a bullet, leaving dash runs to thematic breaks and
		// frontmatter.
		if marker != '*' && n > 1 {
			return 0, false
		}
		indented = indent > 0 || n > 1

	case isDigit(marker):
		digits := 0
		for isDigit(c.Peek()) {
			if digits == maxOrderedDigits {
				return 0, false
			}
			number = number*10 + int(c.Peek()-'0')
			c.advance()
			digits++
		}
		if !c.advanceIf('.') && !c.advanceIf(')') {
			return 0, false
		}
		ordered = true
		indented = indent > 0

	default:
		return 0, false
	}

	if !isSpaceTab(c.Peek()) {
		return 0, false
	}
	c.spaces()

	plain, nested, noInterrupt := UNORDERED_LIST_MARKER, INDENTED_UNORDERED_LIST_MARKER, UNORDERED_LIST_MARKER_NO_INTERRUPT
	if ordered {
		plain, nested, noInterrupt = ORDERED_LIST_MARKER, INDENTED_ORDERED_LIST_MARKER, ORDERED_LIST_MARKER_NO_INTERRUPT
	}

	kind := plain
	if indented {
		kind = nested
	}
	switch {
	case valid.Has(kind):
	case valid.Has(noInterrupt) && !valid.HasAny(plain, nested):
		// Inside a paragraph only a non-empty item, numbered 1 if ordered,
		// starts a list.
		if c.atLineEnd() || (ordered && number != 1) {
			return 0, false
		}
		kind = noInterrupt
	default:
		return 0, false
	}

	s.state.InList = true
	s.state.ListIndent = markerCol
	return kind, true
}

// scanListContinuation recognizes a line that continues the content of the
// open list item: a line break, if present, and the indentation of a non-blank
// line indented to at least the item's marker column (and at least one
// column). Lines that start a new list item or a thematic break do not
// continue the item.
//
// In AsciiDoc a '+' alone on a line is an explicit continuation.
func scanListContinuation(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}

	if s.config.variant == VariantAsciiDoc && c.Column() == 0 && c.Peek() == '+' {
		c.advance()
		c.spaces()
		if !c.atLineEnd() {
			return 0, false
		}
		c.newline()
		return LIST_CONTINUATION, true
	}

	if !s.state.InList {
		return 0, false
	}

	switch {
	case isNewline(c.Peek()):
		c.newline()
	case c.Column() == 0 && isSpaceTab(c.Peek()):
	default:
		return 0, false
	}

	line := *c
	n := c.indent(s.config.tabWidth)
	if n < max(1, s.state.ListIndent) || c.atLineEnd() {
		return 0, false
	}
	if isListMarkerLine(line) || s.isThematicLine(line) {
		return 0, false
	}
	return LIST_CONTINUATION, true
}
