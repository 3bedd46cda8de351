package scanner

// scanIndent emits a zero-width INDENT or DEDENT when the indentation of the
// line at c differs from the innermost level of the indent stack.
//
// Each call moves the stack by at most one level, so a dedent across several
// levels takes several calls at the same position. A dedent to a column
// between two levels replaces the innermost level with that column. Blank
// lines and the end of input never change indentation.
func scanIndent(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if c.Column() != 0 || s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}

	probe := *c
	level := probe.indent(s.config.tabWidth)
	if probe.atLineEnd() {
		return 0, false
	}

	top := s.state.IndentLevel()
	switch {
	case level > top:
		if !valid.Has(INDENT) || !s.state.pushIndent(level) {
			return 0, false
		}
		s.config.logger.Debug("indent", "level", level, "depth", len(s.state.IndentStack))
		return INDENT, true

	case level < top:
		if !valid.Has(DEDENT) {
			return 0, false
		}
		s.state.popIndent()
		if level > s.state.IndentLevel() {
			s.state.pushIndent(level)
		}
		s.config.logger.Debug("dedent", "level", level, "depth", len(s.state.IndentStack))
		return DEDENT, true
	}
	return 0, false
}
