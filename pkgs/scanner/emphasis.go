package scanner

var emphasisKinds = NewValidSet(
	EM_OPEN_STAR, EM_CLOSE_STAR, STRONG_OPEN_STAR, STRONG_CLOSE_STAR,
	EM_OPEN_UNDERSCORE, EM_CLOSE_UNDERSCORE, STRONG_OPEN_UNDERSCORE, STRONG_CLOSE_UNDERSCORE,
	RAW_DELIM,
)

// delimiterKinds are the emphasis kinds of one delimiter character.
type delimiterKinds struct {
	emOpen, emClose, strongOpen, strongClose TokenKind
}

var (
	starKinds       = delimiterKinds{EM_OPEN_STAR, EM_CLOSE_STAR, STRONG_OPEN_STAR, STRONG_CLOSE_STAR}
	underscoreKinds = delimiterKinds{EM_OPEN_UNDERSCORE, EM_CLOSE_UNDERSCORE, STRONG_OPEN_UNDERSCORE, STRONG_CLOSE_UNDERSCORE}
)

// delimiterRun describes a run of '*' or '_' and its neighbours.
type delimiterRun struct {
	marker        rune
	length        int
	before, after charClass
}

// leftFlanking: not followed by whitespace, and not followed by punctuation
// unless preceded by whitespace or punctuation.
func (d delimiterRun) leftFlanking() bool {
	return d.after != classSpace && (d.after != classPunct || d.before != classWord)
}

// rightFlanking mirrors leftFlanking.
func (d delimiterRun) rightFlanking() bool {
	return d.before != classSpace && (d.before != classPunct || d.after != classWord)
}

// canOpen applies the intraword rule for '_': an underscore run between two
// word characters neither opens nor closes.
func (d delimiterRun) canOpen() bool {
	if d.marker == '_' {
		return d.leftFlanking() && (!d.rightFlanking() || d.before == classPunct)
	}
	return d.leftFlanking()
}

func (d delimiterRun) canClose() bool {
	if d.marker == '_' {
		return d.rightFlanking() && (!d.leftFlanking() || d.after == classPunct)
	}
	return d.rightFlanking()
}

// scanEmphasis recognizes emphasis and strong delimiters using left and right
// flanking. A run of two or more is tried as strong before emphasis, and
// closing is tried before opening. A run that matches no acceptable kind
// becomes RAW_DELIM when accepted.
func scanEmphasis(s *Scanner, c *Cursor, valid ValidSet) (TokenKind, bool) {
	if s.state.InFencedCode || s.state.InFrontmatter {
		return 0, false
	}
	marker := c.Peek()
	if marker != '*' && marker != '_' {
		return 0, false
	}
	if c.Column() == 0 && (isListMarkerLine(*c) || s.isThematicLine(*c)) {
		return 0, false
	}

	run := s.delimiterRun(*c)
	kinds := starKinds
	if marker == '_' {
		kinds = underscoreKinds
	}

	type candidate struct {
		kind  TokenKind
		width int
	}
	var candidates []candidate
	if run.canClose() {
		candidates = append(candidates, candidate{kinds.strongClose, 2}, candidate{kinds.emClose, 1})
	}
	if run.canOpen() {
		candidates = append(candidates, candidate{kinds.strongOpen, 2}, candidate{kinds.emOpen, 1})
	}

	for _, cand := range candidates {
		if cand.width > run.length || !valid.Has(cand.kind) {
			continue
		}
		if s.config.strictEmphasis && (cand.kind == kinds.emOpen || cand.kind == kinds.strongOpen) {
			probe := *c
			probe.run(marker, cand.width)
			if !hasCloserOnLine(probe, marker, cand.width) {
				continue
			}
		}
		c.run(marker, cand.width)
		return cand.kind, true
	}

	if valid.Has(RAW_DELIM) {
		c.run(marker, 0)
		return RAW_DELIM, true
	}
	return 0, false
}

// delimiterRun measures the run at c. The character before a run at column 0
// counts as whitespace.
func (s *Scanner) delimiterRun(c Cursor) delimiterRun {
	before := classSpace
	if c.Column() != 0 {
		before = classify(s.state.LastSignificant)
	}
	marker := c.Peek()
	n := c.run(marker, 0)
	return delimiterRun{
		marker: marker,
		length: n,
		before: before,
		after:  classify(c.Peek()),
	}
}

// hasCloserOnLine reports whether a run of at least width markers that can
// close follows later on the same line: preceded by a non-space character and
// followed by whitespace, punctuation or the end of the line.
func hasCloserOnLine(c Cursor, marker rune, width int) bool {
	prev := NoRune
	for !c.atLineEnd() {
		r := c.Peek()
		if r != marker {
			prev = r
			c.advance()
			continue
		}
		n := c.run(marker, 0)
		if n >= width && prev != NoRune && classify(prev) != classSpace && classify(c.Peek()) != classWord {
			return true
		}
		prev = marker
	}
	return false
}
