package scanner

import "unicode"

func isSpaceTab(r rune) bool {
	return r == ' ' || r == '\t'
}

func isNewline(r rune) bool {
	return r == '\n' || r == '\r'
}

// isLineEnd reports whether r ends a line. EOF counts.
func isLineEnd(r rune) bool {
	return r == EOF || isNewline(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// charClass buckets the neighbours of a delimiter run for flanking.
type charClass int

const (
	classSpace charClass = iota // whitespace, line boundaries, start and end of input
	classPunct
	classWord
)

// classify returns the flanking class of r. NoRune and EOF count as space.
func classify(r rune) charClass {
	switch {
	case r == NoRune || r == EOF:
		return classSpace
	case r < 0x80:
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v':
			return classSpace
		case isASCIIPunct(r):
			return classPunct
		}
		return classWord
	case unicode.IsSpace(r) || unicode.In(r, unicode.Zs):
		return classSpace
	case unicode.IsPunct(r) || unicode.IsSymbol(r):
		return classPunct
	}
	return classWord
}

// isASCIIPunct reports the ASCII punctuation characters of CommonMark.
// '_' is punctuation here; word characters for intraword checks are handled by
// the emphasis rules themselves.
func isASCIIPunct(r rune) bool {
	return (r >= '!' && r <= '/') || (r >= ':' && r <= '@') || (r >= '[' && r <= '`') || (r >= '{' && r <= '~')
}
