package scanner

import (
	"fmt"
	"math/bits"
	"strings"
)

// TokenKind identifies an external token produced by the scanner.
//
// The numeric values are a wire contract with the grammar's externals list:
// new kinds are appended, existing kinds never move.
type TokenKind int

const (
	CODE_CONTENT TokenKind = iota
	CODE_FENCE_OPEN
	CODE_FENCE_CLOSE
	FRONTMATTER_DELIM
	LIST_CONTINUATION
	UNORDERED_LIST_MARKER
	ORDERED_LIST_MARKER
	INDENTED_UNORDERED_LIST_MARKER
	INDENTED_ORDERED_LIST_MARKER
	SOFT_LINE_BREAK
	THEMATIC_BREAK
	HTML_COMMENT
	HTML_BLOCK

	// List markers that may not interrupt an open paragraph
	UNORDERED_LIST_MARKER_NO_INTERRUPT
	ORDERED_LIST_MARKER_NO_INTERRUPT

	HARD_LINE_BREAK
	PARAGRAPH_CONTINUATION
	BLOCK_QUOTE_MARKER

	// Emphasis delimiters
	EM_OPEN_STAR
	EM_CLOSE_STAR
	STRONG_OPEN_STAR
	STRONG_CLOSE_STAR
	EM_OPEN_UNDERSCORE
	EM_CLOSE_UNDERSCORE
	STRONG_OPEN_UNDERSCORE
	STRONG_CLOSE_UNDERSCORE
	RAW_DELIM // * or _ run that neither opens nor closes
	TEXT      // plain inline text up to the next special character

	// Indentation changes (zero width)
	INDENT
	DEDENT

	// Markdoc tags
	COMMENT_BLOCK    // {% comment %}...{% /comment %}
	EXPRESSION_OPEN  // {{
	EXPRESSION_CLOSE // }}
	TAG_OPEN         // {%
	TAG_CLOSE        // %}
	TAG_SELF_CLOSE   // /%}

	// AsciiDoc variant
	BLOCK_TITLE // .Title

	numKinds
)

var kindNames = [numKinds]string{
	CODE_CONTENT:                       "CODE_CONTENT",
	CODE_FENCE_OPEN:                    "CODE_FENCE_OPEN",
	CODE_FENCE_CLOSE:                   "CODE_FENCE_CLOSE",
	FRONTMATTER_DELIM:                  "FRONTMATTER_DELIM",
	LIST_CONTINUATION:                  "LIST_CONTINUATION",
	UNORDERED_LIST_MARKER:              "UNORDERED_LIST_MARKER",
	ORDERED_LIST_MARKER:                "ORDERED_LIST_MARKER",
	INDENTED_UNORDERED_LIST_MARKER:     "INDENTED_UNORDERED_LIST_MARKER",
	INDENTED_ORDERED_LIST_MARKER:       "INDENTED_ORDERED_LIST_MARKER",
	SOFT_LINE_BREAK:                    "SOFT_LINE_BREAK",
	THEMATIC_BREAK:                     "THEMATIC_BREAK",
	HTML_COMMENT:                       "HTML_COMMENT",
	HTML_BLOCK:                         "HTML_BLOCK",
	UNORDERED_LIST_MARKER_NO_INTERRUPT: "UNORDERED_LIST_MARKER_NO_INTERRUPT",
	ORDERED_LIST_MARKER_NO_INTERRUPT:   "ORDERED_LIST_MARKER_NO_INTERRUPT",
	HARD_LINE_BREAK:                    "HARD_LINE_BREAK",
	PARAGRAPH_CONTINUATION:             "PARAGRAPH_CONTINUATION",
	BLOCK_QUOTE_MARKER:                 "BLOCK_QUOTE_MARKER",
	EM_OPEN_STAR:                       "EM_OPEN_STAR",
	EM_CLOSE_STAR:                      "EM_CLOSE_STAR",
	STRONG_OPEN_STAR:                   "STRONG_OPEN_STAR",
	STRONG_CLOSE_STAR:                  "STRONG_CLOSE_STAR",
	EM_OPEN_UNDERSCORE:                 "EM_OPEN_UNDERSCORE",
	EM_CLOSE_UNDERSCORE:                "EM_CLOSE_UNDERSCORE",
	STRONG_OPEN_UNDERSCORE:             "STRONG_OPEN_UNDERSCORE",
	STRONG_CLOSE_UNDERSCORE:            "STRONG_CLOSE_UNDERSCORE",
	RAW_DELIM:                          "RAW_DELIM",
	TEXT:                               "TEXT",
	INDENT:                             "INDENT",
	DEDENT:                             "DEDENT",
	COMMENT_BLOCK:                      "COMMENT_BLOCK",
	EXPRESSION_OPEN:                    "EXPRESSION_OPEN",
	EXPRESSION_CLOSE:                   "EXPRESSION_CLOSE",
	TAG_OPEN:                           "TAG_OPEN",
	TAG_CLOSE:                          "TAG_CLOSE",
	TAG_SELF_CLOSE:                     "TAG_SELF_CLOSE",
	BLOCK_TITLE:                        "BLOCK_TITLE",
}

// String returns the grammar-facing name of the kind.
func (k TokenKind) String() string {
	if k >= 0 && k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Kinds returns every token kind in wire order.
func Kinds() []TokenKind {
	kinds := make([]TokenKind, numKinds)
	for i := range kinds {
		kinds[i] = TokenKind(i)
	}
	return kinds
}

// KindNames returns the names of every token kind in wire order.
func KindNames() []string {
	return append([]string(nil), kindNames[:]...)
}

// ParseKind looks up a kind by name. Matching ignores case.
func ParseKind(name string) (TokenKind, bool) {
	for i, n := range kindNames {
		if strings.EqualFold(n, name) {
			return TokenKind(i), true
		}
	}
	return 0, false
}

// ValidSet is the set of token kinds the caller would currently accept.
type ValidSet uint64

// NewValidSet returns a set containing kinds.
func NewValidSet(kinds ...TokenKind) ValidSet {
	var v ValidSet
	for _, k := range kinds {
		v = v.With(k)
	}
	return v
}

// AllValid returns the set of every kind.
func AllValid() ValidSet {
	return ValidSet(1)<<numKinds - 1
}

// Has reports whether k is acceptable.
func (v ValidSet) Has(k TokenKind) bool {
	return k >= 0 && k < numKinds && v&(1<<uint(k)) != 0
}

// HasAny reports whether any of kinds is acceptable.
func (v ValidSet) HasAny(kinds ...TokenKind) bool {
	for _, k := range kinds {
		if v.Has(k) {
			return true
		}
	}
	return false
}

// With returns v plus k.
func (v ValidSet) With(k TokenKind) ValidSet {
	if k < 0 || k >= numKinds {
		return v
	}
	return v | 1<<uint(k)
}

// Without returns v minus k.
func (v ValidSet) Without(k TokenKind) ValidSet {
	if k < 0 || k >= numKinds {
		return v
	}
	return v &^ (1 << uint(k))
}

// Len returns the number of kinds in the set.
func (v ValidSet) Len() int {
	return bits.OnesCount64(uint64(v))
}

// Kinds lists the members of v in wire order.
func (v ValidSet) Kinds() []TokenKind {
	var kinds []TokenKind
	for k := TokenKind(0); k < numKinds; k++ {
		if v.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (v ValidSet) String() string {
	names := make([]string, 0, v.Len())
	for _, k := range v.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// Result is a recognized token: its kind and the byte span it covers.
// INDENT and DEDENT are zero width (Start == End).
type Result struct {
	Kind  TokenKind
	Start int
	End   int
}

// Len returns the byte length of the token.
func (r Result) Len() int {
	return r.End - r.Start
}
