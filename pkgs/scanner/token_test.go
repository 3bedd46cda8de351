package scanner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKindNumberingIsStable(t *testing.T) {
	// The first thirteen kinds are shared with existing grammars.
	expected := []string{
		"CODE_CONTENT",
		"CODE_FENCE_OPEN",
		"CODE_FENCE_CLOSE",
		"FRONTMATTER_DELIM",
		"LIST_CONTINUATION",
		"UNORDERED_LIST_MARKER",
		"ORDERED_LIST_MARKER",
		"INDENTED_UNORDERED_LIST_MARKER",
		"INDENTED_ORDERED_LIST_MARKER",
		"SOFT_LINE_BREAK",
		"THEMATIC_BREAK",
		"HTML_COMMENT",
		"HTML_BLOCK",
	}
	if diff := cmp.Diff(expected, KindNames()[:len(expected)]); diff != "" {
		t.Errorf("kind order changed (-expected +actual):\n%s", diff)
	}
	if got := len(Kinds()); got != 37 {
		t.Errorf("expected 37 kinds, got %d", got)
	}
	if BLOCK_TITLE != 36 {
		t.Errorf("BLOCK_TITLE moved to %d", BLOCK_TITLE)
	}
}

func TestKindNamesRoundTrip(t *testing.T) {
	seen := make(map[string]bool)
	for _, k := range Kinds() {
		name := k.String()
		if seen[name] {
			t.Errorf("duplicate kind name %q", name)
		}
		seen[name] = true

		got, ok := ParseKind(name)
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", name, got, ok)
		}
	}

	if got, ok := ParseKind("em_open_star"); !ok || got != EM_OPEN_STAR {
		t.Errorf("ParseKind should ignore case, got %v, %v", got, ok)
	}
	if _, ok := ParseKind("NOT_A_KIND"); ok {
		t.Errorf("ParseKind accepted an unknown name")
	}
	if got := TokenKind(99).String(); got != "TokenKind(99)" {
		t.Errorf("unexpected name for out of range kind: %q", got)
	}
}

func TestValidSet(t *testing.T) {
	v := NewValidSet(THEMATIC_BREAK, CODE_CONTENT)

	if !v.Has(THEMATIC_BREAK) || !v.Has(CODE_CONTENT) || v.Has(TEXT) {
		t.Errorf("membership wrong for %s", v)
	}
	if !v.HasAny(TEXT, CODE_CONTENT) || v.HasAny(TEXT, INDENT) {
		t.Errorf("HasAny wrong for %s", v)
	}
	if got := v.String(); got != "{CODE_CONTENT, THEMATIC_BREAK}" {
		t.Errorf("String() = %q", got)
	}
	if got := v.Without(CODE_CONTENT).With(TEXT).Kinds(); !cmp.Equal(got, []TokenKind{THEMATIC_BREAK, TEXT}) {
		t.Errorf("With/Without gave %v", got)
	}
	if got := AllValid().Len(); got != len(Kinds()) {
		t.Errorf("AllValid has %d kinds, expected %d", got, len(Kinds()))
	}
	if got := v.With(TokenKind(-1)).With(numKinds); got != v {
		t.Errorf("out of range kinds should be ignored")
	}
}

func TestZeroWidthKinds(t *testing.T) {
	for _, k := range Kinds() {
		want := k == INDENT || k == DEDENT
		if k.ZeroWidth() != want {
			t.Errorf("%s.ZeroWidth() = %v", k, !want)
		}
	}
}
