package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

func external(kind scanner.TokenKind) Token {
	return Token{Type: EXTERNAL, Kind: kind}
}

func feed(t *testing.T, sm *StateMachine, tokens ...Token) {
	t.Helper()
	for _, tok := range tokens {
		_, err := sm.HandleToken(tok)
		require.NoError(t, err, "handle %s", tok.Name())
	}
}

func TestStateMachineTransitions(t *testing.T) {
	tests := []struct {
		name   string
		tokens []Token
		want   LexerState
	}{
		{"initial", nil, StateBlock},
		{"text starts inline", []Token{external(scanner.TEXT)}, StateInline},
		{"newline returns to block", []Token{external(scanner.TEXT), {Type: NEWLINE}}, StateBlock},
		{"list marker stays block", []Token{external(scanner.UNORDERED_LIST_MARKER)}, StateBlock},
		{"soft break stays inline", []Token{external(scanner.TEXT), external(scanner.SOFT_LINE_BREAK)}, StateInline},
		{"tag open", []Token{external(scanner.TAG_OPEN)}, StateTag},
		{"tag close restores block", []Token{external(scanner.TAG_OPEN), external(scanner.TAG_CLOSE)}, StateBlock},
		{"expression inside text", []Token{external(scanner.TEXT), external(scanner.EXPRESSION_OPEN)}, StateExpression},
		{"expression close restores inline", []Token{external(scanner.TEXT), external(scanner.EXPRESSION_OPEN), external(scanner.EXPRESSION_CLOSE)}, StateInline},
		{"tag spans lines", []Token{external(scanner.TAG_OPEN), {Type: NEWLINE}}, StateTag},
		{"fence open", []Token{external(scanner.CODE_FENCE_OPEN)}, StateBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine(scanner.VariantMarkdoc, false)
			feed(t, sm, tt.tokens...)
			assert.Equal(t, tt.want, sm.Current())
		})
	}
}

func TestStateMachineValid(t *testing.T) {
	sc := scanner.New()

	t.Run("block start", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		valid := sm.Valid(sc)
		for _, k := range []scanner.TokenKind{
			scanner.THEMATIC_BREAK, scanner.CODE_FENCE_OPEN, scanner.FRONTMATTER_DELIM,
			scanner.UNORDERED_LIST_MARKER, scanner.ORDERED_LIST_MARKER, scanner.TEXT,
			scanner.EM_OPEN_STAR, scanner.TAG_OPEN,
		} {
			assert.True(t, valid.Has(k), "block start should accept %s", k)
		}
		for _, k := range []scanner.TokenKind{
			scanner.UNORDERED_LIST_MARKER_NO_INTERRUPT, scanner.SOFT_LINE_BREAK,
			scanner.INDENT, scanner.BLOCK_TITLE, scanner.EM_CLOSE_STAR, scanner.LIST_CONTINUATION,
		} {
			assert.False(t, valid.Has(k), "block start should not accept %s", k)
		}
	})

	t.Run("after paragraph line", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.TEXT), Token{Type: NEWLINE})
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.ORDERED_LIST_MARKER_NO_INTERRUPT))
		assert.False(t, valid.Has(scanner.ORDERED_LIST_MARKER))
	})

	t.Run("blank line ends paragraph", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.TEXT), Token{Type: NEWLINE}, Token{Type: BLANK_LINE})
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.ORDERED_LIST_MARKER))
		assert.False(t, valid.Has(scanner.ORDERED_LIST_MARKER_NO_INTERRUPT))
	})

	t.Run("inline text", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.TEXT))
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.SOFT_LINE_BREAK))
		assert.True(t, valid.Has(scanner.HARD_LINE_BREAK))
		assert.False(t, valid.Has(scanner.PARAGRAPH_CONTINUATION))
		assert.False(t, valid.Has(scanner.THEMATIC_BREAK))
	})

	t.Run("list item text", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.UNORDERED_LIST_MARKER), external(scanner.TEXT))
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.PARAGRAPH_CONTINUATION))
		assert.False(t, valid.Has(scanner.SOFT_LINE_BREAK))
	})

	t.Run("open emphasis accepts its closer", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.STRONG_OPEN_UNDERSCORE))
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.STRONG_CLOSE_UNDERSCORE))
		assert.False(t, valid.Has(scanner.EM_CLOSE_STAR))
	})

	t.Run("tag", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.TAG_OPEN))
		assert.Equal(t, scanner.NewValidSet(scanner.TAG_CLOSE, scanner.TAG_SELF_CLOSE, scanner.TEXT), sm.Valid(sc))
	})

	t.Run("options", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantAsciiDoc, true)
		valid := sm.Valid(sc)
		assert.True(t, valid.Has(scanner.INDENT))
		assert.True(t, valid.Has(scanner.DEDENT))
		assert.True(t, valid.Has(scanner.BLOCK_TITLE))
		assert.True(t, valid.Has(scanner.LIST_CONTINUATION))
	})

	t.Run("context depth limit", func(t *testing.T) {
		sm := NewStateMachine(scanner.VariantMarkdoc, false)
		feed(t, sm, external(scanner.TEXT))
		for i := 0; i < MaxContextDepth; i++ {
			feed(t, sm, external(scanner.EM_OPEN_STAR))
		}
		valid := sm.Valid(sc)
		assert.False(t, valid.Has(scanner.EM_OPEN_STAR))
		assert.False(t, valid.Has(scanner.TAG_OPEN))
		assert.True(t, valid.Has(scanner.EM_CLOSE_STAR))
	})
}

func TestStateMachineValidFollowsScanner(t *testing.T) {
	sm := NewStateMachine(scanner.VariantMarkdoc, false)

	sc := scanner.New()
	c := scanner.NewCursor([]byte("```\n"), 0)
	_, ok := sc.Scan(&c, sm.Valid(sc))
	require.True(t, ok)
	require.True(t, sc.InFencedCode())

	assert.Equal(t, scanner.NewValidSet(scanner.CODE_FENCE_CLOSE, scanner.CODE_CONTENT), sm.Valid(sc))
}

func TestStateMachineEmphasisErrors(t *testing.T) {
	sm := NewStateMachine(scanner.VariantMarkdoc, false)
	_, err := sm.HandleToken(external(scanner.EM_CLOSE_STAR))
	assert.Error(t, err)

	feed(t, sm, external(scanner.EM_OPEN_STAR))
	_, err = sm.HandleToken(external(scanner.STRONG_CLOSE_STAR))
	assert.Error(t, err)

	_, err = NewStateMachine(scanner.VariantMarkdoc, false).HandleToken(external(scanner.TAG_CLOSE))
	assert.ErrorIs(t, err, errContextUnderflow)
}

func TestStateMachineNewlineClearsEmphasis(t *testing.T) {
	sm := NewStateMachine(scanner.VariantMarkdoc, false)
	feed(t, sm, external(scanner.EM_OPEN_STAR), external(scanner.TAG_OPEN))
	feed(t, sm, Token{Type: NEWLINE}, external(scanner.TAG_CLOSE), Token{Type: NEWLINE})

	assert.Nil(t, sm.CurrentContext())
	assert.Equal(t, StateBlock, sm.Current())
}

func TestStateMachineBinaryRoundtrip(t *testing.T) {
	sm := NewStateMachine(scanner.VariantMarkdoc, false)
	feed(t, sm,
		external(scanner.UNORDERED_LIST_MARKER),
		external(scanner.TEXT),
		external(scanner.STRONG_OPEN_STAR),
		external(scanner.EXPRESSION_OPEN),
	)

	data, err := sm.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 3+3*2)

	restored := NewStateMachine(scanner.VariantMarkdoc, false)
	require.NoError(t, restored.UnmarshalBinary(data))

	again, err := restored.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, StateExpression, restored.Current())

	feed(t, restored, external(scanner.EXPRESSION_CLOSE), external(scanner.STRONG_CLOSE_STAR))
	assert.Equal(t, StateInline, restored.Current())
}

func TestStateMachineUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{0, 0}},
		{"unknown state", []byte{9, 0, 0}},
		{"depth mismatch", []byte{0, 0, 1}},
		{"too deep", append([]byte{0, 0, MaxContextDepth + 1}, make([]byte, 3*(MaxContextDepth+1))...)},
		{"unknown context type", []byte{0, 0, 1, 7, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewStateMachine(scanner.VariantMarkdoc, false)
			feed(t, sm, external(scanner.TAG_OPEN))

			err := sm.UnmarshalBinary(tt.data)
			assert.ErrorIs(t, err, errHostContext)
			assert.Equal(t, StateTag, sm.Current(), "state must be unchanged on error")
		})
	}
}
