package scanner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var fenceKinds = NewValidSet(CODE_FENCE_OPEN, CODE_FENCE_CLOSE, CODE_CONTENT, TEXT)

func TestCodeFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []tok
	}{
		{
			name:  "shorter run inside is content",
			input: "````go\n```\nx\n````\nafter",
			expected: []tok{
				{"CODE_FENCE_OPEN", "````go\n"},
				{"CODE_CONTENT", "```\nx\n"},
				{"CODE_FENCE_CLOSE", "````\n"},
				{"TEXT", "after"},
			},
		},
		{
			name:  "longer run closes",
			input: "```\ncode\n`````\n",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_CONTENT", "code\n"},
				{"CODE_FENCE_CLOSE", "`````\n"},
			},
		},
		{
			name:  "other fence character is content",
			input: "```\n~~~\n```",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_CONTENT", "~~~\n"},
				{"CODE_FENCE_CLOSE", "```"},
			},
		},
		{
			name:  "empty block has no content",
			input: "```\n```\n",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_FENCE_CLOSE", "```\n"},
			},
		},
		{
			name:  "trailing text after run is content",
			input: "```\n``` x\n```",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_CONTENT", "``` x\n"},
				{"CODE_FENCE_CLOSE", "```"},
			},
		},
		{
			name:  "indented run is content",
			input: "~~~\n ~~~\n~~~",
			expected: []tok{
				{"CODE_FENCE_OPEN", "~~~\n"},
				{"CODE_CONTENT", " ~~~\n"},
				{"CODE_FENCE_CLOSE", "~~~"},
			},
		},
		{
			name:  "tilde info string may contain backticks",
			input: "~~~ a`b\n~~~\n",
			expected: []tok{
				{"CODE_FENCE_OPEN", "~~~ a`b\n"},
				{"CODE_FENCE_CLOSE", "~~~\n"},
			},
		},
		{
			name:  "closing run allows trailing spaces",
			input: "```\nx\n```  \r\ny",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_CONTENT", "x\n"},
				{"CODE_FENCE_CLOSE", "```  \r\n"},
				{"TEXT", "y"},
			},
		},
		{
			name:  "unclosed fence runs to end of input",
			input: "```\nabc\n# not a heading\n",
			expected: []tok{
				{"CODE_FENCE_OPEN", "```\n"},
				{"CODE_CONTENT", "abc\n# not a heading\n"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanStream(t, newTestScanner(), tt.input, fixed(fenceKinds))
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("token mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestFenceOpenRejects(t *testing.T) {
	for _, input := range []string{"``", "``` a`b", " ```", "~~"} {
		if got, ok := scanOnce(input, 0, NewValidSet(CODE_FENCE_OPEN)); ok {
			t.Errorf("%q: unexpected %v", input, got)
		}
	}
}

func TestFenceStateTracksOpenRun(t *testing.T) {
	s := newTestScanner()
	src := "~~~~~\n"
	if _, ok := scanAt(s, src, 0, NewValidSet(CODE_FENCE_OPEN)); !ok {
		t.Fatal("expected fence open")
	}
	st := s.State()
	if !st.InFencedCode || st.FenceChar != '~' || st.FenceLength != 5 {
		t.Errorf("unexpected fence state %+v", st)
	}

	if _, ok := scanAt(s, "~~~~\n", 0, NewValidSet(CODE_FENCE_CLOSE)); ok {
		t.Error("a shorter run must not close the fence")
	}
	if _, ok := scanAt(s, "~~~~~~", 0, NewValidSet(CODE_FENCE_CLOSE)); !ok {
		t.Error("a longer run should close the fence")
	}
	if st := s.State(); st.InFencedCode || st.FenceChar != 0 || st.FenceLength != 0 {
		t.Errorf("fence state not cleared: %+v", st)
	}
}

func TestFenceSuppressesBlockTokens(t *testing.T) {
	s := scannerWithState(t, State{
		InFencedCode:    true,
		FenceChar:       '`',
		FenceLength:     3,
		IndentStack:     []int{0},
		LastSignificant: NoRune,
	})
	valid := AllValid().Without(CODE_CONTENT).Without(CODE_FENCE_CLOSE).Without(TEXT)
	for _, input := range []string{"---", "* item", "    x", "> q", "<div>", "{% tag %}", "*em*"} {
		if got, ok := scanAt(s, input, 0, valid); ok {
			t.Errorf("%q: unexpected %v inside a fence", input, got)
		}
	}
}
