package scanner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func deepIndentStack() []int {
	stack := make([]int, MaxIndentDepth)
	for i := range stack {
		stack[i] = i * 4
	}
	return stack
}

func TestNewState(t *testing.T) {
	expected := State{
		AtDocumentStart: true,
		IndentStack:     []int{0},
		LastSignificant: NoRune,
	}
	if diff := cmp.Diff(expected, NewState()); diff != "" {
		t.Errorf("initial state mismatch (-expected +actual):\n%s", diff)
	}
}

func TestStateRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"fresh", NewState()},
		{
			name: "open backtick fence inside list",
			state: State{
				InFencedCode:    true,
				FenceChar:       '`',
				FenceLength:     4,
				IndentStack:     []int{0, 2},
				LastSignificant: 'x',
				InList:          true,
				ListIndent:      2,
			},
		},
		{
			name: "frontmatter",
			state: State{
				InFrontmatter:   true,
				IndentStack:     []int{0},
				LastSignificant: '-',
			},
		},
		{
			name: "long tilde fence",
			state: State{
				InFencedCode:    true,
				FenceChar:       '~',
				FenceLength:     MaxFenceLength,
				IndentStack:     []int{0},
				LastSignificant: NoRune,
			},
		},
		{
			name: "maximum indent depth",
			state: State{
				IndentStack:     deepIndentStack(),
				LastSignificant: '𝕏',
			},
		},
		{
			name: "multibyte last rune",
			state: State{
				IndentStack:     []int{0, 1, 7},
				LastSignificant: 'é',
				InList:          true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.state.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary: %v", err)
			}
			if len(data) > MaxSerializedSize {
				t.Errorf("serialized %d bytes, limit is %d", len(data), MaxSerializedSize)
			}

			var got State
			if err := got.UnmarshalBinary(data); err != nil {
				t.Fatalf("UnmarshalBinary: %v", err)
			}
			if diff := cmp.Diff(tt.state, got); diff != "" {
				t.Errorf("round trip mismatch (-expected +actual):\n%s", diff)
			}
		})
	}
}

func TestStateMarshalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"empty indent stack", State{LastSignificant: NoRune}},
		{"nonzero base level", State{IndentStack: []int{2}, LastSignificant: NoRune}},
		{"decreasing levels", State{IndentStack: []int{0, 4, 4}, LastSignificant: NoRune}},
		{"too deep", State{IndentStack: append(deepIndentStack(), 200), LastSignificant: NoRune}},
		{"short fence", State{InFencedCode: true, FenceChar: '`', FenceLength: 2, IndentStack: []int{0}, LastSignificant: NoRune}},
		{"bad fence char", State{InFencedCode: true, FenceChar: '*', FenceLength: 3, IndentStack: []int{0}, LastSignificant: NoRune}},
		{"stale fence", State{FenceChar: '`', FenceLength: 3, IndentStack: []int{0}, LastSignificant: NoRune}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.state.MarshalBinary(); !errors.Is(err, ErrStateCorrupt) {
				t.Errorf("expected ErrStateCorrupt, got %v", err)
			}
		})
	}
}

func TestStateUnmarshalErrors(t *testing.T) {
	valid, err := NewState().MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	mutate := func(f func([]byte) []byte) []byte {
		return f(append([]byte(nil), valid...))
	}

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"future version", mutate(func(b []byte) []byte { b[0] = 2; return b }), ErrStateVersion},
		{"truncated header", valid[:5], ErrStateCorrupt},
		{"unknown flag", mutate(func(b []byte) []byte { b[1] |= 0x80; return b }), ErrStateCorrupt},
		{"trailing byte", mutate(func(b []byte) []byte { return append(b, 0) }), ErrStateCorrupt},
		{"depth mismatch", mutate(func(b []byte) []byte { b[10] = 3; return b }), ErrStateCorrupt},
		{"nonzero base level", mutate(func(b []byte) []byte { b[11] = 4; return b }), ErrStateCorrupt},
		{"fence flag without fence", mutate(func(b []byte) []byte { b[1] |= flagInFencedCode; return b }), ErrStateCorrupt},
		{"invalid rune", mutate(func(b []byte) []byte { b[4], b[5], b[6], b[7] = 0, 0, 0x20, 0; return b }), ErrStateCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := State{IndentStack: []int{0, 3}, LastSignificant: 'q', InList: true}
			before := st.Clone()

			err := st.UnmarshalBinary(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if diff := cmp.Diff(before, st); diff != "" {
				t.Errorf("state changed on error (-before +after):\n%s", diff)
			}
		})
	}
}

func TestStateUnmarshalEmptyResets(t *testing.T) {
	st := State{IndentStack: []int{0, 3}, LastSignificant: 'q', InList: true}
	if err := st.UnmarshalBinary(nil); err != nil {
		t.Fatalf("UnmarshalBinary(nil): %v", err)
	}
	if diff := cmp.Diff(NewState(), st); diff != "" {
		t.Errorf("empty buffer should reset (-expected +actual):\n%s", diff)
	}
}

func TestDeserializeMalformedResets(t *testing.T) {
	s := newTestScanner()
	if _, ok := scanAt(s, "```go\ncode\n", 0, NewValidSet(CODE_FENCE_OPEN)); !ok {
		t.Fatal("expected fence open")
	}
	if !s.State().InFencedCode {
		t.Fatal("expected open fence before reset")
	}

	s.Deserialize([]byte{9, 9, 9})
	if diff := cmp.Diff(NewState(), s.State()); diff != "" {
		t.Errorf("malformed input should reset (-expected +actual):\n%s", diff)
	}
}

func TestSerializeDeserializeResumes(t *testing.T) {
	src := "```\ncode\n```\n"
	s := newTestScanner()
	c := NewCursor([]byte(src), 0)
	if _, ok := s.Scan(&c, NewValidSet(CODE_FENCE_OPEN)); !ok {
		t.Fatal("expected fence open")
	}
	checkpoint := s.Serialize()
	offset := c.Offset()

	resumed := newTestScanner()
	resumed.Deserialize(checkpoint)
	if diff := cmp.Diff(s.State(), resumed.State()); diff != "" {
		t.Fatalf("resumed state mismatch (-expected +actual):\n%s", diff)
	}

	got, ok := scanAt(resumed, src, offset, NewValidSet(CODE_CONTENT, CODE_FENCE_CLOSE))
	if !ok {
		t.Fatal("expected code content after resume")
	}
	if diff := cmp.Diff(tok{"CODE_CONTENT", "code\n"}, got); diff != "" {
		t.Errorf("token mismatch (-expected +actual):\n%s", diff)
	}
}

func TestStateCloneIsIndependent(t *testing.T) {
	st := State{IndentStack: []int{0, 4}, LastSignificant: NoRune}
	clone := st.Clone()
	clone.IndentStack[1] = 8
	if st.IndentStack[1] != 4 {
		t.Errorf("clone shares indent stack with original")
	}
}
