package scanner

import (
	"io"
	"testing"
)

// tok is a token as the tests see it. Kind is a scanner kind name or NEWLINE
// for a line break skipped by the test driver.
type tok struct {
	Kind string
	Text string
}

func newTestScanner(opts ...Option) *Scanner {
	return New(append([]Option{WithLogger(NewLogger(io.Discard, true))}, opts...)...)
}

// skipNewline consumes one line break the way a host skips input it owns.
func skipNewline(c *Cursor) bool {
	switch c.Peek() {
	case '\r':
		c.Advance(true)
		if c.Peek() == '\n' {
			c.Advance(true)
		}
		return true
	case '\n':
		c.Advance(true)
		return true
	}
	return false
}

// scanStream drives s over src, asking for the kinds returned by valid before
// every call. When nothing matches at a line break the driver skips it and
// records a NEWLINE.
func scanStream(t *testing.T, s *Scanner, src string, valid func(s *Scanner, c *Cursor) ValidSet) []tok {
	t.Helper()

	c := NewCursor([]byte(src), 0)
	var toks []tok
	for steps := 0; !c.AtEOF(); steps++ {
		if steps > 10*len(src)+10 {
			t.Fatalf("no progress at offset %d in %q", c.Offset(), src)
		}
		if res, ok := s.Scan(&c, valid(s, &c)); ok {
			toks = append(toks, tok{res.Kind.String(), src[res.Start:res.End]})
			continue
		}
		start := c.Offset()
		if s.state.InFrontmatter && !isNewline(c.Peek()) {
			for !c.atLineEnd() {
				c.Advance(true)
			}
			toks = append(toks, tok{"FRONTMATTER_LINE", src[start:c.Offset()]})
			continue
		}
		if !skipNewline(&c) {
			t.Fatalf("nothing matched at offset %d in %q", start, src)
		}
		toks = append(toks, tok{"NEWLINE", src[start:c.Offset()]})
	}
	return toks
}

// fixed returns a valid-set function that always accepts v.
func fixed(v ValidSet) func(*Scanner, *Cursor) ValidSet {
	return func(*Scanner, *Cursor) ValidSet { return v }
}

// scannerWithState returns a scanner restored to st.
func scannerWithState(t *testing.T, st State, opts ...Option) *Scanner {
	t.Helper()
	data, err := st.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal state: %v", err)
	}
	s := newTestScanner(opts...)
	s.Deserialize(data)
	return s
}

// scanAt runs a single Scan at offset with s.
func scanAt(s *Scanner, src string, offset int, valid ValidSet) (tok, bool) {
	c := NewCursor([]byte(src), offset)
	res, ok := s.Scan(&c, valid)
	if !ok {
		return tok{}, false
	}
	return tok{res.Kind.String(), src[res.Start:res.End]}, true
}

// scanOnce runs a single Scan at offset with a fresh scanner.
func scanOnce(src string, offset int, valid ValidSet, opts ...Option) (tok, bool) {
	return scanAt(newTestScanner(opts...), src, offset, valid)
}

// cursorSnapshot captures the position fields of a cursor for equality checks.
// Reach only grows and is left out.
type cursorSnapshot struct {
	Start, Pos, End, Col, EndCol int
	Marked                       bool
}

func snapshot(c Cursor) cursorSnapshot {
	return cursorSnapshot{c.start, c.pos, c.end, c.col, c.endCol, c.marked}
}
