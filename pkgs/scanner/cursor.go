package scanner

import (
	"bytes"
	"unicode/utf8"

	"github.com/aledsdavies/markdoc/pkgs/invariant"
)

// EOF is returned by Peek at the end of the input.
const EOF rune = -1

// Cursor is the scanner's view of the input: a lookahead rune, a moving
// position, and an optional marked token end.
//
// Cursor is a small value type. Copying it takes a snapshot and assigning the
// copy back restores it, which is how every recognizer backtracks.
type Cursor struct {
	src    []byte
	start  int  // token start (moves on skipped advances)
	pos    int  // read position
	end    int  // marked token end
	marked bool // MarkEnd was called
	col    int  // rune column of pos on its line, 0-based
	endCol int  // column at end

	// reach is shared by every copy of the cursor, so lookahead done on a
	// snapshot or by a failed recognizer is still counted.
	reach *int
}

// NewCursor returns a cursor positioned at offset in src. The column is derived
// from the input itself, so a cursor built from a restored checkpoint offset is
// identical to one that reached the offset by scanning.
func NewCursor(src []byte, offset int) Cursor {
	invariant.Precondition(offset >= 0 && offset <= len(src), "offset %d outside input of length %d", offset, len(src))

	lineStart := bytes.LastIndexAny(src[:offset], "\r\n") + 1
	c := Cursor{
		src:   src,
		start: offset,
		pos:   offset,
		end:   offset,
		col:   utf8.RuneCount(src[lineStart:offset]),
		reach: new(int),
	}
	c.endCol = c.col
	*c.reach = offset - 1
	return c
}

// Peek returns the rune under the cursor, or EOF.
func (c *Cursor) Peek() rune {
	if c.pos >= len(c.src) {
		c.examine(len(c.src))
		return EOF
	}
	r, size := utf8.DecodeRune(c.src[c.pos:])
	c.examine(c.pos + size - 1)
	return r
}

// Advance consumes one rune. A skipped rune is excluded from the token by
// moving the token start past it.
func (c *Cursor) Advance(skip bool) {
	if c.pos >= len(c.src) {
		return
	}
	r, size := utf8.DecodeRune(c.src[c.pos:])
	c.examine(c.pos + size - 1)
	c.pos += size
	if isNewline(r) {
		c.col = 0
	} else {
		c.col++
	}
	if skip {
		c.start = c.pos
		c.end = c.pos
		c.endCol = c.col
		c.marked = false
	}
}

// MarkEnd fixes the current position as the end of the token. Input read
// after MarkEnd is lookahead only.
func (c *Cursor) MarkEnd() {
	c.end = c.pos
	c.endCol = c.col
	c.marked = true
}

// Column returns the 0-based rune column of the cursor.
func (c *Cursor) Column() int {
	return c.col
}

// AtEOF reports whether the cursor is at the end of the input. Observing the
// end counts as examining it, like Peek returning EOF.
func (c *Cursor) AtEOF() bool {
	if c.pos >= len(c.src) {
		c.examine(len(c.src))
		return true
	}
	return false
}

// Offset returns the byte offset of the cursor.
func (c *Cursor) Offset() int {
	return c.pos
}

// Reach returns the furthest byte offset examined through this cursor or any
// copy of it, or the starting offset minus one if nothing was examined. An
// offset equal to the input length means the end of input was observed.
//
// Tokens recognized through the cursor depend on no input past Reach, which
// is what lets an incremental host keep them across an edit further down.
func (c *Cursor) Reach() int {
	if c.reach == nil {
		return c.pos - 1
	}
	return *c.reach
}

func (c *Cursor) examine(offset int) {
	if c.reach != nil && offset > *c.reach {
		*c.reach = min(offset, len(c.src))
	}
}

// Source returns the underlying input.
func (c *Cursor) Source() []byte {
	return c.src
}

// Result builds the token for kind from the token start and the marked end,
// or the current position when no end was marked.
func (c *Cursor) Result(kind TokenKind) Result {
	end := c.pos
	if c.marked {
		end = c.end
	}
	return Result{Kind: kind, Start: c.start, End: end}
}

// settle moves the cursor back to the marked end, dropping lookahead, and
// starts the next token there.
func (c *Cursor) settle() {
	if c.marked {
		c.pos = c.end
		c.col = c.endCol
	}
	c.start = c.pos
	c.end = c.pos
	c.endCol = c.col
	c.marked = false
}

// attempt runs fn speculatively: the cursor keeps fn's progress when fn
// reports success and is restored exactly otherwise.
func (c *Cursor) attempt(fn func(c *Cursor) bool) bool {
	saved := *c
	if fn(c) {
		return true
	}
	*c = saved
	return false
}

func (c *Cursor) advance() {
	c.Advance(false)
}

// advanceIf consumes r if it is next.
func (c *Cursor) advanceIf(r rune) bool {
	if c.Peek() != r {
		return false
	}
	c.advance()
	return true
}

// literal consumes s if the input continues with it. On a mismatch the cursor
// is left where the mismatch happened; wrap in attempt to backtrack.
func (c *Cursor) literal(s string) bool {
	for _, r := range s {
		if !c.advanceIf(r) {
			return false
		}
	}
	return true
}

// hasPrefix reports whether the input at the cursor starts with s.
func (c *Cursor) hasPrefix(s string) bool {
	c.examine(c.pos + len(s) - 1)
	return bytes.HasPrefix(c.src[c.pos:], []byte(s))
}

// run consumes up to limit repetitions of r and returns how many it consumed.
// A limit of 0 means unbounded.
func (c *Cursor) run(r rune, limit int) int {
	n := 0
	for c.Peek() == r && (limit == 0 || n < limit) {
		c.advance()
		n++
	}
	return n
}

// spaces consumes spaces and tabs and returns how many runes it consumed.
func (c *Cursor) spaces() int {
	n := 0
	for isSpaceTab(c.Peek()) {
		c.advance()
		n++
	}
	return n
}

// indent consumes leading spaces and tabs and returns the column reached
// relative to the starting column, with tabs advancing to the next tab stop.
func (c *Cursor) indent(tabWidth int) int {
	startCol := c.col
	col := c.col
	for {
		switch c.Peek() {
		case ' ':
			col++
		case '\t':
			col += tabWidth - col%tabWidth
		default:
			return col - startCol
		}
		c.advance()
	}
}

// atLineEnd reports whether the cursor is on a line terminator or at EOF.
func (c *Cursor) atLineEnd() bool {
	return isLineEnd(c.Peek())
}

// newline consumes one logical line break: CR, LF or CRLF.
func (c *Cursor) newline() bool {
	switch c.Peek() {
	case '\r':
		c.advance()
		c.advanceIf('\n')
		return true
	case '\n':
		c.advance()
		return true
	}
	return false
}

// toLineEnd consumes everything up to, not including, the line terminator.
func (c *Cursor) toLineEnd() {
	for !c.atLineEnd() {
		c.advance()
	}
}

// nextLine consumes the rest of the line including its terminator.
func (c *Cursor) nextLine() {
	c.toLineEnd()
	c.newline()
}

// restIsBlank reports whether only spaces and tabs remain on the line.
func (c Cursor) restIsBlank() bool {
	c.spaces()
	return c.atLineEnd()
}
