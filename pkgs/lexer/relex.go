package lexer

import (
	"errors"
	"fmt"

	"github.com/aledsdavies/markdoc/pkgs/checkpoint"
)

// ErrEdit is returned by Relex for an edit that does not fit the inputs.
var ErrEdit = errors.New("invalid edit")

// Edit describes a change to the input: bytes [Start, OldEnd) of the old
// input were replaced by bytes [Start, NewEnd) of the new input.
type Edit struct {
	Start  int
	OldEnd int
	NewEnd int
}

// Diff returns the smallest single edit turning before into after.
func Diff(before, after []byte) Edit {
	prefix := 0
	for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(before)-prefix && suffix < len(after)-prefix &&
		before[len(before)-1-suffix] == after[len(after)-1-suffix] {
		suffix++
	}
	return Edit{Start: prefix, OldEnd: len(before) - suffix, NewEnd: len(after) - suffix}
}

func (e Edit) validate(oldLen, newLen int) error {
	switch {
	case e.Start < 0 || e.Start > e.OldEnd || e.Start > e.NewEnd:
		return fmt.Errorf("%w: start %d after end", ErrEdit, e.Start)
	case e.OldEnd > oldLen:
		return fmt.Errorf("%w: old end %d past old input of %d bytes", ErrEdit, e.OldEnd, oldLen)
	case e.NewEnd > newLen:
		return fmt.Errorf("%w: new end %d past new input of %d bytes", ErrEdit, e.NewEnd, newLen)
	case oldLen-e.OldEnd != newLen-e.NewEnd:
		return fmt.Errorf("%w: unchanged tails differ (%d vs %d bytes)", ErrEdit, oldLen-e.OldEnd, newLen-e.NewEnd)
	}
	return nil
}

// RelexStats reports how much of the previous token stream Relex reused.
type RelexStats struct {
	Resumed int // offset lexing resumed from
	Prefix  int // tokens kept before the resume point
	Relexed int // tokens lexed again
	Suffix  int // tokens reused after lexing converged, 0 if it ran to the end
}

// Relex lexes input, an edited version of the current input, and returns the
// complete new token stream.
//
// Tokens that examined no byte at or after the edit are kept. Lexing resumes
// at the last checkpoint before the first token that did, and stops as soon
// as it reaches a line start past the edit whose scanner and host state equal
// the old checkpoint at the matching offset: from there the old tokens are
// reused, shifted by the size change.
func (l *Lexer) Relex(input []byte, edit Edit) ([]Token, RelexStats, error) {
	if err := edit.validate(len(l.input), len(input)); err != nil {
		return nil, RelexStats{}, err
	}

	old := l.GetTokens()
	oldJournal := l.journal
	finalScanner := l.scanner.Serialize()
	finalHost, err := l.sm.MarshalBinary()
	if err != nil {
		return nil, RelexStats{}, fmt.Errorf("encode host context: %w", err)
	}

	dirty := 0
	for dirty < len(old)-1 && old[dirty].reach < edit.Start {
		dirty++
	}
	entry, ok := oldJournal.Before(old[dirty].Position.Offset + 1)
	if !ok || l.restore(entry) != nil {
		l.Init(input)
		tokens := l.GetTokens()
		return tokens, RelexStats{Relexed: len(tokens)}, nil
	}

	keep := 0
	for keep < len(old) && old[keep].Position.Offset < entry.Offset {
		keep++
	}
	resumeAt := old[keep].Position

	l.input = input
	l.position = resumeAt.Offset
	l.line = resumeAt.Line
	l.column = resumeAt.Column
	l.done = false
	l.tokens = append(make([]Token, 0, len(old)), old[:keep]...)

	l.journal = checkpoint.NewJournal(input)
	l.journal.Append(oldJournal, 0)
	l.journal.Truncate(entry.Offset)
	l.lastCheckpoint = -1
	if last, ok := l.journal.Last(); ok {
		l.lastCheckpoint = last.Offset
	}

	stats := RelexStats{Resumed: entry.Offset, Prefix: keep}
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("resume", fmt.Sprintf("edit %d..%d -> %d..%d", edit.Start, edit.OldEnd, edit.Start, edit.NewEnd))
	}

	delta := edit.NewEnd - edit.OldEnd
	for !l.done {
		// Frontmatter may only open at offset 0, so offset 0 never matches
		// any other offset.
		if l.position >= edit.NewEnd && l.atLineStart() && l.position > l.lastCheckpoint &&
			(l.position == 0) == (l.position-delta == 0) {
			prev, ok := oldJournal.At(l.position - delta)
			if ok && prev.Equal(l.State()) {
				stats.Suffix = l.splice(old, oldJournal, prev.Offset, delta)
				l.scanner.Deserialize(finalScanner)
				if err := l.sm.UnmarshalBinary(finalHost); err != nil {
					return nil, RelexStats{}, fmt.Errorf("restore host context: %w", err)
				}
				break
			}
		}
		l.tokens = append(l.tokens, l.nextToken())
		stats.Relexed++
	}

	l.tokenIndex = len(l.tokens)
	result := make([]Token, len(l.tokens))
	copy(result, l.tokens)
	return result, stats, nil
}

// restore loads the scanner and host state of a checkpoint
func (l *Lexer) restore(e checkpoint.Entry) error {
	if err := l.sm.UnmarshalBinary(e.Host); err != nil {
		return err
	}
	l.scanner.Deserialize(e.Scanner)
	return nil
}

// splice appends the old tokens and checkpoints from old offset from onward,
// shifted by delta bytes and to the current line. It returns the number of
// tokens reused.
func (l *Lexer) splice(old []Token, oldJournal *checkpoint.Journal, from, delta int) int {
	i := 0
	for i < len(old) && old[i].Position.Offset < from {
		i++
	}
	lineDelta := l.line - old[i].Position.Line

	for _, tok := range old[i:] {
		offset := tok.Position.Offset + delta
		tok.Position.Offset = offset
		tok.Position.Line += lineDelta
		tok.Text = l.input[offset : offset+len(tok.Text)]
		tok.reach += delta
		l.tokens = append(l.tokens, tok)
	}

	tail := checkpoint.NewJournal(nil)
	tail.Append(oldJournal, from)
	tail.Shift(from, delta)
	l.journal.Append(tail, 0)
	if last, ok := l.journal.Last(); ok {
		l.lastCheckpoint = last.Offset
	}

	last := l.tokens[len(l.tokens)-1].Position
	l.position = len(l.input)
	l.line = last.Line
	l.column = last.Column
	l.done = true

	if l.debugLevel > DebugOff {
		l.recordDebugEvent("converge", fmt.Sprintf("reused %d tokens from old offset %d", len(old)-i, from))
	}
	return len(old) - i
}
