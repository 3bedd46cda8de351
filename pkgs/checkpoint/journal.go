// Package checkpoint records where a host lexer can resume scanning.
//
// A Journal is an ordered list of entries, one per line start the host chose
// to checkpoint. Each entry pairs a byte offset with the serialized scanner
// state and an opaque host context. After an edit the host resumes from the
// last entry before the edit and stops re-lexing as soon as a fresh entry
// agrees with an old one past the edit.
package checkpoint

import (
	"bytes"
	"sort"

	"github.com/aledsdavies/markdoc/pkgs/invariant"
	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// MaxHostSize bounds the host context stored with an entry.
const MaxHostSize = 1024

// Entry is one resumable position.
type Entry struct {
	Offset  int
	Scanner []byte // scanner.Scanner.Serialize output
	Host    []byte // host-owned context, opaque to this package
}

// Equal reports whether e and o resume identically, ignoring the offset.
func (e Entry) Equal(o Entry) bool {
	return bytes.Equal(e.Scanner, o.Scanner) && bytes.Equal(e.Host, o.Host)
}

// Journal is an offset-ordered list of entries for one source document.
type Journal struct {
	Source  [32]byte // digest of the source the journal was built from
	entries []Entry
}

// NewJournal returns an empty journal for src.
func NewJournal(src []byte) *Journal {
	return &Journal{Source: SourceDigest(src)}
}

// Record appends an entry. Offsets must be strictly increasing. The byte
// slices are copied.
func (j *Journal) Record(offset int, scannerState, host []byte) {
	invariant.Precondition(offset >= 0, "negative checkpoint offset %d", offset)
	invariant.Precondition(len(scannerState) <= scanner.MaxSerializedSize,
		"scanner state of %d bytes exceeds %d", len(scannerState), scanner.MaxSerializedSize)
	invariant.Precondition(len(host) <= MaxHostSize, "host context of %d bytes exceeds %d", len(host), MaxHostSize)
	if n := len(j.entries); n > 0 {
		last := j.entries[n-1].Offset
		invariant.Precondition(offset > last, "checkpoint offset %d not after %d", offset, last)
	}

	j.entries = append(j.entries, Entry{
		Offset:  offset,
		Scanner: clone(scannerState),
		Host:    clone(host),
	})
}

func clone(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return bytes.Clone(b)
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	return len(j.entries)
}

// Entries returns the entries in offset order. The caller must not modify them.
func (j *Journal) Entries() []Entry {
	return j.entries
}

// At returns the entry recorded exactly at offset.
func (j *Journal) At(offset int) (Entry, bool) {
	i := sort.Search(len(j.entries), func(i int) bool { return j.entries[i].Offset >= offset })
	if i < len(j.entries) && j.entries[i].Offset == offset {
		return j.entries[i], true
	}
	return Entry{}, false
}

// Before returns the last entry whose offset is strictly less than offset.
func (j *Journal) Before(offset int) (Entry, bool) {
	i := sort.Search(len(j.entries), func(i int) bool { return j.entries[i].Offset >= offset })
	if i == 0 {
		return Entry{}, false
	}
	return j.entries[i-1], true
}

// Truncate drops every entry at or after offset.
func (j *Journal) Truncate(offset int) {
	i := sort.Search(len(j.entries), func(i int) bool { return j.entries[i].Offset >= offset })
	j.entries = j.entries[:i]
}

// Shift moves every entry at or after from by delta. Moved entries that no
// longer follow the unmoved ones are dropped.
func (j *Journal) Shift(from, delta int) {
	kept := j.entries[:0]
	last := -1
	for _, e := range j.entries {
		if e.Offset >= from {
			e.Offset += delta
		}
		if e.Offset <= last {
			continue
		}
		last = e.Offset
		kept = append(kept, e)
	}
	j.entries = kept
}

// Last returns the entry with the highest offset.
func (j *Journal) Last() (Entry, bool) {
	if len(j.entries) == 0 {
		return Entry{}, false
	}
	return j.entries[len(j.entries)-1], true
}

// Append copies the entries of o with offsets at or after from onto j.
func (j *Journal) Append(o *Journal, from int) {
	for _, e := range o.entries {
		if e.Offset >= from {
			j.Record(e.Offset, e.Scanner, e.Host)
		}
	}
}
