package scanner

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/aledsdavies/markdoc/pkgs/invariant"
)

// NoRune marks LastSignificant before anything has been consumed.
const NoRune rune = -1

const (
	// StateVersion is the layout version written as the first serialized byte.
	StateVersion byte = 1

	// MaxSerializedSize bounds the serialized state.
	MaxSerializedSize = 255

	// MaxIndentDepth caps the indent stack, base level included.
	MaxIndentDepth = 32

	// MaxFenceLength caps the remembered fence run.
	MaxFenceLength = math.MaxUint8

	// maxIndentLevel caps a single indent level so it fits the encoding.
	maxIndentLevel = math.MaxUint16

	stateHeaderSize = 11
)

// state flag bits
const (
	flagAtStart byte = 1 << iota
	flagInFrontmatter
	flagInFencedCode
	flagInList

	knownStateFlags = flagAtStart | flagInFrontmatter | flagInFencedCode | flagInList
)

var (
	// ErrStateVersion is returned for a serialized state of another layout version.
	ErrStateVersion = errors.New("unsupported state version")

	// ErrStateCorrupt is returned for a serialized state that fails validation.
	ErrStateCorrupt = errors.New("corrupt state")
)

// State is the scanner memory that survives between calls. It is everything
// an incremental parser must checkpoint to resume scanning at a token boundary.
type State struct {
	AtDocumentStart bool
	InFrontmatter   bool

	InFencedCode bool
	FenceChar    rune // '`' or '~' while InFencedCode, else 0
	FenceLength  int

	// IndentStack holds strictly increasing indentation columns. The first
	// entry is always 0.
	IndentStack []int

	// LastSignificant is the last consumed rune other than a line break.
	LastSignificant rune

	InList     bool
	ListIndent int // marker column of the most recent list item
}

// NewState returns the state of a scanner that has not emitted anything.
func NewState() State {
	return State{
		AtDocumentStart: true,
		IndentStack:     []int{0},
		LastSignificant: NoRune,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.IndentStack = slices.Clone(s.IndentStack)
	return s
}

// IndentLevel returns the innermost indentation level.
func (s *State) IndentLevel() int {
	return s.IndentStack[len(s.IndentStack)-1]
}

// pushIndent adds a level. It reports false when the stack is full.
func (s *State) pushIndent(level int) bool {
	invariant.Precondition(level > s.IndentLevel(), "indent level %d must exceed %d", level, s.IndentLevel())
	if len(s.IndentStack) >= MaxIndentDepth || level > maxIndentLevel {
		return false
	}
	s.IndentStack = append(s.IndentStack, level)
	return true
}

// popIndent removes the innermost level. The base level is never removed.
func (s *State) popIndent() {
	invariant.Precondition(len(s.IndentStack) > 1, "cannot pop the base indent level")
	s.IndentStack = s.IndentStack[:len(s.IndentStack)-1]
}

// openFence remembers an opened fence.
func (s *State) openFence(ch rune, length int) {
	s.InFencedCode = true
	s.FenceChar = ch
	s.FenceLength = min(length, MaxFenceLength)
}

func (s *State) closeFence() {
	s.InFencedCode = false
	s.FenceChar = 0
	s.FenceLength = 0
}

// MarshalBinary encodes s in the fixed version 1 layout:
//
//	VERSION(1) | FLAGS(1) | FENCE_CHAR(1) | FENCE_LEN(1) | LAST_RUNE(4) |
//	LIST_INDENT(2) | DEPTH(1) | LEVELS(2*DEPTH)
//
// Multi-byte fields are little-endian.
func (s State) MarshalBinary() ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	var flags byte
	if s.AtDocumentStart {
		flags |= flagAtStart
	}
	if s.InFrontmatter {
		flags |= flagInFrontmatter
	}
	if s.InFencedCode {
		flags |= flagInFencedCode
	}
	if s.InList {
		flags |= flagInList
	}

	buf := make([]byte, stateHeaderSize, stateHeaderSize+2*len(s.IndentStack))
	buf[0] = StateVersion
	buf[1] = flags
	buf[2] = byte(s.FenceChar)
	buf[3] = byte(s.FenceLength)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(s.LastSignificant)))
	binary.LittleEndian.PutUint16(buf[8:10], uint16(min(s.ListIndent, maxIndentLevel)))
	buf[10] = byte(len(s.IndentStack))
	for _, level := range s.IndentStack {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(level))
	}

	invariant.Postcondition(len(buf) <= MaxSerializedSize, "serialized state is %d bytes", len(buf))
	return buf, nil
}

// UnmarshalBinary decodes a state written by MarshalBinary. An empty buffer
// decodes to NewState. On error s is left unchanged.
func (s *State) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		*s = NewState()
		return nil
	}
	if data[0] != StateVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrStateVersion, data[0], StateVersion)
	}
	if len(data) < stateHeaderSize {
		return fmt.Errorf("%w: %d bytes is shorter than the %d byte header", ErrStateCorrupt, len(data), stateHeaderSize)
	}

	flags := data[1]
	if flags&^knownStateFlags != 0 {
		return fmt.Errorf("%w: unknown flags 0x%02x", ErrStateCorrupt, flags&^knownStateFlags)
	}

	depth := int(data[10])
	if want := stateHeaderSize + 2*depth; len(data) != want {
		return fmt.Errorf("%w: length %d does not match indent depth %d", ErrStateCorrupt, len(data), depth)
	}

	decoded := State{
		AtDocumentStart: flags&flagAtStart != 0,
		InFrontmatter:   flags&flagInFrontmatter != 0,
		InFencedCode:    flags&flagInFencedCode != 0,
		InList:          flags&flagInList != 0,
		FenceChar:       rune(data[2]),
		FenceLength:     int(data[3]),
		LastSignificant: rune(int32(binary.LittleEndian.Uint32(data[4:8]))),
		ListIndent:      int(binary.LittleEndian.Uint16(data[8:10])),
		IndentStack:     make([]int, depth),
	}
	for i := range decoded.IndentStack {
		off := stateHeaderSize + 2*i
		decoded.IndentStack[i] = int(binary.LittleEndian.Uint16(data[off : off+2]))
	}

	if err := decoded.validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// validate checks the invariants the encoding relies on.
func (s *State) validate() error {
	if s.InFencedCode {
		if s.FenceChar != '`' && s.FenceChar != '~' {
			return fmt.Errorf("%w: fence char %q", ErrStateCorrupt, s.FenceChar)
		}
		if s.FenceLength < 3 || s.FenceLength > MaxFenceLength {
			return fmt.Errorf("%w: fence length %d", ErrStateCorrupt, s.FenceLength)
		}
	} else if s.FenceChar != 0 || s.FenceLength != 0 {
		return fmt.Errorf("%w: fence recorded outside fenced code", ErrStateCorrupt)
	}

	if len(s.IndentStack) == 0 || len(s.IndentStack) > MaxIndentDepth {
		return fmt.Errorf("%w: indent depth %d", ErrStateCorrupt, len(s.IndentStack))
	}
	if s.IndentStack[0] != 0 {
		return fmt.Errorf("%w: base indent level %d", ErrStateCorrupt, s.IndentStack[0])
	}
	for i := 1; i < len(s.IndentStack); i++ {
		if s.IndentStack[i] <= s.IndentStack[i-1] || s.IndentStack[i] > maxIndentLevel {
			return fmt.Errorf("%w: indent levels %v not strictly increasing", ErrStateCorrupt, s.IndentStack)
		}
	}

	if s.LastSignificant < NoRune || s.LastSignificant > 0x10FFFF {
		return fmt.Errorf("%w: last rune %d", ErrStateCorrupt, s.LastSignificant)
	}
	if s.ListIndent < 0 {
		return fmt.Errorf("%w: list indent %d", ErrStateCorrupt, s.ListIndent)
	}
	return nil
}
