package checkpoint

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Validate lengths to prevent OOM on hostile input
const (
	maxEntries = 1 << 20
	maxBodyLen = 64 * 1024 * 1024
)

var (
	// ErrMagic is returned when the input is not a checkpoint journal.
	ErrMagic = errors.New("invalid magic")

	// ErrVersion is returned for a journal of an unsupported format version.
	ErrVersion = errors.New("unsupported version")

	// ErrDigest is returned when the trailing digest does not match the body.
	ErrDigest = errors.New("digest mismatch")

	// ErrStale is returned by Check when a journal was built from other source.
	ErrStale = errors.New("journal does not match source")
)

// Read reads a journal from r and returns it with its body digest.
func Read(r io.Reader) (*Journal, [32]byte, error) {
	rd := &Reader{r: r}
	return rd.ReadJournal()
}

// Reader handles reading journals from binary format.
type Reader struct {
	r io.Reader
}

// ReadJournal reads the journal from the underlying reader and verifies its digest.
func (rd *Reader) ReadJournal() (*Journal, [32]byte, error) {
	var preamble [preambleSize]byte
	if _, err := io.ReadFull(rd.r, preamble[:]); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read preamble: %w", err)
	}

	magic := string(preamble[0:4])
	if magic != Magic {
		return nil, [32]byte{}, fmt.Errorf("%w: got %q, expected %q", ErrMagic, magic, Magic)
	}

	version := binary.LittleEndian.Uint16(preamble[4:6])
	if version != Version {
		return nil, [32]byte{}, fmt.Errorf("%w: got 0x%04x, expected 0x%04x", ErrVersion, version, Version)
	}

	flags := Flags(binary.LittleEndian.Uint16(preamble[6:8]))
	knownFlags := FlagHost
	if flags&^knownFlags != 0 {
		return nil, [32]byte{}, fmt.Errorf("unsupported flags: 0x%04x (unknown bits: 0x%04x)", flags, flags&^knownFlags)
	}

	count := binary.LittleEndian.Uint32(preamble[8:12])
	bodyLen := binary.LittleEndian.Uint32(preamble[12:16])
	if count > maxEntries {
		return nil, [32]byte{}, fmt.Errorf("entry count %d exceeds maximum %d", count, maxEntries)
	}
	if bodyLen > maxBodyLen {
		return nil, [32]byte{}, fmt.Errorf("body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}

	bodyBuf := make([]byte, bodyLen)
	if _, err := io.ReadFull(rd.r, bodyBuf); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read body: %w", err)
	}

	var stored [32]byte
	if _, err := io.ReadFull(rd.r, stored[:]); err != nil {
		return nil, [32]byte{}, fmt.Errorf("read digest: %w", err)
	}
	digest := blake2b.Sum256(bodyBuf)
	if subtle.ConstantTimeCompare(digest[:], stored[:]) != 1 {
		return nil, [32]byte{}, fmt.Errorf("%w: body hashes to %x, file says %x", ErrDigest, digest[:8], stored[:8])
	}

	j, err := rd.readBody(bytes.NewReader(bodyBuf), flags, int(count))
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("parse body: %w", err)
	}
	return j, digest, nil
}

// readBody reads the source digest and count entries
func (rd *Reader) readBody(r *bytes.Reader, flags Flags, count int) (*Journal, error) {
	j := &Journal{}
	if _, err := io.ReadFull(r, j.Source[:]); err != nil {
		return nil, fmt.Errorf("read source digest: %w", err)
	}

	j.entries = make([]Entry, 0, min(count, r.Len()/5))
	last := -1
	for i := 0; i < count; i++ {
		e, err := rd.readEntry(r, flags)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if e.Offset <= last {
			return nil, fmt.Errorf("entry %d: offset %d not after %d", i, e.Offset, last)
		}
		last = e.Offset
		j.entries = append(j.entries, e)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after %d entries", r.Len(), count)
	}
	return j, nil
}

// readEntry reads a single entry
func (rd *Reader) readEntry(r *bytes.Reader, flags Flags) (Entry, error) {
	var offset uint32
	if err := binary.Read(r, binary.LittleEndian, &offset); err != nil {
		return Entry{}, fmt.Errorf("read offset: %w", err)
	}

	stateLen, err := r.ReadByte()
	if err != nil {
		return Entry{}, fmt.Errorf("read state length: %w", err)
	}
	state := make([]byte, stateLen)
	if _, err := io.ReadFull(r, state); err != nil {
		return Entry{}, fmt.Errorf("read state: %w", err)
	}

	e := Entry{Offset: int(offset), Scanner: state}
	if flags&FlagHost == 0 {
		return e, nil
	}

	var hostLen uint16
	if err := binary.Read(r, binary.LittleEndian, &hostLen); err != nil {
		return Entry{}, fmt.Errorf("read host length: %w", err)
	}
	if int(hostLen) > MaxHostSize {
		return Entry{}, fmt.Errorf("host context length %d exceeds maximum %d", hostLen, MaxHostSize)
	}
	if hostLen > 0 {
		e.Host = make([]byte, hostLen)
		if _, err := io.ReadFull(r, e.Host); err != nil {
			return Entry{}, fmt.Errorf("read host context: %w", err)
		}
	}
	return e, nil
}

// SourceDigest returns the BLAKE2b-256 digest of a source document.
func SourceDigest(src []byte) [32]byte {
	return blake2b.Sum256(src)
}

// Check reports ErrStale if j was not built from src.
func (j *Journal) Check(src []byte) error {
	if SourceDigest(src) != j.Source {
		return ErrStale
	}
	return nil
}
