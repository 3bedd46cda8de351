package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"golang.org/x/crypto/blake2b"
)

const (
	// Magic is the file magic number "MDCK" (4 bytes)
	Magic = "MDCK"

	// Version is the format version (uint16, little-endian)
	Version uint16 = 0x0001

	// preambleSize is MAGIC(4) | VERSION(2) | FLAGS(2) | COUNT(4) | BODY_LEN(4)
	preambleSize = 16
)

// Flags is a bitmask for optional features
type Flags uint16

const (
	// FlagHost indicates entries carry a host context section
	FlagHost Flags = 1 << 0

	// Bits 1-15 reserved for future use
)

// validateUint16 checks if a value fits in uint16, returns error if it exceeds max
func validateUint16(value int, fieldName string) error {
	if value > math.MaxUint16 {
		return fmt.Errorf("%s %d exceeds maximum %d", fieldName, value, math.MaxUint16)
	}
	return nil
}

// Write writes a journal to w and returns the BLAKE2b-256 digest of its body.
func Write(w io.Writer, j *Journal) ([32]byte, error) {
	wr := &Writer{w: w}
	return wr.WriteJournal(j)
}

// Writer handles writing journals to binary format.
type Writer struct {
	w io.Writer
}

// WriteJournal writes the journal to the underlying writer.
// Format: MAGIC(4) | VERSION(2) | FLAGS(2) | COUNT(4) | BODY_LEN(4) | BODY | DIGEST(32)
//
// BODY is SOURCE(32) followed by the entries. DIGEST is the BLAKE2b-256 of BODY.
func (wr *Writer) WriteJournal(j *Journal) ([32]byte, error) {
	flags := Flags(0)
	for _, e := range j.entries {
		if len(e.Host) > 0 {
			flags |= FlagHost
			break
		}
	}

	var bodyBuf bytes.Buffer
	if err := wr.writeBody(&bodyBuf, j, flags); err != nil {
		return [32]byte{}, err
	}
	if bodyBuf.Len() > maxBodyLen {
		return [32]byte{}, fmt.Errorf("body length %d exceeds maximum %d", bodyBuf.Len(), maxBodyLen)
	}

	digest := blake2b.Sum256(bodyBuf.Bytes())

	var preambleBuf bytes.Buffer
	if err := wr.writePreambleToBuffer(&preambleBuf, flags, uint32(len(j.entries)), uint32(bodyBuf.Len())); err != nil {
		return [32]byte{}, err
	}
	if _, err := wr.w.Write(preambleBuf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	if _, err := wr.w.Write(bodyBuf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	if _, err := wr.w.Write(digest[:]); err != nil {
		return [32]byte{}, err
	}

	return digest, nil
}

// writePreambleToBuffer writes the fixed-size preamble (16 bytes) to a buffer
func (wr *Writer) writePreambleToBuffer(buf *bytes.Buffer, flags Flags, count, bodyLen uint32) error {
	if _, err := buf.WriteString(Magic); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, Version); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(flags)); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, count); err != nil {
		return err
	}
	return binary.Write(buf, binary.LittleEndian, bodyLen)
}

// writeBody writes the source digest and every entry
func (wr *Writer) writeBody(buf *bytes.Buffer, j *Journal, flags Flags) error {
	if _, err := buf.Write(j.Source[:]); err != nil {
		return err
	}

	for i := range j.entries {
		if err := wr.writeEntry(buf, &j.entries[i], flags); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// writeEntry writes OFFSET(4) | STATE_LEN(1) | STATE | [HOST_LEN(2) | HOST]
func (wr *Writer) writeEntry(buf *bytes.Buffer, e *Entry, flags Flags) error {
	if uint64(e.Offset) > math.MaxUint32 {
		return fmt.Errorf("offset %d exceeds maximum %d", e.Offset, uint32(math.MaxUint32))
	}
	if err := binary.Write(buf, binary.LittleEndian, uint32(e.Offset)); err != nil {
		return err
	}

	if len(e.Scanner) > math.MaxUint8 {
		return fmt.Errorf("scanner state length %d exceeds maximum %d", len(e.Scanner), math.MaxUint8)
	}
	if err := buf.WriteByte(uint8(len(e.Scanner))); err != nil {
		return err
	}
	if _, err := buf.Write(e.Scanner); err != nil {
		return err
	}

	if flags&FlagHost == 0 {
		return nil
	}
	if err := validateUint16(len(e.Host), "host context length"); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(e.Host))); err != nil {
		return err
	}
	_, err := buf.Write(e.Host)
	return err
}
