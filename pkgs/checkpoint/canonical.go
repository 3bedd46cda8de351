package checkpoint

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// CanonicalState is the layout-independent form of a scanner state. Two
// states that resume identically have identical canonical bytes, whatever
// version of the binary layout they were read from.
type CanonicalState struct {
	Version         uint8  `cbor:"version"`
	AtDocumentStart bool   `cbor:"at_document_start"`
	InFrontmatter   bool   `cbor:"in_frontmatter"`
	InFencedCode    bool   `cbor:"in_fenced_code"`
	FenceChar       string `cbor:"fence_char,omitempty"`
	FenceLength     int    `cbor:"fence_length,omitempty"`
	IndentStack     []int  `cbor:"indent_stack"`
	LastSignificant string `cbor:"last_significant,omitempty"`
	InList          bool   `cbor:"in_list"`
	ListIndent      int    `cbor:"list_indent"`
	Host            []byte `cbor:"host,omitempty"`
}

// Canonicalize converts a scanner state and its host context into canonical form.
func Canonicalize(st scanner.State, host []byte) *CanonicalState {
	cs := &CanonicalState{
		Version:         1,
		AtDocumentStart: st.AtDocumentStart,
		InFrontmatter:   st.InFrontmatter,
		InFencedCode:    st.InFencedCode,
		FenceLength:     st.FenceLength,
		IndentStack:     append([]int(nil), st.IndentStack...),
		InList:          st.InList,
		ListIndent:      st.ListIndent,
		Host:            clone(host),
	}
	if st.FenceChar != 0 {
		cs.FenceChar = string(st.FenceChar)
	}
	if st.LastSignificant != scanner.NoRune {
		cs.LastSignificant = string(st.LastSignificant)
	}
	return cs
}

// CanonicalizeEntry decodes the scanner bytes of e and canonicalizes them.
func CanonicalizeEntry(e Entry) (*CanonicalState, error) {
	var st scanner.State
	if err := st.UnmarshalBinary(e.Scanner); err != nil {
		return nil, fmt.Errorf("entry at %d: %w", e.Offset, err)
	}
	return Canonicalize(st, e.Host), nil
}

// MarshalBinary produces deterministic CBOR encoding of the canonical state.
func (cs *CanonicalState) MarshalBinary() ([]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	// Alias to keep cbor from calling MarshalBinary recursively
	type canonicalStateAlias CanonicalState
	data, err := encMode.Marshal((*canonicalStateAlias)(cs))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalCanonical decodes bytes produced by MarshalBinary.
func UnmarshalCanonical(data []byte) (*CanonicalState, error) {
	type canonicalStateAlias CanonicalState
	var alias canonicalStateAlias
	if err := cbor.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	cs := CanonicalState(alias)
	return &cs, nil
}

// Hash computes the BLAKE2b-256 digest of the canonical state.
func (cs *CanonicalState) Hash() ([32]byte, error) {
	data, err := cs.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}

// Diagnose renders canonical bytes in CBOR diagnostic notation.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
