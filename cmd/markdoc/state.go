package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/checkpoint"
	"github.com/aledsdavies/markdoc/pkgs/lexer"
)

func newStateCmd(flags *globalFlags) *cobra.Command {
	var (
		format      string
		offset      int
		journalPath string
	)

	cmd := &cobra.Command{
		Use:   "state [file]",
		Short: "Print the scanner state after a document or at a checkpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			var entry checkpoint.Entry
			switch {
			case journalPath != "":
				entry, err = journalEntry(journalPath, input, offset)
			default:
				entry, err = lexedEntry(cmd, flags, input, offset)
			}
			if err != nil {
				return err
			}
			return printState(cmd, entry, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "F", "diag", "Output format: diag, cbor or hex")
	cmd.Flags().IntVarP(&offset, "offset", "o", -1, "Show the last checkpoint at or before this offset instead of the final state")
	cmd.Flags().StringVar(&journalPath, "journal", "", "Read checkpoints from this journal instead of lexing")
	return cmd
}

// lexedEntry lexes input and returns its final state, or the checkpoint at or
// before offset when offset is not negative
func lexedEntry(cmd *cobra.Command, flags *globalFlags, input []byte, offset int) (checkpoint.Entry, error) {
	opts, err := flags.lexerOptions(cmd)
	if err != nil {
		return checkpoint.Entry{}, err
	}
	l := lexer.NewLexer(string(input), opts...)
	l.GetTokens()

	if offset < 0 {
		return l.State(), nil
	}
	e, ok := l.Journal().Before(offset + 1)
	if !ok {
		return checkpoint.Entry{}, fmt.Errorf("no checkpoint at or before offset %d", offset)
	}
	return e, nil
}

func journalEntry(path string, input []byte, offset int) (checkpoint.Entry, error) {
	j, err := readJournalFile(path)
	if err != nil {
		return checkpoint.Entry{}, err
	}
	if err := j.Check(input); err != nil {
		return checkpoint.Entry{}, &CLIError{
			Type:    "journal",
			Message: err.Error(),
			Err:     err,
			Hint:    "regenerate it with 'markdoc tokens --journal " + path + "'",
		}
	}

	if offset < 0 {
		e, ok := j.Last()
		if !ok {
			return checkpoint.Entry{}, fmt.Errorf("journal %s is empty", path)
		}
		return e, nil
	}
	e, ok := j.Before(offset + 1)
	if !ok {
		return checkpoint.Entry{}, fmt.Errorf("no checkpoint at or before offset %d", offset)
	}
	return e, nil
}

func printState(cmd *cobra.Command, e checkpoint.Entry, format string) error {
	out := cmd.OutOrStdout()
	if format == "hex" {
		_, _ = fmt.Fprintf(out, "offset %d\nscanner %s\nhost %s\n", e.Offset, hex.EncodeToString(e.Scanner), hex.EncodeToString(e.Host))
		return nil
	}

	cs, err := checkpoint.CanonicalizeEntry(e)
	if err != nil {
		return err
	}
	data, err := cs.MarshalBinary()
	if err != nil {
		return err
	}

	switch format {
	case "cbor":
		_, err = out.Write(data)
		return err
	case "diag":
		diag, err := checkpoint.Diagnose(data)
		if err != nil {
			return err
		}
		digest, err := cs.Hash()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "# offset %d digest %x\n%s\n", e.Offset, digest[:8], diag)
		return nil
	}
	return &CLIError{
		Type:    "input",
		Message: fmt.Sprintf("unknown format %q", format),
		Hint:    "use diag, cbor or hex",
	}
}
