package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		accept      string
		offset      int
		journalPath string
		list        bool
	)

	cmd := &cobra.Command{
		Use:   "scan [file]",
		Short: "Run a single scan at an offset with an explicit set of acceptable kinds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, name := range scanner.KindNames() {
					_, _ = fmt.Fprintln(out, name)
				}
				return nil
			}

			valid, err := parseAccept(accept)
			if err != nil {
				return err
			}
			input, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			if offset < 0 || offset > len(input) {
				return fmt.Errorf("offset %d outside input of %d bytes", offset, len(input))
			}

			opts, err := flags.scannerOptions(cmd)
			if err != nil {
				return err
			}
			s := scanner.New(opts...)

			if journalPath != "" {
				if err := restoreFromJournal(s, journalPath, input, offset); err != nil {
					return err
				}
			}

			c := scanner.NewCursor(input, offset)
			res, ok := s.Scan(&c, valid)
			if !ok {
				_, _ = fmt.Fprintf(out, "no match at %d (examined through %d)\n", offset, c.Reach())
				return nil
			}
			_, _ = fmt.Fprintf(out, "%s\t%d..%d\t%q\treach %d\n",
				Colorize(res.Kind.String(), ColorGreen, flags.useColor()), res.Start, res.End, input[res.Start:res.End], c.Reach())
			return nil
		},
	}

	cmd.Flags().StringVarP(&accept, "accept", "a", "all", "Comma separated token kinds to accept, or 'all'")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Byte offset to scan at")
	cmd.Flags().StringVar(&journalPath, "journal", "", "Resume from the checkpoint at --offset in this journal")
	cmd.Flags().BoolVar(&list, "list", false, "List every token kind and exit")
	return cmd
}

// restoreFromJournal loads the scanner state checkpointed at offset
func restoreFromJournal(s *scanner.Scanner, path string, input []byte, offset int) error {
	j, err := readJournalFile(path)
	if err != nil {
		return err
	}
	if err := j.Check(input); err != nil {
		return &CLIError{
			Type:    "journal",
			Message: err.Error(),
			Err:     err,
			Hint:    "regenerate it with 'markdoc tokens --journal " + path + "'",
		}
	}

	e, ok := j.At(offset)
	if !ok {
		var offsets []string
		for _, e := range j.Entries() {
			offsets = append(offsets, fmt.Sprint(e.Offset))
		}
		return &CLIError{
			Type:    "journal",
			Message: fmt.Sprintf("no checkpoint at offset %d", offset),
			Details: "checkpoints: " + strings.Join(offsets, ", "),
		}
	}
	s.Deserialize(e.Scanner)
	return nil
}
