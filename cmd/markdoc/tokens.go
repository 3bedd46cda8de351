package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/checkpoint"
	"github.com/aledsdavies/markdoc/pkgs/lexer"
)

func newTokensCmd(flags *globalFlags) *cobra.Command {
	var (
		journalPath string
		telemetry   bool
	)

	cmd := &cobra.Command{
		Use:   "tokens [file]",
		Short: "Print the token stream of a document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			opts, err := flags.lexerOptions(cmd)
			if err != nil {
				return err
			}
			if telemetry {
				opts = append(opts, lexer.WithTelemetryBasic())
			}

			l := lexer.NewLexer(string(input), opts...)
			tokens := l.GetTokens()
			printTokens(cmd.OutOrStdout(), tokens, flags.useColor())

			if telemetry {
				printTelemetry(cmd.OutOrStdout(), l.GetTokenTelemetry())
			}
			if journalPath != "" {
				return writeJournalFile(journalPath, l.Journal())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "Write the checkpoint journal to this file")
	cmd.Flags().BoolVar(&telemetry, "telemetry", false, "Print token counts after the stream")
	return cmd
}

// printTokens writes one token per line: position, name and quoted text
func printTokens(w io.Writer, tokens []lexer.Token, useColor bool) {
	for _, tok := range tokens {
		name := tok.Name()
		color := ColorCyan
		if tok.Type != lexer.EXTERNAL {
			color = ColorGray
		}
		_, _ = fmt.Fprintf(w, "%d:%d\t%s\t%q\n",
			tok.Position.Line, tok.Position.Column, Colorize(name, color, useColor), tok.Text)
	}
}

func printTelemetry(w io.Writer, telemetry map[string]*lexer.TokenTelemetry) {
	names := make([]string, 0, len(telemetry))
	for name := range telemetry {
		names = append(names, name)
	}
	sort.Strings(names)

	_, _ = fmt.Fprintln(w)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", name, telemetry[name].Count)
	}
}

func writeJournalFile(path string, j *checkpoint.Journal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if _, err := checkpoint.Write(f, j); err != nil {
		_ = f.Close()
		return fmt.Errorf("write journal %s: %w", path, err)
	}
	return f.Close()
}

func readJournalFile(path string) (*checkpoint.Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	j, _, err := checkpoint.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read journal %s: %w", path, err)
	}
	return j, nil
}
