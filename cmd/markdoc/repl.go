package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/lexer"
)

const (
	historyFile = ".markdoc_history"
	promptMain  = "markdoc> "
	replHelp    = `Each line is appended to the document and the re-lexed tokens are printed.
  :state   show the scanner state at the end of the document
  :doc     print the document so far
  :reset   start a new document
  :quit    exit`
)

func newReplCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Type a document line by line and watch it being scanned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.lexerOptions(cmd)
			if err != nil {
				return err
			}
			session := newReplSession(cmd.OutOrStdout(), flags.useColor(), opts...)
			return runRepl(session)
		},
	}
}

func runRepl(session *replSession) error {
	ln := liner.NewLiner()
	defer func() { _ = ln.Close() }()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	_, _ = fmt.Fprintln(session.out, replHelp)
	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			_, _ = fmt.Fprintln(session.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if !session.eval(line) {
			return nil
		}
	}
}

// replSession grows one document a line at a time
type replSession struct {
	lexer    *lexer.Lexer
	out      io.Writer
	useColor bool
}

func newReplSession(out io.Writer, useColor bool, opts ...lexer.LexerOpt) *replSession {
	l := lexer.NewLexer("", opts...)
	l.GetTokens()
	return &replSession{lexer: l, out: out, useColor: useColor}
}

// eval handles one input line. It returns false when the session should end.
func (s *replSession) eval(line string) bool {
	switch strings.TrimSpace(line) {
	case ":quit":
		return false
	case ":help":
		_, _ = fmt.Fprintln(s.out, replHelp)
		return true
	case ":reset":
		s.lexer.Init(nil)
		s.lexer.GetTokens()
		return true
	case ":doc":
		_, _ = fmt.Fprintf(s.out, "%s", s.lexer.Input())
		return true
	case ":state":
		s.printState()
		return true
	}
	if strings.HasPrefix(strings.TrimSpace(line), ":") {
		_, _ = fmt.Fprintf(s.out, "unknown command %s. Type :help for commands.\n", strings.TrimSpace(line))
		return true
	}

	old := s.lexer.Input()
	doc := make([]byte, 0, len(old)+len(line)+1)
	doc = append(append(append(doc, old...), line...), '\n')

	tokens, stats, err := s.lexer.Relex(doc, lexer.Diff(old, doc))
	if err != nil {
		FormatError(s.out, err, s.useColor)
		return true
	}

	var changed []lexer.Token
	for _, tok := range tokens {
		if tok.Position.Offset >= stats.Resumed && tok.Type != lexer.EOF {
			changed = append(changed, tok)
		}
	}
	printTokens(s.out, changed, s.useColor)
	return true
}

func (s *replSession) printState() {
	st := s.lexer.Scanner().State()
	_, _ = fmt.Fprintf(s.out, "fence=%t frontmatter=%t list=%t indent=%v\n",
		st.InFencedCode, st.InFrontmatter, st.InList, st.IndentStack)
}
