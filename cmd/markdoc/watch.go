package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/lexer"
)

func newWatchCmd(flags *globalFlags) *cobra.Command {
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "watch file",
		Short: "Re-lex a document incrementally every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.lexerOptions(cmd)
			if err != nil {
				return err
			}

			w, err := newWatcher(args[0], cmd.OutOrStdout(), showTokens, flags.useColor(), opts...)
			if err != nil {
				return err
			}

			fw, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer func() { _ = fw.Close() }()

			// Editors often replace the file, so watch its directory
			if err := fw.Add(filepath.Dir(w.path)); err != nil {
				return fmt.Errorf("watch %s: %w", w.path, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return w.run(ctx, fw.Events, fw.Errors)
		},
	}

	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Print the full token stream after every change")
	return cmd
}

// watcher owns the lexer of one watched file
type watcher struct {
	path       string
	lexer      *lexer.Lexer
	out        io.Writer
	showTokens bool
	useColor   bool
}

func newWatcher(path string, out io.Writer, showTokens, useColor bool, opts ...lexer.LexerOpt) (*watcher, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file %s: %w", path, err)
	}

	w := &watcher{
		path:       path,
		lexer:      lexer.NewLexer(string(data), opts...),
		out:        out,
		showTokens: showTokens,
		useColor:   useColor,
	}
	tokens := w.lexer.GetTokens()
	_, _ = fmt.Fprintf(out, "%s: %d tokens, %d checkpoints\n", path, len(tokens), w.lexer.Journal().Len())
	if showTokens {
		printTokens(out, tokens, useColor)
	}
	return w, nil
}

// run handles file events until ctx is done or the event channel closes
func (w *watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := w.refresh(); err != nil {
				FormatError(w.out, err, w.useColor)
			}

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			FormatError(w.out, fmt.Errorf("watch %s: %w", w.path, err), w.useColor)
		}
	}
}

// refresh re-reads the file and relexes the changed region
func (w *watcher) refresh() error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.path, err)
	}
	if bytes.Equal(data, w.lexer.Input()) {
		return nil
	}

	edit := lexer.Diff(w.lexer.Input(), data)
	tokens, stats, err := w.lexer.Relex(data, edit)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w.out, "%s: edit %d..%d -> %d..%d, %d tokens (kept %d, relexed %d, reused %d)\n",
		w.path, edit.Start, edit.OldEnd, edit.Start, edit.NewEnd,
		len(tokens), stats.Prefix, stats.Relexed, stats.Suffix)
	if w.showTokens {
		printTokens(w.out, tokens, w.useColor)
	}
	return nil
}
