package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aledsdavies/markdoc/pkgs/config"
	"github.com/aledsdavies/markdoc/pkgs/lexer"
	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

func main() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		FormatError(os.Stderr, err, ShouldUseColor(false))
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	debug      bool
	noColor    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "markdoc [command]",
		Short:         "Inspect the external scanner of Markdoc documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to a scanner configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable scanner debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newTokensCmd(flags),
		newScanCmd(flags),
		newStateCmd(flags),
		newWatchCmd(flags),
		newReplCmd(flags),
	)
	return rootCmd
}

// loadConfig reads the --config file, or returns the defaults
func (f *globalFlags) loadConfig() (*config.Config, error) {
	if f.configFile == "" {
		return config.Default(), nil
	}
	return config.Load(f.configFile)
}

// logger returns the debug logger when --debug is set
func (f *globalFlags) logger(stderr io.Writer) *slog.Logger {
	if !f.debug {
		return nil
	}
	return scanner.NewLogger(stderr, true)
}

// lexerOptions combines the configuration file with the global flags
func (f *globalFlags) lexerOptions(cmd *cobra.Command) ([]lexer.LexerOpt, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.LexerOptions()
	if logger := f.logger(cmd.ErrOrStderr()); logger != nil {
		opts = append(opts, lexer.WithLogger(logger))
	}
	return opts, nil
}

// scannerOptions is lexerOptions for commands that drive a bare scanner
func (f *globalFlags) scannerOptions(cmd *cobra.Command) ([]scanner.Option, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	opts := cfg.ScannerOptions()
	if logger := f.logger(cmd.ErrOrStderr()); logger != nil {
		opts = append(opts, scanner.WithLogger(logger))
	}
	return opts, nil
}

func (f *globalFlags) useColor() bool {
	return ShouldUseColor(f.noColor)
}

// readInput handles the 3 modes of input:
// 1. Explicit stdin with "-"
// 2. Piped input when no file is given
// 3. A named file
func readInput(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		if len(args) == 0 && !hasPipedInput(cmd.InOrStdin()) {
			return nil, "", &CLIError{
				Type:    "input",
				Message: "no input",
				Hint:    "pass a file name or pipe a document to stdin",
			}
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "<stdin>", nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("error opening file %s: %w", args[0], err)
	}
	return data, args[0], nil
}

// hasPipedInput detects if there's data piped to stdin. Readers other than
// the process stdin count as piped.
func hasPipedInput(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	// Pipes may not report a size, so only the mode is checked
	return (stat.Mode() & os.ModeCharDevice) == 0
}
