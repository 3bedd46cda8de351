// Package config loads scanner and lexer settings from a YAML or JSON file.
//
// A file is validated against an embedded JSON Schema before it is decoded,
// and its version must be a v1 semantic version:
//
//	version: "1.0"
//	variant: markdoc
//	tab_width: 4
//	strict_emphasis: false
//	strict_html: false
//	indent_tokens: false
//	telemetry: off
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/markdoc/pkgs/lexer"
	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

//go:embed schema.json
var schemaJSON []byte

// SupportedMajor is the configuration format major version this package reads.
const SupportedMajor = "v1"

// ErrVersion is returned for a configuration written for another major version.
var ErrVersion = errors.New("unsupported config version")

// Config holds the settings of one scanning session
type Config struct {
	Version        string `yaml:"version" json:"version"`
	Variant        string `yaml:"variant" json:"variant"`
	TabWidth       int    `yaml:"tab_width" json:"tab_width"`
	StrictEmphasis bool   `yaml:"strict_emphasis" json:"strict_emphasis"`
	StrictHTML     bool   `yaml:"strict_html" json:"strict_html"`
	IndentTokens   bool   `yaml:"indent_tokens" json:"indent_tokens"`
	Telemetry      string `yaml:"telemetry" json:"telemetry"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Version:   "1.0.0",
		Variant:   scanner.VariantMarkdoc.String(),
		TabWidth:  scanner.DefaultTabWidth,
		Telemetry: "off",
	}
}

// Load reads and validates the configuration file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates and decodes a YAML or JSON document. Fields it leaves out
// keep their defaults.
func Parse(data []byte) (*Config, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		return nil, errors.New("parse config: empty document")
	}
	if err := validate(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.checkVersion(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkVersion accepts versions with or without the "v" prefix
func (c *Config) checkVersion() error {
	v := c.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q is not a semantic version", ErrVersion, c.Version)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return fmt.Errorf("%w: %s (want %s)", ErrVersion, major, SupportedMajor)
	}
	return nil
}

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := "schema://config.json"
	if err := compiler.AddResource(url, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
})

// validate checks a decoded document against the embedded schema. The
// document goes through JSON first so numbers reach the validator in the form
// it expects.
func validate(doc any) error {
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config is not a JSON value: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return fmt.Errorf("config is not a JSON value: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ScannerVariant returns the configured dialect
func (c *Config) ScannerVariant() scanner.Variant {
	if c.Variant == scanner.VariantAsciiDoc.String() {
		return scanner.VariantAsciiDoc
	}
	return scanner.VariantMarkdoc
}

// ScannerOptions converts the configuration to scanner options
func (c *Config) ScannerOptions() []scanner.Option {
	opts := []scanner.Option{
		scanner.WithVariant(c.ScannerVariant()),
		scanner.WithTabWidth(c.TabWidth),
	}
	if c.StrictEmphasis {
		opts = append(opts, scanner.WithStrictEmphasis())
	}
	if c.StrictHTML {
		opts = append(opts, scanner.WithStrictHTML())
	}
	return opts
}

// LexerOptions converts the configuration to lexer options, scanner options
// included
func (c *Config) LexerOptions() []lexer.LexerOpt {
	opts := []lexer.LexerOpt{lexer.WithScannerOptions(c.ScannerOptions()...)}
	if c.IndentTokens {
		opts = append(opts, lexer.WithIndentTokens())
	}
	switch c.Telemetry {
	case "basic":
		opts = append(opts, lexer.WithTelemetryBasic())
	case "timing":
		opts = append(opts, lexer.WithTelemetryTiming())
	}
	return opts
}
