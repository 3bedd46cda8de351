package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/markdoc/pkgs/lexer"
	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
version: "1.2.0"
variant: asciidoc
tab_width: 8
strict_emphasis: true
strict_html: true
indent_tokens: true
telemetry: timing
`))
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Version:        "1.2.0",
		Variant:        "asciidoc",
		TabWidth:       8,
		StrictEmphasis: true,
		StrictHTML:     true,
		IndentTokens:   true,
		Telemetry:      "timing",
	}, cfg)
	assert.Equal(t, scanner.VariantAsciiDoc, cfg.ScannerVariant())
}

func TestParseJSONKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"version": "v1", "strict_html": true}`))
	require.NoError(t, err)

	want := Default()
	want.Version = "v1"
	want.StrictHTML = true
	assert.Equal(t, want, cfg)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "empty document"},
		{"not yaml", "version: [", "parse config"},
		{"missing version", "variant: markdoc", "invalid config"},
		{"unknown field", "version: \"1.0\"\ncolour: blue", "invalid config"},
		{"unknown variant", "version: \"1.0\"\nvariant: rst", "invalid config"},
		{"tab width too large", "version: \"1.0\"\ntab_width: 17", "invalid config"},
		{"tab width zero", "version: \"1.0\"\ntab_width: 0", "invalid config"},
		{"tab width not integer", "version: \"1.0\"\ntab_width: 2.5", "invalid config"},
		{"unknown telemetry", "version: \"1.0\"\ntelemetry: full", "invalid config"},
		{"numeric version", "version: 1.0", "invalid config"},
		{"not an object", "- a\n- b", "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseVersionGate(t *testing.T) {
	tests := []struct {
		version string
		ok      bool
	}{
		{"1", true},
		{"1.0", true},
		{"v1.4.2", true},
		{"1.0.0-beta.1", true},
		{"2.0.0", false},
		{"v0.9", false},
		{"1.0.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			_, err := Parse([]byte(`version: "` + tt.version + `"`))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(`version: "2.1"`))
	assert.ErrorIs(t, err, ErrVersion)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\ntab_width: 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.TabWidth)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: \"3\"\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrVersion)
	assert.Contains(t, err.Error(), bad)
}

func TestScannerOptions(t *testing.T) {
	cfg := Default()
	cfg.Variant = "asciidoc"
	cfg.TabWidth = 2

	s := scanner.New(cfg.ScannerOptions()...)
	assert.Equal(t, scanner.VariantAsciiDoc, s.Variant())
	assert.Equal(t, 2, s.TabWidth())
}

func TestLexerOptions(t *testing.T) {
	cfg := Default()
	cfg.IndentTokens = true
	cfg.Telemetry = "basic"

	l := lexer.NewLexer("a\n\n  b\n", cfg.LexerOptions()...)
	var names []string
	for _, tok := range l.GetTokens() {
		names = append(names, tok.Name())
	}
	assert.Contains(t, names, "INDENT")
	require.NotNil(t, l.GetTokenTelemetry())
	assert.Equal(t, 1, l.GetTokenTelemetry()["INDENT"].Count)

	assert.Nil(t, lexer.NewLexer("a\n", Default().LexerOptions()...).GetTokenTelemetry())
}
