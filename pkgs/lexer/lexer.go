// Package lexer is a reference host for the external scanner. It plays the
// part a generated parser plays at runtime: it tracks enough block and inline
// context to know which external tokens are acceptable, asks the scanner for
// one, and lexes the few structural tokens the scanner leaves to its host.
//
// Every line start that begins a token is checkpointed, so an edited document
// can be re-lexed from the last checkpoint before the edit (see Relex).
package lexer

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/aledsdavies/markdoc/pkgs/checkpoint"
	"github.com/aledsdavies/markdoc/pkgs/invariant"
	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection (production-safe)
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + timing per token name
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // One event per token
	DebugDetailed                   // Plus the acceptable set of every scan
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry    TelemetryMode
	debug        DebugLevel
	indentTokens bool
	scannerOpts  []scanner.Option
	logger       *slog.Logger
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry (counts + timing per token name)
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables per-token debug events (development only)
func WithDebugPaths() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugDetailed
	}
}

// WithIndentTokens makes INDENT and DEDENT acceptable at line starts
func WithIndentTokens() LexerOpt {
	return func(c *LexerConfig) {
		c.indentTokens = true
	}
}

// WithScannerOptions configures the underlying scanner
func WithScannerOptions(opts ...scanner.Option) LexerOpt {
	return func(c *LexerConfig) {
		c.scannerOpts = append(c.scannerOpts, opts...)
	}
}

// WithLogger routes scanner and state machine debug logs to logger
func WithLogger(logger *slog.Logger) LexerOpt {
	return func(c *LexerConfig) {
		c.logger = logger
	}
}

// TokenTelemetry holds per-token telemetry (production-safe)
type TokenTelemetry struct {
	Name      string
	Count     int
	TotalTime time.Duration
	AvgTime   time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "scan", "token", "checkpoint", "resume", "converge"
	Position  Position // Current lexer position
	Context   string   // acceptable set, token name, etc.
}

// Lexer drives a scanner over one document
type Lexer struct {
	// Core lexing state
	input    []byte
	position int
	line     int
	column   int
	done     bool // EOF emitted

	scanner *scanner.Scanner
	sm      *StateMachine

	// Checkpoints at line starts
	journal        *checkpoint.Journal
	lastCheckpoint int

	// Every token lexed so far; tokenIndex is the streaming read position
	tokens     []Token
	tokenIndex int
	bufferSize int

	// Telemetry (nil when disabled for zero allocation)
	telemetryMode  TelemetryMode
	tokenTelemetry map[string]*TokenTelemetry

	// Debug (nil when disabled for zero allocation)
	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	scannerOpts := config.scannerOpts
	if config.logger != nil {
		scannerOpts = append([]scanner.Option{scanner.WithLogger(config.logger)}, scannerOpts...)
	}
	sc := scanner.New(scannerOpts...)

	sm := NewStateMachine(sc.Variant(), config.indentTokens)
	if config.logger != nil {
		sm.SetLogger(config.logger)
	}

	lexer := &Lexer{
		scanner:       sc,
		sm:            sm,
		bufferSize:    256,
		tokens:        make([]Token, 0, 256),
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
	}

	// Only allocate telemetry structures when needed
	if config.telemetry > TelemetryOff {
		lexer.tokenTelemetry = make(map[string]*TokenTelemetry)
	}

	// Only allocate debug structures when needed
	if config.debug > DebugOff {
		lexer.debugEvents = make([]DebugEvent, 0, 256)
	}

	lexer.Init([]byte(input))
	return lexer
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = 1
	l.column = 1
	l.done = false

	l.scanner.Reset()
	l.sm.Reset()
	l.journal = checkpoint.NewJournal(input)
	l.lastCheckpoint = -1

	l.tokens = l.tokens[:0]
	l.tokenIndex = 0

	if l.telemetryMode > TelemetryOff && l.tokenTelemetry != nil {
		for k := range l.tokenTelemetry {
			delete(l.tokenTelemetry, k)
		}
	}
	if l.debugLevel > DebugOff && l.debugEvents != nil {
		l.debugEvents = l.debugEvents[:0]
	}
}

// Input returns the document being lexed.
func (l *Lexer) Input() []byte {
	return l.input
}

// Journal returns the checkpoints recorded so far.
func (l *Lexer) Journal() *checkpoint.Journal {
	return l.journal
}

// Scanner returns the underlying scanner.
func (l *Lexer) Scanner() *scanner.Scanner {
	return l.scanner
}

// GetTokenTelemetry returns per-token telemetry (production safe)
func (l *Lexer) GetTokenTelemetry() map[string]*TokenTelemetry {
	if l.telemetryMode == TelemetryOff || l.tokenTelemetry == nil {
		return nil
	}

	// Return a copy to prevent external modification
	result := make(map[string]*TokenTelemetry, len(l.tokenTelemetry))
	for k, v := range l.tokenTelemetry {
		telemetryCopy := *v
		result[k] = &telemetryCopy
	}
	return result
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return nil
	}

	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

// NextToken returns the next token using streaming interface. After the end
// of input it keeps returning EOF.
func (l *Lexer) NextToken() Token {
	if l.tokenIndex >= len(l.tokens) {
		l.fillBuffer()
	}

	if l.tokenIndex >= len(l.tokens) {
		return Token{Type: EOF, Position: l.pos(), reach: len(l.input)}
	}

	token := l.tokens[l.tokenIndex]
	l.tokenIndex++
	return token
}

// GetTokens returns all tokens using batch interface, including any already
// consumed through NextToken
func (l *Lexer) GetTokens() []Token {
	for !l.done {
		l.fillBuffer()
	}
	l.tokenIndex = len(l.tokens)

	result := make([]Token, len(l.tokens))
	copy(result, l.tokens)
	return result
}

// fillBuffer lexes up to bufferSize more tokens
func (l *Lexer) fillBuffer() {
	for i := 0; i < l.bufferSize && !l.done; i++ {
		l.tokens = append(l.tokens, l.nextToken())
	}
}

// nextToken lexes one token and records telemetry
func (l *Lexer) nextToken() Token {
	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	token := l.lexToken()

	if l.telemetryMode > TelemetryOff {
		var elapsed time.Duration
		if l.telemetryMode >= TelemetryTiming {
			elapsed = time.Since(start)
		}
		l.recordTokenTelemetry(token.Name(), elapsed)
	}
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("token", token.Name())
	}

	return token
}

// recordTokenTelemetry records per-token telemetry (production safe)
func (l *Lexer) recordTokenTelemetry(name string, elapsed time.Duration) {
	telemetry, exists := l.tokenTelemetry[name]
	if !exists {
		telemetry = &TokenTelemetry{
			Name:    name,
			MinTime: elapsed,
			MaxTime: elapsed,
		}
		l.tokenTelemetry[name] = telemetry
	}

	telemetry.Count++

	if l.telemetryMode >= TelemetryTiming {
		telemetry.TotalTime += elapsed
		telemetry.AvgTime = telemetry.TotalTime / time.Duration(telemetry.Count)

		if elapsed < telemetry.MinTime || telemetry.Count == 1 {
			telemetry.MinTime = elapsed
		}
		if elapsed > telemetry.MaxTime || telemetry.Count == 1 {
			telemetry.MaxTime = elapsed
		}
	}
}

// recordDebugEvent records debug events when debug tracing is enabled
func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugLevel == DebugOff || l.debugEvents == nil {
		return
	}

	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  l.pos(),
		Context:   context,
	})
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// atLineStart reports whether the next token starts a line
func (l *Lexer) atLineStart() bool {
	return l.column == 1
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() Token {
	if l.atLineStart() && l.position > l.lastCheckpoint {
		l.checkpoint()
	}

	if l.position >= len(l.input) {
		l.done = true
		return Token{Type: EOF, Position: l.pos(), reach: len(l.input)}
	}

	if l.atLineStart() && !l.scanner.InFencedCode() && !l.scanner.InFrontmatter() {
		if end, ok := blankLine(l.input, l.position); ok {
			return l.emit(Token{Type: BLANK_LINE}, end, end)
		}
	}

	c := scanner.NewCursor(l.input, l.position)
	valid := l.sm.Valid(l.scanner)
	if l.debugLevel >= DebugDetailed {
		l.recordDebugEvent("scan", valid.String())
	}

	if res, ok := l.scanner.Scan(&c, valid); ok {
		invariant.Invariant(res.Start == l.position, "scanner skipped input: token starts at %d, lexer at %d", res.Start, l.position)
		return l.emit(Token{Type: EXTERNAL, Kind: res.Kind}, res.End, c.Reach())
	}
	reach := c.Reach()

	if end, ok := lineTerminator(l.input, l.position); ok {
		return l.emit(Token{Type: NEWLINE}, end, max(reach, end))
	}

	if l.scanner.InFrontmatter() {
		end := lineEnd(l.input, l.position)
		return l.emit(Token{Type: FRONTMATTER}, end, max(reach, end))
	}

	_, size := utf8.DecodeRune(l.input[l.position:])
	return l.emit(Token{Type: ILLEGAL}, l.position+size, max(reach, l.position+size-1))
}

// emit finishes a token ending at end, updates the state machine and moves
// the lexer past it. Host-owned tokens report the byte after them as
// examined, since a lone CR was told apart from CRLF by looking there.
func (l *Lexer) emit(tok Token, end, reach int) Token {
	tok.Position = l.pos()
	tok.Text = l.input[l.position:end]
	tok.reach = reach
	invariant.Invariant(end > l.position || tok.ZeroWidth(), "lexer must advance: %s at %d", tok.Name(), l.position)

	_, err := l.sm.HandleToken(tok)
	invariant.ExpectNoError(err, "state transition for "+tok.Name())

	l.advanceTo(end)
	return tok
}

// advanceTo moves the position to end, tracking line and column. CRLF counts
// as one line break.
func (l *Lexer) advanceTo(end int) {
	for l.position < end {
		r, size := utf8.DecodeRune(l.input[l.position:])
		l.position += size
		switch {
		case r == '\n', r == '\r' && (l.position >= len(l.input) || l.input[l.position] != '\n'):
			l.line++
			l.column = 1
		case r == '\r':
			// first half of CRLF
		default:
			l.column++
		}
	}
}

// checkpoint records the scanner and state machine at the current line start
func (l *Lexer) checkpoint() {
	e := l.State()
	l.journal.Record(e.Offset, e.Scanner, e.Host)
	l.lastCheckpoint = l.position
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("checkpoint", "")
	}
}

// State returns the scanner and host state at the current position.
func (l *Lexer) State() checkpoint.Entry {
	host, err := l.sm.MarshalBinary()
	invariant.ExpectNoError(err, "encode host context")
	return checkpoint.Entry{
		Offset:  l.position,
		Scanner: l.scanner.Serialize(),
		Host:    host,
	}
}

// blankLine reports whether the line starting at offset holds only spaces
// and tabs, and returns the offset past its terminator.
func blankLine(input []byte, offset int) (int, bool) {
	i := offset
	for i < len(input) && (input[i] == ' ' || input[i] == '\t') {
		i++
	}
	if i == len(input) {
		return i, i > offset
	}
	end, ok := lineTerminator(input, i)
	return end, ok
}

// lineTerminator returns the offset past a CR, LF or CRLF at offset.
func lineTerminator(input []byte, offset int) (int, bool) {
	if offset >= len(input) {
		return offset, false
	}
	switch input[offset] {
	case '\n':
		return offset + 1, true
	case '\r':
		if offset+1 < len(input) && input[offset+1] == '\n' {
			return offset + 2, true
		}
		return offset + 1, true
	}
	return offset, false
}

// lineEnd returns the offset of the terminator of the line containing offset,
// or the input length.
func lineEnd(input []byte, offset int) int {
	for i := offset; i < len(input); i++ {
		if input[i] == '\n' || input[i] == '\r' {
			return i
		}
	}
	return len(input)
}
