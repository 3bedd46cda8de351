package lexer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aledsdavies/markdoc/pkgs/scanner"
)

// LexerState represents the current parsing state
type LexerState int

const (
	// StateBlock is at a block boundary: the start of a line or just after a
	// container marker such as "- " or "> "
	StateBlock LexerState = iota

	// StateInline is inside the text of a paragraph line
	StateInline

	// StateTag is between "{%" and "%}"
	StateTag

	// StateExpression is between "{{" and "}}"
	StateExpression
)

// String returns a human-readable state name
func (s LexerState) String() string {
	names := []string{
		"Block",
		"Inline",
		"Tag",
		"Expression",
	}
	if int(s) < len(names) {
		return names[s]
	}
	return fmt.Sprintf("Unknown(%d)", s)
}

// ContextType represents the type of parsing context
type ContextType int

const (
	ContextEmphasis ContextType = iota
	ContextTag
	ContextExpression
)

// Context represents a parsing context that can be pushed/popped
type Context struct {
	Type   ContextType
	State  LexerState        // state to restore when the context closes
	Closer scanner.TokenKind // token that closes the context
}

// MaxContextDepth bounds nested emphasis, tags and expressions. Openers past
// the limit are lexed as raw delimiters or text.
const MaxContextDepth = 32

var (
	errContextUnderflow = errors.New("context stack underflow")
	errHostContext      = errors.New("malformed host context")
)

var closers = map[scanner.TokenKind]scanner.TokenKind{
	scanner.EM_OPEN_STAR:           scanner.EM_CLOSE_STAR,
	scanner.STRONG_OPEN_STAR:       scanner.STRONG_CLOSE_STAR,
	scanner.EM_OPEN_UNDERSCORE:     scanner.EM_CLOSE_UNDERSCORE,
	scanner.STRONG_OPEN_UNDERSCORE: scanner.STRONG_CLOSE_UNDERSCORE,
}

var (
	emphasisOpeners = scanner.NewValidSet(
		scanner.EM_OPEN_STAR,
		scanner.STRONG_OPEN_STAR,
		scanner.EM_OPEN_UNDERSCORE,
		scanner.STRONG_OPEN_UNDERSCORE,
	)

	inlineOpeners = emphasisOpeners | scanner.NewValidSet(scanner.TAG_OPEN, scanner.EXPRESSION_OPEN)

	inlineKinds = scanner.NewValidSet(
		scanner.TEXT,
		scanner.RAW_DELIM,
		scanner.HTML_COMMENT,
		scanner.COMMENT_BLOCK,
	)

	blockKinds = scanner.NewValidSet(
		scanner.FRONTMATTER_DELIM,
		scanner.THEMATIC_BREAK,
		scanner.CODE_FENCE_OPEN,
		scanner.BLOCK_QUOTE_MARKER,
		scanner.HTML_BLOCK,
	)

	listKinds = scanner.NewValidSet(
		scanner.UNORDERED_LIST_MARKER,
		scanner.ORDERED_LIST_MARKER,
		scanner.INDENTED_UNORDERED_LIST_MARKER,
		scanner.INDENTED_ORDERED_LIST_MARKER,
	)

	noInterruptKinds = scanner.NewValidSet(
		scanner.UNORDERED_LIST_MARKER_NO_INTERRUPT,
		scanner.ORDERED_LIST_MARKER_NO_INTERRUPT,
	)

	fenceKinds       = scanner.NewValidSet(scanner.CODE_FENCE_CLOSE, scanner.CODE_CONTENT)
	frontmatterKinds = scanner.NewValidSet(scanner.FRONTMATTER_DELIM)
	tagKinds         = scanner.NewValidSet(scanner.TAG_CLOSE, scanner.TAG_SELF_CLOSE, scanner.TEXT)
	expressionKinds  = scanner.NewValidSet(scanner.EXPRESSION_CLOSE, scanner.TEXT)
)

// StateMachine tracks the block and inline context a grammar would be in and
// turns it into the set of external tokens acceptable at the next position.
type StateMachine struct {
	current      LexerState
	contextStack []Context

	paragraph  bool // a top-level paragraph is open, so list items may not interrupt it
	item       bool // the current line belongs to a list item
	lineMarker bool // a container marker was emitted on the current line

	variant      scanner.Variant
	indentTokens bool
	logger       *slog.Logger
}

// NewStateMachine creates a new state machine
func NewStateMachine(variant scanner.Variant, indentTokens bool) *StateMachine {
	return &StateMachine{
		current:      StateBlock,
		contextStack: make([]Context, 0, 8),
		variant:      variant,
		indentTokens: indentTokens,
	}
}

// Reset returns the state machine to the start of a document
func (sm *StateMachine) Reset() {
	sm.current = StateBlock
	sm.contextStack = sm.contextStack[:0]
	sm.paragraph = false
	sm.item = false
	sm.lineMarker = false
}

// SetLogger enables debug logging of transitions
func (sm *StateMachine) SetLogger(logger *slog.Logger) {
	sm.logger = logger
}

// Current returns the current state
func (sm *StateMachine) Current() LexerState {
	return sm.current
}

// PushContext saves the current context before entering a new one
func (sm *StateMachine) PushContext(ctx Context) {
	sm.contextStack = append(sm.contextStack, ctx)
}

// PopContext restores the previous context
func (sm *StateMachine) PopContext() (Context, error) {
	if len(sm.contextStack) == 0 {
		return Context{}, errContextUnderflow
	}
	ctx := sm.contextStack[len(sm.contextStack)-1]
	sm.contextStack = sm.contextStack[:len(sm.contextStack)-1]
	return ctx, nil
}

// CurrentContext returns the current context without popping
func (sm *StateMachine) CurrentContext() *Context {
	if len(sm.contextStack) == 0 {
		return nil
	}
	return &sm.contextStack[len(sm.contextStack)-1]
}

// Transition moves to a new state
func (sm *StateMachine) Transition(to LexerState) {
	if sm.logger != nil && sm.current != to {
		sm.logger.Debug("lexer state", "from", sm.current, "to", to)
	}
	sm.current = to
}

// Valid returns the external token kinds acceptable at the next position.
func (sm *StateMachine) Valid(sc *scanner.Scanner) scanner.ValidSet {
	switch {
	case sc.InFencedCode():
		return fenceKinds
	case sc.InFrontmatter():
		return frontmatterKinds
	}

	switch sm.current {
	case StateTag:
		return tagKinds
	case StateExpression:
		return expressionKinds
	}

	valid := inlineKinds
	if len(sm.contextStack) < MaxContextDepth {
		valid |= inlineOpeners
	}
	if ctx := sm.CurrentContext(); ctx != nil && ctx.Type == ContextEmphasis {
		valid = valid.With(ctx.Closer)
	}
	// Only an open item continues; a paragraph after the list does not.
	if (sc.InList() && sm.item) || sm.variant == scanner.VariantAsciiDoc {
		valid = valid.With(scanner.LIST_CONTINUATION)
	}

	if sm.current == StateInline {
		valid = valid.With(scanner.HARD_LINE_BREAK)
		if sm.item {
			return valid.With(scanner.PARAGRAPH_CONTINUATION)
		}
		return valid.With(scanner.SOFT_LINE_BREAK)
	}

	valid |= blockKinds
	if sm.paragraph {
		valid |= noInterruptKinds
	} else {
		valid |= listKinds
	}
	if sm.indentTokens {
		valid = valid.With(scanner.INDENT).With(scanner.DEDENT)
	}
	if sm.variant == scanner.VariantAsciiDoc {
		valid = valid.With(scanner.BLOCK_TITLE)
	}
	return valid
}

// HandleToken processes a token and updates state accordingly
func (sm *StateMachine) HandleToken(tok Token) (LexerState, error) {
	switch tok.Type {
	case NEWLINE:
		sm.endLine()
		return sm.current, nil
	case BLANK_LINE:
		sm.endLine()
		sm.paragraph = false
		return sm.current, nil
	case EXTERNAL:
		return sm.handleExternal(tok.Kind)
	default:
		return sm.current, nil
	}
}

func (sm *StateMachine) handleExternal(kind scanner.TokenKind) (LexerState, error) {
	switch kind {
	case scanner.UNORDERED_LIST_MARKER, scanner.ORDERED_LIST_MARKER,
		scanner.INDENTED_UNORDERED_LIST_MARKER, scanner.INDENTED_ORDERED_LIST_MARKER,
		scanner.UNORDERED_LIST_MARKER_NO_INTERRUPT, scanner.ORDERED_LIST_MARKER_NO_INTERRUPT:
		sm.paragraph = false
		sm.item = true
		sm.lineMarker = true
		sm.Transition(StateBlock)

	case scanner.BLOCK_QUOTE_MARKER:
		sm.paragraph = false
		sm.lineMarker = true
		sm.Transition(StateBlock)

	case scanner.LIST_CONTINUATION:
		sm.item = true
		sm.lineMarker = true
		if sm.variant == scanner.VariantAsciiDoc {
			// "+" continuations consume their line
			sm.Transition(StateBlock)
		} else {
			sm.Transition(StateInline)
		}

	case scanner.THEMATIC_BREAK, scanner.CODE_FENCE_OPEN, scanner.CODE_FENCE_CLOSE,
		scanner.CODE_CONTENT, scanner.FRONTMATTER_DELIM, scanner.HTML_BLOCK, scanner.BLOCK_TITLE:
		sm.paragraph = false
		sm.item = false
		sm.clearEmphasis()
		sm.Transition(StateBlock)

	case scanner.INDENT, scanner.DEDENT, scanner.HTML_COMMENT, scanner.COMMENT_BLOCK:

	case scanner.SOFT_LINE_BREAK, scanner.HARD_LINE_BREAK, scanner.PARAGRAPH_CONTINUATION:
		sm.lineMarker = false
		sm.Transition(StateInline)

	case scanner.TAG_OPEN:
		sm.PushContext(Context{Type: ContextTag, State: sm.current, Closer: scanner.TAG_CLOSE})
		sm.Transition(StateTag)

	case scanner.EXPRESSION_OPEN:
		sm.PushContext(Context{Type: ContextExpression, State: sm.current, Closer: scanner.EXPRESSION_CLOSE})
		sm.Transition(StateExpression)

	case scanner.TAG_CLOSE, scanner.TAG_SELF_CLOSE, scanner.EXPRESSION_CLOSE:
		ctx, err := sm.PopContext()
		if err != nil {
			return sm.current, fmt.Errorf("%s: %w", kind, err)
		}
		sm.Transition(ctx.State)

	case scanner.EM_OPEN_STAR, scanner.STRONG_OPEN_STAR, scanner.EM_OPEN_UNDERSCORE, scanner.STRONG_OPEN_UNDERSCORE:
		sm.startInline()
		sm.PushContext(Context{Type: ContextEmphasis, State: StateInline, Closer: closers[kind]})

	case scanner.EM_CLOSE_STAR, scanner.STRONG_CLOSE_STAR, scanner.EM_CLOSE_UNDERSCORE, scanner.STRONG_CLOSE_UNDERSCORE:
		ctx := sm.CurrentContext()
		if ctx == nil || ctx.Type != ContextEmphasis || ctx.Closer != kind {
			return sm.current, fmt.Errorf("%s without matching opener", kind)
		}
		if _, err := sm.PopContext(); err != nil {
			return sm.current, err
		}

	default:
		// TEXT, RAW_DELIM
		sm.startInline()
	}
	return sm.current, nil
}

// startInline moves into paragraph text. Text that follows no container
// marker on its line opens a top-level paragraph.
func (sm *StateMachine) startInline() {
	if sm.current == StateBlock && !sm.lineMarker {
		sm.paragraph = true
		sm.item = false
	}
	sm.Transition(StateInline)
}

// endLine handles a line terminator the scanner did not claim. Tags and
// expressions may span lines; emphasis may not.
func (sm *StateMachine) endLine() {
	sm.lineMarker = false
	if sm.current == StateTag || sm.current == StateExpression {
		return
	}
	sm.clearEmphasis()
	sm.Transition(StateBlock)
}

func (sm *StateMachine) clearEmphasis() {
	kept := sm.contextStack[:0]
	for _, ctx := range sm.contextStack {
		if ctx.Type != ContextEmphasis {
			kept = append(kept, ctx)
		}
	}
	sm.contextStack = kept
}

// host context flag bits
const (
	flagParagraph byte = 1 << iota
	flagItem
	flagLineMarker
)

// MarshalBinary encodes the state machine for a checkpoint:
//
//	STATE(1) | FLAGS(1) | DEPTH(1) | DEPTH * (TYPE(1) | STATE(1) | CLOSER(1))
func (sm *StateMachine) MarshalBinary() ([]byte, error) {
	var flags byte
	if sm.paragraph {
		flags |= flagParagraph
	}
	if sm.item {
		flags |= flagItem
	}
	if sm.lineMarker {
		flags |= flagLineMarker
	}

	buf := make([]byte, 0, 3+3*len(sm.contextStack))
	buf = append(buf, byte(sm.current), flags, byte(len(sm.contextStack)))
	for _, ctx := range sm.contextStack {
		buf = append(buf, byte(ctx.Type), byte(ctx.State), byte(ctx.Closer))
	}
	return buf, nil
}

// UnmarshalBinary restores a state machine written by MarshalBinary. On
// error sm is left unchanged.
func (sm *StateMachine) UnmarshalBinary(data []byte) error {
	if len(data) < 3 {
		return fmt.Errorf("%w: %d bytes", errHostContext, len(data))
	}
	current := LexerState(data[0])
	flags := data[1]
	depth := int(data[2])
	if current > StateExpression || depth > MaxContextDepth || len(data) != 3+3*depth {
		return fmt.Errorf("%w: state %d depth %d length %d", errHostContext, current, depth, len(data))
	}

	stack := make([]Context, 0, max(depth, 8))
	for i := 0; i < depth; i++ {
		b := data[3+3*i:]
		ctx := Context{Type: ContextType(b[0]), State: LexerState(b[1]), Closer: scanner.TokenKind(b[2])}
		if ctx.Type > ContextExpression || ctx.State > StateExpression {
			return fmt.Errorf("%w: context %d", errHostContext, i)
		}
		stack = append(stack, ctx)
	}

	sm.current = current
	sm.paragraph = flags&flagParagraph != 0
	sm.item = flags&flagItem != 0
	sm.lineMarker = flags&flagLineMarker != 0
	sm.contextStack = stack
	return nil
}
