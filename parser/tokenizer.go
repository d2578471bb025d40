package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/heathj/htmllint/parser/dom"
)

type lexerState uint8

const (
	initialState lexerState = iota
	doctypeState
	textState
	tagState
	attrState
	scriptState
	styleState
)

var (
	matchBOM          = regexp.MustCompile(`^\x{FEFF}`)
	matchWhitespace   = regexp.MustCompile(`^(?:\r\n|\r|\n|[ \t]+(?:\r\n|\r|\n)?)`)
	matchDoctypeOpen  = regexp.MustCompile(`^<!((?i)DOCTYPE)\s`)
	matchDoctypeValue = regexp.MustCompile(`^[^>]+`)
	matchDoctypeClose = regexp.MustCompile(`^>`)
	matchXMLTag       = regexp.MustCompile(`^<\?xml.*?\?>\s*`)
	matchTagOpen      = regexp.MustCompile(`^<(/?)([a-zA-Z0-9\-:]+)`)
	matchTagClose     = regexp.MustCompile(`^/?>`)
	matchAttrStart    = regexp.MustCompile(`^([^\t\r\n\f \/><"'=]+)`)
	matchAttrSingle   = regexp.MustCompile(`^(\s*=\s*)'([^']*)(')`)
	matchAttrDouble   = regexp.MustCompile(`^(\s*=\s*)"([^"]*)(")`)
	matchAttrUnquoted = regexp.MustCompile(`^(\s*=\s*)([^\t\r\n\f "'<>][^\t\r\n\f <>]*)()`)
	matchOpenQuote    = regexp.MustCompile(`^\s*=\s*['"]`)
	matchCDATA        = regexp.MustCompile(`(?s)^<!\[CDATA\[.*?\]\]>`)
	matchCDATABegin   = regexp.MustCompile(`^<!\[CDATA\[`)
	matchScriptEnd    = regexp.MustCompile(`^<(/)((?i)script)`)
	matchScriptData   = regexp.MustCompile(`(?i)</script\s*>`)
	matchStyleEnd     = regexp.MustCompile(`^<(/)((?i)style)`)
	matchStyleData    = regexp.MustCompile(`(?i)</style\s*>`)
	matchDirective    = regexp.MustCompile(`^(<!--\s*\[(?:htmllint|html-validate)-)([a-z0-9-]+)(\s*)(.*?)(\]?\s*-->)`)
	matchComment      = regexp.MustCompile(`(?s)^<!--(.*?)-->`)
	matchCommentBegin = regexp.MustCompile(`^<!--`)
	matchConditional  = regexp.MustCompile(`^<!\[([^\]]*?)\]>`)
	matchTemplating   = regexp.MustCompile(`(?s)^(?:<%.*?%>|<\?.*?\?>|<\$.*?\$>)`)
)

// Lexer splits a source into tokens. It is a forward only pull iterator
// with a single token of lookahead; it cannot be restarted.
type Lexer struct {
	data  string
	pos   int
	loc   dom.Location
	state lexerState
	model ContentModel
	// rawToEOF is set when lexing starts inside a script or style body, in
	// which case the body may run until the end of the source.
	rawToEOF bool

	peeked *Token
	err    error
	done   bool
}

// NewLexer creates a lexer positioned at the start of src. model selects the
// content model the source starts in, normally ContentText.
func NewLexer(src Source, model ContentModel) *Lexer {
	l := &Lexer{
		data:  src.Data,
		loc:   src.startLocation(),
		model: model,
	}
	switch model {
	case ContentScript:
		l.state, l.rawToEOF = scriptState, true
	case ContentStyle:
		l.state, l.rawToEOF = styleState, true
	default:
		l.state = initialState
	}
	return l
}

// Next returns the next token. ok is false once the EOF token has been
// returned or lexing failed; Err tells the two apart.
func (l *Lexer) Next() (Token, bool) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, true
	}
	return l.scan()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, bool) {
	if l.peeked != nil {
		return *l.peeked, true
	}
	tok, ok := l.scan()
	if !ok {
		return Token{}, false
	}
	l.peeked = &tok
	return tok, true
}

// Err returns the error that stopped the lexer, if any.
func (l *Lexer) Err() error {
	return l.err
}

// Tokenize drains the lexer.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, ok := l.Next()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, l.err
}

func (l *Lexer) stateToLexer(state lexerState) func() (Token, bool) {
	switch state {
	case initialState:
		return l.lexInitial
	case doctypeState:
		return l.lexDoctype
	case tagState:
		return l.lexTag
	case attrState:
		return l.lexAttr
	case scriptState:
		return l.lexScript
	case styleState:
		return l.lexStyle
	default:
		return l.lexText
	}
}

func (l *Lexer) scan() (Token, bool) {
	if l.done || l.err != nil {
		return Token{}, false
	}
	if l.pos >= len(l.data) {
		l.done = true
		loc := l.loc
		loc.Size = 0
		return Token{Kind: TokenEOF, Data: []string{""}, Location: loc}, true
	}
	for {
		state := l.state
		tok, ok := l.stateToLexer(state)()
		if ok || l.err != nil {
			return tok, ok
		}
		// the state handler switched state without consuming input
		if l.state == state {
			l.fail("unexpected lexer state")
			return Token{}, false
		}
	}
}

func (l *Lexer) rest() string {
	return l.data[l.pos:]
}

func (l *Lexer) match(re *regexp.Regexp) []string {
	m := re.FindStringSubmatch(l.rest())
	if m == nil || m[0] == "" {
		return nil
	}
	return m
}

func (l *Lexer) emit(kind TokenKind, data []string, next lexerState) (Token, bool) {
	loc := l.loc
	loc.Size = len(data[0])
	l.loc = l.loc.Advance(data[0], 0)
	l.pos += len(data[0])
	l.state = next
	return Token{Kind: kind, Data: data, Location: loc}, true
}

// fail stops the lexer with an error describing the remaining input.
func (l *Lexer) fail(message string) {
	loc := l.loc
	loc.Size = 1
	l.err = newParseError(loc, "failed to tokenize %q, %s", truncatedLine(l.rest()), message)
}

func truncatedLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	if utf8.RuneCountInString(s) > 13 {
		runes := []rune(s)
		return string(runes[:10]) + "..."
	}
	return s
}

func (l *Lexer) lexInitial() (Token, bool) {
	if m := l.match(matchBOM); m != nil {
		return l.emit(TokenBOM, m, initialState)
	}
	if m := l.match(matchWhitespace); m != nil {
		return l.emit(TokenWhitespace, m, initialState)
	}
	if m := l.match(matchDoctypeOpen); m != nil {
		return l.emit(TokenDoctypeOpen, m, doctypeState)
	}
	if m := l.match(matchXMLTag); m != nil {
		return l.emit(TokenXMLDeclaration, m, initialState)
	}
	if tok, ok, matched := l.lexMarkupComment(initialState); matched {
		return tok, ok
	}
	l.state = textState
	return Token{}, false
}

func (l *Lexer) lexDoctype() (Token, bool) {
	if m := l.match(matchDoctypeValue); m != nil {
		return l.emit(TokenDoctypeValue, m, doctypeState)
	}
	if m := l.match(matchDoctypeClose); m != nil {
		return l.emit(TokenDoctypeClose, m, textState)
	}
	l.fail("expected doctype value or '>'")
	return Token{}, false
}

// lexMarkupComment matches comments, directives and conditionals. matched
// is false when the input starts with none of them.
func (l *Lexer) lexMarkupComment(next lexerState) (tok Token, ok bool, matched bool) {
	if m := l.match(matchDirective); m != nil {
		tok, ok = l.emit(TokenDirective, m, next)
		return tok, ok, true
	}
	if m := l.match(matchConditional); m != nil {
		tok, ok = l.emit(TokenConditional, m, next)
		return tok, ok, true
	}
	if m := l.match(matchComment); m != nil {
		tok, ok = l.emit(TokenComment, m, next)
		return tok, ok, true
	}
	if l.match(matchCommentBegin) != nil {
		l.fail("unterminated comment, expected '-->'")
		return Token{}, false, true
	}
	return Token{}, false, false
}

func (l *Lexer) lexText() (Token, bool) {
	if m := l.match(matchWhitespace); m != nil {
		return l.emit(TokenWhitespace, m, textState)
	}
	if m := l.match(matchCDATA); m != nil {
		return l.emit(TokenCDATA, m, textState)
	}
	if l.match(matchCDATABegin) != nil {
		l.fail("unterminated CDATA section, expected ']]>'")
		return Token{}, false
	}
	if tok, ok, matched := l.lexMarkupComment(textState); matched {
		return tok, ok
	}
	if m := l.match(matchTemplating); m != nil {
		return l.emit(TokenTemplating, m, textState)
	}
	if m := l.match(matchTagOpen); m != nil {
		l.enterTag(m)
		return l.emit(TokenTagOpen, m, tagState)
	}

	rest := l.rest()
	n := textEnd(rest)
	if n == 0 {
		// a '<' not starting any markup is plain text
		n = 1 + textEnd(rest[1:])
	}
	return l.emit(TokenText, []string{rest[:n]}, textState)
}

// enterTag selects the content model for the body following a tag.
func (l *Lexer) enterTag(m []string) {
	if m[1] == "/" {
		l.model = ContentText
		return
	}
	switch strings.ToLower(m[2]) {
	case "script":
		l.model = ContentScript
	case "style":
		l.model = ContentStyle
	default:
		l.model = ContentText
	}
}

// textEnd returns the length of the text run at the start of s. Text ends
// before whitespace leading up to a newline, before a '<' followed by
// anything but a space, or at the end of s.
func textEnd(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r', '\n':
			return i
		case '<':
			if i+1 < len(s) && s[i+1] != ' ' {
				return i
			}
		case ' ', '\t':
			j := i
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j < len(s) && (s[j] == '\r' || s[j] == '\n') {
				return i
			}
			i = j - 1
		}
	}
	return len(s)
}

func (l *Lexer) lexTag() (Token, bool) {
	if m := l.match(matchTagClose); m != nil {
		next := textState
		if m[0] == ">" {
			switch l.model {
			case ContentScript:
				next = scriptState
			case ContentStyle:
				next = styleState
			}
		} else {
			l.model = ContentText
		}
		return l.emit(TokenTagClose, m, next)
	}
	if m := l.match(matchAttrStart); m != nil {
		return l.emit(TokenAttrName, m, attrState)
	}
	if m := l.match(matchWhitespace); m != nil {
		return l.emit(TokenWhitespace, m, tagState)
	}
	l.fail(`expected attribute, ">" or "/>"`)
	return Token{}, false
}

func (l *Lexer) lexAttr() (Token, bool) {
	for _, re := range []*regexp.Regexp{matchAttrSingle, matchAttrDouble, matchAttrUnquoted} {
		if m := l.match(re); m != nil {
			return l.emit(TokenAttrValue, m, tagState)
		}
	}
	if l.match(matchOpenQuote) != nil {
		l.fail("unterminated quoted attribute value")
		return Token{}, false
	}
	l.state = tagState
	return Token{}, false
}

func (l *Lexer) lexScript() (Token, bool) {
	return l.lexRaw(TokenScript, matchScriptEnd, matchScriptData, "script")
}

func (l *Lexer) lexStyle() (Token, bool) {
	return l.lexRaw(TokenStyle, matchStyleEnd, matchStyleData, "style")
}

func (l *Lexer) lexRaw(kind TokenKind, end, data *regexp.Regexp, tagName string) (Token, bool) {
	if m := l.match(end); m != nil {
		l.model = ContentText
		return l.emit(TokenTagOpen, m, tagState)
	}
	rest := l.rest()
	if loc := data.FindStringIndex(rest); loc != nil {
		return l.emit(kind, []string{rest[:loc[0]]}, l.state)
	}
	if l.rawToEOF {
		return l.emit(kind, []string{rest}, l.state)
	}
	l.fail("expected </" + tagName + ">")
	return Token{}, false
}
