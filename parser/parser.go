package parser

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

// Hooks let the caller of a source adjust what the parser builds.
type Hooks struct {
	// ProcessAttribute may rewrite an attribute before it is attached, or
	// return additional attributes derived from it, e.g. a dynamic "class"
	// for a templated ":class". Returning nil drops the attribute.
	ProcessAttribute func(attr *dom.Attribute) []*dom.Attribute
	// ProcessElement is called once the attributes of a start tag are
	// attached, before any child is.
	ProcessElement func(node *dom.Node)
}

// Source is one document to parse. Line, Column and Offset locate Data
// inside a larger file, e.g. markup extracted from a template; Line and
// Column default to 1.
type Source struct {
	Data     string
	Filename string
	Line     int
	Column   int
	Offset   int
	Hooks    *Hooks
}

func (s Source) startLocation() dom.Location {
	loc := dom.Location{
		Filename: s.Filename,
		Offset:   s.Offset,
		Line:     s.Line,
		Column:   s.Column,
	}
	if loc.Line == 0 {
		loc.Line = 1
	}
	if loc.Column == 0 {
		loc.Column = 1
	}
	return loc
}

type Parser struct {
	table     *meta.Table
	listeners *Listeners
	log       *logrus.Entry
}

type Option func(*Parser)

// WithLogger sets the entry the parser logs to.
func WithLogger(log *logrus.Entry) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// NewParser creates a parser resolving element metadata from table and
// emitting events to listeners. Either may be nil.
func NewParser(table *meta.Table, listeners *Listeners, opts ...Option) *Parser {
	p := &Parser{
		table:     table,
		listeners: listeners,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run is the state of a single Parse call.
type run struct {
	*Parser
	src    Source
	lexer  *Lexer
	doc    *dom.Document
	stack  *dom.ActiveStack
	tokens int
}

// Parse builds the tree for src while emitting events. A *ParseError is
// returned when the source cannot be tokenized or ends inside a tag.
func (p *Parser) Parse(src Source) (*dom.Document, error) {
	r := &run{
		Parser: p,
		src:    src,
		lexer:  NewLexer(src, ContentText),
		doc:    dom.NewDocument(src.startLocation()),
	}
	r.stack = dom.NewActiveStack(r.doc.Root)

	log := p.log.WithField("filename", src.Filename)
	log.Debug("parsing source")

	r.trigger(&Event{Kind: DOMLoad, Location: src.startLocation(), Source: &r.src})
	if err := r.parse(); err != nil {
		log.WithError(err).Debug("parsing failed")
		return nil, err
	}
	r.trigger(&Event{Kind: DOMReady, Location: r.lexer.loc, Document: r.doc})

	log.WithField("tokens", r.tokens).Debug("parsed source")
	return r.doc, nil
}

func (r *run) trigger(ev *Event) {
	r.listeners.Trigger(ev)
}

// next reads the next token, emitting a token event for it.
func (r *run) next() (Token, bool) {
	tok, ok := r.lexer.Next()
	if !ok {
		return tok, false
	}
	r.tokens++
	r.trigger(&Event{Kind: TokenEvent, Location: tok.Location, Token: &tok})
	return tok, true
}

func (r *run) parse() error {
	for {
		tok, ok := r.next()
		if !ok {
			return r.lexer.Err()
		}
		if err := r.consume(tok); err != nil {
			return err
		}
		if tok.Kind == TokenEOF {
			return nil
		}
	}
}

func (r *run) consume(tok Token) error {
	switch tok.Kind {
	case TokenWhitespace:
		r.trigger(&Event{Kind: Whitespace, Location: tok.Location, Text: tok.Raw()})
		r.appendText(tok)
	case TokenText, TokenTemplating, TokenScript, TokenStyle, TokenCDATA:
		r.appendText(tok)
	case TokenDoctypeOpen:
		return r.consumeDoctype(tok)
	case TokenTagOpen:
		return r.consumeTag(tok)
	case TokenComment:
		r.consumeComment(tok)
	case TokenConditional:
		r.trigger(&Event{Kind: Conditional, Location: tok.Location, Text: tok.group(1)})
	case TokenDirective:
		r.consumeDirective(tok)
	case TokenEOF:
		r.closeTree(tok.Location)
	}
	return nil
}

func (r *run) appendText(tok Token) {
	r.stack.Active().AppendText(tok.Raw(), tok.Location)
}

// consumeUntil collects tokens up to and including the first token of kind.
// When the source ends first the error points at errLoc.
func (r *run) consumeUntil(kind TokenKind, errLoc dom.Location) ([]Token, error) {
	var tokens []Token
	for {
		tok, ok := r.next()
		if !ok {
			if err := r.lexer.Err(); err != nil {
				return nil, err
			}
			break
		}
		tokens = append(tokens, tok)
		if tok.Kind == kind {
			return tokens, nil
		}
		if tok.Kind == TokenEOF {
			break
		}
	}
	return nil, newParseError(errLoc, "stream ended before %s token was found", kind)
}

func (r *run) consumeDoctype(start Token) error {
	tokens, err := r.consumeUntil(TokenDoctypeClose, start.Location)
	if err != nil {
		return err
	}
	var value string
	for _, tok := range tokens {
		if tok.Kind == TokenDoctypeValue {
			value = strings.TrimSpace(tok.Raw())
		}
	}
	r.doc.Doctype = value
	r.trigger(&Event{Kind: Doctype, Location: start.Location, Text: value})
	return nil
}

func (r *run) consumeTag(start Token) error {
	tokens, err := r.consumeUntil(TokenTagClose, start.Location)
	if err != nil {
		return err
	}
	end := tokens[len(tokens)-1]

	closeOptional := r.closeOptional(start)
	node := nodeFromTokens(start, end, r.table)
	isStartTag := !start.IsEndTag()
	isClosing := !isStartTag || node.State != dom.Open

	if closeOptional {
		active := r.stack.Active()
		active.State = dom.ImplicitClosed
		r.closeElement(node, active, start.Location)
		r.stack.Pop()
	}

	if isStartTag {
		r.stack.Active().AppendChild(node)
		r.stack.Push(node)
		r.trigger(&Event{Kind: TagStart, Location: start.Location, Target: node})
	}

	for i, tok := range tokens {
		if tok.Kind != TokenAttrName {
			continue
		}
		var next *Token
		if i+1 < len(tokens) {
			next = &tokens[i+1]
		}
		r.consumeAttribute(node, tok, next)
	}

	if isStartTag {
		if r.src.Hooks != nil && r.src.Hooks.ProcessElement != nil {
			r.src.Hooks.ProcessElement(node)
		}
		r.trigger(&Event{Kind: TagReady, Location: end.Location, Target: node})
	}

	switch {
	case !isStartTag && node.VoidElement():
		// an end tag of a void element closes nothing, the void element
		// was closed when it was opened
		r.trigger(&Event{Kind: TagEnd, Location: end.Location, Target: node})
	case isClosing:
		r.closeElement(node, r.stack.Active(), end.Location)
		r.stack.Pop()
	}

	if isStartTag && node.State == dom.Open && node.Meta != nil && node.Meta.Foreign {
		return r.discardForeignBody(node, start.Location)
	}
	return nil
}

// closeOptional reports whether the active element is implicitly closed by
// the tag being opened, or by its parent being closed.
func (r *run) closeOptional(start Token) bool {
	active := r.stack.Active()
	if active.Meta == nil || len(active.Meta.ImplicitClosed) == 0 {
		return false
	}
	tagName := start.TagName()
	if !start.IsEndTag() {
		return contains(active.Meta.ImplicitClosed, tagName)
	}
	if active.Is(tagName) {
		return false
	}
	parent := active.ParentNode
	return parent != nil && parent.Is(tagName) && contains(active.Meta.ImplicitClosed, active.TagName())
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// closeElement emits tag:end for the element active being closed by node,
// which is nil when the document ended, followed by element:ready.
func (r *run) closeElement(node, active *dom.Node, loc dom.Location) {
	r.trigger(&Event{Kind: TagEnd, Location: loc, Target: node, Previous: active})
	if active != nil && !active.IsRootElement() {
		r.trigger(&Event{Kind: ElementReady, Location: active.Location, Target: active})
	}
}

// closeTree closes every element still open at the end of the document,
// innermost first.
func (r *run) closeTree(loc dom.Location) {
	for r.stack.Len() > 0 {
		r.closeElement(nil, r.stack.Active(), loc)
		r.stack.Pop()
	}
}

func (r *run) consumeAttribute(node *dom.Node, name Token, next *Token) {
	attrs := []*dom.Attribute{attributeFromTokens(name, next)}
	if r.src.Hooks != nil && r.src.Hooks.ProcessAttribute != nil {
		attrs = r.src.Hooks.ProcessAttribute(attrs[0])
	}
	for _, attr := range attrs {
		r.trigger(&Event{
			Kind:      Attr,
			Location:  attr.KeyLocation,
			Target:    node,
			Attribute: attr,
		})
		node.SetAttribute(attr)
	}
}

// discardForeignBody skips the content of a foreign element such as <svg>
// up to its matching end tag, which then closes the element.
func (r *run) discardForeignBody(node *dom.Node, errLoc dom.Location) error {
	level := 1
	var start, end Token
	for level > 0 {
		tokens, err := r.consumeUntil(TokenTagOpen, errLoc)
		if err != nil {
			return err
		}
		start = tokens[len(tokens)-1]
		if start.TagName() != node.TagName() {
			continue
		}
		closing, err := r.consumeUntil(TokenTagClose, start.Location)
		if err != nil {
			return err
		}
		end = closing[len(closing)-1]
		switch {
		case start.IsEndTag():
			level--
		case !end.IsSelfClosing():
			level++
		}
	}

	endNode := nodeFromTokens(start, end, r.table)
	r.closeElement(endNode, r.stack.Active(), end.Location)
	r.stack.Pop()
	return nil
}

var matchDirectiveData = regexp.MustCompile(`^([^:]*?)\s*(?::\s*(.*))?$`)

func (r *run) consumeDirective(tok Token) {
	data := strings.TrimSpace(tok.group(4))
	directive := &DirectiveData{Action: tok.group(2), Data: data}
	if m := matchDirectiveData.FindStringSubmatch(data); m != nil {
		directive.Data, directive.Comment = m[1], m[2]
	}
	r.trigger(&Event{
		Kind:      Directive,
		Location:  tok.Location,
		Target:    r.stack.Active(),
		Directive: directive,
	})
}

var matchConditionalComment = regexp.MustCompile(`^\[(if [^\]]*)\]>|<!\[(endif)\]$`)

func (r *run) consumeComment(tok Token) {
	text := tok.group(1)
	r.trigger(&Event{Kind: Comment, Location: tok.Location, Text: text})
	for _, m := range matchConditionalComment.FindAllStringSubmatch(text, -1) {
		condition := m[1]
		if condition == "" {
			condition = m[2]
		}
		r.trigger(&Event{Kind: Conditional, Location: tok.Location, Text: condition})
	}
}
