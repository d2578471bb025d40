package parser

import (
	"github.com/heathj/htmllint/parser/dom"
)

// EventKind names an event emitted while parsing.
type EventKind uint8

const (
	// DOMLoad fires once before the first token is read.
	DOMLoad EventKind = iota + 1
	// TokenEvent fires for every token read from the lexer.
	TokenEvent
	// TagStart fires when an element is opened, before its attributes
	// are attached.
	TagStart
	// Attr fires for each attribute before it is attached to its element.
	Attr
	// TagReady fires once all attributes of a start tag are attached.
	TagReady
	// TagEnd fires when an element is closed. Target is nil when the
	// element was closed by the end of the document.
	TagEnd
	// ElementReady fires after an element and all its children are done.
	ElementReady
	Whitespace
	Doctype
	Comment
	Conditional
	Directive
	// DOMReady fires once, after every other event.
	DOMReady
)

var eventKindNames = map[EventKind]string{
	DOMLoad:      "dom:load",
	TokenEvent:   "token",
	TagStart:     "tag:start",
	Attr:         "attr",
	TagReady:     "tag:ready",
	TagEnd:       "tag:end",
	ElementReady: "element:ready",
	Whitespace:   "whitespace",
	Doctype:      "doctype",
	Comment:      "comment",
	Conditional:  "conditional",
	Directive:    "directive",
	DOMReady:     "dom:ready",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind returns the kind named name, e.g. "tag:start".
func ParseEventKind(name string) (EventKind, bool) {
	for kind, n := range eventKindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// DirectiveData is the content of an inline configuration comment such as
// <!-- [htmllint-disable-next close-order: reason] -->.
type DirectiveData struct {
	Action  string
	Data    string
	Comment string
}

// Event is passed to listeners. Which fields are set depends on Kind.
type Event struct {
	Kind     EventKind
	Location dom.Location

	// Source is set for dom:load.
	Source *Source
	// Token is set for token events.
	Token *Token
	// Target is the element the event is about: the opened element for
	// tag:start and tag:ready, the owner for attr, the element built from
	// the closing tag for tag:end, the finished element for element:ready
	// and the element containing a directive.
	Target *dom.Node
	// Previous is the element that was active when tag:end fired, i.e.
	// the element actually being closed.
	Previous *dom.Node
	// Attribute is set for attr events. It has not been attached yet.
	Attribute *dom.Attribute
	// Text is the whitespace, comment text, doctype value or condition.
	Text string
	// Directive is set for directive events.
	Directive *DirectiveData
	// Document is set for dom:ready.
	Document *dom.Document
}

type Listener func(ev *Event)

// Listeners is the registry of callbacks for one parse. A registry must not
// be shared between concurrent parses.
type Listeners struct {
	byKind   map[EventKind][]Listener
	catchAll []Listener
}

func NewListeners() *Listeners {
	return &Listeners{byKind: map[EventKind][]Listener{}}
}

// On registers fn for the given kinds.
func (l *Listeners) On(fn Listener, kinds ...EventKind) {
	for _, kind := range kinds {
		l.byKind[kind] = append(l.byKind[kind], fn)
	}
}

// OnAny registers fn for every event.
func (l *Listeners) OnAny(fn Listener) {
	l.catchAll = append(l.catchAll, fn)
}

// Trigger calls the listeners of the event kind, in registration order,
// followed by the catch-all listeners.
func (l *Listeners) Trigger(ev *Event) {
	if l == nil {
		return
	}
	for _, fn := range l.byKind[ev.Kind] {
		fn(ev)
	}
	for _, fn := range l.catchAll {
		fn(ev)
	}
}
