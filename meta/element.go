package meta

import (
	"regexp"
	"strings"
)

// Node is the view of a document node that metadata predicates evaluate.
type Node interface {
	TagName() string
	HasAttribute(key string) bool
	// AttributeValue returns the static value; ok is false when the
	// attribute is missing, valueless or dynamic.
	AttributeValue(key string) (value string, ok bool)
	HasAncestor(tagName string) bool
}

// Property is a content category or flag that may depend on the node.
// Constant declarations are normalized into a Property at load time.
type Property func(n Node) bool

// Constant wraps a fixed value as a Property.
func Constant(value bool) Property {
	return func(Node) bool { return value }
}

var never = Constant(false)

// Naming is whether an element may carry an accessible name.
type Naming uint8

const (
	NamingAllowed Naming = iota
	NamingProhibited
)

func (n Naming) String() string {
	if n == NamingProhibited {
		return "prohibited"
	}
	return "allowed"
}

// Aria holds the ARIA behaviour of an element. Both fields are always set
// after loading, regardless of how they were declared.
type Aria struct {
	ImplicitRole func(n Node) string
	Naming       func(n Node) Naming
}

// TextContent is the policy for text inside an element.
type TextContent uint8

const (
	TextContentDefault TextContent = iota
	TextContentNone
	TextContentRequired
	TextContentAccessible
)

var textContentNames = map[string]TextContent{
	"default":    TextContentDefault,
	"none":       TextContentNone,
	"required":   TextContentRequired,
	"accessible": TextContentAccessible,
}

// FormAssociated flags elements that take part in forms.
type FormAssociated struct {
	Disablable bool
	Listed     bool
}

// EnumValue is either a literal, matched case-insensitively, or a pattern,
// matched case-sensitively.
type EnumValue struct {
	Literal string
	Pattern *regexp.Regexp
}

// Match tests a single value against the enum entry.
func (e EnumValue) Match(value string) bool {
	if e.Pattern != nil {
		return e.Pattern.MatchString(value)
	}
	return strings.EqualFold(e.Literal, value)
}

func (e EnumValue) String() string {
	if e.Pattern != nil {
		return "/" + e.Pattern.String() + "/"
	}
	return e.Literal
}

// Attribute is the rule for one attribute of an element.
type Attribute struct {
	Boolean    bool
	Omit       bool
	List       bool
	Deprecated bool
	Required   bool
	// Enum is nil when any value is accepted.
	Enum []EnumValue
}

// Element is the metadata for one tag name. Elements are immutable once
// their table has been initialized.
type Element struct {
	TagName string
	Inherit string

	Metadata         Property
	Flow             Property
	Sectioning       Property
	Heading          Property
	Phrasing         Property
	Embedded         Property
	Interactive      Property
	ScriptSupporting Property
	Form             Property
	Labelable        Property
	Focusable        Property

	Void        bool
	Foreign     bool
	Deprecated  bool
	Transparent bool

	ImplicitClosed       []string
	Attributes           map[string]*Attribute
	RequiredAttributes   []string
	DeprecatedAttributes []string

	// A nil Permitted means "no restriction", an empty one "nothing".
	PermittedContent     Permitted
	PermittedDescendants Permitted
	PermittedParent      Permitted
	PermittedOrder       []Entry
	RequiredAncestors    []string
	RequiredContent      []Entry

	TextContent    TextContent
	FormAssociated *FormAssociated
	Aria           Aria
}

func newElement(tagName string) *Element {
	return &Element{
		TagName:          tagName,
		Metadata:         never,
		Flow:             never,
		Sectioning:       never,
		Heading:          never,
		Phrasing:         never,
		Embedded:         never,
		Interactive:      never,
		ScriptSupporting: never,
		Form:             never,
		Labelable:        never,
		Focusable:        never,
		Attributes:       map[string]*Attribute{},
		Aria: Aria{
			ImplicitRole: func(Node) string { return "" },
			Naming:       func(Node) Naming { return NamingAllowed },
		},
	}
}

// clone copies the element so the copy can be modified without touching
// the original. Slices are shared since they are never mutated in place.
func (e *Element) clone(tagName string) *Element {
	c := *e
	c.TagName = tagName
	c.Attributes = make(map[string]*Attribute, len(e.Attributes))
	for k, v := range e.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// Category returns the predicate backing a content category.
func (e *Element) Category(c Category) Property {
	switch c {
	case CategoryMetadata:
		return e.Metadata
	case CategoryFlow:
		return e.Flow
	case CategorySectioning:
		return e.Sectioning
	case CategoryHeading:
		return e.Heading
	case CategoryPhrasing:
		return e.Phrasing
	case CategoryEmbedded:
		return e.Embedded
	case CategoryInteractive:
		return e.Interactive
	case CategoryScriptSupporting:
		return e.ScriptSupporting
	case CategoryForm:
		return e.Form
	}
	return never
}
