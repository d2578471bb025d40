package parser

import (
	"strings"

	"github.com/heathj/htmllint/parser/dom"
)

// TokenKind is the type of a lexed token.
type TokenKind uint8

const (
	TokenWhitespace TokenKind = iota + 1
	TokenBOM
	TokenDoctypeOpen
	TokenDoctypeValue
	TokenDoctypeClose
	TokenXMLDeclaration
	TokenTagOpen
	TokenTagClose
	TokenAttrName
	TokenAttrValue
	TokenText
	TokenTemplating
	TokenScript
	TokenStyle
	TokenComment
	TokenConditional
	TokenDirective
	TokenCDATA
	TokenEOF
)

var tokenKindNames = map[TokenKind]string{
	TokenWhitespace:     "WHITESPACE",
	TokenBOM:            "UNICODE_BOM",
	TokenDoctypeOpen:    "DOCTYPE_OPEN",
	TokenDoctypeValue:   "DOCTYPE_VALUE",
	TokenDoctypeClose:   "DOCTYPE_CLOSE",
	TokenXMLDeclaration: "XML_DECLARATION",
	TokenTagOpen:        "TAG_OPEN",
	TokenTagClose:       "TAG_CLOSE",
	TokenAttrName:       "ATTR_NAME",
	TokenAttrValue:      "ATTR_VALUE",
	TokenText:           "TEXT",
	TokenTemplating:     "TEMPLATING",
	TokenScript:         "SCRIPT",
	TokenStyle:          "STYLE",
	TokenComment:        "COMMENT",
	TokenConditional:    "CONDITIONAL",
	TokenDirective:      "DIRECTIVE",
	TokenCDATA:          "CDATA",
	TokenEOF:            "EOF",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a single lexed token. Data holds the full match followed by the
// capture groups of the kind:
//
//	TAG_OPEN      [raw, "/" or "", tag name]
//	TAG_CLOSE     [raw]  raw is ">" or "/>"
//	ATTR_NAME     [raw, name]
//	ATTR_VALUE    [raw, "=" with surrounding space, value, quote or ""]
//	COMMENT       [raw, comment text]
//	CONDITIONAL   [raw, condition]
//	DIRECTIVE     [raw, prefix, action, separator, data, suffix]
//	DOCTYPE_OPEN  [raw, "DOCTYPE"]
//
// All other kinds only carry the raw match.
type Token struct {
	Kind     TokenKind
	Data     []string
	Location dom.Location
}

// Raw is the source text of the token.
func (t Token) Raw() string {
	if len(t.Data) == 0 {
		return ""
	}
	return t.Data[0]
}

func (t Token) group(i int) string {
	if i < len(t.Data) {
		return t.Data[i]
	}
	return ""
}

// TagName returns the lowercased tag name of a TAG_OPEN token.
func (t Token) TagName() string {
	return strings.ToLower(t.group(2))
}

// IsEndTag is true for TAG_OPEN tokens of an end tag, e.g. "</div".
func (t Token) IsEndTag() bool {
	return t.Kind == TokenTagOpen && t.group(1) == "/"
}

// IsSelfClosing is true for "/>" TAG_CLOSE tokens.
func (t Token) IsSelfClosing() bool {
	return t.Kind == TokenTagClose && t.Raw() == "/>"
}

// ContentModel selects how the lexer treats text after an open tag.
type ContentModel uint8

const (
	// ContentText tokenizes markup normally.
	ContentText ContentModel = iota
	// ContentScript captures raw text until </script>.
	ContentScript
	// ContentStyle captures raw text until </style>.
	ContentStyle
)

func (m ContentModel) String() string {
	switch m {
	case ContentScript:
		return "script"
	case ContentStyle:
		return "style"
	}
	return "text"
}
