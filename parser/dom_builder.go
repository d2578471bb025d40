package parser

import (
	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

// nodeFromTokens builds the element for a tag open token and the tag close
// token ending it. The node location starts after the "<", so for an end
// tag it points at the "/".
func nodeFromTokens(start, end Token, table *meta.Table) *dom.Node {
	tagName := start.TagName()
	m := table.Get(tagName)
	loc := start.Location.Advance("<", len(start.Raw())-1)
	return dom.NewElement(tagName, m, openState(start, end, m), loc)
}

func openState(start, end Token, m *meta.Element) dom.OpenState {
	switch {
	case start.IsEndTag():
		return dom.EndTag
	case m != nil && m.Void:
		return dom.Void
	case end.IsSelfClosing():
		return dom.SelfClosed
	}
	return dom.Open
}

// attributeFromTokens builds an attribute from its name token and the token
// following it, which is only used when it is the value.
func attributeFromTokens(name Token, next *Token) *dom.Attribute {
	attr := &dom.Attribute{
		Key:         name.group(1),
		KeyLocation: name.Location,
	}
	if next == nil || next.Kind != TokenAttrValue {
		return attr
	}

	value, quote := next.group(2), next.group(3)
	attr.Value = &value
	skipped := next.group(1)
	if quote != "" {
		attr.Quote = rune(quote[0])
		skipped += quote
	}
	valueLoc := next.Location.Advance(skipped, len(value))
	attr.ValueLocation = &valueLoc
	return attr
}
