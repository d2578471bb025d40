package rules

import (
	"fmt"
	"strings"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/parser/dom"
	"github.com/heathj/htmllint/validator"
)

var namingAttributes = []string{"aria-label", "aria-labelledby"}

// ariaLabelMisuse flags accessible names on elements which cannot be
// named.
type ariaLabelMisuse struct{}

func (ariaLabelMisuse) Name() string { return "aria-label-misuse" }

func (ariaLabelMisuse) Description() string {
	return "aria-label must only be used on elements which can be named"
}

func (ariaLabelMisuse) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		for _, key := range namingAttributes {
			attr := node.Attribute(key)
			if attr == nil {
				continue
			}
			if value, ok := attr.StaticValue(); ok && strings.TrimSpace(value) == "" {
				continue
			}
			if validator.Naming(node) == meta.NamingProhibited {
				ctx.Report(node, fmt.Sprintf("%q cannot be used on %s element", key, node.AnnotatedName()), &attr.KeyLocation)
			}
		}
	}, parser.TagReady)
}

// textContent enforces the text content policy of an element.
type textContent struct{}

func (textContent) Name() string { return "text-content" }

func (textContent) Description() string {
	return "Elements must follow their text content policy"
}

func (textContent) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node.Meta == nil || hasDynamicText(node) {
			return
		}
		switch node.Meta.TextContent {
		case meta.TextContentNone:
			if hasText(node) {
				ctx.Report(node, fmt.Sprintf("%s must not have text content", node.AnnotatedName()), nil)
			}
		case meta.TextContentRequired:
			if !hasText(node) {
				ctx.Report(node, fmt.Sprintf("%s must have text content", node.AnnotatedName()), nil)
			}
		case meta.TextContentAccessible:
			if !hasAccessibleText(node) {
				ctx.Report(node, fmt.Sprintf("%s must have accessible text", node.AnnotatedName()), nil)
			}
		}
	}, parser.ElementReady)
}

func hasText(node *dom.Node) bool {
	return strings.TrimSpace(node.DecodedTextContent()) != ""
}

// hasDynamicText returns true when a descendant sets its content from a
// template binding, e.g. v-html.
func hasDynamicText(node *dom.Node) bool {
	dynamic := false
	check := func(n *dom.Node) {
		for _, attr := range n.Attributes.Items() {
			if attr.IsDynamic() && (attr.Key == "textContent" || attr.Key == "innerHTML") {
				dynamic = true
			}
		}
	}
	check(node)
	node.Visit(check)
	return dynamic
}

// hasAccessibleText returns true when the element has visible text, a
// label of its own or a descendant providing one.
func hasAccessibleText(node *dom.Node) bool {
	if hasText(node) || hasLabel(node) {
		return true
	}
	found := false
	node.Visit(func(n *dom.Node) {
		if found {
			return
		}
		if hasLabel(n) {
			found = true
			return
		}
		if n.Is("img") {
			alt, ok := n.AttributeValue("alt")
			found = ok && strings.TrimSpace(alt) != ""
		}
	})
	return found
}

func hasLabel(n *dom.Node) bool {
	for _, key := range append([]string{"title"}, namingAttributes...) {
		attr := n.Attribute(key)
		if attr == nil {
			continue
		}
		if attr.IsDynamic() {
			return true
		}
		if value, ok := attr.StaticValue(); ok && strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}
