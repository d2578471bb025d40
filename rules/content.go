package rules

import (
	"fmt"
	"strings"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/parser/dom"
	"github.com/heathj/htmllint/validator"
)

// permittedContent checks every element against the content model of its
// parent and the descendant restrictions of its ancestors.
type permittedContent struct{}

func (permittedContent) Name() string { return "element-permitted-content" }

func (permittedContent) Description() string {
	return "Elements must only contain permitted content"
}

func (permittedContent) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if parent := contentParent(node); parent != nil && !validator.ValidatePermitted(node, parent.Meta.PermittedContent) {
			ctx.Report(node, fmt.Sprintf("%s element is not permitted as content under %s", node.AnnotatedName(), parent.AnnotatedName()), nil)
			return
		}
		for cur := node.ParentNode; cur != nil && !cur.IsRootElement(); cur = cur.ParentNode {
			if cur.Meta == nil || cur.Meta.PermittedDescendants == nil {
				continue
			}
			if !validator.ValidatePermitted(node, cur.Meta.PermittedDescendants) {
				ctx.Report(node, fmt.Sprintf("%s element is not permitted as a descendant of %s", node.AnnotatedName(), cur.AnnotatedName()), nil)
				return
			}
		}
	}, parser.ElementReady)
}

// contentParent returns the nearest ancestor whose content model applies
// to node, looking through transparent elements. It is nil when there is no
// such ancestor with metadata.
func contentParent(node *dom.Node) *dom.Node {
	for cur := node.ParentNode; cur != nil && !cur.IsRootElement(); cur = cur.ParentNode {
		if cur.Meta == nil {
			return nil
		}
		if !cur.Meta.Transparent {
			return cur
		}
	}
	return nil
}

type permittedOccurrences struct{}

func (permittedOccurrences) Name() string { return "element-permitted-occurrences" }

func (permittedOccurrences) Description() string {
	return "Elements must not occur more often than permitted"
}

func (permittedOccurrences) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		parent := ev.Target
		if parent.Meta == nil {
			return
		}
		for _, o := range validator.ValidateOccurrences(parent.ChildElements(), parent.Meta.PermittedContent) {
			ctx.Report(o.Node, fmt.Sprintf("Element %s can only appear once under %s", o.Node.AnnotatedName(), parent.AnnotatedName()), nil)
		}
	}, parser.ElementReady)
}

type permittedOrder struct{}

func (permittedOrder) Name() string { return "element-permitted-order" }

func (permittedOrder) Description() string {
	return "Elements must appear in the permitted order"
}

func (permittedOrder) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		parent := ev.Target
		if parent.Meta == nil {
			return
		}
		v := validator.ValidateOrder(parent.ChildElements(), parent.Meta.PermittedOrder)
		if v == nil || v.Previous == nil {
			return
		}
		ctx.Report(v.Node, fmt.Sprintf("Element %s must be used before %s in this context", v.Node.AnnotatedName(), v.Previous.AnnotatedName()), nil)
	}, parser.ElementReady)
}

type permittedParent struct{}

func (permittedParent) Name() string { return "element-permitted-parent" }

func (permittedParent) Description() string {
	return "Elements must only be used under a permitted parent"
}

func (permittedParent) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		parent := node.ParentNode
		if node.Meta == nil || parent == nil || parent.IsRootElement() {
			return
		}
		if !validator.ValidatePermitted(parent, node.Meta.PermittedParent) {
			ctx.Report(node, fmt.Sprintf("Element %s cannot have %s as parent", node.AnnotatedName(), parent.AnnotatedName()), nil)
		}
	}, parser.ElementReady)
}

type requiredAncestor struct{}

func (requiredAncestor) Name() string { return "element-required-ancestor" }

func (requiredAncestor) Description() string {
	return "Elements must have a required ancestor"
}

func (requiredAncestor) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node.Meta == nil || validator.ValidateAncestors(node, node.Meta.RequiredAncestors) {
			return
		}
		names := make([]string, 0, len(node.Meta.RequiredAncestors))
		for _, selector := range node.Meta.RequiredAncestors {
			names = append(names, "<"+ancestorPart(selector, node.TagName())+">")
		}
		ctx.Report(node, fmt.Sprintf("%s element requires a %s ancestor", node.AnnotatedName(), strings.Join(names, " or ")), nil)
	}, parser.ElementReady)
}

// ancestorPart drops the trailing compound of a selector when it names the
// element itself, "dl > dd" becomes "dl".
func ancestorPart(selector, tagName string) string {
	parts := strings.Split(selector, ">")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if n := len(parts); n > 1 && strings.EqualFold(parts[n-1], tagName) {
		parts = parts[:n-1]
	}
	return strings.Join(parts, " > ")
}

type requiredContent struct{}

func (requiredContent) Name() string { return "element-required-content" }

func (requiredContent) Description() string {
	return "Elements must have the required content"
}

func (requiredContent) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node.Meta == nil {
			return
		}
		for _, missing := range validator.ValidateRequiredContent(node, node.Meta.RequiredContent) {
			ctx.Report(node, fmt.Sprintf("%s element must have %s as content", node.AnnotatedName(), describeEntry(missing)), nil)
		}
	}, parser.ElementReady)
}

func describeEntry(e meta.Entry) string {
	if e.Kind == meta.EntryCategory {
		return e.Name
	}
	return "<" + e.Name + ">"
}
