package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/parser/dom"
	"github.com/heathj/htmllint/validator"
)

type requiredAttributes struct{}

func (requiredAttributes) Name() string { return "element-required-attributes" }

func (requiredAttributes) Description() string {
	return "Elements must have their required attributes"
}

func (requiredAttributes) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node.Meta == nil {
			return
		}
		for _, key := range requiredKeys(node) {
			if !node.HasAttribute(key) {
				ctx.Report(node, fmt.Sprintf("%s is missing required %q attribute", node.AnnotatedName(), key), nil)
			}
		}
	}, parser.TagReady)
}

// requiredKeys merges requiredAttributes with the attributes flagged
// required, keeping the declared order first.
func requiredKeys(node *dom.Node) []string {
	keys := append([]string(nil), node.Meta.RequiredAttributes...)
	var flagged []string
	for key, rule := range node.Meta.Attributes {
		if rule.Required && !contains(keys, key) {
			flagged = append(flagged, key)
		}
	}
	sort.Strings(flagged)
	return append(keys, flagged...)
}

type allowedValues struct{}

func (allowedValues) Name() string { return "attribute-allowed-values" }

func (allowedValues) Description() string {
	return "Attributes must have an allowed value"
}

func (allowedValues) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node, attr := ev.Target, ev.Attribute
		if node.Meta == nil || validator.ValidateAttribute(attr, node.Meta.Attributes) {
			return
		}
		rule := node.Meta.Attributes[strings.ToLower(attr.Key)]
		valueLoc := attr.KeyLocation
		if attr.ValueLocation != nil {
			valueLoc = *attr.ValueLocation
		}

		switch {
		case rule.Boolean:
			ctx.Report(node, fmt.Sprintf("Attribute %q should omit value", attr.Key), &valueLoc)
		case !attr.HasValue():
			ctx.Report(node, fmt.Sprintf("Attribute %q is missing value", attr.Key), &attr.KeyLocation)
		case rule.List:
			for _, token := range validator.InvalidTokens(attr, node.Meta.Attributes) {
				ctx.Report(node, fmt.Sprintf("Attribute %q has invalid value %q", attr.Key, token), &valueLoc)
			}
		default:
			ctx.Report(node, fmt.Sprintf("Attribute %q has invalid value %q", attr.Key, attr.ValueString()), &valueLoc)
		}
	}, parser.Attr)
}

const deprecatedName = "deprecated"

// deprecated flags obsolete elements and attributes.
type deprecated struct{}

func (deprecated) Name() string { return deprecatedName }

func (deprecated) Description() string {
	return "Deprecated elements and attributes must not be used"
}

func (deprecated) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node.Meta != nil && node.Meta.Deprecated {
			ctx.Report(node, fmt.Sprintf("%s is deprecated", node.AnnotatedName()), nil)
		}
	}, parser.TagStart)

	ctx.On(func(ev *parser.Event) {
		node, attr := ev.Target, ev.Attribute
		if node.Meta == nil {
			return
		}
		key := strings.ToLower(attr.Key)
		rule := node.Meta.Attributes[key]
		if (rule != nil && rule.Deprecated) || containsFold(node.Meta.DeprecatedAttributes, key) {
			ctx.Report(node, fmt.Sprintf("Attribute %q is deprecated on %s element", attr.Key, node.AnnotatedName()), &attr.KeyLocation)
		}
	}, parser.Attr)
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// voidContent flags end tags written for void elements, e.g. </br>.
type voidContent struct{}

func (voidContent) Name() string { return "void-content" }

func (voidContent) Description() string {
	return "Void elements must not have an end tag"
}

func (voidContent) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		node := ev.Target
		if node == nil || node.State != dom.EndTag || !node.VoidElement() {
			return
		}
		ctx.Report(node, fmt.Sprintf("End tag for %s must be omitted", node.AnnotatedName()), nil)
	}, parser.TagEnd)
}
