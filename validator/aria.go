package validator

import (
	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

// ImplicitRole returns the ARIA role the element has without a role
// attribute, empty when it has none or is unknown.
func ImplicitRole(node *dom.Node) string {
	if node.Meta == nil {
		return ""
	}
	return node.Meta.Aria.ImplicitRole(node)
}

// Naming tells whether the element may be given an accessible name. An
// explicit role attribute takes precedence over the element's own rule.
func Naming(node *dom.Node) meta.Naming {
	if role, ok := node.AttributeValue("role"); ok {
		if _, prohibited := prohibitedRoles[role]; prohibited {
			return meta.NamingProhibited
		}
		return meta.NamingAllowed
	}
	if node.Meta == nil {
		return meta.NamingAllowed
	}
	return node.Meta.Aria.Naming(node)
}

// roles for which naming is prohibited by WAI-ARIA 1.2
var prohibitedRoles = map[string]struct{}{
	"caption":      {},
	"code":         {},
	"deletion":     {},
	"emphasis":     {},
	"generic":      {},
	"insertion":    {},
	"none":         {},
	"paragraph":    {},
	"presentation": {},
	"strong":       {},
	"subscript":    {},
	"superscript":  {},
}
