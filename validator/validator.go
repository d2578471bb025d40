// Package validator holds the content model checks shared by the rules. All
// functions are pure: they read the tree and the element metadata and never
// modify either, so they can be called concurrently on a frozen table.
package validator

import (
	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

// ValidatePermittedCategory tests whether node matches a single entry. Tag
// entries compare the tag name; category entries read the element
// metadata, and defaultMatch is returned for elements without metadata.
func ValidatePermittedCategory(node *dom.Node, entry meta.Entry, defaultMatch bool) bool {
	if entry.Kind == meta.EntryTag {
		return node.TagName() == entry.Name
	}
	if node.Meta == nil {
		return defaultMatch
	}
	p := node.Meta.Category(entry.Category)
	return p != nil && p(node)
}

// ValidatePermitted tests node against a permitted list: any rule may
// match. A nil list permits everything, an empty list nothing.
func ValidatePermitted(node *dom.Node, rules meta.Permitted) bool {
	if rules == nil {
		return true
	}
	for _, rule := range rules {
		if validatePermittedRule(node, rule, false) {
			return true
		}
	}
	return false
}

// validatePermittedRule evaluates one rule. Inside an exclusion the default
// for elements without metadata flips so unknown elements are never
// excluded.
func validatePermittedRule(node *dom.Node, rule meta.Rule, isExclude bool) bool {
	switch rule.Kind {
	case meta.RuleEntry:
		return ValidatePermittedCategory(node, rule.Entry, !isExclude)
	case meta.RuleAll:
		for _, inner := range rule.Rules {
			if !validatePermittedRule(node, inner, isExclude) {
				return false
			}
		}
		return true
	case meta.RuleExclude:
		for _, inner := range rule.Rules {
			if validatePermittedRule(node, inner, true) {
				return false
			}
		}
		return true
	}
	return false
}

// Occurrence is a child exceeding the limit of a quantified entry.
type Occurrence struct {
	Node  *dom.Node
	Entry meta.Entry
}

// ValidateOccurrences counts the children matching each quantified entry
// and returns, in document order, every child past the allowed count. The
// first matches up to the limit are never reported.
func ValidateOccurrences(children []*dom.Node, rules meta.Permitted) []Occurrence {
	var excess []Occurrence
	for _, rule := range rules {
		if rule.Kind != meta.RuleEntry {
			continue
		}
		limit := rule.Entry.Quantifier.Limit()
		if limit == 0 {
			continue
		}
		var siblings []*dom.Node
		for _, child := range children {
			if ValidatePermittedCategory(child, rule.Entry, true) {
				siblings = append(siblings, child)
			}
		}
		if len(siblings) <= limit {
			continue
		}
		for _, child := range siblings[limit:] {
			excess = append(excess, Occurrence{Node: child, Entry: rule.Entry})
		}
	}
	return excess
}

// OrderViolation is a child found after an element that must follow it.
// Previous is the sibling before Node, nil when Node is the first child.
type OrderViolation struct {
	Node     *dom.Node
	Previous *dom.Node
}

// ValidateOrder walks children against order with a forward only cursor.
// A child matching at or after the cursor moves the cursor to the matching
// position; a child matching nowhere is unconstrained and leaves the cursor
// alone. A child only matching before the cursor is out of order; only the
// first such child is returned.
func ValidateOrder(children []*dom.Node, order []meta.Entry) *OrderViolation {
	if len(order) == 0 {
		return nil
	}
	i := 0
	var prev *dom.Node
	for _, node := range children {
		old := i
		for i < len(order) && !ValidatePermittedCategory(node, order[i], true) {
			i++
		}
		if i >= len(order) {
			if orderSpecified(node, order) {
				return &OrderViolation{Node: node, Previous: prev}
			}
			i = old
		}
		prev = node
	}
	return nil
}

func orderSpecified(node *dom.Node, order []meta.Entry) bool {
	for _, entry := range order {
		if ValidatePermittedCategory(node, entry, true) {
			return true
		}
	}
	return false
}

// ValidateAncestors returns true when node, or one of its ancestors,
// matches any of the selectors. An empty list is always satisfied.
func ValidateAncestors(node *dom.Node, selectors []string) bool {
	if len(selectors) == 0 {
		return true
	}
	for _, selector := range selectors {
		if node.Closest(selector) != nil {
			return true
		}
	}
	return false
}

// ValidateRequiredContent returns the required entries no child element
// satisfies. Elements without metadata never satisfy a category.
func ValidateRequiredContent(node *dom.Node, required []meta.Entry) []meta.Entry {
	var missing []meta.Entry
	children := node.ChildElements()
	for _, entry := range required {
		found := false
		for _, child := range children {
			if ValidatePermittedCategory(child, entry, false) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, entry)
		}
	}
	return missing
}
