package validator

import (
	"strings"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

// ValidateAttribute tests attr against the rule registered for its key in
// rules. Attributes without a rule and dynamic values always pass.
func ValidateAttribute(attr *dom.Attribute, rules map[string]*meta.Attribute) bool {
	rule := rules[strings.ToLower(attr.Key)]
	if rule == nil || attr.IsDynamic() {
		return true
	}

	value, hasValue := attr.StaticValue()
	empty := !hasValue || value == ""
	switch {
	case rule.Boolean:
		return empty || value == attr.Key
	case rule.Omit && empty:
		return true
	case rule.List:
		// no value is an empty token list
		for _, token := range strings.Fields(value) {
			if !validateAttributeValue(token, true, rule) {
				return false
			}
		}
		return true
	}
	return validateAttributeValue(value, hasValue, rule)
}

// InvalidTokens returns the tokens of a list attribute not accepted by its
// rule, in the order written. It is empty for non-list rules.
func InvalidTokens(attr *dom.Attribute, rules map[string]*meta.Attribute) []string {
	rule := rules[strings.ToLower(attr.Key)]
	if rule == nil || !rule.List || attr.IsDynamic() {
		return nil
	}
	value, _ := attr.StaticValue()
	var invalid []string
	for _, token := range strings.Fields(value) {
		if !validateAttributeValue(token, true, rule) {
			invalid = append(invalid, token)
		}
	}
	return invalid
}

func validateAttributeValue(value string, hasValue bool, rule *meta.Attribute) bool {
	if rule.Enum == nil {
		return true
	}
	if !hasValue {
		return false
	}
	for _, entry := range rule.Enum {
		if entry.Match(value) {
			return true
		}
	}
	return false
}
