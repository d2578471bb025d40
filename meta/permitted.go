package meta

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Category is a content category referenced as "@name" in permitted rules.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryMetadata
	CategoryFlow
	CategorySectioning
	CategoryHeading
	CategoryPhrasing
	CategoryEmbedded
	CategoryInteractive
	CategoryScriptSupporting
	CategoryForm
)

var categoryNames = map[string]Category{
	"@meta":        CategoryMetadata,
	"@flow":        CategoryFlow,
	"@sectioning":  CategorySectioning,
	"@heading":     CategoryHeading,
	"@phrasing":    CategoryPhrasing,
	"@embedded":    CategoryEmbedded,
	"@interactive": CategoryInteractive,
	"@script":      CategoryScriptSupporting,
	"@form":        CategoryForm,
}

// Quantifier limits how many siblings may match an entry.
type Quantifier uint8

const (
	QuantifierNone Quantifier = iota
	// QuantifierOptional is "?", at most one.
	QuantifierOptional
	// QuantifierAny is "*", unlimited.
	QuantifierAny
)

// Limit returns the maximum number of matches, 0 when unlimited.
func (q Quantifier) Limit() int {
	if q == QuantifierOptional {
		return 1
	}
	return 0
}

func (q Quantifier) String() string {
	switch q {
	case QuantifierOptional:
		return "?"
	case QuantifierAny:
		return "*"
	}
	return ""
}

// ParseQuantifier parses a trailing rule quantifier.
func ParseQuantifier(s string) (Quantifier, error) {
	switch strings.TrimSpace(s) {
	case "":
		return QuantifierNone, nil
	case "?":
		return QuantifierOptional, nil
	case "*":
		return QuantifierAny, nil
	}
	return QuantifierNone, &RuleError{Rule: s, Message: "invalid quantifier"}
}

type EntryKind uint8

const (
	EntryTag EntryKind = iota + 1
	EntryCategory
)

// Entry is a single tag name or @category, optionally quantified.
type Entry struct {
	Kind       EntryKind
	Name       string
	Category   Category
	Quantifier Quantifier
}

// ParseEntry parses "tag", "@category", "tag?" or "@category*".
func ParseEntry(s string) (Entry, error) {
	name := s
	q := QuantifierNone
	if n := len(name); n > 0 && (name[n-1] == '?' || name[n-1] == '*') {
		var err error
		if q, err = ParseQuantifier(name[n-1:]); err != nil {
			return Entry{}, err
		}
		name = name[:n-1]
	}
	if name == "" {
		return Entry{}, &RuleError{Rule: s, Message: "empty entry"}
	}
	if strings.HasPrefix(name, "@") {
		c, ok := categoryNames[name]
		if !ok {
			return Entry{}, &RuleError{Rule: s, Message: "invalid content category " + quote(name)}
		}
		return Entry{Kind: EntryCategory, Name: name, Category: c, Quantifier: q}, nil
	}
	return Entry{Kind: EntryTag, Name: strings.ToLower(name), Quantifier: q}, nil
}

func (e Entry) String() string {
	return e.Name + e.Quantifier.String()
}

type RuleKind uint8

const (
	// RuleEntry matches a single Entry.
	RuleEntry RuleKind = iota + 1
	// RuleAll matches when every nested rule matches.
	RuleAll
	// RuleExclude matches when none of the nested rules match.
	RuleExclude
)

// Rule is one element of a permitted list.
type Rule struct {
	Kind  RuleKind
	Entry Entry
	Rules []Rule
}

// Permitted is a list of rules combined with OR. A nil list permits
// everything while an empty list permits nothing.
type Permitted []Rule

const excludeKey = "exclude"

// ParsePermitted converts a raw declaration (as decoded from YAML or JSON)
// into rules. Strings are entries, nested lists are AND groups and
// mappings are exclusion groups.
func ParsePermitted(raw any) (Permitted, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &RuleError{Rule: describe(raw), Message: "permitted rules must be a list"}
	}
	rules := make(Permitted, 0, len(list))
	for _, item := range list {
		rule, err := parseRule(item)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseRule(raw any) (Rule, error) {
	switch v := raw.(type) {
	case string:
		entry, err := ParseEntry(v)
		if err != nil {
			return Rule{}, err
		}
		return Rule{Kind: RuleEntry, Entry: entry}, nil
	case []any:
		rule := Rule{Kind: RuleAll}
		for _, inner := range v {
			r, err := parseRule(inner)
			if err != nil {
				return Rule{}, err
			}
			rule.Rules = append(rule.Rules, r)
		}
		return rule, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key != excludeKey {
				return Rule{}, &RuleError{
					Rule:    describe(v),
					Message: "contains unknown property " + quote(key),
				}
			}
		}
		rule := Rule{Kind: RuleExclude}
		inner, ok := v[excludeKey]
		if !ok {
			return rule, nil
		}
		items, isList := inner.([]any)
		if !isList {
			items = []any{inner}
		}
		for _, item := range items {
			r, err := parseRule(item)
			if err != nil {
				return Rule{}, err
			}
			rule.Rules = append(rule.Rules, r)
		}
		return rule, nil
	}
	return Rule{}, &RuleError{Rule: describe(raw), Message: "unsupported rule type"}
}

// ParseEntries parses a flat list of entries, as used by permitted order
// and required content.
func ParseEntries(raw any) ([]Entry, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, &RuleError{Rule: describe(raw), Message: "expected a list of entries"}
	}
	entries := make([]Entry, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, &RuleError{Rule: describe(item), Message: "expected a tag name or category"}
		}
		entry, err := ParseEntry(s)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MustParsePermitted is ParsePermitted for static declarations.
func MustParsePermitted(raw any) Permitted {
	p, err := ParsePermitted(raw)
	if err != nil {
		panic(errors.Wrap(err, "meta: MustParsePermitted"))
	}
	return p
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return string(b)
}

func quote(s string) string {
	return `"` + s + `"`
}
