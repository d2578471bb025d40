// Package rules holds the built-in checks. A rule subscribes to the events
// of a parse through its Context and reports findings as report messages;
// no rule ever fails on document content.
package rules

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/heathj/htmllint/report"
)

// Rule is a single check.
type Rule interface {
	Name() string
	Description() string
	// Setup registers the listeners of the rule for one run.
	Setup(ctx *Context)
}

type factory func() Rule

var builtin = []factory{
	func() Rule { return closeOrder{} },
	func() Rule { return parserError{} },
	func() Rule { return permittedContent{} },
	func() Rule { return permittedOccurrences{} },
	func() Rule { return permittedOrder{} },
	func() Rule { return permittedParent{} },
	func() Rule { return requiredAncestor{} },
	func() Rule { return requiredContent{} },
	func() Rule { return requiredAttributes{} },
	func() Rule { return allowedValues{} },
	func() Rule { return voidContent{} },
	func() Rule { return deprecated{} },
	func() Rule { return ariaLabelMisuse{} },
	func() Rule { return textContent{} },
}

// Names returns the name of every built-in rule, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for _, f := range builtin {
		names = append(names, f().Name())
	}
	sort.Strings(names)
	return names
}

// New creates the built-in rule with the name.
func New(name string) (Rule, error) {
	for _, f := range builtin {
		if r := f(); r.Name() == name {
			return r, nil
		}
	}
	return nil, errors.Errorf("unknown rule %q", name)
}

// Config maps rule names to their severity. Rules missing from the map are
// not run.
type Config map[string]report.Severity

// Recommended enables every built-in rule.
func Recommended() Config {
	cfg := Config{}
	for _, name := range Names() {
		cfg[name] = report.Error
	}
	cfg[deprecatedName] = report.Warning
	return cfg
}

// Merge returns a copy of c with the entries of other applied on top.
func (c Config) Merge(other Config) Config {
	merged := make(Config, len(c)+len(other))
	for k, v := range c {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Validate returns an error for the first entry naming an unknown rule.
func (c Config) Validate() error {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := New(name); err != nil {
			return err
		}
	}
	return nil
}
