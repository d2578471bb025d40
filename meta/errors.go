package meta

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrFrozen is returned when loading into a table after Init.
var ErrFrozen = errors.New("element metadata table is frozen, load all sources before Init")

// RuleError reports a malformed permitted rule declaration, such as an
// unknown @category or an unknown key in an exclusion group.
type RuleError struct {
	Rule    string
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("permitted rule %s: %s", e.Rule, e.Message)
}

// InheritError reports an inherit target that has not been loaded.
type InheritError struct {
	Source  string
	TagName string
	Inherit string
}

func (e *InheritError) Error() string {
	msg := fmt.Sprintf(
		"element <%s> cannot inherit from <%s>: no such element. Check the spelling of <%s> or load the source defining it before this one",
		e.TagName, e.Inherit, e.Inherit)
	if e.Source != "" {
		return fmt.Sprintf("%s (in %q)", msg, e.Source)
	}
	return msg
}

// CycleError reports elements in one source inheriting from each other.
type CycleError struct {
	Source string
	Tags   []string
}

func (e *CycleError) Error() string {
	chain := make([]string, len(e.Tags))
	for i, tag := range e.Tags {
		chain[i] = "<" + tag + ">"
	}
	return fmt.Sprintf("inheritance cycle in %q: %s", e.Source, strings.Join(chain, " -> "))
}

// SchemaError reports a malformed element definition.
type SchemaError struct {
	Source string
	// Path is a slash separated path to the offending field, e.g.
	// "/div/permittedContent/2".
	Path    string
	Line    int
	Message string
}

func (e *SchemaError) Error() string {
	where := e.Path
	if e.Line > 0 {
		where = fmt.Sprintf("%s (line %d)", e.Path, e.Line)
	}
	return fmt.Sprintf("element metadata %q is not valid: %s: %s", e.Source, where, e.Message)
}
