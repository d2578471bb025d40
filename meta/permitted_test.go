package meta

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parseEntryTestcase struct {
	in       string
	kind     EntryKind
	name     string
	category Category
	q        Quantifier
}

var parseEntryTests = []parseEntryTestcase{
	{"div", EntryTag, "div", CategoryNone, QuantifierNone},
	{"DIV", EntryTag, "div", CategoryNone, QuantifierNone},
	{"legend?", EntryTag, "legend", CategoryNone, QuantifierOptional},
	{"@flow", EntryCategory, "@flow", CategoryFlow, QuantifierNone},
	{"@phrasing*", EntryCategory, "@phrasing", CategoryPhrasing, QuantifierAny},
	{"@script?", EntryCategory, "@script", CategoryScriptSupporting, QuantifierOptional},
}

func TestParseEntry(t *testing.T) {
	for _, tt := range parseEntryTests {
		runTestParseEntry(tt, t)
	}
}

func runTestParseEntry(tt parseEntryTestcase, t *testing.T) {
	t.Run(tt.in, func(t *testing.T) {
		t.Parallel()
		entry, err := ParseEntry(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.kind, entry.Kind)
		assert.Equal(t, tt.name, entry.Name)
		assert.Equal(t, tt.category, entry.Category)
		assert.Equal(t, tt.q, entry.Quantifier)
	})
}

func TestParseQuantifier(t *testing.T) {
	q, err := ParseQuantifier("?")
	require.NoError(t, err)
	assert.Equal(t, 1, q.Limit())

	q, err = ParseQuantifier("*")
	require.NoError(t, err)
	assert.Equal(t, 0, q.Limit())

	_, err = ParseQuantifier("+")
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr))
}

func TestParsePermittedNilAndEmpty(t *testing.T) {
	p, err := ParsePermitted(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ParsePermitted([]any{})
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Len(t, p, 0)
}

func TestParsePermittedShapes(t *testing.T) {
	p, err := ParsePermitted([]any{
		"@flow",
		[]any{"@phrasing", "a"},
		map[string]any{"exclude": []any{"@interactive", "form"}},
		map[string]any{"exclude": "main"},
	})
	require.NoError(t, err)
	require.Len(t, p, 4)

	assert.Equal(t, RuleEntry, p[0].Kind)
	assert.Equal(t, CategoryFlow, p[0].Entry.Category)

	assert.Equal(t, RuleAll, p[1].Kind)
	require.Len(t, p[1].Rules, 2)
	assert.Equal(t, "a", p[1].Rules[1].Entry.Name)

	assert.Equal(t, RuleExclude, p[2].Kind)
	assert.Len(t, p[2].Rules, 2)

	assert.Equal(t, RuleExclude, p[3].Kind)
	require.Len(t, p[3].Rules, 1)
	assert.Equal(t, "main", p[3].Rules[0].Entry.Name)
}

func TestParsePermittedErrors(t *testing.T) {
	tests := map[string]struct {
		in      any
		message string
	}{
		"unknown category": {
			in:      []any{"@foobar"},
			message: `invalid content category "@foobar"`,
		},
		"unknown exclusion key": {
			in:      []any{map[string]any{"exclude": "a", "include": "b"}},
			message: `contains unknown property "include"`,
		},
		"not a list": {
			in:      "@flow",
			message: "must be a list",
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParsePermitted(tt.in)
			var ruleErr *RuleError
			require.True(t, errors.As(err, &ruleErr), "got %v", err)
			assert.Contains(t, ruleErr.Message, tt.message)
		})
	}
}

func TestMustParsePermittedPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParsePermitted([]any{"@nope"})
	})
	assert.NotPanics(t, func() {
		MustParsePermitted([]any{"@flow"})
	})
}
