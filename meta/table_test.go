package meta

import (
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode is a detached node for evaluating predicates.
type testNode struct {
	tag       string
	attrs     map[string]string
	ancestors []string
}

func (n testNode) TagName() string { return n.tag }

func (n testNode) HasAttribute(key string) bool {
	_, ok := n.attrs[key]
	return ok
}

func (n testNode) AttributeValue(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

func (n testNode) HasAncestor(tag string) bool {
	for _, a := range n.ancestors {
		if a == tag {
			return true
		}
	}
	return false
}

func mustLoad(t *testing.T, table *Table, source string, defs ...Definition) {
	t.Helper()
	require.NoError(t, table.Load(source, defs))
}

func TestGetUnknownReturnsNil(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "test", Definition{TagName: "foo", Fields: map[string]any{"flow": true}})
	assert.Nil(t, table.Get("bar"))
	require.NotNil(t, table.Get("FOO"))
	assert.True(t, table.Get("foo").Flow(testNode{tag: "foo"}))
	assert.False(t, table.Get("foo").Phrasing(testNode{tag: "foo"}))
}

func TestLoadReplacesEntry(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "first", Definition{TagName: "foo", Fields: map[string]any{
		"flow":             true,
		"permittedContent": []any{"@phrasing"},
	}})
	mustLoad(t, table, "second", Definition{TagName: "foo", Fields: map[string]any{
		"phrasing": true,
	}})

	foo := table.Get("foo")
	require.NotNil(t, foo)
	assert.False(t, foo.Flow(testNode{tag: "foo"}), "replaced entry must not keep old fields")
	assert.True(t, foo.Phrasing(testNode{tag: "foo"}))
	assert.Nil(t, foo.PermittedContent)
}

func TestLoadInheritCopiesFields(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "base", Definition{TagName: "foo", Fields: map[string]any{
		"flow":             true,
		"void":             true,
		"permittedContent": []any{"@phrasing"},
	}})
	mustLoad(t, table, "ext", Definition{TagName: "bar", Fields: map[string]any{
		"inherit": "foo",
		"void":    false,
	}})

	bar := table.Get("bar")
	require.NotNil(t, bar)
	assert.Equal(t, "foo", bar.Inherit)
	assert.True(t, bar.Flow(testNode{tag: "bar"}))
	assert.False(t, bar.Void)
	assert.Len(t, bar.PermittedContent, 1)

	// the base entry is untouched
	assert.True(t, table.Get("foo").Void)
}

func TestLoadInheritSelfExtends(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "base", Definition{TagName: "foo", Fields: map[string]any{"flow": true}})
	mustLoad(t, table, "ext", Definition{TagName: "foo", Fields: map[string]any{
		"inherit":  "foo",
		"phrasing": true,
	}})
	foo := table.Get("foo")
	assert.True(t, foo.Flow(testNode{tag: "foo"}))
	assert.True(t, foo.Phrasing(testNode{tag: "foo"}))
}

func TestLoadInheritWithinSourceAnyOrder(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src",
		Definition{TagName: "h2", Fields: map[string]any{"inherit": "h1"}},
		Definition{TagName: "h1", Fields: map[string]any{"heading": true}},
	)
	assert.True(t, table.Get("h2").Heading(testNode{tag: "h2"}))
}

func TestLoadInheritMissing(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "base", Definition{TagName: "foo", Fields: map[string]any{}})
	err := table.Load("broken", []Definition{
		{TagName: "ok", Fields: map[string]any{}},
		{TagName: "my-element", Fields: map[string]any{"inherit": "missing-tag"}},
	})
	var inheritErr *InheritError
	require.True(t, errors.As(err, &inheritErr), "got %v", err)
	assert.Equal(t, "my-element", inheritErr.TagName)
	assert.Equal(t, "missing-tag", inheritErr.Inherit)
	assert.Contains(t, err.Error(), "<my-element>")
	assert.Contains(t, err.Error(), "<missing-tag>")
	assert.Contains(t, err.Error(), "load the source defining it before this one")

	// nothing from the failed source is committed
	assert.Nil(t, table.Get("ok"))
	assert.Nil(t, table.Get("my-element"))
	assert.NotNil(t, table.Get("foo"))
}

func TestLoadInheritCycle(t *testing.T) {
	table := NewTable()
	err := table.Load("cyclic", []Definition{
		{TagName: "a", Fields: map[string]any{"inherit": "b"}},
		{TagName: "b", Fields: map[string]any{"inherit": "c"}},
		{TagName: "c", Fields: map[string]any{"inherit": "a"}},
	})
	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr), "got %v", err)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Tags)
	assert.Equal(t, 0, table.Len())
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := map[string]struct {
		fields map[string]any
		path   string
	}{
		"unknown property": {map[string]any{"colour": "red"}, "/foo/colour"},
		"bad flag":         {map[string]any{"void": "yes"}, "/foo/void"},
		"bad predicate":    {map[string]any{"flow": []any{"isCool", "x"}}, "/foo/flow/0"},
		"bad operator":     {map[string]any{"flow": []any{"matchAttribute", []any{"type", "~", "x"}}}, "/foo/flow/1/1"},
		"bad text content": {map[string]any{"textContent": "lots"}, "/foo/textContent"},
		"bad enum pattern": {map[string]any{"attributes": map[string]any{"x": map[string]any{"enum": []any{"/(/"}}}}, "/foo/attributes/x/enum/0"},
		"bad aria naming":  {map[string]any{"aria": map[string]any{"naming": "maybe"}}, "/foo/aria/naming"},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := NewTable().Load("src", []Definition{{TagName: "foo", Fields: tt.fields}})
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "got %v", err)
			assert.Equal(t, "src", schemaErr.Source)
			assert.Equal(t, tt.path, schemaErr.Path)
		})
	}
}

func TestLoadUnknownCategoryIsRuleError(t *testing.T) {
	err := NewTable().Load("src", []Definition{{TagName: "foo", Fields: map[string]any{
		"permittedContent": []any{"@foobar"},
	}}})
	var ruleErr *RuleError
	require.True(t, errors.As(err, &ruleErr), "got %v", err)
	assert.Contains(t, err.Error(), "/foo/permittedContent")
}

func TestPredicateForms(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src", Definition{TagName: "input", Fields: map[string]any{
		"interactive": []any{"matchAttribute", []any{"type", "!=", "hidden"}},
		"focusable":   []any{"hasAttribute", "tabindex"},
		"phrasing":    []any{"isDescendant", "label"},
		"labelable":   Property(func(n Node) bool { return n.TagName() == "input" }),
		"aria": map[string]any{
			"implicitRole": []any{
				map[string]any{"when": []any{"matchAttribute", []any{"type", "=", "checkbox"}}, "role": "checkbox"},
				map[string]any{"role": "textbox"},
			},
			"naming": []any{
				map[string]any{"when": []any{"hasAttribute", "hidden"}, "naming": "prohibited"},
			},
		},
	}})
	input := table.Get("input")

	hidden := testNode{tag: "input", attrs: map[string]string{"type": "HIDDEN", "hidden": ""}}
	checkbox := testNode{tag: "input", attrs: map[string]string{"type": "checkbox", "tabindex": "0"}, ancestors: []string{"label"}}
	plain := testNode{tag: "input"}

	assert.False(t, input.Interactive(hidden))
	assert.True(t, input.Interactive(checkbox))
	assert.True(t, input.Interactive(plain))
	assert.True(t, input.Focusable(checkbox))
	assert.False(t, input.Focusable(plain))
	assert.True(t, input.Phrasing(checkbox))
	assert.False(t, input.Phrasing(plain))
	assert.True(t, input.Labelable(plain))

	assert.Equal(t, "checkbox", input.Aria.ImplicitRole(checkbox))
	assert.Equal(t, "textbox", input.Aria.ImplicitRole(plain))
	assert.Equal(t, NamingProhibited, input.Aria.Naming(hidden))
	assert.Equal(t, NamingAllowed, input.Aria.Naming(plain))
}

func TestAriaDefaults(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src",
		Definition{TagName: "plain", Fields: map[string]any{}},
		Definition{TagName: "fixed", Fields: map[string]any{"aria": map[string]any{"implicitRole": "main", "naming": "prohibited"}}},
	)
	n := testNode{tag: "x"}
	assert.Equal(t, "", table.Get("plain").Aria.ImplicitRole(n))
	assert.Equal(t, NamingAllowed, table.Get("plain").Aria.Naming(n))
	assert.Equal(t, "main", table.Get("fixed").Aria.ImplicitRole(n))
	assert.Equal(t, NamingProhibited, table.Get("fixed").Aria.Naming(n))
}

func TestAttributeRules(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src", Definition{TagName: "foo", Fields: map[string]any{
		"attributes": map[string]any{
			"Checked": map[string]any{"boolean": true},
			"type":    map[string]any{"enum": []any{"foo", "/^bar/", 1}},
			"free":    nil,
		},
	}})
	foo := table.Get("foo")
	require.Contains(t, foo.Attributes, "checked")
	assert.True(t, foo.Attributes["checked"].Boolean)

	enum := foo.Attributes["type"].Enum
	require.Len(t, enum, 3)
	assert.Equal(t, "foo", enum[0].Literal)
	require.NotNil(t, enum[1].Pattern)
	assert.Equal(t, "/^bar/", enum[1].String())
	assert.Equal(t, "1", enum[2].Literal)

	require.Contains(t, foo.Attributes, "free")
	assert.Nil(t, foo.Attributes["free"].Enum)
}

func TestInitMergesGlobalAndFreezes(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src",
		Definition{TagName: "*", Fields: map[string]any{"attributes": map[string]any{
			"dir":    map[string]any{"enum": []any{"ltr", "rtl"}},
			"hidden": map[string]any{"boolean": true},
		}}},
		Definition{TagName: "foo", Fields: map[string]any{"attributes": map[string]any{
			"dir": map[string]any{"enum": []any{"auto"}},
		}}},
	)
	require.NoError(t, table.Init())
	assert.True(t, table.Frozen())
	assert.Nil(t, table.Get("*"))

	foo := table.Get("foo")
	require.Contains(t, foo.Attributes, "hidden")
	assert.Equal(t, "auto", foo.Attributes["dir"].Enum[0].Literal, "own rule wins over global")

	err := table.Load("late", []Definition{{TagName: "bar"}})
	assert.True(t, errors.Is(err, ErrFrozen))
	assert.NoError(t, table.Init())
}

func TestTagsWithPropertyAndDerived(t *testing.T) {
	table := NewTable()
	mustLoad(t, table, "src",
		Definition{TagName: "h1", Fields: map[string]any{"heading": true}},
		Definition{TagName: "h2", Fields: map[string]any{"inherit": "h1"}},
		Definition{TagName: "my-heading", Fields: map[string]any{"inherit": "h2"}},
		Definition{TagName: "br", Fields: map[string]any{"void": true}},
		Definition{TagName: "a", Fields: map[string]any{"focusable": []any{"hasAttribute", "href"}}},
	)
	assert.Equal(t, []string{"h1", "h2", "my-heading"}, table.TagsWithProperty("heading"))
	assert.Equal(t, []string{"br"}, table.TagsWithProperty("void"))
	assert.Empty(t, table.TagsWithProperty("focusable"))
	assert.Empty(t, table.TagsWithProperty("nonsense"))
	assert.Equal(t, []string{"h1", "h2", "my-heading"}, table.TagsDerivedFrom("h1"))
	assert.Equal(t, []string{"h2", "my-heading"}, table.TagsDerivedFrom("h2"))
}

func TestConcurrentReadsAfterInit(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tag := range table.Tags() {
				el := table.Get(tag)
				el.Flow(testNode{tag: tag})
				el.Aria.ImplicitRole(testNode{tag: tag})
			}
		}()
	}
	wg.Wait()
}
