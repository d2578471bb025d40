package meta

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	src := []byte(`$schema: ./elements.json
custom-card:
  flow: true
  permittedContent:
    - "@flow"
    - exclude: custom-card
  attributes:
    variant:
      enum: [primary, '/^x-/']
custom-title:
  inherit: custom-card
  heading: true
`)
	table := NewTable()
	require.NoError(t, table.LoadYAML("components.yaml", src))

	card := table.Get("custom-card")
	require.NotNil(t, card)
	assert.True(t, card.Flow(testNode{tag: "custom-card"}))
	require.Len(t, card.PermittedContent, 2)
	assert.Equal(t, RuleExclude, card.PermittedContent[1].Kind)
	require.Len(t, card.Attributes["variant"].Enum, 2)
	assert.True(t, card.Attributes["variant"].Enum[1].Match("x-large"))

	title := table.Get("custom-title")
	require.NotNil(t, title)
	assert.True(t, title.Heading(testNode{tag: "custom-title"}))
	assert.True(t, title.Flow(testNode{tag: "custom-title"}))
	assert.Nil(t, table.Get("$schema"))
}

func TestLoadYAMLSchemaErrorLine(t *testing.T) {
	src := []byte(`foo:
  flow: true
  void: maybe
`)
	err := NewTable().LoadYAML("broken.yaml", src)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "got %v", err)
	assert.Equal(t, "/foo/void", schemaErr.Path)
	assert.Equal(t, 3, schemaErr.Line)
	assert.Contains(t, err.Error(), `"broken.yaml"`)
	assert.Contains(t, err.Error(), "(line 3)")
}

func TestLoadYAMLNotAMapping(t *testing.T) {
	err := NewTable().LoadYAML("list.yaml", []byte("- foo\n- bar\n"))
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr), "got %v", err)
	assert.Equal(t, "/", schemaErr.Path)

	err = NewTable().LoadYAML("scalar.yaml", []byte("foo: 12\n"))
	require.True(t, errors.As(err, &schemaErr), "got %v", err)
	assert.Equal(t, "/foo", schemaErr.Path)
}

func TestLoadYAMLSyntaxError(t *testing.T) {
	err := NewTable().LoadYAML("bad.yaml", []byte("foo: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bad.yaml"`)
}

func TestDefaultTable(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	assert.True(t, table.Frozen())
	assert.Greater(t, table.Len(), 100)

	for _, tag := range []string{"area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "source", "track", "wbr"} {
		el := table.Get(tag)
		if assert.NotNil(t, el, tag) {
			assert.True(t, el.Void, tag)
		}
	}

	p := table.Get("p")
	assert.Contains(t, p.ImplicitClosed, "div")
	assert.Contains(t, p.ImplicitClosed, "p")

	h3 := table.Get("h3")
	assert.Equal(t, "h1", h3.Inherit)
	assert.True(t, h3.Heading(testNode{tag: "h3"}))

	div := table.Get("div")
	require.Contains(t, div.Attributes, "hidden", "global attributes are merged")
	assert.Contains(t, div.Attributes, "tabindex")

	table5 := table.Get("table")
	names := make([]string, len(table5.PermittedOrder))
	for i, e := range table5.PermittedOrder {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"@script", "caption", "colgroup", "thead", "tbody", "tr", "tfoot"}, names)

	assert.True(t, table.Get("svg").Foreign)
	assert.Equal(t, "link", table.Get("a").Aria.ImplicitRole(testNode{tag: "a", attrs: map[string]string{"href": "#"}}))
	assert.Equal(t, "generic", table.Get("a").Aria.ImplicitRole(testNode{tag: "a"}))
	assert.Equal(t, NamingProhibited, table.Get("a").Aria.Naming(testNode{tag: "a"}))
	assert.Equal(t, "presentation", table.Get("img").Aria.ImplicitRole(testNode{tag: "img", attrs: map[string]string{"alt": ""}}))
	assert.Equal(t, []string{"h1", "h2", "h3", "h4", "h5", "h6"}, table.TagsDerivedFrom("h1"))
}
