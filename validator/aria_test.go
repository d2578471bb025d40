package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser"
)

func TestAria(t *testing.T) {
	table, err := meta.Default()
	require.NoError(t, err)
	doc, err := parser.NewParser(table, nil).Parse(parser.Source{
		Data: `<a href="/">x</a><a>y</a><span role="button"></span><div role="none"></div><x-custom></x-custom><article></article>`,
	})
	require.NoError(t, err)
	elements := doc.Root.ChildElements()
	require.Len(t, elements, 6)

	tests := []struct {
		role   string
		naming meta.Naming
	}{
		{"link", meta.NamingAllowed},
		{"generic", meta.NamingProhibited},
		{"generic", meta.NamingAllowed},
		{"generic", meta.NamingProhibited},
		{"", meta.NamingAllowed},
		{"article", meta.NamingAllowed},
	}
	for i, tt := range tests {
		n := elements[i]
		assert.Equal(t, tt.role, ImplicitRole(n), "%s #%d", n.AnnotatedName(), i)
		assert.Equal(t, tt.naming, Naming(n), "%s #%d", n.AnnotatedName(), i)
	}
}
