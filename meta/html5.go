package meta

import (
	_ "embed"
)

// HTML5Source is the source name of the embedded element definitions.
const HTML5Source = "html5"

//go:embed elements/html5.yaml
var html5 []byte

// HTML5 returns the embedded HTML5 element definitions in YAML form so
// callers can load them ahead of their own sources.
func HTML5() []byte {
	return html5
}

// LoadHTML5 loads the embedded HTML5 element definitions.
func (t *Table) LoadHTML5() error {
	return t.LoadYAML(HTML5Source, html5)
}

// Default returns an initialized table holding only the HTML5 elements.
func Default(opts ...TableOption) (*Table, error) {
	t := NewTable(opts...)
	if err := t.LoadHTML5(); err != nil {
		return nil, err
	}
	if err := t.Init(); err != nil {
		return nil, err
	}
	return t, nil
}
