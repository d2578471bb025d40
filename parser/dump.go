package parser

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser/dom"
)

type tokenDump struct {
	Token    string `json:"token"`
	Data     string `json:"data"`
	Location string `json:"location"`
}

// DumpTokens writes every token of src as one JSON object per line.
func DumpTokens(w io.Writer, src Source) error {
	lexer := NewLexer(src, ContentText)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for {
		tok, ok := lexer.Next()
		if !ok {
			break
		}
		err := enc.Encode(tokenDump{
			Token:    tok.Kind.String(),
			Data:     tok.Raw(),
			Location: tok.Location.String(),
		})
		if err != nil {
			return errors.Wrap(err, "writing token dump")
		}
	}
	return lexer.Err()
}

type eventDump struct {
	Event     string `json:"event"`
	Location  string `json:"location"`
	Target    string `json:"target,omitempty"`
	Previous  string `json:"previous,omitempty"`
	Attribute string `json:"attribute,omitempty"`
	Text      string `json:"text,omitempty"`
}

func annotate(n *dom.Node) string {
	if n == nil {
		return ""
	}
	if n.IsRootElement() {
		return n.NodeName
	}
	return n.AnnotatedName()
}

// DumpEvents parses src and writes every event but token events as one
// JSON object per line.
func DumpEvents(w io.Writer, table *meta.Table, src Source) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	var writeErr error
	listeners := NewListeners()
	listeners.OnAny(func(ev *Event) {
		if ev.Kind == TokenEvent || writeErr != nil {
			return
		}
		out := eventDump{
			Event:    ev.Kind.String(),
			Location: ev.Location.String(),
			Target:   annotate(ev.Target),
			Previous: annotate(ev.Previous),
			Text:     ev.Text,
		}
		if ev.Attribute != nil {
			out.Attribute = ev.Attribute.Key + "=" + ev.Attribute.ValueString()
		}
		if ev.Directive != nil {
			out.Text = ev.Directive.Action + " " + ev.Directive.Data
		}
		writeErr = enc.Encode(out)
	})
	if _, err := NewParser(table, listeners).Parse(src); err != nil {
		return err
	}
	return errors.Wrap(writeErr, "writing event dump")
}
