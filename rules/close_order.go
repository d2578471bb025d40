package rules

import (
	"fmt"

	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/parser/dom"
)

const (
	closeOrderName  = "close-order"
	parserErrorName = "parser-error"
)

// closeOrder requires elements to be closed in the order they were opened.
type closeOrder struct{}

func (closeOrder) Name() string { return closeOrderName }

func (closeOrder) Description() string {
	return "Elements must be closed in the correct order"
}

func (closeOrder) Setup(ctx *Context) {
	ctx.On(func(ev *parser.Event) {
		current, active := ev.Target, ev.Previous
		if active == nil {
			return
		}

		// closed by the end of the document
		if current == nil {
			if active.IsRootElement() || implicitlyClosed(active) {
				return
			}
			loc := ev.Location
			ctx.Report(active, fmt.Sprintf("Missing close-tag, expected '</%s>' but document ended before it was found.", active.TagName()), &loc)
			return
		}

		if current.VoidElement() || active.State == dom.ImplicitClosed || current.State != dom.EndTag {
			return
		}
		if active.IsRootElement() {
			ctx.Report(current, fmt.Sprintf("Stray end tag '</%s>'", current.TagName()), nil)
			return
		}
		if current.TagName() != active.TagName() {
			loc := current.Location
			ctx.Report(active, fmt.Sprintf("Mismatched close-tag, expected '</%s>' but found '</%s>'.", active.TagName(), current.TagName()), &loc)
		}
	}, parser.TagEnd)
}

// implicitlyClosed returns true for elements whose end tag may be left out.
func implicitlyClosed(n *dom.Node) bool {
	return n.Meta != nil && len(n.Meta.ImplicitClosed) > 0
}

// parserError is never set up: parse errors stop the parse and are reported
// by the run itself.
type parserError struct{}

func (parserError) Name() string { return parserErrorName }

func (parserError) Description() string {
	return "The document could not be parsed"
}

func (parserError) Setup(*Context) {}
