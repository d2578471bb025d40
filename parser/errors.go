package parser

import (
	"fmt"

	"github.com/heathj/htmllint/parser/dom"
)

// ParseError aborts parsing of one source. It carries the location where
// parsing stopped.
type ParseError struct {
	Location dom.Location
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

func newParseError(loc dom.Location, format string, args ...any) *ParseError {
	return &ParseError{Location: loc, Message: fmt.Sprintf(format, args...)}
}
