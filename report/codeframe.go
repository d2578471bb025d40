package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// CodeFrameOptions controls WriteCodeFrame.
type CodeFrameOptions struct {
	// Context is the number of lines shown around the offending line.
	Context int
	// Color highlights the source with ANSI escapes.
	Color bool
	// Style is the chroma style name, "monokai" when empty.
	Style string
}

// WriteCodeFrame writes every message followed by the source lines around
// it, with a caret marking the reported column.
func (r *Report) WriteCodeFrame(w io.Writer, opts CodeFrameOptions) error {
	var hl *highlighter
	if opts.Color {
		hl = newHighlighter(opts.Style)
	}
	for _, res := range r.Results {
		lines := splitLines(res.Source)
		for _, m := range res.Messages {
			if _, err := fmt.Fprintf(w, "%s: %s [%s]\n", m.Severity, m.Message, m.RuleID); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "at %s:%d:%d:\n", res.FilePath, m.Location.Line, m.Location.Column); err != nil {
				return err
			}
			if err := writeFrame(w, lines, m, opts.Context, hl); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d errors, %d warnings\n", r.ErrorCount(), r.WarningCount())
	return err
}

func writeFrame(w io.Writer, lines []string, m Message, context int, hl *highlighter) error {
	line := m.Location.Line
	if line < 1 || line > len(lines) {
		return nil
	}
	first, last := line-context, line+context
	if first < 1 {
		first = 1
	}
	if last > len(lines) {
		last = len(lines)
	}
	width := len(fmt.Sprint(last))
	for n := first; n <= last; n++ {
		marker := " "
		if n == line {
			marker = ">"
		}
		text := lines[n-1]
		if hl != nil {
			text = hl.highlight(text)
		}
		if _, err := fmt.Fprintf(w, "%s %*d | %s\n", marker, width, n, text); err != nil {
			return err
		}
		if n == line {
			if _, err := fmt.Fprintf(w, "  %s | %s\n", strings.Repeat(" ", width), caret(lines[n-1], m.Location.Column, m.Location.Size)); err != nil {
				return err
			}
		}
	}
	return nil
}

// caret underlines the location on its line, keeping tabs so the marker
// lines up with the source.
func caret(line string, column, size int) string {
	var sb strings.Builder
	col := 1
	for _, r := range line {
		if col >= column {
			break
		}
		if r == '\t' {
			sb.WriteRune('\t')
		} else {
			sb.WriteRune(' ')
		}
		col++
	}
	if remaining := utf8.RuneCountInString(line) - (column - 1); size > remaining {
		size = remaining
	}
	if size < 1 {
		size = 1
	}
	sb.WriteString(strings.Repeat("^", size))
	return sb.String()
}

type highlighter struct {
	lexer     chroma.Lexer
	style     *chroma.Style
	formatter chroma.Formatter
}

func newHighlighter(style string) *highlighter {
	l := lexers.Get("html")
	if l == nil {
		l = lexers.Fallback
	}
	if style == "" {
		style = "monokai"
	}
	return &highlighter{
		lexer:     chroma.Coalesce(l),
		style:     styles.Get(style),
		formatter: formatters.Get("terminal256"),
	}
}

// highlight colors a single line, returning it unchanged on failure.
func (hl *highlighter) highlight(line string) string {
	it, err := hl.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := hl.formatter.Format(&buf, hl.style, it); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}

// splitLines splits on "\r\n", "\n" and a lone "\r", matching how
// locations count lines.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Split(strings.ReplaceAll(s, "\r", "\n"), "\n")
}
