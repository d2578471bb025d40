package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/htmllint/parser/dom"
)

func loc(file string, line, column, size int) dom.Location {
	return dom.Location{Filename: file, Line: line, Column: column, Size: size}
}

func sampleReport() *Report {
	r := NewReport()
	r.Add(Message{RuleID: "void-content", Severity: Warning, Message: "End tag for <br> must be omitted", Location: loc("b.html", 3, 2, 4)})
	r.Add(Message{RuleID: "close-order", Severity: Error, Message: "Mismatched close-tag, expected '</p>' but found '</i>'.", Location: loc("a.html", 1, 16, 1)})
	r.Add(Message{RuleID: "deprecated", Severity: Off, Message: "dropped", Location: loc("a.html", 1, 1, 1)})
	r.Add(Message{RuleID: "element-required-content", Severity: Error, Message: "<dl> element must have <dd> as content", Location: loc("a.html", 1, 2, 2)})
	r.Result("a.html").Source = "<p>lorem ipsum</i>\n"
	r.Result("b.html").Source = "<p>\n\tx\n\t</br>\n"
	return r
}

func TestParseSeverity(t *testing.T) {
	tests := map[string]Severity{
		"off": Off, "0": Off, "warn": Warning, "WARNING": Warning, "1": Warning, "error": Error, " 2 ": Error,
	}
	for in, want := range tests {
		got, err := ParseSeverity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestReportCounts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, 2, r.ErrorCount())
	assert.Equal(t, 1, r.WarningCount())
	assert.False(t, r.IsValid())
	assert.Len(t, r.Messages(), 3)
	require.Len(t, r.Results, 2)
	assert.Equal(t, 2, r.Result("a.html").ErrorCount())

	assert.True(t, NewReport().IsValid())
}

func TestReportSortAndMerge(t *testing.T) {
	r := sampleReport()
	other := NewReport()
	other.Add(Message{RuleID: "x", Severity: Error, Message: "first", Location: loc("a.html", 1, 1, 1)})
	other.Result("c.html")
	r.Merge(other)
	r.Sort()

	paths := make([]string, len(r.Results))
	for i, res := range r.Results {
		paths[i] = res.FilePath
	}
	assert.Equal(t, []string{"a.html", "b.html", "c.html"}, paths)

	a := r.Results[0]
	require.Len(t, a.Messages, 3)
	assert.Equal(t, "first", a.Messages[0].Message)
	assert.Equal(t, 2, a.Messages[1].Location.Column)
	assert.Equal(t, 16, a.Messages[2].Location.Column)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "a.html\n")
	assert.Contains(t, out, "1:16")
	assert.Contains(t, out, "close-order")
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.HasSuffix(out, "3 problems (2 errors, 1 warnings)\n"), out)

	buf.Reset()
	require.NoError(t, NewReport().WriteText(&buf))
	assert.Equal(t, "No problems found.\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteJSON(&buf))

	var out struct {
		Valid      bool `json:"valid"`
		ErrorCount int  `json:"errorCount"`
		Results    []struct {
			FilePath string `json:"filePath"`
			Messages []struct {
				RuleID   string `json:"ruleId"`
				Severity string `json:"severity"`
				Line     int    `json:"line"`
				Column   int    `json:"column"`
			} `json:"messages"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, 2, out.ErrorCount)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "b.html", out.Results[0].FilePath)
	assert.Equal(t, "warn", out.Results[0].Messages[0].Severity)
	assert.Equal(t, "close-order", out.Results[1].Messages[0].RuleID)
	assert.Equal(t, 16, out.Results[1].Messages[0].Column)

	buf.Reset()
	require.NoError(t, NewReport().WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"results": []`)
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().WriteHTML(&buf))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"), out)
	assert.Contains(t, out, `<p id="summary">2 errors, 1 warnings</p>`)
	assert.Contains(t, out, "<code>close-order</code>")
	assert.Contains(t, out, `<td class="error">error</td>`)
	// message text is escaped
	assert.Contains(t, out, "&lt;dl&gt; element must have &lt;dd&gt; as content")
}

func TestWriteCodeFrame(t *testing.T) {
	r := NewReport()
	r.Add(Message{RuleID: "close-order", Severity: Error, Message: "Mismatched close-tag", Location: loc("a.html", 2, 5, 3)})
	r.Result("a.html").Source = "<div>\n<p>x</i>\n</div>"

	var buf bytes.Buffer
	require.NoError(t, r.WriteCodeFrame(&buf, CodeFrameOptions{Context: 1}))
	want := `error: Mismatched close-tag [close-order]
at a.html:2:5:
  1 | <div>
> 2 | <p>x</i>
    |     ^^^
  3 | </div>

1 errors, 0 warnings
`
	assert.Equal(t, want, buf.String())
}

func TestWriteCodeFrameCarriageReturns(t *testing.T) {
	r := NewReport()
	r.Add(Message{RuleID: "close-order", Severity: Error, Message: "Mismatched close-tag", Location: loc("a.html", 3, 5, 3)})
	r.Result("a.html").Source = "<div>\r<span>\r\n<p>x</i>\r</div>"

	var buf bytes.Buffer
	require.NoError(t, r.WriteCodeFrame(&buf, CodeFrameOptions{Context: 0}))
	assert.Contains(t, buf.String(), "> 3 | <p>x</i>\n    |     ^^^\n")
}

func TestWriteCodeFrameColor(t *testing.T) {
	r := NewReport()
	r.Add(Message{RuleID: "r", Severity: Warning, Message: "m", Location: loc("a.html", 1, 1, 1)})
	r.Result("a.html").Source = `<a href="x">`

	var buf bytes.Buffer
	require.NoError(t, r.WriteCodeFrame(&buf, CodeFrameOptions{Color: true}))
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "href")
}

func TestCaret(t *testing.T) {
	assert.Equal(t, "  ^^", caret("ab<p>", 3, 2))
	assert.Equal(t, "\t ^", caret("\tx<", 3, 1))
	assert.Equal(t, "^^", caret("ab", 1, 10))
	assert.Equal(t, "  ^", caret("ab", 3, 1))
}
