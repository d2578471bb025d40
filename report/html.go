package report

import (
	"fmt"
	"io"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const htmlStyle = `body{font-family:sans-serif;margin:2em}
table{border-collapse:collapse;width:100%;margin-bottom:2em}
th,td{text-align:left;padding:.25em .5em;border-bottom:1px solid #ddd}
td.error{color:#b00020}
td.warn{color:#a06000}
code{font-family:monospace}`

// WriteHTML writes the report as a standalone HTML page.
func (r *Report) WriteHTML(w io.Writer) error {
	return r.htmlPage().Render(w)
}

func (r *Report) htmlPage() g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				g.El("title", g.Text("htmllint report")),
				g.El("style", g.Raw(htmlStyle)),
			),
			h.Body(
				h.H1(g.Text("htmllint report")),
				h.P(h.ID("summary"), g.Textf("%d errors, %d warnings", r.ErrorCount(), r.WarningCount())),
				g.Map(r.Results, resultSection),
			),
		),
	)
}

func resultSection(res *Result) g.Node {
	return h.Section(
		h.H2(h.Code(g.Text(res.FilePath))),
		g.If(len(res.Messages) == 0, h.P(g.Text("No problems found."))),
		g.If(len(res.Messages) > 0,
			h.Table(
				h.THead(h.Tr(
					h.Th(g.Text("Location")),
					h.Th(g.Text("Severity")),
					h.Th(g.Text("Message")),
					h.Th(g.Text("Rule")),
				)),
				h.TBody(g.Map(res.Messages, messageRow)),
			),
		),
	)
}

func messageRow(m Message) g.Node {
	return h.Tr(
		h.Td(g.Text(fmt.Sprintf("%d:%d", m.Location.Line, m.Location.Column))),
		h.Td(h.Class(string(m.Severity)), g.Text(string(m.Severity))),
		h.Td(g.Text(m.Message)),
		h.Td(h.Code(g.Text(m.RuleID))),
	)
}
