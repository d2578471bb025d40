package rules

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/report"
)

var (
	tableOnce sync.Once
	table     *meta.Table
	tableErr  error
)

func html5(t *testing.T) *meta.Table {
	t.Helper()
	tableOnce.Do(func() {
		table, tableErr = meta.Default()
	})
	require.NoError(t, tableErr)
	return table
}

// lint parses in with the rules of cfg attached and returns the findings.
func lint(t *testing.T, cfg Config, in string) []report.Message {
	t.Helper()
	listeners := parser.NewListeners()
	rep := report.NewReport()
	run, err := Attach(listeners, cfg, rep, nil)
	require.NoError(t, err)

	_, err = parser.NewParser(html5(t), listeners).Parse(parser.Source{Data: in, Filename: "inline"})
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		run.ParseError(perr)
	} else {
		require.NoError(t, err)
	}
	return rep.Messages()
}

func only(name string) Config {
	return Config{name: report.Error}
}

func describe(messages []report.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, fmt.Sprintf("%d:%d %s", m.Location.Line, m.Location.Column, m.Message))
	}
	return out
}

type ruleTestcase struct {
	rule string
	in   string
	want []string
}

var ruleTests = []ruleTestcase{
	{"close-order", "<p>lorem ipsum</i>", []string{
		"1:16 Mismatched close-tag, expected '</p>' but found '</i>'.",
	}},
	{"close-order", "<div></div></span>", []string{
		"1:13 Stray end tag '</span>'",
	}},
	{"close-order", "<div><span>x", []string{
		"1:13 Missing close-tag, expected '</span>' but document ended before it was found.",
		"1:13 Missing close-tag, expected '</div>' but document ended before it was found.",
	}},
	{"close-order", "<ul><li>a<li>b</ul>", nil},
	{"close-order", "<div><br></br><img/></div>", nil},
	{"close-order", "<p>one<div>two</div>", nil},

	{"void-content", "<br></br>", []string{
		"1:6 End tag for <br> must be omitted",
	}},
	{"void-content", "<br><br/>", nil},

	{"element-permitted-content", "<ul><div></div></ul>", []string{
		"1:6 <div> element is not permitted as content under <ul>",
	}},
	{"element-permitted-content", `<p><a href="#"><div></div></a></p>`, []string{
		"1:17 <div> element is not permitted as content under <p>",
	}},
	{"element-permitted-content", `<button><a href="#">x</a></button>`, []string{
		"1:10 <a> element is not permitted as a descendant of <button>",
	}},
	{"element-permitted-content", `<ul><li><p>x</p></li></ul><x-custom><table></table></x-custom>`, nil},

	{"element-permitted-occurrences", "<table><caption></caption><caption></caption></table>", []string{
		"1:28 Element <caption> can only appear once under <table>",
	}},
	{"element-permitted-occurrences", "<table><caption></caption><caption></caption></br></table>", []string{
		"1:28 Element <caption> can only appear once under <table>",
	}},
	{"element-permitted-order", "<table><tbody></tbody><thead></thead></table>", []string{
		"1:24 Element <thead> must be used before <tbody> in this context",
	}},
	{"element-permitted-order", "<table><thead></thead><tbody></tbody></table>", nil},

	{"element-permitted-parent", "<div><li>x</li></div>", []string{
		"1:7 Element <li> cannot have <div> as parent",
	}},
	{"element-permitted-parent", "<li>x</li>", nil},

	{"element-required-ancestor", "<div><dd>x</dd></div>", []string{
		"1:7 <dd> element requires a <dl> or <dl > div> ancestor",
	}},
	{"element-required-ancestor", "<dl><div><dt>a</dt><dd>b</dd></div></dl>", nil},

	{"element-required-content", "<head></head>", []string{
		"1:2 <head> element must have <title> as content",
	}},
	{"element-required-content", "<head><title>x</title></head>", nil},

	{"element-required-attributes", "<img>", []string{
		`1:2 <img> is missing required "src" attribute`,
	}},
	{"element-required-attributes", `<img src="a.png">`, nil},

	{"attribute-allowed-values", `<input type="foo">`, []string{
		`1:14 Attribute "type" has invalid value "foo"`,
	}},
	{"attribute-allowed-values", `<input disabled="yes">`, []string{
		`1:18 Attribute "disabled" should omit value`,
	}},
	{"attribute-allowed-values", `<input type>`, []string{
		`1:8 Attribute "type" is missing value`,
	}},
	{"attribute-allowed-values", `<input disabled type="TEXT"><input disabled="disabled">`, nil},

	{"deprecated", "<center></center>", []string{
		"1:2 <center> is deprecated",
	}},
	{"deprecated", `<img align="left" src="a.png">`, []string{
		`1:6 Attribute "align" is deprecated on <img> element`,
	}},

	{"aria-label-misuse", `<span aria-label="x"></span>`, []string{
		`1:7 "aria-label" cannot be used on <span> element`,
	}},
	{"aria-label-misuse", `<a href="#" aria-label="x"></a><span role="button" aria-label="x"></span><div aria-label=""></div>`, nil},

	{"text-content", "<title></title>", []string{
		"1:2 <title> must have text content",
	}},
	{"text-content", "<button></button>", []string{
		"1:2 <button> must have accessible text",
	}},
	{"text-content", `<button><img src="a.png" alt="Save"></button><button title="Save"></button><button>Save</button>`, nil},

	{"close-order", "<!-- [htmllint-disable-next close-order] --><p>lorem</i>", nil},
	{"deprecated", "<!-- [htmllint-disable] --><center></center>", nil},
}

func TestRules(t *testing.T) {
	for _, tt := range ruleTests {
		runTestRules(tt, t)
	}
}

func runTestRules(tt ruleTestcase, t *testing.T) {
	t.Run(tt.rule+" "+tt.in, func(t *testing.T) {
		t.Parallel()
		got := describe(lint(t, only(tt.rule), tt.in))
		if diff := cmp.Diff(tt.want, got, cmp.Comparer(func(a, b []string) bool {
			return strings.Join(a, "\n") == strings.Join(b, "\n")
		})); diff != "" {
			t.Errorf("findings mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestMismatchedCloseTagEndToEnd(t *testing.T) {
	messages := lint(t, Recommended(), "<p>lorem ipsum</i>")
	require.Len(t, messages, 1)
	m := messages[0]
	assert.Equal(t, "close-order", m.RuleID)
	assert.Equal(t, report.Error, m.Severity)
	assert.Equal(t, 1, m.Location.Line)
	assert.Equal(t, 16, m.Location.Column)
	assert.Contains(t, m.Message, "expected '</p>'")
	assert.Equal(t, "p", m.Selector)
}

func TestParseErrorIsOneFinding(t *testing.T) {
	messages := lint(t, Recommended(), "<div")
	require.Len(t, messages, 1)
	assert.Equal(t, "parser-error", messages[0].RuleID)
	assert.Equal(t, 0, messages[0].Location.Offset)
	assert.Equal(t, "stream ended before TAG_CLOSE token was found", messages[0].Message)
}

func TestDisableBlock(t *testing.T) {
	in := "<div><!-- [htmllint-disable-block deprecated] --><center></center></div><center></center>"
	messages := lint(t, only("deprecated"), in)
	require.Len(t, messages, 1)
	assert.Equal(t, strings.LastIndex(in, "<center")+1, messages[0].Location.Offset)
}

func TestDisableBlockSpansVoidEndTag(t *testing.T) {
	in := "<div><!-- [htmllint-disable-block deprecated] --></br><center></center></div><center></center>"
	messages := lint(t, only("deprecated"), in)
	require.Len(t, messages, 1)
	assert.Equal(t, strings.LastIndex(in, "<center")+1, messages[0].Location.Offset)
}

func TestDisableEnable(t *testing.T) {
	in := "<!-- [htmllint-disable deprecated, close-order] --><center></center>" +
		"<!-- [htmllint-enable deprecated] --><font></font>"
	messages := lint(t, Config{"deprecated": report.Warning, "close-order": report.Error}, in)
	require.Len(t, messages, 1)
	assert.Equal(t, "<font> is deprecated", messages[0].Message)
	assert.Equal(t, report.Warning, messages[0].Severity)
}

func TestDisableNextOnlyAffectsNextElement(t *testing.T) {
	in := "<!-- [htmllint-disable-next deprecated: legacy markup] --><center></center><center></center>"
	messages := lint(t, only("deprecated"), in)
	require.Len(t, messages, 1)
	assert.Equal(t, strings.LastIndex(in, "<center")+1, messages[0].Location.Offset)
}

func TestSelector(t *testing.T) {
	messages := lint(t, only("deprecated"), `<ul id="list"><li></li><li><center></center></li></ul><div><center></center></div>`)
	require.Len(t, messages, 2)
	assert.Equal(t, "#list > li:nth-child(2) > center", messages[0].Selector)
	assert.Equal(t, "div > center", messages[1].Selector)
}

func TestRegistry(t *testing.T) {
	names := Names()
	assert.Len(t, names, len(builtin))
	assert.Contains(t, names, "close-order")
	assert.Contains(t, names, "parser-error")
	assert.IsIncreasing(t, names)

	for _, name := range names {
		r, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, r.Name())
		assert.NotEmpty(t, r.Description(), name)
	}
	_, err := New("no-such-rule")
	assert.Error(t, err)
}

func TestConfig(t *testing.T) {
	cfg := Recommended()
	assert.Equal(t, report.Warning, cfg["deprecated"])
	assert.Equal(t, report.Error, cfg["close-order"])
	require.NoError(t, cfg.Validate())

	merged := cfg.Merge(Config{"deprecated": report.Off})
	assert.Equal(t, report.Off, merged["deprecated"])
	assert.Equal(t, report.Warning, cfg["deprecated"], "merge must not modify the receiver")

	_, err := Attach(parser.NewListeners(), Config{"no-such-rule": report.Error}, report.NewReport(), nil)
	assert.Error(t, err)

	run, err := Attach(parser.NewListeners(), merged, report.NewReport(), nil)
	require.NoError(t, err)
	assert.NotContains(t, run.Rules(), "deprecated")
}
