package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/parser/dom"
	"github.com/heathj/htmllint/report"
)

// disabledRange silences one rule between two offsets of the source. A
// range opened by disable-block also requires the reported node to be
// inside the element holding the directive.
type disabledRange struct {
	rule     string
	from, to int
	block    *dom.Node
}

// Run is the state of the rules for a single parse. It owns the inline
// directive state and reports into one report.
type Run struct {
	report *report.Report
	log    *logrus.Entry
	rules  []string

	// open maps a rule to the start offset of its open disable directive.
	open     map[string]int
	ranges   []disabledRange
	next     []string
	nextNode map[*dom.Node][]string

	parserErrorSeverity report.Severity
}

// Attach sets up the rules enabled in cfg on listeners. Findings are added
// to rep. The returned run must not be shared between parses.
func Attach(listeners *parser.Listeners, cfg Config, rep *report.Report, log *logrus.Entry) (*Run, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	run := &Run{
		report:   rep,
		log:      log,
		open:     map[string]int{},
		nextNode: map[*dom.Node][]string{},
	}
	run.parserErrorSeverity = cfg[parserErrorName]

	// directive bookkeeping runs before any rule sees an event
	listeners.On(run.onDirective, parser.Directive)
	listeners.On(run.onTagStart, parser.TagStart)
	listeners.On(run.onTagEnd, parser.TagEnd)

	for _, name := range Names() {
		sev := cfg[name]
		if sev == "" || sev == report.Off {
			continue
		}
		rule, _ := New(name)
		run.rules = append(run.rules, name)
		rule.Setup(&Context{run: run, rule: name, severity: sev, listeners: listeners})
	}
	log.WithField("rules", len(run.rules)).Debug("rules attached")
	return run, nil
}

// Rules returns the names of the rules running, sorted.
func (r *Run) Rules() []string {
	return r.rules
}

// ParseError reports a parse failure as a parser-error finding.
func (r *Run) ParseError(err *parser.ParseError) {
	sev := r.parserErrorSeverity
	if sev == "" {
		sev = report.Error
	}
	r.report.Add(report.Message{
		RuleID:   parserErrorName,
		Severity: sev,
		Message:  err.Message,
		Location: err.Location,
	})
}

// ruleNames splits directive data, a comma or whitespace separated list.
// An empty list means every running rule.
func (r *Run) ruleNames(data string) []string {
	names := strings.FieldsFunc(data, func(c rune) bool {
		return c == ',' || c == ' ' || c == '\t' || c == '\n'
	})
	if len(names) == 0 {
		return r.rules
	}
	return names
}

func (r *Run) onDirective(ev *parser.Event) {
	d := ev.Directive
	names := r.ruleNames(d.Data)
	offset := ev.Location.Offset
	log := r.log.WithFields(logrus.Fields{
		"action":   d.Action,
		"rules":    strings.Join(names, ","),
		"location": ev.Location.String(),
	})

	switch d.Action {
	case "disable":
		for _, name := range names {
			if _, ok := r.open[name]; !ok {
				r.open[name] = offset
			}
		}
	case "enable":
		for _, name := range names {
			if from, ok := r.open[name]; ok {
				r.ranges = append(r.ranges, disabledRange{rule: name, from: from, to: offset})
				delete(r.open, name)
			}
		}
	case "disable-block":
		for _, name := range names {
			r.ranges = append(r.ranges, disabledRange{rule: name, from: offset, to: math.MaxInt, block: ev.Target})
		}
	case "disable-next":
		r.next = names
	default:
		log.Warn("unknown directive")
		return
	}
	log.Debug("directive")
}

func (r *Run) onTagStart(ev *parser.Event) {
	if r.next == nil {
		return
	}
	r.nextNode[ev.Target] = r.next
	r.next = nil
}

// onTagEnd ends the disable-block ranges of the element being closed.
func (r *Run) onTagEnd(ev *parser.Event) {
	if ev.Previous == nil {
		return
	}
	for i := range r.ranges {
		rng := &r.ranges[i]
		if rng.block == ev.Previous && rng.to == math.MaxInt {
			rng.to = ev.Location.Offset
		}
	}
}

// blocked returns true when an inline directive silences rule for a
// finding about node at loc.
func (r *Run) blocked(rule string, node *dom.Node, loc dom.Location) bool {
	if node != nil && contains(r.nextNode[node], rule) {
		return true
	}
	if from, ok := r.open[rule]; ok && loc.Offset >= from {
		return true
	}
	for _, rng := range r.ranges {
		if rng.rule != rule || loc.Offset < rng.from || loc.Offset >= rng.to {
			continue
		}
		if rng.block == nil || rng.block.IsRootElement() || isInside(node, rng.block) {
			return true
		}
	}
	return false
}

func isInside(node, parent *dom.Node) bool {
	for cur := node; cur != nil; cur = cur.ParentNode {
		if cur == parent {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Context is what a rule sees of the run.
type Context struct {
	run       *Run
	rule      string
	severity  report.Severity
	listeners *parser.Listeners
}

// On registers fn for the event kinds.
func (c *Context) On(fn parser.Listener, kinds ...parser.EventKind) {
	c.listeners.On(fn, kinds...)
}

// Logger returns the entry of the run, tagged with the rule.
func (c *Context) Logger() *logrus.Entry {
	return c.run.log.WithField("rule", c.rule)
}

// Report adds a finding about node. A nil loc reports at the location of
// the node.
func (c *Context) Report(node *dom.Node, message string, loc *dom.Location) {
	at := dom.Location{}
	switch {
	case loc != nil:
		at = *loc
	case node != nil:
		at = node.Location
	}
	if c.run.blocked(c.rule, node, at) {
		c.Logger().WithField("location", at.String()).Debug("finding disabled by directive")
		return
	}
	c.run.report.Add(report.Message{
		RuleID:   c.rule,
		Severity: c.severity,
		Message:  message,
		Location: at,
		Selector: cssPath(node),
	})
}

// cssPath builds a selector identifying node, e.g. "ul > li:nth-child(2)".
// It stops at the first ancestor carrying an id.
func cssPath(node *dom.Node) string {
	var parts []string
	for cur := node; cur != nil && cur.NodeType == dom.ElementNode; cur = cur.ParentNode {
		if id, ok := cur.AttributeValue("id"); ok && id != "" && !strings.ContainsAny(id, " \t\n") {
			parts = append(parts, "#"+id)
			break
		}
		parts = append(parts, cur.TagName()+nthChild(cur))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// nthChild returns the :nth-child suffix needed to tell node apart from its
// siblings with the same tag.
func nthChild(node *dom.Node) string {
	if node.ParentNode == nil {
		return ""
	}
	siblings := node.ParentNode.ChildElements()
	index, same := 0, 0
	for i, sibling := range siblings {
		if sibling == node {
			index = i + 1
		}
		if sibling.Is(node.TagName()) {
			same++
		}
	}
	if same < 2 {
		return ""
	}
	return ":nth-child(" + strconv.Itoa(index) + ")"
}
