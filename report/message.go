package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/heathj/htmllint/parser/dom"
)

// Severity of a lint message, also used to configure rules.
type Severity string

const (
	Off     Severity = "off"
	Warning Severity = "warn"
	Error   Severity = "error"
)

// ParseSeverity accepts the names as well as the numeric levels 0, 1 and 2.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return Off, nil
	case "warn", "warning", "1":
		return Warning, nil
	case "error", "2":
		return Error, nil
	}
	return Off, errors.Errorf("invalid severity %q, expected off, warn or error", s)
}

// Message is a single finding.
type Message struct {
	RuleID   string
	Severity Severity
	Message  string
	Location dom.Location
	// Selector identifies the element the message is about, when any.
	Selector string
}

func (m Message) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", m.Location, m.Severity, m.Message, m.RuleID)
}

// Result holds the messages of one source.
type Result struct {
	FilePath string
	Messages []Message
	// Source is the text that was linted, kept for code frames.
	Source string
}

func (r *Result) count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// ErrorCount returns the number of error messages of the source.
func (r *Result) ErrorCount() int {
	return r.count(Error)
}

// WarningCount returns the number of warnings of the source.
func (r *Result) WarningCount() int {
	return r.count(Warning)
}

func (r *Result) sort() {
	sort.SliceStable(r.Messages, func(i, j int) bool {
		a, b := r.Messages[i].Location, r.Messages[j].Location
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Report collects the results of a lint run, one per source.
type Report struct {
	Results []*Result
}

func NewReport() *Report {
	return &Report{}
}

// Result returns the result for the file, creating it when missing.
func (r *Report) Result(filePath string) *Result {
	for _, res := range r.Results {
		if res.FilePath == filePath {
			return res
		}
	}
	res := &Result{FilePath: filePath}
	r.Results = append(r.Results, res)
	return res
}

// Add appends a message to the result of the file it is located in.
// Messages with severity Off are dropped.
func (r *Report) Add(msg Message) {
	if msg.Severity == Off {
		return
	}
	res := r.Result(msg.Location.Filename)
	res.Messages = append(res.Messages, msg)
}

// Merge appends the results of other.
func (r *Report) Merge(other *Report) {
	for _, res := range other.Results {
		dst := r.Result(res.FilePath)
		dst.Messages = append(dst.Messages, res.Messages...)
		if dst.Source == "" {
			dst.Source = res.Source
		}
	}
}

// Sort orders results by path and messages by position.
func (r *Report) Sort() {
	sort.SliceStable(r.Results, func(i, j int) bool {
		return r.Results[i].FilePath < r.Results[j].FilePath
	})
	for _, res := range r.Results {
		res.sort()
	}
}

// ErrorCount returns the number of error messages.
func (r *Report) ErrorCount() int {
	n := 0
	for _, res := range r.Results {
		n += res.ErrorCount()
	}
	return n
}

// WarningCount returns the number of warnings.
func (r *Report) WarningCount() int {
	n := 0
	for _, res := range r.Results {
		n += res.WarningCount()
	}
	return n
}

// Messages returns every message in result order.
func (r *Report) Messages() []Message {
	var all []Message
	for _, res := range r.Results {
		all = append(all, res.Messages...)
	}
	return all
}

// IsValid returns true if there are no errors.
func (r *Report) IsValid() bool {
	return r.ErrorCount() == 0
}
