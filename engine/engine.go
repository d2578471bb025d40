// Package engine ties the parser, the element table and the rules together.
// An Engine is safe for concurrent use: every lint call builds its own
// listener registry, parser and rule state while the table is shared
// read-only.
package engine

import (
	"context"
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/heathj/htmllint/meta"
	"github.com/heathj/htmllint/parser"
	"github.com/heathj/htmllint/report"
	"github.com/heathj/htmllint/rules"
)

type Engine struct {
	table   *meta.Table
	config  rules.Config
	log     *logrus.Entry
	workers int
}

type Option func(*Engine)

// WithTable sets the element table. It must be initialized.
func WithTable(table *meta.Table) Option {
	return func(e *Engine) {
		e.table = table
	}
}

// WithConfig replaces the rule configuration, the recommended rules by
// default.
func WithConfig(cfg rules.Config) Option {
	return func(e *Engine) {
		e.config = cfg
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithWorkers bounds the number of sources linted at once by LintFiles.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an engine. Without WithTable the embedded HTML5 table is
// used.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config:  rules.Recommended(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if err := e.config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid rule configuration")
	}
	if e.table == nil {
		table, err := meta.Default(meta.WithLogger(e.log))
		if err != nil {
			return nil, errors.Wrap(err, "loading html5 elements")
		}
		e.table = table
	}
	if !e.table.Frozen() {
		return nil, errors.New("element table must be initialized before linting")
	}
	return e, nil
}

// Table returns the element table of the engine.
func (e *Engine) Table() *meta.Table {
	return e.table
}

// Config returns the rule configuration of the engine.
func (e *Engine) Config() rules.Config {
	return e.config
}

// Lint parses src and runs the configured rules over it. A source which
// cannot be parsed yields a single parser-error finding, not an error.
func (e *Engine) Lint(src parser.Source) (*report.Report, error) {
	log := e.log.WithField("filename", src.Filename)

	rep := report.NewReport()
	rep.Result(src.Filename).Source = src.Data

	listeners := parser.NewListeners()
	run, err := rules.Attach(listeners, e.config, rep, log)
	if err != nil {
		return nil, err
	}

	_, err = parser.NewParser(e.table, listeners, parser.WithLogger(log)).Parse(src)
	var perr *parser.ParseError
	switch {
	case errors.As(err, &perr):
		run.ParseError(perr)
	case err != nil:
		return nil, errors.Wrapf(err, "parsing %s", src.Filename)
	}

	rep.Sort()
	log.WithFields(logrus.Fields{
		"errors":   rep.ErrorCount(),
		"warnings": rep.WarningCount(),
	}).Debug("linted source")
	return rep, nil
}

// LintString lints markup held in memory.
func (e *Engine) LintString(data, filename string) (*report.Report, error) {
	return e.Lint(parser.Source{Data: data, Filename: filename})
}

// LintFile reads and lints a single file.
func (e *Engine) LintFile(path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading source")
	}
	return e.LintString(string(data), path)
}

type lintJob struct {
	index int
	path  string
}

type lintResult struct {
	report *report.Report
	err    error
}

// LintFiles lints the files concurrently, at most WithWorkers at a time,
// and merges the results in path order. The first failure to read a file
// is returned along with the findings of every other file. Cancelling ctx
// stops files not yet started from being linted.
func (e *Engine) LintFiles(ctx context.Context, paths []string) (*report.Report, error) {
	results := make([]lintResult, len(paths))
	jobs := make(chan lintJob)

	workers := e.workers
	if workers > len(paths) {
		workers = len(paths)
	}
	e.log.WithFields(logrus.Fields{
		"files":   len(paths),
		"workers": workers,
	}).Debug("linting files")

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for job := range jobs {
				rep, err := e.LintFile(job.path)
				results[job.index] = lintResult{report: rep, err: errors.Wrap(err, job.path)}
			}
		}()
	}

	var cancelled error
dispatch:
	for i, path := range paths {
		if cancelled = ctx.Err(); cancelled != nil {
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- lintJob{index: i, path: path}:
		}
	}
	close(jobs)
	wg.Wait()

	merged := report.NewReport()
	var first error
	for _, res := range results {
		if res.err != nil && first == nil {
			first = res.err
		}
		if res.report != nil {
			merged.Merge(res.report)
		}
	}
	merged.Sort()
	if cancelled != nil {
		return merged, cancelled
	}
	return merged, first
}
