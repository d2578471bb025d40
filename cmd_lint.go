package main

import (
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/heathj/htmllint/engine"
	"github.com/heathj/htmllint/report"
)

var htmlExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".vue":  true,
}

func newLintCmd(opts *globalOptions) *cobra.Command {
	var (
		format       string
		color        bool
		style        string
		contextLines int
		workers      int
		maxWarnings  int
	)

	cmd := &cobra.Command{
		Use:   "lint [path...]",
		Short: "Lint files or directories",
		Long: `Lint the given files. Directories are searched for .html, .htm and
.vue files. Without arguments, or with "-", markup is read from stdin.

The exit status is 1 when an error is reported or when more than
--max-warnings warnings are reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var extra []engine.Option
			if workers > 0 {
				extra = append(extra, engine.WithWorkers(workers))
			}
			e, err := opts.newEngine(extra...)
			if err != nil {
				return err
			}

			var rep *report.Report
			if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
				src, err := readSource("-", cmd.InOrStdin())
				if err != nil {
					return err
				}
				if rep, err = e.Lint(src); err != nil {
					return err
				}
			} else {
				paths, err := expandPaths(args)
				if err != nil {
					return err
				}
				if rep, err = e.LintFiles(cmd.Context(), paths); err != nil {
					return err
				}
			}

			if err := writeReport(cmd.OutOrStdout(), rep, format, report.CodeFrameOptions{
				Context: contextLines,
				Color:   color,
				Style:   style,
			}); err != nil {
				return err
			}
			if !rep.IsValid() || (maxWarnings >= 0 && rep.WarningCount() > maxWarnings) {
				return errProblems
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, html or codeframe")
	cmd.Flags().BoolVar(&color, "color", false, "highlight code frames")
	cmd.Flags().StringVar(&style, "style", "", "chroma style used by --color")
	cmd.Flags().IntVar(&contextLines, "context", 2, "lines of source around code frames")
	cmd.Flags().IntVarP(&workers, "jobs", "j", 0, "files linted in parallel (default number of CPUs)")
	cmd.Flags().IntVar(&maxWarnings, "max-warnings", -1, "fail when more warnings are reported")

	return cmd
}

func writeReport(w io.Writer, rep *report.Report, format string, frame report.CodeFrameOptions) error {
	switch strings.ToLower(format) {
	case "text":
		return rep.WriteText(w)
	case "json":
		return rep.WriteJSON(w)
	case "html":
		return rep.WriteHTML(w)
	case "codeframe":
		return rep.WriteCodeFrame(w, frame)
	}
	return errors.Errorf("unknown format %q", format)
}

// expandPaths replaces directories by the markup files they contain.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		err := filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if path == arg || htmlExtensions[strings.ToLower(filepath.Ext(path))] {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "searching %s", arg)
		}
	}
	return paths, nil
}
