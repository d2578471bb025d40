package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText writes the messages grouped by file followed by a summary.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, res := range r.Results {
		if len(res.Messages) == 0 {
			continue
		}
		fmt.Fprintln(tw, res.FilePath)
		for _, m := range res.Messages {
			fmt.Fprintf(tw, "  %d:%d\t%s\t%s\t%s\n",
				m.Location.Line, m.Location.Column, m.Severity, m.Message, m.RuleID)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	errs, warnings := r.ErrorCount(), r.WarningCount()
	if errs+warnings == 0 {
		_, err := fmt.Fprintln(w, "No problems found.")
		return err
	}
	_, err := fmt.Fprintf(w, "%d problems (%d errors, %d warnings)\n", errs+warnings, errs, warnings)
	return err
}
