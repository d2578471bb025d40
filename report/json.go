package report

import (
	"encoding/json"
	"io"
)

type jsonMessage struct {
	RuleID   string   `json:"ruleId"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Offset   int      `json:"offset"`
	Size     int      `json:"size"`
	Selector string   `json:"selector,omitempty"`
}

type jsonResult struct {
	FilePath     string        `json:"filePath"`
	Messages     []jsonMessage `json:"messages"`
	ErrorCount   int           `json:"errorCount"`
	WarningCount int           `json:"warningCount"`
}

// JSONOutput is the document written by WriteJSON.
type JSONOutput struct {
	Valid        bool         `json:"valid"`
	Results      []jsonResult `json:"results"`
	ErrorCount   int          `json:"errorCount"`
	WarningCount int          `json:"warningCount"`
}

// WriteJSON writes the report in JSON format to w.
func (r *Report) WriteJSON(w io.Writer) error {
	out := JSONOutput{
		Valid:        r.IsValid(),
		Results:      []jsonResult{},
		ErrorCount:   r.ErrorCount(),
		WarningCount: r.WarningCount(),
	}
	for _, res := range r.Results {
		jr := jsonResult{
			FilePath:     res.FilePath,
			Messages:     make([]jsonMessage, 0, len(res.Messages)),
			ErrorCount:   res.ErrorCount(),
			WarningCount: res.WarningCount(),
		}
		for _, m := range res.Messages {
			jr.Messages = append(jr.Messages, jsonMessage{
				RuleID:   m.RuleID,
				Severity: m.Severity,
				Message:  m.Message,
				Line:     m.Location.Line,
				Column:   m.Location.Column,
				Offset:   m.Location.Offset,
				Size:     m.Location.Size,
				Selector: m.Selector,
			})
		}
		out.Results = append(out.Results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
