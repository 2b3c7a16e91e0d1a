package pyuppaal

import (
	"fmt"
	"io"
	"strings"

	"github.com/Jack0Chan/PyUPPAAL/trace"
)

// PatternSummary is the JSON form of an enumeration.
type PatternSummary struct {
	Query    string     `json:"query,omitempty"`
	Focus    []string   `json:"focus,omitempty"`
	Patterns [][]string `json:"patterns"`
	Count    int        `json:"count"`
	// Capped is set when the enumeration stopped at PatternQuery.Max.
	Capped bool `json:"capped"`

	ExecutionTimeMs int64 `json:"execution_time_ms"`
}

// SummarizePatterns builds the summary of patterns found for q.
func SummarizePatterns(q PatternQuery, patterns []*trace.SimTrace, executionTimeMs int64) *PatternSummary {
	summary := &PatternSummary{
		Query:           q.Query,
		Focus:           q.Focus,
		Patterns:        make([][]string, 0, len(patterns)),
		Count:           len(patterns),
		Capped:          q.Max > 0 && len(patterns) >= q.Max,
		ExecutionTimeMs: executionTimeMs,
	}
	for _, p := range patterns {
		actions := p.Actions()
		if actions == nil {
			actions = []string{}
		}
		summary.Patterns = append(summary.Patterns, actions)
	}
	return summary
}

// WritePatterns writes one numbered line per pattern.
func WritePatterns(w io.Writer, patterns []*trace.SimTrace) {
	if len(patterns) == 0 {
		_, _ = fmt.Fprintln(w, "No patterns found.")
		return
	}
	for i, p := range patterns {
		_, _ = fmt.Fprintf(w, "Pattern %d: %s\n", i+1, strings.Join(p.Actions(), " -> "))
	}
}

// WriteTrace writes the transitions of t, one per line, with the states
// they lead to.
func WriteTrace(w io.Writer, t *trace.SimTrace) {
	if t == nil {
		_, _ = fmt.Fprintln(w, "No trace.")
		return
	}
	states := t.States()
	transitions := t.Transitions()
	_, _ = fmt.Fprintf(w, "Path (length = %d):\n", len(transitions))
	if len(states) > 0 {
		_, _ = fmt.Fprintf(w, "  [0] %s\n", strings.Join(states[0], " "))
	}
	for i, tr := range transitions {
		_, _ = fmt.Fprintf(w, "   %s\n", tr)
		_, _ = fmt.Fprintf(w, "  [%d] %s\n", i+1, strings.Join(states[i+1], " "))
	}
}

func (i Identification) String() string {
	if i.Identified {
		return fmt.Sprintf("Fault %s is identified by suffix %s", i.Fault, strings.Join(i.Suffix, " "))
	}
	return fmt.Sprintf("Fault %s is NOT identified by suffix %s", i.Fault, strings.Join(i.Suffix, " "))
}

func (d Diagnosability) String() string {
	if d.Diagnosable {
		return fmt.Sprintf("Fault %s is %d-diagnosable", d.Fault, d.N)
	}
	return fmt.Sprintf("Fault %s is NOT %d-diagnosable: suffix %s does not identify it", d.Fault, d.N, strings.Join(d.Suffix, " "))
}

func (t Tolerance) String() string {
	if !t.Tolerated {
		return "Fault can NOT be tolerated"
	}
	s := fmt.Sprintf("Fault can be tolerated with controls [%s]", strings.Join(t.Controls, " "))
	if !t.Confirmed {
		s += " (replay did not reach the target)"
	}
	return s
}
