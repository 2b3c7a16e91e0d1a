package trace

import "fmt"

// MalformedTraceError reports raw trace text that breaks the State/Transition
// grammar or the alternation between the two record kinds.
type MalformedTraceError struct {
	// Line is 1-based; zero when the problem is not tied to one line.
	Line   int
	Text   string
	Reason string
}

func (e *MalformedTraceError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed trace: %s", e.Reason)
	}
	return fmt.Sprintf("malformed trace at line %d: %s: %q", e.Line, e.Reason, e.Text)
}
