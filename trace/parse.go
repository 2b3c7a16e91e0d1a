package trace

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	statePrefix      = "State:"
	transitionPrefix = "Transition:"
)

type parsed struct {
	states      [][]string
	vars        []GlobalVariables
	zones       []ClockZone
	transitions []Transition
}

// parse reads tracer output. Lines that are neither State nor Transition
// records are ignored. Records must alternate State, Transition, ..., State.
func parse(raw string) (*parsed, error) {
	p := &parsed{}
	expectState := true
	lastLine := 0
	for i, line := range strings.Split(raw, "\n") {
		n := i + 1
		line = strings.TrimRight(line, "\r")
		if rest, ok := strings.CutPrefix(line, statePrefix); ok {
			if !expectState {
				return nil, &MalformedTraceError{Line: n, Text: line, Reason: "two consecutive State records"}
			}
			if err := p.addState(rest); err != nil {
				return nil, &MalformedTraceError{Line: n, Text: line, Reason: err.Error()}
			}
			expectState = false
			lastLine = n
			continue
		}
		if rest, ok := strings.CutPrefix(line, transitionPrefix); ok {
			if expectState {
				reason := "two consecutive Transition records"
				if len(p.states) == 0 {
					reason = "Transition record before the first State"
				}
				return nil, &MalformedTraceError{Line: n, Text: line, Reason: reason}
			}
			t, err := parseTransition(rest)
			if err != nil {
				return nil, &MalformedTraceError{Line: n, Text: line, Reason: err.Error()}
			}
			p.transitions = append(p.transitions, t)
			expectState = true
			lastLine = n
		}
	}
	if len(p.states) == 0 {
		return nil, &MalformedTraceError{Reason: "no State record"}
	}
	if expectState {
		return nil, &MalformedTraceError{Line: lastLine, Reason: "trace ends with a Transition record"}
	}
	return p, nil
}

func (p *parsed) addState(rest string) error {
	var (
		locations []string
		vars      GlobalVariables
		zone      ClockZone
	)
	for _, tok := range strings.Fields(rest) {
		hasLess := strings.Contains(tok, "<")
		switch {
		case strings.Contains(tok, "=") && !hasLess:
			name, value, _ := strings.Cut(tok, "=")
			vars.Names = append(vars.Names, name)
			vars.Values = append(vars.Values, value)
		case hasLess && strings.Contains(tok, "-"):
			c, err := parseClockConstraint(tok)
			if err != nil {
				return err
			}
			zone = append(zone, c)
		default:
			locations = append(locations, tok)
		}
	}
	p.states = append(p.states, locations)
	p.vars = append(p.vars, vars)
	p.zones = append(p.zones, zone)
	return nil
}

func parseClockConstraint(tok string) (ClockConstraint, error) {
	diff, bound, _ := strings.Cut(tok, "<")
	c := ClockConstraint{Strict: true}
	if b, ok := strings.CutPrefix(bound, "="); ok {
		c.Strict = false
		bound = b
	}
	left, right, ok := strings.Cut(diff, "-")
	if !ok || left == "" || right == "" {
		return ClockConstraint{}, fmt.Errorf("clock constraint %q is not of the form A-B<bound", tok)
	}
	v, err := strconv.Atoi(bound)
	if err != nil {
		return ClockConstraint{}, fmt.Errorf("clock constraint %q has bound %q: %w", tok, bound, err)
	}
	c.Left, c.Right, c.Bound = left, right, v
	return c, nil
}

func parseTransition(rest string) (Transition, error) {
	fragments := strings.Split(rest, "}")
	fragments = fragments[:len(fragments)-1]
	if len(fragments) == 0 {
		return Transition{}, fmt.Errorf("no edges")
	}
	edges := make([]ProcessEdge, 0, len(fragments))
	for _, frag := range fragments {
		e, err := parseEdge(frag)
		if err != nil {
			return Transition{}, err
		}
		edges = append(edges, e)
	}
	return newTransition(edges)
}

func parseEdge(frag string) (ProcessEdge, error) {
	arrow, brace, ok := strings.Cut(frag, "{")
	if !ok {
		return ProcessEdge{}, fmt.Errorf("edge %q has no label block", strings.TrimSpace(frag))
	}
	ends := strings.Split(arrow, "->")
	if len(ends) != 2 {
		return ProcessEdge{}, fmt.Errorf("edge %q is not of the form start -> end", strings.TrimSpace(arrow))
	}
	labels := strings.Split(brace, ";")
	if len(labels) < 3 {
		return ProcessEdge{}, fmt.Errorf("edge labels %q need guard; sync; update", brace)
	}
	return ProcessEdge{
		Start:  strings.TrimSpace(ends[0]),
		End:    stripSelect(strings.TrimSpace(ends[1])),
		Guard:  strings.TrimSpace(labels[0]),
		Sync:   strings.TrimSpace(labels[1]),
		Update: strings.TrimSpace(labels[2]),
	}, nil
}

// stripSelect drops the " [v1,v2]" binding list the tracer appends to the
// end location of edges with select clauses.
func stripSelect(end string) string {
	if i := strings.Index(end, " ["); i >= 0 && strings.HasSuffix(end, "]") {
		return end[:i]
	}
	return end
}
