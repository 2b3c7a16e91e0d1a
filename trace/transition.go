package trace

import (
	"fmt"
	"strings"
)

// SyncKind classifies the synchronisation label of a ProcessEdge.
type SyncKind int

const (
	Internal SyncKind = iota
	Send
	Receive
)

func (k SyncKind) String() string {
	switch k {
	case Send:
		return "send"
	case Receive:
		return "receive"
	default:
		return "internal"
	}
}

// ProcessEdge is one edge of one process taking part in a transition:
//
//	Process.start -> Process.end {guard; sync; update;}
//
// A guard or update of "1" means the edge has none.
type ProcessEdge struct {
	Start  string
	End    string
	Guard  string
	Sync   string
	Update string
}

// Process is the process owning the edge, the prefix of Start before the
// first '.'.
func (e ProcessEdge) Process() string {
	process, _, _ := strings.Cut(e.Start, ".")
	return process
}

func (e ProcessEdge) SyncKind() SyncKind {
	switch {
	case strings.HasSuffix(e.Sync, "!"):
		return Send
	case strings.HasSuffix(e.Sync, "?"):
		return Receive
	default:
		return Internal
	}
}

// SyncSymbol is the channel name without its '!' or '?' suffix, or "" for
// internal edges.
func (e ProcessEdge) SyncSymbol() string {
	if e.SyncKind() == Internal {
		return ""
	}
	return e.Sync[:len(e.Sync)-1]
}

func (e ProcessEdge) HasGuard() bool {
	return e.Guard != "" && e.Guard != "1"
}

func (e ProcessEdge) String() string {
	return fmt.Sprintf("%s -> %s {%s; %s; %s;}", e.Start, e.End, e.Guard, e.Sync, e.Update)
}

// Transition is one step of a trace. A synchronising transition has one
// sending edge and any number of receiving edges; an internal transition
// has a single edge and no action.
type Transition struct {
	Sync         string
	HasSync      bool
	StartProcess string
	EndProcesses []string
	Edges        []ProcessEdge
}

// Action returns the channel the transition synchronised on.
func (t Transition) Action() (string, bool) {
	return t.Sync, t.HasSync
}

// internalAction stands in for the missing action of internal transitions
// when rendering. It cannot collide with a channel identifier.
const internalAction = "τ"

func (t Transition) String() string {
	sync := t.Sync
	if !t.HasSync {
		sync = internalAction
	}
	return fmt.Sprintf("%s: %s -> %v", sync, t.StartProcess, t.EndProcesses)
}

func (t Transition) clone() Transition {
	c := t
	c.EndProcesses = cloneStrings(t.EndProcesses)
	if t.Edges != nil {
		c.Edges = append([]ProcessEdge(nil), t.Edges...)
	}
	return c
}

func newTransition(edges []ProcessEdge) (Transition, error) {
	t := Transition{Edges: edges}
	sends := 0
	for _, e := range edges {
		switch e.SyncKind() {
		case Send:
			sends++
			t.StartProcess = e.Process()
			t.Sync = e.SyncSymbol()
			t.HasSync = true
		case Receive:
			t.EndProcesses = append(t.EndProcesses, e.Process())
		default:
			t.StartProcess = e.Process()
			t.EndProcesses = append(t.EndProcesses, e.Process())
		}
	}
	switch {
	case sends > 1:
		return Transition{}, fmt.Errorf("%d sending edges in one transition", sends)
	case sends == 0 && len(edges) != 1:
		return Transition{}, fmt.Errorf("%d edges without a sender", len(edges))
	case sends == 0 && edges[0].SyncKind() == Receive:
		return Transition{}, fmt.Errorf("receiving edge %q without a sender", edges[0].Sync)
	case sends == 1:
		for _, e := range edges {
			if e.SyncKind() == Internal {
				return Transition{}, fmt.Errorf("internal edge %s -> %s in synchronising transition", e.Start, e.End)
			}
		}
	}
	return t, nil
}
