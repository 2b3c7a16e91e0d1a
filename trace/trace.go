// Package trace parses the textual traces printed by the UPPAAL tracer and
// offers queries, slicing and rendering over them.
//
// A trace alternates State and Transition records:
//
//	State: P.l0 Q.l0 x=1 t(0)-c<=0 c-t(0)<=5
//	Transition: P.l0 -> P.l1 {1; a!; 1;} Q.l0 -> Q.l1 {1; a?; 1;}
//	State: P.l1 Q.l1 x=1 t(0)-c<=0 c-t(0)<=5
//
// so a trace with n states holds n-1 transitions.
package trace

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
)

const separator = "-----------------------------------"

// SimTrace is one timed trace. Traces built with New are parsed on first
// structural access; every derived trace is independent of its parent.
type SimTrace struct {
	raw  string
	once sync.Once
	err  error
	data parsed
}

// Parse parses raw eagerly.
func Parse(raw string) (*SimTrace, error) {
	t := New(raw)
	if err := t.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// New returns a trace over raw that is parsed lazily. Structural accessors
// return empty results when raw is malformed; Err reports why.
func New(raw string) *SimTrace {
	return &SimTrace{raw: raw}
}

// Load reads the tracer output stored at path.
func Load(path string) (*SimTrace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace %s: %w", path, err)
	}
	return Parse(string(raw))
}

func fromParsed(p parsed) *SimTrace {
	t := &SimTrace{data: p}
	t.once.Do(func() {})
	return t
}

func (t *SimTrace) load() *parsed {
	t.once.Do(func() {
		p, err := parse(t.raw)
		if err != nil {
			t.err = err
			return
		}
		t.data = *p
	})
	return &t.data
}

// Err returns the parse error of the raw text, if any.
func (t *SimTrace) Err() error {
	t.load()
	return t.err
}

// Raw returns the text the trace was parsed from. Derived traces have none.
func (t *SimTrace) Raw() string {
	return t.raw
}

// States returns the location tokens of each state.
func (t *SimTrace) States() [][]string {
	p := t.load()
	out := make([][]string, len(p.states))
	for i, s := range p.states {
		out[i] = cloneStrings(s)
	}
	return out
}

func (t *SimTrace) GlobalVariables() []GlobalVariables {
	p := t.load()
	out := make([]GlobalVariables, len(p.vars))
	for i, v := range p.vars {
		out[i] = v.clone()
	}
	return out
}

func (t *SimTrace) ClockZones() []ClockZone {
	p := t.load()
	out := make([]ClockZone, len(p.zones))
	for i, z := range p.zones {
		out[i] = z.clone()
	}
	return out
}

func (t *SimTrace) Transitions() []Transition {
	p := t.load()
	out := make([]Transition, len(p.transitions))
	for i, tr := range p.transitions {
		out[i] = tr.clone()
	}
	return out
}

// Len is the number of transitions that carry an action. Internal
// transitions are not counted.
func (t *SimTrace) Len() int {
	n := 0
	for _, tr := range t.load().transitions {
		if tr.HasSync {
			n++
		}
	}
	return n
}

// Actions returns the untimed word of the trace.
func (t *SimTrace) Actions() []string {
	var actions []string
	for _, tr := range t.load().transitions {
		if tr.HasSync {
			actions = append(actions, tr.Sync)
		}
	}
	return actions
}

// Select returns the trace made of the transitions at the given indices.
// Indices are taken in increasing order, duplicates and out of range
// indices are ignored. Each kept transition brings the state it leaves
// from, and the last one also brings the state it reaches.
func (t *SimTrace) Select(indices ...int) *SimTrace {
	p := t.load()
	idx := slices.Clone(indices)
	slices.Sort(idx)
	idx = slices.Compact(idx)
	idx = slices.DeleteFunc(idx, func(i int) bool {
		return i < 0 || i >= len(p.transitions)
	})

	var out parsed
	for _, i := range idx {
		out.appendState(p, i)
		out.transitions = append(out.transitions, p.transitions[i].clone())
	}
	if len(idx) > 0 {
		out.appendState(p, idx[len(idx)-1]+1)
	}
	return fromParsed(out)
}

func (out *parsed) appendState(p *parsed, i int) {
	out.states = append(out.states, cloneStrings(p.states[i]))
	out.vars = append(out.vars, p.vars[i].clone())
	out.zones = append(out.zones, p.zones[i].clone())
}

// Slice returns transitions [start, end) as a new trace. It panics when the
// range is out of bounds, like slicing does.
func (t *SimTrace) Slice(start, end int) *SimTrace {
	n := len(t.load().transitions)
	if start < 0 || end > n || start > end {
		panic(fmt.Sprintf("trace: slice bounds [%d:%d] out of range with %d transitions", start, end, n))
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return t.Select(indices...)
}

// At returns the single-transition trace around transition i.
func (t *SimTrace) At(i int) *SimTrace {
	return t.Slice(i, i+1)
}

// FilterByActions keeps the transitions whose action is in focus. A nil
// focus returns t itself.
func (t *SimTrace) FilterByActions(focus []string) *SimTrace {
	if focus == nil {
		return t
	}
	var indices []int
	for i, tr := range t.load().transitions {
		if tr.HasSync && slices.Contains(focus, tr.Sync) {
			indices = append(indices, i)
		}
	}
	return t.Select(indices...)
}

// TrimTransitions returns a copy of t whose transition actions are rewritten
// from formal channel parameters to the channels bound at instantiation.
func (t *SimTrace) TrimTransitions(subs Substitutions) *SimTrace {
	p := t.load()
	var out parsed
	for i := range p.states {
		out.appendState(p, i)
	}
	for _, tr := range p.transitions {
		c := tr.clone()
		if actual, ok := subs.Resolve(c.StartProcess, c.Sync); c.HasSync && ok {
			c.Sync = actual
		}
		out.transitions = append(out.transitions, c)
	}
	return fromParsed(out)
}

// String renders the trace one block per state. The rendering doubles as
// the equality contract of traces.
func (t *SimTrace) String() string {
	p := t.load()
	var b strings.Builder
	for i := range p.states {
		fmt.Fprintf(&b, "State [%d]: %v\n", i, p.states[i])
		fmt.Fprintf(&b, "global_variables [%d]: %s\n", i, p.vars[i])
		fmt.Fprintf(&b, "Clock_constraints [%d]: %s\n", i, p.zones[i])
		if i < len(p.transitions) {
			fmt.Fprintf(&b, "transitions [%d]: %s\n", i, p.transitions[i])
			b.WriteString(separator + "\n")
		}
	}
	return b.String()
}

// Equal reports whether both traces render identically.
func (t *SimTrace) Equal(other *SimTrace) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.String() == other.String()
}

// Save writes the rendering of t to path.
func (t *SimTrace) Save(path string) error {
	if err := t.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(t.String()), 0o644); err != nil {
		return fmt.Errorf("failed to save trace %s: %w", path, err)
	}
	return nil
}

// SaveRaw writes the original tracer output to path.
func (t *SimTrace) SaveRaw(path string) error {
	if err := os.WriteFile(path, []byte(t.raw), 0o644); err != nil {
		return fmt.Errorf("failed to save raw trace %s: %w", path, err)
	}
	return nil
}
