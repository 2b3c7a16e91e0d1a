// Package monitor builds observer automata that are composed with a model
// to check whether its runs match, or deviate from, a sequence of actions.
//
// Every monitor is a chain of locations L0 -> L1 -> ... -> Ln where Ln is
// named "pass", optionally with self loops before the chain starts and with
// "fail" sinks for observations that break the sequence. Location ids are
// assigned densely from a floor the caller supplies, usually
// nta.Document.NextLocationID.
package monitor

import (
	"fmt"
	"slices"

	"github.com/Jack0Chan/PyUPPAAL/nta"
)

// PassLocation names the last location of every monitor chain.
const PassLocation = "pass"

const (
	spacingX = 250
	failY    = 200
)

// Step is one link L_i -> L_i+1 of a chain. The location fields describe
// the source location L_i.
type Step struct {
	// Syncs holds one label per parallel edge; "" is an edge without
	// synchronisation.
	Syncs []string
	Guard string

	Name      string
	Invariant string
	Committed bool
	SelfLoops []string

	// Expected is the action that advances the chain. It is left out of the
	// fail alphabet of this step.
	Expected      string
	FailGuard     string
	FailInvariant string
}

// FailRule selects where fail edges leave the chain.
type FailRule int

const (
	NoFail FailRule = iota
	// FailBeforeMismatch adds one fail sink per step i >= FailFrom, reached
	// from the source of step i on every fail symbol other than the one step
	// i expects.
	FailBeforeMismatch
	// FailAfterStep adds one fail sink per step i with FailFrom <= i < n-1,
	// reached from the location step i leads to on every fail symbol other
	// than the one step i+1 expects.
	FailAfterStep
	// FailOnExcluded adds one fail sink per chain location, pass included,
	// reached on every fail symbol.
	FailOnExcluded
)

// Config parameterises Build.
type Config struct {
	Name        string
	Floor       int
	Declaration string
	Chain       []Step

	Fail     FailRule
	FailFrom int
	// FailAlphabet lists the symbols fail edges receive on.
	FailAlphabet []string
	// FailName names the fail sink of the chain location at index. The
	// default is fail_<index>.
	FailName func(index int) string
}

// Build lays out the chain described by cfg.
func Build(cfg Config) nta.Template {
	n := len(cfg.Chain)
	t := nta.Template{Name: cfg.Name, Declaration: cfg.Declaration, Init: cfg.Floor}

	chain := make([]nta.Location, n+1)
	for i := range chain {
		chain[i] = nta.Location{ID: cfg.Floor + i, Pos: nta.Point{X: spacingX * i}}
		if i < n {
			s := cfg.Chain[i]
			chain[i].Name = s.Name
			chain[i].Invariant = s.Invariant
			chain[i].Committed = s.Committed
		}
	}
	chain[n].Name = PassLocation
	t.Locations = chain

	for i, s := range cfg.Chain {
		for _, sync := range s.SelfLoops {
			t.Edges = append(t.Edges, nta.Edge{Source: chain[i].ID, Target: chain[i].ID, Sync: sync})
		}
	}
	for i, s := range cfg.Chain {
		for _, sync := range s.Syncs {
			t.Edges = append(t.Edges, nta.Edge{Source: chain[i].ID, Target: chain[i+1].ID, Guard: s.Guard, Sync: sync})
		}
	}

	b := failBuilder{cfg: &cfg, t: &t, next: cfg.Floor + n + 1}
	switch cfg.Fail {
	case FailBeforeMismatch:
		for i := cfg.FailFrom; i < n; i++ {
			s := cfg.Chain[i]
			b.sink(i, chain[i], s.FailInvariant, s.FailGuard, except(cfg.FailAlphabet, s.Expected))
		}
	case FailAfterStep:
		for i := cfg.FailFrom; i < n-1; i++ {
			next := cfg.Chain[i+1]
			b.sink(i+1, chain[i+1], next.FailInvariant, next.FailGuard, except(cfg.FailAlphabet, next.Expected))
		}
	case FailOnExcluded:
		for i, l := range chain {
			b.sink(i, l, "", "", cfg.FailAlphabet)
		}
	}
	return t
}

type failBuilder struct {
	cfg  *Config
	t    *nta.Template
	next int
}

// sink adds a fail location for the chain location at index and the edges
// from it into the sink. Nothing is added without symbols.
func (b *failBuilder) sink(index int, source nta.Location, invariant, guard string, symbols []string) {
	if len(symbols) == 0 {
		return
	}
	name := fmt.Sprintf("fail_%d", index)
	if b.cfg.FailName != nil {
		name = b.cfg.FailName(index)
	}
	fail := nta.Location{
		ID:        b.next,
		Pos:       nta.Point{X: source.Pos.X, Y: failY},
		Name:      name,
		Invariant: invariant,
	}
	b.t.Locations = append(b.t.Locations, fail)
	for _, sym := range symbols {
		b.t.Edges = append(b.t.Edges, nta.Edge{Source: source.ID, Target: fail.ID, Guard: guard, Sync: receive(sym)})
	}
	b.next++
}

func except(alphabet []string, symbol string) []string {
	return slices.DeleteFunc(slices.Clone(alphabet), func(s string) bool { return s == symbol })
}

func receive(action string) string { return action + "?" }

func send(action string) string { return action + "!" }

func labels(actions []string, label func(string) string) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = label(a)
	}
	return out
}

// uniqueSorted removes duplicates and sorts so that generated templates do
// not depend on the caller's ordering.
func uniqueSorted(actions []string) []string {
	out := slices.Clone(actions)
	slices.Sort(out)
	return slices.Compact(out)
}
