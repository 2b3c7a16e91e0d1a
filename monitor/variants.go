package monitor

import (
	"fmt"
	"slices"

	"github.com/Jack0Chan/PyUPPAAL/nta"
)

// ObserverOptions tune Observer.
type ObserverOptions struct {
	// Strict routes every focus action other than the expected one into a
	// fail sink.
	Strict bool
	// AllPattern drops guards and invariants so that the observer matches
	// the untimed word only.
	AllPattern bool
}

// Observer receives seq in order. With AllPattern and Strict it accepts
// exactly the runs whose projection onto focus starts with seq, which is
// how pattern enumeration forbids an already found pattern.
func Observer(name string, seq TimedActions, focus []string, floor int, opts ObserverOptions) nta.Template {
	chain := make([]Step, len(seq))
	for i, ta := range seq {
		s := Step{Syncs: []string{receive(ta.Action)}, Expected: ta.Action}
		if !opts.AllPattern {
			s.Guard = ta.Lower.Guard()
			s.Invariant = ta.Upper.Invariant()
			s.FailInvariant = ta.Upper.Complement().Invariant()
			if i > 0 {
				s.FailGuard = seq[i-1].Lower.Complement().Guard()
			}
		}
		chain[i] = s
	}

	cfg := Config{
		Name:     name,
		Floor:    floor,
		Chain:    chain,
		FailName: func(i int) string { return fmt.Sprintf("fail%d", i) },
	}
	if !opts.AllPattern {
		cfg.Declaration = seq.declaration()
	}
	if opts.Strict {
		cfg.Fail = FailBeforeMismatch
		cfg.FailAlphabet = uniqueSorted(focus)
	}
	return Build(cfg)
}

// Input sends seq in order, each action within its bounds.
func Input(name string, seq TimedActions, floor int) nta.Template {
	chain := make([]Step, len(seq))
	for i, ta := range seq {
		chain[i] = Step{
			Syncs:     []string{send(ta.Action)},
			Guard:     ta.Lower.Guard(),
			Invariant: ta.Upper.Invariant(),
		}
	}
	return Build(Config{Name: name, Floor: floor, Declaration: seq.declaration(), Chain: chain})
}

// Fault reaches pass once fault occurs.
func Fault(name, fault string, floor int) nta.Template {
	return Build(Config{
		Name:  name,
		Floor: floor,
		Chain: []Step{{Syncs: []string{receive(fault)}, Expected: fault}},
	})
}

// ObserverSuffix waits, absorbing every observable action, until suffix
// starts, then follows it to pass. Once the suffix has started, any other
// observable action leads to a fail sink.
func ObserverSuffix(name string, suffix, sigmaO []string, floor int) nta.Template {
	chain := make([]Step, len(suffix))
	for i, a := range suffix {
		chain[i] = Step{Syncs: []string{receive(a)}, Expected: a}
		if i > 0 {
			chain[i].Name = fmt.Sprintf("suffix_%d", i)
		}
	}
	if len(chain) > 0 {
		chain[0].SelfLoops = labels(sigmaO, receive)
	}
	return Build(Config{
		Name:         name,
		Floor:        floor,
		Chain:        chain,
		Fail:         FailAfterStep,
		FailAlphabet: sigmaO,
	})
}

// ObsAfterFault absorbs every observable and unobservable action until
// fault occurs, then expects suffix exactly: from the location waiting for
// suffix[i], any other observable action leads to a fail sink.
func ObsAfterFault(name string, suffix, sigmaO, sigmaUn []string, fault string, floor int) nta.Template {
	chain := make([]Step, 0, len(suffix)+1)
	chain = append(chain, Step{
		Syncs:     []string{receive(fault)},
		Expected:  fault,
		SelfLoops: labels(append(slices.Clone(sigmaO), sigmaUn...), receive),
	})
	for i, a := range suffix {
		s := Step{Syncs: []string{receive(a)}, Expected: a}
		if i > 0 {
			s.Name = fmt.Sprintf("suffix_%d", i)
		}
		chain = append(chain, s)
	}
	return Build(Config{
		Name:         name,
		Floor:        floor,
		Chain:        chain,
		Fail:         FailBeforeMismatch,
		FailFrom:     1,
		FailAlphabet: sigmaO,
	})
}

// Recovery describes the reaction to identified faults used by
// InputAfterFault and ToleranceChecker.
type Recovery struct {
	// Identified are the faults the reaction applies to, one chain step per
	// fault occurrence.
	Identified []string
	// Protecting are sent without delay once the faults are identified.
	Protecting []string
	// Faults is the full fault alphabet. Faults not identified lead to
	// fail sinks.
	Faults []string
	// Controls is the control alphabet.
	Controls []string
}

func (r Recovery) excluded() []string {
	var out []string
	for _, f := range uniqueSorted(r.Faults) {
		if !slices.Contains(r.Identified, f) {
			out = append(out, f)
		}
	}
	return out
}

// prefix builds the fault and protection steps shared by InputAfterFault and
// ToleranceChecker.
func (r Recovery) prefix() []Step {
	var chain []Step
	for range r.Identified {
		chain = append(chain, Step{Syncs: labels(r.Identified, receive)})
	}
	// Protection starts in the location the last fault leads to and must
	// not let time pass.
	for _, p := range r.Protecting {
		chain = append(chain, Step{Syncs: []string{send(p)}, Committed: true})
	}
	return chain
}

// offerControls adds control self loops to the locations before the last
// fault is identified, or to the initial location when no fault is.
func (r Recovery) offerControls(chain []Step, label func(string) string) {
	for i := range max(len(r.Identified), 1) {
		if i < len(chain) {
			chain[i].SelfLoops = labels(r.Controls, label)
		}
	}
}

func (r Recovery) build(name string, floor int, chain []Step) nta.Template {
	cfg := Config{Name: name, Floor: floor, Chain: chain}
	if excluded := r.excluded(); len(excluded) > 0 {
		cfg.Fail = FailOnExcluded
		cfg.FailAlphabet = excluded
	}
	return Build(cfg)
}

// InputAfterFault lets the model run until the identified faults occurred,
// then sends the protecting actions and offers up to controlLength control
// actions before reaching pass.
func InputAfterFault(name string, r Recovery, controlLength, floor int) nta.Template {
	chain := r.prefix()
	for range controlLength {
		chain = append(chain, Step{Syncs: append(labels(r.Controls, send), "")})
	}
	r.offerControls(chain, receive)
	nameControls(chain, len(r.Identified)+len(r.Protecting))
	return r.build(name, floor, chain)
}

// ToleranceChecker replays one control sequence after the identified faults
// and protections.
func ToleranceChecker(name string, r Recovery, controls []string, floor int) nta.Template {
	chain := r.prefix()
	for _, c := range controls {
		chain = append(chain, Step{Syncs: []string{send(c)}})
	}
	r.offerControls(chain, send)
	nameControls(chain, len(r.Identified)+len(r.Protecting))
	return r.build(name, floor, chain)
}

// nameControls names the locations reached by control steps control_1,
// control_2, ...; the last one is pass.
func nameControls(chain []Step, first int) {
	for i := first + 1; i < len(chain); i++ {
		chain[i].Name = fmt.Sprintf("control_%d", i-first)
	}
}
