package pyuppaal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Jack0Chan/PyUPPAAL/internal/workspace"
	"github.com/Jack0Chan/PyUPPAAL/monitor"
	"github.com/Jack0Chan/PyUPPAAL/nta"
	"github.com/Jack0Chan/PyUPPAAL/trace"
)

// Monitor template names added by the fault analyses.
const (
	SuffixMonitor    = "SuffixMonitor"
	FaultMonitor     = "FaultMonitor"
	ObsMonitor       = "ObsMonitor"
	RecoveryMonitor  = "RecoveryMonitor"
	ToleranceMonitor = "ToleranceMonitor"
)

// Identification is the outcome of FaultIdentification.
type Identification struct {
	Fault      string   `json:"fault"`
	Suffix     []string `json:"suffix"`
	Identified bool     `json:"identified"`
	Query      string   `json:"query"`
	// CounterExample is a run that shows the suffix without the fault.
	CounterExample *trace.SimTrace `json:"-"`
}

// Diagnosability is the outcome of FaultDiagnosability.
type Diagnosability struct {
	Fault       string `json:"fault"`
	N           int    `json:"n"`
	Diagnosable bool   `json:"diagnosable"`
	// Suffix is an observation that can follow the fault but does not
	// identify it.
	Suffix         []string        `json:"suffix,omitempty"`
	CounterExample *trace.SimTrace `json:"-"`
}

// Tolerance is the outcome of FaultTolerance.
type Tolerance struct {
	Target    string `json:"target"`
	Tolerated bool   `json:"tolerated"`
	// Controls is the control sequence found to reach the target.
	Controls []string `json:"controls,omitempty"`
	// Confirmed reports whether replaying Controls alone reaches the target.
	Confirmed bool            `json:"confirmed"`
	Witness   *trace.SimTrace `json:"-"`
}

func validateFault(fault string, sigmaUn []string) error {
	if fault == "" {
		return errors.New("fault must not be empty")
	}
	if len(sigmaUn) > 0 && !slices.Contains(sigmaUn, fault) {
		return fmt.Errorf("fault %s is not an unobservable action", fault)
	}
	return nil
}

// FaultIdentification decides whether observing suffix proves that fault
// occurred: no run may show suffix on the observable actions sigmaO
// without the fault having happened before.
//
// Parameters:
//   - suffix: Observable actions, in order
//   - fault: Unobservable fault action
//   - sigmaO: Observable actions of the model
//   - sigmaUn: Unobservable actions; when given, fault must be one of them
func (m *Model) FaultIdentification(ctx context.Context, suffix []string, fault string, sigmaO, sigmaUn []string) (Identification, error) {
	if err := validateFault(fault, sigmaUn); err != nil {
		return Identification{}, err
	}
	ws, err := workspace.New(m.workDir, m.keep)
	if err != nil {
		return Identification{}, err
	}
	defer ws.Close()
	return m.identify(ctx, ws, suffix, fault, sigmaO)
}

func (m *Model) identify(ctx context.Context, ws *workspace.Workspace, suffix []string, fault string, sigmaO []string) (Identification, error) {
	doc, err := withMonitors(m.doc,
		func(floor int) nta.Template { return monitor.ObserverSuffix(SuffixMonitor, suffix, sigmaO, floor) },
		func(floor int) nta.Template { return monitor.Fault(FaultMonitor, fault, floor) },
	)
	if err != nil {
		return Identification{}, err
	}
	query := fmt.Sprintf("E<> %s.pass && !%s.pass", SuffixMonitor, FaultMonitor)
	res, t, err := m.check(ctx, ws, "identify", doc, query)
	if err != nil {
		return Identification{}, err
	}
	m.logger.WithFields(logrus.Fields{
		"fault":  fault,
		"suffix": strings.Join(suffix, " "),
	}).Debugf("identified=%t", !res.Satisfied)
	return Identification{
		Fault:          fault,
		Suffix:         slices.Clone(suffix),
		Identified:     !res.Satisfied,
		Query:          query,
		CounterExample: t,
	}, nil
}

// FaultDiagnosability decides whether fault is identified by every
// sequence of n observable actions that can follow it. The |sigmaO|^n
// candidate suffixes are checked in parallel; the first suffix that can
// follow the fault without identifying it stops the sweep.
func (m *Model) FaultDiagnosability(ctx context.Context, fault string, n int, sigmaO, sigmaUn []string) (Diagnosability, error) {
	if n < 1 {
		return Diagnosability{}, fmt.Errorf("suffix length must be positive, got %d", n)
	}
	if len(sigmaO) == 0 {
		return Diagnosability{}, errors.New("no observable actions")
	}
	if err := validateFault(fault, sigmaUn); err != nil {
		return Diagnosability{}, err
	}

	sweep, stop := context.WithCancel(ctx)
	defer stop()
	g, gctx := errgroup.WithContext(sweep)
	g.SetLimit(m.parallelism)

	var (
		mu    sync.Mutex
		found *Identification
	)
	for suffix := range words(sigmaO, n) {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			id, ok, err := m.followsFault(gctx, suffix, fault, sigmaO, sigmaUn)
			if err != nil || !ok || id.Identified {
				return err
			}
			mu.Lock()
			if found == nil {
				found = &id
			}
			mu.Unlock()
			stop()
			return nil
		})
	}
	err := g.Wait()

	// Checks interrupted by the short circuit fail; the counter-example
	// stands regardless.
	if found != nil {
		m.logger.WithFields(logrus.Fields{"fault": fault, "suffix": strings.Join(found.Suffix, " ")}).Info("not diagnosable")
		return Diagnosability{Fault: fault, N: n, Suffix: found.Suffix, CounterExample: found.CounterExample}, nil
	}
	if err != nil {
		return Diagnosability{}, err
	}
	if err := ctx.Err(); err != nil {
		return Diagnosability{}, err
	}
	return Diagnosability{Fault: fault, N: n, Diagnosable: true}, nil
}

// followsFault checks whether suffix can be observed after fault and, if
// so, whether it identifies the fault.
func (m *Model) followsFault(ctx context.Context, suffix []string, fault string, sigmaO, sigmaUn []string) (Identification, bool, error) {
	ws, err := workspace.New(m.workDir, m.keep)
	if err != nil {
		return Identification{}, false, err
	}
	defer ws.Close()

	doc, err := withMonitors(m.doc, func(floor int) nta.Template {
		return monitor.ObsAfterFault(ObsMonitor, suffix, sigmaO, sigmaUn, fault, floor)
	})
	if err != nil {
		return Identification{}, false, err
	}
	res, _, err := m.check(ctx, ws, "after_fault", doc, fmt.Sprintf("E<> %s.pass", ObsMonitor))
	if err != nil || !res.Satisfied {
		return Identification{}, false, err
	}
	id, err := m.identify(ctx, ws, suffix, fault, sigmaO)
	return id, err == nil, err
}

// words yields every sequence of n letters of alphabet, the last position
// varying fastest.
func words(alphabet []string, n int) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		idx := make([]int, n)
		for {
			w := make([]string, n)
			for i, j := range idx {
				w[i] = alphabet[j]
			}
			if !yield(w) {
				return
			}
			i := n - 1
			for ; i >= 0; i-- {
				if idx[i]++; idx[i] < len(alphabet) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// FaultTolerance searches for a reaction that reaches target once the
// identified faults occurred: the protecting actions safety are sent at
// once, followed by at most controlLength actions of sigmaC.
//
// Parameters:
//   - target: State formula the reaction must reach, such as "Plant.Safe"
//   - identified: Faults that have been identified, in order
//   - safety: Protecting actions sent immediately after identification
//   - sigmaF: All fault actions; faults not identified must not occur
//   - sigmaC: Control actions
//   - controlLength: Maximum number of control actions
//
// A found control sequence is replayed on its own to confirm it.
func (m *Model) FaultTolerance(ctx context.Context, target string, identified, safety, sigmaF, sigmaC []string, controlLength int) (Tolerance, error) {
	if strings.TrimSpace(target) == "" {
		return Tolerance{}, errors.New("target must not be empty")
	}
	if controlLength < 0 {
		return Tolerance{}, fmt.Errorf("control length must not be negative, got %d", controlLength)
	}
	r := monitor.Recovery{Identified: identified, Protecting: safety, Faults: sigmaF, Controls: sigmaC}

	ws, err := workspace.New(m.workDir, m.keep)
	if err != nil {
		return Tolerance{}, err
	}
	defer ws.Close()

	doc, err := withMonitors(m.doc, func(floor int) nta.Template {
		return monitor.InputAfterFault(RecoveryMonitor, r, controlLength, floor)
	})
	if err != nil {
		return Tolerance{}, err
	}
	res, witness, err := m.check(ctx, ws, "tolerance", doc, reachQuery(RecoveryMonitor, target))
	if err != nil {
		return Tolerance{}, err
	}
	out := Tolerance{Target: target, Tolerated: res.Satisfied, Witness: witness}
	if !res.Satisfied || witness == nil {
		return out, nil
	}
	// The monitor sends the protecting actions first, then the controls.
	sent := sentBy(witness, RecoveryMonitor)
	out.Controls = sent[min(len(safety), len(sent)):]

	doc, err = withMonitors(m.doc, func(floor int) nta.Template {
		return monitor.ToleranceChecker(ToleranceMonitor, r, out.Controls, floor)
	})
	if err != nil {
		return Tolerance{}, err
	}
	confirm, _, err := m.check(ctx, ws, "confirm", doc, reachQuery(ToleranceMonitor, target))
	if err != nil {
		return Tolerance{}, err
	}
	out.Confirmed = confirm.Satisfied
	m.logger.WithFields(logrus.Fields{
		"target":   target,
		"controls": strings.Join(out.Controls, " "),
	}).Infof("tolerated, confirmed=%t", out.Confirmed)
	return out, nil
}

func reachQuery(monitorName, target string) string {
	return fmt.Sprintf("E<> %s.pass && (%s)", monitorName, strings.TrimSpace(target))
}

// sentBy lists the actions process sent in t, in order.
func sentBy(t *trace.SimTrace, process string) []string {
	var out []string
	for _, tr := range t.Transitions() {
		if tr.HasSync && tr.StartProcess == process {
			out = append(out, tr.Sync)
		}
	}
	return out
}
