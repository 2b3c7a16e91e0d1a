// Package pattern enumerates the distinct counter-example patterns of a
// reachability query.
//
// Each round verifies the model, projects the counter-example onto the
// focus actions and adds an observer monitor that forbids that projection,
// so the next round can only find a different one. The search ends when the
// verifier finds no further counter-example. For models with loops the
// number of patterns can be unbounded; set Enumerator.Max in that case.
package pattern

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Jack0Chan/PyUPPAAL/internal/workspace"
	"github.com/Jack0Chan/PyUPPAAL/monitor"
	"github.com/Jack0Chan/PyUPPAAL/nta"
	"github.com/Jack0Chan/PyUPPAAL/trace"
	"github.com/Jack0Chan/PyUPPAAL/verifyta"
)

// DefaultMonitorPrefix names the monitors Monitor1, Monitor2, ...
const DefaultMonitorPrefix = "Monitor"

// ErrNoFocus is returned when Focus is empty and the model declares no
// broadcast channels to project onto.
var ErrNoFocus = errors.New("no focus actions: the model declares no broadcast channels")

// Checker runs the verifier. *verifyta.Client implements it.
type Checker interface {
	VerifyWithTrace(ctx context.Context, model, tracePath string, opts ...string) (verifyta.Result, error)
	TraceText(ctx context.Context, model, xtr string) (string, error)
}

// Enumerator holds the inputs of one enumeration. Enumerations share
// nothing but Document, which is never modified, so several may run at once.
type Enumerator struct {
	Checker  Checker
	Document *nta.Document
	// Query is an E<> or A[] query. Empty means the first query of Document.
	Query string
	// Focus lists the actions patterns are projected onto. Empty means the
	// broadcast channels of Document, and ErrNoFocus when it has none.
	Focus []string
	// Max stops the enumeration after that many patterns. Zero means no
	// limit, in which case the enumeration may not terminate.
	Max int
	// MonitorPrefix defaults to DefaultMonitorPrefix.
	MonitorPrefix string
	// WorkDir holds the per-run workspace; empty means the system
	// temporary directory.
	WorkDir string
	// Keep leaves the intermediate models and traces on disk.
	Keep    bool
	Options []string
	Logger  logrus.FieldLogger
}

// FindAll returns every pattern in discovery order.
func (e *Enumerator) FindAll(ctx context.Context) ([]*trace.SimTrace, error) {
	var out []*trace.SimTrace
	for p, err := range e.Patterns(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FindOne returns the first pattern, or nil when the query has no
// counter-example.
func (e *Enumerator) FindOne(ctx context.Context) (*trace.SimTrace, error) {
	for p, err := range e.Patterns(ctx) {
		return p, err
	}
	return nil, nil
}

type run struct {
	*Enumerator
	ws       *workspace.Workspace
	log      logrus.FieldLogger
	subs     trace.Substitutions
	focus    []string
	query    string
	doc      *nta.Document
	monitors []string
}

// Patterns yields the focus projection of each counter-example, one per
// verification round. The workspace is removed when iteration ends, also
// when the caller stops early.
func (e *Enumerator) Patterns(ctx context.Context) iter.Seq2[*trace.SimTrace, error] {
	return func(yield func(*trace.SimTrace, error) bool) {
		r, err := e.start()
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.ws.Close()

		for k := 0; e.Max <= 0 || k < e.Max; k++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			query := Strengthen(r.query, r.monitors)
			log := r.log.WithFields(logrus.Fields{"iteration": k, "query": query})

			found, err := r.verify(ctx, k, query)
			if err != nil {
				yield(nil, err)
				return
			}
			if found == nil {
				log.Info("no further counter-example")
				return
			}

			actions := found.Actions()
			log.WithField("pattern", strings.Join(actions, " ")).Info("pattern found")
			if !yield(found, nil) {
				return
			}
			// An empty projection cannot be forbidden by a monitor.
			if len(actions) == 0 {
				return
			}
			if err := r.forbid(actions); err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

func (e *Enumerator) start() (*run, error) {
	if e.Checker == nil || e.Document == nil {
		return nil, errors.New("pattern: enumerator needs a checker and a document")
	}
	q := e.Query
	if q == "" {
		qs := e.Document.Queries()
		if len(qs) == 0 {
			return nil, ErrNoQuery
		}
		q = qs[0]
	}
	query, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	subs, err := e.Document.ParameterSubstitutions()
	if err != nil {
		return nil, err
	}
	focus := e.Focus
	if len(focus) == 0 {
		focus = e.Document.BroadcastChannels()
	}
	if len(focus) == 0 {
		return nil, ErrNoFocus
	}

	ws, err := workspace.New(e.WorkDir, e.Keep)
	if err != nil {
		return nil, err
	}
	log := e.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &run{
		Enumerator: e,
		ws:         ws,
		log:        log.WithField("run", ws.ID()),
		subs:       subs,
		focus:      focus,
		query:      query,
		doc:        e.Document,
	}, nil
}

// verify checks query on the current model and returns the projected
// counter-example, or nil when there is none.
func (r *run) verify(ctx context.Context, k int, query string) (*trace.SimTrace, error) {
	model := r.ws.Path(fmt.Sprintf("pattern_%d.xml", k))
	if err := r.doc.WithQueries([]string{query}).Save(model); err != nil {
		return nil, err
	}
	res, err := r.Checker.VerifyWithTrace(ctx, model, r.ws.Path(fmt.Sprintf("pattern_%d.xtr", k)), r.Options...)
	if err != nil {
		return nil, err
	}
	if res.TracePath == "" {
		if res.Satisfied {
			return nil, fmt.Errorf("pattern: %s is satisfied but no trace was written", query)
		}
		return nil, nil
	}

	text, err := r.Checker.TraceText(ctx, model, res.TracePath)
	if err != nil {
		return nil, err
	}
	t, err := trace.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("pattern: trace of %s: %w", query, err)
	}
	if len(r.subs) > 0 {
		t = t.TrimTransitions(r.subs)
	}
	return t.FilterByActions(r.focus), nil
}

// forbid adds a monitor that reaches pass on exactly the runs whose focus
// projection starts with actions.
func (r *run) forbid(actions []string) error {
	prefix := r.MonitorPrefix
	if prefix == "" {
		prefix = DefaultMonitorPrefix
	}
	name := fmt.Sprintf("%s%d", prefix, len(r.monitors)+1)
	floor, err := r.doc.NextLocationID()
	if err != nil {
		return err
	}
	m := monitor.Observer(name, monitor.Untimed(actions...), r.focus, floor, monitor.ObserverOptions{Strict: true, AllPattern: true})
	doc, err := r.doc.WithMonitor(m)
	if err != nil {
		return err
	}
	r.doc = doc
	r.monitors = append(r.monitors, name)
	r.log.WithField("monitor", name).Debug("monitor added")
	return nil
}
