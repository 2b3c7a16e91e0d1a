// Package pyuppaal loads UPPAAL timed-automata models and answers questions
// about them with the verifyta model checker: plain verification,
// counter-example decoding, pattern enumeration and fault diagnosis.
package pyuppaal

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/Jack0Chan/PyUPPAAL/internal/mermaid"
	"github.com/Jack0Chan/PyUPPAAL/internal/workspace"
	"github.com/Jack0Chan/PyUPPAAL/nta"
	"github.com/Jack0Chan/PyUPPAAL/pattern"
	"github.com/Jack0Chan/PyUPPAAL/trace"
	"github.com/Jack0Chan/PyUPPAAL/verifyta"
)

// Verifier is the part of *verifyta.Client a Model uses.
type Verifier interface {
	pattern.Checker
	Verify(ctx context.Context, model string, opts ...string) (verifyta.Result, error)
}

// Model is a loaded model file together with the verifier that checks it.
// The document is never modified; every analysis works on its own copy in
// its own workspace, so a Model may be shared between goroutines.
type Model struct {
	path        string
	doc         *nta.Document
	subs        trace.Substitutions
	client      Verifier
	logger      logrus.FieldLogger
	workDir     string
	keep        bool
	verifyOpts  []string
	parallelism int
}

type options struct {
	client      Verifier
	logger      logrus.FieldLogger
	workDir     string
	keep        bool
	verifyOpts  []string
	parallelism int
}

// Option is a configuration option for Load.
//
// Example:
//
//	m, err := pyuppaal.Load("crossing.xml",
//	    pyuppaal.WithClient(verifyta.New("/opt/uppaal/bin/verifyta", verifyta.WithTracer(tracer))),
//	    pyuppaal.WithParallelism(4),
//	)
type Option interface {
	apply(*options)
}

func newOptions(opts ...Option) *options {
	os := &options{parallelism: 1}
	for _, o := range opts {
		o.apply(os)
	}
	return os
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithClient sets the verifier. Without it every verification fails with
// verifyta.ErrPathNotSet.
func WithClient(v Verifier) Option {
	return optionFunc(func(o *options) {
		o.client = v
	})
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithWorkDir sets where run workspaces are created. The default is the
// system temporary directory.
func WithWorkDir(dir string) Option {
	return optionFunc(func(o *options) {
		o.workDir = dir
	})
}

// WithKeepFiles leaves the intermediate models and traces of every run on
// disk.
func WithKeepFiles(keep bool) Option {
	return optionFunc(func(o *options) {
		o.keep = keep
	})
}

// WithVerifyOptions passes extra verifyta options, such as "-o 1", to
// every verification.
func WithVerifyOptions(opts ...string) Option {
	return optionFunc(func(o *options) {
		o.verifyOpts = append(o.verifyOpts, opts...)
	})
}

// WithParallelism bounds the verifications FaultDiagnosability runs at
// once. Values below one mean one.
func WithParallelism(n int) Option {
	return optionFunc(func(o *options) {
		o.parallelism = max(n, 1)
	})
}

// Load reads the model at path and resolves the parameters of its process
// instantiations.
//
// Parameters:
//   - path: Model file in UPPAAL's XML format
//   - opts: Verifier, logging and workspace options
//
// Returns an error if the file cannot be read, is not a UPPAAL model, or
// instantiates templates with the wrong number of arguments.
func Load(path string, opts ...Option) (*Model, error) {
	os := newOptions(opts...)
	doc, err := nta.Load(path)
	if err != nil {
		return nil, err
	}
	subs, err := doc.ParameterSubstitutions()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if os.client == nil {
		os.client = verifyta.New("")
	}
	if os.logger == nil {
		os.logger = logrus.StandardLogger()
	}
	return &Model{
		path:        path,
		doc:         doc,
		subs:        subs,
		client:      os.client,
		logger:      os.logger.WithField("model", path),
		workDir:     os.workDir,
		keep:        os.keep,
		verifyOpts:  os.verifyOpts,
		parallelism: max(os.parallelism, 1),
	}, nil
}

func (m *Model) Path() string {
	return m.path
}

// Document returns the parsed model. Callers derive new documents from it;
// it is never changed in place.
func (m *Model) Document() *nta.Document {
	return m.doc
}

// Verify checks the queries stored in the model file.
func (m *Model) Verify(ctx context.Context, opts ...string) (verifyta.Result, error) {
	return m.client.Verify(ctx, m.path, append(m.verifyOptions(), opts...)...)
}

// EasyVerify checks the first query of the model and returns the trace
// verifyta produced for it, or nil when there is none.
func (m *Model) EasyVerify(ctx context.Context) (*trace.SimTrace, error) {
	queries := m.doc.Queries()
	if len(queries) == 0 {
		return nil, pattern.ErrNoQuery
	}
	ws, err := workspace.New(m.workDir, m.keep)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	_, t, err := m.check(ctx, ws, "verify", m.doc, queries[0])
	return t, err
}

// LoadTrace decodes the counter-example file xtr that verifyta wrote for
// this model.
func (m *Model) LoadTrace(ctx context.Context, xtr string) (*trace.SimTrace, error) {
	return m.decode(ctx, m.path, xtr)
}

// PatternQuery selects what FindAllPatterns enumerates.
type PatternQuery struct {
	// Query is an E<> or A[] query; empty means the first query of the
	// model.
	Query string
	// Focus defaults to the broadcast channels of the model; without any,
	// enumeration fails with pattern.ErrNoFocus.
	Focus []string
	// Max bounds the number of patterns; zero means no bound.
	Max int
}

func (m *Model) enumerator(q PatternQuery) *pattern.Enumerator {
	return &pattern.Enumerator{
		Checker:  m.client,
		Document: m.doc,
		Query:    q.Query,
		Focus:    q.Focus,
		Max:      q.Max,
		WorkDir:  m.workDir,
		Keep:     m.keep,
		Options:  m.verifyOptions(),
		Logger:   m.logger,
	}
}

// Patterns yields the distinct focus projections of the counter-examples
// of q, one per verification round.
func (m *Model) Patterns(ctx context.Context, q PatternQuery) iter.Seq2[*trace.SimTrace, error] {
	return m.enumerator(q).Patterns(ctx)
}

// FindAllPatterns collects Patterns. On error the patterns found so far are
// returned with it.
func (m *Model) FindAllPatterns(ctx context.Context, q PatternQuery) ([]*trace.SimTrace, error) {
	return m.enumerator(q).FindAll(ctx)
}

// CommunicationGraph writes a Mermaid flowchart of which process sends to
// which over which channel.
func (m *Model) CommunicationGraph(w io.Writer) error {
	processes, err := m.doc.Processes()
	if err != nil {
		return err
	}
	return mermaid.RenderCommunicationGraph(processes, w)
}

func (m *Model) verifyOptions() []string {
	return append([]string(nil), m.verifyOpts...)
}

// check saves doc with query as name.xml in ws, verifies it and decodes the
// trace verifyta wrote, if any.
func (m *Model) check(ctx context.Context, ws *workspace.Workspace, name string, doc *nta.Document, query string) (verifyta.Result, *trace.SimTrace, error) {
	path := ws.Path(name + ".xml")
	if err := doc.WithQueries([]string{query}).Save(path); err != nil {
		return verifyta.Result{}, nil, err
	}
	res, err := m.client.VerifyWithTrace(ctx, path, ws.Path(name+".xtr"), m.verifyOptions()...)
	if err != nil {
		return verifyta.Result{}, nil, err
	}
	m.logger.WithFields(logrus.Fields{"run": ws.ID(), "query": query, "satisfied": res.Satisfied}).Debug("checked")
	if res.TracePath == "" {
		return res, nil, nil
	}
	t, err := m.decode(ctx, path, res.TracePath)
	if err != nil {
		return verifyta.Result{}, nil, err
	}
	return res, t, nil
}

func (m *Model) decode(ctx context.Context, model, xtr string) (*trace.SimTrace, error) {
	text, err := m.client.TraceText(ctx, model, xtr)
	if err != nil {
		return nil, err
	}
	t, err := trace.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", xtr, err)
	}
	if len(m.subs) > 0 {
		t = t.TrimTransitions(m.subs)
	}
	return t, nil
}

// withMonitors adds the monitors in order, each numbered from the first
// location id the document leaves free.
func withMonitors(doc *nta.Document, monitors ...func(floor int) nta.Template) (*nta.Document, error) {
	for _, build := range monitors {
		floor, err := doc.NextLocationID()
		if err != nil {
			return nil, err
		}
		if doc, err = doc.WithMonitor(build(floor)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
