// Package verifyta runs the UPPAAL command line verifier and the trace
// decoder that turns its counter-example files into text.
package verifyta

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	helpMarker      = "-h [ --help ]"
	satisfiedMarker = "Formula is satisfied"
	violatedMarker  = "Formula is NOT satisfied"
	compileOnlyEnv  = "UPPAAL_COMPILE_ONLY"
)

// Client invokes verifyta and, for trace decoding, a tracer binary. It
// holds no per-run state and may be shared between goroutines.
type Client struct {
	path    string
	tracer  string
	env     []string
	logger  logrus.FieldLogger
	metrics *Metrics
}

type options struct {
	tracer  string
	env     []string
	logger  logrus.FieldLogger
	metrics *Metrics
}

// Option configures a Client.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

// WithTracer sets the tracer binary used by TraceText.
func WithTracer(path string) Option {
	return optionFunc(func(o *options) {
		o.tracer = path
	})
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithMetrics records every invocation on m.
func WithMetrics(m *Metrics) Option {
	return optionFunc(func(o *options) {
		o.metrics = m
	})
}

// WithEnv adds KEY=VALUE entries to the environment of every invocation.
func WithEnv(env ...string) Option {
	return optionFunc(func(o *options) {
		o.env = append(o.env, env...)
	})
}

// New returns a client for the verifyta binary at path.
func New(path string, opts ...Option) *Client {
	o := &options{}
	for _, opt := range opts {
		opt.apply(o)
	}
	if o.logger == nil {
		o.logger = logrus.StandardLogger()
	}
	return &Client{
		path:    path,
		tracer:  o.tracer,
		env:     o.env,
		logger:  o.logger,
		metrics: o.metrics,
	}
}

// Path returns the verifyta binary.
func (c *Client) Path() string {
	return c.path
}

// Result is the outcome of one verifyta run.
type Result struct {
	Output string
	// Formulas holds one entry per query verifyta reported on, in order.
	Formulas []bool
	// Satisfied reports whether at least one query was checked and all of
	// them hold.
	Satisfied bool
	// TracePath is the counter-example file written by VerifyWithTrace, or
	// "" when verifyta wrote none.
	TracePath string
}

func newResult(output string) Result {
	r := Result{Output: output}
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, violatedMarker):
			r.Formulas = append(r.Formulas, false)
		case strings.Contains(line, satisfiedMarker):
			r.Formulas = append(r.Formulas, true)
		}
	}
	r.Satisfied = len(r.Formulas) > 0 && !slices.Contains(r.Formulas, false)
	return r
}

// CheckPath runs verifyta -h and checks that the binary answers like
// verifyta does.
func (c *Client) CheckPath(ctx context.Context) error {
	out, err := c.run(ctx, KindHelp, c.path, nil, "-h")
	if err != nil {
		return err
	}
	if !strings.Contains(out, helpMarker) {
		return &VerificationError{
			Cmd:    c.path + " -h",
			Output: out,
			Err:    fmt.Errorf("%s does not look like verifyta", c.path),
		}
	}
	return nil
}

// Version returns the first line of verifyta -v.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, KindHelp, c.path, nil, "-v")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(line), nil
}

// Verify checks the queries embedded in model.
func (c *Client) Verify(ctx context.Context, model string, opts ...string) (Result, error) {
	if _, err := os.Stat(model); err != nil {
		return Result{}, fmt.Errorf("verify: %w", err)
	}
	out, err := c.run(ctx, KindVerify, c.path, []string{compileOnlyEnv + "="}, append([]string{model}, opts...)...)
	if err != nil {
		return Result{}, err
	}
	return newResult(out), nil
}

// VerifyWithTrace verifies model and asks verifyta to store a
// counter-example at tracePath, which must end in .xtr or .xml. "-t 1"
// (shortest trace) is added unless opts select a trace kind.
func (c *Client) VerifyWithTrace(ctx context.Context, model, tracePath string, opts ...string) (Result, error) {
	ext := filepath.Ext(tracePath)
	var flag string
	switch ext {
	case ".xtr":
		flag = "-f"
	case ".xml":
		flag = "-X"
	default:
		return Result{}, fmt.Errorf("verify: trace path %q must end with .xtr or .xml", tracePath)
	}
	base := strings.TrimSuffix(tracePath, ext)

	args := []string{flag, base}
	if !slices.ContainsFunc(opts, func(o string) bool { return strings.HasPrefix(o, "-t") }) {
		args = append(args, "-t", "1")
	}
	args = append(args, opts...)

	for _, p := range traceCandidates(base, ext) {
		_ = os.Remove(p)
	}
	r, err := c.Verify(ctx, model, args...)
	if err != nil {
		return Result{}, err
	}
	for _, p := range traceCandidates(base, ext) {
		if _, err := os.Stat(p); err == nil {
			r.TracePath = p
			break
		}
	}
	return r, nil
}

// traceCandidates lists the names verifyta gives the first trace for base:
// base-1.xtr up to UPPAAL 4, base_xtr-1 from UPPAAL 5 on.
func traceCandidates(base, ext string) []string {
	return []string{
		base + "-1" + ext,
		base + "_" + strings.TrimPrefix(ext, ".") + "-1",
	}
}

// CompileToIF returns the intermediate format of model, which the tracer
// needs to decode traces.
func (c *Client) CompileToIF(ctx context.Context, model string) (string, error) {
	if _, err := os.Stat(model); err != nil {
		return "", fmt.Errorf("compile: %w", err)
	}
	return c.run(ctx, KindCompile, c.path, []string{compileOnlyEnv + "=1"}, model)
}

// TraceText decodes the counter-example xtr of model into the tracer's
// textual dump.
func (c *Client) TraceText(ctx context.Context, model, xtr string) (string, error) {
	if c.tracer == "" {
		return "", ErrTracerNotSet
	}
	ifText, err := c.CompileToIF(ctx, model)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(filepath.Dir(xtr), "*.if")
	if err != nil {
		return "", fmt.Errorf("trace: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(ifText); err != nil {
		f.Close()
		return "", fmt.Errorf("trace: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("trace: %w", err)
	}

	return c.run(ctx, KindTrace, c.tracer, nil, f.Name(), xtr)
}

// VerifyAll verifies models with the same options, at most parallelism at a
// time. Results are in the order of models.
func (c *Client) VerifyAll(ctx context.Context, models []string, opts []string, parallelism int) ([]Result, error) {
	results := make([]Result, len(models))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(parallelism, 1))
	for i, m := range models {
		g.Go(func() error {
			r, err := c.Verify(ctx, m, opts...)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) run(ctx context.Context, kind, bin string, env []string, args ...string) (string, error) {
	if c.path == "" {
		return "", ErrPathNotSet
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = append(append(os.Environ(), c.env...), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	line := strings.Join(append([]string{bin}, args...), " ")
	log := c.logger.WithField("kind", kind)
	log.WithField("cmd", line).Debug("running")

	start := time.Now()
	err := cmd.Run()
	c.metrics.observe(kind, start, err)
	if err != nil {
		log.WithError(err).WithField("cmd", line).Warn("invocation failed")
		return "", &VerificationError{Cmd: line, Output: strings.TrimSpace(stderr.String() + stdout.String()), Err: err}
	}
	log.WithField("elapsed", time.Since(start)).Debug("done")
	return stdout.String(), nil
}
