// Package engine runs the full resolution pipeline for a setup.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/graph"
	"github.com/mazrean/bindgraph/internal/model"
	"github.com/mazrean/bindgraph/internal/plan"
)

type options struct {
	maxIterations    int
	lifetimeSeverity diag.Severity
	logger           *slog.Logger
	parallelism      int
	skipDefaults     bool
}

// Option configures BuildGraph and BuildAll.
type Option func(*options)

// WithMaxIterations caps the variant search. Values below the minimum are
// raised to it.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithLifetimeSeverity sets the severity of lifetime violations. Error by
// default.
func WithLifetimeSeverity(s diag.Severity) Option {
	return func(o *options) {
		o.lifetimeSeverity = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithParallelism bounds how many setups BuildAll resolves at once.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithoutDefaults disables the built-in Func and Lazy bindings.
func WithoutDefaults() Option {
	return func(o *options) {
		o.skipDefaults = true
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		maxIterations:    graph.DefaultMaxIterations,
		lifetimeSeverity: diag.SeverityError,
		logger:           slog.Default(),
		parallelism:      runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Result is the outcome of resolving one setup. Graph and Plan are nil when
// resolution stopped before producing them.
type Result struct {
	Setup       *model.Setup
	Graph       *graph.Graph
	Plan        *plan.Plan
	Iterations  int
	Diagnostics diag.Diagnostics
}

// BuildGraph resolves a setup into a validated graph and its instantiation
// plan. Problems are reported in Result.Diagnostics; when any of them is
// fatal the returned error is diag.ErrHandled. Lifetime violations never
// prevent the plan from being built.
func BuildGraph(ctx context.Context, setup *model.Setup, opts ...Option) (*Result, error) {
	o := newOptions(opts)
	logger := o.logger.With("setup", setup.Name)

	if !o.skipDefaults {
		setup = setup.WithDefaults()
	}
	res := &Result{Setup: setup}

	if !graph.ValidateMetadata(setup, &res.Diagnostics) {
		logger.Debug("invalid metadata", "diagnostics", len(res.Diagnostics))
		return res, diag.ErrHandled
	}

	sr, err := graph.Search(ctx, setup, graph.Options{MaxIterations: o.maxIterations, Logger: logger})
	if errors.Is(err, graph.ErrMaxIterations) {
		res.Diagnostics.Errorf(diag.CodeMaxIterations, []model.Location{setup.Location},
			"resolution of %s did not converge: %v; reduce the number of candidate bindings", setup.Name, err)
		return res, diag.ErrHandled
	}
	if err != nil {
		return nil, fmt.Errorf("resolve setup %s: %w", setup.Name, err)
	}
	res.Iterations = sr.Iterations

	g := graph.Clean(sr.Graph)
	graph.ValidateCycles(g, &res.Diagnostics)
	graph.ReportUnresolved(g, &res.Diagnostics)
	res.Graph = g
	if res.Diagnostics.HasErrors() {
		logger.Debug("unresolved graph", "iterations", sr.Iterations, "diagnostics", len(res.Diagnostics))
		return res, diag.ErrHandled
	}

	graph.ValidateLifetimes(g, o.lifetimeSeverity, &res.Diagnostics)
	res.Graph = graph.OptimizeLifetimes(g)
	res.Plan = plan.Build(res.Graph)

	logger.Debug("resolved setup",
		"iterations", sr.Iterations,
		"nodes", res.Graph.Len(),
		"roots", len(res.Plan.Roots),
		"variables", len(res.Plan.Variables),
	)

	if res.Diagnostics.HasErrors() {
		return res, diag.ErrHandled
	}
	return res, nil
}

// BuildAll resolves independent setups in parallel. Results are returned in
// input order; a setup that fails with diagnostics does not stop the others.
// The error is diag.ErrHandled when any setup reported a fatal diagnostic, or
// the first unexpected failure.
func BuildAll(ctx context.Context, setups []*model.Setup, opts ...Option) ([]*Result, error) {
	o := newOptions(opts)

	results := make([]*Result, len(setups))
	failed := make([]bool, len(setups))

	eg, ctx := errgroup.WithContext(ctx)
	if o.parallelism > 0 {
		eg.SetLimit(o.parallelism)
	}
	for i, setup := range setups {
		eg.Go(func() error {
			res, err := BuildGraph(ctx, setup, opts...)
			if errors.Is(err, diag.ErrHandled) {
				results[i], failed[i] = res, true
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, f := range failed {
		if f {
			return results, diag.ErrHandled
		}
	}
	return results, nil
}
