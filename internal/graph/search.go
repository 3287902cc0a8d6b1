package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/mazrean/bindgraph/internal/model"
)

const (
	DefaultMaxIterations = 1024
	MinMaxIterations     = 64
)

// ErrMaxIterations is returned when the search budget is exhausted before
// any graph was produced.
var ErrMaxIterations = errors.New("max iterations exceeded")

// Options configure the variant search.
type Options struct {
	// MaxIterations caps builder invocations. Zero means
	// DefaultMaxIterations; smaller values are raised to MinMaxIterations.
	MaxIterations int
	Logger        *slog.Logger
}

func (o Options) maxIterations() int {
	switch {
	case o.MaxIterations <= 0:
		return DefaultMaxIterations
	case o.MaxIterations < MinMaxIterations:
		return MinMaxIterations
	}
	return o.MaxIterations
}

// SearchResult is the outcome of the variant search.
type SearchResult struct {
	Graph *Graph
	// Resolved is false when Graph is the first invalid graph kept as a
	// fallback for diagnostics.
	Resolved   bool
	Iterations int
	// Bindings are the setup bindings followed by the synthesized ones.
	Bindings []*model.Binding
}

// Search looks for a combination of binding variants producing a resolved,
// acyclic graph. The first such graph wins. Otherwise the first invalid graph
// is returned with Resolved false, or ErrMaxIterations when the budget ran out
// before any graph was built.
func Search(ctx context.Context, setup *model.Setup, opts Options) (*SearchResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxIterations := opts.maxIterations()

	state := newSearchState(setup)
	b := &builder{setup: setup, state: state, logger: logger}

	var f frontier
	for _, binding := range setup.Bindings {
		f.groups = append(f.groups, state.group(binding))
	}

	var fallback *Graph
	iterations := 0
	for iterations < maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search variants: %w", err)
		}
		iterations++

		g, synthesized, err := b.build(ctx, f.chosen())
		if err != nil {
			return nil, fmt.Errorf("build graph: %w", err)
		}
		if synthesized != nil {
			f.groups = append(f.groups, state.group(synthesized))
			continue
		}

		g = Clean(RewriteOverrides(g, state.placeholders))
		cycles := FindCycles(g)
		if g.IsResolved() && len(cycles) == 0 {
			logger.Debug("resolved graph", "setup", setup.Name, "iterations", iterations, "nodes", g.Len())
			return &SearchResult{Graph: g, Resolved: true, Iterations: iterations, Bindings: state.bindings}, nil
		}
		if fallback == nil {
			fallback = g
		}

		next, ok := f.advanceOne(blame(g, cycles))
		if !ok {
			logger.Debug("variants exhausted", "setup", setup.Name, "iterations", iterations)
			break
		}
		f = next
	}

	if fallback != nil {
		return &SearchResult{Graph: fallback, Resolved: false, Iterations: iterations, Bindings: state.bindings}, nil
	}
	return nil, fmt.Errorf("%w: %d iterations", ErrMaxIterations, iterations)
}

// searchState owns the bindings known to one search, including synthesized
// ones, and allocates fresh binding ids.
type searchState struct {
	factory      *nodeFactory
	bindings     []*model.Binding
	nextID       int
	placeholders []*Node
	overrideIDs  map[string]struct{}
	specialized  map[string]struct{}
}

func newSearchState(setup *model.Setup) *searchState {
	return &searchState{
		factory:     newNodeFactory(setup.Types),
		bindings:    slices.Clone(setup.Bindings),
		nextID:      setup.MaxID() + 1,
		overrideIDs: make(map[string]struct{}),
		specialized: make(map[string]struct{}),
	}
}

// add assigns a fresh id to a synthesized binding and records it.
func (s *searchState) add(b *model.Binding) *model.Binding {
	b.Id = s.nextID
	s.nextID++
	s.bindings = append(s.bindings, b)
	return b
}

// specialize adds the specialization of a generic binding, or returns nil
// when the same substitution was already added.
func (s *searchState) specialize(b *model.Binding, subst map[string]model.TypeRef) *model.Binding {
	key := specializationKey(b.Id, subst)
	if _, ok := s.specialized[key]; ok {
		return nil
	}
	s.specialized[key] = struct{}{}

	nb := b.Specialize(s.nextID, subst)
	s.nextID++
	s.bindings = append(s.bindings, nb)
	return nb
}

func specializationKey(id int, subst map[string]model.TypeRef) string {
	params := slices.Sorted(maps.Keys(subst))
	var b strings.Builder
	fmt.Fprintf(&b, "%d", id)
	for _, p := range params {
		fmt.Fprintf(&b, ";%s=%s", p, subst[p])
	}
	return b.String()
}

// group creates the variant cursor of a binding and registers the override
// placeholders its factory declares.
func (s *searchState) group(b *model.Binding) variantGroup {
	if b.Factory != nil && !b.IsGeneric() {
		for _, o := range b.Factory.Overrides {
			if _, ok := s.overrideIDs[o.ID()]; ok {
				continue
			}
			s.overrideIDs[o.ID()] = struct{}{}
			s.placeholders = append(s.placeholders, s.factory.create(s.add(overrideBinding(o)))...)
		}
	}
	return variantGroup{binding: b, variants: s.factory.create(b)}
}

func overrideBinding(o model.Override) *model.Binding {
	return &model.Binding{
		Contracts: []model.Contract{{Type: o.Type, Tags: o.Tags}},
		Lifetime:  model.Transient,
		Construct: &model.Construct{
			Kind:     model.ConstructOverride,
			Type:     o.Type,
			Override: &o,
		},
		Location: o.Location,
	}
}

// variantGroup is the cursor over one binding's variants.
type variantGroup struct {
	binding  *model.Binding
	variants []*Node
	cursor   int
}

func (g variantGroup) canAdvance() bool {
	return g.cursor+1 < len(g.variants)
}

// frontier is the current combination of chosen variants.
type frontier struct {
	groups []variantGroup
	// next is where the round-robin scan starts.
	next int
}

func (f frontier) chosen() []*Node {
	nodes := make([]*Node, 0, len(f.groups))
	for _, g := range f.groups {
		nodes = append(nodes, g.variants[g.cursor])
	}
	return nodes
}

// advanceOne moves exactly one cursor forward, preferring groups whose
// binding was blamed for the last failure, scanning round-robin from the
// last advanced position. It returns false when no cursor can move.
func (f frontier) advanceOne(blamed map[int]struct{}) (frontier, bool) {
	n := len(f.groups)
	pick := -1
	for _, onlyBlamed := range []bool{true, false} {
		for i := range n {
			idx := (f.next + i) % n
			g := f.groups[idx]
			if !g.canAdvance() {
				continue
			}
			if _, ok := blamed[g.binding.Id]; onlyBlamed && !ok {
				continue
			}
			pick = idx
			break
		}
		if pick >= 0 {
			break
		}
	}
	if pick < 0 {
		return f, false
	}

	next := frontier{groups: slices.Clone(f.groups), next: (pick + 1) % n}
	next.groups[pick].cursor++
	return next, true
}

// blame returns the ids of the bindings involved in a failure: targets of
// unresolved edges, failed bindings and their consumers, and nodes on cycles.
func blame(g *Graph, cycles []Cycle) map[int]struct{} {
	blamed := make(map[int]struct{})
	mark := func(id NodeID) {
		if n := g.Node(id); n != nil && n.Binding != nil {
			blamed[n.Binding.Id] = struct{}{}
		}
	}

	for _, d := range g.Unresolved() {
		mark(d.Target)
	}
	consumers := g.Consumers()
	for _, n := range g.ErrorNodes() {
		mark(n.ID)
		for _, d := range consumers[n.ID] {
			mark(d.Target)
		}
	}
	for _, c := range cycles {
		for _, id := range c.Path {
			mark(id)
		}
	}
	return blamed
}
