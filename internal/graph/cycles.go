package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// Cycle is a dependency path whose first and last node are the same.
type Cycle struct {
	Path []NodeID
}

// CycleError represents an error when a dependency cycle is detected
type CycleError struct {
	Cycle []*Node
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected"
	}

	names := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		names[i] = n.String()
	}
	return "circular dependency detected: " + strings.Join(names, " -> ")
}

// Err returns the cycle as a *CycleError.
func (c Cycle) Err(g *Graph) error {
	nodes := make([]*Node, len(c.Path))
	for i, id := range c.Path {
		nodes[i] = g.Node(id)
	}
	return &CycleError{Cycle: nodes}
}

// key identifies the cycle independent of the node it was entered from.
func (c Cycle) key() string {
	ring := c.Path[:len(c.Path)-1]
	start := 0
	for i, id := range ring {
		if id < ring[start] {
			start = i
		}
	}
	var b strings.Builder
	for i := range ring {
		fmt.Fprintf(&b, "%d,", ring[(start+i)%len(ring)])
	}
	return b.String()
}

// FindCycles walks every root depth-first and returns each distinct cycle
// once. Crossing a lazy injection of a Singleton, Scoped, PerResolve or
// PerBlock consumer clears the whole visited path: the dependency is built
// later, off the current call stack. Each lazy edge is crossed at most once
// per root.
func FindCycles(g *Graph) []Cycle {
	var cycles []Cycle
	seen := make(map[string]struct{})
	for _, root := range g.Roots() {
		w := &cycleWalker{
			g:       g,
			onPath:  make(map[NodeID]struct{}),
			closed:  make(map[NodeID]struct{}),
			crossed: make(map[[2]int]struct{}),
			report: func(c Cycle) {
				if _, ok := seen[c.key()]; ok {
					return
				}
				seen[c.key()] = struct{}{}
				cycles = append(cycles, c)
			},
		}
		w.visit(root)
	}
	return cycles
}

type cycleWalker struct {
	g       *Graph
	path    []NodeID
	onPath  map[NodeID]struct{}
	closed  map[NodeID]struct{}
	crossed map[[2]int]struct{}
	report  func(Cycle)
}

func (w *cycleWalker) visit(id NodeID) {
	if _, ok := w.onPath[id]; ok {
		start := 0
		for i := len(w.path) - 1; i >= 0; i-- {
			if w.path[i] == id {
				start = i
				break
			}
		}
		path := append(slices.Clone(w.path[start:]), id)
		w.report(Cycle{Path: path})
		return
	}
	if _, ok := w.closed[id]; ok {
		return
	}

	w.onPath[id] = struct{}{}
	w.path = append(w.path, id)

	n := w.g.Node(id)
	for _, d := range w.g.Dependencies(id) {
		if d.Source == Unresolved {
			continue
		}
		if d.IsLazy() && n.IsLazyBoundary() {
			edge := [2]int{int(d.Target), d.Position}
			if _, ok := w.crossed[edge]; ok {
				continue
			}
			w.crossed[edge] = struct{}{}
			clear(w.onPath)
		}
		w.visit(d.Source)
	}

	w.path = w.path[:len(w.path)-1]
	delete(w.onPath, id)
	w.closed[id] = struct{}{}
}

// ValidateCycles reports every cycle as an error diagnostic.
func ValidateCycles(g *Graph, ds *diag.Diagnostics) []Cycle {
	cycles := FindCycles(g)
	for _, c := range cycles {
		locs := make([]model.Location, 0, len(c.Path))
		for _, id := range c.Path {
			locs = append(locs, g.Node(id).Location())
		}
		ds.Errorf(diag.CodeCycle, locs, "%v", c.Err(g))
	}
	return cycles
}
