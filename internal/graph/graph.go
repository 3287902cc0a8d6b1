package graph

import (
	"slices"
	"strings"

	"github.com/mazrean/bindgraph/internal/model"
)

// Dependency is an edge: Target consumes Source through Injection.
type Dependency struct {
	Target    NodeID
	Injection model.Injection
	Source    NodeID
	Resolved  bool
	// Position is the index of Injection in the target's injection list.
	Position int
	// Override marks edges redirected to an override placeholder.
	Override bool
	// Replacement is the override of the consuming factory scope that the
	// edge was redirected for.
	Replacement *model.Override
}

// IsLazy reports whether the source is consumed through a lazy wrapper.
func (d Dependency) IsLazy() bool {
	return d.Injection.Lazy
}

// Graph is an arena of nodes addressed by id with, for each target, its
// ordered in-edges.
type Graph struct {
	nodes []*Node
	deps  [][]Dependency
	roots []NodeID
}

func NewGraph() *Graph {
	return &Graph{}
}

// Add stores a copy of n under a fresh id and returns the id.
func (g *Graph) Add(n *Node) NodeID {
	c := n.clone()
	c.ID = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, c)
	g.deps = append(g.deps, nil)
	if _, ok := c.Kind.(*RootNode); ok {
		g.roots = append(g.roots, c.ID)
	}
	return c.ID
}

// Node returns the node with the given id, nil if absent.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// Nodes returns the live nodes in id order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	count := 0
	for _, n := range g.nodes {
		if n != nil {
			count++
		}
	}
	return count
}

// Roots returns the root node ids in declaration order.
func (g *Graph) Roots() []NodeID {
	roots := make([]NodeID, 0, len(g.roots))
	for _, id := range g.roots {
		if g.Node(id) != nil {
			roots = append(roots, id)
		}
	}
	return roots
}

// Dependencies returns the ordered in-edges of a target.
func (g *Graph) Dependencies(id NodeID) []Dependency {
	if g.Node(id) == nil {
		return nil
	}
	return g.deps[id]
}

// SetDependencies replaces the in-edges of a target.
func (g *Graph) SetDependencies(id NodeID, deps []Dependency) {
	g.deps[id] = deps
}

func (g *Graph) addDependency(d Dependency) {
	g.deps[d.Target] = append(g.deps[d.Target], d)
}

// Edges returns every dependency in target id order.
func (g *Graph) Edges() []Dependency {
	var edges []Dependency
	for _, n := range g.Nodes() {
		edges = append(edges, g.deps[n.ID]...)
	}
	return edges
}

// Unresolved returns the dependencies without a source.
func (g *Graph) Unresolved() []Dependency {
	var out []Dependency
	for _, d := range g.Edges() {
		if !d.Resolved || d.Source == Unresolved {
			out = append(out, d)
		}
	}
	return out
}

// ErrorNodes returns the nodes standing for failed bindings.
func (g *Graph) ErrorNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if _, ok := n.Kind.(*ErrorNode); ok {
			out = append(out, n)
		}
	}
	return out
}

// IsResolved reports whether every edge has a source and no error node is
// present.
func (g *Graph) IsResolved() bool {
	return len(g.Unresolved()) == 0 && len(g.ErrorNodes()) == 0
}

// Clone returns a copy that can be rewritten without touching g. Nodes are
// shared and must be replaced, not mutated.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: slices.Clone(g.nodes),
		deps:  make([][]Dependency, len(g.deps)),
		roots: slices.Clone(g.roots),
	}
	for i, deps := range g.deps {
		c.deps[i] = slices.Clone(deps)
	}
	return c
}

func (g *Graph) replaceNode(n *Node) {
	g.nodes[n.ID] = n
}

func (g *Graph) remove(id NodeID) {
	g.nodes[id] = nil
	g.deps[id] = nil
}

// Consumers returns, for every node, the edges that consume it.
func (g *Graph) Consumers() map[NodeID][]Dependency {
	consumers := make(map[NodeID][]Dependency)
	for _, d := range g.Edges() {
		if d.Source != Unresolved {
			consumers[d.Source] = append(consumers[d.Source], d)
		}
	}
	return consumers
}

// String renders the graph one node per line, for debugging and tests.
func (g *Graph) String() string {
	var b strings.Builder
	for _, n := range g.Nodes() {
		b.WriteString(n.String())
		deps := g.deps[n.ID]
		if len(deps) > 0 {
			b.WriteString(" <- ")
			for i, d := range deps {
				if i > 0 {
					b.WriteString(", ")
				}
				if d.Source == Unresolved {
					b.WriteString("?" + d.Injection.String())
					continue
				}
				b.WriteString(g.nodes[d.Source].String())
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
