package graph

import (
	"cmp"
	"slices"
	"strings"

	"github.com/mazrean/bindgraph/internal/model"
)

// RewriteOverrides applies the overrides declared by factories. Inside the
// subtree reached from one factory invocation, injections matching an
// override active at their call-site ordinal are redirected to the override
// placeholder and flagged Override. Transient nodes on the way are copied so
// that the same nodes reached from elsewhere keep their original sources. A
// copied factory installs its own overrides on top of the enclosing ones.
// Edges left pointing at a placeholder outside any override scope become
// unresolved.
func RewriteOverrides(g *Graph, placeholders []*Node) *Graph {
	var factories []NodeID
	for _, n := range g.Nodes() {
		if len(factoryOverrides(n)) > 0 {
			factories = append(factories, n.ID)
		}
	}
	if len(factories) == 0 && !hasPlaceholderEdges(g) {
		return g
	}

	r := &overrideRewriter{
		g:            g.Clone(),
		placeholders: placeholders,
		inGraph:      make(map[int]NodeID),
		original:     make(map[NodeID][]Dependency, len(factories)),
	}
	for _, n := range r.g.Nodes() {
		if isPlaceholder(n) {
			r.inGraph[n.Binding.Id] = n.ID
		}
	}
	for _, id := range factories {
		r.original[id] = slices.Clone(r.g.Dependencies(id))
	}
	for _, id := range factories {
		r.rewriteFactory(id)
	}

	for _, n := range r.g.Nodes() {
		deps := r.g.Dependencies(n.ID)
		for i, d := range deps {
			if d.Source == Unresolved || d.Override || !isPlaceholder(r.g.Node(d.Source)) {
				continue
			}
			deps[i].Source = Unresolved
			deps[i].Resolved = false
		}
	}
	return r.g
}

func isPlaceholder(n *Node) bool {
	c, ok := n.Kind.(*ConstructNode)
	return ok && c.Construct.Kind == model.ConstructOverride
}

func hasPlaceholderEdges(g *Graph) bool {
	for _, d := range g.Edges() {
		if d.Source != Unresolved && !d.Override && isPlaceholder(g.Node(d.Source)) {
			return true
		}
	}
	return false
}

// factoryOverrides returns the overrides of a factory node sorted by ordinal.
func factoryOverrides(n *Node) []model.Override {
	f, ok := n.Kind.(*FactoryNode)
	if !ok || len(f.Factory.Overrides) == 0 {
		return nil
	}
	overrides := slices.Clone(f.Factory.Overrides)
	slices.SortStableFunc(overrides, func(a, b model.Override) int {
		return cmp.Compare(a.Ordinal, b.Ordinal)
	})
	return overrides
}

// activeAt returns the overrides installed before the injection at ordinal.
func activeAt(overrides []model.Override, ordinal int) []model.Override {
	n := 0
	for n < len(overrides) && overrides[n].Ordinal < ordinal {
		n++
	}
	return overrides[:n]
}

type overrideKey struct {
	id     NodeID
	active string
}

func activeKey(active []model.Override) string {
	keys := make([]string, len(active))
	for i, o := range active {
		keys[i] = o.ID() + "=" + o.Expression
	}
	return strings.Join(keys, "|")
}

type overrideRewriter struct {
	g            *Graph
	placeholders []*Node
	inGraph      map[int]NodeID
	// original holds the edges of every factory before any rewrite.
	original map[NodeID][]Dependency
	scope    int
	copies   map[overrideKey]NodeID
	reach    map[overrideKey]bool
}

func (r *overrideRewriter) dependencies(id NodeID) []Dependency {
	if deps, ok := r.original[id]; ok {
		return deps
	}
	return r.g.Dependencies(id)
}

func (r *overrideRewriter) rewriteFactory(id NodeID) {
	overrides := factoryOverrides(r.g.Node(id))

	r.scope++
	r.copies = make(map[overrideKey]NodeID)
	r.reach = make(map[overrideKey]bool)

	deps := slices.Clone(r.dependencies(id))
	for i, d := range deps {
		active := activeAt(overrides, d.Injection.Ordinal)
		if len(active) == 0 {
			continue
		}
		deps[i] = r.redirect(d, active)
	}
	r.g.SetDependencies(id, deps)
}

// redirect rewrites one edge inside an override scope. The innermost
// override, last in active, wins.
func (r *overrideRewriter) redirect(d Dependency, active []model.Override) Dependency {
	for i := len(active) - 1; i >= 0; i-- {
		if !active[i].Matches(d.Injection.Type, d.Injection.Tag) {
			continue
		}
		if src, ok := r.placeholder(active[i]); ok {
			d.Source = src
			d.Resolved = true
			d.Override = true
			d.Replacement = &active[i]
			return d
		}
	}
	if d.Source != Unresolved {
		d.Source = r.copySubtree(d.Source, active)
	}
	return d
}

// copySubtree returns a copy of a transient node whose subtree requests an
// overridden contract, or the node itself when nothing below it changes.
func (r *overrideRewriter) copySubtree(id NodeID, active []model.Override) NodeID {
	n := r.g.Node(id)
	if n.Lifetime != model.Transient || !r.reaches(id, active) {
		return id
	}
	key := overrideKey{id: id, active: activeKey(active)}
	if c, ok := r.copies[key]; ok {
		return c
	}

	c := n.clone()
	c.Scope = r.scope
	cid := r.g.Add(c)
	r.copies[key] = cid

	inner := factoryOverrides(n)
	deps := slices.Clone(r.dependencies(id))
	for i, d := range deps {
		d.Target = cid
		scope := active
		if own := activeAt(inner, d.Injection.Ordinal); len(own) > 0 {
			scope = append(slices.Clone(active), own...)
		}
		deps[i] = r.redirect(d, scope)
	}
	r.g.SetDependencies(cid, deps)
	return cid
}

// reaches reports whether a transient node's subtree requests a contract
// replaced by one of the active overrides.
func (r *overrideRewriter) reaches(id NodeID, active []model.Override) bool {
	key := overrideKey{id: id, active: activeKey(active)}
	if v, ok := r.reach[key]; ok {
		return v
	}
	r.reach[key] = false

	found := false
	for _, d := range r.dependencies(id) {
		for _, o := range active {
			if o.Matches(d.Injection.Type, d.Injection.Tag) {
				found = true
				break
			}
		}
		if found {
			break
		}
		if d.Source != Unresolved && r.g.Node(d.Source).Lifetime == model.Transient && r.reaches(d.Source, active) {
			found = true
			break
		}
	}
	r.reach[key] = found
	return found
}

// placeholder returns the graph node standing for an override, adding it on
// first use.
func (r *overrideRewriter) placeholder(o model.Override) (NodeID, bool) {
	for _, p := range r.placeholders {
		c := p.Kind.(*ConstructNode)
		if c.Construct.Override.ID() != o.ID() {
			continue
		}
		if id, ok := r.inGraph[p.Binding.Id]; ok {
			return id, true
		}
		id := r.g.Add(p)
		r.inGraph[p.Binding.Id] = id
		return id, true
	}
	return Unresolved, false
}
