package graph

import (
	"strings"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// ValidateLifetimes walks every root-to-leaf path tracking the effective
// lifetime, which only grows along a path and restarts at lazy injections.
// A Scoped dependency reached while the effective lifetime is Singleton is
// a captured scope; a static root must not reach Scoped nodes at all.
func ValidateLifetimes(g *Graph, severity diag.Severity, ds *diag.Diagnostics) {
	for _, root := range g.Roots() {
		rn, _ := g.Node(root).Kind.(*RootNode)
		v := &lifetimeValidator{
			g:        g,
			root:     rn.Root,
			severity: severity,
			ds:       ds,
			visited:  make(map[lifetimeState]struct{}),
		}
		v.walk(root, model.Transient)
	}
}

type lifetimeState struct {
	id  NodeID
	eff model.Lifetime
}

type lifetimeValidator struct {
	g        *Graph
	root     model.Root
	severity diag.Severity
	ds       *diag.Diagnostics
	visited  map[lifetimeState]struct{}
	path     []NodeID
}

func (v *lifetimeValidator) walk(id NodeID, eff model.Lifetime) {
	key := lifetimeState{id: id, eff: eff}
	if _, ok := v.visited[key]; ok {
		return
	}
	v.visited[key] = struct{}{}

	v.path = append(v.path, id)
	defer func() { v.path = v.path[:len(v.path)-1] }()

	for _, d := range v.g.Dependencies(id) {
		if d.Source == Unresolved {
			continue
		}
		src := v.g.Node(d.Source)
		next := eff
		if d.IsLazy() {
			next = model.Transient
		}

		if src.Lifetime == model.Scoped {
			if next == model.Singleton {
				v.report(src, "singleton cannot depend on scoped "+src.String())
			}
			if v.root.Static {
				v.report(src, "static root "+v.root.Name+" cannot depend on scoped "+src.String())
			}
		}

		v.walk(d.Source, next.Max(src.Lifetime))
	}
}

func (v *lifetimeValidator) report(src *Node, problem string) {
	names := make([]string, 0, len(v.path)+1)
	locs := make([]model.Location, 0, len(v.path)+1)
	for _, id := range v.path {
		n := v.g.Node(id)
		names = append(names, n.String())
		locs = append(locs, n.Location())
	}
	names = append(names, src.String())
	locs = append([]model.Location{src.Location()}, locs...)

	v.ds.Add(diag.Diagnostic{
		Severity:  v.severity,
		Code:      diag.CodeLifetime,
		Message:   problem + ": " + strings.Join(names, " -> "),
		Locations: locs,
	})
}

// OptimizeLifetimes downgrades PerResolve and PerBlock nodes referenced at
// most once per root, and never through a lazy injection, to Transient.
func OptimizeLifetimes(g *Graph) *Graph {
	var candidates []*Node
	for _, n := range g.Nodes() {
		if n.Lifetime == model.PerResolve || n.Lifetime == model.PerBlock {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return g
	}

	maxRefs := make(map[NodeID]int)
	lazy := make(map[NodeID]struct{})
	for _, root := range g.Roots() {
		refs := make(map[NodeID]int)
		expanded := make(map[NodeID]struct{})
		active := make(map[NodeID]struct{})

		var walk func(id NodeID, underLazy bool)
		walk = func(id NodeID, underLazy bool) {
			if _, ok := active[id]; ok {
				return
			}
			active[id] = struct{}{}
			defer delete(active, id)

			for _, d := range g.Dependencies(id) {
				if d.Source == Unresolved {
					continue
				}
				refs[d.Source]++
				lazyRef := underLazy || d.IsLazy()
				if lazyRef {
					lazy[d.Source] = struct{}{}
				}
				if g.Node(d.Source).Lifetime != model.Transient {
					if _, ok := expanded[d.Source]; ok {
						continue
					}
					expanded[d.Source] = struct{}{}
				}
				walk(d.Source, lazyRef)
			}
		}
		walk(root, false)

		for id, count := range refs {
			maxRefs[id] = max(maxRefs[id], count)
		}
	}

	out := g.Clone()
	for _, n := range candidates {
		if _, ok := lazy[n.ID]; ok || maxRefs[n.ID] > 1 {
			continue
		}
		c := n.clone()
		c.Lifetime = model.Transient
		out.replaceNode(c)
	}
	return out
}
