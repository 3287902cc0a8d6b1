package graph

import "github.com/mazrean/bindgraph/internal/pkg/collection"

// Clean drops every node and edge not reachable from a root.
func Clean(g *Graph) *Graph {
	reachable := make(map[NodeID]struct{})
	queue := collection.NewQueue[NodeID]()
	for _, root := range g.Roots() {
		reachable[root] = struct{}{}
		queue.Push(root)
	}
	for id := range queue.Iter {
		for _, d := range g.Dependencies(id) {
			if d.Source == Unresolved {
				continue
			}
			if _, ok := reachable[d.Source]; ok {
				continue
			}
			reachable[d.Source] = struct{}{}
			queue.Push(d.Source)
		}
	}

	if len(reachable) == g.Len() {
		return g
	}

	out := g.Clone()
	for _, n := range g.Nodes() {
		if _, ok := reachable[n.ID]; !ok {
			out.remove(n.ID)
		}
	}
	return out
}
