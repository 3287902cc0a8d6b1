package graph

import (
	"fmt"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// ReportUnresolved adds one diagnostic per distinct (injection, target) pair
// left without a source, and one per failed binding.
func ReportUnresolved(g *Graph, ds *diag.Diagnostics) {
	type site struct {
		target  string
		request string
		kind    model.InjectionKind
		name    string
	}
	var (
		order []site
		locs  = make(map[site][]model.Location)
	)
	for _, d := range g.Unresolved() {
		target := g.Node(d.Target)
		s := site{
			target:  target.String(),
			request: d.Injection.String(),
			kind:    d.Injection.Kind,
			name:    d.Injection.Name,
		}
		if _, ok := locs[s]; !ok {
			order = append(order, s)
		}
		locs[s] = append(locs[s], d.Injection.Locations...)
		locs[s] = append(locs[s], target.Location())
	}

	for _, s := range order {
		ds.Errorf(diag.CodeUnresolved, locs[s], "unable to resolve %s", describeSite(s.request, s.kind, s.name, s.target))
	}

	for _, n := range g.ErrorNodes() {
		e := n.Kind.(*ErrorNode)
		ds.Errorf(e.Code, []model.Location{n.Location()}, "%s", e.Message)
	}
}

func describeSite(request string, kind model.InjectionKind, name, target string) string {
	if name == "" {
		return fmt.Sprintf("%s (%s) of %s", request, kind, target)
	}
	return fmt.Sprintf("%s (%s %s) of %s", request, kind, name, target)
}
