package graph

import (
	"context"
	"log/slog"

	"github.com/mazrean/bindgraph/internal/model"
	"github.com/mazrean/bindgraph/internal/pkg/collection"
)

// builder resolves one combination of chosen variants into a graph.
type builder struct {
	setup  *model.Setup
	state  *searchState
	logger *slog.Logger
}

// build resolves the injections of the chosen nodes reachable from the
// roots. When a missing binding can be synthesized, build stops and returns
// that binding instead of a graph so the caller can add its variants and
// retry. Unsatisfied injections become unresolved edges.
func (b *builder) build(ctx context.Context, chosen []*Node) (*Graph, *model.Binding, error) {
	idx := newContractIndex()
	for _, n := range chosen {
		idx.add(n)
	}
	for _, n := range b.state.placeholders {
		idx.addFallback(n)
	}

	g := NewGraph()
	ids := make(map[*Node]NodeID, len(chosen))
	queue := collection.NewQueue[NodeID]()
	for _, r := range b.setup.Roots {
		queue.Push(g.Add(&Node{
			ID:       Unresolved,
			Lifetime: model.Transient,
			Kind:     &RootNode{Root: r},
		}))
	}

	for id := range queue.Iter {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		n := g.Node(id)
		for pos, inj := range n.Injections() {
			d := Dependency{
				Target:    id,
				Injection: inj,
				Source:    Unresolved,
				Position:  pos,
			}

			if src, ok := idx.lookup(inj.Type, inj.Tag); ok {
				srcID, seen := ids[src]
				if !seen {
					srcID = g.Add(src)
					ids[src] = srcID
					queue.Push(srcID)
				}
				d.Source = srcID
				d.Resolved = true
			} else if nb := b.synthesize(inj, idx); nb != nil {
				b.logger.Debug("synthesized binding",
					"id", nb.Id,
					"type", nb.Type().String(),
					"for", inj.String(),
					"target", n.String(),
				)
				return nil, nb, nil
			}

			g.addDependency(d)
		}
	}

	return g, nil, nil
}

// synthesize creates a binding for a request nothing satisfies: a generic
// specialization, a collection, an accumulator or an auto-binding of a
// concrete type, in that order.
func (b *builder) synthesize(inj model.Injection, idx *contractIndex) *model.Binding {
	if inj.Type.IsOpen() {
		return nil
	}

	for _, gb := range idx.generic(inj.Type) {
		for _, c := range gb.Contracts {
			if !c.Type.IsOpen() || c.Type.Erase() != inj.Type.Erase() {
				continue
			}
			if !tagMatches(gb.ContractTags(c), inj.Tag) {
				continue
			}
			subst := make(map[string]model.TypeRef)
			if !unify(c.Type, inj.Type, b.setup.Types, subst) {
				continue
			}
			// A match through an implemented interface specializes a
			// different type than requested and would never be found.
			if !c.Type.Substitute(subst).Equal(inj.Type) {
				continue
			}
			if nb := b.state.specialize(gb, subst); nb != nil {
				return nb
			}
		}
	}

	if elem, ok := inj.Type.Collection(); ok {
		kind, _ := model.ConstructKindOf(inj.Type)
		return b.state.add(&model.Binding{
			Contracts: []model.Contract{{Type: inj.Type, Tags: requestTags(inj.Tag)}},
			Lifetime:  model.Transient,
			Construct: &model.Construct{
				Kind:         kind,
				Type:         inj.Type,
				ElementType:  elem,
				Dependencies: collectionContracts(b.state.bindings, elem),
			},
		})
	}

	for i := range b.setup.Accumulators {
		acc := &b.setup.Accumulators[i]
		if !acc.AccumulatorType.Equal(inj.Type) {
			continue
		}
		return b.state.add(&model.Binding{
			Contracts: []model.Contract{{Type: inj.Type, Tags: requestTags(inj.Tag)}},
			Lifetime:  model.PerResolve,
			Construct: &model.Construct{
				Kind:        model.ConstructAccumulator,
				Type:        inj.Type,
				ElementType: acc.Type,
				Accumulator: acc,
			},
			Location: acc.Location,
		})
	}

	if inj.Tag.IsDefault() && !inj.Type.IsSpecial() {
		info, _, ok := b.setup.Types.Lookup(inj.Type)
		if ok && !info.Abstract && len(info.Constructors) > 0 {
			return b.state.add(&model.Binding{
				Contracts:      []model.Contract{{Type: inj.Type}},
				Lifetime:       model.Transient,
				Implementation: &model.Implementation{Type: inj.Type},
				Location:       info.Location,
			})
		}
	}

	return nil
}

func requestTags(tag model.Tag) []model.Tag {
	if tag.IsDefault() {
		return nil
	}
	return []model.Tag{tag}
}
