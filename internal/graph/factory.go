package graph

import (
	"cmp"
	"slices"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// maxVariantsPerBinding caps the constructor/method variants of one binding.
const maxVariantsPerBinding = 256

// nodeFactory turns bindings into candidate nodes.
type nodeFactory struct {
	types model.Types
}

func newNodeFactory(types model.Types) *nodeFactory {
	return &nodeFactory{types: types}
}

// create returns the variants of a binding, most preferred first. It never
// fails: bindings that cannot produce an instance yield an ErrorNode.
func (f *nodeFactory) create(b *model.Binding) []*Node {
	newNode := func(variant int, kind NodeKind) *Node {
		return &Node{
			ID:       Unresolved,
			Binding:  b,
			Variant:  variant,
			Lifetime: b.Lifetime,
			Kind:     kind,
		}
	}

	switch {
	case b.Implementation != nil:
		kinds, failure := f.implementationVariants(b.Implementation.Type)
		if failure != nil {
			return []*Node{newNode(0, failure)}
		}
		nodes := make([]*Node, 0, len(kinds))
		for i, k := range kinds {
			n := newNode(i, k)
			_, n.TypeConstructor, _ = f.types.Lookup(k.Type)
			nodes = append(nodes, n)
		}
		return nodes
	case b.Factory != nil:
		return []*Node{newNode(0, &FactoryNode{Factory: b.Factory})}
	case b.Arg != nil:
		return []*Node{newNode(0, &ArgNode{Arg: b.Arg})}
	case b.Construct != nil:
		return []*Node{newNode(0, &ConstructNode{Construct: b.Construct})}
	}

	return []*Node{newNode(0, &ErrorNode{
		Code:    diag.CodeInvalidMetadata,
		Message: "binding has no implementation strategy",
	})}
}

type constructorCandidate struct {
	index int
	ctor  *model.Constructor
}

// implementationVariants enumerates constructor variants crossed with the
// truncation variants of injected methods.
func (f *nodeFactory) implementationVariants(t model.TypeRef) ([]*ImplementationNode, *ErrorNode) {
	info, subst, ok := f.types.Lookup(t)
	if !ok {
		return nil, &ErrorNode{Code: diag.CodeCannotConstruct, Message: "no type information for " + t.String()}
	}
	if info.Abstract {
		return nil, &ErrorNode{Code: diag.CodeCannotConstruct, Message: "cannot construct abstract type " + t.String()}
	}

	ctors := eligibleConstructors(info)
	if len(ctors) == 0 {
		return nil, &ErrorNode{Code: diag.CodeCannotConstruct, Message: t.String() + " has no accessible constructor"}
	}

	members := orderedMembers(info)
	memberVariants := make([][][]model.Parameter, len(members))
	for i, m := range members {
		params := substituteParams(m.Parameters, subst)
		if m.Kind == model.MemberMethod {
			memberVariants[i] = truncations(params)
		} else {
			memberVariants[i] = [][]model.Parameter{params}
		}
	}

	var out []*ImplementationNode
	for _, c := range ctors {
		for _, params := range truncations(substituteParams(c.ctor.Parameters, subst)) {
			for _, combo := range product(memberVariants, maxVariantsPerBinding) {
				mv := make([]MemberVariant, len(members))
				for i := range members {
					mv[i] = MemberVariant{Member: members[i], Parameters: combo[i]}
				}
				out = append(out, &ImplementationNode{
					Type:             t,
					Constructor:      c.ctor,
					ConstructorIndex: c.index,
					Parameters:       params,
					Members:          mv,
				})
				if len(out) >= maxVariantsPerBinding {
					return out, nil
				}
			}
		}
	}
	return out, nil
}

// eligibleConstructors keeps accessible constructors, dropping generated ones
// when an explicitly authored one exists. Constructors with an explicit
// ordinal come first, the rest by descending parameter count.
func eligibleConstructors(info *model.TypeInfo) []constructorCandidate {
	var (
		ctors    []constructorCandidate
		explicit bool
	)
	for i := range info.Constructors {
		c := &info.Constructors[i]
		if !c.Accessible {
			continue
		}
		if !c.Generated {
			explicit = true
		}
		ctors = append(ctors, constructorCandidate{index: i, ctor: c})
	}
	if explicit {
		ctors = slices.DeleteFunc(ctors, func(c constructorCandidate) bool {
			return c.ctor.Generated
		})
	}

	slices.SortStableFunc(ctors, func(a, b constructorCandidate) int {
		switch {
		case a.ctor.Ordinal != nil && b.ctor.Ordinal != nil:
			return cmp.Compare(*a.ctor.Ordinal, *b.ctor.Ordinal)
		case a.ctor.Ordinal != nil:
			return -1
		case b.ctor.Ordinal != nil:
			return 1
		}
		return cmp.Compare(len(b.ctor.Parameters), len(a.ctor.Parameters))
	})
	return ctors
}

// orderedMembers returns members with explicit ordinals first, ascending,
// then the unordered ones in declaration order.
func orderedMembers(info *model.TypeInfo) []*model.Member {
	members := make([]*model.Member, 0, len(info.Members))
	for i := range info.Members {
		members = append(members, &info.Members[i])
	}
	slices.SortStableFunc(members, func(a, b *model.Member) int {
		switch {
		case a.Ordinal != nil && b.Ordinal != nil:
			return cmp.Compare(*a.Ordinal, *b.Ordinal)
		case a.Ordinal != nil:
			return -1
		case b.Ordinal != nil:
			return 1
		}
		return 0
	})
	return members
}

// truncations returns the full parameter list followed by one variant per
// dropped trailing optional parameter.
func truncations(params []model.Parameter) [][]model.Parameter {
	out := [][]model.Parameter{params}
	for n := len(params); n > 0 && params[n-1].Optional; n-- {
		out = append(out, params[:n-1])
	}
	return out
}

// product returns the cartesian product of the variant lists in
// lexicographic order, at most limit combinations.
func product(lists [][][]model.Parameter, limit int) [][][]model.Parameter {
	out := [][][]model.Parameter{{}}
	for _, list := range lists {
		next := make([][][]model.Parameter, 0, len(out)*len(list))
		for _, prefix := range out {
			for _, item := range list {
				combo := append(slices.Clone(prefix), item)
				next = append(next, combo)
				if len(next) >= limit {
					break
				}
			}
			if len(next) >= limit {
				break
			}
		}
		out = next
	}
	return out
}

func substituteParams(params []model.Parameter, subst map[string]model.TypeRef) []model.Parameter {
	if len(subst) == 0 {
		return params
	}
	out := make([]model.Parameter, len(params))
	for i, p := range params {
		p.Type = p.Type.Substitute(subst)
		out[i] = p
	}
	return out
}

// collectionContracts scans bindings for contracts of the element type,
// deduplicating (type, tag) pairs in declaration order.
func collectionContracts(bindings []*model.Binding, elem model.TypeRef) []model.Contract {
	var out []model.Contract
	seen := make(map[string]struct{})
	for _, b := range bindings {
		if b.IsGeneric() || b.Construct != nil {
			continue
		}
		for _, c := range b.Contracts {
			if !c.Type.Equal(elem) {
				continue
			}
			tags := b.ContractTags(c)
			if len(tags) == 0 {
				tags = []model.Tag{model.DefaultTag}
			}
			for _, tag := range tags {
				if tag.Kind == model.TagUnique {
					tag = uniqueTag(b)
				}
				key := model.ContractKey(elem, tag)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, model.Contract{Type: elem, Tags: []model.Tag{tag}})
			}
		}
	}
	return out
}
