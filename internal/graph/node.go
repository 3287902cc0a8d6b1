// Package graph resolves a binding model into a validated dependency graph.
package graph

import (
	"fmt"
	"slices"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// NodeID addresses a node in a Graph.
type NodeID int

// Unresolved is the source of a dependency no node satisfies.
const Unresolved NodeID = -1

// Node is one concrete way to satisfy a contract.
type Node struct {
	ID       NodeID
	Binding  *model.Binding
	Variant  int
	Lifetime model.Lifetime
	Kind     NodeKind
	// TypeConstructor binds the open type parameters of the binding's
	// definition to concrete types.
	TypeConstructor map[string]model.TypeRef
	// Scope is non-zero for copies made by the override rewriter.
	Scope int
}

// NodeKind is the closed set of node payloads: *ImplementationNode,
// *FactoryNode, *ArgNode, *ConstructNode, *RootNode and *ErrorNode.
type NodeKind interface {
	nodeKind()
	// Injections lists the dependencies in execution order.
	Injections() []model.Injection
}

// MemberVariant is a member selected for injection with its chosen
// parameters.
type MemberVariant struct {
	Member     *model.Member
	Parameters []model.Parameter
}

// ImplementationNode constructs Type with one constructor variant.
type ImplementationNode struct {
	Type        model.TypeRef
	Constructor *model.Constructor
	// ConstructorIndex is the declaration index of Constructor.
	ConstructorIndex int
	Parameters       []model.Parameter
	// Members are ordered: explicit ordinals first, then declaration order.
	Members []MemberVariant
}

type FactoryNode struct {
	Factory *model.Factory
}

type ArgNode struct {
	Arg *model.Arg
}

type ConstructNode struct {
	Construct *model.Construct
}

type RootNode struct {
	Root model.Root
}

// ErrorNode stands for a binding that cannot produce an instance.
type ErrorNode struct {
	Code    diag.Code
	Message string
}

func (*ImplementationNode) nodeKind() {}
func (*FactoryNode) nodeKind()        {}
func (*ArgNode) nodeKind()            {}
func (*ConstructNode) nodeKind()      {}
func (*RootNode) nodeKind()           {}
func (*ErrorNode) nodeKind()          {}

func (n *ImplementationNode) Injections() []model.Injection {
	injections := make([]model.Injection, 0, len(n.Parameters))
	for i, p := range n.Parameters {
		injections = append(injections, parameterInjection(p, model.InjectConstructorParam, "", i))
	}
	for _, m := range n.Members {
		kind := model.InjectMethodParam
		switch m.Member.Kind {
		case model.MemberField:
			kind = model.InjectField
		case model.MemberProperty:
			kind = model.InjectProperty
		}
		for i, p := range m.Parameters {
			inj := parameterInjection(p, kind, m.Member.Name, i)
			if kind != model.InjectMethodParam && inj.Name == "" {
				inj.Name = m.Member.Name
			}
			if m.Member.Ordinal != nil {
				inj.Ordinal = *m.Member.Ordinal
			}
			if !m.Member.Location.IsZero() {
				inj.Locations = append(inj.Locations, m.Member.Location)
			}
			injections = append(injections, inj)
		}
	}
	return injections
}

func parameterInjection(p model.Parameter, kind model.InjectionKind, member string, ordinal int) model.Injection {
	inj := model.Injection{
		Type:     p.Type,
		Tag:      p.Tag,
		Kind:     kind,
		Name:     p.Name,
		Member:   member,
		Ordinal:  ordinal,
		Optional: p.Optional,
		Default:  p.Default,
	}
	if !p.Location.IsZero() {
		inj.Locations = []model.Location{p.Location}
	}
	return inj
}

func (n *FactoryNode) Injections() []model.Injection {
	injections := slices.Clone(n.Factory.Injections)
	slices.SortStableFunc(injections, func(a, b model.Injection) int {
		return a.Ordinal - b.Ordinal
	})
	return injections
}

func (n *ArgNode) Injections() []model.Injection { return nil }

func (n *ConstructNode) Injections() []model.Injection {
	if n.Construct.Kind == model.ConstructAccumulator || n.Construct.Kind == model.ConstructOverride {
		return nil
	}
	injections := make([]model.Injection, 0, len(n.Construct.Dependencies))
	for i, c := range n.Construct.Dependencies {
		tag := model.DefaultTag
		if len(c.Tags) > 0 {
			tag = c.Tags[0]
		}
		injections = append(injections, model.Injection{
			Type:    c.Type,
			Tag:     tag,
			Kind:    model.InjectElement,
			Ordinal: i,
		})
	}
	return injections
}

func (n *RootNode) Injections() []model.Injection {
	return []model.Injection{n.Root.Injection()}
}

func (n *ErrorNode) Injections() []model.Injection { return nil }

// Type returns the type the node produces.
func (n *Node) Type() model.TypeRef {
	switch k := n.Kind.(type) {
	case *ImplementationNode:
		return k.Type
	case *RootNode:
		return k.Root.Type
	}
	if n.Binding != nil {
		return n.Binding.Type()
	}
	return model.TypeRef{}
}

// Injections returns the node's dependencies in execution order.
func (n *Node) Injections() []model.Injection {
	return n.Kind.Injections()
}

// Location returns the declaration site of the node.
func (n *Node) Location() model.Location {
	if r, ok := n.Kind.(*RootNode); ok {
		return r.Root.Location
	}
	if n.Binding != nil {
		return n.Binding.Location
	}
	return model.Location{}
}

func (n *Node) String() string {
	switch k := n.Kind.(type) {
	case *RootNode:
		return fmt.Sprintf("root %s", k.Root.Name)
	case *ConstructNode:
		return fmt.Sprintf("%s %s", k.Construct.Kind, k.Construct.Type)
	case *ArgNode:
		return fmt.Sprintf("arg %s %s", k.Arg.Name, n.Type())
	}
	return n.Type().String()
}

// IsLazyBoundary reports whether consuming a dependency of n through a lazy
// injection defers its construction off the current call stack.
func (n *Node) IsLazyBoundary() bool {
	switch n.Lifetime {
	case model.Singleton, model.Scoped, model.PerResolve, model.PerBlock:
		return true
	}
	return false
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}
