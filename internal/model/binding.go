package model

import (
	"slices"
	"strings"
)

// Contract is a (type, tags) pair a binding can satisfy.
type Contract struct {
	Type TypeRef
	Tags []Tag
	// Explicit is false for contracts added implicitly (auto-bindings and
	// synthesized constructs).
	Explicit bool
}

// Implementation constructs Type through one of its constructors and
// injectable members.
type Implementation struct {
	Type TypeRef
}

// Factory builds the instance with user code. Injections are the declared
// sub-injections in call-site order and Overrides the scoped replacements the
// factory installs before later injections.
type Factory struct {
	Type       TypeRef
	Expression string
	Injections []Injection
	Overrides  []Override
}

// Override replaces a contract inside the subtree of one factory invocation.
type Override struct {
	Type       TypeRef
	Tags       []Tag
	Ordinal    int
	Expression string
	Location   Location
}

// ID is stable for a (type, tag-set) pair so repeated overrides of the same
// contract collapse to one synthetic node.
func (o Override) ID() string {
	tags := make([]string, len(o.Tags))
	for i, tag := range o.Tags {
		tags[i] = ContractKey(o.Type, tag)
	}
	slices.Sort(tags)
	return o.Type.String() + "{" + strings.Join(tags, ";") + "}"
}

// Matches reports whether the override replaces the given request.
func (o Override) Matches(t TypeRef, tag Tag) bool {
	if !o.Type.Equal(t) {
		return false
	}
	if len(o.Tags) == 0 {
		return tag.IsDefault()
	}
	for _, ot := range o.Tags {
		if ot == tag || ot.Kind == TagAny {
			return true
		}
	}
	return false
}

// Arg is a named external parameter supplied by the caller of the
// composition.
type Arg struct {
	Type TypeRef
	Name string
	// Root marks an argument of the root method instead of the composition.
	Root bool
}

// ConstructKind enumerates synthetic constructions.
type ConstructKind int

const (
	ConstructArray ConstructKind = iota
	ConstructEnumerable
	ConstructAsyncEnumerable
	ConstructSpan
	ConstructAccumulator
	ConstructOverride
)

func (k ConstructKind) String() string {
	switch k {
	case ConstructArray:
		return "array"
	case ConstructEnumerable:
		return "enumerable"
	case ConstructAsyncEnumerable:
		return "async-enumerable"
	case ConstructSpan:
		return "span"
	case ConstructAccumulator:
		return "accumulator"
	case ConstructOverride:
		return "override"
	}
	return "construct"
}

// ConstructKindOf returns the construct kind that builds the collection t.
func ConstructKindOf(t TypeRef) (ConstructKind, bool) {
	if t.Kind == KindArray {
		return ConstructArray, true
	}
	if len(t.Args) != 1 {
		return 0, false
	}
	switch t.Name {
	case TypeEnumerable:
		return ConstructEnumerable, true
	case TypeAsyncEnumerable:
		return ConstructAsyncEnumerable, true
	case TypeSpan, TypeReadOnlySpan:
		return ConstructSpan, true
	}
	return 0, false
}

// Construct is a synthesized binding: a collection, an accumulator or an
// override placeholder. Dependencies lists the nested contracts.
type Construct struct {
	Kind         ConstructKind
	Type         TypeRef
	ElementType  TypeRef
	Dependencies []Contract
	Override     *Override
	Accumulator  *Accumulator
}

// Binding maps contracts to exactly one implementation strategy.
type Binding struct {
	Id          int
	OriginalIds []int
	Contracts   []Contract
	Tags        []Tag
	Lifetime    Lifetime

	Implementation *Implementation
	Factory        *Factory
	Arg            *Arg
	Construct      *Construct

	Location Location
}

// StrategyCount returns how many implementation strategies are set.
func (b *Binding) StrategyCount() int {
	count := 0
	if b.Implementation != nil {
		count++
	}
	if b.Factory != nil {
		count++
	}
	if b.Arg != nil {
		count++
	}
	if b.Construct != nil {
		count++
	}
	return count
}

// Type returns the type the binding produces.
func (b *Binding) Type() TypeRef {
	switch {
	case b.Implementation != nil:
		return b.Implementation.Type
	case b.Factory != nil && !b.Factory.Type.IsZero():
		return b.Factory.Type
	case b.Arg != nil && !b.Arg.Type.IsZero():
		return b.Arg.Type
	case b.Construct != nil:
		return b.Construct.Type
	}
	if len(b.Contracts) > 0 {
		return b.Contracts[0].Type
	}
	return TypeRef{}
}

// ContractTags returns the effective tags of a contract: its own tags plus
// the binding-wide tags. An empty result means the default tag.
func (b *Binding) ContractTags(c Contract) []Tag {
	if len(b.Tags) == 0 {
		return c.Tags
	}
	tags := slices.Clone(c.Tags)
	for _, tag := range b.Tags {
		if !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// IsGeneric reports whether the binding has open type parameters.
func (b *Binding) IsGeneric() bool {
	for _, c := range b.Contracts {
		if c.Type.IsOpen() {
			return true
		}
	}
	return b.Type().IsOpen()
}

// Specialize returns a copy of the binding with type parameters substituted.
// The copy gets the new id and remembers the original one.
func (b *Binding) Specialize(id int, subst map[string]TypeRef) *Binding {
	nb := &Binding{
		Id:          id,
		OriginalIds: append(slices.Clone(b.OriginalIds), b.Id),
		Tags:        slices.Clone(b.Tags),
		Lifetime:    b.Lifetime,
		Location:    b.Location,
	}
	nb.Contracts = make([]Contract, len(b.Contracts))
	for i, c := range b.Contracts {
		nb.Contracts[i] = Contract{Type: c.Type.Substitute(subst), Tags: slices.Clone(c.Tags), Explicit: c.Explicit}
	}

	switch {
	case b.Implementation != nil:
		nb.Implementation = &Implementation{Type: b.Implementation.Type.Substitute(subst)}
	case b.Factory != nil:
		f := &Factory{
			Type:       b.Factory.Type.Substitute(subst),
			Expression: b.Factory.Expression,
		}
		for _, inj := range b.Factory.Injections {
			inj.Type = inj.Type.Substitute(subst)
			f.Injections = append(f.Injections, inj)
		}
		for _, o := range b.Factory.Overrides {
			o.Type = o.Type.Substitute(subst)
			f.Overrides = append(f.Overrides, o)
		}
		nb.Factory = f
	case b.Arg != nil:
		a := *b.Arg
		a.Type = a.Type.Substitute(subst)
		nb.Arg = &a
	case b.Construct != nil:
		c := *b.Construct
		c.Type = c.Type.Substitute(subst)
		c.ElementType = c.ElementType.Substitute(subst)
		nb.Construct = &c
	}

	return nb
}

// Root is a named entry point of the composition.
type Root struct {
	Name string
	Type TypeRef
	Tag  Tag
	// Public roots are exposed to callers, private ones only to the
	// composition itself.
	Public bool
	// Static roots are reachable without a composition instance and may not
	// depend on scoped instances.
	Static   bool
	Location Location
}

// Injection returns the request the root makes.
func (r Root) Injection() Injection {
	return Injection{
		Type:      r.Type,
		Tag:       r.Tag,
		Kind:      InjectRoot,
		Name:      r.Name,
		Locations: []Location{r.Location},
	}
}

// Accumulator collects every instance of Type with one of Lifetimes created
// during a root resolution into an instance of AccumulatorType.
type Accumulator struct {
	Type            TypeRef
	AccumulatorType TypeRef
	Lifetimes       []Lifetime
	Location        Location
}

// Accepts reports whether instances of the lifetime are accumulated.
func (a *Accumulator) Accepts(l Lifetime) bool {
	return len(a.Lifetimes) == 0 || slices.Contains(a.Lifetimes, l)
}
