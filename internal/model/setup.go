package model

import "slices"

// Setup is one declarative composition after merging: bindings in
// declaration order, roots, accumulators and the type registry.
type Setup struct {
	Name         string
	Bindings     []*Binding
	Roots        []Root
	Accumulators []Accumulator
	Types        Types
	Location     Location
}

// MaxID returns the largest binding id in the setup.
func (s *Setup) MaxID() int {
	maxID := 0
	for _, b := range s.Bindings {
		maxID = max(maxID, b.Id)
		for _, id := range b.OriginalIds {
			maxID = max(maxID, id)
		}
	}
	return maxID
}

// WithDefaults returns a shallow copy of the setup with the built-in lazy
// bindings appended, skipping those the setup already binds itself.
func (s *Setup) WithDefaults() *Setup {
	bound := make(map[string]struct{})
	for _, b := range s.Bindings {
		for _, c := range b.Contracts {
			bound[c.Type.Erase()] = struct{}{}
		}
	}

	out := *s
	out.Bindings = slices.Clone(s.Bindings)
	nextID := s.MaxID() + 1
	for _, b := range DefaultBindings() {
		if _, ok := bound[b.Contracts[0].Type.Erase()]; ok {
			continue
		}
		b.Id = nextID
		nextID++
		out.Bindings = append(out.Bindings, b)
	}
	return &out
}

// DefaultBindings returns the built-in Func<TT> and Lazy<TT> bindings: PerBlock
// factories that defer resolution of TT until invoked.
func DefaultBindings() []*Binding {
	lazy := func(name string) *Binding {
		tt := Param("TT")
		t := Named(name, tt)
		return &Binding{
			Contracts: []Contract{{Type: t, Explicit: true}},
			Lifetime:  PerBlock,
			Factory: &Factory{
				Type:       t,
				Expression: "() => ctx.Inject<TT>()",
				Injections: []Injection{{
					Type: tt,
					Kind: InjectFactory,
					Name: "value",
					Lazy: true,
				}},
			},
		}
	}
	return []*Binding{lazy(TypeFunc), lazy(TypeLazy)}
}
