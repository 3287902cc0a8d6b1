package model

// Parameter is one formal parameter of a constructor or method.
type Parameter struct {
	Name     string
	Type     TypeRef
	Tag      Tag
	Optional bool
	Default  string
	Location Location
}

// Constructor describes a way to construct an implementation type.
type Constructor struct {
	Parameters []Parameter
	// Accessible is false for constructors the composition cannot call.
	Accessible bool
	// Generated marks implicitly generated constructors.
	Generated bool
	// Ordinal is the explicit preference, nil when not declared.
	Ordinal  *int
	Location Location
}

// MemberKind is the kind of an injectable member.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberProperty
	MemberMethod
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberProperty:
		return "property"
	}
	return "method"
}

// Member is a field, property or method injected after construction.
type Member struct {
	Kind MemberKind
	Name string
	// Ordinal orders member injection, nil keeps declaration order after the
	// ordered members.
	Ordinal    *int
	Parameters []Parameter
	Location   Location
}

// TypeInfo is what the front-end knows about a named type.
type TypeInfo struct {
	Name string
	// Params are the type parameter names of a generic type definition.
	Params       []string
	Abstract     bool
	Implements   []TypeRef
	Constructors []Constructor
	Members      []Member
	Location     Location
}

// Types is the type registry keyed by type name.
type Types map[string]*TypeInfo

// Lookup returns the type info of t with its type parameters bound to t's
// arguments.
func (ts Types) Lookup(t TypeRef) (*TypeInfo, map[string]TypeRef, bool) {
	if t.Kind != KindNamed {
		return nil, nil, false
	}
	info, ok := ts[t.Name]
	if !ok || len(info.Params) != len(t.Args) {
		return nil, nil, false
	}
	if len(info.Params) == 0 {
		return info, nil, true
	}
	subst := make(map[string]TypeRef, len(info.Params))
	for i, p := range info.Params {
		subst[p] = t.Args[i]
	}
	return info, subst, true
}

// Implements reports whether impl is assignable to contract: identical types,
// or contract is reachable through the declared implemented interfaces.
func (ts Types) Implements(impl, contract TypeRef) bool {
	visited := make(map[string]struct{})
	var walk func(TypeRef) bool
	walk = func(t TypeRef) bool {
		if t.Equal(contract) {
			return true
		}
		key := t.String()
		if _, ok := visited[key]; ok {
			return false
		}
		visited[key] = struct{}{}

		info, subst, ok := ts.Lookup(t)
		if !ok {
			return false
		}
		for _, base := range info.Implements {
			if walk(base.Substitute(subst)) {
				return true
			}
		}
		return false
	}
	return walk(impl)
}

// Bases returns the implemented interfaces of t, transitively, with type
// arguments applied.
func (ts Types) Bases(t TypeRef) []TypeRef {
	var bases []TypeRef
	visited := map[string]struct{}{t.String(): {}}
	queue := []TypeRef{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		info, subst, ok := ts.Lookup(cur)
		if !ok {
			continue
		}
		for _, base := range info.Implements {
			b := base.Substitute(subst)
			if _, ok := visited[b.String()]; ok {
				continue
			}
			visited[b.String()] = struct{}{}
			bases = append(bases, b)
			queue = append(queue, b)
		}
	}
	return bases
}
