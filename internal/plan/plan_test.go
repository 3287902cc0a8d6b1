package plan

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/bindgraph/internal/graph"
	"github.com/mazrean/bindgraph/internal/model"
)

func addRoot(g *graph.Graph, name, typ string) graph.NodeID {
	return g.Add(&graph.Node{
		Lifetime: model.Transient,
		Kind:     &graph.RootNode{Root: model.Root{Name: name, Type: model.MustParseType(typ)}},
	})
}

func addImpl(g *graph.Graph, typ string, lifetime model.Lifetime, params ...string) graph.NodeID {
	t := model.MustParseType(typ)
	ps := make([]model.Parameter, len(params))
	for i, p := range params {
		ps[i] = model.Parameter{Name: "p", Type: model.MustParseType(p)}
	}
	return g.Add(&graph.Node{
		Binding:  &model.Binding{Contracts: []model.Contract{{Type: t}}, Lifetime: lifetime, Implementation: &model.Implementation{Type: t}},
		Lifetime: lifetime,
		Kind:     &graph.ImplementationNode{Type: t, Constructor: &model.Constructor{Accessible: true}, Parameters: ps},
	})
}

// link connects the injections of target to sources in order.
func link(g *graph.Graph, target graph.NodeID, sources ...graph.NodeID) {
	injections := g.Node(target).Injections()
	deps := make([]graph.Dependency, len(sources))
	for i, src := range sources {
		deps[i] = graph.Dependency{
			Target:    target,
			Injection: injections[i],
			Source:    src,
			Resolved:  true,
			Position:  i,
		}
	}
	g.SetDependencies(target, deps)
}

func markLazy(g *graph.Graph, target graph.NodeID, pos int) {
	deps := g.Dependencies(target)
	deps[pos].Injection.Lazy = true
	g.SetDependencies(target, deps)
}

func TestBuild_SingletonSharedAcrossRoots(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	r1 := addRoot(g, "First", "Cache")
	r2 := addRoot(g, "Second", "Cache")
	cache := addImpl(g, "Cache", model.Singleton)
	link(g, r1, cache)
	link(g, r2, cache)

	p := Build(g)

	require.Len(t, p.Roots, 2)
	require.Len(t, p.Variables, 1)
	assert.True(t, p.Variables[0].RequiresLock)
	assert.True(t, p.Variables[0].BlockRoot)

	for _, rp := range p.Roots {
		assert.Equal(t, VarID(0), rp.Value)
		require.Len(t, rp.Blocks, 1)
		assert.Equal(t, VarID(0), rp.Blocks[0].Root)
		require.Len(t, rp.Blocks[0].Instantiations, 1)
		assert.Equal(t, cache, rp.Blocks[0].Instantiations[0].Node.ID)
	}
}

func TestBuild_LifetimeMemoization(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Service", "Service")
	svc := addImpl(g, "Service", model.Transient, "Dep", "Dep", "Ctx", "Ctx")
	dep := addImpl(g, "Dep", model.Transient)
	ctx := addImpl(g, "Ctx", model.PerResolve)
	link(g, root, svc)
	link(g, svc, dep, dep, ctx, ctx)

	p := Build(g)

	require.Len(t, p.Roots, 1)
	rp := p.Roots[0]
	require.Len(t, rp.Blocks, 1)

	block := rp.Blocks[0]
	require.Len(t, block.Instantiations, 4)
	last := block.Instantiations[3]
	assert.Equal(t, svc, last.Node.ID)
	require.Len(t, last.Args, 4)
	assert.NotEqual(t, last.Args[0].Var, last.Args[1].Var, "transient dependencies get a fresh variable")
	assert.Equal(t, last.Args[2].Var, last.Args[3].Var, "per-resolve dependencies are shared")
	assert.Len(t, p.Variables, 4)
}

func TestBuild_LazyBlock(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Service", "Service")
	svc := addImpl(g, "Service", model.Transient, "Dep")
	dep := addImpl(g, "Dep", model.PerBlock)
	link(g, root, svc)
	link(g, svc, dep)
	markLazy(g, svc, 0)

	p := Build(g)

	rp := p.Roots[0]
	require.Len(t, rp.Blocks, 2)

	inner, outer := rp.Blocks[0], rp.Blocks[1]
	assert.True(t, inner.Lazy)
	assert.Equal(t, outer.ID, inner.Parent)
	assert.Equal(t, -1, outer.Parent)
	assert.Equal(t, rp.Value, outer.Root)
	require.Len(t, inner.Instantiations, 1)
	assert.Equal(t, dep, inner.Instantiations[0].Node.ID)
}

func TestBuild_RecursiveThroughLazy(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Service", "Service")
	svc := addImpl(g, "Service", model.PerResolve, "Func<Service>")
	fn := g.Add(&graph.Node{
		Binding:  &model.Binding{Lifetime: model.PerBlock},
		Lifetime: model.PerBlock,
		Kind: &graph.FactoryNode{Factory: &model.Factory{
			Type:       model.MustParseType("Func<Service>"),
			Injections: []model.Injection{{Type: model.MustParseType("Service"), Kind: model.InjectFactory, Lazy: true}},
		}},
	})
	link(g, root, svc)
	link(g, svc, fn)
	link(g, fn, svc)

	p := Build(g)

	rp := p.Roots[0]
	var factory *Instantiation
	for _, b := range rp.Blocks {
		for i, inst := range b.Instantiations {
			if inst.Node.ID == fn {
				factory = &b.Instantiations[i]
			}
		}
	}
	require.NotNil(t, factory)
	require.Len(t, factory.Args, 1)
	assert.True(t, factory.Args[0].Recursive)
	assert.Equal(t, rp.Value, factory.Args[0].Var)
}

func TestBuild_MemberInjections(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Service", "Service")
	t0 := model.MustParseType("Service")
	svc := g.Add(&graph.Node{
		Binding:  &model.Binding{Lifetime: model.Transient, Implementation: &model.Implementation{Type: t0}},
		Lifetime: model.Transient,
		Kind: &graph.ImplementationNode{
			Type:        t0,
			Constructor: &model.Constructor{Accessible: true},
			Parameters:  []model.Parameter{{Name: "dep", Type: model.MustParseType("Dep")}},
			Members: []graph.MemberVariant{{
				Member:     &model.Member{Kind: model.MemberMethod, Name: "Init"},
				Parameters: []model.Parameter{{Name: "a", Type: model.MustParseType("Dep")}, {Name: "b", Type: model.MustParseType("Dep")}},
			}},
		},
	})
	dep := addImpl(g, "Dep", model.Transient)
	link(g, root, svc)
	link(g, svc, dep, dep, dep)

	p := Build(g)

	insts := p.Roots[0].Blocks[0].Instantiations
	last := insts[len(insts)-1]
	assert.Len(t, last.Args, 1)
	require.Len(t, last.Members, 1)
	assert.Equal(t, "Init", last.Members[0].Member.Name)
	assert.Len(t, last.Members[0].Args, 2)
}

func TestBuild_Accumulation(t *testing.T) {
	t.Parallel()

	disposable := model.MustParseType("IDisposable")
	g := graph.NewGraph()
	root := addRoot(g, "Service", "Service")
	svc := addImpl(g, "Service", model.Transient, "Dep", "Disposables")
	dep := g.Add(&graph.Node{
		Binding: &model.Binding{
			Contracts:      []model.Contract{{Type: model.MustParseType("Dep")}, {Type: disposable}},
			Lifetime:       model.Transient,
			Implementation: &model.Implementation{Type: model.MustParseType("Dep")},
		},
		Lifetime: model.Transient,
		Kind:     &graph.ImplementationNode{Type: model.MustParseType("Dep"), Constructor: &model.Constructor{Accessible: true}},
	})
	acc := &model.Accumulator{Type: disposable, AccumulatorType: model.MustParseType("Disposables")}
	accNode := g.Add(&graph.Node{
		Binding:  &model.Binding{Lifetime: model.PerResolve},
		Lifetime: model.PerResolve,
		Kind: &graph.ConstructNode{Construct: &model.Construct{
			Kind:        model.ConstructAccumulator,
			Type:        acc.AccumulatorType,
			ElementType: disposable,
			Accumulator: acc,
		}},
	})
	link(g, root, svc)
	link(g, svc, dep, accNode)

	p := Build(g)

	rp := p.Roots[0]
	require.Len(t, rp.Accumulations, 1)
	a := rp.Accumulations[0]
	assert.Equal(t, accNode, p.Variable(a.Accumulator).Node)
	require.Len(t, a.Items, 1)
	assert.Equal(t, dep, p.Variable(a.Items[0]).Node)
}

func TestBuild_UnresolvedRoot(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Missing", "IMissing")
	g.SetDependencies(root, []graph.Dependency{{
		Target:    root,
		Injection: g.Node(root).Injections()[0],
		Source:    graph.Unresolved,
	}})

	p := Build(g)

	require.Len(t, p.Roots, 1)
	assert.Equal(t, NoVar, p.Roots[0].Value)
	assert.Empty(t, p.Roots[0].Blocks)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	g := graph.NewGraph()
	root := addRoot(g, "Service", "IService")
	svc := addImpl(g, "Service", model.Transient, "Repository")
	repo := addImpl(g, "Repository", model.Singleton)
	link(g, root, svc)
	link(g, svc, repo)

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, Build(g)))

	want := `root Service IService
  block 1 parent 0 root repository
    repository = new Repository() // singleton, locked
  block 0 root service
    service = new Service(repository)
  return service
`
	assert.Equal(t, want, buf.String())
}

func TestVarPool_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		types []string
		want  []string
	}{
		{
			name:  "interface prefix is trimmed",
			types: []string{"IService"},
			want:  []string{"service"},
		},
		{
			name:  "duplicates get a suffix",
			types: []string{"Dep", "Dep", "Dep"},
			want:  []string{"dep", "dep0", "dep1"},
		},
		{
			name:  "generic wrapper",
			types: []string{"Func<IService>", "IEnumerable<IPlugin>"},
			want:  []string{"serviceFunc", "pluginEnumerable"},
		},
		{
			name:  "array and builtin",
			types: []string{"IPlugin[]", "string", "int"},
			want:  []string{"pluginArray", "str", "num"},
		},
		{
			name:  "reserved keyword",
			types: []string{"Object"},
			want:  []string{"objectValue"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := NewVarPool()
			got := make([]string, 0, len(tt.types))
			for _, typ := range tt.types {
				got = append(got, pool.Get(model.MustParseType(typ)))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
