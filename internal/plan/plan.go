// Package plan orders the construction of a validated dependency graph.
package plan

import (
	"github.com/mazrean/bindgraph/internal/graph"
	"github.com/mazrean/bindgraph/internal/model"
	"github.com/mazrean/bindgraph/internal/pkg/collection"
)

// VarID identifies a Variable of a Plan.
type VarID int

// NoVar marks a missing variable.
const NoVar VarID = -1

// Variable holds one instance.
type Variable struct {
	ID       VarID
	Node     graph.NodeID
	Type     model.TypeRef
	Lifetime model.Lifetime
	// Shared variables are reused by every consumer in their scope.
	Shared bool
	// BlockRoot variables start a block.
	BlockRoot bool
	// RequiresLock is set on singletons: their disposal tracking must be
	// guarded by a lock per composition instance.
	RequiresLock bool
}

// Argument is a resolved dependency passed to an instantiation.
type Argument struct {
	Injection model.Injection
	Var       VarID
	Override  bool
	// Recursive arguments refer to a variable whose construction is still
	// in progress; only possible behind a lazy injection.
	Recursive bool
}

// MemberInjection is a field, property or method injection on an instance.
type MemberInjection struct {
	Member *model.Member
	Args   []Argument
}

// Instantiation creates one variable.
type Instantiation struct {
	Var  VarID
	Node *graph.Node
	// Constructor is set for implementations.
	Constructor *model.Constructor
	// Args are the constructor parameters, or the injections of factories
	// and constructs.
	Args    []Argument
	Members []MemberInjection
	// Override is the replacement an override placeholder stands for in the
	// consuming factory's scope.
	Override *model.Override
}

// Block is a contiguous group of instantiations bounded by a shared or lazy
// block root.
type Block struct {
	ID     int
	Root   VarID
	Parent int
	// Lazy blocks run when the lazy wrapper consuming Root is invoked.
	Lazy           bool
	Instantiations []Instantiation
}

// Accumulation lists the variables collected by an accumulator.
type Accumulation struct {
	Accumulator VarID
	Items       []VarID
}

// RootPlan is the ordered construction of one root. Blocks are listed in
// completion order: a nested block comes before its parent.
type RootPlan struct {
	Root          model.Root
	Node          graph.NodeID
	Value         VarID
	Blocks        []Block
	Accumulations []Accumulation
}

// Plan is the instantiation plan of a whole graph.
type Plan struct {
	Roots     []RootPlan
	Variables []Variable
}

// Variable returns the variable with the given id.
func (p *Plan) Variable(id VarID) *Variable {
	if id < 0 || int(id) >= len(p.Variables) {
		return nil
	}
	return &p.Variables[id]
}

// Build walks every root of a validated graph and produces its plan.
// Singleton and Scoped variables are shared by all roots; PerResolve
// variables by one root; PerBlock variables by one block. Transient nodes get
// a fresh variable per occurrence.
func Build(g *graph.Graph) *Plan {
	p := &planner{
		g:      g,
		plan:   &Plan{},
		shared: make(map[graph.NodeID]VarID),
	}
	for _, root := range g.Roots() {
		p.plan.Roots = append(p.plan.Roots, p.planRoot(root))
	}
	return p.plan
}

type planner struct {
	g      *graph.Graph
	plan   *Plan
	shared map[graph.NodeID]VarID
}

func (p *planner) newVar(n *graph.Node) VarID {
	id := VarID(len(p.plan.Variables))
	p.plan.Variables = append(p.plan.Variables, Variable{
		ID:           id,
		Node:         n.ID,
		Type:         n.Type(),
		Lifetime:     n.Lifetime,
		Shared:       n.Lifetime.IsShared(),
		RequiresLock: n.Lifetime == model.Singleton,
	})
	return id
}

func (p *planner) planRoot(id graph.NodeID) RootPlan {
	rn, _ := p.g.Node(id).Kind.(*graph.RootNode)
	rp := RootPlan{Root: rn.Root, Node: id, Value: NoVar}

	deps := p.g.Dependencies(id)
	if len(deps) == 0 || deps[0].Source == graph.Unresolved {
		return rp
	}

	w := &walker{
		p:            p,
		perResolve:   make(map[graph.NodeID]VarID),
		perBlock:     make(map[blockNode]VarID),
		instantiated: make(map[VarID]struct{}),
		active:       make(map[graph.NodeID]VarID),
		blocks:       make(map[int]*Block),
		stack:        collection.NewStack[*frame](),
	}
	rp.Value, _ = w.open(deps[0], -1)
	w.run()

	rp.Blocks = w.completed
	rp.Accumulations = w.accumulations()
	return rp
}

type blockNode struct {
	block int
	node  graph.NodeID
}

type frame struct {
	node        *graph.Node
	v           VarID
	block       int
	deps        []graph.Dependency
	next        int
	args        []Argument
	replacement *model.Override
}

// walker plans one root with an explicit stack.
type walker struct {
	p            *planner
	perResolve   map[graph.NodeID]VarID
	perBlock     map[blockNode]VarID
	instantiated map[VarID]struct{}
	// active maps nodes under construction to their variables.
	active    map[graph.NodeID]VarID
	blocks    map[int]*Block
	completed []Block
	order     []VarID
	stack     *collection.Stack[*frame]
}

// lookup returns the memoized variable of a shared node.
func (w *walker) lookup(n *graph.Node, block int) (VarID, bool) {
	var (
		v  VarID
		ok bool
	)
	switch n.Lifetime {
	case model.Singleton, model.Scoped:
		v, ok = w.p.shared[n.ID]
	case model.PerResolve:
		v, ok = w.perResolve[n.ID]
	case model.PerBlock:
		v, ok = w.perBlock[blockNode{block: block, node: n.ID}]
	}
	return v, ok
}

func (w *walker) store(n *graph.Node, block int, v VarID) {
	switch n.Lifetime {
	case model.Singleton, model.Scoped:
		w.p.shared[n.ID] = v
	case model.PerResolve:
		w.perResolve[n.ID] = v
	case model.PerBlock:
		w.perBlock[blockNode{block: block, node: n.ID}] = v
	}
}

// open returns the variable satisfying a dependency consumed from block
// parent. When the variable still has to be instantiated in this walk, a
// frame is pushed. The second result reports a recursive reference.
func (w *walker) open(d graph.Dependency, parent int) (VarID, bool) {
	id, lazy := d.Source, d.IsLazy()
	if v, ok := w.active[id]; ok {
		return v, true
	}

	n := w.p.g.Node(id)
	v, ok := w.lookup(n, parent)
	if ok {
		if _, done := w.instantiated[v]; done {
			return v, false
		}
	} else {
		v = w.p.newVar(n)
		w.store(n, parent, v)
	}

	block := parent
	if parent < 0 || lazy || n.Lifetime == model.Singleton {
		block = len(w.blocks)
		w.blocks[block] = &Block{ID: block, Root: v, Parent: parent, Lazy: lazy}
		w.p.plan.Variables[v].BlockRoot = true
	}

	w.active[id] = v
	w.stack.Push(&frame{node: n, v: v, block: block, deps: w.p.g.Dependencies(id), replacement: d.Replacement})
	return v, false
}

func (w *walker) run() {
	for w.stack.Len() > 0 {
		f := w.stack.Peek()
		if f.next < len(f.deps) {
			d := f.deps[f.next]
			f.next++
			if d.Source == graph.Unresolved {
				continue
			}
			v, recursive := w.open(d, f.block)
			f.args = append(f.args, Argument{
				Injection: d.Injection,
				Var:       v,
				Override:  d.Override,
				Recursive: recursive,
			})
			continue
		}

		w.stack.Pop()
		w.finish(f)
	}
}

// finish records the instantiation of a frame whose dependencies are done.
func (w *walker) finish(f *frame) {
	inst := Instantiation{Var: f.v, Node: f.node, Override: f.replacement}
	if impl, ok := f.node.Kind.(*graph.ImplementationNode); ok {
		inst.Constructor = impl.Constructor
		rest := f.args
		n := min(len(impl.Parameters), len(rest))
		inst.Args, rest = rest[:n], rest[n:]
		for _, m := range impl.Members {
			n := min(len(m.Parameters), len(rest))
			inst.Members = append(inst.Members, MemberInjection{Member: m.Member, Args: rest[:n]})
			rest = rest[n:]
		}
	} else {
		inst.Args = f.args
	}

	block := w.blocks[f.block]
	block.Instantiations = append(block.Instantiations, inst)
	w.instantiated[f.v] = struct{}{}
	w.order = append(w.order, f.v)
	delete(w.active, f.node.ID)

	if block.Root == f.v {
		w.completed = append(w.completed, *block)
	}
}

// accumulations collects, for every accumulator instantiated in the walk,
// the variables of the accumulated type created in the same walk.
func (w *walker) accumulations() []Accumulation {
	var out []Accumulation
	for _, v := range w.order {
		n := w.p.g.Node(w.p.plan.Variables[v].Node)
		c, ok := n.Kind.(*graph.ConstructNode)
		if !ok || c.Construct.Kind != model.ConstructAccumulator {
			continue
		}
		acc := Accumulation{Accumulator: v}
		for _, item := range w.order {
			in := w.p.g.Node(w.p.plan.Variables[item].Node)
			if item == v || in.Binding == nil || !acc.accepts(c.Construct, in) {
				continue
			}
			acc.Items = append(acc.Items, item)
		}
		out = append(out, acc)
	}
	return out
}

func (a Accumulation) accepts(c *model.Construct, n *graph.Node) bool {
	if c.Accumulator != nil && !c.Accumulator.Accepts(n.Binding.Lifetime) {
		return false
	}
	if n.Type().Equal(c.ElementType) {
		return true
	}
	for _, contract := range n.Binding.Contracts {
		if contract.Type.Equal(c.ElementType) {
			return true
		}
	}
	return false
}
