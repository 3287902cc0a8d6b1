package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/bindgraph/internal/model"
)

// overrideGraph builds root Service -> factory(override IConfig; Handler)
// -> Handler -> IConfig, next to root Handler -> Handler -> IConfig.
func overrideGraph(t *testing.T, handlerLifetime model.Lifetime) (*Graph, []*Node, NodeID) {
	t.Helper()

	override := model.Override{Type: model.MustParseType("IConfig"), Ordinal: 0, Expression: "testConfig"}
	placeholder := &Node{
		ID:       Unresolved,
		Binding:  overrideBinding(override),
		Lifetime: model.Transient,
	}
	placeholder.Binding.Id = 100
	placeholder.Kind = &ConstructNode{Construct: placeholder.Binding.Construct}

	g := NewGraph()
	rootService := testRoot(g, "Service", "IService")
	rootHandler := testRoot(g, "Handler", "Handler")
	factory := g.Add(&Node{
		Binding:  &model.Binding{Id: 1, Lifetime: model.Transient},
		Lifetime: model.Transient,
		Kind: &FactoryNode{Factory: &model.Factory{
			Type:       model.MustParseType("IService"),
			Injections: []model.Injection{{Type: model.MustParseType("Handler"), Kind: model.InjectFactory, Ordinal: 1}},
			Overrides:  []model.Override{override},
		}},
	})
	handler := testImpl(g, "Handler", handlerLifetime, "IConfig")
	config := testImpl(g, "IConfig", model.Transient)
	testLink(g, rootService, factory)
	testLink(g, rootHandler, handler)
	testLink(g, factory, handler)
	testLink(g, handler, config)

	return g, []*Node{placeholder}, handler
}

func TestRewriteOverrides(t *testing.T) {
	t.Parallel()

	g, placeholders, handler := overrideGraph(t, model.Transient)
	out := RewriteOverrides(g, placeholders)

	require.True(t, out.IsResolved())

	factory := out.Dependencies(out.Roots()[0])[0].Source
	inner := out.Dependencies(factory)[0].Source
	assert.NotEqual(t, handler, inner, "the handler inside the factory is copied")
	assert.NotZero(t, out.Node(inner).Scope)

	innerConfig := out.Dependencies(inner)[0]
	assert.True(t, innerConfig.Override)
	assert.True(t, isPlaceholder(out.Node(innerConfig.Source)))

	outerConfig := out.Dependencies(handler)[0]
	assert.False(t, outerConfig.Override)
	assert.False(t, isPlaceholder(out.Node(outerConfig.Source)))

	assert.False(t, isPlaceholder(g.Node(g.Dependencies(handler)[0].Source)), "the input graph is not modified")
}

func TestRewriteOverrides_SharedNodeNotCopied(t *testing.T) {
	t.Parallel()

	g, placeholders, handler := overrideGraph(t, model.Singleton)
	out := RewriteOverrides(g, placeholders)

	factory := out.Dependencies(out.Roots()[0])[0].Source
	assert.Equal(t, handler, out.Dependencies(factory)[0].Source)
	assert.False(t, out.Dependencies(handler)[0].Override)
}

func TestRewriteOverrides_PlaceholderOutsideScope(t *testing.T) {
	t.Parallel()

	override := model.Override{Type: model.MustParseType("IConfig")}
	placeholder := &Node{
		Binding:  overrideBinding(override),
		Lifetime: model.Transient,
	}
	placeholder.Kind = &ConstructNode{Construct: placeholder.Binding.Construct}

	g := NewGraph()
	root := testRoot(g, "Config", "IConfig")
	p := g.Add(placeholder)
	testLink(g, root, p)

	out := RewriteOverrides(g, []*Node{placeholder})
	assert.Len(t, out.Unresolved(), 1)
}
