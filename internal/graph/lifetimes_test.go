package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

func TestValidateLifetimes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		static   bool
		lifetime model.Lifetime
		lazy     bool
		want     []string
	}{
		{
			name:     "singleton capturing scoped",
			lifetime: model.Singleton,
			want:     []string{"singleton cannot depend on scoped Session: root Cache -> Cache -> Session"},
		},
		{
			name:     "lazy injection resets the effective lifetime",
			lifetime: model.Singleton,
			lazy:     true,
		},
		{
			name:     "per-resolve consumer is fine",
			lifetime: model.PerResolve,
		},
		{
			name:     "static root reaching scoped",
			static:   true,
			lifetime: model.Transient,
			want:     []string{"static root Cache cannot depend on scoped Session: root Cache -> Cache -> Session"},
		},
		{
			name:     "static root is checked behind lazy injections",
			static:   true,
			lifetime: model.Transient,
			lazy:     true,
			want:     []string{"static root Cache cannot depend on scoped Session: root Cache -> Cache -> Session"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGraph()
			root := g.Add(&Node{
				Lifetime: model.Transient,
				Kind: &RootNode{Root: model.Root{
					Name:   "Cache",
					Type:   model.MustParseType("Cache"),
					Static: tt.static,
				}},
			})
			cache := testImpl(g, "Cache", tt.lifetime, "Session")
			session := testImpl(g, "Session", model.Scoped)
			testLink(g, root, cache)
			testLink(g, cache, session)
			if tt.lazy {
				testLazy(g, cache, 0)
			}

			var ds diag.Diagnostics
			ValidateLifetimes(g, diag.SeverityWarning, &ds)

			var got []string
			for _, d := range ds {
				assert.Equal(t, diag.CodeLifetime, d.Code)
				assert.Equal(t, diag.SeverityWarning, d.Severity)
				got = append(got, d.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateLifetimes_Monotone(t *testing.T) {
	t.Parallel()

	// Singleton -> Transient -> Scoped still captures the scope.
	g := NewGraph()
	root := testRoot(g, "Cache", "Cache")
	cache := testImpl(g, "Cache", model.Singleton, "Helper")
	helper := testImpl(g, "Helper", model.Transient, "Session")
	session := testImpl(g, "Session", model.Scoped)
	testLink(g, root, cache)
	testLink(g, cache, helper)
	testLink(g, helper, session)

	var ds diag.Diagnostics
	ValidateLifetimes(g, diag.SeverityError, &ds)
	require.Len(t, ds, 1)
	assert.True(t, ds.HasErrors())
}

func TestOptimizeLifetimes(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	root := testRoot(g, "Service", "Service")
	svc := testImpl(g, "Service", model.Transient, "Once", "Twice", "Twice", "Lazy")
	once := testImpl(g, "Once", model.PerResolve)
	twice := testImpl(g, "Twice", model.PerResolve)
	lazy := testImpl(g, "Lazy", model.PerBlock)
	testLink(g, root, svc)
	testLink(g, svc, once, twice, twice, lazy)
	testLazy(g, svc, 3)

	out := OptimizeLifetimes(g)

	assert.Equal(t, model.Transient, out.Node(once).Lifetime)
	assert.Equal(t, model.PerResolve, out.Node(twice).Lifetime)
	assert.Equal(t, model.PerBlock, out.Node(lazy).Lifetime)
	assert.Equal(t, model.PerResolve, g.Node(once).Lifetime, "the input graph is not modified")
}
