package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

func TestFindCycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(g *Graph) [][]NodeID
	}{
		{
			name: "acyclic",
			build: func(g *Graph) [][]NodeID {
				root := testRoot(g, "A", "A")
				a := testImpl(g, "A", model.Transient, "B")
				b := testImpl(g, "B", model.Transient)
				testLink(g, root, a)
				testLink(g, a, b)
				return nil
			},
		},
		{
			name: "direct cycle reported once from two roots",
			build: func(g *Graph) [][]NodeID {
				ra := testRoot(g, "A", "A")
				rb := testRoot(g, "B", "B")
				a := testImpl(g, "A", model.Transient, "B")
				b := testImpl(g, "B", model.Transient, "A")
				testLink(g, ra, a)
				testLink(g, rb, b)
				testLink(g, a, b)
				testLink(g, b, a)
				return [][]NodeID{{a, b, a}}
			},
		},
		{
			name: "lazy injection of a shared consumer breaks the cycle",
			build: func(g *Graph) [][]NodeID {
				root := testRoot(g, "A", "A")
				a := testImpl(g, "A", model.Transient, "F")
				f := testImpl(g, "F", model.PerBlock, "A")
				testLink(g, root, a)
				testLink(g, a, f)
				testLink(g, f, a)
				testLazy(g, f, 0)
				return nil
			},
		},
		{
			name: "lazy injection of a transient consumer does not break the cycle",
			build: func(g *Graph) [][]NodeID {
				root := testRoot(g, "A", "A")
				a := testImpl(g, "A", model.Transient, "F")
				f := testImpl(g, "F", model.Transient, "A")
				testLink(g, root, a)
				testLink(g, a, f)
				testLink(g, f, a)
				testLazy(g, f, 0)
				return [][]NodeID{{a, f, a}}
			},
		},
		{
			name: "self dependency",
			build: func(g *Graph) [][]NodeID {
				root := testRoot(g, "A", "A")
				a := testImpl(g, "A", model.Transient, "A")
				testLink(g, root, a)
				testLink(g, a, a)
				return [][]NodeID{{a, a}}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := NewGraph()
			want := tt.build(g)

			var got [][]NodeID
			for _, c := range FindCycles(g) {
				got = append(got, c.Path)
			}
			assert.Equal(t, want, got)
		})
	}
}

// Crossing a lazy edge clears the whole visited path, not only the part
// before the boundary. A cycle A -> D -> A declared after a lazy sibling of
// A is then only found once A is re-entered from below the boundary, and
// the reported path starts at that re-entry.
func TestFindCycles_ClearAllAfterLazyBoundary(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	root := testRoot(g, "A", "A")
	a := testImpl(g, "A", model.Transient, "S", "D")
	s := testImpl(g, "S", model.Singleton, "T")
	tn := testImpl(g, "T", model.Transient, "A")
	d := testImpl(g, "D", model.Transient, "A")
	testLink(g, root, a)
	testLink(g, a, s, d)
	testLink(g, s, tn)
	testLazy(g, s, 0)
	testLink(g, tn, a)
	testLink(g, d, a)

	cycles := FindCycles(g)
	require.Len(t, cycles, 1)
	assert.Equal(t, []NodeID{a, d, a}, cycles[0].Path)
}

func TestValidateCycles(t *testing.T) {
	t.Parallel()

	g := NewGraph()
	root := testRoot(g, "A", "A")
	a := testImpl(g, "A", model.Transient, "B")
	b := testImpl(g, "B", model.Transient, "A")
	testLink(g, root, a)
	testLink(g, a, b)
	testLink(g, b, a)

	var ds diag.Diagnostics
	cycles := ValidateCycles(g, &ds)
	require.Len(t, cycles, 1)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.CodeCycle, ds[0].Code)
	assert.Equal(t, "circular dependency detected: A -> B -> A", ds[0].Message)

	var cycleErr *CycleError
	require.ErrorAs(t, cycles[0].Err(g), &cycleErr)
	assert.Len(t, cycleErr.Cycle, 3)
}
