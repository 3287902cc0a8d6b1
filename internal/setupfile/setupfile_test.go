package setupfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mazrean/bindgraph/internal/model"
)

const serviceYAML = `name: Composition
types:
  IService:
    abstract: true
  Service:
    implements: [IService]
    constructors:
      - params:
          - {name: dep, type: IDependency}
          - {name: clock, type: IClock, optional: true, default: "null"}
    members:
      - {kind: property, name: Logger, type: ILogger, tag: console}
      - kind: method
        name: Init
        ordinal: 0
        params: [IConfig]
  Dependency:
    implements: [IDependency]
bindings:
  - contracts: [IService]
    implementation: Service
  - contracts:
      - {type: IDependency, tags: [red, "@any"]}
    lifetime: singleton
    implementation: Dependency
  - id: 10
    params: [T]
    contracts: ["IRepo<T>"]
    lifetime: per-resolve
    factory:
      type: "IRepo<T>"
      expression: "new Repo<T>(ctx)"
      body:
        - override: {type: IConfig, expression: "config"}
        - inject: {type: IConnection, name: ctx, lazy: true}
  - arg: {type: string, name: connectionString}
roots:
  - name: Service
    type: IService
  - name: Helper
    type: IDependency
    tag: red
    public: false
    static: true
accumulators:
  - type: IDisposable
    accumulator: Disposables
    lifetimes: [transient, per-block]
`

func TestDecode(t *testing.T) {
	t.Parallel()

	setup, err := Decode("app.yaml", []byte(serviceYAML))
	require.NoError(t, err)

	assert.Equal(t, "Composition", setup.Name)

	t.Run("types", func(t *testing.T) {
		t.Parallel()

		require.Len(t, setup.Types, 3)
		svc := setup.Types["Service"]
		require.NotNil(t, svc)
		assert.Equal(t, []model.TypeRef{model.Named("IService")}, svc.Implements)
		require.Len(t, svc.Constructors, 1)
		ctor := svc.Constructors[0]
		assert.True(t, ctor.Accessible)
		require.Len(t, ctor.Parameters, 2)
		assert.Equal(t, "dep", ctor.Parameters[0].Name)
		assert.True(t, ctor.Parameters[1].Optional)
		assert.Equal(t, "null", ctor.Parameters[1].Default)
		assert.Equal(t, model.Location{File: "app.yaml", Line: 9, Column: 13}, ctor.Parameters[0].Location)

		require.Len(t, svc.Members, 2)
		assert.Equal(t, model.MemberProperty, svc.Members[0].Kind)
		assert.Equal(t, model.TagOf("console"), svc.Members[0].Parameters[0].Tag)
		assert.Equal(t, model.MemberMethod, svc.Members[1].Kind)
		require.NotNil(t, svc.Members[1].Ordinal)

		dep := setup.Types["Dependency"]
		require.Len(t, dep.Constructors, 1)
		assert.True(t, dep.Constructors[0].Generated, "types without constructors get a generated one")
		assert.Empty(t, setup.Types["IService"].Constructors)
	})

	t.Run("bindings", func(t *testing.T) {
		t.Parallel()

		require.Len(t, setup.Bindings, 4)
		ids := make([]int, len(setup.Bindings))
		for i, b := range setup.Bindings {
			ids[i] = b.Id
			assert.Equal(t, 1, b.StrategyCount())
		}
		assert.Equal(t, []int{1, 2, 10, 4}, ids)

		svc := setup.Bindings[0]
		assert.Equal(t, model.Transient, svc.Lifetime)
		assert.Equal(t, model.Location{File: "app.yaml", Line: 20, Column: 5}, svc.Location)

		dep := setup.Bindings[1]
		assert.Equal(t, model.Singleton, dep.Lifetime)
		assert.Equal(t, []model.Tag{model.TagOf("red"), model.AnyTag}, dep.Contracts[0].Tags)

		repo := setup.Bindings[2]
		assert.True(t, repo.IsGeneric())
		assert.Equal(t, model.PerResolve, repo.Lifetime)
		require.NotNil(t, repo.Factory)
		require.Len(t, repo.Factory.Overrides, 1)
		assert.Equal(t, 0, repo.Factory.Overrides[0].Ordinal)
		require.Len(t, repo.Factory.Injections, 1)
		inj := repo.Factory.Injections[0]
		assert.Equal(t, 1, inj.Ordinal)
		assert.True(t, inj.Lazy)
		assert.Equal(t, model.InjectFactory, inj.Kind)

		arg := setup.Bindings[3]
		require.NotNil(t, arg.Arg)
		assert.Equal(t, "connectionString", arg.Arg.Name)
		require.Len(t, arg.Contracts, 1, "the produced type is the implicit contract")
		assert.Equal(t, "string", arg.Contracts[0].Type.String())
		assert.False(t, arg.Contracts[0].Explicit)
	})

	t.Run("roots and accumulators", func(t *testing.T) {
		t.Parallel()

		require.Len(t, setup.Roots, 2)
		assert.True(t, setup.Roots[0].Public)
		helper := setup.Roots[1]
		assert.False(t, helper.Public)
		assert.True(t, helper.Static)
		assert.Equal(t, model.TagOf("red"), helper.Tag)

		require.Len(t, setup.Accumulators, 1)
		acc := setup.Accumulators[0]
		assert.Equal(t, "Disposables", acc.AccumulatorType.String())
		assert.Equal(t, []model.Lifetime{model.Transient, model.PerBlock}, acc.Lifetimes)
	})
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "malformed yaml",
			src:  "bindings: [",
			msg:  "decode bad.yaml",
		},
		{
			name: "bad type",
			src:  "roots:\n  - {name: A, type: \"IRepo<\"}\n",
			msg:  "bad.yaml:2:5: parse type",
		},
		{
			name: "bad lifetime",
			src:  "bindings:\n  - {implementation: A, lifetime: forever}\n",
			msg:  "bad.yaml:2:5",
		},
		{
			name: "factory step with both kinds",
			src:  "bindings:\n  - factory:\n      body:\n        - {inject: {type: A}, override: {type: B}}\n",
			msg:  "bad.yaml:4:11: factory step needs exactly one of inject or override",
		},
		{
			name: "factory step with neither kind",
			src:  "bindings:\n  - factory:\n      body:\n        - {name: x}\n",
			msg:  "bad.yaml:4:11: factory step needs exactly one of inject or override",
		},
		{
			name: "null factory step",
			src:  "bindings:\n  - factory:\n      body:\n        - ~\n",
			msg:  "bad.yaml:2:5: factory step 0 is empty",
		},
		{
			name: "unknown member kind",
			src:  "types:\n  A:\n    members:\n      - {kind: event, name: Changed}\n",
			msg:  "unknown member kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode("bad.yaml", []byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	single := filepath.Join(dir, "single.yaml")
	require.NoError(t, os.WriteFile(single, []byte("roots:\n  - {name: A, type: A}\n"), 0o644))

	archive := filepath.Join(dir, "multi.txtar")
	require.NoError(t, os.WriteFile(archive, []byte(`comment
-- first.yaml --
name: First
-- notes.txt --
ignored
-- second.yaml --
roots:
  - {name: B, type: B}
`), 0o644))

	setups, err := LoadFile(single)
	require.NoError(t, err)
	require.Len(t, setups, 1)
	assert.Equal(t, "single", setups[0].Name)

	setups, err = LoadFile(archive)
	require.NoError(t, err)
	require.Len(t, setups, 2)
	assert.Equal(t, "First", setups[0].Name)
	assert.Equal(t, "second", setups[1].Name)
	assert.Equal(t, archive+"/second.yaml", setups[1].Roots[0].Location.File)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
