package graph

import (
	"fmt"

	"github.com/mazrean/bindgraph/internal/diag"
	"github.com/mazrean/bindgraph/internal/model"
)

// ValidateMetadata reports malformed bindings and roots. It returns false
// when a fatal defect was found. Bindings shadowed by a later binding of the
// same contract only produce warnings.
func ValidateMetadata(setup *model.Setup, ds *diag.Diagnostics) bool {
	ok := true
	fail := func(loc model.Location, format string, args ...any) {
		ok = false
		ds.Errorf(diag.CodeInvalidMetadata, []model.Location{loc}, format, args...)
	}

	ids := make(map[int]*model.Binding, len(setup.Bindings))
	owners := make(map[string]*model.Binding)
	for _, b := range setup.Bindings {
		if prev, dup := ids[b.Id]; dup {
			fail(b.Location, "binding id %d is used by more than one binding (first at %s)", b.Id, prev.Location)
		}
		ids[b.Id] = b

		switch b.StrategyCount() {
		case 0:
			fail(b.Location, "binding %d has no implementation strategy", b.Id)
		case 1:
		default:
			fail(b.Location, "binding %d declares more than one implementation strategy", b.Id)
		}

		if len(b.Contracts) == 0 {
			fail(b.Location, "binding %d has no contract", b.Id)
		}

		if b.Implementation != nil {
			impl := b.Implementation.Type
			if _, _, known := setup.Types.Lookup(impl); known {
				for _, c := range b.Contracts {
					if !setup.Types.Implements(impl, c.Type) {
						fail(b.Location, "%s does not implement %s", impl, c.Type)
					}
				}
			}
		}

		for _, c := range b.Contracts {
			if c.Type.IsOpen() {
				continue
			}
			keys, _ := contractKeys(b, c)
			for _, key := range keys {
				if prev, shadowed := owners[key]; shadowed && prev != b {
					ds.Warnf(diag.CodeBindingOverridden, []model.Location{prev.Location, b.Location},
						"binding %d for %s is overridden by binding %d", prev.Id, describeKey(c.Type, key), b.Id)
				}
				owners[key] = b
			}
		}
	}

	names := make(map[string]struct{}, len(setup.Roots))
	for _, r := range setup.Roots {
		if r.Type.IsZero() {
			fail(r.Location, "root %q has no type", r.Name)
		}
		if r.Name == "" {
			continue
		}
		if _, dup := names[r.Name]; dup {
			fail(r.Location, "root name %q is declared more than once", r.Name)
		}
		names[r.Name] = struct{}{}
	}

	return ok
}

func describeKey(t model.TypeRef, key string) string {
	if key == t.String() {
		return key
	}
	return fmt.Sprintf("%s(%s)", t, key[len(t.String())+1:])
}
