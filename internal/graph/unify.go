package graph

import (
	"maps"

	"github.com/mazrean/bindgraph/internal/model"
)

// unify binds the type parameters of pattern so that it equals concrete,
// recording the bindings in subst. Named types unify structurally; when the
// names differ, the interfaces implemented by concrete are tried.
func unify(pattern, concrete model.TypeRef, types model.Types, subst map[string]model.TypeRef) bool {
	switch pattern.Kind {
	case model.KindParam:
		if bound, ok := subst[pattern.Name]; ok {
			return bound.Equal(concrete)
		}
		subst[pattern.Name] = concrete
		return true
	case model.KindArray:
		if concrete.Kind != model.KindArray {
			return false
		}
		return unify(pattern.Elem(), concrete.Elem(), types, subst)
	}

	if concrete.Kind == model.KindNamed && concrete.Name == pattern.Name && len(concrete.Args) == len(pattern.Args) {
		trial := maps.Clone(subst)
		matched := true
		for i := range pattern.Args {
			if !unify(pattern.Args[i], concrete.Args[i], types, trial) {
				matched = false
				break
			}
		}
		if matched {
			maps.Copy(subst, trial)
			return true
		}
	}

	for _, base := range types.Bases(concrete) {
		if base.Name != pattern.Name {
			continue
		}
		trial := maps.Clone(subst)
		if unify(pattern, base, types, trial) {
			maps.Copy(subst, trial)
			return true
		}
	}
	return false
}
