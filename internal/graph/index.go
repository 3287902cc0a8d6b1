package graph

import (
	"strconv"

	"github.com/mazrean/bindgraph/internal/model"
)

// contractIndex maps requested (type, tag) pairs to candidate nodes.
type contractIndex struct {
	exact    map[string]*Node
	anyTag   map[string]*Node
	fallback map[string]*Node
	// unbound holds generic bindings keyed by their erased contract type.
	unbound map[string][]*model.Binding
}

func newContractIndex() *contractIndex {
	return &contractIndex{
		exact:    make(map[string]*Node),
		anyTag:   make(map[string]*Node),
		fallback: make(map[string]*Node),
		unbound:  make(map[string][]*model.Binding),
	}
}

// contractKeys returns the exact-match keys a contract registers under.
// Tags of kind Any are reported separately.
func contractKeys(b *model.Binding, c model.Contract) (keys []string, anyTag bool) {
	tags := b.ContractTags(c)
	if len(tags) == 0 {
		return []string{model.ContractKey(c.Type, model.DefaultTag)}, false
	}
	for _, tag := range tags {
		switch tag.Kind {
		case model.TagAny:
			anyTag = true
		case model.TagUnique:
			keys = append(keys, model.ContractKey(c.Type, uniqueTag(b)))
		default:
			keys = append(keys, model.ContractKey(c.Type, tag))
		}
	}
	return keys, anyTag
}

// uniqueTag is the tag identifying one binding's unique contract.
func uniqueTag(b *model.Binding) model.Tag {
	return model.Tag{Kind: model.TagUnique, Value: strconv.Itoa(b.Id)}
}

// add registers a node. Later registrations of the same key win.
func (idx *contractIndex) add(n *Node) {
	b := n.Binding
	generic := b.IsGeneric()
	for _, c := range b.Contracts {
		if c.Type.IsOpen() {
			key := c.Type.Erase()
			idx.unbound[key] = append(idx.unbound[key], b)
			continue
		}
		if generic {
			continue
		}
		keys, anyTag := contractKeys(b, c)
		for _, key := range keys {
			idx.exact[key] = n
		}
		if anyTag {
			idx.anyTag[c.Type.String()] = n
		}
	}
}

// addFallback registers a node consulted only when nothing else matches.
func (idx *contractIndex) addFallback(n *Node) {
	for _, c := range n.Binding.Contracts {
		keys, anyTag := contractKeys(n.Binding, c)
		for _, key := range keys {
			if _, ok := idx.fallback[key]; !ok {
				idx.fallback[key] = n
			}
		}
		if anyTag {
			key := c.Type.String() + "#@any"
			if _, ok := idx.fallback[key]; !ok {
				idx.fallback[key] = n
			}
		}
	}
}

// lookup finds the node satisfying a request: an exact (type, tag) hit, then
// a contract tagged Any, then a fallback.
func (idx *contractIndex) lookup(t model.TypeRef, tag model.Tag) (*Node, bool) {
	if n, ok := idx.exact[model.ContractKey(t, tag)]; ok {
		return n, true
	}
	if tag.Kind != model.TagUnique {
		if n, ok := idx.anyTag[t.String()]; ok {
			return n, true
		}
	}
	if n, ok := idx.fallback[model.ContractKey(t, tag)]; ok {
		return n, true
	}
	if n, ok := idx.fallback[t.String()+"#@any"]; ok {
		return n, true
	}
	return nil, false
}

// generic returns the unbound generic bindings whose contract erases to the
// requested type, most recent declaration first.
func (idx *contractIndex) generic(t model.TypeRef) []*model.Binding {
	candidates := idx.unbound[t.Erase()]
	out := make([]*model.Binding, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		out = append(out, candidates[i])
	}
	return out
}

// tagMatches reports whether a contract with the given effective tags
// satisfies a request with tag.
func tagMatches(tags []model.Tag, tag model.Tag) bool {
	if len(tags) == 0 {
		return tag.IsDefault()
	}
	for _, t := range tags {
		if t == tag || t.Kind == model.TagAny {
			return true
		}
	}
	return false
}
