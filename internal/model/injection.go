package model

import "fmt"

// InjectionKind names the site a dependency is requested from.
type InjectionKind int

const (
	InjectConstructorParam InjectionKind = iota
	InjectField
	InjectProperty
	InjectMethodParam
	InjectFactory
	InjectOverride
	InjectRoot
	InjectElement
)

func (k InjectionKind) String() string {
	switch k {
	case InjectConstructorParam:
		return "constructor parameter"
	case InjectField:
		return "field"
	case InjectProperty:
		return "property"
	case InjectMethodParam:
		return "method parameter"
	case InjectFactory:
		return "factory injection"
	case InjectOverride:
		return "override"
	case InjectRoot:
		return "root"
	case InjectElement:
		return "element"
	}
	return fmt.Sprintf("injection(%d)", int(k))
}

// Injection is one request for a dependency.
type Injection struct {
	Type TypeRef
	Tag  Tag
	Kind InjectionKind
	// Name is the parameter, field or member name at the request site.
	Name string
	// Member is the owning method or property for member injections.
	Member   string
	Ordinal  int
	Optional bool
	// Default is the default value text of an optional parameter.
	Default   string
	Lazy      bool
	Locations []Location
}

// Key identifies the requested contract.
func (i Injection) Key() string {
	return ContractKey(i.Type, i.Tag)
}

func (i Injection) String() string {
	if i.Tag.IsDefault() {
		return i.Type.String()
	}
	return fmt.Sprintf("%s(%s)", i.Type, i.Tag)
}

// ContractKey is the exact-match key of a (type, tag) pair.
func ContractKey(t TypeRef, tag Tag) string {
	switch tag.Kind {
	case TagDefault:
		return t.String()
	case TagAny:
		return t.String() + "#@any"
	case TagUnique:
		return t.String() + "#@unique" + tag.Value
	}
	return t.String() + "#" + tag.Value
}
