package model

import "strings"

// TagKind distinguishes ordinary tags from the special ones.
type TagKind int

const (
	TagDefault TagKind = iota
	TagValue
	TagAny
	TagUnique
)

// Tag is an opaque, equality-comparable qualifier of a contract.
// The zero Tag is the default (untagged) tag.
type Tag struct {
	Kind  TagKind
	Value string
}

var (
	DefaultTag = Tag{}
	AnyTag     = Tag{Kind: TagAny}
	UniqueTag  = Tag{Kind: TagUnique}
)

func TagOf(value string) Tag {
	return Tag{Kind: TagValue, Value: value}
}

func (t Tag) IsDefault() bool {
	return t.Kind == TagDefault
}

func (t Tag) String() string {
	switch t.Kind {
	case TagDefault:
		return ""
	case TagAny:
		return "@any"
	case TagUnique:
		return "@unique"
	}
	return t.Value
}

// ParseTag reads the text form produced by String.
func ParseTag(s string) Tag {
	switch strings.TrimSpace(s) {
	case "":
		return DefaultTag
	case "@any":
		return AnyTag
	case "@unique":
		return UniqueTag
	}
	return TagOf(s)
}
