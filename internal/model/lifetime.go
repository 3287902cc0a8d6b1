package model

import (
	"fmt"
	"strings"
)

// Lifetime governs how widely an instance is shared. The numeric order is the
// total order used by lifetime validation.
type Lifetime int

const (
	Transient Lifetime = iota
	PerBlock
	PerResolve
	Scoped
	Singleton
)

var lifetimeNames = [...]string{
	Transient:  "transient",
	PerBlock:   "per-block",
	PerResolve: "per-resolve",
	Scoped:     "scoped",
	Singleton:  "singleton",
}

func (l Lifetime) String() string {
	if l < 0 || int(l) >= len(lifetimeNames) {
		return fmt.Sprintf("lifetime(%d)", int(l))
	}
	return lifetimeNames[l]
}

// ParseLifetime accepts the names produced by String, case-insensitively.
// Underscores and missing dashes are tolerated ("PerBlock", "per_block").
func ParseLifetime(s string) (Lifetime, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
	for l, name := range lifetimeNames {
		if strings.ReplaceAll(name, "-", "") == norm {
			return Lifetime(l), nil
		}
	}
	return Transient, fmt.Errorf("unknown lifetime %q", s)
}

func (l Lifetime) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Lifetime) UnmarshalText(text []byte) error {
	parsed, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Max returns the broader of two lifetimes.
func (l Lifetime) Max(o Lifetime) Lifetime {
	if o > l {
		return o
	}
	return l
}

// IsShared reports whether instances of this lifetime are reused.
func (l Lifetime) IsShared() bool {
	return l != Transient
}
