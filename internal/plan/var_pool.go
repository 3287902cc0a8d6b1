package plan

import (
	"fmt"

	"github.com/mazrean/bindgraph/internal/model"
	"github.com/mazrean/bindgraph/internal/pkg/strings"
)

// VarPool hands out unique variable names derived from types.
type VarPool struct {
	vars map[string]int
}

func NewVarPool() *VarPool {
	return &VarPool{
		vars: make(map[string]int),
	}
}

// Get returns a name derived from t, suffixed with a counter when the base
// name was handed out before.
func (p *VarPool) Get(t model.TypeRef) string {
	name := baseName(t)

	count := p.vars[name]
	p.vars[name] = count + 1

	if count == 0 {
		return name
	}

	return fmt.Sprintf("%s%d", name, count-1)
}

// reservedKeywords cannot be used as variable names in the rendered plan.
var reservedKeywords = map[string]bool{
	"abstract": true, "base": true, "bool": true, "break": true, "case": true,
	"class": true, "const": true, "default": true, "event": true, "func": true,
	"interface": true, "lock": true, "new": true, "object": true, "operator": true,
	"out": true, "override": true, "params": true, "ref": true, "return": true,
	"static": true, "string": true, "this": true, "var": true, "void": true,
}

// baseName extracts a variable base name from a type.
func baseName(t model.TypeRef) string {
	var name string
	switch t.Kind {
	case model.KindArray:
		return baseName(t.Elem()) + "Array"
	case model.KindParam:
		name = strings.ToLowerCamel(t.Name)
	default:
		switch t.Name {
		case "":
			return "val"
		case "int", "long", "short", "byte", "double", "float", "decimal":
			return "num"
		case "string":
			return "str"
		case "bool":
			return "flag"
		}
		name = strings.ToLowerCamel(strings.TrimInterfacePrefix(t.Name))
		if len(t.Args) > 0 {
			name = baseName(t.Args[0]) + strings.ToUpperFirst(name)
		}
	}

	if reservedKeywords[name] {
		return name + "Value"
	}

	return name
}
