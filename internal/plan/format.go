package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/mazrean/bindgraph/internal/graph"
	"github.com/mazrean/bindgraph/internal/model"
)

// Format writes a readable rendering of the plan.
func Format(w io.Writer, p *Plan) error {
	names := p.names()

	var b strings.Builder
	for i, rp := range p.Roots {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "root %s %s", rp.Root.Name, rp.Root.Type)
		if !rp.Root.Tag.IsDefault() {
			fmt.Fprintf(&b, " tag %s", rp.Root.Tag)
		}
		if rp.Root.Static {
			b.WriteString(" static")
		}
		b.WriteByte('\n')

		for _, block := range rp.Blocks {
			fmt.Fprintf(&b, "  block %d", block.ID)
			if block.Lazy {
				b.WriteString(" lazy")
			}
			if block.Parent >= 0 {
				fmt.Fprintf(&b, " parent %d", block.Parent)
			}
			fmt.Fprintf(&b, " root %s\n", names[block.Root])
			for _, inst := range block.Instantiations {
				writeInstantiation(&b, p, names, inst)
			}
		}
		for _, acc := range rp.Accumulations {
			items := make([]string, 0, len(acc.Items))
			for _, item := range acc.Items {
				items = append(items, names[item])
			}
			fmt.Fprintf(&b, "  accumulate %s += [%s]\n", names[acc.Accumulator], strings.Join(items, ", "))
		}
		if rp.Value == NoVar {
			b.WriteString("  return <unresolved>\n")
		} else {
			fmt.Fprintf(&b, "  return %s\n", names[rp.Value])
		}
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// names assigns a stable name to every variable in id order.
func (p *Plan) names() map[VarID]string {
	pool := NewVarPool()
	names := make(map[VarID]string, len(p.Variables))
	for _, v := range p.Variables {
		names[v.ID] = pool.Get(v.Type)
	}
	return names
}

func writeInstantiation(b *strings.Builder, p *Plan, names map[VarID]string, inst Instantiation) {
	v := p.Variable(inst.Var)
	name := names[inst.Var]
	args := formatArgs(names, inst.Args)

	fmt.Fprintf(b, "    %s = ", name)
	switch k := inst.Node.Kind.(type) {
	case *graph.ImplementationNode:
		fmt.Fprintf(b, "new %s(%s)", k.Type, args)
	case *graph.FactoryNode:
		fmt.Fprintf(b, "factory %s(%s)", expression(k.Factory.Expression, v.Type), args)
	case *graph.ArgNode:
		fmt.Fprintf(b, "arg %s", k.Arg.Name)
	case *graph.ConstructNode:
		c := k.Construct
		switch c.Kind {
		case model.ConstructOverride:
			o := c.Override
			if inst.Override != nil {
				o = inst.Override
			}
			fmt.Fprintf(b, "override %s", expression(o.Expression, c.Type))
		case model.ConstructAccumulator:
			fmt.Fprintf(b, "accumulator %s", c.Type)
		default:
			fmt.Fprintf(b, "%s %s[%s]", c.Kind, c.ElementType, args)
		}
	default:
		fmt.Fprintf(b, "%s", inst.Node)
	}
	if v.Lifetime != model.Transient {
		fmt.Fprintf(b, " // %s", v.Lifetime)
		if v.RequiresLock {
			b.WriteString(", locked")
		}
	}
	b.WriteByte('\n')

	for _, m := range inst.Members {
		switch m.Member.Kind {
		case model.MemberMethod:
			fmt.Fprintf(b, "    %s.%s(%s)\n", name, m.Member.Name, formatArgs(names, m.Args))
		default:
			fmt.Fprintf(b, "    %s.%s = %s\n", name, m.Member.Name, formatArgs(names, m.Args))
		}
	}
}

func expression(expr string, t model.TypeRef) string {
	if expr == "" {
		return t.String()
	}
	return expr
}

func formatArgs(names map[VarID]string, args []Argument) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		s := names[a.Var]
		if a.Injection.Lazy {
			s = "lazy " + s
		}
		if a.Recursive {
			s += "^"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}
