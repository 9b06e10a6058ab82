package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Render produces a stable human-readable form of a program graph for
// diagnostics and snapshot tests. Variables are renamed to compact
// letters in order of first appearance, so two graphs with the same
// shape render identically regardless of arena ids.
//
// The format is diagnostic output only, never a serialization surface.
func Render(p *Prog) string {
	return render(p, "")
}

type namer struct {
	names map[*Var]string
	next  int
}

func (n *namer) name(v *Var) string {
	if v == UnitVar {
		return "*"
	}
	if s, ok := n.names[v]; ok {
		return s
	}
	s := compactName(n.next)
	n.next++
	n.names[v] = s
	return s
}

func (n *namer) atom(a Atom) string {
	if v, ok := a.(*Var); ok {
		return n.name(v)
	}
	return a.String()
}

func (n *namer) vars(vs []*Var) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = n.name(v)
	}
	return strings.Join(parts, " ")
}

func (n *namer) atoms(as []Atom) string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = n.atom(a)
	}
	return strings.Join(parts, " ")
}

// compactName yields a, b, ..., z, a1, b1, ... in order.
func compactName(i int) string {
	letter := rune('a' + i%26)
	if round := i / 26; round > 0 {
		return fmt.Sprintf("%c%d", letter, round)
	}
	return string(letter)
}

func render(p *Prog, indent string) string {
	n := &namer{names: map[*Var]string{}}
	var sb strings.Builder

	sb.WriteString(indent)
	sb.WriteString("{ lambda ")
	sb.WriteString(n.vars(p.ConstVars))
	sb.WriteString(" ; ")
	sb.WriteString(n.vars(p.FreeVars))
	sb.WriteString(" ; ")
	sb.WriteString(n.vars(p.InVars))
	sb.WriteString(" .")

	for i := range p.Eqns {
		eqn := &p.Eqns[i]
		sb.WriteString("\n")
		sb.WriteString(indent)
		if i == 0 {
			sb.WriteString("  let ")
		} else {
			sb.WriteString("      ")
		}
		sb.WriteString(n.vars(eqn.Out))
		sb.WriteString(" = ")
		sb.WriteString(eqn.Prim.Name())
		sb.WriteString(paramsString(eqn.Params))
		if len(eqn.In) > 0 {
			sb.WriteString(" ")
			sb.WriteString(n.atoms(eqn.In))
		}
		for _, sub := range eqn.Subs {
			sb.WriteString("\n")
			sb.WriteString(render(sub.Prog, indent+"    "))
			sb.WriteString(" [ ")
			sb.WriteString(n.atoms(sub.Consts))
			sb.WriteString(" ; ")
			sb.WriteString(n.atoms(sub.Free))
			sb.WriteString(" ]")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(indent)
	sb.WriteString("  in [ ")
	sb.WriteString(n.atoms(p.OutVars))
	sb.WriteString(" ] }")
	return sb.String()
}

func paramsString(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
