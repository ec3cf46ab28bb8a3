package guard

import (
	"fmt"
	"strings"
)

// The readable printer renders dotted lock syntax for diagnostics. Distinct
// trees can render identically here (a local variable and a type literal can
// share a name); use Debug where output must disambiguate.

func (ThisLiteral) String() string { return "this" }

func (e QualifiedThis) String() string {
	return fmt.Sprintf("%s.this", e.sym.Name())
}

func (e ClassLiteral) String() string { return e.sym.Name() }

func (e TypeLiteral) String() string { return e.sym.Name() }

func (e LocalVariable) String() string { return e.sym.Name() }

func (e Select) String() string {
	return fmt.Sprintf("%s.%s", e.base, e.sym.Name())
}

// Debug renders an unambiguous s-expression form of the given expression
// that includes the kind tag of every node. Structurally distinct trees
// always render distinctly.
func Debug(e Expression) string {
	var sb strings.Builder
	debug(&sb, e)
	return sb.String()
}

func debug(sb *strings.Builder, e Expression) {
	switch e := e.(type) {
	case ThisLiteral:
		sb.WriteString("(THIS)")
	case Select:
		fmt.Fprintf(sb, "(%s ", e.Kind())
		debug(sb, e.base)
		fmt.Fprintf(sb, " %s)", e.sym.Name())
	default:
		fmt.Fprintf(sb, "(%s %s)", e.Kind(), e.Sym().Name())
	}
}
