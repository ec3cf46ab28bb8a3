package guard

import (
	"fmt"
)

// factory is the sole construction path for guard expressions. It enforces
// the invariant that accesses of static members are normalized: their base
// is always the type literal of the declaring scope, never an instance
// expression.
type factory struct{}

// Create yields a guard expression factory.
func Create() factory { return factory{} }

// InvalidMemberError reports that a selection was attempted through a symbol
// that is neither a variable nor a method. It indicates a malformed guard
// annotation and is the only failure path of this package.
type InvalidMemberError struct {
	Sym Symbol
}

func (err InvalidMemberError) Error() string {
	return fmt.Sprintf("bad select expression: %s is neither a variable nor a method", err.Sym.Name())
}

func node(sym Symbol) baseNode {
	return baseNode{sym: sym, typ: sym.Type()}
}

// This returns the bare receiver expression.
func (factory) This() ThisLiteral { return ThisLiteral{} }

// QualifiedThis builds a receiver expression qualified by its owning type.
func (factory) QualifiedThis(owner Symbol) QualifiedThis {
	return QualifiedThis{node(owner)}
}

// ClassLiteral builds the expression for a named type used as a lock.
func (factory) ClassLiteral(typ Symbol) ClassLiteral {
	return ClassLiteral{node(typ)}
}

// TypeLiteral builds the canonical base expression for static member
// accesses on the given declaring scope.
func (factory) TypeLiteral(owner Symbol) TypeLiteral {
	return TypeLiteral{node(owner)}
}

// LocalVariable builds the expression for a local variable or parameter.
func (factory) LocalVariable(v VarMember) LocalVariable {
	return LocalVariable{baseNode{sym: v, typ: v.VarType()}}
}

// Select builds the member access expression base.member. The member must be
// a variable or a method; anything else yields an InvalidMemberError. The
// expression's type is the variable's declared type, or the method's return
// type.
func (f factory) Select(base Expression, member Symbol) (Select, error) {
	switch m := member.(type) {
	case VarMember:
		return f.normalizedSelect(base, m, m.VarType()), nil
	case FuncMember:
		return f.normalizedSelect(base, m, m.ReturnType()), nil
	}
	return Select{}, InvalidMemberError{member}
}

// Reselect re-derives an existing selection against a new base, re-applying
// static normalization. It is used to re-home a guard expression declared on
// an embedded type into the scope of the embedding type.
func (f factory) Reselect(base Expression, sel Select) Select {
	return f.normalizedSelect(base, sel.sym, sel.typ)
}

// normalizedSelect replaces the base of a static member access with the type
// literal of the member's declaring scope, so that syntactically different
// receivers collapse to one canonical tree.
func (f factory) normalizedSelect(base Expression, member Member, typ Type) Select {
	if member.Static() {
		base = f.TypeLiteral(member.Owner())
	}
	return Select{base: base, sym: member, typ: typ}
}
