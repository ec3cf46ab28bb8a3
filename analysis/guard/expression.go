package guard

import (
	"github.com/lockcheck/lockcheck/utils"
)

// Kind discriminates the shapes a guard expression can take.
type Kind int

const (
	THIS Kind = iota
	CLASS_LITERAL
	TYPE_LITERAL
	LOCAL_VARIABLE
	SELECT
	QUALIFIED_THIS
)

func (k Kind) String() string {
	switch k {
	case THIS:
		return "THIS"
	case CLASS_LITERAL:
		return "CLASS_LITERAL"
	case TYPE_LITERAL:
		return "TYPE_LITERAL"
	case LOCAL_VARIABLE:
		return "LOCAL_VARIABLE"
	case SELECT:
		return "SELECT"
	case QUALIFIED_THIS:
		return "QUALIFIED_THIS"
	}
	return "UNKNOWN"
}

// Expression is the symbolic lock expression of a guard annotation: the
// object whose lock must be held to access a protected member. Expressions
// are immutable trees built through the factory, and are compared
// structurally to decide whether two independently constructed expressions
// denote the same lock.
type Expression interface {
	utils.Hashable
	Kind() Kind
	// Sym returns the bound symbol of the expression. It is nil only for
	// ThisLiteral.
	Sym() Symbol
	// Type returns the type key of the expression. It is nil only for
	// ThisLiteral.
	Type() Type
	Equal(Expression) bool
	String() string
}

// ExpressionHasher is needed for immutable maps keyed by guard expressions.
type ExpressionHasher struct{}

func (ExpressionHasher) Hash(e Expression) uint32 {
	return e.Hash()
}

func (ExpressionHasher) Equal(a, b Expression) bool {
	return a.Equal(b)
}

// baseNode carries the symbol and type shared by every simple variant.
type baseNode struct {
	sym Symbol
	typ Type
}

func (b baseNode) Sym() Symbol { return b.sym }
func (b baseNode) Type() Type  { return b.typ }

func (b baseNode) equal(o baseNode) bool {
	return b.sym.Equal(o.sym) && b.typ.Equal(o.typ)
}

func (b baseNode) hash(k Kind) uint32 {
	return utils.HashCombine(uint32(k), b.sym.Hash(), b.typ.Hash())
}

// ThisLiteral is a bare receiver reference. It carries neither symbol nor
// type; there is exactly one such value.
type ThisLiteral struct{}

func (ThisLiteral) Kind() Kind   { return THIS }
func (ThisLiteral) Sym() Symbol  { return nil }
func (ThisLiteral) Type() Type   { return nil }
func (ThisLiteral) Hash() uint32 { return utils.HashCombine(uint32(THIS)) }

func (ThisLiteral) Equal(o Expression) bool {
	_, ok := o.(ThisLiteral)
	return ok
}

// QualifiedThis is a receiver reference qualified by an owning type:
// Owner.this.
type QualifiedThis struct{ baseNode }

func (QualifiedThis) Kind() Kind     { return QUALIFIED_THIS }
func (e QualifiedThis) Hash() uint32 { return e.baseNode.hash(QUALIFIED_THIS) }

func (e QualifiedThis) Equal(o Expression) bool {
	oe, ok := o.(QualifiedThis)
	return ok && e.baseNode.equal(oe.baseNode)
}

// ClassLiteral denotes a named type used as a lock in its own right.
type ClassLiteral struct{ baseNode }

func (ClassLiteral) Kind() Kind     { return CLASS_LITERAL }
func (e ClassLiteral) Hash() uint32 { return e.baseNode.hash(CLASS_LITERAL) }

func (e ClassLiteral) Equal(o Expression) bool {
	oe, ok := o.(ClassLiteral)
	return ok && e.baseNode.equal(oe.baseNode)
}

// TypeLiteral is the canonical base of a normalized static member access.
// It is never equal to a ClassLiteral of the same symbol.
type TypeLiteral struct{ baseNode }

func (TypeLiteral) Kind() Kind     { return TYPE_LITERAL }
func (e TypeLiteral) Hash() uint32 { return e.baseNode.hash(TYPE_LITERAL) }

func (e TypeLiteral) Equal(o Expression) bool {
	oe, ok := o.(TypeLiteral)
	return ok && e.baseNode.equal(oe.baseNode)
}

// LocalVariable is a local variable or parameter reference.
type LocalVariable struct{ baseNode }

func (LocalVariable) Kind() Kind     { return LOCAL_VARIABLE }
func (e LocalVariable) Hash() uint32 { return e.baseNode.hash(LOCAL_VARIABLE) }

func (e LocalVariable) Equal(o Expression) bool {
	oe, ok := o.(LocalVariable)
	return ok && e.baseNode.equal(oe.baseNode)
}

// Select is the member access expression for a field or method, base.member.
// Its type is the member's declared type for fields and the return type for
// methods, supplied by the factory at construction.
type Select struct {
	base Expression
	sym  Member
	typ  Type
}

func (Select) Kind() Kind { return SELECT }

// Base returns the receiver expression of the selection.
func (e Select) Base() Expression { return e.base }

func (e Select) Sym() Symbol { return e.sym }

// Member returns the selected member symbol.
func (e Select) Member() Member { return e.sym }

func (e Select) Type() Type { return e.typ }

func (e Select) Hash() uint32 {
	return utils.HashCombine(uint32(SELECT), e.base.Hash(), e.sym.Hash(), e.typ.Hash())
}

func (e Select) Equal(o Expression) bool {
	oe, ok := o.(Select)
	return ok && e.base.Equal(oe.base) && e.sym.Equal(oe.sym) && e.typ.Equal(oe.typ)
}
