package guard

import (
	"github.com/lockcheck/lockcheck/utils"
)

// Symbol is an externally resolved identifier (a named type, package, field,
// method, or variable) with stable identity, supplied by a resolver outside
// this package. Symbols are opaque comparable keys: equality and hashing are
// defined by the provider and never inspected here.
type Symbol interface {
	utils.Hashable
	Equal(Symbol) bool
	Name() string
	// Type returns the declared type of the symbol, as an opaque key.
	Type() Type
}

// Type is an opaque type key with externally defined equality.
type Type interface {
	utils.Hashable
	Equal(Type) bool
	String() string
}

// Member is a symbol that may appear on the right of a member selection.
type Member interface {
	Symbol
	// Owner returns the symbol of the scope declaring the member: a named
	// type for instance members, a package for package-level declarations.
	Owner() Symbol
	// Static reports whether the member is reached through its declaring
	// scope regardless of receiver syntax.
	Static() bool
}

// VarMember is the symbol of a field, parameter, local variable, or
// package-level variable.
type VarMember interface {
	Member
	// VarType returns the variable's declared type.
	VarType() Type
}

// FuncMember is the symbol of a method or function member.
type FuncMember interface {
	Member
	// ReturnType returns the result type of the method when it is used as a
	// guard, which is its return type rather than its signature type.
	ReturnType() Type
}
