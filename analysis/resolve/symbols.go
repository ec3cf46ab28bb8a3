package resolve

import (
	"go/types"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/utils"
)

// The symbols below adapt go/types objects to the opaque symbol keys of the
// guard model. Objects are canonical within one loaded program, so equality
// is pointer identity and hashing is pointer hashing.

// phasher is a short-hand for a pointer hasher.
var phasher = utils.PointerHasher[any]{}

// TypeSymbol is the symbol of a named type.
type TypeSymbol struct {
	Obj *types.TypeName
}

func (s TypeSymbol) Name() string     { return s.Obj.Name() }
func (s TypeSymbol) Type() guard.Type { return TypeKey{s.Obj.Type()} }
func (s TypeSymbol) Hash() uint32     { return phasher.Hash(s.Obj) }

func (s TypeSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(TypeSymbol)
	return ok && s.Obj == os.Obj
}

// PkgSymbol is the symbol of a package: the declaring scope of package-level
// variables and functions.
type PkgSymbol struct {
	Pkg *types.Package
}

func (s PkgSymbol) Name() string     { return s.Pkg.Name() }
func (s PkgSymbol) Type() guard.Type { return PkgKey{s.Pkg} }
func (s PkgSymbol) Hash() uint32     { return phasher.Hash(s.Pkg) }

func (s PkgSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(PkgSymbol)
	return ok && s.Pkg == os.Pkg
}

// FieldSymbol is the symbol of a struct field, together with the named type
// declaring it. The owner is carried explicitly because it cannot be
// recovered from the field object alone.
type FieldSymbol struct {
	Obj   *types.Var
	owner *types.TypeName
}

// Field adapts a struct field object. owner is the named type whose struct
// literal declares the field, and may be nil for fields of unnamed structs.
func Field(obj *types.Var, owner *types.TypeName) FieldSymbol {
	return FieldSymbol{Obj: obj, owner: owner}
}

func (s FieldSymbol) Name() string        { return s.Obj.Name() }
func (s FieldSymbol) Type() guard.Type    { return TypeKey{s.Obj.Type()} }
func (s FieldSymbol) VarType() guard.Type { return TypeKey{s.Obj.Type()} }
func (s FieldSymbol) Static() bool        { return false }
func (s FieldSymbol) Hash() uint32        { return phasher.Hash(s.Obj) }

func (s FieldSymbol) Owner() guard.Symbol {
	if s.owner == nil {
		return PkgSymbol{s.Obj.Pkg()}
	}
	return TypeSymbol{s.owner}
}

func (s FieldSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(FieldSymbol)
	return ok && s.Obj == os.Obj
}

// GlobalSymbol is the symbol of a package-level variable. It is a static
// member of its package: accesses normalize to the package scope regardless
// of how the annotation spells the receiver.
type GlobalSymbol struct {
	Obj *types.Var
}

func (s GlobalSymbol) Name() string        { return s.Obj.Name() }
func (s GlobalSymbol) Type() guard.Type    { return TypeKey{s.Obj.Type()} }
func (s GlobalSymbol) VarType() guard.Type { return TypeKey{s.Obj.Type()} }
func (s GlobalSymbol) Static() bool        { return true }
func (s GlobalSymbol) Owner() guard.Symbol { return PkgSymbol{s.Obj.Pkg()} }
func (s GlobalSymbol) Hash() uint32        { return phasher.Hash(s.Obj) }

func (s GlobalSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(GlobalSymbol)
	return ok && s.Obj == os.Obj
}

// LocalSymbol is the symbol of a local variable or parameter.
type LocalSymbol struct {
	Obj *types.Var
}

func (s LocalSymbol) Name() string        { return s.Obj.Name() }
func (s LocalSymbol) Type() guard.Type    { return TypeKey{s.Obj.Type()} }
func (s LocalSymbol) VarType() guard.Type { return TypeKey{s.Obj.Type()} }
func (s LocalSymbol) Static() bool        { return false }
func (s LocalSymbol) Owner() guard.Symbol { return PkgSymbol{s.Obj.Pkg()} }
func (s LocalSymbol) Hash() uint32        { return phasher.Hash(s.Obj) }

func (s LocalSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(LocalSymbol)
	return ok && s.Obj == os.Obj
}

// FuncSymbol is the symbol of a method or function used as a guard. Its type
// for guard purposes is its return type.
type FuncSymbol struct {
	Obj *types.Func
}

func (s FuncSymbol) Name() string     { return s.Obj.Name() }
func (s FuncSymbol) Type() guard.Type { return TypeKey{s.Obj.Type()} }
func (s FuncSymbol) Hash() uint32     { return phasher.Hash(s.Obj) }

// ReturnType returns the type of the method's single result. Methods with
// any other result shape are rejected before symbol construction.
func (s FuncSymbol) ReturnType() guard.Type {
	sig := s.Obj.Type().(*types.Signature)
	if sig.Results().Len() == 1 {
		return TypeKey{sig.Results().At(0).Type()}
	}
	return TypeKey{sig}
}

func (s FuncSymbol) Static() bool {
	sig := s.Obj.Type().(*types.Signature)
	return sig.Recv() == nil
}

func (s FuncSymbol) Owner() guard.Symbol {
	sig := s.Obj.Type().(*types.Signature)
	if recv := sig.Recv(); recv != nil {
		if named, ok := derefNamed(recv.Type()); ok {
			return TypeSymbol{named.Obj()}
		}
	}
	return PkgSymbol{s.Obj.Pkg()}
}

func (s FuncSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(FuncSymbol)
	return ok && s.Obj == os.Obj
}

var (
	_ guard.VarMember  = FieldSymbol{}
	_ guard.VarMember  = GlobalSymbol{}
	_ guard.VarMember  = LocalSymbol{}
	_ guard.FuncMember = FuncSymbol{}
)

// derefNamed unwraps one level of pointer indirection and reports the named
// type underneath, if any.
func derefNamed(t types.Type) (*types.Named, bool) {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	return named, ok
}
