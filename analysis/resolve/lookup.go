package resolve

import (
	"go/types"

	"github.com/lockcheck/lockcheck/analysis/guard"
)

// LookupMember resolves a member named name on type t: a struct field,
// possibly promoted through embedding, or a method. Methods qualify only
// when they take no parameters and return a single result, since only such
// methods can denote a lock.
func LookupMember(t types.Type, name string) (guard.Symbol, bool) {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}

	obj, index, _ := types.LookupFieldOrMethod(t, true, pkgFor(t), name)
	switch obj := obj.(type) {
	case *types.Var:
		return Field(obj, fieldOwner(t, index)), true

	case *types.Func:
		sig := obj.Type().(*types.Signature)
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return nil, false
		}
		return FuncSymbol{obj}, true
	}

	return nil, false
}

// FieldOf adapts field i of the given struct-valued type, which may be a
// pointer to a named struct type.
func FieldOf(t types.Type, i int) (FieldSymbol, bool) {
	st, ok := derefStruct(t)
	if !ok || i >= st.NumFields() {
		return FieldSymbol{}, false
	}

	var owner *types.TypeName
	if named, ok := derefNamed(t); ok {
		owner = named.Obj()
	}
	return Field(st.Field(i), owner), true
}

// fieldOwner walks the embedding path of a (possibly promoted) field and
// returns the named type declaring the final field, if any.
func fieldOwner(t types.Type, index []int) *types.TypeName {
	for _, i := range index[:len(index)-1] {
		st, ok := derefStruct(t)
		if !ok {
			return nil
		}
		t = st.Field(i).Type()
	}

	if named, ok := derefNamed(t); ok {
		return named.Obj()
	}
	return nil
}

func derefStruct(t types.Type) (*types.Struct, bool) {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		t = ptr.Elem()
	}
	st, ok := t.Underlying().(*types.Struct)
	return st, ok
}

func pkgFor(t types.Type) *types.Package {
	if named, ok := derefNamed(t); ok && named.Obj().Pkg() != nil {
		return named.Obj().Pkg()
	}
	return nil
}
