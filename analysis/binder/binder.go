package binder

import (
	"go/token"
	"go/types"
	"strings"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/analysis/resolve"

	"github.com/pkg/errors"
)

var fact = guard.Create()

// Scope is the declaration context against which the names of a guard
// directive resolve.
type Scope struct {
	// Pkg is the package containing the directive.
	Pkg *types.Package
	// Owner is the annotated struct type, when the directive sits on a
	// struct field.
	Owner *types.Named
	// Sig is the annotated method's signature, when the directive sits on a
	// function declaration. Its receiver and parameters are in scope.
	Sig *types.Signature
}

// ForType is the scope of a directive on a field of the given struct type.
func ForType(pkg *types.Package, owner *types.Named) Scope {
	return Scope{Pkg: pkg, Owner: owner}
}

// ForFunc is the scope of a directive on a function or method declaration.
func ForFunc(fn *types.Func) Scope {
	sc := Scope{Pkg: fn.Pkg(), Sig: fn.Type().(*types.Signature)}
	if recv := sc.Sig.Recv(); recv != nil {
		if ptr, ok := recv.Type().(*types.Pointer); ok {
			sc.Owner, _ = ptr.Elem().(*types.Named)
		} else {
			sc.Owner, _ = recv.Type().(*types.Named)
		}
	}
	return sc
}

// Bind parses the text of a guard directive and binds it to a guard
// expression. The grammar is a dotted identifier chain; the head resolves,
// in order, as the receiver (`this` or the receiver's name), a parameter, a
// member of the annotated type, or a package-scope declaration (variable,
// lock-accessor function, named type, or imported package). Tail
// identifiers are member selections.
func Bind(text string, sc Scope) (guard.Expression, error) {
	parts := strings.Split(text, ".")
	for _, part := range parts {
		if !token.IsIdentifier(part) {
			return nil, errors.Errorf("malformed lock expression %q", text)
		}
	}

	exp, rest, err := sc.bindHead(parts)
	if err != nil {
		return nil, errors.Wrapf(err, "binding lock expression %q", text)
	}

	for _, name := range rest {
		if exp, err = sc.selectMember(exp, name); err != nil {
			return nil, errors.Wrapf(err, "binding lock expression %q", text)
		}
	}

	return exp, nil
}

func (sc Scope) bindHead(parts []string) (guard.Expression, []string, error) {
	name, rest := parts[0], parts[1:]

	if name == "this" || sc.recvNamed(name) {
		return fact.This(), rest, nil
	}

	if p := sc.param(name); p != nil {
		return fact.LocalVariable(resolve.LocalSymbol{Obj: p}), rest, nil
	}

	// T.this qualifies the receiver by an embedded type. The type name wins
	// over the embedded field of the same name, which can never be followed
	// by this.
	if len(rest) > 0 && rest[0] == "this" && sc.Pkg != nil {
		if obj, ok := sc.Pkg.Scope().Lookup(name).(*types.TypeName); ok {
			return fact.QualifiedThis(resolve.TypeSymbol{Obj: obj}), rest[1:], nil
		}
	}

	// Members of the annotated type select from an implicit this.
	if t, ok := sc.ownerType(); ok {
		if member, found := resolve.LookupMember(t, name); found {
			sel, err := fact.Select(fact.This(), member)
			if err != nil {
				return nil, nil, err
			}
			return sel, rest, nil
		}
	}

	if sc.Pkg != nil {
		if obj := sc.Pkg.Scope().Lookup(name); obj != nil {
			return sc.bindScopeObject(obj, rest)
		}

		for _, imp := range sc.Pkg.Imports() {
			if imp.Name() != name {
				continue
			}
			if len(rest) == 0 {
				return nil, nil, errors.Errorf("package %s is not a lock", name)
			}
			obj := imp.Scope().Lookup(rest[0])
			if obj == nil {
				return nil, nil, errors.Errorf("package %s has no declaration %s", name, rest[0])
			}
			return sc.bindScopeObject(obj, rest[1:])
		}
	}

	return nil, nil, errors.Errorf("cannot resolve %s", name)
}

// bindScopeObject binds a package-scope declaration appearing at the head of
// a lock expression.
func (sc Scope) bindScopeObject(obj types.Object, rest []string) (guard.Expression, []string, error) {
	switch obj := obj.(type) {
	case *types.Var:
		sel, err := fact.Select(fact.This(), resolve.GlobalSymbol{Obj: obj})
		if err != nil {
			return nil, nil, err
		}
		return sel, rest, nil

	case *types.Func:
		sig := obj.Type().(*types.Signature)
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return nil, nil, errors.Errorf("%s does not denote a lock: want a niladic single-result function", obj.Name())
		}
		sel, err := fact.Select(fact.This(), resolve.FuncSymbol{Obj: obj})
		if err != nil {
			return nil, nil, err
		}
		return sel, rest, nil

	case *types.TypeName:
		if len(rest) > 0 && rest[0] == "this" {
			return fact.QualifiedThis(resolve.TypeSymbol{Obj: obj}), rest[1:], nil
		}
		if len(rest) == 0 {
			return fact.ClassLiteral(resolve.TypeSymbol{Obj: obj}), nil, nil
		}
		return nil, nil, errors.Errorf("cannot select %s through type %s", rest[0], obj.Name())
	}

	return nil, nil, errors.Errorf("%s cannot appear in a lock expression", obj.Name())
}

func (sc Scope) selectMember(base guard.Expression, name string) (guard.Expression, error) {
	t, ok := sc.baseType(base)
	if !ok {
		return nil, errors.Errorf("cannot select %s through %s", name, base)
	}

	member, found := resolve.LookupMember(t, name)
	if !found {
		return nil, errors.Errorf("%s has no lock member %s", t, name)
	}

	sel, err := fact.Select(base, member)
	if err != nil {
		return nil, err
	}
	return sel, nil
}

// baseType yields the go/types type to resolve a selection against. A bare
// this stands for the annotated type or the method receiver.
func (sc Scope) baseType(base guard.Expression) (types.Type, bool) {
	if _, ok := base.(guard.ThisLiteral); ok {
		return sc.ownerType()
	}
	tk, ok := base.Type().(resolve.TypeKey)
	if !ok {
		return nil, false
	}
	return tk.T, true
}

func (sc Scope) ownerType() (types.Type, bool) {
	if sc.Owner != nil {
		return sc.Owner, true
	}
	if sc.Sig != nil && sc.Sig.Recv() != nil {
		return sc.Sig.Recv().Type(), true
	}
	return nil, false
}

func (sc Scope) recvNamed(name string) bool {
	return sc.Sig != nil && sc.Sig.Recv() != nil && sc.Sig.Recv().Name() == name
}

func (sc Scope) param(name string) *types.Var {
	if sc.Sig == nil {
		return nil
	}
	params := sc.Sig.Params()
	for i := 0; i < params.Len(); i++ {
		if p := params.At(i); p.Name() == name {
			return p
		}
	}
	return nil
}
