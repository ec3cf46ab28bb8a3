package checker

import (
	"go/token"
	"go/types"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/analysis/resolve"
	"github.com/lockcheck/lockcheck/utils"

	"golang.org/x/tools/go/ssa"
)

var fact = guard.Create()

// deriver constructs guard expressions from the SSA values of one function,
// mirroring what the binder constructs from annotation text. Both sides feed
// structural equality to decide whether an access holds its declared lock.
type deriver struct {
	fn      *ssa.Function
	aliases *aliasClasses
}

func newDeriver(fn *ssa.Function) *deriver {
	return &deriver{fn: fn, aliases: newAliasClasses(fn)}
}

// expr derives the symbolic lock expression denoted by v, when one exists.
// Addresses and their loads denote the same lock.
func (d *deriver) expr(v ssa.Value) (guard.Expression, bool) {
	v = d.aliases.find(v)

	switch v := v.(type) {
	case *ssa.Parameter:
		if recv := d.fn.Signature.Recv(); recv != nil && len(d.fn.Params) > 0 && d.fn.Params[0] == v {
			return fact.This(), true
		}
		obj, ok := v.Object().(*types.Var)
		if !ok {
			return nil, false
		}
		return fact.LocalVariable(resolve.LocalSymbol{Obj: obj}), true

	case *ssa.Global:
		obj, ok := v.Object().(*types.Var)
		if !ok {
			return nil, false
		}
		sel, err := fact.Select(fact.This(), resolve.GlobalSymbol{Obj: obj})
		return sel, err == nil

	case *ssa.FieldAddr:
		return d.fieldExpr(v.X, v.Field)

	case *ssa.Field:
		return d.fieldExpr(v.X, v.Field)

	case *ssa.UnOp:
		if v.Op == token.MUL {
			return d.expr(v.X)
		}

	case *ssa.Alloc:
		if !v.Heap {
			return fact.LocalVariable(allocSymbol{v}), true
		}

	case *ssa.Call:
		return d.callExpr(v)

	case *ssa.MakeInterface:
		return d.expr(v.X)
	case *ssa.ChangeType:
		return d.expr(v.X)
	case *ssa.ChangeInterface:
		return d.expr(v.X)
	}

	return nil, false
}

func (d *deriver) fieldExpr(recv ssa.Value, field int) (guard.Expression, bool) {
	base, ok := d.expr(recv)
	if !ok {
		return nil, false
	}

	member, ok := resolve.FieldOf(recv.Type(), field)
	if !ok {
		return nil, false
	}

	sel, err := fact.Select(base, member)
	return sel, err == nil
}

// callExpr derives an expression for the result of a niladic single-result
// method call, matching guards declared through lock-accessor methods.
func (d *deriver) callExpr(call *ssa.Call) (guard.Expression, bool) {
	common := call.Common()

	if common.IsInvoke() {
		sig := common.Method.Type().(*types.Signature)
		if sig.Params().Len() != 0 || sig.Results().Len() != 1 {
			return nil, false
		}
		base, ok := d.expr(common.Value)
		if !ok {
			return nil, false
		}
		sel, err := fact.Select(base, resolve.FuncSymbol{Obj: common.Method})
		return sel, err == nil
	}

	callee := common.StaticCallee()
	if callee == nil || callee.Object() == nil {
		return nil, false
	}
	fnobj, ok := callee.Object().(*types.Func)
	if !ok {
		return nil, false
	}

	sig := callee.Signature
	if sig.Results().Len() != 1 || sig.Params().Len() != 0 {
		return nil, false
	}

	base := guard.Expression(fact.This())
	if sig.Recv() != nil {
		if len(common.Args) != 1 {
			return nil, false
		}
		b, ok := d.expr(common.Args[0])
		if !ok {
			return nil, false
		}
		base = b
	}

	sel, err := fact.Select(base, resolve.FuncSymbol{Obj: fnobj})
	return sel, err == nil
}

// allocSymbol is a synthetic variable symbol for a function-local lock cell
// with no source-level object: an SSA allocation site. Such locks can never
// match a declared guard, but keeping them in the lockset makes diagnostics
// list everything that is held.
type allocSymbol struct {
	site *ssa.Alloc
}

func (s allocSymbol) Name() string {
	if s.site.Comment != "" {
		return s.site.Comment
	}
	return s.site.Name()
}

func (s allocSymbol) siteType() types.Type {
	return s.site.Type().(*types.Pointer).Elem()
}

func (s allocSymbol) Type() guard.Type    { return resolve.TypeKey{T: s.siteType()} }
func (s allocSymbol) VarType() guard.Type { return resolve.TypeKey{T: s.siteType()} }
func (s allocSymbol) Static() bool        { return false }
func (s allocSymbol) Hash() uint32        { return utils.PointerHasher[*ssa.Alloc]{}.Hash(s.site) }

func (s allocSymbol) Owner() guard.Symbol {
	return resolve.PkgSymbol{Pkg: s.site.Parent().Pkg.Pkg}
}

func (s allocSymbol) Equal(o guard.Symbol) bool {
	os, ok := o.(allocSymbol)
	return ok && s.site == os.site
}

var _ guard.VarMember = allocSymbol{}
