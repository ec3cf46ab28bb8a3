package checker

import (
	"go/types"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/analysis/resolve"

	"golang.org/x/tools/go/ssa"
)

type lockOp int

const (
	noOp lockOp = iota
	acquireOp
	releaseOp
)

func opForName(name string) lockOp {
	switch name {
	case "Lock", "RLock":
		return acquireOp
	case "Unlock", "RUnlock":
		return releaseOp
	}
	return noOp
}

// classify recognizes lock and unlock calls and derives the symbolic
// expression of the lock they operate on. A receiver qualifies when it has
// the usual locker shape (niladic Lock and Unlock methods) or its type is
// listed in the configuration.
func (c *Checker) classify(d *deriver, common *ssa.CallCommon) (lockOp, guard.Expression) {
	if common.IsInvoke() {
		op := opForName(common.Method.Name())
		if op == noOp || !c.isLocker(common.Value.Type()) {
			return noOp, nil
		}
		exp, ok := d.expr(common.Value)
		if !ok {
			return op, nil
		}
		return op, exp
	}

	callee := common.StaticCallee()
	if callee == nil || callee.Signature.Recv() == nil || len(common.Args) == 0 {
		return noOp, nil
	}

	op := opForName(callee.Name())
	if op == noOp || !c.isLocker(common.Args[0].Type()) {
		return noOp, nil
	}

	exp, ok := c.lockRecvExpr(d, callee, common.Args[0])
	if !ok {
		return op, nil
	}
	return op, exp
}

// lockRecvExpr derives the expression of the lock a method call operates on.
// Calls of promoted methods lock the embedded field, not the embedding
// value, so the embedding path is made explicit in the expression.
func (c *Checker) lockRecvExpr(d *deriver, callee *ssa.Function, recv ssa.Value) (guard.Expression, bool) {
	base, ok := d.expr(recv)
	if !ok {
		return nil, false
	}

	obj, _ := callee.Object().(*types.Func)
	if obj == nil {
		return base, true
	}

	declRecv := namedRecv(obj)
	argNamed := namedOf(recv.Type())
	if declRecv == nil || argNamed == nil || declRecv == argNamed.Obj() {
		return base, true
	}

	// Promoted: select the embedded field named after the declaring type.
	member, found := resolve.LookupMember(recv.Type(), declRecv.Name())
	if !found {
		return base, true
	}
	sel, err := fact.Select(base, member)
	if err != nil {
		return base, true
	}
	return sel, true
}

// isLocker reports whether values of type t are honored as locks.
func (c *Checker) isLocker(t types.Type) bool {
	if named := namedOf(t); named != nil {
		name := named.Obj().Name()
		if pkg := named.Obj().Pkg(); pkg != nil {
			name = pkg.Path() + "." + name
		}
		for _, extra := range c.cfg.Lockers {
			if extra == name {
				return true
			}
		}
	}
	return hasLockerShape(t)
}

// hasLockerShape reports whether t's method set contains niladic Lock and
// Unlock methods.
func hasLockerShape(t types.Type) bool {
	if _, ok := t.Underlying().(*types.Pointer); !ok {
		if _, isIface := t.Underlying().(*types.Interface); !isIface {
			t = types.NewPointer(t)
		}
	}

	mset := types.NewMethodSet(t)
	found := 0
	for i := 0; i < mset.Len(); i++ {
		fn, ok := mset.At(i).Obj().(*types.Func)
		if !ok {
			continue
		}
		sig := fn.Type().(*types.Signature)
		if sig.Params().Len() != 0 {
			continue
		}
		switch fn.Name() {
		case "Lock", "Unlock":
			found++
		}
	}
	return found == 2
}

func namedRecv(fn *types.Func) *types.TypeName {
	sig := fn.Type().(*types.Signature)
	if sig.Recv() == nil {
		return nil
	}
	if named := namedOf(sig.Recv().Type()); named != nil {
		return named.Obj()
	}
	return nil
}

func namedOf(t types.Type) *types.Named {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, _ := t.(*types.Named)
	return named
}
