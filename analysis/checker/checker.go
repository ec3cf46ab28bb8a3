package checker

import (
	"go/token"
	"go/types"

	"github.com/lockcheck/lockcheck/analysis/annot"
	"github.com/lockcheck/lockcheck/analysis/binder"
	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/analysis/resolve"
	"github.com/lockcheck/lockcheck/utils/worklist"

	"golang.org/x/tools/go/ssa"
)

// Config tunes the analysis.
type Config struct {
	// Lockers lists additional named types (as "path/to/pkg.Type") whose
	// Lock/Unlock methods are honored even though the type does not have
	// the usual locker shape.
	Lockers []string
}

// Checker verifies that every access of a guarded field, and every call of a
// guarded function, provably holds the declared lock.
type Checker struct {
	prog *ssa.Program
	cfg  Config

	fieldGuards map[*types.Var]guard.Expression
	funcGuards  map[*types.Func]guard.Expression
	reports     []Report
}

// New binds the collected annotations and prepares a checker. Annotations
// that fail to bind are reported as diagnostics and excluded from checking.
func New(prog *ssa.Program, annots annot.Annotations, cfg Config) *Checker {
	c := &Checker{
		prog:        prog,
		cfg:         cfg,
		fieldGuards: make(map[*types.Var]guard.Expression),
		funcGuards:  make(map[*types.Func]guard.Expression),
	}

	for field, decl := range annots.Fields {
		var owner *types.Named
		if decl.Owner != nil {
			owner, _ = decl.Owner.Type().(*types.Named)
		}

		exp, err := binder.Bind(decl.Expr, binder.ForType(field.Pkg(), owner))
		if err != nil {
			c.report(BadAnnotation, decl.Pos, err.Error())
			continue
		}
		c.fieldGuards[field] = exp
	}

	for fn, decl := range annots.Funcs {
		exp, err := binder.Bind(decl.Expr, binder.ForFunc(fn))
		if err != nil {
			c.report(BadAnnotation, decl.Pos, err.Error())
			continue
		}
		c.funcGuards[fn] = exp
	}

	for _, bad := range annots.Bad {
		c.report(BadAnnotation, bad.Pos, bad.Reason)
	}

	return c
}

// FieldGuards exposes the bound guard of every annotated field, keyed by the
// field object.
func (c *Checker) FieldGuards() map[*types.Var]guard.Expression {
	return c.fieldGuards
}

// FuncGuards exposes the bound guard of every annotated function.
func (c *Checker) FuncGuards() map[*types.Func]guard.Expression {
	return c.funcGuards
}

// Check analyzes the given functions and returns all diagnostics, ordered by
// source position.
func (c *Checker) Check(funs []*ssa.Function) []Report {
	for _, fn := range funs {
		c.checkFunction(fn)
	}
	return c.Reports()
}

func (c *Checker) checkFunction(fn *ssa.Function) {
	if len(fn.Blocks) == 0 || fn.Synthetic != "" {
		return
	}

	d := newDeriver(fn)
	entry := c.entryLockset(fn)

	// Stabilize per-block exit states with a forward must-analysis.
	outs := make([]Lockset, len(fn.Blocks))
	computed := make([]bool, len(fn.Blocks))

	worklist.Start(fn.Blocks[0], func(block *ssa.BasicBlock, add func(*ssa.BasicBlock)) {
		in := c.blockInput(block, entry, outs, computed)
		out := in
		for _, instr := range block.Instrs {
			out = c.transfer(d, instr, out, false)
		}

		if !computed[block.Index] || !out.Equal(outs[block.Index]) {
			outs[block.Index] = out
			computed[block.Index] = true
			for _, succ := range block.Succs {
				add(succ)
			}
		}
	})

	// Report against the stabilized states.
	for _, block := range fn.Blocks {
		if !computed[block.Index] {
			continue
		}
		ls := c.blockInput(block, entry, outs, computed)
		for _, instr := range block.Instrs {
			ls = c.transfer(d, instr, ls, true)
		}
	}
}

// entryLockset assumes a guarded function's own lock on entry: the
// annotation obliges callers, so the body may rely on it.
func (c *Checker) entryLockset(fn *ssa.Function) Lockset {
	ls := EmptyLockset()
	if obj, ok := fn.Object().(*types.Func); ok {
		if exp, found := c.funcGuards[obj]; found {
			ls = ls.Plus(exp)
		}
	}
	return ls
}

func (c *Checker) blockInput(block *ssa.BasicBlock, entry Lockset, outs []Lockset, computed []bool) Lockset {
	if block.Index == 0 {
		return entry
	}

	var in Lockset
	first := true
	for _, pred := range block.Preds {
		if !computed[pred.Index] {
			continue
		}
		if first {
			in, first = outs[pred.Index], false
		} else {
			in = in.Meet(outs[pred.Index])
		}
	}
	if first {
		return EmptyLockset()
	}
	return in
}

// transfer applies one instruction to the lockset. During the reporting
// pass the instruction's obligations are also checked against the
// stabilized states.
func (c *Checker) transfer(d *deriver, instr ssa.Instruction, ls Lockset, reporting bool) Lockset {
	switch instr := instr.(type) {
	case *ssa.Call:
		switch op, exp := c.classify(d, instr.Common()); op {
		case acquireOp:
			if exp != nil {
				return ls.Plus(exp)
			}
			return ls
		case releaseOp:
			if exp != nil {
				return ls.Minus(exp)
			}
			return ls
		}

		if reporting {
			c.checkCall(d, instr.Common(), instr.Pos(), ls)
		}

	case *ssa.Go:
		if reporting {
			c.checkCall(d, instr.Common(), instr.Pos(), ls)
		}

	case *ssa.Defer:
		// Deferred unlocks run at function exit; they do not release
		// within the body. Other deferred calls are checked against the
		// locks held where the defer is set up.
		if op, _ := c.classify(d, instr.Common()); op == noOp && reporting {
			c.checkCall(d, instr.Common(), instr.Pos(), ls)
		}

	case *ssa.FieldAddr:
		if reporting {
			c.checkAccess(d, instr, instr.X, instr.Field, ls)
		}

	case *ssa.Field:
		if reporting {
			c.checkAccess(d, instr, instr.X, instr.Field, ls)
		}
	}

	return ls
}

// checkAccess reports an access of a guarded field without its lock held.
func (c *Checker) checkAccess(d *deriver, instr ssa.Instruction, recv ssa.Value, field int, ls Lockset) {
	member, ok := resolve.FieldOf(recv.Type(), field)
	if !ok {
		return
	}

	declared, guarded := c.fieldGuards[member.Obj]
	if !guarded {
		return
	}

	base, ok := d.expr(recv)
	if !ok {
		// The receiver has no symbolic form; nothing sound to compare
		// against, so stay silent rather than guess.
		return
	}

	needed, ok := rebind(declared, env{this: base})
	if !ok || ls.Contains(needed) {
		return
	}

	c.report(UnguardedAccess, instr.Pos(),
		"access of %s.%s requires holding %s; held locks: %s",
		base, member.Name(), needed, ls)
}

// checkCall reports calls of guard-annotated functions made without the
// declared lock held. It covers plain calls as well as the call underlying
// a go or defer instruction.
func (c *Checker) checkCall(d *deriver, common *ssa.CallCommon, pos token.Pos, ls Lockset) {
	callee := common.StaticCallee()
	if callee == nil {
		return
	}
	obj, ok := callee.Object().(*types.Func)
	if !ok {
		return
	}
	declared, found := c.funcGuards[obj]
	if !found {
		return
	}

	e := env{locals: make(map[*types.Var]guard.Expression)}

	args := common.Args
	if callee.Signature.Recv() != nil && len(args) > 0 {
		if b, ok := d.expr(args[0]); ok {
			e.this = b
		}
		args = args[1:]
	}

	params := callee.Signature.Params()
	for i := 0; i < params.Len() && i < len(args); i++ {
		if exp, ok := d.expr(args[i]); ok {
			e.locals[params.At(i)] = exp
		}
	}

	needed, ok := rebind(declared, e)
	if !ok || ls.Contains(needed) {
		return
	}

	c.report(UnguardedCall, pos,
		"call of %s requires holding %s; held locks: %s",
		obj.Name(), needed, ls)
}

// env maps the declaration-scope names of a guard expression to the
// expressions they denote at a use site.
type env struct {
	this   guard.Expression
	locals map[*types.Var]guard.Expression
}

// rebind re-homes a declared guard expression into a use site, substituting
// the receiver and parameters. Static guards are already canonical and pass
// through unchanged.
func rebind(e guard.Expression, en env) (guard.Expression, bool) {
	switch e := e.(type) {
	case guard.ThisLiteral:
		if en.this == nil {
			return nil, false
		}
		return en.this, true

	case guard.QualifiedThis:
		// A guard declared against an embedded type denotes the embedding
		// value at the use site.
		if en.this == nil {
			return nil, false
		}
		return en.this, true

	case guard.LocalVariable:
		if ls, ok := e.Sym().(resolve.LocalSymbol); ok {
			if got, found := en.locals[ls.Obj]; found {
				return got, true
			}
		}
		return e, true

	case guard.Select:
		if e.Member().Static() {
			return e, true
		}
		base, ok := rebind(e.Base(), en)
		if !ok {
			return nil, false
		}
		return fact.Reselect(base, e), true
	}

	return e, true
}
