package checker

import (
	"go/token"
	"go/types"
	"testing"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/analysis/resolve"
)

// globalGuard fabricates the guard expression of a package-level lock.
func globalGuard(t *testing.T, pkg *types.Package, name string) guard.Expression {
	mu := types.NewVar(token.NoPos, pkg, name, types.Typ[types.Int])
	exp, err := fact.Select(fact.This(), resolve.GlobalSymbol{Obj: mu})
	if err != nil {
		t.Fatal(err)
	}
	return exp
}

func TestLocksetOps(t *testing.T) {
	pkg := types.NewPackage("p", "p")
	a := globalGuard(t, pkg, "a")
	b := globalGuard(t, pkg, "b")

	ls := EmptyLockset()
	if ls.Size() != 0 || ls.Contains(a) {
		t.Errorf("Expected fresh lockset to be empty, got %s", ls)
	}

	ls = ls.Plus(a).Plus(b).Plus(a)
	if ls.Size() != 2 || !ls.Contains(a) || !ls.Contains(b) {
		t.Errorf("Expected {p.a, p.b}, got %s", ls)
	}

	ls = ls.Minus(a)
	if ls.Contains(a) || !ls.Contains(b) {
		t.Errorf("Expected {p.b}, got %s", ls)
	}
}

func TestLocksetMeet(t *testing.T) {
	pkg := types.NewPackage("p", "p")
	a := globalGuard(t, pkg, "a")
	b := globalGuard(t, pkg, "b")
	c := globalGuard(t, pkg, "c")

	l := EmptyLockset().Plus(a).Plus(b)
	r := EmptyLockset().Plus(b).Plus(c)

	m := l.Meet(r)
	if m.Size() != 1 || !m.Contains(b) {
		t.Errorf("Expected meet {p.b}, got %s", m)
	}

	if !l.Meet(l).Equal(l) {
		t.Errorf("Expected meet to be idempotent on %s", l)
	}
	if !l.Meet(EmptyLockset()).Equal(EmptyLockset()) {
		t.Errorf("Expected meet with the empty set to be empty")
	}
}

func TestLocksetString(t *testing.T) {
	pkg := types.NewPackage("p", "p")
	b := globalGuard(t, pkg, "b")
	a := globalGuard(t, pkg, "a")

	ls := EmptyLockset().Plus(b).Plus(a)
	if got := ls.String(); got != "{p.a, p.b}" {
		t.Errorf("Expected ordered rendering {p.a, p.b}, got %s", got)
	}
}
