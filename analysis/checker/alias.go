package checker

import (
	"go/token"

	uf "github.com/spakin/disjoint"

	"golang.org/x/tools/go/ssa"
)

// aliasClasses groups the SSA values of one function that must denote the
// same lock: value-preserving conversions, and loads of local cells that are
// stored to exactly once. Grouping happens before expression derivation, so
// that `l := &s.mu; l.Lock()` acquires the same symbolic lock as
// `s.mu.Lock()`.
type aliasClasses struct {
	elems     map[ssa.Value]*uf.Element
	preferred map[*uf.Element]ssa.Value
}

func newAliasClasses(fn *ssa.Function) *aliasClasses {
	a := &aliasClasses{
		elems:     make(map[ssa.Value]*uf.Element),
		preferred: make(map[*uf.Element]ssa.Value),
	}

	// Stores and loads per local cell.
	stores := make(map[ssa.Value][]ssa.Value)
	var loads []*ssa.UnOp

	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			switch instr := instr.(type) {
			case *ssa.ChangeType:
				a.union(instr, instr.X)
			case *ssa.ChangeInterface:
				a.union(instr, instr.X)
			case *ssa.MakeInterface:
				a.union(instr, instr.X)
			case *ssa.Store:
				if _, ok := instr.Addr.(*ssa.Alloc); ok {
					stores[instr.Addr] = append(stores[instr.Addr], instr.Val)
				}
			case *ssa.UnOp:
				if instr.Op == token.MUL {
					if _, ok := instr.X.(*ssa.Alloc); ok {
						loads = append(loads, instr)
					}
				}
			}
		}
	}

	// A load of a single-store cell denotes the stored value.
	for _, load := range loads {
		if vals := stores[load.X]; len(vals) == 1 {
			a.union(load, vals[0])
		}
	}

	a.electPreferred()
	return a
}

func (a *aliasClasses) elem(v ssa.Value) *uf.Element {
	e, found := a.elems[v]
	if !found {
		e = uf.NewElement()
		e.Data = v
		a.elems[v] = e
	}
	return e
}

func (a *aliasClasses) union(v, w ssa.Value) {
	uf.Union(a.elem(v), a.elem(w))
}

// electPreferred picks, per class, the member whose expression derivation is
// most direct.
func (a *aliasClasses) electPreferred() {
	for v, e := range a.elems {
		root := e.Find()
		if prev, found := a.preferred[root]; !found || derivationRank(v) > derivationRank(prev) {
			a.preferred[root] = v
		}
	}
}

// find maps an SSA value to the canonical representative of its alias class.
func (a *aliasClasses) find(v ssa.Value) ssa.Value {
	e, found := a.elems[v]
	if !found {
		return v
	}
	if pref, found := a.preferred[e.Find()]; found {
		return pref
	}
	return v
}

func derivationRank(v ssa.Value) int {
	switch v.(type) {
	case *ssa.FieldAddr, *ssa.Field, *ssa.Global, *ssa.Parameter:
		return 3
	case *ssa.Call:
		return 2
	case *ssa.Alloc:
		return 1
	}
	return 0
}
