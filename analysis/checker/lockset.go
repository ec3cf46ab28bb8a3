package checker

import (
	"sort"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/lockcheck/lockcheck/analysis/guard"
)

// Lockset is the set of lock expressions provably held at a program point.
// It is persistent: transfer functions derive new sets without mutating
// their input, so block states can be shared freely.
type Lockset struct {
	m *immutable.Map[guard.Expression, struct{}]
}

// EmptyLockset is the state at function entry: no locks held.
func EmptyLockset() Lockset {
	return Lockset{immutable.NewMap[guard.Expression, struct{}](guard.ExpressionHasher{})}
}

func (ls Lockset) Size() int { return ls.m.Len() }

func (ls Lockset) Contains(e guard.Expression) bool {
	_, found := ls.m.Get(e)
	return found
}

func (ls Lockset) Plus(e guard.Expression) Lockset {
	return Lockset{ls.m.Set(e, struct{}{})}
}

func (ls Lockset) Minus(e guard.Expression) Lockset {
	return Lockset{ls.m.Delete(e)}
}

// Meet intersects two locksets. Control-flow joins keep only the locks held
// on every incoming path (must-analysis).
func (ls Lockset) Meet(o Lockset) Lockset {
	small, large := ls, o
	if small.Size() > large.Size() {
		small, large = large, small
	}

	res := EmptyLockset()
	for it := small.m.Iterator(); !it.Done(); {
		e, _, _ := it.Next()
		if large.Contains(e) {
			res = res.Plus(e)
		}
	}
	return res
}

func (ls Lockset) Equal(o Lockset) bool {
	if ls.Size() != o.Size() {
		return false
	}
	for it := ls.m.Iterator(); !it.Done(); {
		e, _, _ := it.Next()
		if !o.Contains(e) {
			return false
		}
	}
	return true
}

// Exprs returns the held locks ordered by their readable form, for
// deterministic diagnostics.
func (ls Lockset) Exprs() []guard.Expression {
	res := make([]guard.Expression, 0, ls.Size())
	for it := ls.m.Iterator(); !it.Done(); {
		e, _, _ := it.Next()
		res = append(res, e)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].String() != res[j].String() {
			return res[i].String() < res[j].String()
		}
		return guard.Debug(res[i]) < guard.Debug(res[j])
	})
	return res
}

func (ls Lockset) String() string {
	strs := make([]string, 0, ls.Size())
	for _, e := range ls.Exprs() {
		strs = append(strs, e.String())
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
