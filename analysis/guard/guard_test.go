package guard

import (
	"github.com/benbjohnson/immutable"
	"github.com/lockcheck/lockcheck/utils"
)

// Test doubles for externally supplied symbols and types. Equality is plain
// value equality, mirroring a resolver that hands out canonical keys.

func hstr(s string) uint32 {
	return immutable.NewHasher(s).Hash(s)
}

type testType string

func (t testType) Hash() uint32 { return hstr(string(t)) }
func (t testType) String() string {
	return string(t)
}
func (t testType) Equal(o Type) bool {
	ot, ok := o.(testType)
	return ok && t == ot
}

// testClass is a named-type symbol. It is deliberately not a Member.
type testClass string

func (c testClass) Name() string { return string(c) }
func (c testClass) Type() Type   { return testType(string(c)) }
func (c testClass) Hash() uint32 { return hstr(string(c)) }
func (c testClass) Equal(o Symbol) bool {
	oc, ok := o.(testClass)
	return ok && c == oc
}

// testPkg is a package symbol, the declaring scope of "static" members.
type testPkg string

func (p testPkg) Name() string { return string(p) }
func (p testPkg) Type() Type   { return testType("package " + string(p)) }
func (p testPkg) Hash() uint32 { return hstr("package " + string(p)) }
func (p testPkg) Equal(o Symbol) bool {
	op, ok := o.(testPkg)
	return ok && p == op
}

// testVar is a field, local, or package-level variable symbol.
type testVar struct {
	name   string
	owner  Symbol
	typ    testType
	static bool
}

func (v testVar) Name() string  { return v.name }
func (v testVar) Type() Type    { return v.typ }
func (v testVar) VarType() Type { return v.typ }
func (v testVar) Owner() Symbol { return v.owner }
func (v testVar) Static() bool  { return v.static }
func (v testVar) Hash() uint32 {
	return utils.HashCombine(hstr(v.name), v.owner.Hash(), v.typ.Hash())
}
func (v testVar) Equal(o Symbol) bool {
	ov, ok := o.(testVar)
	return ok && v == ov
}

// testMethod is a method or function member symbol.
type testMethod struct {
	name   string
	owner  Symbol
	ret    testType
	static bool
}

func (m testMethod) Name() string     { return m.name }
func (m testMethod) Type() Type       { return testType("func() " + string(m.ret)) }
func (m testMethod) ReturnType() Type { return m.ret }
func (m testMethod) Owner() Symbol    { return m.owner }
func (m testMethod) Static() bool     { return m.static }
func (m testMethod) Hash() uint32 {
	return utils.HashCombine(hstr(m.name), m.owner.Hash(), m.ret.Hash())
}
func (m testMethod) Equal(o Symbol) bool {
	om, ok := o.(testMethod)
	return ok && m == om
}

var (
	_ VarMember  = testVar{}
	_ FuncMember = testMethod{}
)
