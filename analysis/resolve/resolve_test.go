package resolve_test

import (
	"go/types"
	"testing"

	"github.com/lockcheck/lockcheck/analysis/resolve"
	tu "github.com/lockcheck/lockcheck/testutil"

	"github.com/stretchr/testify/require"
)

const src = `
package main

import "sync"

type inner struct{ mu sync.Mutex }

type outer struct {
	inner
	n int
}

var gmu sync.Mutex

func (o *outer) lock() *sync.Mutex { return &o.inner.mu }
func (o *outer) pick(i int) *sync.Mutex { return &o.inner.mu }

func main() {}
`

func load(t *testing.T) *types.Package {
	return tu.LoadPackageFromSource(t, src).MainPkg.Types
}

func lookupType(t *testing.T, pkg *types.Package, name string) *types.TypeName {
	obj, ok := pkg.Scope().Lookup(name).(*types.TypeName)
	require.True(t, ok, "no type %s in %s", name, pkg)
	return obj
}

func TestLookupPromotedField(t *testing.T) {
	pkg := load(t)
	outer := lookupType(t, pkg, "outer")
	inner := lookupType(t, pkg, "inner")

	sym, found := resolve.LookupMember(outer.Type(), "mu")
	require.True(t, found)

	field, ok := sym.(resolve.FieldSymbol)
	require.True(t, ok)
	require.Equal(t, "mu", field.Name())
	require.False(t, field.Static())

	// Promotion attributes the field to the embedded type declaring it.
	owner, ok := field.Owner().(resolve.TypeSymbol)
	require.True(t, ok)
	require.Equal(t, inner.Type(), owner.Obj.Type())
}

func TestLookupMethod(t *testing.T) {
	pkg := load(t)
	outer := lookupType(t, pkg, "outer")

	sym, found := resolve.LookupMember(outer.Type(), "lock")
	require.True(t, found)

	fn, ok := sym.(resolve.FuncSymbol)
	require.True(t, ok)
	require.False(t, fn.Static())
	require.Equal(t, resolve.TypeSymbol{Obj: outer}, fn.Owner())

	ret, ok := fn.ReturnType().(resolve.TypeKey)
	require.True(t, ok)
	ptr, ok := ret.T.(*types.Pointer)
	require.True(t, ok)
	require.Equal(t, "Mutex", ptr.Elem().(*types.Named).Obj().Name())
}

func TestLookupRejectsNonLockMembers(t *testing.T) {
	pkg := load(t)
	outer := lookupType(t, pkg, "outer")

	// Methods with parameters cannot denote a lock.
	_, found := resolve.LookupMember(outer.Type(), "pick")
	require.False(t, found)

	_, found = resolve.LookupMember(outer.Type(), "missing")
	require.False(t, found)
}

func TestFieldOf(t *testing.T) {
	pkg := load(t)
	outer := lookupType(t, pkg, "outer")

	// Struct fields resolve through a pointer receiver type as well.
	field, ok := resolve.FieldOf(types.NewPointer(outer.Type()), 1)
	require.True(t, ok)
	require.Equal(t, "n", field.Name())
	require.Equal(t, resolve.TypeSymbol{Obj: outer}, field.Owner())

	_, ok = resolve.FieldOf(outer.Type(), 17)
	require.False(t, ok)
}

func TestGlobalIsStatic(t *testing.T) {
	pkg := load(t)
	gmu, ok := pkg.Scope().Lookup("gmu").(*types.Var)
	require.True(t, ok)

	sym := resolve.GlobalSymbol{Obj: gmu}
	require.True(t, sym.Static())
	require.Equal(t, resolve.PkgSymbol{Pkg: pkg}, sym.Owner())
}

func TestTypeKeyIdentity(t *testing.T) {
	pkg := load(t)
	outer := lookupType(t, pkg, "outer")

	a := resolve.TypeKey{T: outer.Type()}
	b := resolve.TypeKey{T: outer.Type()}
	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())

	c := resolve.TypeKey{T: types.NewPointer(outer.Type())}
	require.False(t, a.Equal(c))
}
