package resolve

import (
	"go/types"
	"sync"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/utils"

	"golang.org/x/tools/go/types/typeutil"
)

// Shared hasher for go/types types. typeutil.Hasher is not safe for
// concurrent use, so access is serialized.
var typeHasher = struct {
	sync.Mutex
	typeutil.Hasher
}{Hasher: typeutil.MakeHasher()}

func hashType(t types.Type) uint32 {
	typeHasher.Lock()
	defer typeHasher.Unlock()
	return typeHasher.Hash(t)
}

// TypeKey adapts a go/types type to an opaque guard type key. Equality is
// type identity in the sense of types.Identical.
type TypeKey struct {
	T types.Type
}

func (k TypeKey) Hash() uint32 { return hashType(k.T) }

func (k TypeKey) Equal(o guard.Type) bool {
	ok2, ok := o.(TypeKey)
	return ok && types.Identical(k.T, ok2.T)
}

func (k TypeKey) String() string { return types.TypeString(k.T, relativeTo) }

// relativeTo strips package paths from rendered types for readability.
func relativeTo(*types.Package) string { return "" }

// PkgKey is the pseudo-type of a package symbol. Packages have no go/types
// type, but the guard model expects every symbol to expose a type key.
type PkgKey struct {
	Pkg *types.Package
}

func (k PkgKey) Hash() uint32 {
	return utils.PointerHasher[*types.Package]{}.Hash(k.Pkg)
}

func (k PkgKey) Equal(o guard.Type) bool {
	ok2, ok := o.(PkgKey)
	return ok && k.Pkg == ok2.Pkg
}

func (k PkgKey) String() string { return "package " + k.Pkg.Path() }
