package testutil

import (
	"testing"

	"github.com/lockcheck/lockcheck/pkgutil"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// LoadResult contains relevant information obtained after loading a Go program.
// It includes the loaded source packages and the SSA representation of the
// whole program.
type LoadResult struct {
	// MainPkg is the package focused by the check.
	MainPkg *packages.Package
	// Pkgs denotes all loaded source packages.
	Pkgs []*packages.Package
	// Prog is the SSA representation of the entire program.
	Prog *ssa.Program
}

// LoadResultFromPackages builds the SSA program for previously loaded packages.
func LoadResultFromPackages(t *testing.T, pkgs []*packages.Package) (res LoadResult) {
	if len(pkgs) == 0 {
		t.Fatal("No packages were loaded")
	}

	res.MainPkg = pkgs[0]
	res.Pkgs = pkgs

	res.Prog, _ = ssautil.AllPackages(pkgs, ssa.SanityCheckFunctions|ssa.InstantiateGenerics)
	res.Prog.Build()

	return
}

// LoadPackageFromSource loads a single package given directly as source text.
func LoadPackageFromSource(t *testing.T, content string) LoadResult {
	pkgs, err := pkgutil.LoadPackagesFromSource(content)
	if err != nil {
		t.Fatal(err)
	}

	return LoadResultFromPackages(t, pkgs)
}

// Functions returns the functions of the loaded packages that a check
// should visit.
func (res LoadResult) Functions() []*ssa.Function {
	return pkgutil.TargetFunctions(res.Prog, res.Pkgs, nil)
}
