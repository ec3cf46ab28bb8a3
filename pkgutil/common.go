package pkgutil

import (
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/lockcheck/lockcheck/utils"

	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// opts is a shorthand for the CLI option API.
var opts = utils.Opts()

// CheckPkgInGoroot checks whether a package is declared in GOROOT.
func CheckPkgInGoroot(pkg *types.Package) bool {
	path := filepath.Join(runtime.GOROOT(), "src", pkg.Path())
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return true
	}
	return false
}

// CheckInGoroot is true iff. the function is in a package declared in GOROOT.
func CheckInGoroot(fun *ssa.Function) bool {
	return fun != nil && fun.Pkg != nil &&
		CheckPkgInGoroot(fun.Pkg.Pkg)
}

// AllPackages aggregates all non-synthetic test packages that
// contain at least one member in a slice.
func AllPackages(prog *ssa.Program) []*ssa.Package {
	mp := make(map[string]*ssa.Package)

	for _, pkg := range prog.AllPackages() {
		if strings.HasSuffix(pkg.String(), ".test") {
			continue
		}

		opkg, ok := mp[pkg.String()]
		if !ok || len(pkg.Members) > len(opkg.Members) {
			mp[pkg.String()] = pkg
		}
	}

	res := make([]*ssa.Package, 0, len(mp))
	for _, pkg := range mp {
		res = append(res, pkg)
	}

	return res
}

// TargetFunctions collects the source-level functions declared in the loaded
// packages, including methods and anonymous functions. Functions in GOROOT
// packages and in packages matching one of the ignore prefixes are skipped.
// The result is sorted by position for deterministic reporting.
func TargetFunctions(prog *ssa.Program, loaded []*packages.Package, ignore []string) []*ssa.Function {
	target := make(map[*types.Package]bool, len(loaded))
	for _, pkg := range loaded {
		if pkg.Types != nil && !ignored(pkg.PkgPath, ignore) {
			target[pkg.Types] = true
		}
	}

	var res []*ssa.Function
	var visit func(fun *ssa.Function)
	visit = func(fun *ssa.Function) {
		if CheckInGoroot(fun) {
			return
		}
		res = append(res, fun)
		for _, anon := range fun.AnonFuncs {
			visit(anon)
		}
	}

	for _, pkg := range AllPackages(prog) {
		if !target[pkg.Pkg] || CheckPkgInGoroot(pkg.Pkg) {
			continue
		}

		for _, member := range pkg.Members {
			switch m := member.(type) {
			case *ssa.Function:
				if m.Synthetic == "" {
					visit(m)
				}
			case *ssa.Type:
				if named, ok := m.Type().(*types.Named); ok {
					for i := 0; i < named.NumMethods(); i++ {
						if fun := prog.FuncValue(named.Method(i)); fun != nil {
							visit(fun)
						}
					}
				}
			}
		}
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Pos() < res[j].Pos()
	})

	opts.OnVerbose(func() {
		fmt.Println("Target functions:")
		for _, fun := range res {
			fmt.Println(fun.String())
		}
	})

	return res
}

func ignored(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
