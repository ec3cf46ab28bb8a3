package main

import (
	"fmt"
	"go/types"
	"log"
	"sort"

	"github.com/lockcheck/lockcheck/analysis/checker"
	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/graph"

	"golang.org/x/tools/go/ssa"
)

// printGuards lists the bound guard of every annotated member, ordered by
// source position. Annotations that failed to bind surface as diagnostics.
func printGuards(prog *ssa.Program, c *checker.Checker) {
	type bound struct {
		obj types.Object
		g   guard.Expression
	}

	var bs []bound
	for field, g := range c.FieldGuards() {
		bs = append(bs, bound{field, g})
	}
	for fn, g := range c.FuncGuards() {
		bs = append(bs, bound{fn, g})
	}

	sort.Slice(bs, func(i, j int) bool {
		return bs[i].obj.Pos() < bs[j].obj.Pos()
	})

	for _, b := range bs {
		fmt.Printf("%s: %s is guarded by %s\n",
			prog.Fset.Position(b.obj.Pos()), b.obj.Name(), b.g)
		opts.OnVerbose(func() {
			fmt.Println("  " + guard.Debug(b.g))
		})
	}

	for _, r := range c.Reports() {
		fmt.Println(r.Format(prog.Fset))
	}
}

// renderGuardGraph exports the member-to-lock binding as an image, or opens
// it in xdot when -visualize is set.
func renderGuardGraph(prog *ssa.Program, c *checker.Checker) {
	g := graph.BuildGraph(prog.Fset, c.FieldGuards(), c.FuncGuards())

	if opts.Visualize() {
		g.ShowDot()
		return
	}

	out, err := g.Export(opts.OutputFile(), opts.OutputFormat())
	if err != nil {
		log.Fatalln("Guard graph rendering failed:", err)
	}
	log.Println("Guard graph exported to", out)
}
