package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/lockcheck/lockcheck/analysis/annot"
	"github.com/lockcheck/lockcheck/analysis/checker"
	"github.com/lockcheck/lockcheck/pkgutil"
	"github.com/lockcheck/lockcheck/utils"

	"github.com/fatih/color"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

var (
	opts = utils.Opts()
	task = opts.Task()
)

func main() {
	utils.ParseArgs()
	path := utils.MakePath()

	conf, err := utils.LoadConfig(opts.ConfigPath())
	if err != nil {
		log.Fatalln(err)
	}

	pkgs, err := pkgutil.LoadPackages(pkgutil.LoadConfig{
		GoPath:       opts.GoPath(),
		ModulePath:   opts.ModulePath(),
		IncludeTests: opts.IncludeTests(),
	}, path)
	if err != nil {
		log.Println("Failed pkgutil.LoadPackages")
		log.Println(err)
		os.Exit(1)
	}

	prog, _ := ssautil.AllPackages(pkgs, ssa.InstantiateGenerics)
	prog.Build()

	if task.IsCanBuild() {
		log.Println("Build and SSA construction succeeded")
		return
	}

	annots := annot.Collect(pkgs)
	utils.VerbosePrint("Collected %d field and %d function guard annotations\n",
		len(annots.Fields), len(annots.Funcs))

	c := checker.New(prog, annots, checker.Config{Lockers: conf.Lockers})

	switch {
	case task.IsGuards():
		printGuards(prog, c)
	case task.IsGuardGraph():
		renderGuardGraph(prog, c)
	case task.IsCheck():
		defer utils.TimeTrack(time.Now(), "check")

		funs := pkgutil.TargetFunctions(prog, pkgs, conf.IgnorePackages)
		reports := c.Check(funs)
		for _, r := range reports {
			fmt.Println(r.Format(prog.Fset))
		}

		if len(reports) > 0 {
			fmt.Printf("\nFound %d problems.\n", len(reports))
			os.Exit(1)
		}

		fmt.Println(utils.CanColorize(color.New(color.FgHiGreen).SprintFunc())(
			"No violations found."))
	}
}
