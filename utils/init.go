package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	gopath       string
	modulePath   string
	config       string
	task         string
	outputFile   string
	outputFormat string
	noColorize   bool
	verbose      bool
	includeTests bool
	visualize    bool
}

// CanColorize disables terminal colors when -nocolor is set.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

const (
	_CHECK = iota
	_GUARDS
	_GUARD_GRAPH
	_CAN_BUILD
)

var task = []struct{ flag, explanation string }{{
	"check",
	"Check every access of a guarded field and every call of a guarded function against the locks provably held",
}, {
	"guards",
	"Print the bound guard expression of every annotated field and function",
}, {
	"guard-graph",
	"Render the relation between guarded members and their locks as a dot graph",
}, {
	"check-can-build",
	"Perform a mock build of the package, attempting SSA construction",
}}

func taskFlags() string {
	var sb strings.Builder
	for _, t := range task {
		fmt.Fprintf(&sb, "  %s\n      %s\n", t.flag, t.explanation)
	}
	return sb.String()
}

var opts = &options{}

func init() {
	flag.StringVar(&opts.task, "task", "check",
		"Determines which task to perform. One of:\n"+taskFlags())
	flag.StringVar(&opts.gopath, "gopath", "",
		"GOPATH to use when loading packages in module-unaware mode.")
	flag.StringVar(&opts.modulePath, "modulepath", "",
		"Directory of the module to load (module-aware mode).")
	flag.StringVar(&opts.config, "config", "",
		"Path to a YAML configuration file.")
	flag.StringVar(&opts.outputFile, "output", "",
		"Output file for rendered graphs (without extension).")
	flag.StringVar(&opts.outputFormat, "format", "svg",
		"Output format for rendered graphs.")
	flag.BoolVar(&opts.noColorize, "nocolor", false,
		"Disable colorized terminal output.")
	flag.BoolVar(&opts.verbose, "verbose", false,
		"Print debug information while analyzing.")
	flag.BoolVar(&opts.includeTests, "tests", false,
		"Include test files when loading packages.")
	flag.BoolVar(&opts.visualize, "visualize", false,
		"Open rendered graphs in xdot instead of exporting them.")
}

// ParseArgs parses command line arguments and validates the chosen task.
func ParseArgs() {
	flag.Parse()

	for _, t := range task {
		if t.flag == opts.task {
			return
		}
	}
	log.Fatalf("Unknown task: %s\nValid tasks:\n%s", opts.task, taskFlags())
}

type optInterface struct{}

type taskInterface struct{}

// Opts exposes the command line options. The returned view is stateless,
// so it may be captured before ParseArgs runs.
func Opts() optInterface {
	return optInterface{}
}

func (optInterface) GoPath() string       { return opts.gopath }
func (optInterface) ModulePath() string   { return opts.modulePath }
func (optInterface) ConfigPath() string   { return opts.config }
func (optInterface) Task() taskInterface  { return taskInterface{} }
func (optInterface) OutputFile() string   { return opts.outputFile }
func (optInterface) OutputFormat() string { return opts.outputFormat }
func (optInterface) Verbose() bool        { return opts.verbose }
func (optInterface) IncludeTests() bool   { return opts.includeTests }
func (optInterface) Visualize() bool      { return opts.visualize }

// OnVerbose runs the given closure when -verbose is set.
func (optInterface) OnVerbose(do func()) {
	if opts.verbose {
		do()
	}
}

func (taskInterface) IsCheck() bool      { return opts.task == task[_CHECK].flag }
func (taskInterface) IsGuards() bool     { return opts.task == task[_GUARDS].flag }
func (taskInterface) IsGuardGraph() bool { return opts.task == task[_GUARD_GRAPH].flag }
func (taskInterface) IsCanBuild() bool   { return opts.task == task[_CAN_BUILD].flag }
