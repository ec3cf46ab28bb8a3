package checker

import (
	"fmt"
	"go/token"
	"sort"

	"github.com/lockcheck/lockcheck/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Pos      func(...interface{}) string
	Category func(...interface{}) string
}{
	Pos: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
	Category: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiRed).SprintFunc())(is...)
	},
}

// Category classifies a diagnostic.
type Category int

const (
	// UnguardedAccess is an access of a guarded field without its lock.
	UnguardedAccess Category = iota
	// UnguardedCall is a call of a guard-annotated function without the
	// declared lock.
	UnguardedCall
	// BadAnnotation is a guard directive that failed to parse or bind.
	BadAnnotation
)

func (c Category) String() string {
	switch c {
	case UnguardedAccess:
		return "unguarded access"
	case UnguardedCall:
		return "unguarded call"
	case BadAnnotation:
		return "bad guard annotation"
	}
	return "unknown"
}

// Report is one diagnostic of the checker.
type Report struct {
	Category Category
	Pos      token.Pos
	Message  string
}

func (c *Checker) report(cat Category, pos token.Pos, format string, args ...interface{}) {
	c.reports = append(c.reports, Report{cat, pos, fmt.Sprintf(format, args...)})
}

// Reports returns all diagnostics gathered so far, ordered by source
// position, then category and message.
func (c *Checker) Reports() []Report {
	fset := c.prog.Fset
	sort.SliceStable(c.reports, func(i, j int) bool {
		pi, pj := fset.Position(c.reports[i].Pos), fset.Position(c.reports[j].Pos)
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		if pi.Column != pj.Column {
			return pi.Column < pj.Column
		}
		if c.reports[i].Category != c.reports[j].Category {
			return c.reports[i].Category < c.reports[j].Category
		}
		return c.reports[i].Message < c.reports[j].Message
	})
	return c.reports
}

// Format renders a report for terminal output.
func (r Report) Format(fset *token.FileSet) string {
	return fmt.Sprintf("%s: %s: %s",
		colorize.Pos(fset.Position(r.Pos).String()),
		colorize.Category(r.Category.String()),
		r.Message)
}

// Plain renders a report without color, for golden tests and tooling.
func (r Report) Plain(fset *token.FileSet) string {
	return fmt.Sprintf("%s: %s: %s", fset.Position(r.Pos), r.Category, r.Message)
}
