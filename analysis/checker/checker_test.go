package checker

import (
	"fmt"
	"testing"

	"github.com/lockcheck/lockcheck/analysis/annot"
	tu "github.com/lockcheck/lockcheck/testutil"

	"golang.org/x/tools/go/expect"
)

// runCheck loads a program given as source, runs the checker over its
// functions and compares the diagnostics against the //@ report(...) notes
// in the source. Every note must be matched by a diagnostic of the given
// category on its line, and vice versa.
func runCheck(t *testing.T, src string) {
	runCheckWithConfig(t, src, Config{})
}

func runCheckWithConfig(t *testing.T, src string, cfg Config) {
	loadRes := tu.LoadPackageFromSource(t, src)
	notes := tu.MakeNotesManager(t, loadRes)

	annots := annot.Collect(loadRes.Pkgs)
	c := New(loadRes.Prog, annots, cfg)
	reports := c.Check(loadRes.Functions())

	fset := loadRes.Prog.Fset

	type key struct {
		line     int
		category string
	}
	unmatched := make(map[key]int)
	for _, r := range reports {
		unmatched[key{fset.Position(r.Pos).Line, r.Category.String()}]++
	}

	notes.ForEachNote(func(_ int, note *expect.Note) {
		if note.Name != "report" {
			t.Errorf("Unknown note %s", note.Name)
			return
		}
		if len(note.Args) != 1 {
			t.Errorf("Expected one argument on note at %s", notes.PositionOf(note))
			return
		}
		category := fmt.Sprintf("%s", note.Args[0])

		k := key{notes.PositionOf(note).Line, category}
		if unmatched[k] == 0 {
			t.Errorf("Expected a %q diagnostic at %s, got none",
				category, notes.PositionOf(note))
			return
		}
		unmatched[k]--
	})

	for k, count := range unmatched {
		for ; count > 0; count-- {
			t.Errorf("Unexpected %q diagnostic at line %d", k.category, k.line)
		}
	}

	if t.Failed() {
		for _, r := range reports {
			t.Log(r.Plain(fset))
		}
	}
}

func TestCheckFieldGuard(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int // guardedby: mu
}

func (c *counter) locked() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	c.n++ //@ report("unguarded access")
}

func (c *counter) unlocked() {
	c.n++ //@ report("unguarded access")
}

func main() {}`)
}

func TestCheckDeferredUnlock(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int // guardedby: mu
}

func (c *counter) bump() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func main() {}`)
}

func TestCheckBranchMeet(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int // guardedby: mu
}

func (c *counter) maybe(b bool) {
	if b {
		c.mu.Lock()
	}
	c.n++ //@ report("unguarded access")
	if b {
		c.mu.Unlock()
	}
}

func (c *counter) both(b bool) {
	if b {
		c.mu.Lock()
	} else {
		c.mu.Lock()
	}
	c.n++
	c.mu.Unlock()
}

func main() {}`)
}

func TestCheckRWMutex(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type table struct {
	rw sync.RWMutex
	m  map[string]int // guardedby: rw
}

func (t *table) get(k string) int {
	t.rw.RLock()
	defer t.rw.RUnlock()
	return t.m[k]
}

func (t *table) peek(k string) int {
	return t.m[k] //@ report("unguarded access")
}

func main() {}`)
}

func TestCheckEmbeddedLocker(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type store struct {
	sync.Mutex
	v int // guardedby: Mutex
}

func (s *store) ok() {
	s.Lock()
	s.v++
	s.Unlock()
}

func (s *store) bad() {
	s.v++ //@ report("unguarded access")
}

func main() {}`)
}

func TestCheckGlobalGuard(t *testing.T) {
	runCheck(t, `
package main

import "sync"

var gmu sync.Mutex

type state struct {
	v int // guardedby: gmu
}

func touch(s *state) {
	s.v++ //@ report("unguarded access")
	gmu.Lock()
	s.v++
	gmu.Unlock()
}

func main() {}`)
}

func TestCheckFuncGuard(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type account struct {
	mu  sync.Mutex
	bal int
}

// guardedby: this.mu
func (a *account) deposit(n int) { a.bal += n }

func (a *account) ok(n int) {
	a.mu.Lock()
	a.deposit(n)
	a.mu.Unlock()
}

func (a *account) bad(n int) {
	a.deposit(n) //@ report("unguarded call")
}

func main() {}`)
}

func TestCheckGoAndDeferredCall(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type account struct {
	mu  sync.Mutex
	bal int
}

// guardedby: this.mu
func (a *account) deposit(n int) { a.bal += n }

func (a *account) bad(n int) {
	go a.deposit(n)    //@ report("unguarded call")
	defer a.deposit(n) //@ report("unguarded call")
}

func (a *account) ok(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	defer a.deposit(n)
}

func main() {}`)
}

func TestCheckLocalLockParameter(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type pair struct{ v int }

// guardedby: l
func update(l *sync.Mutex, p *pair) {
	p.v++
}

func caller(l *sync.Mutex, p *pair) {
	l.Lock()
	update(l, p)
	l.Unlock()
	update(l, p) //@ report("unguarded call")
}

func main() {}`)
}

func TestCheckBadAnnotation(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int /* guardedby: nope */ //@ report("bad guard annotation")
}

func main() {}`)
}

func TestCheckAliasedLock(t *testing.T) {
	runCheck(t, `
package main

import "sync"

type counter struct {
	mu sync.Mutex
	n  int // guardedby: mu
}

func (c *counter) viaAlias() {
	l := &c.mu
	l.Lock()
	c.n++
	l.Unlock()
}

func main() {}`)
}

func TestCheckConfiguredLocker(t *testing.T) {
	// evlock's Lock takes an argument, so it lacks the usual locker shape
	// and must be allowed through the configuration.
	runCheckWithConfig(t, `
package main

type evlock struct{ held bool }

func (l *evlock) Lock(who string) { l.held = true }
func (l *evlock) Unlock()         { l.held = false }

type box struct {
	l evlock
	v int // guardedby: l
}

func (b *box) ok() {
	b.l.Lock("me")
	b.v++
	b.l.Unlock()
}

func (b *box) bad() {
	b.v++ //@ report("unguarded access")
}

func main() {}`, Config{Lockers: []string{"testpackage.evlock"}})
}
