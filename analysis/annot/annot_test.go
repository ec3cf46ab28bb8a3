package annot_test

import (
	"strings"
	"testing"

	"github.com/lockcheck/lockcheck/analysis/annot"
	tu "github.com/lockcheck/lockcheck/testutil"
)

func collect(t *testing.T, src string) annot.Annotations {
	res := tu.LoadPackageFromSource(t, src)
	return annot.Collect(res.Pkgs)
}

func TestCollectFieldDirectives(t *testing.T) {
	annots := collect(t, `
		package main

		import "sync"

		type counter struct {
			mu sync.Mutex
			// guardedby: mu
			n int
			m int // guardedby: mu
		}

		func main() {}`)

	if len(annots.Fields) != 2 {
		t.Fatalf("Expected 2 field annotations, got %d", len(annots.Fields))
	}
	if len(annots.Bad) != 0 {
		t.Errorf("Expected no bad annotations, got %v", annots.Bad)
	}

	for field, decl := range annots.Fields {
		if decl.Expr != "mu" {
			t.Errorf("Expected field %s guarded by mu, got %q", field.Name(), decl.Expr)
		}
		if decl.Owner == nil || decl.Owner.Name() != "counter" {
			t.Errorf("Expected owner counter for field %s, got %v", field.Name(), decl.Owner)
		}
	}
}

func TestCollectFuncDirective(t *testing.T) {
	annots := collect(t, `
		package main

		import "sync"

		type counter struct {
			mu sync.Mutex
			n  int
		}

		// bump increments the counter.
		// guardedby: this.mu
		func (c *counter) bump() { c.n++ }

		func main() {}`)

	if len(annots.Funcs) != 1 {
		t.Fatalf("Expected 1 function annotation, got %d", len(annots.Funcs))
	}
	for fn, decl := range annots.Funcs {
		if fn.Name() != "bump" || decl.Expr != "this.mu" {
			t.Errorf("Got unexpected annotation %s on %s", decl.Expr, fn.Name())
		}
	}
}

func TestCollectBadDirectives(t *testing.T) {
	annots := collect(t, `
		package main

		import "sync"

		type inner struct{ mu sync.Mutex }

		type outer struct {
			inner // guardedby: mu
			// guardedby:
			n int
		}

		func main() {}`)

	if len(annots.Fields) != 0 {
		t.Errorf("Expected no field annotations, got %v", annots.Fields)
	}
	if len(annots.Bad) != 2 {
		t.Fatalf("Expected 2 bad annotations, got %v", annots.Bad)
	}

	reasons := make([]string, 0, len(annots.Bad))
	for _, bad := range annots.Bad {
		reasons = append(reasons, bad.Reason)
	}
	joined := strings.Join(reasons, "; ")
	for _, want := range []string{"embedded field", "without a lock expression"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Expected a bad annotation mentioning %q, got: %s", want, joined)
		}
	}
}
