package guard

import (
	"errors"
	"testing"
)

func TestStaticSelectNormalization(t *testing.T) {
	f := Create()
	C := testClass("C")
	F := testVar{name: "F", owner: C, typ: "sync.Mutex", static: true}
	v := testVar{name: "v", owner: C, typ: "*C"}

	canonical, err := f.Select(f.TypeLiteral(C), F)
	if err != nil {
		t.Fatal(err)
	}

	// Whatever the receiver, a static member access collapses to the
	// canonical select on the declaring type.
	for _, base := range []Expression{
		f.This(),
		f.LocalVariable(v),
		f.ClassLiteral(C),
		f.TypeLiteral(C),
	} {
		got, err := f.Select(base, F)
		if err != nil {
			t.Fatal(err)
		}

		if !got.Equal(canonical) {
			t.Errorf("select of static %s.F through %s is %s, expected %s",
				C, Debug(base), Debug(got), Debug(canonical))
		}
		if !got.Base().Equal(f.TypeLiteral(C)) {
			t.Errorf("static select base is %s, expected a type literal", Debug(got.Base()))
		}
	}
}

func TestNonStaticSelectPreservesReceiver(t *testing.T) {
	f := Create()
	C := testClass("C")
	mu := testVar{name: "mu", owner: C, typ: "sync.Mutex"}
	v := testVar{name: "v", owner: C, typ: "*C"}

	base := f.LocalVariable(v)
	got, err := f.Select(base, mu)
	if err != nil {
		t.Fatal(err)
	}

	if !got.Base().Equal(base) {
		t.Errorf("non-static select rewrote its base to %s", Debug(got.Base()))
	}

	onType, _ := f.Select(f.TypeLiteral(C), mu)
	if got.Equal(onType) {
		t.Errorf("%s equals %s despite an instance receiver", Debug(got), Debug(onType))
	}
}

func TestSelectTypeComesFromTheMember(t *testing.T) {
	f := Create()
	C := testClass("C")
	mu := testVar{name: "mu", owner: C, typ: "sync.Mutex"}
	locker := testMethod{name: "locker", owner: C, ret: "sync.Locker"}

	fieldSel, err := f.Select(f.This(), mu)
	if err != nil {
		t.Fatal(err)
	}
	if !fieldSel.Type().Equal(testType("sync.Mutex")) {
		t.Errorf("field select has type %s, expected the field's type", fieldSel.Type())
	}

	methodSel, err := f.Select(f.This(), locker)
	if err != nil {
		t.Fatal(err)
	}
	// A method's type for guard purposes is its return type, not its
	// signature type.
	if !methodSel.Type().Equal(testType("sync.Locker")) {
		t.Errorf("method select has type %s, expected the return type", methodSel.Type())
	}
}

func TestSelectRejectsNonMembers(t *testing.T) {
	f := Create()
	C := testClass("C")

	_, err := f.Select(f.This(), C)
	if err == nil {
		t.Fatal("selecting a type symbol as a member did not fail")
	}

	var imerr InvalidMemberError
	if !errors.As(err, &imerr) {
		t.Fatalf("unexpected error %v", err)
	}
	if !imerr.Sym.Equal(C) {
		t.Errorf("error names symbol %s, expected %s", imerr.Sym.Name(), C.Name())
	}
}

func TestReselect(t *testing.T) {
	f := Create()
	C := testClass("C")
	O := testClass("O")
	pkg := testPkg("p")
	mu := testVar{name: "mu", owner: C, typ: "sync.Mutex"}
	gmu := testVar{name: "Mu", owner: pkg, typ: "sync.Mutex", static: true}
	e := testVar{name: "e", owner: O, typ: "C"}

	// Re-homing an instance guard onto a new base keeps the member and
	// substitutes the base, as when an embedded struct's guard is read
	// through the embedding struct.
	inner, _ := f.Select(f.This(), mu)
	outerBase, _ := f.Select(f.This(), e)
	rehomed := f.Reselect(outerBase, inner)

	expected, _ := f.Select(outerBase, mu)
	if !rehomed.Equal(expected) {
		t.Errorf("rehomed guard is %s, expected %s", Debug(rehomed), Debug(expected))
	}

	// Re-homing a static guard re-applies normalization instead of
	// blindly substituting the new base.
	static, _ := f.Select(f.This(), gmu)
	restatic := f.Reselect(outerBase, static)
	if !restatic.Equal(static) {
		t.Errorf("rehomed static guard is %s, expected %s", Debug(restatic), Debug(static))
	}
}
