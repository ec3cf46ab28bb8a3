package testutil

import (
	"fmt"
	"go/token"
	"testing"

	"golang.org/x/tools/go/expect"
)

// NotesManager gathers the expectation notes of a loaded package. Notes are
// written as //@ comments in test programs, e.g.:
//
//	s.count++ //@ report("unguarded access")
type NotesManager struct {
	notes   []*expect.Note
	loadRes LoadResult
}

func MakeNotesManager(t *testing.T, loadRes LoadResult) (n NotesManager) {
	n.loadRes = loadRes

	for _, file := range loadRes.MainPkg.Syntax {
		notes, err := expect.ExtractGo(loadRes.Prog.Fset, file)
		if err != nil {
			t.Fatal(err)
		}

		n.notes = append(n.notes, notes...)
	}

	return
}

func (n NotesManager) Notes() []*expect.Note {
	return n.notes
}

func (n NotesManager) ForEachNote(do func(i int, note *expect.Note)) {
	for i, note := range n.notes {
		do(i, note)
	}
}

// PositionOf resolves the source position a note is attached to.
func (n NotesManager) PositionOf(note *expect.Note) token.Position {
	return n.loadRes.Prog.Fset.Position(note.Pos)
}

func (n NotesManager) String() (str string) {
	str = "Note manager found the following notes:\n"
	for _, note := range n.notes {
		str += fmt.Sprintf("%s(%v) at position: %s\n", note.Name, note.Args, n.PositionOf(note))
	}

	return
}

func (n NotesManager) LoadResult() LoadResult {
	return n.loadRes
}
