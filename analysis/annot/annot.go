package annot

import (
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Directive is the comment marker introducing a guard annotation. It
// protects the struct field (or method) it is attached to:
//
//	type counter struct {
//		mu sync.Mutex
//		n  int // guardedby: mu
//	}
//
// The text after the marker is a dotted lock expression, bound by the
// binder package against the declaration scope.
const Directive = "guardedby:"

// FieldDecl is a guard annotation attached to a struct field.
type FieldDecl struct {
	Field *types.Var
	Owner *types.TypeName
	Expr  string
	Pos   token.Pos
}

// FuncDecl is a guard annotation attached to a function or method,
// requiring the named lock to be held by callers.
type FuncDecl struct {
	Fn   *types.Func
	Expr string
	Pos  token.Pos
}

// BadDecl is a malformed directive: reported as a diagnostic, never fatal.
type BadDecl struct {
	Reason string
	Pos    token.Pos
}

// Annotations is the result of scanning a program for guard directives.
type Annotations struct {
	Fields map[*types.Var]FieldDecl
	Funcs  map[*types.Func]FuncDecl
	Bad    []BadDecl
}

// Collect scans the syntax of the given packages for guard directives on
// struct fields and function declarations.
func Collect(pkgs []*packages.Package) Annotations {
	res := Annotations{
		Fields: make(map[*types.Var]FieldDecl),
		Funcs:  make(map[*types.Func]FuncDecl),
	}

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			res.collectFile(pkg, file)
		}
	}

	return res
}

func (res *Annotations) collectFile(pkg *packages.Package, file *ast.File) {
	ast.Inspect(file, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncDecl:
			if expr, pos, found := directiveExpr(n.Doc); found {
				if expr == "" {
					res.Bad = append(res.Bad, BadDecl{
						Reason: "guard directive without a lock expression",
						Pos:    pos,
					})
					return false
				}
				if fn, ok := pkg.TypesInfo.Defs[n.Name].(*types.Func); ok {
					res.addFunc(fn, expr, pos)
				}
			}
			// Directives never appear below function level.
			return false

		case *ast.TypeSpec:
			st, ok := n.Type.(*ast.StructType)
			if !ok {
				return true
			}
			owner, _ := pkg.TypesInfo.Defs[n.Name].(*types.TypeName)
			res.collectStruct(pkg, st, owner)
			return false
		}
		return true
	})
}

func (res *Annotations) collectStruct(pkg *packages.Package, st *ast.StructType, owner *types.TypeName) {
	for _, field := range st.Fields.List {
		expr, pos, found := directiveExpr(field.Doc, field.Comment)
		if !found {
			continue
		}

		if expr == "" {
			res.Bad = append(res.Bad, BadDecl{
				Reason: "guard directive without a lock expression",
				Pos:    pos,
			})
			continue
		}

		if len(field.Names) == 0 {
			res.Bad = append(res.Bad, BadDecl{
				Reason: "guard directive on an embedded field",
				Pos:    pos,
			})
			continue
		}

		for _, name := range field.Names {
			fv, ok := pkg.TypesInfo.Defs[name].(*types.Var)
			if !ok {
				continue
			}
			if prev, found := res.Fields[fv]; found && prev.Expr != expr {
				res.Bad = append(res.Bad, BadDecl{
					Reason: "conflicting guard directives on " + name.Name,
					Pos:    pos,
				})
				continue
			}
			res.Fields[fv] = FieldDecl{Field: fv, Owner: owner, Expr: expr, Pos: pos}
		}
	}
}

func (res *Annotations) addFunc(fn *types.Func, expr string, pos token.Pos) {
	res.Funcs[fn] = FuncDecl{Fn: fn, Expr: expr, Pos: pos}
}

// directiveExpr scans comment groups for a guard directive and yields the
// annotation text following the marker.
func directiveExpr(groups ...*ast.CommentGroup) (string, token.Pos, bool) {
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, comment := range group.List {
			text := strings.TrimSpace(strings.TrimPrefix(
				strings.TrimPrefix(comment.Text, "//"), "/*"))
			text = strings.TrimSuffix(text, "*/")

			if !strings.HasPrefix(text, Directive) {
				continue
			}
			return strings.TrimSpace(text[len(Directive):]), comment.Pos(), true
		}
	}
	return "", token.NoPos, false
}
