package bazel

import (
	"github.com/bazelbuild/buildtools/build"
)

// calls returns the top-level function calls of f.
func calls(f *build.File) []*build.CallExpr {
	var out []*build.CallExpr
	for _, stmt := range f.Stmt {
		if call, ok := stmt.(*build.CallExpr); ok {
			out = append(out, call)
		}
	}
	return out
}

func callName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

func keyword(call *build.CallExpr, name string) *build.AssignExpr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign
		}
	}
	return nil
}

func stringAttr(call *build.CallExpr, name string) string {
	if assign := keyword(call, name); assign != nil {
		if str, ok := assign.RHS.(*build.StringExpr); ok {
			return str.Value
		}
	}
	return ""
}

func stringsAttr(call *build.CallExpr, name string) []string {
	assign := keyword(call, name)
	if assign == nil {
		return nil
	}
	list, ok := assign.RHS.(*build.ListExpr)
	if !ok {
		return nil
	}
	var out []string
	for _, elem := range list.List {
		if str, ok := elem.(*build.StringExpr); ok {
			out = append(out, str.Value)
		}
	}
	return out
}

func boolAttr(call *build.CallExpr, name string) bool {
	if assign := keyword(call, name); assign != nil {
		if ident, ok := assign.RHS.(*build.Ident); ok {
			return ident.Name == "True"
		}
	}
	return false
}

// setStringAttr replaces the value of a string keyword argument. It
// reports false when the argument is absent or not a string literal.
func setStringAttr(call *build.CallExpr, name, value string) bool {
	assign := keyword(call, name)
	if assign == nil {
		return false
	}
	str, ok := assign.RHS.(*build.StringExpr)
	if !ok {
		return false
	}
	if str.Value == value {
		return false
	}
	str.Value = value
	str.Token = ""
	return true
}
