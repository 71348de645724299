package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/printer"
	"github.com/HugoDaniel/treeshaker/internal/test"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func mustParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	program, errs := New(input, nil, nil).Parse()
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	ast.Bind(program)
	return program
}

// expectPrinted parses input and verifies the printed output matches expected.
func expectPrinted(t *testing.T, input string, expected string) {
	t.Helper()
	t.Run(input, func(t *testing.T) {
		t.Helper()
		program := mustParse(t, input)
		ast.IncludeAll(program)
		test.AssertEqualWithDiff(t, printer.New(printer.Options{}).PrintProgram(program), expected)
	})
}

// expectParseError verifies that parsing produces an error containing the substring.
func expectParseError(t *testing.T, input string, errorSubstring string) {
	t.Helper()
	t.Run(input+"_error", func(t *testing.T) {
		t.Helper()
		_, errs := New(input, nil, nil).Parse()
		if len(errs) == 0 {
			t.Errorf("expected parse error containing %q, got none", errorSubstring)
			return
		}
		if !strings.Contains(errs[0].Message, errorSubstring) {
			t.Errorf("expected error containing %q, got: %v", errorSubstring, errs)
		}
	})
}

// ----------------------------------------------------------------------------
// Round Trips
// ----------------------------------------------------------------------------

func TestStatements(t *testing.T) {
	expectPrinted(t, "let a = 1\nlet b = 2", "let a = 1;\nlet b = 2;\n")
	expectPrinted(t, "function f() { return\n1 }", "function f() {\n\treturn;\n\t1;\n}\n")
	expectPrinted(t, "function f(e) { throw e; }", "function f(e) {\n\tthrow e;\n}\n")
	expectPrinted(t, ";;a();", "a();\n")
	expectPrinted(t, "x += 1; x -= 2;", "x += 1;\nx -= 2;\n")
}

func TestContextualKeywords(t *testing.T) {
	expectPrinted(t, "var from = 1, as = 2, static = 3;", "var from = 1, as = 2, static = 3;\n")
	expectPrinted(t, "class A { static() {} }", "class A {\n\tstatic() {}\n}\n")
	expectPrinted(t, "class A { static static = 1; }", "class A {\n\tstatic static = 1;\n}\n")
}

func TestPropertyNames(t *testing.T) {
	expectPrinted(t, "a.default.new;", "a.default.new;\n")
	expectPrinted(t, "var o = { class: 1, if: 2 };", "var o = { class: 1, if: 2 };\n")
	expectPrinted(t, "var o = { 0x10: 1 };", "var o = { 16: 1 };\n")
}

func TestImportsAndExportsArePrintedAsDeclarations(t *testing.T) {
	expectPrinted(t, "import { a } from './a.js';\na();", "a();\n")
	expectPrinted(t, "export const x = 1;", "const x = 1;\n")
	expectPrinted(t, "export function f() {}", "function f() {}\n")
	expectPrinted(t, "export default 42;", "42;\n")
	expectPrinted(t, "export * from './all.js';", "")
}

// ----------------------------------------------------------------------------
// Imports and Exports
// ----------------------------------------------------------------------------

func TestImportSpecifiers(t *testing.T) {
	program := mustParse(t, "import def, { a, b as c, 'str' as d } from './m.js';\nimport * as ns from 'ext';\nimport 'side';")
	test.AssertEqual(t, len(program.Body), 3)

	ignorePos := cmpopts.IgnoreFields(ast.ImportSpecifier{}, "Pos")

	first := program.Body[0].(*ast.ImportDeclaration)
	test.AssertEqual(t, first.Source, "./m.js")
	if diff := cmp.Diff([]ast.ImportSpecifier{
		{Imported: "default", Local: "def"},
		{Imported: "a", Local: "a"},
		{Imported: "b", Local: "c"},
		{Imported: "str", Local: "d"},
	}, first.Specifiers, ignorePos); diff != "" {
		t.Errorf("specifiers mismatch (-want +got):\n%s", diff)
	}

	second := program.Body[1].(*ast.ImportDeclaration)
	test.AssertEqual(t, second.Source, "ext")
	if diff := cmp.Diff([]ast.ImportSpecifier{{Imported: "*", Local: "ns"}}, second.Specifiers, ignorePos); diff != "" {
		t.Errorf("namespace specifier mismatch (-want +got):\n%s", diff)
	}

	third := program.Body[2].(*ast.ImportDeclaration)
	test.AssertEqual(t, third.Source, "side")
	test.AssertEqual(t, len(third.Specifiers), 0)
}

func TestExportForms(t *testing.T) {
	program := mustParse(t, `export const x = 1, y = 2;
export { x as z, y };
export { a as b, default } from './o.js';
export * from './all.js';
export * as all from './all2.js';`)
	test.AssertEqual(t, len(program.Body), 5)

	decl := program.Body[0].(*ast.ExportNamedDeclaration)
	test.AssertEqual(t, len(decl.Declaration.(*ast.VariableDeclaration).Declarations), 2)

	ignorePos := cmpopts.IgnoreFields(ast.ExportSpecifier{}, "Pos")

	local := program.Body[1].(*ast.ExportNamedDeclaration)
	test.AssertEqual(t, local.Source, "")
	if diff := cmp.Diff([]ast.ExportSpecifier{
		{Local: "x", Exported: "z"},
		{Local: "y", Exported: "y"},
	}, local.Specifiers, ignorePos); diff != "" {
		t.Errorf("local specifiers mismatch (-want +got):\n%s", diff)
	}

	reexport := program.Body[2].(*ast.ExportNamedDeclaration)
	test.AssertEqual(t, reexport.Source, "./o.js")
	if diff := cmp.Diff([]ast.ExportSpecifier{
		{Local: "a", Exported: "b"},
		{Local: "default", Exported: "default"},
	}, reexport.Specifiers, ignorePos); diff != "" {
		t.Errorf("reexport specifiers mismatch (-want +got):\n%s", diff)
	}

	all := program.Body[3].(*ast.ExportAllDeclaration)
	test.AssertEqual(t, all.Source, "./all.js")
	test.AssertEqual(t, all.Exported, "")

	named := program.Body[4].(*ast.ExportAllDeclaration)
	test.AssertEqual(t, named.Source, "./all2.js")
	test.AssertEqual(t, named.Exported, "all")
}

func TestExportDefaultVariable(t *testing.T) {
	program := mustParse(t, "export default function named() {}")
	decl := program.Body[0].(*ast.ExportDefaultDeclaration)
	fn := decl.Declaration.(*ast.Function)
	test.AssertEqual(t, decl.DeclaresOwnBinding(), true)
	test.AssertEqual(t, ast.Variable(decl.Variable), fn.ID.Variable)
	test.AssertEqual(t, decl.Variable.Name(), "named")

	program = mustParse(t, "export default 42;")
	decl = program.Body[0].(*ast.ExportDefaultDeclaration)
	test.AssertEqual(t, decl.DeclaresOwnBinding(), false)
	test.AssertEqual(t, decl.Variable.Name(), "_default")
	test.AssertEqual(t, decl.Variable.Kind, ast.KindDefault)
	test.AssertEqual(t, decl.Variable.Init, decl.Declaration)

	program = mustParse(t, "export default function () {}")
	decl = program.Body[0].(*ast.ExportDefaultDeclaration)
	test.AssertEqual(t, decl.DeclaresOwnBinding(), false)
	test.AssertEqual(t, decl.Variable.Kind, ast.KindDefault)
}

// ----------------------------------------------------------------------------
// Scopes
// ----------------------------------------------------------------------------

func TestDeclarationScopes(t *testing.T) {
	program := mustParse(t, "var outer; { var hoisted; let blockScoped; function inner() {} }")
	block := program.Body[1].(*ast.BlockStatement)

	for _, name := range []string{"outer", "hoisted"} {
		if _, ok := program.Scope.Variables[name]; !ok {
			t.Errorf("expected %q in the module scope", name)
		}
	}
	for _, name := range []string{"blockScoped", "inner"} {
		if _, ok := block.Scope.Variables[name]; !ok {
			t.Errorf("expected %q in the block scope", name)
		}
		if _, ok := program.Scope.Variables[name]; ok {
			t.Errorf("%q leaked into the module scope", name)
		}
	}
}

func TestReferencesResolve(t *testing.T) {
	program := mustParse(t, "let x = 1;\nfunction f() { return x; }")
	fn := program.Body[1].(*ast.Function)
	ref := fn.Returns[0].Argument.(*ast.Identifier)
	test.AssertEqual(t, ref.Variable, program.Scope.Variables["x"])

	// Undeclared names become globals.
	program = mustParse(t, "console.log(1);")
	call := program.Body[0].(*ast.ExpressionStatement).Expression.(*ast.CallExpression)
	console := call.Callee.(*ast.MemberExpression).Object.(*ast.Identifier)
	if _, ok := console.Variable.(*ast.GlobalVariable); !ok {
		t.Errorf("expected a global variable, got %T", console.Variable)
	}
}

func TestFunctionReturns(t *testing.T) {
	program := mustParse(t, "function f(a) { if (a) return 1; var g = () => { return 2; }; return 3; }")
	fn := program.Body[0].(*ast.Function)
	test.AssertEqual(t, len(fn.Returns), 2)

	decl := fn.Body.Body[1].(*ast.VariableDeclaration)
	arrow := decl.Declarations[0].Init.(*ast.Function)
	test.AssertEqual(t, arrow.Kind, ast.FunctionArrow)
	test.AssertEqual(t, len(arrow.Returns), 1)
}

func TestNamedFunctionExpressionScope(t *testing.T) {
	program := mustParse(t, "var f = function g() { return g; };")
	fn := program.Body[0].(*ast.VariableDeclaration).Declarations[0].Init.(*ast.Function)
	ref := fn.Returns[0].Argument.(*ast.Identifier)

	test.AssertEqual(t, ref.Variable, fn.Scope.Variables["g"])
	if _, ok := program.Scope.Variables["g"]; ok {
		t.Errorf("function expression name leaked into the module scope")
	}
}

func TestThisBindings(t *testing.T) {
	program := mustParse(t, "class A { static s = this; i = this; }")
	class := program.Body[0].(*ast.Class)

	static := class.Members[0].Value.(*ast.ThisExpression)
	classThis, ok := static.Variable.(*ast.LocalVariable)
	if !ok {
		t.Fatalf("static this: expected a local variable, got %T", static.Variable)
	}
	test.AssertEqual(t, classThis.Kind, ast.KindThis)
	test.AssertEqual(t, classThis.Init, ast.Node(class))

	instance := class.Members[1].Value.(*ast.ThisExpression)
	if _, ok := instance.Variable.(*ast.ThisVariable); !ok {
		t.Errorf("instance this: expected a this variable, got %T", instance.Variable)
	}
	test.AssertEqual(t, instance.Variable, class.Scope.InstanceScope.Variables["this"])

	// Arrow functions see the receiver of the enclosing function.
	program = mustParse(t, "function f() { return () => this; }")
	fn := program.Body[0].(*ast.Function)
	arrow := fn.Returns[0].Argument.(*ast.Function)
	this := arrow.ExprBody.(*ast.ThisExpression)
	test.AssertEqual(t, this.Variable, fn.Scope.Variables["this"])

	program = mustParse(t, "this;")
	top := program.Body[0].(*ast.ExpressionStatement).Expression.(*ast.ThisExpression)
	test.AssertEqual(t, top.IsUndefined(), true)
}

func TestRedeclarations(t *testing.T) {
	// var, function and parameter bindings may be declared again.
	program := mustParse(t, "var a; var a;\nfunction f(p) { var p; }")
	a := program.Scope.Variables["a"].(*ast.LocalVariable)
	test.AssertEqual(t, len(a.Declarations), 2)
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

func TestParseErrors(t *testing.T) {
	expectParseError(t, "const x;", "missing initializer in const declaration")
	expectParseError(t, "let a; let a;", `Identifier "a" has already been declared`)
	expectParseError(t, "let a; var a;", `Identifier "a" has already been declared`)
	expectParseError(t, "import { a } from 'x'; import { a } from 'y';", `Identifier "a" has already been declared`)
	expectParseError(t, "import a from 'x'; var a;", `Identifier "a" has already been declared`)
	expectParseError(t, "return 1;", "return outside of function")
	expectParseError(t, "for (;;) {}", "unsupported keyword: for")
	expectParseError(t, "import('x');", "dynamic import is not supported")
	expectParseError(t, "if (a) { export const x = 1; }", "export may only appear at the top level")
	expectParseError(t, "1 = 2;", "invalid assignment target")
	expectParseError(t, "var o = {a b};", "expected }")
	expectParseError(t, "function (a) {}", "expected function name")
	expectParseError(t, "import { default } from 'x';", `"default" cannot be used as a local binding`)
	expectParseError(t, "throw\nx;", "illegal newline after throw")
	expectParseError(t, "function f(a = 1) {}", "default parameter values are not supported")
	expectParseError(t, "export { 'a-b' };", `"a-b" is not a local binding`)
	expectParseError(t, "a b", "expected ;")
}

func TestParseErrorPosition(t *testing.T) {
	_, errs := New("var a = 1;\nvar = 2;", nil, nil).Parse()
	test.AssertEqual(t, len(errs), 1)
	test.AssertEqual(t, errs[0].Line, 2)
	test.AssertEqual(t, errs[0].Column, 5)
	test.AssertEqual(t, errs[0].Error(), `2:5: expected identifier but found "="`)
}
