package graph

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/test"
)

func build(t *testing.T, modules MapLoader, entries ...string) *Graph {
	t.Helper()
	g, err := Build(modules, entries, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return g
}

func ids(modules []*Module) []string {
	var out []string
	for _, m := range modules {
		out = append(out, m.ID())
	}
	return out
}

func hasCode(g *Graph, code diagnostic.Code) bool {
	for _, c := range g.Diagnostics.Codes() {
		if c == code {
			return true
		}
	}
	return false
}

func TestExecutionOrderAndExternals(t *testing.T) {
	g := build(t, MapLoader{
		"main.js": "import { a } from './a.js';\nimport { b } from './b';\nimport 'side';\nimport React from 'react';\nexport const x = a + b + React;",
		"a.js":    "import { b } from './b.js';\nexport const a = b;",
		"b.js":    "export const b = 1;",
	}, "main.js")

	test.AssertDeepEqual(t, ids(g.Modules), []string{"b.js", "a.js", "main.js"})
	test.AssertDeepEqual(t, ids(g.Entries), []string{"main.js"})
	test.AssertDeepEqual(t, g.ExternalSources, []string{"side", "react"})
	for i, m := range g.Modules {
		test.AssertEqual(t, m.ExecIndex(), i)
	}

	main := g.Module("main.js")
	test.AssertEqual(t, main.IsEntry(), true)
	test.AssertEqual(t, g.Module("a.js").IsEntry(), false)

	// Imports are bound straight to the exporting module's variable.
	a, _ := main.TraceImport("a")
	test.AssertEqual(t, a, g.Module("a.js").Program.Scope.Variables["a"])

	react, ok := main.TraceImport("React")
	test.AssertEqual(t, ok, true)
	ext, isExternal := react.(*ast.ExternalVariable)
	if !isExternal {
		t.Fatalf("expected an external variable, got %T", react)
	}
	test.AssertEqual(t, ext.Source, "react")
	test.AssertEqual(t, ext.Imported, "default")
	test.AssertEqual(t, len(g.ExternalVariables()), 1)

	_, ok = main.TraceImport("x")
	test.AssertEqual(t, ok, false)
}

func TestTraceExportThroughReexports(t *testing.T) {
	g := build(t, MapLoader{
		"main.js": "export * from './x.js';\nexport { y as renamed } from './y.js';\nexport * as ns from './z.js';\nexport * from 'ext';",
		"x.js":    "export const fromX = 1;\nexport default 2;",
		"y.js":    "export const y = 1;",
		"z.js":    "export const z = 1;",
	}, "main.js")

	main := g.Module("main.js")
	test.AssertEqual(t, main.TraceExport("fromX"), g.Module("x.js").Program.Scope.Variables["fromX"])
	test.AssertEqual(t, main.TraceExport("renamed"), g.Module("y.js").Program.Scope.Variables["y"])
	test.AssertEqual(t, main.TraceExport("ns"), ast.Variable(g.Module("z.js").Namespace()))
	test.AssertEqual(t, main.TraceExport("default"), nil)
	test.AssertEqual(t, main.TraceExport("missing"), nil)

	test.AssertDeepEqual(t, main.Exports(), []string{"renamed", "ns"})
	test.AssertDeepEqual(t, main.Reexports(), []string{"fromX", "*ext"})
	test.AssertDeepEqual(t, g.ExternalReexports(main), []string{"ext"})

	var names []string
	for _, e := range g.EntryExports(main) {
		names = append(names, e.Name)
	}
	test.AssertDeepEqual(t, names, []string{"fromX", "ns", "renamed"})
}

func TestNamespaceConflict(t *testing.T) {
	g := build(t, MapLoader{
		"main.js":   "export * from './a.js';\nexport * from './b.js';",
		"a.js":      "export const dup = 1;\nexport * from './shared.js';",
		"b.js":      "export const dup = 2;\nexport * from './shared.js';",
		"shared.js": "export const same = 3;",
	}, "main.js")

	main := g.Module("main.js")
	test.AssertEqual(t, main.TraceExport("dup"), g.Module("a.js").Program.Scope.Variables["dup"])
	test.AssertEqual(t, hasCode(g, diagnostic.CodeNamespaceConflict), true)

	// Reaching the same binding twice is not a conflict.
	g.Diagnostics.Clear()
	test.AssertEqual(t, main.TraceExport("same"), g.Module("shared.js").Program.Scope.Variables["same"])
	test.AssertEqual(t, g.Diagnostics.Count(), 0)
}

func TestExportStarCycle(t *testing.T) {
	g := build(t, MapLoader{
		"a.js": "export * from './b.js';\nexport const a = 1;",
		"b.js": "export * from './a.js';\nexport const b = 2;",
	}, "a.js")

	a := g.Module("a.js")
	test.AssertEqual(t, a.TraceExport("missing"), nil)
	test.AssertEqual(t, a.TraceExport("b"), g.Module("b.js").Program.Scope.Variables["b"])
	test.AssertDeepEqual(t, a.Reexports(), []string{"b"})
	test.AssertEqual(t, hasCode(g, diagnostic.CodeCircularDependency), true)

	warnings := g.Diagnostics.Warnings()
	test.AssertEqual(t, warnings[0].Message, "Circular dependency: a.js -> b.js -> a.js")
}

func TestDefaultExports(t *testing.T) {
	g := build(t, MapLoader{
		"main.js": "import def from './a.js';\nimport named from './b.js';\ndef;\nnamed;",
		"a.js":    "export default 1 + 1;",
		"b.js":    "export default function named() {}",
	}, "main.js")

	def, _ := g.Module("main.js").TraceImport("def")
	test.AssertEqual(t, def.Name(), "a")
	if local, ok := def.(*ast.LocalVariable); !ok || local.Kind != ast.KindDefault {
		t.Errorf("expected the synthetic default binding, got %T", def)
	}

	named, _ := g.Module("main.js").TraceImport("named")
	test.AssertEqual(t, named, g.Module("b.js").Program.Scope.Variables["named"])
}

func TestMergedNamespaces(t *testing.T) {
	g := build(t, MapLoader{
		"main.js": "import * as ns from './lib.js';\nconsole.log(ns);",
		"lib.js":  "export * from 'ext';\nexport const own = 1;",
	}, "main.js")

	lib := g.Module("lib.js")
	test.AssertEqual(t, lib.HasNamespace(), true)
	merged := lib.Namespace().MergedNamespaces()
	test.AssertEqual(t, len(merged), 1)
	ext := merged[0].(*ast.ExternalVariable)
	test.AssertEqual(t, ext.Source, "ext")
	test.AssertEqual(t, ext.IsNamespace(), true)
	test.AssertEqual(t, lib.Namespace().RenderFirst(), false)
	test.AssertDeepEqual(t, lib.Namespace().MemberNames(), []string{"own"})
	test.AssertEqual(t, lib.Namespace().Name(), "ns")
}

func TestReexportedNamespaceMergesExternals(t *testing.T) {
	g := build(t, MapLoader{
		"main.js": "export * as ns from './a.js';",
		"a.js":    "export * from 'ext';\nexport const q = 1;",
	}, "main.js")

	exports := g.EntryExports(g.Module("main.js"))
	test.AssertEqual(t, len(exports), 1)
	ns, ok := exports[0].Variable.(*ast.NamespaceVariable)
	if !ok {
		t.Fatalf("expected a namespace, got %T", exports[0].Variable)
	}
	merged := ns.MergedNamespaces()
	test.AssertEqual(t, len(merged), 1)
	test.AssertEqual(t, merged[0].(*ast.ExternalVariable).Source, "ext")
}

func TestIncludeAllExportsRequestsPass(t *testing.T) {
	g := build(t, MapLoader{
		"lib.js": "export * from 'ext';\nexport const own = 1;",
	}, "lib.js")

	lib := g.Module("lib.js")
	g.ResetPass()
	lib.IncludeAllExports()
	test.AssertEqual(t, g.NeedsPass(), true)
	test.AssertEqual(t, lib.Program.Scope.Variables["own"].Included(), true)
	test.AssertEqual(t, g.ExternalVariables()[0].Included(), true)

	g.ResetPass()
	lib.IncludeAllExports()
	test.AssertEqual(t, g.NeedsPass(), false)
}

func TestThisIsUndefinedWarning(t *testing.T) {
	g := build(t, MapLoader{"main.js": "this.x = 1;"}, "main.js")
	warnings := g.Diagnostics.Warnings()
	test.AssertEqual(t, len(warnings), 1)
	test.AssertEqual(t, warnings[0].Code, diagnostic.CodeThisIsUndefined)
	test.AssertEqual(t, warnings[0].Position, diagnostic.Position{Offset: 0, Line: 1, Column: 1})
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		modules MapLoader
		entries []string
		want    error
	}{
		{"no entry", MapLoader{}, nil, ErrNoEntry},
		{"missing entry", MapLoader{}, []string{"main.js"}, ErrModuleNotFound},
		{"missing import", MapLoader{"main.js": "import './missing.js';"}, []string{"main.js"}, ErrModuleNotFound},
		{"syntax error", MapLoader{"main.js": "let a = ;"}, []string{"main.js"}, ErrParse},
		{"duplicate export", MapLoader{"main.js": "export const a = 1;\nexport { a };"}, []string{"main.js"}, ErrParse},
		{"undefined local export", MapLoader{"main.js": "export { nothing };"}, []string{"main.js"}, ErrMissingExport},
		{
			"missing import binding",
			MapLoader{"main.js": "import { nope } from './a.js';\nnope();", "a.js": "export const a = 1;"},
			[]string{"main.js"},
			ErrMissingExport,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.modules, tt.entries, Options{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseErrorDiagnostic(t *testing.T) {
	list := diagnostic.NewList(nil)
	_, err := Build(MapLoader{"main.js": "const a = 1;\nlet b = ;"}, []string{"main.js"}, Options{Diagnostics: list})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected a parse error, got %v", err)
	}
	errs := list.Errors()
	test.AssertEqual(t, len(errs), 1)
	test.AssertEqual(t, errs[0].Code, diagnostic.CodeParseError)
	test.AssertEqual(t, errs[0].File, "main.js")
	test.AssertEqual(t, errs[0].Position.Line, 2)
}

func TestResolve(t *testing.T) {
	loader := MapLoader{
		"src/main.js":       "",
		"src/util.js":       "",
		"lib/index.js":      "",
		"src/deep/conf.mjs": "",
	}
	tests := []struct {
		importer  string
		specifier string
		want      string
		ok        bool
	}{
		{"src/main.js", "./util.js", "src/util.js", true},
		{"src/main.js", "./util", "src/util.js", true},
		{"src/main.js", "../lib", "lib/index.js", true},
		{"src/main.js", "./deep/conf", "src/deep/conf.mjs", true},
		{"src/deep/conf.mjs", "/src/util.js", "src/util.js", true},
		{"src/main.js", "./nope", "", false},
	}
	for _, tt := range tests {
		got, ok := Resolve(loader, tt.importer, tt.specifier)
		test.AssertEqual(t, got, tt.want)
		test.AssertEqual(t, ok, tt.ok)
	}

	test.AssertEqual(t, IsRelative("lodash"), false)
	test.AssertEqual(t, IsRelative("./a"), true)
	test.AssertEqual(t, IsRelative("../a"), true)

	id, ok := ResolveEntry(loader, "./src/main")
	test.AssertEqual(t, id, "src/main.js")
	test.AssertEqual(t, ok, true)
}

func TestFSLoader(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"main.js":      "import { v } from './lib/value.js';\nexport const out = v;",
		"lib/value.js": "export const v = 1;",
	}
	for name, source := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g, err := Build(FSLoader{Root: dir}, []string{"main.js"}, Options{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if diff := cmp.Diff([]string{"lib/value.js", "main.js"}, ids(g.Modules)); diff != "" {
		t.Errorf("module order mismatch (-want +got):\n%s", diff)
	}

	_, err = FSLoader{Root: dir}.Load("nope.js")
	if !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestExternalOption(t *testing.T) {
	g, err := Build(MapLoader{
		"main.js": "import { v } from './vendor.js';\nexport const out = v;",
	}, []string{"main.js"}, Options{External: []string{"./vendor.js"}})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	test.AssertDeepEqual(t, g.ExternalSources, []string{"./vendor.js"})
	test.AssertDeepEqual(t, ids(g.Modules), []string{"main.js"})
	v, _ := g.Module("main.js").TraceImport("v")
	ext, ok := v.(*ast.ExternalVariable)
	if !ok {
		t.Fatalf("expected an external variable, got %T", v)
	}
	test.AssertEqual(t, ext.Source, "./vendor.js")
}
