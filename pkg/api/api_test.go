package api

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBundle(t *testing.T) {
	modules := map[string]string{
		"main.js": "import { used } from './lib.js';\nconsole.log(used);",
		"lib.js":  "export const used = 1;\nexport const unused = 2;",
	}

	result := Bundle(modules, []string{"main.js"}, DefaultBundleOptions())

	// Check no errors
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Code != "const used = 1;\n\nconsole.log(used);\n" {
		t.Errorf("unexpected code:\n%s", result.Code)
	}
	if strings.Contains(result.Code, "unused") {
		t.Error("unused export should have been removed")
	}

	// Check bundle is smaller
	if result.BundledSize >= result.OriginalSize {
		t.Errorf("expected bundled size < original, got %d >= %d", result.BundledSize, result.OriginalSize)
	}
	if result.Statements != 4 || result.IncludedStatements != 2 {
		t.Errorf("expected 2 of 4 statements, got %d of %d", result.IncludedStatements, result.Statements)
	}
	if result.GzipSize <= 0 {
		t.Errorf("expected a gzip size, got %d", result.GzipSize)
	}
	if result.Passes < 1 {
		t.Errorf("expected at least one pass, got %d", result.Passes)
	}
}

func TestBundleOptions(t *testing.T) {
	modules := map[string]string{
		"main.js": "const unused = 1;\nexport const x = 2;",
	}

	tests := []struct {
		name     string
		modify   func(*BundleOptions)
		expected string
	}{
		{"Default", func(*BundleOptions) {}, "const x = 2;\n\nexport { x };\n"},
		{"NoTreeshake", func(o *BundleOptions) { o.Treeshake = false }, "const unused = 1;\nconst x = 2;\n\nexport { x };\n"},
		{"MinifyWhitespace", func(o *BundleOptions) { o.MinifyWhitespace = true }, "const x=2;export{x};"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultBundleOptions()
			tt.modify(&opts)
			result := Bundle(modules, []string{"main.js"}, opts)
			if len(result.Errors) > 0 {
				t.Fatalf("unexpected errors: %v", result.Errors)
			}
			if result.Code != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result.Code)
			}
		})
	}
}

func TestBundleErrors(t *testing.T) {
	tests := []struct {
		name    string
		modules map[string]string
		entries []string
		code    string
	}{
		{"MissingEntry", map[string]string{}, []string{"main.js"}, "UNRESOLVED_ENTRY"},
		{"SyntaxError", map[string]string{"main.js": "const = 1;"}, []string{"main.js"}, "PARSE_ERROR"},
		{"NoEntries", map[string]string{"main.js": ""}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Bundle(tt.modules, tt.entries, DefaultBundleOptions())
			if len(result.Errors) == 0 {
				t.Fatal("expected errors")
			}
			if result.Errors[0].Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, result.Errors[0].Code)
			}
			if result.Errors[0].Message == "" {
				t.Error("expected an error message")
			}
			if result.Code != "" {
				t.Errorf("expected no code, got %q", result.Code)
			}
		})
	}
}

func TestBundleWarnings(t *testing.T) {
	modules := map[string]string{"main.js": "this.x = 1;"}

	result := Bundle(modules, []string{"main.js"}, DefaultBundleOptions())
	if len(result.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", result.Warnings)
	}
	w := result.Warnings[0]
	if w.Code != "THIS_IS_UNDEFINED" || w.File != "main.js" || w.Line != 1 || w.Column != 1 {
		t.Errorf("unexpected warning %+v", w)
	}

	opts := DefaultBundleOptions()
	opts.Silence = []string{"THIS_IS_UNDEFINED"}
	result = Bundle(modules, []string{"main.js"}, opts)
	if len(result.Warnings) != 0 {
		t.Errorf("expected silenced warnings, got %v", result.Warnings)
	}
}

func TestBundleResultJSON(t *testing.T) {
	result := Bundle(map[string]string{"main.js": "export const x = 1;"}, []string{"main.js"}, DefaultBundleOptions())
	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, key := range []string{`"code":`, `"errors":[]`, `"warnings":[]`, `"gzipSize":`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in %s", key, data)
		}
	}
}

func TestAnalyze(t *testing.T) {
	modules := map[string]string{
		"main.js": "import { value as other } from './a.js';\nconst value = 2;\nconst debug = false;\nif (debug) console.log('debug');\nelse console.log('quiet');\nconsole.log(value, other);",
		"a.js":    "export const value = 1;\nexport const dead = 3;",
	}

	result := Analyze(modules, []string{"main.js"}, DefaultBundleOptions())
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(result.Modules))
	}

	a, main := result.Modules[0], result.Modules[1]
	if a.ID != "a.js" || a.Entry {
		t.Errorf("unexpected first module %+v", a)
	}
	if len(a.Dropped) != 1 || a.Dropped[0] != "dead" {
		t.Errorf("expected dead to be dropped, got %v", a.Dropped)
	}

	if !main.Entry {
		t.Error("main.js should be an entry")
	}
	if main.Renamed["value"] != "value$1" {
		t.Errorf("expected value to be renamed to value$1, got %v", main.Renamed)
	}
	if len(main.Dropped) != 1 || main.Dropped[0] != "debug" {
		t.Errorf("expected debug to be dropped, got %v", main.Dropped)
	}
	if len(main.Branches) != 1 {
		t.Fatalf("expected 1 resolved branch, got %v", main.Branches)
	}
	b := main.Branches[0]
	if b.Kind != "if" || b.Taken != "alternate" || b.Line != 4 {
		t.Errorf("unexpected branch %+v", b)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	result := Analyze(map[string]string{}, []string{"main.js"}, DefaultBundleOptions())
	if len(result.Errors) == 0 {
		t.Fatal("expected errors")
	}
	if result.Modules != nil {
		t.Errorf("expected no modules, got %v", result.Modules)
	}
}
