package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/HugoDaniel/treeshaker/internal/bundler"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/test"
)

var sample = graph.MapLoader{
	"main.js": "import { used } from './lib.js';\nconst flag = true;\nif (flag) console.log(used);",
	"lib.js":  "export const used = 1;\nexport const unused = 2;",
}

func buildReport(t *testing.T, modules graph.MapLoader) *Report {
	t.Helper()
	result, err := bundler.Bundle(modules, []string{"main.js"})
	if err != nil {
		t.Fatalf("bundle failed: %v", err)
	}
	r, err := New(result)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	return r
}

func TestNew(t *testing.T) {
	r := buildReport(t, sample)

	test.AssertEqual(t, len(r.Modules), 2)
	lib, main := r.Modules[0], r.Modules[1]

	test.AssertEqual(t, lib.ID, "lib.js")
	test.AssertEqual(t, lib.Entry, false)
	test.AssertEqual(t, lib.Statements, 2)
	test.AssertEqual(t, lib.IncludedStatements, 1)
	test.AssertDeepEqual(t, lib.Kept, []Binding{{Name: "used"}})
	test.AssertDeepEqual(t, lib.Dropped, []string{"unused"})

	test.AssertEqual(t, main.ID, "main.js")
	test.AssertEqual(t, main.Entry, true)
	test.AssertEqual(t, main.Statements, 3)
	test.AssertEqual(t, main.IncludedStatements, 1)
	test.AssertDeepEqual(t, main.Dropped, []string{"flag"})
	test.AssertDeepEqual(t, main.Branches, []Branch{{Kind: "if", Line: 3, Column: 1, Taken: "consequent"}})

	test.AssertEqual(t, r.Totals.Statements, 5)
	test.AssertEqual(t, r.Totals.IncludedStatements, 2)
	if r.Totals.GzipSize <= 0 {
		t.Errorf("expected a gzip size, got %d", r.Totals.GzipSize)
	}
}

func TestNewRenamedBinding(t *testing.T) {
	r := buildReport(t, graph.MapLoader{
		"main.js": "import { value as other } from './a.js';\nconst value = 2;\nconsole.log(value, other);",
		"a.js":    "export const value = 1;",
	})
	test.AssertDeepEqual(t, r.Modules[1].Kept, []Binding{{Name: "value", Rendered: "value$1"}})
	test.AssertEqual(t, r.Totals.Renamed, 1)
}

func TestNewWithoutGraph(t *testing.T) {
	_, err := New(bundler.Result{})
	if !errors.Is(err, ErrNoGraph) {
		t.Errorf("expected ErrNoGraph, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"human", FormatHuman, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v", tt.input, err)
			}
			test.AssertEqual(t, got, tt.want)
		})
	}
}

func TestHuman(t *testing.T) {
	r := buildReport(t, sample)
	out := r.Human()

	if !strings.HasPrefix(out, "Build "+r.BuildID+" (") {
		t.Errorf("missing build header:\n%s", out)
	}

	// Columns are padded to the widest cell, "main.js (entry)"
	row := "lib.js" + strings.Repeat(" ", 11) + "1/2" + strings.Repeat(" ", 9) + "used  unused\n"
	if !strings.Contains(out, row) {
		t.Errorf("expected row %q in:\n%s", row, out)
	}
	row = "main.js (entry)  1/3" + strings.Repeat(" ", 9) + "-     flag\n"
	if !strings.Contains(out, row) {
		t.Errorf("expected row %q in:\n%s", row, out)
	}

	for _, want := range []string{
		"Resolved branches:\n  main.js:3:1 if -> consequent\n",
		"Statements: 2 of 5 kept\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	r := buildReport(t, sample)
	var buf bytes.Buffer
	if err := r.Write(&buf, FormatJSON); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	test.AssertEqual(t, decoded["buildId"], any(r.BuildID))
	modules := decoded["modules"].([]any)
	test.AssertEqual(t, modules[0].(map[string]any)["id"], any("lib.js"))
	test.AssertEqual(t, modules[1].(map[string]any)["entry"], any(true))
}

func TestWriteYAML(t *testing.T) {
	r := buildReport(t, sample)
	var buf bytes.Buffer
	if err := r.Write(&buf, FormatYAML); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded Report
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	test.AssertEqual(t, decoded.BuildID, r.BuildID)
	test.AssertDeepEqual(t, decoded.Modules[1].Dropped, []string{"flag"})
	test.AssertEqual(t, decoded.Totals.IncludedStatements, 2)
}

func TestWriteUnknownFormat(t *testing.T) {
	r := buildReport(t, sample)
	if err := r.Write(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
