// Package report describes what a build kept and what it dropped.
//
// A Report is built from a bundler.Result and can be rendered as an aligned
// table for terminals, as JSON or as YAML.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/bundler"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/renamer"
)

// ErrNoGraph is returned when the build failed before linking.
var ErrNoGraph = errors.New("build has no module graph")

// Format selects how a report is written.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatHuman, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Report is the inclusion summary of one build.
type Report struct {
	BuildID  string   `json:"buildId" yaml:"buildId"`
	Passes   int      `json:"passes" yaml:"passes"`
	Modules  []Module `json:"modules" yaml:"modules"`
	External []string `json:"external,omitempty" yaml:"external,omitempty"`
	Totals   Totals   `json:"totals" yaml:"totals"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Module is the summary of one module, in execution order.
type Module struct {
	ID                 string    `json:"id" yaml:"id"`
	Entry              bool      `json:"entry,omitempty" yaml:"entry,omitempty"`
	Statements         int       `json:"statements" yaml:"statements"`
	IncludedStatements int       `json:"includedStatements" yaml:"includedStatements"`
	Kept               []Binding `json:"kept,omitempty" yaml:"kept,omitempty"`
	Dropped            []string  `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Branches           []Branch  `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// Binding is a top-level variable that made it into the bundle.
type Binding struct {
	Name string `json:"name" yaml:"name"`
	// Rendered is set when the renamer changed the name.
	Rendered string `json:"rendered,omitempty" yaml:"rendered,omitempty"`
}

// Branch is a conditional whose outcome was known at build time.
type Branch struct {
	Kind   string `json:"kind" yaml:"kind"`
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Taken  string `json:"taken" yaml:"taken"`
}

// Totals holds bundle-wide sizes and counts.
type Totals struct {
	Statements         int `json:"statements" yaml:"statements"`
	IncludedStatements int `json:"includedStatements" yaml:"includedStatements"`
	Renamed            int `json:"renamed" yaml:"renamed"`
	InputSize          int `json:"inputSize" yaml:"inputSize"`
	OutputSize         int `json:"outputSize" yaml:"outputSize"`
	GzipSize           int `json:"gzipSize" yaml:"gzipSize"`
}

// New summarises a successful build.
func New(result bundler.Result) (*Report, error) {
	g := result.Graph
	if g == nil {
		return nil, ErrNoGraph
	}

	r := &Report{
		BuildID:  result.BuildID,
		Passes:   result.Stats.Passes,
		External: g.ExternalSources,
		Totals: Totals{
			Statements:         result.Stats.Statements,
			IncludedStatements: result.Stats.IncludedStatements,
			Renamed:            result.Stats.Renamed,
			InputSize:          result.Stats.InputSize,
			OutputSize:         result.Stats.OutputSize,
			GzipSize:           result.Stats.GzipSize,
		},
	}
	for _, m := range g.Modules {
		r.Modules = append(r.Modules, newModule(m, g.Diagnostics))
	}
	for _, w := range result.Warnings() {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r, nil
}

func newModule(m *graph.Module, diags *diagnostic.List) Module {
	mod := Module{ID: m.ID(), Entry: m.IsEntry()}
	for _, stmt := range m.Program.Body {
		mod.Statements++
		if stmt.Included() {
			mod.IncludedStatements++
		}
	}

	for _, v := range renamer.TopLevelVariables(m) {
		if !v.Included() {
			mod.Dropped = append(mod.Dropped, v.Name())
			continue
		}
		b := Binding{Name: v.Name()}
		if rendered := v.RenderName(); rendered != v.Name() {
			b.Rendered = rendered
		}
		mod.Kept = append(mod.Kept, b)
	}

	ast.Walk(m.Program, func(n ast.Node) bool {
		if !n.Included() {
			return false
		}
		var kind string
		var state ast.BranchState
		switch n := n.(type) {
		case *ast.IfStatement:
			kind, state = "if", n.State()
		case *ast.ConditionalExpression:
			kind, state = "conditional", n.State()
		case *ast.LogicalExpression:
			kind, state = "logical", n.State()
		default:
			return true
		}
		if state.IsResolved() {
			pos := diags.MakePosition(m.ID(), n.Span().Start)
			mod.Branches = append(mod.Branches, Branch{
				Kind:   kind,
				Line:   pos.Line,
				Column: pos.Column,
				Taken:  state.String(),
			})
		}
		return true
	})
	return mod
}

// Write renders the report in the given format.
func (r *Report) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case FormatHuman, "":
		_, err := io.WriteString(w, r.Human())
		return err
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// Human renders the report as an aligned table.
func (r *Report) Human() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Build %s (%d %s)\n\n", r.BuildID, r.Passes, plural(r.Passes, "pass", "passes"))

	rows := [][]string{{"MODULE", "STATEMENTS", "KEPT", "DROPPED"}}
	for _, m := range r.Modules {
		id := m.ID
		if m.Entry {
			id += " (entry)"
		}
		kept := make([]string, len(m.Kept))
		for i, b := range m.Kept {
			kept[i] = b.Name
			if b.Rendered != "" {
				kept[i] += " as " + b.Rendered
			}
		}
		rows = append(rows, []string{
			id,
			fmt.Sprintf("%d/%d", m.IncludedStatements, m.Statements),
			orDash(strings.Join(kept, ", ")),
			orDash(strings.Join(m.Dropped, ", ")),
		})
	}
	writeTable(&sb, rows)

	var branches []string
	for _, m := range r.Modules {
		for _, b := range m.Branches {
			branches = append(branches, fmt.Sprintf("  %s:%d:%d %s -> %s", m.ID, b.Line, b.Column, b.Kind, b.Taken))
		}
	}
	if len(branches) > 0 {
		sb.WriteString("\nResolved branches:\n")
		sb.WriteString(strings.Join(branches, "\n"))
		sb.WriteByte('\n')
	}

	if len(r.External) > 0 {
		fmt.Fprintf(&sb, "\nExternal: %s\n", strings.Join(r.External, ", "))
	}

	t := r.Totals
	fmt.Fprintf(&sb, "\nStatements: %d of %d kept\n", t.IncludedStatements, t.Statements)
	fmt.Fprintf(&sb, "Size: %d -> %d bytes (%d gzipped)\n", t.InputSize, t.OutputSize, t.GzipSize)
	if t.Renamed > 0 {
		fmt.Fprintf(&sb, "Renamed: %d\n", t.Renamed)
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "  %s\n", w)
		}
	}
	return sb.String()
}

// writeTable pads every column but the last to its widest cell. Widths are
// measured in terminal cells so module ids with wide characters line up.
func writeTable(sb *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		sb.WriteByte('\n')
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
