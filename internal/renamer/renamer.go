// Package renamer gives every included binding of a bundle a unique name.
//
// All modules of a bundle share one top-level scope once they are
// concatenated, so the renamer:
// - Reserves keywords, referenced globals and external import names
// - Lets entry exports keep their names where possible
// - Suffixes colliding top-level names with $1, $2... in execution order
// - Renames nested bindings that would shadow a renamed outer binding
package renamer

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/graph"
	"github.com/HugoDaniel/treeshaker/internal/lexer"
	"github.com/HugoDaniel/treeshaker/internal/logging"
)

// ----------------------------------------------------------------------------
// Renamer
// ----------------------------------------------------------------------------

// Renamer assigns render names to the variables of one bundle.
type Renamer struct {
	used    map[string]bool
	renamed int
	logger  *slog.Logger
}

// New creates a renamer with the reserved names already taken.
func New(logger *slog.Logger) *Renamer {
	return &Renamer{
		used:   ComputeReservedNames(),
		logger: logging.OrDiscard(logger),
	}
}

// Deconflict renames the included variables of g. It returns the number of
// variables whose render name differs from their name.
func Deconflict(g *graph.Graph, logger *slog.Logger) int {
	r := New(logger)
	r.Reserve(g)
	r.deconflictTopLevel(g)
	for _, m := range g.Modules {
		r.deconflictNested(m)
	}
	r.logger.Debug("deconflicted names", "renamed", r.renamed)
	return r.renamed
}

// Reserve marks the globals referenced by g as taken. Their names cannot be
// changed, so bundle bindings must avoid them.
func (r *Renamer) Reserve(g *graph.Graph) {
	for name, v := range g.Global().Variables {
		if _, ok := v.(*ast.GlobalVariable); ok {
			r.used[name] = true
		}
	}
}

// Used reports whether name is taken.
func (r *Renamer) Used(name string) bool {
	return r.used[name]
}

// Claim gives v its own name, or the first free suffixed form of it.
func (r *Renamer) Claim(v ast.Variable) {
	name := r.unique(v.Name(), nil)
	r.used[name] = true
	v.SetRenderName(name)
	if name != v.Name() {
		r.renamed++
	}
}

// unique returns base if it is free, otherwise base$1, base$2 and so on.
// Names in extra are treated as taken.
func (r *Renamer) unique(base string, extra map[string]bool) string {
	taken := func(name string) bool { return r.used[name] || extra[name] }
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "$" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (r *Renamer) deconflictTopLevel(g *graph.Graph) {
	seen := make(map[ast.Variable]bool)
	claim := func(v ast.Variable) {
		if v == nil || seen[v] || !v.Included() {
			return
		}
		seen[v] = true
		r.Claim(v)
	}

	for _, ext := range g.ExternalVariables() {
		claim(ext)
	}
	for _, entry := range g.Entries {
		for _, export := range g.EntryExports(entry) {
			claim(export.Variable)
		}
	}
	for _, m := range g.Modules {
		for _, v := range TopLevelVariables(m) {
			claim(v)
		}
	}
}

// TopLevelVariables returns the module-scope bindings of m in declaration
// order, followed by its namespace object if it has one.
func TopLevelVariables(m *graph.Module) []ast.Variable {
	var locals []*ast.LocalVariable
	for _, v := range m.Program.Scope.Variables {
		if local, ok := v.(*ast.LocalVariable); ok && local.Kind != ast.KindThis {
			locals = append(locals, local)
		}
	}
	if def := m.DefaultVariable(); def != nil && m.Program.Scope.Variables[def.Name()] != ast.Variable(def) {
		locals = append(locals, def)
	}
	sort.SliceStable(locals, func(i, j int) bool {
		return declarationStart(locals[i]) < declarationStart(locals[j])
	})

	out := make([]ast.Variable, 0, len(locals)+1)
	for _, v := range locals {
		out = append(out, v)
	}
	if m.HasNamespace() {
		out = append(out, m.Namespace())
	}
	return out
}

func declarationStart(v *ast.LocalVariable) int {
	if len(v.Declarations) == 0 {
		return -1
	}
	return v.Declarations[0].Span().Start
}

// ----------------------------------------------------------------------------
// Nested Scopes
// ----------------------------------------------------------------------------

// deconflictNested renames bindings of function and block scopes that would
// hide an outer binding which is printed under a name the source did not use.
func (r *Renamer) deconflictNested(m *graph.Module) {
	// forbidden[s] holds the render names referenced from s or any scope
	// nested in it under a different source name.
	forbidden := make(map[*ast.Scope]map[string]bool)
	forbid := func(scope *ast.Scope, name string) {
		for s := scope; s != nil && s != m.Program.Scope.Parent; s = s.Parent {
			if forbidden[s] == nil {
				forbidden[s] = make(map[string]bool)
			}
			forbidden[s][name] = true
		}
	}

	ast.Walk(m.Program, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Identifier:
			if n.Variable != nil && n.Scope != nil && n.Variable.RenderName() != n.Name {
				forbid(n.Scope, n.Variable.RenderName())
			}
		case *ast.MemberExpression:
			if n.Variable != nil {
				if id, ok := n.Object.(*ast.Identifier); ok && id.Scope != nil {
					forbid(id.Scope, n.Variable.RenderName())
				}
			}
		}
		return true
	})

	var visit func(s *ast.Scope)
	visit = func(s *ast.Scope) {
		if len(forbidden[s]) > 0 {
			r.renameShadowing(s, forbidden[s])
		}
		for _, child := range s.Children {
			visit(child)
		}
	}
	for _, child := range m.Program.Scope.Children {
		visit(child)
	}
}

func (r *Renamer) renameShadowing(s *ast.Scope, forbidden map[string]bool) {
	names := make([]string, 0, len(s.Variables))
	for name := range s.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var local map[string]bool
	for _, name := range names {
		v, ok := s.Variables[name].(*ast.LocalVariable)
		if !ok || v.Kind == ast.KindThis || !forbidden[v.RenderName()] {
			continue
		}
		if local == nil {
			local = subtreeNames(s)
			for name := range forbidden {
				local[name] = true
			}
		}
		renamed := r.unique(v.Name(), local)
		local[renamed] = true
		v.SetRenderName(renamed)
		r.renamed++
	}
}

// subtreeNames returns the names bound in s and every scope below it.
func subtreeNames(s *ast.Scope) map[string]bool {
	names := make(map[string]bool)
	var walk func(s *ast.Scope)
	walk = func(s *ast.Scope) {
		for name := range s.Variables {
			names[name] = true
		}
		for _, child := range s.Children {
			walk(child)
		}
	}
	walk(s)
	return names
}

// ----------------------------------------------------------------------------
// Reserved Names
// ----------------------------------------------------------------------------

// ComputeReservedNames builds a set of names no binding may be printed as.
func ComputeReservedNames() map[string]bool {
	reserved := make(map[string]bool)

	for kw := range lexer.Keywords {
		reserved[kw] = true
	}
	for word := range lexer.ReservedWords {
		reserved[word] = true
	}

	// Words that are only reserved in strict code or in some contexts.
	for _, word := range []string{
		"arguments", "eval", "implements", "interface", "package",
		"private", "protected", "public", "static",
	} {
		reserved[word] = true
	}

	// Names the printer emits itself.
	reserved["undefined"] = true
	reserved["_mergeNamespaces"] = true

	return reserved
}
