// Package graph loads the modules of a bundle and links them.
//
// Building a graph parses every module reachable from the entries, records
// their imports and exports, orders them for execution and binds every
// identifier to its variable. Imports are traced through re-exports to the
// variable that really holds the value, so the rest of the pipeline never
// sees import bindings.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/logging"
	"github.com/HugoDaniel/treeshaker/internal/objpath"
	"github.com/HugoDaniel/treeshaker/internal/parser"
)

var (
	// ErrNoEntry is returned when a build has no entry module.
	ErrNoEntry = errors.New("no entry module")

	// ErrModuleNotFound is returned when a module cannot be resolved or
	// loaded.
	ErrModuleNotFound = errors.New("module not found")

	// ErrParse is returned when a module has a syntax error.
	ErrParse = errors.New("parse error")

	// ErrMissingExport is returned when an import names an export that does
	// not exist.
	ErrMissingExport = errors.New("missing export")
)

// Options configures graph construction.
type Options struct {
	// Analysis tunes the side-effect analysis. Nil uses ast.DefaultOptions.
	Analysis *ast.Options

	// Diagnostics collects warnings and errors. Nil creates a new list.
	Diagnostics *diagnostic.List

	// External lists specifiers that are never loaded, even when relative.
	External []string

	Logger *slog.Logger
}

// Graph is the linked set of modules of one bundle.
type Graph struct {
	loader  Loader
	options *ast.Options
	logger  *slog.Logger
	global  *ast.Scope
	tracker *objpath.Tracker

	Diagnostics *diagnostic.List

	// Modules are in execution order.
	Modules []*Module

	// Entries are in the order they were given.
	Entries []*Module

	// ExternalSources lists external specifiers in first-import order.
	ExternalSources []string

	modules   map[string]*Module
	externals map[string]map[string]*ast.ExternalVariable
	external  map[string]bool
	needsPass bool
}

// Build loads the entries and everything they import.
func Build(loader Loader, entries []string, opts Options) (*Graph, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntry
	}

	g := &Graph{
		loader:      loader,
		options:     opts.Analysis,
		logger:      logging.OrDiscard(opts.Logger),
		tracker:     objpath.NewTracker(),
		Diagnostics: opts.Diagnostics,
		modules:     make(map[string]*Module),
		externals:   make(map[string]map[string]*ast.ExternalVariable),
		external:    make(map[string]bool),
	}
	for _, spec := range opts.External {
		g.external[spec] = true
	}
	if g.options == nil {
		g.options = ast.DefaultOptions()
	}
	if g.Diagnostics == nil {
		g.Diagnostics = diagnostic.NewList(nil)
	}
	g.global = ast.NewGlobalScope(g.options)

	for _, entry := range entries {
		id, ok := ResolveEntry(loader, entry)
		if !ok {
			g.Diagnostics.AddError("", diagnostic.CodeUnresolvedEntry,
				fmt.Sprintf("Could not resolve entry module %q", entry), 0)
			return nil, fmt.Errorf("%w: entry %s", ErrModuleNotFound, entry)
		}
		m, err := g.load(id)
		if err != nil {
			return nil, err
		}
		if !m.isEntry {
			m.isEntry = true
			g.Entries = append(g.Entries, m)
		}
	}

	g.sortModules()

	for _, m := range g.Modules {
		if err := m.checkLocalExports(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingExport, err)
		}
	}

	for _, m := range g.Modules {
		ast.Bind(m.Program)
	}
	if g.Diagnostics.HasErrors() {
		errs := g.Diagnostics.Errors()
		return nil, fmt.Errorf("%w: %s", ErrMissingExport, errs[0].Error())
	}

	g.logger.Debug("graph built", "modules", len(g.Modules), "externals", len(g.ExternalSources))
	return g, nil
}

// load parses the module id and, depth-first, its dependencies.
func (g *Graph) load(id string) (*Module, error) {
	if m, ok := g.modules[id]; ok {
		return m, nil
	}

	source, err := g.loader.Load(id)
	if err != nil {
		return nil, err
	}
	m := newModule(g, id, source)
	g.modules[id] = m
	g.Diagnostics.AddSource(id, source)

	program, errs := parser.New(source, m, g.global).Parse()
	if len(errs) > 0 {
		for _, e := range errs {
			g.Diagnostics.AddError(id, diagnostic.CodeParseError, e.Message, e.Pos)
		}
		return nil, fmt.Errorf("%w: %s:%s", ErrParse, id, errs[0].Error())
	}
	m.Program = program
	g.logger.Debug("parsed module", "id", id, "statements", len(program.Body))

	if err := m.analyzeDeclarations(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	for _, dep := range m.dependencies {
		if !IsRelative(dep.specifier) || g.external[dep.specifier] {
			g.addExternalSource(dep.specifier)
			continue
		}
		resolved, ok := Resolve(g.loader, id, dep.specifier)
		if !ok {
			g.Diagnostics.AddError(id, diagnostic.CodeUnresolvedImport,
				fmt.Sprintf("Could not resolve %q from %q", dep.specifier, id), 0)
			return nil, fmt.Errorf("%w: %s imported by %s", ErrModuleNotFound, dep.specifier, id)
		}
		if dep.module, err = g.load(resolved); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (g *Graph) addExternalSource(source string) {
	if _, ok := g.externals[source]; ok {
		return
	}
	g.externals[source] = make(map[string]*ast.ExternalVariable)
	g.ExternalSources = append(g.ExternalSources, source)
}

// externalVariable returns the single variable standing for an export of
// an external module.
func (g *Graph) externalVariable(source string, imported string) *ast.ExternalVariable {
	g.addExternalSource(source)
	byName := g.externals[source]
	if v, ok := byName[imported]; ok {
		return v
	}
	v := ast.NewExternalVariable(source, imported)
	byName[imported] = v
	return v
}

// ExternalVariables returns every external variable created while linking,
// grouped by source in first-import order.
func (g *Graph) ExternalVariables() []*ast.ExternalVariable {
	var out []*ast.ExternalVariable
	for _, source := range g.ExternalSources {
		byName := g.externals[source]
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, byName[name])
		}
	}
	return out
}

// sortModules assigns execution order: dependencies run before the modules
// that import them, by depth-first post-order from the entries.
func (g *Graph) sortModules() {
	state := make(map[*Module]uint8) // 0 new, 1 on stack, 2 done
	var stack []*Module

	var visit func(m *Module)
	visit = func(m *Module) {
		state[m] = 1
		stack = append(stack, m)
		for _, dep := range m.dependencies {
			if dep.external() {
				continue
			}
			switch state[dep.module] {
			case 0:
				visit(dep.module)
			case 1:
				g.warnCycle(stack, dep.module)
			}
		}
		stack = stack[:len(stack)-1]
		state[m] = 2
		m.execIndex = len(g.Modules)
		g.Modules = append(g.Modules, m)
	}

	for _, entry := range g.Entries {
		if state[entry] == 0 {
			visit(entry)
		}
	}
}

func (g *Graph) warnCycle(stack []*Module, target *Module) {
	var ids []string
	for i := len(stack) - 1; i >= 0; i-- {
		ids = append(ids, stack[i].id)
		if stack[i] == target {
			break
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	ids = append(ids, target.id)
	g.Diagnostics.Warn("", diagnostic.CodeCircularDependency,
		"Circular dependency: "+strings.Join(ids, " -> "), 0)
}

// mergedNamespaces returns the namespaces of the external wildcard sources
// of m.
func (g *Graph) mergedNamespaces(m *Module) []ast.Variable {
	var merged []ast.Variable
	for _, name := range m.Reexports() {
		if strings.HasPrefix(name, "*") {
			merged = append(merged, g.externalVariable(name[1:], "*"))
		}
	}
	return merged
}

// ----------------------------------------------------------------------------
// Inclusion Driver Support
// ----------------------------------------------------------------------------

// NeedsPass reports whether another inclusion pass was requested since the
// last call to ResetPass.
func (g *Graph) NeedsPass() bool { return g.needsPass }

// ResetPass clears the pass request.
func (g *Graph) ResetPass() { g.needsPass = false }

// Global returns the scope holding every global referenced by the bundle.
func (g *Graph) Global() *ast.Scope { return g.global }

// Module returns the module with the given ID, or nil.
func (g *Graph) Module(id string) *Module { return g.modules[id] }

// EntryExport is one export of an entry module.
type EntryExport struct {
	Name     string
	Variable ast.Variable
}

// EntryExports returns the exports of entry sorted by name. Names that
// cannot be traced are skipped.
func (g *Graph) EntryExports(entry *Module) []EntryExport {
	var exports []EntryExport
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] || strings.HasPrefix(name, "*") {
			return
		}
		seen[name] = true
		if v := entry.TraceExport(name); v != nil {
			exports = append(exports, EntryExport{Name: name, Variable: v})
		}
	}
	for _, name := range entry.Exports() {
		add(name)
	}
	for _, name := range entry.Reexports() {
		add(name)
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })
	return exports
}

// ExternalReexports returns the external sources entry re-exports with
// export *.
func (g *Graph) ExternalReexports(entry *Module) []string {
	var sources []string
	for _, name := range entry.Reexports() {
		if strings.HasPrefix(name, "*") {
			sources = append(sources, name[1:])
		}
	}
	return sources
}
