package graph

import (
	"fmt"
	"strings"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/objpath"
)

// dependency is a module specifier as written in an import or export
// declaration, resolved either to a module of the graph or to an external
// source.
type dependency struct {
	specifier string
	module    *Module
}

func (d *dependency) external() bool { return d.module == nil }

// importBinding is a local name bound by an import declaration.
type importBinding struct {
	dep      *dependency
	imported string
	pos      int
}

// reexport is a name exported from another module without a local binding:
// export { a as b } from './x' or export * as ns from './x'.
type reexport struct {
	dep   *dependency
	local string
	pos   int
}

// Module is one module of the graph. It implements ast.ModuleContext.
type Module struct {
	id        string
	graph     *Graph
	execIndex int
	isEntry   bool

	Source  string
	Program *ast.Program

	// dependencies are the distinct specifiers of the module in source order.
	dependencies []*dependency
	depsBySpec   map[string]*dependency

	imports map[string]importBinding

	// localExports maps exported names to local binding names. The default
	// export of an expression is keyed by "default" with an empty local
	// name and found through defaultExport.
	localExports  map[string]string
	exportNames   []string
	exportPos     map[string]int
	defaultExport *ast.ExportDefaultDeclaration

	reexports     map[string]reexport
	reexportNames []string

	// exportAll are the sources of export * declarations in source order.
	exportAll []*dependency

	namespace          *ast.NamespaceVariable
	allExportsIncluded bool

	traced        map[string]ast.Variable
	tracedImports map[string]ast.Variable
	conflicts     map[string]bool
	reexportList  []string
}

func newModule(g *Graph, id string, source string) *Module {
	return &Module{
		id:            id,
		graph:         g,
		execIndex:     -1,
		Source:        source,
		depsBySpec:    make(map[string]*dependency),
		imports:       make(map[string]importBinding),
		localExports:  make(map[string]string),
		exportPos:     make(map[string]int),
		reexports:     make(map[string]reexport),
		traced:        make(map[string]ast.Variable),
		tracedImports: make(map[string]ast.Variable),
		conflicts:     make(map[string]bool),
	}
}

// ----------------------------------------------------------------------------
// ast.ModuleContext
// ----------------------------------------------------------------------------

func (m *Module) ID() string { return m.id }

func (m *Module) ExecIndex() int { return m.execIndex }

func (m *Module) ModuleName() string { return ast.SafeIdentifier(m.id) }

// IsEntry returns true for entry modules.
func (m *Module) IsEntry() bool { return m.isEntry }

// Exports lists the names the module exports from its own bindings,
// followed by its explicit re-exports, in source order.
func (m *Module) Exports() []string {
	names := make([]string, 0, len(m.exportNames)+len(m.reexportNames))
	names = append(names, m.exportNames...)
	return append(names, m.reexportNames...)
}

// Reexports lists the names reachable through export * declarations and a
// "*" marker followed by the ID of every external wildcard source. Names
// the module exports itself and "default" are not included.
func (m *Module) Reexports() []string {
	if m.reexportList == nil {
		m.reexportList = m.collectReexports(make(map[*Module]bool))
	}
	return m.reexportList
}

func (m *Module) collectReexports(visited map[*Module]bool) []string {
	visited[m] = true
	own := make(map[string]bool)
	for _, name := range m.Exports() {
		own[name] = true
	}
	seen := make(map[string]bool)
	names := []string{}
	add := func(name string) {
		if own[name] || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}
	for _, dep := range m.exportAll {
		if dep.external() {
			add("*" + dep.specifier)
			continue
		}
		if visited[dep.module] {
			continue
		}
		for _, name := range dep.module.Exports() {
			if name != "default" {
				add(name)
			}
		}
		for _, name := range dep.module.collectReexports(visited) {
			add(name)
		}
	}
	return names
}

// TraceExport resolves an exported name to the variable behind it, or nil
// if the module does not export it.
func (m *Module) TraceExport(name string) ast.Variable {
	if v, ok := m.traced[name]; ok {
		return v
	}
	v := m.traceExport(name, make(map[*Module]bool))
	m.traced[name] = v
	return v
}

func (m *Module) traceExport(name string, active map[*Module]bool) ast.Variable {
	if name == "*" {
		return m.Namespace()
	}
	if local, ok := m.localExports[name]; ok {
		return m.localVariable(local, name)
	}

	if active[m] {
		return nil
	}
	active[m] = true
	defer delete(active, m)

	if re, ok := m.reexports[name]; ok {
		if re.dep.external() {
			return m.graph.externalVariable(re.dep.specifier, re.local)
		}
		if re.local == "*" {
			return re.dep.module.Namespace()
		}
		v := re.dep.module.traceExport(re.local, active)
		if v == nil {
			m.graph.Diagnostics.AddError(m.id, diagnostic.CodeMissingExport,
				fmt.Sprintf("%q is not exported by %q, re-exported by %q", re.local, re.dep.module.id, m.id), re.pos)
		}
		return v
	}
	if name == "default" {
		return nil
	}

	var found ast.Variable
	var foundIn *Module
	for _, dep := range m.exportAll {
		if dep.external() {
			continue
		}
		v := dep.module.traceExport(name, active)
		if v == nil {
			continue
		}
		if found == nil {
			found, foundIn = v, dep.module
			continue
		}
		if v != found && !m.conflicts[name] {
			m.conflicts[name] = true
			m.Warn(string(diagnostic.CodeNamespaceConflict),
				fmt.Sprintf("Conflicting namespaces: %q re-exports %q from both %q and %q (the first one is used)",
					m.id, name, foundIn.id, dep.module.id), 0)
		}
	}
	return found
}

// localVariable returns the binding behind a local export. A local export
// may also pass on an import binding.
func (m *Module) localVariable(local string, exported string) ast.Variable {
	if exported == "default" && local == "" {
		return m.defaultExport.Variable
	}
	if v, ok := m.Program.Scope.Variables[local]; ok {
		return v
	}
	v, _ := m.TraceImport(local)
	return v
}

// TraceImport resolves a local name bound by an import declaration.
func (m *Module) TraceImport(name string) (ast.Variable, bool) {
	binding, ok := m.imports[name]
	if !ok {
		return nil, false
	}
	if v, ok := m.tracedImports[name]; ok {
		return v, true
	}

	var v ast.Variable
	switch {
	case binding.dep.external():
		v = m.graph.externalVariable(binding.dep.specifier, binding.imported)
	case binding.imported == "*":
		v = binding.dep.module.Namespace()
	default:
		v = binding.dep.module.TraceExport(binding.imported)
		if v == nil {
			m.graph.Diagnostics.AddError(m.id, diagnostic.CodeMissingExport,
				fmt.Sprintf("%q is not exported by %q, imported by %q", binding.imported, binding.dep.module.id, m.id), binding.pos)
		}
	}
	m.tracedImports[name] = v
	return v, true
}

// Namespace returns the namespace object of the module, creating it on
// first use together with the namespaces of its external wildcard sources.
func (m *Module) Namespace() *ast.NamespaceVariable {
	if m.namespace == nil {
		m.namespace = ast.NewNamespaceVariable(m)
		m.namespace.SetMergedNamespaces(m.graph.mergedNamespaces(m))
	}
	return m.namespace
}

// DefaultVariable returns the binding of the default export, or nil. An
// expression default gets a synthetic binding that no scope holds.
func (m *Module) DefaultVariable() *ast.LocalVariable {
	if m.defaultExport == nil {
		return nil
	}
	return m.defaultExport.Variable
}

// HasNamespace returns true if something created the namespace object.
func (m *Module) HasNamespace() bool {
	return m.namespace != nil
}

// IncludeAllExports includes every export of the module, including the
// namespaces of external wildcard sources.
func (m *Module) IncludeAllExports() {
	if m.allExportsIncluded {
		return
	}
	m.allExportsIncluded = true
	for _, name := range m.Exports() {
		if v := m.TraceExport(name); v != nil {
			m.IncludeVariable(v)
		}
	}
	for _, name := range m.Reexports() {
		if strings.HasPrefix(name, "*") {
			m.IncludeVariable(m.graph.externalVariable(name[1:], "*"))
			continue
		}
		if v := m.TraceExport(name); v != nil {
			m.IncludeVariable(v)
		}
	}
}

// IncludeVariable includes v and asks for another pass if it was new.
func (m *Module) IncludeVariable(v ast.Variable) {
	if v.Included() {
		return
	}
	v.Include()
	m.graph.needsPass = true
}

func (m *Module) RequestTreeshakingPass() { m.graph.needsPass = true }

func (m *Module) Tracker() *objpath.Tracker { return m.graph.tracker }

func (m *Module) Options() *ast.Options { return m.graph.options }

// SyntheticNamedExports is not supported: plain ES modules never have one.
func (m *Module) SyntheticNamedExports() string { return "" }

func (m *Module) Warn(code string, message string, pos int) {
	m.graph.Diagnostics.Warn(m.id, diagnostic.Code(code), message, pos)
}

// ----------------------------------------------------------------------------
// Declarations
// ----------------------------------------------------------------------------

func (m *Module) dependency(specifier string) *dependency {
	if dep, ok := m.depsBySpec[specifier]; ok {
		return dep
	}
	dep := &dependency{specifier: specifier}
	m.depsBySpec[specifier] = dep
	m.dependencies = append(m.dependencies, dep)
	return dep
}

// addExport records a name exported by the module itself.
func (m *Module) addExport(exported string, local string, pos int) error {
	if err := m.checkDuplicate(exported, pos); err != nil {
		return err
	}
	m.localExports[exported] = local
	m.exportNames = append(m.exportNames, exported)
	m.exportPos[exported] = pos
	return nil
}

func (m *Module) addReexport(exported string, re reexport) error {
	if err := m.checkDuplicate(exported, re.pos); err != nil {
		return err
	}
	m.reexports[exported] = re
	m.reexportNames = append(m.reexportNames, exported)
	return nil
}

func (m *Module) checkDuplicate(exported string, pos int) error {
	_, local := m.localExports[exported]
	_, re := m.reexports[exported]
	if local || re {
		m.graph.Diagnostics.AddError(m.id, diagnostic.CodeParseError,
			fmt.Sprintf("Duplicate export %q", exported), pos)
		return fmt.Errorf("%s: duplicate export %q", m.id, exported)
	}
	return nil
}

// analyzeDeclarations records the imports and exports of the parsed
// program.
func (m *Module) analyzeDeclarations() error {
	for _, stmt := range m.Program.Body {
		switch s := stmt.(type) {
		case *ast.ImportDeclaration:
			dep := m.dependency(s.Source)
			for _, spec := range s.Specifiers {
				m.imports[spec.Local] = importBinding{dep: dep, imported: spec.Imported, pos: spec.Pos}
			}

		case *ast.ExportAllDeclaration:
			dep := m.dependency(s.Source)
			if s.Exported != "" {
				if err := m.addReexport(s.Exported, reexport{dep: dep, local: "*", pos: s.Loc.Start}); err != nil {
					return err
				}
				continue
			}
			m.exportAll = append(m.exportAll, dep)

		case *ast.ExportNamedDeclaration:
			if s.Source != "" {
				dep := m.dependency(s.Source)
				for _, spec := range s.Specifiers {
					if err := m.addReexport(spec.Exported, reexport{dep: dep, local: spec.Local, pos: spec.Pos}); err != nil {
						return err
					}
				}
				continue
			}
			for _, spec := range s.Specifiers {
				if err := m.addExport(spec.Exported, spec.Local, spec.Pos); err != nil {
					return err
				}
			}
			for _, id := range declaredNames(s.Declaration) {
				if err := m.addExport(id.Name, id.Name, id.Loc.Start); err != nil {
					return err
				}
			}

		case *ast.ExportDefaultDeclaration:
			m.defaultExport = s
			local := ""
			if s.DeclaresOwnBinding() {
				local = s.Variable.Name()
			}
			if err := m.addExport("default", local, s.Loc.Start); err != nil {
				return err
			}
		}
	}
	return nil
}

// declaredNames returns the binding identifiers of an exported declaration.
func declaredNames(decl ast.Node) []*ast.Identifier {
	switch d := decl.(type) {
	case *ast.VariableDeclaration:
		ids := make([]*ast.Identifier, 0, len(d.Declarations))
		for _, declarator := range d.Declarations {
			ids = append(ids, declarator.ID)
		}
		return ids
	case *ast.Function:
		return []*ast.Identifier{d.ID}
	case *ast.Class:
		return []*ast.Identifier{d.ID}
	}
	return nil
}

// checkLocalExports reports local exports without a binding.
func (m *Module) checkLocalExports() error {
	for _, name := range m.exportNames {
		local := m.localExports[name]
		if name == "default" && local == "" {
			continue
		}
		if _, ok := m.Program.Scope.Variables[local]; ok {
			continue
		}
		if _, ok := m.imports[local]; ok {
			continue
		}
		m.graph.Diagnostics.AddError(m.id, diagnostic.CodeMissingExport,
			fmt.Sprintf("Exported variable %q is not defined", local), m.exportPos[name])
		return fmt.Errorf("%s: exported variable %q is not defined", m.id, local)
	}
	return nil
}
