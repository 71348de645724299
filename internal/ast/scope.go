package ast

import (
	"strings"
	"unicode"

	"github.com/HugoDaniel/treeshaker/internal/lexer"
)

// ScopeKind identifies the construct that introduced a scope.
type ScopeKind uint8

const (
	ScopeGlobal ScopeKind = iota
	ScopeModule
	ScopeFunction
	ScopeBlock
	ScopeClassBody
	ScopeClassInstance
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeGlobal:
		return "global"
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeClassBody:
		return "class body"
	case ScopeClassInstance:
		return "class instance"
	}
	return "unknown"
}

// Scope maps names to variables.
//
// A class body owns two scopes. The body scope binds this to the class
// itself and is where static members are evaluated. Its InstanceScope binds
// this to a ThisVariable and is where instance members are evaluated.
type Scope struct {
	Kind      ScopeKind
	Parent    *Scope
	Children  []*Scope
	Variables map[string]Variable

	// InstanceScope is set on class body scopes only.
	InstanceScope *Scope

	module  ModuleContext
	options *Options
}

func newScope(kind ScopeKind, parent *Scope) *Scope {
	s := &Scope{
		Kind:      kind,
		Parent:    parent,
		Variables: make(map[string]Variable),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
		s.module = parent.module
		s.options = parent.options
	}
	return s
}

// NewGlobalScope creates the scope holding every undeclared name.
func NewGlobalScope(options *Options) *Scope {
	s := newScope(ScopeGlobal, nil)
	s.options = options
	return s
}

// NewModuleScope creates the top-level scope of a module.
func NewModuleScope(global *Scope, module ModuleContext) *Scope {
	s := newScope(ScopeModule, global)
	s.module = module
	return s
}

// NewChildScope creates a function or block scope.
func NewChildScope(parent *Scope, kind ScopeKind) *Scope {
	return newScope(kind, parent)
}

// NewFunctionScope creates the scope of a function. Arrow functions see the
// receiver of their enclosing scope; other functions bind their own.
func NewFunctionScope(parent *Scope, arrow bool) *Scope {
	s := newScope(ScopeFunction, parent)
	if !arrow {
		s.Variables["this"] = NewThisVariable(s.module)
	}
	return s
}

// NewClassBodyScope creates the body scope of class and its instance scope.
func NewClassBodyScope(parent *Scope, class *Class) *Scope {
	s := newScope(ScopeClassBody, parent)
	s.Variables["this"] = NewLocalVariable("this", KindThis, class, class, s.module)
	s.InstanceScope = newScope(ScopeClassInstance, s)
	s.InstanceScope.Variables["this"] = NewThisVariable(s.module)
	return s
}

// Module returns the module the scope belongs to, or nil for the global
// scope.
func (s *Scope) Module() ModuleContext {
	return s.module
}

// FindVariable resolves name from this scope outwards. The module scope
// consults the module's import bindings, and the global scope creates
// globals on demand, so lookups never fail.
func (s *Scope) FindVariable(name string) Variable {
	for scope := s; scope != nil; scope = scope.Parent {
		if v, ok := scope.Variables[name]; ok {
			return v
		}
		switch scope.Kind {
		case ScopeModule:
			if scope.module != nil {
				if v, ok := scope.module.TraceImport(name); ok && v != nil {
					return v
				}
			}
			if name == "this" {
				return nil
			}
		case ScopeGlobal:
			v := NewGlobalVariable(name, scope.options)
			scope.Variables[name] = v
			return v
		}
	}
	return nil
}

// Contains returns true if name is declared in this scope or an ancestor
// below the global scope.
func (s *Scope) Contains(name string) bool {
	for scope := s; scope != nil && scope.Kind != ScopeGlobal; scope = scope.Parent {
		if _, ok := scope.Variables[name]; ok {
			return true
		}
	}
	return false
}

// HoistScope returns the scope var declarations are hoisted to.
func (s *Scope) HoistScope() *Scope {
	scope := s
	for scope.Kind == ScopeBlock && scope.Parent != nil {
		scope = scope.Parent
	}
	return scope
}

// AddDeclaration declares id in the scope. Redeclaring an existing local
// adds another declaration to the same variable.
func (s *Scope) AddDeclaration(id *Identifier, kind VariableKind, init Node) *LocalVariable {
	if existing, ok := s.Variables[id.Name].(*LocalVariable); ok {
		existing.AddDeclaration(id, init)
		id.Variable = existing
		return existing
	}
	v := NewLocalVariable(id.Name, kind, id, init, s.module)
	s.Variables[id.Name] = v
	id.Variable = v
	return v
}

// ----------------------------------------------------------------------------
// Names
// ----------------------------------------------------------------------------

// SafeIdentifier turns an arbitrary string, such as a module path, into a
// valid identifier.
func SafeIdentifier(s string) string {
	if i := strings.LastIndexAny(s, "/\\"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	var sb strings.Builder
	upper := false
	for _, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			sb.WriteRune(r)
			continue
		}
		upper = sb.Len() > 0
	}
	name := sb.String()
	if name == "" {
		return "_"
	}
	if unicode.IsDigit(rune(name[0])) || lexer.IsReserved(name) {
		name = "_" + name
	}
	return name
}
