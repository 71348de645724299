package ast

// ----------------------------------------------------------------------------
// Variable Declarations
// ----------------------------------------------------------------------------

// VariableDeclaration is a var, let or const statement.
type VariableDeclaration struct {
	NodeBase
	Kind         string
	Declarations []*VariableDeclarator
}

func (d *VariableDeclaration) ForEachChild(fn func(Node)) {
	for _, decl := range d.Declarations {
		fn(decl)
	}
}

func (d *VariableDeclaration) HasEffects(ctx *HasEffectsContext) bool {
	for _, decl := range d.Declarations {
		if decl.HasEffects(ctx) {
			return true
		}
	}
	return false
}

// Include keeps only the declarators that are used or have effects.
func (d *VariableDeclaration) Include(ctx *InclusionContext, recursive bool) {
	d.included = true
	for _, decl := range d.Declarations {
		if recursive || ShouldBeIncluded(decl, ctx) {
			decl.Include(ctx, recursive)
		}
	}
}

// VariableDeclarator is one binding of a declaration.
type VariableDeclarator struct {
	NodeBase
	ID   *Identifier
	Init Node
}

func (d *VariableDeclarator) ForEachChild(fn func(Node)) {
	fn(d.ID)
	visit(d.Init, fn)
}

func (d *VariableDeclarator) HasEffects(ctx *HasEffectsContext) bool {
	return hasEffects(d.Init, ctx)
}

func (d *VariableDeclarator) Include(ctx *InclusionContext, recursive bool) {
	d.included = true
	d.ID.Include(ctx, recursive)
	include(d.Init, ctx, recursive)
}

// ----------------------------------------------------------------------------
// Imports and Exports
// ----------------------------------------------------------------------------

// ImportSpecifier binds Local to the export Imported of the source module.
// Imported is "default" for default imports and "*" for namespace imports.
type ImportSpecifier struct {
	Imported string
	Local    string
	Pos      int
}

// ImportDeclaration is an import statement. It is never printed: the
// bundle refers to imported bindings directly.
type ImportDeclaration struct {
	NodeBase
	Source     string
	Specifiers []ImportSpecifier
}

func (*ImportDeclaration) ForEachChild(func(Node)) {}
func (*ImportDeclaration) HasEffects(*HasEffectsContext) bool { return false }
func (d *ImportDeclaration) Include(*InclusionContext, bool) { d.included = true }

// ExportSpecifier exports the binding Local under the name Exported.
type ExportSpecifier struct {
	Local    string
	Exported string
	Pos      int
}

// ExportNamedDeclaration is export <declaration>, export { a as b } or
// export { a } from 'source'.
type ExportNamedDeclaration struct {
	NodeBase
	Declaration Node
	Specifiers  []ExportSpecifier
	Source      string
}

func (d *ExportNamedDeclaration) ForEachChild(fn func(Node)) { visit(d.Declaration, fn) }

func (d *ExportNamedDeclaration) HasEffects(ctx *HasEffectsContext) bool {
	return hasEffects(d.Declaration, ctx)
}

func (d *ExportNamedDeclaration) Include(ctx *InclusionContext, recursive bool) {
	d.included = true
	include(d.Declaration, ctx, recursive)
}

// ExportDefaultDeclaration is export default <expression or declaration>.
type ExportDefaultDeclaration struct {
	NodeBase
	Declaration Node

	// Variable holds the exported value. For a named function or class it
	// is that declaration's own binding.
	Variable *LocalVariable
}

func (d *ExportDefaultDeclaration) ForEachChild(fn func(Node)) { fn(d.Declaration) }

// DeclaresOwnBinding returns true when the export is a named function or
// class declaration.
func (d *ExportDefaultDeclaration) DeclaresOwnBinding() bool {
	switch decl := d.Declaration.(type) {
	case *Function:
		return decl.ID != nil
	case *Class:
		return decl.ID != nil
	}
	return false
}

func (d *ExportDefaultDeclaration) HasEffects(ctx *HasEffectsContext) bool {
	return d.Declaration.HasEffects(ctx)
}

// Include keeps the declaration. The default binding itself is only kept
// when something refers to it; otherwise an expression is printed as a
// plain statement.
func (d *ExportDefaultDeclaration) Include(ctx *InclusionContext, recursive bool) {
	d.included = true
	d.Declaration.Include(ctx, recursive)
}

// ExportAllDeclaration is export * from 'source' or, with Exported set,
// export * as name from 'source'.
type ExportAllDeclaration struct {
	NodeBase
	Source   string
	Exported string
}

func (*ExportAllDeclaration) ForEachChild(func(Node)) {}
func (*ExportAllDeclaration) HasEffects(*HasEffectsContext) bool { return false }
func (d *ExportAllDeclaration) Include(*InclusionContext, bool) { d.included = true }
