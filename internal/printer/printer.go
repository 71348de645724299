// Package printer outputs an ES module bundle from tree-shaken ASTs.
//
// The printer can operate in two modes:
// - Pretty: Human-readable output with indentation
// - Minified: Minimal whitespace output
//
// Only included nodes are printed. Branches whose test was resolved and
// dropped are printed without the test, and assignments whose target is
// unobservable are printed as their right-hand side alone. Names come from
// the variables' render names, so the renamer must run first.
package printer

import (
	"strings"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/lexer"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool

	// Freeze wraps namespace objects in Object.freeze
	Freeze bool

	// NamespaceToStringTag adds [Symbol.toStringTag]: 'Module' to namespace
	// objects
	NamespaceToStringTag bool
}

// Module is one module of the bundle.
type Module struct {
	Program *ast.Program

	// Namespace is the module's namespace object, nil if nothing created it.
	Namespace *ast.NamespaceVariable
}

// Export is one entry of the final export block.
type Export struct {
	Name     string
	Variable ast.Variable
}

// Bundle is everything printed into one output file.
type Bundle struct {
	// ExternalSources lists every external module imported by the bundle in
	// first-import order. Sources without included bindings are still
	// imported for their side effects.
	ExternalSources []string

	// Modules are in execution order.
	Modules []Module

	Exports []Export

	// ExternalReexports are external sources the entry re-exports with
	// export *. They cannot be resolved statically and are passed through.
	ExternalReexports []string
}

// Printer outputs JavaScript code.
type Printer struct {
	options Options

	js     []byte
	indent int

	// External bindings referenced by printed code, per source.
	externals     map[string][]*ast.ExternalVariable
	seenExternals map[*ast.ExternalVariable]bool

	needsMergeHelper bool
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

func (p *Printer) reset() {
	p.js = nil
	p.indent = 0
	p.externals = make(map[string][]*ast.ExternalVariable)
	p.seenExternals = make(map[*ast.ExternalVariable]bool)
	p.needsMergeHelper = false
}

// PrintProgram outputs the included statements of a single module.
func (p *Printer) PrintProgram(program *ast.Program) string {
	p.reset()
	p.printStatements(program.Body)
	return string(p.js)
}

// PrintBundle outputs the whole bundle: external imports, helpers, module
// bodies in execution order and the export block.
func (p *Printer) PrintBundle(b *Bundle) string {
	p.reset()

	var sections []string
	var bodies []string
	for _, m := range b.Modules {
		p.js = nil
		p.printModule(m)
		if len(p.js) > 0 {
			bodies = append(bodies, string(p.js))
		}
	}

	p.js = nil
	p.printExportBlock(b.Exports)
	p.printExternalReexports(b.ExternalReexports)
	exports := string(p.js)

	reexported := make(map[string]bool, len(b.ExternalReexports))
	for _, source := range b.ExternalReexports {
		reexported[source] = true
	}
	p.js = nil
	p.printImports(b.ExternalSources, reexported)
	if len(p.js) > 0 {
		sections = append(sections, string(p.js))
	}
	if p.needsMergeHelper {
		p.js = nil
		p.printMergeHelper()
		sections = append(sections, string(p.js))
	}
	sections = append(sections, bodies...)
	if exports != "" {
		sections = append(sections, exports)
	}

	if p.options.MinifyWhitespace {
		return strings.Join(sections, "")
	}
	return strings.Join(sections, "\n")
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	p.js = append(p.js, s...)
}

func (p *Printer) printSpace() {
	if !p.options.MinifyWhitespace {
		p.js = append(p.js, ' ')
	}
}

func (p *Printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.js = append(p.js, '\n')
	}
}

func (p *Printer) printIndent() {
	if p.options.MinifyWhitespace {
		return
	}
	for i := 0; i < p.indent; i++ {
		p.js = append(p.js, '\t')
	}
}

func (p *Printer) printSemicolon() {
	p.print(";")
}

// printWord prints an identifier, keyword or number, separating it from a
// preceding word.
func (p *Printer) printWord(word string) {
	if n := len(p.js); n > 0 && isWordByte(p.js[n-1]) {
		p.js = append(p.js, ' ')
	}
	p.print(word)
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '$' || c >= 0x80
}

func (p *Printer) printString(s string) {
	p.print(quoteString(s))
}

// quoteString quotes s as a single-quoted JavaScript string literal.
func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '\'':
			sb.WriteString(`\'`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\u2028':
			sb.WriteString(`\u2028`)
		case '\u2029':
			sb.WriteString(`\u2029`)
		default:
			if r < 0x20 {
				sb.WriteString(`\x`)
				sb.WriteByte("0123456789abcdef"[r>>4])
				sb.WriteByte("0123456789abcdef"[r&0xf])
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// printPropertyName prints a key of an object literal, class or export
// list, quoting it when it is not an identifier name.
func (p *Printer) printPropertyName(name string, quoted bool) {
	if quoted || !lexer.IsIdentifierName(name) && !isNumericKey(name) {
		p.printString(name)
		return
	}
	p.printWord(name)
}

func isNumericKey(s string) bool {
	if s == "" {
		return false
	}
	return ast.FormatNumber(ast.ParseNumber(s)) == s
}

func (p *Printer) nameOf(v ast.Variable) string {
	if ext, ok := v.(*ast.ExternalVariable); ok && !p.seenExternals[ext] {
		p.seenExternals[ext] = true
		p.externals[ext.Source] = append(p.externals[ext.Source], ext)
	}
	return v.RenderName()
}

// ----------------------------------------------------------------------------
// Bundle Sections
// ----------------------------------------------------------------------------

func (p *Printer) printModule(m Module) {
	ns := m.Namespace
	if ns != nil && ns.Included() && ns.RenderFirst() {
		p.printNamespace(ns)
	}
	p.printStatements(m.Program.Body)
	if ns != nil && ns.Included() && !ns.RenderFirst() {
		p.printNamespace(ns)
	}
}

// printImports prints one import statement per external source, plus a
// separate one for a namespace import. A source without bindings that is
// re-exported needs no import of its own.
func (p *Printer) printImports(sources []string, reexported map[string]bool) {
	for _, source := range sources {
		var defaultName, namespaceName string
		var named []*ast.ExternalVariable
		for _, ext := range p.externals[source] {
			switch ext.Imported {
			case "default":
				defaultName = ext.RenderName()
			case "*":
				namespaceName = ext.RenderName()
			default:
				named = append(named, ext)
			}
		}

		if defaultName == "" && namespaceName == "" && len(named) == 0 {
			if reexported[source] {
				continue
			}
			p.printWord("import")
			p.printSpace()
			p.printString(source)
			p.printSemicolon()
			p.printNewline()
			continue
		}

		if namespaceName != "" {
			p.printWord("import")
			p.print(" * as ")
			p.print(namespaceName)
			p.print(" from")
			p.printSpace()
			p.printString(source)
			p.printSemicolon()
			p.printNewline()
			if defaultName == "" && len(named) == 0 {
				continue
			}
		}

		p.printWord("import")
		if defaultName != "" {
			p.print(" ")
			p.print(defaultName)
			if len(named) > 0 {
				p.print(",")
			}
		}
		if len(named) > 0 {
			p.printSpace()
			p.print("{")
			p.printSpace()
			for i, ext := range named {
				if i > 0 {
					p.print(",")
					p.printSpace()
				}
				p.printPropertyName(ext.Imported, false)
				if ext.RenderName() != ext.Imported {
					p.print(" as ")
					p.print(ext.RenderName())
				}
			}
			p.printSpace()
			p.print("}")
		}
		p.printSpace()
		p.print("from")
		p.printSpace()
		p.printString(source)
		p.printSemicolon()
		p.printNewline()
	}
}

func (p *Printer) printExportBlock(exports []Export) {
	if len(exports) == 0 {
		return
	}
	p.print("export")
	p.printSpace()
	p.print("{")
	p.printSpace()
	for i, e := range exports {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		local := p.nameOf(e.Variable)
		p.print(local)
		if local != e.Name {
			p.print(" as ")
			p.printPropertyName(e.Name, false)
		}
	}
	p.printSpace()
	p.print("}")
	p.printSemicolon()
	p.printNewline()
}

func (p *Printer) printExternalReexports(sources []string) {
	for _, source := range sources {
		p.print("export")
		p.printSpace()
		p.print("*")
		p.printSpace()
		p.print("from")
		p.printSpace()
		p.printString(source)
		p.printSemicolon()
		p.printNewline()
	}
}

const mergeNamespacesHelper = `function _mergeNamespaces(n, m) {
	m.forEach(function (e) {
		e && typeof e !== 'string' && !Array.isArray(e) && Object.keys(e).forEach(function (k) {
			if (k !== 'default' && !(k in n)) {
				var d = Object.getOwnPropertyDescriptor(e, k);
				Object.defineProperty(n, k, d.get ? d : {
					enumerable: true,
					get: function () { return e[k]; }
				});
			}
		});
	});
	return %s;
}
`

const mergeNamespacesHelperMinified = `function _mergeNamespaces(n,m){m.forEach(function(e){e&&typeof e!=='string'&&!Array.isArray(e)&&Object.keys(e).forEach(function(k){if(k!=='default'&&!(k in n)){var d=Object.getOwnPropertyDescriptor(e,k);Object.defineProperty(n,k,d.get?d:{enumerable:true,get:function(){return e[k]}})}})});return %s}`

func (p *Printer) printMergeHelper() {
	helper := mergeNamespacesHelper
	if p.options.MinifyWhitespace {
		helper = mergeNamespacesHelperMinified
	}
	result := "n"
	if p.options.Freeze {
		result = "Object.freeze(n)"
	}
	p.print(strings.Replace(helper, "%s", result, 1))
}

// printNamespace prints the namespace object of a module. Members are
// getters when the namespace is referenced before its module runs or when
// the member binding is reassigned, and plain values otherwise.
func (p *Printer) printNamespace(ns *ast.NamespaceVariable) {
	p.printIndent()
	p.print("const ")
	p.print(ns.RenderName())
	p.printSpace()
	p.print("=")
	p.printSpace()

	merged := ns.MergedNamespaces()
	switch {
	case len(merged) > 0:
		p.needsMergeHelper = true
		p.print("/*#__PURE__*/_mergeNamespaces(")
	case p.options.Freeze:
		p.print("/*#__PURE__*/Object.freeze(")
	}

	p.print("{")
	p.indent++
	p.printNamespaceEntry("__proto__: null")
	if p.options.NamespaceToStringTag {
		p.printNamespaceEntry("[Symbol.toStringTag]: 'Module'")
	}
	members := ns.MemberVariables()
	for _, name := range ns.MemberNames() {
		member := members[name]
		local := p.nameOf(member)
		p.print(",")
		p.printNewline()
		p.printIndent()
		if ns.RenderFirst() || member.IsReassigned() {
			p.print("get ")
			p.printPropertyName(name, false)
			p.printSpace()
			p.print("()")
			p.printSpace()
			p.print("{")
			p.printSpace()
			p.printWord("return")
			p.print(" ")
			p.print(local)
			p.printSemicolon()
			p.printSpace()
			p.print("}")
			continue
		}
		p.printPropertyName(name, false)
		p.print(":")
		p.printSpace()
		p.print(local)
	}
	p.indent--
	p.printNewline()
	p.printIndent()
	p.print("}")

	if len(merged) > 0 {
		p.print(",")
		p.printSpace()
		p.print("[")
		for i, v := range merged {
			if i > 0 {
				p.print(",")
				p.printSpace()
			}
			p.print(p.nameOf(v))
		}
		p.print("])")
	} else if p.options.Freeze {
		p.print(")")
	}
	p.printSemicolon()
	p.printNewline()
}

func (p *Printer) printNamespaceEntry(entry string) {
	if len(p.js) > 0 && p.js[len(p.js)-1] != '{' {
		p.print(",")
	}
	p.printNewline()
	p.printIndent()
	if p.options.MinifyWhitespace {
		entry = strings.ReplaceAll(entry, ": ", ":")
	}
	p.print(entry)
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Printer) printStatements(body []ast.Node) {
	for _, stmt := range body {
		if stmt.Included() {
			p.printStatement(stmt)
		}
	}
}

func (p *Printer) printStatement(stmt ast.Node) {
	start := len(p.js)
	p.printIndent()
	indented := len(p.js)
	p.printStatementInline(stmt)
	if len(p.js) == indented {
		p.js = p.js[:start]
		return
	}
	p.printNewline()
}

// printStatementInline prints a statement without leading indentation or a
// trailing newline. It may print nothing for statements that only carry
// bindings, such as imports.
func (p *Printer) printStatementInline(stmt ast.Node) {
	switch s := stmt.(type) {
	case *ast.ImportDeclaration, *ast.ExportAllDeclaration, *ast.EmptyStatement:
		// Nothing to print

	case *ast.ExportNamedDeclaration:
		if s.Declaration != nil && s.Declaration.Included() {
			p.printStatementInline(s.Declaration)
		}

	case *ast.ExportDefaultDeclaration:
		p.printExportDefault(s)

	case *ast.VariableDeclaration:
		p.printVariableDeclaration(s)

	case *ast.Function:
		p.printFunction(s, "")

	case *ast.Class:
		p.printClass(s, "")

	case *ast.ExpressionStatement:
		p.printExpressionStatement(s.Expression)

	case *ast.BlockStatement:
		p.printBlock(s.Body)

	case *ast.IfStatement:
		p.printIf(s)

	case *ast.ReturnStatement:
		p.printWord("return")
		if s.Argument != nil {
			p.printSpace()
			p.printExpr(s.Argument, levelLowest)
		}
		p.printSemicolon()

	case *ast.ThrowStatement:
		p.printWord("throw")
		p.print(" ")
		p.printExpr(s.Argument, levelLowest)
		p.printSemicolon()

	default:
		panic("printer: unexpected statement type")
	}
}

// printExpressionStatement wraps expressions that would otherwise be parsed
// as a block or declaration.
func (p *Printer) printExpressionStatement(expr ast.Node) {
	start := len(p.js)
	p.printExpr(expr, levelLowest)
	text := string(p.js[start:])
	if startsAmbiguously(text) {
		p.js = append(p.js[:start], '(')
		p.js = append(p.js, text...)
		p.js = append(p.js, ')')
	}
	p.printSemicolon()
}

func startsAmbiguously(text string) bool {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "let [") || strings.HasPrefix(text, "let[") {
		return true
	}
	for _, word := range []string{"function", "class"} {
		if strings.HasPrefix(text, word) && (len(text) == len(word) || !isWordByte(text[len(word)])) {
			return true
		}
	}
	return false
}

func (p *Printer) printBlock(body []ast.Node) {
	p.print("{")
	var included []ast.Node
	for _, stmt := range body {
		if stmt.Included() {
			included = append(included, stmt)
		}
	}
	if len(included) == 0 {
		p.print("}")
		return
	}
	p.printNewline()
	p.indent++
	for _, stmt := range included {
		p.printStatement(stmt)
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

// printIf prints an if statement. When the test was resolved and dropped,
// only the surviving branch is printed.
func (p *Printer) printIf(s *ast.IfStatement) {
	consequent := s.Consequent.Included()
	alternate := s.Alternate != nil && s.Alternate.Included()

	if !s.Test.Included() {
		switch {
		case consequent:
			p.printStatementInline(s.Consequent)
		case alternate:
			p.printStatementInline(s.Alternate)
		}
		return
	}

	p.printWord("if")
	p.printSpace()
	p.print("(")
	p.printExpr(s.Test, levelLowest)
	p.print(")")
	p.printSpace()
	if consequent {
		p.printStatementInline(s.Consequent)
	} else {
		p.print("{}")
	}
	if !alternate {
		return
	}

	if _, isBlock := s.Consequent.(*ast.BlockStatement); isBlock || !consequent {
		p.printSpace()
	} else {
		p.printNewline()
		p.printIndent()
	}
	p.printWord("else")
	p.print(" ")
	p.printStatementInline(s.Alternate)
}

func (p *Printer) printVariableDeclaration(d *ast.VariableDeclaration) {
	first := true
	for _, decl := range d.Declarations {
		if !decl.Included() {
			continue
		}
		if first {
			p.printWord(d.Kind)
			p.print(" ")
			first = false
		} else {
			p.print(",")
			p.printSpace()
		}
		p.print(p.nameOf(decl.ID.Variable))
		if decl.Init != nil {
			p.printSpace()
			p.print("=")
			p.printSpace()
			p.printExpr(decl.Init, levelAssign)
		}
	}
	if !first {
		p.printSemicolon()
	}
}

// printExportDefault prints the value of a default export. A named function
// or class is printed as is. Otherwise the value is bound to the default
// variable when something uses it, and evaluated for its effects when not.
func (p *Printer) printExportDefault(d *ast.ExportDefaultDeclaration) {
	if d.DeclaresOwnBinding() {
		p.printStatementInline(d.Declaration)
		return
	}
	if !d.Variable.Included() {
		if d.Declaration.Included() {
			p.printExpressionStatement(d.Declaration)
		}
		return
	}
	name := p.nameOf(d.Variable)
	switch decl := d.Declaration.(type) {
	case *ast.Function:
		if decl.Kind == ast.FunctionDeclaration {
			p.printFunction(decl, name)
			return
		}
	case *ast.Class:
		if decl.IsDeclaration {
			p.printClass(decl, name)
			return
		}
	}
	p.printWord("const")
	p.print(" ")
	p.print(name)
	p.printSpace()
	p.print("=")
	p.printSpace()
	p.printExpr(d.Declaration, levelAssign)
	p.printSemicolon()
}

// ----------------------------------------------------------------------------
// Functions and Classes
// ----------------------------------------------------------------------------

// printFunction prints a function declaration or expression. A non-empty
// name overrides the function's own.
func (p *Printer) printFunction(fn *ast.Function, name string) {
	if name == "" && fn.ID != nil {
		name = p.nameOf(fn.ID.Variable)
	}
	p.printWord("function")
	if name != "" {
		p.print(" ")
		p.print(name)
	}
	p.printParams(fn)
	p.printSpace()
	p.printBlock(fn.Body.Body)
}

func (p *Printer) printParams(fn *ast.Function) {
	p.print("(")
	for i, param := range fn.Params {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.print(p.nameOf(param.Variable))
	}
	p.print(")")
}

func (p *Printer) printArrow(fn *ast.Function) {
	p.printParams(fn)
	p.printSpace()
	p.print("=>")
	p.printSpace()
	if fn.Body != nil {
		p.printBlock(fn.Body.Body)
		return
	}
	if _, isObject := fn.ExprBody.(*ast.ObjectExpression); isObject {
		p.print("(")
		p.printExpr(fn.ExprBody, levelLowest)
		p.print(")")
		return
	}
	p.printExpr(fn.ExprBody, levelAssign)
}

// printMethod prints the parameters and body of a method after its key.
func (p *Printer) printMethod(fn *ast.Function) {
	p.printParams(fn)
	p.printSpace()
	p.printBlock(fn.Body.Body)
}

func (p *Printer) printClass(c *ast.Class, name string) {
	if name == "" && c.ID != nil {
		name = p.nameOf(c.ID.Variable)
	}
	p.printWord("class")
	if name != "" {
		p.print(" ")
		p.print(name)
	}
	if c.SuperClass != nil {
		p.print(" extends ")
		p.printExpr(c.SuperClass, levelCall)
	}
	p.printSpace()
	p.print("{")
	var members []*ast.ClassMember
	for _, m := range c.Members {
		if m.Included() {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		p.print("}")
		return
	}
	p.printNewline()
	p.indent++
	for _, m := range members {
		p.printIndent()
		if m.Static {
			p.print("static ")
		}
		p.printPropertyName(m.Key, false)
		if fn, ok := m.Value.(*ast.Function); ok && m.Kind != ast.MemberProperty {
			p.printMethod(fn)
		} else {
			if m.Value != nil {
				p.printSpace()
				p.print("=")
				p.printSpace()
				p.printExpr(m.Value, levelAssign)
			}
			p.printSemicolon()
		}
		p.printNewline()
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Operator precedence levels, from loosest to tightest.
const (
	levelLowest = iota
	levelAssign
	levelConditional
	levelNullish
	levelLogicalOr
	levelLogicalAnd
	levelEquals
	levelCompare
	levelAdd
	levelMultiply
	levelPrefix
	levelCall
)

func binaryLevel(op string) int {
	switch op {
	case "??":
		return levelNullish
	case "||":
		return levelLogicalOr
	case "&&":
		return levelLogicalAnd
	case "==", "!=", "===", "!==":
		return levelEquals
	case "<", ">", "<=", ">=":
		return levelCompare
	case "+", "-":
		return levelAdd
	}
	return levelMultiply
}

// printExpr prints expr, adding parentheses when its precedence is looser
// than level.
func (p *Printer) printExpr(expr ast.Node, level int) {
	switch e := expr.(type) {
	case *ast.Identifier:
		if e.Variable == nil {
			p.printWord(e.Name)
			return
		}
		p.printWord(p.nameOf(e.Variable))

	case *ast.ThisExpression:
		if e.IsUndefined() {
			p.printWord("undefined")
			return
		}
		p.printWord("this")

	case *ast.Literal:
		if e.Raw != "" {
			p.printWord(e.Raw)
			return
		}
		if e.Value.Kind == ast.LiteralString {
			p.printString(e.Value.String)
			return
		}
		p.printWord(e.Value.Format())

	case *ast.ObjectExpression:
		p.printObject(e)

	case *ast.Function:
		wrap := e.Kind == ast.FunctionArrow && level > levelAssign
		if wrap {
			p.print("(")
		}
		if e.Kind == ast.FunctionArrow {
			p.printArrow(e)
		} else {
			p.printFunction(e, "")
		}
		if wrap {
			p.print(")")
		}

	case *ast.Class:
		p.printClass(e, "")

	case *ast.MemberExpression:
		p.printMember(e)

	case *ast.CallExpression:
		p.printCall(e)

	case *ast.UnaryExpression:
		p.wrap(level > levelPrefix, func() {
			p.printUnary(e)
		})

	case *ast.BinaryExpression:
		own := binaryLevel(e.Operator)
		p.wrap(level > own, func() {
			p.printExpr(e.Left, own)
			p.printSpace()
			p.print(e.Operator)
			p.printSpace()
			p.printExpr(e.Right, own+1)
		})

	case *ast.LogicalExpression:
		p.printLogical(e, level)

	case *ast.ConditionalExpression:
		p.printConditional(e, level)

	case *ast.AssignmentExpression:
		if !e.KeepsTarget() {
			p.printExpr(e.Right, level)
			return
		}
		p.wrap(level > levelAssign, func() {
			p.printExpr(e.Left, levelCall)
			p.printSpace()
			p.print(e.Operator)
			p.printSpace()
			p.printExpr(e.Right, levelAssign)
		})

	default:
		panic("printer: unexpected expression type")
	}
}

func (p *Printer) wrap(parens bool, print func()) {
	if parens {
		p.print("(")
	}
	print()
	if parens {
		p.print(")")
	}
}

func (p *Printer) printUnary(e *ast.UnaryExpression) {
	switch e.Operator {
	case "typeof", "void":
		p.printWord(e.Operator)
		p.print(" ")
	default:
		// Keep "a + +b" and "- -b" from becoming increments or decrements
		if n := len(p.js); n > 0 && (e.Operator == "+" || e.Operator == "-") && p.js[n-1] == e.Operator[0] {
			p.print(" ")
		}
		p.print(e.Operator)
		if inner, ok := e.Argument.(*ast.UnaryExpression); ok && inner.Operator == e.Operator && e.Operator != "!" {
			p.print(" ")
		}
	}
	p.printExpr(e.Argument, levelPrefix)
}

// printLogical prints the branch that survived when the left operand was
// resolved and dropped, and the full expression otherwise.
func (p *Printer) printLogical(e *ast.LogicalExpression, level int) {
	left, right := e.Left.Included(), e.Right.Included()
	switch {
	case left && !right:
		p.printExpr(e.Left, level)
		return
	case right && !left:
		p.printExpr(e.Right, level)
		return
	}

	own := binaryLevel(e.Operator)
	p.wrap(level > own, func() {
		p.printExpr(e.Left, p.logicalOperandLevel(e, e.Left, own))
		p.printSpace()
		p.print(e.Operator)
		p.printSpace()
		p.printExpr(e.Right, p.logicalOperandLevel(e, e.Right, own+1))
	})
}

// logicalOperandLevel forces parentheses where ?? meets || or &&, which
// JavaScript does not allow to mix.
func (p *Printer) logicalOperandLevel(parent *ast.LogicalExpression, operand ast.Node, level int) int {
	child, ok := operand.(*ast.LogicalExpression)
	if !ok || !child.Left.Included() || !child.Right.Included() {
		return level
	}
	if (parent.Operator == "??") != (child.Operator == "??") {
		return levelPrefix
	}
	return level
}

// printConditional prints only the used branch when the test was resolved
// and dropped.
func (p *Printer) printConditional(e *ast.ConditionalExpression, level int) {
	if !e.Test.Included() {
		switch {
		case e.Consequent.Included() && !e.Alternate.Included():
			p.printExpr(e.Consequent, level)
		case e.Alternate.Included() && !e.Consequent.Included():
			p.printExpr(e.Alternate, level)
		default:
			panic("printer: included conditional expression has neither a test nor a single branch")
		}
		return
	}
	p.wrap(level > levelConditional, func() {
		p.printExpr(e.Test, levelNullish)
		p.printSpace()
		p.print("?")
		p.printSpace()
		p.printExpr(e.Consequent, levelAssign)
		p.printSpace()
		p.print(":")
		p.printSpace()
		p.printExpr(e.Alternate, levelAssign)
	})
}

func (p *Printer) printMember(e *ast.MemberExpression) {
	if e.Variable != nil {
		p.printWord(p.nameOf(e.Variable))
		return
	}
	if e.Missing {
		p.printWord("undefined")
		return
	}
	isNumber := false
	if lit, ok := e.Object.(*ast.Literal); ok {
		isNumber = lit.Value.Kind == ast.LiteralNumber
	}
	p.wrap(isNumber, func() {
		p.printExpr(e.Object, levelCall)
	})
	if e.PropertyNode != nil {
		p.print("[")
		p.printExpr(e.PropertyNode, levelLowest)
		p.print("]")
		return
	}
	p.print(".")
	p.print(e.Property)
}

func (p *Printer) printCall(e *ast.CallExpression) {
	if e.New {
		p.printWord("new")
		p.print(" ")
		p.wrap(containsCall(e.Callee), func() {
			p.printExpr(e.Callee, levelCall)
		})
	} else {
		p.printCallee(e.Callee)
	}
	p.print("(")
	for i, arg := range e.Arguments {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		p.printExpr(arg, levelAssign)
	}
	p.print(")")
}

// printCallee prints the callee of a plain call. When a resolved
// conditional or logical expression leaves only a property access behind,
// the access is printed as (0, a.b) so the call keeps an undefined receiver.
func (p *Printer) printCallee(callee ast.Node) {
	if member, ok := prunedBranch(callee).(*ast.MemberExpression); ok && member.Variable == nil && !member.Missing {
		p.print("(0,")
		p.printSpace()
		p.printExpr(member, levelAssign)
		p.print(")")
		return
	}
	p.printExpr(callee, levelCall)
}

// prunedBranch returns the node printed in place of n when n is a
// conditional or logical expression reduced to one branch, or nil.
func prunedBranch(n ast.Node) ast.Node {
	var kept ast.Node
	switch e := n.(type) {
	case *ast.ConditionalExpression:
		if e.Test.Included() {
			return nil
		}
		if e.Consequent.Included() {
			kept = e.Consequent
		} else {
			kept = e.Alternate
		}
	case *ast.LogicalExpression:
		left, right := e.Left.Included(), e.Right.Included()
		switch {
		case left && !right:
			kept = e.Left
		case right && !left:
			kept = e.Right
		default:
			return nil
		}
	default:
		return nil
	}
	if inner := prunedBranch(kept); inner != nil {
		return inner
	}
	return kept
}

// containsCall returns true if a member chain contains a call, which would
// end the callee of new early.
func containsCall(n ast.Node) bool {
	switch n := n.(type) {
	case *ast.CallExpression:
		return true
	case *ast.MemberExpression:
		return n.Variable == nil && !n.Missing && containsCall(n.Object)
	}
	return false
}

func (p *Printer) printObject(o *ast.ObjectExpression) {
	if len(o.Properties) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printSpace()
	for i, prop := range o.Properties {
		if i > 0 {
			p.print(",")
			p.printSpace()
		}
		if fn, ok := prop.Value.(*ast.Function); ok && fn.Kind == ast.FunctionMethod {
			p.printPropertyName(prop.Key, prop.QuotedKey)
			p.printMethod(fn)
			continue
		}
		if id, ok := prop.Value.(*ast.Identifier); ok && prop.Shorthand {
			if name := p.identifierName(id); name == prop.Key {
				p.print(name)
				continue
			}
		}
		p.printPropertyName(prop.Key, prop.QuotedKey)
		p.print(":")
		p.printSpace()
		p.printExpr(prop.Value, levelAssign)
	}
	p.printSpace()
	p.print("}")
}

func (p *Printer) identifierName(id *ast.Identifier) string {
	if id.Variable == nil {
		return id.Name
	}
	return p.nameOf(id.Variable)
}
