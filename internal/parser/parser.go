// Package parser parses the JavaScript module subset into an AST.
//
// Parsing builds the scope tree and declares every binding as it goes, so
// declaration identifiers come out bound to their variables. References are
// left unresolved: they carry their scope and are bound by ast.Bind once the
// whole module graph is linked and imports can be traced.
//
// Supported syntax:
// - import and export declarations of every form except dynamic import
// - var, let and const with plain identifier bindings
// - function declarations, function expressions, arrow functions, classes
// - if/else, blocks, return, throw and expression statements
// - object literals, calls, new, member access, assignment (=, +=, -=)
// - conditional, logical, equality, relational and arithmetic operators
package parser

import (
	"fmt"

	"github.com/HugoDaniel/treeshaker/internal/ast"
	"github.com/HugoDaniel/treeshaker/internal/diagnostic"
	"github.com/HugoDaniel/treeshaker/internal/lexer"
)

// Parser parses one module.
type Parser struct {
	source    string
	tokens    []lexer.Token
	pos       int
	lastEnd   int
	lineIndex *diagnostic.LineIndex // For converting byte offsets to line/column

	module ast.ModuleContext
	scope  *ast.Scope

	// functions is the stack of functions being parsed. Return statements
	// belong to the innermost one.
	functions []*ast.Function

	// imports records local names bound by import declarations.
	imports map[string]bool

	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// New creates a parser for source. Declarations made by the module are
// placed in a new module scope below global, which is shared by every
// module of a bundle. A nil global creates a private one.
func New(source string, module ast.ModuleContext, global *ast.Scope) *Parser {
	if global == nil {
		options := ast.DefaultOptions()
		if module != nil {
			options = module.Options()
		}
		global = ast.NewGlobalScope(options)
	}
	return &Parser{
		source:    source,
		tokens:    lexer.New(source).Tokenize(),
		lineIndex: diagnostic.NewLineIndex(source),
		module:    module,
		scope:     ast.NewModuleScope(global, module),
		imports:   make(map[string]bool),
	}
}

// Parse parses the source and returns the program. Parsing stops at the
// first error; the returned program is only usable when there are none.
func (p *Parser) Parse() (*ast.Program, []ParseError) {
	program := &ast.Program{
		Source: p.source,
		Scope:  p.scope,
	}

	for p.current().Kind != lexer.TokEOF && !p.failed() {
		start := p.pos
		if stmt := p.parseModuleItem(); stmt != nil && !p.failed() {
			program.Body = append(program.Body, stmt)
		}
		if p.pos == start && !p.failed() {
			p.error(fmt.Sprintf("unexpected %s", p.current().Kind))
		}
	}

	program.NodeBase = ast.NodeBase{Loc: ast.Range{Start: 0, End: len(p.source)}, Ctx: p.module}
	if !p.failed() {
		ast.SetParents(program)
	}
	return program, p.errors
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) && tok.Kind != lexer.TokEOF {
		p.pos++
		p.lastEnd = tok.End
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.unexpected(kind.String())
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

// isContextual returns true if the current token is the identifier word,
// used for contextual keywords such as from, as and static.
func (p *Parser) isContextual(word string) bool {
	tok := p.current()
	return tok.Kind == lexer.TokIdent && tok.Value == word
}

func (p *Parser) expectContextual(word string) bool {
	if !p.isContextual(word) {
		p.unexpected(fmt.Sprintf("%q", word))
		return false
	}
	p.advance()
	return true
}

// consumeSemicolon ends a statement, applying automatic semicolon
// insertion before a closing brace, at the end of input or after a line
// break.
func (p *Parser) consumeSemicolon() {
	if p.match(lexer.TokSemicolon) {
		return
	}
	tok := p.current()
	if tok.Kind == lexer.TokRBrace || tok.Kind == lexer.TokEOF || tok.NewlineBefore {
		return
	}
	p.unexpected(";")
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

func (p *Parser) unexpected(expected string) {
	tok := p.current()
	if tok.Kind == lexer.TokError {
		p.error(tok.Value)
		return
	}
	p.error(fmt.Sprintf("expected %s but found %s", expected, describe(tok)))
}

func (p *Parser) error(msg string) {
	p.errorAt(p.current().Start, msg)
}

// errorAt records msg unless an error was already recorded. Parsing stops
// at the first error, and anything reported while unwinding is a
// consequence of it.
func (p *Parser) errorAt(pos int, msg string) {
	if p.failed() {
		return
	}
	line, col := p.lineIndex.ByteOffsetToLineColumn(pos)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Pos:     pos,
		Line:    line + 1, // Convert to 1-based
		Column:  col + 1,  // Convert to 1-based
	})
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.TokIdent:
		return fmt.Sprintf("identifier %q", tok.Value)
	case lexer.TokEOF:
		return "end of file"
	}
	return fmt.Sprintf("%q", tok.Kind.String())
}

// ----------------------------------------------------------------------------
// Node and Scope Helpers
// ----------------------------------------------------------------------------

// base returns the shared node fields for a node starting at start and
// ending at the last consumed token.
func (p *Parser) base(start int) ast.NodeBase {
	return ast.NodeBase{Loc: ast.Range{Start: start, End: p.lastEnd}, Ctx: p.module}
}

func (p *Parser) tokenBase(tok lexer.Token) ast.NodeBase {
	return ast.NodeBase{Loc: ast.Range{Start: tok.Start, End: tok.End}, Ctx: p.module}
}

// identifier creates a binding identifier.
func (p *Parser) identifier(tok lexer.Token) *ast.Identifier {
	return &ast.Identifier{NodeBase: p.tokenBase(tok), Name: tok.Value, Scope: p.scope}
}

// reference creates an identifier resolved later by ast.Bind.
func (p *Parser) reference(tok lexer.Token) *ast.Identifier {
	return &ast.Identifier{NodeBase: p.tokenBase(tok), Name: tok.Value, Scope: p.scope}
}

func (p *Parser) enter(scope *ast.Scope) {
	p.scope = scope
}

func (p *Parser) leave() {
	p.scope = p.scope.Parent
}

func (p *Parser) declare(scope *ast.Scope, id *ast.Identifier, kind ast.VariableKind, init ast.Node) {
	if scope.Kind == ast.ScopeModule && p.imports[id.Name] {
		p.errorAt(id.Loc.Start, fmt.Sprintf("Identifier %q has already been declared", id.Name))
		return
	}
	v := scope.AddDeclaration(id, kind, init)
	if len(v.Declarations) > 1 && !(redeclarable(v.Kind) && redeclarable(kind)) {
		p.errorAt(id.Loc.Start, fmt.Sprintf("Identifier %q has already been declared", id.Name))
	}
}

// redeclarable returns true for bindings that may be declared again in the
// same scope.
func redeclarable(kind ast.VariableKind) bool {
	return kind == ast.KindVar || kind == ast.KindFunction || kind == ast.KindParameter
}

func (p *Parser) moduleName() string {
	if p.module == nil {
		return "_default"
	}
	return p.module.ModuleName()
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseModuleItem() ast.Node {
	switch p.current().Kind {
	case lexer.TokImport:
		if next := p.peek(1).Kind; next == lexer.TokLParen || next == lexer.TokDot {
			p.error("dynamic import is not supported")
			return nil
		}
		return p.parseImport()
	case lexer.TokExport:
		return p.parseExport()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() ast.Node {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokSemicolon:
		p.advance()
		return &ast.EmptyStatement{NodeBase: p.tokenBase(tok)}
	case lexer.TokLBrace:
		return p.parseBlock()
	case lexer.TokVar, lexer.TokLet, lexer.TokConst:
		return p.parseVariableDeclaration()
	case lexer.TokFunction:
		return p.parseFunction(ast.FunctionDeclaration, true)
	case lexer.TokClass:
		return p.parseClass(true, true)
	case lexer.TokIf:
		return p.parseIf()
	case lexer.TokReturn:
		return p.parseReturn()
	case lexer.TokThrow:
		return p.parseThrow()
	case lexer.TokImport, lexer.TokExport:
		p.error(fmt.Sprintf("%s may only appear at the top level", tok.Kind))
		return nil
	}

	expr := p.parseExpression()
	p.consumeSemicolon()
	return &ast.ExpressionStatement{NodeBase: p.base(tok.Start), Expression: expr}
}

// parseStatementsUntil parses statements up to, not including, the end
// token.
func (p *Parser) parseStatementsUntil(end lexer.TokenKind) []ast.Node {
	var body []ast.Node
	for !p.failed() {
		kind := p.current().Kind
		if kind == end || kind == lexer.TokEOF {
			break
		}
		if stmt := p.parseStatement(); stmt != nil && !p.failed() {
			body = append(body, stmt)
		}
	}
	return body
}

func (p *Parser) parseBlock() *ast.BlockStatement {
	start := p.current().Start
	p.expect(lexer.TokLBrace)
	block := &ast.BlockStatement{Scope: ast.NewChildScope(p.scope, ast.ScopeBlock)}
	p.enter(block.Scope)
	block.Body = p.parseStatementsUntil(lexer.TokRBrace)
	p.leave()
	p.expect(lexer.TokRBrace)
	block.NodeBase = p.base(start)
	return block
}

func (p *Parser) parseVariableDeclaration() *ast.VariableDeclaration {
	tok := p.advance()
	decl := &ast.VariableDeclaration{Kind: tok.Value}

	kind, scope := ast.KindVar, p.scope.HoistScope()
	switch tok.Kind {
	case lexer.TokLet:
		kind, scope = ast.KindLet, p.scope
	case lexer.TokConst:
		kind, scope = ast.KindConst, p.scope
	}

	for !p.failed() {
		name, ok := p.expect(lexer.TokIdent)
		if !ok {
			break
		}
		id := p.identifier(name)
		var init ast.Node
		if p.match(lexer.TokEq) {
			init = p.parseAssignment()
		} else if kind == ast.KindConst {
			p.error("missing initializer in const declaration")
			break
		}
		p.declare(scope, id, kind, init)
		decl.Declarations = append(decl.Declarations, &ast.VariableDeclarator{
			NodeBase: p.base(name.Start),
			ID:       id,
			Init:     init,
		})
		if !p.match(lexer.TokComma) {
			break
		}
	}

	p.consumeSemicolon()
	decl.NodeBase = p.base(tok.Start)
	return decl
}

func (p *Parser) parseIf() *ast.IfStatement {
	start := p.advance().Start
	stmt := &ast.IfStatement{}
	p.expect(lexer.TokLParen)
	stmt.Test = p.parseExpression()
	p.expect(lexer.TokRParen)
	stmt.Consequent = p.parseStatement()
	if p.match(lexer.TokElse) {
		stmt.Alternate = p.parseStatement()
	}
	stmt.NodeBase = p.base(start)
	return stmt
}

func (p *Parser) parseReturn() *ast.ReturnStatement {
	tok := p.advance()
	stmt := &ast.ReturnStatement{}
	next := p.current()
	if next.Kind != lexer.TokSemicolon && next.Kind != lexer.TokRBrace && next.Kind != lexer.TokEOF && !next.NewlineBefore {
		stmt.Argument = p.parseExpression()
	}
	p.consumeSemicolon()
	stmt.NodeBase = p.base(tok.Start)

	if len(p.functions) == 0 {
		p.errorAt(tok.Start, "return outside of function")
		return stmt
	}
	fn := p.functions[len(p.functions)-1]
	fn.Returns = append(fn.Returns, stmt)
	return stmt
}

func (p *Parser) parseThrow() *ast.ThrowStatement {
	tok := p.advance()
	if p.current().NewlineBefore {
		p.error("illegal newline after throw")
		return nil
	}
	stmt := &ast.ThrowStatement{Argument: p.parseExpression()}
	p.consumeSemicolon()
	stmt.NodeBase = p.base(tok.Start)
	return stmt
}

// ----------------------------------------------------------------------------
// Functions and Classes
// ----------------------------------------------------------------------------

// parseFunction parses a function declaration or expression. Modules are
// strict code, so declarations bind their name in the enclosing block; a
// named function expression binds its name inside itself.
func (p *Parser) parseFunction(kind ast.FunctionKind, requireName bool) *ast.Function {
	start := p.current().Start
	p.expect(lexer.TokFunction)
	fn := &ast.Function{Kind: kind}

	var name lexer.Token
	hasName := p.current().Kind == lexer.TokIdent
	if hasName {
		name = p.advance()
	} else if requireName {
		p.unexpected("function name")
		return fn
	}
	if hasName && kind == ast.FunctionDeclaration {
		fn.ID = p.identifier(name)
		p.declare(p.scope, fn.ID, ast.KindFunction, fn)
	}

	fn.Scope = ast.NewFunctionScope(p.scope, false)
	p.enter(fn.Scope)
	if hasName && kind != ast.FunctionDeclaration {
		fn.ID = p.identifier(name)
		fn.Scope.AddDeclaration(fn.ID, ast.KindFunction, fn)
	}
	p.parseParams(fn)
	p.parseFunctionBody(fn)
	p.leave()

	fn.NodeBase = p.base(start)
	return fn
}

// parseMethod parses the parameters and body of an object or class method.
func (p *Parser) parseMethod(start int) *ast.Function {
	fn := &ast.Function{Kind: ast.FunctionMethod}
	fn.Scope = ast.NewFunctionScope(p.scope, false)
	p.enter(fn.Scope)
	p.parseParams(fn)
	p.parseFunctionBody(fn)
	p.leave()
	fn.NodeBase = p.base(start)
	return fn
}

func (p *Parser) parseParams(fn *ast.Function) {
	if _, ok := p.expect(lexer.TokLParen); !ok {
		return
	}
	for !p.failed() && p.current().Kind != lexer.TokRParen {
		tok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return
		}
		p.addParam(fn, tok)
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
}

func (p *Parser) addParam(fn *ast.Function, tok lexer.Token) {
	if p.current().Kind == lexer.TokEq {
		p.error("default parameter values are not supported")
		return
	}
	id := p.identifier(tok)
	p.declare(fn.Scope, id, ast.KindParameter, nil)
	fn.Params = append(fn.Params, id)
}

// parseFunctionBody parses a braced body. The body shares the function's
// scope, so parameters and top-level declarations of the body live
// together.
func (p *Parser) parseFunctionBody(fn *ast.Function) {
	start := p.current().Start
	if _, ok := p.expect(lexer.TokLBrace); !ok {
		return
	}
	p.functions = append(p.functions, fn)
	body := &ast.BlockStatement{Scope: fn.Scope}
	body.Body = p.parseStatementsUntil(lexer.TokRBrace)
	p.functions = p.functions[:len(p.functions)-1]
	p.expect(lexer.TokRBrace)
	body.NodeBase = p.base(start)
	fn.Body = body
}

// isArrowAhead returns true if the tokens at the current position start an
// arrow function.
func (p *Parser) isArrowAhead() bool {
	tok := p.current()
	if tok.Kind == lexer.TokIdent {
		next := p.peek(1)
		return next.Kind == lexer.TokArrow && !next.NewlineBefore
	}
	if tok.Kind != lexer.TokLParen {
		return false
	}
	depth := 0
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case lexer.TokLParen:
			depth++
		case lexer.TokRParen:
			depth--
			if depth == 0 {
				return i+1 < len(p.tokens) && p.tokens[i+1].Kind == lexer.TokArrow
			}
		case lexer.TokEOF, lexer.TokError:
			return false
		}
	}
	return false
}

func (p *Parser) parseArrow() *ast.Function {
	start := p.current().Start
	fn := &ast.Function{Kind: ast.FunctionArrow}
	fn.Scope = ast.NewFunctionScope(p.scope, true)
	p.enter(fn.Scope)

	if p.current().Kind == lexer.TokIdent {
		p.addParam(fn, p.advance())
	} else {
		p.parseParams(fn)
	}
	p.expect(lexer.TokArrow)

	if p.current().Kind == lexer.TokLBrace {
		p.parseFunctionBody(fn)
	} else {
		fn.ExprBody = p.parseAssignment()
	}

	p.leave()
	fn.NodeBase = p.base(start)
	return fn
}

// parseClass parses a class declaration or expression. Static members are
// parsed in the class body scope and instance members in its instance
// scope, so this means the class or the instance respectively.
func (p *Parser) parseClass(isDeclaration bool, requireName bool) *ast.Class {
	start := p.current().Start
	p.expect(lexer.TokClass)
	class := &ast.Class{IsDeclaration: isDeclaration}

	if p.current().Kind == lexer.TokIdent {
		class.ID = p.identifier(p.advance())
		if isDeclaration {
			p.declare(p.scope, class.ID, ast.KindClass, class)
		}
	} else if requireName {
		p.unexpected("class name")
		return class
	}

	if p.match(lexer.TokExtends) {
		class.SuperClass = p.parseCallOrMember()
	}

	class.Scope = ast.NewClassBodyScope(p.scope, class)
	if class.ID != nil && !isDeclaration {
		class.Scope.AddDeclaration(class.ID, ast.KindClass, class)
	}

	p.expect(lexer.TokLBrace)
	for !p.failed() && p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		if p.match(lexer.TokSemicolon) {
			continue
		}
		if member := p.parseClassMember(class); member != nil {
			class.Members = append(class.Members, member)
		}
	}
	p.expect(lexer.TokRBrace)

	class.NodeBase = p.base(start)
	return class
}

func (p *Parser) parseClassMember(class *ast.Class) *ast.ClassMember {
	start := p.current().Start
	member := &ast.ClassMember{}
	if p.isContextual("static") {
		switch p.peek(1).Kind {
		case lexer.TokLParen, lexer.TokEq, lexer.TokSemicolon, lexer.TokRBrace:
			// A member named static
		default:
			p.advance()
			member.Static = true
		}
	}

	key, _, ok := p.parsePropertyKey()
	if !ok {
		return nil
	}
	member.Key = key

	saved := p.scope
	p.scope = class.Scope
	if !member.Static {
		p.scope = class.Scope.InstanceScope
	}
	if p.current().Kind == lexer.TokLParen {
		member.Kind = ast.MemberMethod
		if !member.Static && key == "constructor" {
			member.Kind = ast.MemberConstructor
		}
		member.Value = p.parseMethod(start)
	} else {
		member.Kind = ast.MemberProperty
		if p.match(lexer.TokEq) {
			member.Value = p.parseAssignment()
		}
		p.consumeSemicolon()
	}
	p.scope = saved

	member.NodeBase = p.base(start)
	return member
}

// ----------------------------------------------------------------------------
// Imports and Exports
// ----------------------------------------------------------------------------

func (p *Parser) parseImport() ast.Node {
	start := p.advance().Start
	decl := &ast.ImportDeclaration{}

	if tok := p.current(); tok.Kind == lexer.TokString {
		p.advance()
		decl.Source = tok.Value
		p.consumeSemicolon()
		decl.NodeBase = p.base(start)
		return decl
	}

	if tok := p.current(); tok.Kind == lexer.TokIdent {
		p.advance()
		p.addImport(decl, "default", tok)
		if !p.match(lexer.TokComma) {
			return p.finishImport(decl, start)
		}
	}

	switch p.current().Kind {
	case lexer.TokStar:
		p.advance()
		p.expectContextual("as")
		if tok, ok := p.expect(lexer.TokIdent); ok {
			p.addImport(decl, "*", tok)
		}
	case lexer.TokLBrace:
		p.advance()
		for !p.failed() && p.current().Kind != lexer.TokRBrace {
			imported, tok, ok := p.parseModuleExportName()
			if !ok {
				break
			}
			local := tok
			if p.isContextual("as") {
				p.advance()
				local, _ = p.expect(lexer.TokIdent)
			} else if tok.Kind != lexer.TokIdent {
				p.errorAt(tok.Start, fmt.Sprintf("%q cannot be used as a local binding", imported))
				break
			}
			p.addImport(decl, imported, local)
			if !p.match(lexer.TokComma) {
				break
			}
		}
		p.expect(lexer.TokRBrace)
	default:
		p.unexpected("import specifier")
	}

	return p.finishImport(decl, start)
}

func (p *Parser) finishImport(decl *ast.ImportDeclaration, start int) ast.Node {
	p.expectContextual("from")
	if tok, ok := p.expect(lexer.TokString); ok {
		decl.Source = tok.Value
	}
	p.consumeSemicolon()
	decl.NodeBase = p.base(start)
	return decl
}

func (p *Parser) addImport(decl *ast.ImportDeclaration, imported string, local lexer.Token) {
	if p.failed() {
		return
	}
	if p.imports[local.Value] || p.scope.Contains(local.Value) {
		p.errorAt(local.Start, fmt.Sprintf("Identifier %q has already been declared", local.Value))
		return
	}
	p.imports[local.Value] = true
	decl.Specifiers = append(decl.Specifiers, ast.ImportSpecifier{
		Imported: imported,
		Local:    local.Value,
		Pos:      local.Start,
	})
}

// parseModuleExportName parses a name in an import or export list, which
// may be any identifier name, including keywords, or a string.
func (p *Parser) parseModuleExportName() (string, lexer.Token, bool) {
	tok := p.current()
	if tok.Kind == lexer.TokString || isIdentifierNameToken(tok) {
		p.advance()
		return tok.Value, tok, true
	}
	p.unexpected("name")
	return "", tok, false
}

func (p *Parser) parseExport() ast.Node {
	start := p.advance().Start

	switch p.current().Kind {
	case lexer.TokDefault:
		return p.parseExportDefault(start)

	case lexer.TokStar:
		p.advance()
		decl := &ast.ExportAllDeclaration{}
		if p.isContextual("as") {
			p.advance()
			decl.Exported, _, _ = p.parseModuleExportName()
		}
		p.expectContextual("from")
		if tok, ok := p.expect(lexer.TokString); ok {
			decl.Source = tok.Value
		}
		p.consumeSemicolon()
		decl.NodeBase = p.base(start)
		return decl

	case lexer.TokLBrace:
		p.advance()
		decl := &ast.ExportNamedDeclaration{}
		var locals []lexer.Token
		for !p.failed() && p.current().Kind != lexer.TokRBrace {
			local, tok, ok := p.parseModuleExportName()
			if !ok {
				break
			}
			exported := local
			if p.isContextual("as") {
				p.advance()
				exported, _, _ = p.parseModuleExportName()
			}
			locals = append(locals, tok)
			decl.Specifiers = append(decl.Specifiers, ast.ExportSpecifier{Local: local, Exported: exported, Pos: tok.Start})
			if !p.match(lexer.TokComma) {
				break
			}
		}
		p.expect(lexer.TokRBrace)
		if p.isContextual("from") {
			p.advance()
			if tok, ok := p.expect(lexer.TokString); ok {
				decl.Source = tok.Value
			}
		} else {
			for _, tok := range locals {
				if tok.Kind != lexer.TokIdent {
					p.errorAt(tok.Start, fmt.Sprintf("%q is not a local binding", tok.Value))
					break
				}
			}
		}
		p.consumeSemicolon()
		decl.NodeBase = p.base(start)
		return decl

	case lexer.TokVar, lexer.TokLet, lexer.TokConst:
		decl := &ast.ExportNamedDeclaration{Declaration: p.parseVariableDeclaration()}
		decl.NodeBase = p.base(start)
		return decl

	case lexer.TokFunction:
		decl := &ast.ExportNamedDeclaration{Declaration: p.parseFunction(ast.FunctionDeclaration, true)}
		decl.NodeBase = p.base(start)
		return decl

	case lexer.TokClass:
		decl := &ast.ExportNamedDeclaration{Declaration: p.parseClass(true, true)}
		decl.NodeBase = p.base(start)
		return decl
	}

	p.unexpected("declaration or export list")
	return nil
}

// parseExportDefault parses export default. A named function or class keeps
// its own binding as the default export; anything else gets a synthetic
// binding named after the module.
func (p *Parser) parseExportDefault(start int) ast.Node {
	p.advance()
	decl := &ast.ExportDefaultDeclaration{}

	switch p.current().Kind {
	case lexer.TokFunction:
		fn := p.parseFunction(ast.FunctionDeclaration, false)
		decl.Declaration = fn
		if fn.ID != nil {
			decl.Variable, _ = fn.ID.Variable.(*ast.LocalVariable)
		}
	case lexer.TokClass:
		class := p.parseClass(true, false)
		decl.Declaration = class
		if class.ID != nil {
			decl.Variable, _ = class.ID.Variable.(*ast.LocalVariable)
		}
	default:
		decl.Declaration = p.parseAssignment()
		p.consumeSemicolon()
	}

	if decl.Variable == nil {
		decl.Variable = ast.NewLocalVariable(p.moduleName(), ast.KindDefault, decl, decl.Declaration, p.module)
	}
	decl.NodeBase = p.base(start)
	return decl
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (p *Parser) parseExpression() ast.Node {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Node {
	if p.isArrowAhead() {
		return p.parseArrow()
	}

	start := p.current().Start
	left := p.parseConditional()

	switch op := p.current(); op.Kind {
	case lexer.TokEq, lexer.TokPlusEq, lexer.TokMinusEq:
		switch left.(type) {
		case *ast.Identifier, *ast.MemberExpression:
		default:
			p.error("invalid assignment target")
			return left
		}
		p.advance()
		right := p.parseAssignment()
		return &ast.AssignmentExpression{
			NodeBase: p.base(start),
			Operator: op.Kind.String(),
			Left:     left,
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseConditional() ast.Node {
	start := p.current().Start
	test := p.parseBinary(0)
	if !p.match(lexer.TokQuestion) {
		return test
	}
	consequent := p.parseAssignment()
	p.expect(lexer.TokColon)
	alternate := p.parseAssignment()
	return &ast.ConditionalExpression{
		NodeBase:   p.base(start),
		Test:       test,
		Consequent: consequent,
		Alternate:  alternate,
	}
}

// binaryLevels lists binary operators from lowest to highest precedence.
// The first three levels are the logical operators.
var binaryLevels = [][]lexer.TokenKind{
	{lexer.TokQuestionQ},
	{lexer.TokPipePipe},
	{lexer.TokAmpAmp},
	{lexer.TokEqEqEq, lexer.TokBangEqEq, lexer.TokEqEq, lexer.TokBangEq},
	{lexer.TokLt, lexer.TokGt, lexer.TokLtEq, lexer.TokGtEq},
	{lexer.TokPlus, lexer.TokMinus},
	{lexer.TokStar, lexer.TokSlash, lexer.TokPercent},
}

const logicalLevels = 3

func (p *Parser) parseBinary(level int) ast.Node {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	start := p.current().Start
	left := p.parseBinary(level + 1)
	for !p.failed() && hasKind(binaryLevels[level], p.current().Kind) {
		op := p.advance().Kind.String()
		right := p.parseBinary(level + 1)
		if level < logicalLevels {
			left = &ast.LogicalExpression{NodeBase: p.base(start), Operator: op, Left: left, Right: right}
		} else {
			left = &ast.BinaryExpression{NodeBase: p.base(start), Operator: op, Left: left, Right: right}
		}
	}
	return left
}

func hasKind(kinds []lexer.TokenKind, kind lexer.TokenKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (p *Parser) parseUnary() ast.Node {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokBang, lexer.TokMinus, lexer.TokPlus, lexer.TokTypeof, lexer.TokVoid:
		p.advance()
		argument := p.parseUnary()
		return &ast.UnaryExpression{NodeBase: p.base(tok.Start), Operator: tok.Kind.String(), Argument: argument}
	}
	return p.parseCallOrMember()
}

func (p *Parser) parseCallOrMember() ast.Node {
	start := p.current().Start
	var expr ast.Node
	if p.current().Kind == lexer.TokNew {
		expr = p.parseNew()
	} else {
		expr = p.parsePrimary()
	}

	for !p.failed() {
		switch p.current().Kind {
		case lexer.TokDot, lexer.TokLBracket:
			expr = p.parseMember(expr, start)
		case lexer.TokLParen:
			args := p.parseArguments()
			expr = &ast.CallExpression{NodeBase: p.base(start), Callee: expr, Arguments: args}
		default:
			return expr
		}
	}
	return expr
}

// parseNew parses new with a member-expression callee and optional
// arguments.
func (p *Parser) parseNew() ast.Node {
	start := p.advance().Start
	var callee ast.Node
	if p.current().Kind == lexer.TokNew {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	calleeStart := callee.Span().Start
	for !p.failed() && (p.current().Kind == lexer.TokDot || p.current().Kind == lexer.TokLBracket) {
		callee = p.parseMember(callee, calleeStart)
	}
	var args []ast.Node
	if p.current().Kind == lexer.TokLParen {
		args = p.parseArguments()
	}
	return &ast.CallExpression{NodeBase: p.base(start), Callee: callee, Arguments: args, New: true}
}

func (p *Parser) parseMember(object ast.Node, start int) ast.Node {
	if p.advance().Kind == lexer.TokDot {
		tok := p.current()
		if !isIdentifierNameToken(tok) {
			p.unexpected("property name")
			return object
		}
		p.advance()
		return &ast.MemberExpression{NodeBase: p.base(start), Object: object, Property: tok.Value}
	}
	property := p.parseExpression()
	p.expect(lexer.TokRBracket)
	member := &ast.MemberExpression{NodeBase: p.base(start), Object: object, PropertyNode: property}
	if lit, ok := property.(*ast.Literal); ok && lit.Value.Kind == ast.LiteralString {
		member.Property = lit.Value.String
	}
	return member
}

func (p *Parser) parseArguments() []ast.Node {
	p.expect(lexer.TokLParen)
	var args []ast.Node
	for !p.failed() && p.current().Kind != lexer.TokRParen {
		args = append(args, p.parseAssignment())
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
	return args
}

func (p *Parser) parsePrimary() ast.Node {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokIdent:
		p.advance()
		return p.reference(tok)
	case lexer.TokThis:
		p.advance()
		return &ast.ThisExpression{NodeBase: p.tokenBase(tok), Scope: p.scope}
	case lexer.TokNumber:
		p.advance()
		return p.literal(tok, ast.NumberValue(ast.ParseNumber(tok.Value)))
	case lexer.TokString:
		p.advance()
		return p.literal(tok, ast.StringValue(tok.Value))
	case lexer.TokTrue, lexer.TokFalse:
		p.advance()
		return p.literal(tok, ast.BoolValue(tok.Kind == lexer.TokTrue))
	case lexer.TokNull:
		p.advance()
		return p.literal(tok, ast.NullValue)
	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpression()
		p.expect(lexer.TokRParen)
		return expr
	case lexer.TokLBrace:
		return p.parseObject()
	case lexer.TokFunction:
		return p.parseFunction(ast.FunctionExpression, false)
	case lexer.TokClass:
		return p.parseClass(false, false)
	}

	p.unexpected("expression")
	return p.literal(tok, ast.UndefinedValue)
}

func (p *Parser) literal(tok lexer.Token, value ast.LiteralValue) *ast.Literal {
	return &ast.Literal{NodeBase: p.tokenBase(tok), Value: value, Raw: tok.Text(p.source)}
}

func (p *Parser) parseObject() *ast.ObjectExpression {
	start := p.advance().Start
	obj := &ast.ObjectExpression{}

	for !p.failed() && p.current().Kind != lexer.TokRBrace {
		keyTok := p.current()
		key, quoted, ok := p.parsePropertyKey()
		if !ok {
			break
		}
		prop := &ast.Property{Key: key, QuotedKey: quoted}
		switch {
		case p.match(lexer.TokColon):
			prop.Value = p.parseAssignment()
		case p.current().Kind == lexer.TokLParen:
			prop.Value = p.parseMethod(keyTok.Start)
		case keyTok.Kind == lexer.TokIdent:
			prop.Value = p.reference(keyTok)
			prop.Shorthand = true
		default:
			p.unexpected(":")
		}
		prop.NodeBase = p.base(keyTok.Start)
		obj.Properties = append(obj.Properties, prop)
		if !p.match(lexer.TokComma) {
			break
		}
	}

	p.expect(lexer.TokRBrace)
	obj.NodeBase = p.base(start)
	return obj
}

// parsePropertyKey parses an object or class key. Numeric keys are
// normalized the way JavaScript converts them to strings.
func (p *Parser) parsePropertyKey() (key string, quoted bool, ok bool) {
	tok := p.current()
	switch {
	case tok.Kind == lexer.TokString:
		p.advance()
		return tok.Value, true, true
	case tok.Kind == lexer.TokNumber:
		p.advance()
		return ast.FormatNumber(ast.ParseNumber(tok.Value)), false, true
	case isIdentifierNameToken(tok):
		p.advance()
		return tok.Value, false, true
	}
	p.unexpected("property name")
	return "", false, false
}

// isIdentifierNameToken returns true for identifiers and keywords, which
// are valid property names.
func isIdentifierNameToken(tok lexer.Token) bool {
	if tok.Kind == lexer.TokIdent {
		return true
	}
	_, keyword := lexer.Keywords[tok.Value]
	return keyword && tok.Value != ""
}
