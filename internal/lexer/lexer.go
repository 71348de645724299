// Package lexer provides tokenization for the JavaScript module subset
// understood by the tree-shaker.
//
// The lexer converts a source string into a sequence of tokens,
// handling:
// - Keywords (contextual words such as "from" and "as" stay identifiers)
// - Identifiers (including Unicode letters, $ and _)
// - Numeric literals (decimal, hex, exponent)
// - String literals with simple escapes
// - Operators and punctuation
// - Line and block comments
// - Line-terminator tracking for automatic semicolon insertion
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokNumber
	TokString
	TokTrue
	TokFalse
	TokNull

	// Identifiers
	TokIdent

	// Keywords
	TokClass
	TokConst
	TokDefault
	TokElse
	TokExport
	TokExtends
	TokFunction
	TokIf
	TokImport
	TokLet
	TokNew
	TokReturn
	TokThis
	TokThrow
	TokTypeof
	TokVar
	TokVoid

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokPercent  // %
	TokBang     // !
	TokLt       // <
	TokGt       // >
	TokEq       // =
	TokDot      // .
	TokQuestion // ?

	// Multi-char operators
	TokAmpAmp    // &&
	TokPipePipe  // ||
	TokQuestionQ // ??
	TokLtEq      // <=
	TokGtEq      // >=
	TokEqEq      // ==
	TokBangEq    // !=
	TokEqEqEq    // ===
	TokBangEqEq  // !==
	TokArrow     // =>
	TokPlusEq    // +=
	TokMinusEq   // -=

	// Delimiters
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokSemicolon // ;
	TokColon     // :
	TokComma     // ,
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:  "error",
	TokEOF:    "end of file",
	TokNumber: "number",
	TokString: "string",
	TokTrue:   "true",
	TokFalse:  "false",
	TokNull:   "null",
	TokIdent:  "identifier",
	// Keywords
	TokClass:    "class",
	TokConst:    "const",
	TokDefault:  "default",
	TokElse:     "else",
	TokExport:   "export",
	TokExtends:  "extends",
	TokFunction: "function",
	TokIf:       "if",
	TokImport:   "import",
	TokLet:      "let",
	TokNew:      "new",
	TokReturn:   "return",
	TokThis:     "this",
	TokThrow:    "throw",
	TokTypeof:   "typeof",
	TokVar:      "var",
	TokVoid:     "void",
	// Operators
	TokPlus:      "+",
	TokMinus:     "-",
	TokStar:      "*",
	TokSlash:     "/",
	TokPercent:   "%",
	TokBang:      "!",
	TokLt:        "<",
	TokGt:        ">",
	TokEq:        "=",
	TokDot:       ".",
	TokQuestion:  "?",
	TokAmpAmp:    "&&",
	TokPipePipe:  "||",
	TokQuestionQ: "??",
	TokLtEq:      "<=",
	TokGtEq:      ">=",
	TokEqEq:      "==",
	TokBangEq:    "!=",
	TokEqEqEq:    "===",
	TokBangEqEq:  "!==",
	TokArrow:     "=>",
	TokPlusEq:    "+=",
	TokMinusEq:   "-=",
	// Delimiters
	TokLParen:    "(",
	TokRParen:    ")",
	TokLBrace:    "{",
	TokRBrace:    "}",
	TokLBracket:  "[",
	TokRBracket:  "]",
	TokSemicolon: ";",
	TokColon:     ":",
	TokComma:     ",",
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // Identifier name, decoded string, number text or error message

	// NewlineBefore is set when a line terminator separates this token from
	// the previous one. The parser uses it for automatic semicolon insertion.
	NewlineBefore bool
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) && t.Start <= t.End {
		return source[t.Start:t.End]
	}
	return ""
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"class":    TokClass,
	"const":    TokConst,
	"default":  TokDefault,
	"else":     TokElse,
	"export":   TokExport,
	"extends":  TokExtends,
	"false":    TokFalse,
	"function": TokFunction,
	"if":       TokIf,
	"import":   TokImport,
	"let":      TokLet,
	"new":      TokNew,
	"null":     TokNull,
	"return":   TokReturn,
	"this":     TokThis,
	"throw":    TokThrow,
	"true":     TokTrue,
	"typeof":   TokTypeof,
	"var":      TokVar,
	"void":     TokVoid,
}

// ReservedWords are words that cannot be used as binding names, either
// because the language reserves them or because the subset does not
// support the construct they introduce.
var ReservedWords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true,
	"continue": true, "debugger": true, "delete": true, "do": true,
	"enum": true, "finally": true, "for": true, "in": true,
	"instanceof": true, "super": true, "switch": true, "try": true,
	"while": true, "with": true, "yield": true,
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes JavaScript source code.
type Lexer struct {
	source  string
	pos     int
	start   int
	newline bool
	tokens  []Token
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, len(source)/4), // Estimate
	}
}

// Tokenize returns all tokens in the source.
func (l *Lexer) Tokenize() []Token {
	for {
		tok := l.Next()
		l.tokens = append(l.tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return l.tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.newline = false
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos, NewlineBefore: true}
	}

	l.start = l.pos
	ch := l.source[l.pos]

	var tok Token
	switch {
	case ch < 128 && asciiIdentStart[ch], ch >= 128 && l.startsUnicodeIdent():
		tok = l.scanIdentOrKeyword()
	case isDigit(ch) || (ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])):
		tok = l.scanNumber()
	case ch == '"' || ch == '\'':
		tok = l.scanString(ch)
	default:
		tok = l.scanOperator()
	}
	tok.NewlineBefore = l.newline
	return tok
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if ch == '\n' {
			l.newline = true
			l.pos++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f' {
			l.pos++
			continue
		}

		// Line comment
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.pos += 2
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
			continue
		}

		// Block comment (no nesting in JavaScript)
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			end := strings.Index(l.source[l.pos+2:], "*/")
			if end < 0 {
				l.pos = len(l.source)
				return
			}
			if strings.IndexByte(l.source[l.pos:l.pos+2+end], '\n') >= 0 {
				l.newline = true
			}
			l.pos += end + 4
			continue
		}

		// Non-ASCII whitespace such as U+00A0 or U+2028
		if ch >= 128 {
			r, size := utf8.DecodeRuneInString(l.source[l.pos:])
			if r == '\u2028' || r == '\u2029' {
				l.newline = true
				l.pos += size
				continue
			}
			if unicode.IsSpace(r) || r == '\ufeff' {
				l.pos += size
				continue
			}
		}

		break
	}
}

func (l *Lexer) startsUnicodeIdent() bool {
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return isIdentStartSlow(r)
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos

	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch < 128 {
			if asciiIdentContinue[ch] {
				l.pos++
				continue
			}
			break
		}
		r, size := utf8.DecodeRuneInString(l.source[l.pos:])
		if !isIdentContinueSlow(r) {
			break
		}
		l.pos += size
	}

	text := l.source[start:l.pos]
	if kind, ok := Keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Value: text}
	}
	if ReservedWords[text] {
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "unsupported keyword: " + text}
	}
	return Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos

	if l.pos+1 < len(l.source) && l.source[l.pos] == '0' &&
		(l.source[l.pos+1] == 'x' || l.source[l.pos+1] == 'X') {
		l.pos += 2
		for l.pos < len(l.source) && (isHexDigit(l.source[l.pos]) || l.source[l.pos] == '_') {
			l.pos++
		}
	} else {
		for l.pos < len(l.source) && (isDigit(l.source[l.pos]) || l.source[l.pos] == '_') {
			l.pos++
		}
		if l.pos < len(l.source) && l.source[l.pos] == '.' {
			l.pos++
			for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
				l.pos++
			}
		}
		if l.pos < len(l.source) && (l.source[l.pos] == 'e' || l.source[l.pos] == 'E') {
			l.pos++
			if l.pos < len(l.source) && (l.source[l.pos] == '+' || l.source[l.pos] == '-') {
				l.pos++
			}
			for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
				l.pos++
			}
		}
	}

	// An identifier may not directly follow a numeric literal
	if l.pos < len(l.source) && l.source[l.pos] < 128 && asciiIdentStart[l.source[l.pos]] {
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "identifier directly after number"}
	}

	return Token{Kind: TokNumber, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		switch ch {
		case quote:
			l.pos++
			return Token{Kind: TokString, Start: start, End: l.pos, Value: sb.String()}
		case '\n':
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
		case '\\':
			if l.pos+1 >= len(l.source) {
				l.pos++
				continue
			}
			esc := l.source[l.pos+1]
			l.pos += 2
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'v':
				sb.WriteByte('\v')
			case '0':
				sb.WriteByte(0)
			case '\n':
				// Line continuation
			case 'u':
				if l.pos+4 <= len(l.source) {
					if code, err := strconv.ParseUint(l.source[l.pos:l.pos+4], 16, 32); err == nil {
						sb.WriteRune(rune(code))
						l.pos += 4
						continue
					}
				}
				return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid unicode escape"}
			default:
				sb.WriteByte(esc)
			}
		default:
			sb.WriteByte(ch)
			l.pos++
		}
	}

	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	ch := l.source[l.pos]
	l.pos++

	var next byte
	if l.pos < len(l.source) {
		next = l.source[l.pos]
	}
	var nextNext byte
	if l.pos+1 < len(l.source) {
		nextNext = l.source[l.pos+1]
	}

	tok := func(kind TokenKind, width int) Token {
		l.pos += width
		return Token{Kind: kind, Start: start, End: l.pos}
	}

	switch ch {
	case '+':
		if next == '=' {
			return tok(TokPlusEq, 1)
		}
		return tok(TokPlus, 0)
	case '-':
		if next == '=' {
			return tok(TokMinusEq, 1)
		}
		return tok(TokMinus, 0)
	case '*':
		return tok(TokStar, 0)
	case '/':
		return tok(TokSlash, 0)
	case '%':
		return tok(TokPercent, 0)
	case '&':
		if next == '&' {
			return tok(TokAmpAmp, 1)
		}
	case '|':
		if next == '|' {
			return tok(TokPipePipe, 1)
		}
	case '?':
		if next == '?' {
			return tok(TokQuestionQ, 1)
		}
		return tok(TokQuestion, 0)
	case '<':
		if next == '=' {
			return tok(TokLtEq, 1)
		}
		return tok(TokLt, 0)
	case '>':
		if next == '=' {
			return tok(TokGtEq, 1)
		}
		return tok(TokGt, 0)
	case '=':
		if next == '=' && nextNext == '=' {
			return tok(TokEqEqEq, 2)
		}
		if next == '=' {
			return tok(TokEqEq, 1)
		}
		if next == '>' {
			return tok(TokArrow, 1)
		}
		return tok(TokEq, 0)
	case '!':
		if next == '=' && nextNext == '=' {
			return tok(TokBangEqEq, 2)
		}
		if next == '=' {
			return tok(TokBangEq, 1)
		}
		return tok(TokBang, 0)
	case '.':
		return tok(TokDot, 0)
	case '(':
		return tok(TokLParen, 0)
	case ')':
		return tok(TokRParen, 0)
	case '{':
		return tok(TokLBrace, 0)
	case '}':
		return tok(TokRBrace, 0)
	case '[':
		return tok(TokLBracket, 0)
	case ']':
		return tok(TokRBracket, 0)
	case ';':
		return tok(TokSemicolon, 0)
	case ':':
		return tok(TokColon, 0)
	case ',':
		return tok(TokComma, 0)
	}

	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unexpected character"}
}

// ----------------------------------------------------------------------------
// Character Classification
// ----------------------------------------------------------------------------

// ASCII lookup tables for fast character classification.
var (
	asciiIdentStart    [128]bool
	asciiIdentContinue [128]bool
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	asciiIdentStart['_'] = true
	asciiIdentContinue['_'] = true
	asciiIdentStart['$'] = true
	asciiIdentContinue['$'] = true

	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isIdentStartSlow handles Unicode identifier start characters.
func isIdentStartSlow(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.Is(unicode.Other_ID_Start, r)
}

// isIdentContinueSlow handles Unicode identifier continuation characters.
func isIdentContinueSlow(r rune) bool {
	return isIdentStartSlow(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) ||
		unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Other_ID_Continue, r)
}

// IsIdentifierName returns true if name can be written as a bare identifier.
func IsIdentifierName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if i == 0 {
			if r < 128 {
				if !asciiIdentStart[r] {
					return false
				}
			} else if !isIdentStartSlow(r) {
				return false
			}
			continue
		}
		if r < 128 {
			if !asciiIdentContinue[r] {
				return false
			}
		} else if !isIdentContinueSlow(r) {
			return false
		}
	}
	return true
}

// IsReserved returns true if name may not be used as a binding name.
func IsReserved(name string) bool {
	_, keyword := Keywords[name]
	return keyword || ReservedWords[name]
}
