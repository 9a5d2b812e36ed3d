package lexer

import (
	"fmt"

	perrors "github.com/sambeau/minipy/pkg/minipy/errors"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL  TokenType = iota // unrecognized operator or punctuation
	EOF                       // past the last token of a line (parser only)
	ENDLINE                   // end of a physical line
	STMT_END                  // synthesized block end

	// Identifiers and literals
	IDENT   // x, foo
	INT     // 1343456
	STRING  // "foobar"
	KEYWORD // if, else, def, while, return, print, len

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	LT       // <
	GT       // >

	// Delimiters
	COMMA    // ,
	COLON    // :
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int // zero-based; -1 for ENDLINE
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case ENDLINE:
		return "ENDLINE"
	case STMT_END:
		return "STMT_END"
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case STRING:
		return "STRING"
	case KEYWORD:
		return "KEYWORD"
	case ASSIGN:
		return "ASSIGN"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	default:
		return "UNKNOWN"
	}
}

// keywords is the reserved word set. Only "print" has a grammar rule.
var keywords = map[string]bool{
	"if":     true,
	"else":   true,
	"def":    true,
	"while":  true,
	"return": true,
	"print":  true,
	"len":    true,
}

// blockOpeners are keywords whose column is tracked for statement-end synthesis
var blockOpeners = map[string]bool{
	"if":    true,
	"else":  true,
	"def":   true,
	"while": true,
}

// Keywords returns the reserved words in a stable order (used for completion)
func Keywords() []string {
	return []string{"def", "else", "if", "len", "print", "return", "while"}
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if keywords[ident] {
		return KEYWORD
	}
	return IDENT
}

// Lexer tokenizes one source line at a time. The stack of block-opener
// columns survives between lines.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination, 0 at end of line
	line         int  // current line number

	tokens        []Token
	openerColumns []int // columns of if/else/def/while, innermost last
}

// New creates a new lexer instance
func New() *Lexer {
	return &Lexer{}
}

// Reset forgets all open blocks
func (l *Lexer) Reset() {
	l.openerColumns = nil
	l.tokens = nil
}

// OpenBlocks returns how many block openers are waiting for a statement end
func (l *Lexer) OpenBlocks() int {
	return len(l.openerColumns)
}

// Tokenize converts one source line into tokens. The result always ends
// with an ENDLINE token unless an error is returned.
func (l *Lexer) Tokenize(line string, lineNum int) ([]Token, error) {
	l.input = line
	l.line = lineNum
	l.position = 0
	l.readPosition = 0
	l.tokens = make([]Token, 0, len(line)/2+1)
	l.readChar()

	for l.ch != 0 {
		switch {
		case l.ch == '#':
			l.closeBlocks()
			l.position = len(l.input)
			l.readPosition = len(l.input)
			l.ch = 0
		case isBlank(l.ch):
			l.skipBlanks()
			l.closeBlocks()
		case isOperator(l.ch):
			l.closeBlocks()
			l.emit(newToken(operatorType(l.ch), l.ch, l.line, l.position))
			l.readChar()
		case isPunctuation(l.ch):
			l.closeBlocks()
			l.emit(newToken(punctuationType(l.ch), l.ch, l.line, l.position))
			l.readChar()
		case isDigit(l.ch):
			l.closeBlocks()
			col := l.position
			l.emit(Token{Type: INT, Literal: l.readNumber(), Line: l.line, Column: col})
		case l.ch == '"':
			l.closeBlocks()
			col := l.position
			lit, ok := l.readString()
			if !ok {
				return nil, perrors.NewWithPosition("LEX-0001", l.line, col, nil)
			}
			l.emit(Token{Type: STRING, Literal: lit, Line: l.line, Column: col})
		case isLetter(l.ch):
			l.closeBlocks()
			col := l.position
			word := l.readIdentifier()
			tt := LookupIdent(word)
			l.emit(Token{Type: tt, Literal: word, Line: l.line, Column: col})
			if tt == KEYWORD && blockOpeners[word] {
				l.openerColumns = append(l.openerColumns, col)
			}
		default:
			return nil, perrors.NewWithPosition("CHAR-0001", l.line, l.position, map[string]any{"Char": string(l.ch)})
		}
	}

	l.emit(Token{Type: ENDLINE, Line: l.line, Column: -1})
	return l.tokens, nil
}

// Flush closes every block that is still open. Call it once after the
// final line of input has been tokenized.
func (l *Lexer) Flush(lineNum int) []Token {
	var out []Token
	col := len(l.input)
	for len(l.openerColumns) > 0 {
		out = append(out,
			Token{Type: STMT_END, Line: lineNum, Column: col},
			Token{Type: ENDLINE, Line: lineNum, Column: col})
		l.openerColumns = l.openerColumns[:len(l.openerColumns)-1]
	}
	return out
}

// closeBlocks emits a STMT_END/ENDLINE pair for every open block whose
// opener sits at or right of the current column.
func (l *Lexer) closeBlocks() {
	for len(l.openerColumns) > 0 {
		top := l.openerColumns[len(l.openerColumns)-1]
		if l.position > top {
			return
		}
		l.emit(Token{Type: STMT_END, Line: l.line, Column: l.position})
		l.emit(Token{Type: ENDLINE, Line: l.line, Column: l.position})
		l.openerColumns = l.openerColumns[:len(l.openerColumns)-1]
	}
}

func (l *Lexer) emit(tok Token) {
	l.tokens = append(l.tokens, tok)
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) skipBlanks() {
	for isBlank(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readString reads the body of a string literal. Characters are taken
// verbatim; there are no escapes.
func (l *Lexer) readString() (string, bool) {
	l.readChar() // opening quote
	position := l.position
	for l.ch != '"' && l.ch != 0 {
		l.readChar()
	}
	if l.ch != '"' {
		return "", false
	}
	lit := l.input[position:l.position]
	l.readChar() // closing quote
	return lit, true
}

func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

func operatorType(ch byte) TokenType {
	switch ch {
	case '+':
		return PLUS
	case '-':
		return MINUS
	case '*':
		return ASTERISK
	case '/':
		return SLASH
	case '=':
		return ASSIGN
	case '>':
		return GT
	case '<':
		return LT
	default:
		return ILLEGAL
	}
}

func punctuationType(ch byte) TokenType {
	switch ch {
	case '(':
		return LPAREN
	case ')':
		return RPAREN
	case '[':
		return LBRACKET
	case ']':
		return RBRACKET
	case ',':
		return COMMA
	case ':':
		return COLON
	default:
		return ILLEGAL
	}
}

func isOperator(ch byte) bool {
	switch ch {
	case '+', '-', '*', '/', '=', '>', '<':
		return true
	}
	return false
}

func isPunctuation(ch byte) bool {
	switch ch {
	case '(', ')', '[', ']', ',', ':':
		return true
	}
	return false
}

func isBlank(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

// isLetter is ASCII only; underscores are not identifier characters.
func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
