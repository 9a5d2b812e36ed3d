package parser

import (
	"github.com/sambeau/minipy/pkg/minipy/ast"
	perrors "github.com/sambeau/minipy/pkg/minipy/errors"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
)

// Resolver looks up the current value of a variable while parsing. List
// literals embed the values of the integer variables they name.
type Resolver interface {
	Resolve(name string) (value string, kind ast.VarKind, ok bool)
}

// Parser parses the tokens of a single source line.
//
// Every production takes the position to restore on failure and returns
// (node, nil) on a match, (nil, nil) when the alternative does not apply
// (with the cursor restored) or (nil, err) when parsing cannot continue.
type Parser struct {
	tokens   []lexer.Token
	pos      int
	curToken lexer.Token
	line     int

	resolver Resolver
}

// New creates a parser over one line of tokens. resolver may be nil, in
// which case identifiers in list literals are kept by name unresolved.
func New(tokens []lexer.Token, resolver Resolver) *Parser {
	p := &Parser{tokens: tokens, resolver: resolver}
	for _, tok := range tokens {
		if tok.Line > 0 {
			p.line = tok.Line
			break
		}
	}
	p.setPosition(0)
	return p
}

func (p *Parser) setPosition(i int) {
	p.pos = i
	if i < len(p.tokens) {
		p.curToken = p.tokens[i]
		return
	}
	p.curToken = lexer.Token{Type: lexer.EOF, Line: p.line, Column: -1}
}

func (p *Parser) nextToken() {
	p.setPosition(p.pos + 1)
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) atLineEnd() bool {
	return p.curTokenIs(lexer.ENDLINE) || p.curTokenIs(lexer.EOF)
}

// skipMarkers steps over synthesized statement-end pairs.
func (p *Parser) skipMarkers() {
	for p.curTokenIs(lexer.STMT_END) {
		p.nextToken()
		if p.curTokenIs(lexer.ENDLINE) {
			p.nextToken()
		}
	}
}

// onlyMarkersRemain reports whether everything from the cursor on is an
// end-of-line or statement-end marker.
func (p *Parser) onlyMarkersRemain() bool {
	for i := p.pos; i < len(p.tokens); i++ {
		switch p.tokens[i].Type {
		case lexer.ENDLINE, lexer.STMT_END:
		default:
			return false
		}
	}
	return true
}

func (p *Parser) syntaxError(expected string) error {
	return perrors.NewSyntax(expected, p.curToken.Line, p.curToken.Column)
}

// ParseStatement parses the line into at most one statement. Blank and
// comment-only lines return nil, nil.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	p.skipMarkers()
	if p.onlyMarkersRemain() {
		return nil, nil
	}

	var stmt ast.Statement
	var err error

	switch {
	case p.curTokenIs(lexer.IDENT):
		var assign *ast.AssignStatement
		assign, err = p.parseAssign(p.pos)
		if err != nil {
			return nil, err
		}
		if assign == nil {
			return nil, p.syntaxError("different syntax for identifier")
		}
		stmt = assign
	case p.curTokenIs(lexer.KEYWORD) && p.curToken.Literal == "print":
		stmt, err = p.parsePrint(p.pos)
		if err != nil {
			return nil, err
		}
		if stmt == nil {
			return nil, p.syntaxError("different syntax for print()")
		}
	case p.curTokenIs(lexer.KEYWORD):
		return nil, perrors.NewWithPosition("SYNTAX-0002", p.curToken.Line, p.curToken.Column,
			map[string]any{"Keyword": p.curToken.Literal})
	default:
		return nil, perrors.NewWithPosition("SYNTAX-0003", p.curToken.Line, p.curToken.Column, nil)
	}

	if !p.atLineEnd() || !p.onlyMarkersRemain() {
		return nil, perrors.NewWithPosition("SYNTAX-0003", p.curToken.Line, p.curToken.Column, nil)
	}
	return stmt, nil
}

// parseAtom parses INT | IDENT. An identifier followed by '[' is not an atom.
func (p *Parser) parseAtom(backtrack int) ast.Expression {
	switch {
	case p.curTokenIs(lexer.INT):
		node := &ast.NumberLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		return node
	case p.curTokenIs(lexer.IDENT):
		node := &ast.Variable{Token: p.curToken, Name: p.curToken.Literal}
		p.nextToken()
		if p.curTokenIs(lexer.LBRACKET) {
			p.setPosition(backtrack)
			return nil
		}
		return node
	}
	p.setPosition(backtrack)
	return nil
}

// parseListAccess parses IDENT '[' atom ']'.
func (p *Parser) parseListAccess(backtrack int) *ast.ListAccess {
	if !p.curTokenIs(lexer.IDENT) {
		p.setPosition(backtrack)
		return nil
	}
	list := &ast.Variable{Token: p.curToken, Name: p.curToken.Literal, Kind: ast.KindList}
	p.nextToken()
	if !p.curTokenIs(lexer.LBRACKET) {
		p.setPosition(backtrack)
		return nil
	}
	bracket := p.curToken
	p.nextToken()

	index := p.parseAtom(p.pos)
	if index == nil || !p.curTokenIs(lexer.RBRACKET) {
		p.setPosition(backtrack)
		return nil
	}
	p.nextToken()

	return &ast.ListAccess{Token: bracket, List: list, Index: index}
}

// parseListSplice parses IDENT '[' ':' ']' or IDENT '[' (INT|IDENT) ':' ']'.
// Once the colon has been seen a missing ']' is fatal.
func (p *Parser) parseListSplice(backtrack int) (*ast.ListSplice, error) {
	if !p.curTokenIs(lexer.IDENT) {
		p.setPosition(backtrack)
		return nil, nil
	}
	list := &ast.Variable{Token: p.curToken, Name: p.curToken.Literal, Kind: ast.KindList}
	p.nextToken()
	if !p.curTokenIs(lexer.LBRACKET) {
		p.setPosition(backtrack)
		return nil, nil
	}
	splice := &ast.ListSplice{Token: p.curToken, List: list}
	p.nextToken()

	switch {
	case p.curTokenIs(lexer.COLON):
		// whole list
	case p.curTokenIs(lexer.INT):
		splice.Start = &ast.NumberLiteral{Token: p.curToken, Value: p.curToken.Literal}
		splice.FromIndex = true
		p.nextToken()
	case p.curTokenIs(lexer.IDENT):
		splice.Start = &ast.Variable{Token: p.curToken, Name: p.curToken.Literal}
		splice.FromIndex = true
		p.nextToken()
	default:
		p.setPosition(backtrack)
		return nil, nil
	}

	if !p.curTokenIs(lexer.COLON) {
		p.setPosition(backtrack)
		return nil, nil
	}
	p.nextToken()
	if !p.curTokenIs(lexer.RBRACKET) {
		return nil, p.syntaxError("']'")
	}
	p.nextToken()

	return splice, nil
}

// parseOperand parses atom | list_access.
func (p *Parser) parseOperand() ast.Expression {
	if atom := p.parseAtom(p.pos); atom != nil {
		return atom
	}
	if access := p.parseListAccess(p.pos); access != nil {
		return access
	}
	return nil
}

// parseExpression parses operand ('+' operand)*.
func (p *Parser) parseExpression(backtrack int) (ast.Expression, error) {
	first := p.parseOperand()
	if first == nil {
		return nil, p.syntaxError("either integer, identifier, or list access")
	}
	if p.atLineEnd() {
		return first, nil
	}
	if !p.curTokenIs(lexer.PLUS) {
		return nil, p.syntaxError("'+'")
	}

	items := []exprItem{{operand: first}}
	for p.curTokenIs(lexer.PLUS) {
		plus := p.curToken
		p.nextToken()
		items = append(items, exprItem{op: &plus})

		operand := p.parseOperand()
		if operand == nil {
			return nil, p.syntaxError("either integer, identifier, or list access")
		}
		items = append(items, exprItem{operand: operand})
	}

	tree := foldPostfix(toPostfix(items))
	if tree == nil {
		p.setPosition(backtrack)
		return nil, nil
	}
	return tree, nil
}

// parseListLiteral parses '[' ']' | '[' elem (',' elem)* ']' where elem is
// INT or an integer variable.
func (p *Parser) parseListLiteral(backtrack int) (*ast.ListLiteral, error) {
	if !p.curTokenIs(lexer.LBRACKET) {
		p.setPosition(backtrack)
		return nil, nil
	}
	list := &ast.ListLiteral{Token: p.curToken, Elements: []string{}}
	p.nextToken()

	if p.curTokenIs(lexer.RBRACKET) {
		p.nextToken()
		return list, nil
	}

	for {
		value, err := p.parseListElement()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, value)
		p.nextToken()

		switch {
		case p.curTokenIs(lexer.RBRACKET):
			p.nextToken()
			return list, nil
		case p.curTokenIs(lexer.COMMA):
			p.nextToken()
		case p.atLineEnd():
			return nil, p.syntaxError("']'")
		default:
			return nil, p.syntaxError("','")
		}
	}
}

func (p *Parser) parseListElement() (string, error) {
	switch {
	case p.curTokenIs(lexer.INT):
		return p.curToken.Literal, nil
	case p.curTokenIs(lexer.IDENT):
		if p.resolver == nil {
			return p.curToken.Literal, nil
		}
		name := p.curToken.Literal
		value, kind, ok := p.resolver.Resolve(name)
		if !ok {
			return "", perrors.NewRunTime("RUN-0013", p.curToken.Line, map[string]any{"Name": name})
		}
		if kind != ast.KindInt {
			return "", perrors.NewRunTime("RUN-0014", p.curToken.Line, nil)
		}
		return value, nil
	}
	return "", p.syntaxError("integer or variable")
}

// parseAssign parses
//
//	list_access '=' expr
//	list_splice '=' list_splice
//	IDENT '=' (list_literal | list_splice | expr)
func (p *Parser) parseAssign(backtrack int) (*ast.AssignStatement, error) {
	if target := p.parseListAccess(p.pos); target != nil {
		if !p.curTokenIs(lexer.ASSIGN) {
			return nil, p.syntaxError("=")
		}
		assign := &ast.AssignStatement{Token: p.curToken, Target: target}
		p.nextToken()

		value, err := p.parseExpression(p.pos)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, p.syntaxError("expression")
		}
		assign.Value = value
		return assign, nil
	}

	target, err := p.parseListSplice(p.pos)
	if err != nil {
		return nil, err
	}
	if target != nil {
		if !p.curTokenIs(lexer.ASSIGN) {
			return nil, p.syntaxError("'='")
		}
		assign := &ast.AssignStatement{Token: p.curToken, Target: target}
		p.nextToken()

		value, err := p.parseListSplice(p.pos)
		if err != nil {
			return nil, err
		}
		if value == nil {
			return nil, p.syntaxError("list splice")
		}
		assign.Value = value
		return assign, nil
	}

	if !p.curTokenIs(lexer.IDENT) {
		p.setPosition(backtrack)
		return nil, p.syntaxError("expression or list")
	}
	variable := &ast.Variable{Token: p.curToken, Name: p.curToken.Literal}
	p.nextToken()
	if !p.curTokenIs(lexer.ASSIGN) {
		return nil, p.syntaxError("=")
	}
	assign := &ast.AssignStatement{Token: p.curToken, Target: variable}
	p.nextToken()

	if p.curTokenIs(lexer.LBRACKET) {
		variable.Kind = ast.KindList
		list, err := p.parseListLiteral(p.pos)
		if err != nil {
			return nil, err
		}
		if list == nil {
			return nil, p.syntaxError("list")
		}
		assign.Value = list
		return assign, nil
	}

	splice, err := p.parseListSplice(p.pos)
	if err != nil {
		return nil, err
	}
	if splice != nil {
		variable.Kind = ast.KindList
		assign.Value = splice
		return assign, nil
	}

	value, err := p.parseExpression(p.pos)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, p.syntaxError("expression or list splice")
	}
	assign.Value = value
	return assign, nil
}

// parsePrintArg parses atom | list_access | list_splice.
func (p *Parser) parsePrintArg() (ast.Expression, error) {
	if operand := p.parseOperand(); operand != nil {
		return operand, nil
	}
	splice, err := p.parseListSplice(p.pos)
	if err != nil {
		return nil, err
	}
	if splice != nil {
		return splice, nil
	}
	return nil, p.syntaxError("identifier, number or list access")
}

// parsePrint parses
//
//	'print' '(' arg ')'
//	'print' '(' STRING ',' arg ')'
func (p *Parser) parsePrint(backtrack int) (ast.Statement, error) {
	if !p.curTokenIs(lexer.KEYWORD) || p.curToken.Literal != "print" {
		p.setPosition(backtrack)
		return nil, nil
	}
	printTok := p.curToken
	p.nextToken()
	if !p.curTokenIs(lexer.LPAREN) {
		return nil, p.syntaxError("'('")
	}
	p.nextToken()

	var label ast.Expression
	if p.curTokenIs(lexer.STRING) {
		label = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		if !p.curTokenIs(lexer.COMMA) {
			return nil, p.syntaxError("','")
		}
		p.nextToken()
	}

	value, err := p.parsePrintArg()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(lexer.RPAREN) {
		return nil, p.syntaxError("')'")
	}
	p.nextToken()

	if label != nil {
		return &ast.PrintLabeledStatement{Token: printTok, Label: label, Value: value}, nil
	}
	return &ast.PrintStatement{Token: printTok, Value: value}, nil
}
