package format

import (
	"strconv"
	"strings"

	"github.com/sambeau/minipy/pkg/minipy/ast"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
)

// Token describes a single token
func Token(t lexer.Token) string {
	switch t.Type {
	case lexer.IDENT:
		return "IDENTIFIER: " + t.Literal
	case lexer.STRING:
		return "STR_LITERAL: " + t.Literal
	case lexer.INT:
		return "INT: " + t.Literal
	case lexer.KEYWORD:
		return "KEYWORD: " + t.Literal + " (pos: " + strconv.Itoa(t.Column) + ")"
	case lexer.STMT_END:
		return "STMT_END (pos: " + strconv.Itoa(t.Column) + ")"
	case lexer.ENDLINE:
		return "ENDLINE"
	case lexer.EOF:
		return "EOF"
	case lexer.LPAREN:
		return "OPEN_PAREN"
	case lexer.RPAREN:
		return "CLOSED_PAREN"
	case lexer.LBRACKET:
		return "OPEN_BRACKET"
	case lexer.RBRACKET:
		return "CLOSED_BRACKET"
	case lexer.COMMA:
		return "COMMA"
	case lexer.COLON:
		return "COLON"
	case lexer.PLUS:
		return "PLUS"
	case lexer.MINUS:
		return "MINUS"
	case lexer.ASTERISK:
		return "MULT"
	case lexer.SLASH:
		return "DIV"
	case lexer.GT:
		return "GREATER THAN"
	case lexer.LT:
		return "LESS THAN"
	case lexer.ASSIGN:
		return "EQUALS"
	default:
		return "UNKNOWN TOKEN: " + t.Literal
	}
}

// Tokens renders a token list on one line per ENDLINE, each token in braces
func Tokens(tokens []lexer.Token) string {
	p := NewPrinter()
	for _, t := range tokens {
		p.write("{ " + Token(t) + " } ")
		if t.Type == lexer.ENDLINE {
			p.newline()
		}
	}
	return p.String()
}

// Node renders a syntax tree on one line. A nil node is "NULL".
func Node(node ast.Node) string {
	p := NewPrinter()
	p.node(node)
	return p.String()
}

func (p *Printer) node(node ast.Node) {
	switch n := node.(type) {
	case nil:
		p.write("NULL")
	case *ast.Program:
		for _, s := range n.Statements {
			p.node(s)
			p.newline()
		}
	case *ast.NumberLiteral:
		p.write("NUMBER:{" + n.Value + "}")
	case *ast.StringLiteral:
		p.write("STR_LITERAL:{" + n.Value + "}")
	case *ast.ListLiteral:
		p.write("LIST:{" + strings.Join(n.Elements, ", ") + "}")
	case *ast.Variable:
		p.write("VAR:{NAME:(" + n.Name + ") TYPE:(" + n.Kind.String() + ")}")
	case *ast.ListAccess:
		p.write("ACCESS:{")
		p.node(n.List)
		p.write("[")
		p.node(n.Index)
		p.write("]}")
	case *ast.ListSplice:
		p.write("SPLICE:{")
		p.node(n.List)
		p.write(" at ")
		if n.Start == nil {
			p.write("NULL")
		} else {
			p.node(n.Start)
		}
		p.write("}")
	case *ast.PlusExpression:
		p.write("ADD:{")
		p.node(n.Left)
		p.write(" + ")
		p.node(n.Right)
		p.write("}")
	case *ast.AssignStatement:
		p.write("ASSIGN:{")
		p.node(n.Target)
		p.write(" = ")
		p.node(n.Value)
		p.write("}")
	case *ast.PrintStatement:
		p.write("PRINT:{")
		p.node(n.Value)
		p.write("}")
	case *ast.PrintLabeledStatement:
		p.write("PRINT:{")
		p.node(n.Label)
		p.write(" , ")
		p.node(n.Value)
		p.write("}")
	default:
		p.write("UNKNOWN")
	}
}

// Tree renders a syntax tree as an indented outline, one node per line.
func Tree(node ast.Node) string {
	p := NewPrinter()
	p.tree(node)
	return p.String()
}

func (p *Printer) tree(node ast.Node) {
	if node == nil {
		p.writeIndent()
		p.writeln("NULL")
		return
	}
	if prog, ok := node.(*ast.Program); ok {
		for _, s := range prog.Statements {
			p.tree(s)
		}
		return
	}

	p.writeIndent()
	p.writeln(label(node))

	p.indentInc()
	for _, child := range ast.Children(node) {
		p.tree(child)
	}
	p.indentDec()
}

func label(node ast.Node) string {
	line := " (line " + strconv.Itoa(ast.Line(node)) + ")"
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return "NUMBER " + n.Value
	case *ast.StringLiteral:
		return "STR_LITERAL " + strconv.Quote(n.Value)
	case *ast.ListLiteral:
		return "LIST [" + strings.Join(n.Elements, ", ") + "]"
	case *ast.Variable:
		return "VAR " + n.Name + " " + n.Kind.String()
	case *ast.ListAccess:
		return "ACCESS"
	case *ast.ListSplice:
		if n.FromIndex {
			return "SPLICE from index"
		}
		return "SPLICE whole"
	case *ast.PlusExpression:
		return "ADD"
	case *ast.AssignStatement:
		return "ASSIGN" + line
	case *ast.PrintStatement:
		return "PRINT" + line
	case *ast.PrintLabeledStatement:
		return "PRINT labeled" + line
	default:
		return "UNKNOWN"
	}
}
