package ast

import (
	"bytes"
	"strings"

	"github.com/sambeau/minipy/pkg/minipy/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program represents the statements of a whole source file
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer

	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}

	return out.String()
}

// VarKind is the declared kind of a variable reference
type VarKind int

const (
	KindUnknown VarKind = iota // resolved from the symbol table at run time
	KindInt
	KindList
)

func (k VarKind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindList:
		return "LIST"
	default:
		return "NIL"
	}
}

// Variable represents a variable reference like 'x'
type Variable struct {
	Token lexer.Token // the lexer.IDENT token
	Name  string
	Kind  VarKind
}

func (v *Variable) expressionNode()      {}
func (v *Variable) TokenLiteral() string { return v.Token.Literal }
func (v *Variable) String() string       { return v.Name }

// NumberLiteral represents an integer literal. The text is kept verbatim.
type NumberLiteral struct {
	Token lexer.Token
	Value string
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return nl.Value }

// StringLiteral represents a double-quoted string literal
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return `"` + sl.Value + `"` }

// ListLiteral represents '[1, 2, 3]'. Variables named in the source are
// resolved when the literal is parsed, so Elements holds integer text only.
type ListLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []string
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	return "[" + strings.Join(ll.Elements, ", ") + "]"
}

// ListAccess represents 'x[i]'
type ListAccess struct {
	Token lexer.Token // the '[' token
	List  *Variable
	Index Expression
}

func (la *ListAccess) expressionNode()      {}
func (la *ListAccess) TokenLiteral() string { return la.Token.Literal }
func (la *ListAccess) String() string {
	return la.List.String() + "[" + la.Index.String() + "]"
}

// ListSplice represents 'x[:]' (whole list) or 'x[i:]' (from index to end)
type ListSplice struct {
	Token     lexer.Token // the '[' token
	List      *Variable
	Start     Expression // nil for the whole-list form
	FromIndex bool
}

func (ls *ListSplice) expressionNode()      {}
func (ls *ListSplice) TokenLiteral() string { return ls.Token.Literal }
func (ls *ListSplice) String() string {
	if ls.Start == nil {
		return ls.List.String() + "[:]"
	}
	return ls.List.String() + "[" + ls.Start.String() + ":]"
}

// PlusExpression represents 'left + right'
type PlusExpression struct {
	Token lexer.Token // the '+' token
	Left  Expression
	Right Expression
}

func (pe *PlusExpression) expressionNode()      {}
func (pe *PlusExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PlusExpression) String() string {
	return "(" + pe.Left.String() + " + " + pe.Right.String() + ")"
}

// AssignStatement represents 'target = value'. Target is a *Variable,
// *ListAccess or *ListSplice.
type AssignStatement struct {
	Token  lexer.Token // the '=' token
	Target Expression
	Value  Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Target.String() + " = " + as.Value.String()
}

// PrintStatement represents 'print(value)'
type PrintStatement struct {
	Token lexer.Token // the 'print' token
	Value Expression
}

func (ps *PrintStatement) statementNode()       {}
func (ps *PrintStatement) TokenLiteral() string { return ps.Token.Literal }
func (ps *PrintStatement) String() string {
	return "print(" + ps.Value.String() + ")"
}

// PrintLabeledStatement represents 'print("label", value)'
type PrintLabeledStatement struct {
	Token lexer.Token // the 'print' token
	Label Expression  // a *StringLiteral when produced by the parser
	Value Expression
}

func (pl *PrintLabeledStatement) statementNode()       {}
func (pl *PrintLabeledStatement) TokenLiteral() string { return pl.Token.Literal }
func (pl *PrintLabeledStatement) String() string {
	return "print(" + pl.Label.String() + ", " + pl.Value.String() + ")"
}

// Children returns the direct children of a node in evaluation order.
func Children(node Node) []Node {
	switch n := node.(type) {
	case *Program:
		out := make([]Node, 0, len(n.Statements))
		for _, s := range n.Statements {
			out = append(out, s)
		}
		return out
	case *ListAccess:
		return []Node{n.List, n.Index}
	case *ListSplice:
		if n.Start != nil {
			return []Node{n.List, n.Start}
		}
		return []Node{n.List}
	case *PlusExpression:
		return []Node{n.Left, n.Right}
	case *AssignStatement:
		return []Node{n.Target, n.Value}
	case *PrintStatement:
		return []Node{n.Value}
	case *PrintLabeledStatement:
		return []Node{n.Label, n.Value}
	default:
		return nil
	}
}

// Walk visits node and its descendants depth-first. If fn returns false
// the children of that node are skipped.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Line returns the source line a node was parsed from, or 0.
func Line(node Node) int {
	switch n := node.(type) {
	case *Variable:
		return n.Token.Line
	case *NumberLiteral:
		return n.Token.Line
	case *StringLiteral:
		return n.Token.Line
	case *ListLiteral:
		return n.Token.Line
	case *ListAccess:
		return n.Token.Line
	case *ListSplice:
		return n.Token.Line
	case *PlusExpression:
		return n.Token.Line
	case *AssignStatement:
		return n.Token.Line
	case *PrintStatement:
		return n.Token.Line
	case *PrintLabeledStatement:
		return n.Token.Line
	case *Program:
		if len(n.Statements) > 0 {
			return Line(n.Statements[0])
		}
	}
	return 0
}
