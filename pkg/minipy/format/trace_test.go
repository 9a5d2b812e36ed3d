package format

import (
	"testing"

	"github.com/sambeau/minipy/pkg/minipy/ast"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
	"github.com/sambeau/minipy/pkg/minipy/parser"
)

func parse(t *testing.T, input string) ast.Statement {
	t.Helper()
	tokens, err := lexer.New().Tokenize(input, 1)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", input, err)
	}
	stmt, err := parser.New(tokens, nil).ParseStatement()
	if err != nil {
		t.Fatalf("ParseStatement(%q): %v", input, err)
	}
	return stmt
}

func TestTokens(t *testing.T) {
	tokens, err := lexer.New().Tokenize(`print("n", x[0])`, 1)
	if err != nil {
		t.Fatal(err)
	}
	expected := "{ KEYWORD: print (pos: 0) } { OPEN_PAREN } { STR_LITERAL: n } { COMMA } " +
		"{ IDENTIFIER: x } { OPEN_BRACKET } { INT: 0 } { CLOSED_BRACKET } { CLOSED_PAREN } { ENDLINE } \n"
	if got := Tokens(tokens); got != expected {
		t.Errorf("Tokens() =\n%q\nwant\n%q", got, expected)
	}
}

func TestTokenNames(t *testing.T) {
	tests := []struct {
		tok      lexer.Token
		expected string
	}{
		{lexer.Token{Type: lexer.ASSIGN, Literal: "="}, "EQUALS"},
		{lexer.Token{Type: lexer.ASTERISK, Literal: "*"}, "MULT"},
		{lexer.Token{Type: lexer.GT, Literal: ">"}, "GREATER THAN"},
		{lexer.Token{Type: lexer.STMT_END, Column: 4}, "STMT_END (pos: 4)"},
		{lexer.Token{Type: lexer.ILLEGAL, Literal: "?"}, "UNKNOWN TOKEN: ?"},
	}
	for _, tt := range tests {
		if got := Token(tt.tok); got != tt.expected {
			t.Errorf("Token(%s) = %q, want %q", tt.tok.Type, got, tt.expected)
		}
	}
}

func TestNode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"x = [1, 2]", "ASSIGN:{VAR:{NAME:(x) TYPE:(LIST)} = LIST:{1, 2}}"},
		{
			"b = a + x[0]",
			"ASSIGN:{VAR:{NAME:(b) TYPE:(NIL)} = ADD:{VAR:{NAME:(a) TYPE:(NIL)} + ACCESS:{VAR:{NAME:(x) TYPE:(LIST)}[NUMBER:{0}]}}}",
		},
		{
			`print("s", y[1:])`,
			"PRINT:{STR_LITERAL:{s} , SPLICE:{VAR:{NAME:(y) TYPE:(LIST)} at NUMBER:{1}}}",
		},
		{"print(y[:])", "PRINT:{SPLICE:{VAR:{NAME:(y) TYPE:(LIST)} at NULL}}"},
	}

	for _, tt := range tests {
		if got := Node(parse(t, tt.input)); got != tt.expected {
			t.Errorf("Node(%q) =\n%s\nwant\n%s", tt.input, got, tt.expected)
		}
	}

	if got := Node(nil); got != "NULL" {
		t.Errorf("Node(nil) = %q, want NULL", got)
	}
}

func TestTree(t *testing.T) {
	stmt := parse(t, "z = a + y[2]")
	expected := "ASSIGN (line 1)\n" +
		"  VAR z NIL\n" +
		"  ADD\n" +
		"    VAR a NIL\n" +
		"    ACCESS\n" +
		"      VAR y LIST\n" +
		"      NUMBER 2\n"
	if got := Tree(stmt); got != expected {
		t.Errorf("Tree() =\n%s\nwant\n%s", got, expected)
	}
}

func TestTreeProgram(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{parse(t, "print(1)"), parse(t, "x = []")}}
	expected := "PRINT (line 1)\n  NUMBER 1\nASSIGN (line 1)\n  VAR x LIST\n  LIST []\n"
	if got := Tree(prog); got != expected {
		t.Errorf("Tree() =\n%s\nwant\n%s", got, expected)
	}
}

func TestPrinterReset(t *testing.T) {
	p := NewPrinter()
	p.indentInc()
	p.writeIndent()
	p.writeln("x")
	if p.String() != "  x\n" {
		t.Errorf("got %q", p.String())
	}
	p.Reset()
	p.indentDec()
	p.writeIndent()
	p.write("y")
	if p.String() != "y" {
		t.Errorf("after Reset got %q", p.String())
	}
}
