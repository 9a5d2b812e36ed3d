// Package minipy provides a public API for embedding the minipy interpreter.
//
// An Interpreter runs source one line at a time: each line is tokenized,
// parsed and evaluated before the next is read, and the first error stops
// the run.
package minipy

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sambeau/minipy/pkg/minipy/ast"
	perrors "github.com/sambeau/minipy/pkg/minipy/errors"
	"github.com/sambeau/minipy/pkg/minipy/evaluator"
	"github.com/sambeau/minipy/pkg/minipy/format"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
	"github.com/sambeau/minipy/pkg/minipy/parser"
)

// Event describes one executed source line
type Event struct {
	File    string
	Line    int
	Source  string
	Output  string // program output produced by the line
	Err     error
	Elapsed time.Duration
}

// Interpreter holds the state of one program run
type Interpreter struct {
	env      *evaluator.Environment
	lex      *lexer.Lexer
	logger   Logger
	filename string

	traceOut    io.Writer
	traceTokens bool
	traceAST    bool

	observer func(Event)
	capture  *BufferedLogger
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithLogger sets where print output goes (default: stdout)
func WithLogger(l Logger) Option {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// WithFilename sets the file name attached to errors
func WithFilename(name string) Option {
	return func(in *Interpreter) {
		in.filename = name
	}
}

// WithTrace writes token and/or AST traces for every line to w
func WithTrace(w io.Writer, tokens, tree bool) Option {
	return func(in *Interpreter) {
		in.traceOut = w
		in.traceTokens = tokens
		in.traceAST = tree
	}
}

// WithObserver calls fn after every executed line
func WithObserver(fn func(Event)) Option {
	return func(in *Interpreter) {
		in.observer = fn
	}
}

// New creates an interpreter with an empty environment
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:    evaluator.NewEnvironment(),
		lex:    lexer.New(),
		logger: StdoutLogger(),
	}
	for _, opt := range opts {
		opt(in)
	}

	in.env.Filename = in.filename
	in.env.Logger = in.logger
	if in.observer != nil {
		in.capture = NewBufferedLogger()
		in.env.Logger = TeeLogger(in.logger, in.capture)
	}
	return in
}

// Env returns the interpreter's variables
func (in *Interpreter) Env() *evaluator.Environment {
	return in.env
}

// SetTrace changes the trace settings of a running interpreter
func (in *Interpreter) SetTrace(w io.Writer, tokens, tree bool) {
	WithTrace(w, tokens, tree)(in)
}

// Reset forgets all variables and open blocks
func (in *Interpreter) Reset() {
	in.env.Clear()
	in.lex.Reset()
}

// Tokenize converts one line to tokens, appending the statement-end
// markers for every open block when final is set.
func (in *Interpreter) Tokenize(line string, lineNum int, final bool) ([]lexer.Token, error) {
	tokens, err := in.lex.Tokenize(line, lineNum)
	if err != nil {
		return nil, in.withFile(err)
	}
	if final {
		tokens = append(tokens, in.lex.Flush(lineNum)...)
	}
	return tokens, nil
}

// ParseLine tokenizes and parses one line. List literals are resolved
// against the current variables.
func (in *Interpreter) ParseLine(line string, lineNum int, final bool) (ast.Statement, error) {
	tokens, err := in.Tokenize(line, lineNum, final)
	if err != nil {
		return nil, err
	}
	if in.traceTokens {
		fmt.Fprint(in.traceOut, format.Tokens(tokens))
	}

	stmt, err := parser.New(tokens, in.env).ParseStatement()
	if err != nil {
		return nil, in.withFile(err)
	}
	if in.traceAST {
		fmt.Fprintln(in.traceOut, format.Node(stmt))
	}
	return stmt, nil
}

// ExecLine runs a single source line
func (in *Interpreter) ExecLine(line string, lineNum int, final bool) error {
	start := time.Now()
	if in.capture != nil {
		in.capture.Reset()
	}

	err := in.execLine(line, lineNum, final)

	if in.observer != nil {
		in.observer(Event{
			File:    in.filename,
			Line:    lineNum,
			Source:  line,
			Output:  in.capture.String(),
			Err:     err,
			Elapsed: time.Since(start),
		})
	}
	return err
}

func (in *Interpreter) execLine(line string, lineNum int, final bool) error {
	stmt, err := in.ParseLine(line, lineNum, final)
	if err != nil {
		return err
	}
	if err := evaluator.Eval(stmt, in.env); err != nil {
		return in.withFile(err)
	}
	return nil
}

// Run executes source read from r, stopping at the first error
func (in *Interpreter) Run(r io.Reader) error {
	return eachLine(r, in.ExecLine)
}

// Parse parses every line of r without evaluating anything. Identifiers
// in list literals are not resolved.
func (in *Interpreter) Parse(r io.Reader) (*ast.Program, error) {
	program := &ast.Program{}
	lex := lexer.New()

	err := eachLine(r, func(line string, lineNum int, final bool) error {
		tokens, err := lex.Tokenize(line, lineNum)
		if err != nil {
			return in.withFile(err)
		}
		if final {
			tokens = append(tokens, lex.Flush(lineNum)...)
		}
		stmt, err := parser.New(tokens, nil).ParseStatement()
		if err != nil {
			return in.withFile(err)
		}
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

func (in *Interpreter) withFile(err error) error {
	var mpErr *perrors.MiniPyError
	if in.filename != "" && errors.As(err, &mpErr) {
		return mpErr.WithFile(in.filename)
	}
	return err
}

// eachLine calls fn for every line of r with its 1-based number. The
// last line is reported as final. Line endings (\n or \r\n) are removed.
func eachLine(r io.Reader, fn func(line string, lineNum int, final bool) error) error {
	reader := bufio.NewReader(r)

	current, ok, err := readLine(reader)
	if err != nil {
		return err
	}

	for lineNum := 1; ok; lineNum++ {
		next, more, err := readLine(reader)
		if err != nil {
			return err
		}
		if err := fn(current, lineNum, !more); err != nil {
			return err
		}
		current, ok = next, more
	}
	return nil
}

func readLine(reader *bufio.Reader) (string, bool, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("reading source: %w", err)
	}
	if line == "" && err != nil {
		return "", false, nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, true, nil
}

// RunString executes src with a fresh interpreter
func RunString(src string, opts ...Option) error {
	return New(opts...).Run(strings.NewReader(src))
}

// RunFile executes the file at path with a fresh interpreter
func RunFile(path string, opts ...Option) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts = append([]Option{WithFilename(path)}, opts...)
	return New(opts...).Run(f)
}
