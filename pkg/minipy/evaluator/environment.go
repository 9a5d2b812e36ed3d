package evaluator

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sambeau/minipy/pkg/minipy/ast"
)

// Logger receives program output from print statements.
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the logger used when none is specified
var DefaultLogger Logger = &defaultStdoutLogger{}

// scalarEntry is a row of the scalar table. For lists the value is empty
// and the elements live in the list table under the same name.
type scalarEntry struct {
	value string
	kind  ast.VarKind
}

// Environment holds the variables of one interpreter. A name whose
// scalar entry is a list marker always has a list-table entry.
type Environment struct {
	scalars  map[string]scalarEntry
	lists    map[string][]string
	Filename string
	Logger   Logger // Logger for print output
}

// NewEnvironment creates a new, empty environment
func NewEnvironment() *Environment {
	return &Environment{
		scalars: make(map[string]scalarEntry),
		lists:   make(map[string][]string),
		Logger:  DefaultLogger,
	}
}

// Resolve returns the scalar table entry for name. It satisfies
// parser.Resolver so list literals can embed variable values.
func (e *Environment) Resolve(name string) (string, ast.VarKind, bool) {
	entry, ok := e.scalars[name]
	if !ok {
		return "", ast.KindUnknown, false
	}
	return entry.value, entry.kind, true
}

// Get returns the current value of a variable
func (e *Environment) Get(name string) (Value, bool) {
	entry, ok := e.scalars[name]
	if !ok {
		return Value{}, false
	}
	switch entry.kind {
	case ast.KindInt:
		return Value{Kind: IntValue, Scalar: entry.value}, true
	case ast.KindList:
		list, ok := e.lists[name]
		if !ok {
			return Value{}, false
		}
		return Value{Kind: ListValue, List: slices.Clone(list)}, true
	}
	return Value{}, false
}

// Names returns the defined variable names in sorted order
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.scalars))
	for name := range e.scalars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of defined variables
func (e *Environment) Len() int {
	return len(e.scalars)
}

// Clear removes every variable
func (e *Environment) Clear() {
	clear(e.scalars)
	clear(e.lists)
}

func (e *Environment) setInt(name, value string) {
	delete(e.lists, name)
	e.scalars[name] = scalarEntry{value: value, kind: ast.KindInt}
}

func (e *Environment) setList(name string, list []string) {
	e.scalars[name] = scalarEntry{kind: ast.KindList}
	e.lists[name] = slices.Clone(list)
}
