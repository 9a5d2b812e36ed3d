package evaluator

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sambeau/minipy/pkg/minipy/ast"
	perrors "github.com/sambeau/minipy/pkg/minipy/errors"
)

// ValueKind is the type of an evaluation result
type ValueKind int

const (
	NilValue ValueKind = iota
	IntValue
	ListValue
	StringValue
)

func (k ValueKind) String() string {
	switch k {
	case IntValue:
		return "INT"
	case ListValue:
		return "LIST"
	case StringValue:
		return "STRING"
	default:
		return "NIL"
	}
}

// Value is the result of evaluating an expression. Integers are kept as
// their decimal text so literals print exactly as written.
type Value struct {
	Kind   ValueKind
	Scalar string
	List   []string
}

// Inspect returns the printed form of the value
func (v Value) Inspect() string {
	switch v.Kind {
	case ListValue:
		return "[" + strings.Join(v.List, ", ") + "]"
	case IntValue, StringValue:
		return v.Scalar
	default:
		return ""
	}
}

var nilValue = Value{Kind: NilValue}

// Eval executes one statement against env. A nil statement is a no-op.
func Eval(stmt ast.Statement, env *Environment) error {
	switch node := stmt.(type) {
	case nil:
		return nil
	case *ast.AssignStatement:
		return evalAssign(node, env)
	case *ast.PrintStatement:
		return evalPrint(node, env)
	case *ast.PrintLabeledStatement:
		return evalPrintLabeled(node, env)
	default:
		return perrors.NewRunTime("RUN-0011", ast.Line(stmt), nil)
	}
}

// EvalExpression evaluates an expression to a value
func EvalExpression(node ast.Expression, env *Environment) (Value, error) {
	switch node := node.(type) {
	case nil:
		return nilValue, nil
	case *ast.NumberLiteral:
		return Value{Kind: IntValue, Scalar: node.Value}, nil
	case *ast.StringLiteral:
		return Value{Kind: StringValue, Scalar: node.Value}, nil
	case *ast.ListLiteral:
		return Value{Kind: ListValue, List: slices.Clone(node.Elements)}, nil
	case *ast.Variable:
		return evalVariable(node, env)
	case *ast.ListAccess:
		return evalListAccess(node, env)
	case *ast.ListSplice:
		return evalListSplice(node, env)
	case *ast.PlusExpression:
		return evalPlus(node, env)
	default:
		return nilValue, perrors.NewRunTime("RUN-0011", ast.Line(node), nil)
	}
}

func evalVariable(node *ast.Variable, env *Environment) (Value, error) {
	line := node.Token.Line
	entry, ok := env.scalars[node.Name]
	if !ok {
		return nilValue, perrors.NewRunTime("RUN-0004", line, map[string]any{"Name": node.Name})
	}

	switch entry.kind {
	case ast.KindList:
		list, ok := env.lists[node.Name]
		if !ok {
			return nilValue, perrors.NewRunTime("RUN-0004", line, map[string]any{"Name": node.Name})
		}
		return Value{Kind: ListValue, List: slices.Clone(list)}, nil
	case ast.KindInt:
		return Value{Kind: IntValue, Scalar: entry.value}, nil
	default:
		return nilValue, perrors.NewRunTime("RUN-0005", line, map[string]any{"Name": node.Name})
	}
}

// index converts an integer value to a list index. Negative or
// unrepresentable indexes are reported as out of bounds.
func index(v Value, line int) (int, error) {
	idx, err := strconv.Atoi(v.Scalar)
	if err != nil || idx < 0 {
		return 0, perrors.NewRunTime("RUN-0001", line, nil)
	}
	return idx, nil
}

func evalListAccess(node *ast.ListAccess, env *Environment) (Value, error) {
	line := node.Token.Line

	list, err := EvalExpression(node.List, env)
	if err != nil {
		return nilValue, err
	}
	idxVal, err := EvalExpression(node.Index, env)
	if err != nil {
		return nilValue, err
	}
	if list.Kind != ListValue || idxVal.Kind != IntValue {
		return nilValue, perrors.NewRunTime("RUN-0002", line, nil)
	}

	idx, err := index(idxVal, line)
	if err != nil {
		return nilValue, err
	}
	// An index equal to the length has no element to read.
	if idx >= len(list.List) {
		return nilValue, perrors.NewRunTime("RUN-0001", line, nil)
	}

	return Value{Kind: IntValue, Scalar: list.List[idx]}, nil
}

func evalListSplice(node *ast.ListSplice, env *Environment) (Value, error) {
	line := node.Token.Line

	list, err := EvalExpression(node.List, env)
	if err != nil {
		return nilValue, err
	}
	start, err := EvalExpression(node.Start, env)
	if err != nil {
		return nilValue, err
	}

	hasStart := false
	idx := 0
	switch start.Kind {
	case IntValue:
		hasStart = true
		if idx, err = index(start, line); err != nil {
			return nilValue, err
		}
	case NilValue:
	default:
		return nilValue, perrors.NewRunTime("RUN-0003", line, nil)
	}

	if list.Kind != ListValue {
		return nilValue, perrors.NewRunTime("RUN-0003", line, nil)
	}
	if hasStart && idx > len(list.List) {
		return nilValue, perrors.NewRunTime("RUN-0001", line, nil)
	}

	if node.FromIndex {
		return Value{Kind: ListValue, List: slices.Clone(list.List[idx:])}, nil
	}
	return Value{Kind: ListValue, List: list.List}, nil
}

func evalPlus(node *ast.PlusExpression, env *Environment) (Value, error) {
	line := node.Token.Line

	left, err := EvalExpression(node.Left, env)
	if err != nil {
		return nilValue, err
	}
	right, err := EvalExpression(node.Right, env)
	if err != nil {
		return nilValue, err
	}

	switch {
	case left.Kind == IntValue && right.Kind == IntValue:
		sum, err := addInts(left.Scalar, right.Scalar)
		if err != nil {
			return nilValue, perrors.NewRunTime("RUN-0015", line, nil)
		}
		return Value{Kind: IntValue, Scalar: sum}, nil
	case left.Kind == ListValue && right.Kind == ListValue:
		joined := make([]string, 0, len(left.List)+len(right.List))
		joined = append(joined, left.List...)
		joined = append(joined, right.List...)
		return Value{Kind: ListValue, List: joined}, nil
	default:
		return nilValue, perrors.NewRunTime("RUN-0008", line, nil)
	}
}

func addInts(a, b string) (string, error) {
	x, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return "", err
	}
	y, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return "", err
	}
	if (y > 0 && x > math.MaxInt64-y) || (y < 0 && x < math.MinInt64-y) {
		return "", strconv.ErrRange
	}
	return strconv.FormatInt(x+y, 10), nil
}

func evalAssign(node *ast.AssignStatement, env *Environment) error {
	switch target := node.Target.(type) {
	case *ast.Variable:
		return assignVariable(node, target, env)
	case *ast.ListAccess:
		return assignElement(node, target, env)
	case *ast.ListSplice:
		return assignSplice(node, target, env)
	default:
		return perrors.NewRunTime("RUN-0010", node.Token.Line, nil)
	}
}

func assignVariable(node *ast.AssignStatement, target *ast.Variable, env *Environment) error {
	value, err := EvalExpression(node.Value, env)
	if err != nil {
		return err
	}

	switch value.Kind {
	case IntValue:
		env.setInt(target.Name, value.Scalar)
	case ListValue:
		env.setList(target.Name, value.List)
	default:
		return perrors.NewRunTime("RUN-0006", node.Token.Line, map[string]any{"Name": target.Name})
	}
	return nil
}

// assignElement handles 'x[i] = value'. The bound is checked before the
// right-hand side is evaluated.
func assignElement(node *ast.AssignStatement, target *ast.ListAccess, env *Environment) error {
	line := node.Token.Line
	name := target.List.Name

	entry, ok := env.scalars[name]
	if !ok || entry.kind != ast.KindList {
		return perrors.NewRunTime("RUN-0004", line, map[string]any{"Name": name})
	}
	list, ok := env.lists[name]
	if !ok {
		return perrors.NewRunTime("RUN-0005", line, map[string]any{"Name": name})
	}

	idxVal, err := EvalExpression(target.Index, env)
	if err != nil {
		return err
	}
	if idxVal.Kind != IntValue {
		return perrors.NewRunTime("RUN-0002", line, nil)
	}
	idx, err := index(idxVal, line)
	if err != nil {
		return err
	}
	if idx >= len(list) {
		return perrors.NewRunTime("RUN-0001", line, nil)
	}

	value, err := EvalExpression(node.Value, env)
	if err != nil {
		return err
	}
	if value.Kind != IntValue {
		return perrors.NewRunTime("RUN-0007", line, nil)
	}

	updated := slices.Clone(list)
	updated[idx] = value.Scalar
	env.setList(name, updated)
	return nil
}

// assignSplice handles 'x[i:] = y[j:]': the named list is cut from
// position i-1 onward and the right-hand splice is appended.
func assignSplice(node *ast.AssignStatement, target *ast.ListSplice, env *Environment) error {
	line := node.Token.Line

	left, err := EvalExpression(target, env)
	if err != nil {
		return err
	}
	if left.Kind != ListValue {
		return perrors.NewRunTime("RUN-0008", line, nil)
	}

	startVal, err := EvalExpression(target.Start, env)
	if err != nil {
		return err
	}
	if startVal.Kind != IntValue {
		return perrors.NewRunTime("RUN-0008", line, nil)
	}
	cut, err := index(startVal, line)
	if err != nil {
		return err
	}

	rightSplice, ok := node.Value.(*ast.ListSplice)
	if !ok {
		return perrors.NewRunTime("RUN-0009", line, nil)
	}
	right, err := EvalExpression(rightSplice, env)
	if err != nil {
		return err
	}
	if right.Kind != ListValue {
		return perrors.NewRunTime("RUN-0008", line, nil)
	}

	original := env.lists[target.List.Name]
	if cut > len(original) || cut == 0 {
		return perrors.NewRunTime("RUN-0001", line, nil)
	}

	updated := make([]string, 0, cut-1+len(right.List))
	updated = append(updated, original[:cut-1]...)
	updated = append(updated, right.List...)
	env.setList(target.List.Name, updated)
	return nil
}

func evalPrint(node *ast.PrintStatement, env *Environment) error {
	value, err := EvalExpression(node.Value, env)
	if err != nil {
		return err
	}
	if value.Kind != IntValue && value.Kind != ListValue {
		return perrors.NewRunTime("RUN-0003", node.Token.Line, nil)
	}
	env.Logger.LogLine(value.Inspect())
	return nil
}

func evalPrintLabeled(node *ast.PrintLabeledStatement, env *Environment) error {
	label, err := EvalExpression(node.Label, env)
	if err != nil {
		return err
	}
	if label.Kind != StringValue {
		return perrors.NewRunTime("RUN-0012", node.Token.Line, nil)
	}

	value, err := EvalExpression(node.Value, env)
	if err != nil {
		return err
	}
	env.Logger.LogLine(label.Scalar + " " + value.Inspect())
	return nil
}
