package parser

import (
	"github.com/sambeau/minipy/pkg/minipy/ast"
	"github.com/sambeau/minipy/pkg/minipy/lexer"
)

// exprItem is one element of a linearized '+' chain: either an operand
// or an operator token.
type exprItem struct {
	operand ast.Expression
	op      *lexer.Token
}

func (it exprItem) isOperator() bool {
	return it.op != nil
}

// toPostfix reorders an infix chain with the shunting-yard algorithm.
// '+' is the only operator, so operands keep their order and every
// operator ends up after them.
func toPostfix(items []exprItem) []exprItem {
	output := make([]exprItem, 0, len(items))
	var operators []exprItem

	for _, it := range items {
		if it.isOperator() {
			operators = append(operators, it)
			continue
		}
		output = append(output, it)
	}

	for len(operators) > 0 {
		output = append(output, operators[len(operators)-1])
		operators = operators[:len(operators)-1]
	}

	return output
}

// foldPostfix builds the tree for a postfix '+' chain. The first operator
// joins the two most recent operands; each later operator joins the next
// operand on the stack (left) with the tree built so far (right). It
// returns nil unless the chain collapses to exactly one tree.
func foldPostfix(postfix []exprItem) ast.Expression {
	var operands []ast.Expression
	var tree *ast.PlusExpression

	pop := func() ast.Expression {
		if len(operands) == 0 {
			return nil
		}
		top := operands[len(operands)-1]
		operands = operands[:len(operands)-1]
		return top
	}

	for _, it := range postfix {
		if !it.isOperator() {
			operands = append(operands, it.operand)
			continue
		}

		if tree == nil {
			right := pop()
			left := pop()
			if left == nil || right == nil {
				return nil
			}
			tree = &ast.PlusExpression{Token: *it.op, Left: left, Right: right}
			continue
		}

		left := pop()
		if left == nil {
			return nil
		}
		tree = &ast.PlusExpression{Token: *it.op, Left: left, Right: tree}
	}

	if tree == nil || len(operands) != 0 {
		return nil
	}
	return tree
}
