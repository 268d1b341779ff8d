package compiler

import (
	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/op"
)

// compileTest dispatches a Test node on its operator.
func (c *Compiler) compileTest(node *ast.Test) {
	switch node.Op {
	case ast.OpNot:
		c.compilePredicate(node.Left)
		c.code.emit(op.Not)
	case ast.OpAnd:
		c.compileShortCircuit(node, op.IfFalseGoto)
	case ast.OpOr:
		c.compileShortCircuit(node, op.IfTrueGoto)
	case ast.OpAllEq, ast.OpAnyEq, ast.OpAllNe, ast.OpAnyNe,
		ast.OpGt, ast.OpGe, ast.OpLt, ast.OpLe,
		ast.OpContains, ast.OpMatches:
		c.compileRelation(node)
	case ast.OpIn, ast.OpNotIn:
		c.compileMembership(node)
	default:
		invariant(errors.E2002, "operator %q cannot be used in a test", node.Op)
	}
}

// compileShortCircuit compiles "a and b" (IF_FALSE_GOTO) or "a or b"
// (IF_TRUE_GOTO): b is skipped once a decides the result.
func (c *Compiler) compileShortCircuit(node *ast.Test, branch op.Code) {
	c.compilePredicate(node.Left)
	target := c.code.newJumpTarget()
	c.code.emit(branch, target)
	c.compilePredicate(node.Right)
	jumps := []bytecode.ValueID{target}
	c.code.fixup(&jumps)
}

// compileExists tests a bare field for presence. Rawness is irrelevant to
// existence, so the canonical cooked field is checked.
func (c *Compiler) compileExists(node *ast.Field) {
	if node.Info == nil {
		invariant(errors.E2007, "field node without field info")
	}
	f := c.code.canonical(node.Info)
	if len(node.Range) == 0 {
		c.code.emit(op.CheckExists, c.code.fieldValue(f, false))
	} else {
		c.code.emit(op.CheckExistsRange, c.code.fieldValue(f, false), c.code.rangeValue(node.Range))
	}
	c.code.markInteresting(f)
}

// compileNotZero tests that a computed value is not all zero. It returns
// the computed value.
func (c *Compiler) compileNotZero(node ast.Node) bytecode.ValueID {
	var jumps []bytecode.ValueID
	val := c.compileEntity(node, &jumps)
	c.code.emit(op.NotAllZero, val)
	c.code.fixup(&jumps)
	return val
}

// compileNotZeroSlice tests that a slice is not empty. It returns the slice
// value.
func (c *Compiler) compileNotZeroSlice(node *ast.Slice) bytecode.ValueID {
	var jumps []bytecode.ValueID
	val := c.compileEntity(node, &jumps)
	length := c.code.newRegister()
	c.code.emit(op.Length, val, length)
	c.code.emit(op.NotAllZero, length)
	c.code.fixup(&jumps)
	return val
}
