package compiler

import (
	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/op"
)

// Baseline opcode of each relation, used when no quantifier is declared.
var relationOps = map[ast.Op]op.Code{
	ast.OpAllEq:    op.AllEq,
	ast.OpAnyEq:    op.AnyEq,
	ast.OpAllNe:    op.AllNe,
	ast.OpAnyNe:    op.AnyNe,
	ast.OpGt:       op.AnyGt,
	ast.OpGe:       op.AnyGe,
	ast.OpLt:       op.AnyLt,
	ast.OpLe:       op.AnyLe,
	ast.OpContains: op.AnyContains,
	ast.OpMatches:  op.AnyMatches,
	ast.OpIn:       op.SetAnyIn,
	ast.OpNotIn:    op.SetAnyNotIn,
}

// selectOpcode applies the declared quantifier to the relation's baseline
// opcode.
func selectOpcode(o ast.Op, q op.Quantifier) op.Code {
	base, ok := relationOps[o]
	if !ok {
		invariant(errors.E2002, "operator %q is not a relation", o)
	}
	code, ok := op.Select(base, q)
	if !ok {
		invariant(errors.E2004, "operator %q has no %s form", o, q)
	}
	return code
}

// compileRelation compiles "left OP right". Absence of either side skips
// the relation instruction.
func (c *Compiler) compileRelation(node *ast.Test) {
	var jumps []bytecode.ValueID
	left := c.compileEntity(node.Left, &jumps)
	right := c.compileEntity(node.Right, &jumps)
	c.code.emit(selectOpcode(node.Op, node.Quantifier), left, right)
	c.code.fixup(&jumps)
}

// compileMembership compiles "left in {...}" and "left not in {...}". Each
// element is pushed onto the VM's set stack; an element that cannot be read
// is left out of the set. The stack is always cleared after the test.
func (c *Compiler) compileMembership(node *ast.Test) {
	set, ok := node.Right.(*ast.Set)
	if !ok {
		invariant(errors.E2008, "right side of %q must be a set, got %s", node.Op, describe(node.Right))
	}
	code := selectOpcode(node.Op, node.Quantifier)

	var jumps []bytecode.ValueID
	left := c.compileEntity(node.Left, &jumps)

	for _, elem := range set.Elements {
		var elemJumps []bytecode.ValueID
		if elem.High != nil {
			low := c.compileEntity(elem.Low, &elemJumps)
			high := c.compileEntity(elem.High, &elemJumps)
			c.code.emit(op.SetAddRange, low, high)
		} else {
			c.code.emit(op.SetAdd, c.compileEntity(elem.Low, &elemJumps))
		}
		c.code.fixup(&elemJumps)
	}

	c.code.emit(code, left)
	c.code.emit(op.SetClear)

	// Absence of the left side skips the whole test.
	c.code.fixup(&jumps)
}
