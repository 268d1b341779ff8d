package compiler

import (
	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/op"
)

var arithmeticOps = map[ast.Op]op.Code{
	ast.OpUnaryMinus: op.UnaryMinus,
	ast.OpAdd:        op.Add,
	ast.OpSubtract:   op.Subtract,
	ast.OpMultiply:   op.Multiply,
	ast.OpDivide:     op.Divide,
	ast.OpModulo:     op.Modulo,
	ast.OpBitwiseAnd: op.BitwiseAnd,
}

// compileFunction compiles a function call. len and vals have dedicated
// opcodes; every other function goes through the argument stack.
func (c *Compiler) compileFunction(node *ast.Function, jumps *[]bytecode.ValueID) bytecode.ValueID {
	if node.Def == nil {
		invariant(errors.E2005, "function call without a definition")
	}
	switch node.Def.Name {
	case "len":
		return c.compileLength(node, jumps)
	case "vals":
		return c.compileVals(node, jumps)
	}

	fn := c.code.newValue(bytecode.Value{Kind: bytecode.Function, Function: node.Def.Name})
	reg := c.code.newRegister()
	for _, arg := range node.Args {
		// An absent argument is pushed as an empty register; it must not
		// skip its siblings.
		var argJumps []bytecode.ValueID
		val := c.compileEntity(arg, &argJumps)
		c.code.fixup(&argJumps)
		c.code.emit(op.StackPush, val)
	}
	count := len(node.Args)
	c.code.emit(op.CallFunction, fn, reg, c.code.uintValue(count))
	c.code.emit(op.StackPop, c.code.uintValue(count))

	// Taken when the call itself fails.
	*jumps = append(*jumps, c.code.emitJump())
	return reg
}

func singleArgument(node *ast.Function) ast.Node {
	if len(node.Args) != 1 {
		invariant(errors.E2003, "%s() takes exactly one argument (got %d)", node.Def.Name, len(node.Args))
	}
	return node.Args[0]
}

// compileLength emits LENGTH over the compiled argument.
func (c *Compiler) compileLength(node *ast.Function, jumps *[]bytecode.ValueID) bytecode.ValueID {
	arg := c.compileEntity(singleArgument(node), jumps)
	reg := c.code.newRegister()
	c.code.emit(op.Length, arg, reg)
	return reg
}

// compileVals applies the value-string table of a field or reference. An
// argument already flagged for value-string output is compiled as is.
func (c *Compiler) compileVals(node *ast.Function, jumps *[]bytecode.ValueID) bytecode.ValueID {
	switch arg := singleArgument(node).(type) {
	case *ast.Field:
		src := c.compileEntity(arg, jumps)
		if arg.ValueString {
			return src
		}
		return c.compileValueString(arg.Info, src, jumps)
	case *ast.Reference:
		src := c.compileEntity(arg, jumps)
		if arg.ValueString {
			return src
		}
		return c.compileValueString(arg.Info, src, jumps)
	default:
		invariant(errors.E2001, "vals() needs a field, got %s", describe(arg))
	}
	return bytecode.NoValue
}

// compileArithmetic emits a unary (operand, result) or binary
// (left, right, result) instruction.
func (c *Compiler) compileArithmetic(node *ast.Arithmetic, jumps *[]bytecode.ValueID) bytecode.ValueID {
	code, ok := arithmeticOps[node.Op]
	if !ok {
		invariant(errors.E2002, "operator %q is not arithmetic", node.Op)
	}
	left := c.compileEntity(node.Left, jumps)
	if node.Op == ast.OpUnaryMinus {
		if node.Right != nil {
			invariant(errors.E2003, "unary minus with two operands")
		}
		reg := c.code.newRegister()
		c.code.emit(code, left, reg)
		return reg
	}
	right := c.compileEntity(node.Right, jumps)
	reg := c.code.newRegister()
	c.code.emit(code, left, right, reg)
	return reg
}
