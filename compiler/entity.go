package compiler

import (
	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// compileEntity compiles a value-producing node and returns the operand
// holding its result. Jumps that must be taken when the value is absent are
// appended to jumps.
func (c *Compiler) compileEntity(node ast.Node, jumps *[]bytecode.ValueID) bytecode.ValueID {
	switch node := node.(type) {
	case *ast.Field:
		return c.compileField(node, jumps)
	case *ast.Reference:
		return c.compileReference(node, jumps)
	case *ast.FValue:
		return c.code.newValue(bytecode.Value{Kind: bytecode.FValue, Constant: node.Value})
	case *ast.Pattern:
		if node.Regexp == nil {
			invariant(errors.E2005, "pattern without a regular expression")
		}
		return c.code.newValue(bytecode.Value{Kind: bytecode.Pattern, Pattern: node.Regexp})
	case *ast.Slice:
		return c.compileSlice(node, jumps)
	case *ast.Function:
		return c.compileFunction(node, jumps)
	case *ast.Arithmetic:
		return c.compileArithmetic(node, jumps)
	case nil:
		invariant(errors.E2005, "missing operand")
	default:
		invariant(errors.E2001, "%s cannot produce a value", describe(node))
	}
	return bytecode.NoValue
}

// compileField emits a tree read of the field, reusing the cached register
// for plain reads.
func (c *Compiler) compileField(node *ast.Field, jumps *[]bytecode.ValueID) bytecode.ValueID {
	if node.Info == nil {
		invariant(errors.E2007, "field node without field info")
	}
	f := c.code.canonical(node.Info)
	var reg bytecode.ValueID
	if len(node.Range) == 0 {
		cached, ok := c.code.cachedRegister(f, node.Raw)
		if ok {
			reg = cached
		} else {
			reg = c.code.newRegister()
			c.code.cacheRegister(f, node.Raw, reg)
		}
		c.code.emit(op.ReadTree, c.code.fieldValue(f, node.Raw), reg)
	} else {
		reg = c.code.newRegister()
		c.code.emit(op.ReadTreeRange, c.code.fieldValue(f, node.Raw), reg, c.code.rangeValue(node.Range))
	}
	*jumps = append(*jumps, c.code.emitJump())
	c.code.markInteresting(f)

	if node.ValueString {
		reg = c.compileValueString(node.Info, reg, jumps)
	}
	return reg
}

// compileReference emits a back-reference read. References are never
// cached.
func (c *Compiler) compileReference(node *ast.Reference, jumps *[]bytecode.ValueID) bytecode.ValueID {
	if node.Info == nil {
		invariant(errors.E2007, "reference node without field info")
	}
	f := c.code.canonical(node.Info)
	reg := c.code.newRegister()
	if len(node.Range) == 0 {
		c.code.emit(op.ReadReference, c.code.fieldValue(f, node.Raw), reg)
	} else {
		c.code.emit(op.ReadReferenceRange, c.code.fieldValue(f, node.Raw), reg, c.code.rangeValue(node.Range))
	}
	*jumps = append(*jumps, c.code.emitJump())
	c.code.addReference(f, node.Raw)
	c.code.markInteresting(f)

	if node.ValueString {
		reg = c.compileValueString(node.Info, reg, jumps)
	}
	return reg
}

// compileValueString applies the field's value-string table to src.
func (c *Compiler) compileValueString(f *fields.Info, src bytecode.ValueID, jumps *[]bytecode.ValueID) bytecode.ValueID {
	reg := c.code.newRegister()
	c.code.emit(op.ValueString, c.code.fieldValue(f, false), src, reg)
	*jumps = append(*jumps, c.code.emitJump())
	return reg
}

// compileSlice takes a byte range of the inner entity into a fresh register.
// The inner entity's absence jumps are left for the caller.
func (c *Compiler) compileSlice(node *ast.Slice, jumps *[]bytecode.ValueID) bytecode.ValueID {
	if len(node.Range) == 0 {
		invariant(errors.E2005, "slice without a byte range")
	}
	inner := c.compileEntity(node.Entity, jumps)
	reg := c.code.newRegister()
	c.code.emit(op.Slice, inner, reg, c.code.rangeValue(node.Range))
	return reg
}
