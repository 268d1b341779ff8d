package compiler

import (
	"github.com/hashicorp/go-multierror"

	"github.com/packetlens/dfilter/ast"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/op"
)

// Validate checks that a tree can be compiled and reports every problem
// found as an *errors.InvariantError inside a multierror. It returns nil for
// a valid tree.
func Validate(root ast.Node) error {
	v := &validator{}
	if root == nil {
		v.fail(errors.E2005, "nothing to compile")
		return v.errs.ErrorOrNil()
	}
	for node := range ast.Preorder(root) {
		v.checkNode(node)
	}
	v.predicate(root)
	return v.errs.ErrorOrNil()
}

type validator struct {
	errs *multierror.Error
}

func (v *validator) fail(code errors.ErrorCode, format string, args ...any) {
	v.errs = multierror.Append(v.errs, errors.Invariantf(code, format, args...))
}

// checkNode validates a node's own payload, independent of where it sits.
func (v *validator) checkNode(node ast.Node) {
	switch node := node.(type) {
	case *ast.Field:
		if node.Info == nil {
			v.fail(errors.E2007, "field node without field info")
		}
	case *ast.Reference:
		if node.Info == nil {
			v.fail(errors.E2007, "reference node without field info")
		}
	case *ast.Pattern:
		if node.Regexp == nil {
			v.fail(errors.E2005, "pattern without a regular expression")
		}
	case *ast.Slice:
		if len(node.Range) == 0 {
			v.fail(errors.E2005, "slice without a byte range")
		}
	case *ast.Function:
		v.checkFunction(node)
	case *ast.Test:
		if node.Op.IsArithmetic() || node.Op == ast.OpInvalid {
			v.fail(errors.E2002, "operator %q cannot be used in a test", node.Op)
		}
		if node.Quantifier != op.Default {
			base, ok := relationOps[node.Op]
			if !ok || !op.IsQuantified(base) {
				v.fail(errors.E2004, "operator %q has no %s form", node.Op, node.Quantifier)
			}
		}
	case *ast.Arithmetic:
		if _, ok := arithmeticOps[node.Op]; !ok {
			v.fail(errors.E2002, "operator %q is not arithmetic", node.Op)
		}
	}
}

func (v *validator) checkFunction(node *ast.Function) {
	if node.Def == nil {
		v.fail(errors.E2005, "function call without a definition")
		return
	}
	n := len(node.Args)
	switch node.Def.Name {
	case "len", "vals":
		if n != 1 {
			v.fail(errors.E2003, "%s() takes exactly one argument (got %d)", node.Def.Name, n)
			return
		}
	default:
		if !node.Def.AcceptsArgs(n) {
			v.fail(errors.E2003, "%s() does not accept %d arguments", node.Def.Name, n)
		}
	}
	if node.Def.Name == "vals" {
		switch node.Args[0].(type) {
		case *ast.Field, *ast.Reference:
		default:
			v.fail(errors.E2001, "vals() needs a field, got %s", describe(node.Args[0]))
		}
	}
}

// predicate validates a node in boolean position.
func (v *validator) predicate(node ast.Node) {
	switch node := node.(type) {
	case *ast.Test:
		v.test(node)
	case *ast.Field:
	case *ast.Arithmetic, *ast.Function, *ast.Slice:
		v.entity(node)
	case nil:
		v.fail(errors.E2005, "missing predicate")
	default:
		v.fail(errors.E2006, "%s cannot be used as a predicate", describe(node))
	}
}

func (v *validator) test(node *ast.Test) {
	switch {
	case node.Op == ast.OpNot:
		v.predicate(node.Left)
		if node.Right != nil {
			v.fail(errors.E2003, "not takes one operand")
		}
	case node.Op == ast.OpAnd || node.Op == ast.OpOr:
		v.predicate(node.Left)
		v.predicate(node.Right)
	case node.Op.IsMembership():
		v.entity(node.Left)
		set, ok := node.Right.(*ast.Set)
		if !ok {
			v.fail(errors.E2008, "right side of %q must be a set, got %s", node.Op, describe(node.Right))
			return
		}
		if len(set.Elements) == 0 {
			v.fail(errors.E2008, "empty set")
		}
		for _, e := range set.Elements {
			v.entity(e.Low)
			if e.High != nil {
				v.entity(e.High)
			}
		}
	case node.Op.IsRelation():
		v.entity(node.Left)
		v.entity(node.Right)
	}
}

// entity validates a node in value position.
func (v *validator) entity(node ast.Node) {
	switch node := node.(type) {
	case *ast.Field, *ast.Reference, *ast.FValue, *ast.Pattern:
	case *ast.Slice:
		v.entity(node.Entity)
	case *ast.Function:
		for _, a := range node.Args {
			v.entity(a)
		}
	case *ast.Arithmetic:
		v.entity(node.Left)
		switch {
		case node.Op == ast.OpUnaryMinus && node.Right != nil:
			v.fail(errors.E2003, "unary minus takes one operand")
		case node.Op != ast.OpUnaryMinus:
			v.entity(node.Right)
		}
	case *ast.Test:
		v.fail(errors.E2001, "%s cannot produce a value", describe(node))
	case *ast.Set:
		v.fail(errors.E2008, "set literal outside of a membership test")
	case nil:
		v.fail(errors.E2005, "missing operand")
	}
}
