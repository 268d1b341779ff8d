// Package ast defines the expression tree handed to the filter compiler.
//
// The tree is a closed sum type: every node implements Node through an
// unexported marker method, so the set of variants is fixed to the types in
// this package. Entity nodes (Field, Reference, FValue, Slice, Function,
// Pattern, Arithmetic) produce values; Test nodes produce booleans; Set
// nodes only appear on the right side of a membership test.
package ast

import "github.com/packetlens/dfilter/op"

// Node represents a portion of the expression tree.
type Node interface {
	// String returns a human friendly representation of the node, similar
	// to filter syntax but not necessarily identical.
	String() string

	node()
}

// Op is a tree operator. Test and Arithmetic nodes carry one.
type Op uint8

const (
	OpInvalid Op = iota

	// Logical
	OpNot
	OpAnd
	OpOr

	// Relations
	OpAllEq
	OpAnyEq
	OpAllNe
	OpAnyNe
	OpGt
	OpGe
	OpLt
	OpLe
	OpContains
	OpMatches
	OpIn
	OpNotIn

	// Arithmetic
	OpUnaryMinus
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpBitwiseAnd
)

var opStrings = map[Op]string{
	OpNot:        "!",
	OpAnd:        "&&",
	OpOr:         "||",
	OpAllEq:      "===",
	OpAnyEq:      "==",
	OpAllNe:      "!=",
	OpAnyNe:      "!==",
	OpGt:         ">",
	OpGe:         ">=",
	OpLt:         "<",
	OpLe:         "<=",
	OpContains:   "contains",
	OpMatches:    "matches",
	OpIn:         "in",
	OpNotIn:      "not in",
	OpUnaryMinus: "-",
	OpAdd:        "+",
	OpSubtract:   "-",
	OpMultiply:   "*",
	OpDivide:     "/",
	OpModulo:     "%",
	OpBitwiseAnd: "&",
}

// String returns the operator's filter syntax, e.g. "==".
func (o Op) String() string {
	if s, ok := opStrings[o]; ok {
		return s
	}
	return "<invalid>"
}

// IsLogical reports whether o is not, and, or.
func (o Op) IsLogical() bool {
	return o == OpNot || o == OpAnd || o == OpOr
}

// IsRelation reports whether o is a binary comparison or containment test.
func (o Op) IsRelation() bool {
	return o >= OpAllEq && o <= OpMatches
}

// IsMembership reports whether o is in or not in.
func (o Op) IsMembership() bool {
	return o == OpIn || o == OpNotIn
}

// IsArithmetic reports whether o belongs in an Arithmetic node.
func (o Op) IsArithmetic() bool {
	return o >= OpUnaryMinus && o <= OpBitwiseAnd
}

var opNames = map[string]Op{}

func init() {
	for _, e := range []struct {
		op    Op
		names []string
	}{
		{OpNot, []string{"not", "!"}},
		{OpAnd, []string{"and", "&&"}},
		{OpOr, []string{"or", "||"}},
		{OpAllEq, []string{"all_eq", "==="}},
		{OpAnyEq, []string{"any_eq", "==", "eq"}},
		{OpAllNe, []string{"all_ne", "!=", "ne"}},
		{OpAnyNe, []string{"any_ne", "!=="}},
		{OpGt, []string{"gt", ">"}},
		{OpGe, []string{"ge", ">="}},
		{OpLt, []string{"lt", "<"}},
		{OpLe, []string{"le", "<="}},
		{OpContains, []string{"contains"}},
		{OpMatches, []string{"matches", "~"}},
		{OpIn, []string{"in"}},
		{OpNotIn, []string{"not_in", "not in"}},
		{OpUnaryMinus, []string{"neg", "unary_minus"}},
		{OpAdd, []string{"add", "+"}},
		{OpSubtract, []string{"sub", "subtract", "-"}},
		{OpMultiply, []string{"mul", "multiply", "*"}},
		{OpDivide, []string{"div", "divide", "/"}},
		{OpModulo, []string{"mod", "modulo", "%"}},
		{OpBitwiseAnd, []string{"bitwise_and", "&"}},
	} {
		for _, name := range e.names {
			opNames[name] = e.op
		}
	}
}

// ParseOp returns the operator named by s, accepting both symbols ("==")
// and words ("any_eq").
func ParseOp(s string) (Op, bool) {
	o, ok := opNames[s]
	return o, ok
}

// ParseQuantifier reads "all", "any" or "" (default).
func ParseQuantifier(s string) (op.Quantifier, bool) {
	switch s {
	case "", "default":
		return op.Default, true
	case "all":
		return op.All, true
	case "any":
		return op.Any, true
	}
	return op.Default, false
}
