package ast

import (
	"bytes"
	"strings"

	"github.com/packetlens/dfilter/op"
)

// Test is a boolean node: not/and/or, a relation, or a membership test.
// Right is nil for "not".
type Test struct {
	Op         Op
	Quantifier op.Quantifier
	Left       Node
	Right      Node
}

func (x *Test) node() {}

func (x *Test) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	if x.Op == OpNot {
		out.WriteString("!")
		out.WriteString(nodeString(x.Left))
		out.WriteString(")")
		return out.String()
	}
	if x.Quantifier != op.Default {
		out.WriteString(x.Quantifier.String())
		out.WriteString(" ")
	}
	out.WriteString(nodeString(x.Left))
	out.WriteString(" ")
	out.WriteString(x.Op.String())
	out.WriteString(" ")
	out.WriteString(nodeString(x.Right))
	out.WriteString(")")
	return out.String()
}

// Arithmetic is a unary or binary arithmetic expression. Right is nil for
// unary minus.
type Arithmetic struct {
	Op    Op
	Left  Node
	Right Node
}

func (x *Arithmetic) node() {}

func (x *Arithmetic) String() string {
	if x.Right == nil {
		return "(" + x.Op.String() + nodeString(x.Left) + ")"
	}
	return "(" + nodeString(x.Left) + " " + x.Op.String() + " " + nodeString(x.Right) + ")"
}

// Function is a call of a display filter function such as "len(x)".
type Function struct {
	Def  *FuncDef
	Args []Node
}

func (x *Function) node() {}

func (x *Function) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, nodeString(a))
	}
	name := "<nil>"
	if x.Def != nil {
		name = x.Def.Name
	}
	return name + "(" + strings.Join(args, ", ") + ")"
}

// SetElement is one member of a set literal: a single value (High nil) or
// an inclusive range Low..High.
type SetElement struct {
	Low  Node
	High Node
}

func (e SetElement) String() string {
	if e.High == nil {
		return nodeString(e.Low)
	}
	return nodeString(e.Low) + ".." + nodeString(e.High)
}

// Set is a set literal, the right side of "in" and "not in".
type Set struct {
	Elements []SetElement
}

func (x *Set) node() {}

func (x *Set) String() string {
	items := make([]string, 0, len(x.Elements))
	for _, e := range x.Elements {
		items = append(items, e.String())
	}
	return "{" + strings.Join(items, " ") + "}"
}

func nodeString(n Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.String()
}
