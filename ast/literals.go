package ast

import (
	"fmt"
	"regexp"

	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/fields"
)

// Field reads a protocol field, e.g. "ip.src", "@eth.src" raw bytes, or
// "tcp.flags[0]" with a byte range.
type Field struct {
	Info        *fields.Info
	Range       drange.Drange // nil when no range was requested
	Raw         bool          // compare raw bytes rather than the decoded value
	ValueString bool          // apply the field's value-string table
}

func (x *Field) node() {}

// TakeRange transfers ownership of the byte range to the caller. The node
// no longer has a range afterwards.
func (x *Field) TakeRange() drange.Drange {
	r := x.Range
	x.Range = nil
	return r
}

func (x *Field) String() string {
	return fieldString(x.Info, x.Range, x.Raw, x.ValueString)
}

// Reference reads a field value captured from a previously selected packet,
// written "${ip.src}".
type Reference struct {
	Info        *fields.Info
	Range       drange.Drange
	Raw         bool
	ValueString bool
}

func (x *Reference) node() {}

// TakeRange transfers ownership of the byte range to the caller.
func (x *Reference) TakeRange() drange.Drange {
	r := x.Range
	x.Range = nil
	return r
}

func (x *Reference) String() string {
	return "${" + fieldString(x.Info, x.Range, x.Raw, x.ValueString) + "}"
}

func fieldString(info *fields.Info, r drange.Drange, raw, vals bool) string {
	name := "<nil>"
	if info != nil {
		name = info.Abbrev
	}
	s := name
	if raw {
		s = "@" + s
	}
	if r != nil {
		s += "[" + r.String() + "]"
	}
	if vals {
		s = "vals(" + s + ")"
	}
	return s
}

// FValue holds a literal already decoded to the field type's value.
type FValue struct {
	Value any
}

func (x *FValue) node() {}

func (x *FValue) String() string {
	if s, ok := x.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", x.Value)
}

// Pattern is a compiled regular expression, the right side of "matches".
type Pattern struct {
	Regexp *regexp.Regexp
}

func (x *Pattern) node() {}

func (x *Pattern) String() string {
	if x.Regexp == nil {
		return `""`
	}
	return fmt.Sprintf("%q", x.Regexp.String())
}

// Slice takes a byte range of another entity's value, as in
// "upper(http.host)[0:3]".
type Slice struct {
	Entity Node
	Range  drange.Drange
}

func (x *Slice) node() {}

// TakeRange transfers ownership of the byte range to the caller.
func (x *Slice) TakeRange() drange.Drange {
	r := x.Range
	x.Range = nil
	return r
}

func (x *Slice) String() string {
	inner := "<nil>"
	if x.Entity != nil {
		inner = x.Entity.String()
	}
	return inner + "[" + x.Range.String() + "]"
}
