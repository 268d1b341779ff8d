package bytecode

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/fields"
)

// ValueID is a handle into a program's operand arena.
type ValueID int32

// NoValue marks an unused operand slot.
const NoValue ValueID = -1

// Unresolved is the Number of an InsnNumber value that has not been
// backpatched yet.
const Unresolved = -1

// Kind discriminates the operand variants.
type Kind uint8

const (
	Empty Kind = iota
	Register
	Field
	Drange
	FValue
	Function
	Pattern
	InsnNumber
	Uint
)

var kindNames = [...]string{
	Empty:      "empty",
	Register:   "register",
	Field:      "field",
	Drange:     "drange",
	FValue:     "fvalue",
	Function:   "function",
	Pattern:    "pattern",
	InsnNumber: "insn_number",
	Uint:       "uint",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is one operand record. Which fields are meaningful depends on Kind:
//
//	Register    Number is the register slot
//	Field       Field, Raw
//	Drange      Range
//	FValue      Constant
//	Function    Function is the function name
//	Pattern     Pattern
//	InsnNumber  Number is the jump target, Unresolved until backpatched
//	Uint        Number is a count
type Value struct {
	Kind     Kind
	Number   int
	Field    *fields.Info
	Raw      bool
	Range    drange.Drange
	Constant any
	Function string
	Pattern  *regexp.Regexp
}

// IsResolved reports whether the value is usable as written. Only
// InsnNumber values can be unresolved.
func (v Value) IsResolved() bool {
	return v.Kind != InsnNumber || v.Number != Unresolved
}

func (v Value) String() string {
	switch v.Kind {
	case Register:
		return "R" + strconv.Itoa(v.Number)
	case Field:
		name := "<nil>"
		if v.Field != nil {
			name = v.Field.Abbrev
		}
		if v.Raw {
			return "@" + name
		}
		return name
	case Drange:
		return "[" + v.Range.String() + "]"
	case FValue:
		if s, ok := v.Constant.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprintf("%v", v.Constant)
	case Function:
		return v.Function + "()"
	case Pattern:
		if v.Pattern == nil {
			return "//"
		}
		return "/" + v.Pattern.String() + "/"
	case InsnNumber:
		if v.Number == Unresolved {
			return "?"
		}
		return strconv.Itoa(v.Number)
	case Uint:
		return strconv.Itoa(v.Number)
	default:
		return ""
	}
}
