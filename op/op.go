// Package op defines opcodes used by the filter compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Control flow
	IfTrueGoto  Code = 1
	IfFalseGoto Code = 2
	Not         Code = 3
	Return      Code = 4
	NoOp        Code = 5

	// Existence
	CheckExists      Code = 10
	CheckExistsRange Code = 11

	// Load
	ReadTree           Code = 20
	ReadTreeRange      Code = 21
	ReadReference      Code = 22
	ReadReferenceRange Code = 23
	PutFValue          Code = 24

	// Relations. Each ALL opcode is immediately followed by its ANY twin.
	AllEq       Code = 30
	AnyEq       Code = 31
	AllNe       Code = 32
	AnyNe       Code = 33
	AllGt       Code = 34
	AnyGt       Code = 35
	AllGe       Code = 36
	AnyGe       Code = 37
	AllLt       Code = 38
	AnyLt       Code = 39
	AllLe       Code = 40
	AnyLe       Code = 41
	AllContains Code = 42
	AnyContains Code = 43
	AllMatches  Code = 44
	AnyMatches  Code = 45

	// Sets
	SetAllIn    Code = 50
	SetAnyIn    Code = 51
	SetAllNotIn Code = 52
	SetAnyNotIn Code = 53
	SetAdd      Code = 54
	SetAddRange Code = 55
	SetClear    Code = 56

	// Transformations
	Slice       Code = 60
	Length      Code = 61
	ValueString Code = 62

	// Arithmetic
	BitwiseAnd Code = 70
	UnaryMinus Code = 71
	Add        Code = 72
	Subtract   Code = 73
	Multiply   Code = 74
	Divide     Code = 75
	Modulo     Code = 76

	// Functions
	CallFunction Code = 80
	StackPush    Code = 81
	StackPop     Code = 82

	NotAllZero Code = 90
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 128)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{Add, "ADD", 3},
		{AllContains, "ALL_CONTAINS", 2},
		{AllEq, "ALL_EQ", 2},
		{AllGe, "ALL_GE", 2},
		{AllGt, "ALL_GT", 2},
		{AllLe, "ALL_LE", 2},
		{AllLt, "ALL_LT", 2},
		{AllMatches, "ALL_MATCHES", 2},
		{AllNe, "ALL_NE", 2},
		{AnyContains, "ANY_CONTAINS", 2},
		{AnyEq, "ANY_EQ", 2},
		{AnyGe, "ANY_GE", 2},
		{AnyGt, "ANY_GT", 2},
		{AnyLe, "ANY_LE", 2},
		{AnyLt, "ANY_LT", 2},
		{AnyMatches, "ANY_MATCHES", 2},
		{AnyNe, "ANY_NE", 2},
		{BitwiseAnd, "BITWISE_AND", 3},
		{CallFunction, "CALL_FUNCTION", 3},
		{CheckExists, "CHECK_EXISTS", 1},
		{CheckExistsRange, "CHECK_EXISTS_R", 2},
		{Divide, "DIVIDE", 3},
		{IfFalseGoto, "IF_FALSE_GOTO", 1},
		{IfTrueGoto, "IF_TRUE_GOTO", 1},
		{Length, "LENGTH", 2},
		{Modulo, "MODULO", 3},
		{Multiply, "MULTIPLY", 3},
		{NoOp, "NO_OP", 0},
		{Not, "NOT", 0},
		{NotAllZero, "NOT_ALL_ZERO", 1},
		{PutFValue, "PUT_FVALUE", 2},
		{ReadReference, "READ_REFERENCE", 2},
		{ReadReferenceRange, "READ_REFERENCE_R", 3},
		{ReadTree, "READ_TREE", 2},
		{ReadTreeRange, "READ_TREE_R", 3},
		{Return, "RETURN", 1},
		{SetAdd, "SET_ADD", 1},
		{SetAddRange, "SET_ADD_RANGE", 2},
		{SetAllIn, "SET_ALL_IN", 1},
		{SetAllNotIn, "SET_ALL_NOT_IN", 1},
		{SetAnyIn, "SET_ANY_IN", 1},
		{SetAnyNotIn, "SET_ANY_NOT_IN", 1},
		{SetClear, "SET_CLEAR", 0},
		{Slice, "SLICE", 3},
		{StackPop, "STACK_POP", 1},
		{StackPush, "STACK_PUSH", 1},
		{Subtract, "SUBTRACT", 3},
		{UnaryMinus, "UNARY_MINUS", 2},
		{ValueString, "VALUE_STRING", 3},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes yield
// a zero Info.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// String returns the opcode's mnemonic, e.g. "READ_TREE".
func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return "INVALID"
}

// IsBranch reports whether the opcode is a conditional forward branch.
func (c Code) IsBranch() bool {
	return c == IfTrueGoto || c == IfFalseGoto
}

// Opposite returns the branch with the inverted condition. It returns
// Invalid for opcodes that are not branches.
func (c Code) Opposite() Code {
	switch c {
	case IfTrueGoto:
		return IfFalseGoto
	case IfFalseGoto:
		return IfTrueGoto
	default:
		return Invalid
	}
}
