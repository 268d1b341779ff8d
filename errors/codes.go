package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Tree errors (decoding a filter tree)
//   - E2xxx: Compile errors (invalid trees reaching code generation)
//   - E3xxx: Program errors (structural checks on emitted code)
type ErrorCode string

const (
	// Tree errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unknown field
	E1002 ErrorCode = "E1002" // Unknown function
	E1003 ErrorCode = "E1003" // Unknown operator
	E1004 ErrorCode = "E1004" // Malformed node

	// Compile errors (E2xxx)
	E2001 ErrorCode = "E2001" // Invalid entity
	E2002 ErrorCode = "E2002" // Invalid operator
	E2003 ErrorCode = "E2003" // Wrong argument count
	E2004 ErrorCode = "E2004" // Invalid quantifier
	E2005 ErrorCode = "E2005" // Missing operand
	E2006 ErrorCode = "E2006" // Invalid predicate
	E2007 ErrorCode = "E2007" // Missing field info
	E2008 ErrorCode = "E2008" // Invalid set

	// Program errors (E3xxx)
	E3001 ErrorCode = "E3001" // Unresolved jump
	E3002 ErrorCode = "E3002" // Malformed program
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unknown field",
	E1002: "unknown function",
	E1003: "unknown operator",
	E1004: "malformed node",

	E2001: "invalid entity",
	E2002: "invalid operator",
	E2003: "wrong argument count",
	E2004: "invalid quantifier",
	E2005: "missing operand",
	E2006: "invalid predicate",
	E2007: "missing field info",
	E2008: "invalid set",

	E3001: "unresolved jump",
	E3002: "malformed program",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "tree"
	case '2':
		return "compile"
	case '3':
		return "program"
	default:
		return "unknown"
	}
}
