package bytecode

// Stats contains statistics about a compiled filter.
type Stats struct {
	// InstructionCount is the total number of instructions, NO_OPs included.
	InstructionCount int

	// NoOpCount is the number of branches disabled by the optimizer.
	NoOpCount int

	// BranchCount is the number of live conditional branches.
	BranchCount int

	// ValueCount is the size of the operand arena.
	ValueCount int

	// RegisterCount is the number of VM registers the program needs.
	RegisterCount int

	// InterestingFieldCount is the number of fields the program may read.
	InterestingFieldCount int
}
