package bytecode

import "github.com/packetlens/dfilter/op"

// Instruction is one VM operation. ID equals the instruction's index in
// its program. Unused operand slots hold NoValue.
type Instruction struct {
	ID   int
	Op   op.Code
	Arg1 ValueID
	Arg2 ValueID
	Arg3 ValueID
}

// NewInstruction returns an instruction with the given operands; missing
// operands are set to NoValue.
func NewInstruction(id int, code op.Code, args ...ValueID) Instruction {
	insn := Instruction{ID: id, Op: code, Arg1: NoValue, Arg2: NoValue, Arg3: NoValue}
	slots := []*ValueID{&insn.Arg1, &insn.Arg2, &insn.Arg3}
	for i, a := range args {
		if i < len(slots) {
			*slots[i] = a
		}
	}
	return insn
}

// Args returns the three operand slots in order.
func (i Instruction) Args() [3]ValueID {
	return [3]ValueID{i.Arg1, i.Arg2, i.Arg3}
}
