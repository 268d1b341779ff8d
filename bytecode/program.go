package bytecode

import (
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// Program is a compiled filter. It is immutable after creation and safe for
// concurrent use.
type Program struct {
	instructions []Instruction
	values       []Value
	registers    int

	// Fields the program may read, canonical fields first followed by their
	// same-name siblings, in first-use order.
	interesting []*fields.Info

	// Fields read through back-references, cooked and raw.
	references    []*fields.Info
	rawReferences []*fields.Info
}

// ProgramParams contains parameters for creating a new Program.
type ProgramParams struct {
	Instructions      []Instruction
	Values            []Value
	RegisterCount     int
	InterestingFields []*fields.Info
	References        []*fields.Info
	RawReferences     []*fields.Info
}

// NewProgram creates a new immutable Program from the given parameters.
// Input slices are copied to ensure immutability.
func NewProgram(params ProgramParams) *Program {
	return &Program{
		instructions:  copyInstructions(params.Instructions),
		values:        copyValues(params.Values),
		registers:     params.RegisterCount,
		interesting:   copyFields(params.InterestingFields),
		references:    copyFields(params.References),
		rawReferences: copyFields(params.RawReferences),
	}
}

// InstructionCount returns the number of instructions.
func (p *Program) InstructionCount() int {
	return len(p.instructions)
}

// InstructionAt returns the instruction at the given index.
func (p *Program) InstructionAt(index int) Instruction {
	return p.instructions[index]
}

// ValueCount returns the size of the operand arena.
func (p *Program) ValueCount() int {
	return len(p.values)
}

// ValueAt returns the operand with the given handle. NoValue and out of
// range handles yield an Empty value.
func (p *Program) ValueAt(id ValueID) Value {
	if id < 0 || int(id) >= len(p.values) {
		return Value{}
	}
	return p.values[id]
}

// RegisterCount returns the number of registers the program uses.
func (p *Program) RegisterCount() int {
	return p.registers
}

// InterestingFieldCount returns the number of fields the program may read.
func (p *Program) InterestingFieldCount() int {
	return len(p.interesting)
}

// InterestingFieldAt returns the interesting field at the given index.
func (p *Program) InterestingFieldAt(index int) *fields.Info {
	return p.interesting[index]
}

// InterestingFields returns the ids of every field the program may read,
// in first-use order without duplicates.
func (p *Program) InterestingFields() []int {
	ids := make([]int, len(p.interesting))
	for i, f := range p.interesting {
		ids[i] = f.ID
	}
	return ids
}

// ReferenceCount returns the number of fields read through back-references.
// With raw set the raw-bytes references are counted instead.
func (p *Program) ReferenceCount(raw bool) int {
	return len(p.referenceList(raw))
}

// ReferenceAt returns the back-referenced field at the given index.
func (p *Program) ReferenceAt(raw bool, index int) *fields.Info {
	return p.referenceList(raw)[index]
}

func (p *Program) referenceList(raw bool) []*fields.Info {
	if raw {
		return p.rawReferences
	}
	return p.references
}

// Result returns the operand carried by the final RETURN, or NoValue when
// the program is a pure boolean test.
func (p *Program) Result() ValueID {
	if len(p.instructions) == 0 {
		return NoValue
	}
	last := p.instructions[len(p.instructions)-1]
	if last.Op != op.Return {
		return NoValue
	}
	return last.Arg1
}

// Verify checks the program's structural invariants.
func (p *Program) Verify() error {
	return Verify(p.instructions, p.values, p.registers)
}

// Stats returns statistics about this program.
func (p *Program) Stats() Stats {
	s := Stats{
		InstructionCount:      len(p.instructions),
		ValueCount:            len(p.values),
		RegisterCount:         p.registers,
		InterestingFieldCount: len(p.interesting),
	}
	for _, insn := range p.instructions {
		switch {
		case insn.Op == op.NoOp:
			s.NoOpCount++
		case insn.Op.IsBranch():
			s.BranchCount++
		}
	}
	return s
}
