package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/packetlens/dfilter/op"
)

// Verify checks the structural invariants of an instruction sequence:
//
//   - the sequence ends with RETURN
//   - instruction ids match their positions
//   - every operand handle is NoValue or indexes the arena
//   - no slot beyond the opcode's operand count is used
//   - branches target a resolved instruction index in [0, len(insns)]
//   - no InsnNumber operand is left unresolved
//   - registers are below the register count
//
// Every violation found is reported.
func Verify(insns []Instruction, values []Value, registers int) error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}
	if len(insns) == 0 {
		fail("empty program")
		return result.ErrorOrNil()
	}
	if last := insns[len(insns)-1]; last.Op != op.Return {
		fail("program ends with %s, not RETURN", last.Op)
	}
	for i, insn := range insns {
		if insn.ID != i {
			fail("instruction %d has id %d", i, insn.ID)
		}
		info := op.GetInfo(insn.Op)
		if info.Name == "" {
			fail("instruction %d: unknown opcode %d", i, insn.Op)
			continue
		}
		for slot, id := range insn.Args() {
			if id == NoValue {
				continue
			}
			if slot >= info.OperandCount {
				fail("instruction %d: %s uses operand slot %d", i, insn.Op, slot+1)
			}
			if id < 0 || int(id) >= len(values) {
				fail("instruction %d: operand %d out of range", i, id)
				continue
			}
			v := values[id]
			switch v.Kind {
			case InsnNumber:
				if v.Number == Unresolved {
					fail("instruction %d: unresolved jump target", i)
				} else if v.Number < 0 || v.Number > len(insns) {
					fail("instruction %d: jump target %d outside [0, %d]", i, v.Number, len(insns))
				}
			case Register:
				if v.Number < 0 || v.Number >= registers {
					fail("instruction %d: register R%d out of bounds", i, v.Number)
				}
			}
		}
		if insn.Op.IsBranch() {
			if insn.Arg1 < 0 || int(insn.Arg1) >= len(values) || values[insn.Arg1].Kind != InsnNumber {
				fail("instruction %d: %s without a jump target", i, insn.Op)
			}
		}
	}
	return result.ErrorOrNil()
}
