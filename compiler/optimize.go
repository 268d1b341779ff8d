package compiler

import (
	"github.com/rs/zerolog"

	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/op"
)

// Optimize rewrites the branch targets of a fully resolved program and
// returns the number of branches changed. Running it again on its own
// output changes nothing.
//
// For each IF_TRUE_GOTO / IF_FALSE_GOTO at i with target t:
//
//   - t == i+1: the branch falls through either way and becomes NO_OP.
//   - otherwise the target is advanced while it lands on the opposite
//     branch (never taken from here), on a READ_TREE into the register read
//     by the instruction just before the branch (the same field, already
//     known absent or present), or on a branch of the same kind (whose
//     target is followed).
func Optimize(code *Code) int {
	nop := zerolog.Nop()
	return optimize(code, &nop)
}

func optimize(code *Code, log *zerolog.Logger) int {
	insns := code.instructions
	rewrites := 0
	for i := range insns {
		insn := &insns[i]
		if !insn.Op.IsBranch() {
			continue
		}
		target := code.values[insn.Arg1].Number
		if target == i+1 {
			log.Trace().Int("insn", i).Msg("branch to next instruction replaced with NO_OP")
			*insn = bytecode.NewInstruction(i, op.NoOp)
			rewrites++
			continue
		}

		opposite := insn.Op.Opposite()
		t := target
		for t < len(insns) {
			next := insns[t]
			if next.Op == opposite {
				t++
				continue
			}
			if next.Op == op.ReadTree && i > 0 && insns[i-1].Op == op.ReadTree &&
				code.values[insns[i-1].Arg2].Number == code.values[next.Arg2].Number {
				t++
				continue
			}
			if next.Op == insn.Op {
				t = code.values[next.Arg1].Number
				continue
			}
			break
		}
		if t != target {
			log.Trace().Int("insn", i).Int("from", target).Int("to", t).Msg("branch target advanced")
			code.values[insn.Arg1].Number = t
			rewrites++
		}
	}
	return rewrites
}
