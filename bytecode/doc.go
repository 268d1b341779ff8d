// Package bytecode provides immutable representations of compiled filters.
//
// This package defines the output of compilation: a linear instruction
// program, the operand arena its instructions point into, and the field
// metadata the dissection engine needs. These types are created once by the
// compiler and are safe to share across goroutines and VM instances.
//
// # Key Types
//
//   - [Program]: an immutable compiled filter
//   - [Instruction]: an opcode plus up to three operand handles (value type)
//   - [Value]: one operand record, addressed by a [ValueID] (value type)
//
// # Operand Arena
//
// Instructions never hold operands directly. Each operand slot is a
// [ValueID] indexing the program's value arena, so one operand (a jump
// target or a loaded register) can be shared by several instructions.
// [NoValue] marks an unused slot.
//
// # Immutability Guarantees
//
//   - All fields of Program are unexported
//   - [NewProgram] copies its input slices
//   - Accessors return values, never internal slices
//
// Index-based access is used for all collections:
//
//	prog.InstructionAt(0)
//	prog.ValueAt(insn.Arg1)
//	prog.InterestingFieldAt(i)
//
// # Usage
//
//	prog, err := compiler.Compile(tree, compiler.Config{Optimize: true})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Instructions: %d\n", prog.InstructionCount())
//	fmt.Printf("Registers: %d\n", prog.RegisterCount())
package bytecode
