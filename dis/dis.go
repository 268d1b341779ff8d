// Package dis supports analysis of filter bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and the programs
// built by the `compiler` package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// Instruction is a single decoded instruction and its rendered operands.
type Instruction struct {
	Offset   int
	Name     string
	Opcode   op.Code
	Operands string
}

var (
	branchColor = color.New(color.FgYellow)
	readColor   = color.New(color.FgCyan)
	returnColor = color.New(color.FgMagenta, color.Bold)
	headerColor = color.New(color.Bold)
)

var relationSymbols = map[op.Code]string{
	op.AllEq: "===", op.AnyEq: "==",
	op.AllNe: "!=", op.AnyNe: "!==",
	op.AllGt: ">", op.AnyGt: ">",
	op.AllGe: ">=", op.AnyGe: ">=",
	op.AllLt: "<", op.AnyLt: "<",
	op.AllLe: "<=", op.AnyLe: "<=",
	op.AllContains: "contains", op.AnyContains: "contains",
	op.AllMatches: "matches", op.AnyMatches: "matches",
}

var arithmeticSymbols = map[op.Code]string{
	op.Add:        "+",
	op.Subtract:   "-",
	op.Multiply:   "*",
	op.Divide:     "/",
	op.Modulo:     "%",
	op.BitwiseAnd: "&",
}

// Disassemble returns a decoded representation of the given program.
func Disassemble(p *bytecode.Program) []Instruction {
	instructions := make([]Instruction, 0, p.InstructionCount())
	for i := 0; i < p.InstructionCount(); i++ {
		insn := p.InstructionAt(i)
		instructions = append(instructions, Instruction{
			Offset:   insn.ID,
			Name:     insn.Op.String(),
			Opcode:   insn.Op,
			Operands: operands(p, insn),
		})
	}
	return instructions
}

func operands(p *bytecode.Program, insn bytecode.Instruction) string {
	a1 := p.ValueAt(insn.Arg1).String()
	a2 := p.ValueAt(insn.Arg2).String()
	a3 := p.ValueAt(insn.Arg3).String()
	if sym, ok := relationSymbols[insn.Op]; ok {
		return fmt.Sprintf("%s %s %s", a1, sym, a2)
	}
	if sym, ok := arithmeticSymbols[insn.Op]; ok {
		return fmt.Sprintf("%s %s %s -> %s", a1, sym, a2, a3)
	}
	switch insn.Op {
	case op.ReadTree, op.ReadReference, op.Length:
		return a1 + " -> " + a2
	case op.ReadTreeRange, op.ReadReferenceRange, op.Slice:
		return a1 + a3 + " -> " + a2
	case op.CheckExistsRange:
		return a1 + a2
	case op.ValueString:
		return fmt.Sprintf("vals(%s) %s -> %s", a1, a2, a3)
	case op.UnaryMinus:
		return "-" + a1 + " -> " + a2
	case op.SetAddRange:
		return a1 + ".." + a2
	case op.CallFunction:
		name := strings.TrimSuffix(a1, "()")
		return fmt.Sprintf("%s/%s -> %s", name, a3, a2)
	case op.PutFValue:
		return a1 + " -> " + a2
	}
	var parts []string
	for _, s := range []string{a1, a2, a3} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func colorize(code op.Code, name string) string {
	switch {
	case code.IsBranch():
		return branchColor.Sprint(name)
	case code == op.Return:
		return returnColor.Sprint(name)
	case code == op.ReadTree || code == op.ReadTreeRange ||
		code == op.ReadReference || code == op.ReadReferenceRange:
		return readColor.Sprint(name)
	}
	return name
}

// Print writes a listing of the program to w: one line per instruction,
// followed by the fields the program reads and the fields it references.
func Print(w io.Writer, p *bytecode.Program) error {
	instructions := Disassemble(p)
	width := 0
	for _, instr := range instructions {
		width = max(width, len(instr.Name))
	}
	var b strings.Builder
	for _, instr := range instructions {
		line := fmt.Sprintf("%04d %s%s  %s", instr.Offset,
			colorize(instr.Opcode, instr.Name),
			strings.Repeat(" ", width-len(instr.Name)),
			instr.Operands)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	var interesting []*fields.Info
	for i := 0; i < p.InterestingFieldCount(); i++ {
		interesting = append(interesting, p.InterestingFieldAt(i))
	}
	writeFields(&b, "Interesting fields:", interesting, true)
	writeFields(&b, "References:", references(p, false), false)
	writeFields(&b, "Raw references:", references(p, true), false)

	_, err := io.WriteString(w, b.String())
	return err
}

func references(p *bytecode.Program, raw bool) []*fields.Info {
	var out []*fields.Info
	for i := 0; i < p.ReferenceCount(raw); i++ {
		out = append(out, p.ReferenceAt(raw, i))
	}
	return out
}

func writeFields(b *strings.Builder, title string, list []*fields.Info, withID bool) {
	if len(list) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(headerColor.Sprint(title))
	b.WriteString("\n")
	for _, f := range list {
		if withID {
			fmt.Fprintf(b, "  %d %s\n", f.ID, f.Abbrev)
		} else {
			fmt.Fprintf(b, "  %s\n", f.Abbrev)
		}
	}
}
