package compiler

import (
	"encoding/json"
	"strings"

	"github.com/packetlens/dfilter/bytecode"
	"github.com/packetlens/dfilter/drange"
	"github.com/packetlens/dfilter/errors"
	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// Code is the state of one compile session: the growing instruction
// program, its operand arena, the field-load caches and the fields the
// program reads. A Code is owned by a single compile and is discarded or
// converted to a bytecode.Program when the compile finishes.
type Code struct {
	id string

	instructions []bytecode.Instruction
	values       []bytecode.Value
	registers    int

	registry fields.Registry

	// Field-load caches: canonical field -> register value holding its
	// most recent plain read.
	loaded    map[*fields.Info]bytecode.ValueID
	loadedRaw map[*fields.Info]bytecode.ValueID

	interesting     []*fields.Info
	interestingSeen map[*fields.Info]bool

	references    []*fields.Info
	rawReferences []*fields.Info
	referenceSeen map[*fields.Info]bool
	rawRefSeen    map[*fields.Info]bool

	// Consumed by the first predicate compiled.
	returnValues bool
}

func newCode(id string, registry fields.Registry, returnValues bool) *Code {
	return &Code{
		id:              id,
		registry:        registry,
		loaded:          map[*fields.Info]bytecode.ValueID{},
		loadedRaw:       map[*fields.Info]bytecode.ValueID{},
		interestingSeen: map[*fields.Info]bool{},
		referenceSeen:   map[*fields.Info]bool{},
		rawRefSeen:      map[*fields.Info]bool{},
		returnValues:    returnValues,
	}
}

// ID returns the session id used in log output.
func (c *Code) ID() string {
	return c.id
}

func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

func (c *Code) Instruction(index int) bytecode.Instruction {
	return c.instructions[index]
}

func (c *Code) ValueCount() int {
	return len(c.values)
}

// Value returns the operand with the given handle, or an Empty value for
// NoValue.
func (c *Code) Value(id bytecode.ValueID) bytecode.Value {
	if id < 0 || int(id) >= len(c.values) {
		return bytecode.Value{}
	}
	return c.values[id]
}

func (c *Code) RegisterCount() int {
	return c.registers
}

// InterestingFields returns the ids of the fields the program may read, in
// first-use order without duplicates.
func (c *Code) InterestingFields() []int {
	ids := make([]int, len(c.interesting))
	for i, f := range c.interesting {
		ids[i] = f.ID
	}
	return ids
}

// ToProgram returns an immutable copy of the compiled program.
func (c *Code) ToProgram() *bytecode.Program {
	return bytecode.NewProgram(bytecode.ProgramParams{
		Instructions:      c.instructions,
		Values:            c.values,
		RegisterCount:     c.registers,
		InterestingFields: c.interesting,
		References:        c.references,
		RawReferences:     c.rawReferences,
	})
}

// Verify checks the structural invariants of the program built so far.
func (c *Code) Verify() error {
	return bytecode.Verify(c.instructions, c.values, c.registers)
}

func (c *Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToProgram())
}

// String renders the program one instruction per line.
func (c *Code) String() string {
	var b strings.Builder
	for _, insn := range c.instructions {
		b.WriteString(insn.Op.String())
		for _, id := range insn.Args() {
			if id == bytecode.NoValue {
				continue
			}
			b.WriteString(" ")
			b.WriteString(c.Value(id).String())
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Operand arena

func (c *Code) newValue(v bytecode.Value) bytecode.ValueID {
	c.values = append(c.values, v)
	return bytecode.ValueID(len(c.values) - 1)
}

func (c *Code) newRegister() bytecode.ValueID {
	reg := c.newValue(bytecode.Value{Kind: bytecode.Register, Number: c.registers})
	c.registers++
	return reg
}

func (c *Code) newJumpTarget() bytecode.ValueID {
	return c.newValue(bytecode.Value{Kind: bytecode.InsnNumber, Number: bytecode.Unresolved})
}

func (c *Code) fieldValue(f *fields.Info, raw bool) bytecode.ValueID {
	return c.newValue(bytecode.Value{Kind: bytecode.Field, Field: f, Raw: raw})
}

func (c *Code) rangeValue(r drange.Drange) bytecode.ValueID {
	return c.newValue(bytecode.Value{Kind: bytecode.Drange, Range: r.Clone()})
}

func (c *Code) uintValue(n int) bytecode.ValueID {
	return c.newValue(bytecode.Value{Kind: bytecode.Uint, Number: n})
}

// Emission

// emit appends an instruction and returns its position.
func (c *Code) emit(code op.Code, args ...bytecode.ValueID) int {
	pos := len(c.instructions)
	c.instructions = append(c.instructions, bytecode.NewInstruction(pos, code, args...))
	return pos
}

// emitJump appends an IF_FALSE_GOTO with an unresolved target and returns
// the target so the caller can add it to a pending list.
func (c *Code) emitJump() bytecode.ValueID {
	target := c.newJumpTarget()
	c.emit(op.IfFalseGoto, target)
	return target
}

// fixup resolves every pending jump to the next instruction and empties the
// list. A target may only be resolved once.
func (c *Code) fixup(jumps *[]bytecode.ValueID) {
	next := len(c.instructions)
	for _, id := range *jumps {
		v := &c.values[id]
		if v.Kind != bytecode.InsnNumber {
			panic(errors.Invariantf(errors.E3001, "pending jump %d is a %s", id, v.Kind))
		}
		if v.Number != bytecode.Unresolved {
			panic(errors.Invariantf(errors.E3001, "jump target %d resolved twice", id))
		}
		v.Number = next
	}
	*jumps = nil
}

// Field bookkeeping

// canonical returns the first-defined field sharing f's abbreviation.
func (c *Code) canonical(f *fields.Info) *fields.Info {
	return c.registry.Canonical(f)
}

// markInteresting records f and all its same-name siblings.
func (c *Code) markInteresting(f *fields.Info) {
	for _, s := range c.registry.Siblings(f) {
		if c.interestingSeen[s] {
			continue
		}
		c.interestingSeen[s] = true
		c.interesting = append(c.interesting, s)
	}
}

// cachedRegister returns the register holding the last plain read of f.
func (c *Code) cachedRegister(f *fields.Info, raw bool) (bytecode.ValueID, bool) {
	cache := c.loaded
	if raw {
		cache = c.loadedRaw
	}
	reg, ok := cache[f]
	return reg, ok
}

func (c *Code) cacheRegister(f *fields.Info, raw bool, reg bytecode.ValueID) {
	if raw {
		c.loadedRaw[f] = reg
	} else {
		c.loaded[f] = reg
	}
}

// addReference records f in the back-reference list for its kind.
func (c *Code) addReference(f *fields.Info, raw bool) {
	if raw {
		if !c.rawRefSeen[f] {
			c.rawRefSeen[f] = true
			c.rawReferences = append(c.rawReferences, f)
		}
		return
	}
	if !c.referenceSeen[f] {
		c.referenceSeen[f] = true
		c.references = append(c.references, f)
	}
}
