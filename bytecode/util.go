package bytecode

import "github.com/packetlens/dfilter/fields"

// copyInstructions returns a copy of the given instruction slice.
func copyInstructions(src []Instruction) []Instruction {
	if src == nil {
		return nil
	}
	dst := make([]Instruction, len(src))
	copy(dst, src)
	return dst
}

// copyValues returns a deep copy of the given value slice. Byte ranges are
// cloned so the program does not alias the compiler's arena.
func copyValues(src []Value) []Value {
	if src == nil {
		return nil
	}
	dst := make([]Value, len(src))
	for i, v := range src {
		v.Range = v.Range.Clone()
		dst[i] = v
	}
	return dst
}

// copyFields returns a copy of the given field slice.
func copyFields(src []*fields.Info) []*fields.Info {
	if src == nil {
		return nil
	}
	dst := make([]*fields.Info, len(src))
	copy(dst, src)
	return dst
}
