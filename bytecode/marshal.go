package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/packetlens/dfilter/fields"
	"github.com/packetlens/dfilter/op"
)

// Marshal converts a Program into a self-describing JSON document.
func Marshal(p *Program) ([]byte, error) {
	state, err := stateFromProgram(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// MarshalJSON implements json.Marshaler.
func (p *Program) MarshalJSON() ([]byte, error) {
	return Marshal(p)
}

// Serialization types

type instructionDef struct {
	ID   int       `json:"id"`
	Op   string    `json:"op"`
	Args []ValueID `json:"args"`
}

type valueDef struct {
	Kind     string `json:"kind"`
	Number   *int   `json:"number,omitempty"`
	Field    string `json:"field,omitempty"`
	FieldID  *int   `json:"field_id,omitempty"`
	Raw      bool   `json:"raw,omitempty"`
	Range    string `json:"range,omitempty"`
	Constant any    `json:"constant,omitempty"`
	Function string `json:"function,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

type fieldDef struct {
	ID     int    `json:"id"`
	Abbrev string `json:"abbrev"`
}

type programState struct {
	Instructions  []instructionDef `json:"instructions"`
	Values        []valueDef       `json:"values"`
	Registers     int              `json:"registers"`
	Interesting   []fieldDef       `json:"interesting_fields"`
	References    []fieldDef       `json:"references,omitempty"`
	RawReferences []fieldDef       `json:"raw_references,omitempty"`
}

func stateFromProgram(p *Program) (*programState, error) {
	state := &programState{
		Instructions:  make([]instructionDef, len(p.instructions)),
		Values:        make([]valueDef, len(p.values)),
		Registers:     p.registers,
		Interesting:   marshalFields(p.interesting),
		References:    marshalFields(p.references),
		RawReferences: marshalFields(p.rawReferences),
	}
	for i, insn := range p.instructions {
		args := insn.Args()
		n := op.GetInfo(insn.Op).OperandCount
		state.Instructions[i] = instructionDef{
			ID:   insn.ID,
			Op:   insn.Op.String(),
			Args: append([]ValueID{}, args[:n]...),
		}
	}
	for i, v := range p.values {
		def, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		state.Values[i] = def
	}
	return state, nil
}

func marshalValue(v Value) (valueDef, error) {
	def := valueDef{Kind: v.Kind.String()}
	switch v.Kind {
	case Register, InsnNumber, Uint:
		n := v.Number
		def.Number = &n
	case Field:
		if v.Field == nil {
			return def, fmt.Errorf("field operand without field info")
		}
		id := v.Field.ID
		def.Field = v.Field.Abbrev
		def.FieldID = &id
		def.Raw = v.Raw
	case Drange:
		def.Range = v.Range.String()
	case FValue:
		switch v.Constant.(type) {
		case nil, bool, string, int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64, float32, float64:
			def.Constant = v.Constant
		default:
			def.Constant = fmt.Sprintf("%v", v.Constant)
		}
	case Function:
		def.Function = v.Function
	case Pattern:
		if v.Pattern != nil {
			def.Pattern = v.Pattern.String()
		}
	case Empty:
	default:
		return def, fmt.Errorf("unknown operand kind: %s", v.Kind)
	}
	return def, nil
}

func marshalFields(src []*fields.Info) []fieldDef {
	if len(src) == 0 {
		return nil
	}
	out := make([]fieldDef, len(src))
	for i, f := range src {
		out[i] = fieldDef{ID: f.ID, Abbrev: f.Abbrev}
	}
	return out
}
