package bytecode

import (
	"encoding/binary"
)

// Program is a compiled unit: executable code plus its four constant pools.
// Pools are append-only and deduplicating; an interned index stays valid for
// the life of the program.
type Program struct {
	Code      []byte
	Strings   []string  // string literals
	Numbers   []float64 // numeric literals
	Constants []string  // variable names
	Functions []string  // builtin function names

	strIndex   map[string]uint16
	numIndex   map[float64]uint16
	constIndex map[string]uint16
	funcIndex  map[string]uint16
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{
		Code:       []byte{},
		strIndex:   make(map[string]uint16),
		numIndex:   make(map[float64]uint16),
		constIndex: make(map[string]uint16),
		funcIndex:  make(map[string]uint16),
	}
}

// ----------------------------------------------------------------------------
// Pool interning
// ----------------------------------------------------------------------------

// maxPoolEntries bounds every pool: indices and entry counts are encoded as
// u16, so a pool past this size could not round-trip through the image.
const maxPoolEntries = 0xFFFF

// InternString returns the pool index of s, adding it if new.
func (p *Program) InternString(s string) (uint16, error) {
	if p.strIndex == nil {
		p.strIndex = rebuildIndex(p.Strings)
	}
	if idx, ok := p.strIndex[s]; ok {
		return idx, nil
	}
	if len(p.Strings) >= maxPoolEntries {
		return 0, &PoolFullError{Pool: "string"}
	}
	idx := uint16(len(p.Strings))
	p.Strings = append(p.Strings, s)
	p.strIndex[s] = idx
	return idx, nil
}

// InternNumber returns the pool index of n, adding it if new.
func (p *Program) InternNumber(n float64) (uint16, error) {
	if p.numIndex == nil {
		p.numIndex = make(map[float64]uint16, len(p.Numbers))
		for i, existing := range p.Numbers {
			p.numIndex[existing] = uint16(i)
		}
	}
	if idx, ok := p.numIndex[n]; ok {
		return idx, nil
	}
	if len(p.Numbers) >= maxPoolEntries {
		return 0, &PoolFullError{Pool: "number"}
	}
	idx := uint16(len(p.Numbers))
	p.Numbers = append(p.Numbers, n)
	p.numIndex[n] = idx
	return idx, nil
}

// InternConstant returns the pool index of a variable name, adding it if new.
func (p *Program) InternConstant(name string) (uint16, error) {
	if p.constIndex == nil {
		p.constIndex = rebuildIndex(p.Constants)
	}
	if idx, ok := p.constIndex[name]; ok {
		return idx, nil
	}
	if len(p.Constants) >= maxPoolEntries {
		return 0, &PoolFullError{Pool: "constant"}
	}
	idx := uint16(len(p.Constants))
	p.Constants = append(p.Constants, name)
	p.constIndex[name] = idx
	return idx, nil
}

// InternFunction returns the pool index of a function name, adding it if new.
func (p *Program) InternFunction(name string) (uint16, error) {
	if p.funcIndex == nil {
		p.funcIndex = rebuildIndex(p.Functions)
	}
	if idx, ok := p.funcIndex[name]; ok {
		return idx, nil
	}
	if len(p.Functions) >= maxPoolEntries {
		return 0, &PoolFullError{Pool: "function"}
	}
	idx := uint16(len(p.Functions))
	p.Functions = append(p.Functions, name)
	p.funcIndex[name] = idx
	return idx, nil
}

func rebuildIndex(pool []string) map[string]uint16 {
	index := make(map[string]uint16, len(pool))
	for i, s := range pool {
		index[s] = uint16(i)
	}
	return index
}

// ----------------------------------------------------------------------------
// Pool access
// ----------------------------------------------------------------------------

// StringAt returns the string at a pool index.
func (p *Program) StringAt(i int) (string, error) {
	if i < 0 || i >= len(p.Strings) {
		return "", &IndexError{Pool: "string", Index: i, Size: len(p.Strings)}
	}
	return p.Strings[i], nil
}

// NumberAt returns the number at a pool index.
func (p *Program) NumberAt(i int) (float64, error) {
	if i < 0 || i >= len(p.Numbers) {
		return 0, &IndexError{Pool: "number", Index: i, Size: len(p.Numbers)}
	}
	return p.Numbers[i], nil
}

// ConstantAt returns the variable name at a pool index.
func (p *Program) ConstantAt(i int) (string, error) {
	if i < 0 || i >= len(p.Constants) {
		return "", &IndexError{Pool: "constant", Index: i, Size: len(p.Constants)}
	}
	return p.Constants[i], nil
}

// FunctionAt returns the function name at a pool index.
func (p *Program) FunctionAt(i int) (string, error) {
	if i < 0 || i >= len(p.Functions) {
		return "", &IndexError{Pool: "function", Index: i, Size: len(p.Functions)}
	}
	return p.Functions[i], nil
}

// ----------------------------------------------------------------------------
// Code emission
// ----------------------------------------------------------------------------

// CodeLen returns the current length of the code stream.
func (p *Program) CodeLen() int {
	return len(p.Code)
}

// Emit appends a bare opcode and returns its offset.
func (p *Program) Emit(op Opcode) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op))
	return offset
}

// EmitU16 appends an opcode with a 16-bit big-endian operand and returns
// the instruction's offset.
func (p *Program) EmitU16(op Opcode, operand uint16) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op))
	p.Code = binary.BigEndian.AppendUint16(p.Code, operand)
	return offset
}

// EmitCall appends a call instruction with a function index and arg count.
func (p *Program) EmitCall(fn uint16, argc byte) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(OpCall))
	p.Code = binary.BigEndian.AppendUint16(p.Code, fn)
	p.Code = append(p.Code, argc)
	return offset
}

// EmitJump appends a jump instruction with a zeroed 32-bit target and
// returns the offset of the target bytes for later patching.
func (p *Program) EmitJump(op Opcode) int {
	p.Code = append(p.Code, byte(op))
	operandAt := len(p.Code)
	p.Code = append(p.Code, 0, 0, 0, 0)
	return operandAt
}

// EmitJumpTo appends a jump instruction with a known absolute target.
func (p *Program) EmitJumpTo(op Opcode, target int) {
	p.Code = append(p.Code, byte(op))
	p.Code = binary.BigEndian.AppendUint32(p.Code, uint32(target))
}

// PatchJump writes an absolute target into a placeholder left by EmitJump.
func (p *Program) PatchJump(operandAt, target int) {
	binary.BigEndian.PutUint32(p.Code[operandAt:operandAt+4], uint32(target))
}
