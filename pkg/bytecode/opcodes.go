package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// The numeric values are part of the binary format and never change.
type Opcode byte

const (
	// ========================================================================
	// Stack and constants (0x00-0x04)
	// ========================================================================

	OpNop       Opcode = 0x00 // No operation
	OpPushNum   Opcode = 0x01 // Push number from pool: OpPushNum <index:u16>
	OpPushStr   Opcode = 0x02 // Push string from pool: OpPushStr <index:u16>
	OpPushConst Opcode = 0x03 // Push constant from pool: OpPushConst <index:u16>
	OpPop       Opcode = 0x04 // Pop top of stack

	// ========================================================================
	// Arithmetic (0x05-0x09)
	// ========================================================================

	OpAdd Opcode = 0x05 // Pop two, push sum (or concatenation)
	OpSub Opcode = 0x06 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x07 // Pop two, push product
	OpDiv Opcode = 0x08 // Pop two, push quotient
	OpMod Opcode = 0x09 // Pop two, push remainder

	// ========================================================================
	// Calls and control flow (0x0A-0x11)
	// ========================================================================

	OpCall       Opcode = 0x0A // Call builtin: OpCall <func:u16> <argc:u8>
	OpJmp        Opcode = 0x0B // Unconditional jump: OpJmp <target:u32>
	OpJmpIfFalse Opcode = 0x0C // Pop, jump if falsy: OpJmpIfFalse <target:u32>
	OpJmpIfTrue  Opcode = 0x0D // Pop, jump if truthy: OpJmpIfTrue <target:u32>
	OpLoad       Opcode = 0x0E // Push variable: OpLoad <name:u16>
	OpStore      Opcode = 0x0F // Pop and store variable: OpStore <name:u16>
	OpRet        Opcode = 0x10 // Return (no effect at top level)
	OpHalt       Opcode = 0x11 // Stop execution

	// ========================================================================
	// Comparison (0x12-0x17)
	// ========================================================================

	OpCompareEq Opcode = 0x12 // Pop two, push boolean a == b
	OpCompareNe Opcode = 0x13 // Pop two, push boolean a != b
	OpCompareLt Opcode = 0x14 // Pop two, push boolean a < b
	OpCompareLe Opcode = 0x15 // Pop two, push boolean a <= b
	OpCompareGt Opcode = 0x16 // Pop two, push boolean a > b
	OpCompareGe Opcode = 0x17 // Pop two, push boolean a >= b

	// ========================================================================
	// Logical (0x18-0x1A)
	// ========================================================================

	OpNot Opcode = 0x18 // Pop one, push boolean negation
	OpAnd Opcode = 0x19 // Pop two, push boolean AND
	OpOr  Opcode = 0x1A // Pop two, push boolean OR

	// ========================================================================
	// Legacy structure markers (0x1B-0x21)
	//
	// Early images encoded loops and conditionals with paired markers before
	// jumps carried absolute targets. The values stay reserved so old images
	// still decode; the generator never emits them and the VM skips them.
	// ========================================================================

	OpLoop     Opcode = 0x1B
	OpEndLoop  Opcode = 0x1C
	OpIf       Opcode = 0x1D
	OpElse     Opcode = 0x1E
	OpEndIf    Opcode = 0x1F
	OpBreak    Opcode = 0x20
	OpContinue Opcode = 0x21
)

// OpcodeInfo provides metadata about each opcode for debugging and validation.
type OpcodeInfo struct {
	Name       string // Human-readable name
	StackPop   int    // How many values popped from stack (-1 = variable)
	StackPush  int    // How many values pushed to stack
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpNop:       {"NOP", 0, 0, 0},
	OpPushNum:   {"PUSH_NUM", 0, 1, 2},
	OpPushStr:   {"PUSH_STR", 0, 1, 2},
	OpPushConst: {"PUSH_CONST", 0, 1, 2},
	OpPop:       {"POP", 1, 0, 0},

	OpAdd: {"ADD", 2, 1, 0},
	OpSub: {"SUB", 2, 1, 0},
	OpMul: {"MUL", 2, 1, 0},
	OpDiv: {"DIV", 2, 1, 0},
	OpMod: {"MOD", 2, 1, 0},

	OpCall:       {"CALL", -1, 0, 3}, // func:u16 + argc:u8, pops argc args
	OpJmp:        {"JMP", 0, 0, 4},
	OpJmpIfFalse: {"JMP_IF_FALSE", 1, 0, 4},
	OpJmpIfTrue:  {"JMP_IF_TRUE", 1, 0, 4},
	OpLoad:       {"LOAD", 0, 1, 2},
	OpStore:      {"STORE", 1, 0, 2},
	OpRet:        {"RET", 0, 0, 0},
	OpHalt:       {"HALT", 0, 0, 0},

	OpCompareEq: {"COMPARE_EQ", 2, 1, 0},
	OpCompareNe: {"COMPARE_NE", 2, 1, 0},
	OpCompareLt: {"COMPARE_LT", 2, 1, 0},
	OpCompareLe: {"COMPARE_LE", 2, 1, 0},
	OpCompareGt: {"COMPARE_GT", 2, 1, 0},
	OpCompareGe: {"COMPARE_GE", 2, 1, 0},

	OpNot: {"NOT", 1, 1, 0},
	OpAnd: {"AND", 2, 1, 0},
	OpOr:  {"OR", 2, 1, 0},

	OpLoop:     {"LOOP", 0, 0, 0},
	OpEndLoop:  {"END_LOOP", 0, 0, 0},
	OpIf:       {"IF", 0, 0, 0},
	OpElse:     {"ELSE", 0, 0, 0},
	OpEndIf:    {"END_IF", 0, 0, 0},
	OpBreak:    {"BREAK", 0, 0, 0},
	OpContinue: {"CONTINUE", 0, 0, 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with name "UNKNOWN" if the opcode is not recognized.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), StackPop: 0, StackPush: 0, OperandLen: 0}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op >= OpJmp && op <= OpJmpIfTrue
}

// IsDefined returns true if the opcode has an entry in the metadata table.
func (op Opcode) IsDefined() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// IsLegacyMarker returns true for the reserved structure-marker opcodes.
func (op Opcode) IsLegacyMarker() bool {
	return op >= OpLoop && op <= OpContinue
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
