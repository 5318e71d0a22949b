package bytecode

import (
	"strings"
	"testing"
)

func TestOpcodeValuesAreStable(t *testing.T) {
	// These values are baked into every serialized image.
	tests := []struct {
		op   Opcode
		want byte
	}{
		{OpNop, 0x00},
		{OpPushNum, 0x01},
		{OpPushStr, 0x02},
		{OpPushConst, 0x03},
		{OpPop, 0x04},
		{OpAdd, 0x05},
		{OpMod, 0x09},
		{OpCall, 0x0A},
		{OpJmp, 0x0B},
		{OpJmpIfFalse, 0x0C},
		{OpJmpIfTrue, 0x0D},
		{OpLoad, 0x0E},
		{OpStore, 0x0F},
		{OpRet, 0x10},
		{OpHalt, 0x11},
		{OpCompareEq, 0x12},
		{OpCompareNe, 0x13},
		{OpCompareLt, 0x14},
		{OpCompareLe, 0x15},
		{OpCompareGt, 0x16},
		{OpCompareGe, 0x17},
		{OpNot, 0x18},
		{OpOr, 0x1A},
		{OpLoop, 0x1B},
		{OpContinue, 0x21},
	}

	for _, tt := range tests {
		if byte(tt.op) != tt.want {
			t.Errorf("%s = 0x%02X, want 0x%02X", tt.op, byte(tt.op), tt.want)
		}
	}
}

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no name", byte(op))
		}
	}
	if OpcodeCount() != 34 {
		t.Errorf("OpcodeCount() = %d, want 34", OpcodeCount())
	}
}

func TestOpcodeOperandLengths(t *testing.T) {
	tests := []struct {
		op   Opcode
		want int
	}{
		{OpNop, 0},
		{OpPushNum, 2},
		{OpLoad, 2},
		{OpStore, 2},
		{OpCall, 3},
		{OpJmp, 4},
		{OpJmpIfFalse, 4},
		{OpHalt, 0},
	}

	for _, tt := range tests {
		if got := tt.op.OperandLen(); got != tt.want {
			t.Errorf("%s.OperandLen() = %d, want %d", tt.op, got, tt.want)
		}
		if got := tt.op.InstructionLen(); got != tt.want+1 {
			t.Errorf("%s.InstructionLen() = %d, want %d", tt.op, got, tt.want+1)
		}
	}
}

func TestIsJump(t *testing.T) {
	for _, op := range []Opcode{OpJmp, OpJmpIfFalse, OpJmpIfTrue} {
		if !op.IsJump() {
			t.Errorf("%s.IsJump() = false, want true", op)
		}
	}
	for _, op := range []Opcode{OpNop, OpAdd, OpCall, OpHalt, OpLoop} {
		if op.IsJump() {
			t.Errorf("%s.IsJump() = true, want false", op)
		}
	}
}

func TestUnknownOpcodeInfo(t *testing.T) {
	info := GetOpcodeInfo(Opcode(0xEE))
	if !strings.HasPrefix(info.Name, "UNKNOWN") {
		t.Errorf("unknown opcode name = %q, want UNKNOWN prefix", info.Name)
	}
	if Opcode(0xEE).IsDefined() {
		t.Error("IsDefined(0xEE) = true, want false")
	}
}
