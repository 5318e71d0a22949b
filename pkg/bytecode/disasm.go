package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble renders a full human-readable listing of a program: pool
// contents followed by one line per instruction.
func Disassemble(p *Program) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "; %d bytes of code\n", len(p.Code))

	writePool := func(name string, entries []string, quoted bool) {
		if len(entries) == 0 {
			return
		}
		fmt.Fprintf(&sb, "; %s pool (%d):\n", name, len(entries))
		for i, s := range entries {
			if quoted {
				fmt.Fprintf(&sb, ";   [%d] %q\n", i, s)
			} else {
				fmt.Fprintf(&sb, ";   [%d] %s\n", i, s)
			}
		}
	}

	writePool("string", p.Strings, true)
	if len(p.Numbers) > 0 {
		fmt.Fprintf(&sb, "; number pool (%d):\n", len(p.Numbers))
		for i, n := range p.Numbers {
			fmt.Fprintf(&sb, ";   [%d] %g\n", i, n)
		}
	}
	writePool("constant", p.Constants, false)
	writePool("function", p.Functions, false)

	offset := 0
	for offset < len(p.Code) {
		line, length := DisassembleInstruction(p, offset)
		sb.WriteString(line)
		sb.WriteByte('\n')
		if length <= 0 {
			break
		}
		offset += length
	}

	return sb.String()
}

// DisassembleInstruction renders the instruction at offset and returns the
// line plus the instruction's byte length.
func DisassembleInstruction(p *Program, offset int) (string, int) {
	op := Opcode(p.Code[offset])
	info := GetOpcodeInfo(op)
	length := 1 + info.OperandLen

	if offset+length > len(p.Code) {
		return fmt.Sprintf("%04X  %s ; truncated operands", offset, info.Name), len(p.Code) - offset
	}

	switch {
	case op == OpCall:
		fn := binary.BigEndian.Uint16(p.Code[offset+1 : offset+3])
		argc := p.Code[offset+3]
		comment := "?"
		if int(fn) < len(p.Functions) {
			comment = p.Functions[fn]
		}
		return fmt.Sprintf("%04X  %s %d %d ; %s", offset, info.Name, fn, argc, comment), length

	case op.IsJump():
		target := binary.BigEndian.Uint32(p.Code[offset+1 : offset+5])
		return fmt.Sprintf("%04X  %s %04X", offset, info.Name, target), length

	case info.OperandLen == 2:
		idx := binary.BigEndian.Uint16(p.Code[offset+1 : offset+3])
		comment := poolComment(p, op, int(idx))
		if comment != "" {
			return fmt.Sprintf("%04X  %s %d ; %s", offset, info.Name, idx, comment), length
		}
		return fmt.Sprintf("%04X  %s %d", offset, info.Name, idx), length

	default:
		return fmt.Sprintf("%04X  %s", offset, info.Name), length
	}
}

func poolComment(p *Program, op Opcode, idx int) string {
	switch op {
	case OpPushNum:
		if idx < len(p.Numbers) {
			return fmt.Sprintf("%g", p.Numbers[idx])
		}
	case OpPushStr:
		if idx < len(p.Strings) {
			return fmt.Sprintf("%q", p.Strings[idx])
		}
	case OpPushConst, OpLoad, OpStore:
		if idx < len(p.Constants) {
			return p.Constants[idx]
		}
	}
	return ""
}
