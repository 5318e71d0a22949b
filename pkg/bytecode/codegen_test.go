package bytecode

import (
	"encoding/binary"
	"testing"

	"github.com/chazu/slime/pkg/ast"
	"github.com/chazu/slime/pkg/parser"
)

func compile(t *testing.T, source string) *Program {
	t.Helper()
	tree, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	prog, err := Generate(tree)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	return prog
}

// opcodeSequence lists the opcodes of a program in code order.
func opcodeSequence(p *Program) []Opcode {
	var ops []Opcode
	for offset := 0; offset < len(p.Code); {
		op := Opcode(p.Code[offset])
		ops = append(ops, op)
		offset += op.InstructionLen()
	}
	return ops
}

func TestGenerateArithmeticSequence(t *testing.T) {
	prog := compile(t, "x = 1 + 2 * 3;")

	want := []Opcode{OpPushNum, OpPushNum, OpPushNum, OpMul, OpAdd, OpStore, OpHalt}
	got := opcodeSequence(prog)
	if len(got) != len(want) {
		t.Fatalf("opcode count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("opcode %d = %s, want %s", i, got[i], want[i])
		}
	}

	if len(prog.Numbers) != 3 {
		t.Errorf("number pool size = %d, want 3", len(prog.Numbers))
	}
	if len(prog.Constants) != 1 || prog.Constants[0] != "x" {
		t.Errorf("constant pool = %v, want [x]", prog.Constants)
	}
}

func TestGenerateEndsWithHalt(t *testing.T) {
	prog := compile(t, "x = 1;")
	if Opcode(prog.Code[len(prog.Code)-1]) != OpHalt {
		t.Error("generated code does not end with HALT")
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	source := `
		for (i = 0; i < 3; i = i + 1) {
			if (i == 1) { continue; }
			use System.Output.Print i;
		}
	`
	a := compile(t, source)
	b := compile(t, source)

	if !programsEqual(a, b) {
		t.Error("two generations of the same tree differ")
	}
}

func TestGenerateInternsRepeatedLiterals(t *testing.T) {
	prog := compile(t, `
		x = 5;
		y = 5;
		a = "s";
		b = "s";
	`)

	if len(prog.Numbers) != 1 {
		t.Errorf("number pool size = %d, want 1", len(prog.Numbers))
	}
	if len(prog.Strings) != 1 {
		t.Errorf("string pool size = %d, want 1", len(prog.Strings))
	}
}

func TestGenerateCallArgsInSourceOrder(t *testing.T) {
	prog := compile(t, `use System.Output.Print x;`)

	got := opcodeSequence(prog)
	want := []Opcode{OpLoad, OpCall, OpHalt}
	if len(got) != len(want) {
		t.Fatalf("opcodes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("opcode %d = %s, want %s", i, got[i], want[i])
		}
	}

	// CALL carries the function index and an argc of 1.
	callAt := 3 // after LOAD + u16
	fn := binary.BigEndian.Uint16(prog.Code[callAt+1 : callAt+3])
	if name, _ := prog.FunctionAt(int(fn)); name != "System.Output.Print" {
		t.Errorf("function operand = %q, want System.Output.Print", name)
	}
	if argc := prog.Code[callAt+3]; argc != 1 {
		t.Errorf("argc = %d, want 1", argc)
	}
}

// jumpTargets collects every jump instruction's absolute target.
func jumpTargets(p *Program) []int {
	var targets []int
	for offset := 0; offset < len(p.Code); {
		op := Opcode(p.Code[offset])
		if op.IsJump() {
			targets = append(targets, int(binary.BigEndian.Uint32(p.Code[offset+1:offset+5])))
		}
		offset += op.InstructionLen()
	}
	return targets
}

func TestGenerateJumpTargetsAreWithinCode(t *testing.T) {
	prog := compile(t, `
		total = 0;
		for (i = 0; i < 10; i = i + 1) {
			if (i == 3) { continue; }
			if (i == 7) { break; }
			while (total < 100) {
				total = total + i;
				break;
			}
		}
	`)

	targets := jumpTargets(prog)
	if len(targets) == 0 {
		t.Fatal("no jumps generated")
	}
	for i, target := range targets {
		if target < 0 || target > len(prog.Code) {
			t.Errorf("jump %d target = %d, out of range [0,%d]", i, target, len(prog.Code))
		}
	}
}

func TestGenerateIfElseJumpShape(t *testing.T) {
	prog := compile(t, `
		if (x == 1) {
			y = 1;
		} else {
			y = 2;
		}
	`)

	got := opcodeSequence(prog)
	want := []Opcode{
		OpLoad, OpPushNum, OpCompareEq, OpJmpIfFalse,
		OpPushNum, OpStore, OpJmp,
		OpPushNum, OpStore,
		OpHalt,
	}
	if len(got) != len(want) {
		t.Fatalf("opcodes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("opcode %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGenerateBreakOutsideLoopFails(t *testing.T) {
	tree, err := parser.Parse("break;")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	_, err = Generate(tree)
	if err == nil {
		t.Fatal("Generate did not error")
	}
	if _, ok := err.(*UnresolvedLoopControlError); !ok {
		t.Errorf("error type = %T, want *UnresolvedLoopControlError", err)
	}
}

func TestGenerateContinueOutsideLoopFails(t *testing.T) {
	tree, err := parser.Parse("continue;")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if _, err := Generate(tree); err == nil {
		t.Fatal("Generate did not error")
	}
}

func TestGenerateRejectsMalformedTrees(t *testing.T) {
	badFor := ast.New(ast.Program, "")
	forNode := ast.New(ast.For, "")
	forNode.AddChild(ast.New(ast.Expression, ""))
	badFor.AddChild(forNode)

	if _, err := Generate(badFor); err == nil {
		t.Error("Generate accepted a for node with 1 child")
	} else if _, ok := err.(*StructuralError); !ok {
		t.Errorf("error type = %T, want *StructuralError", err)
	}

	badAssign := ast.New(ast.Program, "")
	assign := ast.New(ast.Assign, "")
	assign.AddChild(ast.New(ast.NumberLiteral, "1"))
	assign.AddChild(ast.New(ast.NumberLiteral, "2"))
	badAssign.AddChild(assign)

	if _, err := Generate(badAssign); err == nil {
		t.Error("Generate accepted an assignment to a number")
	}

	if _, err := Generate(ast.New(ast.Block, "")); err == nil {
		t.Error("Generate accepted a non-program root")
	}
}
