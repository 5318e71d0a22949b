package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/slime/pkg/parser"
	"github.com/chazu/slime/pkg/runtime"
)

// runVM compiles source, round-trips it through the codec and executes it,
// returning everything printed.
func runVM(t *testing.T, source string) string {
	t.Helper()
	prog := compile(t, source)

	decoded, err := Decode(Encode(prog))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	var out bytes.Buffer
	m := NewMachine(runtime.NewBaseLibrary(&out, strings.NewReader("")))
	if err := m.Run(decoded); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	return out.String()
}

func TestMachineArithmetic(t *testing.T) {
	got := runVM(t, `
		x = 1 + 2 * 3;
		use System.Output.Print x;
	`)
	if got != "7\n" {
		t.Errorf("output = %q, want %q", got, "7\n")
	}
}

func TestMachineStringConcat(t *testing.T) {
	got := runVM(t, `
		n = 2;
		use System.Output.Print "n is " + n;
	`)
	if got != "n is 2\n" {
		t.Errorf("output = %q, want %q", got, "n is 2\n")
	}
}

func TestMachineWhileLoop(t *testing.T) {
	got := runVM(t, `
		i = 0;
		total = 0;
		while (i < 5) {
			total = total + i;
			i = i + 1;
		}
		use System.Output.Print total;
	`)
	if got != "10\n" {
		t.Errorf("output = %q, want %q", got, "10\n")
	}
}

func TestMachineForLoopWithBreakAndContinue(t *testing.T) {
	got := runVM(t, `
		total = 0;
		for (i = 0; i < 10; i = i + 1) {
			if (i == 2) {
				i = i + 1;
				continue;
			}
			if (i == 5) {
				break;
			}
			total = total + i;
		}
		use System.Output.Print total;
	`)
	// 0 + 1 + 3 + 4
	if got != "8\n" {
		t.Errorf("output = %q, want %q", got, "8\n")
	}
}

func TestMachineNestedLoopsBreakInnermostOnly(t *testing.T) {
	got := runVM(t, `
		count = 0;
		for (i = 0; i < 3; i = i + 1) {
			j = 0;
			while (1) {
				j = j + 1;
				if (j == 2) {
					break;
				}
			}
			count = count + j;
		}
		use System.Output.Print count;
	`)
	if got != "6\n" {
		t.Errorf("output = %q, want %q", got, "6\n")
	}
}

func TestMachineUnsetVariableLoadsNil(t *testing.T) {
	got := runVM(t, `use System.Output.Print never_set;`)
	if got != "nil\n" {
		t.Errorf("output = %q, want %q", got, "nil\n")
	}
}

func TestMachineUnknownBuiltinWarnsAndContinues(t *testing.T) {
	got := runVM(t, `
		use No.Such.Builtin "arg";
		use System.Output.Print "alive";
	`)
	if got != "alive\n" {
		t.Errorf("output = %q, want %q", got, "alive\n")
	}
}

func TestMachineDivisionByZeroIsFatal(t *testing.T) {
	prog := compile(t, "x = 1 / 0;")

	var out bytes.Buffer
	m := NewMachine(runtime.NewBaseLibrary(&out, strings.NewReader("")))
	err := m.Run(prog)
	if err == nil {
		t.Fatal("Run did not error")
	}
	if _, ok := err.(*runtime.ArithmeticError); !ok {
		t.Errorf("error type = %T, want *runtime.ArithmeticError", err)
	}
}

func TestMachineStackUnderflowIsFatal(t *testing.T) {
	p := NewProgram()
	p.Emit(OpAdd)
	p.Emit(OpHalt)

	m := NewMachine(runtime.NewRegistry())
	err := m.Run(p)
	if err == nil {
		t.Fatal("Run did not error")
	}
	if _, ok := err.(*StackUnderflowError); !ok {
		t.Errorf("error type = %T, want *StackUnderflowError", err)
	}
}

func TestMachinePoolIndexOutOfRangeIsFatal(t *testing.T) {
	p := NewProgram()
	p.EmitU16(OpPushNum, 9)
	p.Emit(OpHalt)

	m := NewMachine(runtime.NewRegistry())
	err := m.Run(p)
	if err == nil {
		t.Fatal("Run did not error")
	}
	if _, ok := err.(*IndexError); !ok {
		t.Errorf("error type = %T, want *IndexError", err)
	}
}

func TestMachineUnknownOpcodeIsFatal(t *testing.T) {
	p := NewProgram()
	p.Code = append(p.Code, 0x7F)

	m := NewMachine(runtime.NewRegistry())
	if err := m.Run(p); err == nil {
		t.Fatal("Run did not error")
	}
}

func TestMachineJumpTargetOutOfRangeIsFatal(t *testing.T) {
	p := NewProgram()
	p.EmitJumpTo(OpJmp, 9999)

	m := NewMachine(runtime.NewRegistry())
	if err := m.Run(p); err == nil {
		t.Fatal("Run did not error")
	}
}

func TestMachineLegacyMarkersAreIgnored(t *testing.T) {
	p := NewProgram()
	p.Emit(OpLoop)
	p.Emit(OpIf)
	p.Emit(OpEndIf)
	p.Emit(OpEndLoop)
	p.Emit(OpHalt)

	m := NewMachine(runtime.NewRegistry())
	if err := m.Run(p); err != nil {
		t.Errorf("Run error: %v", err)
	}
}

func TestMachineGCDoesNotDisturbLiveValues(t *testing.T) {
	prog := compile(t, `
		total = 0;
		for (i = 0; i < 50; i = i + 1) {
			total = total + i;
		}
		use System.Output.Print total;
	`)

	var out bytes.Buffer
	m := NewMachine(runtime.NewBaseLibrary(&out, strings.NewReader("")))
	// Collect constantly so any missing root would corrupt the run.
	m.SetGCInterval(1)
	if err := m.Run(prog); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out.String() != "1225\n" {
		t.Errorf("output = %q, want %q", out.String(), "1225\n")
	}
}

func TestMachineVariablesPersistAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	m := NewMachine(runtime.NewBaseLibrary(&out, strings.NewReader("")))

	if err := m.Run(compile(t, "x = 41;")); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if err := m.Run(compile(t, "x = x + 1; use System.Output.Print x;")); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
}

// The interpreter and the machine must print the same thing for the same
// source.
func TestCrossExecutionEquivalence(t *testing.T) {
	sources := []string{
		`x = 1 + 2 * 3; use System.Output.Print x;`,
		`use System.Output.Print "literal";`,
		`n = 4; use System.Output.Print "n: " + n;`,
		`
			i = 0;
			while (i < 4) {
				use System.Output.Print i;
				i = i + 1;
			}
		`,
		`
			total = 0;
			for (i = 0; i < 6; i = i + 1) {
				if (i == 3) { break; }
				total = total + i;
			}
			use System.Output.Print total;
		`,
		`
			if (2 > 1 && 1 > 2) {
				use System.Output.Print "yes";
			} else {
				use System.Output.Print "no";
			}
		`,
		`use System.Output.Print missing;`,
	}

	for i, source := range sources {
		tree, err := parser.Parse(source)
		if err != nil {
			t.Fatalf("source %d: Parse error: %v", i, err)
		}

		var interpOut bytes.Buffer
		interp := runtime.NewInterpreter(runtime.NewBaseLibrary(&interpOut, strings.NewReader("")))
		if err := interp.Execute(tree); err != nil {
			t.Fatalf("source %d: interpreter error: %v", i, err)
		}

		prog, err := Generate(tree)
		if err != nil {
			t.Fatalf("source %d: Generate error: %v", i, err)
		}
		var vmOut bytes.Buffer
		m := NewMachine(runtime.NewBaseLibrary(&vmOut, strings.NewReader("")))
		if err := m.Run(prog); err != nil {
			t.Fatalf("source %d: machine error: %v", i, err)
		}

		if interpOut.String() != vmOut.String() {
			t.Errorf("source %d: interpreter printed %q, machine printed %q",
				i, interpOut.String(), vmOut.String())
		}
	}
}
