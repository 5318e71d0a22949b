package runtime

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintConcatenatesArguments(t *testing.T) {
	var out bytes.Buffer
	lib := NewBaseLibrary(&out, strings.NewReader(""))

	if err := lib.Call("System.Output.Print", []string{"a", "b", "c"}); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if got := out.String(); got != "abc\n" {
		t.Errorf("output = %q, want %q", got, "abc\n")
	}
}

func TestPrintlnMatchesPrint(t *testing.T) {
	var out bytes.Buffer
	lib := NewBaseLibrary(&out, strings.NewReader(""))

	if err := lib.Call("System.Output.Println", []string{"x", "1"}); err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if got := out.String(); got != "x1\n" {
		t.Errorf("output = %q, want %q", got, "x1\n")
	}
}

func TestMathBuiltins(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"System.Math.Add", []string{"2", "3"}, "5\n"},
		{"System.Math.Subtract", []string{"7", "4"}, "3\n"},
		{"System.Math.Multiply", []string{"6", "7"}, "42\n"},
		{"System.Math.Divide", []string{"9", "2"}, "4.5\n"},
		{"System.Math.Divide", []string{"9", "0"}, "Error: Division by zero\n"},
		{"System.Math.Modulo", []string{"10", "3"}, "1\n"},
		{"System.Math.Modulo", []string{"10", "0"}, "Error: Modulo by zero\n"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		lib := NewBaseLibrary(&out, strings.NewReader(""))
		if err := lib.Call(tt.name, tt.args); err != nil {
			t.Fatalf("Call(%s) error: %v", tt.name, err)
		}
		if got := out.String(); got != tt.want {
			t.Errorf("%s(%v) = %q, want %q", tt.name, tt.args, got, tt.want)
		}
	}
}

func TestUnregisteredBuiltinReturnsUnresolvedCallError(t *testing.T) {
	lib := NewBaseLibrary(&bytes.Buffer{}, strings.NewReader(""))
	err := lib.Call("System.Missing.Thing", nil)
	if _, ok := err.(*UnresolvedCallError); !ok {
		t.Errorf("error type = %T, want *UnresolvedCallError", err)
	}
}
