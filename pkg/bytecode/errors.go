package bytecode

import "fmt"

// StructuralError reports a syntax tree that violates the shape the code
// generator requires (wrong arity or wrong child kinds).
type StructuralError struct {
	Node string
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed %s node: %s", e.Node, e.Msg)
}

// FormatError reports an undecodable binary image: bad magic, unsupported
// version, or truncation.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return "bytecode format error: " + e.Msg
}

func formatErrorf(format string, args ...interface{}) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}

// IndexError reports an instruction operand that addresses past the end of
// a constant pool. It is fatal to the run.
type IndexError struct {
	Pool  string
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s pool index %d out of range (size %d)", e.Pool, e.Index, e.Size)
}

// PoolFullError reports an intern attempt against a constant pool that has
// reached its 16-bit capacity. It is a compile-time error.
type PoolFullError struct {
	Pool string
}

func (e *PoolFullError) Error() string {
	return fmt.Sprintf("%s pool is full (%d entries)", e.Pool, maxPoolEntries)
}

// StackUnderflowError reports a pop from an empty operand stack.
type StackUnderflowError struct {
	PC int
	Op Opcode
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow at %04X (%s)", e.PC, e.Op)
}

// UnresolvedLoopControlError reports a break or continue outside any loop.
// It is a compile-time error.
type UnresolvedLoopControlError struct {
	Kind string
}

func (e *UnresolvedLoopControlError) Error() string {
	return fmt.Sprintf("%s statement outside of a loop", e.Kind)
}
