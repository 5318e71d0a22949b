package runtime

import "fmt"

// ArithmeticError reports an invalid arithmetic operation, such as division
// by zero. It is fatal to the enclosing execution.
type ArithmeticError struct {
	Op  string
	Msg string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic error in %q: %s", e.Op, e.Msg)
}

// TypeError reports access to a value through the wrong representation.
type TypeError struct {
	Want Type
	Got  Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: have %s, want %s", e.Got, e.Want)
}

// LoopControlError reports a break or continue executed outside any loop.
// Inside loops it never escapes; the enclosing loop consumes it.
type LoopControlError struct {
	Kind string // "break" or "continue"
}

func (e *LoopControlError) Error() string {
	return fmt.Sprintf("%s outside of a loop", e.Kind)
}

// UnresolvedCallError reports a call to a builtin that is not registered.
// Callers treat it as a warning and continue.
type UnresolvedCallError struct {
	Name string
}

func (e *UnresolvedCallError) Error() string {
	return fmt.Sprintf("unresolved call to %q", e.Name)
}
