package bytecode

import (
	"encoding/binary"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/slime/pkg/runtime"
)

var vmLog = commonlog.GetLogger("slime.vm")

// DefaultGCInterval is how many instructions run between collections.
const DefaultGCInterval = 1000

// Machine executes compiled programs on an operand stack. Variables persist
// across Run calls on the same machine.
type Machine struct {
	prog       *Program
	stack      []*runtime.Value
	vars       map[string]*runtime.Value
	pc         int
	builtins   *runtime.Registry
	collector  *runtime.Collector
	gcInterval int
	trace      bool
}

// NewMachine creates a machine with its own collector.
func NewMachine(builtins *runtime.Registry) *Machine {
	return &Machine{
		vars:       make(map[string]*runtime.Value),
		builtins:   builtins,
		collector:  runtime.NewCollector(),
		gcInterval: DefaultGCInterval,
	}
}

// Collector exposes the machine's collector.
func (m *Machine) Collector() *runtime.Collector {
	return m.collector
}

// SetGCInterval overrides how many instructions run between collections.
func (m *Machine) SetGCInterval(n int) {
	if n > 0 {
		m.gcInterval = n
	}
}

// SetTrace logs each instruction as it executes.
func (m *Machine) SetTrace(on bool) {
	m.trace = on
}

// Var returns the current value of a variable, or nil if unset.
func (m *Machine) Var(name string) *runtime.Value {
	return m.vars[name]
}

// Run executes a program until it halts or fails. The root registration is
// cleared when the run ends.
func (m *Machine) Run(prog *Program) error {
	m.prog = prog
	m.stack = m.stack[:0]
	m.pc = 0

	err := m.run()

	m.collectGarbage()
	return err
}

func (m *Machine) run() error {
	code := m.prog.Code
	executed := 0

	for m.pc < len(code) {
		op := Opcode(code[m.pc])
		opAt := m.pc
		m.pc++

		if m.trace {
			line, _ := DisassembleInstruction(m.prog, opAt)
			vmLog.Debugf("%s", line)
		}

		executed++
		if executed%m.gcInterval == 0 {
			m.collectGarbage()
		}

		switch op {

		// ============ Stack and constants ============

		case OpNop, OpRet:

		case OpPushNum:
			idx, err := m.operandU16()
			if err != nil {
				return err
			}
			n, err := m.prog.NumberAt(int(idx))
			if err != nil {
				return err
			}
			m.push(runtime.NewNumber(m.collector, n))

		case OpPushStr:
			idx, err := m.operandU16()
			if err != nil {
				return err
			}
			s, err := m.prog.StringAt(int(idx))
			if err != nil {
				return err
			}
			m.push(runtime.NewString(m.collector, s))

		case OpPushConst:
			idx, err := m.operandU16()
			if err != nil {
				return err
			}
			s, err := m.prog.ConstantAt(int(idx))
			if err != nil {
				return err
			}
			m.push(runtime.NewString(m.collector, s))

		case OpPop:
			if _, err := m.pop(opAt, op); err != nil {
				return err
			}

		// ============ Arithmetic ============

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			b, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			a, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			result, err := applyArithmetic(op, a, b)
			if err != nil {
				return err
			}
			m.push(result)

		// ============ Comparison and logic ============

		case OpCompareEq:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return a.Equal(b) }); err != nil {
				return err
			}
		case OpCompareNe:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return !a.Equal(b) }); err != nil {
				return err
			}
		case OpCompareLt:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return a.Less(b) }); err != nil {
				return err
			}
		case OpCompareGt:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return b.Less(a) }); err != nil {
				return err
			}
		case OpCompareLe:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return !b.Less(a) }); err != nil {
				return err
			}
		case OpCompareGe:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return !a.Less(b) }); err != nil {
				return err
			}
		case OpAnd:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return a.Truthy() && b.Truthy() }); err != nil {
				return err
			}
		case OpOr:
			if err := m.binaryBool(opAt, op, func(a, b *runtime.Value) bool { return a.Truthy() || b.Truthy() }); err != nil {
				return err
			}

		case OpNot:
			a, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			m.pushBool(!a.Truthy())

		// ============ Variables ============

		case OpLoad:
			idx, err := m.operandU16()
			if err != nil {
				return err
			}
			name, err := m.prog.ConstantAt(int(idx))
			if err != nil {
				return err
			}
			if v, ok := m.vars[name]; ok {
				m.push(v)
			} else {
				m.push(runtime.NewNil(m.collector))
			}

		case OpStore:
			idx, err := m.operandU16()
			if err != nil {
				return err
			}
			name, err := m.prog.ConstantAt(int(idx))
			if err != nil {
				return err
			}
			v, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			m.vars[name] = v

		// ============ Calls ============

		case OpCall:
			if err := m.call(opAt); err != nil {
				return err
			}

		// ============ Control flow ============

		case OpJmp:
			target, err := m.jumpTarget()
			if err != nil {
				return err
			}
			m.pc = target

		case OpJmpIfFalse:
			target, err := m.jumpTarget()
			if err != nil {
				return err
			}
			cond, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				m.pc = target
			}

		case OpJmpIfTrue:
			target, err := m.jumpTarget()
			if err != nil {
				return err
			}
			cond, err := m.pop(opAt, op)
			if err != nil {
				return err
			}
			if cond.Truthy() {
				m.pc = target
			}

		case OpHalt:
			return nil

		// ============ Legacy markers ============

		case OpLoop, OpEndLoop, OpIf, OpElse, OpEndIf, OpBreak, OpContinue:

		default:
			return fmt.Errorf("unknown opcode 0x%02X at %04X", byte(op), opAt)
		}
	}

	return nil
}

// call pops argc arguments in reverse so they arrive in source order, then
// dispatches to the builtin registry. An unresolved name is a warning, not
// a failure.
func (m *Machine) call(opAt int) error {
	fnIdx, err := m.operandU16()
	if err != nil {
		return err
	}
	if m.pc >= len(m.prog.Code) {
		return formatErrorf("unexpected end of bytecode reading call arg count")
	}
	argc := int(m.prog.Code[m.pc])
	m.pc++

	name, err := m.prog.FunctionAt(int(fnIdx))
	if err != nil {
		return err
	}

	args := make([]string, argc)
	for i := argc - 1; i >= 0; i-- {
		v, err := m.pop(opAt, OpCall)
		if err != nil {
			return err
		}
		args[i] = v.Text()
	}

	if err := m.builtins.Call(name, args); err != nil {
		if _, ok := err.(*runtime.UnresolvedCallError); ok {
			vmLog.Warningf("%s", err.Error())
			return nil
		}
		return err
	}
	return nil
}

func applyArithmetic(op Opcode, a, b *runtime.Value) (*runtime.Value, error) {
	switch op {
	case OpAdd:
		return a.Add(b)
	case OpSub:
		return a.Sub(b)
	case OpMul:
		return a.Mul(b)
	case OpDiv:
		return a.Div(b)
	default:
		return a.Mod(b)
	}
}

func (m *Machine) binaryBool(opAt int, op Opcode, cmp func(a, b *runtime.Value) bool) error {
	b, err := m.pop(opAt, op)
	if err != nil {
		return err
	}
	a, err := m.pop(opAt, op)
	if err != nil {
		return err
	}
	m.pushBool(cmp(a, b))
	return nil
}

func (m *Machine) push(v *runtime.Value) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pushBool(b bool) {
	m.stack = append(m.stack, runtime.NewBoolean(m.collector, b))
}

func (m *Machine) pop(opAt int, op Opcode) (*runtime.Value, error) {
	if len(m.stack) == 0 {
		return nil, &StackUnderflowError{PC: opAt, Op: op}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) operandU16() (uint16, error) {
	if m.pc+2 > len(m.prog.Code) {
		return 0, formatErrorf("unexpected end of bytecode reading operand")
	}
	v := binary.BigEndian.Uint16(m.prog.Code[m.pc : m.pc+2])
	m.pc += 2
	return v, nil
}

func (m *Machine) jumpTarget() (int, error) {
	if m.pc+4 > len(m.prog.Code) {
		return 0, formatErrorf("unexpected end of bytecode reading jump target")
	}
	target := int(binary.BigEndian.Uint32(m.prog.Code[m.pc : m.pc+4]))
	m.pc += 4
	if target > len(m.prog.Code) {
		return 0, formatErrorf("jump target %04X out of range", target)
	}
	return target, nil
}

// collectGarbage marks the stack and every variable as roots, collects, and
// clears the marks.
func (m *Machine) collectGarbage() {
	for _, v := range m.stack {
		m.collector.MarkRoot(v)
	}
	for _, v := range m.vars {
		m.collector.MarkRoot(v)
	}
	m.collector.Collect()
	m.collector.ClearRoots()
}
