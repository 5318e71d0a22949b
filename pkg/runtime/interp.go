package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/slime/pkg/ast"
)

var interpLog = commonlog.GetLogger("slime.interp")

// Sentinel loop-control signals. Loops consume them; anywhere else they
// surface as errors.
var (
	errBreak    = &LoopControlError{Kind: "break"}
	errContinue = &LoopControlError{Kind: "continue"}
)

// Interpreter executes syntax trees directly. Variables persist across
// Execute calls, so one interpreter can back an interactive session.
type Interpreter struct {
	vars      map[string]*Value
	builtins  *Registry
	collector *Collector
}

// NewInterpreter creates an interpreter with its own collector.
func NewInterpreter(builtins *Registry) *Interpreter {
	return &Interpreter{
		vars:      make(map[string]*Value),
		builtins:  builtins,
		collector: NewCollector(),
	}
}

// Collector exposes the interpreter's collector.
func (in *Interpreter) Collector() *Collector {
	return in.collector
}

// Var returns the current value of a variable, or nil if unset.
func (in *Interpreter) Var(name string) *Value {
	return in.vars[name]
}

// Execute runs a parsed program. After the run it collects garbage with the
// live variables as roots.
func (in *Interpreter) Execute(tree *ast.Node) error {
	if tree == nil || tree.Kind != ast.Program {
		return fmt.Errorf("interpreter requires a program tree, got %v", tree)
	}

	var execErr error
	for _, stmt := range tree.Children {
		if err := in.exec(stmt); err != nil {
			execErr = err
			break
		}
	}

	for _, v := range in.vars {
		in.collector.MarkRoot(v)
	}
	in.collector.Collect()
	in.collector.ClearRoots()

	return execErr
}

func (in *Interpreter) exec(node *ast.Node) error {
	switch node.Kind {
	case ast.Statement:
		return in.execKeywordStatement(node)

	case ast.Assign:
		_, err := in.eval(node)
		return err

	case ast.Call:
		return in.execCall(node)

	case ast.If:
		return in.execIf(node)

	case ast.While:
		return in.execWhile(node)

	case ast.For:
		return in.execFor(node)

	case ast.Break:
		return errBreak

	case ast.Continue:
		return errContinue

	case ast.Block:
		for _, child := range node.Children {
			if err := in.exec(child); err != nil {
				return err
			}
		}
		return nil

	case ast.Directive:
		return nil

	default:
		_, err := in.eval(node)
		return err
	}
}

func (in *Interpreter) execKeywordStatement(node *ast.Node) error {
	switch node.Value {
	case "use":
		for _, child := range node.Children {
			if err := in.exec(child); err != nil {
				return err
			}
		}
	case "cra", "del":
		// The name child carries no behavior; the body runs in place.
		for _, child := range node.Children {
			if child.Kind == ast.Identifier {
				continue
			}
			if err := in.exec(child); err != nil {
				return err
			}
		}
	case "cre":
		// Declarative; nothing to run.
	}
	return nil
}

func (in *Interpreter) execCall(node *ast.Node) error {
	args := make([]string, 0, node.ChildCount())
	for _, child := range node.Children {
		v, err := in.eval(child)
		if err != nil {
			return err
		}
		args = append(args, v.Text())
	}

	if err := in.builtins.Call(node.Value, args); err != nil {
		if _, ok := err.(*UnresolvedCallError); ok {
			interpLog.Warningf("%s", err.Error())
			return nil
		}
		return err
	}
	return nil
}

func (in *Interpreter) execIf(node *ast.Node) error {
	cond, err := in.eval(node.Child(0))
	if err != nil {
		return err
	}
	if cond.Truthy() {
		return in.exec(node.Child(1))
	}
	if node.ChildCount() > 2 {
		return in.exec(node.Child(2))
	}
	return nil
}

func (in *Interpreter) execWhile(node *ast.Node) error {
	for {
		cond, err := in.eval(node.Child(0))
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}

		switch err := in.exec(node.Child(1)); err {
		case nil, errContinue:
		case errBreak:
			return nil
		default:
			return err
		}
	}
}

// execFor runs [init, cond, incr, body]. A continue in the body re-tests the
// condition without running the increment, matching the compiled form.
func (in *Interpreter) execFor(node *ast.Node) error {
	if _, err := in.eval(node.Child(0)); err != nil {
		return err
	}

	for {
		cond, err := in.eval(node.Child(1))
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			return nil
		}

		switch err := in.exec(node.Child(3)); err {
		case nil:
		case errContinue:
			continue
		case errBreak:
			return nil
		default:
			return err
		}

		if _, err := in.eval(node.Child(2)); err != nil {
			return err
		}
	}
}

func (in *Interpreter) eval(node *ast.Node) (*Value, error) {
	switch node.Kind {
	case ast.NumberLiteral:
		n, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
		if err != nil {
			n = 0
		}
		return NewNumber(in.collector, n), nil

	case ast.StringLiteral:
		return NewString(in.collector, node.Value), nil

	case ast.Identifier:
		if v, ok := in.vars[node.Value]; ok {
			return v, nil
		}
		return NewNil(in.collector), nil

	case ast.Expression:
		return in.eval(node.Child(0))

	case ast.Assign:
		rhs, err := in.eval(node.Child(1))
		if err != nil {
			return nil, err
		}
		in.vars[node.Child(0).Value] = rhs
		return rhs, nil

	case ast.Operator:
		return in.evalOperator(node)

	default:
		return nil, fmt.Errorf("cannot evaluate %s node", node.Kind)
	}
}

func (in *Interpreter) evalOperator(node *ast.Node) (*Value, error) {
	left, err := in.eval(node.Child(0))
	if err != nil {
		return nil, err
	}
	right, err := in.eval(node.Child(1))
	if err != nil {
		return nil, err
	}

	switch node.Value {
	case "+":
		return left.Add(right)
	case "-":
		return left.Sub(right)
	case "*":
		return left.Mul(right)
	case "/":
		return left.Div(right)
	case "%":
		return left.Mod(right)
	case "==":
		return NewBoolean(in.collector, left.Equal(right)), nil
	case "!=":
		return NewBoolean(in.collector, !left.Equal(right)), nil
	case "<":
		return NewBoolean(in.collector, left.Less(right)), nil
	case "<=":
		return NewBoolean(in.collector, !right.Less(left)), nil
	case ">":
		return NewBoolean(in.collector, right.Less(left)), nil
	case ">=":
		return NewBoolean(in.collector, !left.Less(right)), nil
	case "&&":
		return NewBoolean(in.collector, left.Truthy() && right.Truthy()), nil
	case "||":
		return NewBoolean(in.collector, left.Truthy() || right.Truthy()), nil
	}

	return nil, fmt.Errorf("unknown operator %q", node.Value)
}
