package bytecode

import (
	"strconv"
	"strings"

	"github.com/chazu/slime/pkg/ast"
)

// Generator lowers a syntax tree into a Program. Generation is
// deterministic: the same tree always yields the same image.
type Generator struct {
	prog  *Program
	loops []*loopContext
}

// loopContext tracks the innermost loop during generation: where its
// condition re-test begins and which break jumps still need their exit
// target.
type loopContext struct {
	start  int
	breaks []int
}

// Generate compiles a program tree into bytecode ending with a halt.
func Generate(tree *ast.Node) (*Program, error) {
	if tree == nil || tree.Kind != ast.Program {
		return nil, &StructuralError{Node: "Program", Msg: "root node is not a program"}
	}

	g := &Generator{prog: NewProgram()}
	for _, stmt := range tree.Children {
		if err := g.genStatement(stmt); err != nil {
			return nil, err
		}
	}
	g.prog.Emit(OpHalt)
	return g.prog, nil
}

func (g *Generator) genStatement(node *ast.Node) error {
	switch node.Kind {
	case ast.Statement:
		return g.genKeywordStatement(node)

	case ast.Assign:
		return g.genAssign(node)

	case ast.Call:
		return g.genCall(node)

	case ast.If:
		return g.genIf(node)

	case ast.While:
		return g.genWhile(node)

	case ast.For:
		return g.genFor(node)

	case ast.Break:
		loop := g.innermostLoop()
		if loop == nil {
			return &UnresolvedLoopControlError{Kind: "break"}
		}
		loop.breaks = append(loop.breaks, g.prog.EmitJump(OpJmp))
		return nil

	case ast.Continue:
		loop := g.innermostLoop()
		if loop == nil {
			return &UnresolvedLoopControlError{Kind: "continue"}
		}
		g.prog.EmitJumpTo(OpJmp, loop.start)
		return nil

	case ast.Block:
		for _, child := range node.Children {
			if err := g.genStatement(child); err != nil {
				return err
			}
		}
		return nil

	case ast.Directive:
		return nil

	default:
		// A bare expression at statement level: evaluate and discard.
		if err := g.genExpr(node); err != nil {
			return err
		}
		g.prog.Emit(OpPop)
		return nil
	}
}

func (g *Generator) genKeywordStatement(node *ast.Node) error {
	switch node.Value {
	case "use":
		for _, child := range node.Children {
			if err := g.genStatement(child); err != nil {
				return err
			}
		}
	case "cra", "del":
		for _, child := range node.Children {
			if child.Kind == ast.Identifier {
				continue
			}
			if err := g.genStatement(child); err != nil {
				return err
			}
		}
	case "cre":
		// Declarative; no code.
	}
	return nil
}

func (g *Generator) genAssign(node *ast.Node) error {
	if node.ChildCount() != 2 {
		return &StructuralError{Node: "Assign", Msg: "expected 2 children"}
	}
	target := node.Child(0)
	if target.Kind != ast.Identifier {
		return &StructuralError{Node: "Assign", Msg: "target is not an identifier"}
	}

	if err := g.genExpr(node.Child(1)); err != nil {
		return err
	}
	idx, err := g.prog.InternConstant(target.Value)
	if err != nil {
		return err
	}
	g.prog.EmitU16(OpStore, idx)
	return nil
}

func (g *Generator) genCall(node *ast.Node) error {
	if node.ChildCount() > 255 {
		return &StructuralError{Node: "Call", Msg: "too many arguments"}
	}
	for _, arg := range node.Children {
		if err := g.genExpr(arg); err != nil {
			return err
		}
	}
	fn, err := g.prog.InternFunction(node.Value)
	if err != nil {
		return err
	}
	g.prog.EmitCall(fn, byte(node.ChildCount()))
	return nil
}

func (g *Generator) genIf(node *ast.Node) error {
	if node.ChildCount() < 2 || node.ChildCount() > 3 {
		return &StructuralError{Node: "If", Msg: "expected 2 or 3 children"}
	}

	if err := g.genExpr(node.Child(0)); err != nil {
		return err
	}
	jumpFalse := g.prog.EmitJump(OpJmpIfFalse)

	if err := g.genStatement(node.Child(1)); err != nil {
		return err
	}

	if node.ChildCount() == 3 {
		jumpEnd := g.prog.EmitJump(OpJmp)
		g.prog.PatchJump(jumpFalse, g.prog.CodeLen())
		if err := g.genStatement(node.Child(2)); err != nil {
			return err
		}
		g.prog.PatchJump(jumpEnd, g.prog.CodeLen())
	} else {
		g.prog.PatchJump(jumpFalse, g.prog.CodeLen())
	}
	return nil
}

func (g *Generator) genWhile(node *ast.Node) error {
	if node.ChildCount() != 2 {
		return &StructuralError{Node: "While", Msg: "expected 2 children"}
	}

	start := g.prog.CodeLen()
	if err := g.genExpr(node.Child(0)); err != nil {
		return err
	}
	jumpExit := g.prog.EmitJump(OpJmpIfFalse)

	g.pushLoop(start)
	if err := g.genStatement(node.Child(1)); err != nil {
		g.popLoop()
		return err
	}
	g.prog.EmitJumpTo(OpJmp, start)

	exit := g.prog.CodeLen()
	g.prog.PatchJump(jumpExit, exit)
	g.patchBreaks(exit)
	g.popLoop()
	return nil
}

// genFor lowers [init, cond, incr, body]. The loop start sits before the
// condition, so a continue re-tests the condition without running the
// increment.
func (g *Generator) genFor(node *ast.Node) error {
	if node.ChildCount() != 4 {
		return &StructuralError{Node: "For", Msg: "expected 4 children"}
	}

	if err := g.genStatement(node.Child(0)); err != nil {
		return err
	}

	start := g.prog.CodeLen()
	if err := g.genExpr(node.Child(1)); err != nil {
		return err
	}
	jumpExit := g.prog.EmitJump(OpJmpIfFalse)

	g.pushLoop(start)
	if err := g.genStatement(node.Child(3)); err != nil {
		g.popLoop()
		return err
	}
	if err := g.genStatement(node.Child(2)); err != nil {
		g.popLoop()
		return err
	}
	g.prog.EmitJumpTo(OpJmp, start)

	exit := g.prog.CodeLen()
	g.prog.PatchJump(jumpExit, exit)
	g.patchBreaks(exit)
	g.popLoop()
	return nil
}

func (g *Generator) genExpr(node *ast.Node) error {
	switch node.Kind {
	case ast.NumberLiteral:
		n, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
		if err != nil {
			n = 0
		}
		idx, err := g.prog.InternNumber(n)
		if err != nil {
			return err
		}
		g.prog.EmitU16(OpPushNum, idx)
		return nil

	case ast.StringLiteral:
		idx, err := g.prog.InternString(node.Value)
		if err != nil {
			return err
		}
		g.prog.EmitU16(OpPushStr, idx)
		return nil

	case ast.Identifier:
		idx, err := g.prog.InternConstant(node.Value)
		if err != nil {
			return err
		}
		g.prog.EmitU16(OpLoad, idx)
		return nil

	case ast.Expression:
		if node.ChildCount() != 1 {
			return &StructuralError{Node: "Expression", Msg: "expected 1 child"}
		}
		return g.genExpr(node.Child(0))

	case ast.Operator:
		return g.genOperator(node)

	case ast.Assign:
		// Assignments appear in expression position as for-loop clauses.
		return g.genAssign(node)

	default:
		return &StructuralError{Node: node.Kind.String(), Msg: "not valid in expression position"}
	}
}

var operatorOpcodes = map[string]Opcode{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"==": OpCompareEq,
	"!=": OpCompareNe,
	"<":  OpCompareLt,
	">":  OpCompareGt,
	"<=": OpCompareLe,
	">=": OpCompareGe,
	"&&": OpAnd,
	"||": OpOr,
}

func (g *Generator) genOperator(node *ast.Node) error {
	if node.ChildCount() != 2 {
		return &StructuralError{Node: "Operator", Msg: "expected 2 operands"}
	}
	op, ok := operatorOpcodes[node.Value]
	if !ok {
		return &StructuralError{Node: "Operator", Msg: "unknown operator " + strconv.Quote(node.Value)}
	}

	if err := g.genExpr(node.Child(0)); err != nil {
		return err
	}
	if err := g.genExpr(node.Child(1)); err != nil {
		return err
	}
	g.prog.Emit(op)
	return nil
}

func (g *Generator) pushLoop(start int) {
	g.loops = append(g.loops, &loopContext{start: start})
}

func (g *Generator) popLoop() {
	g.loops = g.loops[:len(g.loops)-1]
}

func (g *Generator) innermostLoop() *loopContext {
	if len(g.loops) == 0 {
		return nil
	}
	return g.loops[len(g.loops)-1]
}

func (g *Generator) patchBreaks(exit int) {
	for _, operandAt := range g.innermostLoop().breaks {
		g.prog.PatchJump(operandAt, exit)
	}
}
