package parser

import (
	"github.com/chazu/slime/pkg/ast"
)

// ---------------------------------------------------------------------------
// Parser: recursive-descent parser producing ast trees
// ---------------------------------------------------------------------------

// Parser builds a syntax tree from a token stream.
type Parser struct {
	lexer *Lexer
	tok   Token
}

// Parse tokenizes and parses a complete source text into a Program tree.
func Parse(source string) (*ast.Node, error) {
	p, err := NewParser(NewLexer(source))
	if err != nil {
		return nil, err
	}
	return p.Program()
}

// NewParser creates a parser and primes it with the first token.
func NewParser(lexer *Lexer) (*Parser, error) {
	p := &Parser{lexer: lexer}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) next() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// eat consumes the current token if it has the expected type.
func (p *Parser) eat(t TokenType) error {
	if p.tok.Type != t {
		return syntaxErrorf(p.tok.Line, p.tok.Column, "expected %s, got %s", t, p.tok)
	}
	return p.next()
}

func (p *Parser) isPunct(value string) bool {
	return p.tok.Type == TokenPunctuation && p.tok.Value == value
}

func (p *Parser) isKeyword(value string) bool {
	return p.tok.Type == TokenKeyword && p.tok.Value == value
}

// eatPunct consumes a specific punctuation token.
func (p *Parser) eatPunct(value string) error {
	if !p.isPunct(value) {
		return syntaxErrorf(p.tok.Line, p.tok.Column, "expected %q, got %s", value, p.tok)
	}
	return p.next()
}

// Program parses the whole input: a sequence of directives and statements.
func (p *Parser) Program() (*ast.Node, error) {
	program := ast.New(ast.Program, "")

	for p.tok.Type != TokenEOF {
		if p.tok.Type == TokenDirective {
			node, err := p.directive()
			if err != nil {
				return nil, err
			}
			program.AddChild(node)
			continue
		}

		node, err := p.statement()
		if err != nil {
			return nil, err
		}
		if node != nil {
			program.AddChild(node)
		}
	}

	return program, nil
}

// statement parses one statement. Returns nil for a bare semicolon.
func (p *Parser) statement() (*ast.Node, error) {
	if p.isPunct(";") {
		return nil, p.next()
	}

	if p.tok.Type == TokenKeyword {
		switch p.tok.Value {
		case "if":
			return p.ifStatement()
		case "while":
			return p.whileStatement()
		case "for":
			return p.forStatement()
		case "break":
			node := ast.New(ast.Break, "")
			if err := p.next(); err != nil {
				return nil, err
			}
			return node, p.eatOptionalSemicolon()
		case "continue":
			node := ast.New(ast.Continue, "")
			if err := p.next(); err != nil {
				return nil, err
			}
			return node, p.eatOptionalSemicolon()
		default:
			return p.keywordStatement()
		}
	}

	// Assignment or bare expression.
	node, err := p.expression()
	if err != nil {
		return nil, err
	}
	return node, p.eatOptionalSemicolon()
}

func (p *Parser) eatOptionalSemicolon() error {
	if p.isPunct(";") {
		return p.next()
	}
	return nil
}

// keywordStatement parses the use/cra/cre/del statement forms.
func (p *Parser) keywordStatement() (*ast.Node, error) {
	stmt := ast.New(ast.Statement, p.tok.Value)
	if err := p.eat(TokenKeyword); err != nil {
		return nil, err
	}

	switch stmt.Value {
	case "use":
		// use <function-name> <argument-expression>
		call, err := p.call()
		if err != nil {
			return nil, err
		}
		stmt.AddChild(call)

	case "cra", "del":
		// cra/del <name> [ { body } ]
		if p.tok.Type == TokenIdentifier {
			stmt.AddChild(ast.New(ast.Identifier, p.tok.Value))
			if err := p.next(); err != nil {
				return nil, err
			}
		}
		if p.isPunct("{") {
			body, err := p.block()
			if err != nil {
				return nil, err
			}
			for _, child := range body.Children {
				stmt.AddChild(child)
			}
		}

	case "cre":
		// cre <declaration>: a run of strings and identifiers up to the next
		// keyword or closing brace.
		for p.tok.Type != TokenEOF && p.tok.Type != TokenKeyword &&
			!p.isPunct("}") && !p.isPunct(";") {
			if p.tok.Type == TokenString || p.tok.Type == TokenIdentifier ||
				p.tok.Type == TokenNumber {
				node, err := p.expression()
				if err != nil {
					return nil, err
				}
				stmt.AddChild(node)
			} else {
				if err := p.next(); err != nil {
					return nil, err
				}
			}
		}
	}

	return stmt, p.eatOptionalSemicolon()
}

// ifStatement parses: if ( cond ) { ... } [else { ... } | else if ...]
// Children: [condition, then-block, optional else-block].
func (p *Parser) ifStatement() (*ast.Node, error) {
	ifStmt := ast.New(ast.If, "")
	if err := p.eat(TokenKeyword); err != nil {
		return nil, err
	}

	if err := p.eatPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	ifStmt.AddChild(cond)
	if err := p.eatPunct(")"); err != nil {
		return nil, err
	}

	thenBlock, err := p.block()
	if err != nil {
		return nil, err
	}
	ifStmt.AddChild(thenBlock)

	if p.isKeyword("else") {
		if err := p.next(); err != nil {
			return nil, err
		}

		if p.isKeyword("if") {
			// else-if: wrap the nested if in a block so the else branch
			// is always a single block child.
			elseIf, err := p.ifStatement()
			if err != nil {
				return nil, err
			}
			elseBlock := ast.New(ast.Block, "")
			elseBlock.AddChild(elseIf)
			ifStmt.AddChild(elseBlock)
		} else {
			elseBlock, err := p.block()
			if err != nil {
				return nil, err
			}
			ifStmt.AddChild(elseBlock)
		}
	}

	return ifStmt, nil
}

// whileStatement parses: while ( cond ) { ... }
// Children: [condition, body-block].
func (p *Parser) whileStatement() (*ast.Node, error) {
	whileStmt := ast.New(ast.While, "")
	if err := p.eat(TokenKeyword); err != nil {
		return nil, err
	}

	if err := p.eatPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	whileStmt.AddChild(cond)
	if err := p.eatPunct(")"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	whileStmt.AddChild(body)

	return whileStmt, nil
}

// forStatement parses: for ( init ; cond ; incr ) { ... }
// Children: exactly [init, condition, increment, body-block].
func (p *Parser) forStatement() (*ast.Node, error) {
	forStmt := ast.New(ast.For, "")
	if err := p.eat(TokenKeyword); err != nil {
		return nil, err
	}

	if err := p.eatPunct("("); err != nil {
		return nil, err
	}

	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	forStmt.AddChild(init)
	if err := p.eatPunct(";"); err != nil {
		return nil, err
	}

	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	forStmt.AddChild(cond)
	if err := p.eatPunct(";"); err != nil {
		return nil, err
	}

	incr, err := p.expression()
	if err != nil {
		return nil, err
	}
	forStmt.AddChild(incr)
	if err := p.eatPunct(")"); err != nil {
		return nil, err
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	forStmt.AddChild(body)

	return forStmt, nil
}

// block parses { statements... } into a Block node.
func (p *Parser) block() (*ast.Node, error) {
	blockNode := ast.New(ast.Block, "")
	if err := p.eatPunct("{"); err != nil {
		return nil, err
	}

	for p.tok.Type != TokenEOF && !p.isPunct("}") {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			blockNode.AddChild(stmt)
		}
	}

	return blockNode, p.eatPunct("}")
}

// call parses a builtin invocation: a function name followed by a single
// argument expression.
func (p *Parser) call() (*ast.Node, error) {
	callNode := ast.New(ast.Call, "")

	if p.tok.Type == TokenIdentifier {
		callNode.Value = p.tok.Value
		if err := p.next(); err != nil {
			return nil, err
		}
	}

	if p.tok.Type != TokenEOF && p.tok.Type != TokenKeyword &&
		!p.isPunct("}") && !p.isPunct(";") {
		arg, err := p.expression()
		if err != nil {
			return nil, err
		}
		callNode.AddChild(arg)
	}

	return callNode, nil
}

// expression parses a string literal, an arithmetic/comparison expression
// wrapped in an Expression node, or an identifier that may begin an
// assignment or continue as the left operand of an operator chain.
func (p *Parser) expression() (*ast.Node, error) {
	switch {
	case p.tok.Type == TokenString:
		node := ast.New(ast.StringLiteral, p.tok.Value)
		if err := p.next(); err != nil {
			return nil, err
		}
		if p.tok.Type == TokenPunctuation && isBinaryOp(p.tok.Value) {
			chain, err := p.continueComparison(node)
			if err != nil {
				return nil, err
			}
			exprNode := ast.New(ast.Expression, "")
			exprNode.AddChild(chain)
			return exprNode, nil
		}
		return node, nil

	case p.tok.Type == TokenNumber || p.isPunct("("):
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		exprNode := ast.New(ast.Expression, "")
		exprNode.AddChild(inner)
		return exprNode, nil

	case p.tok.Type == TokenIdentifier:
		ident := ast.New(ast.Identifier, p.tok.Value)
		if err := p.next(); err != nil {
			return nil, err
		}

		if p.isPunct("=") {
			if err := p.next(); err != nil {
				return nil, err
			}

			assign := ast.New(ast.Assign, "")
			assign.AddChild(ident)

			rhs, err := p.expression()
			if err != nil {
				return nil, err
			}
			assign.AddChild(rhs)
			return assign, nil
		}

		if p.tok.Type == TokenPunctuation && isBinaryOp(p.tok.Value) {
			node, err := p.continueComparison(ident)
			if err != nil {
				return nil, err
			}
			exprNode := ast.New(ast.Expression, "")
			exprNode.AddChild(node)
			return exprNode, nil
		}

		return ident, nil
	}

	return nil, syntaxErrorf(p.tok.Line, p.tok.Column, "unexpected token %s", p.tok)
}

func isBinaryOp(s string) bool {
	switch s {
	case "+", "-", "*", "/", "%",
		"==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return true
	}
	return false
}

func isComparisonOp(s string) bool {
	switch s {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return true
	}
	return false
}

// comparison parses ==/!=/</<=/>/>=/&&/|| chains over additive expressions.
func (p *Parser) comparison() (*ast.Node, error) {
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	return p.comparisonFrom(left)
}

// continueComparison resumes parsing when the left operand was already
// consumed as an identifier.
func (p *Parser) continueComparison(left *ast.Node) (*ast.Node, error) {
	node, err := p.termFrom(left)
	if err != nil {
		return nil, err
	}
	node, err = p.exprFrom(node)
	if err != nil {
		return nil, err
	}
	return p.comparisonFrom(node)
}

func (p *Parser) comparisonFrom(left *ast.Node) (*ast.Node, error) {
	for p.tok.Type == TokenPunctuation && isComparisonOp(p.tok.Value) {
		op := ast.New(ast.Operator, p.tok.Value)
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.expr()
		if err != nil {
			return nil, err
		}
		op.AddChild(left)
		op.AddChild(right)
		left = op
	}
	return left, nil
}

// expr parses additive chains: term (("+"|"-") term)*.
func (p *Parser) expr() (*ast.Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	return p.exprFrom(left)
}

func (p *Parser) exprFrom(left *ast.Node) (*ast.Node, error) {
	for p.isPunct("+") || p.isPunct("-") {
		op := ast.New(ast.Operator, p.tok.Value)
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		op.AddChild(left)
		op.AddChild(right)
		left = op
	}
	return left, nil
}

// term parses multiplicative chains: factor (("*"|"/"|"%") factor)*.
func (p *Parser) term() (*ast.Node, error) {
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	return p.termFrom(left)
}

func (p *Parser) termFrom(left *ast.Node) (*ast.Node, error) {
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := ast.New(ast.Operator, p.tok.Value)
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		op.AddChild(left)
		op.AddChild(right)
		left = op
	}
	return left, nil
}

// factor parses a number, string, identifier, or parenthesized expression.
func (p *Parser) factor() (*ast.Node, error) {
	switch {
	case p.tok.Type == TokenNumber:
		node := ast.New(ast.NumberLiteral, p.tok.Value)
		return node, p.next()

	case p.tok.Type == TokenString:
		node := ast.New(ast.StringLiteral, p.tok.Value)
		return node, p.next()

	case p.tok.Type == TokenIdentifier:
		node := ast.New(ast.Identifier, p.tok.Value)
		return node, p.next()

	case p.isPunct("("):
		if err := p.next(); err != nil {
			return nil, err
		}
		node, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if !p.isPunct(")") {
			return nil, syntaxErrorf(p.tok.Line, p.tok.Column, "missing closing parenthesis")
		}
		return node, p.next()
	}

	return nil, syntaxErrorf(p.tok.Line, p.tok.Column, "unexpected token %s", p.tok)
}

// directive parses a #-directive and its same-line arguments.
func (p *Parser) directive() (*ast.Node, error) {
	node := ast.New(ast.Directive, p.tok.Value)
	if err := p.eat(TokenDirective); err != nil {
		return nil, err
	}

	for !p.atDirectiveEnd() {
		if p.tok.Type == TokenString || p.tok.Type == TokenIdentifier ||
			p.tok.Type == TokenNumber {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			node.AddChild(arg)
		} else {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}

	return node, p.eatOptionalSemicolon()
}

func (p *Parser) atDirectiveEnd() bool {
	return p.isPunct(";") ||
		p.tok.Type == TokenKeyword ||
		p.tok.Type == TokenDirective ||
		p.tok.Type == TokenEOF
}
