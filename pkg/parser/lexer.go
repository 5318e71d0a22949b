package parser

// ---------------------------------------------------------------------------
// Lexer: tokenizer for Slime source text
// ---------------------------------------------------------------------------

// Lexer tokenizes Slime source code.
type Lexer struct {
	input  string
	pos    int
	line   int // current line (1-based)
	column int // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, line: 1, column: 1}
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) advance() byte {
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) skipWhitespace() {
	for !l.atEnd() && isSpace(l.input[l.pos]) {
		l.advance()
	}
}

// skipLineComment consumes the remainder of the current line.
func (l *Lexer) skipLineComment() {
	for !l.atEnd() && l.input[l.pos] != '\n' {
		l.advance()
	}
	if !l.atEnd() {
		l.advance()
	}
}

// NextToken returns the next token, or an error for malformed input.
func (l *Lexer) NextToken() (Token, error) {
	for !l.atEnd() {
		c := l.peek()

		if isSpace(c) {
			l.skipWhitespace()
			continue
		}

		line, column := l.line, l.column

		switch {
		case c == '#':
			return l.directive(line, column), nil

		case c == '"':
			return l.stringLiteral(line, column)

		case isDigit(c):
			return l.number(line, column), nil

		case isAlpha(c) || c == '_':
			return l.identifier(line, column), nil

		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%':
			l.advance()
			if c == '/' && l.peek() == '/' {
				l.skipLineComment()
				continue
			}
			return Token{TokenPunctuation, string(c), line, column}, nil

		case c == '=' || c == '!' || c == '<' || c == '>':
			l.advance()
			if l.peek() == '=' {
				l.advance()
				return Token{TokenPunctuation, string(c) + "=", line, column}, nil
			}
			return Token{TokenPunctuation, string(c), line, column}, nil

		case c == '&' || c == '|':
			l.advance()
			if l.peek() != c {
				return Token{}, syntaxErrorf(line, column, "invalid operator %q", string(c))
			}
			l.advance()
			return Token{TokenPunctuation, string(c) + string(c), line, column}, nil

		default:
			l.advance()
			return Token{TokenPunctuation, string(c), line, column}, nil
		}
	}

	return Token{Type: TokenEOF, Line: l.line, Column: l.column}, nil
}

// identifier reads an identifier or keyword. Dots are part of identifiers so
// that qualified builtin names like System.Output.Print lex as one token.
func (l *Lexer) identifier(line, column int) Token {
	start := l.pos
	for !l.atEnd() && (isAlnum(l.input[l.pos]) || l.input[l.pos] == '_' || l.input[l.pos] == '.') {
		l.advance()
	}

	value := l.input[start:l.pos]
	if keywords[value] {
		return Token{TokenKeyword, value, line, column}
	}
	return Token{TokenIdentifier, value, line, column}
}

// stringLiteral reads a double-quoted string. A backslash skips the next
// character so escaped quotes do not terminate the literal.
func (l *Lexer) stringLiteral(line, column int) (Token, error) {
	l.advance() // opening quote
	start := l.pos

	for !l.atEnd() && l.input[l.pos] != '"' {
		if l.input[l.pos] == '\\' {
			l.advance()
			if l.atEnd() {
				break
			}
		}
		l.advance()
	}

	if l.atEnd() {
		return Token{}, syntaxErrorf(line, column, "unterminated string")
	}

	value := l.input[start:l.pos]
	l.advance() // closing quote
	return Token{TokenString, value, line, column}, nil
}

func (l *Lexer) number(line, column int) Token {
	start := l.pos
	for !l.atEnd() && (isDigit(l.input[l.pos]) || l.input[l.pos] == '.') {
		l.advance()
	}
	return Token{TokenNumber, l.input[start:l.pos], line, column}
}

// directive reads a #-prefixed directive up to whitespace or a semicolon.
func (l *Lexer) directive(line, column int) Token {
	start := l.pos
	l.advance() // '#'
	for !l.atEnd() && !isSpace(l.input[l.pos]) && l.input[l.pos] != ';' {
		l.advance()
	}
	return Token{TokenDirective, l.input[start:l.pos], line, column}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isAlpha(c) || isDigit(c)
}
