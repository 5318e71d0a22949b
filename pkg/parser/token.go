package parser

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the Slime lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	TokenEOF TokenType = iota

	TokenKeyword     // cra, cre, use, del, if, else, while, for, break, continue
	TokenIdentifier  // foo, System.Output.Print
	TokenNumber      // 42, 3.14
	TokenString      // "hello"
	TokenDirective   // #include, #mode
	TokenPunctuation // operators and delimiters: + - * / % == != < <= > >= = && || ( ) { } ;
)

var tokenTypeNames = map[TokenType]string{
	TokenEOF:         "EOF",
	TokenKeyword:     "KEYWORD",
	TokenIdentifier:  "IDENTIFIER",
	TokenNumber:      "NUMBER",
	TokenString:      "STRING",
	TokenDirective:   "DIRECTIVE",
	TokenPunctuation: "PUNCTUATION",
}

func (t TokenType) String() string {
	if name, ok := tokenTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a lexical token with its source position.
type Token struct {
	Type   TokenType
	Value  string // the raw text
	Line   int    // 1-based
	Column int    // 1-based
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}

// Reserved words of the language.
var keywords = map[string]bool{
	"cra":      true,
	"cre":      true,
	"use":      true,
	"del":      true,
	"if":       true,
	"else":     true,
	"while":    true,
	"for":      true,
	"break":    true,
	"continue": true,
}

// SyntaxError reports a lexical or grammatical error with its source position.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func syntaxErrorf(line, column int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Line: line, Column: column, Msg: fmt.Sprintf(format, args...)}
}
