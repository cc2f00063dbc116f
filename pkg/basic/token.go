package basic

import "strings"

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOL TokenType = iota
	TokenNumber
	TokenString
	TokenIdentifier
	TokenKeyword
	TokenOperator
	TokenLParen
	TokenRParen
	TokenComma
	TokenColon
	TokenSemicolon
)

// Token is one lexical unit of a source line. Column is the 1-based position
// of the token's first character, kept for error reporting.
type Token struct {
	Type   TokenType
	Text   string
	Column int
}

// IsKeyword reports whether the token is the given keyword. Keywords are
// stored upper-cased by the lexer.
func (t Token) IsKeyword(word string) bool {
	return t.Type == TokenKeyword && t.Text == word
}

// IsOperator reports whether the token is the given operator.
func (t Token) IsOperator(op string) bool {
	return t.Type == TokenOperator && t.Text == op
}

// keywords is the closed set of statement and operator words. Word operators
// (AND, OR, NOT, MOD) lex as operators, everything else as keywords.
var keywords = map[string]bool{
	"LET": true, "PRINT": true, "INPUT": true, "IF": true, "THEN": true,
	"ELSE": true, "FOR": true, "TO": true, "STEP": true, "NEXT": true,
	"GOTO": true, "GOSUB": true, "RETURN": true, "ON": true, "DIM": true,
	"DATA": true, "READ": true, "RESTORE": true, "REM": true, "END": true,
	"STOP": true, "RUN": true, "LIST": true, "NEW": true, "CLEAR": true,
	"LOAD": true, "SAVE": true, "FILES": true, "CLS": true, "RANDOMIZE": true,
	"BYE": true, "TAB": true, "SPC": true, "GO": true, "SUB": true,
}

// wordOperators are operators spelled as words.
var wordOperators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "MOD": true,
}

func isKeywordWord(s string) bool {
	return keywords[strings.ToUpper(s)]
}

func isWordOperator(s string) bool {
	return wordOperators[strings.ToUpper(s)]
}
