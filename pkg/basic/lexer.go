package basic

import "strings"

// Lexer converts one source line into a flat token sequence. Tokenization is
// pure and stateless per line; no lexical state survives between lines.
type Lexer struct {
	input string
	pos   int
}

// Tokenize lexes a single line. The returned sequence never contains an EOL
// token; callers detect the end by slice length.
func Tokenize(line string) ([]Token, *BASICError) {
	l := &Lexer{input: line}
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOL {
			return tokens, nil
		}
		tokens = append(tokens, tok)
		// REM swallows the remainder of the line verbatim.
		if tok.IsKeyword("REM") {
			rest := l.input[l.pos:]
			tokens = append(tokens, Token{Type: TokenString, Text: rest, Column: l.pos + 1})
			return tokens, nil
		}
	}
}

func (l *Lexer) next() (Token, *BASICError) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOL, Column: l.pos + 1}, nil
	}
	start := l.pos
	ch := l.input[l.pos]

	switch {
	case ch >= '0' && ch <= '9', ch == '.':
		return l.lexNumber()
	case ch == '"':
		return l.lexString()
	case isLetter(ch):
		return l.lexWord()
	}

	col := start + 1
	l.pos++
	switch ch {
	case '(':
		return Token{Type: TokenLParen, Text: "(", Column: col}, nil
	case ')':
		return Token{Type: TokenRParen, Text: ")", Column: col}, nil
	case ',':
		return Token{Type: TokenComma, Text: ",", Column: col}, nil
	case ':':
		return Token{Type: TokenColon, Text: ":", Column: col}, nil
	case ';':
		return Token{Type: TokenSemicolon, Text: ";", Column: col}, nil
	case '?':
		// ? is the classic PRINT shorthand.
		return Token{Type: TokenKeyword, Text: "PRINT", Column: col}, nil
	case '\'':
		return Token{Type: TokenKeyword, Text: "REM", Column: col}, nil
	case '+', '-', '*', '/', '^', '=':
		return Token{Type: TokenOperator, Text: string(ch), Column: col}, nil
	case '<':
		// Multi-character operators are matched greedily.
		if l.pos < len(l.input) && (l.input[l.pos] == '=' || l.input[l.pos] == '>') {
			op := l.input[start : l.pos+1]
			l.pos++
			return Token{Type: TokenOperator, Text: op, Column: col}, nil
		}
		return Token{Type: TokenOperator, Text: "<", Column: col}, nil
	case '>':
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			l.pos++
			return Token{Type: TokenOperator, Text: ">=", Column: col}, nil
		}
		return Token{Type: TokenOperator, Text: ">", Column: col}, nil
	}
	return Token{}, syntaxError(col, "unexpected character "+string(ch))
}

// lexNumber reads a numeric literal: digits, at most one decimal point and
// an optional exponent suffix. A malformed literal is a syntax error at the
// offending position.
func (l *Lexer) lexNumber() (Token, *BASICError) {
	start := l.pos
	col := start + 1
	sawDigit := false
	sawDot := false
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch >= '0' && ch <= '9' {
			sawDigit = true
			l.pos++
			continue
		}
		if ch == '.' {
			if sawDot {
				return Token{}, syntaxError(l.pos+1, "second decimal point in number")
			}
			sawDot = true
			l.pos++
			continue
		}
		break
	}
	if !sawDigit {
		return Token{}, syntaxError(col, "malformed number")
	}
	// Exponent suffix: E, optional sign, at least one digit.
	if l.pos < len(l.input) && (l.input[l.pos] == 'E' || l.input[l.pos] == 'e') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		expDigits := false
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			expDigits = true
			l.pos++
		}
		if !expDigits {
			// "1E" followed by a letter is an identifier boundary problem in
			// some dialects; here an exponent marker without digits is rejected.
			if l.pos < len(l.input) && isLetter(l.input[l.pos]) {
				l.pos = mark
			} else {
				return Token{}, syntaxError(mark+1, "exponent without digits")
			}
		}
	}
	return Token{Type: TokenNumber, Text: strings.ToUpper(l.input[start:l.pos]), Column: col}, nil
}

// lexString reads a quoted string literal. An unterminated literal is a
// syntax error reported at end of line.
func (l *Lexer) lexString() (Token, *BASICError) {
	col := l.pos + 1
	l.pos++ // opening quote
	start := l.pos
	for l.pos < len(l.input) {
		if l.input[l.pos] == '"' {
			text := l.input[start:l.pos]
			l.pos++
			return Token{Type: TokenString, Text: text, Column: col}, nil
		}
		l.pos++
	}
	return Token{}, syntaxError(len(l.input)+1, "unterminated string literal")
}

// lexWord reads an identifier, keyword or word operator. Keywords match
// case-insensitively and are stored upper-cased; identifiers keep an optional
// trailing $ type sigil.
func (l *Lexer) lexWord() (Token, *BASICError) {
	start := l.pos
	col := start + 1
	for l.pos < len(l.input) && (isLetter(l.input[l.pos]) || isDigit(l.input[l.pos])) {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '$' {
		l.pos++
	}
	word := strings.ToUpper(l.input[start:l.pos])
	switch {
	case isWordOperator(word):
		return Token{Type: TokenOperator, Text: word, Column: col}, nil
	case isKeywordWord(word):
		return Token{Type: TokenKeyword, Text: word, Column: col}, nil
	}
	// Keywords need no surrounding spaces: "1TO30" lexes as 1, TO, 30 and
	// "IFA=1" as IF, A, =, 1. The longest keyword prefix wins.
	for end := len(word) - 1; end >= 2; end-- {
		prefix := word[:end]
		if isWordOperator(prefix) {
			l.pos = start + end
			return Token{Type: TokenOperator, Text: prefix, Column: col}, nil
		}
		if isKeywordWord(prefix) {
			l.pos = start + end
			return Token{Type: TokenKeyword, Text: prefix, Column: col}, nil
		}
	}
	return Token{Type: TokenIdentifier, Text: word, Column: col}, nil
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
