package basic

import (
	"strconv"
	"strings"
)

// parser consumes one line's token sequence and builds its statement list.
// It never executes side effects.
type parser struct {
	tokens []Token
	pos    int
	length int // source length, for end-of-line error positions
}

// ParseLine lexes and parses one submitted line. A leading line number is
// stripped and validated; the result's Number is 0 for an immediate-mode
// line. A numbered line with no statements has a nil statement list, which
// the editor treats as a deletion.
func ParseLine(source string) (*ProgramLine, *BASICError) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	line := &ProgramLine{}
	rest := source
	if len(tokens) > 0 && tokens[0].Type == TokenNumber {
		number, err := parseLineNumber(tokens[0])
		if err != nil {
			return nil, err
		}
		line.Number = number
		tokens = tokens[1:]
		// Canonical source is the text after the line number, trimmed.
		idx := strings.IndexFunc(source, func(r rune) bool {
			return r != ' ' && r != '\t'
		})
		rest = source[idx:]
		rest = strings.TrimLeft(rest, "0123456789")
		rest = strings.TrimLeft(rest, " \t")
	}
	line.Source = strings.TrimRight(rest, " \t")
	if len(tokens) == 0 {
		return line, nil
	}
	p := &parser{tokens: tokens, length: len(source)}
	statements, perr := p.parseStatementList()
	if perr != nil {
		return nil, perr
	}
	line.Statements = lowerStatements(statements)
	return line, nil
}

// lowerStatements flattens IF/THEN/ELSE branches into the line's statement
// list so that GOSUB returns and zero-trip FOR scans can address branch
// statements by index. IF becomes a conditional skip over the THEN run, with
// an unconditional skip bridging past the ELSE run when one exists.
func lowerStatements(stmts []Statement) []Statement {
	flat := make([]Statement, 0, len(stmts))
	for _, stmt := range stmts {
		flat = lowerInto(flat, stmt)
	}
	return flat
}

func lowerInto(flat []Statement, stmt Statement) []Statement {
	cond, ok := stmt.(IfStmt)
	if !ok {
		return append(flat, stmt)
	}
	skip := &ifSkipStmt{Cond: cond.Cond}
	flat = append(flat, skip)
	for _, s := range cond.Then {
		flat = lowerInto(flat, s)
	}
	if len(cond.Else) == 0 {
		skip.Target = len(flat)
		return flat
	}
	bridge := &skipJumpStmt{}
	flat = append(flat, bridge)
	skip.Target = len(flat)
	for _, s := range cond.Else {
		flat = lowerInto(flat, s)
	}
	bridge.Target = len(flat)
	return flat
}

func parseLineNumber(tok Token) (int, *BASICError) {
	number, err := strconv.Atoi(tok.Text)
	if err != nil || number < 1 || number > MaxLineNumber {
		return 0, syntaxError(tok.Column, "invalid line number "+tok.Text)
	}
	return number, nil
}

// parseStatementList parses colon-separated statements to the end of the
// token sequence.
func (p *parser) parseStatementList() ([]Statement, *BASICError) {
	var statements []Statement
	for {
		// Tolerate empty statements between colons.
		for p.matchType(TokenColon) {
		}
		if p.atEnd() {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		if p.atEnd() {
			break
		}
		if !p.matchType(TokenColon) {
			tok, _ := p.peek()
			return nil, syntaxError(tok.Column, "expected end of statement, found "+tok.Text)
		}
	}
	return statements, nil
}

// parseStatement dispatches on the leading keyword. A bare identifier is an
// implicit LET; a leading numeric token has no statement meaning and is
// rejected.
func (p *parser) parseStatement() (Statement, *BASICError) {
	tok, ok := p.peek()
	if !ok {
		return nil, syntaxError(p.endColumn(), "statement expected")
	}
	switch tok.Type {
	case TokenNumber:
		return nil, syntaxError(tok.Column, "line number not allowed here")
	case TokenIdentifier:
		return p.parseLet()
	case TokenKeyword:
		// fall through to keyword dispatch below
	default:
		return nil, syntaxError(tok.Column, "statement keyword expected, found "+tok.Text)
	}
	p.advance()
	switch tok.Text {
	case "LET":
		return p.parseLet()
	case "PRINT":
		return p.parsePrint()
	case "INPUT":
		return p.parseInput()
	case "IF":
		return p.parseIf()
	case "FOR":
		return p.parseFor()
	case "NEXT":
		return p.parseNext()
	case "GOTO":
		return p.parseGoto(false)
	case "GOSUB":
		return p.parseGoto(true)
	case "GO":
		// The dialect accepts the spaced spellings GO TO and GO SUB.
		next, ok := p.peek()
		switch {
		case ok && next.IsKeyword("TO"):
			p.advance()
			return p.parseGoto(false)
		case ok && next.IsKeyword("SUB"):
			p.advance()
			return p.parseGoto(true)
		}
		return nil, syntaxError(tok.Column, "GO without TO or SUB")
	case "RETURN":
		return ReturnStmt{}, nil
	case "ON":
		return p.parseOn()
	case "DIM":
		return p.parseDim()
	case "DATA":
		return p.parseData()
	case "READ":
		return p.parseRead()
	case "RESTORE":
		return p.parseRestore()
	case "REM":
		return p.parseRem()
	case "END":
		return EndStmt{}, nil
	case "STOP":
		return StopStmt{}, nil
	case "RANDOMIZE":
		return p.parseRandomize()
	case "CLS":
		return ClsStmt{}, nil
	case "RUN":
		return p.parseRun()
	case "LIST":
		return p.parseList()
	case "NEW":
		return NewStmt{}, nil
	case "CLEAR":
		return ClearStmt{}, nil
	case "LOAD":
		return p.parseLoadSave(true)
	case "SAVE":
		return p.parseLoadSave(false)
	case "FILES":
		return FilesStmt{}, nil
	case "BYE":
		return ByeStmt{}, nil
	}
	return nil, syntaxError(tok.Column, "unexpected keyword "+tok.Text)
}

func (p *parser) parseLet() (Statement, *BASICError) {
	target, err := p.parseVarRef()
	if err != nil {
		return nil, err
	}
	if !p.matchOperator("=") {
		col := p.endColumn()
		if tok, ok := p.peek(); ok {
			col = tok.Column
		}
		return nil, syntaxError(col, "expected = in assignment")
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return LetStmt{Target: target, Value: value}, nil
}

func (p *parser) parsePrint() (Statement, *BASICError) {
	var items []PrintItem
	for !p.atStatementEnd() {
		var item PrintItem
		tok, _ := p.peek()
		if tok.IsKeyword("TAB") || tok.IsKeyword("SPC") {
			p.advance()
			if !p.matchType(TokenLParen) {
				return nil, syntaxError(p.endColumn(), tok.Text+" requires parentheses")
			}
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if !p.matchType(TokenRParen) {
				return nil, syntaxError(p.endColumn(), "missing closing parenthesis")
			}
			item = PrintItem{Expr: expr, Tab: tok.Text == "TAB", Spc: tok.Text == "SPC"}
		} else {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			item = PrintItem{Expr: expr}
		}
		switch {
		case p.matchType(TokenSemicolon):
			item.Sep = ';'
		case p.matchType(TokenComma):
			item.Sep = ','
		default:
			items = append(items, item)
			if !p.atStatementEnd() {
				tok, _ := p.peek()
				return nil, syntaxError(tok.Column, "expected separator in PRINT list")
			}
			return PrintStmt{Items: items}, nil
		}
		items = append(items, item)
	}
	return PrintStmt{Items: items}, nil
}

func (p *parser) parseInput() (Statement, *BASICError) {
	stmt := InputStmt{}
	if tok, ok := p.peek(); ok && tok.Type == TokenString {
		p.advance()
		stmt.Prompt = tok.Text
		if !p.matchType(TokenSemicolon) && !p.matchType(TokenComma) {
			return nil, syntaxError(p.endColumn(), "expected ; after INPUT prompt")
		}
	}
	for {
		ref, err := p.parseVarRef()
		if err != nil {
			return nil, err
		}
		stmt.Targets = append(stmt.Targets, ref)
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
	}
}

func (p *parser) parseIf() (Statement, *BASICError) {
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var thenStmts []Statement
	switch {
	case p.matchKeyword("THEN"):
		thenStmts, err = p.parseBranch()
		if err != nil {
			return nil, err
		}
	case p.matchKeyword("GOTO"):
		target, err := p.parseTargetLine()
		if err != nil {
			return nil, err
		}
		thenStmts = []Statement{GotoStmt{Target: target}}
	default:
		return nil, syntaxError(p.endColumn(), "expected THEN after IF condition")
	}
	stmt := IfStmt{Cond: cond, Then: thenStmts}
	if p.matchKeyword("ELSE") {
		elseStmts, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		stmt.Else = elseStmts
	}
	return stmt, nil
}

// parseBranch parses a THEN or ELSE clause: a bare line number (GOTO
// shorthand) or colon-separated statements up to ELSE or end of line.
func (p *parser) parseBranch() ([]Statement, *BASICError) {
	if tok, ok := p.peek(); ok && tok.Type == TokenNumber {
		target, err := p.parseTargetLine()
		if err != nil {
			return nil, err
		}
		return []Statement{GotoStmt{Target: target}}, nil
	}
	var statements []Statement
	for {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		statements = append(statements, stmt)
		if !p.matchType(TokenColon) {
			return statements, nil
		}
		if tok, ok := p.peek(); !ok || tok.IsKeyword("ELSE") {
			return statements, nil
		}
	}
}

func (p *parser) parseFor() (Statement, *BASICError) {
	name, err := p.parseScalarName()
	if err != nil {
		return nil, err
	}
	if !p.matchOperator("=") {
		return nil, syntaxError(p.endColumn(), "expected = in FOR")
	}
	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.matchKeyword("TO") {
		return nil, syntaxError(p.endColumn(), "expected TO in FOR")
	}
	to, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := ForStmt{Var: name, From: from, To: to}
	if p.matchKeyword("STEP") {
		step, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Step = step
	}
	return stmt, nil
}

func (p *parser) parseNext() (Statement, *BASICError) {
	stmt := NextStmt{}
	for {
		tok, ok := p.peek()
		if !ok || tok.Type != TokenIdentifier {
			return stmt, nil
		}
		p.advance()
		stmt.Vars = append(stmt.Vars, tok.Text)
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
	}
}

func (p *parser) parseGoto(gosub bool) (Statement, *BASICError) {
	target, err := p.parseTargetLine()
	if err != nil {
		return nil, err
	}
	if gosub {
		return GosubStmt{Target: target}, nil
	}
	return GotoStmt{Target: target}, nil
}

func (p *parser) parseOn() (Statement, *BASICError) {
	selector, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	gosub := false
	switch {
	case p.matchKeyword("GOTO"):
	case p.matchKeyword("GOSUB"):
		gosub = true
	default:
		return nil, syntaxError(p.endColumn(), "expected GOTO or GOSUB after ON")
	}
	stmt := OnStmt{Selector: selector, Gosub: gosub}
	for {
		target, err := p.parseTargetLine()
		if err != nil {
			return nil, err
		}
		stmt.Targets = append(stmt.Targets, target)
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
	}
}

func (p *parser) parseDim() (Statement, *BASICError) {
	stmt := DimStmt{}
	for {
		tok, ok := p.peek()
		if !ok || tok.Type != TokenIdentifier {
			return nil, syntaxError(p.endColumn(), "array name expected in DIM")
		}
		p.advance()
		if !p.matchType(TokenLParen) {
			return nil, syntaxError(p.endColumn(), "expected ( in DIM")
		}
		bounds, err := p.parseExpressionList(TokenRParen)
		if err != nil {
			return nil, err
		}
		if len(bounds) == 0 {
			return nil, syntaxError(tok.Column, "empty DIM bounds")
		}
		if !p.matchType(TokenRParen) {
			return nil, syntaxError(p.endColumn(), "missing closing parenthesis")
		}
		stmt.Arrays = append(stmt.Arrays, ArrayDecl{Name: tok.Text, Bounds: bounds, Column: tok.Column})
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
	}
}

// parseData materializes DATA constants at parse time: signed numbers,
// quoted strings, or unquoted words (stored as text unless they read as a
// number).
func (p *parser) parseData() (Statement, *BASICError) {
	stmt := DataStmt{}
	for !p.atStatementEnd() {
		tok, _ := p.peek()
		switch {
		case tok.Type == TokenString:
			p.advance()
			stmt.Values = append(stmt.Values, StringValue(tok.Text))
		case tok.Type == TokenNumber:
			p.advance()
			n, ok := parseNumber(tok.Text)
			if !ok {
				return nil, syntaxError(tok.Column, "malformed number in DATA")
			}
			stmt.Values = append(stmt.Values, NumberValue(n))
		case tok.IsOperator("-") || tok.IsOperator("+"):
			negative := tok.IsOperator("-")
			p.advance()
			num, ok := p.peek()
			if !ok || num.Type != TokenNumber {
				return nil, syntaxError(tok.Column, "number expected in DATA")
			}
			p.advance()
			n, good := parseNumber(num.Text)
			if !good {
				return nil, syntaxError(num.Column, "malformed number in DATA")
			}
			if negative {
				n = -n
			}
			stmt.Values = append(stmt.Values, NumberValue(n))
		default:
			// Unquoted text; adjacent words collapse to one space-joined value.
			var parts []string
			for !p.atStatementEnd() && !p.peekType(TokenComma) {
				t, _ := p.peek()
				p.advance()
				parts = append(parts, t.Text)
			}
			stmt.Values = append(stmt.Values, StringValue(strings.Join(parts, " ")))
		}
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
		if p.atStatementEnd() {
			// A trailing comma implies one empty datum.
			stmt.Values = append(stmt.Values, StringValue(""))
			return stmt, nil
		}
	}
	return stmt, nil
}

func (p *parser) parseRead() (Statement, *BASICError) {
	stmt := ReadStmt{}
	for {
		ref, err := p.parseVarRef()
		if err != nil {
			return nil, err
		}
		stmt.Targets = append(stmt.Targets, ref)
		if !p.matchType(TokenComma) {
			return stmt, nil
		}
	}
}

func (p *parser) parseRestore() (Statement, *BASICError) {
	if tok, ok := p.peek(); ok && tok.Type == TokenNumber {
		target, err := p.parseTargetLine()
		if err != nil {
			return nil, err
		}
		return RestoreStmt{Line: target}, nil
	}
	return RestoreStmt{}, nil
}

func (p *parser) parseRem() (Statement, *BASICError) {
	text := ""
	if tok, ok := p.peek(); ok && tok.Type == TokenString {
		p.advance()
		text = tok.Text
	}
	return RemStmt{Text: text}, nil
}

func (p *parser) parseRandomize() (Statement, *BASICError) {
	if p.atStatementEnd() {
		return RandomizeStmt{}, nil
	}
	seed, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return RandomizeStmt{Seed: seed}, nil
}

func (p *parser) parseRun() (Statement, *BASICError) {
	if tok, ok := p.peek(); ok && tok.Type == TokenNumber {
		target, err := p.parseTargetLine()
		if err != nil {
			return nil, err
		}
		return RunStmt{Line: target}, nil
	}
	return RunStmt{}, nil
}

// parseList accepts LIST, LIST n, LIST n-m, LIST n-, LIST -m and the comma
// form LIST n,m.
func (p *parser) parseList() (Statement, *BASICError) {
	stmt := ListStmt{}
	if p.atStatementEnd() {
		return stmt, nil
	}
	if tok, ok := p.peek(); ok && tok.Type == TokenNumber {
		from, err := parseLineNumber(tok)
		if err != nil {
			return nil, err
		}
		p.advance()
		stmt.From = from
		stmt.To = from
	}
	if p.matchOperator("-") || p.matchType(TokenComma) {
		stmt.To = 0
		if tok, ok := p.peek(); ok && tok.Type == TokenNumber {
			to, err := parseLineNumber(tok)
			if err != nil {
				return nil, err
			}
			p.advance()
			stmt.To = to
		}
	}
	return stmt, nil
}

func (p *parser) parseLoadSave(load bool) (Statement, *BASICError) {
	name, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if load {
		return LoadStmt{Name: name}, nil
	}
	return SaveStmt{Name: name}, nil
}

// parseVarRef parses an assignment or READ/INPUT target: a scalar name or
// an array element reference.
func (p *parser) parseVarRef() (VarRef, *BASICError) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenIdentifier {
		col := p.endColumn()
		if ok {
			col = tok.Column
		}
		return VarRef{}, syntaxError(col, "variable name expected")
	}
	p.advance()
	ref := VarRef{Name: tok.Text, Column: tok.Column}
	if p.matchType(TokenLParen) {
		indices, err := p.parseExpressionList(TokenRParen)
		if err != nil {
			return VarRef{}, err
		}
		if len(indices) == 0 {
			return VarRef{}, syntaxError(tok.Column, "empty subscript list")
		}
		if !p.matchType(TokenRParen) {
			return VarRef{}, syntaxError(p.endColumn(), "missing closing parenthesis")
		}
		ref.Indices = indices
	}
	return ref, nil
}

func (p *parser) parseScalarName() (string, *BASICError) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenIdentifier {
		return "", syntaxError(p.endColumn(), "variable name expected")
	}
	p.advance()
	return tok.Text, nil
}

func (p *parser) parseTargetLine() (int, *BASICError) {
	tok, ok := p.peek()
	if !ok || tok.Type != TokenNumber {
		col := p.endColumn()
		if ok {
			col = tok.Column
		}
		return 0, syntaxError(col, "line number expected")
	}
	p.advance()
	return parseLineNumber(tok)
}

// Token stream helpers.

func (p *parser) peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) prev() Token {
	return p.tokens[p.pos-1]
}

func (p *parser) advance() {
	p.pos++
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

// atStatementEnd reports end of the current statement: end of tokens, a
// colon, or an ELSE belonging to an enclosing IF.
func (p *parser) atStatementEnd() bool {
	tok, ok := p.peek()
	if !ok {
		return true
	}
	return tok.Type == TokenColon || tok.IsKeyword("ELSE")
}

func (p *parser) peekType(t TokenType) bool {
	tok, ok := p.peek()
	return ok && tok.Type == t
}

func (p *parser) matchType(t TokenType) bool {
	if p.peekType(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) matchOperator(op string) bool {
	tok, ok := p.peek()
	if ok && tok.IsOperator(op) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) matchKeyword(word string) bool {
	tok, ok := p.peek()
	if ok && tok.IsKeyword(word) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) endColumn() int {
	if len(p.tokens) == 0 {
		return 1
	}
	last := p.tokens[len(p.tokens)-1]
	return last.Column + len(last.Text)
}
