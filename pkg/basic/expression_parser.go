package basic

// Expression parsing by precedence climbing. The levels, low to high:
// OR, AND, relational, additive, multiplicative, unary minus/NOT,
// exponentiation (right-associative).

func (p *parser) parseExpression() (Expression, *BASICError) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expression, *BASICError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchOperator("OR") {
		col := p.prev().Column
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "OR", Left: left, Right: right, Column: col}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expression, *BASICError) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.matchOperator("AND") {
		col := p.prev().Column
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: "AND", Left: left, Right: right, Column: col}
	}
	return left, nil
}

var relationalOps = []string{"=", "<>", "<=", ">=", "<", ">"}

func (p *parser) parseRelational() (Expression, *BASICError) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		matched := ""
		for _, op := range relationalOps {
			if p.matchOperator(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left, nil
		}
		col := p.prev().Column
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: matched, Left: left, Right: right, Column: col}
	}
}

func (p *parser) parseAdditive() (Expression, *BASICError) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.matchOperator("+"):
			op = "+"
		case p.matchOperator("-"):
			op = "-"
		default:
			return left, nil
		}
		col := p.prev().Column
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right, Column: col}
	}
}

func (p *parser) parseMultiplicative() (Expression, *BASICError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op string
		switch {
		case p.matchOperator("*"):
			op = "*"
		case p.matchOperator("/"):
			op = "/"
		case p.matchOperator("MOD"):
			op = "MOD"
		default:
			return left, nil
		}
		col := p.prev().Column
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: op, Left: left, Right: right, Column: col}
	}
}

func (p *parser) parseUnary() (Expression, *BASICError) {
	if p.matchOperator("-") {
		col := p.prev().Column
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "-", Operand: operand, Column: col}, nil
	}
	if p.matchOperator("NOT") {
		col := p.prev().Column
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: "NOT", Operand: operand, Column: col}, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expression, *BASICError) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.matchOperator("^") {
		col := p.prev().Column
		// Right-associative; the right operand may carry its own unary sign
		// (2^-3).
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: "^", Left: left, Right: right, Column: col}, nil
	}
	return left, nil
}

func (p *parser) parsePrimary() (Expression, *BASICError) {
	tok, ok := p.peek()
	if !ok {
		return nil, syntaxError(p.endColumn(), "expression expected")
	}
	switch tok.Type {
	case TokenNumber:
		p.advance()
		n, good := parseNumber(tok.Text)
		if !good {
			return nil, syntaxError(tok.Column, "malformed number "+tok.Text)
		}
		return NumberLit{Value: n}, nil
	case TokenString:
		p.advance()
		return StringLit{Value: tok.Text}, nil
	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.matchType(TokenRParen) {
			return nil, syntaxError(p.endColumn(), "missing closing parenthesis")
		}
		return expr, nil
	case TokenIdentifier:
		p.advance()
		return p.parseReference(tok)
	}
	return nil, syntaxError(tok.Column, "unexpected token "+tok.Text)
}

// parseReference resolves an identifier into a function call, an array
// element reference or a scalar variable.
func (p *parser) parseReference(tok Token) (Expression, *BASICError) {
	if !p.peekType(TokenLParen) {
		if isBuiltin(tok.Text) && builtinArity(tok.Text).min == 0 {
			// Zero-argument functions (RND, TIME$) need no parentheses.
			return CallExpr{Name: tok.Text, Column: tok.Column}, nil
		}
		return VarExpr{Ref: VarRef{Name: tok.Text, Column: tok.Column}}, nil
	}
	p.advance() // (
	args, err := p.parseExpressionList(TokenRParen)
	if err != nil {
		return nil, err
	}
	if !p.matchType(TokenRParen) {
		return nil, syntaxError(p.endColumn(), "missing closing parenthesis")
	}
	if isBuiltin(tok.Text) {
		arity := builtinArity(tok.Text)
		if len(args) < arity.min || len(args) > arity.max {
			return nil, syntaxError(tok.Column, "wrong argument count for "+tok.Text)
		}
		return CallExpr{Name: tok.Text, Args: args, Column: tok.Column}, nil
	}
	return VarExpr{Ref: VarRef{Name: tok.Text, Indices: args, Column: tok.Column}}, nil
}

// parseExpressionList parses comma-separated expressions until the closing
// token type (not consumed). An immediately closing token yields nil.
func (p *parser) parseExpressionList(closing TokenType) ([]Expression, *BASICError) {
	if p.peekType(closing) {
		return nil, nil
	}
	var args []Expression
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.matchType(TokenComma) {
			return args, nil
		}
	}
}
