package basic

import "strconv"

func (in *Interpreter) execGoto(s GotoStmt) (ctrl, error) {
	if _, ok := in.program.Line(s.Target); !ok {
		return ctrlNext, NewBASICError(ErrUndefinedLine, strconv.Itoa(s.Target))
	}
	in.pos = position{line: s.Target, stmt: 0}
	return ctrlJump, nil
}

func (in *Interpreter) execGosub(s GosubStmt) (ctrl, error) {
	if _, ok := in.program.Line(s.Target); !ok {
		return ctrlNext, NewBASICError(ErrUndefinedLine, strconv.Itoa(s.Target))
	}
	if len(in.gosubStack) >= in.maxGosubDepth {
		return ctrlNext, NewBASICError(ErrStackOverflow, "GOSUB depth exceeded")
	}
	in.gosubStack = append(in.gosubStack, position{line: in.pos.line, stmt: in.pos.stmt + 1})
	in.pos = position{line: s.Target, stmt: 0}
	return ctrlJump, nil
}

func (in *Interpreter) execReturn() (ctrl, error) {
	if len(in.gosubStack) == 0 {
		return ctrlNext, NewBASICError(ErrReturnWithoutGosub, "")
	}
	last := len(in.gosubStack) - 1
	in.pos = in.gosubStack[last]
	in.gosubStack = in.gosubStack[:last]
	return ctrlJump, nil
}

func (in *Interpreter) execOn(s OnStmt) (ctrl, error) {
	v, err := in.evalExpr(s.Selector)
	if err != nil {
		return ctrlNext, err
	}
	if !v.IsNumeric {
		return ctrlNext, NewBASICError(ErrTypeMismatch, "ON selector")
	}
	n := int(v.NumValue)
	if n < 0 {
		return ctrlNext, NewBASICError(ErrIllegalQuantity, "negative ON selector")
	}
	// A selector of 0 or beyond the target list falls through.
	if n == 0 || n > len(s.Targets) {
		return ctrlNext, nil
	}
	target := s.Targets[n-1]
	if s.Gosub {
		return in.execGosub(GosubStmt{Target: target})
	}
	return in.execGoto(GotoStmt{Target: target})
}

func (in *Interpreter) execFor(s ForStmt) (ctrl, error) {
	if isStringName(s.Var) {
		return ctrlNext, NewBASICError(ErrTypeMismatch, "string loop variable")
	}
	from, err := in.evalNumber(s.From)
	if err != nil {
		return ctrlNext, err
	}
	limit, err := in.evalNumber(s.To)
	if err != nil {
		return ctrlNext, err
	}
	step := 1.0
	if s.Step != nil {
		step, err = in.evalNumber(s.Step)
		if err != nil {
			return ctrlNext, err
		}
	}
	if err := in.vars.Set(s.Var, NumberValue(from)); err != nil {
		return ctrlNext, err
	}

	// Reusing the variable of an active loop discards that loop and any
	// loops nested inside it.
	for i := len(in.forStack) - 1; i >= 0; i-- {
		if in.forStack[i].name == s.Var {
			in.forStack = in.forStack[:i]
			break
		}
	}
	if len(in.forStack) >= in.maxForDepth {
		return ctrlNext, NewBASICError(ErrStackOverflow, "FOR depth exceeded")
	}

	if (step >= 0 && from > limit) || (step < 0 && from < limit) {
		return in.skipLoopBody(s.Var)
	}
	in.forStack = append(in.forStack, forFrame{
		name:  s.Var,
		limit: limit,
		step:  step,
		body:  position{line: in.pos.line, stmt: in.pos.stmt + 1},
	})
	return ctrlNext, nil
}

// skipLoopBody handles a loop whose body never runs: control scans forward
// for the first NEXT naming the loop variable, or the first NEXT with no
// variable, and resumes after it.
func (in *Interpreter) skipLoopBody(name string) (ctrl, error) {
	p := position{line: in.pos.line, stmt: in.pos.stmt + 1}
	for {
		stmt, np, ok := in.peekStatement(p)
		if !ok {
			return ctrlNext, NewBASICError(ErrNextWithoutFor, "FOR "+name+" has no NEXT")
		}
		if next, isNext := stmt.(NextStmt); isNext {
			if len(next.Vars) == 0 || containsVar(next.Vars, name) {
				in.pos = position{line: np.line, stmt: np.stmt + 1}
				return ctrlJump, nil
			}
		}
		p = position{line: np.line, stmt: np.stmt + 1}
	}
}

func containsVar(vars []string, name string) bool {
	for _, v := range vars {
		if v == name {
			return true
		}
	}
	return false
}

func (in *Interpreter) execNext(s NextStmt) (ctrl, error) {
	names := s.Vars
	if len(names) == 0 {
		names = []string{""}
	}
	for _, name := range names {
		idx := len(in.forStack) - 1
		if name != "" {
			for idx >= 0 && in.forStack[idx].name != name {
				idx--
			}
		}
		if idx < 0 {
			return ctrlNext, NewBASICError(ErrNextWithoutFor, name)
		}
		// NEXT for an outer loop abandons any loops nested inside it.
		in.forStack = in.forStack[:idx+1]
		frame := &in.forStack[idx]

		v, err := checkRange(in.vars.Get(frame.name).NumValue + frame.step)
		if err != nil {
			return ctrlNext, err
		}
		if err := in.vars.Set(frame.name, v); err != nil {
			return ctrlNext, err
		}
		n := v.NumValue
		if (frame.step >= 0 && n <= frame.limit) || (frame.step < 0 && n >= frame.limit) {
			in.pos = frame.body
			return ctrlJump, nil
		}
		in.forStack = in.forStack[:idx]
	}
	return ctrlNext, nil
}

// evalNumber evaluates an expression that must be numeric.
func (in *Interpreter) evalNumber(expr Expression) (float64, error) {
	v, err := in.evalExpr(expr)
	if err != nil {
		return 0, err
	}
	if !v.IsNumeric {
		return 0, NewBASICError(ErrTypeMismatch, "number expected")
	}
	return v.NumValue, nil
}
