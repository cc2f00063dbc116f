package basic

import (
	"math"
)

// maxStringLength bounds every string value, matching the emulated string
// space.
const maxStringLength = 255

// evalExpr evaluates an expression tree to a value. All failures are typed
// runtime errors; the caller stamps the active line.
func (in *Interpreter) evalExpr(expr Expression) (BASICValue, error) {
	switch e := expr.(type) {
	case NumberLit:
		return NumberValue(e.Value), nil
	case StringLit:
		return StringValue(e.Value), nil
	case VarExpr:
		return in.readVar(e.Ref)
	case UnaryExpr:
		return in.evalUnary(e)
	case BinaryExpr:
		return in.evalBinary(e)
	case CallExpr:
		args := make([]BASICValue, len(e.Args))
		for i, arg := range e.Args {
			v, err := in.evalExpr(arg)
			if err != nil {
				return BASICValue{}, err
			}
			args[i] = v
		}
		v, err := in.callBuiltin(e.Name, args)
		if err != nil {
			return BASICValue{}, AsBASICError(err).AtColumn(e.Column)
		}
		return v, nil
	}
	return BASICValue{}, NewBASICError(ErrSyntax, "unknown expression node")
}

// readVar reads a scalar or array element through the variable store.
func (in *Interpreter) readVar(ref VarRef) (BASICValue, error) {
	if ref.Indices == nil {
		return in.vars.Get(ref.Name), nil
	}
	indices, err := in.evalIndices(ref.Indices)
	if err != nil {
		return BASICValue{}, err
	}
	v, err := in.vars.GetElement(ref.Name, indices)
	if err != nil {
		return BASICValue{}, AsBASICError(err).AtColumn(ref.Column)
	}
	return v, nil
}

// evalIndices evaluates subscript expressions to integers, rounding
// fractional values the way the classic dialect does.
func (in *Interpreter) evalIndices(exprs []Expression) ([]int, error) {
	indices := make([]int, len(exprs))
	for i, expr := range exprs {
		v, err := in.evalExpr(expr)
		if err != nil {
			return nil, err
		}
		if !v.IsNumeric {
			return nil, NewBASICError(ErrTypeMismatch, "array subscript must be numeric")
		}
		indices[i] = int(math.Round(v.NumValue))
	}
	return indices, nil
}

func (in *Interpreter) evalUnary(e UnaryExpr) (BASICValue, error) {
	v, err := in.evalExpr(e.Operand)
	if err != nil {
		return BASICValue{}, err
	}
	switch e.Op {
	case "-":
		if !v.IsNumeric {
			return BASICValue{}, NewBASICError(ErrTypeMismatch, "unary minus on string").AtColumn(e.Column)
		}
		return NumberValue(-v.NumValue), nil
	case "NOT":
		n, err := toInt16(v)
		if err != nil {
			return BASICValue{}, AsBASICError(err).AtColumn(e.Column)
		}
		return NumberValue(float64(^n)), nil
	}
	return BASICValue{}, NewBASICError(ErrSyntax, "unknown unary operator "+e.Op)
}

func (in *Interpreter) evalBinary(e BinaryExpr) (BASICValue, error) {
	left, err := in.evalExpr(e.Left)
	if err != nil {
		return BASICValue{}, err
	}
	right, err := in.evalExpr(e.Right)
	if err != nil {
		return BASICValue{}, err
	}
	v, err := applyBinary(e.Op, left, right)
	if err != nil {
		return BASICValue{}, AsBASICError(err).AtColumn(e.Column)
	}
	return v, nil
}

func applyBinary(op string, left, right BASICValue) (BASICValue, error) {
	switch op {
	case "+":
		// + concatenates strings and adds numbers; mixing is a mismatch.
		if !left.IsNumeric && !right.IsNumeric {
			if len(left.StrValue)+len(right.StrValue) > maxStringLength {
				return BASICValue{}, NewBASICError(ErrOutOfMemory, "string too long")
			}
			return StringValue(left.StrValue + right.StrValue), nil
		}
		if left.IsNumeric && right.IsNumeric {
			return checkRange(left.NumValue + right.NumValue)
		}
		return BASICValue{}, NewBASICError(ErrTypeMismatch, "mixed types for +")
	case "-", "*", "/", "^", "MOD":
		if !left.IsNumeric || !right.IsNumeric {
			return BASICValue{}, NewBASICError(ErrTypeMismatch, "string operand for "+op)
		}
		return applyArithmetic(op, left.NumValue, right.NumValue)
	case "=", "<>", "<", "<=", ">", ">=":
		return applyComparison(op, left, right)
	case "AND", "OR":
		l, err := toInt16(left)
		if err != nil {
			return BASICValue{}, err
		}
		r, err := toInt16(right)
		if err != nil {
			return BASICValue{}, err
		}
		if op == "AND" {
			return NumberValue(float64(l & r)), nil
		}
		return NumberValue(float64(l | r)), nil
	}
	return BASICValue{}, NewBASICError(ErrSyntax, "unknown operator "+op)
}

func applyArithmetic(op string, l, r float64) (BASICValue, error) {
	switch op {
	case "-":
		return checkRange(l - r)
	case "*":
		return checkRange(l * r)
	case "/":
		if r == 0 {
			return BASICValue{}, NewBASICError(ErrDivisionByZero, "")
		}
		return checkRange(l / r)
	case "MOD":
		if math.Round(r) == 0 {
			return BASICValue{}, NewBASICError(ErrDivisionByZero, "MOD by zero")
		}
		return NumberValue(math.Trunc(math.Mod(math.Round(l), math.Round(r)))), nil
	case "^":
		if l < 0 && r != math.Trunc(r) {
			return BASICValue{}, NewBASICError(ErrIllegalQuantity, "negative base to fractional power")
		}
		if l == 0 && r < 0 {
			return BASICValue{}, NewBASICError(ErrDivisionByZero, "zero to negative power")
		}
		return checkRange(math.Pow(l, r))
	}
	return BASICValue{}, NewBASICError(ErrSyntax, "unknown operator "+op)
}

// applyComparison compares same-typed operands, yielding -1 for true and 0
// for false.
func applyComparison(op string, left, right BASICValue) (BASICValue, error) {
	if left.IsNumeric != right.IsNumeric {
		return BASICValue{}, NewBASICError(ErrTypeMismatch, "mixed types for "+op)
	}
	var cmp int
	if left.IsNumeric {
		switch {
		case left.NumValue < right.NumValue:
			cmp = -1
		case left.NumValue > right.NumValue:
			cmp = 1
		}
	} else {
		switch {
		case left.StrValue < right.StrValue:
			cmp = -1
		case left.StrValue > right.StrValue:
			cmp = 1
		}
	}
	switch op {
	case "=":
		return BoolValue(cmp == 0), nil
	case "<>":
		return BoolValue(cmp != 0), nil
	case "<":
		return BoolValue(cmp < 0), nil
	case "<=":
		return BoolValue(cmp <= 0), nil
	case ">":
		return BoolValue(cmp > 0), nil
	case ">=":
		return BoolValue(cmp >= 0), nil
	}
	return BASICValue{}, NewBASICError(ErrSyntax, "unknown operator "+op)
}

// toInt16 converts a numeric value to the 16-bit integer domain the logical
// operators work in.
func toInt16(v BASICValue) (int16, error) {
	if !v.IsNumeric {
		return 0, NewBASICError(ErrTypeMismatch, "string operand for logical operator")
	}
	n := math.Round(v.NumValue)
	if n < -32768 || n > 32767 {
		return 0, NewBASICError(ErrIllegalQuantity, "logical operand out of range")
	}
	return int16(n), nil
}
