package basic

func (in *Interpreter) execLet(s LetStmt) (ctrl, error) {
	v, err := in.evalExpr(s.Value)
	if err != nil {
		return ctrlNext, err
	}
	return ctrlNext, in.assignRef(s.Target, v)
}

func (in *Interpreter) execDim(s DimStmt) (ctrl, error) {
	for _, decl := range s.Arrays {
		bounds, err := in.evalIndices(decl.Bounds)
		if err != nil {
			return ctrlNext, AsBASICError(err).AtColumn(decl.Column)
		}
		if err := in.vars.Dim(decl.Name, bounds); err != nil {
			return ctrlNext, AsBASICError(err).AtColumn(decl.Column)
		}
	}
	return ctrlNext, nil
}

// assignRef stores a value into a scalar or array element target.
func (in *Interpreter) assignRef(ref VarRef, val BASICValue) error {
	if !val.IsNumeric && len(val.StrValue) > maxStringLength {
		return NewBASICError(ErrOutOfMemory, "string too long")
	}
	if len(ref.Indices) == 0 {
		if err := in.vars.Set(ref.Name, val); err != nil {
			return AsBASICError(err).AtColumn(ref.Column)
		}
		return nil
	}
	indices, err := in.evalIndices(ref.Indices)
	if err != nil {
		return err
	}
	if err := in.vars.SetElement(ref.Name, indices, val); err != nil {
		return AsBASICError(err).AtColumn(ref.Column)
	}
	return nil
}
