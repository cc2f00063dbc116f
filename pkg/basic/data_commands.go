package basic

import "strconv"

func (in *Interpreter) execRead(s ReadStmt) (ctrl, error) {
	if in.dataDirty {
		in.rebuildData()
	}
	for _, target := range s.Targets {
		if in.dataPtr >= len(in.data) {
			return ctrlNext, NewBASICError(ErrOutOfData, "")
		}
		item := in.data[in.dataPtr]
		in.dataPtr++
		v := item.value
		if !isStringName(target.Name) && !v.IsNumeric {
			n, ok := parseNumber(v.StrValue)
			if !ok {
				return ctrlNext, NewBASICError(ErrTypeMismatch, "non-numeric DATA in line "+strconv.Itoa(item.line))
			}
			v = NumberValue(n)
		}
		if isStringName(target.Name) && v.IsNumeric {
			v = StringValue(v.Format())
		}
		if err := in.assignRef(target, v); err != nil {
			return ctrlNext, err
		}
	}
	return ctrlNext, nil
}

func (in *Interpreter) execRestore(s RestoreStmt) (ctrl, error) {
	if in.dataDirty {
		in.rebuildData()
	}
	if s.Line == 0 {
		in.dataPtr = 0
		return ctrlNext, nil
	}
	if _, ok := in.program.Line(s.Line); !ok {
		return ctrlNext, NewBASICError(ErrUndefinedLine, strconv.Itoa(s.Line))
	}
	// The cursor lands on the first DATA constant at or after the line.
	in.dataPtr = len(in.data)
	for i, item := range in.data {
		if item.line >= s.Line {
			in.dataPtr = i
			break
		}
	}
	return ctrlNext, nil
}
