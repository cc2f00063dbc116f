package basic

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// arity is the allowed argument count range of a built-in function.
type arity struct {
	min, max int
}

// builtinSpec couples a function's arity with its implementation. Arity and
// argument types are validated before the implementation runs.
type builtinSpec struct {
	arity arity
	fn    func(in *Interpreter, args []BASICValue) (BASICValue, error)
}

func isBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func builtinArity(name string) arity {
	return builtins[name].arity
}

// callBuiltin dispatches a validated call. The parser has already checked
// the argument count.
func (in *Interpreter) callBuiltin(name string, args []BASICValue) (BASICValue, error) {
	spec, ok := builtins[name]
	if !ok {
		return BASICValue{}, NewBASICError(ErrSyntax, "unknown function "+name)
	}
	return spec.fn(in, args)
}

var builtins map[string]builtinSpec

func init() {
	builtins = map[string]builtinSpec{
		"ABS":     {arity{1, 1}, fnAbs},
		"ASC":     {arity{1, 1}, fnAsc},
		"ATN":     {arity{1, 1}, numFn(math.Atan)},
		"CHR$":    {arity{1, 1}, fnChr},
		"CINT":    {arity{1, 1}, fnCint},
		"COS":     {arity{1, 1}, numFn(math.Cos)},
		"DATE$":   {arity{0, 0}, fnDate},
		"EXP":     {arity{1, 1}, fnExp},
		"FIX":     {arity{1, 1}, numFn(math.Trunc)},
		"HEX$":    {arity{1, 1}, fnHex},
		"INSTR":   {arity{2, 3}, fnInstr},
		"INT":     {arity{1, 1}, numFn(math.Floor)},
		"LEFT$":   {arity{2, 2}, fnLeft},
		"LEN":     {arity{1, 1}, fnLen},
		"LOG":     {arity{1, 1}, fnLog},
		"MID$":    {arity{2, 3}, fnMid},
		"OCT$":    {arity{1, 1}, fnOct},
		"POS":     {arity{0, 1}, fnPos},
		"RIGHT$":  {arity{2, 2}, fnRight},
		"RND":     {arity{0, 1}, fnRnd},
		"SGN":     {arity{1, 1}, fnSgn},
		"SIN":     {arity{1, 1}, numFn(math.Sin)},
		"SQR":     {arity{1, 1}, fnSqr},
		"STR$":    {arity{1, 1}, fnStr},
		"STRING$": {arity{2, 2}, fnString},
		"TAN":     {arity{1, 1}, numFn(math.Tan)},
		"TIME$":   {arity{0, 0}, fnTime},
		"VAL":     {arity{1, 1}, fnVal},
	}
}

// Argument accessors. Type violations report before any computation runs.

func argNum(args []BASICValue, i int) (float64, error) {
	if !args[i].IsNumeric {
		return 0, NewBASICError(ErrTypeMismatch, fmt.Sprintf("argument %d must be numeric", i+1))
	}
	return args[i].NumValue, nil
}

func argStr(args []BASICValue, i int) (string, error) {
	if args[i].IsNumeric {
		return "", NewBASICError(ErrTypeMismatch, fmt.Sprintf("argument %d must be a string", i+1))
	}
	return args[i].StrValue, nil
}

func argInt(args []BASICValue, i int) (int, error) {
	n, err := argNum(args, i)
	if err != nil {
		return 0, err
	}
	r := math.Round(n)
	if r < -32768 || r > 32767 {
		return 0, NewBASICError(ErrIllegalQuantity, fmt.Sprintf("argument %d out of range", i+1))
	}
	return int(r), nil
}

// numFn adapts a float64 function with no domain restrictions.
func numFn(f func(float64) float64) func(*Interpreter, []BASICValue) (BASICValue, error) {
	return func(_ *Interpreter, args []BASICValue) (BASICValue, error) {
		n, err := argNum(args, 0)
		if err != nil {
			return BASICValue{}, err
		}
		return checkRange(f(n))
	}
}

func fnAbs(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return NumberValue(math.Abs(n)), nil
}

func fnAsc(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	if len(s) == 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "ASC of empty string")
	}
	return NumberValue(float64(s[0])), nil
}

func fnChr(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	code, err := argInt(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	if code < 0 || code > 255 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "CHR$ code out of range")
	}
	// One byte per code so ASC(CHR$(n)) = n across the whole 0-255 range.
	return StringValue(string([]byte{byte(code)})), nil
}

func fnCint(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argInt(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return NumberValue(float64(n)), nil
}

func fnExp(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return checkRange(math.Exp(n))
}

func fnHex(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argInt(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return StringValue(strings.ToUpper(fmt.Sprintf("%x", uint16(int16(n))))), nil
}

func fnOct(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argInt(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return StringValue(fmt.Sprintf("%o", uint16(int16(n)))), nil
}

func fnInstr(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	start := 1
	rest := args
	if len(args) == 3 {
		var err error
		start, err = argInt(args, 0)
		if err != nil {
			return BASICValue{}, err
		}
		if start < 1 {
			return BASICValue{}, NewBASICError(ErrIllegalQuantity, "INSTR start position")
		}
		rest = args[1:]
	}
	haystack, err := argStr(rest, 0)
	if err != nil {
		return BASICValue{}, err
	}
	needle, err := argStr(rest, 1)
	if err != nil {
		return BASICValue{}, err
	}
	if start > len(haystack) {
		return NumberValue(0), nil
	}
	idx := strings.Index(haystack[start-1:], needle)
	if idx < 0 {
		return NumberValue(0), nil
	}
	return NumberValue(float64(start + idx)), nil
}

func fnLeft(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	n, err := argInt(args, 1)
	if err != nil {
		return BASICValue{}, err
	}
	if n < 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "LEFT$ length")
	}
	if n > len(s) {
		n = len(s)
	}
	return StringValue(s[:n]), nil
}

func fnRight(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	n, err := argInt(args, 1)
	if err != nil {
		return BASICValue{}, err
	}
	if n < 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "RIGHT$ length")
	}
	if n > len(s) {
		n = len(s)
	}
	return StringValue(s[len(s)-n:]), nil
}

func fnMid(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	start, err := argInt(args, 1)
	if err != nil {
		return BASICValue{}, err
	}
	if start < 1 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "MID$ start position")
	}
	length := len(s)
	if len(args) == 3 {
		length, err = argInt(args, 2)
		if err != nil {
			return BASICValue{}, err
		}
		if length < 0 {
			return BASICValue{}, NewBASICError(ErrIllegalQuantity, "MID$ length")
		}
	}
	if start > len(s) {
		return StringValue(""), nil
	}
	end := start - 1 + length
	if end > len(s) {
		end = len(s)
	}
	return StringValue(s[start-1 : end]), nil
}

func fnLen(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return NumberValue(float64(len(s))), nil
}

func fnLog(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	if n <= 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "LOG of non-positive value")
	}
	return NumberValue(math.Log(n)), nil
}

func fnSqr(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	if n < 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "SQR of negative value")
	}
	return NumberValue(math.Sqrt(n)), nil
}

func fnSgn(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	switch {
	case n > 0:
		return NumberValue(1), nil
	case n < 0:
		return NumberValue(-1), nil
	}
	return NumberValue(0), nil
}

// fnRnd follows the classic contract: RND and RND(1) return the next random
// number in [0,1), RND(0) repeats the last one, and a negative argument
// reseeds the generator deterministically.
func fnRnd(in *Interpreter, args []BASICValue) (BASICValue, error) {
	mode := 1.0
	if len(args) == 1 {
		var err error
		mode, err = argNum(args, 0)
		if err != nil {
			return BASICValue{}, err
		}
	}
	switch {
	case mode < 0:
		in.reseedRandom(int64(mode))
		fallthrough
	case mode > 0:
		in.lastRandom = in.rng.Float64()
	}
	return NumberValue(in.lastRandom), nil
}

func fnStr(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	n, err := argNum(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	return StringValue(NumberValue(n).Format()), nil
}

func fnString(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	count, err := argInt(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	if count < 0 || count > 255 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "STRING$ count")
	}
	// The second argument is a string (first character repeats) or a
	// character code.
	if args[1].IsNumeric {
		code, err := argInt(args, 1)
		if err != nil {
			return BASICValue{}, err
		}
		if code < 0 || code > 255 {
			return BASICValue{}, NewBASICError(ErrIllegalQuantity, "STRING$ character code")
		}
		return StringValue(strings.Repeat(string([]byte{byte(code)}), count)), nil
	}
	s := args[1].StrValue
	if len(s) == 0 {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "STRING$ of empty string")
	}
	return StringValue(strings.Repeat(s[:1], count)), nil
}

func fnVal(_ *Interpreter, args []BASICValue) (BASICValue, error) {
	s, err := argStr(args, 0)
	if err != nil {
		return BASICValue{}, err
	}
	// VAL parses the longest numeric prefix; a non-numeric string is 0.
	trimmed := strings.TrimSpace(s)
	end := len(trimmed)
	for end > 0 {
		if n, ok := parseNumber(trimmed[:end]); ok {
			return NumberValue(n), nil
		}
		end--
	}
	return NumberValue(0), nil
}

// fnPos reports the current print column. The conventional dummy argument
// is accepted and ignored.
func fnPos(in *Interpreter, _ []BASICValue) (BASICValue, error) {
	return NumberValue(float64(in.printCol)), nil
}

func fnTime(in *Interpreter, _ []BASICValue) (BASICValue, error) {
	return StringValue(in.now().Format("15:04:05")), nil
}

func fnDate(in *Interpreter, _ []BASICValue) (BASICValue, error) {
	return StringValue(in.now().Format("01-02-2006")), nil
}

// clock indirection so tests can pin TIME$ and DATE$.
var timeNow = time.Now

func (in *Interpreter) now() time.Time {
	return timeNow()
}
