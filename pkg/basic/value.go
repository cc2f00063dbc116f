package basic

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BASICValue is a runtime value: a number or a string, copied by value on
// assignment. Numbers are float64 internally but surface with the classic
// single-precision texture (7 significant digits, overflow at ~1.7e38).
type BASICValue struct {
	NumValue  float64
	StrValue  string
	IsNumeric bool
}

// maxMagnitude is the largest representable magnitude of the emulated
// numeric format; exceeding it is an overflow.
const maxMagnitude = 1.7014118e38

// NumberValue wraps a float64.
func NumberValue(n float64) BASICValue {
	return BASICValue{NumValue: n, IsNumeric: true}
}

// StringValue wraps a string.
func StringValue(s string) BASICValue {
	return BASICValue{StrValue: s}
}

// BoolValue returns the dialect's truth values: -1 for true, 0 for false.
func BoolValue(b bool) BASICValue {
	if b {
		return NumberValue(-1)
	}
	return NumberValue(0)
}

// IsTrue reports the truthiness rule: non-zero numeric.
func (v BASICValue) IsTrue() bool {
	return v.IsNumeric && v.NumValue != 0
}

// checkRange validates a computed number against the emulated format.
func checkRange(n float64) (BASICValue, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > maxMagnitude {
		return BASICValue{}, NewBASICError(ErrIllegalQuantity, "numeric overflow")
	}
	return NumberValue(n), nil
}

// Format renders the value the way PRINT does: strings verbatim, numbers
// with a leading space (or minus sign), integral values without a decimal
// point and at most 7 significant digits otherwise.
func (v BASICValue) Format() string {
	if !v.IsNumeric {
		return v.StrValue
	}
	return fmt.Sprintf("%s%s", numberSign(v.NumValue), formatMagnitude(math.Abs(v.NumValue)))
}

func numberSign(n float64) string {
	if n < 0 {
		return "-"
	}
	return " "
}

func formatMagnitude(n float64) string {
	if n == math.Trunc(n) && n < 1e9 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	s := strconv.FormatFloat(n, 'G', 7, 64)
	// Go prints G-format exponents as E+06; the classic surface is E+6.
	if i := strings.IndexByte(s, 'E'); i >= 0 {
		mant, exp := s[:i], s[i+1:]
		exp = strings.Replace(exp, "+0", "+", 1)
		exp = strings.Replace(exp, "-0", "-", 1)
		s = mant + "E" + exp
	}
	return s
}

// parseNumber converts the text of a numeric literal or an INPUT/READ field.
func parseNumber(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// zeroValueFor returns the default value of an undeclared variable: empty
// string for $-sigiled names, zero otherwise.
func zeroValueFor(name string) BASICValue {
	if strings.HasSuffix(name, "$") {
		return StringValue("")
	}
	return NumberValue(0)
}

// isStringName reports whether a variable name carries the string sigil.
func isStringName(name string) bool {
	return strings.HasSuffix(name, "$")
}
