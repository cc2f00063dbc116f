package basic

import "fmt"

// maxArrayElements caps the total element count of a single array, so a DIM
// cannot exhaust host memory.
const maxArrayElements = 65536

// array is a fixed-size array variable. A bound b allows indices 0..b, the
// classic convention; bounds never change after creation.
type array struct {
	bounds []int
	values []BASICValue
}

func newArray(name string, bounds []int) (*array, error) {
	total := 1
	for _, b := range bounds {
		if b < 0 || b > 32767 {
			return nil, NewBASICError(ErrIllegalQuantity, fmt.Sprintf("array bound %d", b))
		}
		total *= b + 1
		if total > maxArrayElements {
			return nil, NewBASICError(ErrOutOfMemory, "array too large")
		}
	}
	values := make([]BASICValue, total)
	zero := zeroValueFor(name)
	for i := range values {
		values[i] = zero
	}
	return &array{bounds: bounds, values: values}, nil
}

// offset maps an index vector to the flat storage offset, validating rank
// and bounds. Out-of-bounds is a runtime error, never a clamp.
func (a *array) offset(indices []int) (int, error) {
	if len(indices) != len(a.bounds) {
		return 0, NewBASICError(ErrIllegalQuantity, "wrong number of subscripts")
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx > a.bounds[i] {
			return 0, NewBASICError(ErrIllegalQuantity, fmt.Sprintf("subscript %d out of range", idx))
		}
		off = off*(a.bounds[i]+1) + idx
	}
	return off, nil
}

// Variables is the runtime variable store: scalars and arrays, keyed by name
// including the type sigil. Scalar and array namespaces are separate, as in
// the classic dialects.
type Variables struct {
	scalars      map[string]BASICValue
	arrays       map[string]*array
	defaultBound int
}

// NewVariables creates an empty store. defaultBound is the per-dimension
// bound an undeclared array receives on first reference.
func NewVariables(defaultBound int) *Variables {
	if defaultBound <= 0 {
		defaultBound = 10
	}
	return &Variables{
		scalars:      make(map[string]BASICValue),
		arrays:       make(map[string]*array),
		defaultBound: defaultBound,
	}
}

// Clear drops every variable and array.
func (v *Variables) Clear() {
	v.scalars = make(map[string]BASICValue)
	v.arrays = make(map[string]*array)
}

// Get reads a scalar. Undeclared scalars default to zero or the empty
// string, depending on the name's sigil.
func (v *Variables) Get(name string) BASICValue {
	if val, ok := v.scalars[name]; ok {
		return val
	}
	return zeroValueFor(name)
}

// Set assigns a scalar, enforcing the sigil/value type rule.
func (v *Variables) Set(name string, val BASICValue) error {
	if err := checkAssignable(name, val); err != nil {
		return err
	}
	v.scalars[name] = val
	return nil
}

// Dim declares an array with explicit bounds. Re-dimensioning an existing
// array is an error; bounds are immutable after first access.
func (v *Variables) Dim(name string, bounds []int) error {
	if _, exists := v.arrays[name]; exists {
		return NewBASICError(ErrIllegalQuantity, "redimensioned array "+name)
	}
	arr, err := newArray(name, bounds)
	if err != nil {
		return err
	}
	v.arrays[name] = arr
	return nil
}

// lookupArray finds an array, creating it with the default bound per
// dimension on first undeclared reference.
func (v *Variables) lookupArray(name string, rank int) (*array, error) {
	if arr, ok := v.arrays[name]; ok {
		return arr, nil
	}
	bounds := make([]int, rank)
	for i := range bounds {
		bounds[i] = v.defaultBound
	}
	arr, err := newArray(name, bounds)
	if err != nil {
		return nil, err
	}
	v.arrays[name] = arr
	return arr, nil
}

// GetElement reads one array element.
func (v *Variables) GetElement(name string, indices []int) (BASICValue, error) {
	arr, err := v.lookupArray(name, len(indices))
	if err != nil {
		return BASICValue{}, err
	}
	off, err := arr.offset(indices)
	if err != nil {
		return BASICValue{}, err
	}
	return arr.values[off], nil
}

// SetElement writes one array element.
func (v *Variables) SetElement(name string, indices []int, val BASICValue) error {
	if err := checkAssignable(name, val); err != nil {
		return err
	}
	arr, err := v.lookupArray(name, len(indices))
	if err != nil {
		return err
	}
	off, err := arr.offset(indices)
	if err != nil {
		return err
	}
	arr.values[off] = val
	return nil
}

func checkAssignable(name string, val BASICValue) error {
	if isStringName(name) != !val.IsNumeric {
		return NewBASICError(ErrTypeMismatch, "assignment to "+name)
	}
	return nil
}
