package basic

import "fmt"

// ErrorKind is the closed set of failure classes the engine can report.
// Every error surfaced to the command surface carries exactly one kind.
type ErrorKind int

const (
	ErrSyntax ErrorKind = iota
	ErrUndefinedLine
	ErrTypeMismatch
	ErrDivisionByZero
	ErrIllegalQuantity
	ErrOutOfData
	ErrStackOverflow
	ErrReturnWithoutGosub
	ErrNextWithoutFor
	ErrOutOfMemory
	ErrBreak
	ErrIO
)

// errorText is the classic message table. The text is the user-visible
// diagnostic; it never varies per call site.
var errorText = map[ErrorKind]string{
	ErrSyntax:             "SYNTAX ERROR",
	ErrUndefinedLine:      "UNDEFINED LINE",
	ErrTypeMismatch:       "TYPE MISMATCH",
	ErrDivisionByZero:     "DIVISION BY ZERO",
	ErrIllegalQuantity:    "ILLEGAL QUANTITY",
	ErrOutOfData:          "OUT OF DATA",
	ErrStackOverflow:      "OUT OF MEMORY", // stack exhaustion reports as the classic memory error
	ErrReturnWithoutGosub: "RETURN WITHOUT GOSUB",
	ErrNextWithoutFor:     "NEXT WITHOUT FOR",
	ErrOutOfMemory:        "OUT OF MEMORY",
	ErrBreak:              "BREAK",
	ErrIO:                 "I/O ERROR",
}

// BASICError is a structured interpreter error. Line 0 means the error was
// raised in direct (immediate) mode and is reported without a line suffix.
type BASICError struct {
	Kind   ErrorKind
	Detail string // internal context for logs and tests, not shown to the user
	Line   int    // program line active at failure, 0 for direct mode
	Column int    // 1-based source column, 0 if unknown
}

// Error formats the classic diagnostic: "TEXT", "TEXT IN 10" or
// "TEXT IN 10:5" when a column is known.
func (e *BASICError) Error() string {
	text := errorText[e.Kind]
	if text == "" {
		text = "PROGRAM ERROR"
	}
	switch {
	case e.Line <= 0:
		return text
	case e.Column > 0:
		return fmt.Sprintf("%s IN %d:%d", text, e.Line, e.Column)
	default:
		return fmt.Sprintf("%s IN %d", text, e.Line)
	}
}

// NewBASICError creates an error of the given kind with internal detail.
func NewBASICError(kind ErrorKind, detail string) *BASICError {
	return &BASICError{Kind: kind, Detail: detail}
}

// InLine stamps the originating program line, unless already set.
func (e *BASICError) InLine(line int) *BASICError {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

// AtColumn stamps the source column, unless already set.
func (e *BASICError) AtColumn(column int) *BASICError {
	if e.Column == 0 {
		e.Column = column
	}
	return e
}

func syntaxError(column int, detail string) *BASICError {
	return &BASICError{Kind: ErrSyntax, Detail: detail, Column: column}
}

// AsBASICError normalizes any error to a *BASICError. Non-engine failures
// (filesystem, network) are classified as I/O errors so the reporter has a
// single shape to format.
func AsBASICError(err error) *BASICError {
	if err == nil {
		return nil
	}
	if be, ok := err.(*BASICError); ok {
		return be
	}
	return &BASICError{Kind: ErrIO, Detail: err.Error()}
}
