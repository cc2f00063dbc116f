package basic

import "testing"

func TestFormatNumbers(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, " 0"},
		{1, " 1"},
		{-1, "-1"},
		{14, " 14"},
		{512, " 512"},
		{3.5, " 3.5"},
		{-0.25, "-0.25"},
		{123456789, " 123456789"},
		{0.1, " 0.1"},
	}
	for _, tc := range tests {
		if got := NumberValue(tc.in).Format(); got != tc.want {
			t.Errorf("Format(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatStringsVerbatim(t *testing.T) {
	if got := StringValue("Hello World").Format(); got != "Hello World" {
		t.Errorf("Format = %q", got)
	}
}

func TestBoolValue(t *testing.T) {
	if BoolValue(true).NumValue != -1 {
		t.Error("true must be -1")
	}
	if BoolValue(false).NumValue != 0 {
		t.Error("false must be 0")
	}
}

func TestCheckRangeOverflow(t *testing.T) {
	if _, err := checkRange(1e38); err != nil {
		t.Errorf("1e38 should fit: %v", err)
	}
	if _, err := checkRange(1.8e38); err == nil {
		t.Error("1.8e38 should overflow")
	}
	be, _ := func() (*BASICError, error) {
		_, err := checkRange(2e38)
		return AsBASICError(err), err
	}()
	if be.Kind != ErrIllegalQuantity {
		t.Errorf("overflow kind = %v, want ErrIllegalQuantity", be.Kind)
	}
}

func TestParseNumberFields(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{" -3.5 ", -3.5, true},
		{"1E3", 1000, true},
		{"", 0, false},
		{"HELLO", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("parseNumber(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		err  *BASICError
		want string
	}{
		{NewBASICError(ErrSyntax, ""), "SYNTAX ERROR"},
		{NewBASICError(ErrSyntax, "").InLine(10), "SYNTAX ERROR IN 10"},
		{NewBASICError(ErrTypeMismatch, "").InLine(10).AtColumn(5), "TYPE MISMATCH IN 10:5"},
		{NewBASICError(ErrStackOverflow, "").InLine(7), "OUT OF MEMORY IN 7"},
		{NewBASICError(ErrBreak, "").InLine(30), "BREAK IN 30"},
	}
	for _, tc := range tests {
		if got := tc.err.Error(); got != tc.want {
			t.Errorf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestInLineDoesNotOverwrite(t *testing.T) {
	err := NewBASICError(ErrSyntax, "").InLine(10).InLine(20)
	if err.Line != 10 {
		t.Errorf("Line = %d, want 10", err.Line)
	}
}
