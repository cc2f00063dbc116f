package basic

import "testing"

func TestTokenizeStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "assignment",
			input: `A$="HI"`,
			want: []Token{
				{Type: TokenIdentifier, Text: "A$", Column: 1},
				{Type: TokenOperator, Text: "=", Column: 3},
				{Type: TokenString, Text: "HI", Column: 4},
			},
		},
		{
			name:  "crunched for loop header",
			input: "FORI=1TO30",
			want: []Token{
				{Type: TokenKeyword, Text: "FOR", Column: 1},
				{Type: TokenIdentifier, Text: "I", Column: 4},
				{Type: TokenOperator, Text: "=", Column: 5},
				{Type: TokenNumber, Text: "1", Column: 6},
				{Type: TokenOperator, Text: "TO", Column: 7},
				{Type: TokenNumber, Text: "30", Column: 9},
			},
		},
		{
			name:  "crunched if",
			input: "IFA=1THEN2",
			want: []Token{
				{Type: TokenKeyword, Text: "IF", Column: 1},
				{Type: TokenIdentifier, Text: "A", Column: 3},
				{Type: TokenOperator, Text: "=", Column: 4},
				{Type: TokenNumber, Text: "1", Column: 5},
				{Type: TokenKeyword, Text: "THEN", Column: 6},
				{Type: TokenNumber, Text: "2", Column: 10},
			},
		},
		{
			name:  "relational operators greedy",
			input: "A<=B<>C>=D",
			want: []Token{
				{Type: TokenIdentifier, Text: "A", Column: 1},
				{Type: TokenOperator, Text: "<=", Column: 2},
				{Type: TokenIdentifier, Text: "B", Column: 4},
				{Type: TokenOperator, Text: "<>", Column: 5},
				{Type: TokenIdentifier, Text: "C", Column: 7},
				{Type: TokenOperator, Text: ">=", Column: 8},
				{Type: TokenIdentifier, Text: "D", Column: 10},
			},
		},
		{
			name:  "print shorthand",
			input: `?"X"`,
			want: []Token{
				{Type: TokenKeyword, Text: "PRINT", Column: 1},
				{Type: TokenString, Text: "X", Column: 2},
			},
		},
		{
			name:  "lowercase keywords uppercased",
			input: "print a$",
			want: []Token{
				{Type: TokenKeyword, Text: "PRINT", Column: 1},
				{Type: TokenIdentifier, Text: "A$", Column: 7},
			},
		},
		{
			name:  "exponent literal",
			input: "1.5E-3",
			want: []Token{
				{Type: TokenNumber, Text: "1.5E-3", Column: 1},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.input)
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tc.input, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("Tokenize(%q) = %+v, want %+v", tc.input, got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestTokenizeRemSwallowsRest(t *testing.T) {
	got, err := Tokenize(`REM anything: "goes" here`)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[0].IsKeyword("REM") {
		t.Fatalf("got %+v", got)
	}
	if got[1].Text != ` anything: "goes" here` {
		t.Errorf("REM text = %q", got[1].Text)
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		col   int
	}{
		{`PRINT "open`, 12},
		{"1.2.3", 4},
		{"1E+", 2},
	}
	for _, tc := range tests {
		_, err := Tokenize(tc.input)
		if err == nil {
			t.Errorf("Tokenize(%q): expected error", tc.input)
			continue
		}
		if err.Kind != ErrSyntax {
			t.Errorf("Tokenize(%q): kind = %v, want ErrSyntax", tc.input, err.Kind)
		}
		if err.Column != tc.col {
			t.Errorf("Tokenize(%q): column = %d, want %d", tc.input, err.Column, tc.col)
		}
	}
}
