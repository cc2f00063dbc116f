package basic

import "testing"

func TestParseLineNumbers(t *testing.T) {
	line, err := ParseLine(`10 PRINT "HI"`)
	if err != nil {
		t.Fatal(err)
	}
	if line.Number != 10 {
		t.Errorf("Number = %d, want 10", line.Number)
	}
	if line.Source != `PRINT "HI"` {
		t.Errorf("Source = %q", line.Source)
	}
	if len(line.Statements) != 1 {
		t.Fatalf("Statements = %+v", line.Statements)
	}
	if _, ok := line.Statements[0].(PrintStmt); !ok {
		t.Errorf("statement = %T, want PrintStmt", line.Statements[0])
	}
}

func TestParseBareNumberDeletesLine(t *testing.T) {
	line, err := ParseLine("20")
	if err != nil {
		t.Fatal(err)
	}
	if line.Number != 20 || line.Statements != nil {
		t.Errorf("line = %+v, want number 20 with nil statements", line)
	}
}

func TestParseLineNumberRange(t *testing.T) {
	for _, input := range []string{"0 PRINT 1", "65530 PRINT 1"} {
		if _, err := ParseLine(input); err == nil {
			t.Errorf("ParseLine(%q): expected a line number error", input)
		}
	}
	if _, err := ParseLine("65529 PRINT 1"); err != nil {
		t.Errorf("ParseLine(65529 ...): %v", err)
	}
}

func TestParseImplicitLet(t *testing.T) {
	line, err := ParseLine("A=1+2")
	if err != nil {
		t.Fatal(err)
	}
	let, ok := line.Statements[0].(LetStmt)
	if !ok {
		t.Fatalf("statement = %T, want LetStmt", line.Statements[0])
	}
	if let.Target.Name != "A" {
		t.Errorf("target = %q", let.Target.Name)
	}
}

func TestParseColonSeparatedStatements(t *testing.T) {
	line, err := ParseLine(`10 A=1: PRINT A: REM done`)
	if err != nil {
		t.Fatal(err)
	}
	if len(line.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(line.Statements))
	}
}

func TestParseIfLowering(t *testing.T) {
	line, err := ParseLine(`10 IF A=1 THEN PRINT "Y": PRINT "Z" ELSE PRINT "N"`)
	if err != nil {
		t.Fatal(err)
	}
	// ifSkip, two THEN prints, bridge jump, ELSE print
	if len(line.Statements) != 5 {
		t.Fatalf("lowered to %d statements, want 5: %+v", len(line.Statements), line.Statements)
	}
	skip, ok := line.Statements[0].(*ifSkipStmt)
	if !ok {
		t.Fatalf("statement 0 = %T, want *ifSkipStmt", line.Statements[0])
	}
	if skip.Target != 4 {
		t.Errorf("false branch target = %d, want 4", skip.Target)
	}
	bridge, ok := line.Statements[3].(*skipJumpStmt)
	if !ok {
		t.Fatalf("statement 3 = %T, want *skipJumpStmt", line.Statements[3])
	}
	if bridge.Target != 5 {
		t.Errorf("bridge target = %d, want 5", bridge.Target)
	}
}

func TestParseIfThenLineShorthand(t *testing.T) {
	line, err := ParseLine("IF A THEN 100")
	if err != nil {
		t.Fatal(err)
	}
	if len(line.Statements) != 2 {
		t.Fatalf("lowered to %d statements: %+v", len(line.Statements), line.Statements)
	}
	gt, ok := line.Statements[1].(GotoStmt)
	if !ok || gt.Target != 100 {
		t.Errorf("statement 1 = %+v, want GotoStmt{100}", line.Statements[1])
	}
}

func TestParseGoSpacedSpellings(t *testing.T) {
	line, err := ParseLine("GO TO 10")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := line.Statements[0].(GotoStmt); !ok {
		t.Errorf("GO TO parsed as %T", line.Statements[0])
	}
	line, err = ParseLine("GO SUB 10")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := line.Statements[0].(GosubStmt); !ok {
		t.Errorf("GO SUB parsed as %T", line.Statements[0])
	}
}

func TestParseForWithStep(t *testing.T) {
	line, err := ParseLine("FOR I=1 TO 10 STEP 2")
	if err != nil {
		t.Fatal(err)
	}
	f, ok := line.Statements[0].(ForStmt)
	if !ok {
		t.Fatalf("statement = %T", line.Statements[0])
	}
	if f.Var != "I" || f.Step == nil {
		t.Errorf("ForStmt = %+v", f)
	}
}

func TestParseDataValues(t *testing.T) {
	line, err := ParseLine(`DATA 1, -2.5, "quoted", bare words, +3`)
	if err != nil {
		t.Fatal(err)
	}
	d := line.Statements[0].(DataStmt)
	want := []BASICValue{
		NumberValue(1),
		NumberValue(-2.5),
		StringValue("quoted"),
		StringValue("BARE WORDS"),
		NumberValue(3),
	}
	if len(d.Values) != len(want) {
		t.Fatalf("DATA values = %+v, want %+v", d.Values, want)
	}
	for i := range want {
		if d.Values[i] != want[i] {
			t.Errorf("value %d = %+v, want %+v", i, d.Values[i], want[i])
		}
	}
}

func TestParseDataTrailingComma(t *testing.T) {
	line, err := ParseLine(`DATA 1,`)
	if err != nil {
		t.Fatal(err)
	}
	d := line.Statements[0].(DataStmt)
	want := []BASICValue{NumberValue(1), StringValue("")}
	if len(d.Values) != len(want) {
		t.Fatalf("DATA values = %+v, want %+v", d.Values, want)
	}
	for i := range want {
		if d.Values[i] != want[i] {
			t.Errorf("value %d = %+v, want %+v", i, d.Values[i], want[i])
		}
	}
}

func TestParseListRanges(t *testing.T) {
	tests := []struct {
		input    string
		from, to int
	}{
		{"LIST", 0, 0},
		{"LIST 100", 100, 100},
		{"LIST 100-200", 100, 200},
		{"LIST 100-", 100, 0},
		{"LIST -200", 0, 200},
		{"LIST 100,200", 100, 200},
	}
	for _, tc := range tests {
		line, err := ParseLine(tc.input)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tc.input, err)
			continue
		}
		l := line.Statements[0].(ListStmt)
		if l.From != tc.from || l.To != tc.to {
			t.Errorf("%q = %+v, want from %d to %d", tc.input, l, tc.from, tc.to)
		}
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []string{
		"FOR I=1",            // missing TO
		"IF A=1 PRINT 2",     // missing THEN
		"GO 10",              // GO without TO or SUB
		"PRINT 1 2",          // missing separator
		"LET 5=A",            // number as target
		"DIM A",              // missing bounds
		"NEXT,",              // dangling comma is a stray statement
		"ON A GOTO",          // missing target list
		"10 20 PRINT 1",      // second number where a statement belongs
		`INPUT "PROMPT" A`,   // missing separator after prompt
	}
	for _, input := range tests {
		if _, err := ParseLine(input); err == nil {
			t.Errorf("ParseLine(%q): expected a syntax error", input)
		}
	}
}
