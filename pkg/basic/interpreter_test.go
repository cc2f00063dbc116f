package basic

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/antibyte/basic64/pkg/shared"
)

// fakeFS is an in-memory FileSystem for SAVE/LOAD/FILES tests.
type fakeFS struct {
	files map[string]string
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: map[string]string{}}
}

func (f *fakeFS) ReadFile(sessionID, name string) (string, error) {
	content, ok := f.files[name]
	if !ok {
		return "", fmt.Errorf("file not found: %s", name)
	}
	return content, nil
}

func (f *fakeFS) WriteFile(sessionID, name, content string) error {
	f.files[name] = content
	return nil
}

func (f *fakeFS) ListFiles(sessionID string) ([]string, error) {
	var names []string
	for name := range f.files {
		names = append(names, name)
	}
	return names, nil
}

type fakeFetcher struct {
	programs map[string]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, location string) (string, error) {
	text, ok := f.programs[location]
	if !ok {
		return "", fmt.Errorf("fetch %s: not found", location)
	}
	return text, nil
}

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	in := NewInterpreter("test-session", newFakeFS(), nil)
	t.Cleanup(in.Shutdown)
	return in
}

// runLine submits one terminal line and returns every text message emitted
// before the interpreter settles, with NoNewline fragments merged into the
// following message.
func runLine(t *testing.T, in *Interpreter, line string) []string {
	t.Helper()
	msgs := runLineMessages(t, in, line)
	return textLines(msgs)
}

func runLineMessages(t *testing.T, in *Interpreter, line string) []shared.Message {
	t.Helper()
	done := make(chan struct{})
	go func() {
		in.Execute(line)
		in.Wait()
		close(done)
	}()
	var msgs []shared.Message
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-in.OutputChan:
			msgs = append(msgs, msg)
		case <-done:
			for {
				select {
				case msg := <-in.OutputChan:
					msgs = append(msgs, msg)
				default:
					return msgs
				}
			}
		case <-deadline:
			t.Fatalf("interpreter did not settle for %q", line)
		}
	}
}

func textLines(msgs []shared.Message) []string {
	var lines []string
	pending := ""
	for _, msg := range msgs {
		if msg.Type != shared.MessageTypeText {
			continue
		}
		if msg.NoNewline {
			pending += msg.Content
			continue
		}
		lines = append(lines, pending+msg.Content)
		pending = ""
	}
	if pending != "" {
		lines = append(lines, pending)
	}
	return lines
}

// enter stores program lines without draining output.
func enter(t *testing.T, in *Interpreter, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if err := in.Execute(line); err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
	}
}

func TestPrintExpression(t *testing.T) {
	in := newTestInterpreter(t)
	got := runLine(t, in, "PRINT 2+3*4")
	want := []string{" 14 ", "READY."}
	assertLines(t, got, want)
}

func TestPowerRightAssociative(t *testing.T) {
	in := newTestInterpreter(t)
	got := runLine(t, in, "PRINT 2^3^2")
	assertLines(t, got, []string{" 512 ", "READY."})
}

func TestHelloWorldRunTwice(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 PRINT "Hello World"`,
		`20 END`,
	)
	for i := 0; i < 2; i++ {
		got := runLine(t, in, "RUN")
		assertLines(t, got, []string{"Hello World", "READY."})
	}
}

func TestForLoop(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 FOR I=1 TO 3`,
		`20 PRINT I`,
		`30 NEXT I`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 1 ", " 2 ", " 3 ", "READY."})
}

func TestForZeroTrip(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 FOR I=5 TO 1`,
		`20 PRINT "BODY"`,
		`30 NEXT I`,
		`40 PRINT "DONE"`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"DONE", "READY."})
}

func TestForStepDown(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 FOR I=3 TO 1 STEP -1`,
		`20 PRINT I;`,
		`30 NEXT`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 3  2  1 ", "READY."})
}

func TestNestedGosubReturnsInOrder(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 GOSUB 100`,
		`20 PRINT "BACK"`,
		`30 END`,
		`100 PRINT "ONE"`,
		`110 GOSUB 200`,
		`120 PRINT "ONE AGAIN"`,
		`130 RETURN`,
		`200 PRINT "TWO"`,
		`210 RETURN`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"ONE", "TWO", "ONE AGAIN", "BACK", "READY."})
}

func TestGosubDepthLimit(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 GOSUB 10`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"OUT OF MEMORY IN 10", "READY."})
}

func TestReturnWithoutGosub(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 RETURN`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"RETURN WITHOUT GOSUB IN 10", "READY."})
}

func TestIfThenElse(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 A=2`,
		`20 IF A=1 THEN PRINT "ONE" ELSE PRINT "OTHER"`,
		`30 IF A=2 THEN PRINT "TWO": PRINT "STILL TWO"`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"OTHER", "TWO", "STILL TWO", "READY."})
}

func TestIfThenLineNumber(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 IF 1 THEN 40`,
		`20 PRINT "SKIPPED"`,
		`30 END`,
		`40 PRINT "TAKEN"`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"TAKEN", "READY."})
}

func TestGosubInsideThenResumesSameLine(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 IF 1 THEN GOSUB 100: PRINT "AFTER"`,
		`20 END`,
		`100 PRINT "SUB"`,
		`110 RETURN`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"SUB", "AFTER", "READY."})
}

func TestOnGoto(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 FOR I=0 TO 3`,
		`20 ON I GOTO 50,60`,
		`30 PRINT "FALL";I`,
		`40 GOTO 70`,
		`50 PRINT "ONE": GOTO 70`,
		`60 PRINT "TWO": GOTO 70`,
		`70 NEXT I`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"FALL 0 ", "ONE", "TWO", "FALL 3 ", "READY."})
}

func TestReadDataRestore(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 DATA 1,2,"THREE"`,
		`20 READ A,B,C$`,
		`30 PRINT A+B;C$`,
		`40 RESTORE`,
		`50 READ X`,
		`60 PRINT X`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 3 THREE", " 1 ", "READY."})
}

func TestRestoreToLine(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 DATA 1`,
		`20 DATA 2`,
		`30 READ A,B`,
		`40 RESTORE 20`,
		`50 READ C`,
		`60 PRINT A;B;C`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 1  2  2 ", "READY."})
}

func TestRestoreToLineWithoutData(t *testing.T) {
	// The cursor lands on the first DATA at or after the target line; with
	// none remaining the next READ runs dry.
	in := newTestInterpreter(t)
	enter(t, in,
		`10 DATA 7`,
		`20 READ A`,
		`30 RESTORE 20`,
		`40 READ B`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"OUT OF DATA IN 40", "READY."})

	got = runLine(t, in, "RESTORE 99")
	assertLines(t, got, []string{"UNDEFINED LINE", "READY."})
}

func TestOutOfData(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 DATA 1`,
		`20 READ A,B`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"OUT OF DATA IN 20", "READY."})
}

func TestExecuteRejectsBeforeReadyTransition(t *testing.T) {
	// A finished run passes through ERROR or HALTED while it flushes its
	// report; a line accepted in that window would start a second run loop
	// over the same execution state.
	in := newTestInterpreter(t)
	for _, s := range []State{StateRunning, StateError, StateHalted} {
		in.mu.Lock()
		in.state = s
		in.mu.Unlock()
		if err := in.Execute("PRINT 1"); err == nil {
			t.Errorf("Execute accepted in state %d", s)
		}
	}
	in.mu.Lock()
	in.state = StateReady
	in.mu.Unlock()
	if err := in.Execute("10 PRINT 1"); err != nil {
		t.Errorf("Execute rejected at the prompt: %v", err)
	}
}

func TestDivisionByZeroReportsLine(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 PRINT 1/0`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"DIVISION BY ZERO IN 10:11", "READY."})
}

func TestUndefinedLineTarget(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 GOTO 999`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"UNDEFINED LINE IN 10", "READY."})
}

func TestSyntaxErrorAtEntry(t *testing.T) {
	in := newTestInterpreter(t)
	got := runLine(t, in, "PRINT +")
	if len(got) == 0 || !strings.HasPrefix(got[0], "SYNTAX ERROR") {
		t.Fatalf("want leading SYNTAX ERROR, got %q", got)
	}
}

func TestStatefulErrorPreservesVariables(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 A=42`,
		`20 GOTO 999`,
	)
	runLine(t, in, "RUN")
	got := runLine(t, in, "PRINT A")
	assertLines(t, got, []string{" 42 ", "READY."})
}

func TestBreakMidRun(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 GOTO 10`)
	done := make(chan []string)
	go func() {
		done <- runLine(t, in, "RUN")
	}()
	time.Sleep(50 * time.Millisecond)
	in.RequestBreak()
	select {
	case got := <-done:
		assertLines(t, got, []string{"BREAK IN 10", "READY."})
	case <-time.After(5 * time.Second):
		t.Fatal("break did not interrupt the run")
	}
	if in.State() != StateReady {
		t.Fatalf("state after break = %v, want StateReady", in.State())
	}
}

func TestStopReportsBreak(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 PRINT "BEFORE"`,
		`20 STOP`,
		`30 PRINT "NEVER"`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"BEFORE", "BREAK IN 20", "READY."})
}

func TestInputAssignsFields(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 INPUT "VALUES"; A, B$`,
		`20 PRINT A;B$`,
	)
	done := make(chan struct{})
	var msgs []shared.Message
	go func() {
		in.Execute("RUN")
		in.Wait()
		close(done)
	}()
	fed := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg := <-in.OutputChan:
			msgs = append(msgs, msg)
			if !fed && in.AwaitingInput() {
				in.ProvideInput("7, HELLO")
				fed = true
			}
		case <-done:
			for {
				select {
				case msg := <-in.OutputChan:
					msgs = append(msgs, msg)
				default:
					goto check
				}
			}
		case <-deadline:
			t.Fatal("INPUT never completed")
		}
	}
check:
	lines := textLines(msgs)
	want := " 7 HELLO"
	found := false
	for _, line := range lines {
		if line == want {
			found = true
		}
	}
	if !found {
		t.Fatalf("output %q does not contain %q", lines, want)
	}
}

func TestProgramEditAndList(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`30 PRINT "C"`,
		`10 PRINT "A"`,
		`20 PRINT "B"`,
		`20 PRINT "B2"`, // replaces line 20
		`30`,            // deletes line 30
	)
	got := runLine(t, in, "LIST")
	assertLines(t, got, []string{`10 PRINT "A"`, `20 PRINT "B2"`, "READY."})
}

func TestNewClearsProgramAndVariables(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 A=1`)
	runLine(t, in, "RUN")
	runLine(t, in, "NEW")
	got := runLine(t, in, "LIST")
	assertLines(t, got, []string{"READY."})
	got = runLine(t, in, "PRINT A")
	assertLines(t, got, []string{" 0 ", "READY."})
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := newFakeFS()
	in := NewInterpreter("s", fs, nil)
	defer in.Shutdown()
	enter(t, in,
		`10 PRINT "SAVED"`,
		`20 END`,
	)
	got := runLine(t, in, `SAVE "DEMO"`)
	assertLines(t, got, []string{"READY."})
	if _, ok := fs.files["DEMO"]; !ok {
		t.Fatalf("SAVE did not write DEMO: %v", fs.files)
	}

	other := NewInterpreter("s", fs, nil)
	defer other.Shutdown()
	runLine(t, other, `LOAD "DEMO"`)
	lines := runLine(t, other, "RUN")
	assertLines(t, lines, []string{"SAVED", "READY."})
}

func TestLoadRejectsUnnumberedLines(t *testing.T) {
	fs := newFakeFS()
	fs.files["BAD"] = "10 PRINT 1\nPRINT 2\n"
	in := NewInterpreter("s", fs, nil)
	defer in.Shutdown()
	enter(t, in, `10 PRINT "KEEP"`)
	got := runLine(t, in, `LOAD "BAD"`)
	assertLines(t, got, []string{"SYNTAX ERROR", "READY."})
	// The stored program survives a failed load.
	got = runLine(t, in, "RUN")
	assertLines(t, got, []string{"KEEP", "READY."})
}

func TestLoadFromFetcher(t *testing.T) {
	fetcher := &fakeFetcher{programs: map[string]string{
		"http://example.test/hi.bas": "10 PRINT \"NET\"\n",
	}}
	in := NewInterpreter("s", newFakeFS(), fetcher)
	defer in.Shutdown()
	runLine(t, in, `LOAD "http://example.test/hi.bas"`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"NET", "READY."})
}

func TestPrintZonesAndSeparators(t *testing.T) {
	in := newTestInterpreter(t)
	got := runLine(t, in, `PRINT "A","B"`)
	assertLines(t, got, []string{"A             B", "READY."})
}

func TestTrailingSemicolonJoinsLines(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 PRINT "AB";`,
		`20 PRINT "CD"`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"ABCD", "READY."})
}

func TestTabPositions(t *testing.T) {
	in := newTestInterpreter(t)
	got := runLine(t, in, `PRINT TAB(5);"X"`)
	assertLines(t, got, []string{"    X", "READY."})
}

func TestArraysImplicitAndDim(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 A(3)=7`,
		`20 DIM B(2,2)`,
		`30 B(2,2)=A(3)+1`,
		`40 PRINT A(3);B(2,2)`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 7  8 ", "READY."})
}

func TestArraySubscriptOutOfRange(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 A(11)=1`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"ILLEGAL QUANTITY IN 10:4", "READY."})
}

func TestStringVariablesAndConcat(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 A$="FOO"`,
		`20 B$=A$+"BAR"`,
		`30 PRINT B$`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"FOOBAR", "READY."})
}

func TestTypeMismatch(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in, `10 A="TEXT"`)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{"TYPE MISMATCH IN 10:4", "READY."})
}

func TestCrunchedSourceRuns(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 FORI=1TO3:PRINTI;:NEXT`,
	)
	got := runLine(t, in, "RUN")
	assertLines(t, got, []string{" 1  2  3 ", "READY."})
}

func TestRunFromLine(t *testing.T) {
	in := newTestInterpreter(t)
	enter(t, in,
		`10 PRINT "FIRST"`,
		`20 PRINT "SECOND"`,
	)
	got := runLine(t, in, "RUN 20")
	assertLines(t, got, []string{"SECOND", "READY."})
}

func assertLines(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %q, want %q (all: %q)", i, got[i], want[i], got)
		}
	}
}
