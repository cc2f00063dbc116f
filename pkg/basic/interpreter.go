package basic

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/antibyte/basic64/pkg/configuration"
	"github.com/antibyte/basic64/pkg/logger"
	"github.com/antibyte/basic64/pkg/shared"
)

// State is the interpreter lifecycle state.
type State int

const (
	StateReady   State = iota // at the prompt, accepting edits and commands
	StateRunning              // executing statements
	StateError                // a run ended with a reported error
	StateHalted               // a run ended via END, STOP or program exhaustion
)

// position addresses one statement: the program line number and the
// statement index within that line's flattened statement list. Line 0 is the
// direct-mode statement list.
type position struct {
	line int
	stmt int
}

// forFrame is one active FOR loop. body is the position of the first
// statement after the FOR.
type forFrame struct {
	name  string
	limit float64
	step  float64
	body  position
}

// ctrl tells the run loop what to do after a statement.
type ctrl int

const (
	ctrlNext ctrl = iota // continue with the following statement
	ctrlJump             // in.pos was redirected, continue there
	ctrlHalt             // END, NEW, LOAD or program exhaustion
	ctrlStop             // STOP: report BREAK at the current line
	ctrlBye              // end the session
)

// Interpreter owns one session's program, variables and execution state.
// Output streams on OutputChan; input arrives via ProvideInput. Statements
// execute on a single goroutine per Execute call, so all engine state is
// confined to that goroutine while state transitions are mutex-guarded.
type Interpreter struct {
	mu sync.Mutex

	program *Program
	vars    *Variables

	OutputChan chan shared.Message
	inputChan  chan string
	breakCh    chan struct{}

	sessionID string
	fs        FileSystem
	fetcher   ProgramFetcher

	state       State
	pos         position
	directStmts []Statement
	gosubStack  []position
	forStack    []forFrame

	data      []dataValue
	dataPtr   int
	dataDirty bool

	rng        *rand.Rand
	lastRandom float64

	breakFlag     atomic.Bool
	awaitingInput atomic.Bool

	printCol int

	maxGosubDepth int
	maxForDepth   int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// OnSessionEnd is invoked when a BYE statement executes. Set by the
	// terminal layer before the first Execute call.
	OnSessionEnd func()
}

// NewInterpreter builds a fresh session interpreter. fs and fetcher may be
// nil; SAVE/LOAD/FILES then report an I/O error.
func NewInterpreter(sessionID string, fs FileSystem, fetcher ProgramFetcher) *Interpreter {
	ctx, cancel := context.WithCancel(context.Background())
	in := &Interpreter{
		program:       NewProgram(),
		vars:          NewVariables(configuration.GetInt("Basic", "default_array_bound", 10)),
		OutputChan:    make(chan shared.Message, configuration.GetInt("Basic", "output_buffer", 256)),
		inputChan:     make(chan string, 1),
		breakCh:       make(chan struct{}, 1),
		sessionID:     sessionID,
		fs:            fs,
		fetcher:       fetcher,
		rng:           rand.New(rand.NewSource(1)),
		maxGosubDepth: configuration.GetInt("Basic", "max_gosub_depth", 64),
		maxForDepth:   configuration.GetInt("Basic", "max_for_depth", 32),
		ctx:           ctx,
		cancel:        cancel,
	}
	logger.Debug(logger.AreaBasic, "interpreter created for session %s", sessionID)
	return in
}

// State returns the current lifecycle state.
func (in *Interpreter) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// IsRunning reports whether statements are currently executing.
func (in *Interpreter) IsRunning() bool {
	return in.State() == StateRunning
}

// AwaitingInput reports whether execution is blocked inside INPUT. The
// terminal routes incoming lines to ProvideInput while this holds.
func (in *Interpreter) AwaitingInput() bool {
	return in.awaitingInput.Load()
}

// ProvideInput hands one terminal line to a blocked INPUT statement.
func (in *Interpreter) ProvideInput(line string) {
	select {
	case in.inputChan <- line:
	case <-in.ctx.Done():
	}
}

// RequestBreak interrupts the current run at the next statement boundary, or
// immediately when execution is blocked inside INPUT.
func (in *Interpreter) RequestBreak() {
	in.breakFlag.Store(true)
	select {
	case in.breakCh <- struct{}{}:
	default:
	}
}

// Shutdown cancels any running program and waits for the run goroutine.
func (in *Interpreter) Shutdown() {
	in.cancel()
	in.wg.Wait()
	logger.Debug(logger.AreaBasic, "interpreter shut down for session %s", in.sessionID)
}

// Wait blocks until the current Execute call has fully finished. Intended
// for tests and the terminal's session teardown.
func (in *Interpreter) Wait() {
	in.wg.Wait()
}

// Execute processes one terminal line. A numbered line is a program edit: it
// replaces, inserts or (when empty) deletes that line and returns at once.
// Anything else is a direct-mode statement list executed asynchronously; its
// output, errors and the closing READY prompt stream on OutputChan.
func (in *Interpreter) Execute(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	// ERROR and HALTED also reject: the run goroutine is still flushing its
	// report and has the READY transition pending.
	in.mu.Lock()
	if in.state != StateReady {
		in.mu.Unlock()
		return NewBASICError(ErrIO, "interpreter busy")
	}
	in.mu.Unlock()

	line, perr := ParseLine(input)
	if perr != nil {
		if line != nil && line.Number > 0 {
			perr = perr.InLine(line.Number)
		}
		in.reportError(perr)
		in.emitReady()
		return perr
	}
	if line.Number > 0 {
		if len(line.Statements) == 0 {
			in.program.Delete(line.Number)
		} else {
			in.program.Store(line)
		}
		in.dataDirty = true
		return nil
	}
	if len(line.Statements) == 0 {
		return nil
	}
	in.start(line.Statements)
	return nil
}

func (in *Interpreter) start(stmts []Statement) {
	in.mu.Lock()
	in.state = StateRunning
	in.directStmts = stmts
	in.pos = position{line: 0, stmt: 0}
	in.mu.Unlock()
	in.breakFlag.Store(false)
	select {
	case <-in.breakCh:
	default:
	}
	in.wg.Add(1)
	go in.runLoop()
}

// runLoop drives the statement machine until the statement stream ends, a
// statement halts it, an error is raised or a break is requested. The break
// flag is polled once per statement boundary.
func (in *Interpreter) runLoop() {
	defer in.wg.Done()
	var runErr *BASICError
	bye := false

loop:
	for {
		if in.ctx.Err() != nil {
			in.setState(StateReady)
			return
		}
		if in.breakFlag.Load() {
			in.breakFlag.Store(false)
			runErr = NewBASICError(ErrBreak, "").InLine(in.pos.line)
			break
		}
		stmt, ok := in.statementAt(in.pos)
		if !ok {
			break
		}
		c, err := in.execStatement(stmt)
		if err != nil {
			runErr = AsBASICError(err).InLine(in.pos.line)
			break
		}
		switch c {
		case ctrlNext:
			in.pos.stmt++
		case ctrlJump:
			// in.pos already redirected
		case ctrlHalt:
			break loop
		case ctrlStop:
			runErr = NewBASICError(ErrBreak, "").InLine(in.pos.line)
			break loop
		case ctrlBye:
			bye = true
			break loop
		}
	}

	switch {
	case runErr == nil:
		in.setState(StateHalted)
	case runErr.Kind == ErrBreak:
		in.setState(StateHalted)
		in.reportError(runErr)
	default:
		in.setState(StateError)
		in.reportError(runErr)
		logger.Debug(logger.AreaBasic, "session %s: run error: %v", in.sessionID, runErr)
	}
	if bye {
		in.setState(StateHalted)
		if in.OnSessionEnd != nil {
			in.OnSessionEnd()
		}
		return
	}
	in.emitReady()
	in.setState(StateReady)
}

func (in *Interpreter) setState(s State) {
	in.mu.Lock()
	in.state = s
	in.mu.Unlock()
}

// statementAt normalizes pos to the next executable statement, walking past
// exhausted lines, and records the normalized position in in.pos. It reports
// false when the statement stream has ended.
func (in *Interpreter) statementAt(pos position) (Statement, bool) {
	for {
		list := in.lineStatements(pos.line)
		if pos.stmt < len(list) {
			in.pos = pos
			return list[pos.stmt], true
		}
		if pos.line == 0 {
			return nil, false
		}
		next, ok := in.program.NextLine(pos.line)
		if !ok {
			return nil, false
		}
		pos = position{line: next, stmt: 0}
	}
}

// peekStatement is the read-only variant used by forward scans; it never
// touches in.pos.
func (in *Interpreter) peekStatement(pos position) (Statement, position, bool) {
	for {
		list := in.lineStatements(pos.line)
		if pos.stmt < len(list) {
			return list[pos.stmt], pos, true
		}
		if pos.line == 0 {
			return nil, position{}, false
		}
		next, ok := in.program.NextLine(pos.line)
		if !ok {
			return nil, position{}, false
		}
		pos = position{line: next, stmt: 0}
	}
}

func (in *Interpreter) lineStatements(line int) []Statement {
	if line == 0 {
		return in.directStmts
	}
	pl, ok := in.program.Line(line)
	if !ok {
		return nil
	}
	return pl.Statements
}

func (in *Interpreter) execStatement(stmt Statement) (ctrl, error) {
	switch s := stmt.(type) {
	case *ifSkipStmt:
		v, err := in.evalExpr(s.Cond)
		if err != nil {
			return ctrlNext, err
		}
		if !v.IsNumeric {
			return ctrlNext, NewBASICError(ErrTypeMismatch, "string condition")
		}
		if !v.IsTrue() {
			in.pos.stmt = s.Target
			return ctrlJump, nil
		}
		return ctrlNext, nil
	case *skipJumpStmt:
		in.pos.stmt = s.Target
		return ctrlJump, nil
	case LetStmt:
		return in.execLet(s)
	case PrintStmt:
		return in.execPrint(s)
	case InputStmt:
		return in.execInput(s)
	case ForStmt:
		return in.execFor(s)
	case NextStmt:
		return in.execNext(s)
	case GotoStmt:
		return in.execGoto(s)
	case GosubStmt:
		return in.execGosub(s)
	case ReturnStmt:
		return in.execReturn()
	case OnStmt:
		return in.execOn(s)
	case DimStmt:
		return in.execDim(s)
	case DataStmt, RemStmt:
		return ctrlNext, nil
	case ReadStmt:
		return in.execRead(s)
	case RestoreStmt:
		return in.execRestore(s)
	case EndStmt:
		return ctrlHalt, nil
	case StopStmt:
		return ctrlStop, nil
	case RandomizeStmt:
		return in.execRandomize(s)
	case ClsStmt:
		return in.execCls()
	case RunStmt:
		return in.execRun(s)
	case ListStmt:
		return in.execList(s)
	case NewStmt:
		return in.execNew()
	case ClearStmt:
		return in.execClear()
	case LoadStmt:
		return in.execLoad(s)
	case SaveStmt:
		return in.execSave(s)
	case FilesStmt:
		return in.execFiles()
	case ByeStmt:
		return ctrlBye, nil
	}
	return ctrlNext, NewBASICError(ErrSyntax, "unexecutable statement")
}

// resetContext discards all control state carried between statements: the
// GOSUB and FOR stacks, the DATA cursor and the print column.
func (in *Interpreter) resetContext() {
	in.gosubStack = in.gosubStack[:0]
	in.forStack = in.forStack[:0]
	in.rebuildData()
	in.printCol = 0
}

func (in *Interpreter) rebuildData() {
	in.data = in.program.dataValues()
	in.dataPtr = 0
	in.dataDirty = false
}

func (in *Interpreter) reseedRandom(seed int64) {
	in.rng = rand.New(rand.NewSource(seed))
}

// emit sends one message to the terminal, honoring shutdown.
func (in *Interpreter) emit(msg shared.Message) {
	select {
	case in.OutputChan <- msg:
	case <-in.ctx.Done():
	}
}

func (in *Interpreter) emitText(text string) {
	in.emit(shared.TextMessage(text))
}

func (in *Interpreter) reportError(e *BASICError) {
	if in.printCol != 0 {
		in.emitText("")
		in.printCol = 0
	}
	in.emitText(e.Error())
}

func (in *Interpreter) emitReady() {
	if in.printCol != 0 {
		in.emitText("")
		in.printCol = 0
	}
	in.emitText("READY.")
	enabled := true
	in.emit(shared.Message{Type: shared.MessageTypeInputControl, InputEnabled: &enabled})
}
