package basic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antibyte/basic64/pkg/logger"
)

func (in *Interpreter) execRun(s RunStmt) (ctrl, error) {
	in.vars.Clear()
	in.resetContext()
	start := s.Line
	if start == 0 {
		lowest, ok := in.program.LowestLine()
		if !ok {
			return ctrlHalt, nil
		}
		start = lowest
	} else if _, ok := in.program.Line(start); !ok {
		return ctrlNext, NewBASICError(ErrUndefinedLine, strconv.Itoa(start))
	}
	logger.Debug(logger.AreaBasic, "session %s: RUN from line %d", in.sessionID, start)
	in.pos = position{line: start, stmt: 0}
	return ctrlJump, nil
}

func (in *Interpreter) execList(s ListStmt) (ctrl, error) {
	for _, line := range in.program.List(s.From, s.To) {
		in.emitText(fmt.Sprintf("%d %s", line.Number, line.Source))
	}
	return ctrlNext, nil
}

func (in *Interpreter) execNew() (ctrl, error) {
	in.program.Clear()
	in.vars.Clear()
	in.resetContext()
	return ctrlHalt, nil
}

func (in *Interpreter) execClear() (ctrl, error) {
	in.vars.Clear()
	in.gosubStack = in.gosubStack[:0]
	in.forStack = in.forStack[:0]
	in.dataPtr = 0
	return ctrlNext, nil
}

// execLoad replaces the stored program with one read from the virtual file
// system, or fetched over the network when the name is a URL. The program
// store is untouched unless every line of the file parses.
func (in *Interpreter) execLoad(s LoadStmt) (ctrl, error) {
	name, err := in.evalProgramName(s.Name)
	if err != nil {
		return ctrlNext, err
	}
	var text string
	if strings.Contains(name, "://") {
		if in.fetcher == nil {
			return ctrlNext, NewBASICError(ErrIO, "network loading unavailable")
		}
		text, err = in.fetcher.Fetch(in.ctx, name)
	} else {
		if in.fs == nil {
			return ctrlNext, NewBASICError(ErrIO, "no file system")
		}
		text, err = in.fs.ReadFile(in.sessionID, name)
	}
	if err != nil {
		return ctrlNext, AsBASICError(err)
	}

	loaded := NewProgram()
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, perr := ParseLine(raw)
		if perr != nil {
			return ctrlNext, perr
		}
		if line.Number == 0 {
			return ctrlNext, NewBASICError(ErrSyntax, "unnumbered line in file")
		}
		if len(line.Statements) > 0 {
			loaded.Store(line)
		}
	}
	in.program = loaded
	in.vars.Clear()
	in.dataDirty = true
	in.resetContext()
	logger.BasicInfo("session %s: loaded %q (%d lines)", in.sessionID, name, loaded.Len())
	return ctrlHalt, nil
}

func (in *Interpreter) execSave(s SaveStmt) (ctrl, error) {
	name, err := in.evalProgramName(s.Name)
	if err != nil {
		return ctrlNext, err
	}
	if in.fs == nil {
		return ctrlNext, NewBASICError(ErrIO, "no file system")
	}
	var sb strings.Builder
	for _, line := range in.program.Lines() {
		fmt.Fprintf(&sb, "%d %s\n", line.Number, line.Source)
	}
	if err := in.fs.WriteFile(in.sessionID, name, sb.String()); err != nil {
		return ctrlNext, AsBASICError(err)
	}
	logger.BasicInfo("session %s: saved %q (%d lines)", in.sessionID, name, in.program.Len())
	return ctrlNext, nil
}

func (in *Interpreter) execFiles() (ctrl, error) {
	if in.fs == nil {
		return ctrlNext, NewBASICError(ErrIO, "no file system")
	}
	names, err := in.fs.ListFiles(in.sessionID)
	if err != nil {
		return ctrlNext, AsBASICError(err)
	}
	if len(names) == 0 {
		in.emitText("NO FILES")
		return ctrlNext, nil
	}
	for _, name := range names {
		in.emitText(name)
	}
	return ctrlNext, nil
}

func (in *Interpreter) evalProgramName(expr Expression) (string, error) {
	v, err := in.evalExpr(expr)
	if err != nil {
		return "", err
	}
	if v.IsNumeric {
		return "", NewBASICError(ErrTypeMismatch, "file name expected")
	}
	if strings.TrimSpace(v.StrValue) == "" {
		return "", NewBASICError(ErrIllegalQuantity, "empty file name")
	}
	return v.StrValue, nil
}
