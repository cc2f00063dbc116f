package basic

import (
	"strings"

	"github.com/antibyte/basic64/pkg/shared"
)

// Comma separators in PRINT advance to the next 14-column zone.
const printZoneWidth = 14

func (in *Interpreter) execPrint(s PrintStmt) (ctrl, error) {
	var sb strings.Builder
	start := in.printCol
	col := start
	write := func(text string) {
		sb.WriteString(text)
		col += len(text)
		// Published as it grows so POS reads the live column.
		in.printCol = col
	}
	// Nothing buffered reaches the terminal on error, so the column rolls
	// back with it.
	fail := func(err error) (ctrl, error) {
		in.printCol = start
		return ctrlNext, err
	}
	for _, item := range s.Items {
		switch {
		case item.Tab:
			n, err := in.evalColumnArg(item.Expr)
			if err != nil {
				return fail(err)
			}
			if n < 1 {
				return fail(NewBASICError(ErrIllegalQuantity, "TAB argument"))
			}
			if target := n - 1; target > col {
				write(strings.Repeat(" ", target-col))
			}
		case item.Spc:
			n, err := in.evalColumnArg(item.Expr)
			if err != nil {
				return fail(err)
			}
			if n < 0 {
				return fail(NewBASICError(ErrIllegalQuantity, "SPC argument"))
			}
			write(strings.Repeat(" ", n))
		default:
			v, err := in.evalExpr(item.Expr)
			if err != nil {
				return fail(err)
			}
			text := v.Format()
			if v.IsNumeric {
				text += " "
			}
			write(text)
		}
		if item.Sep == ',' {
			write(strings.Repeat(" ", printZoneWidth-col%printZoneWidth))
		}
	}

	msg := shared.TextMessage(sb.String())
	if n := len(s.Items); n > 0 && s.Items[n-1].Sep != 0 {
		msg.NoNewline = true
	} else {
		in.printCol = 0
	}
	in.emit(msg)
	return ctrlNext, nil
}

func (in *Interpreter) evalColumnArg(expr Expression) (int, error) {
	n, err := in.evalNumber(expr)
	if err != nil {
		return 0, err
	}
	if n > 255 {
		return 0, NewBASICError(ErrIllegalQuantity, "column out of range")
	}
	return int(n), nil
}

// execInput prompts, reads one terminal line per demand and assigns the
// comma-separated fields to the targets. A malformed numeric field restarts
// the whole statement with ?REDO FROM START; unused fields draw a warning.
func (in *Interpreter) execInput(s InputStmt) (ctrl, error) {
redo:
	for {
		values := make([]BASICValue, 0, len(s.Targets))
		var pending []string
		first := true
		for len(values) < len(s.Targets) {
			if len(pending) == 0 {
				prompt := "? "
				if first && s.Prompt != "" {
					prompt = s.Prompt + "? "
				} else if !first {
					prompt = "?? "
				}
				line, err := in.readLine(prompt)
				if err != nil {
					return ctrlNext, err
				}
				pending = splitInputFields(line)
				first = false
				if len(pending) == 0 {
					pending = []string{""}
				}
			}
			raw := pending[0]
			pending = pending[1:]
			target := s.Targets[len(values)]
			if isStringName(target.Name) {
				values = append(values, StringValue(raw))
				continue
			}
			n, ok := parseNumber(strings.TrimSpace(raw))
			if !ok {
				in.emitText("?REDO FROM START")
				continue redo
			}
			values = append(values, NumberValue(n))
		}
		if len(pending) > 0 {
			in.emitText("?EXTRA IGNORED")
		}
		for i, target := range s.Targets {
			if err := in.assignRef(target, values[i]); err != nil {
				return ctrlNext, err
			}
		}
		return ctrlNext, nil
	}
}

// readLine emits the prompt, enables the input line and blocks until the
// terminal delivers a line, a break is requested or the session shuts down.
func (in *Interpreter) readLine(prompt string) (string, error) {
	in.awaitingInput.Store(true)
	defer in.awaitingInput.Store(false)
	msg := shared.TextMessage(prompt)
	msg.NoNewline = true
	in.emit(msg)
	enabled := true
	in.emit(shared.Message{Type: shared.MessageTypeInputControl, InputEnabled: &enabled})
	select {
	case line := <-in.inputChan:
		in.printCol = 0
		return line, nil
	case <-in.breakCh:
		in.breakFlag.Store(false)
		in.printCol = 0
		return "", NewBASICError(ErrBreak, "")
	case <-in.ctx.Done():
		return "", NewBASICError(ErrBreak, "")
	}
}

// splitInputFields splits an INPUT reply on commas. A field starting with a
// quote runs to the closing quote and may contain commas; everything else is
// taken verbatim with surrounding spaces trimmed.
func splitInputFields(line string) []string {
	var fields []string
	i := 0
	for i <= len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i < len(line) && line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end >= 0 {
				fields = append(fields, line[i+1:i+1+end])
				i += end + 2
				if comma := strings.IndexByte(line[i:], ','); comma >= 0 {
					i += comma + 1
				} else {
					i = len(line) + 1
				}
				continue
			}
		}
		comma := strings.IndexByte(line[i:], ',')
		if comma < 0 {
			fields = append(fields, strings.TrimSpace(line[i:]))
			break
		}
		fields = append(fields, strings.TrimSpace(line[i:i+comma]))
		i += comma + 1
		if i == len(line) {
			fields = append(fields, "")
			break
		}
	}
	return fields
}

func (in *Interpreter) execCls() (ctrl, error) {
	in.emit(shared.Message{Type: shared.MessageTypeClear})
	in.printCol = 0
	return ctrlNext, nil
}

func (in *Interpreter) execRandomize(s RandomizeStmt) (ctrl, error) {
	if s.Seed == nil {
		in.reseedRandom(in.now().UnixNano())
		return ctrlNext, nil
	}
	n, err := in.evalNumber(s.Seed)
	if err != nil {
		return ctrlNext, err
	}
	in.reseedRandom(int64(n))
	return ctrlNext, nil
}
