package basic

import "sort"

// MaxLineNumber is the highest line number a stored program may use.
const MaxLineNumber = 65529

// ProgramLine is one stored line: its parsed statement list plus the
// canonical source text LIST reproduces.
type ProgramLine struct {
	Number     int
	Statements []Statement
	Source     string
}

// Program is the ordered, line-number-keyed statement store. Line numbers in
// stored order are strictly increasing and unique; edits keep that invariant.
type Program struct {
	lines map[int]*ProgramLine
	order []int // sorted line numbers
}

// NewProgram creates an empty program store.
func NewProgram() *Program {
	return &Program{lines: make(map[int]*ProgramLine)}
}

// Store inserts a line or replaces the line with the same number.
func (p *Program) Store(line *ProgramLine) {
	if _, exists := p.lines[line.Number]; !exists {
		idx := sort.SearchInts(p.order, line.Number)
		p.order = append(p.order, 0)
		copy(p.order[idx+1:], p.order[idx:])
		p.order[idx] = line.Number
	}
	p.lines[line.Number] = line
}

// Delete removes a line. Deleting an absent line is not an error.
func (p *Program) Delete(number int) bool {
	if _, exists := p.lines[number]; !exists {
		return false
	}
	delete(p.lines, number)
	idx := sort.SearchInts(p.order, number)
	p.order = append(p.order[:idx], p.order[idx+1:]...)
	return true
}

// Line returns the stored line with the given number.
func (p *Program) Line(number int) (*ProgramLine, bool) {
	line, ok := p.lines[number]
	return line, ok
}

// LowestLine returns the smallest stored line number.
func (p *Program) LowestLine() (int, bool) {
	if len(p.order) == 0 {
		return 0, false
	}
	return p.order[0], true
}

// NextLine returns the smallest stored line number greater than after.
func (p *Program) NextLine(after int) (int, bool) {
	idx := sort.SearchInts(p.order, after+1)
	if idx >= len(p.order) {
		return 0, false
	}
	return p.order[idx], true
}

// LineAtOrAfter returns the smallest stored line number >= number.
func (p *Program) LineAtOrAfter(number int) (int, bool) {
	idx := sort.SearchInts(p.order, number)
	if idx >= len(p.order) {
		return 0, false
	}
	return p.order[idx], true
}

// List returns the stored lines within [from, to] in ascending order. Zero
// bounds mean "from the start" and "to the end".
func (p *Program) List(from, to int) []*ProgramLine {
	var out []*ProgramLine
	for _, number := range p.order {
		if from > 0 && number < from {
			continue
		}
		if to > 0 && number > to {
			break
		}
		out = append(out, p.lines[number])
	}
	return out
}

// Lines returns all stored lines in ascending order.
func (p *Program) Lines() []*ProgramLine {
	return p.List(0, 0)
}

// Len returns the number of stored lines.
func (p *Program) Len() int {
	return len(p.order)
}

// Clear removes every stored line.
func (p *Program) Clear() {
	p.lines = make(map[int]*ProgramLine)
	p.order = p.order[:0]
}

// dataValue pairs a DATA constant with its source line, so RESTORE <line>
// can reposition the cursor.
type dataValue struct {
	line  int
	value BASICValue
}

// dataValues flattens every DATA statement's constants in program order.
func (p *Program) dataValues() []dataValue {
	var out []dataValue
	for _, number := range p.order {
		for _, stmt := range p.lines[number].Statements {
			if data, ok := stmt.(DataStmt); ok {
				for _, v := range data.Values {
					out = append(out, dataValue{line: number, value: v})
				}
			}
		}
	}
	return out
}
