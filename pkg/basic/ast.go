package basic

// Statement is the closed set of executable statement variants. The marker
// method keeps the set sealed inside this package so every consumption site
// can switch exhaustively.
type Statement interface {
	stmtNode()
}

// Expression is the closed set of expression tree variants, evaluated to a
// Value by the interpreter.
type Expression interface {
	exprNode()
}

// VarRef names a scalar variable or one array element. Indices is nil for
// scalars.
type VarRef struct {
	Name    string
	Indices []Expression
	Column  int
}

// LetStmt assigns the value of an expression to a variable or array element.
type LetStmt struct {
	Target VarRef
	Value  Expression
}

// PrintItem is one element of a PRINT list. Sep records the separator that
// followed the expression: ';' (no spacing), ',' (next zone) or 0 (end of
// list, newline). Tab/Spc flag the TAB(n)/SPC(n) positioning items.
type PrintItem struct {
	Expr Expression
	Sep  byte
	Tab  bool
	Spc  bool
}

// PrintStmt writes its items to the terminal. An empty item list prints a
// blank line.
type PrintStmt struct {
	Items []PrintItem
}

// InputStmt requests a line of input from the front-end and assigns the
// comma-separated fields to the target variables.
type InputStmt struct {
	Prompt  string
	Targets []VarRef
}

// IfStmt executes Then when the condition is true (non-zero numeric) and
// the optional Else branch otherwise.
type IfStmt struct {
	Cond Expression
	Then []Statement
	Else []Statement
}

// ForStmt opens a counted loop. Step is nil when omitted (defaults to 1).
type ForStmt struct {
	Var   string
	From  Expression
	To    Expression
	Step  Expression
}

// NextStmt closes one or more loops. An empty Vars list closes the innermost
// active loop.
type NextStmt struct {
	Vars []string
}

// GotoStmt jumps to the first statement of the target line.
type GotoStmt struct {
	Target int
}

// GosubStmt calls the target line, pushing the resume position.
type GosubStmt struct {
	Target int
}

// ReturnStmt resumes after the most recent GOSUB.
type ReturnStmt struct{}

// OnStmt is the computed jump: ON expr GOTO/GOSUB line, line, ...
// A selector outside 1..len(Targets) falls through without jumping.
type OnStmt struct {
	Selector Expression
	Targets  []int
	Gosub    bool
}

// ArrayDecl is one declaration inside a DIM statement.
type ArrayDecl struct {
	Name   string
	Bounds []Expression
	Column int
}

// DimStmt declares fixed-size arrays.
type DimStmt struct {
	Arrays []ArrayDecl
}

// DataStmt holds constants for READ. Values are materialized at parse time.
type DataStmt struct {
	Values []BASICValue
}

// ReadStmt pulls values from the DATA cursor into its targets.
type ReadStmt struct {
	Targets []VarRef
}

// RestoreStmt resets the DATA cursor, optionally to the first DATA statement
// at or after a line.
type RestoreStmt struct {
	Line int // 0: rewind to the start
}

// RemStmt is a comment; Text is the verbatim remainder of the line.
type RemStmt struct {
	Text string
}

// EndStmt terminates the run.
type EndStmt struct{}

// StopStmt halts the run like END, reporting the stop line.
type StopStmt struct{}

// RandomizeStmt reseeds the random number generator.
type RandomizeStmt struct {
	Seed Expression // nil: seed from the clock
}

// ClsStmt clears the terminal screen.
type ClsStmt struct{}

// RunStmt starts program execution, optionally at a line.
type RunStmt struct {
	Line int // 0: lowest stored line
}

// ListStmt writes stored lines back in canonical source form.
type ListStmt struct {
	From int // 0: start of program
	To   int // 0: end of program
}

// NewStmt clears the program and all variables.
type NewStmt struct{}

// ClearStmt resets the variable store, keeping the program.
type ClearStmt struct{}

// LoadStmt loads a named program or URL through the patch collaborator.
type LoadStmt struct {
	Name Expression
}

// SaveStmt stores the program under a name in the virtual filesystem.
type SaveStmt struct {
	Name Expression
}

// FilesStmt lists the stored program files.
type FilesStmt struct{}

// ByeStmt ends the session.
type ByeStmt struct{}

func (LetStmt) stmtNode()       {}
func (PrintStmt) stmtNode()     {}
func (InputStmt) stmtNode()     {}
func (IfStmt) stmtNode()        {}
func (ForStmt) stmtNode()       {}
func (NextStmt) stmtNode()      {}
func (GotoStmt) stmtNode()      {}
func (GosubStmt) stmtNode()     {}
func (ReturnStmt) stmtNode()    {}
func (OnStmt) stmtNode()        {}
func (DimStmt) stmtNode()       {}
func (DataStmt) stmtNode()      {}
func (ReadStmt) stmtNode()      {}
func (RestoreStmt) stmtNode()   {}
func (RemStmt) stmtNode()       {}
func (EndStmt) stmtNode()       {}
func (StopStmt) stmtNode()      {}
func (RandomizeStmt) stmtNode() {}
func (ClsStmt) stmtNode()       {}
func (RunStmt) stmtNode()       {}
func (ListStmt) stmtNode()      {}
func (NewStmt) stmtNode()       {}
func (ClearStmt) stmtNode()     {}
func (LoadStmt) stmtNode()      {}
func (SaveStmt) stmtNode()      {}
func (FilesStmt) stmtNode()     {}
func (ByeStmt) stmtNode()       {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
}

// StringLit is a string literal.
type StringLit struct {
	Value string
}

// VarExpr reads a scalar variable or array element.
type VarExpr struct {
	Ref VarRef
}

// UnaryExpr applies a prefix operator (- or NOT).
type UnaryExpr struct {
	Op      string
	Operand Expression
	Column  int
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op     string
	Left   Expression
	Right  Expression
	Column int
}

// CallExpr invokes a built-in function.
type CallExpr struct {
	Name   string
	Args   []Expression
	Column int
}

// ifSkipStmt and skipJumpStmt are the lowered form of IF/THEN/ELSE. The
// parser flattens branch statements into the line's statement list so every
// statement stays addressable by a (line, statement index) position; these
// two carry the branch jumps. Targets are statement indexes within the line.
type ifSkipStmt struct {
	Cond   Expression
	Target int // jump here when the condition is false
}

type skipJumpStmt struct {
	Target int
}

func (*ifSkipStmt) stmtNode()   {}
func (*skipJumpStmt) stmtNode() {}

func (NumberLit) exprNode()  {}
func (StringLit) exprNode()  {}
func (VarExpr) exprNode()    {}
func (UnaryExpr) exprNode()  {}
func (BinaryExpr) exprNode() {}
func (CallExpr) exprNode()   {}
