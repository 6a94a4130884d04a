// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lang

// File is the parse tree for one configuration unit.
type File struct {
	Includes  []string
	Output    string
	Globals   []Stmt
	Templates []TemplateBlock
	Commands  []CommandBlock
}

// TemplateBlock is a "[template.<name>]" section.
type TemplateBlock struct {
	Name string
	Body []Stmt
	Pos  Pos
}

// CommandBlock is a "[commands]" or "[commands.<name>]" section. Name is
// empty for the anonymous block.
type CommandBlock struct {
	Name string
	Body []Stmt
	Pos  Pos
}

// Stmt is a statement node.
type Stmt interface {
	Position() Pos
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Position() Pos
	exprNode()
}

type node struct {
	Pos Pos
}

// Position returns the source position of the node.
func (n node) Position() Pos { return n.Pos }

// AssignOp distinguishes fresh declaration from reassignment.
type AssignOp int

const (
	// OpDeclare is "=": the name must not exist in the current scope.
	OpDeclare AssignOp = iota
	// OpReassign is ":=": the name must already exist in some scope.
	OpReassign
)

// AssignStmt is "ident = expr;" or "ident := expr;".
type AssignStmt struct {
	node
	Name  string
	Op    AssignOp
	Value Expr
}

// PushStmt is "ident.push(expr);".
type PushStmt struct {
	node
	Name  string
	Value Expr
}

// PrintStmt is "print(access);".
type PrintStmt struct {
	node
	Access *AccessExpr
}

// IfStmt is "if access+ { ... }". All conditions must be true (logical AND)
// for the body to run. There is no else branch.
type IfStmt struct {
	node
	Conds []*AccessExpr
	Body  []Stmt
}

// ForStmt is a single-variable or tuple loop. Without the "group" keyword a
// tuple loop iterates the cross product of the iterables; with it the
// iterables are zipped position-wise and must have equal lengths.
type ForStmt struct {
	node
	Group bool
	Vars  []string
	Iters []Expr
	Body  []Stmt
}

// YieldStmt appends an artifact to the enclosing template's yield list.
// Template scope only.
type YieldStmt struct {
	node
	Value Expr
}

// LimitStmt is "limit N;". Command scope only.
type LimitStmt struct {
	node
	N int
}

// SleepStmt is "sleep N;" with N in milliseconds. Command scope only.
type SleepStmt struct {
	node
	Millis int64
}

// WaitAllStmt is "wait_all [timeoutMs];". Timeout < 0 means wait forever.
type WaitAllStmt struct {
	node
	TimeoutMillis int64
}

// WaitForStmt is the legacy id-addressed "wait_for <id> [timeoutMs retries];".
type WaitForStmt struct {
	node
	ID            int
	TimeoutMillis int64 // < 0 means wait forever
	Retries       int
}

// KillStmt is the legacy id-addressed "kill <id>;".
type KillStmt struct {
	node
	ID int
}

// OutputMode selects where a spawned process stream goes.
type OutputMode int

const (
	// OutputInherit writes to the scheduler's own stream ("print").
	OutputInherit OutputMode = iota
	// OutputCreate truncate-creates the target file.
	OutputCreate
	// OutputAppend opens the target file for append.
	OutputAppend
)

// OutputMapExpr is the redirection target for one process stream. Path is
// nil for OutputInherit.
type OutputMapExpr struct {
	Mode OutputMode
	Path Expr
}

// SpawnArg is one positional argument: either an expression yielding a
// string, or a brace-wrapped direct variable pass-through that expands a
// list or range to one argument per element.
type SpawnArg struct {
	Value  Expr
	Direct *AccessExpr
}

// SpawnStmt launches a process. ID is nil for anonymous tracking (the
// default model); the id-addressed form is the legacy dialect.
type SpawnStmt struct {
	node
	ID      *int
	Dir     Expr // optional working directory
	Stdout  OutputMapExpr
	Stderr  OutputMapExpr
	Program Expr
	Args    []SpawnArg
}

func (*AssignStmt) stmtNode()  {}
func (*PushStmt) stmtNode()    {}
func (*PrintStmt) stmtNode()   {}
func (*IfStmt) stmtNode()      {}
func (*ForStmt) stmtNode()     {}
func (*YieldStmt) stmtNode()   {}
func (*LimitStmt) stmtNode()   {}
func (*SleepStmt) stmtNode()   {}
func (*WaitAllStmt) stmtNode() {}
func (*WaitForStmt) stmtNode() {}
func (*KillStmt) stmtNode()    {}
func (*SpawnStmt) stmtNode()   {}

// AccessStep is one step of a variable access chain: a field name or an
// index expression (integer literal or nested access).
type AccessStep struct {
	Field string
	Index Expr
}

// AccessExpr is a variable access chain such as a.b[0].c. Resolving it
// yields a view aliased to the underlying storage.
type AccessExpr struct {
	node
	Name  string
	Steps []AccessStep
}

// StringPart is one operand of a string builder: literal text or an
// interpolated access.
type StringPart struct {
	Lit    string
	Access *AccessExpr
	IsLit  bool
}

// StringExpr is a "+"-joined concatenation of literals and bracketed
// variable accesses, e.g. "a" + [x] + "b".
type StringExpr struct {
	node
	Parts []StringPart
}

// IntExpr is a signed integer literal.
type IntExpr struct {
	node
	Value int64
}

// RangeExpr is "lo..hi". The produced sequence includes lo and excludes hi
// (half-open) and may descend. Endpoints are integer literals or bracketed
// accesses.
type RangeExpr struct {
	node
	Lo Expr
	Hi Expr
}

// ListExpr is "[e1, e2, ...]".
type ListExpr struct {
	node
	Elems []Expr
}

// FieldAssign is one "ident = expr" inside a struct literal or build call.
type FieldAssign struct {
	Name  string
	Value Expr
}

// StructExpr is a named object literal: a string-builder base name followed
// by optional field assignments in braces.
type StructExpr struct {
	node
	Name   *StringExpr
	Fields []FieldAssign
}

// CloneExpr is "*expr": a deep copy decoupled from the source storage.
type CloneExpr struct {
	node
	X Expr
}

// BuildExpr is "build(templatePath, outputPath [, field=expr]*)".
// Template scope only.
type BuildExpr struct {
	node
	Template Expr
	Output   Expr
	Props    []FieldAssign
}

// LoadExpr is "load(path)": deserialize a structured data file to a value.
type LoadExpr struct {
	node
	Path Expr
}

func (*AccessExpr) exprNode() {}
func (*StringExpr) exprNode() {}
func (*IntExpr) exprNode()    {}
func (*RangeExpr) exprNode()  {}
func (*ListExpr) exprNode()   {}
func (*StructExpr) exprNode() {}
func (*CloneExpr) exprNode()  {}
func (*BuildExpr) exprNode()  {}
func (*LoadExpr) exprNode()   {}
