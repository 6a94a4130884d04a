// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lang

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// blockKind restricts which statements a program accepts.
type blockKind int

const (
	blockGlobals blockKind = iota
	blockTemplate
	blockCommands
)

// statement keywords. These are reserved: they cannot be used as variable
// names on the left of an assignment.
var stmtKeywords = map[string]struct{}{
	"print":    {},
	"if":       {},
	"for":      {},
	"group":    {},
	"in":       {},
	"yield":    {},
	"limit":    {},
	"spawn":    {},
	"sleep":    {},
	"wait_all": {},
	"wait_for": {},
	"kill":     {},
}

type parser struct {
	tokens []Token
	pos    int
	errs   *multierror.Error

	// noStruct suppresses struct literals while parsing a spawn statement,
	// where "{" introduces a direct-argument pass-through instead.
	noStruct bool
}

// Parse converts source text into a File. Parsing is pure: it has no side
// effects on the filesystem or environment. All syntax errors found are
// aggregated into the returned error.
func Parse(src string) (*File, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	f := p.file()

	if err := p.errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if len(f.Commands) == 0 {
		return nil, newSyntaxError(Pos{Line: 1, Column: 1}, "at least one [commands] section is required")
	}

	return f, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}

	return p.tokens[p.pos+n]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return tok
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, expectedError(tok.Pos, kind.String(), tok)
	}

	return p.advance(), nil
}

func (p *parser) expectKeyword(kw string) (Token, error) {
	tok := p.peek()
	if tok.Kind != TokenIdent || tok.Lit != kw {
		return tok, expectedError(tok.Pos, fmt.Sprintf("%q", kw), tok)
	}

	return p.advance(), nil
}

// atSectionHeader reports whether the next tokens open a new section, which
// terminates the current statement program.
func (p *parser) atSectionHeader() bool {
	if p.peek().Kind != TokenLBracket {
		return false
	}

	next := p.peekAt(1)
	if next.Kind != TokenIdent {
		return false
	}

	switch next.Lit {
	case "includes", "output", "globals", "template", "commands":
		return p.peekAt(2).Kind == TokenRBracket || p.peekAt(2).Kind == TokenDot
	default:
		return false
	}
}

func (p *parser) file() *File {
	f := &File{}

	for p.peek().Kind != TokenEOF {
		if !p.atSectionHeader() {
			tok := p.peek()
			p.errs = multierror.Append(p.errs, expectedError(tok.Pos, "section header", tok))
			p.syncToSection()

			continue
		}

		p.advance() // "["
		name := p.advance()

		switch name.Lit {
		case "includes":
			p.mustRBracket()

			for p.peek().Kind == TokenString {
				f.Includes = append(f.Includes, p.advance().Lit)

				if p.peek().Kind == TokenComma {
					p.advance()
				}
			}
		case "output":
			p.mustRBracket()

			tok, err := p.expect(TokenString)
			if err != nil {
				p.errs = multierror.Append(p.errs, err)
				p.syncToSection()

				continue
			}

			f.Output = tok.Lit
		case "globals":
			p.mustRBracket()
			f.Globals = p.program(blockGlobals)
		case "template":
			blockName, ok := p.sectionName(true)
			if !ok {
				continue
			}

			f.Templates = append(f.Templates, TemplateBlock{
				Name: blockName,
				Body: p.program(blockTemplate),
				Pos:  name.Pos,
			})
		case "commands":
			blockName, ok := p.sectionName(false)
			if !ok {
				continue
			}

			f.Commands = append(f.Commands, CommandBlock{
				Name: blockName,
				Body: p.program(blockCommands),
				Pos:  name.Pos,
			})
		}
	}

	return f
}

// sectionName parses the optional ".<name>]" tail of a section header.
func (p *parser) sectionName(required bool) (string, bool) {
	name := ""

	if p.peek().Kind == TokenDot {
		p.advance()

		tok, err := p.expect(TokenIdent)
		if err != nil {
			p.errs = multierror.Append(p.errs, err)
			p.syncToSection()

			return "", false
		}

		name = tok.Lit
	} else if required {
		tok := p.peek()
		p.errs = multierror.Append(p.errs, expectedError(tok.Pos, "template name", tok))
		p.syncToSection()

		return "", false
	}

	p.mustRBracket()

	return name, true
}

func (p *parser) mustRBracket() {
	if _, err := p.expect(TokenRBracket); err != nil {
		p.errs = multierror.Append(p.errs, err)
	}
}

// syncToSection skips tokens until the next section header, recovering from
// a malformed section so later errors can still be reported.
func (p *parser) syncToSection() {
	for p.peek().Kind != TokenEOF && !p.atSectionHeader() {
		p.advance()
	}
}

// syncStmt skips to the end of the current statement after a parse error.
func (p *parser) syncStmt() {
	depth := 0

	for {
		switch p.peek().Kind {
		case TokenEOF:
			return
		case TokenSemicolon:
			p.advance()

			if depth == 0 {
				return
			}
		case TokenLBrace:
			depth++
			p.advance()
		case TokenRBrace:
			if depth == 0 {
				return
			}

			depth--
			p.advance()
		case TokenLBracket:
			if depth == 0 && p.atSectionHeader() {
				return
			}

			p.advance()
		default:
			p.advance()
		}
	}
}

// program parses statements until the next section header, a closing brace,
// or end of file.
func (p *parser) program(kind blockKind) []Stmt {
	var stmts []Stmt

	for {
		tok := p.peek()

		if tok.Kind == TokenEOF || tok.Kind == TokenRBrace || p.atSectionHeader() {
			return stmts
		}

		stmt, err := p.statement(kind)
		if err != nil {
			p.errs = multierror.Append(p.errs, err)
			p.syncStmt()

			continue
		}

		stmts = append(stmts, stmt)
	}
}

func (p *parser) statement(kind blockKind) (Stmt, error) {
	tok := p.peek()

	if tok.Kind != TokenIdent {
		return nil, expectedError(tok.Pos, "statement", tok)
	}

	switch tok.Lit {
	case "print":
		return p.printStmt()
	case "if":
		return p.ifStmt(kind)
	case "for":
		return p.forStmt(kind)
	case "yield":
		if kind != blockTemplate {
			return nil, newSyntaxError(tok.Pos, "yield is only valid inside a [template] block")
		}

		return p.yieldStmt()
	case "limit", "spawn", "sleep", "wait_all", "wait_for", "kill":
		if kind != blockCommands {
			return nil, newSyntaxError(tok.Pos, fmt.Sprintf("%s is only valid inside a [commands] block", tok.Lit))
		}

		return p.commandStmt()
	default:
		return p.assignOrPush()
	}
}

func (p *parser) assignOrPush() (Stmt, error) {
	ident := p.advance()

	if _, reserved := stmtKeywords[ident.Lit]; reserved {
		return nil, newSyntaxError(ident.Pos, fmt.Sprintf("%q is a reserved word", ident.Lit))
	}

	switch p.peek().Kind {
	case TokenAssign, TokenReassign:
		op := OpDeclare
		if p.advance().Kind == TokenReassign {
			op = OpReassign
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &AssignStmt{node: node{ident.Pos}, Name: ident.Lit, Op: op, Value: value}, nil
	case TokenDot:
		p.advance()

		if _, err := p.expectKeyword("push"); err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenLParen); err != nil {
			return nil, err
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &PushStmt{node: node{ident.Pos}, Name: ident.Lit, Value: value}, nil
	default:
		return nil, expectedError(p.peek().Pos, `"=", ":=" or ".push("`, p.peek())
	}
}

func (p *parser) printStmt() (Stmt, error) {
	kw := p.advance()

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	access, err := p.accessChain()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	if err := p.semi(); err != nil {
		return nil, err
	}

	return &PrintStmt{node: node{kw.Pos}, Access: access}, nil
}

func (p *parser) ifStmt(kind blockKind) (Stmt, error) {
	kw := p.advance()

	var conds []*AccessExpr

	for p.peek().Kind == TokenIdent {
		access, err := p.accessChain()
		if err != nil {
			return nil, err
		}

		conds = append(conds, access)
	}

	if len(conds) == 0 {
		return nil, expectedError(p.peek().Pos, "condition", p.peek())
	}

	body, err := p.braceBody(kind)
	if err != nil {
		return nil, err
	}

	return &IfStmt{node: node{kw.Pos}, Conds: conds, Body: body}, nil
}

func (p *parser) forStmt(kind blockKind) (Stmt, error) {
	kw := p.advance()
	group := false

	if p.peek().Kind == TokenIdent && p.peek().Lit == "group" {
		p.advance()

		group = true
	}

	vars, err := p.identGroup()
	if err != nil {
		return nil, err
	}

	if _, err := p.expectKeyword("in"); err != nil {
		return nil, err
	}

	iters, err := p.iterGroup()
	if err != nil {
		return nil, err
	}

	if len(vars) != len(iters) {
		return nil, newSyntaxError(kw.Pos,
			fmt.Sprintf("loop declares %d variables but %d iterables", len(vars), len(iters)))
	}

	body, err := p.braceBody(kind)
	if err != nil {
		return nil, err
	}

	return &ForStmt{node: node{kw.Pos}, Group: group, Vars: vars, Iters: iters, Body: body}, nil
}

func (p *parser) identGroup() ([]string, error) {
	if p.peek().Kind == TokenIdent {
		return []string{p.advance().Lit}, nil
	}

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	var names []string

	for {
		tok, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}

		names = append(names, tok.Lit)

		if p.peek().Kind != TokenComma {
			break
		}

		p.advance()
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return names, nil
}

func (p *parser) iterGroup() ([]Expr, error) {
	if p.peek().Kind != TokenLParen {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}

		return []Expr{e}, nil
	}

	p.advance()

	var iters []Expr

	for {
		e, err := p.expr()
		if err != nil {
			return nil, err
		}

		iters = append(iters, e)

		if p.peek().Kind != TokenComma {
			break
		}

		p.advance()
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return iters, nil
}

func (p *parser) braceBody(kind blockKind) ([]Stmt, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}

	body := p.program(kind)

	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}

	return body, nil
}

func (p *parser) yieldStmt() (Stmt, error) {
	kw := p.advance()

	value, err := p.expr()
	if err != nil {
		return nil, err
	}

	if err := p.semi(); err != nil {
		return nil, err
	}

	return &YieldStmt{node: node{kw.Pos}, Value: value}, nil
}

func (p *parser) commandStmt() (Stmt, error) {
	kw := p.advance()

	switch kw.Lit {
	case "limit":
		n, err := p.intLit()
		if err != nil {
			return nil, err
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &LimitStmt{node: node{kw.Pos}, N: int(n)}, nil
	case "sleep":
		n, err := p.intLit()
		if err != nil {
			return nil, err
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &SleepStmt{node: node{kw.Pos}, Millis: n}, nil
	case "wait_all":
		timeout := int64(-1)

		if p.peek().Kind == TokenInt {
			n, err := p.intLit()
			if err != nil {
				return nil, err
			}

			timeout = n
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &WaitAllStmt{node: node{kw.Pos}, TimeoutMillis: timeout}, nil
	case "wait_for":
		id, err := p.intLit()
		if err != nil {
			return nil, err
		}

		timeout := int64(-1)
		retries := 0

		if p.peek().Kind == TokenInt {
			timeout, err = p.intLit()
			if err != nil {
				return nil, err
			}

			n, err := p.intLit()
			if err != nil {
				return nil, err
			}

			retries = int(n)
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &WaitForStmt{node: node{kw.Pos}, ID: int(id), TimeoutMillis: timeout, Retries: retries}, nil
	case "kill":
		id, err := p.intLit()
		if err != nil {
			return nil, err
		}

		if err := p.semi(); err != nil {
			return nil, err
		}

		return &KillStmt{node: node{kw.Pos}, ID: int(id)}, nil
	case "spawn":
		return p.spawnStmt(kw)
	}

	return nil, expectedError(kw.Pos, "command statement", kw)
}

func (p *parser) spawnStmt(kw Token) (Stmt, error) {
	p.noStruct = true
	defer func() { p.noStruct = false }()

	stmt := &SpawnStmt{
		node:   node{kw.Pos},
		Stdout: OutputMapExpr{Mode: OutputInherit},
		Stderr: OutputMapExpr{Mode: OutputInherit},
	}

	// Legacy dialect: explicit process id.
	if p.peek().Kind == TokenInt {
		n, err := p.intLit()
		if err != nil {
			return nil, err
		}

		id := int(n)
		stmt.ID = &id
	}

	// Options: dir(...), stdout(...), stderr(...). An option name followed
	// by "(" cannot be confused with the program expression because bare
	// accesses are never called.
	for p.peek().Kind == TokenIdent && p.peekAt(1).Kind == TokenLParen {
		name := p.peek().Lit

		switch name {
		case "dir":
			p.advance()
			p.advance()

			dir, err := p.expr()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}

			stmt.Dir = dir
		case "stdout", "stderr":
			p.advance()
			p.advance()

			m, err := p.outputMap()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}

			if name == "stdout" {
				stmt.Stdout = m
			} else {
				stmt.Stderr = m
			}
		default:
			return nil, newSyntaxError(p.peek().Pos,
				fmt.Sprintf("unknown spawn option %q (want dir, stdout or stderr)", name))
		}
	}

	program, err := p.expr()
	if err != nil {
		return nil, err
	}

	stmt.Program = program

	for p.peek().Kind != TokenSemicolon && p.peek().Kind != TokenEOF {
		arg, err := p.spawnArg()
		if err != nil {
			return nil, err
		}

		stmt.Args = append(stmt.Args, arg)
	}

	if err := p.semi(); err != nil {
		return nil, err
	}

	return stmt, nil
}

func (p *parser) outputMap() (OutputMapExpr, error) {
	tok := p.peek()

	if tok.Kind == TokenIdent {
		switch tok.Lit {
		case "print":
			p.advance()
			return OutputMapExpr{Mode: OutputInherit}, nil
		case "append":
			p.advance()

			if _, err := p.expect(TokenLParen); err != nil {
				return OutputMapExpr{}, err
			}

			path, err := p.expr()
			if err != nil {
				return OutputMapExpr{}, err
			}

			if _, err := p.expect(TokenRParen); err != nil {
				return OutputMapExpr{}, err
			}

			return OutputMapExpr{Mode: OutputAppend, Path: path}, nil
		}
	}

	path, err := p.expr()
	if err != nil {
		return OutputMapExpr{}, err
	}

	return OutputMapExpr{Mode: OutputCreate, Path: path}, nil
}

func (p *parser) spawnArg() (SpawnArg, error) {
	if p.peek().Kind == TokenLBrace {
		p.advance()

		access, err := p.accessChain()
		if err != nil {
			return SpawnArg{}, err
		}

		if _, err := p.expect(TokenRBrace); err != nil {
			return SpawnArg{}, err
		}

		return SpawnArg{Direct: access}, nil
	}

	value, err := p.expr()
	if err != nil {
		return SpawnArg{}, err
	}

	return SpawnArg{Value: value}, nil
}

func (p *parser) semi() error {
	_, err := p.expect(TokenSemicolon)

	return err
}

func (p *parser) intLit() (int64, error) {
	tok, err := p.expect(TokenInt)
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(tok.Lit, 10, 64)
	if err != nil {
		return 0, newSyntaxError(tok.Pos, fmt.Sprintf("integer out of range: %s", tok.Lit))
	}

	return n, nil
}

// ------------------------- expressions -------------------------

func (p *parser) expr() (Expr, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenStar:
		p.advance()

		x, err := p.expr()
		if err != nil {
			return nil, err
		}

		return &CloneExpr{node: node{tok.Pos}, X: x}, nil
	case TokenString:
		return p.stringish()
	case TokenInt:
		n, err := p.intLit()
		if err != nil {
			return nil, err
		}

		lo := &IntExpr{node: node{tok.Pos}, Value: n}

		if p.peek().Kind == TokenDotDot {
			return p.rangeTail(lo)
		}

		return lo, nil
	case TokenLBracket:
		return p.bracketed()
	case TokenIdent:
		switch tok.Lit {
		case "build":
			return p.buildExpr()
		case "load":
			return p.loadExpr()
		}

		access, err := p.accessChain()
		if err != nil {
			return nil, err
		}

		if p.peek().Kind == TokenDotDot {
			return p.rangeTail(access)
		}

		return access, nil
	default:
		return nil, expectedError(tok.Pos, "expression", tok)
	}
}

// stringish parses a string builder and, if a brace follows, the struct
// literal it names.
func (p *parser) stringish() (Expr, error) {
	se, err := p.stringBuilder()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind != TokenLBrace || p.noStruct {
		return se, nil
	}

	p.advance()

	st := &StructExpr{node: node{se.Pos}, Name: se}

	for p.peek().Kind == TokenIdent {
		name := p.advance()

		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		st.Fields = append(st.Fields, FieldAssign{Name: name.Lit, Value: value})

		if p.peek().Kind == TokenComma || p.peek().Kind == TokenSemicolon {
			p.advance()
		}
	}

	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}

	return st, nil
}

// stringBuilder parses one or more "+"-joined parts, each a string literal
// or a bracketed access.
func (p *parser) stringBuilder() (*StringExpr, error) {
	first := p.peek()
	se := &StringExpr{node: node{first.Pos}}

	for {
		part, err := p.stringPart()
		if err != nil {
			return nil, err
		}

		se.Parts = append(se.Parts, part)

		if p.peek().Kind != TokenPlus {
			return se, nil
		}

		p.advance()
	}
}

func (p *parser) stringPart() (StringPart, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenString:
		p.advance()
		return StringPart{Lit: tok.Lit, IsLit: true}, nil
	case TokenLBracket:
		p.advance()

		access, err := p.accessChain()
		if err != nil {
			return StringPart{}, err
		}

		if _, err := p.expect(TokenRBracket); err != nil {
			return StringPart{}, err
		}

		return StringPart{Access: access}, nil
	default:
		return StringPart{}, expectedError(tok.Pos, "string literal or [variable]", tok)
	}
}

// bracketed disambiguates the three expression forms that open with "[":
// an interpolated string builder ("[x] + ..."), a bracketed access that may
// begin a range ("[lo]..[hi]"), and a list literal.
func (p *parser) bracketed() (Expr, error) {
	open := p.advance()

	// Empty list.
	if p.peek().Kind == TokenRBracket {
		p.advance()
		return &ListExpr{node: node{open.Pos}}, nil
	}

	first, err := p.expr()
	if err != nil {
		return nil, err
	}

	if access, ok := first.(*AccessExpr); ok && p.peek().Kind == TokenRBracket {
		p.advance()

		switch p.peek().Kind {
		case TokenPlus:
			p.advance()

			se := &StringExpr{node: node{open.Pos}, Parts: []StringPart{{Access: access}}}

			for {
				part, err := p.stringPart()
				if err != nil {
					return nil, err
				}

				se.Parts = append(se.Parts, part)

				if p.peek().Kind != TokenPlus {
					return se, nil
				}

				p.advance()
			}
		case TokenDotDot:
			return p.rangeTail(access)
		default:
			return access, nil
		}
	}

	list := &ListExpr{node: node{open.Pos}, Elems: []Expr{first}}

	for p.peek().Kind == TokenComma {
		p.advance()

		elem, err := p.expr()
		if err != nil {
			return nil, err
		}

		list.Elems = append(list.Elems, elem)
	}

	if _, err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}

	return list, nil
}

// rangeTail parses "..hi" given the already-parsed low endpoint.
func (p *parser) rangeTail(lo Expr) (Expr, error) {
	dots := p.advance() // ".."

	var hi Expr

	switch p.peek().Kind {
	case TokenInt:
		n, err := p.intLit()
		if err != nil {
			return nil, err
		}

		hi = &IntExpr{node: node{dots.Pos}, Value: n}
	case TokenLBracket:
		p.advance()

		access, err := p.accessChain()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}

		hi = access
	case TokenIdent:
		access, err := p.accessChain()
		if err != nil {
			return nil, err
		}

		hi = access
	default:
		return nil, expectedError(p.peek().Pos, "range end", p.peek())
	}

	return &RangeExpr{node: node{lo.Position()}, Lo: lo, Hi: hi}, nil
}

// accessChain parses ident(.field | [index])*.
func (p *parser) accessChain() (*AccessExpr, error) {
	ident, err := p.expect(TokenIdent)
	if err != nil {
		return nil, err
	}

	if _, reserved := stmtKeywords[ident.Lit]; reserved {
		return nil, newSyntaxError(ident.Pos, fmt.Sprintf("%q is a reserved word", ident.Lit))
	}

	access := &AccessExpr{node: node{ident.Pos}, Name: ident.Lit}

	for {
		switch p.peek().Kind {
		case TokenDot:
			// ".." after an access belongs to a range, not the chain.
			if p.peekAt(1).Kind != TokenIdent {
				return access, nil
			}

			p.advance()
			field := p.advance()
			access.Steps = append(access.Steps, AccessStep{Field: field.Lit})
		case TokenLBracket:
			p.advance()

			var idx Expr

			switch p.peek().Kind {
			case TokenInt:
				n, err := p.intLit()
				if err != nil {
					return nil, err
				}

				idx = &IntExpr{node: node{p.peek().Pos}, Value: n}
			case TokenIdent:
				inner, err := p.accessChain()
				if err != nil {
					return nil, err
				}

				idx = inner
			default:
				return nil, expectedError(p.peek().Pos, "index", p.peek())
			}

			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}

			access.Steps = append(access.Steps, AccessStep{Index: idx})
		default:
			return access, nil
		}
	}
}

func (p *parser) buildExpr() (Expr, error) {
	kw := p.advance()

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	template, err := p.expr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenComma); err != nil {
		return nil, err
	}

	output, err := p.expr()
	if err != nil {
		return nil, err
	}

	b := &BuildExpr{node: node{kw.Pos}, Template: template, Output: output}

	for p.peek().Kind == TokenComma {
		p.advance()

		name, err := p.expect(TokenIdent)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(TokenAssign); err != nil {
			return nil, err
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}

		b.Props = append(b.Props, FieldAssign{Name: name.Lit, Value: value})
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return b, nil
}

func (p *parser) loadExpr() (Expr, error) {
	kw := p.advance()

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	path, err := p.expr()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	return &LoadExpr{node: node{kw.Pos}, Path: path}, nil
}
