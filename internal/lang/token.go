// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lang

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// TokenEOF marks the end of the source.
	TokenEOF TokenKind = iota
	// TokenIdent is an identifier or keyword.
	TokenIdent
	// TokenString is a quoted string literal, with escapes resolved.
	TokenString
	// TokenInt is a signed integer literal.
	TokenInt
	// TokenLBracket is "[".
	TokenLBracket
	// TokenRBracket is "]".
	TokenRBracket
	// TokenLBrace is "{".
	TokenLBrace
	// TokenRBrace is "}".
	TokenRBrace
	// TokenLParen is "(".
	TokenLParen
	// TokenRParen is ")".
	TokenRParen
	// TokenDot is ".".
	TokenDot
	// TokenDotDot is "..".
	TokenDotDot
	// TokenComma is ",".
	TokenComma
	// TokenSemicolon is ";".
	TokenSemicolon
	// TokenPlus is "+".
	TokenPlus
	// TokenStar is "*".
	TokenStar
	// TokenAssign is "=".
	TokenAssign
	// TokenReassign is ":=".
	TokenReassign
)

var tokenNames = map[TokenKind]string{
	TokenEOF:       "end of file",
	TokenIdent:     "identifier",
	TokenString:    "string",
	TokenInt:       "integer",
	TokenLBracket:  `"["`,
	TokenRBracket:  `"]"`,
	TokenLBrace:    `"{"`,
	TokenRBrace:    `"}"`,
	TokenLParen:    `"("`,
	TokenRParen:    `")"`,
	TokenDot:       `"."`,
	TokenDotDot:    `".."`,
	TokenComma:     `","`,
	TokenSemicolon: `";"`,
	TokenPlus:      `"+"`,
	TokenStar:      `"*"`,
	TokenAssign:    `"="`,
	TokenReassign:  `":="`,
}

// String implements fmt.Stringer for diagnostics.
func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}

	return fmt.Sprintf("token(%d)", int(k))
}

// Pos is a position in the source text, 1-based.
type Pos struct {
	Line   int
	Column int
}

// String implements fmt.Stringer.
func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind TokenKind
	Lit  string
	Pos  Pos
}

func (t Token) String() string {
	switch t.Kind {
	case TokenIdent, TokenInt:
		return t.Lit
	case TokenString:
		return fmt.Sprintf("%q", t.Lit)
	default:
		return t.Kind.String()
	}
}
