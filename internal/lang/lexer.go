// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lang

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer converts source text into a token stream. Whitespace is
// insignificant between tokens and "//" begins a line comment.
type lexer struct {
	src    string
	offset int // byte offset of the next rune
	line   int
	col    int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

// Lex tokenizes the whole source. It returns a SyntaxError for characters
// that cannot begin any token and for unterminated strings.
func Lex(src string) ([]Token, error) {
	lx := newLexer(src)

	var tokens []Token

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, tok)

		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) peek() rune {
	if l.offset >= len(l.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])

	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	return r
}

func (l *lexer) pos() Pos {
	return Pos{Line: l.line, Column: l.col}
}

func (l *lexer) skipSpaceAndComments() {
	for l.offset < len(l.src) {
		r := l.peek()

		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
		case r == '/' && strings.HasPrefix(l.src[l.offset:], "//"):
			for l.offset < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) next() (Token, error) {
	l.skipSpaceAndComments()

	pos := l.pos()

	if l.offset >= len(l.src) {
		return Token{Kind: TokenEOF, Pos: pos}, nil
	}

	r := l.peek()

	switch {
	case r == '"':
		return l.lexString(pos)
	case isIdentStart(r):
		return l.lexIdent(pos), nil
	case unicode.IsDigit(r):
		return l.lexInt(pos), nil
	}

	l.advance()

	switch r {
	case '[':
		return Token{Kind: TokenLBracket, Pos: pos}, nil
	case ']':
		return Token{Kind: TokenRBracket, Pos: pos}, nil
	case '{':
		return Token{Kind: TokenLBrace, Pos: pos}, nil
	case '}':
		return Token{Kind: TokenRBrace, Pos: pos}, nil
	case '(':
		return Token{Kind: TokenLParen, Pos: pos}, nil
	case ')':
		return Token{Kind: TokenRParen, Pos: pos}, nil
	case ',':
		return Token{Kind: TokenComma, Pos: pos}, nil
	case ';':
		return Token{Kind: TokenSemicolon, Pos: pos}, nil
	case '+':
		return Token{Kind: TokenPlus, Pos: pos}, nil
	case '*':
		return Token{Kind: TokenStar, Pos: pos}, nil
	case '=':
		return Token{Kind: TokenAssign, Pos: pos}, nil
	case '.':
		if l.peek() == '.' {
			l.advance()
			return Token{Kind: TokenDotDot, Pos: pos}, nil
		}

		return Token{Kind: TokenDot, Pos: pos}, nil
	case ':':
		if l.peek() == '=' {
			l.advance()
			return Token{Kind: TokenReassign, Pos: pos}, nil
		}

		return Token{}, newSyntaxError(pos, `unexpected ":" (did you mean ":="?)`)
	case '-':
		if unicode.IsDigit(l.peek()) {
			tok := l.lexInt(pos)
			tok.Lit = "-" + tok.Lit

			return tok, nil
		}

		return Token{}, newSyntaxError(pos, `unexpected "-"`)
	}

	return Token{}, newSyntaxError(pos, fmt.Sprintf("unexpected character %q", r))
}

func (l *lexer) lexIdent(pos Pos) Token {
	start := l.offset

	for l.offset < len(l.src) && isIdentPart(l.peek()) {
		l.advance()
	}

	return Token{Kind: TokenIdent, Lit: l.src[start:l.offset], Pos: pos}
}

func (l *lexer) lexInt(pos Pos) Token {
	start := l.offset

	for l.offset < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}

	return Token{Kind: TokenInt, Lit: l.src[start:l.offset], Pos: pos}
}

func (l *lexer) lexString(pos Pos) (Token, error) {
	l.advance() // opening quote

	var sb strings.Builder

	for {
		if l.offset >= len(l.src) {
			return Token{}, newSyntaxError(pos, "unterminated string literal")
		}

		r := l.advance()

		switch r {
		case '"':
			return Token{Kind: TokenString, Lit: sb.String(), Pos: pos}, nil
		case '\\':
			if l.offset >= len(l.src) {
				return Token{}, newSyntaxError(pos, "unterminated string literal")
			}

			esc := l.advance()

			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				return Token{}, newSyntaxError(pos, fmt.Sprintf("unknown escape sequence \\%c", esc))
			}
		case '\n':
			return Token{}, newSyntaxError(pos, "newline in string literal")
		default:
			sb.WriteRune(r)
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
