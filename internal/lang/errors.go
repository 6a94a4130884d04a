// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package lang

import (
	"errors"
	"fmt"
)

// ErrSyntax is the sentinel wrapped by every SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError is a parse failure with its source position and a description
// of what was expected.
type SyntaxError struct {
	Pos Pos
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Pos, ErrSyntax, e.Msg)
}

// Unwrap makes errors.Is(err, ErrSyntax) work.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

func newSyntaxError(pos Pos, msg string) *SyntaxError {
	return &SyntaxError{Pos: pos, Msg: msg}
}

func expectedError(pos Pos, expected string, got Token) *SyntaxError {
	return newSyntaxError(pos, fmt.Sprintf("expected %s, got %s", expected, got))
}
