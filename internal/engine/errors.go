// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/bedrun/internal/lang"
)

var (
	// ErrUndefinedVariable is returned when an access names an unbound
	// variable, or ":=" reassigns one.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrRedeclaration is returned when "=" declares a name that already
	// exists in the current scope.
	ErrRedeclaration = errors.New("variable already declared in this scope")
	// ErrTypeMismatch is returned when a value is used as the wrong kind.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrIndexOutOfRange is returned for an index past the end of a list.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrFieldNotFound is returned for a field access on a struct that has
	// no such field.
	ErrFieldNotFound = errors.New("field not found")
	// ErrShapeMismatch is returned when a group loop's iterables have
	// different lengths.
	ErrShapeMismatch = errors.New("group loop iterables have different lengths")
	// ErrLoad is returned when load() cannot read or decode its input.
	ErrLoad = errors.New("load failed")
	// ErrBuildOutsideTemplate is returned when build() is evaluated outside
	// a template block.
	ErrBuildOutsideTemplate = errors.New("build() is only available inside a [template] block")
)

// posErrorf wraps a sentinel with the source position of the offending
// statement or expression. All such errors are fatal to the run.
func posErrorf(pos lang.Pos, sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", pos, sentinel, fmt.Sprintf(format, args...))
}
