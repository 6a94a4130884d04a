// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lang contains the lexer, parse tree and parser for bed files.
//
// A bed file is made of five section kinds, in order and each optional
// except commands:
//
//	[includes]            template search paths (string literals)
//	[output]              base directory for rendered artifacts
//	[globals]             a statement program seeding the environment
//	[template.<name>]     statement programs that render and yield artifacts
//	[commands(.<name>)?]  statement programs that spawn and supervise processes
//
// "//" begins a line comment and whitespace is insignificant between tokens.
// Parsing is pure; execution lives in the engine package.
package lang
