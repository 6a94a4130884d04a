// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	// KindString is UTF-8 text.
	KindString Kind = iota
	// KindInt is a signed whole number.
	KindInt
	// KindBool is a truth value.
	KindBool
	// KindList is an ordered sequence, mutable only via push.
	KindList
	// KindStruct is a named object with ordered fields.
	KindStruct
	// KindRange is a lazy integer sequence.
	KindRange
	// KindArtifact is the result of build(): a rendered output file plus
	// named properties. Immutable once yielded.
	KindArtifact
)

// Value is the runtime representation of data. List, Struct and Artifact are
// pointer types so that access chains alias the underlying storage; Clone
// produces an independent deep copy.
type Value interface {
	Kind() Kind
	// Display returns the human-readable representation used by print().
	Display() string
}

// String is a text value.
type String string

// Int is an integer value.
type Int int64

// Bool is a boolean value.
type Bool bool

// List is an ordered sequence of values.
type List struct {
	Elems []Value
}

// Field is one named field of a Struct or Artifact.
type Field struct {
	Name  string
	Value Value
}

// Struct is a primary name plus an ordered field mapping.
type Struct struct {
	Name   string
	Fields []Field
}

// Range is the half-open integer sequence [Lo, Hi). It descends when
// Hi < Lo.
type Range struct {
	Lo int64
	Hi int64
}

// Artifact references a rendered template output.
type Artifact struct {
	SourcePath string
	OutputPath string
	Props      []Field
}

// Kind implementations.
func (String) Kind() Kind    { return KindString }
func (Int) Kind() Kind       { return KindInt }
func (Bool) Kind() Kind      { return KindBool }
func (*List) Kind() Kind     { return KindList }
func (*Struct) Kind() Kind   { return KindStruct }
func (Range) Kind() Kind     { return KindRange }
func (*Artifact) Kind() Kind { return KindArtifact }

// Display implementations.
func (v String) Display() string { return string(v) }
func (v Int) Display() string    { return strconv.FormatInt(int64(v), 10) }
func (v Bool) Display() string   { return strconv.FormatBool(bool(v)) }

func (v *List) Display() string {
	parts := make([]string, 0, len(v.Elems))
	for _, e := range v.Elems {
		parts = append(parts, e.Display())
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func (v *Struct) Display() string {
	if len(v.Fields) == 0 {
		return v.Name
	}

	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s = %s", f.Name, f.Value.Display()))
	}

	return fmt.Sprintf("%s { %s }", v.Name, strings.Join(parts, ", "))
}

func (v Range) Display() string {
	return fmt.Sprintf("%d..%d", v.Lo, v.Hi)
}

func (v *Artifact) Display() string {
	if len(v.Props) == 0 {
		return v.OutputPath
	}

	parts := make([]string, 0, len(v.Props))
	for _, f := range v.Props {
		parts = append(parts, fmt.Sprintf("%s = %s", f.Name, f.Value.Display()))
	}

	return fmt.Sprintf("%s { %s }", v.OutputPath, strings.Join(parts, ", "))
}

// Len returns the number of integers in the range.
func (v Range) Len() int {
	if v.Hi >= v.Lo {
		return int(v.Hi - v.Lo)
	}

	return int(v.Lo - v.Hi)
}

// At returns the i-th integer of the range.
func (v Range) At(i int) int64 {
	if v.Hi >= v.Lo {
		return v.Lo + int64(i)
	}

	return v.Lo - int64(i)
}

// Field returns the named field value of a struct.
func (v *Struct) Field(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// Prop returns a named property of an artifact. The paths the artifact was
// built from are addressable as "source" and "output".
func (v *Artifact) Prop(name string) (Value, bool) {
	switch name {
	case "source":
		return String(v.SourcePath), true
	case "output":
		return String(v.OutputPath), true
	}

	for _, f := range v.Props {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// Stringify converts a value to the text used by string builders and spawn
// arguments. Structs stringify to their name and artifacts to their output
// path; lists and ranges are not stringifiable.
func Stringify(v Value) (string, error) {
	switch v := v.(type) {
	case String:
		return string(v), nil
	case Int:
		return strconv.FormatInt(int64(v), 10), nil
	case Bool:
		return strconv.FormatBool(bool(v)), nil
	case *Struct:
		return v.Name, nil
	case *Artifact:
		return v.OutputPath, nil
	default:
		return "", fmt.Errorf("%w: cannot stringify %s", ErrTypeMismatch, kindName(v))
	}
}

// Truthy reports the conditional interpretation of a resolved value: false
// only for the exact string "false", true for everything else. Unresolvable
// accesses are handled by the caller.
func Truthy(v Value) bool {
	s, ok := v.(String)

	return !ok || string(s) != "false"
}

// SeqLen returns the iteration length of a value: list length, range length,
// or one for a struct (a struct iterates as a single element of itself).
func SeqLen(v Value) (int, error) {
	switch v := v.(type) {
	case *List:
		return len(v.Elems), nil
	case Range:
		return v.Len(), nil
	case *Struct:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: cannot iterate over %s", ErrTypeMismatch, kindName(v))
	}
}

// SeqAt returns the i-th element of an iterable value. List elements are
// aliased, not copied.
func SeqAt(v Value, i int) Value {
	switch v := v.(type) {
	case *List:
		return v.Elems[i]
	case Range:
		return Int(v.At(i))
	default:
		return v
	}
}

// Clone returns a deep copy, decoupled from the source storage.
func Clone(v Value) Value {
	switch v := v.(type) {
	case *List:
		elems := make([]Value, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Clone(e)
		}

		return &List{Elems: elems}
	case *Struct:
		return &Struct{Name: v.Name, Fields: cloneFields(v.Fields)}
	case *Artifact:
		return &Artifact{SourcePath: v.SourcePath, OutputPath: v.OutputPath, Props: cloneFields(v.Props)}
	default:
		// Scalars and ranges are immutable.
		return v
	}
}

func cloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = Field{Name: f.Name, Value: Clone(f.Value)}
	}

	return out
}

func kindName(v Value) string {
	switch v.Kind() {
	case KindString:
		return "string"
	case KindInt:
		return "integer"
	case KindBool:
		return "boolean"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	case KindRange:
		return "range"
	case KindArtifact:
		return "artifact"
	default:
		return "value"
	}
}
