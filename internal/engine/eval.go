// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/spf13/afero"
)

// Builder renders a template file with the given variable bindings. It is
// satisfied by templates.Renderer.
type Builder interface {
	Render(ctx context.Context, name, out string, vars map[string]string) (source, output string, err error)
}

// Executor evaluates expressions and runs statement programs against an
// environment. One executor is threaded through the globals, template and
// command phases of a run.
type Executor struct {
	Env     *Environment
	FS      afero.Fs
	Builder Builder
	Host    ProcessHost
	// Diag receives print() output.
	Diag io.Writer
	// BaseDir anchors relative load() paths.
	BaseDir string

	inTemplate bool
	yields     *List
}

// eval computes the value of an expression.
func (x *Executor) eval(ctx context.Context, e lang.Expr) (Value, error) {
	switch e := e.(type) {
	case *lang.AccessExpr:
		return x.access(ctx, e)
	case *lang.StringExpr:
		s, err := x.evalString(ctx, e)
		if err != nil {
			return nil, err
		}

		return String(s), nil
	case *lang.IntExpr:
		return Int(e.Value), nil
	case *lang.RangeExpr:
		lo, err := x.rangeEndpoint(ctx, e.Lo)
		if err != nil {
			return nil, err
		}

		hi, err := x.rangeEndpoint(ctx, e.Hi)
		if err != nil {
			return nil, err
		}

		return Range{Lo: lo, Hi: hi}, nil
	case *lang.ListExpr:
		elems := make([]Value, 0, len(e.Elems))

		for _, el := range e.Elems {
			v, err := x.eval(ctx, el)
			if err != nil {
				return nil, err
			}

			elems = append(elems, v)
		}

		return &List{Elems: elems}, nil
	case *lang.StructExpr:
		name, err := x.evalString(ctx, e.Name)
		if err != nil {
			return nil, err
		}

		fields, err := x.evalFields(ctx, e.Fields)
		if err != nil {
			return nil, err
		}

		return &Struct{Name: name, Fields: fields}, nil
	case *lang.CloneExpr:
		v, err := x.eval(ctx, e.X)
		if err != nil {
			return nil, err
		}

		return Clone(v), nil
	case *lang.BuildExpr:
		return x.build(ctx, e)
	case *lang.LoadExpr:
		return x.load(ctx, e)
	default:
		return nil, posErrorf(e.Position(), ErrTypeMismatch, "unsupported expression")
	}
}

// access resolves a variable access chain to an aliased view of the
// underlying storage.
func (x *Executor) access(ctx context.Context, a *lang.AccessExpr) (Value, error) {
	v, ok := x.Env.Lookup(a.Name)
	if !ok {
		return nil, posErrorf(a.Pos, ErrUndefinedVariable, "%s", a.Name)
	}

	path := a.Name

	for _, step := range a.Steps {
		if step.Index == nil {
			field, err := x.fieldOf(a.Pos, v, path, step.Field)
			if err != nil {
				return nil, err
			}

			v = field
			path += "." + step.Field

			continue
		}

		i, err := x.indexOf(ctx, step.Index)
		if err != nil {
			return nil, err
		}

		elem, err := x.elementOf(a.Pos, v, path, i)
		if err != nil {
			return nil, err
		}

		v = elem
		path += "[" + strconv.Itoa(i) + "]"
	}

	return v, nil
}

func (x *Executor) fieldOf(pos lang.Pos, v Value, path, name string) (Value, error) {
	switch v := v.(type) {
	case *Struct:
		f, ok := v.Field(name)
		if !ok {
			return nil, posErrorf(pos, ErrFieldNotFound, "%s has no field %q", path, name)
		}

		return f, nil
	case *Artifact:
		f, ok := v.Prop(name)
		if !ok {
			return nil, posErrorf(pos, ErrFieldNotFound, "%s has no property %q", path, name)
		}

		return f, nil
	default:
		return nil, posErrorf(pos, ErrTypeMismatch, "%s is a %s, not a struct", path, kindName(v))
	}
}

func (x *Executor) elementOf(pos lang.Pos, v Value, path string, i int) (Value, error) {
	switch v := v.(type) {
	case *List:
		if i < 0 || i >= len(v.Elems) {
			return nil, posErrorf(pos, ErrIndexOutOfRange, "%s[%d] with length %d", path, i, len(v.Elems))
		}

		return v.Elems[i], nil
	case Range:
		if i < 0 || i >= v.Len() {
			return nil, posErrorf(pos, ErrIndexOutOfRange, "%s[%d] with length %d", path, i, v.Len())
		}

		return Int(v.At(i)), nil
	default:
		return nil, posErrorf(pos, ErrTypeMismatch, "%s is a %s, not indexable", path, kindName(v))
	}
}

// indexOf evaluates a list index: an integer literal or an access yielding
// an integer or a numeric string.
func (x *Executor) indexOf(ctx context.Context, e lang.Expr) (int, error) {
	n, err := x.intFrom(ctx, e)

	return int(n), err
}

// rangeEndpoint evaluates one end of a range expression.
func (x *Executor) rangeEndpoint(ctx context.Context, e lang.Expr) (int64, error) {
	return x.intFrom(ctx, e)
}

func (x *Executor) intFrom(ctx context.Context, e lang.Expr) (int64, error) {
	v, err := x.eval(ctx, e)
	if err != nil {
		return 0, err
	}

	switch v := v.(type) {
	case Int:
		return int64(v), nil
	case String:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, posErrorf(e.Position(), ErrTypeMismatch, "%q is not an integer", string(v))
		}

		return n, nil
	default:
		return 0, posErrorf(e.Position(), ErrTypeMismatch, "expected an integer, got %s", kindName(v))
	}
}

// evalString concatenates the parts of a string builder.
func (x *Executor) evalString(ctx context.Context, e *lang.StringExpr) (string, error) {
	var b strings.Builder

	for _, part := range e.Parts {
		if part.IsLit {
			b.WriteString(part.Lit)
			continue
		}

		v, err := x.access(ctx, part.Access)
		if err != nil {
			return "", err
		}

		s, err := Stringify(v)
		if err != nil {
			return "", posErrorf(part.Access.Pos, ErrTypeMismatch, "%v", err)
		}

		b.WriteString(s)
	}

	return b.String(), nil
}

func (x *Executor) evalFields(ctx context.Context, fields []lang.FieldAssign) ([]Field, error) {
	out := make([]Field, 0, len(fields))

	for _, f := range fields {
		v, err := x.eval(ctx, f.Value)
		if err != nil {
			return nil, err
		}

		out = append(out, Field{Name: f.Name, Value: v})
	}

	return out, nil
}

// stringFrom evaluates an expression and stringifies the result.
func (x *Executor) stringFrom(ctx context.Context, e lang.Expr) (string, error) {
	v, err := x.eval(ctx, e)
	if err != nil {
		return "", err
	}

	s, err := Stringify(v)
	if err != nil {
		return "", posErrorf(e.Position(), ErrTypeMismatch, "%v", err)
	}

	return s, nil
}

// build invokes the template renderer with every stringifiable binding
// currently visible and returns the resulting artifact.
func (x *Executor) build(ctx context.Context, e *lang.BuildExpr) (Value, error) {
	if !x.inTemplate || x.Builder == nil {
		return nil, posErrorf(e.Pos, ErrBuildOutsideTemplate, "build()")
	}

	tmpl, err := x.stringFrom(ctx, e.Template)
	if err != nil {
		return nil, err
	}

	out, err := x.stringFrom(ctx, e.Output)
	if err != nil {
		return nil, err
	}

	props, err := x.evalFields(ctx, e.Props)
	if err != nil {
		return nil, err
	}

	vars := x.Env.Flatten()

	for _, p := range props {
		if s, err := Stringify(p.Value); err == nil {
			vars[p.Name] = s
		}
	}

	src, dest, err := x.Builder.Render(ctx, tmpl, out, vars)
	if err != nil {
		return nil, posErrorf(e.Pos, err, "build %q", tmpl)
	}

	return &Artifact{SourcePath: src, OutputPath: dest, Props: props}, nil
}

// load reads a structured data file and converts it to a value tree.
func (x *Executor) load(ctx context.Context, e *lang.LoadExpr) (Value, error) {
	path, err := x.stringFrom(ctx, e.Path)
	if err != nil {
		return nil, err
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(x.BaseDir, path)
	}

	v, err := loadValue(x.FS, path)
	if err != nil {
		return nil, posErrorf(e.Pos, ErrLoad, "%s: %v", path, err)
	}

	return v, nil
}
