// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/matt-FFFFFF/bedrun/internal/scheduler"
)

// ProcessHost is the scheduling surface the command phase drives. It is
// satisfied by scheduler.Pool.
type ProcessHost interface {
	Limit(n int)
	Spawn(ctx context.Context, req scheduler.SpawnRequest) error
	Sleep(ctx context.Context, d time.Duration)
	WaitAll(ctx context.Context, timeout time.Duration) error
	WaitFor(ctx context.Context, id int, timeout time.Duration, retries int) error
	Kill(ctx context.Context, id int) error
}

// Execute runs a statement sequence in the current scope. Any evaluation or
// structural error aborts immediately.
func (x *Executor) Execute(ctx context.Context, stmts []lang.Stmt) error {
	for _, s := range stmts {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := x.execStmt(ctx, s); err != nil {
			return err
		}
	}

	return nil
}

func (x *Executor) execStmt(ctx context.Context, s lang.Stmt) error {
	switch s := s.(type) {
	case *lang.AssignStmt:
		return x.execAssign(ctx, s)
	case *lang.PushStmt:
		return x.execPush(ctx, s)
	case *lang.PrintStmt:
		return x.execPrint(ctx, s)
	case *lang.IfStmt:
		return x.execIf(ctx, s)
	case *lang.ForStmt:
		return x.execFor(ctx, s)
	case *lang.YieldStmt:
		return x.execYield(ctx, s)
	case *lang.LimitStmt:
		x.Host.Limit(s.N)
		return nil
	case *lang.SleepStmt:
		x.Host.Sleep(ctx, time.Duration(s.Millis)*time.Millisecond)
		return ctx.Err()
	case *lang.WaitAllStmt:
		return x.execWaitAll(ctx, s)
	case *lang.WaitForStmt:
		return x.execWaitFor(ctx, s)
	case *lang.KillStmt:
		if err := x.Host.Kill(ctx, s.ID); err != nil {
			return fmt.Errorf("%s: %w", s.Pos, err)
		}

		return nil
	case *lang.SpawnStmt:
		return x.execSpawn(ctx, s)
	default:
		return posErrorf(s.Position(), ErrTypeMismatch, "unsupported statement")
	}
}

func (x *Executor) execAssign(ctx context.Context, s *lang.AssignStmt) error {
	v, err := x.eval(ctx, s.Value)
	if err != nil {
		return err
	}

	if s.Op == lang.OpReassign {
		if err := x.Env.Assign(s.Name, v); err != nil {
			return posErrorf(s.Pos, err, "%s", s.Name)
		}

		return nil
	}

	if err := x.Env.Declare(s.Name, v); err != nil {
		return posErrorf(s.Pos, err, "%s", s.Name)
	}

	return nil
}

func (x *Executor) execPush(ctx context.Context, s *lang.PushStmt) error {
	target, ok := x.Env.Lookup(s.Name)
	if !ok {
		return posErrorf(s.Pos, ErrUndefinedVariable, "%s", s.Name)
	}

	list, ok := target.(*List)
	if !ok {
		return posErrorf(s.Pos, ErrTypeMismatch, "%s is a %s, not a list", s.Name, kindName(target))
	}

	v, err := x.eval(ctx, s.Value)
	if err != nil {
		return err
	}

	list.Elems = append(list.Elems, v)

	return nil
}

func (x *Executor) execPrint(ctx context.Context, s *lang.PrintStmt) error {
	v, err := x.access(ctx, s.Access)
	if err != nil {
		return err
	}

	fmt.Fprintln(x.Diag, v.Display())

	return nil
}

// execIf runs the body in a child scope when every condition is truthy. An
// access that does not resolve counts as false rather than an error.
func (x *Executor) execIf(ctx context.Context, s *lang.IfStmt) error {
	for _, cond := range s.Conds {
		v, err := x.access(ctx, cond)
		if err != nil || !Truthy(v) {
			return nil
		}
	}

	x.Env.Push()
	defer x.Env.Pop()

	return x.Execute(ctx, s.Body)
}

func (x *Executor) execFor(ctx context.Context, s *lang.ForStmt) error {
	iters := make([]Value, 0, len(s.Iters))

	for _, it := range s.Iters {
		v, err := x.eval(ctx, it)
		if err != nil {
			return err
		}

		if _, err := SeqLen(v); err != nil {
			return posErrorf(it.Position(), ErrTypeMismatch, "%v", err)
		}

		iters = append(iters, v)
	}

	if s.Group {
		return x.groupLoop(ctx, s, iters)
	}

	bindings := make([]Value, len(s.Vars))

	return x.combinationLoop(ctx, s, iters, bindings, 0)
}

// combinationLoop iterates the cross product of the iterables, innermost
// level varying fastest. Each full combination runs the body in a fresh
// child scope with every loop variable bound.
func (x *Executor) combinationLoop(ctx context.Context, s *lang.ForStmt, iters, bindings []Value, level int) error {
	if level == len(iters) {
		return x.runLoopBody(ctx, s, bindings)
	}

	n, err := SeqLen(iters[level])
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		bindings[level] = SeqAt(iters[level], i)

		if err := x.combinationLoop(ctx, s, iters, bindings, level+1); err != nil {
			return err
		}
	}

	return nil
}

// groupLoop zips the iterables position-wise. All must have equal lengths.
func (x *Executor) groupLoop(ctx context.Context, s *lang.ForStmt, iters []Value) error {
	n, err := SeqLen(iters[0])
	if err != nil {
		return err
	}

	for _, it := range iters[1:] {
		m, err := SeqLen(it)
		if err != nil {
			return err
		}

		if m != n {
			return posErrorf(s.Pos, ErrShapeMismatch, "lengths %d and %d", n, m)
		}
	}

	bindings := make([]Value, len(s.Vars))

	for i := 0; i < n; i++ {
		for j, it := range iters {
			bindings[j] = SeqAt(it, i)
		}

		if err := x.runLoopBody(ctx, s, bindings); err != nil {
			return err
		}
	}

	return nil
}

func (x *Executor) runLoopBody(ctx context.Context, s *lang.ForStmt, bindings []Value) error {
	x.Env.Push()
	defer x.Env.Pop()

	for i, name := range s.Vars {
		if err := x.Env.Declare(name, bindings[i]); err != nil {
			return posErrorf(s.Pos, err, "%s", name)
		}
	}

	return x.Execute(ctx, s.Body)
}

func (x *Executor) execYield(ctx context.Context, s *lang.YieldStmt) error {
	if x.yields == nil {
		return posErrorf(s.Pos, ErrBuildOutsideTemplate, "yield")
	}

	v, err := x.eval(ctx, s.Value)
	if err != nil {
		return err
	}

	x.yields.Elems = append(x.yields.Elems, v)

	return nil
}

// execWaitAll blocks until the pool drains. A timeout is the sole non-fatal
// condition: it is reported and execution continues with the remaining
// processes still tracked.
func (x *Executor) execWaitAll(ctx context.Context, s *lang.WaitAllStmt) error {
	timeout := time.Duration(-1)
	if s.TimeoutMillis >= 0 {
		timeout = time.Duration(s.TimeoutMillis) * time.Millisecond
	}

	err := x.Host.WaitAll(ctx, timeout)
	if err == nil {
		return nil
	}

	if errors.Is(err, scheduler.ErrWaitTimeout) {
		ctxlog.Warn(ctx, "wait_all timed out", "position", s.Pos.String(), "error", err)
		return nil
	}

	return fmt.Errorf("%s: %w", s.Pos, err)
}

func (x *Executor) execWaitFor(ctx context.Context, s *lang.WaitForStmt) error {
	timeout := time.Duration(-1)
	if s.TimeoutMillis >= 0 {
		timeout = time.Duration(s.TimeoutMillis) * time.Millisecond
	}

	if err := x.Host.WaitFor(ctx, s.ID, timeout, s.Retries); err != nil {
		return fmt.Errorf("%s: %w", s.Pos, err)
	}

	return nil
}

func (x *Executor) execSpawn(ctx context.Context, s *lang.SpawnStmt) error {
	req := scheduler.SpawnRequest{ID: s.ID}

	if s.Dir != nil {
		dir, err := x.stringFrom(ctx, s.Dir)
		if err != nil {
			return err
		}

		req.Dir = dir
	}

	program, err := x.stringFrom(ctx, s.Program)
	if err != nil {
		return err
	}

	req.Program = program

	for _, arg := range s.Args {
		expanded, err := x.spawnArg(ctx, arg)
		if err != nil {
			return err
		}

		req.Args = append(req.Args, expanded...)
	}

	req.Stdout, err = x.outputTarget(ctx, s.Stdout)
	if err != nil {
		return err
	}

	req.Stderr, err = x.outputTarget(ctx, s.Stderr)
	if err != nil {
		return err
	}

	if err := x.Host.Spawn(ctx, req); err != nil {
		return fmt.Errorf("%s: %w", s.Pos, err)
	}

	return nil
}

// spawnArg resolves one positional argument. A brace-wrapped direct variable
// holding a list or range expands to one argument per element.
func (x *Executor) spawnArg(ctx context.Context, arg lang.SpawnArg) ([]string, error) {
	if arg.Direct == nil {
		s, err := x.stringFrom(ctx, arg.Value)
		if err != nil {
			return nil, err
		}

		return []string{s}, nil
	}

	v, err := x.access(ctx, arg.Direct)
	if err != nil {
		return nil, err
	}

	switch v.(type) {
	case *List, Range:
		n, err := SeqLen(v)
		if err != nil {
			return nil, err
		}

		out := make([]string, 0, n)

		for i := 0; i < n; i++ {
			s, err := Stringify(SeqAt(v, i))
			if err != nil {
				return nil, posErrorf(arg.Direct.Pos, ErrTypeMismatch, "%v", err)
			}

			out = append(out, s)
		}

		return out, nil
	default:
		s, err := Stringify(v)
		if err != nil {
			return nil, posErrorf(arg.Direct.Pos, ErrTypeMismatch, "%v", err)
		}

		return []string{s}, nil
	}
}

func (x *Executor) outputTarget(ctx context.Context, m lang.OutputMapExpr) (scheduler.OutputTarget, error) {
	switch m.Mode {
	case lang.OutputCreate, lang.OutputAppend:
		path, err := x.stringFrom(ctx, m.Path)
		if err != nil {
			return scheduler.OutputTarget{}, err
		}

		mode := scheduler.OutputCreate
		if m.Mode == lang.OutputAppend {
			mode = scheduler.OutputAppend
		}

		return scheduler.OutputTarget{Mode: mode, Path: path}, nil
	default:
		return scheduler.OutputTarget{Mode: scheduler.OutputInherit}, nil
	}
}
