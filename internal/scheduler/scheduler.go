// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
)

// pollInterval is how often the pool re-checks process state while blocked
// on a slot or a wait.
const pollInterval = 100 * time.Millisecond

var (
	// ErrSpawn is returned when a process could not be started.
	ErrSpawn = errors.New("could not start process")
	// ErrRedirect is returned when an output redirection target could not
	// be opened.
	ErrRedirect = errors.New("could not open redirection target")
	// ErrWaitTimeout is reported when a wait elapses before the awaited
	// processes exit. It is the sole non-fatal condition: the processes
	// remain live and tracked.
	ErrWaitTimeout = errors.New("wait timed out")
	// ErrUnknownProcessID is returned when wait_for or kill addresses an id
	// that was never spawned.
	ErrUnknownProcessID = errors.New("unknown process id")
	// ErrDuplicateProcessID is returned when spawn reuses a live id.
	ErrDuplicateProcessID = errors.New("duplicate process id")
	// ErrCouldNotKillProcess is returned when a kill request fails.
	ErrCouldNotKillProcess = errors.New("could not kill process")
)

// OutputMode selects the redirection target kind for one stream.
type OutputMode int

const (
	// OutputInherit writes to the pool's own stream.
	OutputInherit OutputMode = iota
	// OutputCreate truncate-creates the target file.
	OutputCreate
	// OutputAppend opens the target file for append. Sequential spawns may
	// append to the same path without losing prior content.
	OutputAppend
)

// OutputTarget is the resolved redirection for one process stream.
type OutputTarget struct {
	Mode OutputMode
	Path string
}

// SpawnRequest describes one process launch. ID is nil for anonymous
// tracking; the id-addressed form enables wait_for and kill.
type SpawnRequest struct {
	ID      *int
	Dir     string
	Program string
	Args    []string
	Stdout  OutputTarget
	Stderr  OutputTarget
}

// State is the lifecycle of one pool entry.
type State int

const (
	// StateRunning means the process has started and not yet been reaped.
	StateRunning State = iota
	// StateExited means the process exited on its own.
	StateExited
	// StateKilled means the process was terminated by kill or shutdown.
	StateKilled
)

// process is one live-process pool entry. The exit fields are written by the
// wait goroutine before done is closed and read by the pool only after.
type process struct {
	label    string
	id       *int
	cmd      *exec.Cmd
	done     chan struct{}
	state    State
	exitCode int
	waitErr  error
	files    []*os.File
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Pool supervises spawned processes for one commands block. It is owned by
// the single control-flow goroutine: process exits are observed by polling,
// never by concurrent mutation.
type Pool struct {
	// Stdout and Stderr receive the streams of processes spawned with the
	// "print" output map. They default to the calling process's own.
	Stdout io.Writer
	Stderr io.Writer

	limit    int
	procs    []*process
	byID     map[int]*process
	failures *multierror.Error
	tick     time.Duration
}

// New returns an empty pool with no concurrency limit.
func New() *Pool {
	return &Pool{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		byID:   map[int]*process{},
		tick:   pollInterval,
	}
}

// Limit sets the maximum number of concurrently running processes for
// subsequent spawns. Zero means unbounded.
func (p *Pool) Limit(n int) {
	p.limit = n
}

// Live returns the number of tracked processes that have not been reaped.
func (p *Pool) Live() int {
	p.reap(context.Background())
	return len(p.procs)
}

// Spawn launches a process. When the pool is at its concurrency limit it
// blocks until a slot frees; this is the sole backpressure mechanism. It
// does not wait for the new child to finish.
func (p *Pool) Spawn(ctx context.Context, req SpawnRequest) error {
	if p.limit > 0 {
		if err := p.waitForSlot(ctx); err != nil {
			return err
		}
	}

	if req.ID != nil {
		if existing, ok := p.byID[*req.ID]; ok && !existing.exited() {
			return fmt.Errorf("%w: %d", ErrDuplicateProcessID, *req.ID)
		}
	}

	label := filepath.Base(req.Program)
	if len(req.Args) > 0 {
		label += " " + strings.Join(req.Args, " ")
	}

	cmd := exec.Command(req.Program, req.Args...)
	cmd.Dir = req.Dir

	proc := &process{
		label: label,
		id:    req.ID,
		cmd:   cmd,
		done:  make(chan struct{}),
	}

	stdout, err := p.openTarget(req.Stdout, p.Stdout, proc)
	if err != nil {
		proc.closeFiles()
		return err
	}

	cmd.Stdout = stdout

	stderr, err := p.openTarget(req.Stderr, p.Stderr, proc)
	if err != nil {
		proc.closeFiles()
		return err
	}

	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		proc.closeFiles()
		return fmt.Errorf("%w: %s: %v", ErrSpawn, req.Program, err)
	}

	ctxlog.Debug(ctx, "process started", "label", label, "pid", cmd.Process.Pid)

	go func() {
		proc.waitErr = cmd.Wait()
		proc.exitCode = cmd.ProcessState.ExitCode()
		proc.closeFiles()
		close(proc.done)
	}()

	p.procs = append(p.procs, proc)

	if req.ID != nil {
		p.byID[*req.ID] = proc
	}

	return nil
}

// openTarget resolves one stream redirection. Opened files are owned by the
// process entry for its lifetime.
func (p *Pool) openTarget(t OutputTarget, inherit io.Writer, proc *process) (io.Writer, error) {
	switch t.Mode {
	case OutputCreate, OutputAppend:
		flags := os.O_WRONLY | os.O_CREATE
		if t.Mode == OutputAppend {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}

		if dir := filepath.Dir(t.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrRedirect, t.Path, err)
			}
		}

		f, err := os.OpenFile(t.Path, flags, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrRedirect, t.Path, err)
		}

		proc.files = append(proc.files, f)

		return f, nil
	default:
		return inherit, nil
	}
}

func (pr *process) closeFiles() {
	for _, f := range pr.files {
		f.Close() //nolint:errcheck
	}

	pr.files = nil
}

// Sleep blocks for the given duration or until the context is cancelled.
// Live processes are unaffected.
func (p *Pool) Sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// waitForSlot blocks until the live count drops below the limit.
func (p *Pool) waitForSlot(ctx context.Context) error {
	for {
		p.reap(ctx)

		if len(p.procs) < p.limit {
			return nil
		}

		select {
		case <-ctx.Done():
			p.killAll(ctx)
			return ctx.Err()
		case <-time.After(p.tick):
		}
	}
}

// WaitAll blocks until every tracked process has exited. A timeout >= 0
// bounds the wait; on expiry it returns ErrWaitTimeout, leaving the
// remaining processes untouched and tracked. A negative timeout waits
// forever.
func (p *Pool) WaitAll(ctx context.Context, timeout time.Duration) error {
	deadline := time.Time{}
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		p.reap(ctx)

		if len(p.procs) == 0 {
			return nil
		}

		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %d processes still running", ErrWaitTimeout, len(p.procs))
		}

		select {
		case <-ctx.Done():
			p.killAll(ctx)
			return ctx.Err()
		case <-time.After(p.tick):
		}
	}
}

// WaitFor blocks until the process with the given id exits. Each retry
// extends the wait by another timeout. Legacy id-addressed dialect.
func (p *Pool) WaitFor(ctx context.Context, id int, timeout time.Duration, retries int) error {
	proc, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProcessID, id)
	}

	attempts := 1
	if timeout >= 0 {
		attempts += retries
	}

	for i := 0; i < attempts; i++ {
		var expire <-chan time.Time

		if timeout >= 0 {
			timer := time.NewTimer(timeout)
			expire = timer.C

			defer timer.Stop()
		}

		select {
		case <-proc.done:
			p.reap(ctx)
			return nil
		case <-expire:
		case <-ctx.Done():
			p.killAll(ctx)
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w: process %d still running", ErrWaitTimeout, id)
}

// Kill terminates the process with the given id. Killing an already-exited
// process is a no-op. Legacy id-addressed dialect.
func (p *Pool) Kill(ctx context.Context, id int) error {
	proc, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProcessID, id)
	}

	if proc.exited() {
		p.reap(ctx)
		return nil
	}

	if err := proc.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("%w: %d: %v", ErrCouldNotKillProcess, id, err)
	}

	proc.state = StateKilled
	<-proc.done
	p.reap(ctx)

	return nil
}

// Shutdown kills every live process and reaps the pool. Used when a fatal
// error aborts the run with processes still tracked.
func (p *Pool) Shutdown(ctx context.Context) {
	p.killAll(ctx)
}

// Finish waits for every remaining process and returns the accumulated
// non-zero exit summary. Abnormal exits are recorded, not fatal: the caller
// decides how to surface them.
func (p *Pool) Finish(ctx context.Context) error {
	if err := p.WaitAll(ctx, -1); err != nil {
		p.failures = multierror.Append(p.failures, err)
	}

	return p.failures.ErrorOrNil()
}

// reap removes exited processes from the live pool, recording non-zero
// exits. Only the control-flow goroutine calls it.
func (p *Pool) reap(ctx context.Context) {
	remaining := p.procs[:0]

	for _, proc := range p.procs {
		if !proc.exited() {
			remaining = append(remaining, proc)
			continue
		}

		if proc.state != StateKilled {
			proc.state = StateExited
		}

		switch {
		case proc.state == StateKilled:
			ctxlog.Debug(ctx, "process killed", "label", proc.label)
		case proc.exitCode != 0:
			ctxlog.Warn(ctx, "process exited abnormally", "label", proc.label, "exitCode", proc.exitCode)
			p.failures = multierror.Append(p.failures,
				fmt.Errorf("%s: exit status %d", proc.label, proc.exitCode))
		default:
			ctxlog.Debug(ctx, "process exited", "label", proc.label)
		}
	}

	p.procs = remaining
}

// killAll terminates every live process. Used on context cancellation.
func (p *Pool) killAll(ctx context.Context) {
	for _, proc := range p.procs {
		if proc.exited() {
			continue
		}

		if err := proc.cmd.Process.Kill(); err != nil {
			ctxlog.Error(ctx, "failed to kill process", "label", proc.label, "error", err)
			continue
		}

		proc.state = StateKilled
	}

	for _, proc := range p.procs {
		<-proc.done
	}

	p.reap(ctx)
}
