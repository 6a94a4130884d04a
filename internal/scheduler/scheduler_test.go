// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package scheduler

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestPool() *Pool {
	p := New()
	p.Stdout = &bytes.Buffer{}
	p.Stderr = &bytes.Buffer{}
	p.tick = 5 * time.Millisecond

	return p
}

func shell(script string) SpawnRequest {
	return SpawnRequest{
		Program: "/bin/sh",
		Args:    []string{"-c", script},
	}
}

func TestPool_SpawnAndFinish(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, shell("exit 0")))
	require.NoError(t, p.Finish(ctx))
	assert.Zero(t, p.Live())
}

func TestPool_SpawnUnknownProgram(t *testing.T) {
	p := newTestPool()

	err := p.Spawn(context.Background(), SpawnRequest{Program: "/no/such/binary"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestPool_NonZeroExitSummarized(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, shell("exit 3")))
	require.NoError(t, p.Spawn(ctx, shell("exit 0")))

	err := p.Finish(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Zero(t, p.Live())
}

func TestPool_LimitSerializes(t *testing.T) {
	p := newTestPool()
	p.Limit(1)

	ctx := context.Background()
	start := time.Now()

	require.NoError(t, p.Spawn(ctx, shell("sleep 0.2")))
	require.NoError(t, p.Spawn(ctx, shell("exit 0")))

	// The second spawn must have blocked until the first exited.
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	require.NoError(t, p.Finish(ctx))
}

func TestPool_WaitAllTimeoutLeavesProcessesLive(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, shell("sleep 2")))

	err := p.WaitAll(ctx, 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, 1, p.Live())

	p.Shutdown(ctx)
	assert.Zero(t, p.Live())
}

func TestPool_OutputCreateAndAppend(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "log.txt")

	req := shell("echo one")
	req.Stdout = OutputTarget{Mode: OutputCreate, Path: path}
	require.NoError(t, p.Spawn(ctx, req))
	require.NoError(t, p.WaitAll(ctx, -1))

	req = shell("echo two")
	req.Stdout = OutputTarget{Mode: OutputAppend, Path: path}
	require.NoError(t, p.Spawn(ctx, req))
	require.NoError(t, p.Finish(ctx))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(got))
}

func TestPool_OutputInheritWritesPoolStream(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	require.NoError(t, p.Spawn(ctx, shell("echo hello")))
	require.NoError(t, p.Finish(ctx))

	out := p.Stdout.(*bytes.Buffer)
	assert.Equal(t, "hello\n", out.String())
}

func TestPool_KillByID(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	id := 1
	req := shell("sleep 5")
	req.ID = &id
	require.NoError(t, p.Spawn(ctx, req))

	require.NoError(t, p.Kill(ctx, 1))
	assert.Zero(t, p.Live())

	// Killing an exited process is a no-op.
	require.NoError(t, p.Kill(ctx, 1))
}

func TestPool_KillUnknownID(t *testing.T) {
	p := newTestPool()

	err := p.Kill(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProcessID)
}

func TestPool_WaitForID(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	id := 7
	req := shell("exit 0")
	req.ID = &id
	require.NoError(t, p.Spawn(ctx, req))

	require.NoError(t, p.WaitFor(ctx, 7, time.Second, 0))
	assert.Zero(t, p.Live())
}

func TestPool_WaitForTimeout(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	id := 9
	req := shell("sleep 2")
	req.ID = &id
	require.NoError(t, p.Spawn(ctx, req))

	err := p.WaitFor(ctx, 9, 20*time.Millisecond, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWaitTimeout)

	p.Shutdown(ctx)
}

func TestPool_DuplicateLiveID(t *testing.T) {
	p := newTestPool()
	ctx := context.Background()

	id := 3
	req := shell("sleep 1")
	req.ID = &id
	require.NoError(t, p.Spawn(ctx, req))

	err := p.Spawn(ctx, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateProcessID)

	p.Shutdown(ctx)
}

func TestPool_SleepHonoursContext(t *testing.T) {
	p := newTestPool()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	p.Sleep(ctx, time.Second)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPool_ContextCancelKillsProcesses(t *testing.T) {
	p := newTestPool()

	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, p.Spawn(ctx, shell("sleep 5")))

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := p.WaitAll(ctx, -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.Live())
}
