// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
)

func TestWatch_FirstSignalCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)

	sigCh := make(chan os.Signal, 1)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel)
	}()
	sigCh <- os.Interrupt

	time.Sleep(50 * time.Millisecond)
	select {
	case <-ctx.Done():
		// ok
	default:
		t.Fatal("context should be cancelled after first signal")
	}
	close(sigCh)
	wg.Wait()
}

func TestWatch_SecondSignalExits(t *testing.T) {
	origExit := exit

	exitCode := -1
	exit = func(code int) { exitCode = code }

	defer func() { exit = origExit }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel)
	}()
	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	wg.Wait()

	if exitCode != 1 {
		t.Fatalf("expected exit code 1 after second signal, got %d", exitCode)
	}

	// Channel should be closed by Watch.
	_, ok := <-sigCh
	if ok {
		t.Fatal("signal channel should be closed after second signal")
	}
}

func TestWatch_DifferentSignalsEachCancelOnce(t *testing.T) {
	origExit := exit

	exited := false
	exit = func(int) { exited = true }

	defer func() { exit = origExit }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	sigCh := make(chan os.Signal, 2)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		Watch(ctx, sigCh, cancel)
	}()
	sigCh <- os.Interrupt
	sigCh <- os.Kill

	time.Sleep(50 * time.Millisecond)

	if exited {
		t.Fatal("distinct signal types must not force an exit")
	}

	close(sigCh)
	wg.Wait()
}
