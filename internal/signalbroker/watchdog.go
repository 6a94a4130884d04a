// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
)

// exit is swapped out in tests.
var exit = os.Exit

// Watch monitors the signal channel. The first signal cancels the context so
// the run can kill its spawned processes and unwind; a second signal of the
// same type terminates the process immediately.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	seen := make(map[os.Signal]struct{})

	for sig := range sigCh {
		if _, ok := seen[sig]; ok {
			ctxlog.Error(ctx, "watchdog", "detail", "received second signal of type, forcefully terminating", "signal", sig.String())
			close(sigCh)
			exit(1)

			return
		}

		ctxlog.Warn(ctx, "watchdog", "detail", "received first signal of type, cancelling run", "signal", sig.String())
		seen[sig] = struct{}{}

		cancel()
	}
}
