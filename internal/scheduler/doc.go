// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scheduler supervises the live-process pool for one commands
// block. All pool mutation happens on the single control-flow goroutine;
// process exits are observed by polling, so no locking is needed.
package scheduler
