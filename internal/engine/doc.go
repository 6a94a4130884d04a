// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package engine evaluates parsed configurations. It owns the runtime value
// model, the lexically scoped environment, and the statement executor that
// drives the template renderer and the process scheduler. A run proceeds
// strictly sequentially on one goroutine: globals seed the environment, each
// template block binds its name to the artifacts it yields, then each
// commands block launches and supervises OS processes.
package engine
