// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"os"

	"github.com/matt-FFFFFF/bedrun/cmd/check"
	"github.com/matt-FFFFFF/bedrun/cmd/run"
	"github.com/matt-FFFFFF/bedrun/cmd/show"
	"github.com/urfave/cli/v3"
)

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
		check.CheckCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "bedrun",
	Description: `Bedrun executes declarative test-bed configurations. A configuration
declares global values, renders parameterised template files into a working
directory, and drives combinatorial workloads of OS processes with concurrency
limits, output redirection and wait barriers.`,
	Usage:                 "bedrun run mybed.bed",
	Version:               Version,
	Copyright:             "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	EnableShellCompletion: true,
}
