// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package check implements the "check" subcommand: parse a configuration
// file and report every syntax error without executing anything.
package check

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/urfave/cli/v3"
)

const fileArg = "file"

// CheckCmd is the command that validates a configuration file.
var CheckCmd = &cli.Command{
	Name:        "check",
	Description: "Parse a configuration file and report syntax errors without running it.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "BEDFILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		fileName := cmd.StringArg(fileArg)
		if fileName == "" {
			return cli.Exit("Please provide a configuration file to check", 1)
		}

		src, err := os.ReadFile(fileName)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read file %s: %s", fileName, err.Error()), 1)
		}

		if _, err := lang.Parse(string(src)); err != nil {
			return cli.Exit(fmt.Sprintf("%s: %s", fileName, err.Error()), 1)
		}

		fmt.Fprintf(cmd.Writer, "%s: OK\n", fileName)

		return nil
	},
}
