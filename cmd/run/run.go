// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the "run" subcommand: parse a configuration file
// and execute it end to end.
package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/bedrun/internal/engine"
	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/urfave/cli/v3"
)

const (
	fileArg   = "file"
	blockFlag = "block"
)

// RunCmd is the command that executes a test-bed configuration file.
var RunCmd = &cli.Command{
	Name:        "run",
	Description: "Parse a configuration file and run it: globals, templates, then commands.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "BEDFILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    blockFlag,
			Aliases: []string{"b"},
			Usage:   "Run only the named [commands.<name>] block",
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	fileName := cmd.StringArg(fileArg)
	if fileName == "" {
		return cli.Exit("Please provide a configuration file to run", 1)
	}

	src, err := os.ReadFile(fileName)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read file %s: %s", fileName, err.Error()), 1)
	}

	f, err := lang.Parse(string(src))
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %s", fileName, err.Error()), 1)
	}

	opts := engine.Options{
		BaseDir: filepath.Dir(fileName),
		Block:   cmd.String(blockFlag),
	}

	if err := engine.Run(ctx, f, opts); err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return nil
}
