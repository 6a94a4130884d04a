// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show implements the "show" subcommand: parse a configuration
// file and print an outline of its sections.
package show

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/urfave/cli/v3"
)

const fileArg = "file"

// ShowCmd is the command that prints the structure of a configuration file.
var ShowCmd = &cli.Command{
	Name:        "show",
	Description: "Parse a configuration file and print an outline of its sections.",
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
			return cli.Exit("Please provide a configuration file to show", 1)
		}

		src, err := os.ReadFile(fileName)
		if err != nil {
			return cli.Exit(fmt.Sprintf("failed to read file %s: %s", fileName, err.Error()), 1)
		}

		f, err := lang.Parse(string(src))
		if err != nil {
			return cli.Exit(fmt.Sprintf("%s: %s", fileName, err.Error()), 1)
		}

		w := cmd.Writer

		if len(f.Includes) > 0 {
			fmt.Fprintln(w, "includes:")

			for _, inc := range f.Includes {
				fmt.Fprintf(w, "  %s\n", inc)
			}
		}

		if f.Output != "" {
			fmt.Fprintf(w, "output: %s\n", f.Output)
		}

		fmt.Fprintf(w, "globals: %d statements\n", len(f.Globals))

		for _, tb := range f.Templates {
			fmt.Fprintf(w, "template.%s: %d statements\n", tb.Name, len(tb.Body))
		}

		for _, cb := range f.Commands {
			name := cb.Name
			if name == "" {
				name = "(default)"
			}

			fmt.Fprintf(w, "commands %s: %d statements\n", name, len(cb.Body))
		}

		return nil
	},
}
