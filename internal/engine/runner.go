// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
	"github.com/matt-FFFFFF/bedrun/internal/lang"
	"github.com/matt-FFFFFF/bedrun/internal/scheduler"
	"github.com/matt-FFFFFF/bedrun/internal/templates"
	"github.com/spf13/afero"
)

// ErrUnknownBlock is returned when a requested commands block does not
// exist in the configuration.
var ErrUnknownBlock = errors.New("no such commands block")

// Options configures a run. Zero values select the OS filesystem, the
// current directory and the process's own streams.
type Options struct {
	// FS is the filesystem for templates, load() and output files.
	FS afero.Fs
	// BaseDir anchors relative include, load and output paths. Usually the
	// directory of the configuration file.
	BaseDir string
	// Diag receives print() output.
	Diag io.Writer
	// Stdout and Stderr receive the streams of processes spawned with the
	// "print" output map.
	Stdout io.Writer
	// Stderr is the counterpart of Stdout.
	Stderr io.Writer
	// Block restricts execution to the named commands block. Empty runs
	// every block in order.
	Block string
}

func (o *Options) defaults() {
	if o.FS == nil {
		o.FS = afero.NewOsFs()
	}

	if o.BaseDir == "" {
		o.BaseDir = "."
	}

	if o.Diag == nil {
		o.Diag = os.Stdout
	}

	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}

	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// Run executes a parsed configuration: globals seed the environment, each
// template block runs once and binds its name to the list of artifacts it
// yielded, then each commands block runs against the final environment with
// its own process pool. Evaluation errors are fatal; non-zero process exits
// are collected and returned as a summary after all blocks complete.
func Run(ctx context.Context, f *lang.File, opts Options) error {
	opts.defaults()

	outputDir := f.Output
	if outputDir == "" {
		outputDir = "."
	}

	if !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(opts.BaseDir, outputDir)
	}

	x := &Executor{
		Env:     NewEnvironment(),
		FS:      opts.FS,
		Builder: templates.New(opts.FS, opts.BaseDir, outputDir, f.Includes),
		Diag:    opts.Diag,
		BaseDir: opts.BaseDir,
	}

	if err := x.Execute(ctx, f.Globals); err != nil {
		return err
	}

	for _, tb := range f.Templates {
		if err := runTemplate(ctx, x, tb); err != nil {
			return err
		}
	}

	var failures *multierror.Error

	ran := false

	for _, cb := range f.Commands {
		if opts.Block != "" && cb.Name != opts.Block {
			continue
		}

		ran = true

		summary, err := runCommands(ctx, x, cb, opts)
		if err != nil {
			return err
		}

		failures = multierror.Append(failures, summary)
	}

	if opts.Block != "" && !ran {
		return fmt.Errorf("%w: %q", ErrUnknownBlock, opts.Block)
	}

	return failures.ErrorOrNil()
}

// runTemplate executes one template block in the root scope, so that its
// top-level assignments persist into the commands phase, and then binds the
// template's name to its ordered artifact list.
func runTemplate(ctx context.Context, x *Executor, tb lang.TemplateBlock) error {
	ctxlog.Debug(ctx, "running template block", "name", tb.Name)

	x.inTemplate = true
	x.yields = &List{}

	defer func() {
		x.inTemplate = false
		x.yields = nil
	}()

	if err := x.Execute(ctx, tb.Body); err != nil {
		return err
	}

	if err := x.Env.Declare(tb.Name, x.yields); err != nil {
		return posErrorf(tb.Pos, err, "%s", tb.Name)
	}

	return nil
}

// runCommands executes one commands block against a fresh process pool.
// A non-nil err aborts the run; summary collects non-zero exits, which do
// not.
func runCommands(ctx context.Context, x *Executor, cb lang.CommandBlock, opts Options) (summary, err error) {
	name := cb.Name
	if name == "" {
		name = "(default)"
	}

	ctxlog.Info(ctx, "running commands block", "name", name)

	pool := scheduler.New()
	pool.Stdout = opts.Stdout
	pool.Stderr = opts.Stderr
	x.Host = pool

	defer func() { x.Host = nil }()

	if err := x.Execute(ctx, cb.Body); err != nil {
		pool.Shutdown(ctx)
		return nil, err
	}

	return pool.Finish(ctx), nil
}
