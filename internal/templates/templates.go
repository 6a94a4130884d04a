// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package templates renders text template files by substituting bracketed
// variable references, e.g. "[name]", with values supplied by the caller.
package templates

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/matt-FFFFFF/bedrun/internal/ctxlog"
	"github.com/spf13/afero"
)

var (
	// ErrTemplateNotFound is returned when the template file exists in none
	// of the search paths.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrUnboundPlaceholder is returned when the template references a
	// variable the caller did not supply.
	ErrUnboundPlaceholder = errors.New("unbound template placeholder")
	// ErrWriteOutput is returned when the rendered output cannot be written.
	ErrWriteOutput = errors.New("could not write rendered output")
)

// placeholderRe matches "[ident]" where ident may be a dotted path, such as
// "[artifact.output]". Brackets holding anything else are left verbatim.
var placeholderRe = regexp.MustCompile(`\[([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)\]`)

// Renderer locates template files on a set of search paths and writes
// rendered copies under the output directory.
type Renderer struct {
	fs          afero.Fs
	searchPaths []string
	outputDir   string
}

// New returns a renderer over the given filesystem. Template paths are
// resolved against baseDir first, then each include path in order. Rendered
// files are written under outputDir.
func New(fs afero.Fs, baseDir, outputDir string, includes []string) *Renderer {
	paths := make([]string, 0, len(includes)+1)
	paths = append(paths, baseDir)

	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}

		paths = append(paths, inc)
	}

	return &Renderer{
		fs:          fs,
		searchPaths: paths,
		outputDir:   outputDir,
	}
}

// OutputDir returns the directory rendered files are written under.
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// Resolve locates a template file on the search paths and returns its full
// path. Absolute paths bypass the search.
func (r *Renderer) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if ok, _ := afero.Exists(r.fs, name); ok {
			return name, nil
		}

		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	for _, dir := range r.searchPaths {
		full := filepath.Join(dir, name)
		if ok, _ := afero.Exists(r.fs, full); ok {
			return full, nil
		}
	}

	return "", fmt.Errorf("%w: %s (searched %d paths)", ErrTemplateNotFound, name, len(r.searchPaths))
}

// Render reads the named template, substitutes every placeholder from vars
// and writes the result to out, relative to the output directory. It returns
// the resolved source path and the written output path.
func (r *Renderer) Render(ctx context.Context, name, out string, vars map[string]string) (string, string, error) {
	src, err := r.Resolve(name)
	if err != nil {
		return "", "", err
	}

	raw, err := afero.ReadFile(r.fs, src)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, src, err)
	}

	rendered, err := Substitute(string(raw), vars)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", src, err)
	}

	dest := out
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(r.outputDir, dest)
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return "", "", fmt.Errorf("%w: %s: %v", ErrWriteOutput, dest, err)
		}
	}

	if err := afero.WriteFile(r.fs, dest, []byte(rendered), 0o644); err != nil {
		return "", "", fmt.Errorf("%w: %s: %v", ErrWriteOutput, dest, err)
	}

	ctxlog.Debug(ctx, "rendered template", "source", src, "output", dest)

	return src, dest, nil
}

// Substitute replaces every "[ident]" placeholder in text with its value
// from vars. A placeholder with no binding is an error that names the
// missing variable.
func Substitute(text string, vars map[string]string) (string, error) {
	var missing string

	out := placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]

		v, ok := vars[name]
		if !ok {
			if missing == "" {
				missing = name
			}

			return m
		}

		return v
	})

	if missing != "" {
		return "", fmt.Errorf("%w: [%s]", ErrUnboundPlaceholder, missing)
	}

	return out, nil
}
